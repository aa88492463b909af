package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pawdx/vetlab-backend/pkg/config"
	pkgerrors "github.com/pawdx/vetlab-backend/pkg/errors"
)

const responseBodyReadLimit int64 = 1024

// Client sends WhatsApp messages through the Twilio messaging API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	accountSID string
	authToken  string
	from       string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds a Twilio WhatsApp client from configuration.
func NewClient(cfg config.NotifyConfig, opts ...Option) (*Client, error) {
	if !cfg.Enabled() {
		return nil, errors.New("twilio credentials are required")
	}

	client := &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		from:       cfg.WhatsAppNumber,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// Send dispatches a WhatsApp message, optionally attaching a media URL.
func (c *Client) Send(ctx context.Context, to, body, mediaURL string) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "whatsapp client not configured")
	}
	to = strings.TrimSpace(to)
	if to == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient is required")
	}
	if strings.TrimSpace(body) == "" && strings.TrimSpace(mediaURL) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "message body or media url is required")
	}

	form := url.Values{}
	form.Set("From", whatsappAddress(c.from))
	form.Set("To", whatsappAddress(to))
	if body != "" {
		form.Set("Body", body)
	}
	if mediaURL != "" {
		form.Set("MediaUrl", mediaURL)
	}

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, url.PathEscape(c.accountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build message request")
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute message request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "message request failed")
	}
	return nil
}

func whatsappAddress(number string) string {
	number = strings.TrimSpace(number)
	if strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}
