package supabase

import (
	"bytes"
	"context"
	"encoding/json"
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

// Client talks to the Supabase storage API for report files.
type Client struct {
	httpClient *http.Client
	projectURL string
	serviceKey string
	bucket     string
	signedTTL  time.Duration
}

// FileStore is the surface services depend on for report persistence.
type FileStore interface {
	Put(ctx context.Context, path string, data []byte, contentType string) error
	SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error)
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

// NewClient builds a storage client from configuration.
func NewClient(cfg config.StorageConfig, opts ...Option) (*Client, error) {
	projectURL := strings.TrimRight(strings.TrimSpace(cfg.ProjectURL), "/")
	if projectURL == "" {
		return nil, errors.New("storage project url is required")
	}
	if strings.TrimSpace(cfg.ServiceKey) == "" {
		return nil, errors.New("storage service key is required")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("storage bucket is required")
	}

	client := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		projectURL: projectURL,
		serviceKey: cfg.ServiceKey,
		bucket:     cfg.Bucket,
		signedTTL:  cfg.SignedURLExpiry,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// Put uploads data at the given object path, replacing any prior object.
func (c *Client) Put(ctx context.Context, path string, data []byte, contentType string) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "storage client not configured")
	}
	cleaned, err := cleanObjectPath(path)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "file data is required")
	}

	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.projectURL, c.bucket, cleaned)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build upload request")
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("x-upsert", "true")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute upload request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "upload failed")
	}
	return nil
}

// SignedURL mints a time-limited download URL for the object path. A zero ttl
// falls back to the configured default.
func (c *Client) SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	if c == nil {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "storage client not configured")
	}
	cleaned, err := cleanObjectPath(path)
	if err != nil {
		return "", err
	}
	if ttl <= 0 {
		ttl = c.signedTTL
	}
	if ttl <= 0 {
		ttl = time.Hour
	}

	endpoint := fmt.Sprintf("%s/storage/v1/object/sign/%s/%s", c.projectURL, c.bucket, cleaned)
	payload, err := json.Marshal(map[string]int{"expiresIn": int(ttl.Seconds())})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal sign request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build sign request")
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute sign request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "sign request failed")
	}

	var apiResp struct {
		SignedURL string `json:"signedURL"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode sign response")
	}
	if apiResp.SignedURL == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "sign response missing url")
	}

	return c.projectURL + "/storage/v1" + apiResp.SignedURL, nil
}

func cleanObjectPath(path string) (string, error) {
	trimmed := strings.Trim(strings.TrimSpace(path), "/")
	if trimmed == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "object path is required")
	}
	segments := strings.Split(trimmed, "/")
	for i, segment := range segments {
		if segment == "" || segment == "." || segment == ".." {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid object path")
		}
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/"), nil
}
