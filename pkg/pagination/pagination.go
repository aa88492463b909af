package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultLimit is the page size when the client does not send one.
	DefaultLimit = 25
	// MaxLimit caps the page size a client can request.
	MaxLimit = 100
)

// Params carries the ?limit= and ?cursor= query inputs through the service
// layer to the repository.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor marks the last row of a page. Listings order by (created_at, id)
// descending, so the pair identifies a row uniquely even when several
// bookings share a creation timestamp.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// NormalizeLimit clamps limit into [1, MaxLimit], defaulting when unset.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// LimitWithBuffer is the normalized limit plus one sentinel row. Fetching
// one extra row tells the repository whether another page exists without a
// count query.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

// Encode renders the cursor as an opaque base64 token for the next_cursor
// response field.
func (c Cursor) Encode() string {
	payload := fmt.Sprintf("%s|%s", c.CreatedAt.UTC().Format(time.RFC3339Nano), c.ID.String())
	return base64.StdEncoding.EncodeToString([]byte(payload))
}

// ParseCursor decodes a client-supplied token. A blank token means the
// first page and yields a nil cursor.
func ParseCursor(value string) (*Cursor, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	decoded, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid cursor format")
	}

	t, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid cursor timestamp: %w", err)
	}
	id, err := uuid.Parse(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid cursor id: %w", err)
	}
	return &Cursor{CreatedAt: t, ID: id}, nil
}
