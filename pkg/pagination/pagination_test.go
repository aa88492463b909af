package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNormalizeLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{name: "unset defaults", limit: 0, want: DefaultLimit},
		{name: "negative defaults", limit: -3, want: DefaultLimit},
		{name: "in range passes through", limit: 40, want: 40},
		{name: "oversized clamps", limit: 5000, want: MaxLimit},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeLimit(tc.limit); got != tc.want {
				t.Fatalf("NormalizeLimit(%d) = %d, want %d", tc.limit, got, tc.want)
			}
		})
	}

	if got := LimitWithBuffer(40); got != 41 {
		t.Fatalf("LimitWithBuffer(40) = %d, want 41", got)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	lastBooking := Cursor{
		CreatedAt: time.Date(2026, time.March, 14, 9, 30, 0, 123456789, time.UTC),
		ID:        uuid.New(),
	}

	token := lastBooking.Encode()
	got, err := ParseCursor(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !got.CreatedAt.Equal(lastBooking.CreatedAt) {
		t.Fatalf("created_at = %v, want %v", got.CreatedAt, lastBooking.CreatedAt)
	}
	if got.ID != lastBooking.ID {
		t.Fatalf("id = %s, want %s", got.ID, lastBooking.ID)
	}
}

func TestParseCursorRejectsMalformedTokens(t *testing.T) {
	if c, err := ParseCursor("  "); err != nil || c != nil {
		t.Fatalf("blank token should mean first page, got cursor=%v err=%v", c, err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{name: "not base64", token: "not-base64!"},
		{name: "missing separator", token: encode(t, "2026-03-14T09:30:00Z")},
		{name: "bad timestamp", token: encode(t, "yesterday|"+uuid.NewString())},
		{name: "bad id", token: encode(t, "2026-03-14T09:30:00Z|booking-7")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseCursor(tc.token); err == nil {
				t.Fatalf("token %q accepted", tc.token)
			}
		})
	}
}

func encode(t *testing.T, payload string) string {
	t.Helper()
	return base64.StdEncoding.EncodeToString([]byte(payload))
}
