package middleware

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
)

type fakeIdemStore struct {
	data map[string]string
}

func newFakeIdemStore() *fakeIdemStore {
	return &fakeIdemStore{data: map[string]string{}}
}

func (f *fakeIdemStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeIdemStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	str, _ := value.(string)
	f.data[key] = str
	return true, nil
}

func (f *fakeIdemStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func (f *fakeIdemStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("fake:%s:%s", scope, id)
}

func requestWithPattern(method, url, pattern string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, url, body)
	rc := chi.NewRouteContext()
	rc.RoutePatterns = []string{pattern}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func TestRouteTTLSelection(t *testing.T) {
	cases := []struct {
		name    string
		method  string
		pattern string
		want    time.Duration
		covered bool
	}{
		{"booking create is critical", http.MethodPost, "/api/v1/bookings", criticalIdempotencyTTL, true},
		{"booking status is critical", http.MethodPost, "/api/v1/bookings/{id}/status", criticalIdempotencyTTL, true},
		{"billing finalize is critical", http.MethodPost, "/api/v1/billing/{id}/finalize", criticalIdempotencyTTL, true},
		{"register is standard", http.MethodPost, "/api/v1/auth/register", defaultIdempotencyTTL, true},
		{"report upload is standard", http.MethodPost, "/api/v1/reports/items/{id}/upload", defaultIdempotencyTTL, true},
		{"reads are exempt", http.MethodGet, "/api/v1/bookings", 0, false},
		{"login is exempt", http.MethodPost, "/api/v1/auth/login", 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ttl, ok := routeTTL(tc.method, tc.pattern)
			if ok != tc.covered {
				t.Fatalf("covered = %v, want %v", ok, tc.covered)
			}
			if ok && ttl != tc.want {
				t.Fatalf("ttl = %v, want %v", ttl, tc.want)
			}
		})
	}
}

func TestIdempotencyRequiresHeader(t *testing.T) {
	store := newFakeIdemStore()
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := requestWithPattern(http.MethodPost, "/api/v1/bookings", "/api/v1/bookings", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newFakeIdemStore()
	var hits int
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"abc"}}`))
	}))

	body := `{"pet_id":"p1"}`
	for i := 0; i < 2; i++ {
		req := requestWithPattern(http.MethodPost, "/api/v1/bookings", "/api/v1/bookings", strings.NewReader(body))
		req.Header.Set("Idempotency-Key", "key-1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("attempt %d: status %d", i, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"abc"`) {
			t.Fatalf("attempt %d: body %q", i, rec.Body.String())
		}
	}

	if hits != 1 {
		t.Fatalf("handler ran %d times, want 1", hits)
	}
}

func TestIdempotencyRejectsKeyReuseWithDifferentBody(t *testing.T) {
	store := newFakeIdemStore()
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	first := requestWithPattern(http.MethodPost, "/api/v1/bookings", "/api/v1/bookings", strings.NewReader(`{"pet_id":"p1"}`))
	first.Header.Set("Idempotency-Key", "key-2")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first attempt: %d", rec.Code)
	}

	second := requestWithPattern(http.MethodPost, "/api/v1/bookings", "/api/v1/bookings", strings.NewReader(`{"pet_id":"p2"}`))
	second.Header.Set("Idempotency-Key", "key-2")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, second)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}
