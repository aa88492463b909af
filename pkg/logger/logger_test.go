package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestErrorCarriesRequestScopedFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "vetlab-api", Level: ParseLevel("debug"), Output: buf})

	ctx := context.Background()
	ctx = log.WithRequestID(ctx, "req-8f2c")
	ctx = log.WithBookingID(ctx, "1d0a7c0e-5b7d-4f7e-9a3b-0c1d2e3f4a5b")
	ctx = log.WithActorRole(ctx, "collection_agent")

	log.Error(ctx, "assign staff failed", errors.New("staff member is inactive"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log entry is not JSON: %v; entry=%s", err, buf.String())
	}
	if entry["request_id"] != "req-8f2c" {
		t.Fatalf("request_id missing; entry=%s", buf.String())
	}
	if entry["booking_id"] != "1d0a7c0e-5b7d-4f7e-9a3b-0c1d2e3f4a5b" {
		t.Fatalf("booking_id missing; entry=%s", buf.String())
	}
	if entry["actor_role"] != "collection_agent" {
		t.Fatalf("actor_role missing; entry=%s", buf.String())
	}
	if entry["service"] != "vetlab-api" {
		t.Fatalf("service name missing; entry=%s", buf.String())
	}
	if entry["error"] != "staff member is inactive" {
		t.Fatalf("error cause missing; entry=%s", buf.String())
	}
	if _, ok := entry["stack"]; !ok {
		t.Fatalf("expected stack trace on error; entry=%s", buf.String())
	}
}

func TestWarnStackToggle(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "vetlab-api", Level: ParseLevel("debug"), Output: buf, WarnStack: true})
	log.Warn(context.Background(), "distance pricing config expires tomorrow")
	if !bytes.Contains(buf.Bytes(), []byte("\"stack\"")) {
		t.Fatalf("expected stack when warn stack enabled; entry=%s", buf.String())
	}

	buf.Reset()
	log = New(Options{ServiceName: "vetlab-api", Level: ParseLevel("debug"), Output: buf})
	log.Warn(context.Background(), "distance pricing config expires tomorrow")
	if bytes.Contains(buf.Bytes(), []byte("\"stack\"")) {
		t.Fatalf("stack should be off by default on warn; entry=%s", buf.String())
	}
}

func TestParseLevelFallsBackToInfo(t *testing.T) {
	if lvl := ParseLevel(""); lvl != zerolog.InfoLevel {
		t.Fatalf("empty level should default to info, got %v", lvl)
	}
	if lvl := ParseLevel("shouting"); lvl != zerolog.InfoLevel {
		t.Fatalf("unknown level should default to info, got %v", lvl)
	}
	if lvl := ParseLevel(" WARN "); lvl != zerolog.WarnLevel {
		t.Fatalf("expected warn, got %v", lvl)
	}
}
