package responses

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/pawdx/vetlab-backend/pkg/errors"
	"github.com/pawdx/vetlab-backend/pkg/types"
)

func TestWriteErrorSurfacesDomainMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeValidation, "coupon \"SAVE10\" has expired")

	WriteError(context.Background(), nil, rec, err)

	if rec.Code != 400 {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var envelope types.ErrorEnvelope
	if decodeErr := json.NewDecoder(rec.Body).Decode(&envelope); decodeErr != nil {
		t.Fatalf("decode: %v", decodeErr)
	}
	if envelope.Error.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("code = %s", envelope.Error.Code)
	}
	if envelope.Error.Message != "coupon \"SAVE10\" has expired" {
		t.Fatalf("message = %q", envelope.Error.Message)
	}
}

func TestWriteErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeInternal, "pg connection refused at 10.0.0.4")

	WriteError(context.Background(), nil, rec, err)

	if rec.Code != 500 {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var envelope types.ErrorEnvelope
	if decodeErr := json.NewDecoder(rec.Body).Decode(&envelope); decodeErr != nil {
		t.Fatalf("decode: %v", decodeErr)
	}
	if envelope.Error.Message == "pg connection refused at 10.0.0.4" {
		t.Fatal("internal detail leaked to the client")
	}
}

func TestWriteSuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, map[string]string{"status": "ok"})

	var envelope types.SuccessEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data == nil {
		t.Fatal("data missing")
	}
}
