package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	logx "workshopmods/internal/logx"
)

func TestWriteDoesNotLeakTelemetry(t *testing.T) {
	var logBuf bytes.Buffer
	logger := zerolog.New(logx.NewRedactor(&logBuf)).With().Timestamp().Logger()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/foo", nil)
	req = req.WithContext(logger.WithContext(req.Context()))
	Write(rec, req, Internal(errors.New("boom")))

	if strings.Contains(rec.Body.String(), "telemetry") {
		t.Fatalf("telemetry leaked into response: %s", rec.Body.String())
	}
	var errResp Error
	if err := json.NewDecoder(rec.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if strings.Contains(errResp.Message, "telemetry") {
		t.Fatalf("telemetry leaked into message: %s", errResp.Message)
	}
	if !strings.Contains(logBuf.String(), "\"event\":\"api_error\"") {
		t.Fatalf("expected api_error log, got %s", logBuf.String())
	}
}

func TestWriteUsesStatusAndRequestID(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/runs/ftp", nil)
	req.Header.Set("X-Request-ID", "req-42")
	Write(rec, req, BadRequest("unknown variant"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	var errResp Error
	if err := json.NewDecoder(rec.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if errResp.Code != "bad_request" || errResp.RequestID != "req-42" {
		t.Fatalf("unexpected body: %#v", errResp)
	}
}

func TestWritePlainErrorIsInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("disk full"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestWriteDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	err := Unprocessable("no workshop ids found").WithDetails(map[string]string{"variant": "web"})
	Write(rec, httptest.NewRequest(http.MethodPost, "/api/runs/web", nil), err)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	var errResp Error
	if err := json.NewDecoder(rec.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if errResp.Details["variant"] != "web" {
		t.Fatalf("details = %v", errResp.Details)
	}
	if errResp.RequestID == "" {
		t.Fatalf("missing generated request id")
	}
}
