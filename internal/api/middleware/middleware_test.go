package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dvloznov/smartpause/internal/logger"
	"github.com/rs/zerolog"
)

func TestRequestID_Generated(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == "" || len(seen) != 36 {
		t.Errorf("request ID = %q, want a UUID", seen)
	}
	if rec.Header().Get("X-Request-ID") != seen {
		t.Errorf("header = %q, context = %q", rec.Header().Get("X-Request-ID"), seen)
	}
}

func TestRequestID_Propagated(t *testing.T) {
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-ID") != "abc" {
		t.Errorf("X-Request-ID = %q", rec.Header().Get("X-Request-ID"))
	}
}

func TestLogger_StatusAndContext(t *testing.T) {
	buf := &bytes.Buffer{}
	log := zerolog.New(buf)

	h := RequestID(Logger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqLog := logger.FromContext(r.Context())
		reqLog.Info().Msg("inside handler")
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("tea"))
	})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/x", nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d: %s", len(lines), buf.String())
	}
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[1]), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry["status"] != float64(http.StatusTeapot) || entry["path"] != "/api/x" || entry["bytes"] != float64(3) {
		t.Errorf("unexpected entry: %v", entry)
	}
	if !strings.Contains(lines[0], "request_id") {
		t.Errorf("handler log missing request_id: %s", lines[0])
	}
}

func TestRecovery(t *testing.T) {
	buf := &bytes.Buffer{}
	h := RequestID(Recovery(zerolog.New(buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-7")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}

	var entry map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry["panic"] != "boom" || entry["request_id"] != "req-7" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestRecovery_AbortHandlerPropagates(t *testing.T) {
	h := Recovery(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if got := recover(); got != http.ErrAbortHandler {
			t.Errorf("recovered %v, want http.ErrAbortHandler", got)
		}
	}()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name        string
		origin      string
		method      string
		wantStatus  int
		wantNext    bool
		wantAllow   string
		wantVary    string
		wantMethods string
	}{
		{name: "preflight any origin", origin: "", method: http.MethodOptions, wantStatus: http.StatusNoContent, wantAllow: "*", wantMethods: "GET, POST"},
		{name: "get any origin", origin: "*", method: http.MethodGet, wantStatus: http.StatusOK, wantNext: true, wantAllow: "*"},
		{name: "get fixed origin", origin: "https://smartpause.app", method: http.MethodGet, wantStatus: http.StatusOK, wantNext: true, wantAllow: "https://smartpause.app", wantVary: "Origin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			h := CORS(tt.origin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, "/api/analyses", nil))
			if rec.Code != tt.wantStatus || called != tt.wantNext {
				t.Errorf("status = %d, next called = %v", rec.Code, called)
			}
			hdr := rec.Header()
			if hdr.Get("Access-Control-Allow-Origin") != tt.wantAllow {
				t.Errorf("Allow-Origin = %q, want %q", hdr.Get("Access-Control-Allow-Origin"), tt.wantAllow)
			}
			if hdr.Get("Vary") != tt.wantVary {
				t.Errorf("Vary = %q, want %q", hdr.Get("Vary"), tt.wantVary)
			}
			if hdr.Get("Access-Control-Allow-Methods") != tt.wantMethods {
				t.Errorf("Allow-Methods = %q, want %q", hdr.Get("Access-Control-Allow-Methods"), tt.wantMethods)
			}
			if hdr.Get("Access-Control-Expose-Headers") != "X-Request-ID" {
				t.Error("X-Request-ID not exposed")
			}
		})
	}
}
