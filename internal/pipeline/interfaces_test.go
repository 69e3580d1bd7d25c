package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newFakeGemini(t *testing.T, status int, body interface{}) (*httptest.Server, chan string) {
	t.Helper()
	paths := make(chan string, 16)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case paths <- r.URL.Path:
		default:
		}
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv, paths
}

func TestGeminiAnalysisModel_GenerateAnalyses(t *testing.T) {
	body := map[string]interface{}{
		"candidates": []interface{}{
			map[string]interface{}{
				"content": map[string]interface{}{
					"role":  "model",
					"parts": []interface{}{map[string]interface{}{"text": "[" + validAnalysis + "]"}},
				},
			},
		},
	}
	srv, paths := newFakeGemini(t, http.StatusOK, body)

	client, err := NewGenAIClient(context.Background(), "test-key", srv.URL)
	if err != nil {
		t.Fatalf("NewGenAIClient: %v", err)
	}
	m := NewGeminiAnalysisModel(client, "")
	if m.Name() != DefaultAnalysisModel {
		t.Errorf("Name() = %q", m.Name())
	}

	raw, err := m.GenerateAnalyses(context.Background(), "prompt", analysisSchema())
	if err != nil {
		t.Fatalf("GenerateAnalyses: %v", err)
	}
	if _, err := parseAnalyses(raw); err != nil {
		t.Errorf("response did not parse: %v", err)
	}
	if path := <-paths; !strings.Contains(path, DefaultAnalysisModel) {
		t.Errorf("request path %q does not name the model", path)
	}
}

func TestGeminiAnalysisModel_TransportError(t *testing.T) {
	body := map[string]interface{}{
		"error": map[string]interface{}{"code": 503, "message": "unavailable", "status": "UNAVAILABLE"},
	}
	srv, _ := newFakeGemini(t, http.StatusServiceUnavailable, body)

	client, err := NewGenAIClient(context.Background(), "test-key", srv.URL)
	if err != nil {
		t.Fatalf("NewGenAIClient: %v", err)
	}

	_, err = NewGeminiAnalysisModel(client, "m").GenerateAnalyses(context.Background(), "prompt", analysisSchema())
	if !errors.Is(err, ErrTransport) {
		t.Errorf("err = %v, want ErrTransport", err)
	}
}
