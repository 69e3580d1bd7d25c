package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/dvloznov/smartpause/internal/api/middleware"
)

// Handlers groups the endpoint handlers mounted by Register.
type Handlers struct {
	Transactions *TransactionsHandler
	Analyses     *AnalysesHandler
	Runs         *RunsHandler
	Assets       *AssetsHandler
	Events       *EventsHandler
}

// Register mounts every endpoint on mux.
func Register(mux *http.ServeMux, h Handlers) {
	get := func(fn http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
				return
			}
			fn(w, r)
		}
	}

	mux.HandleFunc("/api/transactions", get(h.Transactions.ListTransactions))
	mux.HandleFunc("/api/analyses", get(h.Analyses.ListAnalyses))
	mux.HandleFunc("/api/summary", get(h.Analyses.Summary))
	mux.HandleFunc("/api/runs", get(h.Runs.ListRuns))
	mux.HandleFunc("/api/events", get(h.Events.Stream))

	mux.HandleFunc("/api/analyses/run", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			h.Analyses.RunAnalysis(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/assets/", get(func(w http.ResponseWriter, r *http.Request) {
		// Extract asset kind from path
		kind := strings.TrimPrefix(r.URL.Path, "/api/assets/")
		if kind == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Asset kind is required")
			return
		}
		h.Assets.GetAsset(w, r, kind)
	}))

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
}
