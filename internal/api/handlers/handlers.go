package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dvloznov/smartpause/internal/api/middleware"
	"github.com/dvloznov/smartpause/internal/domain"
	"github.com/dvloznov/smartpause/internal/pipeline"
	"github.com/dvloznov/smartpause/internal/runs"
	"github.com/dvloznov/smartpause/internal/state"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// AnalysisState is the read side of the state container.
type AnalysisState interface {
	Snapshot() state.Snapshot
	RecoverableSpend() decimal.Decimal
	Asset(kind domain.AssetKind) (string, bool)
	Subscribe(buffer int) (<-chan state.Event, func())
}

// RunStarter starts analysis runs. pipeline.Runner implements it.
type RunStarter interface {
	Start(ctx context.Context) (string, error)
	InFlight() bool
}

// RunLister lists recorded runs. Every runs.Recorder implements it.
type RunLister interface {
	ListRuns(ctx context.Context, filter runs.RunFilter) ([]*runs.Run, error)
}

// TransactionsHandler handles transaction endpoints.
type TransactionsHandler struct {
	txs *domain.TransactionStore
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(txs *domain.TransactionStore) *TransactionsHandler {
	return &TransactionsHandler{txs: txs}
}

// ListTransactions handles GET /api/transactions
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	all := h.txs.All()
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": all,
		"count":        len(all),
	})
}

// AnalysesHandler handles analysis endpoints.
type AnalysesHandler struct {
	state  AnalysisState
	runner RunStarter
	log    zerolog.Logger
}

// NewAnalysesHandler creates a new analyses handler.
func NewAnalysesHandler(st AnalysisState, runner RunStarter, log zerolog.Logger) *AnalysesHandler {
	return &AnalysesHandler{state: st, runner: runner, log: log}
}

type analysesResponse struct {
	Version          uint64                        `json:"version"`
	Analyses         []domain.SubscriptionAnalysis `json:"analyses"`
	RecoverableSpend decimal.Decimal               `json:"recoverableSpend"`
	InFlight         bool                          `json:"inFlight"`
	UpdatedAt        time.Time                     `json:"updatedAt"`
}

// ListAnalyses handles GET /api/analyses
func (h *AnalysesHandler) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	snap := h.state.Snapshot()
	middleware.WriteJSON(w, http.StatusOK, analysesResponse{
		Version:          snap.Version,
		Analyses:         snap.Analyses,
		RecoverableSpend: h.state.RecoverableSpend(),
		InFlight:         h.runner.InFlight(),
		UpdatedAt:        snap.UpdatedAt,
	})
}

// Summary handles GET /api/summary
func (h *AnalysesHandler) Summary(w http.ResponseWriter, r *http.Request) {
	snap := h.state.Snapshot()
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"version": snap.Version,
		"summary": pipeline.Summarize(snap.Analyses),
	})
}

// RunAnalysis handles POST /api/analyses/run
func (h *AnalysesHandler) RunAnalysis(w http.ResponseWriter, r *http.Request) {
	runID, err := h.runner.Start(r.Context())
	if errors.Is(err, pipeline.ErrRunInProgress) {
		middleware.WriteError(w, http.StatusConflict, "An analysis run is already in progress")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to start analysis run")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to start analysis run")
		return
	}

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"runId":  runID,
		"status": string(runs.RunStatusRunning),
	})
}

// RunsHandler handles run history endpoints.
type RunsHandler struct {
	recorder RunLister
	log      zerolog.Logger
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(recorder RunLister, log zerolog.Logger) *RunsHandler {
	return &RunsHandler{recorder: recorder, log: log}
}

// ListRuns handles GET /api/runs
// Optional query parameters: status, limit.
func (h *RunsHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	filter := runs.RunFilter{Limit: 50}

	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = runs.RunStatus(status)
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		filter.Limit = limit
	}

	list, err := h.recorder.ListRuns(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list runs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}
	if list == nil {
		list = []*runs.Run{}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  list,
		"count": len(list),
	})
}

// AssetsHandler serves generated images.
type AssetsHandler struct {
	state AnalysisState
}

// NewAssetsHandler creates a new assets handler.
func NewAssetsHandler(st AnalysisState) *AssetsHandler {
	return &AssetsHandler{state: st}
}

// GetAsset handles GET /api/assets/{kind}
// It returns the image bytes, or the data URI as JSON with ?format=data-uri.
// A 404 tells the client to keep its built-in default.
func (h *AssetsHandler) GetAsset(w http.ResponseWriter, r *http.Request, kindStr string) {
	kind, err := domain.ParseAssetKind(kindStr)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Unknown asset kind")
		return
	}

	payload, ok := h.state.Asset(kind)
	if !ok {
		middleware.WriteError(w, http.StatusNotFound, "Asset not available")
		return
	}

	if r.URL.Query().Get("format") == "data-uri" {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"kind":    string(kind),
			"dataUri": payload,
		})
		return
	}

	mimeType, data, err := domain.DecodeDataURI(payload)
	if err != nil {
		middleware.WriteError(w, http.StatusInternalServerError, "Stored asset is corrupt")
		return
	}
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
