package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// EventsHandler streams analysis replacements as server-sent events.
type EventsHandler struct {
	state     AnalysisState
	heartbeat time.Duration
	log       zerolog.Logger
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(st AnalysisState, log zerolog.Logger) *EventsHandler {
	return &EventsHandler{state: st, heartbeat: 25 * time.Second, log: log}
}

type analysesEvent struct {
	Version          uint64    `json:"version"`
	AnalysisCount    int       `json:"analysisCount"`
	RecoverableSpend string    `json:"recoverableSpend"`
	At               time.Time `json:"at"`
}

// Stream handles GET /api/events
// The first event describes the current state; one event follows each replacement.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	// Streams outlive the server write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	events, cancel := h.state.Subscribe(8)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	snap := h.state.Snapshot()
	initial := analysesEvent{
		Version:          snap.Version,
		AnalysisCount:    len(snap.Analyses),
		RecoverableSpend: h.state.RecoverableSpend().String(),
		At:               snap.UpdatedAt,
	}
	if err := writeEvent(w, rc, "snapshot", initial); err != nil {
		h.log.Warn().Err(err).Msg("Event stream unsupported by response writer")
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			err := writeEvent(w, rc, "analyses", analysesEvent{
				Version:          ev.Version,
				AnalysisCount:    ev.AnalysisCount,
				RecoverableSpend: ev.RecoverableSpend.String(),
				At:               ev.ReplacedAt,
			})
			if err != nil {
				h.log.Debug().Err(err).Msg("Event stream closed")
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, rc *http.ResponseController, name string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data); err != nil {
		return err
	}
	return rc.Flush()
}
