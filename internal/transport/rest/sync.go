package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/mottahub/sync-backend/internal/adapter/calendly"
	"github.com/mottahub/sync-backend/internal/domain"
	"github.com/mottahub/sync-backend/internal/syncer"
)

// syncService defines the minimal interface needed by SyncHandler.
type syncService interface {
	Run(ctx context.Context, opts syncer.Options) (domain.Summary, error)
	HandleKarbonWebhook(ctx context.Context, ev syncer.KarbonWebhookEvent) (domain.Summary, error)
	HandleCalendlyWebhook(ctx context.Context, payload calendly.WebhookPayload) (domain.Summary, error)
}

// runLister reads recent sync-run audit records.
type runLister interface {
	RecentRuns(ctx context.Context, limit int) ([]domain.SyncRun, error)
}

// SyncHandler serves the sync trigger, webhook, and run history endpoints.
type SyncHandler struct {
	svc        syncService
	runs       runLister
	runTimeout time.Duration
	log        *slog.Logger

	// inFlight serializes manual runs: a second trigger while one is
	// running gets 409 instead of queueing up a duplicate.
	inFlight atomic.Bool
}

// NewSyncHandler creates a SyncHandler.
func NewSyncHandler(svc syncService, runs runLister, runTimeout time.Duration, logger *slog.Logger) *SyncHandler {
	if runTimeout <= 0 {
		runTimeout = 30 * time.Minute
	}
	return &SyncHandler{
		svc:        svc,
		runs:       runs,
		runTimeout: runTimeout,
		log:        logger.With("handler", "sync"),
	}
}

type triggerRequest struct {
	Incremental *bool    `json:"incremental"`
	Kinds       []string `json:"kinds"`
	DryRun      bool     `json:"dryRun"`
}

// Trigger handles POST /api/sync.
func (h *SyncHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	// An empty body means "incremental sync of everything".
	var req triggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	kinds := make([]domain.EntityKind, 0, len(req.Kinds))
	for _, s := range req.Kinds {
		kind, err := domain.ParseKind(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		kinds = append(kinds, kind)
	}

	incremental := true
	if req.Incremental != nil {
		incremental = *req.Incremental
	}

	if !h.inFlight.CompareAndSwap(false, true) {
		writeError(w, http.StatusConflict, "a sync run is already in progress")
		return
	}
	defer h.inFlight.Store(false)

	ctx, cancel := context.WithTimeout(r.Context(), h.runTimeout)
	defer cancel()

	summary, err := h.svc.Run(ctx, syncer.Options{
		Incremental: incremental,
		Kinds:       kinds,
		DryRun:      req.DryRun,
		Trigger:     domain.TriggerManual,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// KarbonWebhook handles POST /api/webhooks/karbon.
func (h *SyncHandler) KarbonWebhook(w http.ResponseWriter, r *http.Request) {
	var ev syncer.KarbonWebhookEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	summary, err := h.svc.HandleKarbonWebhook(r.Context(), ev)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// CalendlyWebhook handles POST /api/webhooks/calendly.
func (h *SyncHandler) CalendlyWebhook(w http.ResponseWriter, r *http.Request) {
	var payload calendly.WebhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	summary, err := h.svc.HandleCalendlyWebhook(r.Context(), payload)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// Runs handles GET /api/sync/runs?limit=N.
func (h *SyncHandler) Runs(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	if limit > 100 {
		limit = 100
	}

	runs, err := h.runs.RecentRuns(r.Context(), limit)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (h *SyncHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrUnknownKind):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrVendorUnavailable), errors.Is(err, domain.ErrStoreUnavailable):
		h.log.ErrorContext(r.Context(), "dependency unavailable", slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, "upstream unavailable")
	default:
		h.log.ErrorContext(r.Context(), "internal error", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
