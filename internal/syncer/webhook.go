package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mottahub/sync-backend/internal/adapter/calendly"
	"github.com/mottahub/sync-backend/internal/domain"
	"github.com/mottahub/sync-backend/internal/mapper"
)

// KarbonWebhookEvent is the push notification Karbon sends when an entity
// changes.
type KarbonWebhookEvent struct {
	ResourceType     string `json:"ResourceType"`
	ResourcePermaKey string `json:"ResourcePermaKey"`
	ActionType       string `json:"ActionType"`
}

// HandleKarbonWebhook re-fetches the pushed entity and routes it through
// the same mapper and sink as a bulk run, so the two ingestion paths cannot
// diverge. The upsert and the follow-up link pass run in one transaction.
func (s *Syncer) HandleKarbonWebhook(ctx context.Context, ev KarbonWebhookEvent) (domain.Summary, error) {
	if ev.ResourcePermaKey == "" {
		return domain.Summary{}, fmt.Errorf("%w: missing resource key", domain.ErrValidation)
	}

	// A deleted entity cannot be re-fetched, and rows are never removed
	// locally. Record the delivery and acknowledge it without touching the
	// vendor or the store.
	if strings.EqualFold(ev.ActionType, "Deleted") {
		started := s.now()
		summary := domain.Summary{
			Mode:      domain.ModeIncremental,
			StartedAt: started,
			Success:   true,
		}
		s.log.Info("webhook delete acknowledged",
			slog.String("resource_type", ev.ResourceType),
			slog.String("resource_key", ev.ResourcePermaKey))
		s.recordWebhookRun(ctx, summary, started, s.now())
		return summary, nil
	}

	now := s.now()
	var rec domain.Record
	reconcile := false

	switch ev.ResourceType {
	case "Contact":
		c, err := s.karbon.FetchContact(ctx, ev.ResourcePermaKey)
		if err != nil {
			return domain.Summary{}, fmt.Errorf("fetch contact %s: %w: %w", ev.ResourcePermaKey, domain.ErrVendorUnavailable, err)
		}
		rec = mapper.MapContact(*c, now)
		reconcile = true
	case "Organization":
		o, err := s.karbon.FetchOrganization(ctx, ev.ResourcePermaKey)
		if err != nil {
			return domain.Summary{}, fmt.Errorf("fetch organization %s: %w: %w", ev.ResourcePermaKey, domain.ErrVendorUnavailable, err)
		}
		rec = mapper.MapOrganization(*o, now)
		reconcile = true
	case "WorkItem":
		wi, err := s.karbon.FetchWorkItem(ctx, ev.ResourcePermaKey)
		if err != nil {
			return domain.Summary{}, fmt.Errorf("fetch work item %s: %w: %w", ev.ResourcePermaKey, domain.ErrVendorUnavailable, err)
		}
		rec = mapper.MapWorkItem(*wi, now)
		reconcile = true
	default:
		return domain.Summary{}, fmt.Errorf("%w: unsupported resource type %q", domain.ErrValidation, ev.ResourceType)
	}

	return s.ingestOne(ctx, rec, reconcile)
}

// HandleCalendlyWebhook maps an invitee created/canceled delivery into an
// appointment upsert through the shared mapper and sink.
func (s *Syncer) HandleCalendlyWebhook(ctx context.Context, payload calendly.WebhookPayload) (domain.Summary, error) {
	switch payload.Event {
	case "invitee.created", "invitee.canceled":
	default:
		return domain.Summary{}, fmt.Errorf("%w: unsupported event %q", domain.ErrValidation, payload.Event)
	}
	if payload.Payload.ScheduledEvent.URI == "" {
		return domain.Summary{}, fmt.Errorf("%w: missing scheduled event", domain.ErrValidation)
	}

	invitee := payload.Payload.Invitee
	rec := mapper.MapAppointment(payload.Payload.ScheduledEvent, &invitee, s.now())
	return s.ingestOne(ctx, rec, false)
}

// ingestOne upserts a single mapped record and optionally reconciles links,
// recording the invocation in sync_runs.
func (s *Syncer) ingestOne(ctx context.Context, rec domain.Record, reconcile bool) (domain.Summary, error) {
	started := s.now()
	summary := domain.Summary{
		Mode:      domain.ModeIncremental,
		StartedAt: started,
	}

	err := s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		res, err := s.sink.UpsertBatch(txCtx, rec.Kind, []domain.Record{rec})
		if err != nil {
			return err
		}
		summary.Synced = res.Inserted
		summary.Updated = res.Updated
		summary.Errors = res.Errors
		summary.ErrorDetails = res.ErrorMessages

		if reconcile {
			link, err := s.store.LinkSoftForeignKeys(txCtx)
			if err != nil {
				return err
			}
			summary.LinkResult = &link
		}
		return nil
	})
	if err != nil {
		return summary, fmt.Errorf("ingest %s %s: %w", rec.Kind, rec.Key, err)
	}

	summary.Fetched = 1
	finished := s.now()
	summary.DurationMS = finished.Sub(started).Milliseconds()
	summary.Success = summary.Errors == 0

	s.recordWebhookRun(ctx, summary, started, finished)
	return summary, nil
}

// recordWebhookRun writes the audit row for a webhook ingestion. Failures
// are logged, never surfaced: the ingestion itself already succeeded.
func (s *Syncer) recordWebhookRun(ctx context.Context, summary domain.Summary, started, finished time.Time) {
	run := domain.SyncRun{
		ID:         uuid.New(),
		Trigger:    domain.TriggerWebhook,
		Mode:       summary.Mode,
		StartedAt:  started,
		FinishedAt: &finished,
		Fetched:    summary.Fetched,
		Synced:     summary.Synced,
		Updated:    summary.Updated,
		Errors:     summary.Errors,
	}
	if summary.LinkResult != nil {
		run.Linked = summary.LinkResult.Linked
	}
	if err := s.store.CreateRun(ctx, run); err != nil {
		s.log.Warn("webhook run audit record not created", slog.Any("error", err))
		return
	}
	if err := s.store.FinishRun(ctx, run); err != nil {
		s.log.Warn("webhook run audit record not finished", slog.Any("error", err))
	}
}
