// Package syncer orchestrates sync runs: fetch raw vendor records, map them
// to normalized records, filter by the incremental cursor, upsert through
// the sink, and reconcile soft foreign keys. A run always completes and
// returns a summary; per-kind failures are recorded, never propagated.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mottahub/sync-backend/internal/adapter/calendly"
	"github.com/mottahub/sync-backend/internal/adapter/karbon"
	"github.com/mottahub/sync-backend/internal/adapter/postgres/sink"
	"github.com/mottahub/sync-backend/internal/domain"
)

// karbonAPI is the slice of the Karbon client the syncer consumes.
type karbonAPI interface {
	FetchClientGroups(ctx context.Context, opts karbon.ListOptions) ([]karbon.ClientGroup, error)
	FetchContacts(ctx context.Context, opts karbon.ListOptions) ([]karbon.Contact, error)
	FetchOrganizations(ctx context.Context, opts karbon.ListOptions) ([]karbon.Organization, error)
	FetchWorkItems(ctx context.Context, opts karbon.ListOptions) ([]karbon.WorkItem, error)
	FetchInvoices(ctx context.Context, opts karbon.ListOptions) ([]karbon.Invoice, error)
	FetchWorkItemTasks(ctx context.Context, workItemKeys []string) (karbon.SubFetchResult[karbon.Task], error)
	FetchWorkItemNotes(ctx context.Context, workItemKeys []string) (karbon.SubFetchResult[karbon.Note], error)
	FetchContact(ctx context.Context, key string) (*karbon.Contact, error)
	FetchOrganization(ctx context.Context, key string) (*karbon.Organization, error)
	FetchWorkItem(ctx context.Context, key string) (*karbon.WorkItem, error)
}

// calendlyAPI is the slice of the Calendly client the syncer consumes.
type calendlyAPI interface {
	Enabled() bool
	FetchScheduledEvents(ctx context.Context) ([]calendly.Event, error)
	FetchInvitees(ctx context.Context, eventURI string) ([]calendly.Invitee, error)
}

// recordSink writes normalized records.
type recordSink interface {
	UpsertBatch(ctx context.Context, kind domain.EntityKind, records []domain.Record) (sink.Result, error)
}

// bookkeeper covers cursor reads, reconciliation, and run audit records.
type bookkeeper interface {
	GetCursor(ctx context.Context, kind domain.EntityKind) (*time.Time, error)
	MarkKindState(ctx context.Context, kind domain.EntityKind, dirty bool) error
	WorkItemKeys(ctx context.Context) ([]string, error)
	LinkSoftForeignKeys(ctx context.Context) (domain.LinkResult, error)
	CreateRun(ctx context.Context, run domain.SyncRun) error
	FinishRun(ctx context.Context, run domain.SyncRun) error
}

// txRunner runs a function inside a database transaction.
type txRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Options selects what a run does.
type Options struct {
	// Incremental fetches everything but writes only records modified after
	// the stored cursor. False means a full resync.
	Incremental bool
	// Kinds restricts the run; empty means all kinds in dependency order.
	Kinds []domain.EntityKind
	// DryRun maps and filters but skips all writes.
	DryRun bool
	// Trigger is recorded in the run audit row.
	Trigger string
}

// Syncer drives sync runs against the configured vendors and store. It
// holds no per-run state, so overlapping runs (a manual trigger during a
// scheduled run) are safe; the idempotent upserts make them convergent.
type Syncer struct {
	karbon   karbonAPI
	calendly calendlyAPI
	sink     recordSink
	store    bookkeeper
	txm      txRunner
	log      *slog.Logger
	now      func() time.Time
}

// runState carries state scoped to a single Run invocation.
type runState struct {
	// workItemKeys caches the keys fetched by the work_items phase for the
	// nested task/note phases of the same run. nil means work items were
	// not part of this run.
	workItemKeys []string
}

// New creates a Syncer.
func New(k karbonAPI, c calendlyAPI, snk recordSink, store bookkeeper, txm txRunner, log *slog.Logger) *Syncer {
	return &Syncer{
		karbon:   k,
		calendly: c,
		sink:     snk,
		store:    store,
		txm:      txm,
		log:      log.With(slog.String("component", "syncer")),
		now:      time.Now,
	}
}

// Run executes one sync invocation and always returns a complete summary.
// The error is non-nil only when nothing could be done at all — every
// attempted kind failed — so callers can distinguish "ran with problems"
// from "vendor or store unreachable".
func (s *Syncer) Run(ctx context.Context, opts Options) (domain.Summary, error) {
	started := s.now()
	mode := domain.ModeFull
	if opts.Incremental {
		mode = domain.ModeIncremental
	}

	summary := domain.Summary{
		Mode:      mode,
		DryRun:    opts.DryRun,
		StartedAt: started,
	}

	run := domain.SyncRun{
		ID:        uuid.New(),
		Trigger:   opts.Trigger,
		Mode:      mode,
		StartedAt: started,
	}
	st := &runState{}

	audited := !opts.DryRun
	if audited {
		if err := s.store.CreateRun(ctx, run); err != nil {
			s.log.Warn("sync run audit record not created", slog.Any("error", err))
			audited = false
		}
	}

	kinds := s.selectKinds(opts.Kinds)
	var attempted, failed int
	var firstErr error
	for _, kind := range kinds {
		if kind == domain.KindAppointments && !s.calendly.Enabled() {
			s.log.Debug("appointments skipped, calendly not configured")
			continue
		}
		attempted++

		start := s.now()
		result, kindErr := s.syncKind(ctx, kind, opts, st)
		result.Duration = s.now().Sub(start)
		summary.Add(result)

		if kindErr != nil {
			failed++
			if firstErr == nil {
				firstErr = kindErr
			}
			s.log.Warn("kind failed",
				slog.String("kind", string(kind)),
				slog.Int("errors", result.Errors),
				slog.Duration("duration", result.Duration))
			continue
		}
		s.log.Info("kind completed",
			slog.String("kind", string(kind)),
			slog.Int("fetched", result.Fetched),
			slog.Int("synced", result.Synced),
			slog.Int("updated", result.Updated),
			slog.Int("errors", result.Errors),
			slog.Duration("duration", result.Duration))
	}

	if !opts.DryRun && s.touchesWorkItemLinks(kinds) {
		link, err := s.store.LinkSoftForeignKeys(ctx)
		if err != nil {
			summary.ErrorDetails = append(summary.ErrorDetails, fmt.Sprintf("reconciliation: %v", err))
		}
		summary.LinkResult = &link
		summary.Errors += link.Errors
	}

	finished := s.now()
	summary.DurationMS = finished.Sub(started).Milliseconds()
	summary.Success = summary.Errors == 0

	if audited {
		run.FinishedAt = &finished
		run.Fetched = summary.Fetched
		run.Synced = summary.Synced
		run.Updated = summary.Updated
		run.Errors = summary.Errors
		if summary.LinkResult != nil {
			run.Linked = summary.LinkResult.Linked
		}
		run.ErrorDetails = summary.ErrorDetails
		if err := s.store.FinishRun(ctx, run); err != nil {
			s.log.Warn("sync run audit record not finished", slog.Any("error", err))
		}
	}

	if attempted > 0 && failed == attempted {
		return summary, fmt.Errorf("sync run: all %d kinds failed: %w", attempted, firstErr)
	}
	return summary, nil
}

// selectKinds intersects the requested kinds with the canonical order.
func (s *Syncer) selectKinds(requested []domain.EntityKind) []domain.EntityKind {
	if len(requested) == 0 {
		return domain.SyncOrder
	}
	want := make(map[domain.EntityKind]bool, len(requested))
	for _, k := range requested {
		want[k] = true
	}
	var kinds []domain.EntityKind
	for _, k := range domain.SyncOrder {
		if want[k] {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// touchesWorkItemLinks reports whether the run synced anything that can
// change work item links.
func (s *Syncer) touchesWorkItemLinks(kinds []domain.EntityKind) bool {
	for _, k := range kinds {
		switch k {
		case domain.KindContacts, domain.KindOrganizations, domain.KindWorkItems:
			return true
		}
	}
	return false
}

// syncKind runs fetch → map → filter → upsert for one kind. All failures
// are folded into the result; the returned error is set only when the kind
// achieved nothing (cursor read, whole fetch, or every sink chunk failed).
func (s *Syncer) syncKind(ctx context.Context, kind domain.EntityKind, opts Options, st *runState) (domain.KindResult, error) {
	result := domain.KindResult{Kind: kind}

	var cursor *time.Time
	if opts.Incremental {
		c, err := s.store.GetCursor(ctx, kind)
		if err != nil {
			result.Errors++
			result.ErrorMessages = append(result.ErrorMessages, fmt.Sprintf("%s: read cursor: %v", kind, err))
			return result, fmt.Errorf("read %s cursor: %w", kind, err)
		}
		cursor = c
	}

	records, fetchErrs, err := s.fetchKind(ctx, kind, st)
	if err != nil {
		result.Errors++
		result.ErrorMessages = append(result.ErrorMessages, fmt.Sprintf("%s: %v", kind, err))
		return result, fmt.Errorf("fetch %s: %w: %w", kind, domain.ErrVendorUnavailable, err)
	}
	result.Fetched = len(records)
	result.Errors += len(fetchErrs)
	result.ErrorMessages = append(result.ErrorMessages, fetchErrs...)

	records = FilterModifiedAfter(records, cursor)

	if opts.DryRun {
		result.Synced = len(records)
		return result, nil
	}

	sinkRes, err := s.sink.UpsertBatch(ctx, kind, records)
	result.Synced = sinkRes.Inserted
	result.Updated = sinkRes.Updated
	result.Errors += sinkRes.Errors
	result.ErrorMessages = append(result.ErrorMessages, sinkRes.ErrorMessages...)

	// The cursor is derived from MAX(vendor_modified_at), so a skipped chunk
	// or sub-fetch can leave rows behind it. Marking the kind dirty forces
	// the next incremental run to resync the full window for it.
	if merr := s.store.MarkKindState(ctx, kind, result.Errors > 0); merr != nil {
		s.log.Warn("kind state not recorded",
			slog.String("kind", string(kind)),
			slog.Any("error", merr))
	}

	if err != nil {
		// The chunk errors above already account for every row; the error
		// itself marks the store as unreachable for this kind.
		return result, fmt.Errorf("sink %s: %w", kind, err)
	}
	return result, nil
}
