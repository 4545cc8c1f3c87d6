// Package syncstore holds the sync bookkeeping queries: incremental cursor
// reads, the soft foreign key reconciliation pass, and the sync_runs audit
// table.
package syncstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"github.com/mottahub/sync-backend/internal/adapter/postgres"
	"github.com/mottahub/sync-backend/internal/domain"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Store provides sync bookkeeping persistence.
type Store struct {
	db  postgres.Querier
	log *slog.Logger
}

// New creates a Store.
func New(db postgres.Querier, log *slog.Logger) *Store {
	return &Store{
		db:  db,
		log: log.With(slog.String("component", "syncstore")),
	}
}

// GetCursor returns the incremental cursor for a kind: the maximum
// vendor_modified_at already stored in its table. The cursor is derived
// from durably stored rows and read fresh each run, so it can never run
// ahead of what actually survived a crash. A kind marked dirty by a
// partial run gets a nil cursor, because MAX can already sit past rows
// that failed to land. Returns nil on an empty table.
func (s *Store) GetCursor(ctx context.Context, kind domain.EntityKind) (*time.Time, error) {
	q := postgres.QuerierFromCtx(ctx, s.db)

	sql, args, err := psql.
		Select("dirty").
		From("sync_kind_state").
		Where(squirrel.Eq{"kind": kind}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build kind state query: %w", err)
	}

	var dirty bool
	switch err := q.QueryRow(ctx, sql, args...).Scan(&dirty); {
	case errors.Is(err, pgx.ErrNoRows):
		// Kind never synced before; an empty table yields a nil cursor anyway.
	case err != nil:
		return nil, fmt.Errorf("read %s kind state: %w", kind, err)
	case dirty:
		return nil, nil
	}

	sql, args, err = psql.
		Select("MAX(vendor_modified_at)").
		From(kind.Table()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build cursor query: %w", err)
	}

	var cursor *time.Time
	if err := q.QueryRow(ctx, sql, args...).Scan(&cursor); err != nil {
		return nil, fmt.Errorf("read %s cursor: %w", kind, err)
	}
	return cursor, nil
}

// MarkKindState records whether the last write pass over a kind completed
// cleanly. A dirty kind keeps forcing full-window incremental runs until a
// pass finishes without errors.
func (s *Store) MarkKindState(ctx context.Context, kind domain.EntityKind, dirty bool) error {
	sql, args, err := psql.
		Insert("sync_kind_state").
		Columns("kind", "dirty", "updated_at").
		Values(kind, dirty, time.Now().UTC()).
		Suffix("ON CONFLICT (kind) DO UPDATE SET dirty = EXCLUDED.dirty, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build kind state upsert: %w", err)
	}

	q := postgres.QuerierFromCtx(ctx, s.db)
	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("mark %s kind state: %w", kind, err)
	}
	return nil
}

// LinkSoftForeignKeys patches work_items.contact_id and organization_id from
// the vendor client key. Only NULL links are touched, so an established link
// is never rewritten and a second pass over fully linked data is a no-op.
// Rows whose client has not been synced yet simply stay unlinked until a
// later pass.
func (s *Store) LinkSoftForeignKeys(ctx context.Context) (domain.LinkResult, error) {
	var res domain.LinkResult
	q := postgres.QuerierFromCtx(ctx, s.db)

	statements := []struct {
		name string
		sql  string
	}{
		{
			name: "contacts",
			sql: `UPDATE work_items w
			      SET contact_id = c.id
			      FROM contacts c
			      WHERE w.contact_id IS NULL
			        AND w.client_type = 'Contact'
			        AND w.karbon_client_key = c.karbon_contact_key`,
		},
		{
			name: "organizations",
			sql: `UPDATE work_items w
			      SET organization_id = o.id
			      FROM organizations o
			      WHERE w.organization_id IS NULL
			        AND w.client_type = 'Organization'
			        AND w.karbon_client_key = o.karbon_org_key`,
		},
	}

	var failed int
	var firstErr error
	for _, st := range statements {
		tag, err := q.Exec(ctx, st.sql)
		if err != nil {
			failed++
			res.Errors++
			if firstErr == nil {
				firstErr = err
			}
			s.log.Error("link pass failed",
				slog.String("target", st.name),
				slog.Any("error", err))
			continue
		}
		res.Linked += int(tag.RowsAffected())
	}

	if failed == len(statements) {
		return res, fmt.Errorf("link soft foreign keys: %w", firstErr)
	}
	return res, nil
}

// CreateRun inserts the starting record for an orchestrator invocation.
func (s *Store) CreateRun(ctx context.Context, run domain.SyncRun) error {
	sql, args, err := psql.
		Insert("sync_runs").
		Columns("id", "trigger_source", "mode", "started_at").
		Values(run.ID, run.Trigger, run.Mode, run.StartedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build run insert: %w", err)
	}

	q := postgres.QuerierFromCtx(ctx, s.db)
	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("create sync run %s: %w", run.ID, err)
	}
	return nil
}

// FinishRun records the final counters of a completed invocation.
func (s *Store) FinishRun(ctx context.Context, run domain.SyncRun) error {
	details, err := json.Marshal(run.ErrorDetails)
	if err != nil {
		return fmt.Errorf("marshal error details: %w", err)
	}

	sql, args, err := psql.
		Update("sync_runs").
		Set("finished_at", run.FinishedAt).
		Set("fetched", run.Fetched).
		Set("synced", run.Synced).
		Set("updated", run.Updated).
		Set("errors", run.Errors).
		Set("linked", run.Linked).
		Set("error_details", details).
		Where(squirrel.Eq{"id": run.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build run update: %w", err)
	}

	q := postgres.QuerierFromCtx(ctx, s.db)
	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("finish sync run %s: %w", run.ID, err)
	}
	return nil
}

// WorkItemKeys returns all stored vendor work item keys. The nested
// task/note sync uses it when work items themselves are not part of the
// current run.
func (s *Store) WorkItemKeys(ctx context.Context) ([]string, error) {
	sql, args, err := psql.
		Select("karbon_work_item_key").
		From("work_items").
		OrderBy("karbon_work_item_key").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build work item keys query: %w", err)
	}

	q := postgres.QuerierFromCtx(ctx, s.db)
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list work item keys: %w", err)
	}

	var keys []string
	if err := pgxscan.ScanAll(&keys, rows); err != nil {
		return nil, fmt.Errorf("scan work item keys: %w", err)
	}
	return keys, nil
}

// RecentRuns returns the latest sync runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]domain.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}

	sql, args, err := psql.
		Select("id", "trigger_source", "mode", "started_at", "finished_at",
			"fetched", "synced", "updated", "errors", "linked", "error_details").
		From("sync_runs").
		OrderBy("started_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build runs query: %w", err)
	}

	q := postgres.QuerierFromCtx(ctx, s.db)
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list sync runs: %w", err)
	}

	var runs []domain.SyncRun
	if err := pgxscan.ScanAll(&runs, rows); err != nil {
		return nil, fmt.Errorf("scan sync runs: %w", err)
	}
	return runs, nil
}
