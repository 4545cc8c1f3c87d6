package syncstore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mottahub/sync-backend/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGetCursor(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	watermark := time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT dirty FROM sync_kind_state WHERE kind = \$1`).
		WithArgs(domain.KindWorkItems).
		WillReturnRows(pgxmock.NewRows([]string{"dirty"}).AddRow(false))
	mock.ExpectQuery(`SELECT MAX\(vendor_modified_at\) FROM work_items`).
		WillReturnRows(pgxmock.NewRows([]string{"max"}).AddRow(&watermark))

	store := New(mock, testLogger())
	cursor, err := store.GetCursor(context.Background(), domain.KindWorkItems)

	require.NoError(t, err)
	require.NotNil(t, cursor)
	assert.Equal(t, watermark, *cursor)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCursor_EmptyTable(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	// Never synced: no kind state row yet.
	mock.ExpectQuery(`SELECT dirty FROM sync_kind_state WHERE kind = \$1`).
		WithArgs(domain.KindContacts).
		WillReturnRows(pgxmock.NewRows([]string{"dirty"}))
	mock.ExpectQuery(`SELECT MAX\(vendor_modified_at\) FROM contacts`).
		WillReturnRows(pgxmock.NewRows([]string{"max"}).AddRow(nil))

	store := New(mock, testLogger())
	cursor, err := store.GetCursor(context.Background(), domain.KindContacts)

	require.NoError(t, err)
	assert.Nil(t, cursor)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCursor_DirtyKindForcesFullWindow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	// Rows with timestamps behind MAX were lost by a partial run, so the
	// stored watermark must not be trusted. No MAX query is issued at all.
	mock.ExpectQuery(`SELECT dirty FROM sync_kind_state WHERE kind = \$1`).
		WithArgs(domain.KindWorkItems).
		WillReturnRows(pgxmock.NewRows([]string{"dirty"}).AddRow(true))

	store := New(mock, testLogger())
	cursor, err := store.GetCursor(context.Background(), domain.KindWorkItems)

	require.NoError(t, err)
	assert.Nil(t, cursor)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkKindState(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO sync_kind_state \(kind,dirty,updated_at\) VALUES \(\$1,\$2,\$3\) ON CONFLICT \(kind\) DO UPDATE SET dirty = EXCLUDED\.dirty, updated_at = EXCLUDED\.updated_at`).
		WithArgs(domain.KindInvoices, true, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	store := New(mock, testLogger())
	require.NoError(t, store.MarkKindState(context.Background(), domain.KindInvoices, true))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLinkSoftForeignKeys(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`UPDATE work_items w\s+SET contact_id = c\.id`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))
	mock.ExpectExec(`UPDATE work_items w\s+SET organization_id = o\.id`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))

	store := New(mock, testLogger())
	res, err := store.LinkSoftForeignKeys(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 5, res.Linked)
	assert.Zero(t, res.Errors)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLinkSoftForeignKeys_SecondRunIsNoOp(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	// Everything already linked: both statements match zero rows.
	mock.ExpectExec(`UPDATE work_items`).WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectExec(`UPDATE work_items`).WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	store := New(mock, testLogger())
	res, err := store.LinkSoftForeignKeys(context.Background())

	require.NoError(t, err)
	assert.Zero(t, res.Linked)
	assert.Zero(t, res.Errors)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLinkSoftForeignKeys_PartialFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`UPDATE work_items`).WillReturnError(errors.New("lock timeout"))
	mock.ExpectExec(`UPDATE work_items`).WillReturnResult(pgxmock.NewResult("UPDATE", 4))

	store := New(mock, testLogger())
	res, err := store.LinkSoftForeignKeys(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 4, res.Linked)
	assert.Equal(t, 1, res.Errors)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLinkSoftForeignKeys_TotalFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`UPDATE work_items`).WillReturnError(errors.New("connection refused"))
	mock.ExpectExec(`UPDATE work_items`).WillReturnError(errors.New("connection refused"))

	store := New(mock, testLogger())
	res, err := store.LinkSoftForeignKeys(context.Background())

	require.Error(t, err)
	assert.Equal(t, 2, res.Errors)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAndFinishRun(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	started := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	finished := started.Add(42 * time.Second)
	run := domain.SyncRun{
		ID:        uuid.New(),
		Trigger:   domain.TriggerManual,
		Mode:      domain.ModeIncremental,
		StartedAt: started,
	}

	mock.ExpectExec(`INSERT INTO sync_runs \(id,trigger_source,mode,started_at\)`).
		WithArgs(run.ID, run.Trigger, run.Mode, run.StartedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	store := New(mock, testLogger())
	require.NoError(t, store.CreateRun(context.Background(), run))

	run.FinishedAt = &finished
	run.Fetched = 100
	run.Synced = 90
	run.Updated = 8
	run.Errors = 2
	run.Linked = 5
	run.ErrorDetails = []string{"work_items rows 50-59: boom"}

	mock.ExpectExec(`UPDATE sync_runs SET`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, store.FinishRun(context.Background(), run))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkItemKeys(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows([]string{"karbon_work_item_key"}).
		AddRow("W1").
		AddRow("W2")
	mock.ExpectQuery(`SELECT karbon_work_item_key FROM work_items ORDER BY karbon_work_item_key`).
		WillReturnRows(rows)

	store := New(mock, testLogger())
	keys, err := store.WorkItemKeys(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"W1", "W2"}, keys)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentRuns(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id1, id2 := uuid.New(), uuid.New()
	t1 := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(-time.Hour)
	f1 := t1.Add(30 * time.Second)

	rows := pgxmock.NewRows([]string{
		"id", "trigger_source", "mode", "started_at", "finished_at",
		"fetched", "synced", "updated", "errors", "linked", "error_details",
	}).
		AddRow(id1, "manual", "incremental", t1, &f1, 10, 9, 1, 0, 2, []string(nil)).
		AddRow(id2, "schedule", "full", t2, (*time.Time)(nil), 0, 0, 0, 0, 0, []string(nil))

	mock.ExpectQuery(`SELECT .+ FROM sync_runs ORDER BY started_at DESC LIMIT 5`).
		WillReturnRows(rows)

	store := New(mock, testLogger())
	runs, err := store.RecentRuns(context.Background(), 5)

	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, id1, runs[0].ID)
	assert.Equal(t, "manual", runs[0].Trigger)
	require.NotNil(t, runs[0].FinishedAt)
	assert.Equal(t, f1, *runs[0].FinishedAt)
	assert.Equal(t, id2, runs[1].ID)
	assert.Nil(t, runs[1].FinishedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}
