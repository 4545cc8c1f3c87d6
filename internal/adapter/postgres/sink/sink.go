// Package sink implements the generic upsert sink: mapped records are
// written in chunks with INSERT ... ON CONFLICT on the kind's natural key,
// so re-syncing unchanged data is a no-op and a failed chunk never blocks
// the rest of the batch.
package sink

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/mottahub/sync-backend/internal/adapter/postgres"
	"github.com/mottahub/sync-backend/internal/domain"
)

// Result aggregates the outcome of one batch upsert.
type Result struct {
	Inserted      int
	Updated       int
	Errors        int
	ErrorMessages []string
}

// Sink writes normalized records into their kind's table.
type Sink struct {
	db        postgres.Querier
	chunkSize int
	log       *slog.Logger
}

// New creates a Sink writing through db in chunks of chunkSize rows.
func New(db postgres.Querier, chunkSize int, log *slog.Logger) *Sink {
	if chunkSize <= 0 {
		chunkSize = 50
	}
	return &Sink{
		db:        db,
		chunkSize: chunkSize,
		log:       log.With(slog.String("component", "sink")),
	}
}

// UpsertBatch writes records of one kind. Records without a natural key are
// skipped and counted as errors. Each chunk is one statement; a failed chunk
// counts all its rows as errors and the remaining chunks still run. The
// returned error is non-nil only when every chunk failed, signalling that
// the store itself is unreachable rather than individual rows being bad.
func (s *Sink) UpsertBatch(ctx context.Context, kind domain.EntityKind, records []domain.Record) (Result, error) {
	var res Result
	if len(records) == 0 {
		return res, nil
	}

	valid := make([]domain.Record, 0, len(records))
	for _, rec := range records {
		if rec.Key == "" {
			res.Errors++
			res.ErrorMessages = append(res.ErrorMessages, fmt.Sprintf("%s: record missing natural key, skipped", kind))
			continue
		}
		valid = append(valid, rec)
	}
	if len(valid) == 0 {
		return res, nil
	}

	// The mapper guarantees every record of a kind carries the same column
	// set, so the first record defines the statement shape. Sorting keeps
	// the generated SQL deterministic.
	cols := make([]string, 0, len(valid[0].Fields))
	for c := range valid[0].Fields {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	suffix := upsertSuffix(kind, cols)

	var failed, total int
	var firstErr error
	for start := 0; start < len(valid); start += s.chunkSize {
		end := min(start+s.chunkSize, len(valid))
		chunk := valid[start:end]
		total++

		inserted, updated, err := s.upsertChunk(ctx, kind, cols, suffix, chunk)
		if err != nil {
			failed++
			if firstErr == nil {
				firstErr = err
			}
			res.Errors += len(chunk)
			res.ErrorMessages = append(res.ErrorMessages, fmt.Sprintf("%s rows %d-%d: %v", kind, start, end-1, err))
			s.log.Error("upsert chunk failed",
				slog.String("kind", string(kind)),
				slog.Int("rows", len(chunk)),
				slog.Any("error", err))
			continue
		}
		res.Inserted += inserted
		res.Updated += updated
	}

	if failed == total {
		return res, fmt.Errorf("upsert %s: all %d chunks failed: %w", kind, total, firstErr)
	}
	return res, nil
}

// upsertChunk executes one multi-row upsert statement and splits affected
// rows into inserts and updates via the xmax system column.
func (s *Sink) upsertChunk(ctx context.Context, kind domain.EntityKind, cols []string, suffix string, chunk []domain.Record) (inserted, updated int, err error) {
	b := squirrel.StatementBuilder.
		PlaceholderFormat(squirrel.Dollar).
		Insert(kind.Table()).
		Columns(cols...)

	for _, rec := range chunk {
		vals := make([]any, len(cols))
		for i, c := range cols {
			vals[i] = rec.Fields[c]
		}
		b = b.Values(vals...)
	}
	b = b.Suffix(suffix)

	sql, args, err := b.ToSql()
	if err != nil {
		return 0, 0, fmt.Errorf("build upsert: %w", err)
	}

	rows, err := postgres.QuerierFromCtx(ctx, s.db).Query(ctx, sql, args...)
	if err != nil {
		return 0, 0, mapError(err, kind)
	}
	defer rows.Close()

	for rows.Next() {
		var wasInsert bool
		if err := rows.Scan(&wasInsert); err != nil {
			return 0, 0, fmt.Errorf("scan upsert result: %w", err)
		}
		if wasInsert {
			inserted++
		} else {
			updated++
		}
	}
	if err := rows.Err(); err != nil {
		return 0, 0, mapError(err, kind)
	}

	return inserted, updated, nil
}

// upsertSuffix builds the conflict clause. Every non-key column is taken
// from EXCLUDED so a re-synced row fully reflects the latest vendor state;
// columns the mapper never emits (surrogate id, reconciled soft FKs) are
// untouched. xmax = 0 distinguishes a fresh insert from a conflict update.
func upsertSuffix(kind domain.EntityKind, cols []string) string {
	set := make([]string, 0, len(cols)-1)
	for _, c := range cols {
		if c == kind.NaturalKey() {
			continue
		}
		set = append(set, c+" = EXCLUDED."+c)
	}
	return fmt.Sprintf("ON CONFLICT (%s) DO UPDATE SET %s RETURNING (xmax = 0) AS inserted",
		kind.NaturalKey(), strings.Join(set, ", "))
}
