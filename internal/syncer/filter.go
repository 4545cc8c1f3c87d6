package syncer

import (
	"time"

	"github.com/mottahub/sync-backend/internal/domain"
)

// FilterModifiedAfter keeps records modified strictly after the cursor.
// Records without a vendor modified time are always kept: a record the
// vendor does not timestamp can never be proven unchanged, and upserts are
// idempotent anyway. A nil cursor (empty table or full sync) keeps all.
func FilterModifiedAfter(records []domain.Record, cursor *time.Time) []domain.Record {
	if cursor == nil {
		return records
	}
	out := make([]domain.Record, 0, len(records))
	for _, rec := range records {
		if rec.ModifiedAt == nil || rec.ModifiedAt.After(*cursor) {
			out = append(out, rec)
		}
	}
	return out
}
