package sink

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mottahub/sync-backend/internal/domain"
)

// mapError converts pgx/pgconn errors into domain errors for one kind.
// context errors pass through unmapped.
func mapError(err error, kind domain.EntityKind) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("upsert %s: %w", kind, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if strings.HasPrefix(pgErr.Code, "08") || strings.HasPrefix(pgErr.Code, "57P") {
			return fmt.Errorf("upsert %s: %v: %w", kind, pgErr, domain.ErrStoreUnavailable)
		}
	}

	return fmt.Errorf("upsert %s: %w", kind, err)
}
