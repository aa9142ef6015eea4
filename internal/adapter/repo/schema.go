package repo

import (
	"context"
	"fmt"

	"github.com/awonak/pool-party/internal/infra"
	"github.com/awonak/pool-party/internal/sqlinline"
)

// EnsureSchema creates the tables when they do not exist yet.
func EnsureSchema(ctx context.Context, sql infra.SQLExecutor) error {
	if _, err := sql.Exec(ctx, sqlinline.QEnsureSchema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
