package federation

import (
	"context"
	"fmt"
	"log/slog"

	"fedsearch/internal/repository"
)

// Probe runs the canary statement. It returns nil when the repository has
// the schema the search needs, an error wrapping ErrIncompatibleRepository
// when the canary fails, and the context error when ctx ended first. An
// empty result is compatible.
func Probe(ctx context.Context, conn repository.Connection, canary string, logger *slog.Logger) error {
	if canary == "" {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := conn.Execute(ctx, canary); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		logger.Info("ignoring repository since compatibility probe failed", "error", err)
		return fmt.Errorf("%w: %v", ErrIncompatibleRepository, err)
	}
	return nil
}
