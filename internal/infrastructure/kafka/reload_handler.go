package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartcheck/heartcheck/internal/domain/event"
	"github.com/heartcheck/heartcheck/pkg/events"
	pkgkafka "github.com/heartcheck/heartcheck/pkg/kafka"
)

// NewReloadHandler returns a consumer handler that calls reload whenever
// another replica announces a completed training run. Other event types are
// acknowledged and ignored.
func NewReloadHandler(reload func(context.Context) error, logger *slog.Logger) pkgkafka.Handler {
	return func(ctx context.Context, msg pkgkafka.Message) error {
		if t, ok := msg.Headers["event_type"]; ok && t != event.EventTypeTrainingCompleted {
			return nil
		}

		env, err := events.Unmarshal(msg.Value)
		if err != nil {
			// Unparseable messages would be redelivered forever.
			logger.WarnContext(ctx, "dropping malformed event", "error", err)
			return nil
		}
		if env.Type != event.EventTypeTrainingCompleted {
			return nil
		}

		done, err := event.DecodeTrainingCompleted(env)
		if err != nil {
			logger.WarnContext(ctx, "dropping malformed training event", "error", err)
			return nil
		}

		logger.InfoContext(ctx, "training completed elsewhere, reloading", "run_id", done.RunID)
		if err := reload(ctx); err != nil {
			return fmt.Errorf("reload after run %s: %w", done.RunID, err)
		}
		return nil
	}
}
