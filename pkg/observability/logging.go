package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/composable/pkg/domain"
)

// LoggingHooks writes every lifecycle event to logger. Reductions and effect
// activity log at debug, dropped actions at info. Failures are already logged
// by the runtime at error and are only repeated here at debug.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnAction: func(ctx context.Context, e *domain.ActionEvent) {
			logger.DebugContext(ctx, "action reduced", "store_id", e.StoreID, "action", e.Name, "duration", e.Duration)
		},
		OnActionDropped: func(ctx context.Context, e *domain.ActionEvent) {
			logger.InfoContext(ctx, "action dropped", "store_id", e.StoreID, "action", e.Name, "reason", e.Reason)
		},
		OnStateChange: func(ctx context.Context, e *domain.StateEvent) {
			logger.DebugContext(ctx, "state published", "store_id", e.StoreID, "version", e.Version, "action", e.Action)
		},
		OnEffectStart: func(ctx context.Context, e *domain.EffectEvent) {
			logger.DebugContext(ctx, "effect started", effectAttrs(e)...)
		},
		OnEffectFinish: func(ctx context.Context, e *domain.EffectEvent) {
			args := append(effectAttrs(e), "duration", e.Duration)
			if e.Err != nil {
				args = append(args, "caught", e.Err)
			}
			logger.DebugContext(ctx, "effect finished", args...)
		},
		OnEffectCancel: func(ctx context.Context, e *domain.EffectEvent) {
			logger.DebugContext(ctx, "effect cancelled", append(effectAttrs(e), "duration", e.Duration)...)
		},
		OnEffectFailure: func(ctx context.Context, e *domain.EffectEvent) {
			logger.DebugContext(ctx, "effect failure", append(effectAttrs(e), "err", e.Err)...)
		},
	}
}

func effectAttrs(e *domain.EffectEvent) []any {
	args := []any{"store_id", e.StoreID, "seq", e.Seq}
	if e.ID != "" {
		args = append(args, "effect_id", e.ID)
	}
	if e.Scope != "" {
		args = append(args, "scope", e.Scope)
	}
	return args
}
