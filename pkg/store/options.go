package store

import (
	"context"
	"log/slog"

	"github.com/aretw0/composable/pkg/domain"
)

// Option configures a root Store.
type Option func(*config)

type config struct {
	id     string
	ctx    context.Context
	logger *slog.Logger
	hooks  domain.LifecycleHooks
}

// WithID sets the store identifier reported in logs, events and snapshots.
// By default a random UUID is used.
func WithID(id string) Option {
	return func(c *config) {
		c.id = id
	}
}

// WithContext sets the parent context of every effect. Cancelling it has the
// same effect on in-flight work as Close.
func WithContext(ctx context.Context) Option {
	return func(c *config) {
		c.ctx = ctx
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *config) {
		c.hooks = hooks
	}
}
