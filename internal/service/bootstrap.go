package service

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// BootstrapStep is one idempotent initialization task that needs the store.
type BootstrapStep struct {
	Name string
	Run  func(ctx context.Context) error
}

// Bootstrapper runs the store initialization (schema, default admin) until
// it succeeds once. Failed attempts are retried on the next call. Only one
// attempt runs at a time; callers waiting for it give up with their context.
type Bootstrapper struct {
	steps []BootstrapStep
	log   zerolog.Logger

	slot chan struct{}
	done atomic.Bool
}

// NewBootstrapper creates a Bootstrapper running steps in order.
func NewBootstrapper(log zerolog.Logger, steps ...BootstrapStep) *Bootstrapper {
	return &Bootstrapper{
		steps: steps,
		log:   log.With().Str("component", "bootstrap").Logger(),
		slot:  make(chan struct{}, 1),
	}
}

// Ready reports whether a previous Ensure call completed.
func (b *Bootstrapper) Ready() bool {
	return b.done.Load()
}

// Ensure runs the steps unless they already completed.
func (b *Bootstrapper) Ensure(ctx context.Context) error {
	if b.done.Load() {
		return nil
	}

	select {
	case b.slot <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("bootstrap: %w", ctx.Err())
	}
	defer func() { <-b.slot }()

	if b.done.Load() {
		return nil
	}

	for _, step := range b.steps {
		if err := step.Run(ctx); err != nil {
			return fmt.Errorf("bootstrap %s: %w", step.Name, err)
		}
		b.log.Debug().Str("step", step.Name).Msg("Bootstrap step complete")
	}

	b.done.Store(true)
	b.log.Info().Int("steps", len(b.steps)).Msg("Store bootstrap complete")
	return nil
}
