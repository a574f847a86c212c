// Package feed produces request lifecycle events and writes them into a
// request store. Sources run on their own goroutines; the store is their
// only shared state with the UI.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/Dicklesworthstone/netfall/internal/request"
)

// Sink receives request lifecycle events. *request.Store implements it.
type Sink interface {
	Add(r request.Request) error
	Apply(u request.Update) (bool, error)
}

// Source is a producer of request events.
type Source interface {
	Name() string
	// Run emits events into sink until ctx is cancelled or the source is
	// exhausted. Cancellation is not an error.
	Run(ctx context.Context, sink Sink) error
}

var _ Sink = (*request.Store)(nil)

// RunAll runs every source concurrently and waits for all of them. The first
// failing source cancels the others.
func RunAll(ctx context.Context, sink Sink, sources ...Source) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, src := range sources {
		src := src // per-iteration copy; go.mod targets go 1.21
		g.Go(func() error {
			slog.Default().Info("feed started", "source", src.Name())
			err := src.Run(ctx, sink)
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("feed %s: %w", src.Name(), err)
			}
			slog.Default().Info("feed stopped", "source", src.Name())
			return nil
		})
	}
	return g.Wait()
}

// add writes r and logs instead of failing on malformed input.
func add(sink Sink, source string, r request.Request) bool {
	if err := sink.Add(r); err != nil {
		slog.Default().Warn("feed request skipped", "source", source, "id", r.ID, "error", err)
		return false
	}
	return true
}

// apply writes u and logs instead of failing on malformed input.
func apply(sink Sink, source string, u request.Update) {
	ok, err := sink.Apply(u)
	if err != nil {
		slog.Default().Warn("feed update skipped", "source", source, "id", u.ID, "error", err)
		return
	}
	if !ok {
		slog.Default().Debug("feed update for unknown request", "source", source, "id", u.ID)
	}
}
