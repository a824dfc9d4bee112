package batch

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"catalogcql/internal/callgroup"
	"catalogcql/internal/compiler"
	"catalogcql/internal/logging"
)

// Outcome is the result of compiling one item. Exactly one of Result and
// Err is set.
type Outcome struct {
	Item
	Result *compiler.Result
	Err    error
}

// Options configures Run.
type Options struct {
	Workers int // concurrent compilations; 0 means GOMAXPROCS
	Logger  *slog.Logger
}

// Run compiles items with c. Outcomes are returned in input order.
// Identical query texts that are in flight at the same time are compiled
// once and share the result.
//
// If ctx ends, items not yet started get ctx.Err() as their error and Run
// returns ctx.Err() alongside the outcomes.
func Run(ctx context.Context, c *compiler.Compiler, items []Item, opts Options) ([]Outcome, error) {
	logger := logging.Default(opts.Logger).With("component", "batch")
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	start := time.Now()
	logger.Info("batch started", "items", len(items), "workers", workers)

	out := make([]Outcome, len(items))
	var calls callgroup.Group[string, *compiler.Result]

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, item := range items {
		out[i].Item = item
		if err := gctx.Err(); err != nil {
			out[i].Err = err
			continue
		}
		g.Go(func() error {
			res, _, err := calls.Do(gctx, item.Query, func() (*compiler.Result, error) {
				return c.Compile(gctx, compiler.Request{Query: item.Query})
			})
			out[i].Result, out[i].Err = res, err
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, o := range out {
		if o.Err != nil {
			failed++
		}
	}
	logger.Info("batch finished", "items", len(items), "failed", failed, "elapsed", time.Since(start))

	return out, ctx.Err()
}
