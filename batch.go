package actrie

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/cpu"
)

// batchResult holds the matches of one buffer. Neighbouring results are
// written by different goroutines, so each sits on its own cache line.
type batchResult struct {
	matches []Match
	_       cpu.CacheLinePad
}

// FindAllBatch scans bufs concurrently, at most limit at a time, and returns
// the matches of bufs[i] at index i. A limit <= 0 means GOMAXPROCS.
//
// Cancelling ctx stops scheduling further buffers; FindAllBatch then returns
// ctx.Err() and no results.
func (m *Matcher) FindAllBatch(ctx context.Context, bufs [][]byte, limit int) ([][]Match, error) {
	if m == nil {
		return nil, ErrNilMatcher
	}
	if m.closed.Load() {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	results := make([]batchResult, len(bufs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, buf := range bufs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c := m.acquire()
			if c == nil {
				return ErrClosed
			}
			defer m.release(c)

			c.reset(buf)
			for match := range c.All() {
				results[i].matches = append(results[i].matches, match)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([][]Match, len(bufs))
	for i := range results {
		out[i] = results[i].matches
	}
	return out, nil
}
