package comparison

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/meysamhadeli/codesim/code_normalizer/contracts"
	"github.com/meysamhadeli/codesim/code_normalizer/models"
	"github.com/meysamhadeli/codesim/manifest"
	"github.com/meysamhadeli/codesim/similarity"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ProgressFunc is called once per finished pair with the number of finished pairs.
type ProgressFunc func(done, total int)

// EntryError ties a failure to the manifest line that caused it.
type EntryError struct {
	Entry manifest.Entry
	Err   error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("manifest line %d (%s, %s): %v", e.Entry.Line, e.Entry.PathA, e.Entry.PathB, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

// Runner scores every pair of a manifest.
type Runner struct {
	normalizer contracts.ICodeNormalizer
	engine     *similarity.Engine
	workers    int
	progress   ProgressFunc
}

// NewRunner creates a runner. workers <= 0 selects DefaultWorkers.
func NewRunner(normalizer contracts.ICodeNormalizer, engine *similarity.Engine, workers int, progress ProgressFunc) *Runner {
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	return &Runner{
		normalizer: normalizer,
		engine:     engine,
		workers:    workers,
		progress:   progress,
	}
}

// DefaultWorkers leaves a quarter of the CPUs for the rest of the system.
func DefaultWorkers() int {
	totalCPU := runtime.NumCPU()
	systemReserve := max(1, totalCPU/4)
	return max(1, totalCPU-systemReserve)
}

// Workers returns the configured concurrency.
func (r *Runner) Workers() int {
	return r.workers
}

// Compare normalizes both files and scores them.
func (r *Runner) Compare(ctx context.Context, pathA, pathB string) (float64, error) {
	tokensA, err := r.normalizer.NormalizeFile(ctx, pathA)
	if err != nil {
		return 0, err
	}
	tokensB, err := r.normalizer.NormalizeFile(ctx, pathB)
	if err != nil {
		return 0, err
	}
	return r.engine.Score(tokensA, tokensB)
}

// Run scores all entries concurrently and returns the scores in manifest
// order. The first failure cancels the remaining work and is returned.
func (r *Runner) Run(ctx context.Context, entries []manifest.Entry) ([]float64, error) {
	scores := make([]float64, len(entries))
	if len(entries) == 0 {
		return scores, nil
	}

	log.Info().
		Int("pairs", len(entries)).
		Int("workers", r.workers).
		Msg("Comparing manifest pairs")

	memo := newTokenMemo(r.normalizer)
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, entry := range entries {
		i, entry := i, entry
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			tokensA, err := memo.get(gctx, entry.PathA)
			if err != nil {
				return &EntryError{Entry: entry, Err: err}
			}
			tokensB, err := memo.get(gctx, entry.PathB)
			if err != nil {
				return &EntryError{Entry: entry, Err: err}
			}

			score, err := r.engine.Score(tokensA, tokensB)
			if err != nil {
				return &EntryError{Entry: entry, Err: err}
			}
			scores[i] = score

			log.Debug().
				Int("line", entry.Line).
				Str("a", entry.PathA).
				Str("b", entry.PathB).
				Msg("Pair scored")

			finished := int(done.Add(1))
			if r.progress != nil {
				r.progress(finished, len(entries))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scores, nil
}

// tokenMemo normalizes each path at most once per run.
type tokenMemo struct {
	normalizer contracts.ICodeNormalizer
	mutex      sync.Mutex
	entries    map[string]*memoEntry
}

type memoEntry struct {
	once   sync.Once
	tokens models.TokenSequence
	err    error
}

func newTokenMemo(normalizer contracts.ICodeNormalizer) *tokenMemo {
	return &tokenMemo{
		normalizer: normalizer,
		entries:    make(map[string]*memoEntry),
	}
}

func (m *tokenMemo) get(ctx context.Context, path string) (models.TokenSequence, error) {
	m.mutex.Lock()
	entry, ok := m.entries[path]
	if !ok {
		entry = &memoEntry{}
		m.entries[path] = entry
	}
	m.mutex.Unlock()

	entry.once.Do(func() {
		entry.tokens, entry.err = m.normalizer.NormalizeFile(ctx, path)
	})
	return entry.tokens, entry.err
}
