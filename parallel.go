package raikou

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Workers resolves a requested worker count: values below one mean "one
// worker per available CPU".
func Workers(n int) int {
	if n < 1 {
		return runtime.GOMAXPROCS(0)
	}
	return n
}

type chunkTask struct {
	arch  *archetype
	chunk *chunk
}

// chunkTasks returns one task per non-empty matching chunk.
func (q *queryCache) chunkTasks() []chunkTask {
	if q.IsStale() {
		q.updateMatching()
	}
	tasks := make([]chunkTask, 0, len(q.matchingArches))
	for _, a := range q.matchingArches {
		for _, c := range a.chunks {
			if c.size > 0 {
				tasks = append(tasks, chunkTask{arch: a, chunk: c})
			}
		}
	}
	return tasks
}

// parallel runs fn once per matching chunk on at most workers goroutines and
// returns once every chunk has been processed. The world is locked for the
// duration, so fn may write component values but must not change structure.
func (q *queryCache) parallel(workers int, fn func(a *archetype, c *chunk)) {
	tasks := q.chunkTasks()
	w := q.world
	w.Lock()
	defer w.Unlock()
	workers = Workers(workers)
	if workers == 1 || len(tasks) <= 1 {
		for _, t := range tasks {
			fn(t.arch, t.chunk)
		}
		return
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for _, t := range tasks {
		g.Go(func() error {
			fn(t.arch, t.chunk)
			return nil
		})
	}
	_ = g.Wait()
}
