package engine

import (
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/piwi3910/roomlayout/internal/model"
)

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// Pool evaluates independent layouts on a bounded set of workers. Every
// worker builds its own evaluator; jobs carry deep copies and results come
// back over a channel, so nothing mutable is shared. Each call returns only
// after every job has finished.
type Pool struct {
	problem *Problem
	workers int
}

// NewPool creates a pool with the given worker count; 0 means one per CPU.
func NewPool(problem *Problem, workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{problem: problem, workers: workers}
}

type outcome struct {
	index int
	ind   Individual
	ok    bool
}

// run calls fn for every index in [0, n) on the pool's workers.
func (p *Pool) run(n int, fn func(ev *evaluator, i int)) {
	if n == 0 {
		return
	}
	workers := min(p.workers, n)
	jobs := make(chan int)

	var g errgroup.Group
	g.SetLimit(workers)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			ev := p.problem.newEvaluator()
			for i := range jobs {
				fn(ev, i)
			}
			return nil
		})
	}
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	_ = g.Wait()
}

// Evaluate scores a copy of every layout, repairing it first when repair is
// set. Outcomes are returned in input order.
func (p *Pool) Evaluate(layouts []*model.Layout, repair bool) []outcome {
	results := make(chan outcome, len(layouts))
	p.run(len(layouts), func(ev *evaluator, i int) {
		l := layouts[i].Clone()
		ok := true
		if repair {
			l, ok = ev.repair(l)
		}
		results <- outcome{index: i, ind: ev.evaluate(l), ok: ok}
	})
	close(results)

	out := make([]outcome, len(layouts))
	for r := range results {
		out[r.index] = r
	}
	return out
}

// Refine runs local search on a copy of every layout and scores the results.
func (p *Pool) Refine(layouts []*model.Layout, refiner model.Refiner, iterations int) []Individual {
	results := make(chan outcome, len(layouts))
	p.run(len(layouts), func(ev *evaluator, i int) {
		l := ev.refine(layouts[i].Clone(), refiner, iterations)
		results <- outcome{index: i, ind: ev.evaluate(l), ok: true}
	})
	close(results)

	out := make([]Individual, len(layouts))
	for r := range results {
		out[r.index] = r.ind
	}
	return out
}
