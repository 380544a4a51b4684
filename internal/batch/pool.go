package batch

import (
	"context"
	"sync"

	"HalalScreener/internal/model"
)

// screenFunc screens one ticker. ok=false means the ticker was skipped.
type screenFunc func(ctx context.Context, ticker string) (res model.ScreeningResult, ok bool)

type jobItem struct {
	index  int
	ticker string
}

type resultItem struct {
	index  int
	result model.ScreeningResult
	ok     bool
}

// pool fans tickers out over a fixed number of workers. Results come back in
// input order; skipped entries have ok=false.
type pool struct {
	numWorkers int
}

func newPool(numWorkers int) *pool {
	if numWorkers <= 0 {
		numWorkers = DefaultWorkers
	}
	return &pool{numWorkers: numWorkers}
}

func (p *pool) run(ctx context.Context, tickers []string, screen screenFunc) []resultItem {
	n := len(tickers)
	if n == 0 {
		return []resultItem{}
	}

	jobs := make(chan jobItem, n)
	results := make(chan resultItem, n)

	var wg sync.WaitGroup
	workers := p.numWorkers
	if n < workers {
		workers = n
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker(ctx, jobs, results, screen)
		}()
	}

	for i, t := range tickers {
		jobs <- jobItem{index: i, ticker: t}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([]resultItem, n)
	for r := range results {
		out[r.index] = r
	}
	return out
}

func worker(ctx context.Context, jobs <-chan jobItem, results chan<- resultItem, screen screenFunc) {
	for job := range jobs {
		if ctx.Err() != nil {
			results <- resultItem{index: job.index}
			continue
		}
		res, ok := screen(ctx, job.ticker)
		results <- resultItem{index: job.index, result: res, ok: ok}
	}
}
