package analysis

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"arvcalc/internal/models"
)

// BatchResult pairs one request's report with its error.
type BatchResult struct {
	Report *models.AnalysisReport
	Err    error
}

// AnalyzeBatch runs requests on up to workers goroutines. Results are in
// request order. Requests not started before ctx is done fail with the
// context's error.
func (s *Service) AnalyzeBatch(ctx context.Context, reqs []models.AnalysisRequest, workers int) []BatchResult {
	results := make([]BatchResult, len(reqs))
	if workers < 1 {
		workers = 1
	}
	if workers > len(reqs) {
		workers = len(reqs)
	}

	indexes := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				report, err := s.Analyze(ctx, reqs[i])
				results[i] = BatchResult{Report: report, Err: err}
			}
		}()
	}

dispatch:
	for i := range reqs {
		select {
		case indexes <- i:
		case <-ctx.Done():
			for j := i; j < len(reqs); j++ {
				results[j] = BatchResult{Err: ctx.Err()}
			}
			break dispatch
		}
	}
	close(indexes)
	wg.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	s.logger.WithFields(logrus.Fields{
		"requests": len(reqs),
		"workers":  workers,
		"failed":   failed,
	}).Info("Batch analysis finished")

	return results
}
