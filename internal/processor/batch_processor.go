package processor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"arvcalc/config"
	"arvcalc/internal/metrics"
	"arvcalc/internal/models"
	"arvcalc/internal/queue"
)

// Analyzer runs a single analysis request.
type Analyzer interface {
	Analyze(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisReport, error)
}

// ReportStore persists analysis outcomes.
type ReportStore interface {
	SaveReport(report *models.AnalysisReport) error
	SaveFailure(id, targetID string, cause error) error
}

// BatchProcessor drains queued analysis jobs and stores their results
type BatchProcessor struct {
	analyzer  Analyzer
	store     ReportStore
	logger    *logrus.Logger
	config    *config.Config
	metrics   *metrics.Metrics
	queue     *queue.AnalysisQueue
	waitGroup sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewBatchProcessor creates a new batch processor instance
func NewBatchProcessor(analyzer Analyzer, store ReportStore, queue *queue.AnalysisQueue, config *config.Config, m *metrics.Metrics, logger *logrus.Logger) *BatchProcessor {
	ctx, cancel := context.WithCancel(context.Background())
	return &BatchProcessor{
		analyzer: analyzer,
		store:    store,
		queue:    queue,
		config:   config,
		metrics:  m,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins processing jobs from the queue
func (p *BatchProcessor) Start() {
	for i := 0; i < p.config.BatchProcessing.ProcessorCount; i++ {
		p.waitGroup.Add(1)
		go p.processLoop()
	}
}

// Stop cancels in-flight work and waits for the workers to exit
func (p *BatchProcessor) Stop() {
	p.cancel()
	p.waitGroup.Wait()
}

// Wait blocks until the workers exit. Workers exit once the queue is
// closed and drained, or after Stop.
func (p *BatchProcessor) Wait() {
	p.waitGroup.Wait()
}

func (p *BatchProcessor) processLoop() {
	defer p.waitGroup.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.queue.Jobs():
			if !ok {
				return
			}
			if err := p.processJob(job); err != nil {
				p.logger.WithField("job_id", job.ID).Errorf("Job processing failed: %v", err)
			}
		}
	}
}

// processJob analyzes one job and stores the report, or the failure when
// the analysis itself is rejected.
func (p *BatchProcessor) processJob(job *queue.Job) error {
	req := job.Request
	if req.ID == "" {
		req.ID = job.ID
	}

	logger := p.logger.WithFields(logrus.Fields{
		"job_id":    req.ID,
		"target_id": req.Target.ID,
		"wait":      time.Since(job.EnqueuedAt).String(),
	})

	report, err := p.analyzer.Analyze(p.ctx, req)
	if err != nil && p.ctx.Err() != nil {
		// Interrupted by Stop, not a failed analysis
		logger.Warnf("Analysis interrupted: %v", err)
		return nil
	}
	if err != nil {
		logger.Warnf("Analysis failed: %v", err)
		p.metrics.BatchJob(models.StatusFailed)
		return p.withRetry("save failure", func() error {
			return p.store.SaveFailure(req.ID, req.Target.ID, err)
		})
	}

	if err := p.withRetry("save report", func() error {
		return p.store.SaveReport(report)
	}); err != nil {
		p.metrics.BatchJob(models.StatusFailed)
		return err
	}

	p.metrics.BatchJob(models.StatusCompleted)
	logger.Info("Stored analysis report")
	return nil
}

func (p *BatchProcessor) withRetry(op string, fn func() error) error {
	maxRetries := p.config.BatchProcessing.MaxRetries
	delay := time.Duration(p.config.BatchProcessing.RetryDelay) * time.Second

	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			p.logger.Infof("Retrying %s, attempt %d of %d", op, attempt, maxRetries)
			select {
			case <-p.ctx.Done():
				return fmt.Errorf("%s aborted: %w", op, p.ctx.Err())
			case <-time.After(delay):
			}
		}

		if err = fn(); err == nil {
			return nil
		}

		p.logger.Errorf("%s failed: %v", op, err)
	}

	return fmt.Errorf("failed to %s after %d attempts: %w", op, maxRetries+1, err)
}
