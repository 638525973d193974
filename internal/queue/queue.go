package queue

import (
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"arvcalc/internal/models"
)

var (
	ErrQueueFull   = errors.New("queue is full")
	ErrQueueClosed = errors.New("queue is closed")
)

// Job is one queued analysis request.
type Job struct {
	ID         string
	Request    models.AnalysisRequest
	EnqueuedAt time.Time
}

// AnalysisQueue is a bounded in-memory queue of analysis jobs
type AnalysisQueue struct {
	items   chan *Job
	maxSize int
	closed  bool
	mu      sync.RWMutex
	logger  *logrus.Logger
}

// NewAnalysisQueue creates a queue holding at most bufferSize jobs
func NewAnalysisQueue(bufferSize int, logger *logrus.Logger) *AnalysisQueue {
	if logger == nil {
		logger = logrus.New()
	}
	return &AnalysisQueue{
		items:   make(chan *Job, bufferSize),
		maxSize: bufferSize,
		logger:  logger,
	}
}

// Push adds a job without blocking
func (q *AnalysisQueue) Push(job *Job) error {
	// The read lock is held through the send so Close cannot close the
	// channel underneath it.
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now()
	}

	select {
	case q.items <- job:
		q.logger.WithFields(logrus.Fields{
			"job_id":    job.ID,
			"target_id": job.Request.Target.ID,
			"queued":    len(q.items),
		}).Debug("Pushed job to queue")
		return nil
	default:
		return ErrQueueFull
	}
}

// Jobs is the receive side consumed by processors. It is closed by Close
// once buffered jobs are drained.
func (q *AnalysisQueue) Jobs() <-chan *Job {
	return q.items
}

// Close stops the queue and prevents new jobs from being added
func (q *AnalysisQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	q.closed = true
	close(q.items)
	return nil
}

// Len returns the current number of queued jobs
func (q *AnalysisQueue) Len() int {
	return len(q.items)
}

// Cap returns the maximum number of queued jobs
func (q *AnalysisQueue) Cap() int {
	return q.maxSize
}

// IsClosed returns whether the queue has been closed
func (q *AnalysisQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
