// Package async provides the in-process work queue behind the HTTP trigger
// surface. Pub/Sub deliveries bypass it; HTTP-triggered runs go through here
// so request handlers return immediately.
package async

import (
	"context"
	"sync"
	"time"

	"log/slog"
)

// Job is the smallest useful unit. Extend as needed later (trace, retry, etc).
type Job struct {
	UploadID    string
	SubmittedAt time.Time
}

// Runner matches the orchestrator's entry point.
type Runner interface {
	Run(ctx context.Context, uploadID string) error
}

type ExtractQueue struct {
	runner  Runner
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*ExtractQueue)

func WithWorkers(n int) Option {
	return func(q *ExtractQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *ExtractQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithJobTimeout(d time.Duration) Option {
	return func(q *ExtractQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewExtractQueue(runner Runner, logger *slog.Logger, opts ...Option) *ExtractQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ExtractQueue{
		runner:  runner,
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
		ch:      make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ExtractQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for job := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					err := q.runner.Run(ctx, job.UploadID)
					cancel()

					if err != nil {
						q.logger.Error("processing failed", "worker_id", workerID, "upload_id", job.UploadID, "error", err)
					} else {
						q.logger.Info("processed upload", "worker_id", workerID, "upload_id", job.UploadID)
					}
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

// Enqueue submits an upload for background extraction. It returns false when
// the queue is shutting down or full; callers surface that as unavailable.
func (q *ExtractQueue) Enqueue(uploadID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "upload_id", uploadID)
		return false
	}
	select {
	case q.ch <- Job{UploadID: uploadID, SubmittedAt: time.Now()}:
		q.logger.Info("queued upload for extraction", "upload_id", uploadID)
		return true
	default:
		q.logger.Warn("queue full, rejecting", "upload_id", uploadID)
		return false
	}
}

func (q *ExtractQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
