// Package background runs the deferred evaluate-then-persist chain for
// answered questions, keeping the synchronous answer path free of judge and
// database latency.
package background

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomekmatuszewski/pdf-research-assistant/internal/eval"
	"github.com/tomekmatuszewski/pdf-research-assistant/internal/store"
)

// Defaults for the worker pool.
const (
	DefaultWorkers   = 4
	DefaultQueueSize = 64
)

// Evaluator grades an answer for relevance.
type Evaluator interface {
	Evaluate(ctx context.Context, question, answer, modelID string) (eval.Verdict, error)
}

// Recorder builds and persists conversation records.
type Recorder interface {
	NewRecord(question, answer, modelUsed string, latency time.Duration, relevance, explanation string) store.Record
	Save(ctx context.Context, record store.Record) error
}

// Task is one answered question queued for evaluation and persistence.
type Task struct {
	Question    string
	RawResponse string
	ModelID     string
	Latency     time.Duration
}

// Config holds runner configuration.
type Config struct {
	Evaluator Evaluator
	Store     Recorder

	// Number of worker goroutines (defaults to DefaultWorkers)
	Workers int

	// Intake queue capacity (defaults to DefaultQueueSize)
	QueueSize int

	Logger zerolog.Logger
}

// Runner processes queued tasks with a bounded worker pool. Each task is
// cleaned, graded and persisted; a judge failure downgrades the verdict to
// UNKNOWN but never prevents persistence.
type Runner struct {
	evaluator Evaluator
	store     Recorder
	log       zerolog.Logger

	tasks chan Task
	wg    sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// New creates and starts a runner. Workers run until Shutdown.
func New(config *Config) (*Runner, error) {
	if config.Evaluator == nil {
		return nil, fmt.Errorf("evaluator is required")
	}
	if config.Store == nil {
		return nil, fmt.Errorf("record store is required")
	}
	workers := config.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	queueSize := config.QueueSize
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	r := &Runner{
		evaluator: config.Evaluator,
		store:     config.Store,
		log:       config.Logger,
		tasks:     make(chan Task, queueSize),
	}
	for i := 0; i < workers; i++ {
		r.wg.Add(1)
		go r.worker()
	}
	return r, nil
}

// Submit queues a task without blocking. It fails when the queue is full or
// the runner has been shut down; the caller's answer has already been
// delivered either way, so the failure only costs the stored record.
func (r *Runner) Submit(task Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return fmt.Errorf("runner is shut down")
	}

	select {
	case r.tasks <- task:
		return nil
	default:
		return fmt.Errorf("task queue is full")
	}
}

// Shutdown stops intake and waits for queued tasks to drain, or until ctx
// expires.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.tasks)
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown interrupted: %w", ctx.Err())
	}
}

func (r *Runner) worker() {
	defer r.wg.Done()
	for task := range r.tasks {
		r.process(task)
	}
}

func (r *Runner) process(task Task) {
	ctx := context.Background()
	answer := eval.Clean(task.RawResponse)

	verdict, err := r.evaluator.Evaluate(ctx, task.Question, answer, task.ModelID)
	if err != nil {
		// Grading is best effort; the exchange still gets persisted.
		r.log.Warn().Err(err).Msg("evaluation failed, recording unknown verdict")
		verdict = eval.UnknownVerdict()
	}

	record := r.store.NewRecord(task.Question, answer, task.ModelID, task.Latency,
		verdict.Relevance, verdict.Explanation)
	if err := r.store.Save(ctx, record); err != nil {
		r.log.Error().Err(err).Str("id", record.ID).Msg("failed to persist conversation")
		return
	}

	r.log.Debug().
		Str("id", record.ID).
		Str("relevance", verdict.Relevance).
		Msg("conversation evaluated and persisted")
}
