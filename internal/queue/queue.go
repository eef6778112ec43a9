// Package queue implements a bounded background task queue in place of
// promise-based fire-and-forget background work: matching scheduling and
// notification delivery are queued tasks with explicit budgets and
// logging, never detached goroutines, and the queue is bounded so a
// producer surge cannot exhaust memory.
//
// Shape follows a websocket Hub: a buffered channel plus a single
// consumer goroutine, combined with a worker-loop-over-channel polling
// pattern.
package queue

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultCapacity matches the Hub's broadcast channel capacity.
const DefaultCapacity = 256

// DefaultTaskBudget is the default per-task cancellation budget.
const DefaultTaskBudget = 5 * time.Second

// Task is one unit of background work. Scheduling failures must never
// propagate to the publisher ; Task itself never returns an
// error to the caller — only to the queue's own logging.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Queue is a bounded, single-worker background task queue.
type Queue struct {
	tasks chan Task
	log   *zap.SugaredLogger
	budget time.Duration
}

// New creates a Queue with the given capacity and starts its worker.
// ctx governs the worker's lifetime; cancelling it stops the worker, and
// tasks still queued at that point are not run.
func New(ctx context.Context, capacity int, budget time.Duration, log *zap.SugaredLogger) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if budget <= 0 {
		budget = DefaultTaskBudget
	}
	q := &Queue{tasks: make(chan Task, capacity), log: log, budget: budget}
	go q.run(ctx)
	return q
}

// Enqueue schedules a task without blocking the caller on its execution.
// If the queue is full the task is dropped and logged — scheduling
// failures must not propagate to the publisher.
func (q *Queue) Enqueue(t Task) {
	select {
	case q.tasks <- t:
	default:
		if q.log != nil {
			q.log.Warnw("queue: task dropped, queue full", "task", t.Name)
		}
	}
}

func (q *Queue) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-q.tasks:
			q.execute(ctx, t)
		}
	}
}

func (q *Queue) execute(parent context.Context, t Task) {
	ctx, cancel := context.WithTimeout(parent, q.budget)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- t.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil && q.log != nil {
			q.log.Warnw("queue: task failed", "task", t.Name, "error", err)
		}
	case <-ctx.Done():
		if q.log != nil {
			q.log.Warnw("queue: task abandoned on budget overrun", "task", t.Name, "budget", q.budget)
		}
	}
}
