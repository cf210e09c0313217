// Package schedule runs independent analysis tasks over a long-lived,
// bounded worker pool with per-task timeouts and failure isolation.
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/adinsights-cli/internal/model"
)

// DefaultWidth is the default worker pool concurrency.
const DefaultWidth = 4

// DefaultTaskTimeout is the default per-task wall-clock timeout.
const DefaultTaskTimeout = 30 * time.Second

// Task is one independently schedulable unit of analysis work. Immutable;
// declared once per run.
type Task struct {
	Name    string
	Timeout time.Duration
	Run     func(ctx context.Context, ds *model.Dataset, metrics model.SharedMetrics) (map[string]any, error)
}

type job struct {
	ctx     context.Context
	task    Task
	ds      *model.Dataset
	metrics model.SharedMetrics
	out     chan<- model.TaskResult
}

// Scheduler owns a worker pool reused across runs. Create once per process
// and Close when done; it is not tied to a single analysis run.
type Scheduler struct {
	width     int
	jobs      chan job
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New starts a scheduler with the given pool width.
func New(width int) *Scheduler {
	if width <= 0 {
		width = DefaultWidth
	}
	s := &Scheduler{
		width: width,
		jobs:  make(chan job),
	}
	for i := 0; i < width; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	return s
}

// Width returns the pool concurrency.
func (s *Scheduler) Width() int { return s.width }

// Close drains the pool. Pending submitted jobs finish; no new runs may be
// started afterwards.
func (s *Scheduler) Close() {
	s.closeOnce.Do(func() {
		close(s.jobs)
		s.wg.Wait()
	})
}

func (s *Scheduler) worker() {
	defer s.wg.Done()
	for j := range s.jobs {
		j.out <- execute(j.ctx, j.task, j.ds, j.metrics)
	}
}

// RunAll dispatches every task to the pool and collects one TaskResult per
// declared task, keyed by name. Completion order is irrelevant: the map is
// fully determined once all tasks finish. A failed or timed-out task yields
// a result with Err set and an empty payload and never aborts its siblings.
func (s *Scheduler) RunAll(ctx context.Context, tasks []Task, ds *model.Dataset, metrics model.SharedMetrics) map[string]model.TaskResult {
	out := make(chan model.TaskResult, len(tasks))

	go func() {
		for _, t := range tasks {
			s.jobs <- job{ctx: ctx, task: t, ds: ds, metrics: metrics, out: out}
		}
	}()

	results := make(map[string]model.TaskResult, len(tasks))
	for range tasks {
		r := <-out
		results[r.Name] = r
	}
	return results
}

// RunSequential runs the same tasks one at a time in declaration order,
// producing an identical map shape. Used when concurrency must be disabled.
func (s *Scheduler) RunSequential(ctx context.Context, tasks []Task, ds *model.Dataset, metrics model.SharedMetrics) map[string]model.TaskResult {
	results := make(map[string]model.TaskResult, len(tasks))
	for _, t := range tasks {
		r := execute(ctx, t, ds, metrics)
		results[r.Name] = r
	}
	return results
}

// execute runs one task with its wall-clock timeout and panic isolation.
func execute(ctx context.Context, t Task, ds *model.Dataset, metrics model.SharedMetrics) model.TaskResult {
	timeout := t.Timeout
	if timeout <= 0 {
		timeout = DefaultTaskTimeout
	}
	taskCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	done := make(chan model.TaskResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- failedResult(t.Name, start, model.ErrorKindTask, fmt.Sprintf("panic: %v", r))
			}
		}()
		payload, err := t.Run(taskCtx, ds, metrics)
		if err != nil {
			done <- failedResult(t.Name, start, model.ErrorKindTask, err.Error())
			return
		}
		if payload == nil {
			payload = map[string]any{}
		}
		done <- model.TaskResult{
			Name:       t.Name,
			Payload:    payload,
			DurationMS: time.Since(start).Milliseconds(),
		}
	}()

	select {
	case r := <-done:
		if r.Err != nil {
			zap.L().Warn("schedule: task failed",
				zap.String("task", t.Name),
				zap.String("error", r.Err.Message),
			)
		}
		return r
	case <-taskCtx.Done():
		zap.L().Warn("schedule: task timed out",
			zap.String("task", t.Name),
			zap.Duration("timeout", timeout),
		)
		return failedResult(t.Name, start, model.ErrorKindTask, fmt.Sprintf("timed out after %s", timeout))
	}
}

func failedResult(name string, start time.Time, kind model.ErrorKind, msg string) model.TaskResult {
	return model.TaskResult{
		Name:       name,
		Payload:    map[string]any{},
		Err:        &model.ErrorInfo{Stage: name, Kind: kind, Message: msg},
		DurationMS: time.Since(start).Milliseconds(),
	}
}
