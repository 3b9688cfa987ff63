// Package engine runs the evolutionary loop and serves submitted runs from
// a worker pool.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/gyaneshwarpardhi/boa/internal/config"
	"github.com/gyaneshwarpardhi/boa/internal/fitness"
	"github.com/gyaneshwarpardhi/boa/internal/metrics"
	"github.com/gyaneshwarpardhi/boa/internal/store"
)

var (
	// ErrQueueFull is returned when no queue slot is free for a new run.
	ErrQueueFull = errors.New("run queue full")
	// ErrInvalidRun wraps validation failures of submitted parameters.
	ErrInvalidRun = errors.New("invalid run parameters")
)

// Status is the lifecycle state of a submitted run.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Record is the persisted state of a submitted run.
type Record struct {
	RunID      string         `json:"id"`
	Status     Status         `json:"status"`
	Config     config.RunConf `json:"config"`
	CreatedAt  time.Time      `json:"created_at"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Result     *Result        `json:"result,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// ID implements store.Identifiable.
func (r Record) ID() string { return r.RunID }

// Engine executes runs on a fixed pool of workers and records their state.
type Engine struct {
	defaults atomic.Pointer[config.RunConf]
	registry *fitness.Registry
	runs     *store.Store[Record]
	pool     *workerPool[*runWork]
	conf     config.ServerConf
	log      *slog.Logger
}

type runWork struct {
	rec  Record
	done chan Record
}

// New creates an Engine using conf and starts its workers. defaults seed
// the parameters of submitted runs.
func New(ctx context.Context, reg *fitness.Registry, runs *store.Store[Record], conf config.ServerConf, defaults config.RunConf, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	e := &Engine{
		registry: reg,
		runs:     runs,
		conf:     conf,
		log:      log,
	}
	e.defaults.Store(&defaults)
	e.pool = newWorkerPool(ctx, conf.Workers, conf.QueueDepth, e.execute)
	return e
}

// SwapDefaults atomically replaces the parameters new runs start from (used
// on hot reload).
func (e *Engine) SwapDefaults(rc config.RunConf) {
	e.defaults.Store(&rc)
}

// Defaults returns a copy of the current default run parameters.
func (e *Engine) Defaults() config.RunConf {
	return *e.defaults.Load()
}

// Submit validates rc, records it as queued and enqueues it. It returns
// ErrQueueFull when the queue has no room.
func (e *Engine) Submit(rc config.RunConf) (Record, error) {
	return e.submit(rc, nil)
}

// RunSync submits rc and waits for the run to finish, for ctx to end or for
// the configured run timeout.
func (e *Engine) RunSync(ctx context.Context, rc config.RunConf) (Record, error) {
	done := make(chan Record, 1)
	rec, err := e.submit(rc, done)
	if err != nil {
		return rec, err
	}

	var timeout <-chan time.Time
	if e.conf.RunTimeoutMs > 0 {
		t := time.NewTimer(time.Duration(e.conf.RunTimeoutMs) * time.Millisecond)
		defer t.Stop()
		timeout = t.C
	}
	select {
	case res := <-done:
		return res, nil
	case <-timeout:
		return rec, fmt.Errorf("run %s: no result after %dms: %w", rec.RunID, e.conf.RunTimeoutMs, context.DeadlineExceeded)
	case <-ctx.Done():
		return rec, ctx.Err()
	}
}

func (e *Engine) submit(rc config.RunConf, done chan Record) (Record, error) {
	if err := config.ValidateRun(rc, e.registry.Check); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrInvalidRun, err)
	}
	rec := Record{
		RunID:     uuid.New().String(),
		Status:    StatusQueued,
		Config:    rc,
		CreatedAt: time.Now().UTC(),
	}
	if err := e.runs.Put(rec); err != nil {
		return Record{}, fmt.Errorf("record run: %w", err)
	}
	if !e.pool.Submit(&runWork{rec: rec, done: done}) {
		metrics.RunsDropped.Inc()
		if err := e.runs.Delete(rec.RunID); err != nil {
			e.log.Warn("drop rejected run", "run", rec.RunID, "err", err)
		}
		return Record{}, fmt.Errorf("%w (capacity %d)", ErrQueueFull, e.pool.QueueCap())
	}
	metrics.RunsEnqueued.Inc()
	metrics.QueueUtilization.Set(e.QueueUtilization())
	return rec, nil
}

// Get returns the record of run id.
func (e *Engine) Get(id string) (Record, error) {
	return e.runs.Get(id)
}

// List returns all run records, oldest first.
func (e *Engine) List() ([]Record, error) {
	recs, err := e.runs.List()
	if err != nil {
		return nil, err
	}
	slices.SortFunc(recs, func(a, b Record) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return recs, nil
}

// QueueUtilization returns queue used / capacity (0–1).
func (e *Engine) QueueUtilization() float64 {
	if e.pool.QueueCap() == 0 {
		return 0
	}
	return float64(e.pool.QueueLen()) / float64(e.pool.QueueCap())
}

// Active returns the number of runs currently executing.
func (e *Engine) Active() int {
	return e.pool.Active()
}

func (e *Engine) execute(ctx context.Context, w *runWork) {
	rec := w.rec
	log := e.log.With("run", rec.RunID)

	rec.Status = StatusRunning
	rec.StartedAt = time.Now().UTC()
	e.save(log, rec)
	metrics.QueueUtilization.Set(e.QueueUtilization())

	if e.conf.RunTimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(e.conf.RunTimeoutMs)*time.Millisecond)
		defer cancel()
	}

	res, err := e.runOne(ctx, rec.Config, log)
	rec.FinishedAt = time.Now().UTC()
	metrics.RunDuration.Observe(rec.FinishedAt.Sub(rec.StartedAt).Seconds())
	if err != nil {
		rec.Status = StatusFailed
		rec.Error = err.Error()
		metrics.RunsFinished.WithLabelValues(string(StatusFailed), "error").Inc()
		log.Error("run failed", "err", err)
	} else {
		rec.Status = StatusDone
		rec.Result = res
		metrics.RunsFinished.WithLabelValues(string(StatusDone), string(res.Reason)).Inc()
	}
	e.save(log, rec)

	if w.done != nil {
		w.done <- rec
	}
}

func (e *Engine) runOne(ctx context.Context, rc config.RunConf, log *slog.Logger) (*Result, error) {
	fn, err := e.registry.Get(rc.Fitness)
	if err != nil {
		return nil, err
	}
	// Output files belong to the CLI; service runs report through their record.
	rc.Output = ""
	return Run(ctx, rc, fn, WithLogger(log))
}

func (e *Engine) save(log *slog.Logger, rec Record) {
	if err := e.runs.Put(rec); err != nil {
		log.Error("persist run", "status", rec.Status, "err", err)
	}
}

// Shutdown stops accepting runs and waits for queued ones to finish.
func (e *Engine) Shutdown() {
	e.pool.Drain()
}
