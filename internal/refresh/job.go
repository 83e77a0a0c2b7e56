// Package refresh runs the recurring price refresh: one new observation per
// known instrument per cycle, written independently so a failing instrument
// never blocks the others.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/TejasShirsath/stocky-assignment/internal/domain"
	"github.com/TejasShirsath/stocky-assignment/internal/money"
	"github.com/TejasShirsath/stocky-assignment/internal/observability"
	"github.com/TejasShirsath/stocky-assignment/internal/storage"
)

// ErrCycleInProgress is returned by RunOnce when another cycle has not finished.
var ErrCycleInProgress = errors.New("refresh cycle already running")

// Options contains configuration for creating a Job.
type Options struct {
	Instruments storage.InstrumentStore
	Prices      storage.PriceStore
	Source      PriceSource

	Interval     time.Duration // Default: 24h
	Concurrency  int           // Default: 4 concurrent writes
	CycleTimeout time.Duration // Default: 5m for a whole cycle
	WriteTimeout time.Duration // Default: 10s per instrument

	Now    func() time.Time
	Logger *log.Logger
}

// CycleResult summarizes one refresh cycle.
type CycleResult struct {
	CycleID     string        `json:"cycle_id"`
	StartedAt   time.Time     `json:"started_at"`
	Instruments int           `json:"instruments"`
	Written     int           `json:"written"`
	Failed      int           `json:"failed"`
	Duration    time.Duration `json:"duration"`
}

// Status is a point-in-time view of the job for the /status endpoint.
type Status struct {
	Interval  string       `json:"interval"`
	Running   bool         `json:"running"`
	Cycles    int          `json:"cycles"`
	Skipped   int          `json:"skipped"`
	LastCycle *CycleResult `json:"last_cycle,omitempty"`
}

// Job appends synthetic or sourced prices on a fixed interval.
type Job struct {
	instruments  storage.InstrumentStore
	prices       storage.PriceStore
	source       PriceSource
	interval     time.Duration
	concurrency  int
	cycleTimeout time.Duration
	writeTimeout time.Duration
	now          func() time.Time
	logger       *log.Logger

	mu        sync.Mutex
	running   bool
	cycles    int
	skipped   int
	lastCycle *CycleResult

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewJob creates a refresh job.
func NewJob(opts Options) *Job {
	interval := opts.Interval
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	cycleTimeout := opts.CycleTimeout
	if cycleTimeout <= 0 {
		cycleTimeout = 5 * time.Minute
	}

	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Job{
		instruments:  opts.Instruments,
		prices:       opts.Prices,
		source:       opts.Source,
		interval:     interval,
		concurrency:  concurrency,
		cycleTimeout: cycleTimeout,
		writeTimeout: writeTimeout,
		now:          now,
		logger:       logger,
	}
}

// Start runs one cycle immediately and then one per interval until Stop is
// called or ctx is cancelled.
func (j *Job) Start(ctx context.Context) {
	ctx, j.cancel = context.WithCancel(ctx)

	j.wg.Add(1)
	go j.run(ctx)

	j.logger.Printf("Price refresh started (interval: %v, concurrency: %d)", j.interval, j.concurrency)
}

// Stop cancels the schedule and waits for an in-flight cycle to finish or ctx to expire.
func (j *Job) Stop(ctx context.Context) error {
	if j.cancel != nil {
		j.cancel()
	}

	done := make(chan struct{})
	go func() {
		j.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		j.logger.Println("Price refresh stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (j *Job) run(ctx context.Context) {
	defer j.wg.Done()

	// Run immediately on start
	j.tick(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.tick(ctx)
		}
	}
}

func (j *Job) tick(ctx context.Context) {
	_, err := j.RunOnce(ctx)
	switch {
	case errors.Is(err, ErrCycleInProgress):
		j.logger.Println("Price refresh already running, skipping...")
	case err != nil && ctx.Err() == nil:
		j.logger.Printf("Price refresh error: %v", err)
	}
}

// RunOnce executes a single cycle. Per-instrument failures are logged and
// counted in the result; only a failure to list instruments is returned.
func (j *Job) RunOnce(ctx context.Context) (*CycleResult, error) {
	j.mu.Lock()
	if j.running {
		j.skipped++
		j.mu.Unlock()
		observability.RecordRefreshSkipped()
		return nil, ErrCycleInProgress
	}
	j.running = true
	j.mu.Unlock()

	result := &CycleResult{CycleID: uuid.NewString(), StartedAt: j.now()}
	defer func() {
		j.mu.Lock()
		j.running = false
		j.cycles++
		j.lastCycle = result
		j.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, j.cycleTimeout)
	defer cancel()

	start := time.Now()
	instruments, err := j.instruments.List(ctx)
	if err != nil {
		result.Duration = time.Since(start)
		return result, fmt.Errorf("list instruments: %w", err)
	}
	result.Instruments = len(instruments)

	// Semaphore for bounded concurrency.
	sem := make(chan struct{}, j.concurrency)
	var wg sync.WaitGroup
	var written, failed atomic.Int64

	for _, inst := range instruments {
		wg.Add(1)
		go func(inst *domain.Instrument) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				j.logger.Printf("cycle %s: %s skipped: %v", result.CycleID, inst.Symbol, ctx.Err())
				failed.Add(1)
				return
			}

			if err := j.refreshInstrument(ctx, result.CycleID, inst); err != nil {
				j.logger.Printf("cycle %s: failed to refresh %s: %v", result.CycleID, inst.Symbol, err)
				failed.Add(1)
				return
			}
			written.Add(1)
		}(inst)
	}
	wg.Wait()

	result.Written = int(written.Load())
	result.Failed = int(failed.Load())
	result.Duration = time.Since(start)

	j.logger.Printf("cycle %s complete: %d instruments, %d written, %d failed in %v",
		result.CycleID, result.Instruments, result.Written, result.Failed, result.Duration)
	observability.RecordRefreshCycle(result.Written, result.Failed, result.Duration.Seconds(), j.now().Unix())

	return result, nil
}

func (j *Job) refreshInstrument(ctx context.Context, cycleID string, inst *domain.Instrument) error {
	ctx, cancel := context.WithTimeout(ctx, j.writeTimeout)
	defer cancel()

	price, err := j.source.Quote(ctx, inst)
	if err != nil {
		return fmt.Errorf("quote: %w", err)
	}
	if _, err := j.prices.AppendObservation(ctx, inst.ID, price, j.now()); err != nil {
		return fmt.Errorf("append observation: %w", err)
	}

	j.logger.Printf("cycle %s: price updated: %s -> %s", cycleID, inst.Symbol, money.Display(price))
	return nil
}

// Status returns the job's current state.
func (j *Job) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()

	var last *CycleResult
	if j.lastCycle != nil {
		c := *j.lastCycle
		last = &c
	}
	return Status{
		Interval:  j.interval.String(),
		Running:   j.running,
		Cycles:    j.cycles,
		Skipped:   j.skipped,
		LastCycle: last,
	}
}
