package refresh

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TejasShirsath/stocky-assignment/internal/domain"
	"github.com/TejasShirsath/stocky-assignment/internal/storage/memory"
)

var quiet = log.New(io.Discard, "", 0)

func seedInstruments(t *testing.T, symbols ...string) *memory.InstrumentStore {
	t.Helper()
	store := memory.NewInstrumentStore()
	for _, s := range symbols {
		_, err := store.Upsert(context.Background(), s)
		require.NoError(t, err)
	}
	return store
}

func TestRunOnce_WritesOnePricePerInstrument(t *testing.T) {
	instruments := seedInstruments(t, "RELIANCE", "TCS", "INFY")
	prices := memory.NewPriceStore(instruments)
	at := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)

	job := NewJob(Options{
		Instruments: instruments,
		Prices:      prices,
		Source: StaticSource{
			"RELIANCE": decimal.RequireFromString("2345.67"),
			"TCS":      decimal.RequireFromString("3500"),
			"INFY":     decimal.RequireFromString("1500.5"),
		},
		Now:    func() time.Time { return at },
		Logger: quiet,
	})

	result, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, result.CycleID)
	assert.Equal(t, 3, result.Instruments)
	assert.Equal(t, 3, result.Written)
	assert.Equal(t, 0, result.Failed)

	tcs, _ := instruments.GetBySymbol(context.Background(), "TCS")
	o, err := prices.LatestAsOf(context.Background(), tcs.ID, at)
	require.NoError(t, err)
	require.NotNil(t, o)
	assert.True(t, o.Price.Equal(decimal.NewFromInt(3500)))
	assert.True(t, o.RecordedAt.Equal(at))
}

func TestRunOnce_FailureIsolation(t *testing.T) {
	instruments := seedInstruments(t, "AAA", "BBB", "CCC")
	prices := memory.NewPriceStore(instruments)

	source := SourceFunc(func(_ context.Context, inst *domain.Instrument) (decimal.Decimal, error) {
		if inst.Symbol == "BBB" {
			return decimal.Zero, errors.New("upstream unavailable")
		}
		return decimal.NewFromInt(10), nil
	})
	job := NewJob(Options{Instruments: instruments, Prices: prices, Source: source, Logger: quiet})

	result, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Written)
	assert.Equal(t, 1, result.Failed)

	series, _ := prices.ListUpTo(context.Background(), []int64{1, 2, 3}, time.Now().Add(time.Hour))
	assert.Len(t, series[1], 1)
	assert.Len(t, series[2], 0)
	assert.Len(t, series[3], 1)
}

func TestRunOnce_BoundedConcurrency(t *testing.T) {
	symbols := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	instruments := seedInstruments(t, symbols...)

	var inflight, peak atomic.Int64
	source := SourceFunc(func(context.Context, *domain.Instrument) (decimal.Decimal, error) {
		n := inflight.Add(1)
		defer inflight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		return decimal.NewFromInt(1), nil
	})

	job := NewJob(Options{
		Instruments: instruments,
		Prices:      memory.NewPriceStore(instruments),
		Source:      source,
		Concurrency: 2,
		Logger:      quiet,
	})

	result, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(symbols), result.Written)
	assert.LessOrEqual(t, peak.Load(), int64(2))
}

func TestRunOnce_WriteTimeout(t *testing.T) {
	instruments := seedInstruments(t, "SLOW", "FAST")

	source := SourceFunc(func(ctx context.Context, inst *domain.Instrument) (decimal.Decimal, error) {
		if inst.Symbol == "SLOW" {
			<-ctx.Done()
			return decimal.Zero, ctx.Err()
		}
		return decimal.NewFromInt(5), nil
	})
	job := NewJob(Options{
		Instruments:  instruments,
		Prices:       memory.NewPriceStore(instruments),
		Source:       source,
		WriteTimeout: 20 * time.Millisecond,
		Logger:       quiet,
	})

	result, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Written)
	assert.Equal(t, 1, result.Failed)
	assert.Less(t, result.Duration, time.Second)
}

func TestRunOnce_SkipsOverlappingCycle(t *testing.T) {
	instruments := seedInstruments(t, "AAA")

	release := make(chan struct{})
	entered := make(chan struct{})
	var once sync.Once
	source := SourceFunc(func(context.Context, *domain.Instrument) (decimal.Decimal, error) {
		once.Do(func() { close(entered) })
		<-release
		return decimal.NewFromInt(1), nil
	})
	job := NewJob(Options{Instruments: instruments, Prices: memory.NewPriceStore(instruments), Source: source, Logger: quiet})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = job.RunOnce(context.Background())
	}()
	<-entered

	_, err := job.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrCycleInProgress)
	assert.True(t, job.Status().Running)

	close(release)
	<-done

	status := job.Status()
	assert.False(t, status.Running)
	assert.Equal(t, 1, status.Cycles)
	assert.Equal(t, 1, status.Skipped)
	require.NotNil(t, status.LastCycle)
	assert.Equal(t, 1, status.LastCycle.Written)
}

func TestStart_RunsImmediately(t *testing.T) {
	instruments := seedInstruments(t, "AAA")
	prices := memory.NewPriceStore(instruments)

	job := NewJob(Options{
		Instruments: instruments,
		Prices:      prices,
		Source:      StaticSource{"AAA": decimal.NewFromInt(42)},
		Interval:    time.Hour,
		Logger:      quiet,
	})
	job.Start(context.Background())

	require.Eventually(t, func() bool {
		return job.Status().Cycles == 1
	}, 2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, job.Stop(ctx))

	o, err := prices.Latest(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, o)
	assert.True(t, o.Price.Equal(decimal.NewFromInt(42)))
}

func TestRandomSource(t *testing.T) {
	a, err := NewRandomSource(DefaultMinPrice, DefaultMaxPrice, 7)
	require.NoError(t, err)
	b, err := NewRandomSource(DefaultMinPrice, DefaultMaxPrice, 7)
	require.NoError(t, err)

	inst := &domain.Instrument{ID: 1, Symbol: "AAA"}
	for i := 0; i < 100; i++ {
		pa, err := a.Quote(context.Background(), inst)
		require.NoError(t, err)
		pb, _ := b.Quote(context.Background(), inst)

		assert.True(t, pa.Equal(pb), "same seed must give same sequence")
		assert.True(t, pa.GreaterThanOrEqual(DefaultMinPrice))
		assert.True(t, pa.LessThan(DefaultMaxPrice))
		assert.LessOrEqual(t, -pa.Exponent(), int32(2))
	}

	_, err = NewRandomSource(DefaultMaxPrice, DefaultMinPrice, 1)
	assert.Error(t, err)
}
