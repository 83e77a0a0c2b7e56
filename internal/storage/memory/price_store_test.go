package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/TejasShirsath/stocky-assignment/internal/storage"
)

var day1 = time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)

func TestPriceStore_AppendAndLatest(t *testing.T) {
	store := NewPriceStore(nil).WithClock(func() time.Time { return day1.Add(72 * time.Hour) })
	ctx := context.Background()

	id1, err := store.AppendObservation(ctx, 1, decimal.NewFromInt(100), day1)
	if err != nil {
		t.Fatalf("AppendObservation failed: %v", err)
	}
	id2, _ := store.AppendObservation(ctx, 1, decimal.NewFromInt(120), day1.Add(24*time.Hour))
	if id2 <= id1 {
		t.Errorf("Expected increasing IDs, got %d then %d", id1, id2)
	}

	latest, err := store.Latest(ctx, 1)
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if latest == nil || !latest.Price.Equal(decimal.NewFromInt(120)) {
		t.Errorf("Expected latest price 120, got %+v", latest)
	}
}

func TestPriceStore_LatestAsOf(t *testing.T) {
	store := NewPriceStore(nil)
	ctx := context.Background()

	store.AppendObservation(ctx, 1, decimal.NewFromInt(100), day1)
	store.AppendObservation(ctx, 1, decimal.NewFromInt(120), day1.Add(24*time.Hour))

	o, _ := store.LatestAsOf(ctx, 1, day1.Add(23*time.Hour))
	if o == nil || !o.Price.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected 100, got %+v", o)
	}

	o, _ = store.LatestAsOf(ctx, 1, day1.Add(-time.Second))
	if o != nil {
		t.Errorf("Expected none before first observation, got %+v", o)
	}

	o, _ = store.LatestAsOf(ctx, 2, day1.Add(48*time.Hour))
	if o != nil {
		t.Errorf("Expected none for unknown instrument, got %+v", o)
	}
}

func TestPriceStore_TieBreakLastInserted(t *testing.T) {
	store := NewPriceStore(nil)
	ctx := context.Background()

	store.AppendObservation(ctx, 1, decimal.NewFromInt(100), day1)
	lastID, _ := store.AppendObservation(ctx, 1, decimal.NewFromInt(101), day1)

	o, _ := store.LatestAsOf(ctx, 1, day1)
	if o == nil || o.ID != lastID {
		t.Errorf("Expected last inserted observation %d, got %+v", lastID, o)
	}
}

func TestPriceStore_OutOfOrderAppends(t *testing.T) {
	store := NewPriceStore(nil)
	ctx := context.Background()

	store.AppendObservation(ctx, 1, decimal.NewFromInt(300), day1.Add(3*time.Hour))
	store.AppendObservation(ctx, 1, decimal.NewFromInt(100), day1.Add(1*time.Hour))
	store.AppendObservation(ctx, 1, decimal.NewFromInt(200), day1.Add(2*time.Hour))

	series, _ := store.ListUpTo(ctx, []int64{1}, day1.Add(24*time.Hour))
	got := series[1]
	if len(got) != 3 {
		t.Fatalf("Expected 3 observations, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].RecordedAt.Before(got[i-1].RecordedAt) {
			t.Errorf("Results not ordered: %v < %v", got[i].RecordedAt, got[i-1].RecordedAt)
		}
	}

	o, _ := store.LatestAsOf(ctx, 1, day1.Add(150*time.Minute))
	if o == nil || !o.Price.Equal(decimal.NewFromInt(200)) {
		t.Errorf("Expected 200, got %+v", o)
	}
}

func TestPriceStore_ListUpToCutoff(t *testing.T) {
	store := NewPriceStore(nil)
	ctx := context.Background()

	store.AppendObservation(ctx, 1, decimal.NewFromInt(100), day1)
	store.AppendObservation(ctx, 1, decimal.NewFromInt(120), day1.Add(24*time.Hour))
	store.AppendObservation(ctx, 2, decimal.NewFromInt(50), day1)

	series, err := store.ListUpTo(ctx, []int64{1, 2, 3}, day1.Add(time.Hour))
	if err != nil {
		t.Fatalf("ListUpTo failed: %v", err)
	}
	if len(series[1]) != 1 || len(series[2]) != 1 || len(series[3]) != 0 {
		t.Errorf("Unexpected ListUpTo result sizes: %d %d %d", len(series[1]), len(series[2]), len(series[3]))
	}
}

func TestPriceStore_LatestBatch(t *testing.T) {
	store := NewPriceStore(nil)
	ctx := context.Background()

	store.AppendObservation(ctx, 1, decimal.NewFromInt(100), day1)
	store.AppendObservation(ctx, 1, decimal.NewFromInt(120), day1.Add(time.Hour))
	store.AppendObservation(ctx, 2, decimal.NewFromInt(50), day1)

	latest, err := store.LatestBatch(ctx, []int64{1, 2, 3}, day1.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("LatestBatch failed: %v", err)
	}
	if len(latest) != 2 {
		t.Fatalf("Expected 2 instruments priced, got %d", len(latest))
	}
	if !latest[1].Price.Equal(decimal.NewFromInt(120)) || !latest[2].Price.Equal(decimal.NewFromInt(50)) {
		t.Errorf("Unexpected latest prices: %+v %+v", latest[1], latest[2])
	}
}

func TestPriceStore_InvalidInput(t *testing.T) {
	instruments := NewInstrumentStore()
	store := NewPriceStore(instruments)
	ctx := context.Background()

	_, err := store.AppendObservation(ctx, 1, decimal.NewFromInt(-1), day1)
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for negative price, got %v", err)
	}

	_, err = store.AppendObservation(ctx, 1, decimal.NewFromInt(10), day1)
	if !errors.Is(err, storage.ErrUnknownInstrument) {
		t.Errorf("Expected ErrUnknownInstrument, got %v", err)
	}

	inst, _ := instruments.Upsert(ctx, "AAA")
	if _, err := store.AppendObservation(ctx, inst.ID, decimal.Zero, day1); err != nil {
		t.Errorf("Zero price should be accepted, got %v", err)
	}
}
