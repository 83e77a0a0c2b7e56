package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TejasShirsath/stocky-assignment/internal/storage"
)

func TestPriceStore_AsOfAndBatch(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	instruments := NewInstrumentStore(pool)
	store := NewPriceStore(pool)
	ctx := context.Background()

	aaa, err := instruments.Upsert(ctx, "AAA")
	require.NoError(t, err)
	bbb, err := instruments.Upsert(ctx, "BBB")
	require.NoError(t, err)

	day1 := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)

	_, err = store.AppendObservation(ctx, aaa.ID, decimal.RequireFromString("100.5"), day1)
	require.NoError(t, err)
	tieID, err := store.AppendObservation(ctx, aaa.ID, decimal.RequireFromString("101"), day1)
	require.NoError(t, err)
	_, err = store.AppendObservation(ctx, aaa.ID, decimal.RequireFromString("120"), day2)
	require.NoError(t, err)
	_, err = store.AppendObservation(ctx, bbb.ID, decimal.RequireFromString("7.25"), day2)
	require.NoError(t, err)

	o, err := store.LatestAsOf(ctx, aaa.ID, day1.Add(time.Hour))
	require.NoError(t, err)
	require.NotNil(t, o)
	assert.Equal(t, tieID, o.ID)

	none, err := store.LatestAsOf(ctx, bbb.ID, day1)
	require.NoError(t, err)
	assert.Nil(t, none)

	latest, err := store.LatestBatch(ctx, []int64{aaa.ID, bbb.ID}, day2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.True(t, latest[aaa.ID].Price.Equal(decimal.NewFromInt(120)))
	assert.True(t, latest[bbb.ID].Price.Equal(decimal.RequireFromString("7.25")))

	series, err := store.ListUpTo(ctx, []int64{aaa.ID, bbb.ID}, day1)
	require.NoError(t, err)
	require.Len(t, series[aaa.ID], 2)
	assert.Empty(t, series[bbb.ID])
	assert.Less(t, series[aaa.ID][0].ID, series[aaa.ID][1].ID)
}

func TestPriceStore_Rejections(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPriceStore(pool)
	ctx := context.Background()

	_, err := store.AppendObservation(ctx, 1, decimal.NewFromInt(-1), time.Now())
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	_, err = store.AppendObservation(ctx, 999, decimal.NewFromInt(10), time.Now())
	assert.ErrorIs(t, err, storage.ErrUnknownInstrument)
}
