package refresh

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/TejasShirsath/stocky-assignment/internal/domain"
	"github.com/TejasShirsath/stocky-assignment/internal/money"
)

// PriceSource quotes the current price of an instrument.
type PriceSource interface {
	Quote(ctx context.Context, instrument *domain.Instrument) (decimal.Decimal, error)
}

// SourceFunc is a function adapter for PriceSource.
type SourceFunc func(ctx context.Context, instrument *domain.Instrument) (decimal.Decimal, error)

func (f SourceFunc) Quote(ctx context.Context, instrument *domain.Instrument) (decimal.Decimal, error) {
	return f(ctx, instrument)
}

// Default synthetic price range in INR.
var (
	DefaultMinPrice = decimal.NewFromInt(1000)
	DefaultMaxPrice = decimal.NewFromInt(5000)
)

// RandomSource produces synthetic prices uniformly distributed in [lo, hi),
// truncated to two decimals so hi is never reached. Safe for concurrent use.
type RandomSource struct {
	mu   sync.Mutex
	rng  *rand.Rand
	min  decimal.Decimal
	span decimal.Decimal
}

// NewRandomSource creates a source over [lo, hi). A fixed seed gives a
// reproducible sequence.
func NewRandomSource(lo, hi decimal.Decimal, seed uint64) (*RandomSource, error) {
	if lo.IsNegative() || !hi.GreaterThan(lo) {
		return nil, fmt.Errorf("invalid price range [%s, %s)", lo, hi)
	}
	return &RandomSource{
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		min:  lo,
		span: hi.Sub(lo),
	}, nil
}

func (s *RandomSource) Quote(ctx context.Context, _ *domain.Instrument) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}
	s.mu.Lock()
	f := s.rng.Float64()
	s.mu.Unlock()

	price := s.min.Add(s.span.Mul(decimal.NewFromFloat(f)))
	return price.RoundDown(money.Places), nil
}

// StaticSource quotes fixed prices keyed by symbol.
type StaticSource map[string]decimal.Decimal

func (s StaticSource) Quote(_ context.Context, instrument *domain.Instrument) (decimal.Decimal, error) {
	price, ok := s[instrument.Symbol]
	if !ok {
		return decimal.Zero, fmt.Errorf("no static price for %s", instrument.Symbol)
	}
	return price, nil
}
