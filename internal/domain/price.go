package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceObservation is one timestamped price sample for an instrument.
// Observations are append-only. Several may share a RecordedAt; the larger ID
// was inserted later and wins "most recent" lookups.
// Corresponds to price_observations table (PostgreSQL or ClickHouse).
type PriceObservation struct {
	ID           int64           `json:"id"`
	InstrumentID int64           `json:"stockId"`
	Price        decimal.Decimal `json:"priceInr"` // local currency, >= 0
	RecordedAt   time.Time       `json:"recordedAt"`
}

// Newer reports whether o supersedes p in an as-of ordering.
func (o *PriceObservation) Newer(p *PriceObservation) bool {
	if p == nil {
		return true
	}
	if !o.RecordedAt.Equal(p.RecordedAt) {
		return o.RecordedAt.After(p.RecordedAt)
	}
	return o.ID > p.ID
}
