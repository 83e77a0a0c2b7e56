package lookup

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/TejasShirsath/stocky-assignment/internal/domain"
)

// ObservationAsOf returns the observation in effect at target: the greatest
// RecordedAt <= target, ties broken by the greatest ID.
// obs must be ordered by (RecordedAt, ID) ascending, as PriceStore.ListUpTo returns it.
// Returns nil if every observation is later than target or obs is empty.
func ObservationAsOf(target time.Time, obs []*domain.PriceObservation) *domain.PriceObservation {
	// First index strictly after target; the one before it is the answer.
	i := sort.Search(len(obs), func(i int) bool {
		return obs[i].RecordedAt.After(target)
	})
	if i == 0 {
		return nil
	}
	return obs[i-1]
}

// PriceAsOf returns the price in effect at target, or zero if none.
// Unlike a "first available" fallback, a price recorded after target is never used.
func PriceAsOf(target time.Time, obs []*domain.PriceObservation) decimal.Decimal {
	if o := ObservationAsOf(target, obs); o != nil {
		return o.Price
	}
	return decimal.Zero
}

// SortObservations orders obs by (RecordedAt, ID) ascending in place.
func SortObservations(obs []*domain.PriceObservation) {
	sort.Slice(obs, func(i, j int) bool {
		if !obs[i].RecordedAt.Equal(obs[j].RecordedAt) {
			return obs[i].RecordedAt.Before(obs[j].RecordedAt)
		}
		return obs[i].ID < obs[j].ID
	})
}

// Latest returns the newest observation in an unordered slice, or nil.
func Latest(obs []*domain.PriceObservation) *domain.PriceObservation {
	var latest *domain.PriceObservation
	for _, o := range obs {
		if o.Newer(latest) {
			latest = o
		}
	}
	return latest
}
