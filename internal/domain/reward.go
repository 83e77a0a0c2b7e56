package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RewardEntry records a grant of Shares units of an instrument to a user.
// Entries are append-only and never mutated.
// Corresponds to reward_entries table in PostgreSQL.
type RewardEntry struct {
	ID           int64           `json:"id"`
	UserID       int64           `json:"userId"`
	InstrumentID int64           `json:"stockId"`
	Shares       decimal.Decimal `json:"shares"`     // > 0
	RewardedAt   time.Time       `json:"rewardedAt"` // assigned on creation
}

// SymbolReward is a reward entry paired with its instrument symbol.
type SymbolReward struct {
	RewardEntry
	Symbol string `json:"stockSymbol"`
}
