package domain

import "github.com/shopspring/decimal"

// DailyValue is the local-currency value of the rewards granted on one calendar day.
type DailyValue struct {
	Date       string          `json:"date"` // YYYY-MM-DD, local time
	TotalValue decimal.Decimal `json:"totalINRValue"`
}

// SymbolShares is a share total for a single instrument.
type SymbolShares struct {
	Symbol      string          `json:"stockSymbol"`
	TotalShares decimal.Decimal `json:"totalShares"`
}

// Stats combines today's reward totals with the current portfolio value.
type Stats struct {
	SharesRewardedToday   []SymbolShares  `json:"totalSharesToday"`
	CurrentPortfolioValue decimal.Decimal `json:"currentInrValue"`
}

// Holding is the position in one instrument valued at its latest price.
type Holding struct {
	Symbol          string          `json:"stockSymbol"`
	TotalShares     decimal.Decimal `json:"totalShares"`
	CurrentPriceInr decimal.Decimal `json:"currentPriceInr"`
	CurrentValueInr decimal.Decimal `json:"currentValueInr"`
}

// Portfolio is a per-instrument snapshot of everything a user was ever rewarded.
type Portfolio struct {
	Holdings            []Holding `json:"portfolio"`
	TotalPortfolioValue string    `json:"totalPortfolioValue"` // fixed two decimals
}
