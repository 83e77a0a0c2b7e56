package domain

// Instrument is a tradable symbol rewards and prices are recorded against.
// Reference data, seeded out of band.
// Corresponds to instruments table in PostgreSQL.
type Instrument struct {
	ID     int64  `json:"id"`
	Symbol string `json:"stockSymbol"` // unique, e.g. RELIANCE
}
