package domain

import "time"

// User is a reward recipient. Immutable once registered.
// Corresponds to users table in PostgreSQL.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"` // unique
	CreatedAt time.Time `json:"createdAt"`
}
