package models

import "time"

// EnrollmentCode is a single-use, time-bounded hand-off token for
// interactive device enrollment (mobile/desktop onboarding flow).
type EnrollmentCode struct {
	Code      string    `db:"code" json:"code"`
	NodeID    string    `db:"node_id" json:"node_id"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	IsUsed    bool      `db:"is_used" json:"is_used"`
}

// Valid reports whether the code can still be consumed at time now.
func (e *EnrollmentCode) Valid(now time.Time) bool {
	return !e.IsUsed && now.Before(e.ExpiresAt)
}
