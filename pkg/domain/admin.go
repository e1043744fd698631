package domain

import "time"

// AdminSession is an authenticated operator session.
type AdminSession struct {
	// Token is the bearer token presented on every dashboard request.
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at the given time.
// A zero ExpiresAt never expires.
func (s AdminSession) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
