package access

import "time"

// Session captures the server-side state behind a client's session cookie.
type Session struct {
	Token         string    `json:"-"`
	Authenticated bool      `json:"authenticated"`
	CreatedAt     time.Time `json:"createdAt"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

// Expired reports whether the session lifetime has elapsed at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Active reports whether the session still grants private access at now.
func (s Session) Active(now time.Time) bool {
	return s.Authenticated && !s.Expired(now)
}
