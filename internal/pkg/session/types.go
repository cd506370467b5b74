// internal/pkg/session/types.go
package session

import "time"

// Data is one live session, keyed in Redis by user id + token jti.
type Data struct {
	JTI            string    `json:"jti"`
	UserID         string    `json:"user_id"`
	Role           string    `json:"role"`
	IPAddress      string    `json:"ip_address,omitempty"`
	UserAgent      string    `json:"user_agent,omitempty"`
	LoginAt        time.Time `json:"login_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}
