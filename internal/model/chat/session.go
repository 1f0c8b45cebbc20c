package chat

import "time"

// Session captures a transient anonymous conversation bound to one browser session.
type Session struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"createdAt"`
	LastActive time.Time `json:"lastActive"`
}
