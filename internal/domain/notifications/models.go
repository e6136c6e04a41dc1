package notifications

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("notification not found")

type Notification struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	ReadAt    *time.Time `json:"readAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

type Message struct {
	Type  string
	Title string
	Body  string
}

// Recipient is what the email copy needs to know about a user and their
// tenant. Email is empty for inactive or unknown users.
type Recipient struct {
	Email        string
	EmailEnabled bool
	From         string
}
