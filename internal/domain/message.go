package domain

import "time"

// Role identifies the author of a conversation message.
type Role string

const (
	// RoleUser is a student message.
	RoleUser Role = "user"
	// RoleAssistant is an assistant message.
	RoleAssistant Role = "assistant"
)

// Message is one entry in the append-only per-(course, user) conversation
// log. Insertion order is chronological order; history is read back as a
// suffix window of the most recent N messages.
type Message struct {
	Role       Role        `json:"role"`
	Content    string      `json:"content"`
	Timestamp  time.Time   `json:"timestamp"`
	References []Reference `json:"references,omitempty"`
}
