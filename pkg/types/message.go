package types

import "time"

// Role identifies who authored a message.
type Role string

const (
	RoleUser   Role = "user"
	RoleSystem Role = "system"
	RoleAgent  Role = "agent"
)

// Message is a single immutable entry in a session's message log.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage creates a message stamped with the current time.
func NewMessage(role Role, content string) Message {
	return Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleSystem, RoleAgent:
		return true
	}
	return false
}
