// Package types provides the core data types shared by the router, the
// capability workers and the HTTP API.
package types

import "time"

// Session is a conversation's process-lifetime state.
type Session struct {
	ID             string          `json:"id"`
	UserID         string          `json:"userId,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	LastActive     time.Time       `json:"lastActive"`
	Messages       []Message       `json:"messages"`
	RoutedMessages []RoutedMessage `json:"routedMessages"`
	Metadata       SessionMetadata `json:"metadata"`
}

// SessionMetadata holds UI-facing flags for a session.
type SessionMetadata struct {
	UserControlMode    bool   `json:"userControlMode"`
	ActiveTab          string `json:"activeTab,omitempty"`
	ActiveAgent        string `json:"activeAgent,omitempty"`
	CustomInstructions string `json:"customInstructions,omitempty"`
}

// SessionPatch lists the fields of a session that may be updated.
// Nil fields are left untouched.
type SessionPatch struct {
	UserID             *string `json:"userId,omitempty"`
	UserControlMode    *bool   `json:"userControlMode,omitempty"`
	ActiveTab          *string `json:"activeTab,omitempty"`
	ActiveAgent        *string `json:"activeAgent,omitempty"`
	CustomInstructions *string `json:"customInstructions,omitempty"`
}

// RoutedMessage is the audit record of one routing decision.
// RoutedAgent is empty when the router answered directly.
type RoutedMessage struct {
	ID              string       `json:"id"`
	OriginalMessage string       `json:"originalMessage"`
	RoutedAgent     string       `json:"routedAgent"`
	Confidence      float64      `json:"confidence"`
	Source          string       `json:"source"` // "directive" | "llm" | "fallback" | "none"
	Response        *AgentResult `json:"response,omitempty"`
	Timestamp       time.Time    `json:"timestamp"`
}

// AgentResult is the serializable outcome of a worker call.
type AgentResult struct {
	Content string         `json:"content"`
	Success bool           `json:"success"`
	Error   string         `json:"error,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// Clone returns a deep copy of the session's logs.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Messages = append([]Message(nil), s.Messages...)
	out.RoutedMessages = append([]RoutedMessage(nil), s.RoutedMessages...)
	if out.Messages == nil {
		out.Messages = []Message{}
	}
	if out.RoutedMessages == nil {
		out.RoutedMessages = []RoutedMessage{}
	}
	return &out
}
