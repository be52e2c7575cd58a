package event

import "github.com/shubharthaksangharsha/morpheusAI/pkg/types"

// EventType represents the type of event.
type EventType string

const (
	SessionCreated     EventType = "session.created"
	SessionUpdated     EventType = "session.updated"
	SessionDeleted     EventType = "session.deleted"
	MessageAdded       EventType = "message.added"
	RoutedMessageAdded EventType = "routed.added"
	UserControlChanged EventType = "user_control_changed"
	FileChanged        EventType = "file.changed"
	SandboxRejected    EventType = "sandbox.rejected"
)

// SessionData is the payload of session.created, session.updated and
// session.deleted events.
type SessionData struct {
	Info *types.Session `json:"info"`
}

// MessageAddedData is the payload of message.added events.
type MessageAddedData struct {
	SessionID string        `json:"sessionId"`
	Message   types.Message `json:"message"`
}

// RoutedMessageData is the payload of routed.added events.
type RoutedMessageData struct {
	SessionID string              `json:"sessionId"`
	Routed    types.RoutedMessage `json:"routed"`
}

// UserControlData is the payload of user_control_changed events.
type UserControlData struct {
	SessionID string `json:"sessionId"`
	Enabled   bool   `json:"enabled"`
}

// FileChangedData is the payload of file.changed events.
type FileChangedData struct {
	Path string `json:"path"`
	Op   string `json:"op"` // "create" | "write" | "remove" | "rename"
}

// SandboxRejectedData is the payload of sandbox.rejected events.
type SandboxRejectedData struct {
	Worker string `json:"worker"`
	Reason string `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

// SessionID returns the session an event belongs to, or "" for events that
// are not session scoped.
func SessionID(e Event) string {
	switch d := e.Data.(type) {
	case SessionData:
		if d.Info != nil {
			return d.Info.ID
		}
	case MessageAddedData:
		return d.SessionID
	case RoutedMessageData:
		return d.SessionID
	case UserControlData:
		return d.SessionID
	}
	return ""
}
