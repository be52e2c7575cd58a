package session

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shubharthaksangharsha/morpheusAI/internal/event"
	"github.com/shubharthaksangharsha/morpheusAI/pkg/types"
)

// ErrNotFound is returned by callers that need an error for a missing
// session.
var ErrNotFound = errors.New("session not found")

// Store holds all sessions of the process.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*types.Session

	bus   *event.Bus
	now   func() time.Time
	newID func() string
}

// Option configures a Store.
type Option func(*Store)

// WithBus publishes store events on b.
func WithBus(b *event.Bus) Option {
	return func(s *Store) { s.bus = b }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		sessions: make(map[string]*types.Session),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create starts a new session. userID may be empty.
func (s *Store) Create(userID string) *types.Session {
	now := s.now()
	sess := &types.Session{
		ID:             s.newID(),
		UserID:         userID,
		CreatedAt:      now,
		LastActive:     now,
		Messages:       []types.Message{},
		RoutedMessages: []types.RoutedMessage{},
		Metadata:       types.SessionMetadata{UserControlMode: false},
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	snapshot := sess.Clone()
	s.mu.Unlock()

	s.publish(event.SessionCreated, event.SessionData{Info: snapshot})
	return snapshot.Clone()
}

// Get returns a copy of the session.
func (s *Store) Get(id string) (*types.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	return sess.Clone(), true
}

// Update applies the non-nil fields of patch.
func (s *Store) Update(id string, patch types.SessionPatch) bool {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	if patch.UserID != nil {
		sess.UserID = *patch.UserID
	}
	if patch.UserControlMode != nil {
		sess.Metadata.UserControlMode = *patch.UserControlMode
	}
	if patch.ActiveTab != nil {
		sess.Metadata.ActiveTab = *patch.ActiveTab
	}
	if patch.ActiveAgent != nil {
		sess.Metadata.ActiveAgent = *patch.ActiveAgent
	}
	if patch.CustomInstructions != nil {
		sess.Metadata.CustomInstructions = *patch.CustomInstructions
	}
	sess.LastActive = s.now()
	snapshot := sess.Clone()
	s.mu.Unlock()

	s.publish(event.SessionUpdated, event.SessionData{Info: snapshot})
	return true
}

// SetUserControl toggles the session's user control mode.
func (s *Store) SetUserControl(id string, enabled bool) bool {
	if !s.Update(id, types.SessionPatch{UserControlMode: &enabled}) {
		return false
	}
	s.publish(event.UserControlChanged, event.UserControlData{SessionID: id, Enabled: enabled})
	return true
}

// Delete removes the session.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	if ok {
		s.publish(event.SessionDeleted, event.SessionData{Info: sess})
	}
	return ok
}

// List returns copies of all sessions, or only those owned by userID when
// it is non-empty, oldest first.
func (s *Store) List(userID string) []*types.Session {
	s.mu.RLock()
	out := make([]*types.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		if userID == "" || sess.UserID == userID {
			out = append(out, sess.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// AddMessage appends msg to the session's log. A zero timestamp is set to
// now; unknown roles are refused.
func (s *Store) AddMessage(id string, msg types.Message) bool {
	if !msg.Role.Valid() {
		return false
	}

	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	now := s.now()
	if msg.Timestamp.IsZero() {
		msg.Timestamp = now
	}
	sess.Messages = append(sess.Messages, msg)
	sess.LastActive = now
	s.mu.Unlock()

	s.publish(event.MessageAdded, event.MessageAddedData{SessionID: id, Message: msg})
	return true
}

// GetMessages returns a copy of the session's log. With limit > 0 only the
// most recent limit messages are returned, in their original order.
func (s *Store) GetMessages(id string, limit int) ([]types.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	msgs := sess.Messages
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return append([]types.Message{}, msgs...), true
}

// AddRoutedMessage appends a routing audit record.
func (s *Store) AddRoutedMessage(id string, rm types.RoutedMessage) bool {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	now := s.now()
	if rm.Timestamp.IsZero() {
		rm.Timestamp = now
	}
	sess.RoutedMessages = append(sess.RoutedMessages, rm)
	sess.LastActive = now
	s.mu.Unlock()

	s.publish(event.RoutedMessageAdded, event.RoutedMessageData{SessionID: id, Routed: rm})
	return true
}

// GetRoutedMessages returns a copy of the routing audit log.
func (s *Store) GetRoutedMessages(id string) ([]types.RoutedMessage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	return append([]types.RoutedMessage{}, sess.RoutedMessages...), true
}

// Count returns the number of live sessions.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// publish delivers synchronously, after the store lock is released, so
// direct subscribers observe a session's events in mutation order.
func (s *Store) publish(t event.EventType, data any) {
	if s.bus == nil {
		return
	}
	s.bus.PublishSync(event.Event{Type: t, Data: data})
}
