package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shubharthaksangharsha/morpheusAI/internal/event"
	"github.com/shubharthaksangharsha/morpheusAI/internal/logging"
)

// StreamEvent is the data payload of one SSE frame.
type StreamEvent struct {
	Type       event.EventType `json:"type"`
	Properties any             `json:"properties"`
}

const (
	// SSEHeartbeatInterval is the interval for SSE heartbeats.
	SSEHeartbeatInterval = 30 * time.Second
)

// eventStream writes numbered SSE frames. Each frame carries the domain
// event type as its SSE event name and a StreamEvent as data.
type eventStream struct {
	w   http.ResponseWriter
	rc  *http.ResponseController
	seq uint64
}

func newEventStream(w http.ResponseWriter) *eventStream {
	return &eventStream{w: w, rc: http.NewResponseController(w)}
}

func (s *eventStream) send(t event.EventType, props any) error {
	data, err := json.Marshal(StreamEvent{Type: t, Properties: props})
	if err != nil {
		return err
	}
	s.seq++
	if _, err := fmt.Fprintf(s.w, "id: %d\nevent: %s\ndata: %s\n\n", s.seq, t, data); err != nil {
		return err
	}
	return s.flush()
}

func (s *eventStream) heartbeat() error {
	if _, err := fmt.Fprint(s.w, ": heartbeat\n\n"); err != nil {
		return err
	}
	return s.flush()
}

// flush goes through the ResponseController so middleware wrappers are
// unwrapped, then falls back to the writer's own Flusher.
func (s *eventStream) flush() error {
	if err := s.rc.Flush(); err != nil {
		f, ok := s.w.(http.Flusher)
		if !ok {
			return err
		}
		f.Flush()
	}
	return nil
}

// streamFilter selects the events one client asked for.
type streamFilter struct {
	sessionID string
	types     map[event.EventType]bool
}

// parseFilter reads ?session=<id> and ?types=a,b from the query.
func parseFilter(r *http.Request) streamFilter {
	q := r.URL.Query()
	f := streamFilter{sessionID: q.Get("session")}
	for _, t := range strings.Split(q.Get("types"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			if f.types == nil {
				f.types = make(map[event.EventType]bool)
			}
			f.types[event.EventType(t)] = true
		}
	}
	return f
}

// match reports whether env passes the filter. Session-agnostic events
// (file changes, sandbox rejections) pass any session filter.
func (f streamFilter) match(env event.Envelope) bool {
	if f.types != nil && !f.types[env.Type] {
		return false
	}
	if f.sessionID == "" {
		return true
	}
	return env.SessionID == "" || env.SessionID == f.sessionID
}

// events handles GET /api/event. Events come from the bus's encoded
// stream, so payloads are forwarded without decoding.
func (s *Server) events(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, "streaming not supported")
		return
	}
	filter := parseFilter(r)

	var queue <-chan event.Envelope
	if s.bus != nil {
		q, err := s.bus.Stream(r.Context())
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, err.Error())
			return
		}
		queue = q
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	stream := newEventStream(w)
	if err := stream.send("server.connected", map[string]any{}); err != nil {
		return
	}

	ticker := time.NewTicker(SSEHeartbeatInterval)
	defer ticker.Stop()

	for {
		var err error
		select {
		case <-r.Context().Done():
			return
		case env, ok := <-queue:
			if !ok {
				logging.Debug().Str("sessionID", filter.sessionID).Msg("event stream closed")
				return
			}
			if filter.match(env) {
				err = stream.send(env.Type, env.Data)
			}
		case <-ticker.C:
			err = stream.heartbeat()
		}
		if err != nil {
			return
		}
	}
}
