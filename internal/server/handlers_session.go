package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/shubharthaksangharsha/morpheusAI/internal/agent"
	"github.com/shubharthaksangharsha/morpheusAI/internal/logging"
	"github.com/shubharthaksangharsha/morpheusAI/internal/router"
	"github.com/shubharthaksangharsha/morpheusAI/internal/session"
	"github.com/shubharthaksangharsha/morpheusAI/pkg/types"
)

// CreateSessionRequest represents the request body for creating a session.
type CreateSessionRequest struct {
	UserID string `json:"userId,omitempty"`
}

// SendMessageRequest represents the request body for posting a message.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// SendMessageResponse is the outcome of a routed message.
type SendMessageResponse struct {
	Message types.Message       `json:"message"`
	Result  agent.Result        `json:"result"`
	Routed  types.RoutedMessage `json:"routed"`
}

// UserControlRequest represents the request body for toggling user control.
type UserControlRequest struct {
	Enabled bool `json:"enabled"`
}

// health handles GET /api/health
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.store.Count(),
		"agents":   s.registry.Count(),
	})
}

// listSessions handles GET /api/sessions
func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.store.List(r.URL.Query().Get("userId"))

	// Ensure we return an empty array [] instead of null
	if sessions == nil {
		sessions = []*types.Session{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

// createSession handles POST /api/sessions. An empty body is allowed.
func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusCreated, s.store.Create(req.UserID))
}

// getSession handles GET /api/sessions/{sessionID}
func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.store.Get(chi.URLParam(r, "sessionID"))
	if !ok {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "Session not found")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// updateSession handles PATCH /api/sessions/{sessionID}
func (s *Server) updateSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var patch types.SessionPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	if patch.UserControlMode != nil {
		// Routed through SetUserControl so that rooms are notified.
		if !s.store.SetUserControl(sessionID, *patch.UserControlMode) {
			writeError(w, http.StatusNotFound, ErrCodeNotFound, "Session not found")
			return
		}
		patch.UserControlMode = nil
	}
	if !s.store.Update(sessionID, patch) {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "Session not found")
		return
	}

	sess, _ := s.store.Get(sessionID)
	writeJSON(w, http.StatusOK, sess)
}

// deleteSession handles DELETE /api/sessions/{sessionID}
func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.store.Delete(chi.URLParam(r, "sessionID")) {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "Session not found")
		return
	}
	writeSuccess(w)
}

// getMessages handles GET /api/sessions/{sessionID}/messages
func (s *Server) getMessages(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	msgs, ok := s.store.GetMessages(chi.URLParam(r, "sessionID"), limit)
	if !ok {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "Session not found")
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

// sendMessage handles POST /api/sessions/{sessionID}/messages. The agent's
// reply is pushed to the session's websocket room.
func (s *Server) sendMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req SendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	out, err := s.supervisor.Dispatch(r.Context(), router.Request{
		SessionID: sessionID,
		Message:   req.Content,
	})
	switch {
	case errors.Is(err, session.ErrNotFound):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "Session not found")
		return
	case errors.Is(err, router.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "content is required")
		return
	case err != nil:
		logging.Error().Err(err).Str("sessionID", sessionID).Msg("dispatch failed")
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}

	reply := types.Message{
		Role:      types.RoleAgent,
		Content:   out.Result.Content,
		Timestamp: out.Routed.Timestamp,
	}
	s.hub.Broadcast(sessionID, WSNewMessage, reply)

	writeJSON(w, http.StatusOK, SendMessageResponse{
		Message: reply,
		Result:  out.Result,
		Routed:  out.Routed,
	})
}

// getRoutedMessages handles GET /api/sessions/{sessionID}/routed
func (s *Server) getRoutedMessages(w http.ResponseWriter, r *http.Request) {
	routed, ok := s.store.GetRoutedMessages(chi.URLParam(r, "sessionID"))
	if !ok {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "Session not found")
		return
	}
	writeJSON(w, http.StatusOK, routed)
}

// setUserControl handles POST /api/sessions/{sessionID}/user-control
func (s *Server) setUserControl(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req UserControlRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !s.store.SetUserControl(sessionID, req.Enabled) {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "Session not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessionId": sessionID, "enabled": req.Enabled})
}
