package server

import (
	"encoding/json"
	"net/http"

	"github.com/shubharthaksangharsha/morpheusAI/internal/agent"
	"github.com/shubharthaksangharsha/morpheusAI/internal/permission"
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details.
type ErrorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error codes
const (
	ErrCodeInvalidRequest = "INVALID_REQUEST"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeUnavailable    = "UNAVAILABLE"
	ErrCodeInternalError  = "INTERNAL_ERROR"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeErrorWithDetails(w, status, code, message, nil)
}

// writeErrorWithDetails writes an error response with details.
func writeErrorWithDetails(w http.ResponseWriter, status int, code, message string, details map[string]any) {
	writeJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// writeSuccess writes a success response.
func writeSuccess(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// writeResult writes a worker Result with a status derived from its code.
func writeResult(w http.ResponseWriter, res agent.Result) {
	writeJSON(w, resultStatus(res), res)
}

func resultStatus(res agent.Result) int {
	if res.Success {
		return http.StatusOK
	}
	if agent.Rejected(res) {
		if permission.Reason(res.Error) == permission.ReasonInvalidLineRange {
			return http.StatusBadRequest
		}
		return http.StatusForbidden
	}
	switch res.Error {
	case agent.CodeInvalidRequest, agent.CodeMissingParameter, agent.CodeParseFailed:
		return http.StatusBadRequest
	case agent.CodeNotFound, agent.CodeUnknownTool, agent.CodeNoActivePage:
		return http.StatusNotFound
	case agent.CodeAlreadyExists, agent.CodeNotADirectory:
		return http.StatusConflict
	case agent.CodeMissingCredential:
		return http.StatusUnauthorized
	case agent.CodeUpstream:
		return http.StatusBadGateway
	case agent.CodeBrowserUnavailable:
		return http.StatusServiceUnavailable
	case agent.CodeTimeout:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// decodeJSON decodes the request body into v, answering 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid JSON body")
		return false
	}
	return true
}
