package web

// errors.go provides unified error response handling for the web layer.
//
// Every error is logged with its technical detail and request ID, then
// returned as the mapped user message in the format the client expects:
// a datastar patch for stream requests, JSON for API clients, or an HTML
// page otherwise.

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/JonMunkholm/gridview/internal/core"
	"github.com/JonMunkholm/gridview/internal/logging"
	"github.com/JonMunkholm/gridview/internal/web/templates"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes the mapped user message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	switch {
	case isDatastar(r):
		respondErrorPatch(w, r, userMsg)
	case wantsJSON(r):
		respondErrorJSON(w, userMsg, statusCode)
	default:
		s.respondErrorHTML(w, r, userMsg, statusCode)
	}
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// respondErrorHTML renders the error inside the page layout.
func (s *Server) respondErrorHTML(w http.ResponseWriter, r *http.Request, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	page := templates.Layout("Error", s.nav(""), templates.ErrorAlert(msg.Message, msg.Action, msg.Code))
	if err := page.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render error page", "error", err)
	}
}

// respondErrorPatch replaces the table region of a streaming page.
func respondErrorPatch(w http.ResponseWriter, r *http.Request, msg core.UserMessage) {
	sse := datastar.NewSSE(w, r)
	_ = sse.PatchElementTempl(templates.ErrorRegion(msg.Message, msg.Action, msg.Code))
}

// isDatastar checks if the request comes from the datastar client.
func isDatastar(r *http.Request) bool {
	return r.Header.Get("Datastar-Request") == "true"
}

// wantsJSON checks if the client prefers JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	// API routes default to JSON
	return strings.HasPrefix(r.URL.Path, "/api/")
}
