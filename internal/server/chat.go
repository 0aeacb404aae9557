package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/teemow/auraflow/internal/classify"
	"github.com/teemow/auraflow/internal/logging"
	"github.com/teemow/auraflow/internal/model"
	"github.com/teemow/auraflow/internal/prompt"
)

// Identity headers set by the authenticating proxy in front of the server.
const (
	HeaderUserID       = "X-User-ID"
	HeaderUserEmail    = "X-User-Email"
	HeaderUserName     = "X-User-Name"
	HeaderUserTimezone = "X-User-Timezone"
)

const maxChatBodyBytes = 1 << 20

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message string `json:"message"`
	Model   string `json:"model,omitempty"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
	// ToolResults lists the tools that ran before a turn failed.
	ToolResults any `json:"toolResults,omitempty"`
}

// ModelsResponse is the body of GET /api/models.
type ModelsResponse struct {
	Models  []model.ModelInfo `json:"models"`
	Default string            `json:"default,omitempty"`
}

// UserFromRequest reads the caller's identity from the proxy headers.
func UserFromRequest(r *http.Request) (prompt.UserContext, bool) {
	u := prompt.UserContext{
		ID:       strings.TrimSpace(r.Header.Get(HeaderUserID)),
		Email:    strings.TrimSpace(r.Header.Get(HeaderUserEmail)),
		Name:     strings.TrimSpace(r.Header.Get(HeaderUserName)),
		TimeZone: strings.TrimSpace(r.Header.Get(HeaderUserTimezone)),
	}
	return u, u.ID != ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// ChatHandler serves POST /api/chat.
func (sc *ServerContext) ChatHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed"})
			return
		}
		user, ok := UserFromRequest(r)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "missing " + HeaderUserID + " header"})
			return
		}

		var req ChatRequest
		dec := json.NewDecoder(io.LimitReader(r.Body, maxChatBodyBytes))
		if err := dec.Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body"})
			return
		}
		if strings.TrimSpace(req.Message) == "" {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "message is required"})
			return
		}

		reply, err := sc.HandleMessage(r.Context(), user, req.Message, req.Model)
		if err != nil {
			status := http.StatusInternalServerError
			switch {
			case model.IsGatewayError(err):
				status = http.StatusBadGateway
			case errors.Is(err, ErrShutdown):
				status = http.StatusServiceUnavailable
			}
			sc.logger.Warn("chat turn failed", logging.UserHash(user.ID), logging.Err(err))
			writeJSON(w, status, ErrorResponse{Error: reply.Response, ToolResults: reply.ToolResults})
			return
		}
		writeJSON(w, http.StatusOK, reply)
	})
}

// ModelsHandler serves GET /api/models.
func (sc *ServerContext) ModelsHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed"})
			return
		}
		models, err := sc.models.ListModels(r.Context())
		if err != nil {
			sc.logger.Warn("failed to list models", logging.Err(err))
			writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: classify.ServiceUnavailable})
			return
		}
		resp := ModelsResponse{Models: models}
		if id, err := sc.models.DefaultModel(r.Context()); err == nil {
			resp.Default = id
		}
		writeJSON(w, http.StatusOK, resp)
	})
}
