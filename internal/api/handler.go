// Package api provides the HTTP surface of the apontamentos assistant.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rmacedo/apontabot/internal/ai"
	"github.com/rmacedo/apontabot/internal/domain"
	"github.com/rmacedo/apontabot/internal/identity"
	"github.com/rmacedo/apontabot/internal/session"
	"github.com/rmacedo/apontabot/internal/store"
)

// chatTimeout bounds one full question round trip, including both model
// passes.
const chatTimeout = 60 * time.Second

// Handler serves the chat and status endpoints.
type Handler struct {
	loop     *ai.Loop
	sessions *session.Store
	data     *store.Handle
}

// NewHandler creates a Handler with its dependencies.
func NewHandler(loop *ai.Loop, sessions *session.Store, data *store.Handle) *Handler {
	return &Handler{loop: loop, sessions: sessions, data: data}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// ChatRequest is the /chat request body.
type ChatRequest struct {
	Text           string `json:"texto"`
	User           string `json:"usuario"`
	ConversationID string `json:"sessao"`
}

// Chat answers one question: POST /chat {texto, usuario, sessao}.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "corpo inválido: esperado JSON com campo 'texto'")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		Error(w, http.StatusBadRequest, "campo 'texto' é obrigatório")
		return
	}
	if req.ConversationID == "" {
		// Clients without their own session id fall back to the anonymous
		// cookie identity, when the middleware is installed.
		req.ConversationID = identity.ConversationIDFromContext(r.Context())
	}

	ctx, cancel := context.WithTimeout(r.Context(), chatTimeout)
	defer cancel()

	result := h.loop.Process(ctx, req.Text, req.User, req.ConversationID)
	JSON(w, http.StatusOK, resultOrError(result))
}

// Health reports liveness plus session statistics: GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if h.data.Current() == nil {
		status = "degraded"
	}
	JSON(w, http.StatusOK, map[string]any{
		"status":   status,
		"sessions": h.sessions.Stats(),
	})
}

// Root reports snapshot metadata and backend availability: GET /.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"service":    "apontabot",
		"ia_ativa":   h.loop.HasBackend(),
		"carregado":  false,
		"registros":  0,
	}
	if snap := h.data.Current(); snap != nil {
		body["carregado"] = true
		body["registros"] = snap.Len()
		body["carregado_em"] = snap.LoadedAt().UTC().Format(time.RFC3339)
		if from, to, ok := snap.Span(); ok {
			body["periodo"] = map[string]string{
				"inicio": from.Format("02/01/2006"),
				"fim":    to.Format("02/01/2006"),
			}
		}
	}
	JSON(w, http.StatusOK, body)
}

// resultOrError guards against a nil result ever reaching the wire.
func resultOrError(r domain.Result) domain.Result {
	if r.Text == "" && r.Kind == "" {
		return domain.ErrorResult("❌ Erro interno ao processar a pergunta.")
	}
	return r
}
