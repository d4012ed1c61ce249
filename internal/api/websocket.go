package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/rmacedo/apontabot/internal/ai"
	"github.com/rmacedo/apontabot/internal/domain"
)

// WebSocketHandler runs chat conversations over a websocket: one inbound
// ChatRequest per text message, one Result per reply.
type WebSocketHandler struct {
	loop          *ai.Loop
	allowedOrigin string
}

// NewWebSocketHandler creates the websocket chat endpoint.
func NewWebSocketHandler(loop *ai.Loop, allowedOrigin string) *WebSocketHandler {
	return &WebSocketHandler{loop: loop, allowedOrigin: allowedOrigin}
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "" || h.allowedOrigin == "*" {
		return true
	}
	if origin == h.allowedOrigin {
		return true
	}
	slog.Warn("websocket origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}

// ServeHTTP upgrades and serves the chat loop until the client disconnects.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("failed to accept websocket", "error", err)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "chat ended"); closeErr != nil {
			slog.Debug("failed to close websocket", "error", closeErr)
		}
	}()

	slog.Info("websocket chat connected", "ip", r.RemoteAddr)
	ctx := r.Context()

	for {
		typ, data, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
				slog.Debug("websocket read failed", "error", err)
			}
			return
		}
		if typ != websocket.MessageText {
			continue
		}

		var req ChatRequest
		if err := json.Unmarshal(data, &req); err != nil || req.Text == "" {
			if writeErr := h.write(ctx, ws, domain.ErrorResult("❌ Mensagem inválida: esperado JSON com campo 'texto'.")); writeErr != nil {
				return
			}
			continue
		}

		answerCtx, cancel := context.WithTimeout(ctx, chatTimeout)
		result := h.loop.Process(answerCtx, req.Text, req.User, req.ConversationID)
		cancel()

		if err := h.write(ctx, ws, resultOrError(result)); err != nil {
			slog.Debug("websocket write failed", "error", err)
			return
		}
	}
}

func (h *WebSocketHandler) write(ctx context.Context, ws *websocket.Conn, result domain.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return ws.Write(writeCtx, websocket.MessageText, data)
}
