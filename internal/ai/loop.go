package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/rmacedo/apontabot/internal/domain"
	"github.com/rmacedo/apontabot/internal/engine"
	"github.com/rmacedo/apontabot/internal/intent"
	"github.com/rmacedo/apontabot/internal/session"
	"github.com/rmacedo/apontabot/internal/store"
)

// historyTurns bounds how much session history is replayed to the model.
const historyTurns = 5

// Loop drives the tool-calling conversation. With no backend configured it
// degrades to the keyword router, which is also the recovery path for every
// backend failure.
type Loop struct {
	backend  Backend
	data     *store.Handle
	engine   *engine.Engine
	router   *intent.Router
	sessions *session.Store
	refYear  int
}

// Option customizes a Loop.
type Option func(*Loop)

// WithBackend sets the model backend. A nil backend means router-only mode.
func WithBackend(b Backend) Option {
	return func(l *Loop) { l.backend = b }
}

// WithReferenceYear sets the year assumed for year-less tool arguments.
func WithReferenceYear(year int) Option {
	return func(l *Loop) { l.refYear = year }
}

// NewLoop wires the loop over its collaborators.
func NewLoop(data *store.Handle, eng *engine.Engine, router *intent.Router, sessions *session.Store, opts ...Option) *Loop {
	l := &Loop{
		data:     data,
		engine:   eng,
		router:   router,
		sessions: sessions,
		refYear:  time.Now().Year(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// HasBackend reports whether a model backend is configured.
func (l *Loop) HasBackend() bool {
	return l.backend != nil
}

// Process answers one user message. conversationID keys the session; an
// empty id skips history entirely.
func (l *Loop) Process(ctx context.Context, message, identity, conversationID string) domain.Result {
	identity = intent.NormalizeIdentity(identity)

	if l.backend == nil {
		result := l.router.Answer(message, identity)
		l.record(conversationID, message, result.Text)
		return result
	}

	result, err := l.converse(ctx, message, identity, conversationID)
	if err != nil {
		slog.Warn("model backend failed, falling back to keyword routing", "error", err)
		result = l.router.Answer(message, identity)
	}
	l.record(conversationID, message, result.Text)
	return result
}

// converse runs the model exchange: first pass, optional tool execution,
// second pass for phrasing. Any error aborts the whole exchange.
func (l *Loop) converse(ctx context.Context, message, identity, conversationID string) (domain.Result, error) {
	messages := []Message{{Role: "system", Content: systemPrompt(l.snapshot())}}
	if conversationID != "" && l.sessions != nil {
		for _, turn := range l.sessions.History(conversationID, historyTurns) {
			messages = append(messages, Message{Role: turn.Role, Content: turn.Content})
		}
	}
	userContent := message
	if identity != "" {
		userContent = fmt.Sprintf("[Usuário: %s] %s", identity, message)
	}
	messages = append(messages, Message{Role: "user", Content: userContent})

	reply, err := l.backend.Complete(ctx, messages)
	if err != nil {
		return domain.Result{}, err
	}

	inv, ok := ParseToolCall(reply)
	if !ok {
		// The model answered directly.
		return domain.Result{Text: reply, Kind: domain.KindChat}, nil
	}

	result, raw := l.execute(inv, identity)
	if raw {
		// Long enumerations go out verbatim so no item is dropped by
		// model summarization.
		return result, nil
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return domain.Result{}, fmt.Errorf("serialize tool result: %w", err)
	}
	messages = append(messages,
		Message{Role: "assistant", Content: reply},
		Message{Role: "user", Content: fmt.Sprintf(
			"RESULTADO DA FERRAMENTA: %s\n\nAgora formate isso de forma amigável e concisa para o usuário.", payload)},
	)

	final, err := l.backend.Complete(ctx, messages)
	if err != nil {
		return domain.Result{}, err
	}
	return domain.Result{Text: final, Kind: result.Kind, Data: result.Data}, nil
}

// execute runs the requested tool. An unknown name is a tool-level error
// result, not a loop failure; it flows back to the model like any other
// result. raw reports whether the result must skip the second pass.
func (l *Loop) execute(inv ToolInvocation, identity string) (result domain.Result, raw bool) {
	t, ok := findTool(inv.Name)
	if !ok {
		slog.Warn("model requested unknown tool", "tool", inv.Name)
		return domain.ErrorResult(fmt.Sprintf("❌ Ferramenta '%s' não encontrada.", inv.Name)), false
	}
	return t.run(l, inv.Arg, identity), t.Raw
}

func (l *Loop) snapshot() *store.Snapshot {
	if l.data == nil {
		return nil
	}
	return l.data.Current()
}

func (l *Loop) record(conversationID, userText, assistantText string) {
	if conversationID == "" || l.sessions == nil {
		return
	}
	l.sessions.Append(conversationID, "user", userText)
	l.sessions.Append(conversationID, "assistant", assistantText)
}
