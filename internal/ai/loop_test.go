package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rmacedo/apontabot/internal/domain"
	"github.com/rmacedo/apontabot/internal/engine"
	"github.com/rmacedo/apontabot/internal/intent"
	"github.com/rmacedo/apontabot/internal/session"
	"github.com/rmacedo/apontabot/internal/store"
)

// fakeBackend replays scripted replies and records every request.
type fakeBackend struct {
	replies []string
	err     error
	calls   [][]Message
}

func (f *fakeBackend) Complete(ctx context.Context, messages []Message) (string, error) {
	f.calls = append(f.calls, messages)
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "", errors.New("fake backend out of replies")
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply, nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newFixture(t *testing.T, backend Backend) (*Loop, *session.Store) {
	t.Helper()
	h := store.NewHandle()
	h.Swap(store.NewSnapshot([]domain.TimeEntry{
		{Subject: "Alice Souza", Date: day(2025, 9, 1), Hours: 9, Contract: "CT-1"},
		{Subject: "Alice Souza", Date: day(2025, 9, 2), Hours: 8, Contract: "CT-1"},
		{Subject: "Bruno Lima", Date: day(2025, 9, 1), Hours: 6, Contract: "CT-2"},
	}, time.Now()))
	eng := engine.New(h)
	router := intent.New(eng, intent.WithReferenceYear(2025))
	sessions := session.NewStore()
	var opts []Option
	if backend != nil {
		opts = append(opts, WithBackend(backend))
	}
	opts = append(opts, WithReferenceYear(2025))
	return NewLoop(h, eng, router, sessions, opts...), sessions
}

func TestParseToolCall(t *testing.T) {
	cases := []struct {
		name     string
		reply    string
		wantName string
		wantArg  string
		wantOK   bool
	}{
		{"simple", "FERRAMENTA: duracao_media_geral()", "duracao_media_geral", "", true},
		{"with arg", "FERRAMENTA: total_horas_usuario(Alice Souza)", "total_horas_usuario", "Alice Souza", true},
		{"quoted arg", `FERRAMENTA: total_horas_usuario("Alice Souza")`, "total_horas_usuario", "Alice Souza", true},
		{"buried in text", "Claro!\nFERRAMENTA: ranking_funcionarios()\nUm momento.", "ranking_funcionarios", "", true},
		{"bare name", "FERRAMENTA: dashboard_executivo", "dashboard_executivo", "", true},
		{"no marker", "A média geral é 7,5h.", "", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			inv, ok := ParseToolCall(tc.reply)
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if inv.Name != tc.wantName || inv.Arg != tc.wantArg {
				t.Errorf("parsed (%q, %q), want (%q, %q)", inv.Name, inv.Arg, tc.wantName, tc.wantArg)
			}
		})
	}
}

func TestProcessDirectReply(t *testing.T) {
	backend := &fakeBackend{replies: []string{"👋 Posso ajudar com seus apontamentos!"}}
	loop, _ := newFixture(t, backend)

	got := loop.Process(context.Background(), "quem é você?", "Alice Souza", "conv-1")
	if got.Kind != domain.KindChat {
		t.Errorf("kind = %q, want %q", got.Kind, domain.KindChat)
	}
	if got.Text != "👋 Posso ajudar com seus apontamentos!" {
		t.Errorf("text = %q", got.Text)
	}
	if len(backend.calls) != 1 {
		t.Fatalf("backend called %d times, want 1", len(backend.calls))
	}
	// The system prompt must embed the data summary and the tool catalog.
	sys := backend.calls[0][0]
	if sys.Role != "system" || !strings.Contains(sys.Content, "FERRAMENTA") ||
		!strings.Contains(sys.Content, "Total de registros: 3") {
		t.Errorf("system prompt missing catalog or data context")
	}
	// Identity is prefixed on the user turn.
	last := backend.calls[0][len(backend.calls[0])-1]
	if !strings.Contains(last.Content, "[Usuário: Alice Souza]") {
		t.Errorf("user turn = %q, want identity prefix", last.Content)
	}
}

func TestProcessToolCallSecondPass(t *testing.T) {
	backend := &fakeBackend{replies: []string{
		"FERRAMENTA: total_horas_usuario(Alice Souza)",
		"⏱️ Alice Souza registrou 17h no total.",
	}}
	loop, _ := newFixture(t, backend)

	got := loop.Process(context.Background(), "quantas horas a alice trabalhou?", "", "conv-1")
	if len(backend.calls) != 2 {
		t.Fatalf("backend called %d times, want 2", len(backend.calls))
	}
	if got.Text != "⏱️ Alice Souza registrou 17h no total." {
		t.Errorf("text = %q, want the second-pass phrasing", got.Text)
	}
	// Kind and data come from the executed tool, not the model.
	if got.Kind != domain.KindTotal {
		t.Errorf("kind = %q, want %q", got.Kind, domain.KindTotal)
	}
	if got.Data["total_horas"] != 17.0 {
		t.Errorf("data = %v, want tool data carried through", got.Data)
	}
	// The second request must carry the serialized tool result.
	second := backend.calls[1]
	last := second[len(second)-1]
	if !strings.Contains(last.Content, "RESULTADO DA FERRAMENTA:") ||
		!strings.Contains(last.Content, `"tipo":"total"`) {
		t.Errorf("second pass content = %q", last.Content)
	}
}

func TestProcessRawToolSkipsSecondPass(t *testing.T) {
	backend := &fakeBackend{replies: []string{"FERRAMENTA: listar_opcoes(contratos)"}}
	loop, _ := newFixture(t, backend)

	got := loop.Process(context.Background(), "listar todos os contratos", "", "conv-1")
	if len(backend.calls) != 1 {
		t.Fatalf("backend called %d times, want 1 (no summarization pass)", len(backend.calls))
	}
	if got.Kind != domain.KindList {
		t.Errorf("kind = %q, want %q", got.Kind, domain.KindList)
	}
	if !strings.Contains(got.Text, "CT-1") || !strings.Contains(got.Text, "CT-2") {
		t.Errorf("raw enumeration must list every item: %q", got.Text)
	}
}

func TestProcessUnknownToolFedBack(t *testing.T) {
	backend := &fakeBackend{replies: []string{
		"FERRAMENTA: funcao_inexistente()",
		"Desculpe, não consegui executar essa consulta.",
	}}
	loop, _ := newFixture(t, backend)

	got := loop.Process(context.Background(), "faça algo estranho", "", "conv-1")
	if len(backend.calls) != 2 {
		t.Fatalf("backend called %d times, want 2 (error fed back)", len(backend.calls))
	}
	second := backend.calls[1]
	last := second[len(second)-1]
	if !strings.Contains(last.Content, "não encontrada") {
		t.Errorf("tool error not fed back: %q", last.Content)
	}
	if got.Text != "Desculpe, não consegui executar essa consulta." {
		t.Errorf("text = %q", got.Text)
	}
}

func TestProcessBackendFailureFallsBack(t *testing.T) {
	backend := &fakeBackend{err: ErrBackendUnavailable}
	loop, _ := newFixture(t, backend)

	got := loop.Process(context.Background(), "qual a média de horas?", "", "conv-1")
	// The answer must equal what the keyword router alone would produce.
	router := intent.New(engine.New(loopHandle(loop)), intent.WithReferenceYear(2025))
	want := router.Answer("qual a média de horas?", "")
	if got.Kind != want.Kind || got.Text != want.Text {
		t.Errorf("fallback = %q/%q, want router answer %q/%q", got.Kind, got.Text, want.Kind, want.Text)
	}
}

func TestProcessNoBackendUsesRouter(t *testing.T) {
	loop, sessions := newFixture(t, nil)
	got := loop.Process(context.Background(), "ranking de horas", "", "conv-9")
	if got.Kind != domain.KindRanking {
		t.Errorf("kind = %q, want router ranking", got.Kind)
	}
	if hist := sessions.History("conv-9", 0); len(hist) != 2 {
		t.Errorf("history length = %d, want user+assistant turns", len(hist))
	}
}

func TestProcessReplaysRecentHistory(t *testing.T) {
	backend := &fakeBackend{replies: []string{"ok", "ok", "ok", "ok", "ok"}}
	loop, sessions := newFixture(t, backend)
	for i := 0; i < 4; i++ {
		loop.Process(context.Background(), "pergunta", "", "conv-1")
	}
	// 4 exchanges = 8 turns recorded; only the last 5 are replayed.
	if hist := sessions.History("conv-1", 0); len(hist) != 8 {
		t.Fatalf("history length = %d, want 8", len(hist))
	}
	loop.Process(context.Background(), "mais uma", "", "conv-1")
	lastCall := backend.calls[len(backend.calls)-1]
	// system + 5 history turns + new user turn.
	if len(lastCall) != 7 {
		t.Errorf("request carried %d messages, want 7", len(lastCall))
	}
}

func loopHandle(l *Loop) *store.Handle {
	return l.data
}
