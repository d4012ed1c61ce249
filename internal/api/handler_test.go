package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rmacedo/apontabot/internal/ai"
	"github.com/rmacedo/apontabot/internal/domain"
	"github.com/rmacedo/apontabot/internal/engine"
	"github.com/rmacedo/apontabot/internal/intent"
	"github.com/rmacedo/apontabot/internal/session"
	"github.com/rmacedo/apontabot/internal/store"
)

func newTestHandler(t *testing.T, loaded bool) *Handler {
	t.Helper()
	h := store.NewHandle()
	if loaded {
		h.Swap(store.NewSnapshot([]domain.TimeEntry{
			{Subject: "Alice Souza", Date: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), Hours: 8},
			{Subject: "Bruno Lima", Date: time.Date(2025, 9, 2, 0, 0, 0, 0, time.UTC), Hours: 6},
		}, time.Date(2025, 9, 3, 12, 0, 0, 0, time.UTC)))
	}
	eng := engine.New(h)
	router := intent.New(eng, intent.WithReferenceYear(2025))
	sessions := session.NewStore()
	loop := ai.NewLoop(h, eng, router, sessions, ai.WithReferenceYear(2025))
	return NewHandler(loop, sessions, h)
}

func postChat(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Chat(rec, req)
	return rec
}

func TestChatAnswersQuestion(t *testing.T) {
	h := newTestHandler(t, true)
	rec := postChat(t, h, `{"texto": "qual a média de horas?", "usuario": "Alice Souza", "sessao": "conv-1"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var result domain.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Kind != domain.KindStats {
		t.Errorf("tipo = %q, want %q (resposta %q)", result.Kind, domain.KindStats, result.Text)
	}
	if result.Data["media_horas"] != 7.0 {
		t.Errorf("dados = %v, want media_horas 7", result.Data)
	}
}

func TestChatRecordsSession(t *testing.T) {
	h := newTestHandler(t, true)
	postChat(t, h, `{"texto": "total de horas", "sessao": "conv-7"}`)
	postChat(t, h, `{"texto": "ranking", "sessao": "conv-7"}`)

	st := h.sessions.Stats()
	if st.Active != 1 || st.PerTurns["conv-7"] != 4 {
		t.Errorf("session stats = %+v, want 4 turns on conv-7", st)
	}
}

func TestChatRejectsBadRequests(t *testing.T) {
	h := newTestHandler(t, true)
	cases := []struct {
		name string
		body string
	}{
		{"invalid json", `{"texto": `},
		{"missing text", `{"usuario": "Alice"}`},
		{"blank text", `{"texto": "   "}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postChat(t, h, tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestChatMaintenanceWhenNotLoaded(t *testing.T) {
	h := newTestHandler(t, false)
	rec := postChat(t, h, `{"texto": "qual a média de horas?"}`)

	var result domain.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Text != engine.MaintenanceMessage {
		t.Errorf("resposta = %q, want maintenance message", result.Text)
	}
}

func TestHealth(t *testing.T) {
	h := newTestHandler(t, true)
	postChat(t, h, `{"texto": "oi", "sessao": "conv-1"}`)

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Status   string        `json:"status"`
		Sessions session.Stats `json:"sessions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("status = %q, want ok", body.Status)
	}
	if body.Sessions.Active != 1 {
		t.Errorf("active sessions = %d, want 1", body.Sessions.Active)
	}
}

func TestHealthDegradedWithoutData(t *testing.T) {
	h := newTestHandler(t, false)
	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if !strings.Contains(rec.Body.String(), `"degraded"`) {
		t.Errorf("body = %s, want degraded status", rec.Body.String())
	}
}

func TestRootMetadata(t *testing.T) {
	h := newTestHandler(t, true)
	rec := httptest.NewRecorder()
	h.Root(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["carregado"] != true {
		t.Errorf("carregado = %v, want true", body["carregado"])
	}
	if body["registros"] != 2.0 {
		t.Errorf("registros = %v, want 2", body["registros"])
	}
	if body["ia_ativa"] != false {
		t.Errorf("ia_ativa = %v, want false without backend", body["ia_ativa"])
	}
	periodo, ok := body["periodo"].(map[string]any)
	if !ok || periodo["inicio"] != "01/09/2025" || periodo["fim"] != "02/09/2025" {
		t.Errorf("periodo = %v", body["periodo"])
	}
}
