package intent

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/rmacedo/apontabot/internal/domain"
	"github.com/rmacedo/apontabot/internal/engine"
	"github.com/rmacedo/apontabot/internal/store"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	h := store.NewHandle()
	h.Swap(store.NewSnapshot([]domain.TimeEntry{
		{Subject: "Alice Souza", Date: day(2025, 9, 1), Hours: 9, Contract: "CT-1", Technology: "Go"},
		{Subject: "Alice Souza", Date: day(2025, 9, 2), Hours: 8, Contract: "CT-1", Technology: "Go"},
		{Subject: "Bruno Lima", Date: day(2025, 9, 1), Hours: 6, Contract: "CT-2", Technology: "Python"},
	}, time.Now()))
	clock := func() time.Time { return time.Date(2025, 9, 2, 10, 0, 0, 0, time.UTC) }
	eng := engine.New(h, engine.WithClock(clock))
	return New(eng, WithReferenceYear(2025), WithClock(clock))
}

func TestExtractRange(t *testing.T) {
	cases := []struct {
		name    string
		text    string
		from    time.Time
		to      time.Time
		wantErr error
	}{
		{"full years", "de 01/09/2025 a 30/09/2025", day(2025, 9, 1), day(2025, 9, 30), nil},
		{"no years", "01/09 a 30/09, quem apontou?", day(2025, 9, 1), day(2025, 9, 30), nil},
		{"dashes", "10-10-2025 até 20-10-2025", day(2025, 10, 10), day(2025, 10, 20), nil},
		{"ate without accent", "01/09 ate 05/09", day(2025, 9, 1), day(2025, 9, 5), nil},
		{"joiner at", "10/10/2025 at 20/10/2025", day(2025, 10, 10), day(2025, 10, 20), nil},
		{"joiner e", "entre 01/09 e 30/09", day(2025, 9, 1), day(2025, 9, 30), nil},
		{"two-digit year", "01/09/25 a 30/09/25", day(2025, 9, 1), day(2025, 9, 30), nil},
		{"year backfilled from second date", "01/09 a 30/09/2024", day(2024, 9, 1), day(2024, 9, 30), nil},
		{"reversed range swapped", "30/09 a 01/09", day(2025, 9, 1), day(2025, 9, 30), nil},
		{"no range", "qual a média de horas?", time.Time{}, time.Time{}, ErrNoRange},
		{"impossible date", "31/02 a 05/03", time.Time{}, time.Time{}, ErrInvalidDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dr, err := ExtractRange(tc.text, 2025)
			if err != tc.wantErr {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if err != nil {
				return
			}
			if !dr.From.Equal(tc.from) || !dr.To.Equal(tc.to) {
				t.Errorf("range = %v..%v, want %v..%v", dr.From, dr.To, tc.from, tc.to)
			}
		})
	}
}

func TestNormalizeIdentity(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Alice Souza", "Alice Souza"},
		{"user", ""},
		{"Bot", ""},
		{"Test User", ""},
		{"usuario teste", ""},
		{"  Alice Souza  ", "Alice Souza"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeIdentity(tc.in); got != tc.want {
			t.Errorf("NormalizeIdentity(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

// The route table order is a behavioral contract: questions matching several
// categories are claimed by the first row.
func TestRouteTableOrder(t *testing.T) {
	want := []string{
		"average", "today", "week", "ranking", "outliers", "total", "compare",
		"validation", "dashboard", "list",
		"contracts", "technology", "profile", "level", "missing-checkout",
	}
	if got := RouteNames(); !reflect.DeepEqual(got, want) {
		t.Fatalf("route order changed:\n got %v\nwant %v", got, want)
	}
}

func TestAnswerKeywordRouting(t *testing.T) {
	r := newTestRouter(t)
	cases := []struct {
		name     string
		question string
		identity string
		wantKind string
	}{
		{"global mean", "Qual a média de horas?", "", domain.KindStats},
		{"personal mean", "Qual a minha média?", "Alice Souza", domain.KindUser},
		{"possessive without identity is global", "qual a minha média?", "", domain.KindStats},
		{"today with identity", "Quanto apontei hoje?", "Alice Souza", domain.KindToday},
		{"week", "Resumo da semana", "Alice Souza", domain.KindWeek},
		{"ranking", "Ranking de horas", "", domain.KindRanking},
		{"quem trabalhou mais", "quem trabalhou mais?", "", domain.KindRanking},
		{"total", "Total de horas", "", domain.KindTotal},
		{"compare", "Comparar períodos", "", domain.KindCompare},
		// Order sensitivity: "semana" is claimed by the week row before the
		// compare row ever sees the question.
		{"compare loses to week", "Comparar semanas", "Alice Souza", domain.KindWeek},
		{"contracts", "Horas por contrato", "", domain.KindContracts},
		{"technology", "Horas por tecnologia", "", domain.KindGroup},
		{"validation", "Status de validação", "", domain.KindValidation},
		{"dashboard", "dashboard", "", domain.KindDashboard},
		{"list contracts", "listar contratos", "", domain.KindList},
		{"fallback help", "xyzzy", "", domain.KindHelp},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := r.Answer(tc.question, tc.identity)
			if got.Kind != tc.wantKind {
				t.Errorf("Answer(%q) kind = %q, want %q (text %q)", tc.question, got.Kind, tc.wantKind, got.Text)
			}
		})
	}
}

func TestTodayWithoutIdentityAsksForIt(t *testing.T) {
	r := newTestRouter(t)
	got := r.Answer("quanto apontei hoje?", "user") // placeholder identity
	if got.Kind != domain.KindInfo || !strings.Contains(got.Text, "identifique-se") {
		t.Errorf("got %q/%q, want identify-yourself info", got.Kind, got.Text)
	}
}

func TestAnswerDateRangeRouting(t *testing.T) {
	r := newTestRouter(t)
	cases := []struct {
		name     string
		question string
		identity string
		wantKind string
	}{
		{"period global because quem", "10/10/2025 a 20/10/2025, quem apontou?", "Alice Souza", domain.KindInfo},
		{"period with data", "resumo de 01/09/2025 a 05/09/2025", "", domain.KindPeriod},
		{"expected hours", "quantas horas eu deveria ter feito de 01/09 a 30/09?", "Alice Souza", domain.KindExpected},
		{"missing in range", "quem não apontou de 01/09 a 05/09?", "", domain.KindMissing},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := r.Answer(tc.question, tc.identity)
			if got.Kind != tc.wantKind {
				t.Errorf("Answer(%q) kind = %q, want %q (text %q)", tc.question, got.Kind, tc.wantKind, got.Text)
			}
		})
	}
}

func TestAnswerGuidesOnImpossibleDate(t *testing.T) {
	r := newTestRouter(t)
	got := r.Answer("resumo de 31/02/2025 a 05/03/2025", "")
	if got.Kind != domain.KindInfo || !strings.Contains(got.Text, "DD/MM/AAAA") {
		t.Errorf("got %q/%q, want date-format guidance", got.Kind, got.Text)
	}
}

func TestRangeScopePossessiveVersusGlobal(t *testing.T) {
	r := newTestRouter(t)

	// Possessive cue, no global cue: person-scoped.
	personal := r.Answer("meu resumo de 01/09/2025 a 05/09/2025", "Alice Souza")
	if _, ok := personal.Data["top_recursos"]; ok {
		t.Errorf("person-scoped summary should not carry top_recursos: %v", personal.Data)
	}

	// No cues at all: global wins.
	global := r.Answer("resumo de 01/09/2025 a 05/09/2025", "Alice Souza")
	if _, ok := global.Data["top_recursos"]; !ok {
		t.Errorf("global summary should carry top_recursos: %v", global.Data)
	}
}

func TestGreeting(t *testing.T) {
	r := newTestRouter(t)
	for _, q := range []string{"oi", "Olá", "ola!", "hello", "Hi"} {
		got := r.Answer(q, "Alice Souza")
		if got.Kind != domain.KindInfo || !strings.Contains(got.Text, "Olá") {
			t.Errorf("Answer(%q) = %q/%q, want greeting", q, got.Kind, got.Text)
		}
	}
	// A question merely containing "oi" is not a greeting.
	if got := r.Answer("media de horas, oi?", ""); got.Kind != domain.KindStats {
		t.Errorf("embedded oi misrouted to %q", got.Kind)
	}
}
