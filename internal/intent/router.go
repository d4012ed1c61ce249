package intent

import (
	"strings"
	"time"

	"github.com/rmacedo/apontabot/internal/domain"
	"github.com/rmacedo/apontabot/internal/engine"
)

// placeholderIdentities are the generic names channel emulators send; they
// carry no real identity and are treated as anonymous.
var placeholderIdentities = map[string]struct{}{
	"user":          {},
	"bot":           {},
	"test user":     {},
	"usuario teste": {},
}

// NormalizeIdentity drops placeholder identities, returning "" for them.
func NormalizeIdentity(identity string) string {
	if _, ok := placeholderIdentities[strings.ToLower(strings.TrimSpace(identity))]; ok {
		return ""
	}
	return strings.TrimSpace(identity)
}

// Router classifies a question and dispatches it to one engine operation.
type Router struct {
	engine  *engine.Engine
	refYear int
	now     func() time.Time
}

// Option customizes a Router.
type Option func(*Router)

// WithReferenceYear sets the year assumed for year-less dates.
func WithReferenceYear(year int) Option {
	return func(r *Router) { r.refYear = year }
}

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(r *Router) { r.now = now }
}

// New creates a router over the given engine.
func New(eng *engine.Engine, opts ...Option) *Router {
	r := &Router{engine: eng, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	if r.refYear == 0 {
		r.refYear = r.now().Year()
	}
	return r
}

// route is one row of the classification table: first matching row wins.
type route struct {
	Name   string
	match  func(q string) bool
	handle func(r *Router, q, identity string) domain.Result
}

func anyWord(q string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(q, w) {
			return true
		}
	}
	return false
}

// routes is evaluated strictly in order. Reordering rows changes which
// category claims a question that mentions several, so the order is frozen
// by a regression test.
var routes = []route{
	{
		Name:  "average",
		match: func(q string) bool { return anyWord(q, "média", "media", "quanto tempo") },
		handle: func(r *Router, q, identity string) domain.Result {
			if identity != "" && possessive(q) {
				return r.engine.MeanDuration(identity)
			}
			return r.engine.MeanDuration("")
		},
	},
	{
		Name:  "today",
		match: func(q string) bool { return anyWord(q, "hoje") },
		handle: func(r *Router, q, identity string) domain.Result {
			if identity == "" {
				return domain.InfoResult("Por favor, identifique-se para consultar seus apontamentos.")
			}
			return r.engine.TodaySummary(identity)
		},
	},
	{
		Name:  "week",
		match: func(q string) bool { return anyWord(q, "semana") },
		handle: func(r *Router, q, identity string) domain.Result {
			return r.engine.WeekSummary(identity)
		},
	},
	{
		Name:  "ranking",
		match: func(q string) bool { return anyWord(q, "ranking", "top", "quem trabalhou mais") },
		handle: func(r *Router, q, identity string) domain.Result {
			return r.engine.Rank(0)
		},
	},
	{
		Name:  "outliers",
		match: func(q string) bool { return anyWord(q, "outlier", "anormal", "fora do padrão", "fora do padrao") },
		handle: func(r *Router, q, identity string) domain.Result {
			return r.engine.Outliers(0, 0)
		},
	},
	{
		Name:  "total",
		match: func(q string) bool { return anyWord(q, "total", "soma", "quantas horas") },
		handle: func(r *Router, q, identity string) domain.Result {
			if identity != "" && possessive(q) {
				return r.engine.TotalHours(identity)
			}
			return r.engine.TotalHours("")
		},
	},
	{
		Name:  "compare",
		match: func(q string) bool { return anyWord(q, "comparar", "comparação", "comparacao") },
		handle: func(r *Router, q, identity string) domain.Result {
			return r.engine.CompareWeeks()
		},
	},
	{
		Name:  "validation",
		match: func(q string) bool { return anyWord(q, "valida", "pendente") },
		handle: func(r *Router, q, identity string) domain.Result {
			return r.engine.ValidationSummary()
		},
	},
	{
		Name:  "dashboard",
		match: func(q string) bool { return anyWord(q, "dashboard", "visão geral", "visao geral") },
		handle: func(r *Router, q, identity string) domain.Result {
			return r.engine.Dashboard()
		},
	},
	{
		Name:  "list",
		match: func(q string) bool { return anyWord(q, "listar", "quais são", "quais sao", "disponíveis", "disponiveis") },
		handle: func(r *Router, q, identity string) domain.Result {
			return r.engine.ListOptions(listAttribute(q))
		},
	},
	{
		Name:  "contracts",
		match: func(q string) bool { return anyWord(q, "contrato") },
		handle: func(r *Router, q, identity string) domain.Result {
			return r.engine.GroupByContract()
		},
	},
	{
		Name:  "technology",
		match: func(q string) bool { return anyWord(q, "tecnologia") },
		handle: func(r *Router, q, identity string) domain.Result {
			return r.engine.GroupByAttribute(engine.ByTechnology)
		},
	},
	{
		Name:  "profile",
		match: func(q string) bool { return anyWord(q, "perfil") },
		handle: func(r *Router, q, identity string) domain.Result {
			return r.engine.GroupByAttribute(engine.ByProfile)
		},
	},
	{
		Name:  "level",
		match: func(q string) bool { return anyWord(q, "nível", "nivel") },
		handle: func(r *Router, q, identity string) domain.Result {
			return r.engine.GroupByAttribute(engine.ByLevel)
		},
	},
	{
		Name:  "missing-checkout",
		match: func(q string) bool { return missingCue(q) },
		handle: func(r *Router, q, identity string) domain.Result {
			// No explicit range: check the current month so far.
			now := r.now()
			from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
			return r.engine.MissingWorkdays(from, now, subjectFor(q, identity))
		},
	},
}

// RouteNames exposes the table order for contract tests.
func RouteNames() []string {
	names := make([]string, len(routes))
	for i, rt := range routes {
		names[i] = rt.Name
	}
	return names
}

func possessive(q string) bool {
	return anyWord(q, "meu", "minha", "mim")
}

func globalCue(q string) bool {
	return anyWord(q, "quem", "quais", "ranking", "top", "recursos", "pessoas")
}

func missingCue(q string) bool {
	return anyWord(q, "não apontou", "nao apontou", "não apontaram", "nao apontaram",
		"sem apontamento", "faltou", "faltaram")
}

// subjectFor decides person scope: a global cue always wins over the
// possessive one, and absence of both means global.
func subjectFor(q, identity string) string {
	if globalCue(q) {
		return ""
	}
	if identity != "" && possessive(q) {
		return identity
	}
	return ""
}

func listAttribute(q string) engine.GroupAttribute {
	switch {
	case anyWord(q, "tecnologia"):
		return engine.ByTechnology
	case anyWord(q, "perfil"):
		return engine.ByProfile
	case anyWord(q, "nível", "nivel"):
		return engine.ByLevel
	case anyWord(q, "operação", "operacao", "atividade"):
		return engine.ByActivity
	default:
		return engine.ByContract
	}
}

var greetings = map[string]struct{}{
	"oi":    {},
	"olá":   {},
	"ola":   {},
	"hello": {},
	"hi":    {},
}

func isGreeting(q string) bool {
	trimmed := strings.Trim(strings.TrimSpace(q), "!?. ")
	_, ok := greetings[trimmed]
	return ok
}

// Answer classifies the question and runs the matched operation. It never
// returns an error: anything unclassifiable falls through to the help text.
func (r *Router) Answer(question, identity string) domain.Result {
	q := strings.ToLower(question)
	identity = NormalizeIdentity(identity)

	if isGreeting(q) {
		return greetingResult(identity)
	}

	switch dr, err := ExtractRange(q, r.refYear); err {
	case nil:
		return r.answerRange(q, identity, dr)
	case ErrInvalidDate:
		return domain.InfoResult("📅 Não consegui entender as datas. Use o formato DD/MM/AAAA a DD/MM/AAAA.")
	}

	for _, rt := range routes {
		if rt.match(q) {
			return rt.handle(r, q, identity)
		}
	}
	return r.engine.Help()
}

// answerRange routes a question that embeds a date range. Secondary cues
// pick the operation; possessive versus interrogative cues pick the scope.
func (r *Router) answerRange(q, identity string, dr DateRange) domain.Result {
	switch {
	case anyWord(q, "deveria", "esperad"):
		return r.engine.ExpectedHours(dr.From, dr.To, 0)
	case anyWord(q, "contrato"):
		return r.engine.GroupByContract()
	case missingCue(q):
		return r.engine.MissingWorkdays(dr.From, dr.To, subjectFor(q, identity))
	default:
		return r.engine.PeriodSummary(dr.From, dr.To, subjectFor(q, identity))
	}
}

func greetingResult(identity string) domain.Result {
	name := ""
	if identity != "" {
		name = ", " + identity
	}
	return domain.Result{
		Text: "👋 Olá" + name + "! Sou o assistente de apontamentos.\n\n" +
			"Posso responder perguntas como:\n" +
			"• \"Qual a média de horas?\"\n" +
			"• \"Quanto apontei hoje?\"\n" +
			"• \"Ranking de horas\"\n" +
			"• \"01/09/2025 a 30/09/2025, quem apontou?\"\n\n" +
			"Digite \"ajuda\" para ver todos os comandos.",
		Kind: domain.KindInfo,
	}
}
