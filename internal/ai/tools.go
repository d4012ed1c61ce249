package ai

import (
	"fmt"
	"strings"

	"github.com/rmacedo/apontabot/internal/domain"
	"github.com/rmacedo/apontabot/internal/engine"
	"github.com/rmacedo/apontabot/internal/intent"
)

// toolMarker prefixes a tool request line in the model reply.
const toolMarker = "FERRAMENTA:"

// ToolInvocation is a parsed tool request: a name and a single raw argument
// string (the catalog only has zero- and one-argument operations).
type ToolInvocation struct {
	Name string
	Arg  string
}

// ParseToolCall scans a model reply for the tool marker and parses the
// first "name(arg)" it finds. Replies without the marker mean the model
// answered directly.
func ParseToolCall(reply string) (ToolInvocation, bool) {
	if !strings.Contains(reply, toolMarker) {
		return ToolInvocation{}, false
	}
	for _, line := range strings.Split(reply, "\n") {
		idx := strings.Index(line, toolMarker)
		if idx < 0 {
			continue
		}
		call := strings.TrimSpace(line[idx+len(toolMarker):])
		open := strings.Index(call, "(")
		if open < 0 {
			// Bare name, no parentheses. Tolerated.
			if call == "" {
				continue
			}
			return ToolInvocation{Name: call}, true
		}
		name := strings.TrimSpace(call[:open])
		arg := call[open+1:]
		if end := strings.Index(arg, ")"); end >= 0 {
			arg = arg[:end]
		}
		arg = strings.Trim(strings.TrimSpace(arg), `"'`)
		return ToolInvocation{Name: name, Arg: arg}, true
	}
	return ToolInvocation{}, false
}

// tool binds a catalog entry to its engine operation. Signature carries the
// example invocation shown to the model.
type tool struct {
	Name      string
	Signature string
	Purpose   string
	// raw results skip the second model pass; used for enumerations the
	// model must never shorten.
	Raw bool
	run func(l *Loop, arg, identity string) domain.Result
}

// rangeTool wraps operations whose single argument is a date range.
func rangeTool(f func(l *Loop, dr intent.DateRange, arg string) domain.Result) func(*Loop, string, string) domain.Result {
	return func(l *Loop, arg, identity string) domain.Result {
		dr, err := intent.ExtractRange(arg, l.refYear)
		if err != nil {
			return domain.ErrorResult(fmt.Sprintf("❌ Período inválido: '%s'. Use o formato DD/MM/AAAA a DD/MM/AAAA.", arg))
		}
		return f(l, dr, arg)
	}
}

// catalog is the fixed tool table embedded in the system prompt.
var catalog = []tool{
	{
		Name: "duracao_media_geral", Signature: "duracao_media_geral()",
		Purpose: "média e mediana gerais de horas por apontamento",
		run:     func(l *Loop, arg, identity string) domain.Result { return l.engine.MeanDuration("") },
	},
	{
		Name: "duracao_media_usuario", Signature: "duracao_media_usuario(nome)",
		Purpose: "média de um usuário comparada à média geral",
		run: func(l *Loop, arg, identity string) domain.Result {
			return l.engine.MeanDuration(argOr(arg, identity))
		},
	},
	{
		Name: "apontamentos_hoje", Signature: "apontamentos_hoje(nome)",
		Purpose: "apontamentos do usuário na data de hoje",
		run: func(l *Loop, arg, identity string) domain.Result {
			return l.engine.TodaySummary(argOr(arg, identity))
		},
	},
	{
		Name: "ranking_funcionarios", Signature: "ranking_funcionarios()",
		Purpose: "top funcionários por total de horas",
		run:     func(l *Loop, arg, identity string) domain.Result { return l.engine.Rank(0) },
	},
	{
		Name: "total_horas_usuario", Signature: "total_horas_usuario(nome)",
		Purpose: "total de horas de um usuário",
		run: func(l *Loop, arg, identity string) domain.Result {
			return l.engine.TotalHours(argOr(arg, identity))
		},
	},
	{
		Name: "identificar_outliers", Signature: "identificar_outliers()",
		Purpose: "apontamentos com duração fora do padrão",
		run:     func(l *Loop, arg, identity string) domain.Result { return l.engine.Outliers(0, 0) },
	},
	{
		Name: "resumo_semanal", Signature: "resumo_semanal(nome)",
		Purpose: "resumo da semana atual",
		run: func(l *Loop, arg, identity string) domain.Result {
			return l.engine.WeekSummary(argOr(arg, identity))
		},
	},
	{
		Name: "comparar_periodos", Signature: "comparar_periodos()",
		Purpose: "compara a semana atual com a anterior",
		run:     func(l *Loop, arg, identity string) domain.Result { return l.engine.CompareWeeks() },
	},
	{
		Name: "resumo_periodo", Signature: "resumo_periodo(01/09/2025 a 30/09/2025)",
		Purpose: "horas brutas e líquidas em um período, com desconto de almoço",
		run: rangeTool(func(l *Loop, dr intent.DateRange, arg string) domain.Result {
			return l.engine.PeriodSummary(dr.From, dr.To, "")
		}),
	},
	{
		Name: "horas_esperadas", Signature: "horas_esperadas(01/09/2025 a 30/09/2025)",
		Purpose: "horas contratuais esperadas para um período",
		run: rangeTool(func(l *Loop, dr intent.DateRange, arg string) domain.Result {
			return l.engine.ExpectedHours(dr.From, dr.To, 0)
		}),
	},
	{
		Name: "dias_nao_apontados", Signature: "dias_nao_apontados(01/09/2025 a 30/09/2025)",
		Purpose: "dias úteis sem apontamento em um período",
		run: rangeTool(func(l *Loop, dr intent.DateRange, arg string) domain.Result {
			return l.engine.MissingWorkdays(dr.From, dr.To, "")
		}),
	},
	{
		Name: "horas_por_contrato", Signature: "horas_por_contrato()",
		Purpose: "horas agregadas por contrato",
		run:     func(l *Loop, arg, identity string) domain.Result { return l.engine.GroupByContract() },
	},
	{
		Name: "status_validacao", Signature: "status_validacao()",
		Purpose: "apontamentos validados versus pendentes",
		run:     func(l *Loop, arg, identity string) domain.Result { return l.engine.ValidationSummary() },
	},
	{
		Name: "dashboard_executivo", Signature: "dashboard_executivo()",
		Purpose: "visão geral: totais, validação, top contratos e tecnologias",
		run:     func(l *Loop, arg, identity string) domain.Result { return l.engine.Dashboard() },
	},
	{
		Name: "listar_opcoes", Signature: "listar_opcoes(contratos)",
		Purpose: "lista completa de contratos, tecnologias, perfis ou níveis",
		Raw:     true,
		run: func(l *Loop, arg, identity string) domain.Result {
			return l.engine.ListOptions(listAttribute(arg))
		},
	},
}

func argOr(arg, identity string) string {
	if arg != "" {
		return arg
	}
	return identity
}

func listAttribute(arg string) engine.GroupAttribute {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "tecnologia", "tecnologias":
		return engine.ByTechnology
	case "perfil", "perfis":
		return engine.ByProfile
	case "nivel", "niveis", "nível", "níveis":
		return engine.ByLevel
	case "operacao", "operacoes", "operação", "operações", "atividades":
		return engine.ByActivity
	default:
		return engine.ByContract
	}
}

func findTool(name string) (tool, bool) {
	for _, t := range catalog {
		if t.Name == name {
			return t, true
		}
	}
	return tool{}, false
}
