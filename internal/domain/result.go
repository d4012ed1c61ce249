package domain

// Result kinds produced by the engine and router. Presentation layers pick a
// rendering from the kind without re-parsing the text.
const (
	KindStats      = "estatistica"
	KindUser       = "usuario"
	KindToday      = "hoje"
	KindWeek       = "semana"
	KindRanking    = "ranking"
	KindOutliers   = "outliers"
	KindTotal      = "total"
	KindCompare    = "comparacao"
	KindPeriod     = "periodo"
	KindExpected   = "horas_esperadas"
	KindMissing    = "dias_nao_apontados"
	KindContracts  = "contratos"
	KindGroup      = "agrupamento"
	KindValidation = "validacao"
	KindDashboard  = "dashboard"
	KindList       = "lista"
	KindHelp       = "ajuda"
	KindChat       = "ia_conversacao"
	KindInfo       = "info"
	KindError      = "erro"
)

// Result is the uniform reply produced by every public entry point. Text is
// human-readable markdown, Kind is one of the Kind* constants, Data carries
// the structured values the text was rendered from.
type Result struct {
	Text string         `json:"resposta"`
	Kind string         `json:"tipo"`
	Data map[string]any `json:"dados,omitempty"`
}

// ErrorResult builds a Result with the error kind.
func ErrorResult(text string) Result {
	return Result{Text: text, Kind: KindError}
}

// InfoResult builds a Result with the informational kind.
func InfoResult(text string) Result {
	return Result{Text: text, Kind: KindInfo}
}
