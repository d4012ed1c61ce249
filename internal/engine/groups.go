package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rmacedo/apontabot/internal/domain"
)

// GroupAttribute names the entry fields queries can group by.
type GroupAttribute string

// Groupable attributes.
const (
	ByContract   GroupAttribute = "contrato"
	ByTechnology GroupAttribute = "tecnologia"
	ByProfile    GroupAttribute = "perfil"
	ByLevel      GroupAttribute = "nivel"
	ByActivity   GroupAttribute = "operacao"
)

// GroupRow aggregates one key of a grouping.
type GroupRow struct {
	Key      string  `json:"key"`
	Hours    float64 `json:"sum_hours"`
	Count    int     `json:"entry_count"`
	Subjects int     `json:"distinct_subjects"`
}

func attributeValue(e domain.TimeEntry, attr GroupAttribute) string {
	switch attr {
	case ByContract:
		return e.Contract
	case ByTechnology:
		return e.Technology
	case ByProfile:
		return e.Profile
	case ByLevel:
		return e.Level
	case ByActivity:
		return e.Activity
	default:
		return ""
	}
}

// GroupByContract aggregates hours per contract.
func (e *Engine) GroupByContract() domain.Result {
	return e.GroupByAttribute(ByContract)
}

// GroupByAttribute aggregates hours, entry counts and distinct subjects per
// value of the given attribute, sorted descending by hours. Entries with a
// blank value are skipped.
func (e *Engine) GroupByAttribute(attr GroupAttribute) domain.Result {
	snap := e.snapshot()
	if snap == nil {
		return maintenance()
	}

	rows := groupRows(snap.Entries(), attr)
	if len(rows) == 0 {
		return domain.InfoResult(fmt.Sprintf("📭 Nenhum dado de %s disponível.", attr))
	}

	kind := domain.KindGroup
	if attr == ByContract {
		kind = domain.KindContracts
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📋 **Horas por %s**\n\n", attr)
	out := make([]map[string]any, 0, len(rows))
	for i, r := range rows {
		if i < 10 {
			fmt.Fprintf(&b, "%d. %s: %.2fh (%d apontamentos, %d recursos)\n",
				i+1, r.Key, r.Hours, r.Count, r.Subjects)
		}
		out = append(out, map[string]any{
			"chave":    r.Key,
			"horas":    round2(r.Hours),
			"qtd":      r.Count,
			"recursos": r.Subjects,
		})
	}
	if len(rows) > 10 {
		fmt.Fprintf(&b, "… e mais %d\n", len(rows)-10)
	}

	return domain.Result{
		Text: b.String(),
		Kind: kind,
		Data: map[string]any{"atributo": string(attr), "grupos": out},
	}
}

func groupRows(entries []domain.TimeEntry, attr GroupAttribute) []GroupRow {
	hours := make(map[string]float64)
	counts := make(map[string]int)
	subjects := make(map[string]map[string]struct{})
	var order []string
	for _, e := range entries {
		key := attributeValue(e, attr)
		if key == "" {
			continue
		}
		if _, ok := hours[key]; !ok {
			order = append(order, key)
			subjects[key] = make(map[string]struct{})
		}
		hours[key] += e.Hours
		counts[key]++
		subjects[key][e.Subject] = struct{}{}
	}
	rows := make([]GroupRow, 0, len(order))
	for _, key := range order {
		rows = append(rows, GroupRow{
			Key:      key,
			Hours:    hours[key],
			Count:    counts[key],
			Subjects: len(subjects[key]),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Hours > rows[j].Hours })
	return rows
}

// ValidationSummary reports validated versus pending entry counts, plus the
// oldest pending dates when asked for pending entries.
func (e *Engine) ValidationSummary() domain.Result {
	snap := e.snapshot()
	if snap == nil {
		return maintenance()
	}
	total := snap.Len()
	if total == 0 {
		return domain.InfoResult("📭 Nenhum apontamento registrado até o momento.")
	}

	var validated int
	pendingByDay := make(map[string]int)
	var pendingDays []string
	for _, entry := range snap.Entries() {
		if entry.Validated {
			validated++
			continue
		}
		day := entry.Day().Format("2006-01-02")
		if _, ok := pendingByDay[day]; !ok {
			pendingDays = append(pendingDays, day)
		}
		pendingByDay[day]++
	}
	pending := total - validated
	pctValidated := float64(validated) / float64(total) * 100
	pctPending := float64(pending) / float64(total) * 100

	sort.Strings(pendingDays)
	if len(pendingDays) > 5 {
		pendingDays = pendingDays[:5]
	}

	var b strings.Builder
	b.WriteString("📊 **Status de Validação**\n\n")
	fmt.Fprintf(&b, "✅ Validados: %d (%.1f%%)\n", validated, pctValidated)
	fmt.Fprintf(&b, "⏳ Pendentes: %d (%.1f%%)\n", pending, pctPending)
	fmt.Fprintf(&b, "📊 Total: %d", total)

	oldest := make([]map[string]any, 0, len(pendingDays))
	if pending > 0 {
		b.WriteString("\n\n⚠️ **Mais antigos pendentes:**\n")
		for _, day := range pendingDays {
			fmt.Fprintf(&b, "• %d de %s\n", pendingByDay[day], day)
			oldest = append(oldest, map[string]any{"data": day, "quantidade": pendingByDay[day]})
		}
	}

	return domain.Result{
		Text: b.String(),
		Kind: domain.KindValidation,
		Data: map[string]any{
			"total":             total,
			"validados":         validated,
			"pendentes":         pending,
			"pct_validados":     round2(pctValidated),
			"pct_pendentes":     round2(pctPending),
			"pendentes_antigos": oldest,
		},
	}
}

// Dashboard renders the executive overview: totals, validation split and the
// top contracts and technologies.
func (e *Engine) Dashboard() domain.Result {
	snap := e.snapshot()
	if snap == nil {
		return maintenance()
	}
	total := snap.Len()
	if total == 0 {
		return domain.InfoResult("📭 Nenhum apontamento registrado até o momento.")
	}

	var validated int
	for _, entry := range snap.Entries() {
		if entry.Validated {
			validated++
		}
	}
	subjects := snap.Subjects()
	totalHours := snap.TotalHours()
	contracts := groupRows(snap.Entries(), ByContract)
	technologies := groupRows(snap.Entries(), ByTechnology)

	var b strings.Builder
	b.WriteString("📊 **Dashboard Executivo**\n\n")
	b.WriteString("📋 **Geral:**\n")
	fmt.Fprintf(&b, "• Apontamentos: %d\n", total)
	fmt.Fprintf(&b, "• Recursos: %d\n", len(subjects))
	fmt.Fprintf(&b, "• Horas: %.2fh\n", totalHours)
	fmt.Fprintf(&b, "\n✅ **Validação:**\n• Validados: %d\n• Pendentes: %d\n", validated, total-validated)

	writeTop := func(title string, rows []GroupRow) []map[string]any {
		if len(rows) == 0 {
			return nil
		}
		fmt.Fprintf(&b, "\n%s\n", title)
		var out []map[string]any
		for i, r := range rows {
			if i >= 3 {
				break
			}
			fmt.Fprintf(&b, "%d. %s: %.2fh\n", i+1, r.Key, r.Hours)
			out = append(out, map[string]any{"chave": r.Key, "horas": round2(r.Hours)})
		}
		return out
	}
	topContracts := writeTop("📋 **Top 3 Contratos:**", contracts)
	topTechnologies := writeTop("💻 **Top 3 Tecnologias:**", technologies)

	return domain.Result{
		Text: b.String(),
		Kind: domain.KindDashboard,
		Data: map[string]any{
			"total_apontamentos": total,
			"recursos_unicos":    len(subjects),
			"total_horas":        round2(totalHours),
			"validados":          validated,
			"pendentes":          total - validated,
			"top_contratos":      topContracts,
			"top_tecnologias":    topTechnologies,
		},
	}
}

// listOptionsShown caps how many distinct values ListOptions prints; the
// structured data always carries the full set.
const listOptionsShown = 20

// ListOptions enumerates the distinct values of a groupable attribute with
// entry counts. The text shows the first twenty; the data carries all of
// them, so this result must never be re-summarized by a model.
func (e *Engine) ListOptions(attr GroupAttribute) domain.Result {
	snap := e.snapshot()
	if snap == nil {
		return maintenance()
	}

	rows := groupRows(snap.Entries(), attr)
	if len(rows) == 0 {
		return domain.InfoResult(fmt.Sprintf("📭 Nenhum dado de %s disponível.", attr))
	}
	// Options are listed by frequency, most common first.
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Count > rows[j].Count })

	var b strings.Builder
	fmt.Fprintf(&b, "📋 **%s disponíveis** (%d)\n\n", strings.ToUpper(string(attr)), len(rows))
	all := make([]map[string]any, 0, len(rows))
	for i, r := range rows {
		if i < listOptionsShown {
			fmt.Fprintf(&b, "%d. %s: %d apontamentos\n", i+1, r.Key, r.Count)
		}
		all = append(all, map[string]any{"valor": r.Key, "qtd": r.Count})
	}
	if len(rows) > listOptionsShown {
		fmt.Fprintf(&b, "\n… e mais %d opções", len(rows)-listOptionsShown)
	}

	return domain.Result{
		Text: b.String(),
		Kind: domain.KindList,
		Data: map[string]any{"atributo": string(attr), "total": len(rows), "opcoes": all},
	}
}

// Help lists the supported question styles. It doubles as the router's
// fallback answer.
func (e *Engine) Help() domain.Result {
	return domain.Result{
		Text: `🤖 **Comandos Disponíveis:**

📊 **Estatísticas:**
• "Qual a média de horas?"
• "Total de horas"

📅 **Consultas Temporais:**
• "Quanto apontei hoje?"
• "Resumo da semana"
• "Comparar períodos"
• "01/09/2025 a 30/09/2025, quem apontou?"
• "Quantas horas eu deveria ter feito de 01/09 a 30/09?"

🏆 **Rankings:**
• "Ranking de horas"
• "Quem trabalhou mais?"

⚠️ **Análises:**
• "Mostrar outliers"
• "Quem não apontou no período?"
• "Status de validação"
• "Horas por contrato"

💡 **Dica:** Mencione "meu"/"minha" para consultas pessoais!`,
		Kind: domain.KindHelp,
	}
}
