package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rmacedo/apontabot/internal/calendar"
	"github.com/rmacedo/apontabot/internal/domain"
)

// PeriodSummary reconciles gross and net hours over [from, to], inclusive.
// Net hours apply the lunch deduction per distinct day worked. Without a
// subject the summary is global and lists the top five subjects.
func (e *Engine) PeriodSummary(from, to time.Time, subject string) domain.Result {
	snap := e.snapshot()
	if snap == nil {
		return maintenance()
	}

	entries, matched := e.filter(snap, Filter{Subject: subject, From: from, To: to})
	if len(entries) == 0 {
		who := "ninguém"
		if subject != "" {
			who = subject
		}
		return domain.InfoResult(fmt.Sprintf("📭 Nenhum apontamento entre %s e %s para %s.",
			formatDay(from), formatDay(to), who))
	}

	// Day counts cover the distinct days actually worked, not the whole
	// calendar span, so they reconcile with the per-day breakdown.
	byDay := hoursByDay(entries)
	var gross, net, lunch float64
	var workdays, weekendDays int
	var breakdown []map[string]any
	for _, day := range sortedDays(byDay) {
		c := calendar.Classify(day, byDay[day])
		gross += c.GrossHours
		net += c.NetHours
		lunch += c.LunchDeduction
		if c.Workday {
			workdays++
		} else {
			weekendDays++
		}
		breakdown = append(breakdown, map[string]any{
			"data":     formatDay(day),
			"dia_util": c.Workday,
			"bruto":    round2(c.GrossHours),
			"almoco":   round2(c.LunchDeduction),
			"liquido":  round2(c.NetHours),
		})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📅 **Período %s a %s**\n", formatDay(from), formatDay(to))
	if subject != "" {
		fmt.Fprintf(&b, "👤 %s\n", subject)
	}
	fmt.Fprintf(&b, "⏱️ Horas brutas: %.2fh\n", gross)
	fmt.Fprintf(&b, "🍽️ Desconto almoço: %.2fh\n", lunch)
	fmt.Fprintf(&b, "✅ Horas líquidas: %.2fh\n", net)
	fmt.Fprintf(&b, "📆 Dias úteis: %d | Fins de semana: %d\n", workdays, weekendDays)
	fmt.Fprintf(&b, "📝 Apontamentos: %d", len(entries))

	data := map[string]any{
		"inicio":          formatDay(from),
		"fim":             formatDay(to),
		"horas_brutas":    round2(gross),
		"horas_liquidas":  round2(net),
		"desconto_almoco": round2(lunch),
		"dias_uteis":      workdays,
		"dias_fim_semana": weekendDays,
		"quantidade":      len(entries),
		"por_dia":         breakdown,
	}

	if subject == "" {
		top := topSubjects(entries, 5)
		b.WriteString("\n\n👥 **Top 5 Recursos:**\n")
		var rows []map[string]any
		for i, t := range top {
			fmt.Fprintf(&b, "%d. %s: %.2fh\n", i+1, t.subject, t.hours)
			rows = append(rows, map[string]any{"recurso": t.subject, "horas": round2(t.hours)})
		}
		data["top_recursos"] = rows
	}

	return withAmbiguity(domain.Result{Text: b.String(), Kind: domain.KindPeriod, Data: data}, matched)
}

// ExpectedHours computes the contractual workload for the period: workdays
// times hours per day, minus one lunch hour per workday.
func (e *Engine) ExpectedHours(from, to time.Time, hoursPerDay float64) domain.Result {
	snap := e.snapshot()
	if snap == nil {
		return maintenance()
	}
	if hoursPerDay <= 0 {
		hoursPerDay = e.hoursPerDay
	}

	workdays, weekendDays := calendar.CountDays(from, to)
	gross := float64(workdays) * hoursPerDay
	lunch := float64(workdays) * calendar.LunchDeduction
	net := gross - lunch

	return domain.Result{
		Text: fmt.Sprintf("📅 **Período %s a %s**\n📆 Dias úteis: %d (fins de semana: %d)\n⏱️ Horas esperadas brutas: %.2fh (%.1fh/dia)\n🍽️ Desconto almoço: %.2fh\n✅ Horas esperadas líquidas: %.2fh",
			formatDay(from), formatDay(to), workdays, weekendDays, gross, hoursPerDay, lunch, net),
		Kind: domain.KindExpected,
		Data: map[string]any{
			"inicio":                   formatDay(from),
			"fim":                      formatDay(to),
			"dias_uteis":               workdays,
			"dias_fim_semana":          weekendDays,
			"horas_por_dia":            hoursPerDay,
			"horas_esperadas_brutas":   round2(gross),
			"horas_almoco":             round2(lunch),
			"horas_esperadas_liquidas": round2(net),
		},
	}
}

// MissingWorkdays lists, per subject, the workdays in [from, to] with no
// recorded entry: the set difference between the period's workdays and the
// subject's distinct entry dates.
func (e *Engine) MissingWorkdays(from, to time.Time, subject string) domain.Result {
	snap := e.snapshot()
	if snap == nil {
		return maintenance()
	}

	workdays := calendar.WorkdaysBetween(from, to)
	if len(workdays) == 0 {
		return domain.InfoResult(fmt.Sprintf("📅 Não há dias úteis entre %s e %s.", formatDay(from), formatDay(to)))
	}

	entries, matched := e.filter(snap, Filter{Subject: subject, From: from, To: to})

	// Subjects under consideration: the matched ones for a named query, every
	// subject in the dataset otherwise.
	var subjects []string
	if subject != "" {
		if len(matched) == 0 {
			return domain.ErrorResult(fmt.Sprintf("❌ Usuário '%s' não encontrado nos registros.", subject))
		}
		subjects = matched
	} else {
		subjects = snap.Subjects()
	}

	recorded := make(map[string]map[time.Time]struct{})
	for _, entry := range entries {
		if recorded[entry.Subject] == nil {
			recorded[entry.Subject] = make(map[time.Time]struct{})
		}
		recorded[entry.Subject][entry.Day()] = struct{}{}
	}

	type gap struct {
		subject string
		days    []time.Time
	}
	var gaps []gap
	for _, s := range subjects {
		var missing []time.Time
		for _, day := range workdays {
			if _, ok := recorded[s][day]; !ok {
				missing = append(missing, day)
			}
		}
		if len(missing) > 0 {
			gaps = append(gaps, gap{subject: s, days: missing})
		}
	}
	sort.SliceStable(gaps, func(i, j int) bool { return len(gaps[i].days) > len(gaps[j].days) })

	data := map[string]any{
		"inicio":           formatDay(from),
		"fim":              formatDay(to),
		"dias_uteis_total": len(workdays),
		"total_usuarios":   len(subjects),
	}

	if len(gaps) == 0 {
		data["usuarios_com_faltas"] = 0
		r := domain.Result{
			Text: fmt.Sprintf("✅ Todos apontaram em todos os %d dias úteis entre %s e %s!",
				len(workdays), formatDay(from), formatDay(to)),
			Kind: domain.KindMissing,
			Data: data,
		}
		return withAmbiguity(r, matched)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "⚠️ **Dias úteis sem apontamento (%s a %s)**\n\n", formatDay(from), formatDay(to))
	var rows []map[string]any
	for i, g := range gaps {
		if i < 10 {
			fmt.Fprintf(&b, "• %s: %d de %d dias úteis", g.subject, len(g.days), len(workdays))
			if len(g.days) <= 5 {
				names := make([]string, len(g.days))
				for j, d := range g.days {
					names[j] = formatDay(d)
				}
				fmt.Fprintf(&b, " (%s)", strings.Join(names, ", "))
			}
			b.WriteString("\n")
		}
		dayList := make([]string, len(g.days))
		for j, d := range g.days {
			dayList[j] = formatDay(d)
		}
		rows = append(rows, map[string]any{
			"recurso":            g.subject,
			"dias_nao_apontados": len(g.days),
			"dias_apontados":     len(workdays) - len(g.days),
			"dias":               dayList,
		})
	}
	if len(gaps) > 10 {
		fmt.Fprintf(&b, "… e mais %d recursos\n", len(gaps)-10)
	}

	data["usuarios_com_faltas"] = len(gaps)
	data["faltas"] = rows
	return withAmbiguity(domain.Result{Text: b.String(), Kind: domain.KindMissing, Data: data}, matched)
}

type subjectTotal struct {
	subject string
	hours   float64
}

func topSubjects(entries []domain.TimeEntry, n int) []subjectTotal {
	sums := make(map[string]float64)
	var order []string
	for _, e := range entries {
		if _, ok := sums[e.Subject]; !ok {
			order = append(order, e.Subject)
		}
		sums[e.Subject] += e.Hours
	}
	out := make([]subjectTotal, 0, len(order))
	for _, s := range order {
		out = append(out, subjectTotal{subject: s, hours: sums[s]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].hours > out[j].hours })
	if len(out) > n {
		out = out[:n]
	}
	return out
}
