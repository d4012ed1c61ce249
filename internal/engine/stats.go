package engine

import (
	"fmt"
	"math"

	"github.com/rmacedo/apontabot/internal/calendar"
	"github.com/rmacedo/apontabot/internal/domain"
)

// MeanDuration reports mean and median entry duration. With a subject filter
// it also compares the person against the global mean.
func (e *Engine) MeanDuration(subject string) domain.Result {
	snap := e.snapshot()
	if snap == nil {
		return maintenance()
	}
	if snap.Len() == 0 {
		return domain.InfoResult("📭 Nenhum apontamento registrado até o momento.")
	}

	all := durations(snap.Entries())
	globalMean := mean(all)

	if subject == "" {
		med := median(all)
		return domain.Result{
			Text: fmt.Sprintf("📊 A duração média de trabalho é de **%s** (%.2f horas)",
				formatHours(globalMean), globalMean),
			Kind: domain.KindStats,
			Data: map[string]any{
				"media_horas":   round2(globalMean),
				"mediana_horas": round2(med),
				"formatado":     formatHours(globalMean),
			},
		}
	}

	entries, matched := e.filter(snap, Filter{Subject: subject})
	if len(entries) == 0 {
		return domain.ErrorResult(fmt.Sprintf("❌ Usuário '%s' não encontrado nos registros.", subject))
	}

	userMean := mean(durations(entries))
	delta := userMean - globalMean
	position := "acima"
	if delta < 0 {
		position = "abaixo"
	}

	return withAmbiguity(domain.Result{
		Text: fmt.Sprintf("👤 **%s**\n📊 Duração média: **%s**\n📋 Total de apontamentos: %d\n📈 %.2fh %s da média geral",
			subject, formatHours(userMean), len(entries), math.Abs(delta), position),
		Kind: domain.KindUser,
		Data: map[string]any{
			"usuario":               subject,
			"media_horas":           round2(userMean),
			"total_apontamentos":    len(entries),
			"diferenca_media_geral": round2(delta),
		},
	}, matched)
}

// TodaySummary reports the subject's entries for the current date.
func (e *Engine) TodaySummary(subject string) domain.Result {
	snap := e.snapshot()
	if snap == nil {
		return maintenance()
	}

	today := dayOf(e.now())
	entries, matched := e.filter(snap, Filter{Subject: subject, From: today, To: today})
	if len(entries) == 0 {
		return domain.InfoResult(fmt.Sprintf("📅 Você ainda não tem apontamentos registrados para hoje (%s).", formatDay(today)))
	}

	total := sumHours(entries)
	items := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		items = append(items, map[string]any{
			"operacao": entry.Activity,
			"duracao":  round2(entry.Hours),
		})
	}

	return withAmbiguity(domain.Result{
		Text: fmt.Sprintf("📅 **Hoje (%s)**\n⏱️ Total apontado: **%s**\n📝 Número de apontamentos: %d",
			formatDay(today), formatHours(total), len(entries)),
		Kind: domain.KindToday,
		Data: map[string]any{
			"data":         formatDay(today),
			"total_horas":  round2(total),
			"quantidade":   len(entries),
			"apontamentos": items,
		},
	}, matched)
}

// WeekSummary reports the current week (Monday-anchored). With a subject it
// adds a per-day mean; without one it reports the global weekly total.
func (e *Engine) WeekSummary(subject string) domain.Result {
	snap := e.snapshot()
	if snap == nil {
		return maintenance()
	}

	weekStart := calendar.WeekStart(e.now())
	entries, matched := e.filter(snap, Filter{Subject: subject, From: weekStart})

	if subject == "" {
		total := sumHours(entries)
		return domain.Result{
			Text: fmt.Sprintf("📊 Total apontado esta semana: **%.2f horas**", total),
			Kind: domain.KindWeek,
			Data: map[string]any{"total_horas": round2(total)},
		}
	}

	if len(entries) == 0 {
		return domain.InfoResult(fmt.Sprintf("📅 Sem apontamentos esta semana para %s", subject))
	}

	total := sumHours(entries)
	byDay := hoursByDay(entries)
	perDay := make([]float64, 0, len(byDay))
	for _, h := range byDay {
		perDay = append(perDay, h)
	}
	dailyMean := mean(perDay)

	return withAmbiguity(domain.Result{
		Text: fmt.Sprintf("📅 **Resumo Semanal - %s**\n⏱️ Total: %.2fh\n📊 Média diária: %.2fh\n📝 Apontamentos: %d",
			subject, total, dailyMean, len(entries)),
		Kind: domain.KindWeek,
		Data: map[string]any{
			"total_horas":  round2(total),
			"media_diaria": round2(dailyMean),
			"quantidade":   len(entries),
		},
	}, matched)
}

// TotalHours sums every entry, optionally narrowed by subject.
func (e *Engine) TotalHours(subject string) domain.Result {
	snap := e.snapshot()
	if snap == nil {
		return maintenance()
	}

	if subject == "" {
		total := snap.TotalHours()
		return domain.Result{
			Text: fmt.Sprintf("📊 Total geral: **%.2f horas**", total),
			Kind: domain.KindTotal,
			Data: map[string]any{"total_horas": round2(total)},
		}
	}

	entries, matched := e.filter(snap, Filter{Subject: subject})
	if len(entries) == 0 {
		return domain.ErrorResult(fmt.Sprintf("❌ Usuário '%s' não encontrado nos registros.", subject))
	}
	total := sumHours(entries)
	return withAmbiguity(domain.Result{
		Text: fmt.Sprintf("⏱️ **%s** - Total: **%.2f horas**", subject, total),
		Kind: domain.KindTotal,
		Data: map[string]any{"total_horas": round2(total), "quantidade": len(entries)},
	}, matched)
}

// CompareWeeks contrasts the current week's total with the previous one,
// both Monday-anchored.
func (e *Engine) CompareWeeks() domain.Result {
	snap := e.snapshot()
	if snap == nil {
		return maintenance()
	}

	currentStart := calendar.WeekStart(e.now())
	currentEnd := currentStart.AddDate(0, 0, 7)
	previousStart := currentStart.AddDate(0, 0, -7)

	var current, previous float64
	for _, entry := range snap.Entries() {
		day := entry.Day()
		switch {
		case day.Before(previousStart) || !day.Before(currentEnd):
			// Outside both weeks; future-dated rows stay out of the totals.
		case !day.Before(currentStart):
			current += entry.Hours
		default:
			previous += entry.Hours
		}
	}
	delta := current - previous

	return domain.Result{
		Text: fmt.Sprintf("📊 **Comparação Semanal**\nEsta semana: %.2fh\nSemana passada: %.2fh\nDiferença: %+.2fh",
			current, previous, delta),
		Kind: domain.KindCompare,
		Data: map[string]any{
			"total_atual":    round2(current),
			"total_anterior": round2(previous),
			"diferenca":      round2(delta),
		},
	}
}

func durations(entries []domain.TimeEntry) []float64 {
	out := make([]float64, len(entries))
	for i, e := range entries {
		out[i] = e.Hours
	}
	return out
}
