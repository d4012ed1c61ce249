package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rmacedo/apontabot/internal/domain"
)

// DefaultRankSize caps the ranking when the caller does not ask for a size.
const DefaultRankSize = 10

// RankEntry is one row of the hours ranking.
type RankEntry struct {
	Subject string  `json:"subject"`
	Sum     float64 `json:"sum"`
	Count   int     `json:"count"`
	Mean    float64 `json:"mean"`
}

// Rank orders subjects by total hours descending. Ties keep the original
// grouping order (stable sort).
func (e *Engine) Rank(topN int) domain.Result {
	snap := e.snapshot()
	if snap == nil {
		return maintenance()
	}
	if snap.Len() == 0 {
		return domain.InfoResult("📭 Nenhum apontamento registrado até o momento.")
	}
	if topN <= 0 {
		topN = DefaultRankSize
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	var order []string
	for _, entry := range snap.Entries() {
		if _, ok := sums[entry.Subject]; !ok {
			order = append(order, entry.Subject)
		}
		sums[entry.Subject] += entry.Hours
		counts[entry.Subject]++
	}

	ranking := make([]RankEntry, 0, len(order))
	for _, subject := range order {
		ranking = append(ranking, RankEntry{
			Subject: subject,
			Sum:     sums[subject],
			Count:   counts[subject],
			Mean:    sums[subject] / float64(counts[subject]),
		})
	}
	sort.SliceStable(ranking, func(i, j int) bool { return ranking[i].Sum > ranking[j].Sum })
	if len(ranking) > topN {
		ranking = ranking[:topN]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🏆 **Top %d - Horas Trabalhadas**\n\n", topN)
	rows := make([]map[string]any, 0, len(ranking))
	for i, r := range ranking {
		fmt.Fprintf(&b, "%d. %s: %.2fh (%d apontamentos)\n", i+1, r.Subject, r.Sum, r.Count)
		rows = append(rows, map[string]any{
			"recurso": r.Subject,
			"sum":     round2(r.Sum),
			"count":   r.Count,
			"mean":    round2(r.Mean),
		})
	}

	return domain.Result{
		Text: b.String(),
		Kind: domain.KindRanking,
		Data: map[string]any{"ranking": rows},
	}
}

// DefaultOutlierThreshold and DefaultOutlierLimit mirror the analysis
// defaults: |z| > 2 against the full population, top five by duration.
const (
	DefaultOutlierThreshold = 2.0
	DefaultOutlierLimit     = 5
)

// OutlierEntry is one flagged entry with its z-score.
type OutlierEntry struct {
	Subject string  `json:"subject"`
	Date    string  `json:"date"`
	Hours   float64 `json:"hours"`
	ZScore  float64 `json:"z_score"`
}

// Outliers flags entries whose duration z-score reaches the threshold. The
// score is computed against the full population, never a filtered subset,
// and into local values so the shared snapshot is never written to.
func (e *Engine) Outliers(threshold float64, limit int) domain.Result {
	snap := e.snapshot()
	if snap == nil {
		return maintenance()
	}
	if threshold <= 0 {
		threshold = DefaultOutlierThreshold
	}
	if limit <= 0 {
		limit = DefaultOutlierLimit
	}

	all := durations(snap.Entries())
	if len(all) < 2 {
		return domain.InfoResult("✅ Nenhum outlier detectado recentemente!")
	}
	m := mean(all)
	sd := stddev(all, m)
	if sd == 0 {
		return domain.InfoResult("✅ Nenhum outlier detectado recentemente!")
	}

	// Tolerance for entries sitting exactly on the threshold, where float
	// rounding would otherwise flip the comparison.
	const zEpsilon = 1e-9

	var flagged []OutlierEntry
	for _, entry := range snap.Entries() {
		z := (entry.Hours - m) / sd
		if math.Abs(z)+zEpsilon < threshold {
			continue
		}
		flagged = append(flagged, OutlierEntry{
			Subject: entry.Subject,
			Date:    formatDay(entry.Day()),
			Hours:   entry.Hours,
			ZScore:  z,
		})
	}
	if len(flagged) == 0 {
		return domain.InfoResult("✅ Nenhum outlier detectado recentemente!")
	}

	sort.SliceStable(flagged, func(i, j int) bool { return flagged[i].Hours > flagged[j].Hours })
	if len(flagged) > limit {
		flagged = flagged[:limit]
	}

	var b strings.Builder
	b.WriteString("⚠️ **Apontamentos Fora do Padrão:**\n\n")
	rows := make([]map[string]any, 0, len(flagged))
	for _, o := range flagged {
		fmt.Fprintf(&b, "• %s: %.2fh (Z-Score: %.2f)\n", o.Subject, o.Hours, o.ZScore)
		rows = append(rows, map[string]any{
			"recurso": o.Subject,
			"data":    o.Date,
			"horas":   round2(o.Hours),
			"z_score": round2(o.ZScore),
		})
	}

	return domain.Result{
		Text: b.String(),
		Kind: domain.KindOutliers,
		Data: map[string]any{"outliers": rows},
	}
}
