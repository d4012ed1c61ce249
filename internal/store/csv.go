package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rmacedo/apontabot/internal/domain"
)

// Warehouse export column names. The extraction pipeline writes these
// verbatim from the source table.
const (
	colSubject    = "s_nm_recurso"
	colDate       = "d_dt_data"
	colDuration   = "duracao_horas"
	colStartHours = "f_hr_hora_inicio"
	colStart      = "d_dt_inicio_apontamento"
	colEnd        = "d_dt_fim_apontamento"
	colActivity   = "s_ds_operacao"
	colContract   = "s_nr_contrato"
	colRole       = "s_ds_cargo"
	colValidated  = "b_fl_validado"
)

// roleBreakdown matches the composite role field
// "contract-item-technology-profile-level".
var roleBreakdown = regexp.MustCompile(`^(\d+)-(\d+)-([^-]+)-(.+)-(.+)$`)

// CSVLoader reads the warehouse CSV export into a snapshot.
type CSVLoader struct {
	Path string
}

// NewCSVLoader creates a loader for the given file path.
func NewCSVLoader(path string) *CSVLoader {
	return &CSVLoader{Path: path}
}

// Load parses the CSV file. Rows with a non-positive or unparseable duration
// or an unparseable date are dropped, never surfaced to queries.
func (l *CSVLoader) Load(ctx context.Context) (*Snapshot, error) {
	f, err := os.Open(l.Path)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", l.Path, err)
	}
	defer f.Close() //nolint:errcheck

	return ParseCSV(ctx, f)
}

// ParseCSV reads header-mapped rows from r and builds a snapshot.
func ParseCSV(ctx context.Context, r io.Reader) (*Snapshot, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	if _, ok := idx[colSubject]; !ok {
		return nil, fmt.Errorf("dataset missing required column %q", colSubject)
	}
	if _, ok := idx[colDate]; !ok {
		return nil, fmt.Errorf("dataset missing required column %q", colDate)
	}

	var entries []domain.TimeEntry
	var dropped int
	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", line+1, err)
		}
		line++

		entry, ok := entryFromRecord(record, idx)
		if !ok {
			dropped++
			continue
		}
		entries = append(entries, entry)
	}

	if dropped > 0 {
		slog.Warn("Dropped invalid dataset rows", "dropped", dropped, "kept", len(entries))
	}
	return NewSnapshot(entries, time.Now()), nil
}

func entryFromRecord(record []string, idx map[string]int) (domain.TimeEntry, bool) {
	field := func(name string) string {
		i, ok := idx[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	subject := field(colSubject)
	if subject == "" {
		return domain.TimeEntry{}, false
	}

	date, err := parseWarehouseDate(field(colDate))
	if err != nil {
		return domain.TimeEntry{}, false
	}

	hours, ok := durationFromRecord(field, date)
	if !ok || hours <= 0 {
		return domain.TimeEntry{}, false
	}

	entry := domain.TimeEntry{
		Subject:   subject,
		Date:      date,
		Hours:     hours,
		Activity:  field(colActivity),
		Contract:  field(colContract),
		Validated: field(colValidated) == "1" || strings.EqualFold(field(colValidated), "true"),
	}

	tech, profile, level := splitRole(field(colRole))
	entry.Technology = tech
	entry.Profile = profile
	entry.Level = level
	if entry.Contract == "" {
		if c, _, _, _, _ := roleParts(field(colRole)); c != "" {
			entry.Contract = c
		}
	}
	return entry, true
}

// durationFromRecord resolves the entry duration with the same precedence the
// extraction pipeline uses: a precomputed duracao_horas column, then the
// f_hr_hora_inicio column (which already carries the duration in the
// decomposed export), then the start/end timestamps.
func durationFromRecord(field func(string) string, _ time.Time) (float64, bool) {
	if v := field(colDuration); v != "" {
		h, err := strconv.ParseFloat(v, 64)
		return h, err == nil
	}
	if v := field(colStartHours); v != "" {
		h, err := strconv.ParseFloat(v, 64)
		return h, err == nil
	}
	start, err1 := parseWarehouseDate(field(colStart))
	end, err2 := parseWarehouseDate(field(colEnd))
	if err1 != nil || err2 != nil {
		return 0, false
	}
	return end.Sub(start).Hours(), true
}

var warehouseDateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
	"02/01/2006",
}

func parseWarehouseDate(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range warehouseDateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", v)
}

func roleParts(role string) (contract, item, tech, profile, level string) {
	if role == "" {
		return "", "", "", "", ""
	}
	if m := roleBreakdown.FindStringSubmatch(role); m != nil {
		return m[1], m[2], strings.TrimSpace(m[3]), strings.TrimSpace(m[4]), strings.TrimSpace(m[5])
	}
	parts := strings.Split(role, "-")
	if len(parts) >= 5 {
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]),
			strings.TrimSpace(parts[2]), strings.TrimSpace(parts[3]), strings.TrimSpace(parts[4])
	}
	return "", "", "", "", ""
}

func splitRole(role string) (tech, profile, level string) {
	_, _, tech, profile, level = roleParts(role)
	return tech, profile, level
}
