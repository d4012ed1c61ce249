package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rmacedo/apontabot/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteLoader reads entries from a local warehouse snapshot database. The
// extraction pipeline mirrors the last-90-days table into a single
// "apontamentos" table; this loader only ever reads it.
type SQLiteLoader struct {
	dbPath string
}

// NewSQLiteLoader creates a loader for the given database file.
func NewSQLiteLoader(dbPath string) *SQLiteLoader {
	return &SQLiteLoader{dbPath: dbPath}
}

// Load opens the database read-only and builds a snapshot. Rows with
// non-positive duration are dropped at this boundary.
func (l *SQLiteLoader) Load(ctx context.Context) (*Snapshot, error) {
	dsn := l.dbPath + "?mode=ro&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open snapshot database: %w", err)
	}
	defer db.Close() //nolint:errcheck

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping snapshot database: %w", err)
	}

	const query = `
	SELECT s_nm_recurso, d_dt_data, duracao_horas,
	       COALESCE(s_ds_operacao, ''), COALESCE(s_nr_contrato, ''),
	       COALESCE(s_ds_cargo, ''), COALESCE(b_fl_validado, 0)
	FROM apontamentos
	ORDER BY d_dt_data, s_nm_recurso`

	// The extraction job may hold the file while rewriting it; busy errors
	// here are transient and worth a couple of retries.
	var rows *sql.Rows
	for attempt := 1; ; attempt++ {
		rows, err = db.QueryContext(ctx, query)
		if err == nil {
			break
		}
		if attempt >= 3 || !isSQLiteConflict(err) {
			return nil, fmt.Errorf("query apontamentos: %w", err)
		}
		slog.Warn("Snapshot database busy, retrying", "attempt", attempt)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
	defer rows.Close() //nolint:errcheck

	var entries []domain.TimeEntry
	var dropped int
	for rows.Next() {
		var subject, rawDate, activity, contract, role string
		var hours float64
		var validated int
		if err := rows.Scan(&subject, &rawDate, &hours, &activity, &contract, &role, &validated); err != nil {
			return nil, fmt.Errorf("scan apontamento row: %w", err)
		}

		date, err := parseWarehouseDate(rawDate)
		if err != nil || hours <= 0 || subject == "" {
			dropped++
			continue
		}

		entry := domain.TimeEntry{
			Subject:   subject,
			Date:      date,
			Hours:     hours,
			Activity:  activity,
			Contract:  contract,
			Validated: validated == 1,
		}
		entry.Technology, entry.Profile, entry.Level = splitRole(role)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate apontamento rows: %w", err)
	}

	if dropped > 0 {
		slog.Warn("Dropped invalid snapshot rows", "dropped", dropped, "kept", len(entries))
	}
	return NewSnapshot(entries, time.Now()), nil
}

// isSQLiteConflict reports SQLITE_BUSY / "database is locked" errors, the
// two concurrency failures that warrant a retry.
func isSQLiteConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

var _ Loader = (*SQLiteLoader)(nil)
