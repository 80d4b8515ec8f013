// Package audit keeps a per-invocation log of tool calls in sqlite.
// Recording is best effort: a write failure is logged and never
// surfaces on the tool-call path.
package audit

import (
	"context"
	"database/sql"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/revenuepulse/pulse-mcp/internal/logger"
)

var log = logger.ForComponent("audit")

type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open creates or opens the invocation log at dbPath. ":memory:" works
// for tests.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS invocations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tool TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		ok INTEGER NOT NULL,
		called_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_invocations_tool ON invocations(tool);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record implements the dispatcher's Recorder hook.
func (s *Store) Record(tool string, elapsed time.Duration, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	okVal := 0
	if ok {
		okVal = 1
	}
	if _, err := s.db.Exec(
		`INSERT INTO invocations (tool, duration_ms, ok) VALUES (?, ?, ?)`,
		tool, elapsed.Milliseconds(), okVal,
	); err != nil {
		log.Warn("failed to record invocation", "tool", tool, "error", err)
	}
}

// Summary aggregates the log per tool.
type Summary struct {
	Tool   string  `json:"tool"`
	Calls  int64   `json:"calls"`
	Errors int64   `json:"errors"`
	AvgMs  float64 `json:"avg_ms"`
}

// Summaries returns per-tool call counts ordered by tool name.
func (s *Store) Summaries(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tool, COUNT(*), SUM(CASE WHEN ok = 0 THEN 1 ELSE 0 END), AVG(duration_ms)
		FROM invocations GROUP BY tool ORDER BY tool`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.Tool, &sum.Calls, &sum.Errors, &sum.AvgMs); err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}
