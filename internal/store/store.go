// Package store persists the sandbox tool-call log and per-run token usage
// to a local sqlite ledger. The ledger is accounting only: nothing in it is
// ever fed back into model context.
package store

import (
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite" // pure-Go sqlite driver

	"github.com/troupelabs/troupe/internal/tools"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is the sqlite ledger. Safe for concurrent use.
type Store struct {
	db *sql.DB
}

var _ tools.Recorder = (*Store)(nil)

// Open opens the ledger at path, creating the file and applying pending
// schema migrations as needed.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	// One shared connection: writers serialize instead of hitting
	// SQLITE_BUSY from independent connections.
	db.SetMaxOpenConns(1)

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	slog.Debug("ledger opened", "path", path)
	return &Store{db: db}, nil
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	driver, err := sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "troupe", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	// No m.Close here: the driver's Close would close the shared db handle,
	// which the Store still owns.
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// RecordToolCall mirrors one sandbox log entry into the ledger. It satisfies
// tools.Recorder, which cannot return an error, so insert failures are logged
// and swallowed rather than interrupting the agent round.
func (s *Store) RecordToolCall(e tools.LogEntry) {
	args, _ := json.Marshal(e.Args)
	_, err := s.db.Exec(
		`INSERT INTO tool_calls (ts, agent_id, tool, args, preview, success)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.Time.UnixMilli(), e.AgentID, e.Tool, string(args), e.Preview, e.Success,
	)
	if err != nil {
		slog.Warn("ledger: record tool call failed", "tool", e.Tool, "error", err)
	}
}

// UsageRecord is one run's token and cost accounting, attributed to the
// agent that produced the reply.
type UsageRecord struct {
	Time         time.Time
	Agent        string
	Provider     string
	Model        string
	InputTokens  int
	OutputTokens int
	Cost         float64
}

// RecordUsage appends a usage row. A zero Time means now.
func (s *Store) RecordUsage(u UsageRecord) {
	if u.Time.IsZero() {
		u.Time = time.Now()
	}
	_, err := s.db.Exec(
		`INSERT INTO usage (ts, agent, provider, model, input_tokens, output_tokens, cost)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.Time.UnixMilli(), u.Agent, u.Provider, u.Model, u.InputTokens, u.OutputTokens, u.Cost,
	)
	if err != nil {
		slog.Warn("ledger: record usage failed", "agent", u.Agent, "error", err)
	}
}
