// Package cmdlog records msum command executions in PostgreSQL so a team can
// audit which meetings were summarized, mailed or deleted, and by whom.
package cmdlog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/lib/pq"

	"github.com/YashavikaSingh/meeting-summariser/config"
)

// DefaultHistoryLimit is used when History is called without a limit.
const DefaultHistoryLimit = 20

// maxTextLen caps stored error and response text.
const maxTextLen = 500

const schema = `
CREATE TABLE IF NOT EXISTS msum_command_log (
	id            BIGSERIAL PRIMARY KEY,
	username      TEXT NOT NULL,
	hostname      TEXT,
	command       TEXT NOT NULL,
	args          TEXT[] NOT NULL DEFAULT '{}',
	full_command  TEXT NOT NULL,
	meeting_id    TEXT,
	duration_ms   INTEGER NOT NULL,
	success       BOOLEAN NOT NULL,
	error_message TEXT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Client writes and reads the command log.
type Client struct {
	db   *sql.DB
	user string
}

// Entry is one logged command execution.
type Entry struct {
	ID           int64     `json:"id" yaml:"id"`
	User         string    `json:"user" yaml:"user"`
	Hostname     string    `json:"hostname,omitempty" yaml:"hostname,omitempty"`
	Command      string    `json:"command" yaml:"command"`
	Args         []string  `json:"args" yaml:"args"`
	FullCommand  string    `json:"full_command" yaml:"full_command"`
	MeetingID    string    `json:"meeting_id,omitempty" yaml:"meeting_id,omitempty"`
	DurationMs   int       `json:"duration_ms" yaml:"duration_ms"`
	Success      bool      `json:"success" yaml:"success"`
	ErrorMessage string    `json:"error_message,omitempty" yaml:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
}

// NewClient opens the command log database described by cfg.
func NewClient(cfg *config.CommandLogConfig) (*Client, error) {
	if cfg == nil || !cfg.IsConfigured() {
		return nil, fmt.Errorf("command log not configured")
	}

	db, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// One CLI process logs a handful of rows at most.
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	return NewWithDB(db, cfg.User), nil
}

// NewWithDB wraps an open database handle. user is recorded on every entry.
func NewWithDB(db *sql.DB, user string) *Client {
	return &Client{db: db, user: user}
}

// Close closes the database connection.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Ping checks the database connection.
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// EnsureSchema creates the log table if it does not exist.
func (c *Client) EnsureSchema(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating command log table: %w", err)
	}
	return nil
}

// LogCommand stores one command execution.
func (c *Client) LogCommand(ctx context.Context, entry *Entry) error {
	row := c.prepare(entry)

	const query = `INSERT INTO msum_command_log
		(username, hostname, command, args, full_command, meeting_id, duration_ms, success, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := c.db.ExecContext(ctx, query,
		row.User,
		nullIfEmpty(row.Hostname),
		row.Command,
		pq.Array(row.Args),
		row.FullCommand,
		nullIfEmpty(row.MeetingID),
		row.DurationMs,
		row.Success,
		nullIfEmpty(row.ErrorMessage),
	)
	if err != nil {
		return fmt.Errorf("logging command: %w", err)
	}
	return nil
}

// prepare fills defaults and truncates long text.
func (c *Client) prepare(entry *Entry) Entry {
	row := *entry
	if row.User == "" {
		row.User = c.user
	}
	if row.Hostname == "" {
		row.Hostname, _ = os.Hostname()
	}
	if row.Args == nil {
		row.Args = []string{}
	}
	row.ErrorMessage = truncate(row.ErrorMessage, maxTextLen)
	return row
}

// History returns the most recent entries, newest first. An empty command
// matches every command.
func (c *Client) History(ctx context.Context, command string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	const query = `SELECT id, username, COALESCE(hostname, ''), command, args, full_command,
			COALESCE(meeting_id, ''), duration_ms, success, error_message, created_at
		FROM msum_command_log
		WHERE ($1::text IS NULL OR command = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2`

	rows, err := c.db.QueryContext(ctx, query, nullIfEmpty(command), limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e        Entry
			errorMsg sql.NullString
		)
		if err := rows.Scan(
			&e.ID,
			&e.User,
			&e.Hostname,
			&e.Command,
			pq.Array(&e.Args),
			&e.FullCommand,
			&e.MeetingID,
			&e.DurationMs,
			&e.Success,
			&errorMsg,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		e.ErrorMessage = errorMsg.String
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return entries, nil
}

// truncate shortens s to at most maxLen bytes without splitting a rune.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func utf8RuneStart(b byte) bool { return b&0xC0 != 0x80 }

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
