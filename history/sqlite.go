package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hupe1980/agentpool/core"
)

// SQLiteStore persists threads in a SQLite database via database/sql and the
// cgo-free modernc driver. Message order is kept with an explicit position
// column so replacements preserve relative order exactly.
type SQLiteStore struct {
	db     *sql.DB
	prefix string
}

// SQLiteOptions configure the SQLite store.
type SQLiteOptions struct {
	// TablePrefix namespaces the tables (default "agentpool").
	TablePrefix string
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and runs the
// schema migration.
func NewSQLiteStore(dbPath string, optFns ...func(o *SQLiteOptions)) (*SQLiteStore, error) {
	opts := SQLiteOptions{TablePrefix: "agentpool"}
	for _, fn := range optFns {
		fn(&opts)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("history: open sqlite db: %w", err)
	}
	// WAL mode for better concurrent reads.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, prefix: opts.TablePrefix}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: migrate sqlite db: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s_threads (
			id         TEXT PRIMARY KEY,
			metadata   TEXT NOT NULL DEFAULT '{}',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`, s.prefix),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s_messages (
			id         TEXT PRIMARY KEY,
			thread_id  TEXT NOT NULL,
			position   INTEGER NOT NULL,
			role       TEXT NOT NULL,
			content    TEXT NOT NULL DEFAULT '',
			agent      TEXT NOT NULL DEFAULT '',
			tool_call  TEXT,
			created_at TEXT NOT NULL
		)`, s.prefix),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %[1]s_messages_thread_idx
			ON %[1]s_messages (thread_id, position)`, s.prefix),
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// CreateThread implements Store.
func (s *SQLiteStore) CreateThread(ctx context.Context, t Thread) error {
	meta, err := json.Marshal(t.Metadata)
	if err != nil {
		return fmt.Errorf("history: marshal thread metadata: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s_threads (id, metadata, created_at, updated_at) VALUES (?, ?, ?, ?)", s.prefix),
		t.ID, string(meta), t.CreatedAt.Format(time.RFC3339Nano), t.UpdatedAt.Format(time.RFC3339Nano),
	)
	return err
}

// GetThread implements Store.
func (s *SQLiteStore) GetThread(ctx context.Context, id string) (Thread, error) {
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT id, metadata, created_at, updated_at FROM %s_threads WHERE id = ?", s.prefix), id)
	return scanThread(row)
}

// ListThreads implements Store.
func (s *SQLiteStore) ListThreads(ctx context.Context) ([]Thread, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT id, metadata, created_at, updated_at FROM %s_threads ORDER BY created_at", s.prefix))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Thread
	for rows.Next() {
		t, err := scanThread(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// DeleteThread implements Store.
func (s *SQLiteStore) DeleteThread(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s_threads WHERE id = ?", s.prefix), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrThreadNotFound
	}
	_, err = s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s_messages WHERE thread_id = ?", s.prefix), id)
	return err
}

// AppendMessage implements Store.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg Message) error {
	var exists int
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT 1 FROM %s_threads WHERE id = ?", s.prefix), msg.ThreadID).Scan(&exists)
	if err == sql.ErrNoRows {
		return ErrThreadNotFound
	}
	if err != nil {
		return err
	}

	toolCall, err := encodeToolCall(msg.ToolCall)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %[1]s_messages (id, thread_id, position, role, content, agent, tool_call, created_at)
		VALUES (?, ?, (SELECT COALESCE(MAX(position)+1, 0) FROM %[1]s_messages WHERE thread_id = ?), ?, ?, ?, ?, ?)`,
		s.prefix),
		msg.ID, msg.ThreadID, msg.ThreadID, string(msg.Role), msg.Content, msg.Agent, toolCall,
		msg.CreatedAt.Format(time.RFC3339Nano),
	)
	return err
}

// GetMessages implements Store.
func (s *SQLiteStore) GetMessages(ctx context.Context, threadID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		"SELECT id, thread_id, role, content, agent, tool_call, created_at FROM %s_messages WHERE thread_id = ? ORDER BY position",
		s.prefix), threadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

// ReplaceMessages implements Store.
func (s *SQLiteStore) ReplaceMessages(ctx context.Context, threadID string, msgs []Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s_messages WHERE thread_id = ?", s.prefix), threadID); err != nil {
		return err
	}
	for i, msg := range msgs {
		toolCall, err := encodeToolCall(msg.ToolCall)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(
			"INSERT INTO %s_messages (id, thread_id, position, role, content, agent, tool_call, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			s.prefix),
			msg.ID, threadID, i, string(msg.Role), msg.Content, msg.Agent, toolCall,
			msg.CreatedAt.Format(time.RFC3339Nano),
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Close implements Store.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanThread(row rowScanner) (Thread, error) {
	var (
		t          Thread
		meta       string
		createdRaw string
		updatedRaw string
	)
	if err := row.Scan(&t.ID, &meta, &createdRaw, &updatedRaw); err != nil {
		if err == sql.ErrNoRows {
			return Thread{}, ErrThreadNotFound
		}
		return Thread{}, err
	}
	if meta != "" && meta != "null" {
		if err := json.Unmarshal([]byte(meta), &t.Metadata); err != nil {
			return Thread{}, fmt.Errorf("history: decode thread metadata: %w", err)
		}
	}
	t.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdRaw)
	t.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedRaw)
	return t, nil
}

func scanMessages(rows *sql.Rows) ([]Message, error) {
	var out []Message
	for rows.Next() {
		var (
			msg        Message
			role       string
			toolCall   sql.NullString
			createdRaw string
		)
		if err := rows.Scan(&msg.ID, &msg.ThreadID, &role, &msg.Content, &msg.Agent, &toolCall, &createdRaw); err != nil {
			return nil, err
		}
		msg.Role = core.Role(role)
		if toolCall.Valid && toolCall.String != "" {
			rec, err := decodeToolCall(toolCall.String)
			if err != nil {
				return nil, err
			}
			msg.ToolCall = rec
		}
		msg.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdRaw)
		out = append(out, msg)
	}
	return out, rows.Err()
}

func encodeToolCall(rec *core.ToolCallRecord) (sql.NullString, error) {
	if rec == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("history: marshal tool call: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func decodeToolCall(raw string) (*core.ToolCallRecord, error) {
	var rec core.ToolCallRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("history: decode tool call: %w", err)
	}
	return &rec, nil
}
