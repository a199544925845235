package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/Hazehacker/Haze-AI-Hub/internal/domain"
	_ "github.com/mattn/go-sqlite3"
)

const (
	sessionStatusInactive = 0
	sessionStatusActive   = 1
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	memory := isMemoryDSN(dsn)
	if !memory {
		var err error
		if dsn, err = fileDSN(dsn); err != nil {
			return nil, fmt.Errorf("invalid database dsn: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if memory {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// fileDSN prepares a file DSN for concurrent turns: transactions take the
// write lock up front (_txlock=immediate) and wait for it (_busy_timeout)
// instead of failing with SQLITE_BUSY. Shared cache is removed since it
// reports table locks that no timeout covers.
func fileDSN(dsn string) (string, error) {
	path, rawQuery, _ := strings.Cut(dsn, "?")
	params, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "", err
	}
	if params.Get("cache") == "shared" {
		params.Del("cache")
	}
	if !params.Has("_txlock") {
		params.Set("_txlock", "immediate")
	}
	if !params.Has("_busy_timeout") && !params.Has("_timeout") {
		params.Set("_busy_timeout", "5000")
	}
	if !params.Has("_foreign_keys") && !params.Has("_fk") {
		params.Set("_foreign_keys", "on")
	}
	return path + "?" + params.Encode(), nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS chat_session (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			type TEXT NOT NULL DEFAULT 'chat',
			title TEXT,
			status INTEGER NOT NULL DEFAULT 1,
			last_active_at DATETIME NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chat_session_user ON chat_session(user_id, last_active_at)`,
		`CREATE TABLE IF NOT EXISTS chat_message (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (session_id) REFERENCES chat_session(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chat_message_session ON chat_message(session_id, created_at)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}

	// Add new columns for existing DBs (SQLite has limited ALTER TABLE support).
	if err := s.ensureColumn("chat_message", "metadata_json", "ALTER TABLE chat_message ADD COLUMN metadata_json TEXT"); err != nil {
		return err
	}

	return nil
}

func (s *SQLiteStore) ensureColumn(tableName, columnName, ddl string) error {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", tableName))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull int
		var dfltValue sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return err
		}
		if name == columnName {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	_, err = s.db.Exec(ddl)
	return err
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateSession inserts a new session.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *domain.Session) error {
	status := sessionStatusInactive
	if session.Active {
		status = sessionStatusActive
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_session (id, user_id, type, title, status, last_active_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		session.SessionID, session.UserID, session.Type, nullString(session.Title), status,
		session.LastActiveAt.UTC(), session.CreatedAt.UTC(), session.UpdatedAt.UTC())
	return err
}

// GetSession returns the session or nil if it does not exist. Inactive
// sessions are returned with Active unset.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	var session domain.Session
	var title sql.NullString
	var status int
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, type, title, status, last_active_at, created_at, updated_at
		 FROM chat_session WHERE id = ?`,
		sessionID).Scan(&session.SessionID, &session.UserID, &session.Type, &title, &status,
		&session.LastActiveAt, &session.CreatedAt, &session.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	session.Title = title.String
	session.Active = status == sessionStatusActive
	return &session, nil
}

// DeactivateSession logically deletes a session.
func (s *SQLiteStore) DeactivateSession(ctx context.Context, sessionID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE chat_session SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		sessionStatusInactive, at.UTC(), sessionID, sessionStatusActive)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ListMessages returns the most recent limit messages of a session, oldest
// first. A non-positive limit returns every message.
func (s *SQLiteStore) ListMessages(ctx context.Context, sessionID string, limit int) ([]domain.Message, error) {
	query := `SELECT id, session_id, role, content, metadata_json, created_at
		FROM chat_message WHERE session_id = ?
		ORDER BY created_at DESC, rowid DESC`
	args := []interface{}{sessionID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		var role string
		var metadata sql.NullString
		if err := rows.Scan(&msg.MessageID, &msg.SessionID, &role, &msg.Content, &metadata, &msg.CreatedAt); err != nil {
			return nil, err
		}
		msg.Role = domain.Role(role)
		if metadata.Valid {
			meta, err := domain.UnmarshalMetadataDocument([]byte(metadata.String))
			if err != nil {
				return nil, fmt.Errorf("decode metadata of message %s: %w", msg.MessageID, err)
			}
			msg.Metadata = meta
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.Reverse(messages)
	return messages, nil
}

// PersistTurn writes one turn atomically. A missing or inactive session
// yields ErrSessionNotFound and nothing is written; any failure rolls back
// every write of the turn.
func (s *SQLiteStore) PersistTurn(ctx context.Context, turn *Turn) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin turn transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var status int
	err = tx.QueryRowContext(ctx, `SELECT status FROM chat_session WHERE id = ?`, turn.SessionID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && status != sessionStatusActive) {
		return ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("lookup session: %w", err)
	}

	at := turn.At.UTC()
	if _, err = tx.ExecContext(ctx,
		`UPDATE chat_session SET last_active_at = ?, updated_at = ? WHERE id = ?`,
		at, at, turn.SessionID); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}

	for _, msg := range []*domain.Message{turn.User, turn.Assistant} {
		if err = insertMessage(ctx, tx, turn.SessionID, msg, at); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit turn: %w", err)
	}
	return nil
}

func insertMessage(ctx context.Context, tx *sql.Tx, sessionID string, msg *domain.Message, at time.Time) error {
	doc, err := msg.Metadata.MarshalDocument()
	if err != nil {
		return fmt.Errorf("encode %s metadata: %w", msg.Role, err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO chat_message (id, session_id, role, content, metadata_json, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		msg.MessageID, sessionID, string(msg.Role), msg.Content, nullStringBytes(doc), at)
	if err != nil {
		return fmt.Errorf("insert %s message: %w", msg.Role, err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullStringBytes(b []byte) sql.NullString {
	if len(b) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}
