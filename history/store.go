// Package history records emitted wireless notifications in a local sqlite
// database so that state transitions can be reviewed later.
package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/yllada/wifi-manager/common"
	"github.com/yllada/wifi-manager/wireless"
)

// Entry is one recorded notification.
type Entry struct {
	ID             int64     `db:"id"`
	At             time.Time `db:"at"`
	IsEnabled      bool      `db:"is_enabled"`
	IsConnected    bool      `db:"is_connected"`
	SignalStrength string    `db:"signal_strength"`
}

// Event converts the entry back to the notification it recorded.
func (e Entry) Event() wireless.NotificationEvent {
	return wireless.NotificationEvent{
		SignalStrength: e.SignalStrength,
		IsConnected:    e.IsConnected,
		IsEnabled:      e.IsEnabled,
	}
}

// Store is a sqlite-backed notification log.
type Store struct {
	db  *sqlx.DB
	log common.Logger
}

// DefaultPath returns the history database location in the data directory.
func DefaultPath() (string, error) {
	dir, err := common.GetDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, common.HistoryFileName), nil
}

// Open opens (creating if needed) the database at path.
func Open(path string, log common.Logger) (*Store, error) {
	if log == nil {
		log = common.NopLogger{}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	// sqlite allows a single writer.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, log: log}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS notifications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		at TIMESTAMP NOT NULL,
		is_enabled BOOLEAN NOT NULL,
		is_connected BOOLEAN NOT NULL,
		signal_strength TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_notifications_at ON notifications(at);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create history tables: %w", err)
	}
	return nil
}

// Record appends an event observed at the given time.
func (s *Store) Record(ctx context.Context, event wireless.NotificationEvent, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notifications (at, is_enabled, is_connected, signal_strength) VALUES (?, ?, ?, ?)`,
		at.UTC(), event.IsEnabled, event.IsConnected, event.SignalStrength)
	if err != nil {
		return fmt.Errorf("failed to record notification: %w", err)
	}
	return nil
}

// Observer returns a notifier observer that records every event.
func (s *Store) Observer() func(wireless.NotificationEvent) {
	return func(event wireless.NotificationEvent) {
		ctx, cancel := context.WithTimeout(context.Background(), common.CallTimeout)
		defer cancel()
		if err := s.Record(ctx, event, time.Now()); err != nil {
			s.log.Warn("%v", err)
		}
	}
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	var entries []Entry
	err := s.db.SelectContext(ctx, &entries,
		`SELECT id, at, is_enabled, is_connected, signal_strength
		 FROM notifications ORDER BY at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return entries, nil
}

// Prune deletes entries older than cutoff and reports how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notifications WHERE at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
