// Package config manages sprocket's own state: the registry of SQL Server
// targets procedures are deployed to, and a small key-value settings table.
// State is persisted in a local SQLite database.
package config

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/sprocketdb/sprocket/internal/model"
)

// Store persists target registrations and settings, backed by SQLite.
type Store struct {
	db *sqlx.DB
}

// NewStore creates a new config store. Pass empty string for in-memory.
func NewStore(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == "" {
		dsn = ":memory:?_journal_mode=WAL"
	} else {
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		dsn = filepath.Join(dataDir, "sprocket.db") + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open config database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate config database: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// Target CRUD
// ---------------------------------------------------------------------------

// targetRow is a flat struct that maps 1:1 to the targets table columns.
// We use it for sqlx scanning because model.Target has a nested Pool struct
// that doesn't map directly to columns.
type targetRow struct {
	ID                int64     `db:"id"`
	Name              string    `db:"name"`
	Label             string    `db:"label"`
	DSN               string    `db:"dsn"`
	SchemaName        string    `db:"schema_name"`
	Language          string    `db:"language"`
	IsActive          bool      `db:"is_active"`
	MaxOpenConns      int       `db:"max_open_conns"`
	MaxIdleConns      int       `db:"max_idle_conns"`
	ConnMaxLifetimeMs int64     `db:"conn_max_lifetime_ms"`
	ConnMaxIdleTimeMs int64     `db:"conn_max_idle_time_ms"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

func targetRowFromModel(tgt *model.Target) targetRow {
	return targetRow{
		ID:                tgt.ID,
		Name:              tgt.Name,
		Label:             tgt.Label,
		DSN:               tgt.DSN,
		SchemaName:        tgt.Schema,
		Language:          tgt.Language,
		IsActive:          tgt.IsActive,
		MaxOpenConns:      tgt.Pool.MaxOpenConns,
		MaxIdleConns:      tgt.Pool.MaxIdleConns,
		ConnMaxLifetimeMs: tgt.Pool.ConnMaxLifetime.Milliseconds(),
		ConnMaxIdleTimeMs: tgt.Pool.ConnMaxIdleTime.Milliseconds(),
		CreatedAt:         tgt.CreatedAt,
		UpdatedAt:         tgt.UpdatedAt,
	}
}

func (r targetRow) toModel() model.Target {
	return model.Target{
		ID:       r.ID,
		Name:     r.Name,
		Label:    r.Label,
		DSN:      r.DSN,
		Schema:   r.SchemaName,
		Language: r.Language,
		IsActive: r.IsActive,
		Pool: model.PoolConfig{
			MaxOpenConns:    r.MaxOpenConns,
			MaxIdleConns:    r.MaxIdleConns,
			ConnMaxLifetime: time.Duration(r.ConnMaxLifetimeMs) * time.Millisecond,
			ConnMaxIdleTime: time.Duration(r.ConnMaxIdleTimeMs) * time.Millisecond,
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// CreateTarget inserts a new target registration. The ID, CreatedAt, and
// UpdatedAt fields on tgt are populated after a successful insert.
func (s *Store) CreateTarget(ctx context.Context, tgt *model.Target) error {
	now := time.Now().UTC()
	tgt.CreatedAt = now
	tgt.UpdatedAt = now

	row := targetRowFromModel(tgt)

	const q = `INSERT INTO targets
		(name, label, dsn, schema_name, language, is_active,
		 max_open_conns, max_idle_conns, conn_max_lifetime_ms, conn_max_idle_time_ms,
		 created_at, updated_at)
		VALUES
		(:name, :label, :dsn, :schema_name, :language, :is_active,
		 :max_open_conns, :max_idle_conns, :conn_max_lifetime_ms, :conn_max_idle_time_ms,
		 :created_at, :updated_at)`

	result, err := s.db.NamedExecContext(ctx, q, row)
	if err != nil {
		return fmt.Errorf("insert target: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get target id: %w", err)
	}
	tgt.ID = id
	return nil
}

// GetTarget returns a target by ID.
func (s *Store) GetTarget(ctx context.Context, id int64) (*model.Target, error) {
	var row targetRow
	if err := s.db.GetContext(ctx, &row, "SELECT * FROM targets WHERE id = ?", id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get target: %w", err)
	}
	tgt := row.toModel()
	return &tgt, nil
}

// GetTargetByName returns a target by its unique name.
func (s *Store) GetTargetByName(ctx context.Context, name string) (*model.Target, error) {
	var row targetRow
	if err := s.db.GetContext(ctx, &row, "SELECT * FROM targets WHERE name = ?", name); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get target by name: %w", err)
	}
	tgt := row.toModel()
	return &tgt, nil
}

// ListTargets returns all registered targets ordered by name.
func (s *Store) ListTargets(ctx context.Context) ([]model.Target, error) {
	var rows []targetRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT * FROM targets ORDER BY name"); err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}

	targets := make([]model.Target, len(rows))
	for i, r := range rows {
		targets[i] = r.toModel()
	}
	return targets, nil
}

// UpdateTarget updates an existing target registration. The UpdatedAt field
// on tgt is refreshed automatically.
func (s *Store) UpdateTarget(ctx context.Context, tgt *model.Target) error {
	tgt.UpdatedAt = time.Now().UTC()
	row := targetRowFromModel(tgt)

	const q = `UPDATE targets SET
		name = :name, label = :label, dsn = :dsn, schema_name = :schema_name,
		language = :language, is_active = :is_active,
		max_open_conns = :max_open_conns, max_idle_conns = :max_idle_conns,
		conn_max_lifetime_ms = :conn_max_lifetime_ms, conn_max_idle_time_ms = :conn_max_idle_time_ms,
		updated_at = :updated_at
		WHERE id = :id`

	result, err := s.db.NamedExecContext(ctx, q, row)
	if err != nil {
		return fmt.Errorf("update target: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update target rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTarget removes a target registration by ID.
func (s *Store) DeleteTarget(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM targets WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete target: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete target rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ---------------------------------------------------------------------------
// Settings
// ---------------------------------------------------------------------------

// GetSetting returns the value stored under key, or "" when the key is unset.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.GetContext(ctx, &value, "SELECT value FROM settings WHERE key = ?", key)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

// SetSetting stores a value under key, replacing any previous value.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	const q = `INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	if _, err := s.db.ExecContext(ctx, q, key, value); err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}
