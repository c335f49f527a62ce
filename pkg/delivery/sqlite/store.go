// Package sqlite provides a SQLite-backed delivery store.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Truthmedia123/weddingreplit-sub000/pkg/delivery"
)

//go:embed schema.sql
var schema string

// Store persists delivery entries in SQLite.
type Store struct {
	sqlDB *sql.DB
}

var _ delivery.Store = (*Store)(nil)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// Open opens (creating if needed) a SQLite delivery store at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer keeps redeem transactions strictly serial.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) Put(ctx context.Context, token string, entries []delivery.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM deliveries WHERE token = ? LIMIT 1`, token).Scan(&exists)
	switch {
	case err == nil:
		return delivery.ErrDuplicate
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("check token: %w", err)
	}

	for _, e := range entries {
		data := e.Data
		if data == nil {
			data = []byte{}
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO deliveries (
			   token, format, content_type, filename, template_id, generation_id,
			   data, expires_at, purge_at
			 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			token,
			e.Format,
			e.ContentType,
			e.Filename,
			e.TemplateID,
			e.GenerationID,
			data,
			toMillis(e.ExpiresAt),
			toMillis(e.PurgeAt),
		)
		if err != nil {
			return fmt.Errorf("insert %s: %w", e.Format, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) Redeem(ctx context.Context, token, format string, now time.Time) (delivery.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return delivery.Artifact{}, err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return delivery.Artifact{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	art := delivery.Artifact{Format: format}
	var (
		expiresAt  int64
		consumedAt sql.NullInt64
	)
	err = tx.QueryRowContext(ctx,
		`SELECT content_type, filename, template_id, generation_id, data, expires_at, consumed_at
		 FROM deliveries WHERE token = ? AND format = ?`,
		token, format,
	).Scan(&art.ContentType, &art.Filename, &art.TemplateID, &art.GenerationID, &art.Data, &expiresAt, &consumedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return delivery.Artifact{}, delivery.ErrNotFound
	case err != nil:
		return delivery.Artifact{}, fmt.Errorf("select: %w", err)
	case consumedAt.Valid:
		return delivery.Artifact{}, delivery.ErrConsumed
	}

	nowMs := toMillis(now)
	if nowMs >= expiresAt {
		if _, err := tx.ExecContext(ctx,
			`UPDATE deliveries SET data = NULL WHERE token = ? AND format = ?`, token, format,
		); err != nil {
			return delivery.Artifact{}, fmt.Errorf("release expired: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return delivery.Artifact{}, fmt.Errorf("commit: %w", err)
		}
		return delivery.Artifact{}, delivery.ErrExpired
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE deliveries SET consumed_at = ?, data = NULL
		 WHERE token = ? AND format = ? AND consumed_at IS NULL`,
		nowMs, token, format,
	)
	if err != nil {
		return delivery.Artifact{}, fmt.Errorf("consume: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return delivery.Artifact{}, fmt.Errorf("consume: %w", err)
	} else if n == 0 {
		return delivery.Artifact{}, delivery.ErrConsumed
	}
	if err := tx.Commit(); err != nil {
		return delivery.Artifact{}, fmt.Errorf("commit: %w", err)
	}
	return art, nil
}

func (s *Store) Sweep(ctx context.Context, now time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	nowMs := toMillis(now)

	purged, err := s.sqlDB.ExecContext(ctx, `DELETE FROM deliveries WHERE purge_at <= ?`, nowMs)
	if err != nil {
		return 0, fmt.Errorf("purge: %w", err)
	}
	released, err := s.sqlDB.ExecContext(ctx,
		`UPDATE deliveries SET data = NULL WHERE expires_at <= ? AND data IS NOT NULL`, nowMs)
	if err != nil {
		return 0, fmt.Errorf("release: %w", err)
	}

	p, err := purged.RowsAffected()
	if err != nil {
		return 0, err
	}
	r, err := released.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(p + r), nil
}
