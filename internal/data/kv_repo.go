package data

// Package data holds the Postgres-backed session store.

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/danxi/authgate/internal/data/pgxutil"
	apperrors "github.com/danxi/authgate/internal/errors"
	"github.com/danxi/authgate/internal/ports"
	"github.com/jackc/pgx/v5"
)

// KVRepo stores session state as rows in kv_entries, one row per key.
type KVRepo struct {
	DB     *sql.DB
	Prefix string
}

var _ ports.KVStore = (*KVRepo)(nil)

// NewKVRepo creates a new KVRepo. Keys are stored with the given prefix.
func NewKVRepo(db *sql.DB, prefix string) *KVRepo {
	return &KVRepo{DB: db, Prefix: prefix}
}

const (
	kvSelect = `SELECT value FROM kv_entries WHERE key = $1`
	kvUpsert = `
		INSERT INTO kv_entries (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	kvDelete = `DELETE FROM kv_entries WHERE key = $1`
)

func (r *KVRepo) GetObject(ctx context.Context, key string, dst any) (bool, error) {
	raw, found, err := r.GetString(ctx, key)
	if err != nil || !found {
		return false, err
	}
	if unmarshalErr := json.Unmarshal([]byte(raw), dst); unmarshalErr != nil {
		return false, fmt.Errorf("unmarshal %s: %w", key, unmarshalErr)
	}
	return true, nil
}

func (r *KVRepo) SetObject(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return r.SetString(ctx, key, string(data))
}

func (r *KVRepo) GetString(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, errors.New("key cannot be empty")
	}
	var value string
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, kvSelect, r.Prefix+key).Scan(&value)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select %s: %w", key, apperrors.MapDBError(err))
	}
	return value, true, nil
}

func (r *KVRepo) SetString(ctx context.Context, key, value string) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, execErr := conn.Exec(ctx, kvUpsert, r.Prefix+key, value)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("upsert %s: %w", key, apperrors.MapDBError(err))
	}
	return nil
}

// Delete removes a key. Missing keys are not an error.
func (r *KVRepo) Delete(ctx context.Context, key string) error {
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, execErr := conn.Exec(ctx, kvDelete, r.Prefix+key)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, apperrors.MapDBError(err))
	}
	return nil
}
