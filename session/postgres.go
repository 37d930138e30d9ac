package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq" // registers the postgres driver for OpenPostgres
)

// PostgresStore persists the session entries as rows in a two-column
// key/value table, one namespace per device or browser profile. It is
// intended for installs that already run Postgres and carry no Redis.
type PostgresStore struct {
	db        *sql.DB
	namespace string
}

// NewPostgresStore creates a store over an existing database handle.
// The namespace isolates tuples of different devices sharing one table.
func NewPostgresStore(db *sql.DB, namespace string) *PostgresStore {
	if namespace == "" {
		namespace = "default"
	}
	return &PostgresStore{
		db:        db,
		namespace: namespace,
	}
}

// OpenPostgres opens a connection with the pq driver and returns a
// store over it with the schema ensured. Callers that manage their own
// pool use [NewPostgresStore] instead.
func OpenPostgres(ctx context.Context, dsn, namespace string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	store := NewPostgresStore(db, namespace)
	if err := store.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// EnsureSchema creates the backing table when it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS console_session_entries (
	namespace   TEXT NOT NULL,
	entry_key   TEXT NOT NULL,
	entry_value TEXT NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (namespace, entry_key)
)`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Load describes the load operation and its observable behavior.
//
// Load does not mutate shared global state and can be used concurrently.
func (s *PostgresStore) Load(ctx context.Context) (Record, error) {
	const query = `SELECT entry_key, entry_value FROM console_session_entries WHERE namespace = $1 AND entry_key IN ($2, $3)`

	rows, err := s.db.QueryContext(ctx, query, s.namespace, KeyCredential, KeyPrincipal)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var credential, principal []byte
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return Record{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		switch key {
		case KeyCredential:
			credential = []byte(value)
		case KeyPrincipal:
			principal = []byte(value)
		}
	}
	if err := rows.Err(); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return decodeRecord(credential, principal), nil
}

// Save upserts both entries inside one transaction.
func (s *PostgresStore) Save(ctx context.Context, rec Record) error {
	principal, err := encodePrincipal(rec.Principal)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.upsertOrDelete(ctx, tx, KeyCredential, rec.Token != "", rec.Token); err != nil {
		return err
	}
	if err := s.upsertOrDelete(ctx, tx, KeyPrincipal, principal != nil, string(principal)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) upsertOrDelete(ctx context.Context, tx *sql.Tx, key string, present bool, value string) error {
	if !present {
		const del = `DELETE FROM console_session_entries WHERE namespace = $1 AND entry_key = $2`
		if _, err := tx.ExecContext(ctx, del, s.namespace, key); err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return nil
	}

	const upsert = `
INSERT INTO console_session_entries (namespace, entry_key, entry_value, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (namespace, entry_key)
DO UPDATE SET entry_value = EXCLUDED.entry_value, updated_at = now()`
	if _, err := tx.ExecContext(ctx, upsert, s.namespace, key, value); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Clear removes both entries for the namespace.
func (s *PostgresStore) Clear(ctx context.Context) error {
	const del = `DELETE FROM console_session_entries WHERE namespace = $1 AND entry_key IN ($2, $3)`
	if _, err := s.db.ExecContext(ctx, del, s.namespace, KeyCredential, KeyPrincipal); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
