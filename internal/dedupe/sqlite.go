package dedupe

import (
	"context"
	"fmt"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS processed_requests (
	request_id   TEXT PRIMARY KEY,
	processed_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_processed_at
	ON processed_requests(processed_at);
`

// SQLiteStore is the durable Store backend. The request_id primary key
// makes the insert in CheckAndMark the atomic claim: a conflicting
// insert changes zero rows, which signals a duplicate without any
// application-level locking.
type SQLiteStore struct {
	pool *sqlitex.Pool
	ttl  time.Duration
	now  func() time.Time
}

// OpenSQLiteStore opens (and creates if needed) the database at path
// and ensures the schema exists. A non-positive ttl falls back to
// DefaultTTL.
func OpenSQLiteStore(path string, ttl time.Duration) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("dedupe: sqlite path is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	pool, err := sqlitex.NewPool(path, sqlitex.PoolOptions{
		Flags:    sqlite.OpenReadWrite | sqlite.OpenCreate | sqlite.OpenWAL,
		PoolSize: 4,
	})
	if err != nil {
		return nil, fmt.Errorf("dedupe: opening %s: %w", path, err)
	}

	store := &SQLiteStore{pool: pool, ttl: ttl, now: time.Now}
	if err := store.initSchema(context.Background()); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("dedupe: acquiring connection: %w", err)
	}
	defer s.pool.Put(conn)

	if err := sqlitex.ExecuteScript(conn, sqliteSchema, nil); err != nil {
		return fmt.Errorf("dedupe: creating schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CheckAndMark(ctx context.Context, id string) (bool, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return false, fmt.Errorf("dedupe: acquiring connection: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		"INSERT OR IGNORE INTO processed_requests (request_id, processed_at) VALUES (?, ?)",
		&sqlitex.ExecOptions{
			Args: []any{id, s.now().Unix()},
		})
	if err != nil {
		return false, fmt.Errorf("dedupe: claiming %s: %w", id, err)
	}

	// One changed row means the insert won; zero means the id existed.
	return conn.Changes() == 1, nil
}

func (s *SQLiteStore) IsDuplicate(ctx context.Context, id string) (bool, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return false, fmt.Errorf("dedupe: acquiring connection: %w", err)
	}
	defer s.pool.Put(conn)

	found := false
	err = sqlitex.Execute(conn,
		"SELECT 1 FROM processed_requests WHERE request_id = ?",
		&sqlitex.ExecOptions{
			Args: []any{id},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				found = true
				return nil
			},
		})
	if err != nil {
		return false, fmt.Errorf("dedupe: looking up %s: %w", id, err)
	}
	return found, nil
}

func (s *SQLiteStore) MarkProcessed(ctx context.Context, id string) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("dedupe: acquiring connection: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		"INSERT OR REPLACE INTO processed_requests (request_id, processed_at) VALUES (?, ?)",
		&sqlitex.ExecOptions{
			Args: []any{id, s.now().Unix()},
		})
	if err != nil {
		return fmt.Errorf("dedupe: marking %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) Unmark(ctx context.Context, id string) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("dedupe: acquiring connection: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		"DELETE FROM processed_requests WHERE request_id = ?",
		&sqlitex.ExecOptions{
			Args: []any{id},
		})
	if err != nil {
		return fmt.Errorf("dedupe: unmarking %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) CleanupExpired(ctx context.Context) (int, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("dedupe: acquiring connection: %w", err)
	}
	defer s.pool.Put(conn)

	cutoff := s.now().Add(-s.ttl).Unix()
	err = sqlitex.Execute(conn,
		"DELETE FROM processed_requests WHERE processed_at < ?",
		&sqlitex.ExecOptions{
			Args: []any{cutoff},
		})
	if err != nil {
		return 0, fmt.Errorf("dedupe: cleanup: %w", err)
	}
	return conn.Changes(), nil
}

func (s *SQLiteStore) Close() error {
	return s.pool.Close()
}
