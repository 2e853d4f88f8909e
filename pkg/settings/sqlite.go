package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS ints (
	key   TEXT PRIMARY KEY,
	value INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS profiles (
	ssid       TEXT PRIMARY KEY,
	password   TEXT NOT NULL,
	sealed     INTEGER NOT NULL DEFAULT 0,
	seq        INTEGER NOT NULL,
	updated_at TEXT NOT NULL
);
`

// sqliteOpTimeout bounds every statement; the Store interface carries no context.
const sqliteOpTimeout = 5 * time.Second

// SQLiteStore keeps settings in an SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	sealer *Sealer
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
// sealer may be nil.
func OpenSQLite(ctx context.Context, path string, sealer *Sealer) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(FULL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db, sealer: sealer}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// GetInt returns the integer stored under key.
func (s *SQLiteStore) GetInt(key string) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), sqliteOpTimeout)
	defer cancel()

	var v int
	err := s.db.QueryRowContext(ctx, `SELECT value FROM ints WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get int %s: %w", key, err)
	}
	return v, nil
}

// SetInt stores an integer under key.
func (s *SQLiteStore) SetInt(key string, value int) error {
	ctx, cancel := context.WithTimeout(context.Background(), sqliteOpTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
INSERT INTO ints(key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value
`, key, value)
	if err != nil {
		return fmt.Errorf("set int %s: %w", key, err)
	}
	return nil
}

// AddProfile upserts the profile as the most recent one and trims the table
// to MaxProfiles, all in one transaction.
func (s *SQLiteStore) AddProfile(p Profile) error {
	if err := validate(p); err != nil {
		return err
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}
	pw, err := s.sealer.Seal(p.Password)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), sqliteOpTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
INSERT INTO profiles(ssid, password, sealed, seq, updated_at)
VALUES (?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM profiles), ?)
ON CONFLICT(ssid) DO UPDATE SET
	password=excluded.password,
	sealed=excluded.sealed,
	seq=excluded.seq,
	updated_at=excluded.updated_at
`, p.SSID, pw, boolToInt(s.sealer.Enabled()), p.UpdatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
DELETE FROM profiles WHERE ssid NOT IN (
	SELECT ssid FROM profiles ORDER BY seq DESC LIMIT ?
)`, MaxProfiles)
	if err != nil {
		return fmt.Errorf("trim profiles: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Profiles returns the stored profiles, most recent first.
func (s *SQLiteStore) Profiles() ([]Profile, error) {
	ctx, cancel := context.WithTimeout(context.Background(), sqliteOpTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT ssid, password, sealed, updated_at FROM profiles ORDER BY seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var out []Profile
	for rows.Next() {
		var (
			p       Profile
			sealed  int
			updated string
		)
		if err := rows.Scan(&p.SSID, &p.Password, &sealed, &updated); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		if sealed != 0 {
			if !s.sealer.Enabled() {
				return nil, fmt.Errorf("profile %q: %w: no sealing key configured", p.SSID, ErrSealedData)
			}
			if p.Password, err = s.sealer.Open(p.Password); err != nil {
				return nil, fmt.Errorf("profile %q: %w", p.SSID, err)
			}
		}
		if t, err := time.Parse(time.RFC3339Nano, updated); err == nil {
			p.UpdatedAt = t
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Compile-time interface satisfaction check.
var _ Store = (*SQLiteStore)(nil)
