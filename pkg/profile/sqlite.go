package profile

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS profiles (
	name       TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS profile_paths (
	profile  TEXT NOT NULL,
	position INTEGER NOT NULL,
	path     TEXT NOT NULL,
	PRIMARY KEY (profile, position)
);
`

// SQLiteStore keeps profiles in a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(path string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating profile directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLiteStore{db: db, logger: logger.With(zap.String("store", path))}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) Save(p Profile) error {
	p, err := normalize(p)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM profile_paths WHERE profile = ?`, p.Name); err != nil {
		return fmt.Errorf("clearing paths: %w", err)
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO profiles (name, created_at) VALUES (?, ?)`, p.Name, p.CreatedAt.Unix()); err != nil {
		return fmt.Errorf("inserting profile: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO profile_paths (profile, position, path) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, path := range p.Paths {
		if _, err := stmt.Exec(p.Name, i, path); err != nil {
			return fmt.Errorf("inserting path %s: %w", path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	s.logger.Debug("Saved profile", zap.String("name", p.Name), zap.Int("paths", len(p.Paths)))
	return nil
}

func (s *SQLiteStore) Load(name string) (Profile, error) {
	name, err := normalizeName(name)
	if err != nil {
		return Profile{}, err
	}

	var created int64
	err = s.db.QueryRow(`SELECT created_at FROM profiles WHERE name = ?`, name).Scan(&created)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return Profile{}, fmt.Errorf("loading profile: %w", err)
	}

	paths, err := s.paths(name)
	if err != nil {
		return Profile{}, err
	}
	return Profile{Name: name, Paths: paths, CreatedAt: time.Unix(created, 0).UTC()}, nil
}

func (s *SQLiteStore) paths(name string) ([]string, error) {
	rows, err := s.db.Query(`SELECT path FROM profile_paths WHERE profile = ? ORDER BY position`, name)
	if err != nil {
		return nil, fmt.Errorf("loading paths: %w", err)
	}
	defer rows.Close()

	paths := []string{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

func (s *SQLiteStore) Delete(name string) error {
	name, err := normalizeName(name)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM profiles WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("deleting profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if _, err := tx.Exec(`DELETE FROM profile_paths WHERE profile = ?`, name); err != nil {
		return fmt.Errorf("deleting paths: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) Rename(oldName, newName string) error {
	oldName, err := normalizeName(oldName)
	if err != nil {
		return err
	}
	newName, err = normalizeName(newName)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM profiles WHERE name = ?`, oldName).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, oldName)
	}
	if oldName == newName {
		return nil
	}
	if err := tx.QueryRow(`SELECT COUNT(*) FROM profiles WHERE name = ?`, newName).Scan(&exists); err != nil {
		return err
	}
	if exists > 0 {
		return fmt.Errorf("%w: %s", ErrExists, newName)
	}

	if _, err := tx.Exec(`UPDATE profiles SET name = ? WHERE name = ?`, newName, oldName); err != nil {
		return fmt.Errorf("renaming profile: %w", err)
	}
	if _, err := tx.Exec(`UPDATE profile_paths SET profile = ? WHERE profile = ?`, newName, oldName); err != nil {
		return fmt.Errorf("renaming paths: %w", err)
	}
	return tx.Commit()
}

// List returns every profile sorted by name.
func (s *SQLiteStore) List() ([]Profile, error) {
	rows, err := s.db.Query(`SELECT name, created_at FROM profiles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	var out []Profile
	for rows.Next() {
		var p Profile
		var created int64
		if err := rows.Scan(&p.Name, &created); err != nil {
			rows.Close()
			return nil, err
		}
		p.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if out[i].Paths, err = s.paths(out[i].Name); err != nil {
			return nil, err
		}
	}
	return out, nil
}
