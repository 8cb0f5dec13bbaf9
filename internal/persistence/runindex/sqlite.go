// Package runindex keeps a SQLite summary of runs and episodes. It is a
// secondary read model for browsing results; the authoritative record is the
// resolved config plus the episode logs, and losing the index never affects
// reproducibility.
package runindex

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

type DB struct {
	db *sql.DB
}

type Run struct {
	RunID      string
	CreatedAt  string
	ConfigJSON string
	Seed       int64
	Episodes   int
}

type Episode struct {
	RunID       string
	Episode     int
	Seed        int64
	Steps       int
	TotalReward float64
	Apples      int
	Zaps        int
	Tax         float64
	FinalDigest string
}

func Open(path string) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error { return d.db.Close() }

func initPragmas(db *sql.DB) error {
	// WAL suits the append-only write pattern; NORMAL is enough durability
	// for a secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			config_json TEXT NOT NULL,
			seed INTEGER NOT NULL,
			episodes INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS episodes (
			run_id TEXT NOT NULL REFERENCES runs(run_id),
			episode INTEGER NOT NULL,
			seed INTEGER NOT NULL,
			steps INTEGER NOT NULL,
			total_reward REAL NOT NULL,
			apples INTEGER NOT NULL,
			zaps INTEGER NOT NULL,
			tax REAL NOT NULL,
			final_digest TEXT NOT NULL,
			PRIMARY KEY (run_id, episode)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_episodes_run ON episodes(run_id);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (d *DB) InsertRun(r Run) error {
	if r.CreatedAt == "" {
		r.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	_, err := d.db.Exec(
		`INSERT INTO runs (run_id, created_at, config_json, seed, episodes) VALUES (?, ?, ?, ?, ?)`,
		r.RunID, r.CreatedAt, r.ConfigJSON, r.Seed, r.Episodes)
	return err
}

func (d *DB) InsertEpisode(e Episode) error {
	_, err := d.db.Exec(
		`INSERT INTO episodes (run_id, episode, seed, steps, total_reward, apples, zaps, tax, final_digest)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.Episode, e.Seed, e.Steps, e.TotalReward, e.Apples, e.Zaps, e.Tax, e.FinalDigest)
	return err
}

// EpisodesForRun returns episode summaries in episode order.
func (d *DB) EpisodesForRun(runID string) ([]Episode, error) {
	rows, err := d.db.Query(
		`SELECT run_id, episode, seed, steps, total_reward, apples, zaps, tax, final_digest
		 FROM episodes WHERE run_id = ? ORDER BY episode`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Episode
	for rows.Next() {
		var e Episode
		if err := rows.Scan(&e.RunID, &e.Episode, &e.Seed, &e.Steps, &e.TotalReward, &e.Apples, &e.Zaps, &e.Tax, &e.FinalDigest); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
