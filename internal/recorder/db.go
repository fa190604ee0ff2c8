// Package recorder persists simulation output: magnetization series and
// shock events to SQLite, and optional grid frames to a compressed archive.
// It records what the run produced, never the live lattice state.
package recorder

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/jbaussand/spin-market/internal/lattice"
)

// DB wraps a SQLite connection for run output storage.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		seed INTEGER NOT NULL,
		height INTEGER NOT NULL,
		width INTEGER NOT NULL,
		init_up REAL NOT NULL,
		neutral_fraction REAL NOT NULL,
		neutral_region TEXT NOT NULL,
		privileged_fraction REAL NOT NULL,
		privileged_factor REAL NOT NULL,
		neighbor_coupling REAL NOT NULL,
		alpha REAL NOT NULL
	);
	CREATE TABLE IF NOT EXISTS samples (
		run_id TEXT NOT NULL,
		sweep INTEGER NOT NULL,
		magnetization REAL NOT NULL,
		market_coupling REAL NOT NULL,
		PRIMARY KEY (run_id, sweep)
	);
	CREATE TABLE IF NOT EXISTS shocks (
		run_id TEXT NOT NULL,
		sweep INTEGER NOT NULL,
		fraction REAL NOT NULL,
		region TEXT NOT NULL
	);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Sample is one sweep's recorded output.
type Sample struct {
	Sweep          int     `db:"sweep"`
	Magnetization  float64 `db:"magnetization"`
	MarketCoupling float64 `db:"market_coupling"`
}

// StartRun registers a new run and returns its ID.
func (db *DB) StartRun(cfg lattice.Config, seed int64, neighborCoupling, alpha float64) (string, error) {
	id := uuid.NewString()
	region := cfg.NeutralRegion
	if region == "" {
		region = lattice.RegionRandom
	}
	_, err := db.conn.Exec(`
		INSERT INTO runs (id, started_at, seed, height, width, init_up,
			neutral_fraction, neutral_region, privileged_fraction,
			privileged_factor, neighbor_coupling, alpha)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, time.Now().UTC().Format(time.RFC3339), seed,
		cfg.Height, cfg.Width, cfg.InitUp,
		cfg.NeutralFraction, string(region),
		cfg.PrivilegedFraction, cfg.PrivilegedFactor,
		neighborCoupling, alpha)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// AppendSamples writes a batch of sweep samples in one transaction.
func (db *DB) AppendSamples(runID string, samples []Sample) error {
	if len(samples) == 0 {
		return nil
	}
	tx, err := db.conn.Beginx()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	for _, s := range samples {
		if _, err := tx.Exec(`
			INSERT INTO samples (run_id, sweep, magnetization, market_coupling)
			VALUES (?, ?, ?, ?)`,
			runID, s.Sweep, s.Magnetization, s.MarketCoupling); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert sample %d: %w", s.Sweep, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save samples: %w", err)
	}
	return nil
}

// RecordShock logs a shock injection against a run.
func (db *DB) RecordShock(runID string, sweep int, fraction float64, region lattice.Region) error {
	_, err := db.conn.Exec(`
		INSERT INTO shocks (run_id, sweep, fraction, region) VALUES (?, ?, ?, ?)`,
		runID, sweep, fraction, string(region))
	if err != nil {
		return fmt.Errorf("insert shock: %w", err)
	}
	return nil
}

// Samples returns a run's recorded series in sweep order.
func (db *DB) Samples(runID string) ([]Sample, error) {
	var out []Sample
	err := db.conn.Select(&out, `
		SELECT sweep, magnetization, market_coupling
		FROM samples WHERE run_id = ? ORDER BY sweep`, runID)
	if err != nil {
		return nil, fmt.Errorf("load samples: %w", err)
	}
	return out, nil
}
