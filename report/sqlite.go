package report

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zeu5/osm-deviation-rl/types"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT PRIMARY KEY,
	experiment  TEXT NOT NULL,
	run         INTEGER NOT NULL,
	episodes    INTEGER NOT NULL,
	created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS episode_metrics (
	run_id      TEXT NOT NULL,
	episode     INTEGER NOT NULL,
	steps       INTEGER NOT NULL,
	reward      REAL NOT NULL,
	delta       REAL NOT NULL,
	duration    REAL NOT NULL,
	epsilon     REAL NOT NULL,
	PRIMARY KEY (run_id, episode),
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);
`

// SQLiteSink stores the episode reports of every run in a SQLite database
type SQLiteSink struct {
	db *sql.DB
}

var _ types.Sink = &SQLiteSink{}

// NewSQLiteSink opens the database and creates the tables
func NewSQLiteSink(dbPath string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// an in-memory database lives in a single connection
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLiteSink{db: db}, nil
}

// Close closes the underlying database connection
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

// DB exposes the connection for queries
func (s *SQLiteSink) DB() *sql.DB {
	return s.db
}

func (s *SQLiteSink) Record(experiment string, run int, episodes []types.EpisodeMetrics) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	runID := uuid.New().String()
	if _, err := tx.Exec(
		`INSERT INTO runs (run_id, experiment, run, episodes, created_at) VALUES (?, ?, ?, ?, ?)`,
		runID, experiment, run, len(episodes), time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO episode_metrics (run_id, episode, steps, reward, delta, duration, epsilon) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()
	for _, e := range episodes {
		if _, err := stmt.Exec(runID, e.Episode, e.Steps, e.Reward, e.Delta, e.Duration.Seconds(), e.Epsilon); err != nil {
			return fmt.Errorf("insert episode %d: %w", e.Episode, err)
		}
	}
	return tx.Commit()
}

// Run is a recorded experiment run
type Run struct {
	ID         string
	Experiment string
	Run        int
	Episodes   int
}

// Runs lists the recorded runs of an experiment, oldest first
func (s *SQLiteSink) Runs(experiment string) ([]Run, error) {
	rows, err := s.db.Query(
		`SELECT run_id, experiment, run, episodes FROM runs WHERE experiment = ? ORDER BY created_at ASC, run ASC`,
		experiment,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	out := make([]Run, 0)
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Experiment, &r.Run, &r.Episodes); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Episodes reads back the metrics of a run in episode order
func (s *SQLiteSink) Episodes(runID string) ([]types.EpisodeMetrics, error) {
	rows, err := s.db.Query(
		`SELECT episode, steps, reward, delta, duration, epsilon FROM episode_metrics WHERE run_id = ? ORDER BY episode ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query episodes: %w", err)
	}
	defer rows.Close()

	out := make([]types.EpisodeMetrics, 0)
	for rows.Next() {
		var e types.EpisodeMetrics
		var seconds float64
		if err := rows.Scan(&e.Episode, &e.Steps, &e.Reward, &e.Delta, &seconds, &e.Epsilon); err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		e.Duration = time.Duration(seconds * float64(time.Second))
		out = append(out, e)
	}
	return out, rows.Err()
}
