package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/cartscope/advisor-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	input      TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'queued',
	result     TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS preferences (
	user_id    TEXT PRIMARY KEY,
	prefs      TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS learned_weights (
	user_id    TEXT PRIMARY KEY,
	weights    TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS candidate_memory (
	id             TEXT PRIMARY KEY,
	product_name   TEXT NOT NULL,
	candidate_name TEXT NOT NULL,
	candidate      TEXT NOT NULL,
	seen_at        DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE(product_name, candidate_name)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_candidate_memory_product ON candidate_memory(product_name);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, input model.AnalysisInput) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	inputJSON, err := json.Marshal(input)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal input")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, input, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, string(inputJSON), string(model.RunStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Input:     input,
		Status:    model.RunStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run status %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) UpdateRunResult(ctx context.Context, runID string, result *model.AnalysisResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET result = ?, status = ?, updated_at = ? WHERE id = ?`,
		string(resultJSON), string(model.RunStatusComplete), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run result %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, input, status, result, created_at, updated_at FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, input, status, result, created_at, updated_at FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.UserID != "" {
		query += ` AND json_extract(input, '$.user_id') = ?`
		args = append(args, filter.UserID)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) GetPreferences(ctx context.Context, userID string) (*model.PreferenceOverlay, error) {
	var prefsJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT prefs FROM preferences WHERE user_id = ?`,
		userID,
	).Scan(&prefsJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get preferences %s", userID)
	}

	var prefs model.PreferenceOverlay
	if err := json.Unmarshal([]byte(prefsJSON), &prefs); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal preferences")
	}
	return &prefs, nil
}

func (s *SQLiteStore) SetPreferences(ctx context.Context, userID string, prefs model.PreferenceOverlay) error {
	prefsJSON, err := json.Marshal(prefs)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal preferences")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO preferences (user_id, prefs, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET prefs = excluded.prefs, updated_at = excluded.updated_at`,
		userID, string(prefsJSON), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: set preferences %s", userID)
}

func (s *SQLiteStore) GetLearnedWeights(ctx context.Context, userID string) (map[string]float64, error) {
	var weightsJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT weights FROM learned_weights WHERE user_id = ?`,
		userID,
	).Scan(&weightsJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get learned weights %s", userID)
	}

	var weights map[string]float64
	if err := json.Unmarshal([]byte(weightsJSON), &weights); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal learned weights")
	}
	return weights, nil
}

func (s *SQLiteStore) RecordChoice(ctx context.Context, userID string, deltas map[string]float64) error {
	current, err := s.GetLearnedWeights(ctx, userID)
	if err != nil {
		return err
	}

	merged := applyWeightDeltas(current, deltas)
	if merged == nil {
		return nil
	}

	weightsJSON, err := json.Marshal(merged)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal learned weights")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO learned_weights (user_id, weights, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET weights = excluded.weights, updated_at = excluded.updated_at`,
		userID, string(weightsJSON), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: record choice %s", userID)
}

func (s *SQLiteStore) LookupCandidates(ctx context.Context, productName string) ([]model.Candidate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT candidate FROM candidate_memory WHERE product_name = ?
		 ORDER BY seen_at DESC LIMIT ?`,
		productName, candidateMemoryLimit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: lookup candidates %s", productName)
	}
	defer rows.Close()

	var cands []model.Candidate
	for rows.Next() {
		var candJSON string
		if err := rows.Scan(&candJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan candidate")
		}
		var c model.Candidate
		if err := json.Unmarshal([]byte(candJSON), &c); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal candidate")
		}
		cands = append(cands, c)
	}
	return cands, eris.Wrap(rows.Err(), "sqlite: lookup candidates iterate")
}

func (s *SQLiteStore) RecordCandidate(ctx context.Context, productName string, cand model.Candidate) error {
	candJSON, err := json.Marshal(cand)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal candidate")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO candidate_memory (id, product_name, candidate_name, candidate, seen_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(product_name, candidate_name) DO UPDATE SET candidate = excluded.candidate, seen_at = excluded.seen_at`,
		uuid.New().String(), productName, cand.Name, string(candJSON), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: record candidate %s", cand.Name)
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var inputJSON string
	var resultJSON sql.NullString

	err := row.Scan(&r.ID, &inputJSON, &r.Status, &resultJSON, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	if err := json.Unmarshal([]byte(inputJSON), &r.Input); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal input")
	}
	if resultJSON.Valid {
		r.Result = &model.AnalysisResult{}
		if err := json.Unmarshal([]byte(resultJSON.String), r.Result); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal result")
		}
	}
	return &r, nil
}
