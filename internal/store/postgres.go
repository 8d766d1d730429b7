package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/cartscope/advisor-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store depends on. pgxmock satisfies
// it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_run":        `INSERT INTO runs (id, input, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
	"update_run_status": `UPDATE runs SET status = $1, updated_at = $2 WHERE id = $3`,
	"update_run_result": `UPDATE runs SET result = $1, status = $2, updated_at = $3 WHERE id = $4`,
	"get_run":           `SELECT id, input, status, result, created_at, updated_at FROM runs WHERE id = $1`,
	"get_preferences":   `SELECT prefs FROM preferences WHERE user_id = $1`,
	"get_learned":       `SELECT weights FROM learned_weights WHERE user_id = $1`,
	"lookup_candidates": `SELECT candidate FROM candidate_memory WHERE product_name = $1 ORDER BY seen_at DESC LIMIT $2`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	input      JSONB NOT NULL,
	status     TEXT NOT NULL DEFAULT 'queued',
	result     JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS preferences (
	user_id    TEXT PRIMARY KEY,
	prefs      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS learned_weights (
	user_id    TEXT PRIMARY KEY,
	weights    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS candidate_memory (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	product_name   TEXT NOT NULL,
	candidate_name TEXT NOT NULL,
	candidate      JSONB NOT NULL,
	seen_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE(product_name, candidate_name)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_candidate_memory_product ON candidate_memory(product_name);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, input model.AnalysisInput) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	inputJSON, err := json.Marshal(input)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal input")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO runs (id, input, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, inputJSON, string(model.RunStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:        id,
		Input:     input,
		Status:    model.RunStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run status %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) UpdateRunResult(ctx context.Context, runID string, result *model.AnalysisResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET result = $1, status = $2, updated_at = $3 WHERE id = $4`,
		resultJSON, string(model.RunStatusComplete), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run result %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	var r model.Run
	var inputJSON []byte
	var resultJSON *[]byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, input, status, result, created_at, updated_at FROM runs WHERE id = $1`,
		runID,
	).Scan(&r.ID, &inputJSON, &r.Status, &resultJSON, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}

	if err := json.Unmarshal(inputJSON, &r.Input); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal input")
	}
	if resultJSON != nil {
		r.Result = &model.AnalysisResult{}
		if err := json.Unmarshal(*resultJSON, r.Result); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal result")
		}
	}
	return &r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, input, status, result, created_at, updated_at FROM runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.UserID != "" {
		query += fmt.Sprintf(` AND input->>'user_id' = $%d`, argIdx)
		args = append(args, filter.UserID)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		var inputJSON []byte
		var resultJSON *[]byte

		if err := rows.Scan(&r.ID, &inputJSON, &r.Status, &resultJSON, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		if err := json.Unmarshal(inputJSON, &r.Input); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal input")
		}
		if resultJSON != nil {
			r.Result = &model.AnalysisResult{}
			if err := json.Unmarshal(*resultJSON, r.Result); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal result")
			}
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) GetPreferences(ctx context.Context, userID string) (*model.PreferenceOverlay, error) {
	var prefsJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT prefs FROM preferences WHERE user_id = $1`,
		userID,
	).Scan(&prefsJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get preferences %s", userID)
	}

	var prefs model.PreferenceOverlay
	if err := json.Unmarshal(prefsJSON, &prefs); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal preferences")
	}
	return &prefs, nil
}

func (s *PostgresStore) SetPreferences(ctx context.Context, userID string, prefs model.PreferenceOverlay) error {
	prefsJSON, err := json.Marshal(prefs)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal preferences")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO preferences (user_id, prefs, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id) DO UPDATE SET prefs = EXCLUDED.prefs, updated_at = EXCLUDED.updated_at`,
		userID, prefsJSON, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: set preferences %s", userID)
}

func (s *PostgresStore) GetLearnedWeights(ctx context.Context, userID string) (map[string]float64, error) {
	var weightsJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT weights FROM learned_weights WHERE user_id = $1`,
		userID,
	).Scan(&weightsJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get learned weights %s", userID)
	}

	var weights map[string]float64
	if err := json.Unmarshal(weightsJSON, &weights); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal learned weights")
	}
	return weights, nil
}

func (s *PostgresStore) RecordChoice(ctx context.Context, userID string, deltas map[string]float64) error {
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
		return eris.Wrap(err, "postgres: marshal learned weights")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO learned_weights (user_id, weights, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id) DO UPDATE SET weights = EXCLUDED.weights, updated_at = EXCLUDED.updated_at`,
		userID, weightsJSON, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: record choice %s", userID)
}

func (s *PostgresStore) LookupCandidates(ctx context.Context, productName string) ([]model.Candidate, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT candidate FROM candidate_memory WHERE product_name = $1 ORDER BY seen_at DESC LIMIT $2`,
		productName, candidateMemoryLimit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: lookup candidates %s", productName)
	}
	defer rows.Close()

	var cands []model.Candidate
	for rows.Next() {
		var candJSON []byte
		if err := rows.Scan(&candJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan candidate")
		}
		var c model.Candidate
		if err := json.Unmarshal(candJSON, &c); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal candidate")
		}
		cands = append(cands, c)
	}
	return cands, eris.Wrap(rows.Err(), "postgres: lookup candidates iterate")
}

func (s *PostgresStore) RecordCandidate(ctx context.Context, productName string, cand model.Candidate) error {
	candJSON, err := json.Marshal(cand)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal candidate")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO candidate_memory (id, product_name, candidate_name, candidate, seen_at) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (product_name, candidate_name) DO UPDATE SET candidate = EXCLUDED.candidate, seen_at = EXCLUDED.seen_at`,
		uuid.New().String(), productName, cand.Name, candJSON, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: record candidate %s", cand.Name)
}
