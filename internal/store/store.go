package store

import (
	"context"

	"github.com/cartscope/advisor-cli/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	UserID string          `json:"user_id,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the analysis pipeline.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, input model.AnalysisInput) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	UpdateRunResult(ctx context.Context, runID string, result *model.AnalysisResult) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Stored preferences
	GetPreferences(ctx context.Context, userID string) (*model.PreferenceOverlay, error)
	SetPreferences(ctx context.Context, userID string, prefs model.PreferenceOverlay) error

	// Learned weights feedback loop
	GetLearnedWeights(ctx context.Context, userID string) (map[string]float64, error)
	RecordChoice(ctx context.Context, userID string, deltas map[string]float64) error

	// Candidate memory
	LookupCandidates(ctx context.Context, productName string) ([]model.Candidate, error)
	RecordCandidate(ctx context.Context, productName string, cand model.Candidate) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// candidateMemoryLimit caps how many remembered alternatives a lookup returns.
const candidateMemoryLimit = 10

// applyWeightDeltas merges choice deltas into a learned weight map, clamping
// each factor to [0,1]. Unrecognized keys are dropped.
func applyWeightDeltas(current, deltas map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(model.FactorKeys()))
	for k, v := range current {
		out[k] = v
	}
	for _, key := range model.FactorKeys() {
		d, ok := deltas[key]
		if !ok {
			continue
		}
		w := out[key] + d
		if w < 0 {
			w = 0
		}
		if w > 1 {
			w = 1
		}
		out[key] = w
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
