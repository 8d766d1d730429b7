package model

import (
	"fmt"
	"time"
)

// RunStatus represents the current state of an analysis run.
type RunStatus string

const (
	RunStatusQueued      RunStatus = "queued"
	RunStatusIdentifying RunStatus = "identifying"
	RunStatusResearching RunStatus = "researching"
	RunStatusCritiquing  RunStatus = "critiquing"
	RunStatusScoring     RunStatus = "scoring"
	RunStatusComplete    RunStatus = "complete"
	RunStatusFailed      RunStatus = "failed"
)

// Run represents a single analysis run.
type Run struct {
	ID        string          `json:"id"`
	Input     AnalysisInput   `json:"input"`
	Status    RunStatus       `json:"status"`
	Result    *AnalysisResult `json:"result,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// AnalysisInput is the product identification signal handed to a run.
type AnalysisInput struct {
	Query       string            `json:"query,omitempty"`
	ImageBase64 string            `json:"image_base64,omitempty"`
	ImageMedia  string            `json:"image_media_type,omitempty"`
	UserID      string            `json:"user_id,omitempty"`
	Session     PreferenceOverlay `json:"session_preferences,omitempty"`
}

// Empty reports whether the input carries no identity signal at all.
func (in AnalysisInput) Empty() bool {
	return in.Query == "" && in.ImageBase64 == ""
}

// StageStatus represents the terminal state of a pipeline stage.
type StageStatus string

const (
	StageStatusComplete StageStatus = "complete"
	StageStatusDegraded StageStatus = "degraded"
	StageStatusFailed   StageStatus = "failed"
	StageStatusSkipped  StageStatus = "skipped"
)

// StageResult records the outcome and timing of one pipeline stage.
type StageResult struct {
	Name     string      `json:"name"`
	Status   StageStatus `json:"status"`
	Duration int64       `json:"duration_ms"`
	Error    string      `json:"error,omitempty"`
}

// RiskReport is the critique stage's assessment of the researched product.
// Optional; its absence never blocks scoring.
type RiskReport struct {
	TrustScore     float64 `json:"trust_score"`     // 0-10
	SentimentScore float64 `json:"sentiment_score"` // -1..1
	EcoScore       float64 `json:"eco_score"`       // 0..1
	EcoNotes       string  `json:"eco_notes,omitempty"`
	Summary        string  `json:"summary,omitempty"`
	Verdict        string  `json:"verdict,omitempty"`
	Subject        string  `json:"subject,omitempty"` // candidate the report is about
	Degraded       bool    `json:"degraded,omitempty"`
}

// DefaultRiskReport is substituted when critique fails or is absent.
func DefaultRiskReport(subject string) RiskReport {
	return RiskReport{
		TrustScore:     5.0,
		SentimentScore: 0.0,
		EcoScore:       0.5,
		EcoNotes:       "Analysis based on product category.",
		Verdict:        "unknown",
		Subject:        subject,
		Degraded:       true,
	}
}

// ScoreBreakdown holds the component scores and the weighted total for one
// candidate. Computed once per run; re-scoring requires a fresh pass.
type ScoreBreakdown struct {
	Price     float64 `json:"price_score"`     // 0..1
	Trust     float64 `json:"trust_score"`     // 0..10
	Sentiment float64 `json:"sentiment_score"` // -1..1
	Eco       float64 `json:"eco_score"`       // 0..1 (adjusted)
	Total     float64 `json:"total_score"`
}

// ScoredCandidate is a candidate plus its computed scores.
type ScoredCandidate struct {
	Candidate
	Scores           ScoreBreakdown `json:"score_details"`
	SentimentSummary string         `json:"sentiment_summary,omitempty"`
	EcoNotes         string         `json:"eco_notes,omitempty"`
}

// PriceVerdict classifies the display candidate's price against the market.
type PriceVerdict string

const (
	VerdictGreatDeal    PriceVerdict = "Great Deal"
	VerdictFairPrice    PriceVerdict = "Fair Price"
	VerdictPremiumPrice PriceVerdict = "Premium Price"
)

// PriceAnalysis is the market-relative price assessment of the display
// candidate.
type PriceAnalysis struct {
	Verdict         PriceVerdict `json:"verdict"`
	MarketAvgCents  int64        `json:"market_average_cents"`
	MarketAvgText   string       `json:"market_average"`
	DifferencePct   float64      `json:"difference_pct"`
	DifferenceLabel string       `json:"price_difference"`
}

// RankedResult is the terminal artifact of a scoring pass.
type RankedResult struct {
	Display                 *ScoredCandidate  `json:"display"`
	Main                    *ScoredCandidate  `json:"main,omitempty"`
	Alternatives            []ScoredCandidate `json:"alternatives"`
	BetterAlternativeExists bool              `json:"better_alternative_exists"`
	BestAlternative         string            `json:"best_alternative,omitempty"`
	Price                   PriceAnalysis     `json:"price_analysis"`
	AppliedWeights          PreferenceWeights `json:"applied_preferences"`
}

// AlternativePayload is one line of the caller-facing alternatives list.
type AlternativePayload struct {
	Name      string             `json:"name"`
	Score     float64            `json:"score"`
	Breakdown map[string]float64 `json:"score_breakdown"`
	Reason    string             `json:"reason,omitempty"`
	Image     string             `json:"image,omitempty"`
	Link      string             `json:"link,omitempty"`
	PriceText string             `json:"price_text,omitempty"`
	EcoScore  float64            `json:"eco_score"`
	EcoNotes  string             `json:"eco_notes,omitempty"`
}

// ActiveProduct is the caller-facing main card.
type ActiveProduct struct {
	Name         string  `json:"name"`
	ImageURL     string  `json:"image_url,omitempty"`
	PurchaseLink string  `json:"purchase_link,omitempty"`
	PriceText    string  `json:"price_text"`
	EcoScore     float64 `json:"eco_score"`
	EcoNotes     string  `json:"eco_notes,omitempty"`
}

// Payload is the caller-facing result of a run. A run always produces one;
// degraded data is flagged rather than surfaced as an error.
type Payload struct {
	Outcome           string               `json:"outcome"`
	IdentifiedProduct string               `json:"identified_product"`
	Summary           string               `json:"summary"`
	Active            ActiveProduct        `json:"active_product"`
	Price             PriceAnalysis        `json:"price_analysis"`
	Alternatives      []AlternativePayload `json:"alternatives"`
	AppliedWeights    PreferenceWeights    `json:"applied_preferences"`
	Degraded          []string             `json:"degraded,omitempty"`
	Error             string               `json:"error,omitempty"`
}

// AnalysisResult is the orchestrator's full output for one run.
type AnalysisResult struct {
	RunID        string            `json:"run_id"`
	Identity     ProductIdentity   `json:"identity"`
	Ranked       *RankedResult     `json:"ranked,omitempty"`
	Payload      Payload           `json:"payload"`
	Stages       []StageResult     `json:"stages"`
	StageTimings map[string]int64  `json:"stage_timings_ms,omitempty"`
	Degraded     []string          `json:"degraded,omitempty"`
}

// FormatCents renders integer cents as a dollar string ("$348.00").
func FormatCents(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}

// PriceTextFor renders an offer as display text, or the "Check Price"
// placeholder when no valid offer exists.
func PriceTextFor(offer *PriceOffer) string {
	if offer == nil || offer.PriceCents <= 0 {
		return "Check Price"
	}
	if offer.Currency != "" {
		return fmt.Sprintf("%s %s", FormatCents(offer.PriceCents), offer.Currency)
	}
	return FormatCents(offer.PriceCents)
}
