package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartscope/advisor-cli/internal/model"
)

func scored(name string, total float64, main bool, priceCents int64) model.ScoredCandidate {
	c := model.Candidate{Name: name, IsMain: main}
	if priceCents > 0 {
		c.BestOffer = &model.PriceOffer{Vendor: "Shop", PriceCents: priceCents, Currency: "CAD", URL: "https://shop.example/" + name}
	}
	return model.ScoredCandidate{Candidate: c, Scores: model.ScoreBreakdown{Total: total}}
}

func defaultWeights() model.PreferenceWeights {
	return ResolveWeights(model.PreferenceOverlay{}, model.PreferenceOverlay{}, model.PreferenceOverlay{})
}

func TestRank_SortsDescendingByTotal(t *testing.T) {
	in := []model.ScoredCandidate{
		scored("low", 40, false, 10000),
		scored("high", 90, false, 10000),
		scored("mid", 60, true, 10000),
	}

	r, err := Rank(in, 10000, defaultWeights())
	require.NoError(t, err)

	require.Len(t, r.Alternatives, 2)
	assert.Equal(t, "high", r.Alternatives[0].Name)
	assert.Equal(t, "low", r.Alternatives[1].Name)
}

func TestRank_ReversedInputSameOrder(t *testing.T) {
	in := []model.ScoredCandidate{
		scored("a", 30, false, 0),
		scored("b", 70, false, 0),
		scored("c", 50, false, 0),
	}
	reversed := []model.ScoredCandidate{in[2], in[1], in[0]}

	r1, err := Rank(in, 0, defaultWeights())
	require.NoError(t, err)
	r2, err := Rank(reversed, 0, defaultWeights())
	require.NoError(t, err)

	var names1, names2 []string
	for _, a := range r1.Alternatives {
		names1 = append(names1, a.Name)
	}
	for _, a := range r2.Alternatives {
		names2 = append(names2, a.Name)
	}
	assert.Equal(t, names1, names2)
}

func TestRank_TieBrokenByInputOrder(t *testing.T) {
	in := []model.ScoredCandidate{
		scored("first", 50, false, 0),
		scored("second", 50, false, 0),
	}

	r, err := Rank(in, 0, defaultWeights())
	require.NoError(t, err)
	assert.Equal(t, "first", r.Alternatives[0].Name)
	assert.Equal(t, "second", r.Alternatives[1].Name)
}

func TestRank_MainIsDisplayEvenWhenOutscored(t *testing.T) {
	in := []model.ScoredCandidate{
		scored("main product", 50, true, 10000),
		scored("challenger", 80, false, 9000),
	}

	r, err := Rank(in, 9500, defaultWeights())
	require.NoError(t, err)

	require.NotNil(t, r.Display)
	assert.Equal(t, "main product", r.Display.Name)
	assert.True(t, r.BetterAlternativeExists)
	assert.Equal(t, "challenger", r.BestAlternative)
}

func TestRank_TopMainMeansNoBetterAlternative(t *testing.T) {
	in := []model.ScoredCandidate{
		scored("main product", 90, true, 0),
		scored("runner up", 60, false, 0),
	}

	r, err := Rank(in, 0, defaultWeights())
	require.NoError(t, err)
	assert.False(t, r.BetterAlternativeExists)
	assert.Empty(t, r.BestAlternative)
}

func TestRank_NoMainDisplaysTopAlternative(t *testing.T) {
	in := []model.ScoredCandidate{
		scored("alt one", 40, false, 0),
		scored("alt two", 70, false, 0),
	}

	r, err := Rank(in, 0, defaultWeights())
	require.NoError(t, err)
	require.NotNil(t, r.Display)
	assert.Equal(t, "alt two", r.Display.Name)
	assert.Nil(t, r.Main)
}

func TestRank_DuplicateMainIsInputError(t *testing.T) {
	in := []model.ScoredCandidate{
		scored("a", 50, true, 0),
		scored("b", 60, true, 0),
	}

	_, err := Rank(in, 0, defaultWeights())
	require.Error(t, err)
	assert.True(t, model.IsInputError(err))
}

func TestRank_PriceVerdicts(t *testing.T) {
	cases := []struct {
		name    string
		price   int64
		avg     int64
		verdict model.PriceVerdict
	}{
		{"well below average", 8000, 10000, model.VerdictGreatDeal},
		{"well above average", 12000, 10000, model.VerdictPremiumPrice},
		{"near average", 10500, 10000, model.VerdictFairPrice},
		{"zero average falls back", 10000, 0, model.VerdictFairPrice},
		{"unpriced display", 0, 10000, model.VerdictFairPrice},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := Rank([]model.ScoredCandidate{scored("p", 50, true, tc.price)}, tc.avg, defaultWeights())
			require.NoError(t, err)
			assert.Equal(t, tc.verdict, r.Price.Verdict)
		})
	}
}

func TestRank_SingleCandidateIsMainAndDisplay(t *testing.T) {
	// Alone in a run: average equals its own price, verdict Fair Price.
	in := []model.ScoredCandidate{scored("Sony WH-1000XM5", 72, true, 34800)}

	r, err := Rank(in, 34800, defaultWeights())
	require.NoError(t, err)

	require.NotNil(t, r.Main)
	assert.Equal(t, r.Main, r.Display)
	assert.Equal(t, model.VerdictFairPrice, r.Price.Verdict)
	assert.Empty(t, r.Alternatives)
	assert.False(t, r.BetterAlternativeExists)
}

func TestRank_EmptyInput(t *testing.T) {
	r, err := Rank(nil, 0, defaultWeights())
	require.NoError(t, err)
	assert.Nil(t, r.Display)
	assert.Empty(t, r.Alternatives)
	assert.Equal(t, model.VerdictFairPrice, r.Price.Verdict)
}
