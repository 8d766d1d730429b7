package main

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/cartscope/advisor-cli/internal/model"
	"github.com/cartscope/advisor-cli/internal/scoring"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Manage stored user preferences",
}

// -- prefs show --

var prefsShowCmd = &cobra.Command{
	Use:   "show <user-id>",
	Short: "Show a user's stored preferences, learned weights, and effective weights",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		userID := args[0]
		stored, err := st.GetPreferences(ctx, userID)
		if err != nil {
			return eris.Wrap(err, "prefs show")
		}
		learned, err := st.GetLearnedWeights(ctx, userID)
		if err != nil {
			return eris.Wrap(err, "prefs show")
		}

		var storedOverlay, learnedOverlay model.PreferenceOverlay
		if stored != nil {
			storedOverlay = *stored
		}
		if learned != nil {
			learnedOverlay = model.PreferenceOverlay{Factors: learned}
		}

		out := struct {
			Stored    *model.PreferenceOverlay `json:"stored,omitempty"`
			Learned   map[string]float64       `json:"learned,omitempty"`
			Effective model.PreferenceWeights  `json:"effective"`
		}{
			Stored:    stored,
			Learned:   learned,
			Effective: scoring.ResolveWeights(model.PreferenceOverlay{}, storedOverlay, learnedOverlay),
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

// -- prefs set --

var prefsSetBrands []string

var prefsSetCmd = &cobra.Command{
	Use:   "set <user-id> [factor=value ...]",
	Short: "Set a user's stored preference factors",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		userID := args[0]

		prefs := model.PreferenceOverlay{PreferBrands: prefsSetBrands}
		for _, pair := range args[1:] {
			key, val, found := strings.Cut(pair, "=")
			if !found {
				return eris.Errorf("expected factor=value, got %q", pair)
			}
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return eris.Wrapf(err, "parse %q", pair)
			}
			if prefs.Factors == nil {
				prefs.Factors = make(map[string]float64)
			}
			prefs.Factors[key] = f
		}

		if err := st.SetPreferences(ctx, userID, prefs); err != nil {
			return eris.Wrap(err, "prefs set")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(prefs)
	},
}

func init() {
	prefsSetCmd.Flags().StringSliceVar(&prefsSetBrands, "prefer-brand", nil, "brands to boost in ranking")

	prefsCmd.AddCommand(prefsShowCmd)
	prefsCmd.AddCommand(prefsSetCmd)
	rootCmd.AddCommand(prefsCmd)
}
