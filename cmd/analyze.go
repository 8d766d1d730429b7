package main

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cartscope/advisor-cli/internal/model"
)

var (
	analyzeQuery   string
	analyzeImage   string
	analyzeUser    string
	analyzeOffline bool
	analyzeFactors map[string]string
	analyzeBrands  []string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a product and rank it against alternatives",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx, analyzeOffline)
		if err != nil {
			return err
		}
		defer env.Close()

		input := model.AnalysisInput{
			Query:   analyzeQuery,
			UserID:  analyzeUser,
			Session: sessionOverlay(),
		}
		if analyzeImage != "" {
			data, media, err := loadImage(analyzeImage)
			if err != nil {
				return err
			}
			input.ImageBase64 = data
			input.ImageMedia = media
		}

		result, err := env.Pipeline.Run(ctx, input)
		if err != nil && result == nil {
			return eris.Wrap(err, "analyze")
		}
		if err != nil {
			zap.L().Warn("run finished with error", zap.Error(err))
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result.Payload)
	},
}

// sessionOverlay turns the --factor flags into a session preference overlay.
func sessionOverlay() model.PreferenceOverlay {
	overlay := model.PreferenceOverlay{PreferBrands: analyzeBrands}
	if len(analyzeFactors) > 0 {
		overlay.Factors = make(map[string]float64, len(analyzeFactors))
		for k, v := range analyzeFactors {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				zap.L().Warn("ignoring unparseable factor", zap.String("factor", k), zap.String("value", v))
				continue
			}
			overlay.Factors[k] = f
		}
	}
	return overlay
}

// loadImage reads an image file and returns its base64 payload and media
// type.
func loadImage(path string) (string, string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", "", eris.Wrapf(err, "read image %s", path)
	}

	media := http.DetectContentType(raw)
	if !strings.HasPrefix(media, "image/") {
		// Fall back on the extension for formats DetectContentType misses.
		switch strings.ToLower(filepath.Ext(path)) {
		case ".jpg", ".jpeg":
			media = "image/jpeg"
		case ".png":
			media = "image/png"
		case ".webp":
			media = "image/webp"
		default:
			return "", "", eris.Errorf("unsupported image type for %s", path)
		}
	}

	return base64.StdEncoding.EncodeToString(raw), media, nil
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeQuery, "query", "q", "", "product name or description")
	analyzeCmd.Flags().StringVarP(&analyzeImage, "image", "i", "", "path to a product screenshot")
	analyzeCmd.Flags().StringVarP(&analyzeUser, "user", "u", "", "user ID for stored and learned preferences")
	analyzeCmd.Flags().BoolVar(&analyzeOffline, "offline", false, "run with canned providers, no external calls")
	analyzeCmd.Flags().StringToStringVar(&analyzeFactors, "factor", nil, "session preference factor overrides (e.g. --factor price_sensitivity=0.9)")
	analyzeCmd.Flags().StringSliceVar(&analyzeBrands, "prefer-brand", nil, "brands to boost in ranking")
	rootCmd.AddCommand(analyzeCmd)
}
