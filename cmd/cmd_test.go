package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartscope/advisor-cli/internal/model"
)

func TestLoadImagePNG(t *testing.T) {
	// Minimal PNG header is enough for content sniffing.
	raw := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 16)...)
	path := filepath.Join(t.TempDir(), "shot.png")
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	data, media, err := loadImage(path)

	require.NoError(t, err)
	assert.Equal(t, "image/png", media)
	assert.NotEmpty(t, data)
}

func TestLoadImageRejectsNonImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o644))

	_, _, err := loadImage(path)
	assert.Error(t, err)
}

func TestLoadImageMissingFile(t *testing.T) {
	_, _, err := loadImage(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestSessionOverlay(t *testing.T) {
	analyzeFactors = map[string]string{
		"price_sensitivity": "0.9",
		"quality":           "not a number",
	}
	analyzeBrands = []string{"Sony"}
	t.Cleanup(func() {
		analyzeFactors = nil
		analyzeBrands = nil
	})

	overlay := sessionOverlay()

	assert.InDelta(t, 0.9, overlay.Factors["price_sensitivity"], 0.001)
	_, ok := overlay.Factors["quality"]
	assert.False(t, ok, "unparseable factor should be dropped")
	assert.Equal(t, []string{"Sony"}, overlay.PreferBrands)
}

func TestFormatRunsList(t *testing.T) {
	now := time.Now()
	runs := []model.Run{
		{
			ID:        "run-1",
			Input:     model.AnalysisInput{Query: "sony xm5"},
			Status:    model.RunStatusComplete,
			CreatedAt: now.Add(-30 * time.Second),
			UpdatedAt: now,
			Result: &model.AnalysisResult{
				Identity: model.ProductIdentity{CanonicalName: "Sony WH-1000XM5"},
			},
		},
		{
			ID:        "run-2",
			Status:    model.RunStatusFailed,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	out := buf.String()
	assert.Contains(t, out, "Sony WH-1000XM5")
	assert.Contains(t, out, "complete")
	assert.Contains(t, out, "(image)")
	assert.True(t, strings.HasPrefix(out, "ID"))
}
