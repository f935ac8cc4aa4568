package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/contact-scraper/internal/config"
	"github.com/sells-group/contact-scraper/internal/export"
	"github.com/sells-group/contact-scraper/internal/model"
	"github.com/sells-group/contact-scraper/internal/store"
)

func withConfig(t *testing.T, c *config.Config) {
	t.Helper()
	prev, prevPath, prevFormat, prevQuiet := cfg, outputPath, outputFormat, quiet
	cfg = c
	t.Cleanup(func() {
		cfg, outputPath, outputFormat, quiet = prev, prevPath, prevFormat, prevQuiet
	})
}

func TestParseMaxResults(t *testing.T) {
	n, err := parseMaxResults([]string{"dentiste fes"}, 100)
	require.NoError(t, err)
	assert.Equal(t, 100, n)

	n, err = parseMaxResults([]string{"dentiste fes", "15"}, 100)
	require.NoError(t, err)
	assert.Equal(t, 15, n)

	_, err = parseMaxResults([]string{"dentiste fes", "abc"}, 100)
	assert.Error(t, err)
	_, err = parseMaxResults([]string{"dentiste fes", "0"}, 100)
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Riad", truncate("Riad", 10))
	assert.Equal(t, "Pharmac...", truncate("Pharmacie Centrale", 10))
	assert.Equal(t, "Fès Fès...", truncate("Fès Fès Fès", 10))
}

func TestProgressPrinter(t *testing.T) {
	withConfig(t, &config.Config{})
	quiet = false

	var buf bytes.Buffer
	p := progressPrinter(&buf)
	require.NotNil(t, p)
	p(1, 4, "Riad Fes", nil)
	p(2, 4, "Hotel", errors.New("dns"))

	assert.Contains(t, buf.String(), "[1/4]  25% ok")
	assert.Contains(t, buf.String(), "[2/4]  50% failed")

	quiet = true
	assert.Nil(t, progressPrinter(&buf))
}

func TestFinish_WritesConfiguredOutput(t *testing.T) {
	dir := t.TempDir()
	withConfig(t, &config.Config{Output: config.OutputConfig{Path: filepath.Join(dir, "scraping_results.json")}})
	outputPath, outputFormat, quiet = "", "", false

	rf := model.NewResultFile("dentiste", "fes", []model.BusinessRecord{{Name: "Cabinet Atlas"}}, time.Now())

	var buf bytes.Buffer
	require.NoError(t, finish(&buf, rf))
	assert.Contains(t, buf.String(), "Cabinet Atlas")
	assert.Contains(t, buf.String(), "Results saved to")

	back, err := export.ReadResultFile(filepath.Join(dir, "scraping_results.json"))
	require.NoError(t, err)
	assert.Equal(t, 1, back.Metadata.TotalResults)
}

func TestFinish_FlagOverrides(t *testing.T) {
	dir := t.TempDir()
	withConfig(t, &config.Config{Output: config.OutputConfig{Path: filepath.Join(dir, "ignored.json")}})
	outputPath = filepath.Join(dir, "out.data")
	outputFormat = "csv"
	quiet = true

	var buf bytes.Buffer
	require.NoError(t, finish(&buf, model.NewResultFile("x", "fes", nil, time.Now())))
	assert.FileExists(t, outputPath)
	assert.NoFileExists(t, filepath.Join(dir, "ignored.json"))

	outputFormat = "pdf"
	assert.Error(t, finish(&buf, model.NewResultFile("x", "fes", nil, time.Now())))
}

func TestInterrupted(t *testing.T) {
	assert.NoError(t, interrupted(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := interrupted(ctx)
	require.Error(t, err)
	assert.True(t, eris.Is(err, store.ErrInterrupted))
}
