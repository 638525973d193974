package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arvcalc/internal/analysis"
	"arvcalc/internal/models"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	var out bytes.Buffer
	root := newRootCmd(logger)
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append(args, "--markets", filepath.Join(t.TempDir(), "markets.json")))
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)
}

func TestSampleCommand(t *testing.T) {
	out, err := run(t, "sample")
	require.NoError(t, err)

	var report models.AnalysisReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "sample-123", report.Target.ID)
	assert.Equal(t, 4, report.Arv.CompCount)
	assert.Greater(t, report.Renovation.GrandTotal, 0.0)
}

func TestAnalyzeCommand(t *testing.T) {
	dir := t.TempDir()
	req := analysis.SampleRequest(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	req.ID = "cli-1"
	data, err := json.Marshal(req)
	require.NoError(t, err)

	input := filepath.Join(dir, "request.json")
	require.NoError(t, os.WriteFile(input, data, 0o644))

	out, err := run(t, "analyze", "--input", input)
	require.NoError(t, err)
	var report models.AnalysisReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "cli-1", report.ID)

	output := filepath.Join(dir, "report.json")
	out, err = run(t, "analyze", "--input", input, "--output", output)
	require.NoError(t, err)
	assert.Empty(t, out)

	written, err := os.ReadFile(output)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(written, &report))
	assert.Equal(t, "cli-1", report.ID)
}

func TestAnalyzeCommandErrors(t *testing.T) {
	_, err := run(t, "analyze")
	assert.Error(t, err)

	_, err = run(t, "analyze", "--input", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"target": {"id": "x", "square_footage": -5}}`), 0o644))
	_, err = run(t, "analyze", "--input", bad)
	assert.True(t, models.IsInvalidInput(err))
}
