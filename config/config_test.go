package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SEGMENTER", "")
	t.Setenv("PIPELINE_CONFIG", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":5000", cfg.HTTPAddr)
	require.Equal(t, SegmenterCellpose, cfg.Segmenter)
	require.Equal(t, 5*time.Minute, cfg.RequestTimeout)
	require.Equal(t, DefaultPipeline(), cfg.Pipeline)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PIPELINE_CONFIG", "")
	t.Setenv("SEGMENTER", SegmenterThreshold)
	t.Setenv("FLOW_THRESHOLD", "0.6")
	t.Setenv("CLASSIFIER_INPUT_SIZE", "128")
	t.Setenv("REQUEST_TIMEOUT", "30s")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, SegmenterThreshold, cfg.Segmenter)
	require.InDelta(t, 0.6, cfg.Pipeline.FlowThreshold, 1e-9)
	require.Equal(t, 128, cfg.Pipeline.InputSize)
	require.Equal(t, 30*time.Second, cfg.RequestTimeout)
}

func TestLoad_PipelineFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("SEGMENTER", "")
	path := filepath.Join(dir, "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte("min_diameter_ratio: 0.3\ninfection_threshold: 0.7\n"), 0o644))
	t.Setenv("PIPELINE_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	require.InDelta(t, 0.3, cfg.Pipeline.MinDiameterRatio, 1e-9)
	require.InDelta(t, 0.7, cfg.Pipeline.InfectionThreshold, 1e-9)
	require.Equal(t, 224, cfg.Pipeline.InputSize)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PIPELINE_CONFIG", "")
	t.Setenv("SEGMENTER", "magic")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("SEGMENTER", "")
	t.Setenv("INFECTION_THRESHOLD", "abc")
	_, err = Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{Segmenter: SegmenterCellpose, UploadDir: "uploads", Pipeline: DefaultPipeline()}
	require.NoError(t, cfg.Validate())

	cfg.Pipeline.InputSize = 0
	require.Error(t, cfg.Validate())

	cfg.Pipeline = DefaultPipeline()
	cfg.Pipeline.InfectionThreshold = 1.5
	require.Error(t, cfg.Validate())
}
