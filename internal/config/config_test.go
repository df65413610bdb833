package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_ParsesRunConfig(t *testing.T) {
	path := writeTestConfig(t, `
seed: 42
start_time: 0
step_size: 100
n_steps: 10
assets:
  - name: XYZ
    tick_size: 1
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), cfg.Seed)
	assert.Equal(t, uint64(100), cfg.StepSize)
	assert.Equal(t, 10, cfg.NSteps)
	require.Len(t, cfg.Assets, 1)
	assert.Equal(t, "XYZ", cfg.Assets[0].Name)
}

func TestValidate_RejectsZeroStepSize(t *testing.T) {
	cfg := &RunConfig{StepSize: 0, NSteps: 1, Assets: []AssetConfig{{Name: "A", TickSize: 1}}}
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsEmptyAssets(t *testing.T) {
	cfg := &RunConfig{StepSize: 1, NSteps: 1}
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsZeroTickSize(t *testing.T) {
	cfg := &RunConfig{StepSize: 1, NSteps: 1, Assets: []AssetConfig{{Name: "A", TickSize: 0}}}
	assert.Error(t, cfg.Validate())
}

func TestValidate_AcceptsWellFormedConfig(t *testing.T) {
	cfg := &RunConfig{StepSize: 1, NSteps: 1, Assets: []AssetConfig{{Name: "A", TickSize: 1}}}
	assert.NoError(t, cfg.Validate())
}
