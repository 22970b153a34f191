package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvkharivallabha/indic-seamless-service/internal/config"
)

func writeExecutable(t *testing.T, dir, name string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755))
}

func testSettings(t *testing.T) *config.Settings {
	t.Helper()
	return &config.Settings{
		ModelName:     "test/model",
		ModelCacheDir: t.TempDir(),
		SidecarBin:    "seamless-server",
		SidecarPort:   8082,
	}
}

func TestCheckDependencies(t *testing.T) {
	bins := t.TempDir()
	writeExecutable(t, bins, "seamless-server")
	writeExecutable(t, bins, "hf")
	t.Setenv("PATH", bins)

	settings := testSettings(t)
	require.NoError(t, checkDependencies(settings, config.ManifestFromSettings(settings)))
}

func TestCheckDependenciesMissingSidecarBinary(t *testing.T) {
	bins := t.TempDir()
	writeExecutable(t, bins, "hf")
	t.Setenv("PATH", bins)

	settings := testSettings(t)
	err := checkDependencies(settings, config.ManifestFromSettings(settings))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inference server binary")
}

func TestCheckDependenciesMissingHFCLI(t *testing.T) {
	bins := t.TempDir()
	writeExecutable(t, bins, "seamless-server")
	t.Setenv("PATH", bins)

	settings := testSettings(t)
	err := checkDependencies(settings, config.ManifestFromSettings(settings))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hf CLI")
}

func TestCheckDependenciesNoSource(t *testing.T) {
	bins := t.TempDir()
	writeExecutable(t, bins, "seamless-server")
	writeExecutable(t, bins, "hf")
	t.Setenv("PATH", bins)

	manifest := &config.Manifest{
		Version: "1",
		Model:   config.ModelConfig{ID: "test/model"},
	}

	err := checkDependencies(testSettings(t), manifest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "manifest check failed")
}

func TestCheckDependenciesCachedSnapshot(t *testing.T) {
	bins := t.TempDir()
	writeExecutable(t, bins, "seamless-server")
	writeExecutable(t, bins, "hf")
	t.Setenv("PATH", bins)

	settings := testSettings(t)
	manifest := config.ManifestFromSettings(settings)

	snapshot := filepath.Join(settings.ModelCacheDir, "test/model")
	require.NoError(t, os.MkdirAll(snapshot, 0o755))
	tokPath := filepath.Join(snapshot, "tokenizer.json")

	require.NoError(t, os.WriteFile(tokPath, []byte(`{"model":{"vocab":{"▁ok":0}}}`), 0o644))
	require.NoError(t, checkDependencies(settings, manifest))

	// A corrupt cached tokenizer fails the check.
	require.NoError(t, os.WriteFile(tokPath, []byte("not json"), 0o644))
	err := checkDependencies(settings, manifest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cached snapshot")
}

func TestSetupManagerFromEnvironment(t *testing.T) {
	settings := testSettings(t)

	manager, manifest, err := setupManager(settings, "")
	require.NoError(t, err)
	assert.Equal(t, "test/model", manifest.Model.ID)
	assert.Equal(t, "test/model", manager.Snapshot().ID)
}

func TestSetupManagerReloadsManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	manifestYAML := func(id string) []byte {
		return []byte("version: \"1\"\nmodel:\n  id: " + id + "\n  source:\n    huggingface:\n      repo: " + id + "\n")
	}
	require.NoError(t, os.WriteFile(path, manifestYAML("test/model-a"), 0o644))

	manager, manifest, err := setupManager(testSettings(t), path)
	require.NoError(t, err)
	assert.Equal(t, "test/model-a", manifest.Model.ID)
	assert.Equal(t, "test/model-a", manager.Snapshot().ID)

	// An edit landing right after startup reaches the manager.
	require.NoError(t, os.WriteFile(path, manifestYAML("test/model-b"), 0o644))

	assert.Eventually(t, func() bool {
		return manager.Snapshot().ID == "test/model-b"
	}, 5*time.Second, 50*time.Millisecond)
}
