package model

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
	"time"

	"github.com/vvkharivallabha/indic-seamless-service/internal/config"
	"github.com/vvkharivallabha/indic-seamless-service/internal/config/source"
	"github.com/vvkharivallabha/indic-seamless-service/internal/tokenizer"
	"github.com/vvkharivallabha/indic-seamless-service/internal/xfs"
)

// defaultRetryInterval is the minimum hold-off between load attempts after
// a failure. Requests inside the window get the cached error.
const defaultRetryInterval = 30 * time.Second

// LoadResult is what a successful load produces.
type LoadResult struct {
	Path      string
	Tokenizer *tokenizer.Tokenizer
	Device    string
}

// LoadFunc downloads and prepares the model described by the manifest.
type LoadFunc func(ctx context.Context, manifest *config.Manifest) (*LoadResult, error)

// Manager lazily initializes the model and hands out its state. Concurrent
// first requests coalesce on a single load.
type Manager struct {
	loadMu        sync.Mutex // serializes load attempts
	stateMu       sync.RWMutex
	manifest      *config.Manifest
	loader        LoadFunc
	retryInterval time.Duration
	state         State
	tok           *tokenizer.Tokenizer
	lastFailure   time.Time
	loadErr       error
}

// NewManager creates a Manager that downloads the snapshot with the hf CLI
// and loads the tokenizer from it.
func NewManager(manifest *config.Manifest, loadTimeout time.Duration) *Manager {
	m := NewManagerWithLoader(manifest, nil)
	m.loader = m.snapshotLoader(loadTimeout)
	return m
}

// NewManagerWithLoader creates a Manager with a custom load function.
func NewManagerWithLoader(manifest *config.Manifest, loader LoadFunc) *Manager {
	return &Manager{
		manifest:      manifest,
		loader:        loader,
		retryInterval: defaultRetryInterval,
		state: State{
			ID:     manifest.Model.ID,
			Status: StatusUnloaded,
		},
	}
}

// Snapshot returns the current model state. Safe to call while a load is in
// flight.
func (m *Manager) Snapshot() State {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()

	return m.state
}

// SetManifest swaps the manifest, e.g. after a watcher reload. If the model
// identity changed the state resets and the next request triggers a fresh
// load.
func (m *Manager) SetManifest(manifest *config.Manifest) {
	m.loadMu.Lock()
	defer m.loadMu.Unlock()

	m.stateMu.Lock()
	defer m.stateMu.Unlock()

	changed := m.manifest.Model.ID != manifest.Model.ID
	m.manifest = manifest
	if changed {
		slog.Info("Model changed in manifest, resetting state", "model_id", manifest.Model.ID)
		m.state = State{ID: manifest.Model.ID, Status: StatusUnloaded}
		m.tok = nil
		m.loadErr = nil
		m.lastFailure = time.Time{}
	}
}

// Ensure returns the loaded model state and tokenizer, performing the load
// if needed. After a failure, a new attempt is allowed only once the retry
// hold-off has elapsed; earlier calls get the cached error.
func (m *Manager) Ensure(ctx context.Context) (State, *tokenizer.Tokenizer, error) {
	m.loadMu.Lock()
	defer m.loadMu.Unlock()

	state := m.Snapshot()
	if state.Ready() {
		m.stateMu.RLock()
		tok := m.tok
		m.stateMu.RUnlock()
		return state, tok, nil
	}

	if state.Status == StatusFailed && time.Since(m.lastFailure) < m.retryInterval {
		return state, nil, fmt.Errorf("%w: %v", ErrNotReady, m.loadErr)
	}

	manifest := m.manifest

	m.setStatus(StatusDownloading, nil)
	slog.Info("Loading model", "model_id", manifest.Model.ID)

	result, err := m.loader(ctx, manifest)
	if err != nil {
		m.stateMu.Lock()
		m.state.Status = StatusFailed
		m.state.Error = err.Error()
		m.stateMu.Unlock()
		m.lastFailure = time.Now()
		m.loadErr = err

		slog.Error("Model load failed", "model_id", manifest.Model.ID, "error", err)
		return m.Snapshot(), nil, fmt.Errorf("%w: %v", ErrNotReady, err)
	}

	now := time.Now()
	m.stateMu.Lock()
	m.state = State{
		ID:       manifest.Model.ID,
		Path:     result.Path,
		Device:   result.Device,
		Status:   StatusLoaded,
		LoadedAt: &now,
	}
	m.tok = result.Tokenizer
	m.loadErr = nil
	m.stateMu.Unlock()

	slog.Info("Model loaded", "model_id", manifest.Model.ID, "path", result.Path, "device", result.Device)
	return m.Snapshot(), result.Tokenizer, nil
}

func (m *Manager) setStatus(status Status, err error) {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()

	m.state.Status = status
	if err != nil {
		m.state.Error = err.Error()
	} else {
		m.state.Error = ""
	}
}

// snapshotLoader downloads the snapshot and loads the tokenizer vocabulary,
// reporting the phase transition on the manager state.
func (m *Manager) snapshotLoader(timeout time.Duration) LoadFunc {
	return func(ctx context.Context, manifest *config.Manifest) (*LoadResult, error) {
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		modelsDir := manifest.Storage.ModelsDir
		if modelsDir == "" {
			modelsDir = config.DefaultModelsPath()
		}
		modelsDir = xfs.ExpandTilde(modelsDir)

		if err := source.EnsureModelsDirectory(modelsDir); err != nil {
			return nil, err
		}

		downloader := &source.HuggingFaceDownloader{Timeout: timeout}
		path, cached, err := downloader.Download(ctx, &manifest.Model, modelsDir)
		if err != nil {
			return nil, err
		}
		if cached {
			slog.Info("Using cached model snapshot", "path", path)
		}

		m.setStatus(StatusLoading, nil)
		tok, err := tokenizer.Load(path)
		if err != nil {
			return nil, err
		}

		return &LoadResult{
			Path:      path,
			Tokenizer: tok,
			Device:    detectDevice(),
		}, nil
	}
}

// detectDevice picks the inference device advertised on /health. The sidecar
// makes the actual placement decision; this mirrors its logic.
func detectDevice() string {
	if _, err := exec.LookPath("nvidia-smi"); err == nil {
		return "cuda"
	}
	return "cpu"
}
