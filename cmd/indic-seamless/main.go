package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/vvkharivallabha/indic-seamless-service/internal/audio"
	"github.com/vvkharivallabha/indic-seamless-service/internal/backend"
	"github.com/vvkharivallabha/indic-seamless-service/internal/backend/seamless"
	"github.com/vvkharivallabha/indic-seamless-service/internal/config"
	"github.com/vvkharivallabha/indic-seamless-service/internal/lang"
	"github.com/vvkharivallabha/indic-seamless-service/internal/logger"
	"github.com/vvkharivallabha/indic-seamless-service/internal/model"
	httpserver "github.com/vvkharivallabha/indic-seamless-service/internal/server/http"
	"github.com/vvkharivallabha/indic-seamless-service/internal/service"
	"github.com/vvkharivallabha/indic-seamless-service/internal/tokenizer"
	"github.com/vvkharivallabha/indic-seamless-service/internal/xfs"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Service failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	var (
		flagPort       = flag.Int("port", 0, "Port to listen on (overrides PORT)")
		flagConfigPath = flag.String("config", "", "Path to the model manifest file")
		flagCheckOnly  = flag.Bool("check-only", false, "Check dependencies and configuration, then exit")
	)
	flag.Parse()

	settings := config.FromEnv()
	if *flagPort > 0 {
		settings.Port = *flagPort
	}

	slog.SetDefault(
		logger.New(settings.Environment(),
			logger.WithLevel(logger.ParseLevel(settings.LogLevel)),
			logger.WithLogToFile(settings.Environment() == "production"),
		),
	)

	manager, manifest, err := setupManager(settings, *flagConfigPath)
	if err != nil {
		return err
	}

	if *flagCheckOnly {
		return checkDependencies(settings, manifest)
	}

	serverManager := backend.NewServerManager()
	defer serverManager.StopAll()

	backends := backend.NewRegistry()
	defer backends.Close()

	bin, port := sidecarFor(settings, manifest)
	if err := backends.Register(seamless.NewBackend(bin, port, serverManager)); err != nil {
		return err
	}

	stt := service.NewSTT(backends, manager, audio.NewDecoder(settings.TargetSampleRate), settings.TargetSampleRate)

	srv := httpserver.New(httpserver.Options{
		Settings: settings,
		Service:  stt,
		Models:   manager,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Warm the model in the background so the first request doesn't pay the
	// download. Failures are reported on /health and retried on demand.
	go func() {
		if _, _, err := manager.Ensure(ctx); err != nil {
			slog.Warn("Model warm-up failed, will retry on request", "error", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server",
			"addr", srv.Addr,
			"environment", settings.Environment(),
			"model", settings.ModelName,
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		slog.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}

	return nil
}

// setupManager wires the model manager to a watched manifest file when one
// is given, or derives the manifest from the environment. The manager is
// built before the watcher starts so a reload firing immediately has a live
// target.
func setupManager(settings *config.Settings, configPath string) (*model.Manager, *config.Manifest, error) {
	if configPath == "" {
		manifest := config.ManifestFromSettings(settings)
		return model.NewManager(manifest, settings.ModelLoadTimeout), manifest, nil
	}

	manifest, err := config.LoadManifest(configPath)
	if err != nil {
		return nil, nil, err
	}
	manager := model.NewManager(manifest, settings.ModelLoadTimeout)

	if _, err := config.NewWatcher(configPath, func(m *config.Manifest, err error) {
		if err != nil {
			slog.Error("Failed to reload manifest", "error", err)
			return
		}
		manager.SetManifest(m)
	}); err != nil {
		return nil, nil, err
	}

	slog.Info("Manifest loaded", "path", configPath)
	return manager, manifest, nil
}

// sidecarBin resolves the inference server binary name. The manifest wins
// over the environment, which wins over the baked-in default.
func sidecarBin(settings *config.Settings, manifest *config.Manifest) string {
	if manifest.Model.Sidecar.Bin != "" {
		return manifest.Model.Sidecar.Bin
	}
	return settings.SidecarBin
}

// sidecarFor resolves the inference server binary path and port.
func sidecarFor(settings *config.Settings, manifest *config.Manifest) (string, int) {
	bin := sidecarBin(settings, manifest)

	port := settings.SidecarPort
	if manifest.Model.Sidecar.Port > 0 {
		port = manifest.Model.Sidecar.Port
	}

	if resolved, err := exec.LookPath(bin); err == nil {
		bin = resolved
	} else {
		slog.Warn("Inference server binary not found in PATH, speech-to-text will fail", "bin", bin)
	}

	return bin, port
}

// checkDependencies performs the pre-flight validation behind --check-only:
// the manifest names a usable source, the language table is intact, and the
// binaries the service shells out to are on PATH. A cached snapshot, when
// present, must contain a loadable tokenizer. No download is triggered.
func checkDependencies(settings *config.Settings, manifest *config.Manifest) error {
	src, err := manifest.Model.GetSource()
	if err != nil {
		return fmt.Errorf("manifest check failed: %w", err)
	}

	if lang.Count() == 0 {
		return errors.New("language table is empty")
	}
	for _, code := range lang.Codes() {
		name, _ := lang.NameForCode(code)
		if back, ok := lang.CodeForName(name); !ok || back != code {
			return fmt.Errorf("language table entry %q does not round-trip", code)
		}
	}

	if _, err := exec.LookPath(sidecarBin(settings, manifest)); err != nil {
		return fmt.Errorf("inference server binary not found: %w", err)
	}

	if _, err := exec.LookPath("hf"); err != nil {
		return fmt.Errorf("hf CLI not found, model snapshots cannot be downloaded: %w", err)
	}

	if path, ok := cachedSnapshot(manifest, src); ok {
		if _, err := tokenizer.Load(path); err != nil {
			return fmt.Errorf("cached snapshot is unusable: %w", err)
		}
		slog.Info("Dependency check passed", "model_id", manifest.Model.ID, "cached_snapshot", path)
		return nil
	}

	slog.Info("Dependency check passed", "model_id", manifest.Model.ID)
	return nil
}

// cachedSnapshot reports whether a previously downloaded snapshot with a
// tokenizer is already on disk.
func cachedSnapshot(manifest *config.Manifest, src config.ModelSource) (string, bool) {
	hf, ok := src.(config.HuggingFaceSource)
	if !ok {
		return "", false
	}

	dir := manifest.Storage.ModelsDir
	if dir == "" {
		dir = config.DefaultModelsPath()
	}

	path := filepath.Join(xfs.ExpandTilde(dir), hf.Repo)
	if _, err := os.Stat(filepath.Join(path, "tokenizer.json")); err != nil {
		return "", false
	}
	return path, true
}
