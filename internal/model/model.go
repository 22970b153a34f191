// Package model owns the lifecycle of the speech model snapshot: download,
// tokenizer load, device selection, and readiness reporting.
package model

import "time"

// Status is the current loading status of the model.
type Status string

const (
	// StatusUnloaded indicates that the model has not been loaded yet.
	StatusUnloaded Status = "unloaded"

	// StatusDownloading indicates that the snapshot download is in progress.
	StatusDownloading Status = "downloading"

	// StatusLoading indicates that the downloaded snapshot is being loaded.
	StatusLoading Status = "loading"

	// StatusLoaded indicates that the model is ready for inference.
	StatusLoaded Status = "loaded"

	// StatusFailed indicates that the model failed to load.
	StatusFailed Status = "failed"
)

// State describes the model instance. After a successful load it is
// read-only.
type State struct {
	ID       string     `json:"id"`
	Path     string     `json:"-"`
	Device   string     `json:"device,omitempty"`
	Status   Status     `json:"status"`
	LoadedAt *time.Time `json:"loaded_at,omitempty"`
	Error    string     `json:"error,omitempty"`
}

// Ready reports whether the model can serve inference.
func (s State) Ready() bool {
	return s.Status == StatusLoaded
}
