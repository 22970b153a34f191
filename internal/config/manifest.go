package config

import "errors"

// SourceType represents the type of model source.
type SourceType string

const (
	// SourceTypeHuggingFace represents a Hugging Face model repository source.
	SourceTypeHuggingFace SourceType = "huggingface"
)

// Manifest describes which model snapshot the service runs and how to
// obtain it. It is optional; when absent the manifest is derived from the
// environment (MODEL_NAME, HF_TOKEN, MODEL_CACHE_DIR).
type Manifest struct {
	Version string        `json:"version"           yaml:"version"`
	Storage StorageConfig `json:"storage,omitempty" yaml:"storage,omitempty"`
	Model   ModelConfig   `json:"model"             yaml:"model"`
}

// StorageConfig holds configuration for the model snapshot cache.
type StorageConfig struct {
	ModelsDir string `json:"models_dir,omitempty" yaml:"models_dir,omitempty"`
}

// ModelConfig holds configuration for the speech model.
type ModelConfig struct {
	ID      string        `json:"id"                yaml:"id"`
	Source  SourceConfig  `json:"source"            yaml:"source"`
	Sidecar SidecarConfig `json:"sidecar,omitempty" yaml:"sidecar,omitempty"`
}

// SourceConfig wraps optional sources (only one should be set).
type SourceConfig struct {
	HuggingFace *HuggingFaceSource `json:"huggingface,omitempty" yaml:"huggingface,omitempty"`
}

// SidecarConfig describes the inference server process that executes the
// model. The Go service launches and supervises it.
type SidecarConfig struct {
	Bin  string `json:"bin,omitempty"  yaml:"bin,omitempty"`
	Port int    `json:"port,omitempty" yaml:"port,omitempty"`
}

// ModelSource represents a source for a model.
type ModelSource interface {
	Type() SourceType
}

// HuggingFaceSource represents a Hugging Face model repository source.
type HuggingFaceSource struct {
	Repo          string   `json:"repo"                     yaml:"repo"`
	Revision      string   `json:"revision,omitempty"       yaml:"revision,omitempty"`
	Token         string   `json:"token,omitempty"          yaml:"token,omitempty"`
	Include       []string `json:"include,omitempty"        yaml:"include,omitempty"`
	Exclude       []string `json:"exclude,omitempty"        yaml:"exclude,omitempty"`
	MaxWorkers    int      `json:"max_workers,omitempty"    yaml:"max_workers,omitempty"`
	ForceDownload bool     `json:"force_download,omitempty" yaml:"force_download,omitempty"`
}

// Type returns the Hugging Face source type.
func (h HuggingFaceSource) Type() SourceType {
	return SourceTypeHuggingFace
}

// GetSource returns the active source for the model.
func (m *ModelConfig) GetSource() (ModelSource, error) {
	if m.Source.HuggingFace != nil {
		return *m.Source.HuggingFace, nil
	}

	return nil, errors.New("no source configured for model")
}

// ManifestFromSettings derives a manifest from environment settings when no
// manifest file is present.
func ManifestFromSettings(s *Settings) *Manifest {
	return &Manifest{
		Version: "1",
		Storage: StorageConfig{ModelsDir: s.ModelCacheDir},
		Model: ModelConfig{
			ID: s.ModelName,
			Source: SourceConfig{
				HuggingFace: &HuggingFaceSource{
					Repo:  s.ModelName,
					Token: s.HFToken,
				},
			},
			Sidecar: SidecarConfig{
				Bin:  s.SidecarBin,
				Port: s.SidecarPort,
			},
		},
	}
}
