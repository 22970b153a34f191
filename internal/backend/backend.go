// Package backend abstracts the inference runtime executing the speech model.
package backend

import (
	"context"
	"encoding/json"
	"time"
)

// Provider is a string identifier for an inference backend.
type Provider string

const (
	// ProviderSeamless is the seamless inference server sidecar.
	ProviderSeamless Provider = "seamless"
)

// Backend defines the core interface for inference backends.
type Backend interface {
	// Provider returns the backend identifier.
	Provider() Provider

	// Infer runs a generate pass over the preprocessed waveform and returns
	// the raw generated token ids.
	Infer(ctx context.Context, req *Request) (*Response, error)

	// Close cleans up resources.
	Close() error
}

// Request encapsulates all parameters for an inference call.
type Request struct {
	// ModelPath is the local path of the model snapshot.
	ModelPath string

	// TargetLang is the model language code for the transcription, e.g. "hin".
	TargetLang string

	// SampleRate is the waveform sample rate in Hz.
	SampleRate int

	// Samples is the mono waveform, values in [-1, 1].
	Samples []float32
}

// Response contains the result of an inference operation.
type Response struct {
	// Tokens holds the generated token ids as returned by the runtime:
	// either a flat id sequence or a one-element batch of sequences.
	Tokens json.RawMessage

	// Metadata contains backend-specific information.
	Metadata *ResponseMetadata
}

// ResponseMetadata contains metadata about the response.
type ResponseMetadata struct {
	Provider        Provider  `json:"provider"`
	Model           string    `json:"model"`
	Timestamp       time.Time `json:"timestamp"`
	DurationSeconds float64   `json:"duration_seconds"`
}
