// Package service orchestrates speech-to-text requests end to end.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vvkharivallabha/indic-seamless-service/internal/audio"
	"github.com/vvkharivallabha/indic-seamless-service/internal/backend"
	"github.com/vvkharivallabha/indic-seamless-service/internal/lang"
	"github.com/vvkharivallabha/indic-seamless-service/internal/model"
	"github.com/vvkharivallabha/indic-seamless-service/internal/tokenizer"
)

// ErrUnknownLanguage is returned when the requested target language is not
// in the supported-language table.
var ErrUnknownLanguage = errors.New("unsupported language")

// STT is the speech-to-text service.
type STT struct {
	backends   *backend.Registry
	models     *model.Manager
	decoder    *audio.Decoder
	sampleRate int

	// inferSlot serializes generate calls. The sidecar holds a single model
	// instance; queuing here instead of inside it keeps memory bounded and
	// lets waiters honor request cancellation.
	inferSlot chan struct{}
}

// NewSTT creates a new STT service.
func NewSTT(backends *backend.Registry, models *model.Manager, decoder *audio.Decoder, sampleRate int) *STT {
	return &STT{
		backends:   backends,
		models:     models,
		decoder:    decoder,
		sampleRate: sampleRate,
		inferSlot:  make(chan struct{}, 1),
	}
}

// TranscribeRequest carries one upload through the pipeline.
type TranscribeRequest struct {
	// Filename of the upload; its extension selects the audio decoder.
	Filename string

	// Audio is the raw uploaded file content.
	Audio []byte

	// TargetLang is the display name of the transcription language,
	// e.g. "English" or "Hindi".
	TargetLang string
}

// Timings breaks down where a request spent its time.
type Timings struct {
	PreprocessSeconds float64 `json:"preprocess_seconds"`
	InferenceSeconds  float64 `json:"inference_seconds"`
	DecodeSeconds     float64 `json:"decode_seconds"`
}

// TranscribeResult is the outcome of a transcription.
type TranscribeResult struct {
	Transcription string
	LanguageCode  string
	Timings       Timings
	Metadata      *backend.ResponseMetadata
}

// Transcribe validates the language, preprocesses the audio, runs a generate
// pass, and decodes the generated ids to text.
func (s *STT) Transcribe(ctx context.Context, req *TranscribeRequest) (*TranscribeResult, error) {
	code, ok := lang.CodeForName(req.TargetLang)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLanguage, req.TargetLang)
	}

	state, tok, err := s.models.Ensure(ctx)
	if err != nil {
		return nil, err
	}

	var timings Timings

	start := time.Now()
	samples, err := s.decoder.Decode(req.Audio, req.Filename)
	if err != nil {
		return nil, err
	}
	timings.PreprocessSeconds = time.Since(start).Seconds()

	select {
	case s.inferSlot <- struct{}{}:
		defer func() { <-s.inferSlot }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	b, ok := s.backends.Get(backend.ProviderSeamless)
	if !ok {
		return nil, backend.ErrNotFound
	}

	start = time.Now()
	resp, err := b.Infer(ctx, &backend.Request{
		ModelPath:  state.Path,
		TargetLang: code,
		SampleRate: s.sampleRate,
		Samples:    samples,
	})
	if err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	timings.InferenceSeconds = time.Since(start).Seconds()

	start = time.Now()
	ids, err := tokenizer.NormalizeIDs(resp.Tokens)
	if err != nil {
		return nil, fmt.Errorf("failed to decode generated tokens: %w", err)
	}
	text := tok.Decode(ids, true)
	timings.DecodeSeconds = time.Since(start).Seconds()

	return &TranscribeResult{
		Transcription: text,
		LanguageCode:  code,
		Timings:       timings,
		Metadata:      resp.Metadata,
	}, nil
}
