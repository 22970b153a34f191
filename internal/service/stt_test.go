package service

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvkharivallabha/indic-seamless-service/internal/audio"
	"github.com/vvkharivallabha/indic-seamless-service/internal/backend"
	"github.com/vvkharivallabha/indic-seamless-service/internal/config"
	"github.com/vvkharivallabha/indic-seamless-service/internal/model"
	"github.com/vvkharivallabha/indic-seamless-service/internal/tokenizer"
)

// fakeBackend returns canned token payloads and records requests.
type fakeBackend struct {
	tokens   json.RawMessage
	err      error
	requests []*backend.Request
}

func (f *fakeBackend) Provider() backend.Provider { return backend.ProviderSeamless }

func (f *fakeBackend) Infer(ctx context.Context, req *backend.Request) (*backend.Response, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &backend.Response{
		Tokens: f.tokens,
		Metadata: &backend.ResponseMetadata{
			Provider:  backend.ProviderSeamless,
			Model:     req.ModelPath,
			Timestamp: time.Now(),
		},
	}, nil
}

func (f *fakeBackend) Close() error { return nil }

func testVocab() map[string]int {
	return map[string]int{
		"<s>":     0,
		"</s>":    1,
		"__eng__": 2,
		"▁hello":  3,
		"▁there":  4,
	}
}

func newTestSTT(t *testing.T, b backend.Backend, loadErr error) *STT {
	t.Helper()

	manifest := &config.Manifest{
		Version: "1",
		Model: config.ModelConfig{
			ID:     "test/model",
			Source: config.SourceConfig{HuggingFace: &config.HuggingFaceSource{Repo: "test/model"}},
		},
	}

	models := model.NewManagerWithLoader(manifest, func(ctx context.Context, m *config.Manifest) (*model.LoadResult, error) {
		if loadErr != nil {
			return nil, loadErr
		}
		return &model.LoadResult{
			Path:      "/models/test",
			Tokenizer: tokenizer.NewFromVocab(testVocab()),
			Device:    "cpu",
		}, nil
	})

	backends := backend.NewRegistry()
	if b != nil {
		require.NoError(t, backends.Register(b))
	}

	return NewSTT(backends, models, audio.NewDecoder(16000), 16000)
}

// silentWAV builds a PCM16 mono WAV of n zero samples at 16kHz.
func silentWAV(n int) []byte {
	var data bytes.Buffer
	for range n {
		binary.Write(&data, binary.LittleEndian, int16(0))
	}

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+data.Len()))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint32(16000))
	binary.Write(&buf, binary.LittleEndian, uint32(32000))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(data.Len()))
	buf.Write(data.Bytes())
	return buf.Bytes()
}

func TestTranscribe(t *testing.T) {
	fb := &fakeBackend{tokens: json.RawMessage(`[[0, 2, 3, 4, 1]]`)}
	stt := newTestSTT(t, fb, nil)

	result, err := stt.Transcribe(context.Background(), &TranscribeRequest{
		Filename:   "greeting.wav",
		Audio:      silentWAV(16000),
		TargetLang: "English",
	})
	require.NoError(t, err)

	assert.Equal(t, "hello there", result.Transcription)
	assert.Equal(t, "eng", result.LanguageCode)
	assert.NotNil(t, result.Metadata)

	require.Len(t, fb.requests, 1)
	req := fb.requests[0]
	assert.Equal(t, "eng", req.TargetLang)
	assert.Equal(t, "/models/test", req.ModelPath)
	assert.Equal(t, 16000, req.SampleRate)
	assert.NotEmpty(t, req.Samples)
}

func TestTranscribeUnknownLanguage(t *testing.T) {
	stt := newTestSTT(t, &fakeBackend{}, nil)

	_, err := stt.Transcribe(context.Background(), &TranscribeRequest{
		Filename:   "a.wav",
		Audio:      silentWAV(100),
		TargetLang: "Klingon",
	})
	assert.ErrorIs(t, err, ErrUnknownLanguage)
}

func TestTranscribeModelNotReady(t *testing.T) {
	stt := newTestSTT(t, &fakeBackend{}, errors.New("gated model, access denied"))

	_, err := stt.Transcribe(context.Background(), &TranscribeRequest{
		Filename:   "a.wav",
		Audio:      silentWAV(100),
		TargetLang: "English",
	})
	assert.ErrorIs(t, err, model.ErrNotReady)
}

func TestTranscribeBadAudio(t *testing.T) {
	stt := newTestSTT(t, &fakeBackend{}, nil)

	_, err := stt.Transcribe(context.Background(), &TranscribeRequest{
		Filename:   "bad.wav",
		Audio:      []byte("RIFFnot-really-audio"),
		TargetLang: "English",
	})
	assert.ErrorIs(t, err, audio.ErrCorruptAudio)
}

func TestTranscribeFlatAndNestedTokensMatch(t *testing.T) {
	flat := &fakeBackend{tokens: json.RawMessage(`[0, 2, 3, 1]`)}
	nested := &fakeBackend{tokens: json.RawMessage(`[[0, 2, 3, 1]]`)}

	req := func() *TranscribeRequest {
		return &TranscribeRequest{Filename: "a.wav", Audio: silentWAV(1600), TargetLang: "English"}
	}

	r1, err := newTestSTT(t, flat, nil).Transcribe(context.Background(), req())
	require.NoError(t, err)
	r2, err := newTestSTT(t, nested, nil).Transcribe(context.Background(), req())
	require.NoError(t, err)

	assert.Equal(t, r1.Transcription, r2.Transcription)
	assert.Equal(t, "hello", r1.Transcription)
}

func TestTranscribeDeterministic(t *testing.T) {
	fb := &fakeBackend{tokens: json.RawMessage(`[[3, 4]]`)}
	stt := newTestSTT(t, fb, nil)

	req := &TranscribeRequest{Filename: "a.wav", Audio: silentWAV(1600), TargetLang: "Hindi"}

	r1, err := stt.Transcribe(context.Background(), req)
	require.NoError(t, err)
	r2, err := stt.Transcribe(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, r1.Transcription, r2.Transcription)
	assert.Equal(t, "hin", r1.LanguageCode)
}

func TestTranscribeInferenceFailure(t *testing.T) {
	fb := &fakeBackend{err: errors.New("sidecar crashed")}
	stt := newTestSTT(t, fb, nil)

	_, err := stt.Transcribe(context.Background(), &TranscribeRequest{
		Filename:   "a.wav",
		Audio:      silentWAV(1600),
		TargetLang: "English",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inference failed")
}
