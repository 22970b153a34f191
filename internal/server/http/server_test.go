package http

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvkharivallabha/indic-seamless-service/internal/audio"
	"github.com/vvkharivallabha/indic-seamless-service/internal/backend"
	"github.com/vvkharivallabha/indic-seamless-service/internal/config"
	"github.com/vvkharivallabha/indic-seamless-service/internal/lang"
	"github.com/vvkharivallabha/indic-seamless-service/internal/model"
	"github.com/vvkharivallabha/indic-seamless-service/internal/service"
	"github.com/vvkharivallabha/indic-seamless-service/internal/tokenizer"
)

type fakeBackend struct {
	tokens json.RawMessage
	err    error
}

func (f *fakeBackend) Provider() backend.Provider { return backend.ProviderSeamless }

func (f *fakeBackend) Infer(ctx context.Context, req *backend.Request) (*backend.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &backend.Response{
		Tokens:   f.tokens,
		Metadata: &backend.ResponseMetadata{Provider: backend.ProviderSeamless, Timestamp: time.Now()},
	}, nil
}

func (f *fakeBackend) Close() error { return nil }

type testEnv struct {
	handler http.Handler
	models  *model.Manager
}

func newTestEnv(t *testing.T, b backend.Backend, loadErr error) *testEnv {
	t.Helper()

	settings := &config.Settings{
		Host:             "127.0.0.1",
		Port:             0,
		MaxContentLength: 1 << 20,
		TargetSampleRate: 16000,
	}

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
			Path: "/models/test",
			Tokenizer: tokenizer.NewFromVocab(map[string]int{
				"</s>":    0,
				"__eng__": 1,
				"▁hello":  2,
				"▁world":  3,
			}),
			Device: "cpu",
		}, nil
	})

	backends := backend.NewRegistry()
	if b != nil {
		require.NoError(t, backends.Register(b))
	}

	svc := service.NewSTT(backends, models, audio.NewDecoder(16000), 16000)

	return &testEnv{
		handler: NewHandler(Options{Settings: settings, Service: svc, Models: models}),
		models:  models,
	}
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

// multipartBody builds a speech-to-text form with an optional audio file.
func multipartBody(t *testing.T, filename string, content []byte, targetLang string) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	if filename != "" {
		part, err := w.CreateFormFile("audio", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	if targetLang != "" {
		require.NoError(t, w.WriteField("target_lang", targetLang))
	}
	require.NoError(t, w.Close())

	return &body, w.FormDataContentType()
}

func postSpeechToText(env *testEnv, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/speech-to-text", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	return rec
}

func TestRoot(t *testing.T) {
	env := newTestEnv(t, &fakeBackend{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body RootResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, config.ServiceName, body.Service)
	assert.Equal(t, "/speech-to-text", body.Endpoints["speech_to_text"])
}

func TestHealthBeforeAndAfterLoad(t *testing.T) {
	env := newTestEnv(t, &fakeBackend{}, nil)

	get := func() HealthResponseDTO {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var body HealthResponseDTO
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		return body
	}

	before := get()
	assert.False(t, before.ModelLoaded)
	assert.Equal(t, model.StatusUnloaded, before.ModelStatus)
	assert.NotEmpty(t, before.SupportedLanguages)

	_, _, err := env.models.Ensure(context.Background())
	require.NoError(t, err)

	after := get()
	assert.True(t, after.ModelLoaded)
	assert.Equal(t, model.StatusLoaded, after.ModelStatus)
	assert.Equal(t, "cpu", after.Device)
}

func TestHealthReportsLoadFailure(t *testing.T) {
	env := newTestEnv(t, &fakeBackend{}, errors.New("access to gated model denied"))

	_, _, err := env.models.Ensure(context.Background())
	require.Error(t, err)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body HealthResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.ModelLoaded)
	assert.Equal(t, model.StatusFailed, body.ModelStatus)
	assert.Contains(t, body.Error, "gated")
}

func TestSupportedLanguages(t *testing.T) {
	env := newTestEnv(t, &fakeBackend{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/supported-languages", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body LanguagesResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, lang.Count(), body.Count)
	assert.Equal(t, "English", body.Languages["eng"])
	assert.NotEmpty(t, body.Languages)
}

func TestSpeechToText(t *testing.T) {
	env := newTestEnv(t, &fakeBackend{tokens: json.RawMessage(`[[1, 2, 3, 0]]`)}, nil)

	body, contentType := multipartBody(t, "greeting.wav", silentWAV(16000), "English")
	rec := postSpeechToText(env, body, contentType)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp SpeechToTextResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "hello world", resp.Transcription)
	assert.Equal(t, "eng", resp.LanguageCode)
}

func TestSpeechToTextDefaultsToEnglish(t *testing.T) {
	env := newTestEnv(t, &fakeBackend{tokens: json.RawMessage(`[2]`)}, nil)

	body, contentType := multipartBody(t, "a.wav", silentWAV(1600), "")
	rec := postSpeechToText(env, body, contentType)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp SpeechToTextResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "eng", resp.LanguageCode)
}

func TestSpeechToTextMissingFile(t *testing.T) {
	env := newTestEnv(t, &fakeBackend{}, nil)

	body, contentType := multipartBody(t, "", nil, "English")
	rec := postSpeechToText(env, body, contentType)

	assert.GreaterOrEqual(t, rec.Code, 400)
	assert.Less(t, rec.Code, 500)
}

func TestSpeechToTextBadExtension(t *testing.T) {
	env := newTestEnv(t, &fakeBackend{}, nil)

	body, contentType := multipartBody(t, "notes.txt", []byte("hello"), "English")
	rec := postSpeechToText(env, body, contentType)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid file format")
}

func TestSpeechToTextUnknownLanguage(t *testing.T) {
	env := newTestEnv(t, &fakeBackend{}, nil)

	body, contentType := multipartBody(t, "a.wav", silentWAV(1600), "Klingon")
	rec := postSpeechToText(env, body, contentType)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported language")
}

func TestSpeechToTextModelNotReady(t *testing.T) {
	env := newTestEnv(t, &fakeBackend{}, errors.New("download failed"))

	body, contentType := multipartBody(t, "a.wav", silentWAV(1600), "English")
	rec := postSpeechToText(env, body, contentType)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSpeechToTextInferenceFailure(t *testing.T) {
	env := newTestEnv(t, &fakeBackend{err: errors.New("sidecar crashed")}, nil)

	body, contentType := multipartBody(t, "a.wav", silentWAV(1600), "English")
	rec := postSpeechToText(env, body, contentType)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSpeechToTextOversizedBody(t *testing.T) {
	env := newTestEnv(t, &fakeBackend{}, nil)

	// Body above the 1MiB test limit.
	body, contentType := multipartBody(t, "big.wav", make([]byte, 2<<20), "English")
	rec := postSpeechToText(env, body, contentType)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestSpeechToTextCorruptAudio(t *testing.T) {
	env := newTestEnv(t, &fakeBackend{}, nil)

	body, contentType := multipartBody(t, "bad.wav", []byte("RIFFnot-a-wave"), "English")
	rec := postSpeechToText(env, body, contentType)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
