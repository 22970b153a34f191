// Package seamless implements backend.Backend against the seamless
// inference server, a sidecar process that owns the tensor runtime and the
// loaded model weights. The sidecar is launched on first use and reached
// over localhost HTTP.
package seamless

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/vvkharivallabha/indic-seamless-service/internal/backend"
)

const (
	// BackendName is the sidecar process name used by the server manager.
	BackendName = "seamless-server"

	// DefaultPort is the localhost port the sidecar listens on.
	DefaultPort = 8082
)

// Generation parameters are pinned rather than taken from the request.
// Greedy single-beam decoding keeps output deterministic for identical
// input, and the bounded output length keeps the model on its
// text-generation path; the speech-generation path miscomputes internal
// buffer sizes when invoked for text-only output.
const (
	numBeams     = 1
	doSample     = false
	temperature  = 0.0
	maxNewTokens = 256
)

// Backend implements backend.Backend for the seamless inference server.
type Backend struct {
	binPath       string
	serverManager *backend.ServerManager
	client        *http.Client
	port          int
}

// generateResponse is the sidecar's reply to a /generate call. Tokens may be
// a flat id sequence or a one-element batch of sequences depending on the
// runtime version; the shape is normalized downstream.
type generateResponse struct {
	Tokens   json.RawMessage `json:"tokens"`
	Duration float64         `json:"duration,omitempty"`
}

// NewBackend creates a new Backend instance.
func NewBackend(binPath string, port int, serverManager *backend.ServerManager) *Backend {
	if port <= 0 {
		port = DefaultPort
	}
	return &Backend{
		binPath:       binPath,
		serverManager: serverManager,
		client: &http.Client{
			Timeout: 5 * time.Minute, // generation can take a while on CPU
		},
		port: port,
	}
}

// Provider implements backend.Backend.
func (b *Backend) Provider() backend.Provider {
	return backend.ProviderSeamless
}

// Close implements backend.Backend.
func (b *Backend) Close() error {
	return b.serverManager.StopServer(BackendName, b.port)
}

// Infer implements backend.Backend. It ensures the sidecar is up, posts the
// waveform, and returns the generated token ids untouched.
func (b *Backend) Infer(ctx context.Context, req *backend.Request) (*backend.Response, error) {
	args := []string{
		"--model", req.ModelPath,
		"--port", fmt.Sprintf("%d", b.port),
		"--host", "127.0.0.1",
	}

	if err := b.serverManager.StartServer(backend.ServerConfig{
		Name:         BackendName,
		BinPath:      b.binPath,
		Args:         args,
		Port:         b.port,
		HealthPath:   "/health",
		ReadyTimeout: 2 * time.Minute, // weights load into the sidecar on start
	}); err != nil {
		return nil, fmt.Errorf("failed to start server: %w", err)
	}

	var requestBody bytes.Buffer
	writer := multipart.NewWriter(&requestBody)

	part, err := writer.CreateFormFile("audio", "audio.f32le")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if err := writeSamples(part, req.Samples); err != nil {
		return nil, fmt.Errorf("failed to write audio data: %w", err)
	}

	if err := b.addGenerateParams(writer, req); err != nil {
		return nil, fmt.Errorf("failed to add parameters: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx,
		http.MethodPost,
		fmt.Sprintf("http://localhost:%d/generate", b.port),
		&requestBody,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	start := time.Now()

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	elapsed := time.Since(start).Seconds()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}
		return nil, fmt.Errorf("request failed with status code %d: %s", resp.StatusCode, body)
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return b.toResponse(&genResp, req.ModelPath, elapsed), nil
}

// toResponse wraps the sidecar reply. The sidecar reports its own generation
// time; wall-clock elapsed is the fallback for builds that omit it.
func (b *Backend) toResponse(genResp *generateResponse, modelPath string, elapsed float64) *backend.Response {
	duration := elapsed
	if genResp.Duration > 0 {
		duration = genResp.Duration
	}

	return &backend.Response{
		Tokens: genResp.Tokens,
		Metadata: &backend.ResponseMetadata{
			Provider:        b.Provider(),
			Model:           modelPath,
			Timestamp:       time.Now(),
			DurationSeconds: duration,
		},
	}
}

// addGenerateParams writes the target language and the pinned generation
// parameters to the multipart form.
func (b *Backend) addGenerateParams(w *multipart.Writer, req *backend.Request) error {
	params := map[string]string{
		"tgt_lang":       req.TargetLang,
		"sample_rate":    fmt.Sprintf("%d", req.SampleRate),
		"num_beams":      fmt.Sprintf("%d", numBeams),
		"do_sample":      fmt.Sprintf("%t", doSample),
		"temperature":    fmt.Sprintf("%.2f", temperature),
		"max_new_tokens": fmt.Sprintf("%d", maxNewTokens),
	}

	for key, value := range params {
		if err := w.WriteField(key, value); err != nil {
			return fmt.Errorf("failed to write field %s: %w", key, err)
		}
	}

	return nil
}

// writeSamples encodes the waveform as little-endian float32 PCM.
func writeSamples(w io.Writer, samples []float32) error {
	buf := make([]byte, 4*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(s))
	}
	_, err := w.Write(buf)
	return err
}
