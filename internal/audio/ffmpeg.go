package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os/exec"
	"time"

	"github.com/vvkharivallabha/indic-seamless-service/internal/backend"
)

const ffmpegTimeout = 30 * time.Second

// FFmpeg decodes containers the pure-Go decoders cannot handle by piping
// the bytes through an ffmpeg process.
type FFmpeg struct {
	executor   *backend.Executor
	targetRate int
}

// findFFmpeg probes PATH for ffmpeg. Returns nil when not installed.
func findFFmpeg(targetRate int) *FFmpeg {
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil
	}
	executor, err := backend.NewExecutor(path, ffmpegTimeout)
	if err != nil {
		return nil
	}
	return &FFmpeg{executor: executor, targetRate: targetRate}
}

// Decode converts data to mono float32 at the target rate. ffmpeg reads the
// container from stdin and writes raw little-endian float32 PCM to stdout.
func (f *FFmpeg) Decode(data []byte) ([]float32, error) {
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-i", "pipe:0",
		"-f", "f32le",
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", f.targetRate),
		"pipe:1",
	}

	stdout, stderr, err := f.executor.Execute(context.Background(), args, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: ffmpeg: %v: %s", ErrCorruptAudio, err, stderr)
	}
	if len(stdout) < 4 {
		return nil, ErrEmptyAudio
	}

	samples := make([]float32, len(stdout)/4)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(stdout[4*i:]))
	}
	return samples, nil
}
