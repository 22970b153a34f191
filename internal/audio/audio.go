// Package audio converts uploaded audio files into the mono float32
// waveform the speech model expects.
package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	mp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

// Error taxonomy surfaced to API clients.
var (
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrCorruptAudio      = errors.New("corrupted or unreadable audio file")
	ErrEmptyAudio        = errors.New("audio file contains no samples")
)

// allowedExtensions are the upload extensions the service accepts.
var allowedExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".flac": true,
	".m4a":  true,
	".ogg":  true,
}

// AllowedFile reports whether the uploaded filename has an accepted
// audio extension.
func AllowedFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return allowedExtensions[ext]
}

// Decoder turns raw upload bytes into mono PCM at a fixed sample rate.
// Formats without a pure-Go decoder (m4a) go through ffmpeg when available.
type Decoder struct {
	targetRate int
	ffmpeg     *FFmpeg
}

// NewDecoder creates a Decoder producing waveforms at targetRate Hz. ffmpeg
// is probed once; when absent, only the pure-Go formats are decodable.
func NewDecoder(targetRate int) *Decoder {
	return &Decoder{
		targetRate: targetRate,
		ffmpeg:     findFFmpeg(targetRate),
	}
}

// Decode converts data into mono float32 samples at the decoder's target
// rate. The filename extension selects the decoder; unknown extensions fall
// back to content sniffing and then to ffmpeg.
func (d *Decoder) Decode(data []byte, filename string) ([]float32, error) {
	if len(data) == 0 {
		return nil, ErrEmptyAudio
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".wav":
		return d.decodeWAV(data)
	case ".mp3":
		return d.decodeMP3(data)
	case ".ogg":
		return d.decodeOggVorbis(data)
	case ".flac":
		return d.decodeFLAC(data)
	case ".m4a":
		return d.decodeWithFFmpeg(data)
	default:
		return d.decodeSniffed(data)
	}
}

// decodeSniffed picks a decoder from the container magic.
func (d *Decoder) decodeSniffed(data []byte) ([]float32, error) {
	if len(data) >= 4 {
		switch {
		case bytes.HasPrefix(data, []byte("RIFF")):
			return d.decodeWAV(data)
		case bytes.HasPrefix(data, []byte("OggS")):
			return d.decodeOggVorbis(data)
		case bytes.HasPrefix(data, []byte("fLaC")):
			return d.decodeFLAC(data)
		case bytes.HasPrefix(data, []byte("ID3")):
			return d.decodeMP3(data)
		}
	}
	if d.ffmpeg != nil {
		return d.decodeWithFFmpeg(data)
	}
	return nil, ErrUnsupportedFormat
}

func (d *Decoder) decodeWithFFmpeg(data []byte) ([]float32, error) {
	if d.ffmpeg == nil {
		return nil, fmt.Errorf("%w: ffmpeg not available", ErrUnsupportedFormat)
	}
	return d.ffmpeg.Decode(data)
}

func (d *Decoder) decodeWAV(data []byte) ([]float32, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: invalid wav", ErrCorruptAudio)
	}
	pb, err := dec.FullPCMBuffer()
	if err != nil || pb == nil || pb.Data == nil {
		return nil, fmt.Errorf("%w: wav payload unreadable", ErrCorruptAudio)
	}
	if len(pb.Data) == 0 {
		return nil, ErrEmptyAudio
	}

	bitDepth := int(dec.BitDepth)
	if bitDepth == 0 {
		bitDepth = 16
	}
	x := intSliceToFloat32(pb.Data, bitDepth)

	channels := 1
	rate := 44100
	if pb.Format != nil {
		if pb.Format.NumChannels > 0 {
			channels = pb.Format.NumChannels
		}
		if pb.Format.SampleRate > 0 {
			rate = pb.Format.SampleRate
		}
	}

	return d.finish(x, channels, rate)
}

func (d *Decoder) decodeMP3(data []byte) ([]float32, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptAudio, err)
	}

	var raw bytes.Buffer
	if _, err := io.Copy(&raw, dec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptAudio, err)
	}
	if raw.Len() == 0 {
		return nil, ErrEmptyAudio
	}

	ints := make([]int16, raw.Len()/2)
	if err := binary.Read(bytes.NewReader(raw.Bytes()), binary.LittleEndian, &ints); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptAudio, err)
	}

	x := int16SliceToFloat32(ints)

	// go-mp3 always emits 16-bit stereo.
	rate := dec.SampleRate()
	if rate <= 0 {
		rate = 44100
	}
	return d.finish(x, 2, rate)
}

func (d *Decoder) decodeOggVorbis(data []byte) ([]float32, error) {
	pcm, format, err := oggvorbis.ReadAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptAudio, err)
	}
	if format == nil || format.Channels <= 0 || format.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: invalid ogg/vorbis stream", ErrCorruptAudio)
	}
	if len(pcm) == 0 {
		return nil, ErrEmptyAudio
	}

	return d.finish(pcm, format.Channels, format.SampleRate)
}

func (d *Decoder) decodeFLAC(data []byte) ([]float32, error) {
	stream, err := flac.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptAudio, err)
	}

	channels := int(stream.Info.NChannels)
	if channels <= 0 {
		channels = 1
	}
	rate := int(stream.Info.SampleRate)
	if rate <= 0 {
		rate = 44100
	}
	scale := float32(math.Pow(2, float64(stream.Info.BitsPerSample-1)))

	var x []float32
	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptAudio, err)
		}

		n := len(frame.Subframes[0].Samples)
		for i := 0; i < n; i++ {
			var sum float32
			for ch := 0; ch < len(frame.Subframes); ch++ {
				sum += float32(frame.Subframes[ch].Samples[i]) / scale
			}
			x = append(x, sum/float32(len(frame.Subframes)))
		}
	}
	if len(x) == 0 {
		return nil, ErrEmptyAudio
	}

	// FLAC frames were downmixed above; only resampling remains.
	return d.finish(x, 1, rate)
}

// finish downmixes interleaved channels and resamples to the target rate.
func (d *Decoder) finish(x []float32, channels, rate int) ([]float32, error) {
	if channels > 1 {
		x = downmixInterleaved(x, channels)
	}
	if rate != d.targetRate {
		x = resampleLinear(x, rate, d.targetRate)
	}
	if len(x) == 0 {
		return nil, ErrEmptyAudio
	}
	return x, nil
}

// downmixInterleaved averages interleaved channels into mono.
func downmixInterleaved(x []float32, channels int) []float32 {
	if channels <= 1 {
		return x
	}
	out := make([]float32, len(x)/channels)
	for i := range out {
		var sum float32
		for ch := 0; ch < channels; ch++ {
			sum += x[i*channels+ch]
		}
		out[i] = sum / float32(channels)
	}
	return out
}

// resampleLinear converts the waveform between sample rates with linear
// interpolation.
func resampleLinear(x []float32, from, to int) []float32 {
	if from == to || len(x) == 0 {
		return x
	}
	outLen := int(math.Round(float64(len(x)) * float64(to) / float64(from)))
	if outLen <= 0 {
		return nil
	}
	out := make([]float32, outLen)
	ratio := float64(len(x)-1) / float64(outLen-1)
	if outLen == 1 {
		out[0] = x[0]
		return out
	}
	for i := range out {
		pos := float64(i) * ratio
		lo := int(pos)
		hi := lo + 1
		if hi >= len(x) {
			out[i] = x[len(x)-1]
			continue
		}
		frac := float32(pos - float64(lo))
		out[i] = x[lo]*(1-frac) + x[hi]*frac
	}
	return out
}

func intSliceToFloat32(data []int, bitDepth int) []float32 {
	scale := float32(math.Pow(2, float64(bitDepth-1)))
	out := make([]float32, len(data))
	for i, v := range data {
		out[i] = float32(v) / scale
	}
	return out
}

func int16SliceToFloat32(data []int16) []float32 {
	out := make([]float32, len(data))
	for i, v := range data {
		out[i] = float32(v) / 32768
	}
	return out
}
