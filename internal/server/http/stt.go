package http

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/vvkharivallabha/indic-seamless-service/internal/audio"
	"github.com/vvkharivallabha/indic-seamless-service/internal/backend"
	"github.com/vvkharivallabha/indic-seamless-service/internal/model"
	"github.com/vvkharivallabha/indic-seamless-service/internal/service"
)

// defaultTargetLang is used when the form omits target_lang.
const defaultTargetLang = "English"

type (
	// SpeechToTextResponseDTO is the transcription response body.
	SpeechToTextResponseDTO struct {
		Transcription string                    `json:"transcription"`
		LanguageCode  string                    `json:"language_code"`
		Timings       service.Timings           `json:"timings"`
		Metadata      *backend.ResponseMetadata `json:"metadata,omitempty"`
	}
)

type (
	// SpeechToTextInput is the huma input for the speech-to-text operation.
	SpeechToTextInput struct {
		RawBody huma.MultipartFormFiles[struct {
			Audio      huma.FormFile `form:"audio" contentType:"audio/*,application/octet-stream" required:"true"`
			TargetLang string        `form:"target_lang"`
		}]
	}

	// SpeechToTextOutput is the huma output for the speech-to-text operation.
	SpeechToTextOutput struct {
		Body SpeechToTextResponseDTO
	}
)

// STTHandler handles HTTP requests for speech-to-text.
type STTHandler struct {
	service *service.STT
}

// NewSTTHandler creates a new STTHandler instance and registers its route.
func NewSTTHandler(api huma.API, svc *service.STT) *STTHandler {
	h := &STTHandler{service: svc}

	huma.Register(api, huma.Operation{
		OperationID:   "speech-to-text",
		Method:        http.MethodPost,
		Path:          "/speech-to-text",
		Summary:       "Convert speech to text",
		Tags:          []string{"speech"},
		DefaultStatus: http.StatusOK,
	}, h.handleSpeechToText)

	return h
}

// handleSpeechToText handles the speech-to-text operation.
func (h *STTHandler) handleSpeechToText(ctx context.Context, input *SpeechToTextInput) (*SpeechToTextOutput, error) {
	formData := input.RawBody.Data()
	audioFile := formData.Audio

	if !audioFile.IsSet {
		return nil, huma.Error400BadRequest("audio file is required", nil)
	}

	if !audio.AllowedFile(audioFile.Filename) {
		return nil, huma.Error400BadRequest("invalid file format, allowed: wav, mp3, flac, m4a, ogg", nil)
	}

	audioBytes, err := io.ReadAll(audioFile)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to read audio file", err)
	}

	targetLang := formData.TargetLang
	if targetLang == "" {
		targetLang = defaultTargetLang
	}

	result, err := h.service.Transcribe(ctx, &service.TranscribeRequest{
		Filename:   audioFile.Filename,
		Audio:      audioBytes,
		TargetLang: targetLang,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownLanguage),
			errors.Is(err, audio.ErrUnsupportedFormat),
			errors.Is(err, audio.ErrCorruptAudio),
			errors.Is(err, audio.ErrEmptyAudio):
			return nil, huma.Error400BadRequest(err.Error(), nil)
		case errors.Is(err, model.ErrNotReady):
			return nil, huma.Error503ServiceUnavailable("model is not ready, try again later", err)
		default:
			return nil, huma.Error500InternalServerError("failed to transcribe", err)
		}
	}

	return &SpeechToTextOutput{
		Body: SpeechToTextResponseDTO{
			Transcription: result.Transcription,
			LanguageCode:  result.LanguageCode,
			Timings:       result.Timings,
			Metadata:      result.Metadata,
		},
	}, nil
}
