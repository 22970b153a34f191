package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/vvkharivallabha/indic-seamless-service/internal/config"
	"github.com/vvkharivallabha/indic-seamless-service/internal/lang"
	"github.com/vvkharivallabha/indic-seamless-service/internal/model"
)

type (
	// RootResponseDTO is the service metadata returned by the root endpoint.
	RootResponseDTO struct {
		Service            string            `json:"service"`
		Version            string            `json:"version"`
		Description        string            `json:"description"`
		Documentation      string            `json:"documentation"`
		Health             string            `json:"health"`
		SupportedLanguages string            `json:"supported_languages"`
		Endpoints          map[string]string `json:"endpoints"`
	}

	// HealthResponseDTO reports liveness and model readiness.
	HealthResponseDTO struct {
		Status             string            `json:"status"`
		ModelLoaded        bool              `json:"model_loaded"`
		Device             string            `json:"device,omitempty"`
		ModelStatus        model.Status      `json:"model_status"`
		Error              string            `json:"error,omitempty"`
		SupportedLanguages map[string]string `json:"supported_languages"`
	}

	// LanguagesResponseDTO lists the supported-language table.
	LanguagesResponseDTO struct {
		Languages map[string]string `json:"languages"`
		Count     int               `json:"count"`
	}
)

type (
	// RootOutput is the huma output for the root operation.
	RootOutput struct {
		Body RootResponseDTO
	}

	// HealthOutput is the huma output for the health operation.
	HealthOutput struct {
		Body HealthResponseDTO
	}

	// LanguagesOutput is the huma output for the supported-languages operation.
	LanguagesOutput struct {
		Body LanguagesResponseDTO
	}
)

// InfoHandler serves service metadata, health, and the language table.
type InfoHandler struct {
	models *model.Manager
}

// NewInfoHandler creates a new InfoHandler instance and registers its routes.
func NewInfoHandler(api huma.API, models *model.Manager) *InfoHandler {
	h := &InfoHandler{models: models}

	huma.Register(api, huma.Operation{
		OperationID:   "root",
		Method:        http.MethodGet,
		Path:          "/",
		Summary:       "Service metadata",
		Tags:          []string{"info"},
		DefaultStatus: http.StatusOK,
	}, h.handleRoot)

	huma.Register(api, huma.Operation{
		OperationID:   "health",
		Method:        http.MethodGet,
		Path:          "/health",
		Summary:       "Liveness and model readiness",
		Tags:          []string{"health"},
		DefaultStatus: http.StatusOK,
	}, h.handleHealth)

	huma.Register(api, huma.Operation{
		OperationID:   "supported-languages",
		Method:        http.MethodGet,
		Path:          "/supported-languages",
		Summary:       "Supported transcription languages",
		Tags:          []string{"info"},
		DefaultStatus: http.StatusOK,
	}, h.handleLanguages)

	return h
}

// handleRoot handles the root operation.
func (h *InfoHandler) handleRoot(ctx context.Context, _ *struct{}) (*RootOutput, error) {
	return &RootOutput{
		Body: RootResponseDTO{
			Service:            config.ServiceName,
			Version:            config.ServiceVersion,
			Description:        "REST API for speech-to-text conversion using the ai4bharat/indic-seamless model",
			Documentation:      "/docs",
			Health:             "/health",
			SupportedLanguages: "/supported-languages",
			Endpoints: map[string]string{
				"speech_to_text":      "/speech-to-text",
				"health":              "/health",
				"supported_languages": "/supported-languages",
			},
		},
	}, nil
}

// handleHealth handles the health operation. The process is live as long as
// it answers; model readiness is reported separately so container health
// checks can gate on it.
func (h *InfoHandler) handleHealth(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	state := h.models.Snapshot()

	return &HealthOutput{
		Body: HealthResponseDTO{
			Status:             "healthy",
			ModelLoaded:        state.Ready(),
			Device:             state.Device,
			ModelStatus:        state.Status,
			Error:              state.Error,
			SupportedLanguages: lang.Names,
		},
	}, nil
}

// handleLanguages handles the supported-languages operation.
func (h *InfoHandler) handleLanguages(ctx context.Context, _ *struct{}) (*LanguagesOutput, error) {
	return &LanguagesOutput{
		Body: LanguagesResponseDTO{
			Languages: lang.Names,
			Count:     lang.Count(),
		},
	}, nil
}
