// Package http exposes the service's REST API.
package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/vvkharivallabha/indic-seamless-service/internal/config"
	"github.com/vvkharivallabha/indic-seamless-service/internal/model"
	"github.com/vvkharivallabha/indic-seamless-service/internal/service"
)

// Options wires the HTTP layer to the rest of the service.
type Options struct {
	Settings *config.Settings
	Service  *service.STT
	Models   *model.Manager
}

// NewHandler builds the chi router with the huma API mounted on it.
func NewHandler(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
	}))
	r.Use(maxBytes(opts.Settings.MaxContentLength))

	cfg := huma.DefaultConfig(config.ServiceName, config.ServiceVersion)
	cfg.DocsPath = "/docs"
	api := humachi.New(r, cfg)

	NewInfoHandler(api, opts.Models)
	NewSTTHandler(api, opts.Service)

	return r
}

// New builds the http.Server listening per the settings.
func New(opts Options) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", opts.Settings.Host, opts.Settings.Port),
		Handler:           NewHandler(opts),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// maxBytes rejects oversized uploads up front and caps chunked bodies.
func maxBytes(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				w.Header().Set("Content-Type", "application/problem+json")
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"title":  http.StatusText(http.StatusRequestEntityTooLarge),
					"status": http.StatusRequestEntityTooLarge,
					"detail": fmt.Sprintf("request body exceeds the %d byte limit", limit),
				})
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
