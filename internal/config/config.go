package config

import (
	"os"
	"strconv"
	"time"

	"github.com/vvkharivallabha/indic-seamless-service/internal/envvar"
	"github.com/vvkharivallabha/indic-seamless-service/internal/xfs"
)

// Service identity reported by the root and health endpoints.
const (
	ServiceName    = "Indic-Seamless Speech-to-Text Service"
	ServiceVersion = "1.0.0"
)

// Settings holds the environment-driven runtime configuration.
type Settings struct {
	Host             string
	Port             int
	Debug            bool
	LogLevel         string
	ModelName        string
	ModelLoadTimeout time.Duration
	HFToken          string
	ModelCacheDir    string
	MaxContentLength int64
	TargetSampleRate int
	SidecarBin       string
	SidecarPort      int
}

// FromEnv builds Settings from environment variables, falling back to
// the documented defaults.
func FromEnv() *Settings {
	return &Settings{
		Host:             getString(envvar.Host, "0.0.0.0"),
		Port:             getInt(envvar.Port, 8000),
		Debug:            getBool(envvar.Debug, false),
		LogLevel:         getString(envvar.LogLevel, "info"),
		ModelName:        getString(envvar.ModelName, "ai4bharat/indic-seamless"),
		ModelLoadTimeout: getDuration(envvar.ModelLoadTimeout, 10*time.Minute),
		HFToken:          getString(envvar.HFToken, ""),
		ModelCacheDir:    xfs.ExpandTilde(getString(envvar.ModelCacheDir, DefaultModelsPath())),
		MaxContentLength: getInt64(envvar.MaxContentLength, 50*1024*1024),
		TargetSampleRate: getInt(envvar.TargetSampleRate, 16000),
		SidecarBin:       getString(envvar.SeamlessServerBin, "seamless-server"),
		SidecarPort:      getInt(envvar.SeamlessServerPort, 8082),
	}
}

// Environment returns "development" when debug mode is on, "production" otherwise.
func (s *Settings) Environment() string {
	if s.Debug {
		return "development"
	}
	return "production"
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// getDuration accepts Go duration strings ("10m") and bare seconds ("600").
func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}
