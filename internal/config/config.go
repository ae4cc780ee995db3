package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lmoretti/voxgate/internal/whisper"
)

// Config contains all runtime settings for the alignment gateway.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string
	LogJSON          bool
	LogVerbose       bool

	TTSBackendURL     string
	TTSBackendTimeout time.Duration

	WhisperCLI      string
	WhisperModel    string
	WhisperModelDir string
	WhisperDevice   string
	WhisperThreads  int

	AlignMaxConcurrency int
	AlignTimeout        time.Duration
}

// Load reads environment variables, applies defaults and validates the
// result. Every failure here is fatal at startup.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8000"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "voxgate"),
		ShutdownTimeout:  15 * time.Second,

		TTSBackendURL:     envOrDefault("TTS_BACKEND_URL", "http://kokoro-tts:8880"),
		TTSBackendTimeout: 60 * time.Second,

		WhisperCLI:      envOrDefault("WHISPER_CLI", "whisper-cli"),
		WhisperModel:    envOrDefault("WHISPER_MODEL", whisper.DefaultSize),
		WhisperModelDir: envOrDefault("WHISPER_MODEL_DIR", ".models/whisper"),
		WhisperDevice:   envOrDefault("WHISPER_DEVICE", whisper.DeviceCPU),
		// 0 means "auto" (picked based on CPU count).
		WhisperThreads: 0,

		AlignMaxConcurrency: 2,
		AlignTimeout:        2 * time.Minute,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.TTSBackendTimeout, err = durationFromEnv("TTS_BACKEND_TIMEOUT", cfg.TTSBackendTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AlignTimeout, err = durationFromEnv("ALIGN_TIMEOUT", cfg.AlignTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.WhisperThreads, err = intFromEnv("WHISPER_THREADS", cfg.WhisperThreads)
	if err != nil {
		return Config{}, err
	}
	cfg.AlignMaxConcurrency, err = intFromEnv("ALIGN_MAX_CONCURRENCY", cfg.AlignMaxConcurrency)
	if err != nil {
		return Config{}, err
	}
	cfg.LogJSON, err = boolFromEnv("APP_LOG_JSON", cfg.LogJSON)
	if err != nil {
		return Config{}, err
	}
	cfg.LogVerbose, err = boolFromEnv("APP_LOG_VERBOSE", cfg.LogVerbose)
	if err != nil {
		return Config{}, err
	}

	backend, err := url.Parse(strings.TrimSpace(cfg.TTSBackendURL))
	if err != nil || backend.Host == "" || (backend.Scheme != "http" && backend.Scheme != "https") {
		return Config{}, fmt.Errorf("TTS_BACKEND_URL must be an http(s) URL, got %q", cfg.TTSBackendURL)
	}
	if !whisper.KnownSize(cfg.WhisperModel) {
		return Config{}, fmt.Errorf("WHISPER_MODEL must be one of %s, got %q", strings.Join(whisper.Sizes(), ", "), cfg.WhisperModel)
	}
	if !whisper.KnownDevice(cfg.WhisperDevice) {
		return Config{}, fmt.Errorf("WHISPER_DEVICE must be cpu, cuda or metal, got %q", cfg.WhisperDevice)
	}
	if cfg.WhisperThreads < 0 {
		return Config{}, fmt.Errorf("WHISPER_THREADS must be >= 0")
	}
	if cfg.AlignMaxConcurrency <= 0 {
		return Config{}, fmt.Errorf("ALIGN_MAX_CONCURRENCY must be positive")
	}
	if cfg.AlignTimeout <= 0 {
		return Config{}, fmt.Errorf("ALIGN_TIMEOUT must be positive")
	}
	if cfg.TTSBackendTimeout <= 0 {
		return Config{}, fmt.Errorf("TTS_BACKEND_TIMEOUT must be positive")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
