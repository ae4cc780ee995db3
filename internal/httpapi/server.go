package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lmoretti/voxgate/internal/config"
	"github.com/lmoretti/voxgate/internal/gateway"
	"github.com/lmoretti/voxgate/internal/observability"
	"github.com/lmoretti/voxgate/internal/tts"
	"github.com/lmoretti/voxgate/internal/whisper"
)

const serviceName = "voxgate"
const serviceVersion = "1.0.0"

type Server struct {
	cfg          config.Config
	backend      *tts.Client
	engine       *whisper.Engine
	orchestrator *gateway.Orchestrator
	metrics      *observability.Metrics
	log          *zap.Logger
}

func New(cfg config.Config, backend *tts.Client, engine *whisper.Engine, orchestrator *gateway.Orchestrator, metrics *observability.Metrics, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		cfg:          cfg,
		backend:      backend,
		engine:       engine,
		orchestrator: orchestrator,
		metrics:      metrics,
		log:          log,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)

	r.Get("/", s.handleRoot)
	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Get("/v1/models", s.passThrough("/v1/models"))
	r.Get("/v1/audio/voices", s.passThrough("/v1/audio/voices"))
	r.Post("/v1/audio/speech", s.handleSpeech)
	r.Post("/v1/audio/align", s.handleAlign)
	r.Post("/v1/audio/speech_with_alignment", s.handleSpeechWithAlignment)

	r.Get("/web", s.handleWeb)
	r.Get("/web/*", s.handleWeb)

	return r
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"service":        serviceName,
		"version":        serviceVersion,
		"tts_backend":    s.backend.BaseURL(),
		"whisper_model":  s.cfg.WhisperModel,
		"whisper_device": s.cfg.WhisperDevice,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

type ctxKeyRequestID struct{}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyRequestID{}, id)))
	})
}

// RequestIDFromContext returns the correlation id assigned by the router.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID{}).(string)
	return id
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
