package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/lmoretti/voxgate/internal/audio"
	"github.com/lmoretti/voxgate/internal/tts"
)

type speechRequest struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	ResponseFormat string  `json:"response_format"`
	Speed          float64 `json:"speed"`
}

func (req *speechRequest) applyDefaults() {
	if strings.TrimSpace(req.Model) == "" {
		req.Model = "tts-1"
	}
	if strings.TrimSpace(req.Voice) == "" {
		req.Voice = "af_alloy"
	}
	if strings.TrimSpace(req.ResponseFormat) == "" {
		req.ResponseFormat = string(audio.FormatMP3)
	}
	if req.Speed <= 0 {
		req.Speed = 1.0
	}
}

// passThrough relays a backend listing endpoint verbatim.
func (s *Server) passThrough(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := s.backend.Forward(r.Context(), http.MethodGet, path, nil)
		if err != nil {
			s.log.Error("backend pass-through failed", zap.String("path", path), zap.Error(err))
			respondError(w, http.StatusServiceUnavailable, "tts_unavailable", "TTS service unavailable")
			return
		}
		relayBackendResponse(w, res, "application/json")
	}
}

func (s *Server) handleSpeech(w http.ResponseWriter, r *http.Request) {
	var req speechRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	req.applyDefaults()
	if strings.TrimSpace(req.Input) == "" {
		respondError(w, http.StatusBadRequest, "missing_input", "input text is required")
		return
	}
	format, ok := audio.ParseFormat(req.ResponseFormat)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_format",
			"response_format must be one of "+strings.Join(audio.Formats(), ", "))
		return
	}

	audioBytes, err := s.backend.Synthesize(r.Context(), tts.SpeechRequest{
		Model:          req.Model,
		Input:          req.Input,
		Voice:          req.Voice,
		ResponseFormat: string(format),
		Speed:          req.Speed,
	})
	if err != nil {
		var statusErr *tts.StatusError
		switch {
		case errors.As(err, &statusErr):
			// The backend already described the failure; hand its answer through.
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(statusErr.Status)
			_, _ = w.Write(statusErr.Body)
		case errors.Is(err, tts.ErrUnavailable):
			respondError(w, http.StatusServiceUnavailable, "tts_unavailable", "TTS service unavailable")
		default:
			respondError(w, http.StatusInternalServerError, "internal_error", err.Error())
		}
		return
	}

	w.Header().Set("Content-Type", format.MIME())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audioBytes)
}

// handleWeb proxies the backend's bundled web UI.
func (s *Server) handleWeb(w http.ResponseWriter, r *http.Request) {
	path := "/web/"
	if sub := chi.URLParam(r, "*"); sub != "" {
		path += sub
	}
	res, err := s.backend.Forward(r.Context(), http.MethodGet, path, nil)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "tts_unavailable", "TTS service unavailable")
		return
	}
	relayBackendResponse(w, res, "text/html")
}

func relayBackendResponse(w http.ResponseWriter, res *tts.BackendResponse, fallbackContentType string) {
	contentType := res.ContentType
	if contentType == "" {
		contentType = fallbackContentType
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(res.Status)
	_, _ = w.Write(res.Body)
}
