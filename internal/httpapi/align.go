package httpapi

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/lmoretti/voxgate/internal/audio"
	"github.com/lmoretti/voxgate/internal/gateway"
	"github.com/lmoretti/voxgate/internal/tts"
	"github.com/lmoretti/voxgate/internal/whisper"
)

// Anything smaller cannot be a playable audio clip.
const minAudioBytes = 100

type alignRequest struct {
	AudioFile string `json:"audio_file"`
	Language  string `json:"language"`
}

type alignResponse struct {
	Words []whisper.WordTiming `json:"words"`
}

type speechWithAlignmentRequest struct {
	speechRequest
	Language string `json:"language"`
}

type speechWithAlignmentResponse struct {
	Audio  string               `json:"audio"`
	Words  []whisper.WordTiming `json:"words"`
	Format string               `json:"format"`
}

func (s *Server) handleAlign(w http.ResponseWriter, r *http.Request) {
	var req alignRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.AudioFile) == "" {
		respondError(w, http.StatusBadRequest, "missing_audio", "audio_file is required")
		return
	}

	audioBytes, err := base64.StdEncoding.DecodeString(req.AudioFile)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_base64", fmt.Sprintf("invalid base64 encoding: %v", err))
		return
	}
	if len(audioBytes) < minAudioBytes {
		respondError(w, http.StatusBadRequest, "audio_too_small", "audio file too small")
		return
	}

	log := s.log.With(zap.String("request_id", RequestIDFromContext(r.Context())))
	log.Info("aligning audio", zap.Int("audio_bytes", len(audioBytes)))

	words, err := s.engine.Transcribe(r.Context(), audioBytes, audio.FormatMP3, strings.TrimSpace(req.Language))
	if err != nil {
		log.Error("alignment failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "alignment_failed", fmt.Sprintf("alignment failed: %v", err))
		return
	}

	log.Info("alignment complete", zap.Int("words", len(words)))
	respondJSON(w, http.StatusOK, alignResponse{Words: words})
}

func (s *Server) handleSpeechWithAlignment(w http.ResponseWriter, r *http.Request) {
	var req speechWithAlignmentRequest
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

	log := s.log.With(zap.String("request_id", RequestIDFromContext(r.Context())))

	result, err := s.orchestrator.SynthesizeAndAlign(r.Context(), gateway.SpeechRequest{
		Model:    req.Model,
		Input:    req.Input,
		Voice:    req.Voice,
		Format:   format,
		Speed:    req.Speed,
		Language: strings.TrimSpace(req.Language),
	})
	if err != nil {
		var statusErr *tts.StatusError
		switch {
		case errors.As(err, &statusErr):
			log.Warn("backend refused synthesis", zap.Int("status", statusErr.Status))
			respondError(w, statusErr.Status, "tts_generation_failed",
				fmt.Sprintf("TTS generation failed: %s", strings.TrimSpace(string(statusErr.Body))))
		case errors.Is(err, tts.ErrUnavailable):
			respondError(w, http.StatusServiceUnavailable, "tts_unavailable", "TTS service unavailable")
		case errors.Is(err, gateway.ErrProcessing):
			log.Error("alignment failed after synthesis", zap.Error(err))
			respondError(w, http.StatusInternalServerError, "alignment_failed", err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "internal_error", err.Error())
		}
		return
	}

	respondJSON(w, http.StatusOK, speechWithAlignmentResponse{
		Audio:  base64.StdEncoding.EncodeToString(result.Audio),
		Words:  result.Words,
		Format: string(result.Format),
	})
}
