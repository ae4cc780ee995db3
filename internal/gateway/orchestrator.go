// Package gateway sequences speech synthesis and word alignment into one
// client-facing operation.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/lmoretti/voxgate/internal/audio"
	"github.com/lmoretti/voxgate/internal/langid"
	"github.com/lmoretti/voxgate/internal/tts"
	"github.com/lmoretti/voxgate/internal/whisper"
)

// ErrProcessing marks an alignment failure after synthesis already
// succeeded. Non-retryable for that input.
var ErrProcessing = errors.New("alignment processing failed")

// SpeechRequest is the combined synthesize-and-align input.
type SpeechRequest struct {
	Model    string
	Input    string
	Voice    string
	Format   audio.Format
	Speed    float64
	Language string
}

// CombinedResult pairs synthesized audio with its word-level alignment.
type CombinedResult struct {
	Audio  []byte
	Words  []whisper.WordTiming
	Format audio.Format
}

type Orchestrator struct {
	backend *tts.Client
	engine  *whisper.Engine
	log     *zap.Logger
}

func New(backend *tts.Client, engine *whisper.Engine, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{backend: backend, engine: engine, log: log}
}

// SynthesizeAndAlign runs synthesis, language resolution and alignment as
// a fail-fast pipeline. A backend failure short-circuits before any
// inference work; alignment errors wrap ErrProcessing.
func (o *Orchestrator) SynthesizeAndAlign(ctx context.Context, req SpeechRequest) (*CombinedResult, error) {
	audioBytes, err := o.backend.Synthesize(ctx, tts.SpeechRequest{
		Model:          req.Model,
		Input:          req.Input,
		Voice:          req.Voice,
		ResponseFormat: string(req.Format),
		Speed:          req.Speed,
	})
	if err != nil {
		return nil, err
	}

	language := req.Language
	if language == "" {
		// Derived from the input text, not the audio: the synthesized
		// speech is by construction in the language of the text.
		language = langid.Detect(req.Input)
	}

	o.log.Info("aligning synthesized speech",
		zap.Int("audio_bytes", len(audioBytes)),
		zap.String("language", language),
		zap.String("format", string(req.Format)))

	words, err := o.engine.Transcribe(ctx, audioBytes, req.Format, language)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProcessing, err)
	}

	return &CombinedResult{Audio: audioBytes, Words: words, Format: req.Format}, nil
}
