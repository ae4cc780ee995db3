package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lmoretti/voxgate/internal/audio"
	"github.com/lmoretti/voxgate/internal/observability"
)

// Silence shorter than this is kept; longer gaps are cut by the VAD
// pre-filter so near-silent stretches don't produce phantom words.
const vadMinSilenceMS = 200

// WordTiming marks when one spoken word begins and ends, in seconds
// rounded to 3 decimal places.
type WordTiming struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Engine produces word-level timings for an audio payload. Each call is
// independent; nothing is cached between requests.
type Engine struct {
	manager *Manager
	pool    *Pool
	timeout time.Duration
	metrics *observability.Metrics
	log     *zap.Logger
}

func NewEngine(manager *Manager, pool *Pool, timeout time.Duration, metrics *observability.Metrics, log *zap.Logger) *Engine {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		manager: manager,
		pool:    pool,
		timeout: timeout,
		metrics: metrics,
		log:     log,
	}
}

// Transcribe runs word-level speech recognition over one audio buffer.
// An empty result is valid; any engine failure returns no words at all.
// The temp file backing the call is removed on every exit path.
func (e *Engine) Transcribe(ctx context.Context, audioBytes []byte, format audio.Format, language string) ([]WordTiming, error) {
	handle, err := e.manager.Acquire()
	if err != nil {
		return nil, fmt.Errorf("speech model unavailable: %w", err)
	}

	if err := e.pool.Acquire(ctx); err != nil {
		return nil, err
	}
	defer e.pool.Release()

	if e.metrics != nil {
		e.metrics.AlignmentsInFlight.Inc()
		defer e.metrics.AlignmentsInFlight.Dec()
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	started := time.Now()
	words, err := e.run(ctx, handle, audioBytes, format, language)
	if e.metrics != nil {
		e.metrics.AlignmentDuration.Observe(time.Since(started).Seconds())
		if err != nil {
			e.metrics.Alignments.WithLabelValues("error").Inc()
		} else {
			e.metrics.Alignments.WithLabelValues("ok").Inc()
			e.metrics.AlignmentWords.Observe(float64(len(words)))
		}
	}
	return words, err
}

func (e *Engine) run(ctx context.Context, handle *Handle, audioBytes []byte, format audio.Format, language string) ([]WordTiming, error) {
	tmpDir, err := os.MkdirTemp("", "voxgate-align-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)

	inPath := filepath.Join(tmpDir, "audio"+format.Suffix())
	if err := os.WriteFile(inPath, audioBytes, 0o600); err != nil {
		return nil, err
	}
	outPrefix := filepath.Join(tmpDir, "words")

	lang := strings.TrimSpace(language)
	if lang == "" {
		lang = "auto"
	}

	// One word per segment (-ml 1 -sow) so the JSON output carries
	// word-level offsets directly.
	args := []string{
		"-m", handle.ModelPath,
		"-f", inPath,
		"-l", lang,
		"-oj",
		"-of", outPrefix,
		"-ml", "1",
		"-sow",
		"--vad",
		"--vad-min-silence-duration-ms", strconv.Itoa(vadMinSilenceMS),
	}
	if handle.Threads > 0 {
		args = append(args, "-t", strconv.Itoa(handle.Threads))
	}
	if handle.NoGPU {
		args = append(args, "-ng")
	}

	cmd := exec.CommandContext(ctx, handle.CLIPath, args...)
	var stderr bytes.Buffer
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr
	started := time.Now()
	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, context.Canceled
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			// The caller's deadline may be shorter than ours, so report
			// the time actually spent rather than the configured timeout.
			return nil, fmt.Errorf("whisper timed out after %s; try a smaller model size", time.Since(started).Round(time.Millisecond))
		}
		detail := strings.TrimSpace(stderr.String())
		// whisper.cpp is chatty on stderr; keep only the tail.
		if len(detail) > 4<<10 {
			detail = strings.TrimSpace(detail[len(detail)-(4<<10):])
		}
		if detail == "" {
			detail = err.Error()
		}
		return nil, fmt.Errorf("whisper failed: %s", detail)
	}

	raw, err := os.ReadFile(outPrefix + ".json")
	if err != nil {
		return nil, fmt.Errorf("whisper produced no output: %w", err)
	}
	return parseWordTimings(raw)
}

// transcriptionFile mirrors the JSON written by whisper.cpp's -oj flag.
type transcriptionFile struct {
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

func parseWordTimings(raw []byte) ([]WordTiming, error) {
	var parsed transcriptionFile
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse whisper output: %w", err)
	}

	words := make([]WordTiming, 0, len(parsed.Transcription))
	for _, seg := range parsed.Transcription {
		word := strings.TrimSpace(seg.Text)
		if word == "" {
			continue
		}
		start := secondsFromMillis(seg.Offsets.From)
		end := secondsFromMillis(seg.Offsets.To)
		if end < start {
			end = start
		}
		words = append(words, WordTiming{Word: word, Start: start, End: end})
	}

	// Segments arrive in order, but the contract is non-decreasing starts.
	sort.SliceStable(words, func(i, j int) bool { return words[i].Start < words[j].Start })
	return words, nil
}

// secondsFromMillis converts whisper.cpp's integral millisecond offsets
// to seconds; the result carries at most 3 decimal places by construction.
func secondsFromMillis(ms int64) float64 {
	return float64(ms) / 1000
}
