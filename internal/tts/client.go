// Package tts is the thin proxy toward the speech-synthesis backend.
// It relays status, body and content type verbatim and never retries.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lmoretti/voxgate/internal/observability"
)

// ErrUnavailable marks a connectivity failure toward the backend, as
// opposed to an error the backend itself reported.
var ErrUnavailable = errors.New("tts backend unavailable")

// Responses larger than this are refused rather than buffered.
const maxBodyBytes = 64 << 20

// StatusError carries a non-success backend response so callers can
// propagate its status and body unchanged.
type StatusError struct {
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tts backend returned status %d: %s", e.Status, strings.TrimSpace(string(e.Body)))
}

// SpeechRequest is the synthesis payload forwarded to the backend.
type SpeechRequest struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	ResponseFormat string  `json:"response_format"`
	Speed          float64 `json:"speed"`
}

// BackendResponse is one backend reply, relayed verbatim by pass-through
// endpoints.
type BackendResponse struct {
	Status      int
	Body        []byte
	ContentType string
}

type Client struct {
	baseURL string
	http    *http.Client
	metrics *observability.Metrics
	log     *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: timeout},
		metrics: metrics,
		log:     log,
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

// Forward relays one request to the backend. jsonBody, when non-nil, is
// marshalled and sent as application/json. Connectivity failures wrap
// ErrUnavailable; any backend reply, success or not, comes back as a
// BackendResponse.
func (c *Client) Forward(ctx context.Context, method, path string, jsonBody any) (*BackendResponse, error) {
	var reqBody io.Reader
	if jsonBody != nil {
		b, err := json.Marshal(jsonBody)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	if jsonBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		c.observe(path, "unavailable")
		c.log.Warn("tts backend unreachable", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		c.observe(path, "unavailable")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if res.StatusCode >= 200 && res.StatusCode < 300 {
		c.observe(path, "ok")
	} else {
		c.observe(path, "error")
	}
	return &BackendResponse{
		Status:      res.StatusCode,
		Body:        body,
		ContentType: res.Header.Get("Content-Type"),
	}, nil
}

// Synthesize asks the backend to generate speech. A non-success backend
// status surfaces as *StatusError so it can be propagated verbatim.
func (c *Client) Synthesize(ctx context.Context, req SpeechRequest) ([]byte, error) {
	res, err := c.Forward(ctx, http.MethodPost, "/v1/audio/speech", req)
	if err != nil {
		return nil, err
	}
	if res.Status != http.StatusOK {
		return nil, &StatusError{Status: res.Status, Body: res.Body}
	}
	return res.Body, nil
}

func (c *Client) observe(path, outcome string) {
	if c.metrics != nil {
		c.metrics.BackendRequests.WithLabelValues(path, outcome).Inc()
	}
}
