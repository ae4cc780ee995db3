package tts

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSynthesizeReturnsAudio(t *testing.T) {
	var gotBody SpeechRequest
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/speech" {
			t.Errorf("path = %q, want /v1/audio/speech", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q, want application/json", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &gotBody); err != nil {
			t.Errorf("unmarshal request: %v", err)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("mp3-bytes"))
	}))
	defer backend.Close()

	c := NewClient(backend.URL, time.Second, nil, nil)
	audio, err := c.Synthesize(context.Background(), SpeechRequest{
		Model:          "tts-1",
		Input:          "Hello",
		Voice:          "af_alloy",
		ResponseFormat: "mp3",
		Speed:          1.0,
	})
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if string(audio) != "mp3-bytes" {
		t.Fatalf("audio = %q, want %q", audio, "mp3-bytes")
	}
	if gotBody.Input != "Hello" || gotBody.Voice != "af_alloy" {
		t.Fatalf("forwarded request = %+v", gotBody)
	}
}

func TestSynthesizeBackendErrorBecomesStatusError(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"unknown voice"}`))
	}))
	defer backend.Close()

	c := NewClient(backend.URL, time.Second, nil, nil)
	_, err := c.Synthesize(context.Background(), SpeechRequest{Input: "hi"})
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if statusErr.Status != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", statusErr.Status, http.StatusBadRequest)
	}
	if string(statusErr.Body) != `{"detail":"unknown voice"}` {
		t.Fatalf("body = %q", statusErr.Body)
	}
}

func TestSynthesizeConnectivityFailureIsUnavailable(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	backend.Close()

	c := NewClient(backend.URL, time.Second, nil, nil)
	_, err := c.Synthesize(context.Background(), SpeechRequest{Input: "hi"})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable", err)
	}
}

func TestForwardRelaysStatusBodyAndContentType(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer backend.Close()

	c := NewClient(backend.URL, time.Second, nil, nil)
	res, err := c.Forward(context.Background(), http.MethodGet, "/v1/models", nil)
	if err != nil {
		t.Fatalf("Forward() error = %v", err)
	}
	if res.Status != http.StatusTeapot {
		t.Fatalf("status = %d, want %d", res.Status, http.StatusTeapot)
	}
	if string(res.Body) != `{"models":[]}` {
		t.Fatalf("body = %q", res.Body)
	}
	if res.ContentType != "application/json" {
		t.Fatalf("content type = %q", res.ContentType)
	}
}

func TestBaseURLTrimsTrailingSlash(t *testing.T) {
	c := NewClient("http://kokoro-tts:8880/", time.Second, nil, nil)
	if got := c.BaseURL(); got != "http://kokoro-tts:8880" {
		t.Fatalf("BaseURL() = %q", got)
	}
}
