// Package transcription calls a hosted Whisper-compatible endpoint to
// turn downloaded audio into text.
package transcription

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	openai "github.com/sashabaranov/go-openai"

	"mediascribe/internal/config"
	"mediascribe/internal/errs"
)

// Result is the transcript plus the service-reported language, passed
// through opaquely.
type Result struct {
	Text     string
	Language string
}

type Client struct {
	api   *openai.Client
	model string
}

func NewClient(cfg config.TranscriptionConfig) *Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(apiCfg),
		model: cfg.Model,
	}
}

// Transcribe reads the audio file fully into memory once and sends it to
// the translation endpoint with deterministic decoding (temperature 0).
func (c *Client) Transcribe(ctx context.Context, path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.TranscriptionFailed, "could not read downloaded audio", err)
	}

	resp, err := c.api.CreateTranslation(ctx, openai.AudioRequest{
		Model:       c.model,
		FilePath:    filepath.Base(path),
		Reader:      bytes.NewReader(data),
		Format:      openai.AudioResponseFormatJSON,
		Temperature: 0,
	})
	if err != nil {
		return nil, errs.Wrap(errs.TranscriptionFailed, "couldn't transcribe: "+err.Error(), err)
	}

	return &Result{Text: resp.Text, Language: resp.Language}, nil
}
