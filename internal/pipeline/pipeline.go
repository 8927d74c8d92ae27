// Package pipeline sequences url resolution, canonicalization, download
// and transcription for a single request, and owns the request-scoped
// scratch directory lifecycle.
package pipeline

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"mediascribe/internal/canonical"
	"mediascribe/internal/errs"
	"mediascribe/internal/transcription"
)

// platformToken gates the pipeline: a resolved URL that does not mention
// the supported platform exits early as UnsupportedPlatform.
const platformToken = "youtube"

type Resolver interface {
	Resolve(ctx context.Context, url string) (string, error)
}

type Downloader interface {
	Download(ctx context.Context, url, scratchDir string) (string, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, path string) (*transcription.Result, error)
}

type Result struct {
	Text     string
	Language string
}

// Service runs the media-acquisition pipeline. Construct one at startup
// and share it across requests; all fields are read-only after New.
type Service struct {
	resolver    Resolver
	downloader  Downloader
	transcriber Transcriber
	keepParams  []string
	tmpRoot     string // "" means the system temp dir
}

func New(resolver Resolver, downloader Downloader, transcriber Transcriber) *Service {
	return &Service{
		resolver:    resolver,
		downloader:  downloader,
		transcriber: transcriber,
		keepParams:  canonical.DefaultKeepParams,
	}
}

// Run takes a raw submitted URL through resolve → canonicalize →
// download → transcribe. The scratch directory holding the downloaded
// audio is destroyed on every exit path, including panics. Nothing is
// retried; a failed request is re-run from the start by the client.
func (s *Service) Run(ctx context.Context, rawURL string) (*Result, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, errs.New(errs.InvalidInput, "audio_url is required")
	}

	resolved, err := s.resolver.Resolve(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	if !strings.Contains(strings.ToLower(resolved), platformToken) {
		slog.Info("unsupported platform", "url", resolved)
		return nil, errs.New(errs.UnsupportedPlatform, "unsupported platform: only youtube links are supported")
	}

	canonicalURL, err := canonical.Canonicalize(resolved, s.keepParams)
	if err != nil {
		return nil, err
	}

	scratchDir, err := os.MkdirTemp(s.tmpRoot, "mediascribe-"+uuid.NewString()+"-")
	if err != nil {
		return nil, errs.Wrap(errs.DownloadFailed, "could not create scratch directory", err)
	}
	// The no-orphaned-files invariant: the scratch dir and its contents
	// go away before control returns, success or failure.
	defer func() {
		if rmErr := os.RemoveAll(scratchDir); rmErr != nil {
			slog.Error("scratch dir cleanup failed", "dir", scratchDir, "error", rmErr)
		}
	}()

	audioPath, err := s.downloader.Download(ctx, canonicalURL, scratchDir)
	if err != nil {
		return nil, err
	}

	transcript, err := s.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return nil, err
	}

	slog.Info("transcription complete", "url", canonicalURL, "chars", len(transcript.Text))
	return &Result{Text: transcript.Text, Language: transcript.Language}, nil
}
