package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediascribe/internal/errs"
	"mediascribe/internal/transcription"
)

type fakeResolver struct {
	result string
	err    error
}

func (f *fakeResolver) Resolve(_ context.Context, _ string) (string, error) {
	return f.result, f.err
}

type fakeDownloader struct {
	err     error
	gotURL  string
	gotDir  string
	written string
}

func (f *fakeDownloader) Download(_ context.Context, url, scratchDir string) (string, error) {
	f.gotURL = url
	f.gotDir = scratchDir
	// Write a file even on failure so cleanup is observable either way.
	f.written = filepath.Join(scratchDir, "abc.m4a")
	if err := os.WriteFile(f.written, []byte("audio"), 0o644); err != nil {
		return "", err
	}
	if f.err != nil {
		return "", f.err
	}
	return f.written, nil
}

type fakeTranscriber struct {
	result *transcription.Result
	err    error
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ string) (*transcription.Result, error) {
	return f.result, f.err
}

func newTestService(t *testing.T, r Resolver, d Downloader, tr Transcriber) (*Service, string) {
	t.Helper()
	tmpRoot := t.TempDir()
	s := New(r, d, tr)
	s.tmpRoot = tmpRoot
	return s, tmpRoot
}

func assertNoScratchLeft(t *testing.T, tmpRoot string) {
	t.Helper()
	entries, err := os.ReadDir(tmpRoot)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch directories were left behind")
}

func TestRunSuccess(t *testing.T) {
	dl := &fakeDownloader{}
	s, tmpRoot := newTestService(t,
		&fakeResolver{result: "https://www.youtube.com/watch?v=ABC&pp=xyz"},
		dl,
		&fakeTranscriber{result: &transcription.Result{Text: "hello world", Language: "en"}},
	)

	res, err := s.Run(context.Background(), "https://youtu.be/ABC")
	require.NoError(t, err)
	assert.Equal(t, "hello world", res.Text)
	assert.Equal(t, "en", res.Language)
	assert.Equal(t, "https://www.youtube.com/watch?v=ABC", dl.gotURL, "downloader should receive the canonical URL")
	assertNoScratchLeft(t, tmpRoot)
}

func TestRunEmptyURL(t *testing.T) {
	s, _ := newTestService(t, &fakeResolver{}, &fakeDownloader{}, &fakeTranscriber{})
	_, err := s.Run(context.Background(), "   ")
	require.Error(t, err)
	assert.Equal(t, errs.InvalidInput, errs.KindOf(err))
}

func TestRunResolverFailure(t *testing.T) {
	s, _ := newTestService(t,
		&fakeResolver{err: errs.New(errs.Network, "could not resolve url")},
		&fakeDownloader{}, &fakeTranscriber{},
	)
	_, err := s.Run(context.Background(), "https://youtu.be/ABC")
	require.Error(t, err)
	assert.Equal(t, errs.Network, errs.KindOf(err))
}

func TestRunUnsupportedPlatform(t *testing.T) {
	dl := &fakeDownloader{}
	s, tmpRoot := newTestService(t,
		&fakeResolver{result: "https://vimeo.com/12345"},
		dl, &fakeTranscriber{},
	)

	_, err := s.Run(context.Background(), "https://vimeo.com/12345")
	require.Error(t, err)
	assert.Equal(t, errs.UnsupportedPlatform, errs.KindOf(err))
	assert.Empty(t, dl.gotURL, "downloader must not run for unsupported platforms")
	assertNoScratchLeft(t, tmpRoot)
}

func TestRunDownloadFailureCleansScratch(t *testing.T) {
	dl := &fakeDownloader{err: errs.New(errs.AccessDenied, "private videos are not supported")}
	s, tmpRoot := newTestService(t,
		&fakeResolver{result: "https://www.youtube.com/watch?v=ABC"},
		dl, &fakeTranscriber{},
	)

	_, err := s.Run(context.Background(), "https://youtu.be/ABC")
	require.Error(t, err)
	assert.Equal(t, errs.AccessDenied, errs.KindOf(err))
	assertNoScratchLeft(t, tmpRoot)
}

func TestRunTranscribeFailureCleansScratch(t *testing.T) {
	dl := &fakeDownloader{}
	s, tmpRoot := newTestService(t,
		&fakeResolver{result: "https://www.youtube.com/watch?v=ABC"},
		dl,
		&fakeTranscriber{err: errs.New(errs.TranscriptionFailed, "couldn't transcribe: upstream boom")},
	)

	_, err := s.Run(context.Background(), "https://youtu.be/ABC")
	require.Error(t, err)
	assert.Equal(t, errs.TranscriptionFailed, errs.KindOf(err))
	assert.NoFileExists(t, dl.written)
	assertNoScratchLeft(t, tmpRoot)
}

type panickyTranscriber struct{}

func (panickyTranscriber) Transcribe(context.Context, string) (*transcription.Result, error) {
	panic("transcriber blew up")
}

func TestRunPanicStillCleansScratch(t *testing.T) {
	dl := &fakeDownloader{}
	s, tmpRoot := newTestService(t,
		&fakeResolver{result: "https://www.youtube.com/watch?v=ABC"},
		dl, panickyTranscriber{},
	)

	require.Panics(t, func() {
		s.Run(context.Background(), "https://youtu.be/ABC")
	})
	assertNoScratchLeft(t, tmpRoot)
}
