// Package downloader wraps yt-dlp to pull bounded audio for a canonical
// video URL. A metadata pre-flight enforces duration and size ceilings
// before any bytes are fetched, and upstream failures are classified into
// the pipeline error taxonomy.
package downloader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"mediascribe/internal/config"
	"mediascribe/internal/errs"
)

// Metadata is the pre-flight inspection result. FileSize is best-effort:
// the platform does not always report it up front.
type Metadata struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
	FileSize int64   `json:"filesize"`
	Approx   int64   `json:"filesize_approx"`
	Ext      string  `json:"ext"`
}

// audioFormat prefers an m4a audio-only stream, then any audio-only
// stream, then the overall best.
const audioFormat = "bestaudio[ext=m4a]/bestaudio/best"

const browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// runFunc executes the downloading tool and returns its stdout. It exists
// so tests can substitute the subprocess.
type runFunc func(ctx context.Context, args ...string) ([]byte, error)

type Downloader struct {
	cfg config.DownloadConfig
	run runFunc
}

func New(cfg config.DownloadConfig) *Downloader {
	d := &Downloader{cfg: cfg}
	d.run = d.execYtdlp
	return d
}

// Probe extracts media metadata without downloading any bytes.
func (d *Downloader) Probe(ctx context.Context, url string) (*Metadata, error) {
	out, err := d.run(ctx, d.commonArgs("-J", "--no-download", url)...)
	if err != nil {
		return nil, d.classify(err)
	}

	var meta Metadata
	if err := json.Unmarshal(out, &meta); err != nil {
		return nil, errs.Wrap(errs.ResourceUnavailable, "could not fetch video information", err)
	}
	if meta.ID == "" && meta.Duration == 0 {
		return nil, errs.New(errs.ResourceUnavailable, "could not fetch video information")
	}
	return &meta, nil
}

// Download runs the pre-flight checks and then fetches the best available
// audio stream into scratchDir, returning the local file path. The file
// is named by the platform's content identifier; scratchDir ownership and
// cleanup stay with the caller.
func (d *Downloader) Download(ctx context.Context, url, scratchDir string) (string, error) {
	meta, err := d.Probe(ctx, url)
	if err != nil {
		return "", err
	}

	if d.cfg.MaxDuration > 0 && meta.Duration > d.cfg.MaxDuration.Seconds() {
		return "", errs.Newf(errs.ResourceTooLarge, "video exceeds maximum duration of %d minutes", int(d.cfg.MaxDuration.Minutes()))
	}
	// Size is unreliable metadata; only enforce the ceiling when reported.
	if size := meta.reportedSize(); d.cfg.MaxFileSize > 0 && size > 0 && size > d.cfg.MaxFileSize {
		return "", errs.Newf(errs.ResourceTooLarge, "file size exceeds %dMB limit", d.cfg.MaxFileSize/(1024*1024))
	}

	outTpl := filepath.Join(scratchDir, "%(id)s.%(ext)s")
	args := d.commonArgs("-f", audioFormat, "--no-playlist", "-o", outTpl, url)
	if _, err := d.run(ctx, args...); err != nil {
		return "", d.classify(err)
	}

	path, err := locateByID(scratchDir, meta.ID)
	if err != nil {
		return "", errs.Wrap(errs.DownloadFailed, "downloaded file missing from scratch directory", err)
	}
	slog.Debug("audio downloaded", "id", meta.ID, "path", path)
	return path, nil
}

func (m *Metadata) reportedSize() int64 {
	if m.FileSize > 0 {
		return m.FileSize
	}
	return m.Approx
}

func (d *Downloader) commonArgs(extra ...string) []string {
	args := []string{
		"-q", "--no-warnings",
		"--user-agent", browserUserAgent,
		"--add-header", "Referer:https://www.youtube.com/",
	}
	if d.hasCookies() {
		args = append(args, "--cookies", d.cfg.CookieFile)
	}
	return append(args, extra...)
}

func (d *Downloader) hasCookies() bool {
	if d.cfg.CookieFile == "" {
		return false
	}
	_, err := os.Stat(d.cfg.CookieFile)
	return err == nil
}

func (d *Downloader) execYtdlp(ctx context.Context, args ...string) ([]byte, error) {
	if d.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, d.cfg.BinPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("%s", msg)
	}
	return stdout.Bytes(), nil
}

// classify maps the downloading subsystem's free-text error onto the
// fixed taxonomy by lowercased substring match. Known fragility: the
// patterns track yt-dlp's wording and need revisiting when it changes.
func (d *Downloader) classify(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "private video"):
		return errs.New(errs.AccessDenied, "private videos are not supported")
	case strings.Contains(msg, "age restriction"), strings.Contains(msg, "age-restricted"):
		return errs.New(errs.AccessDenied, "age-restricted content is not supported")
	case strings.Contains(msg, "copyright"):
		return errs.New(errs.ResourceUnavailable, "video is not available due to copyright restrictions")
	case strings.Contains(msg, "sign in"), strings.Contains(msg, "bot"):
		if !d.hasCookies() {
			return errs.New(errs.AuthRequired, "platform authentication required. Server cookies not configured.")
		}
		return errs.New(errs.AuthRequired, "authentication failed. Server cookies may need to be updated.")
	default:
		return errs.Wrap(errs.DownloadFailed, "failed to download video: "+err.Error(), err)
	}
}

func locateByID(dir, id string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if id == "" || strings.TrimSuffix(name, filepath.Ext(name)) == id {
			return filepath.Join(dir, name), nil
		}
	}
	return "", fmt.Errorf("no file for id %q in %s", id, dir)
}
