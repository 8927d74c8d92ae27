// Package resolver follows HTTP redirect chains (and optionally HTML
// meta-refresh redirects) to find the final landing URL for a submitted
// link. Shortened and wrapped share links are resolved here before the
// platform gate and canonicalization run.
package resolver

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"mediascribe/internal/config"
	"mediascribe/internal/errs"
)

// bodyLimit caps how much of an HTML response is scanned for a
// meta-refresh directive.
const bodyLimit = 512 * 1024

type Resolver struct {
	client     *http.Client
	maxHops    int
	followMeta bool
}

func New(cfg config.ResolverConfig) *Resolver {
	maxHops := cfg.MaxHops
	if maxHops <= 0 {
		maxHops = 10
	}
	client := &http.Client{
		Timeout: cfg.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxHops {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
	return &Resolver{
		client:     client,
		maxHops:    maxHops,
		followMeta: cfg.FollowMeta,
	}
}

// Resolve returns the final URL reached from raw. It probes with HEAD
// first, retries once with GET when the server rejects HEAD, and, when
// enabled, follows at most one HTML meta-refresh hop. Redirect depth is
// bounded by the configured hop ceiling.
func (r *Resolver) Resolve(ctx context.Context, raw string) (string, error) {
	resp, err := r.probe(ctx, http.MethodHead, raw)
	if err == nil && resp.StatusCode >= 400 {
		// Some servers reject HEAD outright; treat that as a probe failure.
		drain(resp)
		err = fmt.Errorf("head probe rejected with status %d", resp.StatusCode)
	}
	if err != nil {
		resp, err = r.probe(ctx, http.MethodGet, raw)
		if err != nil {
			return "", errs.Wrap(errs.Network, "could not resolve url: "+raw, err)
		}
	}
	defer drain(resp)

	final := effectiveURL(resp)

	if !r.followMeta {
		return final, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return final, nil
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		return final, nil
	}

	body := resp.Body
	// HEAD responses carry no body, so re-fetch the landing page.
	if resp.Request.Method == http.MethodHead {
		getResp, err := r.probe(ctx, http.MethodGet, final)
		if err != nil {
			return final, nil
		}
		defer drain(getResp)
		body = getResp.Body
	}

	target := metaRefreshTarget(io.LimitReader(body, bodyLimit))
	if target == "" {
		return final, nil
	}

	abs, err := resolveReference(final, target)
	if err != nil {
		return final, nil
	}

	// One confirmation GET; its failure falls back to the pre-refresh URL.
	confirm, err := r.probe(ctx, http.MethodGet, abs)
	if err != nil {
		slog.Debug("meta-refresh confirmation failed", "target", abs, "error", err)
		return final, nil
	}
	defer drain(confirm)
	if confirm.StatusCode >= 400 {
		return final, nil
	}
	return effectiveURL(confirm), nil
}

func (r *Resolver) probe(ctx context.Context, method, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	return r.client.Do(req)
}

// effectiveURL is where the client ended up. A response that is itself a
// redirect (hop ceiling reached, or a server the client did not follow)
// contributes its Location header instead.
func effectiveURL(resp *http.Response) string {
	current := resp.Request.URL.String()
	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		if loc := resp.Header.Get("Location"); loc != "" {
			if abs, err := resolveReference(current, loc); err == nil {
				return abs
			}
		}
	}
	return current
}

func resolveReference(base, ref string) (string, error) {
	bu, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	ru, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return bu.ResolveReference(ru).String(), nil
}

// metaRefreshTarget extracts the url= target from the first
// <meta http-equiv="refresh"> directive in an HTML document, or "".
func metaRefreshTarget(body io.Reader) string {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return ""
	}

	var target string
	doc.Find("meta").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		equiv, _ := sel.Attr("http-equiv")
		if !strings.EqualFold(equiv, "refresh") {
			return true
		}
		content, _ := sel.Attr("content")
		// content looks like "0;url=/next" or `5; URL='https://...'`
		for _, part := range strings.Split(content, ";") {
			part = strings.TrimSpace(part)
			if len(part) >= 4 && strings.EqualFold(part[:4], "url=") {
				target = strings.Trim(part[4:], `'" `)
				return false
			}
		}
		return true
	})
	return target
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, bodyLimit))
	resp.Body.Close()
}
