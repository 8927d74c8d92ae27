// Package canonical normalizes video platform URLs to a minimal, stable
// form so that tracking parameters never leak into the download stage.
package canonical

import (
	"net/url"
	"strings"

	"mediascribe/internal/errs"
)

const (
	shortLinkHost = "youtu.be"
	watchPath     = "/watch"
)

// DefaultKeepParams is the identifying query parameter set for the
// long-form watch page.
var DefaultKeepParams = []string{"v"}

// Canonicalize normalizes a platform URL. Short-link URLs are reduced to
// scheme+host+path. Watch-page URLs keep only the parameters listed in
// keep, in order of first occurrence, with the fragment dropped. URLs of
// any other host or path are returned unchanged. The result is stable
// under re-canonicalization.
func Canonicalize(raw string, keep []string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", errs.Wrap(errs.InvalidInput, "malformed url: "+raw, err)
	}

	if len(keep) == 0 {
		keep = DefaultKeepParams
	}

	host := strings.ToLower(u.Hostname())
	switch {
	case host == shortLinkHost:
		return u.Scheme + "://" + u.Host + u.Path, nil
	case isWatchPage(host, u.Path):
		u.RawQuery = filterQuery(u.RawQuery, keep)
		u.Fragment = ""
		u.RawFragment = ""
		return u.String(), nil
	default:
		return raw, nil
	}
}

func isWatchPage(host, path string) bool {
	if path != watchPath {
		return false
	}
	return host == "youtube.com" || strings.HasSuffix(host, ".youtube.com")
}

// filterQuery keeps only pairs whose key is in keep, preserving the
// relative order of each key's first occurrence. url.Values cannot be
// used here because it loses ordering.
func filterQuery(rawQuery string, keep []string) string {
	keepSet := make(map[string]bool, len(keep))
	for _, k := range keep {
		keepSet[k] = true
	}

	seen := make(map[string]bool)
	var parts []string
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		key := pair
		if i := strings.Index(pair, "="); i >= 0 {
			key = pair[:i]
		}
		decoded, err := url.QueryUnescape(key)
		if err != nil {
			decoded = key
		}
		if !keepSet[decoded] || seen[decoded] {
			continue
		}
		seen[decoded] = true
		parts = append(parts, pair)
	}
	return strings.Join(parts, "&")
}
