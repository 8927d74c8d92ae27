package resolver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediascribe/internal/config"
	"mediascribe/internal/errs"
)

func testConfig() config.ResolverConfig {
	return config.ResolverConfig{
		Timeout:    5 * time.Second,
		MaxHops:    5,
		FollowMeta: false,
	}
}

func TestResolveFollowsRedirectChain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/a":
			http.Redirect(w, r, "/b", http.StatusFound)
		case "/b":
			http.Redirect(w, r, "/final", http.StatusMovedPermanently)
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	r := New(testConfig())
	got, err := r.Resolve(context.Background(), srv.URL+"/a")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/final", got)
}

func TestResolveRedirectLoopTerminates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop", http.StatusFound)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxHops = 3
	r := New(cfg)

	done := make(chan struct{})
	var got string
	var err error
	go func() {
		got, err = r.Resolve(context.Background(), srv.URL+"/loop")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("resolution did not terminate on a redirect loop")
	}

	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/loop", got)
}

func TestResolveFallsBackToGET(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := New(testConfig())
	got, err := r.Resolve(context.Background(), srv.URL+"/page")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/page", got)
}

func TestResolveMetaRefresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/start":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`<html><head><meta http-equiv="refresh" content="0;url=/next"></head><body></body></html>`))
		case "/next":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.FollowMeta = true
	r := New(cfg)

	got, err := r.Resolve(context.Background(), srv.URL+"/start")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/next", got)
}

func TestResolveMetaRefreshConfirmationFailureFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/start":
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`<html><head><meta http-equiv="refresh" content="0;url=/gone"></head></html>`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.FollowMeta = true
	r := New(cfg)

	got, err := r.Resolve(context.Background(), srv.URL+"/start")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/start", got)
}

func TestResolveMetaRefreshDisabled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`<html><head><meta http-equiv="refresh" content="0;url=/next"></head></html>`))
	}))
	defer srv.Close()

	r := New(testConfig())
	got, err := r.Resolve(context.Background(), srv.URL+"/start")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/start", got)
}

func TestResolveNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	r := New(testConfig())
	_, err := r.Resolve(context.Background(), url+"/anything")
	require.Error(t, err)
	assert.Equal(t, errs.Network, errs.KindOf(err))
}

func TestMetaRefreshTargetParsing(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "plain",
			html: `<meta http-equiv="refresh" content="0;url=/next">`,
			want: "/next",
		},
		{
			name: "uppercase and quoted",
			html: `<meta HTTP-EQUIV="Refresh" content="5; URL='https://example.com/x'">`,
			want: "https://example.com/x",
		},
		{
			name: "no refresh directive",
			html: `<meta name="viewport" content="width=device-width">`,
			want: "",
		},
		{
			name: "refresh without target",
			html: `<meta http-equiv="refresh" content="30">`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := metaRefreshTarget(strings.NewReader(tt.html))
			assert.Equal(t, tt.want, got)
		})
	}
}
