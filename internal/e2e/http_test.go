//go:build e2e

package e2e

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xserve/pkg/lifecycle/xrun"
	"github.com/omeyang/xserve/pkg/observability/xlog"
	"github.com/omeyang/xserve/pkg/server/xhttpd"
	"github.com/omeyang/xserve/pkg/util/xlru"
	"github.com/omeyang/xserve/pkg/util/xpool"
)

var pages = map[string]string{
	"index.html":       "<!DOCTYPE html><html><head><link rel=\"stylesheet\" href=\"index.css\"></head><body><h1>Hello!</h1><p>Hi from Go!</p></body></html>",
	"index.css":        "body { background: #fafafa; }",
	"not_found.html":   "<!DOCTYPE html><html><body><h1>Uh oh!</h1><p>Page not found.</p></body></html>",
	"howdy/index.html": "<!DOCTYPE html><html><body><h1>Howdy!</h1><p>Talk like a cowboy.</p></body></html>",
	"howdy/page.css":   "body { background: wheat; }",
}

// startServer 以完整的 xrun 装配运行服务器，返回基础 URL。
func startServer(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range pages {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	}
	routes, err := xhttpd.BuildRoutes(dir)
	require.NoError(t, err)

	logger := xlog.Discard()
	pool, err := xpool.New(4, 4, xpool.WithLogger(logger), xpool.WithName("http"))
	require.NoError(t, err)
	cache, err := xlru.New[string, []byte](xlru.Config{Size: 16, TTL: time.Minute}, nil)
	require.NoError(t, err)
	t.Cleanup(cache.Close)

	cfg := xhttpd.DefaultConfig()
	cfg.Port = 0
	stop := xrun.NewStopFlag()
	srv, err := xhttpd.New(cfg, routes, pool,
		xhttpd.WithLogger(logger),
		xhttpd.WithStopFlag(stop),
		xhttpd.WithCache(cache),
	)
	require.NoError(t, err)

	errc := make(chan error, 1)
	go func() {
		errc <- xrun.RunServicesWithOptions(context.Background(), []xrun.Option{
			xrun.WithLogger(logger),
			xrun.WithStopFlag(stop),
			xrun.WithoutSignalHandler(),
		}, srv)
	}()
	t.Cleanup(func() {
		stop.Stop(nil)
		select {
		case err := <-errc:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
	})

	select {
	case <-srv.Ready():
	case err := <-errc:
		t.Fatalf("server failed: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server not ready")
	}
	return "http://" + srv.Addr().String()
}

type reply struct {
	status int
	header http.Header
	body   string
}

func get(t *testing.T, client *http.Client, url string) reply {
	t.Helper()
	resp, err := client.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return reply{status: resp.StatusCode, header: resp.Header, body: string(body)}
}

func TestStaticServer_E2E(t *testing.T) {
	base := startServer(t)
	client := &http.Client{
		Timeout:   5 * time.Second,
		Transport: &http.Transport{DisableKeepAlives: true},
	}

	cases := []struct {
		name   string
		path   string
		status int
		want   []string
	}{
		{"root", "/", http.StatusOK, []string{"Hello!", "Hi from Go!"}},
		{"index css", "/index.css", http.StatusOK, []string{"background"}},
		{"howdy", "/howdy", http.StatusOK, []string{"Howdy!", "like a cowboy"}},
		{"howdy page css", "/howdy/page.css", http.StatusOK, []string{"background"}},
		{"missing page", "/does-not-exist", http.StatusNotFound, []string{"Uh oh!"}},
		{"deep missing path", "/a/b/c/d", http.StatusNotFound, nil},
		{"trailing slash", "/howdy/", http.StatusOK, []string{"Howdy!"}},
		{"double slash", "//", http.StatusOK, []string{"Hello!"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := get(t, client, base+tc.path)
			assert.Equal(t, tc.status, r.status)
			for _, s := range tc.want {
				assert.Contains(t, r.body, s)
			}
		})
	}

	t.Run("content length matches body", func(t *testing.T) {
		r := get(t, client, base+"/")
		require.Equal(t, http.StatusOK, r.status)
		n, err := strconv.Atoi(r.header.Get("Content-Length"))
		require.NoError(t, err)
		assert.Equal(t, len(r.body), n)
		assert.Equal(t, "text/html; charset=utf-8", r.header.Get("Content-Type"))
	})

	t.Run("concurrent requests", func(t *testing.T) {
		var wg sync.WaitGroup
		statuses := make([]int, 10)
		errs := make([]error, 10)
		for i := range 10 {
			wg.Go(func() {
				resp, err := client.Get(base + "/")
				if err != nil {
					errs[i] = err
					return
				}
				_, _ = io.Copy(io.Discard, resp.Body)
				_ = resp.Body.Close()
				statuses[i] = resp.StatusCode
			})
		}
		wg.Wait()
		for i := range 10 {
			require.NoError(t, errs[i], "request %d", i)
			// 4x4 的池容得下 10 个并发连接
			assert.Equal(t, http.StatusOK, statuses[i], "request %d", i)
		}
	})
}
