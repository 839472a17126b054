package client

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gregjones/httpcache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCachingTransport(t *testing.T) {
	for name, dir := range map[string]func(t *testing.T) string{
		"memory": func(t *testing.T) string { return "" },
		"disk":   func(t *testing.T) string { return t.TempDir() },
	} {
		t.Run(name, func(t *testing.T) {
			var hits atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				w.Header().Set("Cache-Control", "max-age=300")
				_, _ = io.WriteString(w, "report body")
			}))
			defer srv.Close()

			transport, err := NewCachingTransport(dir(t), http.DefaultTransport)
			require.NoError(t, err)
			hc := &http.Client{Transport: transport}

			for i := 0; i < 2; i++ {
				resp, err := hc.Get(srv.URL + "/api/reports/1")
				require.NoError(t, err)
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				resp.Body.Close()

				assert.Equal(t, "report body", string(body))
				if i == 1 {
					assert.Equal(t, "1", resp.Header.Get(httpcache.XFromCache))
				}
			}

			assert.Equal(t, int32(1), hits.Load())
		})
	}
}

func TestCompressedCache(t *testing.T) {
	inner := httpcache.NewMemoryCache()
	cache, err := newCompressedCache(inner)
	require.NoError(t, err)

	value := []byte("HTTP/1.1 200 OK\r\n\r\n%PDF-1.4 lots of repeated bytes bytes bytes bytes")
	cache.Set("k", value)

	stored, ok := inner.Get("k")
	require.True(t, ok)
	assert.NotEqual(t, value, stored)

	got, ok := cache.Get("k")
	require.True(t, ok)
	assert.Equal(t, value, got)

	t.Run("corrupt entries are dropped", func(t *testing.T) {
		inner.Set("bad", []byte("not zstd"))
		_, ok := cache.Get("bad")
		assert.False(t, ok)
		_, ok = inner.Get("bad")
		assert.False(t, ok)
	})

	t.Run("delete", func(t *testing.T) {
		cache.Delete("k")
		_, ok := cache.Get("k")
		assert.False(t, ok)
	})
}
