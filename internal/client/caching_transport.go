package client

import (
	"fmt"
	"net/http"

	"github.com/gregjones/httpcache"
	"github.com/gregjones/httpcache/diskcache"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
)

// NewCachingTransport wraps next with an HTTP cache honouring the backend's
// Cache-Control headers. Report reads use it so repeated "reports show" and
// "reports pdf" calls for the same analysis avoid the network.
//
// With an empty cacheDir the cache lives in memory; otherwise entries are
// zstd compressed on disk, which matters for PDF bodies.
func NewCachingTransport(cacheDir string, next http.RoundTripper) (*httpcache.Transport, error) {
	var cache httpcache.Cache = httpcache.NewMemoryCache()

	if cacheDir != "" {
		compressed, err := newCompressedCache(diskcache.New(cacheDir))
		if err != nil {
			return nil, err
		}
		cache = compressed
	}

	transport := httpcache.NewTransport(cache)
	transport.Transport = next
	transport.MarkCachedResponses = true

	return transport, nil
}

var _ httpcache.Cache = (*compressedCache)(nil)

// compressedCache stores zstd compressed values in an underlying cache.
type compressedCache struct {
	inner httpcache.Cache
	enc   *zstd.Encoder
	dec   *zstd.Decoder
}

func newCompressedCache(inner httpcache.Cache) (*compressedCache, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create encoder: %w", err)
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	return &compressedCache{inner: inner, enc: enc, dec: dec}, nil
}

func (c *compressedCache) Get(key string) ([]byte, bool) {
	data, ok := c.inner.Get(key)
	if !ok {
		return nil, false
	}

	value, err := c.dec.DecodeAll(data, nil)
	if err != nil {
		log.Debug().Err(err).Str("key", key).Msg("dropping unreadable cache entry")
		c.inner.Delete(key)
		return nil, false
	}

	return value, true
}

func (c *compressedCache) Set(key string, value []byte) {
	c.inner.Set(key, c.enc.EncodeAll(value, make([]byte, 0, len(value)/2)))
}

func (c *compressedCache) Delete(key string) {
	c.inner.Delete(key)
}
