package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Truthmedia123/weddingreplit-sub000/pkg/buildinfo"
	"github.com/Truthmedia123/weddingreplit-sub000/pkg/observability"
)

// MaxBodySize bounds the size of a fetched body.
const MaxBodySize = 32 << 20

// Fetcher downloads remote assets with retries and an optional disk cache.
type Fetcher struct {
	Client   *http.Client
	Cache    *Cache
	Attempts int
	Delay    time.Duration
}

// NewFetcher returns a Fetcher with a 30s client timeout and the default
// retry policy. cache may be nil.
func NewFetcher(cache *Cache) *Fetcher {
	return &Fetcher{
		Client:   &http.Client{Timeout: 30 * time.Second},
		Cache:    cache,
		Attempts: DefaultAttempts,
		Delay:    DefaultDelay,
	}
}

// Get returns the body at url, from the cache when fresh. Network failures,
// 429 and 5xx responses are retried; other non-2xx statuses fail at once.
func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	if f.Cache != nil {
		if data, ok, err := f.Cache.Get(url); err == nil && ok {
			return data, nil
		}
	}

	var body []byte
	err := Retry(ctx, f.Attempts, f.Delay, func() error {
		b, err := f.get(ctx, url)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	if f.Cache != nil {
		// A failed cache write only costs a refetch next time.
		_ = f.Cache.Set(url, body)
	}
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent())

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, req.URL.Host, req.URL.Path)
	start := time.Now()
	resp, err := f.Client.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, req.URL.Host, req.URL.Path, err)
		return nil, Transient(err)
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, req.URL.Host, req.URL.Path, resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, Transient(fmt.Errorf("GET %s: %s", url, resp.Status))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("GET %s: %s", url, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize+1))
	if err != nil {
		return nil, Transient(err)
	}
	if len(body) > MaxBodySize {
		return nil, fmt.Errorf("GET %s: body exceeds %d bytes", url, MaxBodySize)
	}
	return body, nil
}
