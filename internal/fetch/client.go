package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"

	"github.com/packmule-mc/packmule/internal/faults"
)

const defaultCacheSize = 128

// Options tune one Client. Attempts counts total tries per call, the first
// included.
type Options struct {
	Timeout   time.Duration
	Attempts  int
	Backoff   time.Duration
	CacheSize int
}

// Client is an explicitly constructed HTTP handle shared by every download
// call site. It owns the retry policy, a finite per-attempt timeout, and a
// bounded response cache keyed by URL for listing and page fetches. Artifact
// streams are never cached.
type Client struct {
	http  *retryablehttp.Client
	cache *lru.Cache[string, []byte]
}

func NewClient(opts Options) (*Client, error) {
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = defaultCacheSize
	}

	cache, err := lru.New[string, []byte](opts.CacheSize)
	if err != nil {
		return nil, err
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient.Timeout = opts.Timeout
	rc.RetryMax = opts.Attempts - 1
	rc.RetryWaitMin = opts.Backoff
	rc.RetryWaitMax = opts.Backoff
	// Fixed delay between attempts, no exponential growth.
	rc.Backoff = func(min, _ time.Duration, _ int, _ *http.Response) time.Duration {
		return min
	}
	// Transport failures and any error status are retried; everything else
	// is handed back. Faults other than network ones never reach this layer.
	rc.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil {
			return true, nil
		}
		return resp.StatusCode >= 400, nil
	}
	// Hand the last response back once retries run out so the final status
	// line reaches the caller instead of a generic giving-up error.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = leveledLogger{}

	return &Client{http: rc, cache: cache}, nil
}

// Get performs one GET and returns the open response body. The caller owns
// closing it. Retries happen inside; a still-failing call surfaces as a
// network fault carrying the last status or transport error.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, faults.New(faults.Network, fmt.Sprintf("request %s", url), err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, faults.New(faults.Network, fmt.Sprintf("get %s", url), err)
	}
	if resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, faults.Newf(faults.Network, fmt.Sprintf("get %s", url), "unexpected status %s", resp.Status)
	}
	return resp, nil
}

// GetCached returns the body for url, serving repeats from the bounded
// cache. Callers must not modify the returned slice.
func (c *Client) GetCached(ctx context.Context, url string) ([]byte, error) {
	if body, ok := c.cache.Get(url); ok {
		log.Debug().Str("url", url).Msg("response cache hit")
		return body, nil
	}

	resp, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, faults.New(faults.Network, fmt.Sprintf("read %s", url), err)
	}
	c.cache.Add(url, body)
	return body, nil
}

// GetJSON fetches url through the cache and decodes the body into v.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	body, err := c.GetCached(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return faults.New(faults.Parse, fmt.Sprintf("decode %s", url), err)
	}
	return nil
}

// leveledLogger routes retryablehttp's internal logging through zerolog.
type leveledLogger struct{}

func (leveledLogger) Error(msg string, kv ...interface{}) { log.Error().Fields(kv).Msg(msg) }
func (leveledLogger) Warn(msg string, kv ...interface{})  { log.Warn().Fields(kv).Msg(msg) }
func (leveledLogger) Info(msg string, kv ...interface{})  { log.Info().Fields(kv).Msg(msg) }
func (leveledLogger) Debug(msg string, kv ...interface{}) { log.Debug().Fields(kv).Msg(msg) }
