// Package fetch provides the HTTP client the source adapters share. It wraps
// a Colly collector so per-domain rate limits and connection reuse live in
// one place, and classifies retryable failures for the engine's retry policy.
package fetch

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/ngmonitor/courtharvest/internal/harvest"
	"github.com/ngmonitor/courtharvest/internal/metrics"
)

// Config holds the HTTP client settings.
type Config struct {
	UserAgent      string
	RequestTimeout time.Duration
	// Parallelism caps concurrent requests per domain.
	Parallelism int
	// Delay is the minimum gap between requests to the same domain. The
	// portals sit behind an eager WAF; politeness is load-bearing here.
	Delay time.Duration
}

// Client implements harvest.Fetcher on top of Colly.
type Client struct {
	baseCollector *colly.Collector
	logger        *zap.Logger
}

// NewClient constructs a configured Colly-backed client.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	base := colly.NewCollector(
		colly.Async(true),
		colly.UserAgent(cfg.UserAgent),
		colly.IgnoreRobotsTxt(),
	)
	// The same causelist URL is requested once per date with different form
	// bodies, so revisits are the normal case.
	base.AllowURLRevisit = true
	base.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          64,
		MaxIdleConnsPerHost:   16,
		MaxConnsPerHost:       max(1, cfg.Parallelism) * 2,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.RequestTimeout,
		ForceAttemptHTTP2:     true,
	})
	base.SetRequestTimeout(cfg.RequestTimeout)

	if err := base.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: max(1, cfg.Parallelism),
		Delay:       cfg.Delay,
	}); err != nil {
		return nil, err
	}

	return &Client{baseCollector: base, logger: logger}, nil
}

// Get fetches a URL and returns the response body.
func (c *Client) Get(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	return c.do(ctx, rawURL, nil, headers)
}

// PostForm submits a form-encoded POST and returns the response body.
func (c *Client) PostForm(ctx context.Context, rawURL string, form, headers map[string]string) ([]byte, error) {
	if form == nil {
		form = map[string]string{}
	}
	return c.do(ctx, rawURL, form, headers)
}

type fetchResult struct {
	statusCode int
	body       []byte
	err        error
}

// do runs one request on a cloned collector. A nil form means GET.
func (c *Client) do(ctx context.Context, rawURL string, form, headers map[string]string) ([]byte, error) {
	collector := c.baseCollector.Clone()
	resultCh := make(chan fetchResult, 1)
	var once sync.Once
	send := func(res fetchResult) {
		once.Do(func() {
			resultCh <- res
		})
	}

	collector.OnRequest(func(r *colly.Request) {
		for k, v := range headers {
			r.Headers.Set(k, v)
		}
	})
	collector.OnResponse(func(r *colly.Response) {
		send(fetchResult{
			statusCode: r.StatusCode,
			body:       append([]byte{}, r.Body...),
		})
	})
	collector.OnError(func(r *colly.Response, err error) {
		if err == nil {
			err = errors.New("unknown colly error")
		}
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		send(fetchResult{statusCode: status, err: err})
	})

	// Colly has no per-request context plumbing: once a visit is issued the
	// request runs to completion or timeout. Cancellation is checked before
	// dispatch and is otherwise bounded by the request timeout.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	method := http.MethodGet
	started := time.Now()
	var err error
	if form == nil {
		err = collector.Visit(rawURL)
	} else {
		method = http.MethodPost
		err = collector.Post(rawURL, form)
	}
	if err != nil {
		return nil, &harvest.TransientError{Err: err}
	}
	collector.Wait()

	select {
	case res := <-resultCh:
		metrics.ObservePortalRequest(method, res.statusCode, time.Since(started))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return c.classify(rawURL, res)
	default:
		return nil, errors.New("fetch produced no result")
	}
}

// classify maps the raw outcome onto the engine's error taxonomy: retryable
// statuses and transport errors become TransientError, everything else is
// terminal for the unit.
func (c *Client) classify(rawURL string, res fetchResult) ([]byte, error) {
	if res.err != nil {
		c.logger.Warn("Request failed",
			zap.String("url", rawURL),
			zap.Int("status_code", res.statusCode),
			zap.Error(res.err),
		)
		if res.statusCode == 0 || harvest.TransientStatus(res.statusCode) {
			return nil, &harvest.TransientError{StatusCode: res.statusCode, Err: res.err}
		}
		return nil, res.err
	}
	if harvest.TransientStatus(res.statusCode) {
		return nil, &harvest.TransientError{StatusCode: res.statusCode, Err: errors.New(http.StatusText(res.statusCode))}
	}
	return res.body, nil
}
