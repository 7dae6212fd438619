// Package sources is the external-source access handle given to verifiers.
// It probes source URLs for reachability and staleness, gates fetches on
// robots.txt, and rate-limits per host. It never interprets page content.
package sources

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/temoto/robotstxt"
	"golang.org/x/time/rate"

	"github.com/veristat/veristat/internal/model"
)

// TransientError marks a failure worth retrying (network flake, 5xx).
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// ProbeResult describes one source URL's reachability and freshness.
type ProbeResult struct {
	URL          string
	Reachable    bool
	StatusCode   int
	LastModified *time.Time
	AgeDays      *int
	Stale        bool // last modified over a year ago
	Authority    Tier
}

// Client probes external sources on behalf of verifiers.
type Client struct {
	http      *resty.Client
	authority *Classifier
	cfg       model.SourcesConfig

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	robots   map[string]*robotstxt.RobotsData
}

// NewClient builds a probe client from configuration.
func NewClient(cfg model.SourcesConfig) *Client {
	httpClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(3))

	return &Client{
		http:      httpClient,
		authority: NewClassifier(cfg.PrimaryDomains, cfg.SecondaryDomains),
		cfg:       cfg,
		limiters:  make(map[string]*rate.Limiter),
		robots:    make(map[string]*robotstxt.RobotsData),
	}
}

// Authority classifies a URL without touching the network.
func (c *Client) Authority(rawURL string) Tier {
	return c.authority.Classify(rawURL)
}

// Probe checks a source URL with a HEAD request. Inaccessible hosts and
// 5xx responses come back as TransientError so callers may retry.
func (c *Client) Probe(ctx context.Context, rawURL string) (ProbeResult, error) {
	result := ProbeResult{URL: rawURL, Authority: c.authority.Classify(rawURL)}

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return result, fmt.Errorf("parse url %q: %w", rawURL, err)
	}

	if allowed := c.allowedByRobots(ctx, parsed); !allowed {
		return result, fmt.Errorf("robots.txt disallows %s", rawURL)
	}

	if err := c.limiter(parsed.Host).Wait(ctx); err != nil {
		return result, err
	}

	resp, err := c.http.R().SetContext(ctx).Head(rawURL)
	if err != nil {
		return result, &TransientError{Err: fmt.Errorf("probe %s: %w", rawURL, err)}
	}

	result.StatusCode = resp.StatusCode()
	if resp.StatusCode() >= 500 {
		return result, &TransientError{Err: fmt.Errorf("probe %s: status %d", rawURL, resp.StatusCode())}
	}
	result.Reachable = resp.StatusCode() >= 200 && resp.StatusCode() < 400

	if lm := resp.Header().Get("Last-Modified"); lm != "" {
		if t, perr := time.Parse(time.RFC1123, lm); perr == nil {
			result.LastModified = &t
			age := int(time.Since(t).Hours() / 24)
			result.AgeDays = &age
			result.Stale = age > 365
		}
	}

	return result, nil
}

// Lookup performs a GET against a source lookup endpoint with the claim
// text as the query. Returns the raw body; interpretation is the caller's.
func (c *Client) Lookup(ctx context.Context, baseURL, query string) (string, int, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Host == "" {
		return "", 0, fmt.Errorf("parse url %q: %w", baseURL, err)
	}

	if err := c.limiter(parsed.Host).Wait(ctx); err != nil {
		return "", 0, err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("q", query).
		Get(baseURL)
	if err != nil {
		return "", 0, &TransientError{Err: fmt.Errorf("lookup %s: %w", baseURL, err)}
	}
	if resp.StatusCode() >= 500 {
		return "", resp.StatusCode(), &TransientError{Err: fmt.Errorf("lookup %s: status %d", baseURL, resp.StatusCode())}
	}

	return string(resp.Body()), resp.StatusCode(), nil
}

// limiter returns the per-host rate limiter, creating it on first use.
func (c *Client) limiter(host string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	if l, ok := c.limiters[host]; ok {
		return l
	}
	burst := c.cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	l := rate.NewLimiter(rate.Limit(c.cfg.RequestsPerSecond), burst)
	c.limiters[host] = l
	return l
}

// allowedByRobots checks robots.txt for the URL, caching per host.
// Missing or unfetchable robots.txt allows by default.
func (c *Client) allowedByRobots(ctx context.Context, u *url.URL) bool {
	c.mu.Lock()
	data, ok := c.robots[u.Host]
	c.mu.Unlock()

	if !ok {
		robotsURL := fmt.Sprintf("%s://%s/robots.txt", u.Scheme, u.Host)
		resp, err := c.http.R().SetContext(ctx).Get(robotsURL)
		if err != nil || resp.StatusCode() != 200 {
			return true
		}
		data, err = robotstxt.FromBytes(resp.Body())
		if err != nil {
			return true
		}
		c.mu.Lock()
		c.robots[u.Host] = data
		c.mu.Unlock()
	}

	return data.TestAgent(u.Path, c.cfg.UserAgent)
}
