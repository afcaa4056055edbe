package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/watsoncoders/amazonscraper/internal/detect"
	"github.com/watsoncoders/amazonscraper/internal/fingerprint"
	"github.com/watsoncoders/amazonscraper/pkg/httpclient"
	"github.com/watsoncoders/amazonscraper/pkg/useragent"
)

// DefaultMaxBodyBytes caps how much of a response body is read.
const DefaultMaxBodyBytes = 10 << 20

// FetchConfig configures a single scrape action.
type FetchConfig struct {
	Timeout      time.Duration
	MaxRedirects int
	MaxBodyBytes int64
	UAPool       *useragent.Pool
	Fingerprint  fingerprint.Profile
	// Transport overrides the fingerprinted transport when set.
	Transport http.RoundTripper
	Detectors []detect.Detector
}

// Result is the outcome of one GET. Transport failures are recorded in Error
// rather than returned, so callers can log them and move on.
type Result struct {
	URL         string
	UserAgent   string
	StatusCode  int
	Header      http.Header
	Body        []byte
	Truncated   bool
	Duration    time.Duration
	FetchedAt   time.Time
	BlockSource string // e.g. "AmazonRobotCheck", "Cloudflare"
	Error       string // non-empty if the request failed before a full response
}

// OK reports whether the fetch produced a complete 200 response.
func (r *Result) OK() bool {
	return r != nil && r.Error == "" && r.StatusCode == http.StatusOK
}

// Fetcher performs single URL fetches with a random User-Agent per request.
type Fetcher struct {
	config FetchConfig
	client *httpclient.Client
}

// NewFetcher initializes a new Fetcher with the given configuration.
func NewFetcher(cfg FetchConfig) (*Fetcher, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.UAPool == nil {
		cfg.UAPool = useragent.NewPool(nil)
	}
	if cfg.Fingerprint == "" {
		cfg.Fingerprint = fingerprint.ProfileGo
	}
	if cfg.Detectors == nil {
		cfg.Detectors = detect.DefaultDetectors()
	}

	transport := cfg.Transport
	if transport == nil {
		var err error
		transport, err = fingerprint.Transport(cfg.Fingerprint)
		if err != nil {
			return nil, fmt.Errorf("failed to setup transport: %w", err)
		}
	}

	client, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		MaxRedirects: cfg.MaxRedirects,
		Transport:    transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Fetcher{
		config: cfg,
		client: client,
	}, nil
}

// Fetch issues exactly one GET to targetURL. The returned error is non-nil
// only when ctx itself was canceled; every other failure is in Result.Error.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) (*Result, error) {
	start := time.Now()
	result := &Result{
		URL:       targetURL,
		UserAgent: f.config.UAPool.Random(),
		FetchedAt: start.UTC(),
	}

	resp, err := f.client.Get(ctx, targetURL, result.UserAgent)
	if err != nil {
		result.Error = fmt.Sprintf("request failed: %v", err)
		result.Duration = time.Since(start)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}
		return result, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBodyBytes+1))
	if err != nil {
		result.Error = fmt.Sprintf("failed to read body: %v", err)
	}
	if int64(len(body)) > f.config.MaxBodyBytes {
		body = body[:f.config.MaxBodyBytes]
		result.Truncated = true
	}

	result.StatusCode = resp.StatusCode
	result.Header = resp.Header
	result.Body = body
	result.Duration = time.Since(start)
	result.BlockSource = detect.Analyze(detect.Page{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, f.config.Detectors)

	return result, nil
}
