// Package harvest runs the term x marketplace search loop: one GET per pair,
// product links appended to a sink, a random pause between pairs. Every
// failure inside a pair is logged and skipped; only cancellation stops the loop.
package harvest

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/watsoncoders/amazonscraper/internal/extract"
	"github.com/watsoncoders/amazonscraper/internal/metrics"
	"github.com/watsoncoders/amazonscraper/internal/scraper"
	"github.com/watsoncoders/amazonscraper/internal/search"
	"github.com/watsoncoders/amazonscraper/internal/storage"
)

// Fetcher issues a single GET.
type Fetcher interface {
	Fetch(ctx context.Context, targetURL string) (*scraper.Result, error)
}

// Delayer pauses between consecutive pairs.
type Delayer interface {
	Wait(ctx context.Context) error
}

// RobotsChecker decides whether a URL may be fetched.
type RobotsChecker interface {
	IsAllowed(ctx context.Context, targetURL, userAgent string) (bool, error)
}

// SkipReason says why a pair produced no output. Empty means links were appended.
type SkipReason string

const (
	SkipTransport SkipReason = "transport_error"
	SkipStatus    SkipReason = "non_200"
	SkipParse     SkipReason = "parse_error"
	SkipNoLinks   SkipReason = "no_links"
	SkipRobots    SkipReason = "robots_disallowed"
	SkipSink      SkipReason = "sink_error"
)

// Outcome records what happened to one (term, marketplace) pair.
type Outcome struct {
	Term        string
	Marketplace string
	SearchURL   string
	StatusCode  int
	Links       int
	Bytes       int
	Skip        SkipReason
	BlockSource string
	Error       string
	Duration    time.Duration
	At          time.Time
}

// Label is the metrics/report name of the outcome: "ok" or the skip reason.
func (o Outcome) Label() string {
	if o.Skip == "" {
		return "ok"
	}
	return string(o.Skip)
}

// Config holds the per-run parameters of the loop.
type Config struct {
	Marketplaces []search.Marketplace
	// Scheme of the search URLs; "" means https.
	Scheme string
	// Marker is the product-path substring; "" means extract.DefaultMarker.
	Marker string
	RunID  string
	// RobotsAgent is the User-Agent robots.txt rules are evaluated for.
	RobotsAgent string
}

// Harvester runs the loop. It is not safe for concurrent use.
type Harvester struct {
	cfg     Config
	fetcher Fetcher
	sink    storage.Sink
	delay   Delayer
	robots  RobotsChecker
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a Harvester. delay and logger may be nil.
func New(cfg Config, fetcher Fetcher, sink storage.Sink, delay Delayer, logger *slog.Logger) *Harvester {
	if len(cfg.Marketplaces) == 0 {
		cfg.Marketplaces = search.DefaultMarketplaces()
	}
	if cfg.Marker == "" {
		cfg.Marker = extract.DefaultMarker
	}
	if cfg.RobotsAgent == "" {
		cfg.RobotsAgent = "*"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Harvester{
		cfg:     cfg,
		fetcher: fetcher,
		sink:    sink,
		delay:   delay,
		logger:  logger,
		now:     time.Now,
	}
}

// Marketplaces returns the marketplaces the loop visits, in order.
func (h *Harvester) Marketplaces() []search.Marketplace {
	return h.cfg.Marketplaces
}

// WithRobots enables robots.txt checks before each search request.
func (h *Harvester) WithRobots(r RobotsChecker) *Harvester {
	h.robots = r
	return h
}

// Run processes every (term, marketplace) pair, terms outer and marketplaces
// inner, in order. It returns the outcomes gathered so far and ctx.Err() if
// the context is canceled; otherwise the error is nil.
func (h *Harvester) Run(ctx context.Context, terms []string) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(terms)*len(h.cfg.Marketplaces))

	first := true
	for _, term := range terms {
		for _, m := range h.cfg.Marketplaces {
			if !first && h.delay != nil {
				if err := h.delay.Wait(ctx); err != nil {
					return outcomes, err
				}
			}
			first = false

			if err := ctx.Err(); err != nil {
				return outcomes, err
			}

			o, err := h.harvestOne(ctx, term, m)
			outcomes = append(outcomes, o)
			metrics.Record(metrics.Observation{
				Marketplace: o.Marketplace,
				Outcome:     o.Label(),
				BlockSource: o.BlockSource,
				Duration:    o.Duration,
				Bytes:       o.Bytes,
				Links:       o.Links,
			})
			if err != nil {
				return outcomes, err
			}
		}
	}

	return outcomes, nil
}

func (h *Harvester) harvestOne(ctx context.Context, term string, m search.Marketplace) (Outcome, error) {
	searchURL := m.SearchURL(h.cfg.Scheme, term)
	o := Outcome{
		Term:        term,
		Marketplace: m.Host,
		SearchURL:   searchURL,
		At:          h.now().UTC(),
	}
	log := h.logger.With("term", term, "marketplace", m.Host)
	log.Info("searching", "url", searchURL)

	if h.robots != nil {
		allowed, err := h.robots.IsAllowed(ctx, searchURL, h.cfg.RobotsAgent)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				o.Skip, o.Error = SkipTransport, err.Error()
				return o, ctxErr
			}
			log.Warn("robots.txt check failed, fetching anyway", "err", err)
		} else if !allowed {
			o.Skip = SkipRobots
			log.Info("search disallowed by robots.txt", "url", searchURL)
			return o, nil
		}
	}

	res, err := h.fetcher.Fetch(ctx, searchURL)
	if res != nil {
		o.StatusCode = res.StatusCode
		o.Bytes = len(res.Body)
		o.BlockSource = res.BlockSource
		o.Duration = res.Duration
	}
	if err != nil {
		o.Skip, o.Error = SkipTransport, err.Error()
		return o, err
	}

	if res.Error != "" {
		o.Skip, o.Error = SkipTransport, res.Error
		log.Warn("request error", "url", searchURL, "err", res.Error)
		return o, nil
	}

	if !res.OK() {
		o.Skip = SkipStatus
		log.Warn("request failed", "url", searchURL, "status", res.StatusCode, "block_source", res.BlockSource)
		return o, nil
	}

	base, err := url.Parse(searchURL)
	if err != nil {
		o.Skip, o.Error = SkipParse, err.Error()
		log.Error("invalid search url", "url", searchURL, "err", err)
		return o, nil
	}

	links, err := extract.ProductLinks(base, bytes.NewReader(res.Body), h.cfg.Marker)
	if err != nil {
		o.Skip, o.Error = SkipParse, err.Error()
		log.Warn("could not parse search page", "url", searchURL, "err", err)
		return o, nil
	}

	if len(links) == 0 {
		o.Skip = SkipNoLinks
		if res.BlockSource != "" {
			log.Warn("no product links found, page looks blocked", "url", searchURL, "block_source", res.BlockSource)
		} else {
			log.Info("no product links found", "url", searchURL)
		}
		return o, nil
	}

	batch := storage.Batch{
		RunID:       h.cfg.RunID,
		Term:        term,
		Marketplace: m.Host,
		SearchURL:   searchURL,
		Links:       links,
		FoundAt:     res.FetchedAt,
	}
	if err := h.sink.Append(ctx, batch); err != nil {
		o.Skip, o.Error = SkipSink, err.Error()
		log.Error("failed to append links", "output", h.sink.Location(), "err", err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return o, ctxErr
		}
		return o, nil
	}

	o.Links = len(links)
	log.Info("appended links", "url", searchURL, "links", len(links), "output", h.sink.Location())
	return o, nil
}
