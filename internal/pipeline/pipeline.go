// Package pipeline wires term loading, the harvest loop and the end-of-run
// report into a single run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/watsoncoders/amazonscraper/internal/harvest"
	"github.com/watsoncoders/amazonscraper/internal/report"
	"github.com/watsoncoders/amazonscraper/internal/storage"
	"github.com/watsoncoders/amazonscraper/internal/terms"
)

// Config controls one pipeline run.
type Config struct {
	Harvest harvest.Config
	// ReportFormat is "text", "json" or "none".
	ReportFormat string
	// ReportOut receives the summary; nil disables it.
	ReportOut io.Writer
}

// Pipeline orchestrates the two stages of a run: loading search terms and
// harvesting product links for each (term, marketplace) pair.
type Pipeline struct {
	cfg     Config
	fetcher harvest.Fetcher
	sink    storage.Sink
	delay   harvest.Delayer
	robots  harvest.RobotsChecker
	logger  *slog.Logger
}

// New creates a Pipeline. delay and logger may be nil.
func New(cfg Config, fetcher harvest.Fetcher, sink storage.Sink, delay harvest.Delayer, logger *slog.Logger) (*Pipeline, error) {
	if fetcher == nil {
		return nil, errors.New("pipeline: fetcher is nil")
	}
	if sink == nil {
		return nil, errors.New("pipeline: sink is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:     cfg,
		fetcher: fetcher,
		sink:    sink,
		delay:   delay,
		logger:  logger,
	}, nil
}

// WithRobots enables robots.txt checks for the run.
func (p *Pipeline) WithRobots(r harvest.RobotsChecker) *Pipeline {
	p.robots = r
	return p
}

// Run loads the terms at termsPath and harvests them. A missing or empty terms
// file is not an error: nothing is fetched and the zero Summary is returned.
// Cancellation returns the partial summary together with ctx.Err().
func (p *Pipeline) Run(ctx context.Context, termsPath string) (report.Summary, error) {
	list, err := terms.Load(termsPath)
	if err != nil {
		if !errors.Is(err, terms.ErrNotFound) {
			return report.Summary{}, fmt.Errorf("load terms: %w", err)
		}
		p.logger.Warn("terms file not found", "path", termsPath)
	}
	if len(list) == 0 {
		p.logger.Info("no search terms", "path", termsPath)
		return report.Summary{}, nil
	}

	hcfg := p.cfg.Harvest
	if hcfg.RunID == "" {
		hcfg.RunID = uuid.NewString()
	}
	logger := p.logger.With("run_id", hcfg.RunID)

	h := harvest.New(hcfg, p.fetcher, p.sink, p.delay, logger)
	if p.robots != nil {
		h.WithRobots(p.robots)
	}

	logger.Info("starting harvest",
		"terms", len(list),
		"marketplaces", len(h.Marketplaces()),
		"output", p.sink.Location(),
	)

	outcomes, runErr := h.Run(ctx, list)

	summary := report.GenerateSummary(outcomes)
	summary.RunID = hcfg.RunID
	summary.Output = p.sink.Location()
	summary.Interrupted = runErr != nil

	if runErr != nil {
		logger.Warn("harvest interrupted", "pairs", len(outcomes), "err", runErr)
	} else {
		logger.Info("harvest complete",
			"requests", summary.TotalRequests,
			"links", summary.TotalLinks,
			"duration", summary.Duration,
		)
	}

	if p.cfg.ReportOut != nil {
		if err := report.Write(p.cfg.ReportOut, p.cfg.ReportFormat, summary); err != nil {
			if runErr != nil {
				logger.Error("failed to write report", "err", err)
				return summary, runErr
			}
			return summary, fmt.Errorf("write report: %w", err)
		}
	}

	return summary, runErr
}
