package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/watsoncoders/amazonscraper/internal/config"
	"github.com/watsoncoders/amazonscraper/internal/fingerprint"
	"github.com/watsoncoders/amazonscraper/internal/harvest"
	"github.com/watsoncoders/amazonscraper/internal/metrics"
	"github.com/watsoncoders/amazonscraper/internal/pipeline"
	"github.com/watsoncoders/amazonscraper/internal/scraper"
	"github.com/watsoncoders/amazonscraper/internal/storage"
	"github.com/watsoncoders/amazonscraper/internal/storage/ndjson"
	"github.com/watsoncoders/amazonscraper/internal/storage/textfile"
	"github.com/watsoncoders/amazonscraper/pkg/ratelimit"
	"github.com/watsoncoders/amazonscraper/pkg/useragent"
)

var version = "dev"

const exitInterrupted = 130

// execute runs the command line and maps the result to a process exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case ctx.Err() != nil && errors.Is(err, context.Canceled):
		return exitInterrupted
	default:
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "amazonscraper",
		Short: "Collects Amazon product links for a list of search terms.",
		Long: "amazonscraper searches each term on every configured Amazon marketplace " +
			"and appends the product links found on the result pages to a file.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.New(cmd.Flags())
			if err != nil {
				return err
			}
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}

			level, _ := cfg.SlogLevel()
			logger := newLogger(stderr, cfg.LogFormat, level)
			slog.SetDefault(logger)

			return run(cmd.Context(), cfg, logger, stdout)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	config.RegisterFlags(root.Flags())

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "amazonscraper", version)
		},
	})

	return root
}

func newLogger(w io.Writer, format string, level slog.Level) *slog.Logger {
	switch format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	case "text":
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	default:
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		}))
	}
}

func openSink(cfg config.Config) (storage.Sink, error) {
	format, err := storage.ParseFormat(cfg.OutputFormat)
	if err != nil {
		return nil, err
	}
	switch format {
	case storage.FormatNDJSON:
		return ndjson.New(cfg.Output)
	default:
		return textfile.New(cfg.Output)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger, stdout io.Writer) error {
	markets, err := cfg.MarketplaceList()
	if err != nil {
		return err
	}
	profile, err := fingerprint.ParseProfile(cfg.Fingerprint)
	if err != nil {
		return err
	}
	sink, err := openSink(cfg)
	if err != nil {
		return err
	}

	fetcher, err := scraper.NewFetcher(scraper.FetchConfig{
		Timeout:     cfg.Timeout,
		UAPool:      useragent.NewPool(cfg.UserAgents),
		Fingerprint: profile,
	})
	if err != nil {
		return fmt.Errorf("create fetcher: %w", err)
	}

	var reportOut io.Writer
	if cfg.Report != "none" {
		reportOut = stdout
	}
	p, err := pipeline.New(pipeline.Config{
		Harvest: harvest.Config{
			Marketplaces: markets,
			Scheme:       cfg.Scheme,
			Marker:       cfg.Marker,
			RobotsAgent:  cfg.RobotsAgent,
		},
		ReportFormat: cfg.Report,
		ReportOut:    reportOut,
	}, fetcher, sink, ratelimit.NewRandomDelay(cfg.DelayMin, cfg.DelayMax), logger)
	if err != nil {
		return err
	}
	if cfg.RespectRobots {
		p.WithRobots(scraper.NewRobotsTxtAuditor(fetcher, logger))
	}

	if cfg.MetricsAddr == "" {
		_, err := p.Run(ctx, cfg.Terms)
		return err
	}

	srv, err := metrics.Listen(cfg.MetricsAddr)
	if err != nil {
		return fmt.Errorf("metrics listen: %w", err)
	}
	logger.Info("serving metrics", "addr", srv.Addr())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Serve)
	g.Go(func() error {
		defer func() {
			if err := srv.Stop(context.Background()); err != nil {
				logger.Warn("metrics server shutdown", "err", err)
			}
		}()
		_, err := p.Run(gctx, cfg.Terms)
		return err
	})
	return g.Wait()
}
