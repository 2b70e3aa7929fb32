package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/boom-astro/babamul/internal/alert"
	"github.com/boom-astro/babamul/internal/api"
	"github.com/boom-astro/babamul/internal/archive"
	"github.com/boom-astro/babamul/internal/config"
	"github.com/boom-astro/babamul/internal/domain"
	"github.com/boom-astro/babamul/internal/observability"
	chstore "github.com/boom-astro/babamul/internal/storage/clickhouse"
	"github.com/boom-astro/babamul/internal/storage/memory"
	"github.com/boom-astro/babamul/internal/storage/migrations"
	pgstore "github.com/boom-astro/babamul/internal/storage/postgres"
	rediscache "github.com/boom-astro/babamul/internal/storage/redis"
	"github.com/boom-astro/babamul/internal/stream"
)

type options struct {
	topics        string
	survey        string
	offset        string
	groupID       string
	timeout       time.Duration
	limit         int
	archive       string
	postgresDSN   string
	clickhouseDSN string
	backfill      bool
	redisURL      string
	metricsAddr   string
	logLevel      string
	envFile       string
}

func main() {
	var opts options
	flag.StringVar(&opts.topics, "topics", "", "Comma-separated topics (default: all topics of -survey)")
	flag.StringVar(&opts.survey, "survey", "ztf", "Survey whose topics to consume when -topics is empty: ztf or lsst")
	flag.StringVar(&opts.offset, "offset", "", "Start offset for a new group: latest or earliest (overrides BABAMUL_OFFSET)")
	flag.StringVar(&opts.groupID, "group-id", "", "Consumer group id (overrides BABAMUL_GROUP_ID)")
	flag.DurationVar(&opts.timeout, "timeout", -1, "Stop after this long without a message; 0 waits forever (overrides BABAMUL_POLL_TIMEOUT)")
	flag.IntVar(&opts.limit, "limit", 0, "Stop after this many alerts (0 = unlimited)")
	flag.StringVar(&opts.archive, "archive", "", "Archive alerts: memory or db (empty disables)")
	flag.StringVar(&opts.postgresDSN, "postgres-dsn", "", "PostgreSQL connection string for -archive=db")
	flag.StringVar(&opts.clickhouseDSN, "clickhouse-dsn", "", "ClickHouse connection string for -archive=db (optional)")
	flag.BoolVar(&opts.backfill, "backfill", false, "Bind the REST client so missing photometry, cutouts and cross-matches are fetched")
	flag.StringVar(&opts.redisURL, "redis-url", "", "Cache fetched cutouts in Redis (with -backfill)")
	flag.StringVar(&opts.metricsAddr, "metrics-addr", ":9090", "Prometheus metrics HTTP address (empty to disable)")
	flag.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	flag.Parse()

	if err := setupLogger(opts.logLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("stream failed")
	}
}

func setupLogger(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid -log-level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	return nil
}

func run(ctx context.Context, opts options, out io.Writer) error {
	if err := config.LoadDotenv(opts.envFile); err != nil {
		return err
	}

	cfg, err := config.StreamFromEnv()
	if err != nil {
		return err
	}
	if opts.offset != "" {
		cfg.Offset = strings.ToLower(opts.offset)
	}
	if opts.groupID != "" {
		cfg.GroupID = opts.groupID
	}
	if opts.timeout >= 0 {
		cfg.Timeout = opts.timeout
	}

	topics, err := resolveTopics(opts.topics, opts.survey)
	if err != nil {
		return err
	}

	if opts.metricsAddr != "" {
		startMetricsServer(opts.metricsAddr)
	}

	var consumerOpts []stream.Option
	if opts.backfill {
		apiCfg, err := config.APIFromEnv()
		if err != nil {
			return err
		}
		var clientOpts []api.ClientOption
		if opts.redisURL != "" {
			rc, err := rediscache.NewClient(ctx, opts.redisURL)
			if err != nil {
				return err
			}
			defer rc.Close()
			clientOpts = append(clientOpts, api.WithCutoutCache(rediscache.NewCutoutCache(rc, rediscache.DefaultTTL)))
		}
		client, err := api.New(apiCfg, clientOpts...)
		if err != nil {
			return err
		}
		consumerOpts = append(consumerOpts, stream.WithFetcher(client))
	}

	archiver, closeArchive, err := openArchive(ctx, opts)
	if err != nil {
		return err
	}
	defer closeArchive()

	consumer, err := stream.NewConsumer(cfg, topics, consumerOpts...)
	if err != nil {
		return err
	}
	defer consumer.Close()

	count := 0
	handle := func(ctx context.Context, a alert.Alert) error {
		printSummary(out, a)
		if archiver != nil {
			if err := archiver.Handle(ctx, a); err != nil {
				return err
			}
		}
		count++
		if opts.limit > 0 && count >= opts.limit {
			return errLimitReached
		}
		return nil
	}

	err = consumer.Run(ctx, handle)
	log.Info().Int("alerts", count).Msg("stream finished")
	if errors.Is(err, errLimitReached) {
		return nil
	}
	return err
}

var errLimitReached = errors.New("alert limit reached")

func resolveTopics(topics, survey string) ([]string, error) {
	if topics != "" {
		var list []string
		for _, t := range strings.Split(topics, ",") {
			if t = strings.TrimSpace(t); t != "" {
				list = append(list, t)
			}
		}
		return list, nil
	}
	s, err := domain.ParseSurvey(survey)
	if err != nil {
		return nil, err
	}
	return stream.TopicsFor(s), nil
}

func openArchive(ctx context.Context, opts options) (*archive.Archiver, func(), error) {
	noop := func() {}

	switch opts.archive {
	case "":
		return nil, noop, nil
	case "memory":
		return archive.NewArchiver(archive.Options{
			AlertStore:      memory.NewAlertStore(),
			PhotometryStore: memory.NewPhotometryStore(),
		}), noop, nil
	case "db":
	default:
		return nil, nil, fmt.Errorf("%w: unknown -archive %q", domain.ErrConfiguration, opts.archive)
	}

	if opts.postgresDSN == "" {
		return nil, nil, fmt.Errorf("%w: -archive=db requires -postgres-dsn", domain.ErrConfiguration)
	}
	pool, err := pgstore.NewPool(ctx, config.NewPostgresConfig(opts.postgresDSN))
	if err != nil {
		return nil, nil, err
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	archiveOpts := archive.Options{AlertStore: pgstore.NewAlertStore(pool)}
	closers := []func(){pool.Close}

	if opts.clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, opts.clickhouseDSN)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		archiveOpts.PhotometryStore = chstore.NewPhotometryStore(conn)
		closers = append(closers, func() { conn.Close() })
	}

	log.Info().
		Bool("postgres", true).
		Bool("clickhouse", archiveOpts.PhotometryStore != nil).
		Msg("archive enabled")

	return archive.NewArchiver(archiveOpts), func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}, nil
}

func startMetricsServer(addr string) {
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.Handler())
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ok"))
		})
		log.Info().Str("addr", addr).Msg("starting metrics server")
		if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server error")
		}
	}()
}

func printSummary(w io.Writer, a alert.Alert) {
	s := a.Summary()
	drb := "-"
	if s.DRB != nil {
		drb = fmt.Sprintf("%.3f", *s.DRB)
	}
	fmt.Fprintf(w, "%-4s %-14s %d jd=%.5f %s=%.2f±%.2f ra=%.6f dec=%+.6f drb=%s topic=%s\n",
		s.Survey, s.ObjectID, s.Candid, s.JD, s.Band, s.MagPSF, s.SigmaPSF, s.RA, s.Dec, drb, a.Topic())
}
