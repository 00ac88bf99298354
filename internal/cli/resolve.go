package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/incident-triage/internal/adapter/http"
	"github.com/couchcryptid/incident-triage/internal/adapter/jsonl"
	"github.com/couchcryptid/incident-triage/internal/adapter/refdata"
	"github.com/couchcryptid/incident-triage/internal/config"
	"github.com/couchcryptid/incident-triage/internal/domain"
	"github.com/couchcryptid/incident-triage/internal/observability"
	"github.com/couchcryptid/incident-triage/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

// stdio selects stdin or stdout for --in and --out.
const stdio = "-"

type resolveOptions struct {
	referenceFlags
	in        string
	out       string
	batchSize int
	httpAddr  string
}

func newResolveCmd(root *rootOptions) *cobra.Command {
	opts := &resolveOptions{}

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve classified incident reports into dispatch records",
		Long: `Resolve reads one classification JSON object per line and writes one
dispatch record per line. Records without report text or with malformed JSON
are logged and skipped. A run summary is printed to stderr.

While the run is in progress, /healthz, /readyz, /statusz, and /metrics
are served on HTTP_ADDR unless it is "off".

Example:
  triage resolve --in data/mock/incidents.jsonl --out dispatches.jsonl
  cat incidents.jsonl | triage resolve --hazards off --http-addr off`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runResolve(cmd, root, opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVar(&opts.in, "in", stdio, `classification JSONL input ("-" for stdin)`)
	cmd.Flags().StringVar(&opts.out, "out", stdio, `dispatch JSONL output ("-" for stdout)`)
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", 0, "records per batch (overrides BATCH_SIZE)")
	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", "", `health and metrics listen address (overrides HTTP_ADDR; "off" disables)`)
	return cmd
}

func runResolve(cmd *cobra.Command, root *rootOptions, opts *resolveOptions) error {
	cfg, err := loadConfig(cmd, root, &opts.referenceFlags)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("batch-size") {
		cfg.BatchSize = opts.batchSize
	}
	if cmd.Flags().Changed("http-addr") {
		cfg.HTTPAddr = opts.httpAddr
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := observability.NewLoggerTo(cmd.ErrOrStderr(), cfg)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(reg)

	ref, err := refdata.NewLoader(nil, logger).Load(cfg.ReferenceDataPath, cfg.RegionalHazardPath)
	if err != nil {
		return err
	}
	engine, err := domain.NewEngine(ref)
	if err != nil {
		return err
	}
	metrics.ReferenceDataLoaded.Set(float64(engine.LoadedAt().Unix()))

	in, closeIn, err := openInput(cmd, opts.in)
	if err != nil {
		return err
	}
	defer closeIn() //nolint:errcheck // read-only input

	out, closeOut, err := openOutput(cmd, opts.out)
	if err != nil {
		return err
	}

	writer := jsonl.NewWriter(out)
	p := pipeline.New(
		jsonl.NewReader(in, sourceName(opts.in, "stdin"), nil, logger),
		pipeline.NewTransformer(engine, logger, metrics),
		writer,
		logger,
		metrics,
		nil,
		cfg.BatchSize,
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := startServer(cfg, p, reg, logger)

	sum, runErr := p.Run(ctx)

	if err := writer.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("flush output: %w", err)
	}
	if err := closeOut(); err != nil && runErr == nil {
		runErr = fmt.Errorf("close output: %w", err)
	}
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}

	printSummary(cmd.ErrOrStderr(), sum)
	return runErr
}

// startServer runs the health and metrics listener in the background, or
// returns nil when it is disabled.
func startServer(cfg *config.Config, p *pipeline.Pipeline, gatherer prometheus.Gatherer, logger *slog.Logger) *httpadapter.Server {
	if !cfg.HTTPEnabled() {
		return nil
	}
	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Probes{Ready: p, Progress: p}, gatherer, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()
	return srv
}

func openInput(cmd *cobra.Command, path string) (io.Reader, func() error, error) {
	if path == stdio {
		return cmd.InOrStdin(), noopClose, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}
	return f, f.Close, nil
}

func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == stdio {
		return cmd.OutOrStdout(), noopClose, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return f, f.Close, nil
}

func noopClose() error { return nil }

func sourceName(path, fallback string) string {
	if path == stdio {
		return fallback
	}
	return path
}

func printSummary(w io.Writer, sum pipeline.Summary) {
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  Consumed:  %d\n", sum.Consumed)
	fmt.Fprintf(w, "  Produced:  %d\n", sum.Produced)
	fmt.Fprintf(w, "  Rejected:  %d\n", sum.Rejected)
	fmt.Fprintf(w, "  Duration:  %v\n", sum.Duration)
}
