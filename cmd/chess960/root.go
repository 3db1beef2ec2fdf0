package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/discochess/chess960/internal/engine"
	"github.com/discochess/chess960/internal/stats"
	statslogger "github.com/discochess/chess960/internal/stats/logger"
	promstats "github.com/discochess/chess960/internal/stats/prometheus"
)

// envDataDir overrides the default data directory.
const envDataDir = "CHESS960_DATA_DIR"

var (
	// Global flags.
	dataDir     string
	outputURL   string
	compress    string
	enginePath  string
	metricsAddr string
	verbose     bool

	logger    = zap.NewNop()
	collector stats.Collector = stats.NewNoop()
	metrics   *http.Server
)

var rootCmd = &cobra.Command{
	Use:   "chess960",
	Short: "Offline engine analysis of the 960 Chess960 start positions",
	Long: `chess960 drives a UCI engine over every Chess960 start position and
records multi-PV evaluations and WDL-based sharpness in resumable ledgers.

The engine binary is taken from --engine, $CHESS960_ENGINE, $STOCKFISH_PATH
or ` + engine.DefaultPath + `, in that order.

Examples:
  # Create the position list
  chess960 positions generate

  # Analyse all positions, 20s per position, 3 lines
  chess960 analyze

  # Quick pass at fixed depth, writing zstd ledgers to S3
  chess960 analyze --depth 20 --output s3://my-bucket/chess960 --compress zstd

  # Fold the evaluations into chess960.json
  chess960 merge`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&dataDir, "data-dir", "d", envOr(envDataDir, "./data"), "directory containing chess960.json ($"+envDataDir+")")
	pf.StringVarP(&outputURL, "output", "o", "", "ledger location: a directory, s3://bucket/prefix or gs://bucket/prefix (default: data dir)")
	pf.StringVar(&compress, "compress", "none", "ledger compression: zstd, gzip, none")
	pf.StringVar(&enginePath, "engine", "", "engine binary path")
	pf.StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9960)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// setup builds the logger and metrics collector shared by all commands.
func setup(cmd *cobra.Command, args []string) error {
	l, err := newLogger(verbose)
	if err != nil {
		return err
	}
	logger = l

	switch {
	case metricsAddr != "":
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		collector = promstats.New(reg)
		serveMetrics(reg)
	case verbose:
		collector = statslogger.New(logger)
	}
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.DisableStacktrace = true
	cfg.Sampling = nil
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

func serveMetrics(reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	metrics = &http.Server{
		Addr:              metricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", metricsAddr))
}

// shutdown stops the metrics server and flushes the logger.
func shutdown() {
	if metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = metrics.Shutdown(ctx)
	}
	_ = logger.Sync()
}
