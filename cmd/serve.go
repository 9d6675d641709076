package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ZahirOuma/Excellia-FrontEnd/internal/app"
	"github.com/ZahirOuma/Excellia-FrontEnd/internal/config"
	"github.com/ZahirOuma/Excellia-FrontEnd/internal/errors"
	"github.com/ZahirOuma/Excellia-FrontEnd/internal/logging"
	"github.com/ZahirOuma/Excellia-FrontEnd/internal/relay"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the same-origin relay",
	Long: `Run an HTTP server that relays <prefix>/<path> to the records service.

Requests on the prefix (default /proxy) are forwarded to <upstream>/<path>
with the same method. JSON bodies are re-serialized, multipart and
url-encoded forms are streamed as multipart, and answers come back as
JSON.

The error mode selects how failures are reported:
  unified  transport errors give 502, timeouts 504, bad bodies 400 and
           upstream statuses are kept (default)
  compat   every success is 200, POST failures give 500 with a JSON
           message, other failures a plain 500

The server also answers GET /healthz and, with --metrics, GET /metrics.`,
	RunE: runServe,
}

var (
	serveListen       string
	serveUpstream     string
	servePrefix       string
	serveErrorMode    string
	serveTimeout      time.Duration
	serveRateLimit    int
	serveRateWindow   time.Duration
	serveAuditLog     string
	serveMetrics      bool
	serveOrigins      []string
	serveShutdownWait time.Duration
)

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Address to listen on (default from config, "+config.DefaultListen+")")
	serveCmd.Flags().StringVar(&serveUpstream, "upstream", "", "Records service origin (default from config)")
	serveCmd.Flags().StringVar(&servePrefix, "prefix", "", "Path prefix the relay is mounted on")
	serveCmd.Flags().StringVar(&serveErrorMode, "error-mode", "", "Error mapping: unified or compat")
	serveCmd.Flags().DurationVar(&serveTimeout, "upstream-timeout", 0, "Bound on each upstream call (0 = none)")
	serveCmd.Flags().IntVar(&serveRateLimit, "rate-limit", 0, "Max requests per client per window (0 = unlimited)")
	serveCmd.Flags().DurationVar(&serveRateWindow, "rate-window", time.Minute, "Rate limit window duration")
	serveCmd.Flags().StringVar(&serveAuditLog, "audit-log", "", "Path to the relay audit log")
	serveCmd.Flags().BoolVar(&serveMetrics, "metrics", false, "Expose Prometheus metrics on /metrics")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "allowed-origin", nil, "Origin allowed by CORS (repeatable)")
	serveCmd.Flags().DurationVar(&serveShutdownWait, "shutdown-timeout", 10*time.Second, "Grace period for in-flight requests on shutdown")
	rootCmd.AddCommand(serveCmd)
}

// relayConfig merges the flags that were set over the configuration.
func relayConfig(cmd *cobra.Command, cfg *config.Config) (*relay.Config, error) {
	merged := *cfg
	flags := cmd.Flags()
	if flags.Changed("listen") {
		merged.Listen = serveListen
	}
	if flags.Changed("upstream") {
		merged.Upstream = strings.TrimRight(serveUpstream, "/")
	}
	if flags.Changed("prefix") {
		merged.Prefix = strings.TrimRight("/"+strings.TrimLeft(servePrefix, "/"), "/")
	}
	if flags.Changed("error-mode") {
		merged.ErrorMode = strings.ToLower(serveErrorMode)
	}
	if flags.Changed("upstream-timeout") {
		merged.UpstreamTimeout = config.Duration{Duration: serveTimeout}
	}
	if flags.Changed("rate-limit") {
		merged.RateLimit = serveRateLimit
	}
	if flags.Changed("rate-window") {
		merged.RateWindow = config.Duration{Duration: serveRateWindow}
	}
	if flags.Changed("audit-log") {
		merged.AuditLog = serveAuditLog
	}
	if flags.Changed("metrics") {
		merged.Metrics = serveMetrics
	}
	if flags.Changed("allowed-origin") {
		merged.AllowedOrigins = serveOrigins
	}
	if err := merged.Validate(); err != nil {
		return nil, errors.ConfigError("invalid relay settings", err)
	}

	mode, err := relay.ParseErrorMode(merged.ErrorMode)
	if err != nil {
		return nil, errors.ConfigError("invalid relay settings", err)
	}

	return &relay.Config{
		ListenAddr:        merged.Listen,
		TargetURL:         merged.Upstream,
		Prefix:            merged.Prefix,
		ErrorMode:         mode,
		UpstreamTimeout:   merged.UpstreamTimeout.Duration,
		RateLimitRequests: merged.RateLimit,
		RateLimitWindow:   merged.RateWindow.Duration,
		AuditLogPath:      merged.AuditLog,
		AllowedOrigins:    merged.AllowedOrigins,
		EnableMetrics:     merged.Metrics,
		Logger:            logging.Component("relay"),
	}, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := relayConfig(cmd, app.Default.Config)
	if err != nil {
		return err
	}

	server, err := relay.NewServer(cfg)
	if err != nil {
		return errors.ConfigError("failed to create relay", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logInfo("Relaying %s/* to %s (%s mode)", cfg.Prefix, cfg.TargetURL, cfg.ErrorMode)
	if cfg.RateLimitRequests > 0 {
		logInfo("Rate limit: %d requests per %s", cfg.RateLimitRequests, cfg.RateLimitWindow)
	}
	if cfg.AuditLogPath != "" {
		logInfo("Audit log: %s", cfg.AuditLogPath)
	}
	if cfg.EnableMetrics {
		logInfo("Metrics: /metrics")
	}

	return server.Run(ctx, serveShutdownWait)
}
