package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/nao1215/torwatch/internal/config"
	"github.com/nao1215/torwatch/internal/database"
	"github.com/nao1215/torwatch/internal/fetch"
	"github.com/nao1215/torwatch/internal/log"
	"github.com/nao1215/torwatch/internal/monitor"
	"github.com/nao1215/torwatch/internal/target"
	"github.com/nao1215/torwatch/internal/tor"
	"github.com/spf13/cobra"
)

// NewWatchCmd creates the watch command.
func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the monitor loop",
		Long: `Watch runs the monitor loop: fetch every target, record the outcome,
sleep, repeat.

Each cycle re-reads the targets file (one URL per line, '#' comments),
checks every target through the Tor SOCKS5 proxy, and appends one row per
check to the store. A target that answers with any HTTP status counts as
up; only transport failures (connection refused, timeout, broken circuit)
are recorded as down. On top of the raw history the monitor logs content
changes, warns when other targets serve identical content, and records
every v3 onion address seen on the checked pages.

Configuration is layered: built-in defaults, then .torwatch.yaml, then
environment variables (TOR_SOCKS_HOST, MONITOR_INTERVAL_SECONDS, ...),
then flags.

Examples:
  # Watch the default targets.txt through Tor at 127.0.0.1:9050
  torwatch watch

  # Custom target list and a faster cycle
  torwatch watch --targets /etc/torwatch/targets.txt --interval 1m

  # Run a single cycle, then exit (for cron or smoke tests)
  torwatch watch --once

  # Start an embedded Tor daemon instead of an external proxy
  torwatch watch --embedded-tor

  # Check four targets at a time
  torwatch watch --concurrency 4`,
		Args: cobra.NoArgs,
		RunE: runWatchCmd,
	}

	// Transport flags
	cmd.Flags().StringP("proxy", "p", defaultProxyAddress(),
		"Tor SOCKS5 proxy address (host:port)")
	cmd.Flags().BoolP("embedded-tor", "e", false,
		"Start an embedded Tor daemon instead of using an external proxy")
	cmd.Flags().DurationP("tor-timeout", "T", config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Per-request timeout")
	cmd.Flags().Bool("follow-redirects", true,
		"Follow HTTP redirects (up to 10 hops)")
	cmd.Flags().StringP("user-agent", "u", config.DefaultUserAgent,
		"User-Agent header sent with every request")

	// Loop flags
	cmd.Flags().DurationP("interval", "i", config.DefaultInterval,
		"Pause between poll cycles")
	cmd.Flags().StringP("targets", "l", config.DefaultTargetsFile,
		"Path of the newline-delimited target list")
	cmd.Flags().StringP("database", "d", config.DefaultDatabasePath(),
		"SQLite store file path")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Number of targets checked at the same time")
	cmd.Flags().Bool("once", false,
		"Run a single cycle and exit")

	// Configuration and logging flags
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .torwatch.yaml in current or home directory)")
	cmd.Flags().String("env-file", "",
		"Dotenv file to load (default: .env when present)")
	cmd.Flags().Bool("json-log", false,
		"Write logs as JSON records")

	return cmd
}

// defaultProxyAddress is the external proxy endpoint shown in --help.
func defaultProxyAddress() string {
	return net.JoinHostPort(config.DefaultSocksHost, strconv.Itoa(config.DefaultSocksPort))
}

// runWatchCmd executes the watch command.
func runWatchCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildWatchConfig(cmd)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging
	logger := setupLogger(cfg)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, stopping...")
		cancel()
	}()

	once, err := cmd.Flags().GetBool("once")
	if err != nil {
		return err
	}

	return runWatch(ctx, cfg, logger, once)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildWatchConfig merges the configuration layers for the watch command:
// defaults, then the optional YAML file, then environment variables, then
// whichever flags were set on the command line.
func buildWatchConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	configPathFlag, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg.ConfigFilePath = configPathFlag

	// Config file layer. An explicitly specified file must exist; the
	// default search locations (cwd, then home) are optional.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		cf, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		if err := cf.Apply(cfg); err != nil {
			return nil, err
		}
	} else if cfg.ConfigFilePath != "" {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	// Environment layer, optionally primed from a dotenv file.
	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return nil, err
	}
	if err := config.LoadEnvFile(envFile); err != nil {
		return nil, err
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}

	// Flag layer. Only flags actually set on the command line override the
	// layers below; flag defaults exist for --help display.
	if err := applyWatchFlags(cmd, cfg); err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)

	return cfg, nil
}

// applyWatchFlags overlays flags that were set on the command line.
func applyWatchFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	if flags.Changed("proxy") {
		v, err := flags.GetString("proxy")
		if err != nil {
			return err
		}
		host, portStr, err := net.SplitHostPort(v)
		if err != nil {
			return fmt.Errorf("invalid --proxy address %q: %w", v, err)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid --proxy port %q: %w", portStr, err)
		}
		cfg.SocksHost = host
		cfg.SocksPort = port
	}
	if flags.Changed("interval") {
		v, err := flags.GetDuration("interval")
		if err != nil {
			return err
		}
		cfg.Interval = v
	}
	if flags.Changed("targets") {
		v, err := flags.GetString("targets")
		if err != nil {
			return err
		}
		cfg.TargetsFile = v
	}
	if flags.Changed("database") {
		v, err := flags.GetString("database")
		if err != nil {
			return err
		}
		cfg.DatabasePath = v
	}
	if flags.Changed("follow-redirects") {
		v, err := flags.GetBool("follow-redirects")
		if err != nil {
			return err
		}
		cfg.FollowRedirects = v
	}
	if flags.Changed("timeout") {
		v, err := flags.GetDuration("timeout")
		if err != nil {
			return err
		}
		cfg.Timeout = v
	}
	if flags.Changed("concurrency") {
		v, err := flags.GetInt("concurrency")
		if err != nil {
			return err
		}
		cfg.Concurrency = v
	}
	if flags.Changed("user-agent") {
		v, err := flags.GetString("user-agent")
		if err != nil {
			return err
		}
		cfg.UserAgent = v
	}
	if flags.Changed("embedded-tor") {
		v, err := flags.GetBool("embedded-tor")
		if err != nil {
			return err
		}
		cfg.UseEmbeddedTor = v
	}
	if flags.Changed("tor-timeout") {
		v, err := flags.GetDuration("tor-timeout")
		if err != nil {
			return err
		}
		cfg.TorStartupTimeout = v
	}
	if flags.Changed("json-log") {
		v, err := flags.GetBool("json-log")
		if err != nil {
			return err
		}
		cfg.JSONLog = v
	}

	return nil
}

// setupLogger creates the redacting structured logger on stderr.
func setupLogger(cfg *config.Config) *slog.Logger {
	if cfg.JSONLog {
		return log.NewSecureJSONLogger(os.Stderr, cfg.Verbose)
	}
	return log.NewSecureLogger(os.Stderr, cfg.Verbose)
}

// runWatch wires the store, the proxy, and the monitor together and runs
// the loop until the context is cancelled.
func runWatch(ctx context.Context, cfg *config.Config, logger *slog.Logger, once bool) error {
	// Open (or create) the store first; without it there is nothing to record
	db, err := database.Open(cfg.DatabasePath, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	logger.Info("database opened", "path", db.Path())

	client, cleanup, err := connectTor(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	fetcher := fetch.New(
		client.NewHTTPClient(cfg.FollowRedirects),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
	)

	mon := monitor.New(
		target.NewFileSource(cfg.TargetsFile),
		fetcher,
		db,
		monitor.WithInterval(cfg.Interval),
		monitor.WithConcurrency(cfg.Concurrency),
		monitor.WithLogger(logger),
	)

	if once {
		if _, err := mon.RunCycle(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}

	// Cancellation is the only way out of the loop; an interrupt is a
	// clean shutdown, not a failure.
	if err := mon.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// connectTor returns a Tor client for the configured transport and a
// cleanup function. With --embedded-tor a daemon is bootstrapped
// in-process; otherwise the external proxy from config is used.
func connectTor(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*tor.Client, func(), error) {
	if cfg.UseEmbeddedTor {
		return startEmbeddedTor(ctx, cfg, logger)
	}

	client, err := tor.NewClient(cfg.ProxyAddress(), cfg.Timeout)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Tor client: %w", err)
	}

	// The preflight is advisory. A proxy that is down right now may be up
	// by the next cycle, and failed checks are exactly what the ledger
	// records.
	if status := client.CheckConnection(ctx); status != tor.ProxyStatusOK {
		logger.Warn("tor proxy preflight failed, continuing anyway",
			"address", cfg.ProxyAddress(),
			"status", status.String(),
		)
	} else {
		logger.Info("tor proxy connection verified", "address", cfg.ProxyAddress())
	}

	return client, func() {}, nil
}

// startEmbeddedTor starts an embedded Tor daemon using tornago.
// Returns the Tor client and a cleanup function that stops the daemon.
func startEmbeddedTor(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*tor.Client, func(), error) {
	fmt.Println("Starting embedded Tor daemon...")
	fmt.Printf("This may take 1-3 minutes while Tor bootstraps and connects to the network.\n\n")

	embedded := tor.NewEmbeddedTor(
		tor.WithStartupTimeout(cfg.TorStartupTimeout),
	)

	if err := embedded.Start(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to start embedded Tor: %w", err)
	}

	logger.Info("embedded Tor daemon started", "socksAddr", embedded.SocksAddr())

	client, err := embedded.NewClient(cfg.Timeout)
	if err != nil {
		_ = embedded.Stop() //nolint:errcheck // Best effort cleanup
		return nil, nil, fmt.Errorf("failed to create Tor client: %w", err)
	}

	// Unlike the external proxy, a dead embedded daemon is our own bug
	// and there is no next cycle that could fix it.
	if status := client.CheckConnection(ctx); status != tor.ProxyStatusOK {
		_ = embedded.Stop() //nolint:errcheck // Best effort cleanup
		return nil, nil, fmt.Errorf("embedded Tor proxy check failed: %s", status)
	}

	cleanup := func() {
		logger.Info("stopping embedded Tor daemon...")
		if err := embedded.Stop(); err != nil {
			logger.Error("failed to stop embedded Tor", "error", err)
		}
	}
	return client, cleanup, nil
}
