package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/probecast/internal/adapters/dirsource"
	"github.com/bft-labs/probecast/internal/adapters/sqlite"
	"github.com/bft-labs/probecast/internal/adapters/ws"
	"github.com/bft-labs/probecast/internal/cliconfig"
	"github.com/bft-labs/probecast/pkg/probecast"
)

const longHelp = `Drive an imaging probe and present its state over HTTP and WebSocket.

Frames dropped into the watch directory are converted and published as the
latest image. Raw data exports and still captures are started through the
HTTP API; progress and results are pushed to WebSocket clients.

Configuration is read from a TOML file, then PROBECAST_* environment variables
(a .env file is loaded first), then flags; later sources win.`

var exampleUsage = strings.TrimSpace(`
  probecast --watch-dir ./frames --export-dir ./exports
  probecast --config $HOME/.probecast/config.toml --listen :9000
  probecast exports --limit 5
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().Timestamp().Logger()
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath, envFile string

	log := newLogger(cfg.LogLevel)

	// loadConfig resolves file, environment and flags into cfg.
	loadConfig := func(cmd *cobra.Command) error {
		cfgFile := cfgPath
		if cfgFile == "" {
			cfgFile = cliconfig.DefaultConfigPath()
		}

		changed := map[string]bool{}
		cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

		if cfgFile != "" && cliconfig.FileExists(cfgFile) {
			fc, err := cliconfig.LoadFileConfig(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
				return err
			}
		}

		if err := cliconfig.LoadEnvFile(envFile); err != nil {
			return err
		}
		if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
			return err
		}
		return nil
	}

	root := &cobra.Command{
		Use:          "probecast",
		Short:        "Drive an imaging probe and present its state over HTTP and WebSocket",
		Long:         longHelp,
		Example:      exampleUsage,
		Version:      fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			log = newLogger(cfg.LogLevel)
			log.Info().Interface("config", cfg).Msg("configuration")
			return run(cfg, log)
		},
	}

	var limit int
	exportsCmd := &cobra.Command{
		Use:   "exports",
		Short: "List completed raw data exports, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd); err != nil {
				return err
			}
			path := cfg.CatalogPath
			if path == "" {
				path = cliconfig.CatalogPathFor(cfg.ExportDir)
			}
			return listExports(cmd.Context(), path, limit)
		},
	}
	exportsCmd.Flags().IntVar(&limit, "limit", 20, "maximum number of exports to list (0 for all)")

	pf := root.PersistentFlags()
	pf.StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.probecast/config.toml)")
	pf.StringVar(&envFile, "env-file", cliconfig.DefaultEnvFile, "dotenv file loaded before reading PROBECAST_* variables")
	pf.StringVar(&cfg.ExportDir, "export-dir", cfg.ExportDir, "directory raw data exports are written to")
	pf.StringVar(&cfg.CatalogPath, "catalog", cfg.CatalogPath, "export catalog database (default: <export-dir>/exports.db)")

	root.Flags().StringVar(&cfg.WatchDir, "watch-dir", cfg.WatchDir, "directory watched for processed frames")
	root.Flags().StringVar(&cfg.RawDir, "raw-dir", cfg.RawDir, "directory holding raw data files (default: <watch-dir>/raw)")
	root.Flags().DurationVar(&cfg.Debounce, "debounce", cfg.Debounce, "delay before a new frame file is read")
	root.Flags().BoolVar(&cfg.NoCatalog, "no-catalog", cfg.NoCatalog, "do not record completed exports")
	root.Flags().StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "HTTP and WebSocket listen address")
	root.Flags().IntVar(&cfg.QueueSize, "queue-size", cfg.QueueSize, "frames that may wait for conversion")
	root.Flags().IntVar(&cfg.EventBuffer, "event-buffer", cfg.EventBuffer, "capacity of the device event channel")
	root.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	if err := root.Flags().MarkHidden("event-buffer"); err != nil {
		log.Info().Err(err).Msg("failed to hide event-buffer flag")
	}

	root.AddCommand(exportsCmd)

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("probecast")
		os.Exit(1)
	}
}

// run wires the directory device, the client and the presentation server,
// and blocks until SIGINT or SIGTERM.
func run(cfg cliconfig.Config, log zerolog.Logger) error {
	logger := probecast.NewZerologLogger(log)

	opts := []probecast.Option{probecast.WithLogger(logger)}
	if !cfg.NoCatalog {
		catalog, err := sqlite.Open(cfg.CatalogPath)
		if err != nil {
			return fmt.Errorf("open catalog: %w", err)
		}
		defer catalog.Close()
		opts = append(opts, probecast.WithCatalog(catalog))
	}

	devCfg := dirsource.DefaultConfig()
	devCfg.WatchDir = cfg.WatchDir
	devCfg.RawDir = cfg.RawDir
	devCfg.DebounceDelay = cfg.Debounce
	dev := dirsource.New(devCfg, logger)

	client, err := probecast.New(dev, probecast.Config{
		ExportDir:   cfg.ExportDir,
		QueueSize:   cfg.QueueSize,
		EventBuffer: cfg.EventBuffer,
	}, opts...)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := client.Start(ctx); err != nil {
		return fmt.Errorf("start client: %w", err)
	}
	if err := dev.Start(ctx); err != nil {
		_ = client.Stop()
		return fmt.Errorf("start device: %w", err)
	}

	serveErr := ws.NewServer(client, logger).ListenAndServe(ctx, cfg.ListenAddr)
	if serveErr != nil {
		log.Error().Err(serveErr).Msg("http server stopped")
	} else {
		log.Info().Msg("received signal, stopping...")
	}

	dev.Stop()
	if err := client.Stop(); err != nil {
		return fmt.Errorf("stop client: %w", err)
	}
	if n := client.DroppedEvents(); n > 0 {
		log.Warn().Uint64("dropped", n).Msg("device events were dropped")
	}
	return serveErr
}

func listExports(ctx context.Context, path string, limit int) error {
	if !cliconfig.FileExists(path) {
		return fmt.Errorf("no export catalog at %s", path)
	}
	catalog, err := sqlite.Open(path)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer catalog.Close()

	recs, err := catalog.List(ctx, limit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FINISHED\tSESSION\tFRAMES\tBYTES\tCOMPRESSED\tLOCATION")
	for _, r := range recs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%t\t%s\n",
			r.FinishedAt.Local().Format(time.RFC3339), r.SessionID, r.Frames, r.Bytes, r.Compressed, r.Location)
	}
	return w.Flush()
}
