package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"rickmorty-etl/internal/application"
	"rickmorty-etl/internal/components/telemetry"
	"rickmorty-etl/lib/serviceutil"
	"sync"
	"time"

	"github.com/spf13/cobra"
)

const serviceName = "rickmorty-etl"

var (
	configPath string
	envPath    string
	verbose    bool
	dumpHttp   string
)

var rootCmd = &cobra.Command{
	Use:   "rickmorty-etl",
	Short: "rickmorty-etl downloads the rick and morty api and writes joined tables and statistics.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json5", "The json5 config file, a <name>.local.json5 next to it is merged on top.")
	rootCmd.PersistentFlags().StringVar(&envPath, "env", ".env", "The dotenv file API_URL is read from.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug messages.")
	rootCmd.PersistentFlags().StringVar(&dumpHttp, "dump-http", "", "Write every http exchange into this directory.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig applies the persistent flags on top of the config files.
func loadConfig() (application.Config, error) {
	cfg, err := application.LoadConfig(configPath, envPath)
	if err != nil {
		return cfg, err
	}
	if dumpHttp != "" {
		cfg.Output.DumpHttp = dumpHttp
	}
	return cfg, nil
}

// setupTelemetry installs the configured exporters, the returned function flushes
// them and is safe to call more than once.
func setupTelemetry(ctx context.Context, cfg application.Config) func() {
	tel, err := telemetry.Setup(ctx, serviceName, cfg.Telemetry)
	if err != nil {
		slog.Warn("failed to setup telemetry exporters", "err", err)
		return func() {}
	}
	if tel.MeterProvider != nil {
		_, err = telemetry.InstrumentPerfStats(tel.MeterProvider)
		if err != nil {
			slog.Warn("failed to register perf stats", "err", err)
		}
	}
	return sync.OnceFunc(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		err := tel.Shutdown(ctx)
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			slog.Warn("failed to flush telemetry", "err", err)
		}
	})
}

// fatal flushes telemetry first since os.Exit skips deferred calls.
func fatal(shutdown func(), message string, err error) {
	shutdown()
	serviceutil.Fatal(message, err)
}
