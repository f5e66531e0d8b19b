package commands

import (
	"log/slog"
	"os"
	"rickmorty-etl/internal/application"
	"rickmorty-etl/internal/components/telemetry"
	"rickmorty-etl/lib/serviceutil"

	"github.com/spf13/cobra"
)

var (
	runOut      string
	runWorkbook string
	runSqlite   string
	runNoCharts bool
	runColor    bool
)

func init() {
	runCmd.Flags().StringVarP(&runOut, "out", "o", "", "The directory csv files are written to.")
	runCmd.Flags().StringVar(&runWorkbook, "workbook", "", "Also write every table as a sheet of this xlsx file.")
	runCmd.Flags().StringVar(&runSqlite, "sqlite", "", "Also write every table into this sqlite database.")
	runCmd.Flags().BoolVar(&runNoCharts, "no-charts", false, "Do not draw bar charts of the statistics.")
	runCmd.Flags().BoolVar(&runColor, "color", false, "Draw chart bars in color.")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--out <dir>] [--workbook <file.xlsx>] [--sqlite <file.db>]",
	Short: "Fetches characters, episodes and locations and writes the joined table and statistics.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		if runOut != "" {
			cfg.Output.Dir = runOut
		}
		if runWorkbook != "" {
			cfg.Output.Workbook = runWorkbook
		}
		if runSqlite != "" {
			cfg.Output.Sqlite = runSqlite
		}
		if runNoCharts {
			cfg.Output.DisableCharts = true
		}
		if runColor {
			cfg.Output.ColorCharts = true
		}

		shutdown := setupTelemetry(cmd.Context(), cfg)
		defer shutdown()

		slog.Info("fetching", "api", cfg.Api.BaseUrl, "out", cfg.Output.Dir)

		pipeline, closeSinks, err := application.Open(cfg, os.Stdout, telemetry.SlogAPI{})
		if err != nil {
			fatal(shutdown, "failed to initialize pipeline", err)
		}
		summary, err := pipeline.Run(cmd.Context())
		closeErr := closeSinks()
		if err != nil {
			fatal(shutdown, "pipeline failed", err)
		}
		if closeErr != nil {
			fatal(shutdown, "failed to flush outputs", closeErr)
		}

		slog.Info(
			"done",
			"characters", summary.Characters,
			"episodes", summary.Episodes,
			"locations", summary.Locations,
			"character_rows", summary.CharacterRows,
			"joined_rows", summary.JoinedRows,
			"tables", len(summary.Tables),
			"seconds", summary.Duration.Seconds(),
		)
	},
}
