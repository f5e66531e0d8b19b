package commands

import (
	"fmt"
	"os"
	"rickmorty-etl/internal/components/telemetry"
	"rickmorty-etl/internal/scrapers/rickmorty"
	"rickmorty-etl/internal/sinks"
	"rickmorty-etl/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var fetchCsv bool

func init() {
	fetchCmd.Flags().BoolVar(&fetchCsv, "csv", false, "Print csv instead of a table.")
	rootCmd.AddCommand(fetchCmd)
}

var fetchCmd = &cobra.Command{
	Use:       "fetch <character|episode|location>",
	Short:     "Fetches every page of one endpoint and prints the records as a table.",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{string(rickmorty.EndpointCharacter), string(rickmorty.EndpointEpisode), string(rickmorty.EndpointLocation)},
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}

		var dump telemetry.MessageOutput
		if cfg.Output.DumpHttp != "" {
			dump, err = telemetry.NewFilesystemOutput(cfg.Output.DumpHttp)
			if err != nil {
				serviceutil.Fatal("failed to create http dump directory", err)
			}
		}

		client, err := rickmorty.NewClient(cfg.Api.ClientOptions(dump), telemetry.SlogAPI{})
		if err != nil {
			serviceutil.Fatal("failed to create client", err)
		}
		loader := rickmorty.NewLoader(client, telemetry.SlogAPI{})

		records, err := loader.Raw(cmd.Context(), rickmorty.Endpoint(args[0]))
		if err != nil {
			serviceutil.Fatal("failed to fetch", err)
		}
		header, rows, err := rickmorty.RawTable(records)
		if err != nil {
			serviceutil.Fatal("failed to tabulate records", err)
		}

		t := sinks.NewTable(os.Stdout)
		headerRow := table.Row{}
		for _, col := range header {
			headerRow = append(headerRow, col)
		}
		t.AppendHeader(headerRow)
		for _, row := range rows {
			r := table.Row{}
			for _, cell := range row {
				r = append(r, cell)
			}
			t.AppendRow(r)
		}
		if fetchCsv {
			t.RenderCSV()
		} else {
			t.Render()
		}
		fmt.Fprintf(os.Stderr, "%d records from %s\n", len(records), args[0])
	},
}
