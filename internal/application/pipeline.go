package application

import (
	"context"
	"fmt"
	"io"
	"rickmorty-etl/internal/components/assert"
	"rickmorty-etl/internal/components/telemetry"
	"rickmorty-etl/internal/scrapers/rickmorty"
	"rickmorty-etl/internal/sinks"
	"rickmorty-etl/internal/transform"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	report_pipeline_load   = "pipeline.load"
	report_pipeline_report = "pipeline.report"
	report_pipeline_write  = "pipeline.write"
	report_pipeline_chart  = "pipeline.chart"
)

const JoinedTableName = "characters_episodes_locations"

const nullChartLabel = "(unknown)"

// Summary describes what a pipeline run produced.
type Summary struct {
	Characters int
	Episodes   int
	Locations  int
	// rows after exploding characters by episode
	CharacterRows int
	JoinedRows    int
	Tables        []string
	Duration      time.Duration
}

// Pipeline fetches the dataset, transforms it and writes every table to its sinks.
type Pipeline struct {
	loader rickmorty.Loader
	writer sinks.TableWriter
	// nil disables charts
	charts *sinks.TerminalCharts
	tel    telemetry.API
}

func NewPipeline(fetcher rickmorty.PageFetcher, writer sinks.TableWriter, charts *sinks.TerminalCharts, tel telemetry.API) Pipeline {
	assert.NotNil(writer)
	assert.NotNil(tel)

	tel = telemetry.NewScopedAPI("pipeline", tel)
	return Pipeline{
		loader: rickmorty.NewLoader(fetcher, tel),
		writer: writer,
		charts: charts,
		tel:    tel,
	}
}

func (p Pipeline) Run(ctx context.Context) (Summary, error) {
	ctx, span := otel.Tracer("rickmorty-etl/internal/application").Start(ctx, "pipeline.run")
	defer span.End()

	start := time.Now()
	summary, err := p.run(ctx)
	summary.Duration = time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "pipeline run")
		return summary, err
	}
	span.SetAttributes(
		attribute.Int("characters", summary.Characters),
		attribute.Int("joined_rows", summary.JoinedRows),
	)
	return summary, nil
}

func (p Pipeline) run(ctx context.Context) (Summary, error) {
	var summary Summary

	dataset, err := p.loader.LoadAll(ctx)
	if err != nil {
		p.tel.ReportBroken(report_pipeline_load, err)
		return summary, fmt.Errorf("load dataset: %w", err)
	}
	summary.Characters = len(dataset.Characters)
	summary.Episodes = len(dataset.Episodes)
	summary.Locations = len(dataset.Locations)

	report, err := transform.BuildReport(dataset)
	if err != nil {
		p.tel.ReportBroken(report_pipeline_report, err)
		return summary, fmt.Errorf("build report: %w", err)
	}
	summary.CharacterRows = len(report.Characters)
	summary.JoinedRows = len(report.Joined)

	for _, table := range Tables(report) {
		err = p.writer.WriteTable(ctx, table)
		if err != nil {
			p.tel.ReportBroken(report_pipeline_write, err, table.Name)
			return summary, fmt.Errorf("write %s: %w", table.Name, err)
		}
		summary.Tables = append(summary.Tables, table.Name)
		p.tel.ReportCount(report_pipeline_write+"."+table.Name, int64(len(table.Rows)))
	}

	if p.charts == nil {
		return summary, nil
	}
	for _, chart := range Charts(report) {
		err = p.charts.Render(chart)
		if err != nil {
			p.tel.ReportWarning(report_pipeline_chart, err, chart.Title)
		}
	}
	return summary, nil
}

// Tables returns the joined table followed by one table per aggregate view.
func Tables(report transform.Report) []sinks.Table {
	joined := sinks.Table{
		Name:   JoinedTableName,
		Header: transform.JoinedColumns,
		Rows:   make([][]string, len(report.Joined)),
	}
	for i, row := range report.Joined {
		joined.Rows[i] = row.Record()
	}

	tables := []sinks.Table{joined}
	for _, view := range report.Views() {
		tables = append(tables, sinks.Table{
			Name:   view.Name,
			Header: view.Header(),
			Rows:   view.Records(),
		})
	}
	return tables
}

// Charts returns one bar chart per aggregate view.
func Charts(report transform.Report) []sinks.Chart {
	var charts []sinks.Chart
	for _, view := range report.Views() {
		chart := sinks.Chart{
			Title:  view.Title,
			XLabel: view.KeyColumn,
			YLabel: view.CountColumn,
			Labels: make([]string, len(view.Counts)),
			Values: make([]int, len(view.Counts)),
		}
		for i, c := range view.Counts {
			chart.Labels[i] = c.Group.String()
			if c.Group.Null {
				chart.Labels[i] = nullChartLabel
			}
			chart.Values[i] = c.Count
		}
		charts = append(charts, chart)
	}
	return charts
}

// Open builds the client and sinks described by `cfg`. The returned close function
// flushes the sinks, it must be called even when the run fails.
func Open(cfg Config, chartOut io.Writer, tel telemetry.API) (Pipeline, func() error, error) {
	var dump telemetry.MessageOutput
	if cfg.Output.DumpHttp != "" {
		output, err := telemetry.NewFilesystemOutput(cfg.Output.DumpHttp)
		if err != nil {
			return Pipeline{}, nil, fmt.Errorf("http dump directory: %w", err)
		}
		dump = output
	}

	client, err := rickmorty.NewClient(cfg.Api.ClientOptions(dump), tel)
	if err != nil {
		return Pipeline{}, nil, err
	}

	writer, err := OpenWriters(cfg.Output)
	if err != nil {
		return Pipeline{}, nil, err
	}

	var charts *sinks.TerminalCharts
	if !cfg.Output.DisableCharts && chartOut != nil {
		c := sinks.NewTerminalCharts(chartOut, cfg.Output.ColorCharts)
		charts = &c
	}

	return NewPipeline(client, writer, charts, tel), writer.Close, nil
}

// OpenWriters always writes csv files, the workbook and sqlite sinks are added
// when their paths are set.
func OpenWriters(cfg OutputConfig) (sinks.MultiWriter, error) {
	csvWriter, err := sinks.NewCSVWriter(cfg.Dir)
	if err != nil {
		return nil, err
	}
	writers := sinks.MultiWriter{csvWriter}

	if cfg.Workbook != "" {
		writers = append(writers, sinks.NewWorkbookWriter(cfg.Workbook))
	}
	if cfg.Sqlite != "" {
		db, err := sinks.OpenSQLite(cfg.Sqlite)
		if err != nil {
			return nil, err
		}
		writers = append(writers, sinks.NewSQLiteWriter(db))
	}
	return writers, nil
}
