package sinks

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const defaultBarWidth = 40

// Chart is a single bar chart, Labels and Values are parallel.
type Chart struct {
	Title  string
	XLabel string
	YLabel string
	Labels []string
	Values []int
}

// NewTable returns the table writer every terminal view is drawn with.
func NewTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	return t
}

// TerminalCharts draws bar charts as go-pretty tables.
type TerminalCharts struct {
	out      io.Writer
	barWidth int
	colored  bool
}

func NewTerminalCharts(out io.Writer, colored bool) TerminalCharts {
	return TerminalCharts{
		out:      out,
		barWidth: defaultBarWidth,
		colored:  colored,
	}
}

var barPalette = []text.Colors{
	{text.FgHiRed},
	{text.FgHiGreen},
	{text.FgHiBlue},
	{text.FgHiYellow},
	{text.FgHiMagenta},
	{text.FgHiCyan},
}

func (c TerminalCharts) bar(value, peak, index int) string {
	length := 0
	if peak > 0 {
		length = value * c.barWidth / peak
	}
	if value > 0 && length == 0 {
		length = 1
	}
	bar := strings.Repeat("█", length)
	if c.colored {
		return barPalette[index%len(barPalette)].Sprint(bar)
	}
	return bar
}

func (c TerminalCharts) Render(chart Chart) error {
	if len(chart.Labels) != len(chart.Values) {
		return fmt.Errorf("chart %s: %d labels for %d values", chart.Title, len(chart.Labels), len(chart.Values))
	}

	peak := 0
	for _, v := range chart.Values {
		if v > peak {
			peak = v
		}
	}

	t := NewTable(c.out)
	t.SetTitle(chart.Title)
	t.AppendHeader(table.Row{chart.XLabel, chart.YLabel, ""})
	for i, label := range chart.Labels {
		t.AppendRow(table.Row{label, strconv.Itoa(chart.Values[i]), c.bar(chart.Values[i], peak, i)})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
	})
	t.Render()
	fmt.Fprintln(c.out)
	return nil
}
