package report

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/jaaknt/turtle-backtest/types"
)

// WriteEquityCurveFile renders the equity-curve page to an HTML file.
func WriteEquityCurveFile(path string, state *types.PortfolioState) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create equity curve file: %w", err)
	}
	defer f.Close()

	return WriteEquityCurve(f, state)
}

// WriteEquityCurve renders the daily total value and cash of a run as an
// interactive line chart.
func WriteEquityCurve(w io.Writer, state *types.PortfolioState) error {
	dates := make([]string, 0, len(state.Snapshots))
	total := make([]opts.LineData, 0, len(state.Snapshots))
	cash := make([]opts.LineData, 0, len(state.Snapshots))
	for _, snap := range state.Snapshots {
		dates = append(dates, snap.Date.Format(time.DateOnly))
		total = append(total, opts.LineData{Value: snap.TotalValue().InexactFloat64()})
		cash = append(cash, opts.LineData{Value: snap.Cash.InexactFloat64()})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Portfolio Equity Curve",
			Subtitle: fmt.Sprintf("run %s", state.RunID),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	line.SetSeriesOptions(
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
	)
	line.SetXAxis(dates)
	line.AddSeries("Total Value", total)
	line.AddSeries("Cash", cash)

	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(line)

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render equity curve: %w", err)
	}
	return nil
}
