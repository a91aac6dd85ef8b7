package report

import (
	"bytes"
	"fmt"

	"github.com/banshee-data/parking.report/internal/parking/evaluation"
	"github.com/banshee-data/parking.report/internal/parking/rates"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// ChartFile is the name of the rate chart within the output directory.
const ChartFile = "rates.html"

// overallLabel is the x-axis category for the batch totals.
const overallLabel = "all"

type chartRow struct {
	name    string
	summary rates.Summary
}

func chartRows(b *evaluation.BatchResult) []chartRow {
	rows := make([]chartRow, 0, len(b.Outcomes)+1)
	for _, o := range b.Outcomes {
		if o.Result == nil {
			continue
		}
		rows = append(rows, chartRow{name: o.Recording, summary: o.Result.Summary})
	}
	return append(rows, chartRow{name: overallLabel, summary: b.Summary})
}

// RateChart builds a page with the per-recording rates against their
// thresholds and the TP/FP/FN counts behind them.
func RateChart(b *evaluation.BatchResult) *components.Page {
	rows := chartRows(b)
	names := make([]string, len(rows))
	tpr := make([]opts.BarData, len(rows))
	fpr := make([]opts.BarData, len(rows))
	fnr := make([]opts.BarData, len(rows))
	for i, r := range rows {
		names[i] = r.name
		tpr[i] = opts.BarData{Value: round1(r.summary.TPR)}
		fpr[i] = opts.BarData{Value: round1(r.summary.FPR)}
		fnr[i] = opts.BarData{Value: round1(r.summary.FNR)}
	}
	tp, fp, fn := countColumns(rows)

	t := b.Summary.Thresholds
	verdict := "FAIL"
	if b.Summary.Passed() {
		verdict = "PASS"
	}

	rateBar := charts.NewBar()
	rateBar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Slot offer KPI", Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Slot offer rates: %s", verdict),
			Subtitle: fmt.Sprintf("run=%s TPR>%g%% FPR<%g%% FNR<%g%%", b.RunID, t.TPR, t.FPR, t.FNR),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "%", Min: 0, Max: 100}),
	)
	label := charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"})
	rateBar.SetXAxis(names).
		AddSeries("TPR", tpr, label).
		AddSeries("FPR", fpr, label).
		AddSeries("FNR", fnr, label)

	countBar := charts.NewBar()
	countBar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Classified ids",
			Subtitle: fmt.Sprintf("%d recordings, %d failed; FN includes rejected associations", len(b.Outcomes), b.Failed),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10"}),
	)
	stack := charts.WithBarChartOpts(opts.BarChart{Stack: "labels"})
	countBar.SetXAxis(names).
		AddSeries("TP", tp, stack).
		AddSeries("FP", fp, stack).
		AddSeries("FN", fn)

	page := components.NewPage()
	page.AddCharts(rateBar, countBar)
	return page
}

// countColumns returns the TP, FP and FN bars. FN is the missed total the
// rates are computed from, so it is drawn beside the TP/FP stack rather
// than on it.
func countColumns(rows []chartRow) (tp, fp, fn []opts.BarData) {
	tp = make([]opts.BarData, len(rows))
	fp = make([]opts.BarData, len(rows))
	fn = make([]opts.BarData, len(rows))
	for i, r := range rows {
		tp[i] = opts.BarData{Value: r.summary.Counts.TP}
		fp[i] = opts.BarData{Value: r.summary.Counts.FP}
		fn[i] = opts.BarData{Value: r.summary.Missed}
	}
	return tp, fp, fn
}

// WriteRateChart renders RateChart(b) to Dir/rates.html.
func (w *Writer) WriteRateChart(b *evaluation.BatchResult) (string, error) {
	var buf bytes.Buffer
	if err := RateChart(b).Render(&buf); err != nil {
		return "", fmt.Errorf("render error: %w", err)
	}
	if err := w.FS.MkdirAll(w.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report dir: %w", err)
	}
	path, err := w.path(ChartFile)
	if err != nil {
		return "", err
	}
	if err := w.FS.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	opsf("wrote %s", path)
	return path, nil
}

func round1(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}
