// Package render draws an assembled Dst series as a PNG time-series chart.
// Missing-observation hours split the line into separate segments so gaps
// show as breaks instead of interpolated slopes.
package render

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/jonathan/dstplot/internal/dst"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Options configures chart output.
type Options struct {
	Width  int
	Height int
	Title  string
}

// DefaultOptions returns the default chart geometry.
func DefaultOptions() *Options {
	return &Options{
		Width:  1280,
		Height: 720,
		Title:  "Dst (Disturbance Storm Time) Index",
	}
}

var lineColor = drawing.Color{R: 54, G: 100, B: 169, A: 255}

// PNG renders the series to w. The X axis spans the requested range even
// when leading or trailing hours are gaps.
func PNG(w io.Writer, series dst.Series, opts *Options) error {
	if opts == nil {
		opts = DefaultOptions()
	}

	segments := series.Segments()
	if len(segments) == 0 {
		return fmt.Errorf("series for %s has no plottable samples", series.Range)
	}

	var chartSeries []chart.Series
	for _, seg := range segments {
		xs := make([]time.Time, 0, len(seg)+1)
		ys := make([]float64, 0, len(seg)+1)
		for _, s := range seg {
			xs = append(xs, s.Time)
			ys = append(ys, float64(s.Value))
		}
		// A lone sample between gaps still needs two points to draw.
		if len(xs) == 1 {
			xs = append(xs, xs[0])
			ys = append(ys, ys[0])
		}
		chartSeries = append(chartSeries, chart.TimeSeries{
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: lineColor,
				StrokeWidth: 1.5,
			},
		})
	}

	graph := chart.Chart{
		Title:  opts.Title,
		Width:  opts.Width,
		Height: opts.Height,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeDateValueFormatter,
			Range: &chart.ContinuousRange{
				Min: float64(series.Range.FirstHour().UnixNano()),
				Max: float64(series.Range.LastHour().UnixNano()),
			},
		},
		YAxis: chart.YAxis{
			Name: "Dst [nT]",
		},
		Series: chartSeries,
	}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// WriteFile renders the series to a PNG file at path.
func WriteFile(path string, series dst.Series, opts *Options) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", path, err)
	}
	defer f.Close()

	if err := PNG(f, series, opts); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write output file %s: %w", path, err)
	}

	slog.Debug("wrote chart", "path", path, "segments", len(series.Segments()))
	return nil
}
