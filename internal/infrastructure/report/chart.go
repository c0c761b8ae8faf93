// Package report renders training run summaries as images.
package report

import (
	"bytes"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/heartcheck/heartcheck/internal/domain/model"
	"github.com/heartcheck/heartcheck/internal/domain/port"
)

const (
	width  = 6 * vg.Inch
	height = 4 * vg.Inch
)

// Renderer draws held-out metrics as a PNG bar chart.
type Renderer struct{}

var _ port.ReportRenderer = Renderer{}

// NewRenderer returns the PNG renderer.
func NewRenderer() Renderer { return Renderer{} }

// RenderMetrics implements port.ReportRenderer.
func (Renderer) RenderMetrics(m model.Metrics) ([]byte, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Held-out metrics (train %d / test %d)", m.TrainSize, m.TestSize)
	p.Y.Label.Text = "score"
	p.Y.Min = 0
	p.Y.Max = 1

	bars, err := plotter.NewBarChart(plotter.Values{m.Accuracy, m.Precision, m.Recall, m.F1Score}, vg.Points(40))
	if err != nil {
		return nil, fmt.Errorf("build bar chart: %w", err)
	}
	bars.Color = color.RGBA{R: 178, G: 34, B: 52, A: 255}
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars, plotter.NewGrid())
	p.NominalX("accuracy", "precision", "recall", "f1")

	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return nil, fmt.Errorf("create png writer: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("render png: %w", err)
	}
	return buf.Bytes(), nil
}
