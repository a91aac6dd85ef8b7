package report

import (
	"fmt"
	"image/color"
	"math"
	"path/filepath"

	"github.com/banshee-data/parking.report/internal/parking/classify"
	"github.com/banshee-data/parking.report/internal/parking/evaluation"
	"github.com/banshee-data/parking.report/internal/parking/geometry"
	"github.com/banshee-data/parking.report/internal/security"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// overlaySize is the edge length of the square overlay image.
const overlaySize = 6 * vg.Inch

var (
	groundTruthColor  = color.RGBA{R: 40, G: 110, B: 220, A: 255}
	intersectionColor = color.NRGBA{R: 120, G: 120, B: 120, A: 90}

	labelColors = map[classify.Label]color.RGBA{
		classify.TruePositive:  {R: 40, G: 170, B: 70, A: 255},
		classify.FalsePositive: {R: 230, G: 140, B: 20, A: 255},
		classify.FalseNegative: {R: 210, G: 40, B: 40, A: 255},
	}
)

// OverlayFile returns the overlay file name for one evaluation.
func OverlayFile(ev evaluation.Evaluation) string {
	return fmt.Sprintf("gt_%d_ts_%d.png", ev.GroundTruthID, ev.Timestamp)
}

type layer struct {
	name       string
	poly       geometry.Polygon
	line, fill color.Color
}

// overlayLayers lists what Overlay draws for ev, bottom to top.
func overlayLayers(ev evaluation.Evaluation) []layer {
	var out []layer
	if !ev.GroundTruthPolygon.Empty() {
		out = append(out, layer{name: "ground truth", poly: ev.GroundTruthPolygon, line: groundTruthColor})
	}
	if ev.ScannedPolygon.Empty() {
		return out
	}
	out = append(out, layer{name: "scanned", poly: ev.ScannedPolygon, line: labelColors[ev.Label]})
	if inter, _, err := geometry.Overlap(ev.GroundTruthPolygon, ev.ScannedPolygon); err == nil && !inter.Empty() {
		out = append(out, layer{name: "intersection", poly: inter, line: intersectionColor, fill: intersectionColor})
	}
	return out
}

// Overlay draws the ground-truth polygon, the scanned polygon coloured by
// label and, when they overlap, their intersection. Axes share one scale
// so that orientation differences are visible.
func Overlay(ev evaluation.Evaluation) (*plot.Plot, error) {
	layers := overlayLayers(ev)
	if len(layers) == 0 {
		return nil, fmt.Errorf("gt %d: nothing to draw", ev.GroundTruthID)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("gt %d @ %d: %s", ev.GroundTruthID, ev.Timestamp, ev.Label)
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "y (m)"
	p.Add(plotter.NewGrid())

	polys := make([]geometry.Polygon, 0, len(layers))
	for _, l := range layers {
		pp, err := plotter.NewPolygon(xys(l.poly))
		if err != nil {
			return nil, fmt.Errorf("%s polygon: %w", l.name, err)
		}
		pp.Color = l.fill
		pp.LineStyle.Color = l.line
		pp.LineStyle.Width = vg.Points(1.5)
		p.Add(pp)
		p.Legend.Add(l.name, pp)
		polys = append(polys, l.poly)
	}

	squareAxes(p, polys)
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// WriteOverlays renders one PNG per evaluation of res into
// Dir/<recording>/ and returns how many were written.
func (w *Writer) WriteOverlays(res *evaluation.Result) (int, error) {
	dir, err := w.path(security.SanitizeFilename(res.Recording))
	if err != nil {
		return 0, err
	}
	if err := w.FS.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create plot dir: %w", err)
	}

	count := 0
	for _, ev := range res.Evaluations {
		p, err := Overlay(ev)
		if err != nil {
			opsf("%s: skipping overlay: %v", res.Recording, err)
			continue
		}
		path := filepath.Join(dir, OverlayFile(ev))
		if err := w.savePlot(p, path); err != nil {
			return count, err
		}
		tracef("wrote %s", path)
		count++
	}
	diagf("%s: %d overlays", res.Recording, count)
	return count, nil
}

func (w *Writer) savePlot(p *plot.Plot, path string) error {
	wt, err := p.WriterTo(overlaySize, overlaySize, "png")
	if err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	f, err := w.FS.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := wt.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("save %s: %w", path, err)
	}
	return f.Close()
}

func xys(poly geometry.Polygon) plotter.XYs {
	pts := poly.Points()
	out := make(plotter.XYs, len(pts))
	for i, pt := range pts {
		out[i] = plotter.XY{X: pt[0], Y: pt[1]}
	}
	return out
}

// squareAxes fits both axes to the union of polys with a common span and
// a 10 % margin.
func squareAxes(p *plot.Plot, polys []geometry.Polygon) {
	b := polys[0].Bound()
	for _, poly := range polys[1:] {
		b = b.Union(poly.Bound())
	}
	c := b.Center()
	half := math.Max(b.Right()-b.Left(), b.Top()-b.Bottom())/2*1.1 + 0.5
	p.X.Min, p.X.Max = c[0]-half, c[0]+half
	p.Y.Min, p.Y.Max = c[1]-half, c[1]+half
}
