// Package plotting renders frontier maps for inspection: static PNG plots
// via gonum/plot and interactive HTML scatter charts via go-echarts.
package plotting

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/SeekSense-AI/seeksense-core/internal/explore/l1grid"
	"github.com/SeekSense-AI/seeksense-core/internal/explore/l4rank"
)

// Display intensities for the occupancy layer.
const (
	unknownShade  = 0.2
	freeShade     = 0.8
	occupiedShade = 0.0
)

// Marker is a labelled point drawn over a map, in (row, col) cell units.
type Marker struct {
	Label    string
	Row, Col float64
}

// RankMarkers returns markers for the top k ranked clusters, labelled
// "<prefix>#<rank>:<score>".
func RankMarkers(prefix string, ranked []l4rank.RankedFrontier, k int) []Marker {
	top := l4rank.Top(ranked, k)
	out := make([]Marker, len(top))
	for i, rf := range top {
		out[i] = Marker{
			Label: fmt.Sprintf("%s#%d:%.2f", prefix, i+1, rf.Score),
			Row:   rf.Cluster.CentroidRC[0],
			Col:   rf.Cluster.CentroidRC[1],
		}
	}
	return out
}

// OccupancyLayer maps grid states to display intensities: unknown 0.2,
// free 0.8, occupied 0.
func OccupancyLayer(g *l1grid.GridMap) *mat.Dense {
	h, w := g.Shape()
	m := mat.NewDense(h, w, nil)
	for r := 0; r < h; r++ {
		for c := 0; c < w; c++ {
			switch g.At(r, c) {
			case l1grid.Free:
				m.Set(r, c, freeShade)
			case l1grid.Occupied:
				m.Set(r, c, occupiedShade)
			default:
				m.Set(r, c, unknownShade)
			}
		}
	}
	return m
}

// layerGrid adapts a matrix to plotter.GridXYZ with columns on X and rows
// on Y.
type layerGrid struct {
	m mat.Matrix
}

func (g layerGrid) Dims() (c, r int) {
	r, c = g.m.Dims()
	return c, r
}
func (g layerGrid) Z(c, r int) float64 { return g.m.At(r, c) }
func (g layerGrid) X(c int) float64    { return float64(c) }
func (g layerGrid) Y(r int) float64    { return float64(r) }

// SaveFrontierPlot draws layer as a heat map in [0,1], overlays the
// frontier cells and labelled markers, and saves the plot to path. The
// image format follows the file extension.
func SaveFrontierPlot(path, title string, layer mat.Matrix, frontier []l1grid.Cell, markers []Marker) error {
	if layer == nil {
		return fmt.Errorf("%w: nil layer", l1grid.ErrInvalidArgument)
	}
	if r, c := layer.Dims(); r == 0 || c == 0 {
		return fmt.Errorf("%w: empty layer", l1grid.ErrShape)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Column"
	p.Y.Label.Text = "Row"

	hm := plotter.NewHeatMap(layerGrid{m: layer}, palette.Heat(12, 1))
	// Values live in [0,1]; fixed bounds also keep constant layers drawable.
	hm.Min, hm.Max = 0, 1
	p.Add(hm)

	if len(frontier) > 0 {
		pts := make(plotter.XYs, len(frontier))
		for i, c := range frontier {
			pts[i] = plotter.XY{X: float64(c.Col), Y: float64(c.Row)}
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return fmt.Errorf("failed to create frontier scatter: %w", err)
		}
		sc.GlyphStyle.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
		sc.GlyphStyle.Radius = vg.Points(1)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(sc)
	}

	if len(markers) > 0 {
		pts := make(plotter.XYs, len(markers))
		labels := make([]string, len(markers))
		for i, m := range markers {
			pts[i] = plotter.XY{X: m.Col, Y: m.Row}
			labels[i] = m.Label
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return fmt.Errorf("failed to create marker scatter: %w", err)
		}
		sc.GlyphStyle.Color = color.Black
		sc.GlyphStyle.Radius = vg.Points(5)
		sc.GlyphStyle.Shape = draw.CrossGlyph{}
		p.Add(sc)

		lbl, err := plotter.NewLabels(plotter.XYLabels{XYs: pts, Labels: labels})
		if err != nil {
			return fmt.Errorf("failed to create marker labels: %w", err)
		}
		lbl.Offset = vg.Point{X: vg.Points(4), Y: vg.Points(4)}
		p.Add(lbl)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plot %s: %w", path, err)
	}
	return nil
}
