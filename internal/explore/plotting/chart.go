package plotting

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/SeekSense-AI/seeksense-core/internal/explore/l1grid"
	"github.com/SeekSense-AI/seeksense-core/internal/explore/l3value"
	"github.com/SeekSense-AI/seeksense-core/internal/explore/l4rank"
)

var viridis = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// RenderFrontierHTML writes an interactive scatter chart of the frontier
// cells coloured by value, with ranked cluster centroids as a second
// series. vm may be nil, in which case every cell reads as 0. Frontier
// cells outside vm fail with l1grid.ErrShape.
func RenderFrontierHTML(w io.Writer, title string, frontier []l1grid.Cell, ranked []l4rank.RankedFrontier, vm *l3value.ValueMap) error {
	if vm != nil {
		h, wd := vm.Dims()
		for _, c := range frontier {
			if c.Row < 0 || c.Row >= h || c.Col < 0 || c.Col >= wd {
				return fmt.Errorf("%w: frontier cell %v outside %dx%d value map", l1grid.ErrShape, c, h, wd)
			}
		}
	}
	value := func(r, c int) float64 {
		if vm == nil {
			return 0
		}
		return vm.Value(r, c)
	}

	cells := make([]opts.ScatterData, 0, len(frontier))
	for _, c := range frontier {
		cells = append(cells, opts.ScatterData{Value: []interface{}{c.Col, c.Row, value(c.Row, c.Col)}})
	}

	centroids := make([]opts.ScatterData, 0, len(ranked))
	for i, rf := range ranked {
		centroids = append(centroids, opts.ScatterData{
			Name:  fmt.Sprintf("#%d size=%d", i+1, rf.Cluster.Size()),
			Value: []interface{}{rf.Cluster.CentroidRC[1], rf.Cluster.CentroidRC[0], rf.Score},
		})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1000px", Height: "750px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("frontier=%d clusters=%d", len(frontier), len(ranked))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Column", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Row", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        1,
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: viridis},
		}),
	)
	scatter.AddSeries("frontier", cells, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))
	scatter.AddSeries("ranked", centroids, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 12}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteFrontierHTML renders the chart into the file at path.
func WriteFrontierHTML(path, title string, frontier []l1grid.Cell, ranked []l4rank.RankedFrontier, vm *l3value.ValueMap) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := RenderFrontierHTML(f, title, frontier, ranked, vm); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
