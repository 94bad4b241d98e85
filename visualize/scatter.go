package visualize

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/patchscope/pkg/errors"
)

// ScatterPlot writes a 2D embedding to path as a PNG scatter plot, one
// colored series per id value (downsampled class or cluster assignment).
func ScatterPlot(embedding mat.Matrix, ids []int, title, path string) error {
	r, c := embedding.Dims()
	if c != 2 {
		return errors.NewDimensionError("visualize.ScatterPlot", 2, c, 1)
	}
	if len(ids) != r {
		return errors.NewDimensionError("visualize.ScatterPlot", r, len(ids), 0)
	}
	if r == 0 {
		return errors.NewValueError("visualize.ScatterPlot", "empty embedding")
	}

	// Group points by id so each series gets one color and legend entry.
	groups := make(map[int]plotter.XYs)
	order := make([]int, 0)
	for i := 0; i < r; i++ {
		id := ids[i]
		if _, ok := groups[id]; !ok {
			order = append(order, id)
		}
		groups[id] = append(groups[id], plotter.XY{X: embedding.At(i, 0), Y: embedding.At(i, 1)})
	}
	sort.Ints(order)

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "UMAP-1"
	p.Y.Label.Text = "UMAP-2"

	for _, id := range order {
		s, err := plotter.NewScatter(groups[id])
		if err != nil {
			return errors.Wrap(err, "patchscope: visualize: build scatter series")
		}
		s.GlyphStyle.Color = ClassColor(id)
		s.GlyphStyle.Radius = vg.Points(1.5)
		p.Add(s)
		p.Legend.Add(fmt.Sprintf("%d", id), s)
	}
	p.Legend.Top = true

	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return errors.Wrap(err, "patchscope: visualize: save scatter plot")
	}
	return nil
}
