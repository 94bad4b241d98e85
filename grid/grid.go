// Package grid pins down the row-ordering contract between per-patch
// tensors and the flattened feature matrix.
//
// Every stage downstream of the feature extractor assumes the same layout:
// rows are batch-major, then row-major within each image's N x N patch grid.
// Cell (b, i, j) lives at row b*N*N + i*N + j. This package makes that
// mapping an explicit, tested contract instead of an incidental consequence
// of array layout.
package grid

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/patchscope/pkg/errors"
)

// Layout describes the patch grid of one batch: Batch images, each an
// N x N grid with N = Side.
type Layout struct {
	Batch int
	Side  int
}

// NewLayout validates and returns a Layout.
func NewLayout(batch, side int) (Layout, error) {
	if batch <= 0 {
		return Layout{}, errors.NewValidationError("batch", "must be positive", batch)
	}
	if side <= 0 {
		return Layout{}, errors.NewValidationError("side", "must be positive", side)
	}
	return Layout{Batch: batch, Side: side}, nil
}

// Rows returns the number of rows in the flattened matrix: Batch * Side * Side.
func (l Layout) Rows() int {
	return l.Batch * l.Side * l.Side
}

// RowIndex maps grid cell (b, i, j) to its row in the flattened matrix.
func (l Layout) RowIndex(b, i, j int) int {
	return b*l.Side*l.Side + i*l.Side + j
}

// Cell is the inverse of RowIndex.
func (l Layout) Cell(row int) (b, i, j int) {
	perImage := l.Side * l.Side
	b = row / perImage
	rem := row % perImage
	return b, rem / l.Side, rem % l.Side
}

// CheckRows verifies that a flattened matrix agrees with the layout.
func (l Layout) CheckRows(X mat.Matrix) error {
	r, _ := X.Dims()
	if r != l.Rows() {
		return errors.NewDimensionError("grid.CheckRows", l.Rows(), r, 0)
	}
	return nil
}

// FoldLabels reshapes one integer id per row back into per-image grids,
// using the same batch-major/row-major convention as RowIndex. The result
// is indexed [b][i][j].
func FoldLabels(ids []int, l Layout) ([][][]int, error) {
	if len(ids) != l.Rows() {
		return nil, errors.NewDimensionError("grid.FoldLabels", l.Rows(), len(ids), 0)
	}
	out := make([][][]int, l.Batch)
	for b := 0; b < l.Batch; b++ {
		out[b] = make([][]int, l.Side)
		for i := 0; i < l.Side; i++ {
			out[b][i] = make([]int, l.Side)
			for j := 0; j < l.Side; j++ {
				out[b][i][j] = ids[l.RowIndex(b, i, j)]
			}
		}
	}
	return out, nil
}

// ImageRows returns the half-open row range [lo, hi) covering image b.
func (l Layout) ImageRows(b int) (lo, hi int) {
	perImage := l.Side * l.Side
	return b * perImage, (b + 1) * perImage
}
