package visualize

import (
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestScatterPlot(t *testing.T) {
	embedding := mat.NewDense(6, 2, []float64{
		0, 0,
		1, 1,
		2, 0,
		10, 10,
		11, 11,
		12, 10,
	})
	ids := []int{0, 0, 0, 1, 1, 1}

	path := filepath.Join(t.TempDir(), "umap.png")
	if err := ScatterPlot(embedding, ids, "embedding by cluster", path); err != nil {
		t.Fatalf("ScatterPlot() error = %v", err)
	}
	if fi, err := os.Stat(path); err != nil || fi.Size() == 0 {
		t.Errorf("expected non-empty PNG at %s", path)
	}
}

func TestScatterPlotErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.png")

	if err := ScatterPlot(mat.NewDense(3, 3, nil), []int{0, 1, 2}, "", path); err == nil {
		t.Error("expected error for non-2D embedding")
	}
	if err := ScatterPlot(mat.NewDense(3, 2, nil), []int{0}, "", path); err == nil {
		t.Error("expected error for id/row mismatch")
	}
}
