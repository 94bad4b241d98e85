package grid

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestRowIndexCellRoundTrip(t *testing.T) {
	l, err := NewLayout(3, 5)
	if err != nil {
		t.Fatalf("NewLayout() error = %v", err)
	}

	// Every cell maps to a unique row and back to the same cell.
	seen := make(map[int]bool)
	for b := 0; b < l.Batch; b++ {
		for i := 0; i < l.Side; i++ {
			for j := 0; j < l.Side; j++ {
				row := l.RowIndex(b, i, j)
				if row < 0 || row >= l.Rows() {
					t.Fatalf("row %d out of range [0,%d)", row, l.Rows())
				}
				if seen[row] {
					t.Fatalf("row %d assigned twice", row)
				}
				seen[row] = true

				gb, gi, gj := l.Cell(row)
				if gb != b || gi != i || gj != j {
					t.Fatalf("Cell(%d) = (%d,%d,%d), want (%d,%d,%d)", row, gb, gi, gj, b, i, j)
				}
			}
		}
	}
	if len(seen) != l.Rows() {
		t.Errorf("covered %d rows, want %d", len(seen), l.Rows())
	}
}

func TestRowOrderingIsBatchMajorThenRowMajor(t *testing.T) {
	l := Layout{Batch: 2, Side: 3}

	// Consecutive j within a row are consecutive rows; rows within an image
	// advance by Side; images advance by Side*Side.
	if l.RowIndex(0, 0, 1)-l.RowIndex(0, 0, 0) != 1 {
		t.Error("adjacent columns must be adjacent rows")
	}
	if l.RowIndex(0, 1, 0)-l.RowIndex(0, 0, 0) != 3 {
		t.Error("adjacent grid rows must differ by Side")
	}
	if l.RowIndex(1, 0, 0)-l.RowIndex(0, 0, 0) != 9 {
		t.Error("adjacent images must differ by Side*Side")
	}
}

func TestFoldLabels(t *testing.T) {
	l := Layout{Batch: 2, Side: 2}
	ids := []int{0, 1, 2, 3, 4, 5, 6, 7}

	grids, err := FoldLabels(ids, l)
	if err != nil {
		t.Fatalf("FoldLabels() error = %v", err)
	}

	want := [][][]int{
		{{0, 1}, {2, 3}},
		{{4, 5}, {6, 7}},
	}
	for b := range want {
		for i := range want[b] {
			for j := range want[b][i] {
				if grids[b][i][j] != want[b][i][j] {
					t.Errorf("grids[%d][%d][%d] = %d, want %d", b, i, j, grids[b][i][j], want[b][i][j])
				}
			}
		}
	}

	if _, err := FoldLabels(ids[:5], l); err == nil {
		t.Error("expected error for wrong row count")
	}
}

// The concrete scenario from the pipeline defaults: 12 images, 30x30 grid,
// feature width 384.
func TestConcreteBatchScenario(t *testing.T) {
	l, err := NewLayout(12, 30)
	if err != nil {
		t.Fatalf("NewLayout() error = %v", err)
	}

	if l.Rows() != 10800 {
		t.Fatalf("Rows() = %d, want 10800", l.Rows())
	}

	X := mat.NewDense(10800, 384, nil)
	if err := l.CheckRows(X); err != nil {
		t.Errorf("CheckRows() error = %v", err)
	}

	// One image's rows fold back to a 30x30 grid.
	lo, hi := l.ImageRows(4)
	if hi-lo != 900 {
		t.Errorf("image row span = %d, want 900", hi-lo)
	}

	ids := make([]int, l.Rows())
	for r := range ids {
		ids[r] = r
	}
	grids, err := FoldLabels(ids, l)
	if err != nil {
		t.Fatalf("FoldLabels() error = %v", err)
	}
	if len(grids) != 12 || len(grids[0]) != 30 || len(grids[0][0]) != 30 {
		t.Fatalf("folded shape = (%d,%d,%d), want (12,30,30)", len(grids), len(grids[0]), len(grids[0][0]))
	}

	// Spot-check the correspondence on a few cells.
	for _, cell := range [][3]int{{0, 0, 0}, {3, 12, 7}, {11, 29, 29}} {
		b, i, j := cell[0], cell[1], cell[2]
		if grids[b][i][j] != l.RowIndex(b, i, j) {
			t.Errorf("cell (%d,%d,%d) folded to row %d, want %d", b, i, j, grids[b][i][j], l.RowIndex(b, i, j))
		}
	}
}

func TestNewLayoutValidation(t *testing.T) {
	if _, err := NewLayout(0, 30); err == nil {
		t.Error("expected error for batch 0")
	}
	if _, err := NewLayout(12, -1); err == nil {
		t.Error("expected error for negative side")
	}
}
