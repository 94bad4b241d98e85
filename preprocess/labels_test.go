package preprocess

import (
	"image"
	"image/color"
	"testing"

	"github.com/YuminosukeSato/patchscope/dataset"
)

func TestDownsampleLabelsPicksExistingValues(t *testing.T) {
	mask := randomMask(t, 420, 420, []uint8{0, 1, 2, 3, 4, 5, 6}, 5)

	cells, err := DownsampleLabels(mask, 30)
	if err != nil {
		t.Fatalf("DownsampleLabels() error = %v", err)
	}
	if len(cells) != 900 {
		t.Fatalf("len = %d, want 900", len(cells))
	}

	src := dataset.LabelSet(mask)
	for i, v := range cells {
		if _, ok := src[v]; !ok {
			t.Fatalf("cell %d has label %d absent from the source mask", i, v)
		}
	}
}

func TestDownsampleLabelsCellCenters(t *testing.T) {
	// Two vertical halves: left=1, right=4. Every cell center lands
	// strictly inside one half, so the grid must be half 1s, half 4s.
	mask := image.NewGray(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			v := uint8(1)
			if x >= 4 {
				v = 4
			}
			mask.SetGray(x, y, color.Gray{Y: v})
		}
	}

	cells, err := DownsampleLabels(mask, 4)
	if err != nil {
		t.Fatalf("DownsampleLabels() error = %v", err)
	}
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			want := uint8(1)
			if j >= 2 {
				want = 4
			}
			if got := cells[i*4+j]; got != want {
				t.Errorf("cell (%d,%d) = %d, want %d", i, j, got, want)
			}
		}
	}
}

func TestDownsampleBatchOrdering(t *testing.T) {
	// Each mask is a constant fill; the concatenated output must keep
	// batch-major order.
	masks := []*image.Gray{}
	for _, v := range []uint8{2, 5, 0} {
		m := image.NewGray(image.Rect(0, 0, 16, 16))
		for i := range m.Pix {
			m.Pix[i] = v
		}
		masks = append(masks, m)
	}

	cells, err := DownsampleBatch(masks, 4)
	if err != nil {
		t.Fatalf("DownsampleBatch() error = %v", err)
	}
	if len(cells) != 3*16 {
		t.Fatalf("len = %d, want 48", len(cells))
	}
	for b, want := range []uint8{2, 5, 0} {
		for i := 0; i < 16; i++ {
			if cells[b*16+i] != want {
				t.Fatalf("batch %d cell %d = %d, want %d", b, i, cells[b*16+i], want)
			}
		}
	}
}

func TestDownsampleLabelsErrors(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 8, 8))
	if _, err := DownsampleLabels(mask, 0); err == nil {
		t.Error("expected error for grid 0")
	}
	if _, err := DownsampleLabels(mask, 16); err == nil {
		t.Error("expected error for grid larger than mask")
	}
}
