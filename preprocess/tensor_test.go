package preprocess

import (
	"image"
	"image/color"
	"testing"
)

func TestToCHWLayout(t *testing.T) {
	size := 4
	img := image.NewGray(image.Rect(0, 0, size, size))
	img.SetGray(0, 0, color.Gray{Y: 255})
	img.SetGray(3, 0, color.Gray{Y: 51})
	img.SetGray(1, 2, color.Gray{Y: 102})

	second := image.NewGray(image.Rect(0, 0, size, size))
	second.SetGray(2, 3, color.Gray{Y: 255})

	tensor, err := ToCHW([]*image.Gray{img, second}, size)
	if err != nil {
		t.Fatalf("ToCHW() error = %v", err)
	}

	wantLen := 2 * 3 * size * size
	if len(tensor) != wantLen {
		t.Fatalf("len = %d, want %d", len(tensor), wantLen)
	}

	// (b, c, y, x) -> b*3*S*S + c*S*S + y*S + x
	at := func(b, c, y, x int) float32 {
		return tensor[b*3*size*size+c*size*size+y*size+x]
	}

	if at(0, 0, 0, 0) != 1.0 {
		t.Errorf("at(0,0,0,0) = %v, want 1.0", at(0, 0, 0, 0))
	}
	if got := at(0, 0, 0, 3); got != 51.0/255.0 {
		t.Errorf("at(0,0,0,3) = %v, want %v", got, 51.0/255.0)
	}
	if got := at(0, 0, 2, 1); got != 102.0/255.0 {
		t.Errorf("at(0,0,2,1) = %v, want %v", got, 102.0/255.0)
	}

	// Gray channel replicated across the three input channels.
	for c := 1; c < 3; c++ {
		if at(0, c, 0, 0) != at(0, 0, 0, 0) {
			t.Errorf("channel %d not replicated at (0,0)", c)
		}
	}

	// Second image occupies the second block.
	if at(1, 0, 3, 2) != 1.0 {
		t.Errorf("at(1,0,3,2) = %v, want 1.0", at(1, 0, 3, 2))
	}
	if at(1, 0, 0, 0) != 0.0 {
		t.Errorf("at(1,0,0,0) = %v, want 0.0", at(1, 0, 0, 0))
	}
}

func TestToCHWRejectsWrongSize(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	if _, err := ToCHW([]*image.Gray{img}, 16); err == nil {
		t.Error("expected error for mismatched size")
	}
	if _, err := ToCHW(nil, 16); err == nil {
		t.Error("expected error for empty batch")
	}
}
