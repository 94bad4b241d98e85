package dataset

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	xtiff "golang.org/x/image/tiff"

	"github.com/YuminosukeSato/patchscope/pkg/errors"
)

func grayImage(w, h int, fill uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = fill
	}
	return img
}

func TestNewStack(t *testing.T) {
	tests := []struct {
		name       string
		images     []*image.Gray
		masks      []*image.Gray
		numClasses int
		wantErr    bool
		errType    interface{}
	}{
		{
			name:       "valid pair",
			images:     []*image.Gray{grayImage(28, 28, 120), grayImage(28, 28, 90)},
			masks:      []*image.Gray{grayImage(28, 28, 0), grayImage(28, 28, 6)},
			numClasses: 7,
			wantErr:    false,
		},
		{
			name:       "length mismatch",
			images:     []*image.Gray{grayImage(28, 28, 120), grayImage(28, 28, 90)},
			masks:      []*image.Gray{grayImage(28, 28, 0)},
			numClasses: 7,
			wantErr:    true,
			errType:    &errors.StackMismatchError{},
		},
		{
			name:       "bounds mismatch",
			images:     []*image.Gray{grayImage(28, 28, 120)},
			masks:      []*image.Gray{grayImage(28, 14, 0)},
			numClasses: 7,
			wantErr:    true,
			errType:    &errors.StackMismatchError{},
		},
		{
			name:       "label outside set",
			images:     []*image.Gray{grayImage(28, 28, 120)},
			masks:      []*image.Gray{grayImage(28, 28, 7)},
			numClasses: 7,
			wantErr:    true,
			errType:    &errors.LabelSetError{},
		},
		{
			name:       "empty stacks",
			images:     nil,
			masks:      nil,
			numClasses: 7,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stack, err := NewStack(tt.images, tt.masks, tt.numClasses)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewStack() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				switch tt.errType.(type) {
				case *errors.StackMismatchError:
					var target *errors.StackMismatchError
					if !errors.As(err, &target) {
						t.Errorf("error = %v, want StackMismatchError", err)
					}
				case *errors.LabelSetError:
					var target *errors.LabelSetError
					if !errors.As(err, &target) {
						t.Errorf("error = %v, want LabelSetError", err)
					}
				}
				return
			}
			if stack.Len() != len(tt.images) {
				t.Errorf("Len() = %d, want %d", stack.Len(), len(tt.images))
			}
		})
	}
}

func TestLabelSet(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 4, 4))
	mask.SetGray(0, 0, color.Gray{Y: 3})
	mask.SetGray(1, 2, color.Gray{Y: 5})
	// remaining pixels stay 0

	set := LabelSet(mask)
	for _, v := range []uint8{0, 3, 5} {
		if _, ok := set[v]; !ok {
			t.Errorf("label %d missing from set %v", v, set)
		}
	}
	if len(set) != 3 {
		t.Errorf("len(set) = %d, want 3", len(set))
	}

	super := map[uint8]struct{}{0: {}, 3: {}, 5: {}, 6: {}}
	if !IsSubset(set, super) {
		t.Error("set should be a subset of super")
	}
	if IsSubset(super, set) {
		t.Error("super should not be a subset of set")
	}
}

func TestLoadPairSinglePage(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "images.tif")
	maskPath := filepath.Join(dir, "masks.tif")

	writeTIFF(t, imgPath, grayImage(32, 32, 150))
	writeTIFF(t, maskPath, grayImage(32, 32, 2))

	stack, err := LoadPair(imgPath, maskPath, 7)
	if err != nil {
		t.Fatalf("LoadPair() error = %v", err)
	}
	if stack.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", stack.Len())
	}
	if got := stack.Bounds().Dx(); got != 32 {
		t.Errorf("Bounds().Dx() = %d, want 32", got)
	}
	if v := stack.Masks[0].GrayAt(5, 5).Y; v != 2 {
		t.Errorf("mask value = %d, want 2", v)
	}
}

func TestLoadPairMissingFile(t *testing.T) {
	_, err := LoadPair("no-such-images.tif", "no-such-masks.tif", 7)
	if err == nil {
		t.Fatal("expected error for missing files")
	}
}

func writeTIFF(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating %s: %v", path, err)
	}
	defer f.Close()
	if err := xtiff.Encode(f, img, nil); err != nil {
		t.Fatalf("encoding %s: %v", path, err)
	}
}
