package preprocess

import (
	"image"

	"github.com/YuminosukeSato/patchscope/pkg/errors"
)

// DownsampleLabels reduces a full-resolution mask to one label per patch
// cell by picking the pixel at each cell center. This is an exact
// nearest-selection reduction: no averaging, so the result can never
// contain a label absent from the pixels the cell covers.
//
// The returned slice has grid*grid entries in row-major order, matching the
// patch ordering of the feature extractor.
func DownsampleLabels(mask *image.Gray, grid int) ([]uint8, error) {
	if grid <= 0 {
		return nil, errors.NewValidationError("grid", "must be positive", grid)
	}
	b := mask.Bounds()
	if b.Dx() < grid || b.Dy() < grid {
		return nil, errors.NewDimensionError("DownsampleLabels", grid, b.Dx(), 1)
	}

	cellW := float64(b.Dx()) / float64(grid)
	cellH := float64(b.Dy()) / float64(grid)

	out := make([]uint8, grid*grid)
	for i := 0; i < grid; i++ {
		for j := 0; j < grid; j++ {
			x := b.Min.X + int((float64(j)+0.5)*cellW)
			y := b.Min.Y + int((float64(i)+0.5)*cellH)
			out[i*grid+j] = mask.GrayAt(x, y).Y
		}
	}
	return out, nil
}

// DownsampleBatch applies DownsampleLabels to every mask in the batch and
// concatenates the per-image grids in batch order, mirroring the row
// ordering of the flattened feature matrix.
func DownsampleBatch(masks []*image.Gray, grid int) ([]uint8, error) {
	if len(masks) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "DownsampleBatch")
	}
	out := make([]uint8, 0, len(masks)*grid*grid)
	for _, mask := range masks {
		cells, err := DownsampleLabels(mask, grid)
		if err != nil {
			return nil, err
		}
		out = append(out, cells...)
	}
	return out, nil
}
