package preprocess

import (
	"image"

	"github.com/YuminosukeSato/patchscope/pkg/errors"
)

// ToCHW converts a batch of grayscale images to a channel-first float32
// tensor of shape (B, 3, size, size), flattened in row-major order. Pixel
// values are scaled to [0,1] and the single gray channel is replicated to
// the three channels the transformer expects. Per-channel mean/std
// normalization happens inside the extractor, next to the model metadata
// that defines it.
func ToCHW(images []*image.Gray, size int) ([]float32, error) {
	if len(images) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "ToCHW")
	}
	const channels = 3
	out := make([]float32, len(images)*channels*size*size)

	for b, img := range images {
		bounds := img.Bounds()
		if bounds.Dx() != size || bounds.Dy() != size {
			return nil, errors.NewDimensionError("ToCHW", size, bounds.Dx(), 1)
		}
		base := b * channels * size * size
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				v := float32(img.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y) / 255.0
				idx := base + y*size + x
				out[idx] = v
				out[idx+size*size] = v
				out[idx+2*size*size] = v
			}
		}
	}
	return out, nil
}
