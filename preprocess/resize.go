// Package preprocess prepares sampled image/mask pairs for the transformer:
// bilinear image resizing, nearest-neighbor mask resizing, channel-first
// tensor conversion, patch-grid label downsampling, and feature scalers.
package preprocess

import (
	"image"
	"image/color"

	"github.com/nfnt/resize"

	"github.com/YuminosukeSato/patchscope/dataset"
	"github.com/YuminosukeSato/patchscope/pkg/errors"
)

// ResizeImage resizes a grayscale slice to size x size with bilinear
// interpolation. The target size is the transformer input resolution,
// patchSize * gridSize per axis.
func ResizeImage(img image.Image, size int) (*image.Gray, error) {
	if size <= 0 {
		return nil, errors.NewValidationError("size", "must be positive", size)
	}
	resized := resize.Resize(uint(size), uint(size), img, resize.Bilinear)
	return toGray(resized), nil
}

// ResizeMask resizes a label map to size x size with nearest-neighbor
// interpolation. Smooth interpolation would invent label values between
// classes, so the result is checked against the source value set.
func ResizeMask(mask *image.Gray, size int) (*image.Gray, error) {
	if size <= 0 {
		return nil, errors.NewValidationError("size", "must be positive", size)
	}
	resized := toGray(resize.Resize(uint(size), uint(size), mask, resize.NearestNeighbor))

	if v, ok := firstNewLabel(mask, resized); ok {
		// A label absent from the source indicates an interpolation-mode
		// defect, not a recoverable data problem.
		return nil, errors.NewLabelSetError("ResizeMask", int(v), 256, -1)
	}
	return resized, nil
}

func firstNewLabel(src, dst *image.Gray) (uint8, bool) {
	srcSet := dataset.LabelSet(src)
	for v := range dataset.LabelSet(dst) {
		if _, ok := srcSet[v]; !ok {
			return v, true
		}
	}
	return 0, false
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.SetGray(x, y, color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray))
		}
	}
	return out
}
