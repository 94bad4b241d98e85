// Package features turns image batches into per-patch feature matrices
// using a frozen vision transformer exported to ONNX.
package features

import (
	"context"
	"image"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Extractor produces one feature row per patch for a batch of images.
//
// The returned matrix has B*N*N rows and F columns, where N is the patch
// grid side and F the embedding width. Rows are ordered batch-major, then
// row-major within each image: row = b*N*N + i*N + j.
type Extractor interface {
	// Extract runs inference on a batch of grayscale images. Every image
	// must already be resized to InputSize x InputSize pixels.
	Extract(ctx context.Context, images []*image.Gray) (mat.Matrix, error)

	// GridSize returns the patch grid side N.
	GridSize() int

	// EmbedDim returns the feature width F.
	EmbedDim() int

	// InputSize returns the expected input edge length in pixels.
	InputSize() int

	// Close releases inference resources. The extractor is unusable after.
	Close() error
}

// L2NormalizeRows scales each row of X to unit Euclidean norm in place.
// Zero rows are left untouched.
func L2NormalizeRows(X *mat.Dense) {
	r, c := X.Dims()
	for i := 0; i < r; i++ {
		row := X.RawRowView(i)
		sum := 0.0
		for j := 0; j < c; j++ {
			sum += row[j] * row[j]
		}
		if sum == 0 {
			continue
		}
		norm := math.Sqrt(sum)
		for j := 0; j < c; j++ {
			row[j] /= norm
		}
	}
}
