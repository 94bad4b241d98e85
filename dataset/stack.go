// Package dataset loads co-indexed microscopy image and label-mask stacks
// from multi-page TIFF containers and samples batches from them.
package dataset

import (
	"fmt"
	"image"
	"image/color"
	"os"

	"github.com/chai2010/tiff"

	"github.com/YuminosukeSato/patchscope/pkg/errors"
)

// Stack holds a validated pair of image and mask volumes. Images and masks
// share one index space: Masks[i] is the dense ground-truth annotation of
// Images[i]. The contents are read-only after loading.
type Stack struct {
	// Images are the grayscale microscopy slices.
	Images []*image.Gray

	// Masks are the integer label maps, one label per pixel.
	Masks []*image.Gray

	// NumClasses is the size of the label set; valid labels are 0..NumClasses-1.
	NumClasses int
}

// Len returns the number of slices in the stack.
func (s *Stack) Len() int {
	return len(s.Images)
}

// Bounds returns the spatial size shared by every slice.
func (s *Stack) Bounds() image.Rectangle {
	if len(s.Images) == 0 {
		return image.Rectangle{}
	}
	return s.Images[0].Bounds()
}

// LoadPair decodes the image stack and the mask stack from two multi-page
// TIFF files and validates that they form a usable pair. Validation failures
// are fatal for the pipeline and happen before any model invocation.
func LoadPair(imagePath, maskPath string, numClasses int) (*Stack, error) {
	images, err := decodeStack(imagePath)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding image stack %s", imagePath)
	}
	masks, err := decodeStack(maskPath)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding mask stack %s", maskPath)
	}
	return NewStack(images, masks, numClasses)
}

// NewStack validates a decoded image/mask pair and wraps it in a Stack.
//
// Invariants checked here:
//   - both stacks are non-empty and of equal length
//   - every mask has the same bounds as its image
//   - every mask value is inside the label set {0..numClasses-1}
func NewStack(images, masks []*image.Gray, numClasses int) (*Stack, error) {
	if numClasses <= 0 {
		return nil, errors.NewValidationError("numClasses", "must be positive", numClasses)
	}
	if len(images) == 0 || len(masks) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "image or mask stack is empty")
	}
	if len(images) != len(masks) {
		return nil, errors.NewStackMismatchError("length",
			fmt.Sprintf("%d", len(images)), fmt.Sprintf("%d", len(masks)), -1)
	}

	bounds := images[0].Bounds()
	for i := range images {
		if images[i].Bounds() != bounds {
			return nil, errors.NewStackMismatchError("bounds",
				boundsString(bounds), boundsString(images[i].Bounds()), i)
		}
		if masks[i].Bounds() != bounds {
			return nil, errors.NewStackMismatchError("bounds",
				boundsString(images[i].Bounds()), boundsString(masks[i].Bounds()), i)
		}
		if v, ok := labelOutsideSet(masks[i], numClasses); ok {
			return nil, errors.NewLabelSetError("NewStack", int(v), numClasses, i)
		}
	}

	return &Stack{Images: images, Masks: masks, NumClasses: numClasses}, nil
}

// LabelSet returns the set of label values present in the mask.
func LabelSet(mask *image.Gray) map[uint8]struct{} {
	set := make(map[uint8]struct{})
	b := mask.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			set[mask.GrayAt(x, y).Y] = struct{}{}
		}
	}
	return set
}

// IsSubset reports whether every label in sub also occurs in super.
func IsSubset(sub, super map[uint8]struct{}) bool {
	for v := range sub {
		if _, ok := super[v]; !ok {
			return false
		}
	}
	return true
}

func labelOutsideSet(mask *image.Gray, numClasses int) (uint8, bool) {
	b := mask.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if v := mask.GrayAt(x, y).Y; int(v) >= numClasses {
				return v, true
			}
		}
	}
	return 0, false
}

// decodeStack reads every page of a multi-page TIFF and converts each to
// 8-bit grayscale. The x/image decoder only reads the first IFD, so the
// chai2010 decoder is used for the full stack.
func decodeStack(path string) ([]*image.Gray, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pages, pageErrs, err := tiff.DecodeAll(f)
	if err != nil {
		return nil, err
	}

	var slices []*image.Gray
	for i, frames := range pages {
		for j, frame := range frames {
			if pageErrs != nil && pageErrs[i][j] != nil {
				return nil, errors.Wrapf(pageErrs[i][j], "decoding page %d frame %d", i, j)
			}
			slices = append(slices, toGray(frame))
		}
	}
	if len(slices) == 0 {
		return nil, errors.Wrapf(errors.ErrEmptyData, "no pages in %s", path)
	}
	return slices, nil
}

// toGray converts a decoded frame to 8-bit grayscale. 16-bit microscopy
// stacks lose precision here; the warning surfaces once per conversion.
func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	if _, ok := img.(*image.Gray16); ok {
		errors.Warn(errors.NewDataConversionWarning("Gray16", "Gray", "transformer input is 8-bit"))
	}
	b := img.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.SetGray(x, y, color.GrayModel.Convert(img.At(x, y)).(color.Gray))
		}
	}
	return out
}

func boundsString(r image.Rectangle) string {
	return fmt.Sprintf("%dx%d", r.Dx(), r.Dy())
}
