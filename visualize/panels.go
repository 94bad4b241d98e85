// Package visualize renders patch-level exploration results: per-image
// panel strips (input, PCA-as-RGB, label grids, cluster map) and UMAP
// scatter plots.
package visualize

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"

	"github.com/nfnt/resize"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/patchscope/grid"
	"github.com/YuminosukeSato/patchscope/pkg/errors"
)

// classPalette is a fixed categorical palette. Class ids index into it
// modulo its length, so any number of classes renders deterministically.
var classPalette = []color.RGBA{
	{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}, // blue
	{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff}, // orange
	{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff}, // green
	{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}, // red
	{R: 0x94, G: 0x67, B: 0xbd, A: 0xff}, // purple
	{R: 0x8c, G: 0x56, B: 0x4b, A: 0xff}, // brown
	{R: 0xe3, G: 0x77, B: 0xc2, A: 0xff}, // pink
	{R: 0x7f, G: 0x7f, B: 0x7f, A: 0xff}, // gray
	{R: 0xbc, G: 0xbd, B: 0x22, A: 0xff}, // olive
	{R: 0x17, G: 0xbe, B: 0xcf, A: 0xff}, // cyan
}

// ClassColor returns the palette color for a class or cluster id.
// Negative ids render black.
func ClassColor(id int) color.RGBA {
	if id < 0 {
		return color.RGBA{A: 0xff}
	}
	return classPalette[id%len(classPalette)]
}

// LabelImage renders an N x N integer grid as a color-coded image, one
// pixel per cell.
func LabelImage(cells [][]int) *image.RGBA {
	h := len(cells)
	w := 0
	if h > 0 {
		w = len(cells[0])
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < h; i++ {
		for j := 0; j < w; j++ {
			img.SetRGBA(j, i, ClassColor(cells[i][j]))
		}
	}
	return img
}

// PCAImage renders one image's rows of a 3-column matrix as an N x N RGB
// image. Values are expected in [0,1] (min-max scaled upstream); out of
// range values are clamped.
func PCAImage(rgb mat.Matrix, l grid.Layout, b int) (*image.RGBA, error) {
	r, c := rgb.Dims()
	if c != 3 {
		return nil, errors.NewDimensionError("visualize.PCAImage", 3, c, 1)
	}
	if r != l.Rows() {
		return nil, errors.NewDimensionError("visualize.PCAImage", l.Rows(), r, 0)
	}
	if b < 0 || b >= l.Batch {
		return nil, errors.NewValidationError("b", "image index out of range", b)
	}

	img := image.NewRGBA(image.Rect(0, 0, l.Side, l.Side))
	for i := 0; i < l.Side; i++ {
		for j := 0; j < l.Side; j++ {
			row := l.RowIndex(b, i, j)
			img.SetRGBA(j, i, color.RGBA{
				R: clampByte(rgb.At(row, 0)),
				G: clampByte(rgb.At(row, 1)),
				B: clampByte(rgb.At(row, 2)),
				A: 0xff,
			})
		}
	}
	return img, nil
}

// Upscale grows an image by an integer factor with nearest-neighbor
// interpolation, keeping cell boundaries sharp.
func Upscale(img image.Image, factor int) image.Image {
	if factor <= 1 {
		return img
	}
	b := img.Bounds()
	return resize.Resize(uint(b.Dx()*factor), uint(b.Dy()*factor), img, resize.NearestNeighbor)
}

// ComposePanel lays out images left to right on a white background,
// separated by gap pixels and aligned at the top edge.
func ComposePanel(gap int, images ...image.Image) *image.RGBA {
	width, height := 0, 0
	for i, img := range images {
		b := img.Bounds()
		width += b.Dx()
		if i > 0 {
			width += gap
		}
		if b.Dy() > height {
			height = b.Dy()
		}
	}

	panel := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(panel, panel.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	x := 0
	for _, img := range images {
		b := img.Bounds()
		dst := image.Rect(x, 0, x+b.Dx(), b.Dy())
		draw.Draw(panel, dst, img, b.Min, draw.Src)
		x += b.Dx() + gap
	}
	return panel
}

// SavePNG writes an image to path as PNG.
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "patchscope: visualize: create file")
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return errors.Wrap(err, "patchscope: visualize: encode PNG")
	}
	return nil
}

func clampByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
