package rimage

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
)

// BytesPerPixel is the size of one interleaved RGB pixel.
const BytesPerPixel = 3

// Image is a dense, row-major RGB image with three interleaved bytes per pixel and its origin at
// the top left.
type Image struct {
	width, height int
	pix           []byte
}

// NewImage returns a black image of the given size.
func NewImage(width, height int) *Image {
	return &Image{
		width:  width,
		height: height,
		pix:    make([]byte, width*height*BytesPerPixel),
	}
}

// NewImageFromRGB wraps a copy of interleaved RGB bytes.
func NewImageFromRGB(width, height int, rgb []byte) (*Image, error) {
	img := NewImage(width, height)
	if err := img.SetFromRGB(rgb); err != nil {
		return nil, err
	}
	return img, nil
}

// Width returns the width of the image.
func (i *Image) Width() int {
	return i.width
}

// Height returns the height of the image.
func (i *Image) Height() int {
	return i.height
}

// Pix returns the interleaved RGB backing slice. Writes to it are writes to the image.
func (i *Image) Pix() []byte {
	return i.pix
}

func (i *Image) kxy(x, y int) int {
	return ((y * i.width) + x) * BytesPerPixel
}

// In returns whether (x, y) is inside the image.
func (i *Image) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < i.width && y < i.height
}

// GetXY returns the color at (x, y).
func (i *Image) GetXY(x, y int) color.RGBA {
	k := i.kxy(x, y)
	return color.RGBA{R: i.pix[k], G: i.pix[k+1], B: i.pix[k+2], A: 0xff}
}

// SetXY sets the color at (x, y). Alpha is dropped.
func (i *Image) SetXY(x, y int, c color.RGBA) {
	k := i.kxy(x, y)
	i.pix[k] = c.R
	i.pix[k+1] = c.G
	i.pix[k+2] = c.B
}

// SetFromRGB overwrites every pixel with interleaved RGB bytes.
func (i *Image) SetFromRGB(rgb []byte) error {
	if len(rgb) != len(i.pix) {
		return errors.Wrapf(ErrSizeMismatch, "got %d bytes, expected %d", len(rgb), len(i.pix))
	}
	copy(i.pix, rgb)
	return nil
}

// CopyFrom overwrites every pixel with the ones in src. Both must have the same size.
func (i *Image) CopyFrom(src *Image) error {
	if src.width != i.width || src.height != i.height {
		return errors.Wrapf(ErrSizeMismatch, "(%d,%d) != (%d,%d)", src.width, src.height, i.width, i.height)
	}
	copy(i.pix, src.pix)
	return nil
}

// Clone makes a deep copy of the image.
func (i *Image) Clone() *Image {
	ret := NewImage(i.width, i.height)
	copy(ret.pix, i.pix)
	return ret
}

// ColorModel for Image so that it implements image.Image.
func (i *Image) ColorModel() color.Model {
	return color.RGBAModel
}

// Bounds for Image so that it implements image.Image.
func (i *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, i.width, i.height)
}

// At for Image so that it implements image.Image.
func (i *Image) At(x, y int) color.Color {
	if !i.In(x, y) {
		return color.RGBA{}
	}
	return i.GetXY(x, y)
}
