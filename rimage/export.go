package rimage

import (
	"image"
	"image/png"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/image/tiff"
)

// WriteImageToFile writes a color image to a png file.
func WriteImageToFile(path string, img image.Image) (err error) {
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return png.Encode(f, img)
}

// WriteDepthMapToFile writes a depth map as a 16 bit grayscale tiff, one millimeter per gray
// level, so it can be read back losslessly.
func WriteDepthMapToFile(path string, dm *DepthMap) (err error) {
	if !dm.HasData() {
		return errors.New("cannot write an empty depth map")
	}
	gray := image.NewGray16(dm.Bounds())
	for y := 0; y < dm.Height(); y++ {
		for x := 0; x < dm.Width(); x++ {
			off := gray.PixOffset(x, y)
			d := dm.GetDepth(x, y)
			gray.Pix[off] = uint8(d >> 8)
			gray.Pix[off+1] = uint8(d)
		}
	}
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return tiff.Encode(f, gray, &tiff.Options{Compression: tiff.Deflate})
}
