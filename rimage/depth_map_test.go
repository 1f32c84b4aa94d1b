package rimage

import (
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
	"golang.org/x/image/tiff"
)

func TestDepthMapBasics(t *testing.T) {
	dm := NewEmptyDepthMap(4, 3)
	test.That(t, dm.HasData(), test.ShouldBeTrue)
	test.That(t, dm.Width(), test.ShouldEqual, 4)
	test.That(t, dm.Height(), test.ShouldEqual, 3)
	test.That(t, dm.Len(), test.ShouldEqual, 12)
	test.That(t, dm.Bounds(), test.ShouldResemble, image.Rect(0, 0, 4, 3))

	dm.Set(2, 1, 1234)
	test.That(t, dm.GetDepth(2, 1), test.ShouldEqual, Depth(1234))
	test.That(t, dm.Get(image.Point{2, 1}), test.ShouldEqual, Depth(1234))
	test.That(t, dm.Data()[1*4+2], test.ShouldEqual, Depth(1234))
	test.That(t, dm.At(2, 1), test.ShouldResemble, color.Gray16{1234})
	test.That(t, dm.At(10, 10), test.ShouldResemble, color.Gray16{})

	clone := dm.Clone()
	clone.Set(0, 0, 7)
	test.That(t, dm.GetDepth(0, 0), test.ShouldEqual, Depth(0))

	minD, maxD := dm.MinMax()
	test.That(t, minD, test.ShouldEqual, Depth(1234))
	test.That(t, maxD, test.ShouldEqual, Depth(1234))

	minD, maxD = NewEmptyDepthMap(2, 2).MinMax()
	test.That(t, minD, test.ShouldEqual, Depth(0))
	test.That(t, maxD, test.ShouldEqual, Depth(0))

	test.That(t, NewEmptyDepthMap(0, 0).HasData(), test.ShouldBeFalse)
}

func TestDepthMapSizeMismatch(t *testing.T) {
	dm := NewEmptyDepthMap(2, 2)
	err := dm.SetFromMeters(make([]float32, 3))
	test.That(t, errors.Is(err, ErrSizeMismatch), test.ShouldBeTrue)
	err = dm.ToMeters(make([]float32, 5))
	test.That(t, errors.Is(err, ErrSizeMismatch), test.ShouldBeTrue)
	err = dm.SetFromUint16(make([]uint16, 1))
	test.That(t, errors.Is(err, ErrSizeMismatch), test.ShouldBeTrue)
	err = dm.CopyFrom(NewEmptyDepthMap(3, 2))
	test.That(t, errors.Is(err, ErrSizeMismatch), test.ShouldBeTrue)
}

func TestMetersConversion(t *testing.T) {
	test.That(t, MetersToMillimeters(1.0), test.ShouldEqual, Depth(1000))
	test.That(t, MetersToMillimeters(0.0015), test.ShouldEqual, Depth(2))
	test.That(t, MetersToMillimeters(-3), test.ShouldEqual, Depth(0))
	test.That(t, MetersToMillimeters(100), test.ShouldEqual, MaxDepth)
	test.That(t, MetersToMillimeters(float32(math.NaN())), test.ShouldEqual, Depth(0))
	test.That(t, MillimetersToMeters(2500), test.ShouldEqual, float32(2.5))

	t.Run("every millimeter value survives a metric round trip", func(t *testing.T) {
		for mm := 0; mm <= math.MaxUint16; mm++ {
			d := Depth(mm)
			if got := MetersToMillimeters(MillimetersToMeters(d)); got != d {
				t.Fatalf("round trip of %d gave %d", d, got)
			}
		}
	})

	dm := NewEmptyDepthMap(2, 1)
	test.That(t, dm.SetFromMeters([]float32{0.25, 1.0006}), test.ShouldBeNil)
	test.That(t, dm.Uint16(), test.ShouldResemble, []uint16{250, 1001})

	meters := make([]float32, 2)
	test.That(t, dm.ToMeters(meters), test.ShouldBeNil)
	test.That(t, meters[0], test.ShouldEqual, float32(0.25))
}

func TestDepthMapFileRoundTrip(t *testing.T) {
	dm := NewEmptyDepthMap(5, 4)
	for i := range dm.Data() {
		dm.Data()[i] = Depth(i * 1000)
	}
	dm.Set(4, 3, MaxDepth)

	path := filepath.Join(t.TempDir(), "depth.tiff")
	test.That(t, WriteDepthMapToFile(path, dm), test.ShouldBeNil)

	f, err := os.Open(path)
	test.That(t, err, test.ShouldBeNil)
	defer f.Close()
	img, err := tiff.Decode(f)
	test.That(t, err, test.ShouldBeNil)
	gray, ok := img.(*image.Gray16)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, gray.Bounds().Size(), test.ShouldResemble, image.Point{5, 4})
	for y := 0; y < 4; y++ {
		for x := 0; x < 5; x++ {
			test.That(t, Depth(gray.Gray16At(x, y).Y), test.ShouldEqual, dm.GetDepth(x, y))
		}
	}

	test.That(t, WriteDepthMapToFile(path, NewEmptyDepthMap(0, 0)), test.ShouldNotBeNil)
}
