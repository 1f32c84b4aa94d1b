package rimage

import (
	"image"
	"image/color"
	"math"

	"github.com/pkg/errors"

	"go.viam.com/framesource/utils"
)

// Depth is the depth of a single pixel in millimeters.
type Depth uint16

// MaxDepth is the largest depth a DepthMap can hold.
const MaxDepth = Depth(math.MaxUint16)

// MillimetersPerMeter is the fixed point scale between metric and stored depth.
const MillimetersPerMeter = 1000

// ErrSizeMismatch is returned when a buffer does not hold width*height samples.
var ErrSizeMismatch = errors.New("buffer size does not match depth map dimensions")

// DepthMap is a dense, row-major, width x height array of millimeter depths. Its size is fixed
// at construction.
type DepthMap struct {
	width  int
	height int

	data []Depth
}

// NewEmptyDepthMap returns a zero filled depth map.
func NewEmptyDepthMap(width, height int) *DepthMap {
	return &DepthMap{
		width:  width,
		height: height,
		data:   make([]Depth, width*height),
	}
}

// MillimetersToMeters converts a stored depth to meters.
func MillimetersToMeters(d Depth) float32 {
	return float32(d) / MillimetersPerMeter
}

// MetersToMillimeters converts meters to a stored depth, rounding to the nearest millimeter and
// clamping to [0, MaxDepth].
func MetersToMillimeters(m float32) Depth {
	return Depth(utils.RoundToUint16(float64(m) * MillimetersPerMeter))
}

// HasData returns whether the depth map holds any samples.
func (dm *DepthMap) HasData() bool {
	return dm.width > 0 && dm.height > 0 && dm.data != nil
}

// Width returns the width of the depth map.
func (dm *DepthMap) Width() int {
	return dm.width
}

// Height returns the height of the depth map.
func (dm *DepthMap) Height() int {
	return dm.height
}

// Size returns the dimensions as a point.
func (dm *DepthMap) Size() image.Point {
	return image.Point{dm.width, dm.height}
}

// Len returns width*height.
func (dm *DepthMap) Len() int {
	return len(dm.data)
}

func (dm *DepthMap) kxy(x, y int) int {
	return (y * dm.width) + x
}

// Contains returns whether or not a point is within bounds of the depth map.
func (dm *DepthMap) Contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < dm.width && y < dm.height
}

// Get returns the depth at a given image.Point.
func (dm *DepthMap) Get(p image.Point) Depth {
	return dm.data[dm.kxy(p.X, p.Y)]
}

// GetDepth returns the depth at a given (x, y) coordinate.
func (dm *DepthMap) GetDepth(x, y int) Depth {
	return dm.data[dm.kxy(x, y)]
}

// Set sets the depth at a given (x, y) coordinate.
func (dm *DepthMap) Set(x, y int, val Depth) {
	dm.data[dm.kxy(x, y)] = val
}

// Data returns the row-major backing slice. Writes to it are writes to the depth map.
func (dm *DepthMap) Data() []Depth {
	return dm.data
}

// Uint16 returns the backing slice reinterpreted as raw millimeters.
func (dm *DepthMap) Uint16() []uint16 {
	out := make([]uint16, len(dm.data))
	for i, d := range dm.data {
		out[i] = uint16(d)
	}
	return out
}

// CopyFrom overwrites every sample with the ones in src. Both must have the same size.
func (dm *DepthMap) CopyFrom(src *DepthMap) error {
	if src.width != dm.width || src.height != dm.height {
		return errors.Wrapf(ErrSizeMismatch, "(%d,%d) != (%d,%d)", src.width, src.height, dm.width, dm.height)
	}
	copy(dm.data, src.data)
	return nil
}

// SetFromUint16 overwrites every sample with raw millimeters.
func (dm *DepthMap) SetFromUint16(mm []uint16) error {
	if len(mm) != len(dm.data) {
		return errors.Wrapf(ErrSizeMismatch, "got %d samples, expected %d", len(mm), len(dm.data))
	}
	for i, d := range mm {
		dm.data[i] = Depth(d)
	}
	return nil
}

// SetFromMeters overwrites every sample with the rounded millimeter value of src.
func (dm *DepthMap) SetFromMeters(src []float32) error {
	if len(src) != len(dm.data) {
		return errors.Wrapf(ErrSizeMismatch, "got %d samples, expected %d", len(src), len(dm.data))
	}
	for i, m := range src {
		dm.data[i] = MetersToMillimeters(m)
	}
	return nil
}

// ToMeters writes every sample, in meters, to dst.
func (dm *DepthMap) ToMeters(dst []float32) error {
	if len(dst) != len(dm.data) {
		return errors.Wrapf(ErrSizeMismatch, "got %d samples, expected %d", len(dst), len(dm.data))
	}
	for i, d := range dm.data {
		dst[i] = MillimetersToMeters(d)
	}
	return nil
}

// Clone makes a deep copy of the depth map.
func (dm *DepthMap) Clone() *DepthMap {
	ret := NewEmptyDepthMap(dm.width, dm.height)
	copy(ret.data, dm.data)
	return ret
}

// MinMax returns the minimum and maximum depth in the depth map, ignoring zero values.
func (dm *DepthMap) MinMax() (Depth, Depth) {
	minDepth, maxDepth := MaxDepth, Depth(0)
	for _, d := range dm.data {
		if d == 0 {
			continue
		}
		if d < minDepth {
			minDepth = d
		}
		if d > maxDepth {
			maxDepth = d
		}
	}
	if maxDepth == 0 {
		return 0, 0
	}
	return minDepth, maxDepth
}

// ColorModel for DepthMap so that it implements image.Image.
func (dm *DepthMap) ColorModel() color.Model { return color.Gray16Model }

// Bounds for DepthMap so that it implements image.Image.
func (dm *DepthMap) Bounds() image.Rectangle {
	return image.Rect(0, 0, dm.width, dm.height)
}

// At returns the depth value as a color.Gray16.
func (dm *DepthMap) At(x, y int) color.Color {
	if !dm.Contains(x, y) {
		return color.Gray16{}
	}
	return color.Gray16{uint16(dm.GetDepth(x, y))}
}
