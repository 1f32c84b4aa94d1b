// Package transform holds the pinhole camera model used to describe frame sources.
package transform

import (
	"encoding/json"
	"fmt"
	"image"
	"os"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ErrNoIntrinsics is returned when a camera has no usable calibration.
var ErrNoIntrinsics = errors.New("camera intrinsic parameters are not available")

// NewNoIntrinsicsError wraps ErrNoIntrinsics with the reason the calibration is unusable.
func NewNoIntrinsicsError(msg string) error {
	return errors.Wrap(ErrNoIntrinsics, msg)
}

// PinholeCameraIntrinsics is the calibration of the frames a source produces: image size in
// pixels, focal lengths and principal point.
type PinholeCameraIntrinsics struct {
	Width  int     `json:"width_px"`
	Height int     `json:"height_px"`
	Fx     float64 `json:"fx"`
	Fy     float64 `json:"fy"`
	Ppx    float64 `json:"ppx"`
	Ppy    float64 `json:"ppy"`
}

// IsZero reports whether every parameter is unset. Sources without a backend report this.
func (params PinholeCameraIntrinsics) IsZero() bool {
	return params == PinholeCameraIntrinsics{}
}

// Size returns the frame size the calibration applies to.
func (params PinholeCameraIntrinsics) Size() image.Point {
	return image.Pt(params.Width, params.Height)
}

// CheckValid returns an ErrNoIntrinsics error naming the first unusable parameter.
func (params *PinholeCameraIntrinsics) CheckValid() error {
	if params == nil {
		return NewNoIntrinsicsError("Intrinsics do not exist")
	}
	// negated comparisons also reject NaN
	switch {
	case params.Width <= 0 || params.Height <= 0:
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid size (%d, %d)", params.Width, params.Height))
	case !(params.Fx > 0):
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fx = %v", params.Fx))
	case !(params.Fy > 0):
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fy = %v", params.Fy))
	case !(params.Ppx >= 0):
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid principal X point Ppx = %v", params.Ppx))
	case !(params.Ppy >= 0):
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid principal Y point Ppy = %v", params.Ppy))
	}
	return nil
}

// NewPinholeCameraIntrinsicsFromJSONFile reads a calibration stored as json.
func NewPinholeCameraIntrinsicsFromJSONFile(jsonPath string) (*PinholeCameraIntrinsics, error) {
	//nolint:gosec
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, errors.Wrap(err, "error opening JSON file")
	}
	var params PinholeCameraIntrinsics
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, errors.Wrap(err, "error parsing JSON string")
	}
	return &params, nil
}

// PixelToPoint back projects pixel (x, y) at depth z into camera coordinates.
func (params *PinholeCameraIntrinsics) PixelToPoint(x, y, z float64) (float64, float64, float64) {
	if params == nil {
		return 0, 0, 0
	}
	return z * (x - params.Ppx) / params.Fx, z * (y - params.Ppy) / params.Fy, z
}

// GetCameraMatrix returns the 3x3 matrix K = [[fx 0 ppx] [0 fy ppy] [0 0 1]].
func (params *PinholeCameraIntrinsics) GetCameraMatrix() *mat.Dense {
	if params == nil {
		return nil
	}
	return mat.NewDense(3, 3, []float64{
		params.Fx, 0, params.Ppx,
		0, params.Fy, params.Ppy,
		0, 0, 1,
	})
}
