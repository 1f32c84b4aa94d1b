package framesource

import (
	"context"
	"image"
	"sync"

	"go.viam.com/framesource/rimage/transform"
)

// A Capture is an open live depth sensor.
type Capture interface {
	// Size returns the frame size of both streams.
	Size() image.Point
	// Intrinsics returns the calibration of the depth stream.
	Intrinsics() transform.PinholeCameraIntrinsics
	// ReadFrame blocks until the next frame arrives and writes its depth, in millimeters, and
	// its interleaved RGB color. rgb may be nil when color is not wanted.
	ReadFrame(ctx context.Context, depth []uint16, rgb []byte) error
	// Close stops capture and releases the device.
	Close() error
}

// A CaptureDriver opens live sensors of one kind.
type CaptureDriver interface {
	Open(ctx context.Context, cfg Config) (Capture, error)
}

// CaptureDriverFunc adapts a function to a CaptureDriver.
type CaptureDriverFunc func(ctx context.Context, cfg Config) (Capture, error)

// Open calls f.
func (f CaptureDriverFunc) Open(ctx context.Context, cfg Config) (Capture, error) {
	return f(ctx, cfg)
}

var (
	driversMu sync.RWMutex
	drivers   = map[Kind]CaptureDriver{}
)

// RegisterCaptureDriver makes a capture driver available for a live kind. Drivers are usually
// registered from init in files built only where their library is available. Registering nil
// removes the driver.
func RegisterCaptureDriver(kind Kind, driver CaptureDriver) {
	driversMu.Lock()
	defer driversMu.Unlock()
	if driver == nil {
		delete(drivers, kind)
		return
	}
	drivers[kind] = driver
}

// LookupCaptureDriver returns the driver registered for kind.
func LookupCaptureDriver(kind Kind) (CaptureDriver, bool) {
	driversMu.RLock()
	defer driversMu.RUnlock()
	d, ok := drivers[kind]
	return d, ok
}
