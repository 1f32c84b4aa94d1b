//go:build linux

package framesource

import (
	"context"
	"image"
	"image/color"
	"path/filepath"
	"strings"

	driverutils "github.com/pion/mediadevices/pkg/driver"
	mediadevicescamera "github.com/pion/mediadevices/pkg/driver/camera"
	"github.com/pion/mediadevices/pkg/frame"
	"github.com/pion/mediadevices/pkg/prop"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/framesource/rimage/transform"
)

const (
	realSenseWidth  = 640
	realSenseHeight = 480
)

func init() {
	RegisterCaptureDriver(KindRealSense, CaptureDriverFunc(openRealSense))
}

// realSenseCapture reads the Z16 depth node of a RealSense sensor through V4L2 and, when a
// color node is configured, its color node.
type realSenseCapture struct {
	depthDriver driverutils.Driver
	depth       *singleFlightReader
	colorDriver driverutils.Driver
	color       *singleFlightReader
}

// findDriver returns the V4L2 driver for a device node. With an empty path it returns the first
// driver accepted by want.
func findDriver(path string, want func(prop.Media) bool) (driverutils.Driver, error) {
	mediadevicescamera.Initialize()
	label := ""
	if path != "" {
		if resolved, err := filepath.EvalSymlinks(path); err == nil {
			path = resolved
		}
		label = filepath.Base(path)
	}
	drivers := driverutils.GetManager().Query(func(d driverutils.Driver) bool {
		if _, ok := d.(driverutils.VideoRecorder); !ok {
			return false
		}
		if label == "" {
			return true
		}
		for _, part := range strings.Split(d.Info().Label, mediadevicescamera.LabelSeparator) {
			if part == label {
				return true
			}
		}
		return false
	})
	d, err := pickDriver(drivers, want)
	if err != nil && path != "" {
		return nil, errors.Wrapf(err, "video device %q", path)
	}
	return d, err
}

// pickDriver opens each driver in turn and returns the first with a stream accepted by want.
// Drivers without one are closed again.
func pickDriver(drivers []driverutils.Driver, want func(prop.Media) bool) (driverutils.Driver, error) {
	var errs error
	for _, d := range drivers {
		if d.Status() == driverutils.StateClosed {
			if err := d.Open(); err != nil {
				errs = multierr.Append(errs, errors.Wrapf(err, "opening %s", d.Info().Label))
				continue
			}
		}
		for _, p := range d.Properties() {
			if want(p) {
				return d, nil
			}
		}
		if err := d.Close(); err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "closing %s", d.Info().Label))
		}
	}
	return nil, multierr.Combine(errors.New("found no matching video stream"), errs)
}

func isDepthMode(p prop.Media) bool {
	return p.FrameFormat == frame.FormatZ16 && p.Width == realSenseWidth && p.Height == realSenseHeight
}

func isColorMode(p prop.Media) bool {
	return p.FrameFormat != frame.FormatZ16 && p.Width == realSenseWidth && p.Height == realSenseHeight
}

func record(d driverutils.Driver, want func(prop.Media) bool) (*singleFlightReader, error) {
	for _, p := range d.Properties() {
		if want(p) {
			r, err := d.(driverutils.VideoRecorder).VideoRecord(p)
			if err != nil {
				return nil, err
			}
			return newSingleFlightReader(r), nil
		}
	}
	return nil, errors.New("no matching stream")
}

func openRealSense(ctx context.Context, cfg Config) (_ Capture, err error) {
	c := &realSenseCapture{}
	defer func() {
		if err != nil {
			err = multierr.Combine(err, c.Close())
		}
	}()

	if c.depthDriver, err = findDriver(cfg.DataPath, isDepthMode); err != nil {
		return nil, errors.Wrap(err, "cannot find depth stream")
	}
	if c.depth, err = record(c.depthDriver, isDepthMode); err != nil {
		return nil, errors.Wrap(err, "cannot start depth stream")
	}
	if cfg.ColorPath != "" {
		if c.colorDriver, err = findDriver(cfg.ColorPath, isColorMode); err != nil {
			return nil, errors.Wrap(err, "cannot find color stream")
		}
		if c.color, err = record(c.colorDriver, isColorMode); err != nil {
			return nil, errors.Wrap(err, "cannot start color stream")
		}
	}
	return c, nil
}

func (c *realSenseCapture) Size() image.Point {
	return image.Point{realSenseWidth, realSenseHeight}
}

// Intrinsics are not exposed over V4L2. Configure intrinsic_parameters to report them.
func (c *realSenseCapture) Intrinsics() transform.PinholeCameraIntrinsics {
	return transform.PinholeCameraIntrinsics{Width: realSenseWidth, Height: realSenseHeight}
}

func (c *realSenseCapture) ReadFrame(ctx context.Context, depth []uint16, rgb []byte) error {
	img, release, err := c.depth.Read(ctx)
	if err != nil {
		return errors.Wrap(err, "reading depth stream")
	}
	err = copyDepth(img, depth)
	if release != nil {
		release()
	}
	if err != nil || rgb == nil {
		return err
	}
	if c.color == nil {
		for i := range rgb {
			rgb[i] = 0
		}
		return nil
	}
	img, release, err = c.color.Read(ctx)
	if err != nil {
		return errors.Wrap(err, "reading color stream")
	}
	defer func() {
		if release != nil {
			release()
		}
	}()
	return copyColor(img, rgb)
}

func copyDepth(img image.Image, depth []uint16) error {
	b := img.Bounds()
	if b.Dx()*b.Dy() != len(depth) {
		return errors.Errorf("depth frame is %dx%d", b.Dx(), b.Dy())
	}
	gray, isGray := img.(*image.Gray16)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if isGray {
				depth[i] = gray.Gray16At(x, y).Y
			} else {
				depth[i] = color.Gray16Model.Convert(img.At(x, y)).(color.Gray16).Y
			}
			i++
		}
	}
	return nil
}

func copyColor(img image.Image, rgb []byte) error {
	b := img.Bounds()
	if b.Dx()*b.Dy()*3 != len(rgb) {
		return errors.Errorf("color frame is %dx%d", b.Dx(), b.Dy())
	}
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			rgb[i], rgb[i+1], rgb[i+2] = byte(r>>8), byte(g>>8), byte(bl>>8)
			i += 3
		}
	}
	return nil
}

// Close stops both streams, then waits for any read left pending by a timeout.
func (c *realSenseCapture) Close() error {
	var err error
	for _, d := range []driverutils.Driver{c.depthDriver, c.colorDriver} {
		if d != nil && d.Status() != driverutils.StateClosed {
			err = multierr.Combine(err, d.Close())
		}
	}
	for _, r := range []*singleFlightReader{c.depth, c.color} {
		if r != nil {
			r.Drain()
		}
	}
	return err
}
