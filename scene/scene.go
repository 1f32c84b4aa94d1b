// Package scene decodes the per-frame ASCII depth files of synthetic scene datasets.
//
// Each frame lives in its own file, <dir>/scene_00_NNNN.depth, holding 640x480 whitespace
// separated floats in row-major order. Values are distances along the optical ray in meters
// and are converted to perpendicular depth on decode.
package scene

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/framesource/logging"
	"go.viam.com/framesource/rimage/transform"
	"go.viam.com/framesource/utils"
)

// Frame geometry and calibration of the synthetic camera. The y focal length is negative
// because the renderer's image y axis points up.
const (
	Width  = 640
	Height = 480
	Fx     = 481.20
	Fy     = -480.00
	Cx     = 319.50
	Cy     = 239.50
)

// ErrNoSamples is returned when a frame file holds no parsable value.
var ErrNoSamples = errors.New("scene frame has no depth samples")

// Intrinsics returns the calibration reported for scene sources. The focal lengths are
// reported as positive values.
func Intrinsics() transform.PinholeCameraIntrinsics {
	return transform.PinholeCameraIntrinsics{
		Width:  Width,
		Height: Height,
		Fx:     Fx,
		Fy:     math.Abs(Fy),
		Ppx:    Cx,
		Ppy:    Cy,
	}
}

// FramePath returns the file holding frame index in dir.
func FramePath(dir string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("scene_00_%04d.depth", index))
}

// UndistortionDivisor returns the factor a ray length at pixel (u, v) is divided by to get
// perpendicular depth. It is exactly 1 at the principal point.
func UndistortionDivisor(u, v float64) float64 {
	x := (u - Cx) / Fx
	y := (v - Cy) / Fy
	return math.Sqrt(utils.Square(x) + utils.Square(y) + 1)
}

// Undistort converts a full frame of ray lengths to perpendicular depth in place.
func Undistort(depth []float32) {
	for v := 0; v < Height; v++ {
		for u := 0; u < Width; u++ {
			i := v*Width + u
			depth[i] = float32(float64(depth[i]) / UndistortionDivisor(float64(u), float64(v)))
		}
	}
}

// Decoder reads frames from a scene directory.
type Decoder struct {
	dir     string
	logger  logging.Logger
	scratch []float32
}

// NewDecoder returns a decoder for dir, which must be a directory.
func NewDecoder(dir string, logger logging.Logger) (*Decoder, error) {
	if !utils.IsDir(dir) {
		return nil, errors.Errorf("no such directory %q", dir)
	}
	return &Decoder{
		dir:     dir,
		logger:  logger,
		scratch: make([]float32, Width*Height),
	}, nil
}

// Dir returns the scene directory.
func (d *Decoder) Dir() string {
	return d.dir
}

// ReadFrame decodes frame index into dst, which must hold Width*Height values, and returns
// how many values the file held. Values past Width*Height are ignored and missing trailing
// values decode as zero. A frame with at least one value is a success; dst is only written on
// success.
func (d *Decoder) ReadFrame(index int, dst []float32) (int, error) {
	if len(dst) != Width*Height {
		return 0, errors.Errorf("destination holds %d values, expected %d", len(dst), Width*Height)
	}
	path := FramePath(d.dir, index)
	n, err := d.parse(path)
	if err != nil {
		d.logger.Warnw("cannot open scene frame", "path", path, "error", err)
		return 0, err
	}
	if n == 0 {
		d.logger.Warnw("scene frame is empty", "path", path)
		return 0, errors.Wrap(ErrNoSamples, path)
	}
	if n < Width*Height {
		d.logger.Debugw("scene frame is short, zero filling", "path", path, "samples", n)
	}
	Undistort(d.scratch)
	copy(dst, d.scratch)
	return n, nil
}

func (d *Decoder) parse(path string) (n int, err error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()

	scanner := bufio.NewScanner(f)
	scanner.Split(bufio.ScanWords)
	for n < len(d.scratch) && scanner.Scan() {
		v, perr := strconv.ParseFloat(scanner.Text(), 32)
		if perr != nil {
			break
		}
		d.scratch[n] = float32(v)
		n++
	}
	if err := scanner.Err(); err != nil {
		return 0, errors.Wrapf(err, "reading %s", path)
	}
	for i := n; i < len(d.scratch); i++ {
		d.scratch[i] = 0
	}
	return n, nil
}

// WriteFrame writes a full frame of ray lengths to the file for index in dir.
func WriteFrame(dir string, index int, rays []float32) (err error) {
	if len(rays) != Width*Height {
		return errors.Errorf("frame holds %d values, expected %d", len(rays), Width*Height)
	}
	//nolint:gosec
	f, err := os.Create(FramePath(dir, index))
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()

	w := bufio.NewWriter(f)
	buf := make([]byte, 0, 16)
	for i, r := range rays {
		buf = strconv.AppendFloat(buf[:0], float64(r), 'g', -1, 32)
		if i%Width == Width-1 {
			buf = append(buf, '\n')
		} else {
			buf = append(buf, ' ')
		}
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return w.Flush()
}
