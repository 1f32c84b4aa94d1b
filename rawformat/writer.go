package rawformat

import (
	"bufio"
	"encoding/binary"
	"image"
	"io"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/framesource/rimage"
)

// Writer appends records to a container.
type Writer struct {
	layout Layout
	size   image.Point
	out    *bufio.Writer
	closer io.Closer
	frames int

	depth []byte
	black []byte
}

// Create truncates or creates the container at path for width x height frames.
func Create(path string, layout Layout, width, height int) (*Writer, error) {
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot create raw file %q", path)
	}
	w, err := NewWriter(f, layout, width, height)
	if err != nil {
		return nil, multierr.Combine(err, f.Close())
	}
	w.closer = f
	return w, nil
}

// NewWriter writes records to dst. The caller keeps ownership of dst.
func NewWriter(dst io.Writer, layout Layout, width, height int) (*Writer, error) {
	if width <= 0 || height <= 0 || width > maxFrameLength || height > maxFrameLength {
		return nil, errors.Errorf("invalid frame size %dx%d", width, height)
	}
	return &Writer{
		layout: layout,
		size:   image.Point{width, height},
		out:    bufio.NewWriter(dst),
		depth:  make([]byte, width*height*bytesPerDepth),
	}, nil
}

// Frames returns how many records have been written.
func (w *Writer) Frames() int {
	return w.frames
}

func (w *Writer) writeDims() error {
	var dims [dimsSize]byte
	binary.LittleEndian.PutUint32(dims[:4], uint32(w.size.X))
	binary.LittleEndian.PutUint32(dims[4:], uint32(w.size.Y))
	_, err := w.out.Write(dims[:])
	return err
}

// WriteFrame appends one record. A nil color writes a black frame in the standard layout;
// the light layout ignores color.
func (w *Writer) WriteFrame(depth *rimage.DepthMap, color *rimage.Image) error {
	if depth == nil {
		return errors.New("depth frame is required")
	}
	if depth.Width() != w.size.X || depth.Height() != w.size.Y {
		return errors.Wrapf(rimage.ErrSizeMismatch, "depth is %dx%d, container is %dx%d",
			depth.Width(), depth.Height(), w.size.X, w.size.Y)
	}
	if color != nil && (color.Width() != w.size.X || color.Height() != w.size.Y) {
		return errors.Wrapf(rimage.ErrSizeMismatch, "color is %dx%d, container is %dx%d",
			color.Width(), color.Height(), w.size.X, w.size.Y)
	}

	if err := w.writeDims(); err != nil {
		return err
	}
	for i, d := range depth.Data() {
		binary.LittleEndian.PutUint16(w.depth[i*bytesPerDepth:], uint16(d))
	}
	if _, err := w.out.Write(w.depth); err != nil {
		return err
	}
	if w.layout == LayoutStandard {
		if err := w.writeDims(); err != nil {
			return err
		}
		pix := w.blackFrame()
		if color != nil {
			pix = color.Pix()
		}
		if _, err := w.out.Write(pix); err != nil {
			return err
		}
	}
	w.frames++
	return nil
}

func (w *Writer) blackFrame() []byte {
	if w.black == nil {
		w.black = make([]byte, w.size.X*w.size.Y*bytesPerColor)
	}
	return w.black
}

// Flush writes buffered records to the destination.
func (w *Writer) Flush() error {
	return w.out.Flush()
}

// Close flushes and releases the file opened by Create.
func (w *Writer) Close() error {
	err := w.out.Flush()
	if w.closer != nil {
		err = multierr.Combine(err, w.closer.Close())
		w.closer = nil
	}
	return err
}
