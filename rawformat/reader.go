package rawformat

import (
	"encoding/binary"
	"image"
	"io"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/framesource/logging"
	"go.viam.com/framesource/rimage"
)

var (
	// ErrShortRead is returned when a record starts at or past the end of the container.
	ErrShortRead = errors.New("end of file")
	// ErrCorruptRecord is returned when a record is truncated or its dimensions disagree with
	// the container's.
	ErrCorruptRecord = errors.New("end of file (garbage found)")
)

// Reader gives random access to the records of a container.
type Reader struct {
	logger logging.Logger
	src    io.ReadSeeker
	closer io.Closer
	layout Layout
	size   image.Point
	length int64

	dims  [dimsSize]byte
	depth []byte
	color []byte
}

// Open opens the container at path and reads its frame size.
func Open(path string, layout Layout, logger logging.Logger) (*Reader, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open raw file %q", path)
	}
	r, err := NewReader(f, layout, logger)
	if err != nil {
		return nil, multierr.Combine(errors.Wrapf(err, "reading header of %q", path), f.Close())
	}
	r.closer = f
	return r, nil
}

// NewReader reads the frame size from the start of src. The caller keeps ownership of src.
func NewReader(src io.ReadSeeker, layout Layout, logger logging.Logger) (*Reader, error) {
	length, err := src.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	r := &Reader{logger: logger, src: src, layout: layout, length: length}
	w, h, err := r.readDims()
	if err != nil {
		return nil, errors.Wrap(err, "container has no header")
	}
	if w == 0 || h == 0 || w > maxFrameLength || h > maxFrameLength {
		return nil, errors.Errorf("container has invalid frame size %dx%d", w, h)
	}
	r.size = image.Point{int(w), int(h)}
	pixels := int(w) * int(h)
	r.depth = make([]byte, pixels*bytesPerDepth)
	if layout == LayoutStandard {
		r.color = make([]byte, pixels*bytesPerColor)
	}
	return r, nil
}

// Size returns the frame size fixed by the header.
func (r *Reader) Size() image.Point {
	return r.size
}

// Layout returns the record layout.
func (r *Reader) Layout() Layout {
	return r.layout
}

// RecordSize returns the size of one record in bytes.
func (r *Reader) RecordSize() int64 {
	return RecordSize(r.layout, r.size.X, r.size.Y)
}

// FrameCount returns how many complete records the container holds.
func (r *Reader) FrameCount() int {
	return int(r.length / r.RecordSize())
}

func (r *Reader) readDims() (uint32, uint32, error) {
	if _, err := io.ReadFull(r.src, r.dims[:]); err != nil {
		return 0, 0, err
	}
	return binary.LittleEndian.Uint32(r.dims[:4]), binary.LittleEndian.Uint32(r.dims[4:]), nil
}

// readBlock reads the dims of a block and then its payload into buf, or skips the payload
// when buf is nil. ErrShortRead means not a single byte of the block was present.
func (r *Reader) readBlock(buf []byte, bytesPerPixel int) error {
	w, h, err := r.readDims()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return ErrShortRead
		}
		return ErrCorruptRecord
	}
	if int(w) != r.size.X || int(h) != r.size.Y {
		return errors.Wrapf(ErrCorruptRecord, "record is %dx%d, container is %dx%d", w, h, r.size.X, r.size.Y)
	}
	n := int64(w) * int64(h) * int64(bytesPerPixel)
	if buf == nil {
		pos, err := r.src.Seek(n, io.SeekCurrent)
		if err != nil || pos > r.length {
			return ErrCorruptRecord
		}
		return nil
	}
	if _, err := io.ReadFull(r.src, buf); err != nil {
		return ErrCorruptRecord
	}
	return nil
}

// ReadFrame reads record index into depth and color. Either output may be nil, in which case
// that payload is skipped. Outputs are only written when the whole record is valid.
//
// A light container has no color; when color is non-nil its first byte is zeroed and the rest
// is left as is.
func (r *Reader) ReadFrame(index int, depth *rimage.DepthMap, color *rimage.Image) error {
	if index < 0 {
		return errors.Errorf("invalid frame index %d", index)
	}
	if depth != nil && (depth.Width() != r.size.X || depth.Height() != r.size.Y) {
		return errors.Wrapf(rimage.ErrSizeMismatch, "depth output is %dx%d, container is %dx%d",
			depth.Width(), depth.Height(), r.size.X, r.size.Y)
	}
	if color != nil && (color.Width() != r.size.X || color.Height() != r.size.Y) {
		return errors.Wrapf(rimage.ErrSizeMismatch, "color output is %dx%d, container is %dx%d",
			color.Width(), color.Height(), r.size.X, r.size.Y)
	}

	if err := r.readRecord(int64(index), depth != nil, color != nil); err != nil {
		if errors.Is(err, ErrShortRead) {
			r.logger.Debugw("end of file", "frame", index)
		} else {
			r.logger.Warnw("end of file (garbage found)", "frame", index, "error", err)
		}
		return err
	}

	if depth != nil {
		data := depth.Data()
		for i := range data {
			data[i] = rimage.Depth(binary.LittleEndian.Uint16(r.depth[i*bytesPerDepth:]))
		}
	}
	if color != nil {
		if r.layout == LayoutLight {
			if pix := color.Pix(); len(pix) > 0 {
				pix[0] = 0
			}
		} else {
			copy(color.Pix(), r.color)
		}
	}
	return nil
}

func (r *Reader) readRecord(index int64, wantDepth, wantColor bool) error {
	start := index * r.RecordSize()
	// dims with no payload behind them, such as the header of an empty container, end the file
	if start+dimsSize == r.length {
		return ErrShortRead
	}
	if _, err := r.src.Seek(start, io.SeekStart); err != nil {
		return errors.Wrap(ErrCorruptRecord, err.Error())
	}
	var depthBuf, colorBuf []byte
	if wantDepth {
		depthBuf = r.depth
	}
	if wantColor && r.layout == LayoutStandard {
		colorBuf = r.color
	}
	if err := r.readBlock(depthBuf, bytesPerDepth); err != nil {
		return err
	}
	if r.layout == LayoutLight {
		return nil
	}
	if err := r.readBlock(colorBuf, bytesPerColor); err != nil {
		if errors.Is(err, ErrShortRead) {
			return ErrCorruptRecord
		}
		return err
	}
	return nil
}

// Close releases the file opened by Open.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}
