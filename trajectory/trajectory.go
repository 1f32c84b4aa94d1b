// Package trajectory reads ground truth camera trajectories, one pose per line.
//
// Each non-comment line ends with seven whitespace separated fields
//
//	tx ty tz qx qy qz qw
//
// Any leading fields (timestamps, frame numbers) are ignored. Empty lines and lines starting
// with '#' are skipped without consuming a pose.
package trajectory

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/framesource/logging"
	"go.viam.com/framesource/spatialmath"
)

// FieldsPerPose is the number of trailing fields that describe a pose.
const FieldsPerPose = 7

// ExpectedLineFormat describes a valid trajectory line.
const ExpectedLineFormat = "... tx ty tz qx qy qz qw"

// ErrEndOfStream is returned once every pose in the trajectory has been read.
var ErrEndOfStream = errors.New("end of trajectory")

// FormatError is returned when a trajectory line cannot be parsed as a pose. Once a reader
// returns a FormatError it keeps returning it until rewound.
type FormatError struct {
	Line int
	Text string
	Err  error
}

func (e *FormatError) Error() string {
	msg := fmt.Sprintf("invalid ground truth file format at line %d (%q), expected line format: %s",
		e.Line, e.Text, ExpectedLineFormat)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// Reader yields poses from a trajectory, each premultiplied by a fixed transform.
type Reader struct {
	logger    logging.Logger
	src       io.ReadSeeker
	closer    io.Closer
	buf       *bufio.Reader
	transform spatialmath.Pose

	line      int
	poseIndex int
	err       error
}

// Open opens the trajectory file at path.
func Open(path string, transform spatialmath.Pose, logger logging.Logger) (*Reader, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open ground truth file %q", path)
	}
	r := NewReader(f, transform, logger)
	r.closer = f
	return r, nil
}

// NewReader reads a trajectory from src. The caller keeps ownership of src.
func NewReader(src io.ReadSeeker, transform spatialmath.Pose, logger logging.Logger) *Reader {
	return &Reader{
		logger:    logger,
		src:       src,
		buf:       bufio.NewReader(src),
		transform: transform,
		poseIndex: -1,
	}
}

// PoseIndex returns the index of the last pose read, or -1 if none has been read.
func (r *Reader) PoseIndex() int {
	return r.poseIndex
}

// ReadNextPose returns transform * pose for the next pose line.
func (r *Reader) ReadNextPose() (spatialmath.Pose, error) {
	if r.err != nil {
		return spatialmath.Pose{}, r.err
	}
	for {
		text, readErr := r.buf.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return spatialmath.Pose{}, errors.Wrap(readErr, "reading ground truth file")
		}
		if text == "" && readErr != nil {
			return spatialmath.Pose{}, ErrEndOfStream
		}
		r.line++
		trimmed := strings.TrimSpace(text)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			if readErr != nil {
				return spatialmath.Pose{}, ErrEndOfStream
			}
			continue
		}

		pose, err := parsePose(trimmed)
		if err != nil {
			r.err = &FormatError{Line: r.line, Text: trimmed, Err: err}
			r.logger.Errorw("invalid ground truth file format", "line", r.line, "expected", ExpectedLineFormat, "error", err)
			return spatialmath.Pose{}, r.err
		}
		r.poseIndex++
		return r.transform.Compose(pose), nil
	}
}

func parsePose(line string) (spatialmath.Pose, error) {
	fields := strings.Fields(line)
	if len(fields) < FieldsPerPose {
		return spatialmath.Pose{}, errors.Errorf("expected at least %d fields, got %d", FieldsPerPose, len(fields))
	}
	var vals [FieldsPerPose]float64
	for i, field := range fields[len(fields)-FieldsPerPose:] {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return spatialmath.Pose{}, errors.Wrapf(err, "field %d", len(fields)-FieldsPerPose+i)
		}
		vals[i] = v
	}
	q := quat.Number{Real: vals[6], Imag: vals[3], Jmag: vals[4], Kmag: vals[5]}
	return spatialmath.NewPose(vals[0], vals[1], vals[2], q)
}

// Rewind seeks back to the first line and clears the pose index and any format error.
func (r *Reader) Rewind() error {
	if _, err := r.src.Seek(0, io.SeekStart); err != nil {
		return errors.Wrap(err, "rewinding ground truth file")
	}
	r.buf.Reset(r.src)
	r.line = 0
	r.poseIndex = -1
	r.err = nil
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
