// Package framesource defines a source of depth frames, optional color frames and ground truth
// poses. Recorded datasets and live depth sensors are served through the same Source
// interface so a vision pipeline does not care where its frames come from.
package framesource

import (
	"context"
	"image"

	"github.com/pkg/errors"

	"go.viam.com/framesource/logging"
	"go.viam.com/framesource/rimage"
	"go.viam.com/framesource/rimage/transform"
	"go.viam.com/framesource/spatialmath"
)

// Kind identifies which backend serves a source.
type Kind string

const (
	// KindRaw plays back a binary frame container.
	KindRaw = Kind("raw")
	// KindScene plays back a directory of ASCII scene depth files.
	KindScene = Kind("scene")
	// KindOpenNI captures from an OpenNI2 sensor.
	KindOpenNI = Kind("openni")
	// KindRealSense captures from a RealSense sensor.
	KindRealSense = Kind("realsense")
)

// Kinds lists every supported kind.
var Kinds = []Kind{KindRaw, KindScene, KindOpenNI, KindRealSense}

func (k Kind) String() string {
	return string(k)
}

// IsLive returns whether the kind captures from a device rather than a recording.
func (k Kind) IsLive() bool {
	return k == KindOpenNI || k == KindRealSense
}

// State is the lifecycle state of a source.
type State int

const (
	// StateClosed sources fail every read.
	StateClosed State = iota
	// StateOpenInactive sources are open but their last read failed, usually at the end of a
	// recording. Restart makes them active again.
	StateOpenInactive
	// StateOpenActive sources are open and producing frames.
	StateOpenActive
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpenInactive:
		return "open-inactive"
	case StateOpenActive:
		return "open-active"
	default:
		return "unknown"
	}
}

var (
	// ErrUnknownKind is returned by New for a kind it does not know about.
	ErrUnknownKind = errors.New("unknown frame source kind")
	// ErrCaptureUnavailable is returned by New when no capture driver is available for a live kind.
	ErrCaptureUnavailable = errors.New("capture library not found")
)

// A Source produces frames one at a time. Every read advances the source to the frame that is
// current and reports whether that frame was valid. A failed read leaves its outputs untouched.
// Nil outputs are skipped. Sources are not safe for concurrent use.
type Source interface {
	// Kind returns the backend serving the source.
	Kind() Kind
	// State returns the lifecycle state.
	State() State
	// IsOpen returns whether the source was opened and not closed.
	IsOpen() bool

	// ReadDepth reads the next depth frame in meters into dst, which must hold width*height values.
	ReadDepth(ctx context.Context, dst []float32) bool
	// ReadDepthMM reads the next depth frame in millimeters.
	ReadDepthMM(ctx context.Context, dst *rimage.DepthMap) bool
	// ReadDepthAndColor reads the next depth and color frame.
	ReadDepthAndColor(ctx context.Context, depth *rimage.DepthMap, color *rimage.Image) bool
	// ReadDepthColorAndPose reads the next ground truth pose and then the next depth and color
	// frame. Sources without a trajectory return false.
	ReadDepthColorAndPose(ctx context.Context, depth *rimage.DepthMap, color *rimage.Image, pose *spatialmath.Pose) bool

	// Intrinsics returns the pinhole calibration of the frames, zero if unknown.
	Intrinsics() transform.PinholeCameraIntrinsics
	// FrameSize returns the width and height of every frame.
	FrameSize() image.Point
	// FrameIndex returns the index of the last frame read, -1 before the first read.
	FrameIndex() int

	// Restart rewinds the source to before its first frame. Live sources only reset their
	// counters.
	Restart()
	// Close releases every file or device the source holds.
	Close() error
}

// New opens a source for cfg. When opening fails the error is logged and returned together
// with a closed source of the requested kind, so callers can always hold a Source.
func New(ctx context.Context, cfg Config, logger logging.Logger) (Source, error) {
	if err := cfg.Validate(""); err != nil {
		logger.Errorw("invalid frame source config", "error", err)
		return newStub(cfg.Kind, logger), err
	}
	cfg = cfg.withDefaults()
	logger = logger.Sublogger(cfg.Kind.String())

	var (
		src Source
		err error
	)
	switch cfg.Kind {
	case KindRaw:
		src, err = newRawSource(cfg, logger)
	case KindScene:
		src, err = newSceneSource(cfg, logger)
	case KindOpenNI, KindRealSense:
		src, err = newLiveSource(ctx, cfg, logger)
	default:
		err = errors.Wrapf(ErrUnknownKind, "%q", cfg.Kind)
	}
	if err != nil {
		logger.Errorw("cannot open frame source", "kind", cfg.Kind, "path", cfg.DataPath, "error", err)
		return newStub(cfg.Kind, logger), err
	}
	return src, nil
}
