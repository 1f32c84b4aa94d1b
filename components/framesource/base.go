package framesource

import (
	"context"
	"image"

	"go.viam.com/framesource/logging"
	"go.viam.com/framesource/rimage"
	"go.viam.com/framesource/rimage/transform"
	"go.viam.com/framesource/spatialmath"
)

// base holds the state shared by every kind of source.
type base struct {
	kind       Kind
	logger     logging.Logger
	state      State
	frame      int
	size       image.Point
	intrinsics transform.PinholeCameraIntrinsics
}

func newBase(kind Kind, logger logging.Logger) base {
	return base{kind: kind, logger: logger, frame: -1}
}

func (b *base) Kind() Kind {
	return b.kind
}

func (b *base) State() State {
	return b.state
}

func (b *base) IsOpen() bool {
	return b.state != StateClosed
}

func (b *base) Intrinsics() transform.PinholeCameraIntrinsics {
	return b.intrinsics
}

// setIntrinsics uses the configured calibration when there is one and def otherwise.
func (b *base) setIntrinsics(def transform.PinholeCameraIntrinsics, configured *transform.PinholeCameraIntrinsics) {
	b.intrinsics = def
	if configured != nil {
		b.intrinsics = *configured
	}
}

func (b *base) FrameSize() image.Point {
	return b.size
}

func (b *base) FrameIndex() int {
	return b.frame
}

// ReadDepthColorAndPose is unsupported unless a kind overrides it.
func (b *base) ReadDepthColorAndPose(
	ctx context.Context, depth *rimage.DepthMap, color *rimage.Image, pose *spatialmath.Pose,
) bool {
	b.logger.Debugw("source has no ground truth trajectory", "kind", b.kind)
	return false
}

// readable reports whether a read may be attempted.
func (b *base) readable() bool {
	if b.state == StateClosed {
		b.logger.Debug("read from a closed source")
		return false
	}
	return true
}

// finishRead records the outcome of a read of frame next.
func (b *base) finishRead(next int, ok bool) bool {
	if ok {
		b.frame = next
		b.state = StateOpenActive
	} else {
		b.state = StateOpenInactive
	}
	return ok
}

func (b *base) sizeMatches(depth *rimage.DepthMap, color *rimage.Image) bool {
	if depth != nil && (depth.Width() != b.size.X || depth.Height() != b.size.Y) {
		b.logger.Errorw("depth output has the wrong size", "got", depth.Size(), "want", b.size)
		return false
	}
	if color != nil && (color.Width() != b.size.X || color.Height() != b.size.Y) {
		b.logger.Errorw("color output has the wrong size",
			"got", image.Point{color.Width(), color.Height()}, "want", b.size)
		return false
	}
	return true
}

func (b *base) restart() {
	b.frame = -1
	if b.state == StateOpenInactive {
		b.state = StateOpenActive
	}
}

func (b *base) close() {
	b.state = StateClosed
}
