package framesource

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"go.viam.com/framesource/logging"
	"go.viam.com/framesource/rimage"
)

// liveSource reads frames from a live sensor through its capture driver. Live frames are not
// paced and cannot be rewound.
type liveSource struct {
	base
	capture Capture
	timeout time.Duration

	depth   []uint16
	rgb     []byte
	scratch *rimage.DepthMap
}

func newLiveSource(ctx context.Context, cfg Config, logger logging.Logger) (Source, error) {
	driver, ok := LookupCaptureDriver(cfg.Kind)
	if !ok {
		return nil, errors.Wrapf(ErrCaptureUnavailable, "no %s capture driver in this build", cfg.Kind)
	}
	capture, err := driver.Open(ctx, cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open %s device", cfg.Kind)
	}

	src := &liveSource{
		base:    newBase(cfg.Kind, logger),
		capture: capture,
		timeout: cfg.CaptureTimeout,
	}
	src.size = capture.Size()
	src.setIntrinsics(capture.Intrinsics(), cfg.IntrinsicParameters)
	if src.intrinsics.Width == 0 && src.intrinsics.Height == 0 {
		src.intrinsics.Width, src.intrinsics.Height = src.size.X, src.size.Y
	}
	pixels := src.size.X * src.size.Y
	src.depth = make([]uint16, pixels)
	src.rgb = make([]byte, pixels*rimage.BytesPerPixel)
	src.scratch = rimage.NewEmptyDepthMap(src.size.X, src.size.Y)
	src.state = StateOpenActive
	logger.Infow("opened live capture", "device", cfg.DataPath, "size", src.size)
	return src, nil
}

func (src *liveSource) read(ctx context.Context, depth *rimage.DepthMap, color *rimage.Image) bool {
	if !src.readable() || !src.sizeMatches(depth, color) {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, src.timeout)
	defer cancel()

	var rgb []byte
	if color != nil {
		rgb = src.rgb
	}
	if err := src.capture.ReadFrame(ctx, src.depth, rgb); err != nil {
		src.logger.Warnw("cannot read frame from device", "error", err)
		return src.finishRead(src.frame, false)
	}
	if depth != nil {
		if err := depth.SetFromUint16(src.depth); err != nil {
			return src.finishRead(src.frame, false)
		}
	}
	if color != nil {
		if err := color.SetFromRGB(rgb); err != nil {
			return src.finishRead(src.frame, false)
		}
	}
	return src.finishRead(src.frame+1, true)
}

func (src *liveSource) ReadDepth(ctx context.Context, dst []float32) bool {
	if len(dst) != len(src.depth) {
		src.logger.Errorw("depth output has the wrong size", "got", len(dst), "want", len(src.depth))
		return false
	}
	if !src.read(ctx, src.scratch, nil) {
		return false
	}
	return src.scratch.ToMeters(dst) == nil
}

func (src *liveSource) ReadDepthMM(ctx context.Context, dst *rimage.DepthMap) bool {
	return src.read(ctx, dst, nil)
}

func (src *liveSource) ReadDepthAndColor(ctx context.Context, depth *rimage.DepthMap, color *rimage.Image) bool {
	return src.read(ctx, depth, color)
}

// Restart only resets the frame index. The device keeps streaming.
func (src *liveSource) Restart() {
	if src.state == StateClosed {
		return
	}
	src.restart()
}

func (src *liveSource) Close() error {
	src.close()
	if src.capture == nil {
		return nil
	}
	err := src.capture.Close()
	src.capture = nil
	return err
}
