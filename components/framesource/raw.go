package framesource

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/framesource/logging"
	"go.viam.com/framesource/pacer"
	"go.viam.com/framesource/rawformat"
	"go.viam.com/framesource/rimage"
	"go.viam.com/framesource/rimage/transform"
	"go.viam.com/framesource/spatialmath"
	"go.viam.com/framesource/trajectory"
)

// rawIntrinsics is the calibration of the sensor raw recordings were captured with.
func rawIntrinsics(width, height int) transform.PinholeCameraIntrinsics {
	return transform.PinholeCameraIntrinsics{
		Width:  width,
		Height: height,
		Fx:     531.15,
		Fy:     531.15,
		Ppx:    320,
		Ppy:    240,
	}
}

// rawSource plays back a binary frame container and, optionally, a ground truth trajectory.
type rawSource struct {
	base
	pacer      *pacer.Pacer
	reader     *rawformat.Reader
	trajectory *trajectory.Reader
	scratch    *rimage.DepthMap
}

func newRawSource(cfg Config, logger logging.Logger) (_ Source, err error) {
	layout, err := rawformat.ParseLayout(cfg.RawLayout)
	if err != nil {
		return nil, err
	}
	groundTruthTransform, err := cfg.pose()
	if err != nil {
		return nil, err
	}

	src := &rawSource{
		base:  newBase(KindRaw, logger),
		pacer: pacer.New(cfg.FrameRate, cfg.BlockingRead, cfg.clock),
	}
	defer func() {
		if err != nil {
			err = multierr.Combine(err, src.Close())
		}
	}()

	if cfg.GroundTruthPath != "" {
		if rigidErr := groundTruthTransform.CheckRigid(); rigidErr != nil {
			logger.Infow("ground truth transform is not rigid, poses will be mirrored or scaled", "reason", rigidErr)
		}
		src.trajectory, err = trajectory.Open(cfg.GroundTruthPath, groundTruthTransform, logger)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open ground truth association file")
		}
	}
	src.reader, err = rawformat.Open(cfg.DataPath, layout, logger)
	if err != nil {
		return nil, err
	}

	src.size = src.reader.Size()
	src.setIntrinsics(rawIntrinsics(src.size.X, src.size.Y), cfg.IntrinsicParameters)
	src.scratch = rimage.NewEmptyDepthMap(src.size.X, src.size.Y)
	src.state = StateOpenActive
	logger.Debugw("opened raw file", "path", cfg.DataPath, "layout", layout,
		"size", src.size, "frames", src.reader.FrameCount())
	return src, nil
}

func (src *rawSource) read(depth *rimage.DepthMap, color *rimage.Image) bool {
	next := src.pacer.Advance(src.frame)
	return src.finishRead(next, src.reader.ReadFrame(next, depth, color) == nil)
}

func (src *rawSource) ReadDepth(ctx context.Context, dst []float32) bool {
	if !src.readable() {
		return false
	}
	if len(dst) != src.scratch.Len() {
		src.logger.Errorw("depth output has the wrong size", "got", len(dst), "want", src.scratch.Len())
		return false
	}
	if !src.read(src.scratch, nil) {
		return false
	}
	return src.scratch.ToMeters(dst) == nil
}

func (src *rawSource) ReadDepthMM(ctx context.Context, dst *rimage.DepthMap) bool {
	return src.ReadDepthAndColor(ctx, dst, nil)
}

func (src *rawSource) ReadDepthAndColor(ctx context.Context, depth *rimage.DepthMap, color *rimage.Image) bool {
	if !src.readable() || !src.sizeMatches(depth, color) {
		return false
	}
	return src.read(depth, color)
}

// ReadDepthColorAndPose reads the pose before the frame. A pose is consumed even when the frame
// read that follows fails.
func (src *rawSource) ReadDepthColorAndPose(
	ctx context.Context, depth *rimage.DepthMap, color *rimage.Image, pose *spatialmath.Pose,
) bool {
	if src.trajectory == nil {
		return src.base.ReadDepthColorAndPose(ctx, depth, color, pose)
	}
	if !src.readable() || !src.sizeMatches(depth, color) {
		return false
	}
	p, err := src.trajectory.ReadNextPose()
	if err != nil {
		if errors.Is(err, trajectory.ErrEndOfStream) {
			src.logger.Debugw("end of ground truth trajectory", "pose", src.trajectory.PoseIndex())
		}
		return src.finishRead(src.frame, false)
	}
	if !src.read(depth, color) {
		return false
	}
	if pose != nil {
		*pose = p
	}
	return true
}

// PoseIndex returns the index of the last ground truth pose read, -1 if none.
func (src *rawSource) PoseIndex() int {
	if src.trajectory == nil {
		return -1
	}
	return src.trajectory.PoseIndex()
}

func (src *rawSource) Restart() {
	if src.state == StateClosed {
		return
	}
	src.restart()
	src.pacer.Reset()
	if src.trajectory != nil {
		if err := src.trajectory.Rewind(); err != nil {
			src.logger.Errorw("cannot rewind ground truth file", "error", err)
		}
	}
}

func (src *rawSource) Close() error {
	src.close()
	var err error
	if src.reader != nil {
		err = multierr.Combine(err, src.reader.Close())
		src.reader = nil
	}
	if src.trajectory != nil {
		err = multierr.Combine(err, src.trajectory.Close())
		src.trajectory = nil
	}
	return err
}
