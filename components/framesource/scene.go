package framesource

import (
	"context"

	"go.viam.com/framesource/logging"
	"go.viam.com/framesource/pacer"
	"go.viam.com/framesource/rimage"
	"go.viam.com/framesource/scene"
)

// sceneSource plays back a directory of ASCII scene depth files. Scenes have no color and no
// trajectory.
type sceneSource struct {
	base
	pacer   *pacer.Pacer
	decoder *scene.Decoder
	meters  []float32
}

func newSceneSource(cfg Config, logger logging.Logger) (Source, error) {
	decoder, err := scene.NewDecoder(cfg.DataPath, logger)
	if err != nil {
		return nil, err
	}
	src := &sceneSource{
		base:    newBase(KindScene, logger),
		pacer:   pacer.New(cfg.FrameRate, cfg.BlockingRead, cfg.clock),
		decoder: decoder,
		meters:  make([]float32, scene.Width*scene.Height),
	}
	src.size.X, src.size.Y = scene.Width, scene.Height
	src.setIntrinsics(scene.Intrinsics(), cfg.IntrinsicParameters)
	src.state = StateOpenActive
	return src, nil
}

func (src *sceneSource) ReadDepth(ctx context.Context, dst []float32) bool {
	if !src.readable() {
		return false
	}
	if len(dst) != len(src.meters) {
		src.logger.Errorw("depth output has the wrong size", "got", len(dst), "want", len(src.meters))
		return false
	}
	next := src.pacer.Advance(src.frame)
	_, err := src.decoder.ReadFrame(next, dst)
	return src.finishRead(next, err == nil)
}

func (src *sceneSource) ReadDepthMM(ctx context.Context, dst *rimage.DepthMap) bool {
	return src.ReadDepthAndColor(ctx, dst, nil)
}

// ReadDepthAndColor leaves color untouched since scenes carry no color.
func (src *sceneSource) ReadDepthAndColor(ctx context.Context, depth *rimage.DepthMap, color *rimage.Image) bool {
	if !src.readable() || !src.sizeMatches(depth, color) {
		return false
	}
	next := src.pacer.Advance(src.frame)
	if _, err := src.decoder.ReadFrame(next, src.meters); err != nil {
		return src.finishRead(next, false)
	}
	if depth != nil {
		if err := depth.SetFromMeters(src.meters); err != nil {
			return src.finishRead(next, false)
		}
	}
	return src.finishRead(next, true)
}

func (src *sceneSource) Restart() {
	if src.state == StateClosed {
		return
	}
	src.restart()
	src.pacer.Reset()
}

func (src *sceneSource) Close() error {
	src.close()
	return nil
}
