package framesource

import (
	"context"

	"go.viam.com/framesource/logging"
	"go.viam.com/framesource/rimage"
)

// stubSource stands in for a source that could not be opened. Every read fails.
type stubSource struct {
	base
}

func newStub(kind Kind, logger logging.Logger) *stubSource {
	return &stubSource{base: newBase(kind, logger)}
}

func (src *stubSource) ReadDepth(ctx context.Context, dst []float32) bool {
	return false
}

func (src *stubSource) ReadDepthMM(ctx context.Context, dst *rimage.DepthMap) bool {
	return false
}

func (src *stubSource) ReadDepthAndColor(ctx context.Context, depth *rimage.DepthMap, color *rimage.Image) bool {
	return false
}

func (src *stubSource) Restart() {}

func (src *stubSource) Close() error {
	return nil
}
