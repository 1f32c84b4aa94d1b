//go:build gst

package framesource

import (
	"context"
	"image"
	"sync"

	"github.com/pkg/errors"
	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
	"go.uber.org/multierr"

	"go.viam.com/framesource/rimage/transform"
)

var gstInitOnce sync.Once

func init() {
	RegisterCaptureDriver(KindOpenNI, CaptureDriverFunc(openOpenNI))
}

// openNICapture pulls depth and, when the device provides it, color buffers from GStreamer
// openni2src pipelines. Without a color stream color outputs are filled with black.
type openNICapture struct {
	depth *gstStream
	color *gstStream
}

// gstStream is a running pipeline ending in an appsink named "sink".
type gstStream struct {
	pipeline *gst.Pipeline
	frames   latestFrame
}

func startGstStream(launch string) (*gstStream, error) {
	pipeline, err := gst.NewPipelineFromString(launch)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create pipeline %q", launch)
	}
	elem, err := pipeline.GetElementByName("sink")
	if err != nil {
		return nil, errors.Wrap(err, "pipeline has no appsink")
	}
	s := &gstStream{pipeline: pipeline, frames: newLatestFrame()}
	app.SinkFromElement(elem).SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: s.onNewSample,
	})
	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		return nil, multierr.Combine(
			errors.Wrapf(err, "failed to start pipeline %q", launch),
			pipeline.SetState(gst.StateNull))
	}
	return s, nil
}

func (s *gstStream) onNewSample(sink *app.Sink) gst.FlowReturn {
	sample := sink.PullSample()
	if sample == nil {
		return gst.FlowOK
	}
	buffer := sample.GetBuffer()
	if buffer == nil {
		return gst.FlowOK
	}
	mapInfo := buffer.Map(gst.MapRead)
	data := append([]byte(nil), mapInfo.Bytes()...)
	buffer.Unmap()
	s.frames.put(data)
	return gst.FlowOK
}

func (s *gstStream) close() error {
	if s == nil {
		return nil
	}
	return s.pipeline.SetState(gst.StateNull)
}

func openOpenNI(ctx context.Context, cfg Config) (Capture, error) {
	gstInitOnce.Do(func() { gst.Init(nil) })

	depth, err := startGstStream(openNIPipeline(cfg.DataPath, openNIDepthStream))
	if err != nil {
		return nil, errors.Wrap(err, "cannot start openni2 depth stream")
	}
	c := &openNICapture{depth: depth}
	// sensors without an image stream still serve depth
	if color, err := startGstStream(openNIPipeline(cfg.DataPath, openNIColorStream)); err == nil {
		c.color = color
	}
	return c, nil
}

func (c *openNICapture) Size() image.Point {
	return image.Point{openNIWidth, openNIHeight}
}

func (c *openNICapture) Intrinsics() transform.PinholeCameraIntrinsics {
	return openNIIntrinsics()
}

func (c *openNICapture) ReadFrame(ctx context.Context, depth []uint16, rgb []byte) error {
	data, err := c.depth.frames.take(ctx)
	if err != nil {
		return errors.Wrap(err, "reading depth stream")
	}
	if err := decodeGray16LE(data, depth); err != nil {
		return err
	}
	if rgb == nil {
		return nil
	}
	if c.color == nil {
		for i := range rgb {
			rgb[i] = 0
		}
		return nil
	}
	if data, err = c.color.frames.take(ctx); err != nil {
		return errors.Wrap(err, "reading color stream")
	}
	return decodeRGB(data, rgb)
}

func (c *openNICapture) Close() error {
	return multierr.Combine(c.depth.close(), c.color.close())
}
