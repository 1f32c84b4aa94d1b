package framesource

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"

	"go.viam.com/framesource/rimage/transform"
)

const (
	openNIWidth  = 640
	openNIHeight = 480
)

// openNIIntrinsics is the factory calibration of OpenNI VGA depth streams.
func openNIIntrinsics() transform.PinholeCameraIntrinsics {
	return transform.PinholeCameraIntrinsics{
		Width:  openNIWidth,
		Height: openNIHeight,
		Fx:     481.2,
		Fy:     480,
		Ppx:    320,
		Ppy:    240,
	}
}

// openNIStream is one of the two streams an openni2src element can produce.
type openNIStream struct {
	sourceType string
	format     string
}

var (
	openNIDepthStream = openNIStream{sourceType: "depth", format: "GRAY16_LE"}
	openNIColorStream = openNIStream{sourceType: "image", format: "RGB"}
)

// openNIPipeline returns the launch line for one stream of a device, or of an .oni recording
// when location is set.
func openNIPipeline(location string, stream openNIStream) string {
	src := "openni2src sourcetype=" + stream.sourceType
	if location != "" {
		src += fmt.Sprintf(" location=%q", location)
	}
	return fmt.Sprintf(
		"%s ! video/x-raw,format=%s,width=%d,height=%d ! appsink name=sink sync=false max-buffers=1 drop=true",
		src, stream.format, openNIWidth, openNIHeight)
}

// latestFrame holds the newest buffer pushed by a streaming callback.
type latestFrame chan []byte

func newLatestFrame() latestFrame {
	return make(latestFrame, 1)
}

// put replaces any unread buffer with data. It must only be called from one goroutine.
func (f latestFrame) put(data []byte) {
	select {
	case <-f:
	default:
	}
	f <- data
}

// take waits for the next buffer.
func (f latestFrame) take(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case data := <-f:
		return data, nil
	}
}

func decodeGray16LE(data []byte, depth []uint16) error {
	if len(data) != len(depth)*2 {
		return errors.Errorf("depth buffer holds %d bytes, expected %d", len(data), len(depth)*2)
	}
	for i := range depth {
		depth[i] = binary.LittleEndian.Uint16(data[2*i:])
	}
	return nil
}

func decodeRGB(data, rgb []byte) error {
	if len(data) != len(rgb) {
		return errors.Errorf("color buffer holds %d bytes, expected %d", len(data), len(rgb))
	}
	copy(rgb, data)
	return nil
}
