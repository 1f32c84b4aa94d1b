package framesource

import (
	"context"
	"testing"

	"go.viam.com/test"
)

func TestOpenNIPipeline(t *testing.T) {
	test.That(t, openNIPipeline("", openNIDepthStream), test.ShouldEqual,
		"openni2src sourcetype=depth ! video/x-raw,format=GRAY16_LE,width=640,height=480 ! "+
			"appsink name=sink sync=false max-buffers=1 drop=true")
	launch := openNIPipeline("/data/room.oni", openNIColorStream)
	test.That(t, launch, test.ShouldStartWith, `openni2src sourcetype=image location="/data/room.oni" ! `)
	test.That(t, launch, test.ShouldContainSubstring, "format=RGB,")

	intr := openNIIntrinsics()
	test.That(t, intr.CheckValid(), test.ShouldBeNil)
	test.That(t, intr.Fx, test.ShouldEqual, 481.2)
	test.That(t, intr.Ppy, test.ShouldEqual, 240.)
}

func TestLatestFrame(t *testing.T) {
	f := newLatestFrame()
	f.put([]byte{1})
	f.put([]byte{2})
	data, err := f.take(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, data, test.ShouldResemble, []byte{2})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.take(ctx)
	test.That(t, err, test.ShouldEqual, context.Canceled)
}

func TestDecodeOpenNIBuffers(t *testing.T) {
	depth := make([]uint16, 2)
	test.That(t, decodeGray16LE([]byte{0x34, 0x12, 0xff, 0x00}, depth), test.ShouldBeNil)
	test.That(t, depth, test.ShouldResemble, []uint16{0x1234, 0x00ff})
	err := decodeGray16LE([]byte{1, 2, 3}, depth)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "holds 3 bytes, expected 4")

	rgb := make([]byte, 6)
	test.That(t, decodeRGB([]byte{1, 2, 3, 4, 5, 6}, rgb), test.ShouldBeNil)
	test.That(t, rgb, test.ShouldResemble, []byte{1, 2, 3, 4, 5, 6})
	test.That(t, decodeRGB([]byte{1, 2, 3}, rgb), test.ShouldNotBeNil)
}
