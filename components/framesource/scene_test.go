package framesource

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"

	"go.viam.com/framesource/logging"
	"go.viam.com/framesource/rimage"
	"go.viam.com/framesource/scene"
	"go.viam.com/framesource/spatialmath"
)

func writeSceneFixture(t *testing.T, frames int) string {
	t.Helper()
	dir := t.TempDir()
	rays := make([]float32, scene.Width*scene.Height)
	for i := 0; i < frames; i++ {
		for j := range rays {
			rays[j] = float32(i+1) + float32(j%10)/8
		}
		test.That(t, scene.WriteFrame(dir, i, rays), test.ShouldBeNil)
	}
	return dir
}

func TestSceneSource(t *testing.T) {
	ctx := context.Background()
	src := openSource(t, Config{Kind: KindScene, DataPath: writeSceneFixture(t, 2)})

	test.That(t, src.Kind(), test.ShouldEqual, KindScene)
	test.That(t, src.State(), test.ShouldEqual, StateOpenActive)
	test.That(t, src.FrameSize().X, test.ShouldEqual, 640)
	test.That(t, src.FrameSize().Y, test.ShouldEqual, 480)
	k := src.Intrinsics()
	test.That(t, k.Fx, test.ShouldEqual, 481.20)
	test.That(t, k.Fy, test.ShouldEqual, 480.00)
	test.That(t, k.Ppx, test.ShouldEqual, 319.50)
	test.That(t, k.Ppy, test.ShouldEqual, 239.50)

	meters := make([]float32, scene.Width*scene.Height)
	test.That(t, src.ReadDepth(ctx, meters), test.ShouldBeTrue)
	test.That(t, src.FrameIndex(), test.ShouldEqual, 0)
	// pixel (0, 0) holds a ray of length 1
	test.That(t, meters[0], test.ShouldEqual, float32(1/scene.UndistortionDivisor(0, 0)))

	depth := rimage.NewEmptyDepthMap(scene.Width, scene.Height)
	color := rimage.NewImage(scene.Width, scene.Height)
	color.Pix()[0] = 99
	test.That(t, src.ReadDepthAndColor(ctx, depth, color), test.ShouldBeTrue)
	test.That(t, src.FrameIndex(), test.ShouldEqual, 1)
	test.That(t, depth.GetDepth(0, 0), test.ShouldEqual, rimage.MetersToMillimeters(float32(2/scene.UndistortionDivisor(0, 0))))
	test.That(t, color.Pix()[0], test.ShouldEqual, byte(99))

	test.That(t, src.ReadDepthMM(ctx, depth), test.ShouldBeFalse)
	test.That(t, src.State(), test.ShouldEqual, StateOpenInactive)
	test.That(t, src.FrameIndex(), test.ShouldEqual, 1)

	pose := spatialmath.NewZeroPose()
	test.That(t, src.ReadDepthColorAndPose(ctx, depth, nil, &pose), test.ShouldBeFalse)

	src.Restart()
	test.That(t, src.FrameIndex(), test.ShouldEqual, -1)
	again := make([]float32, len(meters))
	test.That(t, src.ReadDepth(ctx, again), test.ShouldBeTrue)
	test.That(t, again, test.ShouldResemble, meters)
}

func TestSceneOpenFailure(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "scene_00_0000.depth")
	test.That(t, os.WriteFile(file, []byte("1 2 3"), 0o600), test.ShouldBeNil)

	src, err := New(context.Background(), Config{Kind: KindScene, DataPath: file}, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, src.IsOpen(), test.ShouldBeFalse)
	test.That(t, src.ReadDepth(context.Background(), make([]float32, scene.Width*scene.Height)), test.ShouldBeFalse)
}
