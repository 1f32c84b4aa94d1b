package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/framesource/components/framesource"
	"go.viam.com/framesource/config"
	"go.viam.com/framesource/logging"
	"go.viam.com/framesource/rawformat"
	"go.viam.com/framesource/rimage"
	"go.viam.com/framesource/rimage/transform"
	"go.viam.com/framesource/scene"
	"go.viam.com/framesource/spatialmath"
)

// sourceConfig builds the source config named by the command flags, either a named source of
// the config file or one described entirely on the command line.
func sourceConfig(c *cli.Context, logger logging.Logger) (framesource.Config, error) {
	var cfg framesource.Config
	if name := c.String(flagSource); name != "" {
		path := c.String(flagConfig)
		if path == "" {
			return cfg, errors.Errorf("--%s requires --%s", flagSource, flagConfig)
		}
		conf, err := config.Read(path, logger)
		if err != nil {
			return cfg, err
		}
		if cfg, err = conf.FindSource(name); err != nil {
			return cfg, err
		}
	} else {
		cfg = framesource.Config{
			Kind:            framesource.Kind(c.String(flagKind)),
			DataPath:        c.String(flagData),
			GroundTruthPath: c.String(flagGroundTruth),
			RawLayout:       c.String(flagLayout),
		}
	}
	if c.IsSet(flagFPS) {
		cfg.FrameRate = c.Int(flagFPS)
	}
	if c.IsSet(flagBlocking) {
		cfg.BlockingRead = c.Bool(flagBlocking)
	}
	if path := c.String(flagIntrinsics); path != "" {
		intr, err := transform.NewPinholeCameraIntrinsicsFromJSONFile(path)
		if err != nil {
			return cfg, errors.Wrapf(err, "cannot read --%s", flagIntrinsics)
		}
		cfg.IntrinsicParameters = intr
	}
	return cfg, cfg.Validate("")
}

func openSource(c *cli.Context, cfg framesource.Config, logger logging.Logger) (framesource.Source, error) {
	src, err := framesource.New(c.Context, cfg, logger)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open %s source %q", cfg.Kind, cfg.DataPath)
	}
	return src, nil
}

// InfoAction prints the kind, size and calibration of a source.
func InfoAction(c *cli.Context, logger logging.Logger) error {
	cfg, err := sourceConfig(c, logger)
	if err != nil {
		return err
	}
	src, err := openSource(c, cfg, logger)
	if err != nil {
		return err
	}
	defer goutils.UncheckedErrorFunc(src.Close)

	size := src.FrameSize()
	intr := src.Intrinsics()
	printf(c.App.Writer, "kind:\t%s", src.Kind())
	printf(c.App.Writer, "state:\t%s", src.State())
	printf(c.App.Writer, "size:\t%dx%d", size.X, size.Y)
	printf(c.App.Writer, "fx fy:\t%g %g", intr.Fx, intr.Fy)
	printf(c.App.Writer, "cx cy:\t%g %g", intr.Ppx, intr.Ppy)
	if !intr.IsZero() {
		printf(c.App.Writer, "K:\t%v", mat.Formatted(intr.GetCameraMatrix(), mat.Prefix("\t"), mat.Squeeze()))
	}

	if cfg.Kind != framesource.KindRaw {
		return nil
	}
	layout, err := rawformat.ParseLayout(cfg.RawLayout)
	if err != nil {
		return err
	}
	r, err := rawformat.Open(cfg.DataPath, layout, logger)
	if err != nil {
		return err
	}
	defer goutils.UncheckedErrorFunc(r.Close)
	printf(c.App.Writer, "layout:\t%s", layout)
	printf(c.App.Writer, "frames:\t%d", r.FrameCount())
	return nil
}

// PlayAction reads frames until the source ends, logging a summary of each.
func PlayAction(c *cli.Context, logger logging.Logger) error {
	cfg, err := sourceConfig(c, logger)
	if err != nil {
		return err
	}
	src, err := openSource(c, cfg, logger)
	if err != nil {
		return err
	}
	defer goutils.UncheckedErrorFunc(src.Close)

	size := src.FrameSize()
	depth := rimage.NewEmptyDepthMap(size.X, size.Y)
	color := rimage.NewImage(size.X, size.Y)
	pose := spatialmath.NewZeroPose()
	withPose := cfg.GroundTruthPath != ""
	limit := c.Int(flagFrames)
	loop := c.Bool(flagLoop) && !cfg.Kind.IsLive()

	read, misses := 0, 0
	for limit == 0 || read < limit {
		if c.Context.Err() != nil {
			break
		}
		var ok bool
		if withPose {
			ok = src.ReadDepthColorAndPose(c.Context, depth, color, &pose)
		} else {
			ok = src.ReadDepthAndColor(c.Context, depth, color)
		}
		if !ok {
			// a source that fails right after a restart holds no frames
			if !loop || misses > 0 {
				break
			}
			misses++
			src.Restart()
			continue
		}
		misses = 0
		read++

		lo, hi := depth.MinMax()
		fields := []interface{}{"frame", src.FrameIndex(), "min_mm", lo, "max_mm", hi}
		if withPose {
			pt := pose.Point()
			q := pose.Orientation()
			fields = append(fields, "x", pt[0], "y", pt[1], "z", pt[2],
				"qx", q.Imag, "qy", q.Jmag, "qz", q.Kmag, "qw", q.Real)
			if center, ok := principalPoint(src.Intrinsics(), depth, pose); ok {
				fields = append(fields, "center", center)
			}
		}
		logger.Infow("frame", fields...)
	}
	printf(c.App.Writer, "read %d frames", read)
	return nil
}

// principalPoint returns the world position of the surface seen along the optical axis, or
// false when the calibration is unknown or the depth there is missing.
func principalPoint(intr transform.PinholeCameraIntrinsics, depth *rimage.DepthMap, pose spatialmath.Pose) (mgl64.Vec3, bool) {
	if intr.IsZero() {
		return mgl64.Vec3{}, false
	}
	u, v := int(math.Round(intr.Ppx)), int(math.Round(intr.Ppy))
	if !depth.Contains(u, v) || depth.GetDepth(u, v) == 0 {
		return mgl64.Vec3{}, false
	}
	z := float64(rimage.MillimetersToMeters(depth.GetDepth(u, v)))
	x, y, z := intr.PixelToPoint(float64(u), float64(v), z)
	return pose.TransformPoint(mgl64.Vec3{x, y, z}), true
}

// ExportAction writes frame --frame of a source as a color png and a depth tiff.
func ExportAction(c *cli.Context, logger logging.Logger) error {
	cfg, err := sourceConfig(c, logger)
	if err != nil {
		return err
	}
	// recorded sources are read as fast as possible so no frame is skipped
	cfg.FrameRate = 0
	want := c.Int(flagFrame)
	if want < 0 {
		return errors.Errorf("--%s must not be negative", flagFrame)
	}
	src, err := openSource(c, cfg, logger)
	if err != nil {
		return err
	}
	defer goutils.UncheckedErrorFunc(src.Close)

	size := src.FrameSize()
	depth := rimage.NewEmptyDepthMap(size.X, size.Y)
	color := rimage.NewImage(size.X, size.Y)
	for src.FrameIndex() < want {
		if !src.ReadDepthAndColor(c.Context, depth, color) {
			return errors.Errorf("source ended at frame %d before frame %d", src.FrameIndex()+1, want)
		}
	}

	out := c.String(flagOut)
	if err := os.MkdirAll(out, 0o750); err != nil {
		return err
	}
	base := filepath.Join(out, fmt.Sprintf("frame_%04d", want))
	if err := rimage.WriteImageToFile(base+".png", color); err != nil {
		return err
	}
	if err := rimage.WriteDepthMapToFile(base+".tiff", depth); err != nil {
		return err
	}
	printf(c.App.Writer, "wrote %s.png and %s.tiff", base, base)
	return nil
}

// ConvertSceneAction converts the frames of a scene directory into a raw container.
func ConvertSceneAction(c *cli.Context, logger logging.Logger) (err error) {
	if c.NArg() != 1 {
		return errors.New("expected exactly one scene directory")
	}
	layout, err := rawformat.ParseLayout(c.String(flagLayout))
	if err != nil {
		return err
	}
	start, count := c.Int(flagStart), c.Int(flagCount)
	if start < 0 || count < 0 {
		return errors.Errorf("--%s and --%s must not be negative", flagStart, flagCount)
	}
	dec, err := scene.NewDecoder(c.Args().First(), logger)
	if err != nil {
		return err
	}
	w, err := rawformat.Create(c.String(flagOut), layout, scene.Width, scene.Height)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, w.Close())
	}()

	meters := make([]float32, scene.Width*scene.Height)
	depth := rimage.NewEmptyDepthMap(scene.Width, scene.Height)
	for idx := start; count == 0 || idx < start+count; idx++ {
		if err := c.Context.Err(); err != nil {
			return err
		}
		if _, err := dec.ReadFrame(idx, meters); err != nil {
			if count == 0 && errors.Is(err, os.ErrNotExist) {
				break
			}
			return errors.Wrapf(err, "converting scene frame %d", idx)
		}
		if err := depth.SetFromMeters(meters); err != nil {
			return err
		}
		if err := w.WriteFrame(depth, nil); err != nil {
			return err
		}
	}
	printf(c.App.Writer, "wrote %d frames to %s", w.Frames(), c.String(flagOut))
	return nil
}
