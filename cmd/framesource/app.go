package main

import (
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"go.viam.com/framesource/components/framesource"
	"go.viam.com/framesource/logging"
	"go.viam.com/framesource/rawformat"
)

const (
	// Flags.
	flagConfig      = "config"
	flagDebug       = "debug"
	flagSource      = "source"
	flagKind        = "kind"
	flagData        = "data"
	flagGroundTruth = "groundtruth"
	flagLayout      = "layout"
	flagFPS         = "fps"
	flagBlocking    = "blocking"
	flagIntrinsics  = "intrinsics"
	flagFrames      = "frames"
	flagLoop        = "loop"
	flagFrame       = "frame"
	flagOut         = "out"
	flagStart       = "start"
	flagCount       = "count"
)

func sourceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  flagSource,
			Usage: "name of a source in the config file",
		},
		&cli.StringFlag{
			Name:  flagKind,
			Usage: fmt.Sprintf("kind of source to open, one of %v", framesource.Kinds),
		},
		&cli.StringFlag{
			Name:  flagData,
			Usage: "raw container, scene directory or device `PATH`",
		},
		&cli.StringFlag{
			Name:  flagGroundTruth,
			Usage: "trajectory `FILE` for raw sources",
		},
		&cli.StringFlag{
			Name:  flagLayout,
			Usage: "raw container layout, standard or light",
		},
		&cli.IntFlag{
			Name:  flagFPS,
			Usage: "playback rate of recorded sources, 0 reads as fast as possible",
		},
		&cli.BoolFlag{
			Name:  flagBlocking,
			Usage: "wait for each frame to be due instead of skipping ahead",
		},
		&cli.StringFlag{
			Name:  flagIntrinsics,
			Usage: "load the camera calibration from a json `FILE`",
		},
	}
}

func newApp(logger logging.Logger) *cli.App {
	return &cli.App{
		Name:  "framesource",
		Usage: "inspect and convert depth datasets and sensors",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "Load sources from `FILE`",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool(flagDebug) {
				logger.SetLevel(logging.DEBUG)
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "info",
				Usage:  "print the size and calibration of a source",
				Flags:  sourceFlags(),
				Action: func(c *cli.Context) error { return InfoAction(c, logger) },
			},
			{
				Name:  "play",
				Usage: "read frames from a source and log them",
				Flags: append(sourceFlags(),
					&cli.IntFlag{
						Name:  flagFrames,
						Usage: "stop after `N` frames, 0 reads until the source ends",
					},
					&cli.BoolFlag{
						Name:  flagLoop,
						Usage: "restart recorded sources when they end",
					},
				),
				Action: func(c *cli.Context) error { return PlayAction(c, logger) },
			},
			{
				Name:  "export",
				Usage: "write one frame as a color png and a 16-bit depth tiff",
				Flags: append(sourceFlags(),
					&cli.IntFlag{
						Name:  flagFrame,
						Usage: "index of the frame to export",
					},
					&cli.StringFlag{
						Name:     flagOut,
						Usage:    "output `DIR`",
						Required: true,
					},
				),
				Action: func(c *cli.Context) error { return ExportAction(c, logger) },
			},
			{
				Name:      "convert-scene",
				Usage:     "convert a scene directory into a raw container",
				ArgsUsage: "<scene dir>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     flagOut,
						Usage:    "raw container `FILE` to write",
						Required: true,
					},
					&cli.StringFlag{
						Name:  flagLayout,
						Usage: "raw container layout, standard or light",
						Value: rawformat.LayoutStandard.String(),
					},
					&cli.IntFlag{
						Name:  flagStart,
						Usage: "index of the first scene frame",
					},
					&cli.IntFlag{
						Name:  flagCount,
						Usage: "number of frames to convert, 0 converts until a frame is missing",
					},
				},
				Action: func(c *cli.Context) error { return ConvertSceneAction(c, logger) },
			},
		},
	}
}

func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}
