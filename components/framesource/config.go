package framesource

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/framesource/rawformat"
	"go.viam.com/framesource/rimage/transform"
	"go.viam.com/framesource/spatialmath"
	"go.viam.com/framesource/utils"
)

// DefaultCaptureTimeout bounds how long a live read waits for the device.
const DefaultCaptureTimeout = 5 * time.Second

// Config describes how to open a source. It is fixed for the lifetime of the source.
type Config struct {
	Kind Kind `json:"kind"`

	// FrameRate paces recorded sources, in frames per second. Zero disables pacing.
	FrameRate int `json:"frame_rate,omitempty"`
	// BlockingRead makes paced reads sleep until the frame they return is due.
	BlockingRead bool `json:"blocking_read,omitempty"`

	// DataPath is the raw container, the scene directory or the live device.
	DataPath string `json:"data_path"`
	// GroundTruthPath is an optional trajectory file for raw sources.
	GroundTruthPath string `json:"groundtruth_path,omitempty"`
	// Transform is a row-major 4x4 transform premultiplied onto every ground truth pose. It
	// may mirror or scale; only its bottom row must be [0 0 0 1]. Nil is the identity.
	Transform *[16]float64 `json:"transform,omitempty"`

	// RawLayout is "standard" or "light".
	RawLayout string `json:"raw_layout,omitempty"`

	// ColorPath is the device node of the color stream of a RealSense sensor.
	ColorPath string `json:"color_path,omitempty"`
	// IntrinsicParameters overrides the default calibration of the source, or the one reported
	// by a live device.
	IntrinsicParameters *transform.PinholeCameraIntrinsics `json:"intrinsic_parameters,omitempty"`
	// CaptureTimeout bounds a single live read.
	CaptureTimeout time.Duration `json:"capture_timeout,omitempty"`

	// clock drives pacing; nil is the wall clock.
	clock clock.Clock
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	if cfg.Kind == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "kind")
	}
	if !lo.Contains(Kinds, cfg.Kind) {
		return utils.NewConfigValidationError(path, errors.Wrapf(ErrUnknownKind, "%q", cfg.Kind))
	}
	if cfg.FrameRate < 0 {
		return utils.NewConfigValidationError(path, errors.Errorf("frame_rate must not be negative, got %d", cfg.FrameRate))
	}
	if cfg.CaptureTimeout < 0 {
		return utils.NewConfigValidationError(path, errors.Errorf("capture_timeout must not be negative, got %v", cfg.CaptureTimeout))
	}
	if !cfg.Kind.IsLive() && cfg.DataPath == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "data_path")
	}
	if cfg.Kind != KindRaw && cfg.GroundTruthPath != "" {
		return utils.NewConfigValidationError(path, errors.Errorf("groundtruth_path is only supported by %q sources", KindRaw))
	}
	if _, err := rawformat.ParseLayout(cfg.RawLayout); err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	if _, err := cfg.pose(); err != nil {
		return utils.NewConfigValidationError(path, errors.Wrap(err, "invalid transform"))
	}
	if cfg.IntrinsicParameters != nil {
		if err := cfg.IntrinsicParameters.CheckValid(); err != nil {
			return utils.NewConfigValidationError(path, err)
		}
	}
	return nil
}

func (cfg Config) withDefaults() Config {
	if cfg.CaptureTimeout == 0 {
		cfg.CaptureTimeout = DefaultCaptureTimeout
	}
	return cfg
}

// pose returns the ground truth transform.
func (cfg *Config) pose() (spatialmath.Pose, error) {
	if cfg.Transform == nil {
		return spatialmath.NewZeroPose(), nil
	}
	return spatialmath.NewTransformFromRows(*cfg.Transform)
}
