package utils

import (
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestConfigValidationErrors(t *testing.T) {
	err := NewConfigValidationFieldRequiredError("sources.0", "data_path")
	test.That(t, err.Error(), test.ShouldEqual, `error validating "sources.0": "data_path" is required`)

	inner := errors.New("bad frame_rate")
	err = NewConfigValidationError("sources.1", inner)
	test.That(t, errors.Is(err, inner), test.ShouldBeTrue)
}
