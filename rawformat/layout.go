// Package rawformat reads and writes the binary depth/color frame container.
//
// A container is a sequence of fixed size records. The standard layout record is
//
//	u32 dw, u32 dh, u16[dw*dh] depth_mm, u32 cw, u32 ch, u8[cw*ch*3] rgb
//
// and the light layout drops the color half:
//
//	u32 dw, u32 dh, u16[dw*dh] depth_mm
//
// All integers are little endian. The dimensions of the first record fix the frame size of
// the whole container, so frame i starts at byte i*RecordSize.
package rawformat

import (
	"strings"

	"github.com/pkg/errors"
)

// Layout selects which record format a container uses.
type Layout int

const (
	// LayoutStandard records carry depth and color.
	LayoutStandard Layout = iota
	// LayoutLight records carry depth only.
	LayoutLight
)

const (
	dimsSize       = 8
	bytesPerDepth  = 2
	bytesPerColor  = 3
	maxFrameLength = 1 << 14
)

// ParseLayout maps a configuration string to a Layout. The empty string is LayoutStandard.
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(s) {
	case "", "standard":
		return LayoutStandard, nil
	case "light":
		return LayoutLight, nil
	default:
		return 0, errors.Errorf("unknown raw layout %q, expected \"standard\" or \"light\"", s)
	}
}

func (l Layout) String() string {
	switch l {
	case LayoutStandard:
		return "standard"
	case LayoutLight:
		return "light"
	default:
		return "unknown"
	}
}

// RecordSize returns the size in bytes of one record of a width x height container.
func RecordSize(layout Layout, width, height int) int64 {
	pixels := int64(width) * int64(height)
	size := dimsSize + pixels*bytesPerDepth
	if layout == LayoutStandard {
		size += dimsSize + pixels*bytesPerColor
	}
	return size
}
