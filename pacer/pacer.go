// Package pacer paces playback of recorded frames so a file source advances at the rate a
// live sensor would.
package pacer

import (
	"time"

	"github.com/benbjohnson/clock"
)

// Pacer maps wall clock time since the first Advance to a frame index.
type Pacer struct {
	fps      int64
	blocking bool
	clock    clock.Clock

	started bool
	t0      time.Time
}

// New returns a pacer for the given frame rate. A rate of zero disables pacing. When blocking
// is set, Advance sleeps until the frame it returns is due.
func New(fps int, blocking bool, clk clock.Clock) *Pacer {
	if clk == nil {
		clk = clock.New()
	}
	if fps < 0 {
		fps = 0
	}
	return &Pacer{fps: int64(fps), blocking: blocking, clock: clk}
}

// FPS returns the target frame rate.
func (p *Pacer) FPS() int {
	return int(p.fps)
}

// Blocking returns whether Advance sleeps.
func (p *Pacer) Blocking() bool {
	return p.blocking
}

// FramePeriod returns the nominal time between frames, or zero when pacing is disabled.
func (p *Pacer) FramePeriod() time.Duration {
	if p.fps == 0 {
		return 0
	}
	return time.Second / time.Duration(p.fps)
}

// Advance returns the frame that should be current given the current frame. With pacing
// disabled that is always current+1. Otherwise it is ceil(elapsed*fps) where elapsed is the
// time since the first call, so slow callers skip frames. The result never decreases.
func (p *Pacer) Advance(current int) int {
	if p.fps == 0 {
		return current + 1
	}
	now := p.clock.Now()
	if !p.started {
		p.started = true
		p.t0 = now
	}
	elapsed := int64(now.Sub(p.t0))
	if elapsed < 0 {
		elapsed = 0
	}
	const second = int64(time.Second)
	frame := (elapsed*p.fps + second - 1) / second

	if p.blocking {
		due := frame * second / p.fps
		if wait := time.Duration(due - elapsed); wait > 0 {
			p.clock.Sleep(wait)
		}
	}
	return int(frame)
}

// Reset forgets the start time so the next Advance starts a new timeline at frame 0.
func (p *Pacer) Reset() {
	p.started = false
	p.t0 = time.Time{}
}
