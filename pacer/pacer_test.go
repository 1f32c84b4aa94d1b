package pacer

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.viam.com/test"
)

func TestUnthrottled(t *testing.T) {
	mock := clock.NewMock()
	p := New(0, true, mock)
	test.That(t, p.FramePeriod(), test.ShouldEqual, time.Duration(0))

	frame := -1
	for i := 0; i < 5; i++ {
		frame = p.Advance(frame)
		test.That(t, frame, test.ShouldEqual, i)
	}
}

func TestOneFramePerPeriod(t *testing.T) {
	for _, fps := range []int{1, 7, 30, 60} {
		mock := clock.NewMock()
		p := New(fps, false, mock)

		frame := p.Advance(-1)
		test.That(t, frame, test.ShouldEqual, 0)
		for i := 1; i <= 200; i++ {
			mock.Add(p.FramePeriod())
			frame = p.Advance(frame)
			test.That(t, frame, test.ShouldEqual, i)
		}
	}
}

func TestMonotoneAndSkipping(t *testing.T) {
	mock := clock.NewMock()
	p := New(30, false, mock)

	frame := p.Advance(-1)
	prev := frame
	for _, step := range []time.Duration{
		time.Millisecond, 10 * time.Millisecond, 0, 100 * time.Millisecond, 33 * time.Millisecond, time.Second,
	} {
		mock.Add(step)
		frame = p.Advance(frame)
		test.That(t, frame, test.ShouldBeGreaterThanOrEqualTo, prev)
		prev = frame
	}
	// 1.144s at 30fps
	test.That(t, frame, test.ShouldEqual, 35)

	mock.Add(time.Nanosecond)
	test.That(t, p.Advance(frame), test.ShouldEqual, 35)
}

func TestReset(t *testing.T) {
	mock := clock.NewMock()
	p := New(10, false, mock)

	p.Advance(-1)
	mock.Add(time.Second)
	test.That(t, p.Advance(0), test.ShouldEqual, 10)

	p.Reset()
	test.That(t, p.Advance(-1), test.ShouldEqual, 0)
	mock.Add(100 * time.Millisecond)
	test.That(t, p.Advance(0), test.ShouldEqual, 1)
}

func TestBlockingSleepsUntilDue(t *testing.T) {
	const fps = 20
	p := New(fps, true, clock.New())
	start := time.Now()

	frame := p.Advance(-1)
	test.That(t, frame, test.ShouldEqual, 0)
	for i := 0; i < 5; i++ {
		frame = p.Advance(frame)
	}
	elapsed := time.Since(start)
	// every call after the first waits until its frame is due, so the frame reached cannot be ahead of
	// the wall clock
	test.That(t, elapsed, test.ShouldBeGreaterThanOrEqualTo, time.Duration(frame)*p.FramePeriod()-time.Millisecond)
	test.That(t, frame, test.ShouldBeGreaterThanOrEqualTo, 5)
}

func TestNonBlockingNeverSleeps(t *testing.T) {
	mock := clock.NewMock()
	p := New(1, false, mock)
	done := make(chan int)
	go func() {
		frame := p.Advance(-1)
		mock.Add(10 * time.Millisecond)
		done <- p.Advance(frame)
	}()
	select {
	case frame := <-done:
		test.That(t, frame, test.ShouldEqual, 1)
	case <-time.After(5 * time.Second):
		t.Fatal("non blocking pacer slept")
	}
}
