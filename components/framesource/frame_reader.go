package framesource

import (
	"context"
	"image"

	"github.com/pion/mediadevices/pkg/io/video"
)

type frameRead struct {
	img     image.Image
	release func()
	err     error
}

// singleFlightReader keeps at most one Read in flight on its stream. A read abandoned by a
// cancelled context stays pending and its frame is handed to the next caller.
// It is not safe for concurrent use.
type singleFlightReader struct {
	r       video.Reader
	pending chan frameRead
}

func newSingleFlightReader(r video.Reader) *singleFlightReader {
	return &singleFlightReader{r: r}
}

// Read returns the next frame, or ctx.Err() if ctx ends first. The caller must call release
// when it is non-nil.
func (s *singleFlightReader) Read(ctx context.Context) (image.Image, func(), error) {
	if s.pending == nil {
		done := make(chan frameRead, 1)
		go func() {
			img, release, err := s.r.Read()
			done <- frameRead{img, release, err}
		}()
		s.pending = done
	}
	select {
	case res := <-s.pending:
		s.pending = nil
		return res.img, res.release, res.err
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
}

// Drain waits for a pending read to finish and releases its frame. Call it after the
// underlying stream is closed so the read can return.
func (s *singleFlightReader) Drain() {
	if s.pending == nil {
		return
	}
	if res := <-s.pending; res.release != nil {
		res.release()
	}
	s.pending = nil
}
