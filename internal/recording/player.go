package recording

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/ayusman/signlens/internal/recognizer"
)

// Player replays a recording as a stream of engine inputs. Timestamps are
// derived from the recording, so the result does not depend on how fast the
// frames are consumed.
type Player struct {
	rec      *Recording
	start    time.Time
	realtime bool
	idx      int
	began    time.Time
}

// NewPlayer creates a player whose first frame is stamped at start. With
// realtime set, Next waits until each frame is due on the wall clock.
func NewPlayer(rec *Recording, start time.Time, realtime bool) *Player {
	return &Player{rec: rec, start: start, realtime: realtime}
}

// Next returns the next input, or io.EOF after the last frame.
func (p *Player) Next(ctx context.Context) (recognizer.Input, error) {
	if p.idx >= len(p.rec.Frames) {
		return recognizer.Input{}, io.EOF
	}
	f := p.rec.Frames[p.idx]

	if p.realtime {
		if p.began.IsZero() {
			p.began = time.Now()
		}
		wait := time.Until(p.began.Add(time.Duration(f.TimeMs) * time.Millisecond))
		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return recognizer.Input{}, ctx.Err()
			case <-timer.C:
			}
		}
	}

	p.idx++
	return f.Input(p.start)
}

// Close is a no-op.
func (p *Player) Close() error { return nil }

// Recorder accumulates engine inputs into a recording.
type Recorder struct {
	mu    sync.Mutex
	rec   Recording
	start time.Time
}

// NewRecorder starts a recording named name.
func NewRecorder(name, mode string) *Recorder {
	return &Recorder{rec: Recording{Name: name, Mode: mode}}
}

// Add appends an input. The first input defines time zero.
func (r *Recorder) Add(in recognizer.Input) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.start.IsZero() {
		r.start = in.Timestamp
	}
	r.rec.Frames = append(r.rec.Frames, FrameFromInput(in, r.start))
}

// Recording returns a copy of what has been recorded so far.
func (r *Recorder) Recording() *Recording {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.rec
	rec.Frames = append([]Frame(nil), r.rec.Frames...)
	return &rec
}
