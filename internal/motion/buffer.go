// Package motion keeps a short history of hand snapshots and recognizes
// dynamic gestures from the trajectory they trace.
package motion

import (
	"time"

	"github.com/ayusman/signlens/internal/detector"
	"github.com/ayusman/signlens/internal/handpose"
)

// DefaultCapacity holds about one second of frames at 20 fps.
const DefaultCapacity = 20

// Frame is a snapshot of one tracked hand.
type Frame struct {
	Timestamp time.Time
	Center    detector.Point2D
	Fingers   handpose.FingerState
	Shape     handpose.Shape
	Letter    string
	Landmarks detector.HandLandmarks
	Face      *detector.FaceLandmarks
}

// NewFrame snapshots a hand, deriving its center and coarse shape.
func NewFrame(ts time.Time, hand *detector.HandLandmarks, letter string, face *detector.FaceLandmarks) Frame {
	fingers := handpose.ExtractFingers(hand)
	return Frame{
		Timestamp: ts,
		Center:    hand.Center(),
		Fingers:   fingers,
		Shape:     fingers.Shape(),
		Letter:    letter,
		Landmarks: *hand,
		Face:      face,
	}
}

// Buffer is a bounded FIFO of frames. Appending beyond capacity evicts the
// oldest frame. It is not safe for concurrent use.
type Buffer struct {
	frames   []Frame
	capacity int
}

// NewBuffer creates a buffer. A non-positive capacity uses DefaultCapacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		frames:   make([]Frame, 0, capacity),
		capacity: capacity,
	}
}

// Append adds a frame, evicting the oldest when full.
func (b *Buffer) Append(f Frame) {
	if len(b.frames) >= b.capacity {
		copy(b.frames, b.frames[1:])
		b.frames = b.frames[:b.capacity-1]
	}
	b.frames = append(b.frames, f)
}

// Len returns the number of buffered frames.
func (b *Buffer) Len() int { return len(b.frames) }

// Cap returns the buffer capacity.
func (b *Buffer) Cap() int { return b.capacity }

// Last returns a copy of the k most recent frames, oldest first, or nil when
// fewer than k are buffered.
func (b *Buffer) Last(k int) []Frame {
	if k <= 0 || len(b.frames) < k {
		return nil
	}
	out := make([]Frame, k)
	copy(out, b.frames[len(b.frames)-k:])
	return out
}

// Frames returns a copy of all buffered frames, oldest first.
func (b *Buffer) Frames() []Frame {
	out := make([]Frame, len(b.frames))
	copy(out, b.frames)
	return out
}

// Clear drops every frame.
func (b *Buffer) Clear() {
	b.frames = b.frames[:0]
}
