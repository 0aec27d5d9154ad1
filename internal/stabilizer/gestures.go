package stabilizer

import (
	"time"

	"github.com/ayusman/signlens/internal/motion"
)

// DefaultGestureInterval is the gesture evaluation cadence.
const DefaultGestureInterval = 2000 * time.Millisecond

// suppressions maps a gesture to the one it silences when both match in
// the same cycle.
var suppressions = map[motion.GestureType]motion.GestureType{
	motion.Please:   motion.Sorry,
	motion.ThankYou: motion.Yes,
}

// Decision is the outcome of one gesture evaluation.
type Decision struct {
	Gesture    motion.GestureType `json:"gesture,omitempty"`
	Confidence float64            `json:"confidence"`
	Patterns   []motion.Pattern   `json:"-"`
}

// None reports a neutral cycle.
func (d Decision) None() bool {
	return d.Gesture == ""
}

// Arbitrate picks at most one gesture out of a cycle's patterns. Suppression
// pairs are applied first, then the highest priority survivor wins.
func Arbitrate(patterns []motion.Pattern) Decision {
	detected := make(map[motion.GestureType]motion.Pattern, len(patterns))
	for _, p := range patterns {
		if p.Detected {
			detected[p.Type] = p
		}
	}
	for winner, loser := range suppressions {
		if _, ok := detected[winner]; ok {
			delete(detected, loser)
		}
	}

	d := Decision{Patterns: patterns}
	best := -1
	for g, p := range detected {
		det, ok := motion.Lookup(g)
		if !ok {
			continue
		}
		if best < 0 || det.Priority < best {
			best = det.Priority
			d.Gesture, d.Confidence = g, p.Confidence
		}
	}
	return d
}

// GestureStream evaluates the gesture detectors on a fixed cadence.
// It is not safe for concurrent use.
type GestureStream struct {
	interval time.Duration
	last     time.Time
	started  bool
}

// NewGestureStream creates a stream evaluating every interval. A
// non-positive interval uses DefaultGestureInterval.
func NewGestureStream(interval time.Duration) *GestureStream {
	if interval <= 0 {
		interval = DefaultGestureInterval
	}
	return &GestureStream{interval: interval}
}

// Tick runs an evaluation when the cadence is due and reports whether it
// did. The first evaluation is due one interval after the first tick. A
// matched gesture clears buf; a neutral cycle leaves it accumulating.
func (g *GestureStream) Tick(now time.Time, buf *motion.Buffer, cue motion.FaceCue) (Decision, bool) {
	if !g.started {
		g.started, g.last = true, now
		return Decision{}, false
	}
	if now.Sub(g.last) < g.interval {
		return Decision{}, false
	}
	g.last = now

	d := Arbitrate(motion.DetectAll(buf.Frames(), cue))
	if !d.None() {
		buf.Clear()
	}
	return d, true
}

// Reset restarts the cadence from the next tick.
func (g *GestureStream) Reset() {
	g.started = false
	g.last = time.Time{}
}
