package motion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/signlens/internal/detector"
	"github.com/ayusman/signlens/internal/handpose"
)

var (
	openHand  = handpose.FingerState{Thumb: true, Index: true, Middle: true, Ring: true, Pinky: true}
	thumbFist = handpose.FingerState{Thumb: true}
)

// path builds frames whose centers follow pts, all with the same fingers.
func path(fingers handpose.FingerState, pts ...detector.Point2D) []Frame {
	frames := make([]Frame, len(pts))
	for i, p := range pts {
		frames[i] = frameAt(i)
		frames[i].Center = p
		frames[i].Fingers = fingers
		frames[i].Shape = fingers.Shape()
	}
	return frames
}

func line(n int, from, to detector.Point2D) []detector.Point2D {
	pts := make([]detector.Point2D, n)
	for i := range pts {
		t := float64(i) / float64(n-1)
		pts[i] = detector.Point2D{X: from.X + t*(to.X-from.X), Y: from.Y + t*(to.Y-from.Y)}
	}
	return pts
}

// arc places n points on a circle of radius r around c, from angle 0 in
// equal steps of sweep/(n-1), or sweep/n when closed.
func arc(n int, c detector.Point2D, r, sweep float64, closed bool) []detector.Point2D {
	div := float64(n - 1)
	if closed {
		div = float64(n)
	}
	pts := make([]detector.Point2D, n)
	for k := range pts {
		theta := float64(k) * sweep / div
		pts[k] = detector.Point2D{X: c.X + r*math.Cos(theta), Y: c.Y + r*math.Sin(theta)}
	}
	return pts
}

func detect(t *testing.T, g GestureType, frames []Frame, cue FaceCue) Pattern {
	t.Helper()
	d, ok := Lookup(g)
	require.True(t, ok, "no detector for %s", g)
	return d.Detect(frames, cue)
}

func TestHello(t *testing.T) {
	t.Run("leftward sweep at forehead height", func(t *testing.T) {
		frames := path(openHand, line(8, detector.Point2D{X: 0.6, Y: 0.3}, detector.Point2D{X: 0.5, Y: 0.3})...)
		assert.Equal(t, Pattern{Type: Hello, Detected: true, Confidence: 0.8}, detect(t, Hello, frames, FaceCue{}))
	})

	t.Run("large rightward sweep", func(t *testing.T) {
		frames := path(openHand, line(8, detector.Point2D{X: 0.4, Y: 0.3}, detector.Point2D{X: 0.5, Y: 0.3})...)
		assert.True(t, detect(t, Hello, frames, FaceCue{}).Detected)
	})

	t.Run("too low", func(t *testing.T) {
		frames := path(openHand, line(8, detector.Point2D{X: 0.6, Y: 0.5}, detector.Point2D{X: 0.5, Y: 0.5})...)
		assert.False(t, detect(t, Hello, frames, FaceCue{}).Detected)
	})

	t.Run("seven frames are not enough", func(t *testing.T) {
		frames := path(openHand, line(7, detector.Point2D{X: 0.6, Y: 0.3}, detector.Point2D{X: 0.5, Y: 0.3})...)
		p := detect(t, Hello, frames, FaceCue{})
		assert.False(t, p.Detected)
		assert.Zero(t, p.Confidence)
	})

	t.Run("only the last eight frames count", func(t *testing.T) {
		still := path(openHand, line(8, detector.Point2D{X: 0.5, Y: 0.3}, detector.Point2D{X: 0.5, Y: 0.3})...)
		moving := path(openHand, line(4, detector.Point2D{X: 0.9, Y: 0.3}, detector.Point2D{X: 0.5, Y: 0.3})...)
		assert.False(t, detect(t, Hello, append(moving, still...), FaceCue{}).Detected)
	})
}

func TestThankYou(t *testing.T) {
	frames := path(openHand, line(6, detector.Point2D{X: 0.5, Y: 0.5}, detector.Point2D{X: 0.4, Y: 0.5})...)

	t.Run("near the chin", func(t *testing.T) {
		cue := FaceCue{ChinDetected: true, Chin: detector.Point2D{X: 0.5, Y: 0.55}}
		assert.Equal(t, Pattern{Type: ThankYou, Detected: true, Confidence: 0.9}, detect(t, ThankYou, frames, cue))
	})

	t.Run("chest band without a face", func(t *testing.T) {
		assert.Equal(t, Pattern{Type: ThankYou, Detected: true, Confidence: 0.8}, detect(t, ThankYou, frames, FaceCue{}))
	})

	t.Run("far from a detected chin", func(t *testing.T) {
		cue := FaceCue{ChinDetected: true, Chin: detector.Point2D{X: 0.5, Y: 0.2}}
		assert.False(t, detect(t, ThankYou, frames, cue).Detected)
	})

	t.Run("closed hand", func(t *testing.T) {
		closed := path(thumbFist, line(6, detector.Point2D{X: 0.5, Y: 0.5}, detector.Point2D{X: 0.4, Y: 0.5})...)
		assert.False(t, detect(t, ThankYou, closed, FaceCue{}).Detected)
	})

	t.Run("backward movement", func(t *testing.T) {
		back := path(openHand, line(6, detector.Point2D{X: 0.4, Y: 0.5}, detector.Point2D{X: 0.5, Y: 0.5})...)
		assert.False(t, detect(t, ThankYou, back, FaceCue{}).Detected)
	})

	t.Run("no forward movement", func(t *testing.T) {
		still := path(openHand, line(6, detector.Point2D{X: 0.5, Y: 0.5}, detector.Point2D{X: 0.47, Y: 0.5})...)
		assert.False(t, detect(t, ThankYou, still, FaceCue{}).Detected)
	})
}

func TestPlease_FullCircle(t *testing.T) {
	frames := path(openHand, arc(10, detector.Point2D{X: 0.5, Y: 0.5}, 0.1, 2*math.Pi, true)...)

	assert.Equal(t, Pattern{Type: Please, Detected: true, Confidence: 0.85}, detect(t, Please, frames, FaceCue{}))
	assert.False(t, detect(t, Sorry, frames, FaceCue{}).Detected, "open hand is not a sorry")
}

func TestPlease_RequiresOpenHand(t *testing.T) {
	frames := path(thumbFist, arc(10, detector.Point2D{X: 0.5, Y: 0.5}, 0.1, 2*math.Pi, true)...)
	assert.False(t, detect(t, Please, frames, FaceCue{}).Detected)
}

func TestPlease_OutsideChestBand(t *testing.T) {
	frames := path(openHand, arc(10, detector.Point2D{X: 0.5, Y: 0.2}, 0.1, 2*math.Pi, true)...)
	assert.False(t, detect(t, Please, frames, FaceCue{}).Detected)
}

func TestSorry_QuarterCircle(t *testing.T) {
	frames := path(thumbFist, arc(10, detector.Point2D{X: 0.5, Y: 0.5}, 0.1, math.Pi/2, false)...)

	assert.Equal(t, Pattern{Type: Sorry, Detected: true, Confidence: 0.75}, detect(t, Sorry, frames, FaceCue{}))
	assert.False(t, detect(t, Please, frames, FaceCue{}).Detected)
}

func TestTurnSteps_FirstStepFromXAxis(t *testing.T) {
	// Seen from (0.5, 0.5), the second frame lies straight up the y axis:
	// its whole bearing counts as the first step.
	frames := path(thumbFist,
		detector.Point2D{X: 0.5, Y: 0.5},
		detector.Point2D{X: 0.5, Y: 0.6},
		detector.Point2D{X: 0.4, Y: 0.6},
	)
	steps := turnSteps(frames)
	require.Len(t, steps, 2)
	assert.InDelta(t, math.Pi/2, steps[0], 1e-12)
	assert.InDelta(t, math.Pi/4, steps[1], 1e-12)
}

func TestSorry_DependsOnStartingPoint(t *testing.T) {
	// The same quarter circle, rotated to start a quarter turn later.
	pts := arc(10, detector.Point2D{X: 0.5, Y: 0.5}, 0.1, math.Pi/2, false)
	rotated := make([]detector.Point2D, len(pts))
	for i, p := range pts {
		rotated[i] = detector.Point2D{X: 0.5 - (p.Y - 0.5), Y: 0.5 + (p.X - 0.5)}
	}

	assert.True(t, detect(t, Sorry, path(thumbFist, pts...), FaceCue{}).Detected)
	assert.False(t, detect(t, Sorry, path(thumbFist, rotated...), FaceCue{}).Detected)
}

func TestSorry_StraightLine(t *testing.T) {
	frames := path(thumbFist, line(8, detector.Point2D{X: 0.4, Y: 0.5}, detector.Point2D{X: 0.6, Y: 0.5})...)
	assert.False(t, detect(t, Sorry, frames, FaceCue{}).Detected)
}

func TestHelp(t *testing.T) {
	up := path(openHand, line(6, detector.Point2D{X: 0.5, Y: 0.6}, detector.Point2D{X: 0.5, Y: 0.45})...)
	assert.Equal(t, Pattern{Type: Help, Detected: true, Confidence: 0.8}, detect(t, Help, up, FaceCue{}))

	down := path(openHand, line(6, detector.Point2D{X: 0.5, Y: 0.45}, detector.Point2D{X: 0.5, Y: 0.6})...)
	assert.False(t, detect(t, Help, down, FaceCue{}).Detected)
}

func TestLove(t *testing.T) {
	closing := path(thumbFist,
		detector.Point2D{X: 0.35, Y: 0.5},
		detector.Point2D{X: 0.45, Y: 0.5},
		detector.Point2D{X: 0.50, Y: 0.5},
		detector.Point2D{X: 0.50, Y: 0.5},
	)
	assert.Equal(t, Pattern{Type: Love, Detected: true, Confidence: 0.75}, detect(t, Love, closing, FaceCue{}))

	high := path(thumbFist,
		detector.Point2D{X: 0.35, Y: 0.2},
		detector.Point2D{X: 0.45, Y: 0.2},
		detector.Point2D{X: 0.50, Y: 0.2},
		detector.Point2D{X: 0.50, Y: 0.2},
	)
	assert.False(t, detect(t, Love, high, FaceCue{}).Detected)

	still := path(thumbFist, line(4, detector.Point2D{X: 0.5, Y: 0.5}, detector.Point2D{X: 0.5, Y: 0.5})...)
	assert.False(t, detect(t, Love, still, FaceCue{}).Detected)
}

func TestYes(t *testing.T) {
	var nod []detector.Point2D
	for i := 0; i < 10; i++ {
		y := 0.5
		if i%2 == 1 {
			y = 0.55
		}
		nod = append(nod, detector.Point2D{X: 0.5, Y: y})
	}

	assert.Equal(t, Pattern{Type: Yes, Detected: true, Confidence: 0.8}, detect(t, Yes, path(thumbFist, nod...), FaceCue{}))
	assert.False(t, detect(t, Yes, path(openHand, nod...), FaceCue{}).Detected, "needs a thumb fist")

	drop := path(thumbFist, line(10, detector.Point2D{X: 0.5, Y: 0.3}, detector.Point2D{X: 0.5, Y: 0.7})...)
	assert.False(t, detect(t, Yes, drop, FaceCue{}).Detected, "one direction only")
}

func TestYes_IgnoresStillSteps(t *testing.T) {
	pts := []detector.Point2D{
		{X: 0.5, Y: 0.50}, {X: 0.5, Y: 0.55}, {X: 0.5, Y: 0.55}, {X: 0.5, Y: 0.50},
		{X: 0.5, Y: 0.50}, {X: 0.5, Y: 0.55}, {X: 0.5, Y: 0.55}, {X: 0.5, Y: 0.55},
		{X: 0.5, Y: 0.55}, {X: 0.5, Y: 0.55},
	}
	assert.True(t, detect(t, Yes, path(thumbFist, pts...), FaceCue{}).Detected)
}

func TestNo(t *testing.T) {
	three := handpose.FingerState{Thumb: true, Index: true, Middle: true}
	center := detector.Point2D{X: 0.5, Y: 0.5}

	frames := path(three, center, center, center)
	frames[1].Fingers = handpose.FingerState{}
	assert.Equal(t, Pattern{Type: No, Detected: true, Confidence: 0.75}, detect(t, No, frames, FaceCue{}))

	frames[2].Fingers = handpose.FingerState{}
	assert.False(t, detect(t, No, frames, FaceCue{}).Detected)
}

func TestDetectAll(t *testing.T) {
	frames := path(openHand, line(8, detector.Point2D{X: 0.6, Y: 0.3}, detector.Point2D{X: 0.5, Y: 0.3})...)

	patterns := DetectAll(frames, FaceCue{})

	require.Len(t, patterns, len(Detectors))
	for i, p := range patterns {
		assert.Equal(t, Detectors[i].Type, p.Type)
	}
	assert.True(t, patterns[0].Detected)
	assert.False(t, patterns[2].Detected, "please needs ten frames")
}

func TestDetectors_PriorityOrder(t *testing.T) {
	want := []GestureType{Hello, ThankYou, Please, Help, Love, Sorry, Yes, No}
	for i, d := range Detectors {
		assert.Equal(t, want[i], d.Type)
		assert.Equal(t, i, d.Priority)
	}
}

func TestGestureType_Word(t *testing.T) {
	assert.Equal(t, "thank you", ThankYou.Word())
	assert.Equal(t, "hello", Hello.Word())
}

func TestWrapAngle(t *testing.T) {
	assert.InDelta(t, 0.1*math.Pi, wrapAngle(-1.9*math.Pi), 1e-12)
	assert.InDelta(t, math.Pi, wrapAngle(math.Pi), 1e-12)
	assert.InDelta(t, math.Pi, wrapAngle(-math.Pi), 1e-12)
	assert.InDelta(t, -0.5*math.Pi, wrapAngle(1.5*math.Pi), 1e-12)
}
