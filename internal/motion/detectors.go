package motion

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ayusman/signlens/internal/handpose"
)

// GestureType names a dynamic gesture.
type GestureType string

const (
	Hello    GestureType = "hello"
	ThankYou GestureType = "thank_you"
	Please   GestureType = "please"
	Help     GestureType = "help"
	Love     GestureType = "love"
	Sorry    GestureType = "sorry"
	Yes      GestureType = "yes"
	No       GestureType = "no"
)

// Word returns the gesture as it is written into text.
func (g GestureType) Word() string {
	return strings.ReplaceAll(string(g), "_", " ")
}

// Pattern is the outcome of one detector on one cycle.
type Pattern struct {
	Type       GestureType `json:"type"`
	Detected   bool        `json:"detected"`
	Confidence float64     `json:"confidence"`
}

// Detector recognizes one gesture from the most recent Window frames.
type Detector struct {
	Type     GestureType
	Window   int
	Priority int // lower wins
	detect   func(w []Frame, cue FaceCue) (float64, bool)
}

// Detect runs the detector over the tail of frames. Fewer than Window
// frames never match.
func (d Detector) Detect(frames []Frame, cue FaceCue) Pattern {
	p := Pattern{Type: d.Type}
	if len(frames) < d.Window {
		return p
	}
	if conf, ok := d.detect(frames[len(frames)-d.Window:], cue); ok {
		p.Detected, p.Confidence = true, conf
	}
	return p
}

// Detectors lists every gesture in priority order.
var Detectors = []Detector{
	{Type: Hello, Window: 8, Priority: 0, detect: detectHello},
	{Type: ThankYou, Window: 6, Priority: 1, detect: detectThankYou},
	{Type: Please, Window: 10, Priority: 2, detect: detectPlease},
	{Type: Help, Window: 6, Priority: 3, detect: detectHelp},
	{Type: Love, Window: 4, Priority: 4, detect: detectLove},
	{Type: Sorry, Window: 8, Priority: 5, detect: detectSorry},
	{Type: Yes, Window: 10, Priority: 6, detect: detectYes},
	{Type: No, Window: 3, Priority: 7, detect: detectNo},
}

// DetectAll runs every detector over frames.
func DetectAll(frames []Frame, cue FaceCue) []Pattern {
	out := make([]Pattern, len(Detectors))
	for i, d := range Detectors {
		out[i] = d.Detect(frames, cue)
	}
	return out
}

// Lookup returns the detector for a gesture.
func Lookup(g GestureType) (Detector, bool) {
	for _, d := range Detectors {
		if d.Type == g {
			return d, true
		}
	}
	return Detector{}, false
}

func xs(w []Frame) []float64 {
	out := make([]float64, len(w))
	for i, f := range w {
		out[i] = f.Center.X
	}
	return out
}

func ys(w []Frame) []float64 {
	out := make([]float64, len(w))
	for i, f := range w {
		out[i] = f.Center.Y
	}
	return out
}

func within(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}

// Movement toward smaller x is forward from the signer's side of the camera.
func detectHello(w []Frame, _ FaceCue) (float64, bool) {
	first, last := w[0].Center, w[len(w)-1].Center
	if first.Y >= 0.4 {
		return 0, false
	}
	dx := first.X - last.X
	return 0.8, dx > 0.05 || math.Abs(dx) > 0.08
}

func detectThankYou(w []Frame, cue FaceCue) (float64, bool) {
	first, last := w[0], w[len(w)-1]
	if first.Shape != handpose.ShapeOpen {
		return 0, false
	}
	if first.Center.X-last.Center.X <= 0.06 {
		return 0, false
	}
	if cue.ChinDetected {
		return 0.9, math.Abs(first.Center.Y-cue.Chin.Y) < 0.15
	}
	return 0.8, within(first.Center.Y, 0.4, 0.7)
}

func detectPlease(w []Frame, _ FaceCue) (float64, bool) {
	if w[0].Shape != handpose.ShapeOpen {
		return 0, false
	}
	if !within(w[0].Center.Y, 0.35, 0.65) || !within(stat.Mean(ys(w), nil), 0.35, 0.65) {
		return 0, false
	}
	steps := turnSteps(w)
	big := 0
	for _, s := range steps {
		if s > 0.1 {
			big++
		}
	}
	return 0.85, floats.Sum(steps) > 3*math.Pi/4 && big >= 6
}

func detectHelp(w []Frame, _ FaceCue) (float64, bool) {
	if w[0].Shape != handpose.ShapeOpen {
		return 0, false
	}
	return 0.8, w[0].Center.Y-w[len(w)-1].Center.Y > 0.1
}

func detectLove(w []Frame, _ FaceCue) (float64, bool) {
	if !within(stat.Mean(ys(w), nil), 0.4, 0.7) {
		return 0, false
	}
	mx := stat.Mean(xs(w), nil)
	for i := 1; i < len(w); i++ {
		prev := math.Abs(w[i-1].Center.X - mx)
		cur := math.Abs(w[i].Center.X - mx)
		if prev-cur > 0.05 {
			return 0.75, true
		}
	}
	return 0, false
}

func detectSorry(w []Frame, _ FaceCue) (float64, bool) {
	if w[0].Shape != handpose.ShapeFistThumb {
		return 0, false
	}
	if !within(stat.Mean(ys(w), nil), 0.4, 0.7) {
		return 0, false
	}
	steps := turnSteps(w)
	small := 0
	for _, s := range steps {
		if s > 0.05 && s < 0.3 {
			small++
		}
	}
	total := floats.Sum(steps)
	return 0.75, total > math.Pi/3 && total < math.Pi && small >= 4
}

func detectYes(w []Frame, _ FaceCue) (float64, bool) {
	if w[0].Shape != handpose.ShapeFistThumb {
		return 0, false
	}
	var travel float64
	var lastSign, flips int
	for i := 1; i < len(w); i++ {
		dy := w[i].Center.Y - w[i-1].Center.Y
		travel += math.Abs(dy)
		var sign int
		switch {
		case dy > 0:
			sign = 1
		case dy < 0:
			sign = -1
		default:
			continue
		}
		if lastSign != 0 && sign != lastSign {
			flips++
		}
		lastSign = sign
	}
	return 0.8, flips >= 2 && travel > 0.1
}

var noFingers = handpose.FingerState{Thumb: true, Index: true, Middle: true}

func detectNo(w []Frame, _ FaceCue) (float64, bool) {
	n := 0
	for _, f := range w {
		if f.Fingers == noFingers {
			n++
		}
	}
	return 0.75, n >= 2
}

// turnSteps measures the unsigned change in bearing, seen from the first
// frame's center, between consecutive frames of the window. The first frame
// has no bearing of its own (its vector is zero) and counts as angle 0, so
// the first step is the bearing of the second frame measured from the +x
// axis. The sorry thresholds rely on that step; a quarter circle seen from a
// point on it only sweeps π/4 otherwise. The result therefore depends on
// where on the circle the motion starts.
func turnSteps(w []Frame) []float64 {
	origin := w[0].Center
	bearing := func(f Frame) float64 {
		return math.Atan2(f.Center.Y-origin.Y, f.Center.X-origin.X)
	}
	steps := make([]float64, 0, len(w)-1)
	prev := bearing(w[0])
	for _, f := range w[1:] {
		a := bearing(f)
		steps = append(steps, math.Abs(wrapAngle(a-prev)))
		prev = a
	}
	return steps
}

// wrapAngle maps an angle difference into (-π, π].
func wrapAngle(d float64) float64 {
	for d > math.Pi {
		d -= 2 * math.Pi
	}
	for d <= -math.Pi {
		d += 2 * math.Pi
	}
	return d
}
