package handpose

import (
	"gonum.org/v1/gonum/floats"

	"github.com/ayusman/signlens/internal/detector"
)

// Classification is the result of classifying one frame. An empty Letter
// means no rule matched and Confidence is 0.
type Classification struct {
	Letter     string  `json:"letter"`
	Confidence float64 `json:"confidence"`
}

// None reports whether no letter was recognized.
func (c Classification) None() bool {
	return c.Letter == ""
}

// Measurements holds everything the letter rules look at, computed once per frame.
type Measurements struct {
	Hand    *detector.HandLandmarks
	Fingers FingerState
	Count   int

	ThumbToWrist     float64
	IndexMCPToWrist  float64
	ThumbToIndexTip  float64
	ThumbToIndexPIP  float64
	ThumbToMiddlePIP float64

	// Index/middle separation at the tips and at the PIP joints.
	TipGap float64
	PIPGap float64

	// Tip-to-wrist distance per digit, thumb to pinky.
	TipToWrist [5]float64
}

// Measure computes the measurements for a hand.
func Measure(h *detector.HandLandmarks) *Measurements {
	fingers := ExtractFingers(h)
	m := &Measurements{
		Hand:             h,
		Fingers:          fingers,
		Count:            fingers.Count(),
		ThumbToWrist:     h.Dist(detector.ThumbTip, detector.Wrist),
		IndexMCPToWrist:  h.Dist(detector.IndexMCP, detector.Wrist),
		ThumbToIndexTip:  h.Dist(detector.ThumbTip, detector.IndexTip),
		ThumbToIndexPIP:  h.Dist(detector.ThumbTip, detector.IndexPIP),
		ThumbToMiddlePIP: h.Dist(detector.ThumbTip, detector.MiddlePIP),
		TipGap:           h.Dist(detector.IndexTip, detector.MiddleTip),
		PIPGap:           h.Dist(detector.IndexPIP, detector.MiddlePIP),
	}
	for i, tip := range []int{detector.ThumbTip, detector.IndexTip, detector.MiddleTip, detector.RingTip, detector.PinkyTip} {
		m.TipToWrist[i] = h.Dist(tip, detector.Wrist)
	}
	return m
}

// displacement returns tip minus base in the image plane.
func (m *Measurements) displacement(base, tip int) (dx, dy float64) {
	b, t := m.Hand.Points[base], m.Hand.Points[tip]
	return t.X - b.X, t.Y - b.Y
}

// tipSpread returns max minus min of the tip-to-wrist distances.
func (m *Measurements) tipSpread() float64 {
	d := m.TipToWrist[:]
	return floats.Max(d) - floats.Min(d)
}

// Rule is one entry of the ordered letter table.
type Rule struct {
	Letter     string
	Confidence float64
	Match      func(m *Measurements) bool
}

// Classifier evaluates an ordered rule table; the first matching rule wins.
type Classifier struct {
	rules []Rule
}

// NewClassifier creates a classifier over the given rules. A nil table
// uses the standard alphabet.
func NewClassifier(rules []Rule) *Classifier {
	if rules == nil {
		rules = Rules
	}
	return &Classifier{rules: rules}
}

// Classify returns the first matching letter for the hand.
func (c *Classifier) Classify(h *detector.HandLandmarks) Classification {
	if h == nil {
		return Classification{}
	}
	m := Measure(h)
	for _, r := range c.rules {
		if r.Match(m) {
			return Classification{Letter: r.Letter, Confidence: r.Confidence}
		}
	}
	return Classification{}
}

var defaultClassifier = NewClassifier(nil)

// Classify classifies a hand with the standard alphabet.
func Classify(h *detector.HandLandmarks) Classification {
	return defaultClassifier.Classify(h)
}
