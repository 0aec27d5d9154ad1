// Package handpose derives finger states from hand landmarks and classifies
// static hand poses into fingerspelling letters.
package handpose

import (
	"strings"

	"github.com/ayusman/signlens/internal/detector"
)

// Extension margins. A finger is extended when its tip reaches further from
// the wrist than the reference joint by this factor.
const (
	FingerExtensionFactor = 1.1
	ThumbExtensionFactor  = 1.2
)

// FingerState holds one extended/curled flag per digit. The zero value is a
// closed fist.
type FingerState struct {
	Thumb  bool `json:"thumb"`
	Index  bool `json:"index"`
	Middle bool `json:"middle"`
	Ring   bool `json:"ring"`
	Pinky  bool `json:"pinky"`
}

// ExtractFingers computes the finger state of a hand. The thumb is measured
// against the index MCP because its joints do not line up with the wrist the
// way the other digits do.
func ExtractFingers(h *detector.HandLandmarks) FingerState {
	if h == nil {
		return FingerState{}
	}
	return FingerState{
		Thumb:  h.Dist(detector.Wrist, detector.ThumbTip) > h.Dist(detector.Wrist, detector.IndexMCP)*ThumbExtensionFactor,
		Index:  fingerExtended(h, detector.IndexPIP, detector.IndexTip),
		Middle: fingerExtended(h, detector.MiddlePIP, detector.MiddleTip),
		Ring:   fingerExtended(h, detector.RingPIP, detector.RingTip),
		Pinky:  fingerExtended(h, detector.PinkyPIP, detector.PinkyTip),
	}
}

func fingerExtended(h *detector.HandLandmarks, pip, tip int) bool {
	return h.Dist(detector.Wrist, tip) > h.Dist(detector.Wrist, pip)*FingerExtensionFactor
}

// Count returns the number of extended digits, thumb included.
func (f FingerState) Count() int {
	n := 0
	for _, v := range f.Slice() {
		if v {
			n++
		}
	}
	return n
}

// Slice returns the flags ordered thumb to pinky.
func (f FingerState) Slice() [5]bool {
	return [5]bool{f.Thumb, f.Index, f.Middle, f.Ring, f.Pinky}
}

// String renders the state as "T I M R P" with '-' for curled digits.
func (f FingerState) String() string {
	names := [5]string{"T", "I", "M", "R", "P"}
	parts := make([]string, 0, 5)
	for i, v := range f.Slice() {
		if v {
			parts = append(parts, names[i])
		} else {
			parts = append(parts, "-")
		}
	}
	return strings.Join(parts, " ")
}

// Shape is a coarse hand shape used by the motion detectors.
type Shape string

const (
	ShapeOpen      Shape = "open"
	ShapeFistThumb Shape = "fist_thumb"
	ShapeFist      Shape = "fist"
	ShapeUnknown   Shape = "unknown"
)

// Shape maps the finger state to a coarse shape.
func (f FingerState) Shape() Shape {
	switch f {
	case FingerState{Thumb: true, Index: true, Middle: true, Ring: true, Pinky: true}:
		return ShapeOpen
	case FingerState{Thumb: true}:
		return ShapeFistThumb
	case FingerState{}:
		return ShapeFist
	default:
		return ShapeUnknown
	}
}
