// Package detector provides hand and face landmark types and the interface
// to the external landmark tracker.
package detector

import (
	"errors"
	"fmt"
	"math"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Face mesh constants. Only the chin point is consumed.
const (
	ChinIndex        = 152
	NumFaceLandmarks = 468
)

// ErrMalformedLandmarks is returned when a landmark set does not have the
// expected number of points. The tracker must never produce one.
var ErrMalformedLandmarks = errors.New("malformed landmark set")

// Point3D represents a 3D point in normalized camera space.
type Point3D struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Point2D is a point in the image plane.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// XY drops the depth component.
func (p Point3D) XY() Point2D {
	return Point2D{X: p.X, Y: p.Y}
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// FaceLandmarks holds a face mesh. Trackers may send a reduced mesh as long
// as it reaches the chin index.
type FaceLandmarks struct {
	Points []Point3D `json:"points"`
}

// Chin returns the chin point, or false if the mesh is too short to have one.
func (f *FaceLandmarks) Chin() (Point3D, bool) {
	if f == nil || len(f.Points) <= ChinIndex {
		return Point3D{}, false
	}
	return f.Points[ChinIndex], true
}

// HandFromPoints builds a HandLandmarks from a point slice.
func HandFromPoints(points []Point3D) (*HandLandmarks, error) {
	if len(points) != NumLandmarks {
		return nil, fmt.Errorf("%w: got %d points, want %d", ErrMalformedLandmarks, len(points), NumLandmarks)
	}
	h := &HandLandmarks{}
	copy(h.Points[:], points)
	return h, nil
}

// Distance2D returns the Euclidean distance between two points in the image plane.
func Distance2D(a, b Point3D) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Dist returns the image-plane distance between two landmarks of the hand.
func (h *HandLandmarks) Dist(i, j int) float64 {
	return Distance2D(h.Points[i], h.Points[j])
}

// Center returns the 2-D centroid of all 21 landmarks.
func (h *HandLandmarks) Center() Point2D {
	var c Point2D
	for _, p := range h.Points {
		c.X += p.X
		c.Y += p.Y
	}
	c.X /= NumLandmarks
	c.Y /= NumLandmarks
	return c
}
