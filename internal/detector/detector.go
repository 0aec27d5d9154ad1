package detector

import "gocv.io/x/gocv"

// Observation is the tracker output for one frame: zero or more hands and
// an optional face mesh.
type Observation struct {
	Hands []HandLandmarks `json:"hands"`
	Face  *FaceLandmarks  `json:"face,omitempty"`
}

// PrimaryHand returns the highest scoring hand, or nil when none was tracked.
func (o Observation) PrimaryHand() *HandLandmarks {
	var best *HandLandmarks
	for i := range o.Hands {
		if best == nil || o.Hands[i].Score > best.Score {
			best = &o.Hands[i]
		}
	}
	return best
}

// Detector defines the interface for landmark tracker implementations.
type Detector interface {
	// Detect analyzes a video frame and returns the tracked landmarks.
	// An observation with no hands is not an error.
	Detect(frame *gocv.Mat) (Observation, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for landmark tracking.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 1).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// TrackFace enables the face mesh, used for the chin cue.
	TrackFace bool
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        1,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
		TrackFace:       true,
	}
}
