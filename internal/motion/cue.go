package motion

import "github.com/ayusman/signlens/internal/detector"

// FaceCue carries the chin position seen on the current tick. It is built
// fresh each tick and handed to the detectors explicitly.
type FaceCue struct {
	ChinDetected bool
	Chin         detector.Point2D
}

// CueFromFace builds the cue for a face mesh. A nil face or a mesh without a
// chin landmark yields the zero cue.
func CueFromFace(face *detector.FaceLandmarks) FaceCue {
	chin, ok := face.Chin()
	if !ok {
		return FaceCue{}
	}
	return FaceCue{ChinDetected: true, Chin: chin.XY()}
}
