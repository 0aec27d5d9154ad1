package handpose

import (
	"math"

	"github.com/ayusman/signlens/internal/detector"
)

// handBuilder poses a right hand palm-forward with the wrist at (0.5, 0.8).
// Every finger starts curled and the thumb starts folded across the palm.
type handBuilder struct {
	h detector.HandLandmarks
}

func newHand() *handBuilder {
	b := &handBuilder{h: detector.HandLandmarks{Handedness: "Right", Score: 0.9}}
	b.set(detector.Wrist, 0.5, 0.8)
	b.set(detector.ThumbCMC, 0.55, 0.76)
	b.set(detector.ThumbMCP, 0.58, 0.72)
	b.set(detector.ThumbIP, 0.55, 0.68)
	b.set(detector.ThumbTip, 0.47, 0.66)

	b.mcp(detector.IndexMCP, 0.55, 0.62)
	b.mcp(detector.MiddleMCP, 0.50, 0.60)
	b.mcp(detector.RingMCP, 0.45, 0.61)
	b.mcp(detector.PinkyMCP, 0.41, 0.64)
	return b
}

func (b *handBuilder) set(i int, x, y float64) *handBuilder {
	b.h.Points[i] = detector.Point3D{X: x, Y: y}
	return b
}

// mcp moves a knuckle and re-curls the finger around it.
func (b *handBuilder) mcp(mcp int, x, y float64) *handBuilder {
	b.set(mcp, x, y)
	return b.curl(mcp)
}

func (b *handBuilder) curl(mcp int) *handBuilder {
	p := b.h.Points[mcp]
	b.set(mcp+1, p.X, p.Y-0.05)
	b.set(mcp+2, p.X-0.005, p.Y)
	b.set(mcp+3, p.X-0.01, p.Y+0.05)
	return b
}

// extend straightens a finger from its knuckle along (dx, dy).
func (b *handBuilder) extend(mcp int, dx, dy, length float64) *handBuilder {
	n := math.Hypot(dx, dy)
	ux, uy := dx/n, dy/n
	p := b.h.Points[mcp]
	b.set(mcp+1, p.X+0.4*length*ux, p.Y+0.4*length*uy)
	b.set(mcp+2, p.X+0.67*length*ux, p.Y+0.67*length*uy)
	b.set(mcp+3, p.X+length*ux, p.Y+length*uy)
	return b
}

func (b *handBuilder) up(mcps ...int) *handBuilder {
	for _, m := range mcps {
		b.extend(m, 0, -1, 0.15)
	}
	return b
}

func (b *handBuilder) thumbOut() *handBuilder {
	b.set(detector.ThumbIP, 0.65, 0.68)
	return b.set(detector.ThumbTip, 0.72, 0.66)
}

func (b *handBuilder) thumbTip(x, y float64) *handBuilder {
	return b.set(detector.ThumbTip, x, y)
}

func (b *handBuilder) build() *detector.HandLandmarks {
	h := b.h
	return &h
}

// pointingDownHand is a hand hanging from the wrist at (0.5, 0.3) with index
// and middle aimed at the floor and the thumb out to the side.
func pointingDownHand() *handBuilder {
	b := &handBuilder{}
	b.set(detector.Wrist, 0.5, 0.3)
	b.set(detector.ThumbCMC, 0.55, 0.34)
	b.set(detector.ThumbMCP, 0.60, 0.38)
	b.set(detector.ThumbIP, 0.65, 0.42)
	b.set(detector.ThumbTip, 0.70, 0.45)

	b.set(detector.IndexMCP, 0.55, 0.48)
	b.set(detector.IndexPIP, 0.55, 0.54)
	b.set(detector.IndexDIP, 0.55, 0.58)
	b.set(detector.IndexTip, 0.55, 0.63)

	b.set(detector.MiddleMCP, 0.50, 0.50)
	b.set(detector.MiddlePIP, 0.50, 0.56)
	b.set(detector.MiddleDIP, 0.50, 0.60)
	b.set(detector.MiddleTip, 0.50, 0.65)

	b.set(detector.RingMCP, 0.45, 0.49)
	b.set(detector.RingPIP, 0.45, 0.54)
	b.set(detector.RingDIP, 0.45, 0.49)
	b.set(detector.RingTip, 0.44, 0.44)

	b.set(detector.PinkyMCP, 0.41, 0.46)
	b.set(detector.PinkyPIP, 0.41, 0.51)
	b.set(detector.PinkyDIP, 0.41, 0.46)
	b.set(detector.PinkyTip, 0.40, 0.41)
	return b
}
