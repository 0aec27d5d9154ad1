package handpose

import (
	"math"

	"github.com/ayusman/signlens/internal/detector"
)

// Geometric thresholds in normalized image units.
const (
	tuckedThumbRatio = 0.7  // E: thumb tip to wrist vs index MCP to wrist
	thumbTouch       = 0.12 // O, T: thumb tip touching a joint
	thumbAcross      = 0.15 // A, S, F: thumb lying across the fingers

	curveMinReach = 0.2  // C: tip-to-wrist lower bound
	curveMaxReach = 0.5  // C: tip-to-wrist upper bound
	curveBand     = 0.15 // C: max spread of tip-to-wrist distances

	pointingDown = 0.05 // P, Q: index tip below its MCP by this much

	closedGap     = 0.06 // U: index and middle tips together
	crossedRatio  = 0.8  // R: tip gap relative to PIP gap
	horizontalGap = 0.08 // H
	spreadGap     = 0.05 // V
)

var (
	stateNone        = FingerState{}
	stateThumb       = FingerState{Thumb: true}
	stateIndex       = FingerState{Index: true}
	stateThumbIndex  = FingerState{Thumb: true, Index: true}
	stateThumbPinky  = FingerState{Thumb: true, Pinky: true}
	statePinky       = FingerState{Pinky: true}
	stateFour        = FingerState{Index: true, Middle: true, Ring: true, Pinky: true}
	stateThree       = FingerState{Index: true, Middle: true, Ring: true}
	stateThumbIdxPky = FingerState{Thumb: true, Index: true, Pinky: true}
)

// Rules is the fingerspelling alphabet in precedence order. Several letters
// share a finger state and are told apart only by finer geometry, and some
// regions contain others, so the order is significant.
var Rules = []Rule{
	{Letter: "E", Confidence: 0.9, Match: matchE},
	{Letter: "O", Confidence: 0.8, Match: matchO},
	{Letter: "T", Confidence: 0.8, Match: matchT},
	{Letter: "A", Confidence: 0.85, Match: matchA},
	{Letter: "S", Confidence: 0.8, Match: matchS},
	{Letter: "B", Confidence: 0.9, Match: func(m *Measurements) bool { return m.Fingers == stateFour }},
	{Letter: "C", Confidence: 0.75, Match: matchC},
	{Letter: "M", Confidence: 0.8, Match: func(m *Measurements) bool { return m.Fingers == stateThree }},
	{Letter: "D", Confidence: 0.85, Match: matchD},
	{Letter: "Z", Confidence: 0.75, Match: matchZ},
	{Letter: "F", Confidence: 0.85, Match: matchF},
	{Letter: "P", Confidence: 0.8, Match: matchP},
	{Letter: "Q", Confidence: 0.8, Match: matchQ},
	{Letter: "U", Confidence: 0.8, Match: matchU},
	{Letter: "R", Confidence: 0.75, Match: matchR},
	{Letter: "H", Confidence: 0.8, Match: matchH},
	{Letter: "K", Confidence: 0.8, Match: func(m *Measurements) bool { return twoFingers(m) && m.Fingers.Thumb }},
	{Letter: "V", Confidence: 0.85, Match: func(m *Measurements) bool { return twoFingers(m) && m.TipGap > spreadGap }},
	{Letter: "N", Confidence: 0.75, Match: twoFingers},
	{Letter: "G", Confidence: 0.8, Match: matchG},
	{Letter: "J", Confidence: 0.75, Match: func(m *Measurements) bool { return m.Fingers == stateThumbIdxPky }},
	{Letter: "L", Confidence: 0.85, Match: func(m *Measurements) bool { return m.Fingers == stateThumbIndex }},
	{Letter: "Y", Confidence: 0.85, Match: func(m *Measurements) bool { return m.Fingers == stateThumbPinky }},
	{Letter: "W", Confidence: 0.8, Match: matchW},
	{Letter: "I", Confidence: 0.85, Match: func(m *Measurements) bool { return m.Fingers == statePinky }},
	{Letter: "X", Confidence: 0.75, Match: matchX},
}

func matchE(m *Measurements) bool {
	return m.Fingers == stateNone && m.ThumbToWrist < tuckedThumbRatio*m.IndexMCPToWrist
}

func matchO(m *Measurements) bool {
	return m.Fingers == stateThumb && m.ThumbToIndexTip < thumbTouch
}

func matchT(m *Measurements) bool {
	return m.Fingers == stateThumb && m.ThumbToIndexPIP < thumbTouch && m.ThumbToMiddlePIP < thumbTouch
}

func matchA(m *Measurements) bool {
	return m.Fingers == stateThumb && m.ThumbToIndexTip >= thumbTouch && m.ThumbToIndexPIP >= thumbAcross
}

// matchS accepts a thumb that either did or did not reach extension, as long
// as the four fingers are folded and the thumb lies over them.
func matchS(m *Measurements) bool {
	f := m.Fingers
	return !f.Index && !f.Middle && !f.Ring && !f.Pinky && m.ThumbToIndexPIP < thumbAcross
}

func matchC(m *Measurements) bool {
	for _, d := range m.TipToWrist {
		if d <= curveMinReach || d >= curveMaxReach {
			return false
		}
	}
	return m.tipSpread() < curveBand
}

func matchD(m *Measurements) bool {
	if m.Fingers != stateIndex {
		return false
	}
	dx, dy := m.displacement(detector.IndexMCP, detector.IndexTip)
	return dy < 0 && math.Abs(dx) < 0.5*math.Abs(dy)
}

func matchZ(m *Measurements) bool {
	if m.Fingers != stateIndex {
		return false
	}
	dx, dy := m.displacement(detector.IndexMCP, detector.IndexTip)
	ax, ay := math.Abs(dx), math.Abs(dy)
	return ax >= 0.5*ay && ax <= 2*ay
}

func matchF(m *Measurements) bool {
	f := m.Fingers
	return f.Middle && f.Ring && f.Pinky && m.ThumbToIndexTip < thumbAcross
}

func indexDown(m *Measurements) bool {
	tip, mcp := m.Hand.Points[detector.IndexTip], m.Hand.Points[detector.IndexMCP]
	return tip.Y > mcp.Y+pointingDown
}

func matchP(m *Measurements) bool {
	return twoFingers(m) && m.Fingers.Thumb && indexDown(m)
}

func matchQ(m *Measurements) bool {
	return m.Fingers == stateThumbIndex && indexDown(m)
}

// twoFingers is the shared state of U, R, H, K, V and N: index and middle
// extended, ring and pinky curled, thumb either way.
func twoFingers(m *Measurements) bool {
	f := m.Fingers
	return f.Index && f.Middle && !f.Ring && !f.Pinky
}

func tipAbovePIP(m *Measurements, pip, tip int) bool {
	return m.Hand.Points[tip].Y < m.Hand.Points[pip].Y
}

func matchU(m *Measurements) bool {
	return twoFingers(m) &&
		tipAbovePIP(m, detector.IndexPIP, detector.IndexTip) &&
		tipAbovePIP(m, detector.MiddlePIP, detector.MiddleTip) &&
		m.TipGap < closedGap
}

// pointsUp reports a finger aimed straight up, within about 15 degrees.
func pointsUp(m *Measurements, mcp, tip int) bool {
	dx, dy := m.displacement(mcp, tip)
	return dy < 0 && math.Abs(dx) < 0.25*math.Abs(dy)
}

func moreVertical(m *Measurements, mcp, tip int) bool {
	dx, dy := m.displacement(mcp, tip)
	return math.Abs(dy) > math.Abs(dx)
}

func nearlyHorizontal(m *Measurements, mcp, tip int) bool {
	dx, dy := m.displacement(mcp, tip)
	return math.Abs(dx) > 2*math.Abs(dy)
}

func matchR(m *Measurements) bool {
	if !twoFingers(m) || m.TipGap >= crossedRatio*m.PIPGap {
		return false
	}
	bothUp := pointsUp(m, detector.IndexMCP, detector.IndexTip) && pointsUp(m, detector.MiddleMCP, detector.MiddleTip)
	anyVertical := moreVertical(m, detector.IndexMCP, detector.IndexTip) || moreVertical(m, detector.MiddleMCP, detector.MiddleTip)
	return !bothUp && anyVertical
}

func matchH(m *Measurements) bool {
	return twoFingers(m) &&
		nearlyHorizontal(m, detector.IndexMCP, detector.IndexTip) &&
		nearlyHorizontal(m, detector.MiddleMCP, detector.MiddleTip) &&
		m.TipGap < horizontalGap
}

func matchG(m *Measurements) bool {
	if m.Fingers != stateThumbIndex {
		return false
	}
	dx, dy := m.displacement(detector.IndexMCP, detector.IndexTip)
	return math.Abs(dx) > math.Abs(dy)
}

func matchW(m *Measurements) bool {
	f := m.Fingers
	return f.Index && f.Middle && f.Ring && !f.Pinky
}

// matchX looks for a hooked index: the tip has folded back inside the PIP
// but not all the way to the knuckle.
func matchX(m *Measurements) bool {
	f := m.Fingers
	if f.Index || f.Middle || f.Ring || f.Pinky {
		return false
	}
	tip := m.TipToWrist[1]
	return tip > m.IndexMCPToWrist && tip < m.Hand.Dist(detector.IndexPIP, detector.Wrist)
}
