package capture

import (
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// Frame differencing parameters.
const (
	blurKernel    = 21
	diffThreshold = 25
)

// Activity gate defaults.
const (
	DefaultIdleFPS        = 5
	DefaultActivityChange = 1.0 // percent of pixels
	DefaultIdleTimeout    = 2 * time.Second
)

// ActivityConfig tunes an ActivityGate.
type ActivityConfig struct {
	// Change is the percentage of pixels that must differ between frames.
	Change float64
	// IdleTimeout is how long a still scene stays active.
	IdleTimeout time.Duration
	IdleFPS     int
	ActiveFPS   int
}

// DefaultActivityConfig returns the standard gate settings.
func DefaultActivityConfig() ActivityConfig {
	return ActivityConfig{
		Change:      DefaultActivityChange,
		IdleTimeout: DefaultIdleTimeout,
		IdleFPS:     DefaultIdleFPS,
		ActiveFPS:   DefaultFPS,
	}
}

// ActivityGate watches consecutive frames for pixel change and keeps the
// capture loop idle while nothing in front of the camera moves. Tracking
// runs only on active frames.
type ActivityGate struct {
	cfg        ActivityConfig
	mu         sync.Mutex
	prev       gocv.Mat
	hasPrev    bool
	active     bool
	lastChange time.Time
}

// NewActivityGate creates an idle gate.
func NewActivityGate(cfg ActivityConfig) *ActivityGate {
	def := DefaultActivityConfig()
	if cfg.Change <= 0 {
		cfg.Change = def.Change
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = def.IdleTimeout
	}
	if cfg.IdleFPS <= 0 {
		cfg.IdleFPS = def.IdleFPS
	}
	if cfg.ActiveFPS <= 0 {
		cfg.ActiveFPS = def.ActiveFPS
	}
	return &ActivityGate{cfg: cfg, prev: gocv.NewMat()}
}

// Change returns the percentage of pixels that differ from the previous
// frame. The first frame only sets the baseline and reports 0.
func (g *ActivityGate) Change(frame *gocv.Mat) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.change(frame)
}

func (g *ActivityGate) change(frame *gocv.Mat) float64 {
	if frame == nil || frame.Empty() {
		return 0
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: blurKernel, Y: blurKernel}, 0, 0, gocv.BorderDefault)

	if !g.hasPrev {
		blurred.CopyTo(&g.prev)
		g.hasPrev = true
		return 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, g.prev, &diff)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(diff, &mask, diffThreshold, 255, gocv.ThresholdBinary)

	blurred.CopyTo(&g.prev)

	total := mask.Rows() * mask.Cols()
	if total == 0 {
		return 0
	}
	return float64(gocv.CountNonZero(mask)) / float64(total) * 100
}

// Observe feeds a frame seen at now. It returns whether the gate is active
// and whether that changed with this frame.
func (g *ActivityGate) Observe(frame *gocv.Mat, now time.Time) (active, changed bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	moved := g.change(frame) > g.cfg.Change
	return g.step(moved, now)
}

func (g *ActivityGate) step(moved bool, now time.Time) (active, changed bool) {
	was := g.active
	switch {
	case moved:
		g.lastChange = now
		g.active = true
	case g.active && now.Sub(g.lastChange) > g.cfg.IdleTimeout:
		g.active = false
	}
	return g.active, g.active != was
}

// Touch keeps an active gate awake as if the scene had changed at now. The
// capture loop calls it while the tracker still sees a hand, so a pose held
// perfectly still is not dropped. It never wakes an idle gate.
func (g *ActivityGate) Touch(now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active && now.After(g.lastChange) {
		g.lastChange = now
	}
}

// FPS returns the capture rate for the current state.
func (g *ActivityGate) FPS() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active {
		return g.cfg.ActiveFPS
	}
	return g.cfg.IdleFPS
}

// Active reports the current state.
func (g *ActivityGate) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}

// Reset drops the baseline frame and returns to idle.
func (g *ActivityGate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.hasPrev = false
	g.active = false
	g.lastChange = time.Time{}
}

// Close releases the baseline frame.
func (g *ActivityGate) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.hasPrev = false
	return g.prev.Close()
}
