package stabilizer

// Default presence thresholds, in frames.
const (
	DefaultPresentAfter = 3
	DefaultAbsentAfter  = 5
)

// Presence applies hysteresis to per-frame hand tracking. A hand becomes
// present after presentAfter consecutive tracked frames and absent after
// absentAfter consecutive untracked ones.
type Presence struct {
	presentAfter int
	absentAfter  int
	present      bool
	seen         int
	missed       int
}

// NewPresence creates a presence tracker. Non-positive thresholds use the defaults.
func NewPresence(presentAfter, absentAfter int) *Presence {
	if presentAfter <= 0 {
		presentAfter = DefaultPresentAfter
	}
	if absentAfter <= 0 {
		absentAfter = DefaultAbsentAfter
	}
	return &Presence{presentAfter: presentAfter, absentAfter: absentAfter}
}

// Update records one frame and returns the stable state.
func (p *Presence) Update(tracked bool) bool {
	if tracked {
		p.seen++
		p.missed = 0
		if p.seen >= p.presentAfter {
			p.present = true
		}
	} else {
		p.missed++
		p.seen = 0
		if p.missed >= p.absentAfter {
			p.present = false
		}
	}
	return p.present
}

// Present returns the stable state.
func (p *Presence) Present() bool { return p.present }

// String returns "present" or "absent".
func (p *Presence) String() string {
	if p.present {
		return "present"
	}
	return "absent"
}

// Reset returns to the absent state.
func (p *Presence) Reset() {
	*p = Presence{presentAfter: p.presentAfter, absentAfter: p.absentAfter}
}
