// Package stabilizer turns noisy per-frame recognition into committed
// output: a debounced letter stream, a cadenced gesture stream with
// priority arbitration, and hand-presence hysteresis.
package stabilizer

import (
	"time"

	"github.com/ayusman/signlens/internal/handpose"
)

// LetterConfig tunes the letter stream.
type LetterConfig struct {
	// MinConfidence a classification must exceed to enter the history.
	MinConfidence float64
	// Cooldown after a commit during which nothing qualifies.
	Cooldown time.Duration
	// History is the number of qualifying entries kept.
	History int
	// Repeat is how many identical trailing entries commit a letter.
	Repeat int
}

// DefaultLetterConfig returns the standard letter stream settings.
func DefaultLetterConfig() LetterConfig {
	return LetterConfig{
		MinConfidence: 0.7,
		Cooldown:      1200 * time.Millisecond,
		History:       4,
		Repeat:        2,
	}
}

// Sink receives committed letters.
type Sink interface {
	EndsWith(s string) bool
	Append(s string)
}

// LetterStream debounces raw classifications into committed letters.
// It is not safe for concurrent use.
type LetterStream struct {
	cfg        LetterConfig
	sink       Sink
	history    []string
	lastCommit time.Time
}

// NewLetterStream creates a letter stream writing into sink.
func NewLetterStream(cfg LetterConfig, sink Sink) *LetterStream {
	if cfg.History < 1 {
		cfg.History = 1
	}
	if cfg.Repeat < 1 {
		cfg.Repeat = 1
	}
	if cfg.Repeat > cfg.History {
		cfg.Repeat = cfg.History
	}
	return &LetterStream{
		cfg:     cfg,
		sink:    sink,
		history: make([]string, 0, cfg.History),
	}
}

// Observe feeds one classification. It returns the letter and true when the
// observation caused a letter to be appended to the sink.
func (s *LetterStream) Observe(c handpose.Classification, now time.Time) (string, bool) {
	if c.None() || c.Confidence <= s.cfg.MinConfidence {
		return "", false
	}
	if !s.lastCommit.IsZero() && now.Sub(s.lastCommit) < s.cfg.Cooldown {
		return "", false
	}

	if len(s.history) == s.cfg.History {
		copy(s.history, s.history[1:])
		s.history = s.history[:len(s.history)-1]
	}
	s.history = append(s.history, c.Letter)

	if !s.stable() {
		return "", false
	}
	s.history = s.history[:0]
	if s.sink.EndsWith(c.Letter) {
		return c.Letter, false
	}
	s.sink.Append(c.Letter)
	s.lastCommit = now
	return c.Letter, true
}

func (s *LetterStream) stable() bool {
	n := len(s.history)
	if n < s.cfg.Repeat {
		return false
	}
	last := s.history[n-1]
	for _, l := range s.history[n-s.cfg.Repeat:] {
		if l != last {
			return false
		}
	}
	return true
}

// History returns a copy of the qualifying entries, oldest first.
func (s *LetterStream) History() []string {
	return append([]string(nil), s.history...)
}

// Reset drops the history and the cooldown.
func (s *LetterStream) Reset() {
	s.history = s.history[:0]
	s.lastCommit = time.Time{}
}
