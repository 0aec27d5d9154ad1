package stabilizer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ayusman/signlens/internal/handpose"
)

type textSink struct {
	text string
}

func (s *textSink) EndsWith(l string) bool { return strings.HasSuffix(s.text, l) }
func (s *textSink) Append(l string)        { s.text += l }

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func ms(n int) time.Time { return t0.Add(time.Duration(n) * time.Millisecond) }

func letter(l string) handpose.Classification {
	return handpose.Classification{Letter: l, Confidence: 0.85}
}

func TestLetterStream_CommitsOnRepeat(t *testing.T) {
	sink := &textSink{}
	s := NewLetterStream(DefaultLetterConfig(), sink)

	l, ok := s.Observe(letter("A"), ms(0))
	assert.False(t, ok)
	assert.Empty(t, l)

	l, ok = s.Observe(letter("A"), ms(50))
	assert.True(t, ok)
	assert.Equal(t, "A", l)
	assert.Equal(t, "A", sink.text)
	assert.Empty(t, s.History())
}

func TestLetterStream_ConfidenceGate(t *testing.T) {
	sink := &textSink{}
	s := NewLetterStream(DefaultLetterConfig(), sink)

	weak := handpose.Classification{Letter: "B", Confidence: 0.7}
	s.Observe(weak, ms(0))
	s.Observe(weak, ms(50))
	assert.Empty(t, sink.text, "0.7 is not above the threshold")

	s.Observe(handpose.Classification{}, ms(100))
	assert.Empty(t, s.History(), "no-match never qualifies")
}

func TestLetterStream_Cooldown(t *testing.T) {
	sink := &textSink{}
	s := NewLetterStream(DefaultLetterConfig(), sink)

	s.Observe(letter("A"), ms(0))
	s.Observe(letter("A"), ms(50)) // commit at 50

	s.Observe(letter("B"), ms(600))
	s.Observe(letter("B"), ms(700))
	assert.Equal(t, "A", sink.text, "inside cooldown")
	assert.Empty(t, s.History())

	s.Observe(letter("B"), ms(1250))
	_, ok := s.Observe(letter("B"), ms(1300))
	assert.True(t, ok)
	assert.Equal(t, "AB", sink.text)
}

func TestLetterStream_Idempotent(t *testing.T) {
	t.Run("same letter within cooldown", func(t *testing.T) {
		sink := &textSink{}
		s := NewLetterStream(DefaultLetterConfig(), sink)

		for i := 0; i < 20; i++ {
			s.Observe(letter("C"), ms(i*50))
		}
		assert.Equal(t, "C", sink.text)
	})

	t.Run("same letter after cooldown is suppressed", func(t *testing.T) {
		sink := &textSink{}
		s := NewLetterStream(DefaultLetterConfig(), sink)

		s.Observe(letter("C"), ms(0))
		s.Observe(letter("C"), ms(50))
		s.Observe(letter("C"), ms(2000))
		l, ok := s.Observe(letter("C"), ms(2050))

		assert.Equal(t, "C", l)
		assert.False(t, ok)
		assert.Equal(t, "C", sink.text)
		assert.Empty(t, s.History())
	})

	t.Run("different letter after cooldown appends once", func(t *testing.T) {
		sink := &textSink{}
		s := NewLetterStream(DefaultLetterConfig(), sink)

		s.Observe(letter("C"), ms(0))
		s.Observe(letter("C"), ms(50))
		for i := 0; i < 5; i++ {
			s.Observe(letter("D"), ms(1300+i*50))
		}
		assert.Equal(t, "CD", sink.text)
	})
}

func TestLetterStream_Jitter(t *testing.T) {
	sink := &textSink{}
	s := NewLetterStream(DefaultLetterConfig(), sink)

	for i, l := range []string{"U", "V", "U", "R", "V"} {
		s.Observe(letter(l), ms(i*50))
	}
	assert.Empty(t, sink.text)
	assert.Equal(t, []string{"V", "U", "R", "V"}, s.History(), "history keeps the last four")

	s.Observe(letter("V"), ms(300))
	assert.Equal(t, "V", sink.text)
}

func TestLetterStream_Reset(t *testing.T) {
	sink := &textSink{}
	s := NewLetterStream(DefaultLetterConfig(), sink)

	s.Observe(letter("A"), ms(0))
	s.Observe(letter("A"), ms(50))
	s.Observe(letter("B"), ms(100))
	s.Reset()

	assert.Empty(t, s.History())
	_, ok := s.Observe(letter("B"), ms(150))
	assert.False(t, ok)
	_, ok = s.Observe(letter("B"), ms(200))
	assert.True(t, ok, "cooldown dropped by reset")
	assert.Equal(t, "AB", sink.text)
}
