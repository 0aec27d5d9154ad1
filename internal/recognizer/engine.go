// Package recognizer runs the per-frame recognition pipeline: presence,
// letter classification, motion buffering, gesture detection and the
// output text.
package recognizer

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ayusman/signlens/internal/detector"
	"github.com/ayusman/signlens/internal/handpose"
	"github.com/ayusman/signlens/internal/motion"
	"github.com/ayusman/signlens/internal/stabilizer"
	"github.com/ayusman/signlens/internal/transcript"
)

// Mode selects which recognizers feed the text.
type Mode string

const (
	ModeLetters  Mode = "letters"
	ModeGestures Mode = "gestures"
	ModeBoth     Mode = "both"
)

// ErrUnknownMode is returned by ParseMode for an unrecognized mode.
var ErrUnknownMode = errors.New("unknown recognition mode")

// ParseMode parses a mode name. The empty string selects ModeBoth.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "":
		return ModeBoth, nil
	case ModeLetters, ModeGestures, ModeBoth:
		return Mode(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

func (m Mode) letters() bool  { return m != ModeGestures }
func (m Mode) gestures() bool { return m != ModeLetters }

// motionThreshold is the center travel over the last few frames above which
// the hand counts as moving.
const (
	motionThreshold = 0.02
	motionFrames    = 5
)

// Config configures an Engine.
type Config struct {
	Mode            Mode
	BufferCapacity  int
	GestureInterval time.Duration
	Letters         stabilizer.LetterConfig
	PresentAfter    int
	AbsentAfter     int
}

// DefaultConfig returns the standard engine settings.
func DefaultConfig() Config {
	return Config{
		Mode:            ModeBoth,
		BufferCapacity:  motion.DefaultCapacity,
		GestureInterval: stabilizer.DefaultGestureInterval,
		Letters:         stabilizer.DefaultLetterConfig(),
		PresentAfter:    stabilizer.DefaultPresentAfter,
		AbsentAfter:     stabilizer.DefaultAbsentAfter,
	}
}

// Input is one tick of tracker output. Hand and Face may be nil.
type Input struct {
	Timestamp time.Time
	Hand      *detector.HandLandmarks
	Face      *detector.FaceLandmarks
}

// Static is the live letter classification.
type Static struct {
	Letter       string  `json:"letter,omitempty"`
	Confidence   float64 `json:"confidence"`
	HandDetected bool    `json:"hand_detected"`
}

// Gesture is the most recent gesture evaluation.
type Gesture struct {
	Name           motion.GestureType `json:"name,omitempty"`
	Confidence     float64            `json:"confidence"`
	MotionDetected bool               `json:"motion_detected"`
}

// CommitKind tells letters from gestures.
type CommitKind string

const (
	KindLetter  CommitKind = "letter"
	KindGesture CommitKind = "gesture"
)

// Commit is a symbol written to the text.
type Commit struct {
	Kind       CommitKind `json:"kind"`
	Symbol     string     `json:"symbol"`
	Confidence float64    `json:"confidence"`
	Timestamp  time.Time  `json:"timestamp"`
}

// Output is everything produced by one tick.
type Output struct {
	Timestamp  time.Time `json:"timestamp"`
	Static     Static    `json:"static"`
	Gesture    Gesture   `json:"gesture"`
	Present    bool      `json:"present"`
	Committed  []Commit  `json:"committed,omitempty"`
	Text       string    `json:"text"`
	Diagnostic string    `json:"diagnostic"`
}

// Engine owns all recognition state of one session. Process must be called
// from a single goroutine; the engine does no locking.
type Engine struct {
	cfg        Config
	classifier *handpose.Classifier
	buffer     *motion.Buffer
	letters    *stabilizer.LetterStream
	gestures   *stabilizer.GestureStream
	presence   *stabilizer.Presence
	text       *transcript.Buffer

	gesture Gesture
	fingers handpose.FingerState
}

// New creates an engine.
func New(cfg Config) *Engine {
	if cfg.Mode == "" {
		cfg.Mode = ModeBoth
	}
	text := transcript.New()
	return &Engine{
		cfg:        cfg,
		classifier: handpose.NewClassifier(nil),
		buffer:     motion.NewBuffer(cfg.BufferCapacity),
		letters:    stabilizer.NewLetterStream(cfg.Letters, text),
		gestures:   stabilizer.NewGestureStream(cfg.GestureInterval),
		presence:   stabilizer.NewPresence(cfg.PresentAfter, cfg.AbsentAfter),
		text:       text,
	}
}

// Mode returns the engine mode.
func (e *Engine) Mode() Mode { return e.cfg.Mode }

// Process runs one tick.
func (e *Engine) Process(in Input) Output {
	out := Output{Timestamp: in.Timestamp}
	present := e.presence.Update(in.Hand != nil)
	out.Present = present

	var cue motion.FaceCue
	if e.cfg.Mode.gestures() {
		cue = motion.CueFromFace(in.Face)
	}

	var cls handpose.Classification
	if in.Hand != nil {
		cls = e.classifier.Classify(in.Hand)
		frame := motion.NewFrame(in.Timestamp, in.Hand, cls.Letter, in.Face)
		e.fingers = frame.Fingers
		e.buffer.Append(frame)
		out.Static = Static{Letter: cls.Letter, Confidence: cls.Confidence, HandDetected: true}
	} else {
		e.fingers = handpose.FingerState{}
	}

	if e.cfg.Mode.letters() && present && in.Hand != nil {
		if l, ok := e.letters.Observe(cls, in.Timestamp); ok {
			out.Committed = append(out.Committed, Commit{
				Kind:       KindLetter,
				Symbol:     l,
				Confidence: cls.Confidence,
				Timestamp:  in.Timestamp,
			})
		}
	}

	if e.cfg.Mode.gestures() {
		if d, evaluated := e.gestures.Tick(in.Timestamp, e.buffer, cue); evaluated {
			e.gesture = Gesture{Name: d.Gesture, Confidence: d.Confidence}
			if !d.None() {
				e.text.AppendWord(d.Gesture.Word())
				out.Committed = append(out.Committed, Commit{
					Kind:       KindGesture,
					Symbol:     string(d.Gesture),
					Confidence: d.Confidence,
					Timestamp:  in.Timestamp,
				})
			}
		}
	}

	out.Gesture = e.gesture
	out.Gesture.MotionDetected = e.moving()
	out.Text = e.text.String()
	out.Diagnostic = e.Diagnostic()
	return out
}

// moving reports whether the hand center travelled far enough over the most
// recent frames.
func (e *Engine) moving() bool {
	n := e.buffer.Len()
	if n > motionFrames {
		n = motionFrames
	}
	frames := e.buffer.Last(n)
	var travel float64
	for i := 1; i < len(frames); i++ {
		a, b := frames[i-1].Center, frames[i].Center
		travel += math.Hypot(b.X-a.X, b.Y-a.Y)
	}
	return travel > motionThreshold
}

// Diagnostic summarizes the current finger state and buffer depth.
func (e *Engine) Diagnostic() string {
	return fmt.Sprintf("fingers=%s count=%d buffer=%d/%d presence=%s",
		e.fingers, e.fingers.Count(), e.buffer.Len(), e.buffer.Cap(), e.presence)
}

// Apply performs a text edit and returns the resulting text.
func (e *Engine) Apply(op transcript.Op) string {
	e.text.Apply(op)
	return e.text.String()
}

// Text returns the output text.
func (e *Engine) Text() string {
	return e.text.String()
}

// Reset drops the motion buffer, the letter history, the gesture cadence and
// presence. The text is kept.
func (e *Engine) Reset() {
	e.buffer.Clear()
	e.letters.Reset()
	e.gestures.Reset()
	e.presence.Reset()
	e.gesture = Gesture{}
	e.fingers = handpose.FingerState{}
}
