// Package recording stores landmark sequences as YAML so sessions can be
// replayed through the recognizer without a camera.
package recording

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/signlens/internal/detector"
	"github.com/ayusman/signlens/internal/recognizer"
)

// ErrEmpty is returned for a recording without frames.
var ErrEmpty = errors.New("recording has no frames")

// Recording is a named sequence of tracker observations.
type Recording struct {
	Name   string  `yaml:"name"`
	Mode   string  `yaml:"mode,omitempty"`
	Frames []Frame `yaml:"frames"`
}

// Frame is one observation, timed from the start of the recording. Hand
// holds 21 [x, y, z] triples or nothing; Chin is [x, y] or nothing.
type Frame struct {
	TimeMs int64       `yaml:"t_ms"`
	Hand   [][]float64 `yaml:"hand,omitempty,flow"`
	Chin   []float64   `yaml:"chin,omitempty,flow"`
}

// Parse decodes and validates a recording.
func Parse(r io.Reader) (*Recording, error) {
	var rec Recording
	if err := yaml.NewDecoder(r).Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmpty
		}
		return nil, fmt.Errorf("decode recording: %w", err)
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Load reads a recording file.
func Load(path string) (*Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Save writes the recording to path.
func (r *Recording) Save(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode recording: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write recording: %w", err)
	}
	return nil
}

// Validate checks frame shapes and ordering.
func (r *Recording) Validate() error {
	if len(r.Frames) == 0 {
		return ErrEmpty
	}
	var prev int64
	for i, f := range r.Frames {
		if f.TimeMs < prev {
			return fmt.Errorf("frame %d: t_ms %d before previous frame", i, f.TimeMs)
		}
		prev = f.TimeMs
		if _, err := f.hand(); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		if len(f.Chin) != 0 && len(f.Chin) != 2 {
			return fmt.Errorf("frame %d: chin has %d coordinates, want 2", i, len(f.Chin))
		}
	}
	return nil
}

// Duration returns the time of the last frame.
func (r *Recording) Duration() time.Duration {
	if len(r.Frames) == 0 {
		return 0
	}
	return time.Duration(r.Frames[len(r.Frames)-1].TimeMs) * time.Millisecond
}

func (f Frame) hand() (*detector.HandLandmarks, error) {
	if len(f.Hand) == 0 {
		return nil, nil
	}
	points := make([]detector.Point3D, len(f.Hand))
	for i, p := range f.Hand {
		switch len(p) {
		case 2:
			points[i] = detector.Point3D{X: p[0], Y: p[1]}
		case 3:
			points[i] = detector.Point3D{X: p[0], Y: p[1], Z: p[2]}
		default:
			return nil, fmt.Errorf("%w: point %d has %d coordinates", detector.ErrMalformedLandmarks, i, len(p))
		}
	}
	return detector.HandFromPoints(points)
}

// Input converts the frame into an engine input relative to start.
func (f Frame) Input(start time.Time) (recognizer.Input, error) {
	in := recognizer.Input{Timestamp: start.Add(time.Duration(f.TimeMs) * time.Millisecond)}
	hand, err := f.hand()
	if err != nil {
		return in, err
	}
	in.Hand = hand
	if len(f.Chin) == 2 {
		in.Face = detector.FaceWithChin(f.Chin[0], f.Chin[1])
	}
	return in, nil
}

// FrameFromInput converts an engine input into a frame relative to start.
func FrameFromInput(in recognizer.Input, start time.Time) Frame {
	f := Frame{TimeMs: in.Timestamp.Sub(start).Milliseconds()}
	if in.Hand != nil {
		f.Hand = make([][]float64, len(in.Hand.Points))
		for i, p := range in.Hand.Points {
			f.Hand[i] = []float64{p.X, p.Y, p.Z}
		}
	}
	if chin, ok := in.Face.Chin(); ok {
		f.Chin = []float64{chin.X, chin.Y}
	}
	return f
}
