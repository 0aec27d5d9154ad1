package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// ErrScriptNotFound is returned when the tracker script cannot be located.
var ErrScriptNotFound = errors.New("tracker_service.py not found")

const trackerScript = "tracker_service.py"

// idleShutdown stops the tracker process after this long without frames.
const idleShutdown = 30 * time.Second

// MediaPipeDetector implements Detector using a Python MediaPipe subprocess
// running the hand landmarker and, optionally, the face mesh.
//
// Protocol: each frame is written to stdin as a 4-byte big-endian length
// followed by a JPEG. The process answers with one JSON line per frame.
type MediaPipeDetector struct {
	config    Config
	script    string
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	idleTimer *time.Timer
}

// NewMediaPipeDetector creates a new MediaPipe detector.
// The Python process is started lazily on first detection.
func NewMediaPipeDetector(config Config) (*MediaPipeDetector, error) {
	script := findTrackerScript()
	if script == "" {
		return nil, ErrScriptNotFound
	}

	return &MediaPipeDetector{
		config: config,
		script: script,
	}, nil
}

// Detect sends a frame to the tracker and returns its landmarks.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) (Observation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if frame == nil || frame.Empty() {
		return Observation{}, nil
	}

	if err := d.ensureStarted(); err != nil {
		return Observation{}, err
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return Observation{}, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()

	header := make([]byte, 4)
	binary.BigEndian.PutUint32(header, uint32(len(data)))

	if _, err := d.stdin.Write(header); err != nil {
		return Observation{}, fmt.Errorf("write length: %w", err)
	}
	if _, err := d.stdin.Write(data); err != nil {
		return Observation{}, fmt.Errorf("write data: %w", err)
	}

	line, err := d.stdout.ReadBytes('\n')
	if err != nil {
		return Observation{}, fmt.Errorf("read response: %w", err)
	}

	obs, err := decodeObservation(line)
	if err != nil {
		return Observation{}, err
	}

	d.resetIdleTimer()
	return obs, nil
}

// Close shuts down the Python process.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func (d *MediaPipeDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	python := findVenvPython()
	if python == "" {
		python = "python3"
	}

	args := []string{
		d.script,
		"--max-hands", strconv.Itoa(d.config.MaxHands),
		"--min-confidence", strconv.FormatFloat(d.config.MinConfidence, 'f', 2, 64),
		"--min-tracking", strconv.FormatFloat(d.config.MinTrackingConf, 'f', 2, 64),
	}
	if d.config.TrackFace {
		args = append(args, "--face")
	}
	d.cmd = exec.Command(python, args...)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start tracker service: %w", err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true

	log.WithFields(log.Fields{
		"python": python,
		"script": d.script,
		"face":   d.config.TrackFace,
	}).Info("tracker service started")

	return nil
}

func (d *MediaPipeDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	return err
}

func (d *MediaPipeDetector) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(idleShutdown, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if err := d.shutdown(); err != nil {
			log.WithError(err).Debug("tracker service exited")
		}
	})
}

func findTrackerScript() string {
	return firstExisting(
		filepath.Join("scripts", trackerScript),
		filepath.Join("..", "scripts", trackerScript),
		filepath.Join(execDir(), "scripts", trackerScript),
		filepath.Join(os.Getenv("HOME"), ".signlens", "scripts", trackerScript),
	)
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	return firstExisting(
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(execDir(), "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".signlens", "venv", "bin", "python"),
	)
}

func execDir() string {
	p, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Dir(p)
}

func firstExisting(candidates ...string) string {
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			if abs, err := filepath.Abs(path); err == nil {
				return abs
			}
			return path
		}
	}
	return ""
}

// jsonObservation is the line format written by the tracker service.
type jsonObservation struct {
	Hands []jsonHand  `json:"hands"`
	Face  []jsonPoint `json:"face"`
}

type jsonHand struct {
	Points     []jsonPoint `json:"points"`
	Handedness string      `json:"handedness"`
	Score      float64     `json:"score"`
}

type jsonPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// decodeObservation parses one tracker response line. Hands with a point
// count other than 21 are dropped rather than padded.
func decodeObservation(line []byte) (Observation, error) {
	var raw jsonObservation
	if err := json.Unmarshal(line, &raw); err != nil {
		return Observation{}, fmt.Errorf("parse response: %w", err)
	}

	var obs Observation
	for _, h := range raw.Hands {
		hand, err := HandFromPoints(toPoints(h.Points))
		if err != nil {
			log.WithError(err).Debug("dropping hand")
			continue
		}
		hand.Handedness = h.Handedness
		hand.Score = h.Score
		obs.Hands = append(obs.Hands, *hand)
	}

	if len(raw.Face) > 0 {
		obs.Face = &FaceLandmarks{Points: toPoints(raw.Face)}
	}

	return obs, nil
}

func toPoints(in []jsonPoint) []Point3D {
	out := make([]Point3D, len(in))
	for i, p := range in {
		out[i] = Point3D{X: p.X, Y: p.Y, Z: p.Z}
	}
	return out
}
