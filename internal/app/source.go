package app

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/signlens/internal/capture"
	"github.com/ayusman/signlens/internal/detector"
	"github.com/ayusman/signlens/internal/recognizer"
	"gocv.io/x/gocv"
)

// LiveSource turns camera frames into engine inputs.
//
// Frame flow:
//  1. Wait for the next tick at the gate's frame rate
//  2. Read a frame and feed it to the activity gate
//  3. On a gate transition, switch the camera between idle and active FPS
//  4. Keep a JPEG of the frame for preview clients
//  5. Track landmarks only while the gate is active
//
// Idle frames still yield an input without a hand so presence and the
// gesture cadence keep advancing.
type LiveSource struct {
	camera   capture.Camera
	gate     *capture.ActivityGate
	detector detector.Detector
	now      func() time.Time

	ticker *time.Ticker
	fps    int

	mu      sync.RWMutex
	preview []byte
}

// NewLiveSource creates a source over an unopened camera.
func NewLiveSource(camera capture.Camera, gate *capture.ActivityGate, d detector.Detector) *LiveSource {
	return &LiveSource{
		camera:   camera,
		gate:     gate,
		detector: d,
		now:      time.Now,
	}
}

// Open opens the camera at the idle frame rate.
func (s *LiveSource) Open() error {
	if err := s.camera.Open(); err != nil {
		return err
	}
	s.fps = s.gate.FPS()
	s.camera.SetFPS(s.fps)
	s.ticker = time.NewTicker(time.Second / time.Duration(s.fps))
	log.WithField("fps", s.fps).Info("Camera opened")
	return nil
}

// Next returns the input for the next frame.
func (s *LiveSource) Next(ctx context.Context) (recognizer.Input, error) {
	if s.ticker == nil {
		return recognizer.Input{}, capture.ErrCameraNotOpen
	}

	for {
		select {
		case <-ctx.Done():
			return recognizer.Input{}, ctx.Err()
		case <-s.ticker.C:
		}

		frame, err := s.camera.ReadFrame()
		if err != nil {
			if errors.Is(err, capture.ErrCameraNotOpen) {
				return recognizer.Input{}, err
			}
			log.WithError(err).Warn("Error reading frame")
			continue
		}
		return s.process(frame), nil
	}
}

func (s *LiveSource) process(frame *gocv.Mat) recognizer.Input {
	defer frame.Close()

	now := s.now()
	in := recognizer.Input{Timestamp: now}

	active, changed := s.gate.Observe(frame, now)
	if changed {
		s.retune()
		if active {
			log.WithField("fps", s.fps).Info("Switched to active mode")
		} else {
			log.WithField("fps", s.fps).Info("Switched to idle mode")
		}
	}

	if data, err := capture.EncodeJPEG(frame); err == nil {
		s.mu.Lock()
		s.preview = data
		s.mu.Unlock()
	}

	if !active || s.detector == nil {
		return in
	}

	obs, err := s.detector.Detect(frame)
	if err != nil {
		log.WithError(err).Warn("Error tracking landmarks")
		return in
	}
	in.Hand = obs.PrimaryHand()
	in.Face = obs.Face
	if in.Hand != nil {
		s.gate.Touch(now)
	}
	return in
}

func (s *LiveSource) retune() {
	fps := s.gate.FPS()
	if fps == s.fps {
		return
	}
	s.fps = fps
	s.camera.SetFPS(fps)
	if s.ticker != nil {
		s.ticker.Reset(time.Second / time.Duration(fps))
	}
}

// Snapshot returns the most recent frame as JPEG, or nil before the first
// frame.
func (s *LiveSource) Snapshot() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.preview
}

// Close stops the camera and releases the gate and the tracker.
func (s *LiveSource) Close() error {
	if s.ticker != nil {
		s.ticker.Stop()
	}

	var errs []error
	if err := s.camera.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.gate.Close(); err != nil {
		errs = append(errs, err)
	}
	if s.detector != nil {
		if err := s.detector.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
