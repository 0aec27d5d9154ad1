// Package app runs the recognition loop: it reads inputs from a Source,
// feeds them to a single engine, persists commits and fans results out to
// subscribers.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/signlens/internal/detector"
	"github.com/ayusman/signlens/internal/recognizer"
	"github.com/ayusman/signlens/internal/recording"
	"github.com/ayusman/signlens/internal/store"
	"github.com/ayusman/signlens/internal/transcript"
)

var (
	// ErrNotRunning is returned by Edit when no loop is running.
	ErrNotRunning = errors.New("recognition loop is not running")
	// ErrAlreadyRunning is returned by Run when a loop is already active.
	ErrAlreadyRunning = errors.New("recognition loop is already running")
	// ErrInvalidOp is returned by Edit for an unknown text edit.
	ErrInvalidOp = errors.New("invalid text edit")
)

// Source produces engine inputs. Next blocks until an input is ready and
// returns io.EOF when the source is exhausted.
type Source interface {
	Next(ctx context.Context) (recognizer.Input, error)
	Close() error
}

// Config holds configuration options for the application.
type Config struct {
	// Store persists sessions and events. Optional.
	Store  *store.Store
	Engine recognizer.Config
	// SourceName is recorded on the session, e.g. "camera" or a file name.
	SourceName string
	// Recorder, when set, receives every processed input.
	Recorder *recording.Recorder
	// ForceEnabled ignores a stored disabled setting.
	ForceEnabled bool
}

// Result is published to subscribers after every processed input.
type Result struct {
	Output recognizer.Output        `json:"output"`
	Hand   *detector.HandLandmarks `json:"hand,omitempty"`
}

type editRequest struct {
	op    transcript.Op
	reply chan string
}

// App owns the engine. The engine is touched only by the goroutine running
// Run; other goroutines talk to it through Edit and read snapshots.
type App struct {
	config Config
	engine *recognizer.Engine
	edits  chan editRequest

	mu          sync.RWMutex
	enabled     bool
	running     bool
	last        Result
	sessionID   string
	subscribers map[int]func(Result)
	nextSub     int
}

// New creates an App. Detection starts enabled unless the store says
// otherwise and ForceEnabled is unset.
func New(config Config) *App {
	a := &App{
		config:      config,
		engine:      recognizer.New(config.Engine),
		edits:       make(chan editRequest),
		enabled:     true,
		subscribers: make(map[int]func(Result)),
	}
	if config.Store != nil && !config.ForceEnabled {
		a.enabled = config.Store.Settings().Bool(store.SettingEnabled, true)
	}
	return a
}

// Mode returns the engine mode.
func (a *App) Mode() recognizer.Mode {
	return a.engine.Mode()
}

// SetEnabled enables or disables detection and persists the choice.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	a.enabled = enabled
	a.mu.Unlock()

	if a.config.Store != nil {
		if err := a.config.Store.Settings().SetBool(store.SettingEnabled, enabled); err != nil {
			log.WithError(err).Warn("Failed to persist enabled setting")
		}
	}
	log.WithField("enabled", enabled).Info("Detection toggled")
}

// IsEnabled returns whether detection is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// Running reports whether Run is active.
func (a *App) Running() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.running
}

// SessionID returns the ID of the current or most recent stored session.
func (a *App) SessionID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.sessionID
}

// Last returns the most recent result.
func (a *App) Last() Result {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last
}

// Text returns the text as of the last processed input or edit.
func (a *App) Text() string {
	return a.Last().Output.Text
}

// Subscribe registers fn to receive every result. fn runs on the loop
// goroutine and must not block. The returned func unsubscribes.
func (a *App) Subscribe(fn func(Result)) func() {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.nextSub
	a.nextSub++
	a.subscribers[id] = fn
	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		delete(a.subscribers, id)
	}
}

// Edit applies a text edit on the loop goroutine and returns the new text.
func (a *App) Edit(ctx context.Context, op transcript.Op) (string, error) {
	if !op.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidOp, op)
	}
	if !a.Running() {
		return "", ErrNotRunning
	}

	req := editRequest{op: op, reply: make(chan string, 1)}
	select {
	case a.edits <- req:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	select {
	case text := <-req.reply:
		return text, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Run processes src until ctx is cancelled or src is exhausted. The source
// is closed on return. Exhaustion is not an error.
func (a *App) Run(ctx context.Context, src Source) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return ErrAlreadyRunning
	}
	a.running = true
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.running = false
		a.mu.Unlock()
		if err := src.Close(); err != nil {
			log.WithError(err).Warn("Error closing source")
		}
	}()

	a.openSession()
	defer a.finishSession()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	inputs := make(chan recognizer.Input)
	errs := make(chan error, 1)
	go read(ctx, src, inputs, errs)

	log.WithFields(log.Fields{
		"mode":   a.engine.Mode(),
		"source": a.config.SourceName,
	}).Info("Recognition loop started")

	paused := false
	for {
		select {
		case <-ctx.Done():
			log.Info("Recognition loop stopped")
			return nil

		case req := <-a.edits:
			text := a.engine.Apply(req.op)
			a.publishText(text)
			a.saveText(text)
			req.reply <- text

		case err := <-errs:
			if errors.Is(err, io.EOF) {
				log.Info("Source exhausted")
				return nil
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("read input: %w", err)

		case in := <-inputs:
			if !a.IsEnabled() {
				if !paused {
					a.engine.Reset()
					paused = true
				}
				continue
			}
			paused = false
			a.process(in)
		}
	}
}

// read pumps src into inputs so the loop can serve edits while the source
// blocks.
func read(ctx context.Context, src Source, inputs chan<- recognizer.Input, errs chan<- error) {
	for {
		in, err := src.Next(ctx)
		if err != nil {
			errs <- err
			return
		}
		select {
		case inputs <- in:
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) process(in recognizer.Input) {
	if a.config.Recorder != nil {
		a.config.Recorder.Add(in)
	}

	out := a.engine.Process(in)
	for _, c := range out.Committed {
		log.WithFields(log.Fields{
			"kind":       c.Kind,
			"symbol":     c.Symbol,
			"confidence": fmt.Sprintf("%.2f", c.Confidence),
		}).Info("Committed")
		a.saveEvent(c)
	}
	if len(out.Committed) > 0 {
		a.saveText(out.Text)
	}

	res := Result{Output: out, Hand: in.Hand}
	a.mu.Lock()
	a.last = res
	subs := make([]func(Result), 0, len(a.subscribers))
	for _, fn := range a.subscribers {
		subs = append(subs, fn)
	}
	a.mu.Unlock()

	for _, fn := range subs {
		fn(res)
	}
}

func (a *App) publishText(text string) {
	a.mu.Lock()
	a.last.Output.Text = text
	a.mu.Unlock()
}

func (a *App) openSession() {
	if a.config.Store == nil {
		return
	}
	sess := &store.Session{
		Mode:   string(a.engine.Mode()),
		Source: a.config.SourceName,
		Text:   a.engine.Text(),
	}
	if err := a.config.Store.Sessions().Create(sess); err != nil {
		log.WithError(err).Warn("Failed to create session")
		return
	}
	a.mu.Lock()
	a.sessionID = sess.ID
	a.mu.Unlock()
	log.WithField("session", sess.ID).Info("Session opened")
}

func (a *App) finishSession() {
	id := a.SessionID()
	if a.config.Store == nil || id == "" {
		return
	}
	if err := a.config.Store.Sessions().Finish(id, time.Now(), a.engine.Text()); err != nil {
		log.WithError(err).WithField("session", id).Warn("Failed to finish session")
	}
}

func (a *App) saveEvent(c recognizer.Commit) {
	id := a.SessionID()
	if a.config.Store == nil || id == "" {
		return
	}
	err := a.config.Store.Events().Create(&store.Event{
		SessionID:  id,
		Kind:       string(c.Kind),
		Symbol:     c.Symbol,
		Confidence: c.Confidence,
		OccurredAt: c.Timestamp,
	})
	if err != nil {
		log.WithError(err).Warn("Failed to store event")
	}
}

func (a *App) saveText(text string) {
	id := a.SessionID()
	if a.config.Store == nil || id == "" {
		return
	}
	if err := a.config.Store.Sessions().UpdateText(id, text); err != nil {
		log.WithError(err).Warn("Failed to store text")
	}
}
