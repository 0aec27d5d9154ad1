package plugin

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/signlens/internal/app"
	"github.com/ayusman/signlens/internal/motion"
	"github.com/ayusman/signlens/internal/recognizer"
)

// DefaultQueue is the number of commits buffered for plugins.
const DefaultQueue = 64

// Dispatcher delivers commits to plugins in commit order on its own
// goroutine, so slow plugins never stall recognition.
type Dispatcher struct {
	manager  *Manager
	executor *Executor
	queue    chan *Request

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewDispatcher creates a dispatcher. Start must be called before commits
// are delivered.
func NewDispatcher(m *Manager, e *Executor, queue int) *Dispatcher {
	if queue <= 0 {
		queue = DefaultQueue
	}
	return &Dispatcher{manager: m, executor: e, queue: make(chan *Request, queue)}
}

// Start runs the delivery goroutine until Close.
func (d *Dispatcher) Start(ctx context.Context) {
	ctx, d.cancel = context.WithCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for req := range d.queue {
			d.deliver(ctx, req)
		}
	}()
}

// Handle queues the commits of res. It drops commits when the queue is
// full and never blocks; it is meant to be passed to app.App.Subscribe.
func (d *Dispatcher) Handle(res app.Result) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}
	for _, c := range res.Output.Committed {
		req := &Request{
			Kind:       string(c.Kind),
			Symbol:     c.Symbol,
			Confidence: c.Confidence,
			Text:       res.Output.Text,
		}
		if c.Kind == recognizer.KindGesture {
			req.Word = motion.GestureType(c.Symbol).Word()
		}
		select {
		case d.queue <- req:
		default:
			log.WithField("symbol", c.Symbol).Warn("Plugin queue full, dropping commit")
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, req *Request) {
	for _, p := range d.manager.For(req.Kind) {
		r := *req
		r.Config = p.Manifest.Config

		resp, err := d.executor.Execute(ctx, p, &r)
		fields := log.Fields{"plugin": p.Manifest.Name, "symbol": req.Symbol}
		switch {
		case err != nil:
			log.WithError(err).WithFields(fields).Warn("Plugin failed")
		case !resp.Success:
			log.WithFields(fields).WithField("error", resp.Error).Warn("Plugin reported failure")
		default:
			log.WithFields(fields).Debug("Plugin delivered")
		}
	}
}

// Close stops accepting commits, waits for queued ones and stops.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	if d.cancel != nil {
		d.cancel()
	}
}
