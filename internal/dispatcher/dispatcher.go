package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"picup/internal/logger"
	"picup/internal/model"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNotRunning     = errors.New("dispatcher is not running")
	ErrAlreadyRunning = errors.New("dispatcher already running")
)

type Uploader interface {
	Upload(ctx context.Context, path string) model.UploadResult
}

// Recorder receives the outcome of every upload attempt.
type Recorder interface {
	Record(result model.UploadResult)
}

type Dispatcher struct {
	uploader  Uploader
	recorders []Recorder
	workers   int
	queueSize int
	inFlight  atomic.Int64
	// dropped counts events taken off the queue after Stop began.
	dropped atomic.Int64

	mu     sync.Mutex
	queue  chan model.FileEvent
	cancel context.CancelFunc
	done   chan struct{}
	group  *errgroup.Group
}

func New(up Uploader, workers, queueSize int, recorders ...Recorder) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}

	return &Dispatcher{
		uploader:  up,
		recorders: recorders,
		workers:   workers,
		queueSize: queueSize,
	}
}

func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.done != nil {
		return ErrAlreadyRunning
	}

	scope, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(scope)

	// Each run gets its own queue so nothing from a previous run leaks in.
	queue := make(chan model.FileEvent, d.queueSize)

	d.queue = queue
	d.cancel = cancel
	d.done = make(chan struct{})
	d.group = g
	d.dropped.Store(0)

	for i := 0; i < d.workers; i++ {
		g.Go(func() error {
			d.work(gctx, queue)
			return nil
		})
	}

	logger.Log.Debug("dispatcher started",
		zap.Int("workers", d.workers),
		zap.Int("queue_size", d.queueSize))
	return nil
}

// Dispatch queues ev for upload and returns without waiting for the attempt.
// It blocks only while the queue is full.
func (d *Dispatcher) Dispatch(ctx context.Context, ev model.FileEvent) error {
	d.mu.Lock()
	queue, done := d.queue, d.done
	d.mu.Unlock()

	if done == nil {
		return ErrNotRunning
	}

	select {
	case <-done:
		return ErrNotRunning
	default:
	}

	select {
	case queue <- ev:
		// Stop may have won the race after the send; the event then sits
		// in a queue no worker will read.
		select {
		case <-done:
			return ErrNotRunning
		default:
			return nil
		}
	case <-done:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) work(ctx context.Context, queue <-chan model.FileEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-queue:
			if ctx.Err() != nil {
				d.dropped.Add(1)
				return
			}
			d.handle(ctx, ev)
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, ev model.FileEvent) {
	d.inFlight.Add(1)
	defer d.inFlight.Add(-1)

	result := d.upload(ctx, ev)
	result.Event = ev

	if result.Success {
		logger.Log.Info("uploaded",
			zap.String("id", ev.ID),
			zap.String("path", ev.Path),
			zap.Int("status", result.StatusCode),
			zap.Duration("took", result.Duration))
	} else {
		logger.Log.Error("upload failed",
			zap.String("id", ev.ID),
			zap.String("path", ev.Path),
			zap.String("kind", string(result.Kind)),
			zap.Int("status", result.StatusCode),
			zap.Error(result.Err))
	}

	for _, r := range d.recorders {
		r.Record(result)
	}
}

func (d *Dispatcher) upload(ctx context.Context, ev model.FileEvent) (result model.UploadResult) {
	start := time.Now()

	defer func() {
		if p := recover(); p != nil {
			result = model.UploadResult{
				Kind:     model.KindIO,
				Err:      fmt.Errorf("upload panicked: %v", p),
				Duration: time.Since(start),
			}
		}
	}()

	return d.uploader.Upload(ctx, ev.Path)
}

// Stop cancels in-flight uploads and waits for the workers to exit. Events
// still queued are discarded.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.done == nil {
		d.mu.Unlock()
		return
	}

	close(d.done)
	d.cancel()
	g, queue := d.group, d.queue
	d.done = nil
	d.cancel = nil
	d.group = nil
	d.queue = nil
	d.mu.Unlock()

	_ = g.Wait()

	if dropped := len(queue) + int(d.dropped.Load()); dropped > 0 {
		logger.Log.Warn("dispatcher stopped with queued uploads",
			zap.Int("dropped", dropped))
	}
	logger.Log.Debug("dispatcher stopped")
}

func (d *Dispatcher) InFlight() int {
	return int(d.inFlight.Load())
}

func (d *Dispatcher) Queued() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}
