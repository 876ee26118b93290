package agent

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"picup/internal/logger"
	"picup/internal/model"
	"picup/internal/notify"
	"picup/internal/resolver"
	"picup/internal/watcher"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
)

var (
	ErrInvalidState   = errors.New("invalid agent state")
	ErrAlreadyRunning = errors.New("another picup agent is already running")
)

const (
	keepAliveTitle = "Uploading Service"
	keepAliveText  = "Service is running"
)

type Dispatcher interface {
	watcher.Dispatcher
	Start(ctx context.Context) error
	Stop()
	InFlight() int
	Queued() int
}

type Options struct {
	DefaultWatchPath  string
	KeepAliveInterval time.Duration
	IgnoreList        []string
	// LockPath guards against two agents uploading the same directory.
	// Empty disables the lock.
	LockPath string
}

type Agent struct {
	opts       Options
	resolver   resolver.Resolver
	notifier   notify.Notifier
	dispatcher Dispatcher
	watcher    *watcher.Watcher

	// opMu serialises Start and Stop; mu guards the fields below.
	opMu      sync.Mutex
	mu        sync.RWMutex
	state     model.AgentState
	watchPath string
	startedAt *time.Time
	lock      *flock.Flock
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

func New(opts Options, res resolver.Resolver, n notify.Notifier, d Dispatcher) *Agent {
	if opts.KeepAliveInterval <= 0 {
		opts.KeepAliveInterval = 5 * time.Second
	}

	return &Agent{
		opts:       opts,
		resolver:   res,
		notifier:   n,
		dispatcher: d,
		watcher:    watcher.New(d, opts.IgnoreList),
		state:      model.StateStopped,
	}
}

func (a *Agent) Start(ctx context.Context) error {
	a.opMu.Lock()
	defer a.opMu.Unlock()

	if s := a.State(); s != model.StateStopped {
		return fmt.Errorf("%w: cannot start from %s", ErrInvalidState, s)
	}
	a.setState(model.StateStarting)

	if err := a.start(ctx); err != nil {
		a.setState(model.StateStopped)
		return err
	}

	now := time.Now()
	a.mu.Lock()
	a.startedAt = &now
	a.state = model.StateRunning
	a.mu.Unlock()

	logger.Log.Info("agent started",
		zap.String("dir", a.WatchPath()),
		zap.Duration("keepalive", a.opts.KeepAliveInterval))
	return nil
}

func (a *Agent) start(ctx context.Context) error {
	if a.opts.LockPath != "" {
		lock := flock.New(a.opts.LockPath)
		ok, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("failed to acquire lock: %w", err)
		}
		if !ok {
			return ErrAlreadyRunning
		}
		a.lock = lock
	}

	scope, cancel := context.WithCancel(ctx)

	if err := a.dispatcher.Start(scope); err != nil {
		cancel()
		a.releaseLock()
		return fmt.Errorf("failed to start dispatcher: %w", err)
	}

	dir, err := a.startWatcher()
	if err != nil {
		a.dispatcher.Stop()
		cancel()
		a.releaseLock()
		return err
	}

	a.mu.Lock()
	a.watchPath = dir
	a.cancel = cancel
	a.mu.Unlock()

	a.wg.Add(1)
	go a.keepAlive(scope)

	return nil
}

func (a *Agent) startWatcher() (string, error) {
	dir := a.resolve()

	err := a.watcher.Start(dir)
	if err == nil {
		return a.watcher.Path(), nil
	}

	if !errors.Is(err, watcher.ErrWatchUnavailable) || samePath(dir, a.opts.DefaultWatchPath) {
		return "", fmt.Errorf("failed to start watcher: %w", err)
	}

	logger.Log.Warn("watch directory unavailable, falling back to default",
		zap.String("dir", dir),
		zap.String("default", a.opts.DefaultWatchPath),
		zap.Error(err))

	if err := a.watcher.Start(a.opts.DefaultWatchPath); err != nil {
		return "", fmt.Errorf("failed to start watcher: %w", err)
	}

	return a.watcher.Path(), nil
}

func (a *Agent) resolve() string {
	if a.resolver == nil {
		return a.opts.DefaultWatchPath
	}

	dir, err := a.resolver.Resolve()
	if err != nil {
		logger.Log.Warn("failed to resolve watch directory, using default",
			zap.String("default", a.opts.DefaultWatchPath),
			zap.Error(err))
		return a.opts.DefaultWatchPath
	}

	return dir
}

func (a *Agent) keepAlive(ctx context.Context) {
	defer a.wg.Done()

	ticker := time.NewTicker(a.opts.KeepAliveInterval)
	defer ticker.Stop()

	a.ping(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.ping(ctx)
		}
	}
}

func (a *Agent) ping(ctx context.Context) {
	if a.notifier == nil {
		return
	}

	if err := a.notifier.KeepAlive(ctx, keepAliveTitle, keepAliveText); err != nil {
		logger.Log.Debug("keepalive failed",
			zap.Error(err))
	}
}

// Stop tears down the watcher, the keepalive and all in-flight uploads.
// In-flight requests are cancelled on a best-effort basis.
func (a *Agent) Stop() {
	a.opMu.Lock()
	defer a.opMu.Unlock()

	if a.State() != model.StateRunning {
		return
	}
	a.setState(model.StateStopping)

	a.watcher.Stop()

	a.mu.Lock()
	cancel := a.cancel
	a.cancel = nil
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	a.wg.Wait()
	a.dispatcher.Stop()
	a.releaseLock()

	a.mu.Lock()
	a.state = model.StateStopped
	a.watchPath = ""
	a.startedAt = nil
	a.mu.Unlock()

	logger.Log.Info("agent stopped")
}

// Restart runs a fresh start from scratch. Nothing from the previous run,
// including the resolved watch directory, is reused.
func (a *Agent) Restart(ctx context.Context) error {
	a.Stop()
	return a.Start(ctx)
}

func (a *Agent) releaseLock() {
	if a.lock == nil {
		return
	}

	if err := a.lock.Unlock(); err != nil {
		logger.Log.Warn("failed to release agent lock",
			zap.Error(err))
	}
	a.lock = nil
}

func (a *Agent) setState(s model.AgentState) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = s
}

func (a *Agent) State() model.AgentState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

func (a *Agent) WatchPath() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.watchPath
}

func (a *Agent) Snapshot() model.Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return model.Snapshot{
		State:     a.state,
		WatchPath: a.watchPath,
		StartedAt: a.startedAt,
		InFlight:  a.dispatcher.InFlight(),
		Queued:    a.dispatcher.Queued(),
	}
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return absA == absB
}
