package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"picup/internal/logger"
	"picup/internal/model"
	"picup/internal/pipeline"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrWatchUnavailable = errors.New("watch directory unavailable")
	ErrAlreadyRunning   = errors.New("watcher already running")
)

type Dispatcher interface {
	Dispatch(ctx context.Context, ev model.FileEvent) error
}

// Watcher observes a single directory, non-recursively, for created entries.
type Watcher struct {
	dispatcher Dispatcher
	matcher    *pipeline.Matcher

	mu     sync.Mutex
	fw     *fsnotify.Watcher
	dir    string
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(dispatcher Dispatcher, ignoreList []string) *Watcher {
	return &Watcher{
		dispatcher: dispatcher,
		matcher:    pipeline.NewMatcher(ignoreList),
	}
}

func (w *Watcher) Start(dir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.fw != nil {
		return ErrAlreadyRunning
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("%w: failed to resolve path: %w", ErrWatchUnavailable, err)
	}

	info, err := os.Stat(absDir)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWatchUnavailable, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrWatchUnavailable, absDir)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%w: failed to create watcher: %w", ErrWatchUnavailable, err)
	}

	if err := fw.Add(absDir); err != nil {
		_ = fw.Close()
		return fmt.Errorf("%w: failed to watch %s: %w", ErrWatchUnavailable, absDir, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.fw = fw
	w.dir = absDir
	w.cancel = cancel

	moves := newMoveTracker(absDir, w.matcher)

	w.wg.Add(1)
	go w.run(ctx, fw, absDir, moves)

	logger.Log.Info("watcher started",
		zap.String("dir", absDir))
	return nil
}

func (w *Watcher) run(ctx context.Context, fw *fsnotify.Watcher, dir string, moves *moveTracker) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case fsEvent, ok := <-fw.Events:
			if !ok {
				return
			}

			switch {
			case fsEvent.Op.Has(fsnotify.Create):
			case fsEvent.Op.Has(fsnotify.Rename):
				moves.movedAway(filepath.Join(dir, filepath.Base(fsEvent.Name)))
				continue
			case fsEvent.Op.Has(fsnotify.Remove):
				moves.removed(filepath.Join(dir, filepath.Base(fsEvent.Name)))
				continue
			default:
				continue
			}

			ev, ok := w.toFileEvent(dir, fsEvent.Name, moves)
			if !ok {
				continue
			}

			if err := w.dispatcher.Dispatch(ctx, ev); err != nil {
				if ctx.Err() != nil {
					return
				}

				logger.Log.Warn("failed to dispatch upload",
					zap.String("path", ev.Path),
					zap.Error(err))
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}

			logger.Log.Error("watcher error",
				zap.Error(err))
		}
	}
}

func (w *Watcher) toFileEvent(dir, name string, moves *moveTracker) (model.FileEvent, bool) {
	path := filepath.Join(dir, filepath.Base(name))

	if w.matcher.ShouldIgnore(path) {
		logger.Log.Debug("ignoring file",
			zap.String("path", path))
		return model.FileEvent{}, false
	}

	info, err := os.Stat(path)
	if err != nil {
		logger.Log.Debug("file vanished before upload, dropping event",
			zap.String("path", path),
			zap.Error(err))
		return model.FileEvent{}, false
	}

	if info.IsDir() {
		logger.Log.Debug("skipping new directory",
			zap.String("path", path))
		return model.FileEvent{}, false
	}

	if moves.arrived(path, info) {
		logger.Log.Debug("file renamed within watch directory, skipping",
			zap.String("path", path))
		return model.FileEvent{}, false
	}

	return model.FileEvent{
		ID:         uuid.NewString(),
		Path:       path,
		ObservedAt: time.Now(),
	}, true
}

// Stop ends the subscription and waits until no more events can be
// dispatched. It is safe to call at any time, any number of times.
func (w *Watcher) Stop() {
	w.mu.Lock()
	fw, cancel := w.fw, w.cancel
	w.fw = nil
	w.cancel = nil
	dir := w.dir
	w.dir = ""
	w.mu.Unlock()

	if fw == nil {
		return
	}

	cancel()
	_ = fw.Close()
	w.wg.Wait()

	logger.Log.Info("watcher stopped",
		zap.String("dir", dir))
}

func (w *Watcher) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dir
}
