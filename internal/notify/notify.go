package notify

import (
	"context"
	"picup/internal/logger"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Notifier receives the periodic liveness signal. It has no effect on uploads.
type Notifier interface {
	KeepAlive(ctx context.Context, title, text string) error
}

type LogNotifier struct {
	mu   sync.RWMutex
	last *time.Time
}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) KeepAlive(_ context.Context, title, text string) error {
	now := time.Now()

	n.mu.Lock()
	n.last = &now
	n.mu.Unlock()

	logger.Log.Debug("keepalive",
		zap.String("title", title),
		zap.String("text", text))
	return nil
}

// Last returns the time of the most recent keepalive, nil before the first.
func (n *LogNotifier) Last() *time.Time {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.last == nil {
		return nil
	}
	t := *n.last
	return &t
}
