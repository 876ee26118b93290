package watcher

import (
	"os"
	"path/filepath"
	"picup/internal/logger"
	"picup/internal/pipeline"

	"go.uber.org/zap"
)

// moveWindow bounds how many unmatched Rename events are remembered. The
// destination half of a move normally follows its source immediately.
const moveWindow = 10

// moveTracker pairs the two halves of a move inside the watched directory.
// fsnotify reports the destination of a move as Create, so without pairing a
// renamed file would look new.
type moveTracker struct {
	known map[string]os.FileInfo
	moved [moveWindow]os.FileInfo
	next  int
}

// newMoveTracker records the regular files already in dir. Ignored names are
// left out, so a file written under an ignored temporary name and then
// renamed into place still counts as a new file.
func newMoveTracker(dir string, matcher *pipeline.Matcher) *moveTracker {
	t := &moveTracker{known: make(map[string]os.FileInfo)}

	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Log.Debug("failed to list watch directory",
			zap.String("dir", dir),
			zap.Error(err))
		return t
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() || matcher.ShouldIgnore(path) {
			continue
		}

		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		t.known[path] = info
	}

	return t
}

func (t *moveTracker) removed(path string) {
	if t == nil {
		return
	}
	delete(t.known, path)
}

func (t *moveTracker) movedAway(path string) {
	if t == nil {
		return
	}

	info, ok := t.known[path]
	if !ok {
		return
	}
	delete(t.known, path)

	t.moved[t.next] = info
	t.next = (t.next + 1) % moveWindow
}

// arrived records info under path and reports whether it is a file that just
// left another name in the directory.
func (t *moveTracker) arrived(path string, info os.FileInfo) bool {
	if t == nil {
		return false
	}
	t.known[path] = info

	for i, prev := range t.moved {
		if prev != nil && os.SameFile(prev, info) {
			t.moved[i] = nil
			return true
		}
	}

	return false
}
