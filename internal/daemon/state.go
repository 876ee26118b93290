package daemon

import (
	"picup/internal/model"
	"sync"
	"time"
)

// Stats counts upload outcomes for the current process.
type Stats struct {
	mu         sync.RWMutex
	uploaded   int
	failed     int
	lastUpload *time.Time
}

func NewStats() *Stats {
	return &Stats{}
}

func (s *Stats) Record(result model.UploadResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if result.Success {
		s.uploaded++
		s.lastUpload = new(time.Now())
	} else {
		s.failed++
	}
}

// Fill copies the counters into snap.
func (s *Stats) Fill(snap *model.Snapshot) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap.Uploaded = s.uploaded
	snap.Failed = s.failed
	snap.LastUpload = s.lastUpload
}
