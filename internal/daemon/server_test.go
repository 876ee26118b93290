package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"picup/internal/db"
	"picup/internal/model"
	"picup/internal/repository"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAgent struct {
	snap       model.Snapshot
	restarts   int
	restartErr error
}

func (f *fakeAgent) Snapshot() model.Snapshot { return f.snap }

func (f *fakeAgent) Restart(context.Context) error {
	f.restarts++
	return f.restartErr
}

func do(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestStats_Record(t *testing.T) {
	s := NewStats()
	s.Record(model.UploadResult{Success: true})
	s.Record(model.UploadResult{Success: true})
	s.Record(model.UploadResult{Kind: model.KindTransport})

	var snap model.Snapshot
	s.Fill(&snap)
	assert.Equal(t, 2, snap.Uploaded)
	assert.Equal(t, 1, snap.Failed)
	assert.NotNil(t, snap.LastUpload)
}

func TestServer_Status(t *testing.T) {
	agent := &fakeAgent{snap: model.Snapshot{State: model.StateRunning, WatchPath: "/watch", InFlight: 2}}
	stats := NewStats()
	stats.Record(model.UploadResult{Success: true})
	last := time.Now()

	s := NewServer(agent, stats, 0, WithKeepAlive(func() *time.Time { return &last }))
	rec := do(t, s, http.MethodGet, "/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var snap model.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, model.StateRunning, snap.State)
	assert.Equal(t, "/watch", snap.WatchPath)
	assert.Equal(t, 2, snap.InFlight)
	assert.Equal(t, 1, snap.Uploaded)
	require.NotNil(t, snap.LastKeepAlive)
	assert.WithinDuration(t, last, *snap.LastKeepAlive, time.Millisecond)
}

func TestServer_StatusLifetimeTotals(t *testing.T) {
	require.NoError(t, db.Init(filepath.Join(t.TempDir(), "history.db")))
	t.Cleanup(func() { _ = db.Close() })

	repo := repository.NewHistoryRepository()
	require.NoError(t, repo.Save(model.UploadResult{Event: model.FileEvent{Path: "/watch/a.jpg"}, Success: true, StatusCode: 200}))
	require.NoError(t, repo.Save(model.UploadResult{Event: model.FileEvent{Path: "/watch/b.jpg"}, Success: true, StatusCode: 201}))
	require.NoError(t, repo.Save(model.UploadResult{Event: model.FileEvent{Path: "/watch/c.jpg"}, Kind: model.KindTransport, Err: errors.New("connection refused")}))

	s := NewServer(&fakeAgent{snap: model.Snapshot{State: model.StateRunning}}, NewStats(), 0)
	rec := do(t, s, http.MethodGet, "/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var snap model.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, int64(2), snap.TotalUploaded)
	assert.Equal(t, int64(1), snap.TotalFailed)
	assert.Zero(t, snap.Uploaded)
}

func TestServer_StatusWithoutHistory(t *testing.T) {
	s := NewServer(&fakeAgent{}, NewStats(), 0)

	snap := s.Snapshot()
	assert.Zero(t, snap.TotalUploaded)
	assert.Zero(t, snap.TotalFailed)
}

func TestServer_Stop(t *testing.T) {
	s := NewServer(&fakeAgent{}, NewStats(), 0)

	rec := do(t, s, http.MethodPost, "/stop")
	assert.Equal(t, http.StatusOK, rec.Code)
	do(t, s, http.MethodPost, "/stop")

	select {
	case <-s.StopCh():
	default:
		t.Fatal("expected stop signal")
	}
}

func TestServer_Restart(t *testing.T) {
	agent := &fakeAgent{snap: model.Snapshot{WatchPath: "/watch"}}
	s := NewServer(agent, NewStats(), 0)

	rec := do(t, s, http.MethodPost, "/restart")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"watch_path":"/watch"`)
	assert.Equal(t, 1, agent.restarts)

	agent.restartErr = errors.New("watch directory unavailable")
	rec = do(t, s, http.MethodPost, "/restart")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServer_History(t *testing.T) {
	require.NoError(t, db.Init(filepath.Join(t.TempDir(), "history.db")))
	t.Cleanup(func() { _ = db.Close() })

	repo := repository.NewHistoryRepository()
	require.NoError(t, repo.Save(model.UploadResult{Event: model.FileEvent{Path: "/watch/a.jpg"}, Success: true, StatusCode: 200}))
	require.NoError(t, repo.Save(model.UploadResult{Event: model.FileEvent{Path: "/watch/b.jpg"}, StatusCode: 500, Kind: model.KindStatus, Err: errors.New("unexpected status code 500")}))

	s := NewServer(&fakeAgent{}, NewStats(), 0)

	rec := do(t, s, http.MethodGet, "/history?n=10")
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []HistoryEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Len(t, entries, 2)

	rec = do(t, s, http.MethodGet, "/history?failed=true")
	require.Equal(t, http.StatusOK, rec.Code)
	entries = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "/watch/b.jpg", entries[0].Path)
	assert.Equal(t, "STATUS", entries[0].ErrKind)

	rec = do(t, s, http.MethodGet, "/history?n=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Metrics(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("picup_uploads_total 1\n"))
	})
	s := NewServer(&fakeAgent{}, NewStats(), 0, WithMetrics(h))

	rec := do(t, s, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "picup_uploads_total"))
}
