package model

import "time"

type AgentState string

const (
	StateStopped  AgentState = "STOPPED"
	StateStarting AgentState = "STARTING"
	StateRunning  AgentState = "RUNNING"
	StateStopping AgentState = "STOPPING"
)

type Snapshot struct {
	State         AgentState `json:"state"`
	WatchPath     string     `json:"watch_path"`
	StartedAt     *time.Time `json:"started_at"`
	Uploaded      int        `json:"uploaded"`
	Failed        int        `json:"failed"`
	InFlight      int        `json:"in_flight"`
	Queued        int        `json:"queued"`
	LastUpload    *time.Time `json:"last_upload"`
	LastKeepAlive *time.Time `json:"last_keepalive"`
	// Lifetime totals from the history store, across restarts.
	TotalUploaded int64 `json:"total_uploaded"`
	TotalFailed   int64 `json:"total_failed"`
}
