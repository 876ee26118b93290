package model

import "time"

// FileEvent is emitted once for every new file found in the watched directory.
type FileEvent struct {
	ID         string
	Path       string
	ObservedAt time.Time
}

type ErrorKind string

const (
	KindNone      ErrorKind = ""
	KindIO        ErrorKind = "IO"
	KindTransport ErrorKind = "TRANSPORT"
	KindStatus    ErrorKind = "STATUS"
)

type UploadResult struct {
	Event      FileEvent
	Success    bool
	StatusCode int
	Kind       ErrorKind
	Err        error
	Size       int64
	Duration   time.Duration
}
