package model

import (
	"time"

	"gorm.io/gorm"
)

type UploadStatus string

const (
	StatusSuccess UploadStatus = "SUCCESS"
	StatusFailed  UploadStatus = "FAILED"
)

type History struct {
	gorm.Model
	EventID    string       `gorm:"index"`
	Status     UploadStatus `gorm:"not null"`
	Path       string       `gorm:"not null"`
	StatusCode int
	ErrKind    ErrorKind
	ErrMsg     string
	Size       int64
	DurationMS int64
	UploadedAt time.Time `gorm:"not null;index"`
}

func NewHistory(result UploadResult) History {
	h := History{
		EventID:    result.Event.ID,
		Status:     StatusSuccess,
		Path:       result.Event.Path,
		StatusCode: result.StatusCode,
		ErrKind:    result.Kind,
		Size:       result.Size,
		DurationMS: result.Duration.Milliseconds(),
		UploadedAt: time.Now(),
	}

	if !result.Success {
		h.Status = StatusFailed
		if result.Err != nil {
			h.ErrMsg = result.Err.Error()
		}
	}

	return h
}
