package repository

import (
	"errors"
	"picup/internal/db"
	"picup/internal/logger"
	"picup/internal/model"

	"go.uber.org/zap"
)

var errNoDB = errors.New("history database not initialised")

type HistoryRepository struct{}

func NewHistoryRepository() *HistoryRepository {
	return &HistoryRepository{}
}

func (r *HistoryRepository) Save(result model.UploadResult) error {
	if db.DB == nil {
		return errNoDB
	}

	history := model.NewHistory(result)
	return db.DB.Create(&history).Error
}

// Record saves result and only logs a failed write, so a broken history
// store never affects uploads.
func (r *HistoryRepository) Record(result model.UploadResult) {
	if err := r.Save(result); err != nil {
		logger.Log.Warn("failed to save history",
			zap.String("path", result.Event.Path),
			zap.Error(err))
	}
}

type Stats struct {
	Total   int64 `json:"total"`
	Success int64 `json:"success"`
	Failed  int64 `json:"failed"`
}

func (r *HistoryRepository) GetStats() (Stats, error) {
	var stats Stats
	if db.DB == nil {
		return stats, errNoDB
	}

	if err := db.DB.Model(&model.History{}).Count(&stats.Total).Error; err != nil {
		return stats, err
	}

	if err := db.DB.Model(&model.History{}).
		Where("status = ?", model.StatusSuccess).
		Count(&stats.Success).Error; err != nil {
		return stats, err
	}

	stats.Failed = stats.Total - stats.Success
	return stats, nil
}

func (r *HistoryRepository) GetRecent(limit int) ([]model.History, error) {
	if db.DB == nil {
		return nil, errNoDB
	}

	var histories []model.History
	result := db.DB.
		Order("uploaded_at desc").
		Order("id desc").
		Limit(limit).
		Find(&histories)

	return histories, result.Error
}

func (r *HistoryRepository) GetFailed(limit int) ([]model.History, error) {
	if db.DB == nil {
		return nil, errNoDB
	}

	var histories []model.History
	result := db.DB.
		Where("status = ?", model.StatusFailed).
		Order("uploaded_at desc").
		Order("id desc").
		Limit(limit).
		Find(&histories)

	return histories, result.Error
}
