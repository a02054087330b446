package repository

import (
	"ai_tutor_backend/internal/model"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PreferenceRepository struct {
	DB *gorm.DB
}

func NewPreferenceRepository(db *gorm.DB) *PreferenceRepository {
	return &PreferenceRepository{DB: db}
}

// GetByUserID 读取用户通知偏好，没有记录时返回全开的默认值
func (r *PreferenceRepository) GetByUserID(userID uint) (*model.NotificationPreference, error) {
	var pref model.NotificationPreference
	err := r.DB.Where("user_id = ?", userID).First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.DefaultPreferences(userID), nil
	}
	if err != nil {
		return nil, err
	}
	return &pref, nil
}

// Upsert 按 user_id 覆盖写入偏好
func (r *PreferenceRepository) Upsert(pref *model.NotificationPreference) error {
	return r.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"email_enabled", "in_app_enabled", "task_reminder_enabled", "weekly_report_enabled",
		}),
	}).Create(pref).Error
}
