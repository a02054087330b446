package repository

import (
	"ai_tutor_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type ActivityRepository struct {
	DB *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{DB: db}
}

// FindByUserAndDate 查某用户某天的活跃记录，一天最多一条
func (r *ActivityRepository) FindByUserAndDate(userID uint, date time.Time) (*model.ActivityRecord, error) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	var record model.ActivityRecord
	err := r.DB.Where("user_id = ? AND activity_date = ?", userID, day).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *ActivityRepository) Save(record *model.ActivityRecord) error {
	return r.DB.Save(record).Error
}

// FindRange 查用户自 since（含）起的活跃记录，按日期升序
func (r *ActivityRepository) FindRange(userID uint, since time.Time) ([]*model.ActivityRecord, error) {
	day := time.Date(since.Year(), since.Month(), since.Day(), 0, 0, 0, 0, since.Location())
	var records []*model.ActivityRecord
	err := r.DB.Where("user_id = ? AND activity_date >= ?", userID, day).
		Order("activity_date ASC").
		Find(&records).Error
	return records, err
}

// DeleteOlderThan 保留策略：清理过旧的活跃记录
func (r *ActivityRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result := r.DB.Unscoped().
		Where("activity_date < ?", cutoff).
		Delete(&model.ActivityRecord{})
	return result.RowsAffected, result.Error
}
