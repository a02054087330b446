package repository

import (
	"ai_tutor_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type TaskRepository struct {
	DB *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{DB: db}
}

func (r *TaskRepository) Create(task *model.Task) error {
	return r.DB.Create(task).Error
}

func (r *TaskRepository) FindByID(id uint) (*model.Task, error) {
	var task model.Task
	err := r.DB.First(&task, id).Error
	return &task, err
}

func (r *TaskRepository) FindByUserID(userID uint) ([]*model.Task, error) {
	var tasks []*model.Task
	err := r.DB.Where("user_id = ?", userID).Order("due_date ASC").Find(&tasks).Error
	return tasks, err
}

func (r *TaskRepository) Update(task *model.Task) error {
	return r.DB.Save(task).Error
}

func (r *TaskRepository) UpdateStatus(id uint, status model.TaskStatus) error {
	return r.DB.Model(&model.Task{}).
		Where("id = ?", id).
		Update("status", status).
		Error
}

func (r *TaskRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Task{}, id).Error
}

// CountPendingByUser 用户尚未完成的任务数
func (r *TaskRepository) CountPendingByUser(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Task{}).
		Where("user_id = ? AND status <> ?", userID, model.TaskCompleted).
		Count(&count).Error
	return count, err
}

// CountCompletedOn 用户在指定日期完成的任务数
func (r *TaskRepository) CountCompletedOn(userID uint, date time.Time) (int64, error) {
	startOfDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	var count int64
	err := r.DB.Model(&model.Task{}).
		Where("user_id = ? AND status = ? AND updated_at >= ? AND updated_at < ?",
			userID, model.TaskCompleted, startOfDay, endOfDay).
		Count(&count).Error
	return count, err
}
