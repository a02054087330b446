package repository

import (
	"ai_tutor_backend/internal/model"

	"gorm.io/gorm"
)

type LearningPlanRepository struct {
	DB *gorm.DB
}

func NewLearningPlanRepository(db *gorm.DB) *LearningPlanRepository {
	return &LearningPlanRepository{DB: db}
}

func (r *LearningPlanRepository) Create(plan *model.LearningPlan) error {
	return r.DB.Create(plan).Error
}

func (r *LearningPlanRepository) FindByID(id uint) (*model.LearningPlan, error) {
	var plan model.LearningPlan
	err := r.DB.Preload("Tasks").First(&plan, id).Error
	return &plan, err
}

func (r *LearningPlanRepository) FindActiveByUser(userID uint) (*model.LearningPlan, error) {
	var plan model.LearningPlan
	err := r.DB.Preload("Tasks").
		Where("user_id = ? AND status = ?", userID, model.PlanActive).
		Order("created_at DESC").
		First(&plan).Error
	return &plan, err
}

func (r *LearningPlanRepository) UpdateStatus(id uint, status model.PlanStatus) error {
	return r.DB.Model(&model.LearningPlan{}).
		Where("id = ?", id).
		Update("status", status).
		Error
}

// ListActiveUserIDs 列出所有持有激活计划的用户，供每日总结任务遍历
func (r *LearningPlanRepository) ListActiveUserIDs() ([]uint, error) {
	var userIDs []uint
	err := r.DB.Model(&model.LearningPlan{}).
		Where("status = ?", model.PlanActive).
		Distinct().
		Pluck("user_id", &userIDs).Error
	return userIDs, err
}
