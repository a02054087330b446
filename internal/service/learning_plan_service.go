package service

import (
	"ai_tutor_backend/internal/model"
	"ai_tutor_backend/internal/repository"
	"ai_tutor_backend/internal/util"
	"errors"
	"time"

	"gorm.io/gorm"
)

// PlanInput 学习计划入参，计划内容由外部 ai-service 生成后提交到这里
type PlanInput struct {
	Title     string    `json:"title" binding:"required,max=255"`
	Subject   string    `json:"subject"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

// LearningPlanService 学习计划的薄 CRUD 层
type LearningPlanService struct {
	PlanRepo *repository.LearningPlanRepository
}

func NewLearningPlanService(planRepo *repository.LearningPlanRepository) *LearningPlanService {
	return &LearningPlanService{PlanRepo: planRepo}
}

func (s *LearningPlanService) CreatePlan(userID uint, input PlanInput) (*model.LearningPlan, error) {
	plan := &model.LearningPlan{
		UserID:    userID,
		Title:     input.Title,
		Subject:   input.Subject,
		Status:    model.PlanActive,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
	}
	if err := s.PlanRepo.Create(plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *LearningPlanService) GetActivePlan(userID uint) (*model.LearningPlan, error) {
	plan, err := s.PlanRepo.FindActiveByUser(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *LearningPlanService) CompletePlan(userID, planID uint) error {
	plan, err := s.PlanRepo.FindByID(planID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrPlanNotFound
	}
	if err != nil {
		return err
	}
	if plan.UserID != userID {
		return util.ErrPermissionDenied
	}
	return s.PlanRepo.UpdateStatus(planID, model.PlanCompleted)
}
