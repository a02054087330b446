package service

import (
	"ai_tutor_backend/internal/model"
	"ai_tutor_backend/internal/repository"
)

// PreferenceInput 偏好更新入参，指针字段未提供时保留原值
type PreferenceInput struct {
	EmailEnabled        *bool `json:"emailEnabled"`
	InAppEnabled        *bool `json:"inAppEnabled"`
	TaskReminderEnabled *bool `json:"taskReminderEnabled"`
	WeeklyReportEnabled *bool `json:"weeklyReportEnabled"`
}

// PreferenceService 用户通知偏好的读写
type PreferenceService struct {
	PreferenceRepo *repository.PreferenceRepository
}

func NewPreferenceService(preferenceRepo *repository.PreferenceRepository) *PreferenceService {
	return &PreferenceService{PreferenceRepo: preferenceRepo}
}

func (s *PreferenceService) GetPreferences(userID uint) (*model.NotificationPreference, error) {
	return s.PreferenceRepo.GetByUserID(userID)
}

func (s *PreferenceService) UpdatePreferences(userID uint, input PreferenceInput) (*model.NotificationPreference, error) {
	pref, err := s.PreferenceRepo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}

	if input.EmailEnabled != nil {
		pref.EmailEnabled = *input.EmailEnabled
	}
	if input.InAppEnabled != nil {
		pref.InAppEnabled = *input.InAppEnabled
	}
	if input.TaskReminderEnabled != nil {
		pref.TaskReminderEnabled = *input.TaskReminderEnabled
	}
	if input.WeeklyReportEnabled != nil {
		pref.WeeklyReportEnabled = *input.WeeklyReportEnabled
	}

	if err := s.PreferenceRepo.Upsert(pref); err != nil {
		return nil, err
	}
	return pref, nil
}
