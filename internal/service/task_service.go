package service

import (
	"ai_tutor_backend/internal/model"
	"ai_tutor_backend/internal/repository"
	"ai_tutor_backend/internal/util"
	"ai_tutor_backend/pkg/logger"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TaskInput 任务创建/更新入参
type TaskInput struct {
	PlanID           uint               `json:"planId"`
	Title            string             `json:"title" binding:"required,max=255"`
	Description      string             `json:"description"`
	Subject          string             `json:"subject"`
	EstimatedMinutes int                `json:"estimatedMinutes"`
	Priority         model.TaskPriority `json:"priority"`
	DueDate          time.Time          `json:"dueDate" binding:"required"`
}

// TaskService 任务的生命周期入口，同时是提醒引擎的事件源：
// 创建→调度提醒，改期→重排提醒，完成/删除→撤回提醒。
// 提醒引擎的任何失败都被吸收并记日志，不影响任务操作本身
type TaskService struct {
	TaskRepo *repository.TaskRepository
	PlanRepo *repository.LearningPlanRepository
	Reminder *ReminderService
	Activity *ActivityService
}

func NewTaskService(
	taskRepo *repository.TaskRepository,
	planRepo *repository.LearningPlanRepository,
	reminder *ReminderService,
	activity *ActivityService,
) *TaskService {
	return &TaskService{
		TaskRepo: taskRepo,
		PlanRepo: planRepo,
		Reminder: reminder,
		Activity: activity,
	}
}

func (s *TaskService) CreateTask(userID uint, input TaskInput) (*model.Task, error) {
	task := &model.Task{
		UserID:           userID,
		PlanID:           input.PlanID,
		Title:            input.Title,
		Description:      input.Description,
		Subject:          input.Subject,
		EstimatedMinutes: input.EstimatedMinutes,
		Priority:         input.Priority,
		Status:           model.TaskPending,
		DueDate:          input.DueDate,
	}
	if task.Priority == "" {
		task.Priority = model.PriorityMedium
	}
	if task.EstimatedMinutes <= 0 {
		task.EstimatedMinutes = 30
	}

	if err := s.TaskRepo.Create(task); err != nil {
		return nil, err
	}

	if err := s.Reminder.ScheduleTaskReminder(userID, task, s.Reminder.DefaultOptions()); err != nil {
		logger.Log.Error("task: schedule reminder failed",
			zap.Uint("userId", userID), zap.Uint("taskId", task.ID), zap.Error(err))
	}

	return task, nil
}

func (s *TaskService) GetTask(userID, taskID uint) (*model.Task, error) {
	task, err := s.TaskRepo.FindByID(taskID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	if task.UserID != userID {
		return nil, util.ErrPermissionDenied
	}
	return task, nil
}

func (s *TaskService) GetUserTasks(userID uint) ([]*model.Task, error) {
	return s.TaskRepo.FindByUserID(userID)
}

// UpdateTask 更新任务，截止时间变化时重排提醒
func (s *TaskService) UpdateTask(userID, taskID uint, input TaskInput) (*model.Task, error) {
	task, err := s.GetTask(userID, taskID)
	if err != nil {
		return nil, err
	}

	dueDateChanged := !task.DueDate.Equal(input.DueDate)

	task.Title = input.Title
	task.Description = input.Description
	task.Subject = input.Subject
	if input.EstimatedMinutes > 0 {
		task.EstimatedMinutes = input.EstimatedMinutes
	}
	if input.Priority != "" {
		task.Priority = input.Priority
	}
	task.DueDate = input.DueDate

	if err := s.TaskRepo.Update(task); err != nil {
		return nil, err
	}

	if dueDateChanged && task.Status != model.TaskCompleted {
		if err := s.Reminder.RescheduleTaskReminders(userID, task); err != nil {
			logger.Log.Error("task: reschedule reminders failed",
				zap.Uint("userId", userID), zap.Uint("taskId", task.ID), zap.Error(err))
		}
	}

	return task, nil
}

// CompleteTask 完成任务：更新状态、记录活跃、撤回剩余提醒
func (s *TaskService) CompleteTask(userID, taskID uint, minutesSpent int) (*model.Task, error) {
	task, err := s.GetTask(userID, taskID)
	if err != nil {
		return nil, err
	}

	if task.Status != model.TaskCompleted {
		if err := s.TaskRepo.UpdateStatus(taskID, model.TaskCompleted); err != nil {
			return nil, err
		}
		task.Status = model.TaskCompleted

		s.Activity.RecordTaskCompletion(userID, minutesSpent)

		if err := s.Reminder.CancelTaskReminders(taskID); err != nil {
			logger.Log.Error("task: cancel reminders failed",
				zap.Uint("userId", userID), zap.Uint("taskId", taskID), zap.Error(err))
		}
	}

	return task, nil
}

// DeleteTask 删除任务并撤回其提醒
func (s *TaskService) DeleteTask(userID, taskID uint) error {
	if _, err := s.GetTask(userID, taskID); err != nil {
		return err
	}

	if err := s.TaskRepo.Delete(taskID); err != nil {
		return err
	}

	if err := s.Reminder.CancelTaskReminders(taskID); err != nil {
		logger.Log.Error("task: cancel reminders failed",
			zap.Uint("userId", userID), zap.Uint("taskId", taskID), zap.Error(err))
	}

	return nil
}
