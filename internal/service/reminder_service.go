package service

import (
	"ai_tutor_backend/internal/config"
	"ai_tutor_backend/internal/model"
	"ai_tutor_backend/internal/repository"
	"ai_tutor_backend/pkg/logger"
	"ai_tutor_backend/pkg/monitoring"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ReminderOptions 单次任务提醒的调度参数
type ReminderOptions struct {
	HoursBeforeDue int
	Channels       []model.NotificationChannel
}

// DefaultReminderOptions 默认提前2小时，站内信+邮件双渠道
func DefaultReminderOptions() ReminderOptions {
	return ReminderOptions{
		HoursBeforeDue: 2,
		Channels:       []model.NotificationChannel{model.ChannelInApp, model.ChannelEmail},
	}
}

// ReminderService 决定何时、通过哪个渠道提醒学习者。
// 提醒时间会向用户的偏好时段吸附，提高用户真正看到提醒的概率
type ReminderService struct {
	NotificationRepo *repository.NotificationRepository
	PreferenceRepo   *repository.PreferenceRepository
	TaskRepo         *repository.TaskRepository
	ActivityRepo     *repository.ActivityRepository
	Activity         *ActivityService

	mu  sync.RWMutex
	cfg config.ReminderConfig
	now func() time.Time
}

func NewReminderService(
	notificationRepo *repository.NotificationRepository,
	preferenceRepo *repository.PreferenceRepository,
	taskRepo *repository.TaskRepository,
	activityRepo *repository.ActivityRepository,
	activity *ActivityService,
	cfg config.ReminderConfig,
) *ReminderService {
	cfg.ApplyDefaults()
	return &ReminderService{
		NotificationRepo: notificationRepo,
		PreferenceRepo:   preferenceRepo,
		TaskRepo:         taskRepo,
		ActivityRepo:     activityRepo,
		Activity:         activity,
		cfg:              cfg,
		now:              time.Now,
	}
}

// UpdateConfig 配置热更新入口
func (s *ReminderService) UpdateConfig(cfg config.ReminderConfig) {
	cfg.ApplyDefaults()
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

func (s *ReminderService) config() config.ReminderConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// DefaultOptions 基于当前配置的调度参数
func (s *ReminderService) DefaultOptions() ReminderOptions {
	opts := DefaultReminderOptions()
	opts.HoursBeforeDue = s.config().HoursBeforeDue
	return opts
}

// ScheduleTaskReminder 为任务创建提醒通知。
// 候选时间 = 截止时间 - HoursBeforeDue，再向偏好时段吸附；
// 已过期的候选时间直接放弃，不产生任何通知
func (s *ReminderService) ScheduleTaskReminder(userID uint, task *model.Task, opts ReminderOptions) error {
	prefs, err := s.PreferenceRepo.GetByUserID(userID)
	if err != nil {
		return err
	}
	if !prefs.TaskReminderEnabled {
		return nil
	}

	if opts.HoursBeforeDue <= 0 {
		opts.HoursBeforeDue = s.config().HoursBeforeDue
	}
	if len(opts.Channels) == 0 {
		opts.Channels = DefaultReminderOptions().Channels
	}

	pattern, err := s.Activity.GetActivityPattern(userID, s.config().ActivityWindowDays)
	if err != nil {
		// 画像失败退化为字面提醒时间，提醒本身照常创建
		logger.Log.Warn("reminder: activity pattern unavailable",
			zap.Uint("userId", userID), zap.Error(err))
		pattern = model.EmptyActivityPattern()
	}

	remindAt := task.DueDate.Add(-time.Duration(opts.HoursBeforeDue) * time.Hour)
	remindAt = snapToPreferredHour(remindAt, task.DueDate, pattern.PreferredHours)

	if !remindAt.After(s.now()) {
		// 不创建已过期的提醒
		logger.Log.Debug("reminder: candidate time already passed",
			zap.Uint("userId", userID), zap.Uint("taskId", task.ID))
		return nil
	}

	payload, err := model.ReminderPayload{
		TaskID:    task.ID,
		TaskTitle: task.Title,
		TaskType:  task.Subject,
		DueDate:   task.DueDate,
		Priority:  task.Priority,
	}.ToJSON()
	if err != nil {
		return err
	}

	title := "Upcoming task: " + task.Title
	message := buildReminderMessage(task, remindAt)

	for _, channel := range opts.Channels {
		if !prefs.ChannelEnabled(channel) {
			continue
		}
		n := &model.Notification{
			UserID:       userID,
			Type:         model.NotificationTaskReminder,
			Channel:      channel,
			Title:        title,
			Message:      message,
			Data:         payload,
			ScheduledFor: remindAt,
		}
		if err := s.NotificationRepo.Create(n); err != nil {
			logger.Log.Error("reminder: create notification failed",
				zap.Uint("userId", userID), zap.Uint("taskId", task.ID),
				zap.String("channel", string(channel)), zap.Error(err))
			continue
		}
		monitoring.RemindersScheduled.WithLabelValues(string(model.NotificationTaskReminder)).Inc()
	}

	return nil
}

// RescheduleTaskReminders 任务改期的唯一路径：先撤回旧提醒再重新调度。
// 不做原地改时间，避免和投递循环产生部分更新竞争
func (s *ReminderService) RescheduleTaskReminders(userID uint, task *model.Task) error {
	if err := s.CancelTaskReminders(task.ID); err != nil {
		return err
	}
	return s.ScheduleTaskReminder(userID, task, s.DefaultOptions())
}

// CancelTaskReminders 撤回任务的全部待发提醒，任务完成或删除时调用
func (s *ReminderService) CancelTaskReminders(taskID uint) error {
	cancelled, err := s.NotificationRepo.CancelPendingByTask(taskID)
	if err != nil {
		return err
	}
	if cancelled > 0 {
		logger.Log.Info("reminder: cancelled pending reminders",
			zap.Uint("taskId", taskID), zap.Int64("count", cancelled))
	}
	return nil
}

// ScheduleDailySummary 安排每日学习总结：取用户最活跃小时（未知时用默认值），
// 当天已过则顺延到明天
func (s *ReminderService) ScheduleDailySummary(userID uint) error {
	prefs, err := s.PreferenceRepo.GetByUserID(userID)
	if err != nil {
		return err
	}
	if !prefs.InAppEnabled {
		return nil
	}

	pattern, err := s.Activity.GetActivityPattern(userID, s.config().ActivityWindowDays)
	if err != nil {
		pattern = model.EmptyActivityPattern()
	}

	hour := pattern.MostActiveHour
	if hour == model.UnsetHour {
		hour = s.config().DefaultSummaryHour
	}

	now := s.now()
	summaryAt := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !summaryAt.After(now) {
		summaryAt = summaryAt.AddDate(0, 0, 1)
	}

	pending, err := s.TaskRepo.CountPendingByUser(userID)
	if err != nil {
		return err
	}
	completedToday, err := s.TaskRepo.CountCompletedOn(userID, now)
	if err != nil {
		return err
	}

	n := &model.Notification{
		UserID:  userID,
		Type:    model.NotificationDailySummary,
		Channel: model.ChannelInApp,
		Title:   "Your daily study summary",
		Message: fmt.Sprintf("You completed %d task(s) today and have %d still pending. Keep it up!",
			completedToday, pending),
		ScheduledFor: summaryAt,
	}
	if err := s.NotificationRepo.Create(n); err != nil {
		return err
	}
	monitoring.RemindersScheduled.WithLabelValues(string(model.NotificationDailySummary)).Inc()
	return nil
}

// ScheduleWeeklyReport 安排每周学习报告：汇总最近7天的完成任务数和学习时长。
// 优先走邮件，邮件关闭时退回站内信
func (s *ReminderService) ScheduleWeeklyReport(userID uint) error {
	prefs, err := s.PreferenceRepo.GetByUserID(userID)
	if err != nil {
		return err
	}
	if !prefs.WeeklyReportEnabled {
		return nil
	}

	channel := model.ChannelEmail
	if !prefs.EmailEnabled {
		if !prefs.InAppEnabled {
			return nil
		}
		channel = model.ChannelInApp
	}

	now := s.now()
	records, err := s.ActivityRepo.FindRange(userID, now.AddDate(0, 0, -7))
	if err != nil {
		return err
	}

	tasksDone := 0
	minutes := 0
	for _, record := range records {
		tasksDone += record.TasksCompleted
		minutes += record.StudyMinutes
	}

	n := &model.Notification{
		UserID:  userID,
		Type:    model.NotificationWeeklyReport,
		Channel: channel,
		Title:   "Your weekly learning report",
		Message: fmt.Sprintf("Last week you completed %d task(s) and studied for %d minute(s).",
			tasksDone, minutes),
		ScheduledFor: now,
	}
	if err := s.NotificationRepo.Create(n); err != nil {
		return err
	}
	monitoring.RemindersScheduled.WithLabelValues(string(model.NotificationWeeklyReport)).Inc()
	return nil
}

// snapToPreferredHour 把候选时间的小时吸附到最近的偏好小时，日期不变。
// 并列时取更早的小时；吸附后越过截止时间则放弃吸附，保留字面时间
func snapToPreferredHour(candidate, dueDate time.Time, preferredHours []int) time.Time {
	if len(preferredHours) == 0 {
		return candidate
	}

	candidateHour := candidate.Hour()
	bestHour := preferredHours[0]
	bestDist := hourDistance(candidateHour, preferredHours[0])
	for _, h := range preferredHours[1:] {
		if d := hourDistance(candidateHour, h); d < bestDist || (d == bestDist && h < bestHour) {
			bestDist = d
			bestHour = h
		}
	}

	snapped := time.Date(candidate.Year(), candidate.Month(), candidate.Day(),
		bestHour, candidate.Minute(), 0, 0, candidate.Location())
	if snapped.After(dueDate) {
		return candidate
	}
	return snapped
}

func hourDistance(a, b int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d
}

// buildReminderMessage 生成提醒文案，按紧迫程度加前缀：
// 提醒落点距截止 ≤2 小时 → "Due soon! "，≤24 小时 → "Due today! "
func buildReminderMessage(task *model.Task, remindAt time.Time) string {
	untilDue := task.DueDate.Sub(remindAt)

	prefix := ""
	switch {
	case untilDue <= 2*time.Hour:
		prefix = "Due soon! "
	case untilDue <= 24*time.Hour:
		prefix = "Due today! "
	}

	return fmt.Sprintf("%s%s (%s) is due at %s. Estimated time: %d min, priority: %s.",
		prefix, task.Title, task.Subject,
		task.DueDate.Format("2006-01-02 15:04"),
		task.EstimatedMinutes, task.Priority)
}
