package service

import (
	"ai_tutor_backend/internal/model"
	"ai_tutor_backend/internal/repository"
	"ai_tutor_backend/pkg/logger"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultActivityWindowDays 活跃画像的默认滚动窗口
const DefaultActivityWindowDays = 14

// ActivityService 记录用户活跃并推导活跃画像。
// 所有写入都是尽力而为：活跃追踪失败只记日志，绝不影响触发它的主操作
type ActivityService struct {
	ActivityRepo *repository.ActivityRepository

	now func() time.Time
}

func NewActivityService(activityRepo *repository.ActivityRepository) *ActivityService {
	return &ActivityService{
		ActivityRepo: activityRepo,
		now:          time.Now,
	}
}

// RecordLogin 记录一次登录：追加登录时间并标记该小时活跃
func (s *ActivityService) RecordLogin(userID uint, at time.Time) {
	record, err := s.loadOrCreate(userID, at)
	if err != nil {
		logger.Log.Warn("activity: load record failed", zap.Uint("userId", userID), zap.Error(err))
		return
	}

	record.AddLogin(at)
	record.AddHour(at.Hour())

	if err := s.ActivityRepo.Save(record); err != nil {
		logger.Log.Warn("activity: record login failed", zap.Uint("userId", userID), zap.Error(err))
	}
}

// MarkActiveHour 只把某小时标记为活跃，不计为登录
func (s *ActivityService) MarkActiveHour(userID uint, at time.Time) {
	record, err := s.loadOrCreate(userID, at)
	if err != nil {
		logger.Log.Warn("activity: load record failed", zap.Uint("userId", userID), zap.Error(err))
		return
	}

	record.AddHour(at.Hour())

	if err := s.ActivityRepo.Save(record); err != nil {
		logger.Log.Warn("activity: mark active hour failed", zap.Uint("userId", userID), zap.Error(err))
	}
}

// RecordTaskCompletion 累加当天完成任务数与学习时长
func (s *ActivityService) RecordTaskCompletion(userID uint, minutesSpent int) {
	at := s.now()
	record, err := s.loadOrCreate(userID, at)
	if err != nil {
		logger.Log.Warn("activity: load record failed", zap.Uint("userId", userID), zap.Error(err))
		return
	}

	record.TasksCompleted++
	if minutesSpent > 0 {
		record.StudyMinutes += minutesSpent
	}
	record.AddHour(at.Hour())

	if err := s.ActivityRepo.Save(record); err != nil {
		logger.Log.Warn("activity: record task completion failed", zap.Uint("userId", userID), zap.Error(err))
	}
}

// GetActivityPattern 从最近 windowDays 天的记录推导活跃画像。
// 每次调度决策时重新计算，不做跨调用缓存，避免用到过期画像
func (s *ActivityService) GetActivityPattern(userID uint, windowDays int) (*model.ActivityPattern, error) {
	if windowDays <= 0 {
		windowDays = DefaultActivityWindowDays
	}

	since := s.now().AddDate(0, 0, -(windowDays - 1))
	records, err := s.ActivityRepo.FindRange(userID, since)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return model.EmptyActivityPattern(), nil
	}

	// 每个小时出现在多少个不同的日子里
	dayCountByHour := make(map[int]int)
	totalLogins := 0
	totalMinutes := 0
	loginHourSum := 0
	var lastActive time.Time

	for _, record := range records {
		for _, h := range record.Hours() {
			dayCountByHour[h]++
		}
		logins := record.Logins()
		totalLogins += len(logins)
		for _, login := range logins {
			loginHourSum += login.Hour()
		}
		totalMinutes += record.StudyMinutes
		if record.ActivityDate.After(lastActive) {
			lastActive = record.ActivityDate
		}
	}

	pattern := &model.ActivityPattern{MostActiveHour: model.UnsetHour}

	// 偏好时段：在窗口内至少两天出现过的小时
	for hour, days := range dayCountByHour {
		if days >= 2 {
			pattern.PreferredHours = append(pattern.PreferredHours, hour)
		}
	}
	sort.Ints(pattern.PreferredHours)

	// 最活跃小时取众数，并列时取更早的小时
	bestDays := 0
	for hour := 0; hour < 24; hour++ {
		if days := dayCountByHour[hour]; days > bestDays {
			bestDays = days
			pattern.MostActiveHour = hour
		}
	}

	if totalLogins > 0 {
		pattern.AverageLoginHour = float64(loginHourSum) / float64(totalLogins)
	}

	pattern.ActivityScore = activityScore(totalLogins, totalMinutes, lastActive, s.now(), windowDays)

	return pattern, nil
}

// activityScore 结合活跃量与新近度的 0-100 分值：
// 原始分 = 2×登录次数 + 学习分钟数/10，按距最后活跃天数线性衰减后截断
func activityScore(logins, minutes int, lastActive, now time.Time, windowDays int) int {
	raw := float64(2*logins) + float64(minutes)/10

	daysSince := now.Sub(lastActive).Hours() / 24
	if daysSince < 0 {
		daysSince = 0
	}
	recency := 1 - daysSince/float64(windowDays)
	if recency < 0 {
		recency = 0
	}

	score := int(raw * recency)
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

func (s *ActivityService) loadOrCreate(userID uint, at time.Time) (*model.ActivityRecord, error) {
	record, err := s.ActivityRepo.FindByUserAndDate(userID, at)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, at.Location())
	return &model.ActivityRecord{UserID: userID, ActivityDate: day}, nil
}
