package scheduler

import (
	"ai_tutor_backend/internal/config"
	"ai_tutor_backend/internal/repository"
	"ai_tutor_backend/internal/service"
	"ai_tutor_backend/pkg/logger"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler 提醒引擎的后台循环：
//   - 投递任务：每 DispatchIntervalSeconds 秒处理一批到期通知，
//     上一轮未结束时跳过本次触发，保证同一批次窗口不会有并发投递
//   - 每日总结任务：每 SummaryIntervalMinutes 分钟为持有激活计划的用户安排总结
//   - 每周报告任务：每周一 09:00 生成上周学习报告
//   - 留存清理任务：每天凌晨删除超过 ActivityRetentionDays 的活跃记录
type Scheduler struct {
	Dispatch     *service.DispatchService
	Reminder     *service.ReminderService
	PlanRepo     *repository.LearningPlanRepository
	ActivityRepo *repository.ActivityRepository

	cfg config.ReminderConfig

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

func NewScheduler(
	dispatch *service.DispatchService,
	reminder *service.ReminderService,
	planRepo *repository.LearningPlanRepository,
	activityRepo *repository.ActivityRepository,
	cfg config.ReminderConfig,
) *Scheduler {
	cfg.ApplyDefaults()
	return &Scheduler{
		Dispatch:     dispatch,
		Reminder:     reminder,
		PlanRepo:     planRepo,
		ActivityRepo: activityRepo,
		cfg:          cfg,
	}
}

// Start 启动全部后台任务，重复调用无效果
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	c := cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	dispatchSpec := fmt.Sprintf("@every %ds", s.cfg.DispatchIntervalSeconds)
	if _, err := c.AddFunc(dispatchSpec, s.runDispatch); err != nil {
		return err
	}

	summarySpec := fmt.Sprintf("@every %dm", s.cfg.SummaryIntervalMinutes)
	if _, err := c.AddFunc(summarySpec, s.runDailySummaries); err != nil {
		return err
	}

	// 每周一早上9点
	if _, err := c.AddFunc("0 0 9 * * 1", s.runWeeklyReports); err != nil {
		return err
	}

	// 每天凌晨3点清理过期活跃记录
	if _, err := c.AddFunc("0 0 3 * * *", s.runActivityRetention); err != nil {
		return err
	}

	c.Start()
	s.cron = c
	s.running = true

	logger.Log.Info("scheduler started",
		zap.Int("dispatchIntervalSeconds", s.cfg.DispatchIntervalSeconds),
		zap.Int("summaryIntervalMinutes", s.cfg.SummaryIntervalMinutes))
	return nil
}

// UpdateConfig 应用新的调度参数。间隔变化需要重建 cron，
// 重建前会排空进行中的批次
func (s *Scheduler) UpdateConfig(cfg config.ReminderConfig) error {
	cfg.ApplyDefaults()

	s.mu.Lock()
	unchanged := cfg.DispatchIntervalSeconds == s.cfg.DispatchIntervalSeconds &&
		cfg.SummaryIntervalMinutes == s.cfg.SummaryIntervalMinutes
	if unchanged {
		s.cfg = cfg
		s.mu.Unlock()
		return nil
	}
	wasRunning := s.running
	s.mu.Unlock()

	if wasRunning {
		s.Stop()
	}

	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()

	if wasRunning {
		return s.Start()
	}
	return nil
}

// Stop 停止调度并等待进行中的批次跑完（优雅排空，不是硬杀）
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	c := s.cron
	s.cron = nil
	s.running = false
	// 排空期间不能持锁，进行中的任务还要读配置
	s.mu.Unlock()

	ctx := c.Stop()
	<-ctx.Done()
	logger.Log.Info("scheduler stopped")
}

func (s *Scheduler) runDispatch() {
	s.mu.Lock()
	batch := s.cfg.DispatchBatchSize
	s.mu.Unlock()

	if _, err := s.Dispatch.ProcessDue(batch); err != nil {
		logger.Log.Error("scheduler: dispatch tick failed", zap.Error(err))
	}
}

func (s *Scheduler) runDailySummaries() {
	userIDs, err := s.PlanRepo.ListActiveUserIDs()
	if err != nil {
		logger.Log.Error("scheduler: list active users failed", zap.Error(err))
		return
	}

	for _, userID := range userIDs {
		if err := s.Reminder.ScheduleDailySummary(userID); err != nil {
			logger.Log.Error("scheduler: schedule daily summary failed",
				zap.Uint("userId", userID), zap.Error(err))
		}
	}
}

func (s *Scheduler) runWeeklyReports() {
	userIDs, err := s.PlanRepo.ListActiveUserIDs()
	if err != nil {
		logger.Log.Error("scheduler: list active users failed", zap.Error(err))
		return
	}

	for _, userID := range userIDs {
		if err := s.Reminder.ScheduleWeeklyReport(userID); err != nil {
			logger.Log.Error("scheduler: schedule weekly report failed",
				zap.Uint("userId", userID), zap.Error(err))
		}
	}
}

func (s *Scheduler) runActivityRetention() {
	s.mu.Lock()
	days := s.cfg.ActivityRetentionDays
	s.mu.Unlock()

	cutoff := time.Now().AddDate(0, 0, -days)
	deleted, err := s.ActivityRepo.DeleteOlderThan(cutoff)
	if err != nil {
		logger.Log.Error("scheduler: activity retention failed", zap.Error(err))
		return
	}
	if deleted > 0 {
		logger.Log.Info("scheduler: stale activity records removed",
			zap.Int64("deleted", deleted), zap.Time("cutoff", cutoff))
	}
}
