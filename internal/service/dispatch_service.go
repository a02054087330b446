package service

import (
	"ai_tutor_backend/internal/model"
	"ai_tutor_backend/internal/repository"
	"ai_tutor_backend/pkg/logger"
	"ai_tutor_backend/pkg/monitoring"
	"time"

	"go.uber.org/zap"
)

// EmailSender 邮件投递的外部依赖
type EmailSender interface {
	Send(to, subject, body string) error
}

// DispatchResult 单个投递批次的统计
type DispatchResult struct {
	Processed int `json:"processed"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
}

// DispatchService 从通知队列取出到期的待发通知并逐条投递。
// 单条失败只影响自身，批次内其余通知照常处理
type DispatchService struct {
	NotificationRepo *repository.NotificationRepository
	UserRepo         *repository.UserRepository
	Mailer           EmailSender

	now func() time.Time
}

func NewDispatchService(
	notificationRepo *repository.NotificationRepository,
	userRepo *repository.UserRepository,
	mailer EmailSender,
) *DispatchService {
	return &DispatchService{
		NotificationRepo: notificationRepo,
		UserRepo:         userRepo,
		Mailer:           mailer,
		now:              time.Now,
	}
}

// ProcessDue 处理一批到期通知，按到期时间先到先发
func (s *DispatchService) ProcessDue(batchSize int) (DispatchResult, error) {
	start := time.Now()
	defer func() {
		monitoring.DispatchDuration.Observe(time.Since(start).Seconds())
	}()

	var result DispatchResult

	due, err := s.NotificationRepo.DuePending(batchSize, s.now())
	if err != nil {
		return result, err
	}

	for _, n := range due {
		result.Processed++
		if s.deliver(n) {
			result.Sent++
		} else {
			result.Failed++
		}
	}

	if depth, err := s.NotificationRepo.PendingCount(); err == nil {
		monitoring.PendingQueueDepth.Set(float64(depth))
	}

	if result.Processed > 0 {
		logger.Log.Info("dispatch: batch processed",
			zap.Int("processed", result.Processed),
			zap.Int("sent", result.Sent),
			zap.Int("failed", result.Failed))
	}

	return result, nil
}

// PendingDepth 当前待发队列深度
func (s *DispatchService) PendingDepth() (int64, error) {
	return s.NotificationRepo.PendingCount()
}

// deliver 投递单条通知并落状态，返回是否投递成功
func (s *DispatchService) deliver(n *model.Notification) bool {
	switch n.Channel {
	case model.ChannelInApp:
		// 站内信本身就是收件箱记录，落库即送达
		if err := s.NotificationRepo.MarkSent(n.ID, s.now()); err != nil {
			logger.Log.Error("dispatch: mark sent failed",
				zap.Uint("notificationId", n.ID), zap.Uint("userId", n.UserID), zap.Error(err))
			return false
		}
		monitoring.NotificationsDispatched.WithLabelValues(string(n.Channel), "sent").Inc()
		return true

	case model.ChannelEmail:
		email, err := s.UserRepo.FindEmailByID(n.UserID)
		if err != nil || email == "" {
			// 收件地址缺失是数据质量问题，不向用户暴露
			logger.Log.Warn("dispatch: no email address on file",
				zap.Uint("notificationId", n.ID), zap.Uint("userId", n.UserID), zap.Error(err))
			s.markFailed(n)
			return false
		}

		if err := s.Mailer.Send(email, n.Title, n.Message); err != nil {
			logger.Log.Error("dispatch: email send failed",
				zap.Uint("notificationId", n.ID), zap.Uint("userId", n.UserID), zap.Error(err))
			s.markFailed(n)
			return false
		}

		if err := s.NotificationRepo.MarkSent(n.ID, s.now()); err != nil {
			logger.Log.Error("dispatch: mark sent failed",
				zap.Uint("notificationId", n.ID), zap.Uint("userId", n.UserID), zap.Error(err))
			return false
		}
		monitoring.NotificationsDispatched.WithLabelValues(string(n.Channel), "sent").Inc()
		return true

	default:
		logger.Log.Error("dispatch: unknown channel",
			zap.Uint("notificationId", n.ID), zap.String("channel", string(n.Channel)))
		s.markFailed(n)
		return false
	}
}

func (s *DispatchService) markFailed(n *model.Notification) {
	if err := s.NotificationRepo.MarkFailed(n.ID); err != nil {
		logger.Log.Error("dispatch: mark failed failed",
			zap.Uint("notificationId", n.ID), zap.Error(err))
	}
	monitoring.NotificationsDispatched.WithLabelValues(string(n.Channel), "failed").Inc()
}
