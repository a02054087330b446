package service

import (
	"ai_tutor_backend/internal/model"
	"ai_tutor_backend/internal/repository"
	"ai_tutor_backend/internal/util"
	"ai_tutor_backend/pkg/logger"
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// unreadCountTTL 未读数缓存时长。投递循环落库不会主动失效缓存，
// 所以保持短 TTL，接受分钟级的口径偏差
const unreadCountTTL = 5 * time.Minute

// NotificationService 面向展示层的通知查询和已读回执
type NotificationService struct {
	NotificationRepo *repository.NotificationRepository
	Redis            *redis.Client
}

func NewNotificationService(notificationRepo *repository.NotificationRepository, rdb *redis.Client) *NotificationService {
	return &NotificationService{
		NotificationRepo: notificationRepo,
		Redis:            rdb,
	}
}

// GetUserNotifications 查用户的通知列表，status 为空时返回全部
func (s *NotificationService) GetUserNotifications(userID uint, status model.NotificationStatus, limit int) ([]*model.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.NotificationRepo.FindByUser(userID, status, limit)
}

// GetUnreadCount 未读站内信数量，带 Redis 缓存
func (s *NotificationService) GetUnreadCount(userID uint) (int64, error) {
	ctx := context.Background()
	key := unreadCountKey(userID)

	if s.Redis != nil {
		if val, err := s.Redis.Get(ctx, key).Result(); err == nil {
			if count, err := strconv.ParseInt(val, 10, 64); err == nil {
				return count, nil
			}
		}
	}

	count, err := s.NotificationRepo.UnreadCount(userID)
	if err != nil {
		return 0, err
	}

	if s.Redis != nil {
		if err := s.Redis.Set(ctx, key, count, unreadCountTTL).Err(); err != nil {
			logger.Log.Warn("notification: cache unread count failed",
				zap.Uint("userId", userID), zap.Error(err))
		}
	}

	return count, nil
}

// MarkRead 单条已读回执，只对已送达的站内信生效
func (s *NotificationService) MarkRead(userID, notificationID uint) error {
	if err := s.NotificationRepo.MarkRead(notificationID, userID, time.Now()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrNotificationNotFound
		}
		return err
	}
	s.invalidateUnreadCount(userID)
	return nil
}

// MarkAllRead 全部已读，返回更新条数
func (s *NotificationService) MarkAllRead(userID uint) (int64, error) {
	updated, err := s.NotificationRepo.MarkAllRead(userID, time.Now())
	if err != nil {
		return 0, err
	}
	if updated > 0 {
		s.invalidateUnreadCount(userID)
	}
	return updated, nil
}

func (s *NotificationService) invalidateUnreadCount(userID uint) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(context.Background(), unreadCountKey(userID)).Err(); err != nil {
		logger.Log.Warn("notification: invalidate unread count failed",
			zap.Uint("userId", userID), zap.Error(err))
	}
}

func unreadCountKey(userID uint) string {
	return fmt.Sprintf("notifications:unread:%d", userID)
}
