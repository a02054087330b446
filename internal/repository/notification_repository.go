package repository

import (
	"ai_tutor_backend/internal/model"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type NotificationRepository struct {
	DB *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{DB: db}
}

func (r *NotificationRepository) Create(n *model.Notification) error {
	n.Status = model.NotificationPending
	return r.DB.Create(n).Error
}

func (r *NotificationRepository) FindByID(id uint) (*model.Notification, error) {
	var n model.Notification
	err := r.DB.First(&n, id).Error
	return &n, err
}

// FindByUser 按用户查通知，status 为空时不过滤
func (r *NotificationRepository) FindByUser(userID uint, status model.NotificationStatus, limit int) ([]*model.Notification, error) {
	var notifications []*model.Notification
	query := r.DB.Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Order("scheduled_for DESC").Find(&notifications).Error
	return notifications, err
}

// DuePending 取出已到期的待发通知，最早到期的排在前面
func (r *NotificationRepository) DuePending(limit int, now time.Time) ([]*model.Notification, error) {
	var notifications []*model.Notification
	err := r.DB.Where("status = ? AND scheduled_for <= ?", model.NotificationPending, now).
		Order("scheduled_for ASC").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

// MarkSent pending → sent，条件更新保证不覆盖其他状态。
// 未命中任何行时返回 gorm.ErrRecordNotFound
func (r *NotificationRepository) MarkSent(id uint, at time.Time) error {
	result := r.DB.Model(&model.Notification{}).
		Where("id = ? AND status = ?", id, model.NotificationPending).
		Updates(map[string]interface{}{"status": model.NotificationSent, "sent_at": at})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkFailed pending → failed
func (r *NotificationRepository) MarkFailed(id uint) error {
	result := r.DB.Model(&model.Notification{}).
		Where("id = ? AND status = ?", id, model.NotificationPending).
		Update("status", model.NotificationFailed)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkRead sent → read，只有站内信会被阅读
func (r *NotificationRepository) MarkRead(id uint, userID uint, at time.Time) error {
	result := r.DB.Model(&model.Notification{}).
		Where("id = ? AND user_id = ? AND status = ? AND channel = ?",
			id, userID, model.NotificationSent, model.ChannelInApp).
		Updates(map[string]interface{}{"status": model.NotificationRead, "read_at": at})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkAllRead 将用户所有已送达的站内信标记为已读，返回更新条数
func (r *NotificationRepository) MarkAllRead(userID uint, at time.Time) (int64, error) {
	result := r.DB.Model(&model.Notification{}).
		Where("user_id = ? AND status = ? AND channel = ?",
			userID, model.NotificationSent, model.ChannelInApp).
		Updates(map[string]interface{}{"status": model.NotificationRead, "read_at": at})
	return result.RowsAffected, result.Error
}

// CancelPendingByTask 撤回关联某任务的全部待发提醒（按 payload 的 taskId 匹配），
// 返回撤回条数。已被投递循环取走的通知不受影响
func (r *NotificationRepository) CancelPendingByTask(taskID uint) (int64, error) {
	result := r.DB.Model(&model.Notification{}).
		Where("status = ?", model.NotificationPending).
		Where(datatypes.JSONQuery("data").Equals(taskID, "taskId")).
		Update("status", model.NotificationCancelled)
	return result.RowsAffected, result.Error
}

// UnreadCount 用户未读站内信数量
func (r *NotificationRepository) UnreadCount(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Notification{}).
		Where("user_id = ? AND status = ? AND channel = ?",
			userID, model.NotificationSent, model.ChannelInApp).
		Count(&count).Error
	return count, err
}

// PendingCount 队列中待发通知总数，供运维接口和指标上报
func (r *NotificationRepository) PendingCount() (int64, error) {
	var count int64
	err := r.DB.Model(&model.Notification{}).
		Where("status = ?", model.NotificationPending).
		Count(&count).Error
	return count, err
}
