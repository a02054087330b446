package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationTaskReminder NotificationType = "task_reminder"
	NotificationGoalReminder NotificationType = "goal_reminder"
	NotificationDailySummary NotificationType = "daily_summary"
	NotificationWeeklyReport NotificationType = "weekly_report"
)

type NotificationChannel string

const (
	ChannelInApp NotificationChannel = "in_app"
	ChannelEmail NotificationChannel = "email"
)

type NotificationStatus string

const (
	NotificationPending NotificationStatus = "pending"
	NotificationSent    NotificationStatus = "sent"
	NotificationFailed  NotificationStatus = "failed"
	// NotificationCancelled 表示提醒被主动撤回（任务完成/删除/改期），
	// 与发送失败区分开，便于排查
	NotificationCancelled NotificationStatus = "cancelled"
	NotificationRead      NotificationStatus = "read"
)

// Notification 通知记录
// 状态机：pending → sent|failed|cancelled；sent → read（仅 in_app）。
// 终态不会回到 pending，重试 = 新建一条通知。
// swagger:model Notification
type Notification struct {
	BaseModel
	// PublicID 对外暴露的通知标识，邮件退订链接、站内消息跳转都用它，
	// 避免把自增主键泄露给客户端
	PublicID     string              `gorm:"size:36;uniqueIndex;not null" json:"publicId"`
	UserID       uint                `gorm:"index;type:bigint unsigned;not null" json:"userId"`
	Type         NotificationType    `gorm:"size:32;not null" json:"type"`
	Channel      NotificationChannel `gorm:"size:16;not null" json:"channel"`
	Title        string              `gorm:"size:255;not null" json:"title"`
	Message      string              `gorm:"type:text" json:"message"`
	Data         datatypes.JSON      `json:"data,omitempty"`
	Status       NotificationStatus  `gorm:"size:16;default:'pending';index:idx_status_scheduled" json:"status"`
	ScheduledFor time.Time           `gorm:"index:idx_status_scheduled;not null" json:"scheduledFor"`
	SentAt       *time.Time          `json:"sentAt,omitempty"`
	ReadAt       *time.Time          `json:"readAt,omitempty"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.PublicID == "" {
		n.PublicID = uuid.New().String()
	}
	return
}

// ReminderPayload 任务提醒附带的结构化数据，用于按任务撤回待发提醒
type ReminderPayload struct {
	TaskID    uint         `json:"taskId"`
	TaskTitle string       `json:"taskTitle"`
	TaskType  string       `json:"taskType"`
	DueDate   time.Time    `json:"dueDate"`
	Priority  TaskPriority `json:"priority"`
}

func (p ReminderPayload) ToJSON() (datatypes.JSON, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

// Payload 解析通知附带数据，无数据或解析失败返回 nil
func (n *Notification) Payload() *ReminderPayload {
	if len(n.Data) == 0 {
		return nil
	}
	var p ReminderPayload
	if err := json.Unmarshal(n.Data, &p); err != nil {
		return nil
	}
	return &p
}
