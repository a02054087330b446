package model

// NotificationPreference 用户通知偏好，按渠道和类别开关。
// 未创建记录时一律视为开启
// swagger:model NotificationPreference
type NotificationPreference struct {
	BaseModel
	// 开关不用 gorm 默认值：带默认值的零值字段在写入时会被跳过，
	// 用户显式关闭的开关会被默认值吃掉。缺省全开由 DefaultPreferences 兜底
	UserID              uint `gorm:"uniqueIndex;type:bigint unsigned;not null" json:"userId"`
	EmailEnabled        bool `json:"emailEnabled"`
	InAppEnabled        bool `json:"inAppEnabled"`
	TaskReminderEnabled bool `json:"taskReminderEnabled"`
	WeeklyReportEnabled bool `json:"weeklyReportEnabled"`
}

func (NotificationPreference) TableName() string {
	return "notification_preferences"
}

// DefaultPreferences 缺省偏好：全部开启
func DefaultPreferences(userID uint) *NotificationPreference {
	return &NotificationPreference{
		UserID:              userID,
		EmailEnabled:        true,
		InAppEnabled:        true,
		TaskReminderEnabled: true,
		WeeklyReportEnabled: true,
	}
}

// ChannelEnabled 判断某渠道是否开启
func (p *NotificationPreference) ChannelEnabled(channel NotificationChannel) bool {
	switch channel {
	case ChannelEmail:
		return p.EmailEnabled
	case ChannelInApp:
		return p.InAppEnabled
	default:
		return false
	}
}
