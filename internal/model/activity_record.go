package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// UnsetHour 活跃时段未知时的哨兵值
const UnsetHour = -1

// ActivityRecord 每用户每天一条的活跃记录，(user_id, activity_date) 唯一
// swagger:model ActivityRecord
type ActivityRecord struct {
	BaseModel
	UserID         uint           `gorm:"index:idx_user_activity_date,unique;type:bigint unsigned;not null" json:"userId"`
	ActivityDate   time.Time      `gorm:"type:date;index:idx_user_activity_date,unique;not null" json:"activityDate"`
	LoginTimes     datatypes.JSON `json:"loginTimes"`
	ActiveHours    datatypes.JSON `json:"activeHours"`
	TasksCompleted int            `gorm:"default:0" json:"tasksCompleted"`
	StudyMinutes   int            `gorm:"default:0" json:"studyMinutes"`
}

func (ActivityRecord) TableName() string {
	return "activity_records"
}

// Logins 解码当天的登录时间列表，数据损坏时返回空列表
func (r *ActivityRecord) Logins() []time.Time {
	if len(r.LoginTimes) == 0 {
		return nil
	}
	var logins []time.Time
	if err := json.Unmarshal(r.LoginTimes, &logins); err != nil {
		return nil
	}
	return logins
}

func (r *ActivityRecord) AddLogin(at time.Time) {
	logins := append(r.Logins(), at)
	b, err := json.Marshal(logins)
	if err != nil {
		return
	}
	r.LoginTimes = datatypes.JSON(b)
}

// Hours 解码当天的活跃小时集合（0-23）
func (r *ActivityRecord) Hours() []int {
	if len(r.ActiveHours) == 0 {
		return nil
	}
	var hours []int
	if err := json.Unmarshal(r.ActiveHours, &hours); err != nil {
		return nil
	}
	return hours
}

// AddHour 将小时加入活跃集合，重复加入无效果
func (r *ActivityRecord) AddHour(hour int) {
	if hour < 0 || hour > 23 {
		return
	}
	hours := r.Hours()
	for _, h := range hours {
		if h == hour {
			return
		}
	}
	hours = append(hours, hour)
	b, err := json.Marshal(hours)
	if err != nil {
		return
	}
	r.ActiveHours = datatypes.JSON(b)
}

// ActivityPattern 从滚动窗口内的 ActivityRecord 推导出的活跃画像。
// 按需计算，不落库，不跨一次调度决策缓存
type ActivityPattern struct {
	PreferredHours   []int   `json:"preferredHours"`
	MostActiveHour   int     `json:"mostActiveHour"` // UnsetHour 表示无数据
	AverageLoginHour float64 `json:"averageLoginHour"`
	ActivityScore    int     `json:"activityScore"` // 0-100
}

// EmptyActivityPattern 无历史数据用户的画像
func EmptyActivityPattern() *ActivityPattern {
	return &ActivityPattern{MostActiveHour: UnsetHour}
}
