package model

import "time"

type PlanStatus string

const (
	PlanActive    PlanStatus = "active"
	PlanCompleted PlanStatus = "completed"
	PlanArchived  PlanStatus = "archived"
)

// LearningPlan 学习计划聚合根，任务归属于计划
// 计划内容本身由外部 ai-service 生成，这里只保存结构
// swagger:model LearningPlan
type LearningPlan struct {
	BaseModel
	UserID    uint       `gorm:"index;type:bigint unsigned;not null" json:"userId"`
	Title     string     `gorm:"size:255;not null" json:"title"`
	Subject   string     `gorm:"size:100" json:"subject"`
	Status    PlanStatus `gorm:"size:20;default:'active';index" json:"status"`
	StartDate time.Time  `json:"startDate"`
	EndDate   time.Time  `json:"endDate"`
	Tasks     []Task     `gorm:"foreignKey:PlanID" json:"tasks,omitempty"`
}

func (LearningPlan) TableName() string {
	return "learning_plans"
}
