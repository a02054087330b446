package model

import "time"

type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskProgress  TaskStatus = "in_progress"
	TaskCompleted TaskStatus = "completed"
)

type TaskPriority string

const (
	PriorityHigh   TaskPriority = "high"
	PriorityMedium TaskPriority = "medium"
	PriorityLow    TaskPriority = "low"
)

// Task 学习计划中的单个任务，提醒引擎只读取任务，不修改它
// swagger:model Task
type Task struct {
	BaseModel
	UserID           uint         `gorm:"index;type:bigint unsigned;not null" json:"userId"`
	PlanID           uint         `gorm:"index;type:bigint unsigned" json:"planId"`
	Title            string       `gorm:"size:255;not null" json:"title"`
	Description      string       `gorm:"type:text" json:"description"`
	Subject          string       `gorm:"size:100" json:"subject"`
	EstimatedMinutes int          `gorm:"default:30" json:"estimatedMinutes"`
	Priority         TaskPriority `gorm:"size:10;default:'medium'" json:"priority"`
	Status           TaskStatus   `gorm:"size:20;default:'pending';index" json:"status"`
	DueDate          time.Time    `gorm:"index" json:"dueDate"`
}

func (Task) TableName() string {
	return "tasks"
}
