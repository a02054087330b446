package repository

import (
	"ai_tutor_backend/internal/model"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	err = db.AutoMigrate(
		&model.User{},
		&model.LearningPlan{},
		&model.Task{},
		&model.Notification{},
		&model.ActivityRecord{},
		&model.NotificationPreference{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
