package service

import (
	"ai_tutor_backend/internal/config"
	"ai_tutor_backend/internal/model"
	"ai_tutor_backend/internal/repository"
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testEnv 把全部 repo 和服务挂在一个内存数据库上，now 可注入
type testEnv struct {
	db *gorm.DB

	notificationRepo *repository.NotificationRepository
	preferenceRepo   *repository.PreferenceRepository
	taskRepo         *repository.TaskRepository
	activityRepo     *repository.ActivityRepository
	userRepo         *repository.UserRepository

	activity *ActivityService
	reminder *ReminderService
}

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

func newTestEnv(t *testing.T, now time.Time) *testEnv {
	t.Helper()

	db := newTestDB(t)
	env := &testEnv{
		db:               db,
		notificationRepo: repository.NewNotificationRepository(db),
		preferenceRepo:   repository.NewPreferenceRepository(db),
		taskRepo:         repository.NewTaskRepository(db),
		activityRepo:     repository.NewActivityRepository(db),
		userRepo:         repository.NewUserRepository(db),
	}

	env.activity = NewActivityService(env.activityRepo)
	env.activity.now = func() time.Time { return now }

	env.reminder = NewReminderService(
		env.notificationRepo,
		env.preferenceRepo,
		env.taskRepo,
		env.activityRepo,
		env.activity,
		config.ReminderConfig{},
	)
	env.reminder.now = func() time.Time { return now }

	return env
}

// markActiveOn 在指定日期的某个小时写一条活跃记录
func (env *testEnv) markActiveOn(t *testing.T, userID uint, day time.Time, hours ...int) {
	t.Helper()
	record := &model.ActivityRecord{
		UserID:       userID,
		ActivityDate: time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location()),
	}
	for _, h := range hours {
		record.AddHour(h)
	}
	if err := env.activityRepo.Save(record); err != nil {
		t.Fatalf("save activity record: %v", err)
	}
}

func (env *testEnv) notificationsFor(t *testing.T, userID uint) []*model.Notification {
	t.Helper()
	notifications, err := env.notificationRepo.FindByUser(userID, "", 0)
	if err != nil {
		t.Fatalf("find notifications: %v", err)
	}
	return notifications
}
