package service

import (
	"ai_tutor_backend/internal/model"
	"testing"
	"time"
)

func TestGetActivityPattern_NoHistory(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(t, now)

	pattern, err := env.activity.GetActivityPattern(1, 14)
	if err != nil {
		t.Fatalf("getActivityPattern: %v", err)
	}
	if pattern.MostActiveHour != model.UnsetHour {
		t.Fatalf("expected unset most active hour, got %d", pattern.MostActiveHour)
	}
	if len(pattern.PreferredHours) != 0 {
		t.Fatalf("expected no preferred hours, got %v", pattern.PreferredHours)
	}
	if pattern.ActivityScore != 0 {
		t.Fatalf("expected zero score, got %d", pattern.ActivityScore)
	}
}

func TestGetActivityPattern_PreferredHoursNeedTwoDays(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(t, now)

	// 9点两天出现，18点三天，23点只有一天
	env.markActiveOn(t, 1, now.AddDate(0, 0, -1), 9, 18)
	env.markActiveOn(t, 1, now.AddDate(0, 0, -2), 9, 18, 23)
	env.markActiveOn(t, 1, now.AddDate(0, 0, -3), 18)

	pattern, err := env.activity.GetActivityPattern(1, 14)
	if err != nil {
		t.Fatalf("getActivityPattern: %v", err)
	}
	if len(pattern.PreferredHours) != 2 || pattern.PreferredHours[0] != 9 || pattern.PreferredHours[1] != 18 {
		t.Fatalf("expected preferred hours [9 18], got %v", pattern.PreferredHours)
	}
	if pattern.MostActiveHour != 18 {
		t.Fatalf("expected most active hour 18, got %d", pattern.MostActiveHour)
	}
}

func TestGetActivityPattern_MostActiveHourTieTakesEarlier(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(t, now)

	env.markActiveOn(t, 1, now.AddDate(0, 0, -1), 8, 20)
	env.markActiveOn(t, 1, now.AddDate(0, 0, -2), 8, 20)

	pattern, err := env.activity.GetActivityPattern(1, 14)
	if err != nil {
		t.Fatalf("getActivityPattern: %v", err)
	}
	if pattern.MostActiveHour != 8 {
		t.Fatalf("tie must resolve to earlier hour, got %d", pattern.MostActiveHour)
	}
}

func TestGetActivityPattern_IgnoresRecordsOutsideWindow(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(t, now)

	env.markActiveOn(t, 1, now.AddDate(0, 0, -20), 6)
	env.markActiveOn(t, 1, now.AddDate(0, 0, -21), 6)

	pattern, err := env.activity.GetActivityPattern(1, 14)
	if err != nil {
		t.Fatalf("getActivityPattern: %v", err)
	}
	if len(pattern.PreferredHours) != 0 || pattern.MostActiveHour != model.UnsetHour {
		t.Fatalf("records outside window must not contribute: %+v", pattern)
	}
}

func TestActivityScore_ClampsAt100(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	// 刚刚活跃过的重度用户
	score := activityScore(100, 2000, now, now, 14)
	if score != 100 {
		t.Fatalf("expected clamp at 100, got %d", score)
	}
}

func TestActivityScore_DecaysWithInactivity(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	fresh := activityScore(10, 100, now, now, 14)
	stale := activityScore(10, 100, now.AddDate(0, 0, -7), now, 14)
	dead := activityScore(10, 100, now.AddDate(0, 0, -20), now, 14)

	if !(fresh > stale) {
		t.Fatalf("expected decay: fresh=%d stale=%d", fresh, stale)
	}
	if dead != 0 {
		t.Fatalf("activity older than the window must score 0, got %d", dead)
	}
}

func TestRecordLogin_AccumulatesOnSameDay(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	env := newTestEnv(t, now)

	env.activity.RecordLogin(1, now)
	env.activity.RecordLogin(1, now.Add(5*time.Hour))

	record, err := env.activityRepo.FindByUserAndDate(1, now)
	if err != nil {
		t.Fatalf("expected one record for the day: %v", err)
	}
	if len(record.Logins()) != 2 {
		t.Fatalf("expected 2 logins, got %d", len(record.Logins()))
	}
	hours := record.Hours()
	if len(hours) != 2 {
		t.Fatalf("expected hours {9,14}, got %v", hours)
	}
}

func TestRecordTaskCompletion_AddsMinutes(t *testing.T) {
	now := time.Date(2026, 3, 10, 16, 0, 0, 0, time.UTC)
	env := newTestEnv(t, now)

	env.activity.RecordTaskCompletion(1, 25)
	env.activity.RecordTaskCompletion(1, 0)

	record, err := env.activityRepo.FindByUserAndDate(1, now)
	if err != nil {
		t.Fatalf("findByUserAndDate: %v", err)
	}
	if record.TasksCompleted != 2 {
		t.Fatalf("expected 2 completed tasks, got %d", record.TasksCompleted)
	}
	if record.StudyMinutes != 25 {
		t.Fatalf("expected 25 study minutes, got %d", record.StudyMinutes)
	}
}
