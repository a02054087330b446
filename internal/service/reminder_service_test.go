package service

import (
	"ai_tutor_backend/internal/model"
	"testing"
	"time"
)

func TestSnapToPreferredHour_PicksClosestHour(t *testing.T) {
	candidate := time.Date(2026, 3, 11, 16, 30, 0, 0, time.UTC)
	due := time.Date(2026, 3, 11, 23, 0, 0, 0, time.UTC)

	snapped := snapToPreferredHour(candidate, due, []int{9, 18})
	if snapped.Hour() != 18 {
		t.Fatalf("expected snap to 18, got %d", snapped.Hour())
	}
	if snapped.Minute() != 30 {
		t.Fatalf("snap must keep the minute, got %d", snapped.Minute())
	}
	if snapped.Day() != candidate.Day() {
		t.Fatalf("snap must not change the date")
	}
}

func TestSnapToPreferredHour_TieTakesEarlierHour(t *testing.T) {
	candidate := time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)
	due := time.Date(2026, 3, 11, 23, 0, 0, 0, time.UTC)

	// 9 和 15 与 12 等距，顺序无关，取更早的小时
	snapped := snapToPreferredHour(candidate, due, []int{15, 9})
	if snapped.Hour() != 9 {
		t.Fatalf("expected tie to resolve to 9, got %d", snapped.Hour())
	}
}

func TestSnapToPreferredHour_NeverPassesDueDate(t *testing.T) {
	candidate := time.Date(2026, 3, 11, 16, 0, 0, 0, time.UTC)
	due := time.Date(2026, 3, 11, 17, 0, 0, 0, time.UTC)

	snapped := snapToPreferredHour(candidate, due, []int{18})
	if !snapped.Equal(candidate) {
		t.Fatalf("snap past due date must fall back to candidate, got %v", snapped)
	}
}

func TestSnapToPreferredHour_NoPreferredHours(t *testing.T) {
	candidate := time.Date(2026, 3, 11, 16, 0, 0, 0, time.UTC)
	due := time.Date(2026, 3, 11, 23, 0, 0, 0, time.UTC)

	snapped := snapToPreferredHour(candidate, due, nil)
	if !snapped.Equal(candidate) {
		t.Fatalf("expected candidate unchanged, got %v", snapped)
	}
}

func (env *testEnv) createTask(t *testing.T, userID uint, due time.Time) *model.Task {
	t.Helper()
	task := &model.Task{
		UserID:   userID,
		Title:    "Finish essay",
		Subject:  "writing",
		Priority: model.PriorityHigh,
		Status:   model.TaskPending,
		DueDate:  due,
	}
	if err := env.taskRepo.Create(task); err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task
}

func TestScheduleTaskReminder_CreatesBothChannelsAtSnappedTime(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	env := newTestEnv(t, now)

	// 用户常在 9 点和 18 点活跃
	env.markActiveOn(t, 1, now.AddDate(0, 0, -1), 9, 18)
	env.markActiveOn(t, 1, now.AddDate(0, 0, -2), 9, 18)

	due := time.Date(2026, 3, 11, 20, 0, 0, 0, time.UTC)
	task := env.createTask(t, 1, due)

	if err := env.reminder.ScheduleTaskReminder(1, task, env.reminder.DefaultOptions()); err != nil {
		t.Fatalf("scheduleTaskReminder: %v", err)
	}

	notifications := env.notificationsFor(t, 1)
	if len(notifications) != 2 {
		t.Fatalf("expected in_app + email, got %d notifications", len(notifications))
	}

	want := time.Date(2026, 3, 11, 18, 0, 0, 0, time.UTC)
	channels := map[model.NotificationChannel]bool{}
	for _, n := range notifications {
		channels[n.Channel] = true
		if !n.ScheduledFor.Equal(want) {
			t.Fatalf("expected scheduledFor %v, got %v", want, n.ScheduledFor)
		}
		if n.Status != model.NotificationPending {
			t.Fatalf("expected pending, got %s", n.Status)
		}
		payload := n.Payload()
		if payload == nil || payload.TaskID != task.ID {
			t.Fatalf("expected payload bound to task %d", task.ID)
		}
	}
	if !channels[model.ChannelInApp] || !channels[model.ChannelEmail] {
		t.Fatalf("expected one notification per channel, got %v", channels)
	}
}

func TestScheduleTaskReminder_RespectsTaskReminderSwitch(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	env := newTestEnv(t, now)

	prefs := model.DefaultPreferences(1)
	prefs.TaskReminderEnabled = false
	if err := env.preferenceRepo.Upsert(prefs); err != nil {
		t.Fatalf("upsert prefs: %v", err)
	}

	task := env.createTask(t, 1, now.AddDate(0, 0, 1))
	if err := env.reminder.ScheduleTaskReminder(1, task, env.reminder.DefaultOptions()); err != nil {
		t.Fatalf("scheduleTaskReminder: %v", err)
	}

	if got := env.notificationsFor(t, 1); len(got) != 0 {
		t.Fatalf("expected no notifications with reminders disabled, got %d", len(got))
	}
}

func TestScheduleTaskReminder_FiltersDisabledChannels(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	env := newTestEnv(t, now)

	prefs := model.DefaultPreferences(1)
	prefs.EmailEnabled = false
	if err := env.preferenceRepo.Upsert(prefs); err != nil {
		t.Fatalf("upsert prefs: %v", err)
	}

	task := env.createTask(t, 1, now.AddDate(0, 0, 1))
	if err := env.reminder.ScheduleTaskReminder(1, task, env.reminder.DefaultOptions()); err != nil {
		t.Fatalf("scheduleTaskReminder: %v", err)
	}

	notifications := env.notificationsFor(t, 1)
	if len(notifications) != 1 {
		t.Fatalf("expected only the in_app notification, got %d", len(notifications))
	}
	if notifications[0].Channel != model.ChannelInApp {
		t.Fatalf("expected in_app channel, got %s", notifications[0].Channel)
	}
}

func TestScheduleTaskReminder_DropsPastCandidates(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	env := newTestEnv(t, now)

	// 截止在1小时后，候选时间(截止-2h)已经过去
	task := env.createTask(t, 1, now.Add(time.Hour))
	if err := env.reminder.ScheduleTaskReminder(1, task, env.reminder.DefaultOptions()); err != nil {
		t.Fatalf("scheduleTaskReminder: %v", err)
	}

	if got := env.notificationsFor(t, 1); len(got) != 0 {
		t.Fatalf("expected no notifications for a past candidate, got %d", len(got))
	}
}

func TestRescheduleTaskReminders_CancelsBeforeRecreating(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	env := newTestEnv(t, now)

	task := env.createTask(t, 1, time.Date(2026, 3, 11, 20, 0, 0, 0, time.UTC))
	if err := env.reminder.ScheduleTaskReminder(1, task, env.reminder.DefaultOptions()); err != nil {
		t.Fatalf("scheduleTaskReminder: %v", err)
	}

	task.DueDate = time.Date(2026, 3, 12, 10, 0, 0, 0, time.UTC)
	if err := env.reminder.RescheduleTaskReminders(1, task); err != nil {
		t.Fatalf("rescheduleTaskReminders: %v", err)
	}

	notifications := env.notificationsFor(t, 1)
	var pending, cancelled int
	for _, n := range notifications {
		switch n.Status {
		case model.NotificationPending:
			pending++
			if !n.ScheduledFor.Equal(time.Date(2026, 3, 12, 8, 0, 0, 0, time.UTC)) {
				t.Fatalf("pending reminder not moved to new due date, got %v", n.ScheduledFor)
			}
		case model.NotificationCancelled:
			cancelled++
		}
	}
	if pending != 2 || cancelled != 2 {
		t.Fatalf("expected 2 pending + 2 cancelled, got %d pending, %d cancelled", pending, cancelled)
	}
}

func TestScheduleDailySummary_UsesMostActiveHour(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	env := newTestEnv(t, now)

	env.markActiveOn(t, 1, now.AddDate(0, 0, -1), 21)
	env.markActiveOn(t, 1, now.AddDate(0, 0, -2), 21)

	if err := env.reminder.ScheduleDailySummary(1); err != nil {
		t.Fatalf("scheduleDailySummary: %v", err)
	}

	notifications := env.notificationsFor(t, 1)
	if len(notifications) != 1 {
		t.Fatalf("expected one summary, got %d", len(notifications))
	}
	n := notifications[0]
	if n.Type != model.NotificationDailySummary || n.Channel != model.ChannelInApp {
		t.Fatalf("unexpected summary shape: type=%s channel=%s", n.Type, n.Channel)
	}
	want := time.Date(2026, 3, 10, 21, 0, 0, 0, time.UTC)
	if !n.ScheduledFor.Equal(want) {
		t.Fatalf("expected summary at %v, got %v", want, n.ScheduledFor)
	}
}

func TestScheduleDailySummary_RollsToNextDayWhenHourPassed(t *testing.T) {
	// 默认总结时间是 18 点，当前已 20 点
	now := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)
	env := newTestEnv(t, now)

	if err := env.reminder.ScheduleDailySummary(1); err != nil {
		t.Fatalf("scheduleDailySummary: %v", err)
	}

	notifications := env.notificationsFor(t, 1)
	if len(notifications) != 1 {
		t.Fatalf("expected one summary, got %d", len(notifications))
	}
	want := time.Date(2026, 3, 11, 18, 0, 0, 0, time.UTC)
	if !notifications[0].ScheduledFor.Equal(want) {
		t.Fatalf("expected summary rolled to %v, got %v", want, notifications[0].ScheduledFor)
	}
}

func TestScheduleDailySummary_SkipsWhenInAppDisabled(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	env := newTestEnv(t, now)

	prefs := model.DefaultPreferences(1)
	prefs.InAppEnabled = false
	if err := env.preferenceRepo.Upsert(prefs); err != nil {
		t.Fatalf("upsert prefs: %v", err)
	}

	if err := env.reminder.ScheduleDailySummary(1); err != nil {
		t.Fatalf("scheduleDailySummary: %v", err)
	}
	if got := env.notificationsFor(t, 1); len(got) != 0 {
		t.Fatalf("expected no summary, got %d", len(got))
	}
}

func TestScheduleWeeklyReport_PrefersEmailFallsBackToInApp(t *testing.T) {
	now := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	env := newTestEnv(t, now)

	if err := env.reminder.ScheduleWeeklyReport(1); err != nil {
		t.Fatalf("scheduleWeeklyReport: %v", err)
	}
	notifications := env.notificationsFor(t, 1)
	if len(notifications) != 1 || notifications[0].Channel != model.ChannelEmail {
		t.Fatalf("expected one email report, got %+v", notifications)
	}

	prefs := model.DefaultPreferences(2)
	prefs.EmailEnabled = false
	if err := env.preferenceRepo.Upsert(prefs); err != nil {
		t.Fatalf("upsert prefs: %v", err)
	}
	if err := env.reminder.ScheduleWeeklyReport(2); err != nil {
		t.Fatalf("scheduleWeeklyReport: %v", err)
	}
	notifications = env.notificationsFor(t, 2)
	if len(notifications) != 1 || notifications[0].Channel != model.ChannelInApp {
		t.Fatalf("expected in_app fallback, got %+v", notifications)
	}
}

func TestScheduleWeeklyReport_SkipsWhenDisabled(t *testing.T) {
	now := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	env := newTestEnv(t, now)

	prefs := model.DefaultPreferences(1)
	prefs.WeeklyReportEnabled = false
	if err := env.preferenceRepo.Upsert(prefs); err != nil {
		t.Fatalf("upsert prefs: %v", err)
	}

	if err := env.reminder.ScheduleWeeklyReport(1); err != nil {
		t.Fatalf("scheduleWeeklyReport: %v", err)
	}
	if got := env.notificationsFor(t, 1); len(got) != 0 {
		t.Fatalf("expected no report, got %d", len(got))
	}
}

func TestUpdateConfig_ChangesLeadTime(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	env := newTestEnv(t, now)

	cfg := env.reminder.config()
	cfg.HoursBeforeDue = 6
	env.reminder.UpdateConfig(cfg)

	due := time.Date(2026, 3, 11, 20, 0, 0, 0, time.UTC)
	task := env.createTask(t, 1, due)
	if err := env.reminder.ScheduleTaskReminder(1, task, env.reminder.DefaultOptions()); err != nil {
		t.Fatalf("scheduleTaskReminder: %v", err)
	}

	notifications := env.notificationsFor(t, 1)
	if len(notifications) == 0 {
		t.Fatalf("expected notifications")
	}
	want := due.Add(-6 * time.Hour)
	if !notifications[0].ScheduledFor.Equal(want) {
		t.Fatalf("expected lead time of 6h (%v), got %v", want, notifications[0].ScheduledFor)
	}
}
