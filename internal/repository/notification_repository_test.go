package repository

import (
	"ai_tutor_backend/internal/model"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"
)

func pendingNotification(userID uint, scheduledFor time.Time) *model.Notification {
	return &model.Notification{
		UserID:       userID,
		Type:         model.NotificationTaskReminder,
		Channel:      model.ChannelInApp,
		Title:        "t",
		Message:      "m",
		ScheduledFor: scheduledFor,
	}
}

func TestCreate_AssignsUniquePublicID(t *testing.T) {
	repo := NewNotificationRepository(newTestDB(t))
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	first := pendingNotification(1, now)
	second := pendingNotification(1, now)
	for _, n := range []*model.Notification{first, second} {
		if err := repo.Create(n); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	if len(first.PublicID) != 36 {
		t.Fatalf("expected uuid public id, got %q", first.PublicID)
	}
	if first.PublicID == second.PublicID {
		t.Fatalf("public ids must be unique, both are %q", first.PublicID)
	}

	// 预先指定的标识不被覆盖
	preset := pendingNotification(1, now)
	preset.PublicID = "ffffffff-0000-0000-0000-000000000001"
	if err := repo.Create(preset); err != nil {
		t.Fatalf("create preset: %v", err)
	}
	if preset.PublicID != "ffffffff-0000-0000-0000-000000000001" {
		t.Fatalf("preset public id overwritten: %q", preset.PublicID)
	}
}

func TestDuePending_OrdersByScheduledForAndSkipsFuture(t *testing.T) {
	repo := NewNotificationRepository(newTestDB(t))
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	late := pendingNotification(1, now.Add(-1*time.Hour))
	early := pendingNotification(1, now.Add(-3*time.Hour))
	future := pendingNotification(1, now.Add(1*time.Hour))
	for _, n := range []*model.Notification{late, early, future} {
		if err := repo.Create(n); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	due, err := repo.DuePending(10, now)
	if err != nil {
		t.Fatalf("duePending: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("expected 2 due notifications, got %d", len(due))
	}
	if due[0].ID != early.ID || due[1].ID != late.ID {
		t.Fatalf("expected earliest first, got ids %d, %d", due[0].ID, due[1].ID)
	}
}

func TestDuePending_RespectsLimit(t *testing.T) {
	repo := NewNotificationRepository(newTestDB(t))
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		n := pendingNotification(1, now.Add(-time.Duration(i+1)*time.Minute))
		if err := repo.Create(n); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	due, err := repo.DuePending(3, now)
	if err != nil {
		t.Fatalf("duePending: %v", err)
	}
	if len(due) != 3 {
		t.Fatalf("expected batch of 3, got %d", len(due))
	}
}

func TestMarkSent_OnlyTransitionsPending(t *testing.T) {
	repo := NewNotificationRepository(newTestDB(t))
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	n := pendingNotification(1, now)
	if err := repo.Create(n); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.MarkSent(n.ID, now); err != nil {
		t.Fatalf("markSent: %v", err)
	}

	got, err := repo.FindByID(n.ID)
	if err != nil {
		t.Fatalf("findByID: %v", err)
	}
	if got.Status != model.NotificationSent {
		t.Fatalf("expected status sent, got %s", got.Status)
	}
	if got.SentAt == nil {
		t.Fatalf("expected sentAt to be set")
	}

	// 二次标记不命中任何行
	if err := repo.MarkSent(n.ID, now); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound on double markSent, got %v", err)
	}
}

func TestMarkFailed_DoesNotTouchSent(t *testing.T) {
	repo := NewNotificationRepository(newTestDB(t))
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	n := pendingNotification(1, now)
	if err := repo.Create(n); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.MarkSent(n.ID, now); err != nil {
		t.Fatalf("markSent: %v", err)
	}

	if err := repo.MarkFailed(n.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}

	got, _ := repo.FindByID(n.ID)
	if got.Status != model.NotificationSent {
		t.Fatalf("sent status must not be overwritten, got %s", got.Status)
	}
}

func TestMarkRead_RequiresSentInAppAndOwner(t *testing.T) {
	repo := NewNotificationRepository(newTestDB(t))
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	n := pendingNotification(7, now)
	if err := repo.Create(n); err != nil {
		t.Fatalf("create: %v", err)
	}

	// pending 不可读
	if err := repo.MarkRead(n.ID, 7, now); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound for pending, got %v", err)
	}

	if err := repo.MarkSent(n.ID, now); err != nil {
		t.Fatalf("markSent: %v", err)
	}

	// 他人不可读
	if err := repo.MarkRead(n.ID, 8, now); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound for wrong user, got %v", err)
	}

	if err := repo.MarkRead(n.ID, 7, now); err != nil {
		t.Fatalf("markRead: %v", err)
	}
	got, _ := repo.FindByID(n.ID)
	if got.Status != model.NotificationRead || got.ReadAt == nil {
		t.Fatalf("expected read status with readAt, got %s", got.Status)
	}
}

func TestMarkRead_SkipsEmailChannel(t *testing.T) {
	repo := NewNotificationRepository(newTestDB(t))
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	n := pendingNotification(7, now)
	n.Channel = model.ChannelEmail
	if err := repo.Create(n); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.MarkSent(n.ID, now); err != nil {
		t.Fatalf("markSent: %v", err)
	}

	if err := repo.MarkRead(n.ID, 7, now); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("email notifications must not be readable, got %v", err)
	}
}

func TestMarkAllRead_CountsOnlySentInApp(t *testing.T) {
	repo := NewNotificationRepository(newTestDB(t))
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	sent1 := pendingNotification(5, now)
	sent2 := pendingNotification(5, now)
	stillPending := pendingNotification(5, now.Add(time.Hour))
	otherUser := pendingNotification(6, now)
	for _, n := range []*model.Notification{sent1, sent2, stillPending, otherUser} {
		if err := repo.Create(n); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	for _, n := range []*model.Notification{sent1, sent2, otherUser} {
		if err := repo.MarkSent(n.ID, now); err != nil {
			t.Fatalf("markSent: %v", err)
		}
	}

	updated, err := repo.MarkAllRead(5, now)
	if err != nil {
		t.Fatalf("markAllRead: %v", err)
	}
	if updated != 2 {
		t.Fatalf("expected 2 updated, got %d", updated)
	}

	count, err := repo.UnreadCount(5)
	if err != nil {
		t.Fatalf("unreadCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 unread after markAllRead, got %d", count)
	}
}

func TestCancelPendingByTask_MatchesPayloadTaskID(t *testing.T) {
	repo := NewNotificationRepository(newTestDB(t))
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	payload42, err := model.ReminderPayload{TaskID: 42, TaskTitle: "essay"}.ToJSON()
	if err != nil {
		t.Fatalf("payload: %v", err)
	}
	payload99, err := model.ReminderPayload{TaskID: 99, TaskTitle: "reading"}.ToJSON()
	if err != nil {
		t.Fatalf("payload: %v", err)
	}

	inApp := pendingNotification(1, now.Add(time.Hour))
	inApp.Data = payload42
	email := pendingNotification(1, now.Add(time.Hour))
	email.Channel = model.ChannelEmail
	email.Data = payload42
	other := pendingNotification(1, now.Add(time.Hour))
	other.Data = payload99
	alreadySent := pendingNotification(1, now)
	alreadySent.Data = payload42

	for _, n := range []*model.Notification{inApp, email, other, alreadySent} {
		if err := repo.Create(n); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if err := repo.MarkSent(alreadySent.ID, now); err != nil {
		t.Fatalf("markSent: %v", err)
	}

	cancelled, err := repo.CancelPendingByTask(42)
	if err != nil {
		t.Fatalf("cancelPendingByTask: %v", err)
	}
	if cancelled != 2 {
		t.Fatalf("expected 2 cancelled, got %d", cancelled)
	}

	for _, id := range []uint{inApp.ID, email.ID} {
		got, _ := repo.FindByID(id)
		if got.Status != model.NotificationCancelled {
			t.Fatalf("notification %d: expected cancelled, got %s", id, got.Status)
		}
	}

	got, _ := repo.FindByID(other.ID)
	if got.Status != model.NotificationPending {
		t.Fatalf("unrelated task reminder must stay pending, got %s", got.Status)
	}
	got, _ = repo.FindByID(alreadySent.ID)
	if got.Status != model.NotificationSent {
		t.Fatalf("sent notification must not be cancelled, got %s", got.Status)
	}
}

func TestFindByUser_FiltersByStatus(t *testing.T) {
	repo := NewNotificationRepository(newTestDB(t))
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	a := pendingNotification(3, now)
	b := pendingNotification(3, now.Add(time.Hour))
	if err := repo.Create(a); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(b); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.MarkSent(a.ID, now); err != nil {
		t.Fatalf("markSent: %v", err)
	}

	sent, err := repo.FindByUser(3, model.NotificationSent, 0)
	if err != nil {
		t.Fatalf("findByUser: %v", err)
	}
	if len(sent) != 1 || sent[0].ID != a.ID {
		t.Fatalf("expected only the sent notification")
	}

	all, err := repo.FindByUser(3, "", 0)
	if err != nil {
		t.Fatalf("findByUser: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 notifications without status filter, got %d", len(all))
	}
}
