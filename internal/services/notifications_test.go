package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/teammanda/manda-api/internal/models"
)

func TestReactionMilestone(t *testing.T) {
	cases := []struct {
		total int
		want  bool
	}{
		{0, false},
		{-5, false},
		{1, false},
		{9, false},
		{10, true},
		{15, false},
		{100, true},
		{110, false},
		{200, true},
		{999, false},
		{1000, true},
		{1500, false},
		{2000, true},
		{10000, true},
		{15000, false},
		{20000, true},
	}
	for _, tc := range cases {
		if got := reactionMilestone(tc.total); got != tc.want {
			t.Errorf("reactionMilestone(%d) = %v, want %v", tc.total, got, tc.want)
		}
	}
}

func TestDispatchDropsSelfNotifications(t *testing.T) {
	db := setupTestDB(t)
	dispatcher := NewDispatcher(db)
	user := mkUser(t, db, "loner")

	dispatcher.Dispatch(FollowEvent{SenderID: user.UserID, RecipientID: user.UserID})
	dispatcher.Dispatch(CommentEvent{SenderID: user.UserID, RecipientID: user.UserID, FeedID: 1, Comment: "hi me"})

	var count int64
	if err := db.Model(&models.Notification{}).Count(&count).Error; err != nil {
		t.Fatalf("count notifications: %v", err)
	}
	if count != 0 {
		t.Errorf("expected no self-notifications, got %d", count)
	}
}

func TestDispatchDropsNonMilestoneReactions(t *testing.T) {
	db := setupTestDB(t)
	dispatcher := NewDispatcher(db)
	sender := mkUser(t, db, "sender")
	owner := mkUser(t, db, "owner")

	dispatcher.Dispatch(ReactionEvent{SenderID: sender.UserID, RecipientID: owner.UserID, FeedID: 1, TotalCount: 7})
	dispatcher.Dispatch(ReactionEvent{SenderID: sender.UserID, RecipientID: owner.UserID, FeedID: 1, TotalCount: 10})

	var notes []models.Notification
	if err := db.Find(&notes).Error; err != nil {
		t.Fatalf("load notifications: %v", err)
	}
	if len(notes) != 1 {
		t.Fatalf("expected only the milestone event stored, got %d", len(notes))
	}
	if notes[0].Type != models.NotificationReaction {
		t.Errorf("stored type = %s, want reaction", notes[0].Type)
	}
}

func TestListNotificationsCapAndOrder(t *testing.T) {
	db := setupTestDB(t)
	dispatcher := NewDispatcher(db)
	recipient := mkUser(t, db, "popular")

	for i := 0; i < notificationListLimit+5; i++ {
		sender := mkUser(t, db, fmt.Sprintf("fan%02d", i))
		dispatcher.Dispatch(FollowEvent{SenderID: sender.UserID, RecipientID: recipient.UserID})
	}

	entries, err := ListNotifications(db, recipient.UserID)
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if len(entries) != notificationListLimit {
		t.Fatalf("expected the list capped at %d, got %d", notificationListLimit, len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].NotificationID > entries[i-1].NotificationID {
			t.Fatal("expected newest-first ordering")
		}
	}
	if entries[0].SenderName == "" {
		t.Error("expected sender info on each entry")
	}
}

func TestMarkNotificationRead(t *testing.T) {
	db := setupTestDB(t)
	dispatcher := NewDispatcher(db)
	sender := mkUser(t, db, "sender")
	recipient := mkUser(t, db, "recipient")
	bystander := mkUser(t, db, "bystander")

	dispatcher.Dispatch(FollowEvent{SenderID: sender.UserID, RecipientID: recipient.UserID})

	entries, err := ListNotifications(db, recipient.UserID)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one notification, got %d (%v)", len(entries), err)
	}
	id := entries[0].NotificationID

	// Only the recipient may mark it read.
	if err := MarkNotificationRead(db, bystander.UserID, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("foreign mark-read: expected ErrNotFound, got %v", err)
	}

	unread, err := UnreadNotificationCount(db, recipient.UserID)
	if err != nil || unread != 1 {
		t.Fatalf("expected 1 unread, got %d (%v)", unread, err)
	}
	if err := MarkNotificationRead(db, recipient.UserID, id); err != nil {
		t.Fatalf("MarkNotificationRead: %v", err)
	}
	unread, err = UnreadNotificationCount(db, recipient.UserID)
	if err != nil || unread != 0 {
		t.Fatalf("expected 0 unread after marking, got %d (%v)", unread, err)
	}
}
