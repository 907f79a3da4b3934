package services

import (
	"fmt"
	"log"
	"time"

	"github.com/teammanda/manda-api/internal/models"
	"gorm.io/gorm"
)

// notificationListLimit caps the notification list to the most recent rows.
const notificationListLimit = 30

// Event is a social interaction that may produce a notification.
type Event interface {
	notification() *models.Notification
}

// FollowEvent fires when a user starts following another user.
type FollowEvent struct {
	SenderID    uint64
	RecipientID uint64
}

func (e FollowEvent) notification() *models.Notification {
	return &models.Notification{
		SenderID:    e.SenderID,
		RecipientID: e.RecipientID,
		Type:        models.NotificationFollow,
	}
}

// CommentEvent fires when a user comments on a feed.
type CommentEvent struct {
	SenderID    uint64
	RecipientID uint64
	FeedID      uint64
	Comment     string
}

func (e CommentEvent) notification() *models.Notification {
	feedID := e.FeedID
	comment := e.Comment
	return &models.Notification{
		SenderID:    e.SenderID,
		RecipientID: e.RecipientID,
		Type:        models.NotificationComment,
		FeedID:      &feedID,
		Comment:     &comment,
	}
}

// ReactionEvent fires when a reaction lands on a feed. Only milestone
// totals notify the owner; see reactionMilestone.
type ReactionEvent struct {
	SenderID    uint64
	RecipientID uint64
	FeedID      uint64
	TotalCount  int
}

func (e ReactionEvent) notification() *models.Notification {
	if !reactionMilestone(e.TotalCount) {
		return nil
	}
	feedID := e.FeedID
	total := e.TotalCount
	return &models.Notification{
		SenderID:    e.SenderID,
		RecipientID: e.RecipientID,
		Type:        models.NotificationReaction,
		FeedID:      &feedID,
		TotalCount:  &total,
	}
}

// reactionMilestone reports whether a reaction total is worth announcing.
// The step widens as the count grows: every 10 up to 100, every 100 up to
// 1000, every 1000 up to 10000, then every 10000.
func reactionMilestone(total int) bool {
	switch {
	case total <= 0:
		return false
	case total <= 100:
		return total%10 == 0
	case total <= 1000:
		return total%100 == 0
	case total <= 10000:
		return total%1000 == 0
	default:
		return total%10000 == 0
	}
}

// Dispatcher turns events into persisted notifications. Delivery is
// fire-and-forget: a failed insert is logged and never propagated to the
// interaction that produced the event.
type Dispatcher struct {
	db *gorm.DB
}

// NewDispatcher builds a dispatcher over the given database handle.
func NewDispatcher(db *gorm.DB) *Dispatcher {
	return &Dispatcher{db: db}
}

// Dispatch persists the notification for an event, if the event produces
// one. Self-notifications are dropped.
func (d *Dispatcher) Dispatch(event Event) {
	n := event.notification()
	if n == nil || n.SenderID == n.RecipientID {
		return
	}
	if err := d.db.Create(n).Error; err != nil {
		log.Printf("notification dispatch failed: type=%s recipient=%d: %v", n.Type, n.RecipientID, err)
	}
}

// NotificationEntry is one row of the notification list.
type NotificationEntry struct {
	NotificationID uint64                  `json:"id"`
	Type           models.NotificationType `json:"type"`
	SenderID       uint64                  `json:"sender_id"`
	SenderName     string                  `json:"sender_name"`
	SenderImage    string                  `json:"sender_img"`
	FeedID         *uint64                 `json:"feed_id,omitempty"`
	Comment        *string                 `json:"comment,omitempty"`
	TotalCount     *int                    `json:"total_count,omitempty"`
	IsRead         bool                    `json:"is_read"`
	CreatedAt      time.Time               `json:"created_at"`
}

// ListNotifications returns the recipient's most recent notifications,
// newest first, capped at notificationListLimit.
func ListNotifications(db *gorm.DB, userID uint64) ([]NotificationEntry, error) {
	var rows []models.Notification
	err := db.Preload("Sender").
		Where("recipient_id = ?", userID).
		Order("notification_id DESC").
		Limit(notificationListLimit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	entries := make([]NotificationEntry, 0, len(rows))
	for _, n := range rows {
		entries = append(entries, NotificationEntry{
			NotificationID: n.NotificationID,
			Type:           n.Type,
			SenderID:       n.SenderID,
			SenderName:     n.Sender.Username,
			SenderImage:    n.Sender.UserImage,
			FeedID:         n.FeedID,
			Comment:        n.Comment,
			TotalCount:     n.TotalCount,
			IsRead:         n.IsRead,
			CreatedAt:      n.CreatedAt,
		})
	}
	return entries, nil
}

// MarkNotificationRead flips a notification of the recipient to read.
func MarkNotificationRead(db *gorm.DB, userID, notificationID uint64) error {
	result := db.Model(&models.Notification{}).
		Where("notification_id = ? AND recipient_id = ?", notificationID, userID).
		Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("notification %d: %w", notificationID, ErrNotFound)
	}
	return nil
}

// UnreadNotificationCount reports how many unread notifications a user has.
func UnreadNotificationCount(db *gorm.DB, userID uint64) (int64, error) {
	var count int64
	err := db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
