package models

import "time"

// NotificationType discriminates the stored notification kinds.
type NotificationType string

const (
	NotificationFollow   NotificationType = "follow"
	NotificationComment  NotificationType = "comment"
	NotificationReaction NotificationType = "reaction"
)

// Notification is one delivered event row. Comment and TotalCount are
// populated per type: comment notifications carry the comment text,
// reaction notifications carry the milestone total.
type Notification struct {
	NotificationID uint64           `gorm:"primaryKey;autoIncrement"`
	SenderID       uint64           `gorm:"not null;index"`
	Sender         User             `gorm:"foreignKey:SenderID"`
	RecipientID    uint64           `gorm:"not null;index"`
	Recipient      User             `gorm:"foreignKey:RecipientID"`
	Type           NotificationType `gorm:"size:10;not null"`
	FeedID         *uint64          `gorm:"index"`
	Comment        *string          `gorm:"type:text"`
	TotalCount     *int
	IsRead         bool `gorm:"not null;default:false"`
	CreatedAt      time.Time
}

// TableName overrides the table name for Notification
func (Notification) TableName() string {
	return "notifications"
}
