package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Feed is a progress post tied to one action item of a goal grid.
// EmojiCount is a denormalized {emojiName: count} aggregate kept in step
// with the reactions table inside the reaction transactions.
type Feed struct {
	FeedID     uint64         `gorm:"primaryKey;autoIncrement"`
	UserID     uint64         `gorm:"not null;index"`
	User       User           `gorm:"foreignKey:UserID"`
	MainID     uint64         `gorm:"not null;index"`
	MainGoal   MainGoal       `gorm:"foreignKey:MainID"`
	SubID      uint64         `gorm:"not null;index"`
	SubGoal    SubGoal        `gorm:"foreignKey:SubID"`
	ActionID   uint64         `gorm:"not null;index"`
	ActionItem ActionItem     `gorm:"foreignKey:ActionID"`
	Contents   string         `gorm:"type:text;not null"`
	FeedImage  string         `gorm:"size:255"`
	FeedHash   string         `gorm:"size:255"`
	EmojiCount datatypes.JSON `gorm:"type:json"`
	CreatedAt  time.Time      `gorm:"index"`
	UpdatedAt  time.Time
	DeletedAt  gorm.DeletedAt `gorm:"index"`
	Comments   []Comment      `gorm:"foreignKey:FeedID;constraint:OnDelete:CASCADE"`
	Reactions  []Reaction     `gorm:"foreignKey:FeedID;constraint:OnDelete:CASCADE"`
}

// Comment on a feed.
type Comment struct {
	CommentID uint64 `gorm:"primaryKey;autoIncrement"`
	FeedID    uint64 `gorm:"not null;index"`
	UserID    uint64 `gorm:"not null;index"`
	User      User   `gorm:"foreignKey:UserID"`
	Comment   string `gorm:"type:text;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// Reaction is one emoji by one user on one feed.
// The (user, feed, emoji) triple is unique at the store layer.
type Reaction struct {
	ReactionID uint64 `gorm:"primaryKey;autoIncrement"`
	FeedID     uint64 `gorm:"not null;index;index:idx_reaction_triple,unique"`
	UserID     uint64 `gorm:"not null;index;index:idx_reaction_triple,unique"`
	EmojiName  string `gorm:"size:50;not null;index:idx_reaction_triple,unique"`
	CreatedAt  time.Time
}

// ReportedFeed marks a feed hidden from the reporter's views.
// Reports are exclusion filters only, never moderation actions.
type ReportedFeed struct {
	ReportID   uint64 `gorm:"primaryKey;autoIncrement"`
	ReporterID uint64 `gorm:"not null;index;index:idx_reported_feed,unique"`
	FeedID     uint64 `gorm:"not null;index:idx_reported_feed,unique"`
	Reason     string `gorm:"size:255"`
	CreatedAt  time.Time
}

// ReportedComment marks a comment hidden from the reporter's views.
type ReportedComment struct {
	ReportID   uint64 `gorm:"primaryKey;autoIncrement"`
	ReporterID uint64 `gorm:"not null;index;index:idx_reported_comment,unique"`
	CommentID  uint64 `gorm:"not null;index:idx_reported_comment,unique"`
	Reason     string `gorm:"size:255"`
	CreatedAt  time.Time
}

// TableName overrides the table name for Feed
func (Feed) TableName() string {
	return "feeds"
}

// TableName overrides the table name for Comment
func (Comment) TableName() string {
	return "comments"
}

// TableName overrides the table name for Reaction
func (Reaction) TableName() string {
	return "reactions"
}

// TableName overrides the table name for ReportedFeed
func (ReportedFeed) TableName() string {
	return "reported_feeds"
}

// TableName overrides the table name for ReportedComment
func (ReportedComment) TableName() string {
	return "reported_comments"
}
