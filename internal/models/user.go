package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents an account. Authentication lives in the external
// Authorizer service; AuthSubject links this row to its Authorizer user.
type User struct {
	UserID       uint64  `gorm:"primaryKey;autoIncrement"`
	AuthSubject  string  `gorm:"type:char(36);uniqueIndex;not null"`
	Username     string  `gorm:"size:255;uniqueIndex;not null"`
	UserImage    string  `gorm:"size:255"`
	UserPosition *string `gorm:"size:255"`
	UserInfo     *string `gorm:"size:255"`
	UserHash     *string `gorm:"size:255"`
	SuccessCount int     `gorm:"not null;default:0"`
	IsActive     bool    `gorm:"not null;default:true"`
	Provider     string  `gorm:"size:50;not null;default:'EMAIL'"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

// Follow is a directed edge: follower follows followed.
type Follow struct {
	FollowID   uint64 `gorm:"primaryKey;autoIncrement"`
	FollowerID uint64 `gorm:"not null;index;index:idx_follow_pair,unique"`
	FollowedID uint64 `gorm:"not null;index;index:idx_follow_pair,unique"`
	Follower   User   `gorm:"foreignKey:FollowerID"`
	Followed   User   `gorm:"foreignKey:FollowedID"`
	CreatedAt  time.Time
}

// BlockedUser is a directed edge: blocker suppresses blocked from their views.
// Blocking hides content, it never deletes it.
type BlockedUser struct {
	BlockID   uint64 `gorm:"primaryKey;autoIncrement"`
	BlockerID uint64 `gorm:"not null;index;index:idx_block_pair,unique"`
	BlockedID uint64 `gorm:"not null;index:idx_block_pair,unique"`
	Blocker   User   `gorm:"foreignKey:BlockerID"`
	Blocked   User   `gorm:"foreignKey:BlockedID"`
	CreatedAt time.Time
}

// TableName overrides the table name for User
func (User) TableName() string {
	return "users"
}

// TableName overrides the table name for Follow
func (Follow) TableName() string {
	return "follows"
}

// TableName overrides the table name for BlockedUser
func (BlockedUser) TableName() string {
	return "blocked_users"
}
