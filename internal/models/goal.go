package models

import (
	"time"

	"gorm.io/gorm"
)

// Privacy controls who can see feeds posted against a goal tree.
type Privacy string

const (
	PrivacyPublic    Privacy = "public"
	PrivacyFollowers Privacy = "followers"
	PrivacyPrivate   Privacy = "private"
)

// GridSize is the fixed fan-out of the Mandalart grid: one main goal,
// 8 sub goals, 8 action items per sub goal. Never resized after creation.
const GridSize = 8

// MaxTitleLength is the longest accepted goal title.
const MaxTitleLength = 50

// MainGoal is the root of one Mandalart grid.
type MainGoal struct {
	MainID    uint64  `gorm:"primaryKey;autoIncrement"`
	UserID    uint64  `gorm:"not null;index"`
	User      User    `gorm:"foreignKey:UserID"`
	MainTitle string  `gorm:"size:100;not null"`
	Success   bool    `gorm:"not null;default:false"`
	Privacy   Privacy `gorm:"size:20;not null;default:'public'"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
	SubGoals  []SubGoal      `gorm:"foreignKey:MainID;constraint:OnDelete:CASCADE"`
}

// SubGoal is one of the 8 cells surrounding the main goal.
// Title stays null until the user fills the cell in.
type SubGoal struct {
	SubID        uint64  `gorm:"primaryKey;autoIncrement"`
	MainID       uint64  `gorm:"not null;index"`
	Position     int     `gorm:"not null"`
	SubTitle     *string `gorm:"size:100"`
	SuccessCount int     `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ActionItems  []ActionItem `gorm:"foreignKey:SubID;constraint:OnDelete:CASCADE"`
}

// ActionItem is one of the 8 concrete practice cells under a sub goal.
type ActionItem struct {
	ActionID     uint64  `gorm:"primaryKey;autoIncrement"`
	SubID        uint64  `gorm:"not null;index"`
	Position     int     `gorm:"not null"`
	Content      *string `gorm:"size:100"`
	SuccessCount int     `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName overrides the table name for MainGoal
func (MainGoal) TableName() string {
	return "main_goals"
}

// TableName overrides the table name for SubGoal
func (SubGoal) TableName() string {
	return "sub_goals"
}

// TableName overrides the table name for ActionItem
func (ActionItem) TableName() string {
	return "action_items"
}
