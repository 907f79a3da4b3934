package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/teammanda/manda-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.BlockedUser{},
		&models.MainGoal{},
		&models.SubGoal{},
		&models.ActionItem{},
		&models.Feed{},
		&models.Comment{},
		&models.Reaction{},
		&models.ReportedFeed{},
		&models.ReportedComment{},
		&models.Notification{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

func mkUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	user := &models.User{
		AuthSubject: fmt.Sprintf("sub-%s", name),
		Username:    name,
		IsActive:    true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create user %s: %v", name, err)
	}
	return user
}

// mkGrid creates a main goal with one sub goal and one action item, enough
// structure for feed tests without the full 8x8 fan-out.
func mkGrid(t *testing.T, db *gorm.DB, userID uint64, title string, privacy models.Privacy) (*models.MainGoal, *models.SubGoal, *models.ActionItem) {
	t.Helper()
	main := &models.MainGoal{UserID: userID, MainTitle: title, Privacy: privacy}
	if err := db.Create(main).Error; err != nil {
		t.Fatalf("Failed to create main goal: %v", err)
	}
	sub := &models.SubGoal{MainID: main.MainID, Position: 0}
	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("Failed to create sub goal: %v", err)
	}
	action := &models.ActionItem{SubID: sub.SubID, Position: 0}
	if err := db.Create(action).Error; err != nil {
		t.Fatalf("Failed to create action item: %v", err)
	}
	return main, sub, action
}

// mkFeed creates a feed at a fixed age so ranking tests control recency.
func mkFeed(t *testing.T, db *gorm.DB, userID uint64, main *models.MainGoal, sub *models.SubGoal, action *models.ActionItem, contents string, age time.Duration) *models.Feed {
	t.Helper()
	feed := &models.Feed{
		UserID:     userID,
		MainID:     main.MainID,
		SubID:      sub.SubID,
		ActionID:   action.ActionID,
		Contents:   contents,
		EmojiCount: []byte("{}"),
	}
	if err := db.Create(feed).Error; err != nil {
		t.Fatalf("Failed to create feed: %v", err)
	}
	if age > 0 {
		createdAt := time.Now().Add(-age)
		if err := db.Model(&models.Feed{}).Where("feed_id = ?", feed.FeedID).
			UpdateColumn("created_at", createdAt).Error; err != nil {
			t.Fatalf("Failed to age feed: %v", err)
		}
		feed.CreatedAt = createdAt
	}
	return feed
}

func follow(t *testing.T, db *gorm.DB, followerID, followedID uint64) {
	t.Helper()
	if err := db.Create(&models.Follow{FollowerID: followerID, FollowedID: followedID}).Error; err != nil {
		t.Fatalf("Failed to create follow: %v", err)
	}
}
