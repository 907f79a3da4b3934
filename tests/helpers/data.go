package helpers

import (
	"fmt"
	"testing"

	"github.com/teammanda/manda-api/internal/models"
	"gorm.io/gorm"
)

// CreateTestUser creates an active account with a synthetic auth subject.
func CreateTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		AuthSubject: fmt.Sprintf("00000000-test-user-%s", username),
		Username:    username,
		IsActive:    true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create user %s: %v", username, err)
	}
	return user
}

// CreateTestGoalTree creates a main goal with its full 8x8 grid.
func CreateTestGoalTree(t *testing.T, db *gorm.DB, userID uint64, title string, privacy models.Privacy) *models.MainGoal {
	t.Helper()
	main := &models.MainGoal{UserID: userID, MainTitle: title, Privacy: privacy}
	if err := db.Create(main).Error; err != nil {
		t.Fatalf("Failed to create main goal: %v", err)
	}
	for s := 0; s < models.GridSize; s++ {
		sub := models.SubGoal{MainID: main.MainID, Position: s}
		if err := db.Create(&sub).Error; err != nil {
			t.Fatalf("Failed to create sub goal: %v", err)
		}
		for a := 0; a < models.GridSize; a++ {
			item := models.ActionItem{SubID: sub.SubID, Position: a}
			if err := db.Create(&item).Error; err != nil {
				t.Fatalf("Failed to create action item: %v", err)
			}
		}
	}
	if err := db.Preload("SubGoals.ActionItems").First(main, main.MainID).Error; err != nil {
		t.Fatalf("Failed to reload main goal: %v", err)
	}
	return main
}

// CreateTestFeed creates a feed against the first action item of the grid.
func CreateTestFeed(t *testing.T, db *gorm.DB, user *models.User, main *models.MainGoal, contents string) *models.Feed {
	t.Helper()
	if len(main.SubGoals) == 0 || len(main.SubGoals[0].ActionItems) == 0 {
		t.Fatal("Goal tree has no action items; create it with CreateTestGoalTree")
	}
	sub := main.SubGoals[0]
	action := sub.ActionItems[0]
	feed := &models.Feed{
		UserID:     user.UserID,
		MainID:     main.MainID,
		SubID:      sub.SubID,
		ActionID:   action.ActionID,
		Contents:   contents,
		EmojiCount: []byte("{}"),
	}
	if err := db.Create(feed).Error; err != nil {
		t.Fatalf("Failed to create feed: %v", err)
	}
	return feed
}
