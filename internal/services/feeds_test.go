package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/teammanda/manda-api/internal/config"
	"github.com/teammanda/manda-api/internal/models"
)

func TestCreateFeedBumpsCounters(t *testing.T) {
	db := setupTestDB(t)

	author := mkUser(t, db, "author")
	_, sub, action := mkGrid(t, db, author.UserID, "learn piano", models.PrivacyPublic)

	feed, err := CreateFeed(db, author.UserID, CreateFeedInput{
		ActionID: action.ActionID,
		Contents: "practiced scales for an hour",
		Tags:     "piano,practice",
	})
	if err != nil {
		t.Fatalf("CreateFeed: %v", err)
	}
	if feed.MainID == 0 || feed.SubID != sub.SubID || feed.ActionID != action.ActionID {
		t.Errorf("feed not anchored to the grid cell: %+v", feed)
	}

	var gotAction models.ActionItem
	if err := db.First(&gotAction, "action_id = ?", action.ActionID).Error; err != nil {
		t.Fatalf("reload action: %v", err)
	}
	if gotAction.SuccessCount != 1 {
		t.Errorf("action success_count = %d, want 1", gotAction.SuccessCount)
	}
	var gotSub models.SubGoal
	if err := db.First(&gotSub, "sub_id = ?", sub.SubID).Error; err != nil {
		t.Fatalf("reload sub: %v", err)
	}
	if gotSub.SuccessCount != 1 {
		t.Errorf("sub success_count = %d, want 1", gotSub.SuccessCount)
	}
	var gotUser models.User
	if err := db.First(&gotUser, "user_id = ?", author.UserID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if gotUser.SuccessCount != 1 {
		t.Errorf("user success_count = %d, want 1", gotUser.SuccessCount)
	}
}

func TestCreateFeedOwnership(t *testing.T) {
	db := setupTestDB(t)
	author := mkUser(t, db, "author")
	stranger := mkUser(t, db, "stranger")
	_, _, action := mkGrid(t, db, author.UserID, "learn piano", models.PrivacyPublic)

	_, err := CreateFeed(db, stranger.UserID, CreateFeedInput{
		ActionID: action.ActionID,
		Contents: "posting on someone else's grid",
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("foreign action item: expected ErrValidation, got %v", err)
	}

	if _, err := CreateFeed(db, author.UserID, CreateFeedInput{ActionID: action.ActionID, Contents: "  "}); !errors.Is(err, ErrValidation) {
		t.Errorf("blank contents: expected ErrValidation, got %v", err)
	}
	if _, err := CreateFeed(db, author.UserID, CreateFeedInput{ActionID: 9999, Contents: "hi"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown action item: expected ErrNotFound, got %v", err)
	}
}

func TestUserFeedsPagination(t *testing.T) {
	db := setupTestDB(t)
	cfg := config.Default()

	viewer := mkUser(t, db, "viewer")
	author := mkUser(t, db, "author")
	main, sub, action := mkGrid(t, db, author.UserID, "learn piano", models.PrivacyPublic)

	var last *models.Feed
	for i := 0; i < cfg.PageSize+1; i++ {
		last = mkFeed(t, db, author.UserID, main, sub, action, fmt.Sprintf("post %d", i), 0)
	}

	page1, hasMore, err := UserFeeds(db, cfg, viewer.UserID, author.UserID, 1)
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if len(page1) != cfg.PageSize || !hasMore {
		t.Fatalf("expected a full page with more to come, got %d hasMore=%v", len(page1), hasMore)
	}
	// Newest first by feed id.
	if page1[0].FeedInfo.FeedID != last.FeedID {
		t.Errorf("expected the newest feed first, got %d", page1[0].FeedInfo.FeedID)
	}

	page2, hasMore, err := UserFeeds(db, cfg, viewer.UserID, author.UserID, 2)
	if err != nil {
		t.Fatalf("page 2: %v", err)
	}
	if len(page2) != 1 || hasMore {
		t.Fatalf("expected a final page of 1, got %d hasMore=%v", len(page2), hasMore)
	}

	if _, _, err := UserFeeds(db, cfg, viewer.UserID, author.UserID, 3); !errors.Is(err, ErrNoMorePages) {
		t.Errorf("expected ErrNoMorePages past the end, got %v", err)
	}
}

func TestUpdateAndDeleteFeed(t *testing.T) {
	db := setupTestDB(t)
	author := mkUser(t, db, "author")
	stranger := mkUser(t, db, "stranger")
	main, sub, action := mkGrid(t, db, author.UserID, "learn piano", models.PrivacyPublic)
	feed := mkFeed(t, db, author.UserID, main, sub, action, "original", 0)

	contents := "revised"
	tags := "updated"
	updated, err := UpdateFeed(db, author.UserID, feed.FeedID, &contents, &tags)
	if err != nil {
		t.Fatalf("UpdateFeed: %v", err)
	}
	if updated.Contents != contents || updated.FeedHash != tags {
		t.Errorf("update not applied: %+v", updated)
	}

	if _, err := UpdateFeed(db, stranger.UserID, feed.FeedID, &contents, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("foreign feed edit: expected ErrNotFound, got %v", err)
	}
	if err := DeleteFeed(db, stranger.UserID, feed.FeedID); !errors.Is(err, ErrNotFound) {
		t.Errorf("foreign feed delete: expected ErrNotFound, got %v", err)
	}
	if err := DeleteFeed(db, author.UserID, feed.FeedID); err != nil {
		t.Fatalf("DeleteFeed: %v", err)
	}
	if _, err := UpdateFeed(db, author.UserID, feed.FeedID, &contents, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted feed edit: expected ErrNotFound, got %v", err)
	}
}

func TestCommentsLifecycle(t *testing.T) {
	db := setupTestDB(t)
	dispatcher := NewDispatcher(db)

	author := mkUser(t, db, "author")
	fan := mkUser(t, db, "fan")
	main, sub, action := mkGrid(t, db, author.UserID, "learn piano", models.PrivacyPublic)
	feed := mkFeed(t, db, author.UserID, main, sub, action, "post", 0)

	comment, err := AddComment(db, dispatcher, fan.UserID, feed.FeedID, "keep going!")
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}

	// The feed owner gets a comment notification.
	var count int64
	if err := db.Model(&models.Notification{}).
		Where("recipient_id = ? AND type = ?", author.UserID, models.NotificationComment).
		Count(&count).Error; err != nil {
		t.Fatalf("count notifications: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 comment notification, got %d", count)
	}

	edited, err := UpdateComment(db, fan.UserID, feed.FeedID, comment.CommentID, "keep going!!")
	if err != nil {
		t.Fatalf("UpdateComment: %v", err)
	}
	if edited.Comment != "keep going!!" {
		t.Errorf("comment not updated: %q", edited.Comment)
	}

	if _, err := UpdateComment(db, author.UserID, feed.FeedID, comment.CommentID, "hijack"); !errors.Is(err, ErrNotFound) {
		t.Errorf("foreign comment edit: expected ErrNotFound, got %v", err)
	}
	if err := DeleteComment(db, fan.UserID, feed.FeedID, comment.CommentID); err != nil {
		t.Fatalf("DeleteComment: %v", err)
	}
	if err := DeleteComment(db, fan.UserID, feed.FeedID, comment.CommentID); !errors.Is(err, ErrNotFound) {
		t.Errorf("double delete: expected ErrNotFound, got %v", err)
	}
}

func TestAddReactionUniqueAndTally(t *testing.T) {
	db := setupTestDB(t)
	dispatcher := NewDispatcher(db)

	author := mkUser(t, db, "author")
	fan := mkUser(t, db, "fan")
	main, sub, action := mkGrid(t, db, author.UserID, "learn piano", models.PrivacyPublic)
	feed := mkFeed(t, db, author.UserID, main, sub, action, "post", 0)

	if _, err := AddReaction(db, dispatcher, fan.UserID, feed.FeedID, "fire"); err != nil {
		t.Fatalf("AddReaction: %v", err)
	}
	if _, err := AddReaction(db, dispatcher, fan.UserID, feed.FeedID, "fire"); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate reaction: expected ErrConflict, got %v", err)
	}
	// Same user, different emoji is a new vote.
	if _, err := AddReaction(db, dispatcher, fan.UserID, feed.FeedID, "clap"); err != nil {
		t.Fatalf("second emoji: %v", err)
	}

	var got models.Feed
	if err := db.First(&got, "feed_id = ?", feed.FeedID).Error; err != nil {
		t.Fatalf("reload feed: %v", err)
	}
	tally := map[string]int{}
	if err := json.Unmarshal(got.EmojiCount, &tally); err != nil {
		t.Fatalf("decode emoji_count: %v", err)
	}
	if tally["fire"] != 1 || tally["clap"] != 1 {
		t.Errorf("emoji tally = %v, want fire:1 clap:1", tally)
	}

	if err := RemoveReaction(db, fan.UserID, feed.FeedID, "fire"); err != nil {
		t.Fatalf("RemoveReaction: %v", err)
	}
	if err := RemoveReaction(db, fan.UserID, feed.FeedID, "fire"); !errors.Is(err, ErrNotFound) {
		t.Errorf("removing a missing reaction: expected ErrNotFound, got %v", err)
	}
	if err := db.First(&got, "feed_id = ?", feed.FeedID).Error; err != nil {
		t.Fatalf("reload feed: %v", err)
	}
	tally = map[string]int{}
	if err := json.Unmarshal(got.EmojiCount, &tally); err != nil {
		t.Fatalf("decode emoji_count: %v", err)
	}
	if _, ok := tally["fire"]; ok {
		t.Errorf("removed emoji still tallied: %v", tally)
	}
}

func TestReactionMilestoneNotification(t *testing.T) {
	db := setupTestDB(t)
	dispatcher := NewDispatcher(db)

	author := mkUser(t, db, "author")
	main, sub, action := mkGrid(t, db, author.UserID, "learn piano", models.PrivacyPublic)
	feed := mkFeed(t, db, author.UserID, main, sub, action, "post", 0)

	// Reactions 1 through 9 stay quiet; the 10th total is a milestone.
	for i := 0; i < 10; i++ {
		fan := mkUser(t, db, fmt.Sprintf("fan%d", i))
		if _, err := AddReaction(db, dispatcher, fan.UserID, feed.FeedID, "fire"); err != nil {
			t.Fatalf("AddReaction %d: %v", i, err)
		}
	}

	var notes []models.Notification
	if err := db.Where("recipient_id = ? AND type = ?", author.UserID, models.NotificationReaction).
		Find(&notes).Error; err != nil {
		t.Fatalf("load notifications: %v", err)
	}
	if len(notes) != 1 {
		t.Fatalf("expected exactly one milestone notification, got %d", len(notes))
	}
	if notes[0].TotalCount == nil || *notes[0].TotalCount != 10 {
		t.Errorf("milestone notification should carry the total of 10, got %v", notes[0].TotalCount)
	}
}

func TestReportFeedAndComment(t *testing.T) {
	db := setupTestDB(t)
	dispatcher := NewDispatcher(db)

	author := mkUser(t, db, "author")
	reporter := mkUser(t, db, "reporter")
	main, sub, action := mkGrid(t, db, author.UserID, "learn piano", models.PrivacyPublic)
	feed := mkFeed(t, db, author.UserID, main, sub, action, "post", 0)

	if err := ReportFeed(db, reporter.UserID, feed.FeedID, "spam"); err != nil {
		t.Fatalf("ReportFeed: %v", err)
	}
	if err := ReportFeed(db, reporter.UserID, feed.FeedID, "spam again"); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate feed report: expected ErrConflict, got %v", err)
	}
	if err := ReportFeed(db, reporter.UserID, 9999, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("report of unknown feed: expected ErrNotFound, got %v", err)
	}

	comment, err := AddComment(db, dispatcher, author.UserID, feed.FeedID, "self reply")
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	if err := ReportComment(db, reporter.UserID, comment.CommentID, "rude"); err != nil {
		t.Fatalf("ReportComment: %v", err)
	}
	if err := ReportComment(db, reporter.UserID, comment.CommentID, "rude again"); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate comment report: expected ErrConflict, got %v", err)
	}
}

func TestFeedLog(t *testing.T) {
	db := setupTestDB(t)
	author := mkUser(t, db, "author")
	main, sub, action := mkGrid(t, db, author.UserID, "learn piano", models.PrivacyPublic)

	mkFeed(t, db, author.UserID, main, sub, action, "yesterday one", 24*time.Hour)
	mkFeed(t, db, author.UserID, main, sub, action, "yesterday two", 24*time.Hour)
	mkFeed(t, db, author.UserID, main, sub, action, "today", 0)

	log, err := FeedLog(db, author.UserID)
	if err != nil {
		t.Fatalf("FeedLog: %v", err)
	}
	if len(log) != 2 {
		t.Fatalf("expected 2 days of activity, got %d", len(log))
	}
	if log[0].FeedCount != 2 || log[1].FeedCount != 1 {
		t.Errorf("per-day counts = [%d %d], want [2 1]", log[0].FeedCount, log[1].FeedCount)
	}
}
