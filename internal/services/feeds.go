package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/teammanda/manda-api/internal/config"
	"github.com/teammanda/manda-api/internal/models"
	"gorm.io/gorm"
)

// CreateFeedInput carries a new progress post. The action item names the
// grid cell the post reports progress on.
type CreateFeedInput struct {
	ActionID uint64 `json:"action_id"`
	Contents string `json:"contents"`
	Image    string `json:"image"`
	Tags     string `json:"tags"`
}

// CreateFeed inserts a feed and bumps the success counters of the
// referenced action item, its sub goal and the author, all in one
// transaction. The counters use a relative UPDATE so concurrent posts
// against the same cell cannot lose increments.
func CreateFeed(db *gorm.DB, userID uint64, input CreateFeedInput) (*models.Feed, error) {
	if strings.TrimSpace(input.Contents) == "" {
		return nil, fmt.Errorf("%w: contents must not be empty", ErrValidation)
	}

	var feed *models.Feed
	err := db.Transaction(func(tx *gorm.DB) error {
		var action models.ActionItem
		if err := tx.First(&action, "action_id = ?", input.ActionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("action item %d: %w", input.ActionID, ErrNotFound)
			}
			return err
		}

		var sub models.SubGoal
		if err := tx.First(&sub, "sub_id = ?", action.SubID).Error; err != nil {
			return err
		}
		var main models.MainGoal
		if err := tx.First(&main, "main_id = ?", sub.MainID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("main goal %d: %w", sub.MainID, ErrNotFound)
			}
			return err
		}
		if main.UserID != userID {
			return fmt.Errorf("%w: action item %d does not belong to user %d", ErrValidation, input.ActionID, userID)
		}

		feed = &models.Feed{
			UserID:     userID,
			MainID:     main.MainID,
			SubID:      sub.SubID,
			ActionID:   action.ActionID,
			Contents:   input.Contents,
			FeedImage:  input.Image,
			FeedHash:   input.Tags,
			EmojiCount: []byte("{}"),
		}
		if err := tx.Create(feed).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.ActionItem{}).
			Where("action_id = ?", action.ActionID).
			UpdateColumn("success_count", gorm.Expr("success_count + ?", 1)).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.SubGoal{}).
			Where("sub_id = ?", sub.SubID).
			UpdateColumn("success_count", gorm.Expr("success_count + ?", 1)).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("user_id = ?", userID).
			UpdateColumn("success_count", gorm.Expr("success_count + ?", 1)).Error
	})
	if err != nil {
		return nil, err
	}
	return feed, nil
}

// UserFeeds returns one page of a single user's feeds, newest first, with
// the same enrichment and pagination sentinel as the recommendation feed.
func UserFeeds(db *gorm.DB, cfg *config.Config, viewerID, targetID uint64, page int) ([]FeedEntry, bool, error) {
	if page < 1 {
		return nil, false, fmt.Errorf("%w: page must be >= 1", ErrValidation)
	}

	vc, err := newViewerContext(db, viewerID)
	if err != nil {
		return nil, false, err
	}

	q := vc.visible(db.Model(&models.Feed{}).Preload("User").Where("user_id = ?", targetID))

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, false, err
	}

	start := (page - 1) * cfg.PageSize
	if int64(start) >= total {
		if page > 1 {
			return nil, false, ErrNoMorePages
		}
		return []FeedEntry{}, false, nil
	}

	var feeds []*models.Feed
	if err := q.Order("feed_id DESC").
		Offset(start).
		Limit(cfg.PageSize).
		Find(&feeds).Error; err != nil {
		return nil, false, err
	}

	entries, err := buildFeedEntries(db, vc, feeds)
	if err != nil {
		return nil, false, err
	}
	return entries, int64(start+len(feeds)) < total, nil
}

// UpdateFeed edits a feed's text fields. Only the author may edit.
func UpdateFeed(db *gorm.DB, userID, feedID uint64, contents, tags *string) (*models.Feed, error) {
	var feed models.Feed
	if err := db.First(&feed, "feed_id = ?", feedID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("feed %d: %w", feedID, ErrNotFound)
		}
		return nil, err
	}
	if feed.UserID != userID {
		return nil, fmt.Errorf("feed %d: %w", feedID, ErrNotFound)
	}

	updates := map[string]interface{}{}
	if contents != nil {
		if strings.TrimSpace(*contents) == "" {
			return nil, fmt.Errorf("%w: contents must not be empty", ErrValidation)
		}
		updates["contents"] = *contents
	}
	if tags != nil {
		updates["feed_hash"] = *tags
	}
	if len(updates) == 0 {
		return &feed, nil
	}
	if err := db.Model(&feed).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &feed, nil
}

// DeleteFeed soft-deletes a feed. Only the author may delete.
func DeleteFeed(db *gorm.DB, userID, feedID uint64) error {
	result := db.Where("feed_id = ? AND user_id = ?", feedID, userID).Delete(&models.Feed{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("feed %d: %w", feedID, ErrNotFound)
	}
	return nil
}

// AddComment attaches a comment to a feed and notifies the feed owner.
func AddComment(db *gorm.DB, dispatcher *Dispatcher, userID, feedID uint64, text string) (*models.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: comment must not be empty", ErrValidation)
	}

	var feed models.Feed
	if err := db.First(&feed, "feed_id = ?", feedID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("feed %d: %w", feedID, ErrNotFound)
		}
		return nil, err
	}

	comment := &models.Comment{FeedID: feedID, UserID: userID, Comment: text}
	if err := db.Create(comment).Error; err != nil {
		return nil, err
	}

	dispatcher.Dispatch(CommentEvent{
		SenderID:    userID,
		RecipientID: feed.UserID,
		FeedID:      feedID,
		Comment:     text,
	})
	return comment, nil
}

// UpdateComment edits a comment. Only the author may edit.
func UpdateComment(db *gorm.DB, userID, feedID, commentID uint64, text string) (*models.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: comment must not be empty", ErrValidation)
	}

	var comment models.Comment
	err := db.First(&comment, "comment_id = ? AND feed_id = ? AND user_id = ?", commentID, feedID, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("comment %d: %w", commentID, ErrNotFound)
		}
		return nil, err
	}
	if err := db.Model(&comment).Update("comment", text).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// DeleteComment soft-deletes a comment. Only the author may delete.
func DeleteComment(db *gorm.DB, userID, feedID, commentID uint64) error {
	result := db.Where("comment_id = ? AND feed_id = ? AND user_id = ?", commentID, feedID, userID).
		Delete(&models.Comment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("comment %d: %w", commentID, ErrNotFound)
	}
	return nil
}

// AddReaction records one emoji by one user on one feed. The (user, feed,
// emoji) triple is unique; a repeat is a conflict, not a second vote. The
// EmojiCount aggregate on the feed is kept in step inside the transaction,
// and the feed owner is notified at milestone totals.
func AddReaction(db *gorm.DB, dispatcher *Dispatcher, userID, feedID uint64, emoji string) (*models.Reaction, error) {
	if strings.TrimSpace(emoji) == "" {
		return nil, fmt.Errorf("%w: emoji name must not be empty", ErrValidation)
	}

	var feed models.Feed
	if err := db.First(&feed, "feed_id = ?", feedID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("feed %d: %w", feedID, ErrNotFound)
		}
		return nil, err
	}

	reaction := &models.Reaction{FeedID: feedID, UserID: userID, EmojiName: emoji}
	var total int64
	err := db.Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.Reaction{}).
			Where("feed_id = ? AND user_id = ? AND emoji_name = ?", feedID, userID, emoji).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return fmt.Errorf("reaction %q on feed %d: %w", emoji, feedID, ErrConflict)
		}
		if err := tx.Create(reaction).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Reaction{}).
			Where("feed_id = ?", feedID).
			Count(&total).Error; err != nil {
			return err
		}
		return refreshEmojiCount(tx, feedID)
	})
	if err != nil {
		return nil, err
	}

	dispatcher.Dispatch(ReactionEvent{
		SenderID:    userID,
		RecipientID: feed.UserID,
		FeedID:      feedID,
		TotalCount:  int(total),
	})
	return reaction, nil
}

// RemoveReaction removes one emoji by one user from one feed.
func RemoveReaction(db *gorm.DB, userID, feedID uint64, emoji string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("feed_id = ? AND user_id = ? AND emoji_name = ?", feedID, userID, emoji).
			Delete(&models.Reaction{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("reaction %q on feed %d: %w", emoji, feedID, ErrNotFound)
		}
		return refreshEmojiCount(tx, feedID)
	})
}

// refreshEmojiCount rewrites the denormalized {emoji: count} JSON on the
// feed from the reactions table.
func refreshEmojiCount(tx *gorm.DB, feedID uint64) error {
	var rows []struct {
		EmojiName string
		Total     int
	}
	if err := tx.Model(&models.Reaction{}).
		Select("emoji_name, COUNT(*) AS total").
		Where("feed_id = ?", feedID).
		Group("emoji_name").
		Scan(&rows).Error; err != nil {
		return err
	}

	tally := make(map[string]int, len(rows))
	for _, r := range rows {
		tally[r.EmojiName] = r.Total
	}
	encoded, err := json.Marshal(tally)
	if err != nil {
		return err
	}
	return tx.Model(&models.Feed{}).
		Where("feed_id = ?", feedID).
		UpdateColumn("emoji_count", encoded).Error
}

// ReportFeed hides a feed from the reporter. One report per (reporter, feed).
func ReportFeed(db *gorm.DB, reporterID, feedID uint64, reason string) error {
	var feed models.Feed
	if err := db.First(&feed, "feed_id = ?", feedID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("feed %d: %w", feedID, ErrNotFound)
		}
		return err
	}

	var existing int64
	if err := db.Model(&models.ReportedFeed{}).
		Where("reporter_id = ? AND feed_id = ?", reporterID, feedID).
		Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return fmt.Errorf("report of feed %d: %w", feedID, ErrConflict)
	}
	return db.Create(&models.ReportedFeed{ReporterID: reporterID, FeedID: feedID, Reason: reason}).Error
}

// ReportComment hides a comment from the reporter. One report per
// (reporter, comment).
func ReportComment(db *gorm.DB, reporterID, commentID uint64, reason string) error {
	var comment models.Comment
	if err := db.First(&comment, "comment_id = ?", commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("comment %d: %w", commentID, ErrNotFound)
		}
		return err
	}

	var existing int64
	if err := db.Model(&models.ReportedComment{}).
		Where("reporter_id = ? AND comment_id = ?", reporterID, commentID).
		Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return fmt.Errorf("report of comment %d: %w", commentID, ErrConflict)
	}
	return db.Create(&models.ReportedComment{ReporterID: reporterID, CommentID: commentID, Reason: reason}).Error
}

// FeedLogEntry is one day of posting activity.
type FeedLogEntry struct {
	Date      string `json:"date"`
	FeedCount int    `json:"feed_count"`
}

// FeedLog returns per-day feed counts for a user, oldest first.
func FeedLog(db *gorm.DB, userID uint64) ([]FeedLogEntry, error) {
	var rows []FeedLogEntry
	err := db.Model(&models.Feed{}).
		Select("DATE(created_at) AS date, COUNT(*) AS feed_count").
		Where("user_id = ?", userID).
		Group("DATE(created_at)").
		Order("date ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
