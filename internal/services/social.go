package services

import (
	"errors"
	"fmt"

	"github.com/teammanda/manda-api/internal/models"
	"gorm.io/gorm"
)

// FollowUser records that follower follows followed and notifies the
// followed user. Following yourself is a validation error; following
// someone twice is a conflict.
func FollowUser(db *gorm.DB, dispatcher *Dispatcher, followerID, followedID uint64) error {
	if followerID == followedID {
		return fmt.Errorf("%w: cannot follow yourself", ErrValidation)
	}

	var target models.User
	if err := db.First(&target, "user_id = ?", followedID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("user %d: %w", followedID, ErrNotFound)
		}
		return err
	}

	var existing int64
	err := db.Model(&models.Follow{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Count(&existing).Error
	if err != nil {
		return err
	}
	if existing > 0 {
		return fmt.Errorf("already following user %d: %w", followedID, ErrConflict)
	}

	follow := &models.Follow{FollowerID: followerID, FollowedID: followedID}
	if err := db.Create(follow).Error; err != nil {
		return err
	}

	dispatcher.Dispatch(FollowEvent{SenderID: followerID, RecipientID: followedID})
	return nil
}

// UnfollowUser removes a follow edge.
func UnfollowUser(db *gorm.DB, followerID, followedID uint64) error {
	result := db.Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Delete(&models.Follow{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("not following user %d: %w", followedID, ErrNotFound)
	}
	return nil
}

// IsFollowing reports whether follower follows followed.
func IsFollowing(db *gorm.DB, followerID, followedID uint64) (bool, error) {
	var count int64
	err := db.Model(&models.Follow{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// BlockUser hides all content of the blocked user from the blocker and
// severs the follow edges in both directions. Blocking the same user again
// is a conflict.
func BlockUser(db *gorm.DB, blockerID, blockedID uint64) error {
	if blockerID == blockedID {
		return fmt.Errorf("%w: cannot block yourself", ErrValidation)
	}

	var target models.User
	if err := db.First(&target, "user_id = ?", blockedID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("user %d: %w", blockedID, ErrNotFound)
		}
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var existing int64
		err := tx.Model(&models.BlockedUser{}).
			Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
			Count(&existing).Error
		if err != nil {
			return err
		}
		if existing > 0 {
			return fmt.Errorf("already blocking user %d: %w", blockedID, ErrConflict)
		}
		if err := tx.Create(&models.BlockedUser{BlockerID: blockerID, BlockedID: blockedID}).Error; err != nil {
			return err
		}
		return tx.Where(
			"(follower_id = ? AND followed_id = ?) OR (follower_id = ? AND followed_id = ?)",
			blockerID, blockedID, blockedID, blockerID,
		).Delete(&models.Follow{}).Error
	})
}

// UnblockUser removes a block edge. Severed follows are not restored.
func UnblockUser(db *gorm.DB, blockerID, blockedID uint64) error {
	result := db.Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&models.BlockedUser{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("not blocking user %d: %w", blockedID, ErrNotFound)
	}
	return nil
}

// FollowListEntry is one row of a follower or following list.
type FollowListEntry struct {
	UserID      uint64 `json:"user_id"`
	Username    string `json:"username"`
	UserImage   string `json:"profile_img"`
	IsFollowing bool   `json:"is_following"`
}

// ListFollowers returns the users following the given user, with the
// viewer's own follow state on each row.
func ListFollowers(db *gorm.DB, viewerID, userID uint64) ([]FollowListEntry, error) {
	var follows []models.Follow
	err := db.Preload("Follower").
		Where("followed_id = ?", userID).
		Order("follow_id DESC").
		Find(&follows).Error
	if err != nil {
		return nil, err
	}

	vc, err := newViewerContext(db, viewerID)
	if err != nil {
		return nil, err
	}

	entries := make([]FollowListEntry, 0, len(follows))
	for _, f := range follows {
		if _, excluded := vc.excludedAuthors[f.FollowerID]; excluded {
			continue
		}
		entries = append(entries, FollowListEntry{
			UserID:      f.FollowerID,
			Username:    f.Follower.Username,
			UserImage:   f.Follower.UserImage,
			IsFollowing: vc.isFollowing(f.FollowerID),
		})
	}
	return entries, nil
}

// ListFollowing returns the users the given user follows.
func ListFollowing(db *gorm.DB, viewerID, userID uint64) ([]FollowListEntry, error) {
	var follows []models.Follow
	err := db.Preload("Followed").
		Where("follower_id = ?", userID).
		Order("follow_id DESC").
		Find(&follows).Error
	if err != nil {
		return nil, err
	}

	vc, err := newViewerContext(db, viewerID)
	if err != nil {
		return nil, err
	}

	entries := make([]FollowListEntry, 0, len(follows))
	for _, f := range follows {
		if _, excluded := vc.excludedAuthors[f.FollowedID]; excluded {
			continue
		}
		entries = append(entries, FollowListEntry{
			UserID:      f.FollowedID,
			Username:    f.Followed.Username,
			UserImage:   f.Followed.UserImage,
			IsFollowing: vc.isFollowing(f.FollowedID),
		})
	}
	return entries, nil
}
