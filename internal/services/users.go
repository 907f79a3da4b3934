package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/teammanda/manda-api/internal/models"
	"gorm.io/gorm"
)

// UserProfile is a user page: account fields plus the social counters.
type UserProfile struct {
	UserID         uint64  `json:"user_id"`
	Username       string  `json:"username"`
	UserImage      string  `json:"profile_img"`
	UserPosition   *string `json:"user_position"`
	UserInfo       *string `json:"user_info"`
	UserHash       *string `json:"user_hash"`
	SuccessCount   int     `json:"success_count"`
	FollowerCount  int64   `json:"follower_count"`
	FollowingCount int64   `json:"following_count"`
	IsFollowing    bool    `json:"is_following"`
}

// GetProfile loads a user page as seen by the viewer.
func GetProfile(db *gorm.DB, viewerID, userID uint64) (*UserProfile, error) {
	var user models.User
	if err := db.First(&user, "user_id = ? AND is_active = ?", userID, true).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
		}
		return nil, err
	}

	var followers, following int64
	if err := db.Model(&models.Follow{}).Where("followed_id = ?", userID).Count(&followers).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Follow{}).Where("follower_id = ?", userID).Count(&following).Error; err != nil {
		return nil, err
	}

	isFollowing := false
	if viewerID != userID {
		var err error
		isFollowing, err = IsFollowing(db, viewerID, userID)
		if err != nil {
			return nil, err
		}
	}

	return &UserProfile{
		UserID:         user.UserID,
		Username:       user.Username,
		UserImage:      user.UserImage,
		UserPosition:   user.UserPosition,
		UserInfo:       user.UserInfo,
		UserHash:       user.UserHash,
		SuccessCount:   user.SuccessCount,
		FollowerCount:  followers,
		FollowingCount: following,
		IsFollowing:    isFollowing,
	}, nil
}

// ProfileUpdate carries the editable profile fields. Nil means unchanged.
type ProfileUpdate struct {
	Username     *string `json:"username"`
	UserImage    *string `json:"profile_img"`
	UserPosition *string `json:"user_position"`
	UserInfo     *string `json:"user_info"`
	UserHash     *string `json:"user_hash"`
}

// UpdateProfile edits the user's own profile. Username changes must stay
// unique; a taken name is a conflict.
func UpdateProfile(db *gorm.DB, userID uint64, update ProfileUpdate) (*UserProfile, error) {
	var user models.User
	if err := db.First(&user, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
		}
		return nil, err
	}

	updates := map[string]interface{}{}
	if update.Username != nil {
		name := strings.TrimSpace(*update.Username)
		if name == "" {
			return nil, fmt.Errorf("%w: username must not be empty", ErrValidation)
		}
		if name != user.Username {
			var taken int64
			err := db.Model(&models.User{}).
				Where("username = ? AND user_id <> ?", name, userID).
				Count(&taken).Error
			if err != nil {
				return nil, err
			}
			if taken > 0 {
				return nil, fmt.Errorf("username %q taken: %w", name, ErrConflict)
			}
			updates["username"] = name
		}
	}
	if update.UserImage != nil {
		updates["user_image"] = *update.UserImage
	}
	if update.UserPosition != nil {
		updates["user_position"] = update.UserPosition
	}
	if update.UserInfo != nil {
		updates["user_info"] = update.UserInfo
	}
	if update.UserHash != nil {
		updates["user_hash"] = update.UserHash
	}
	if len(updates) > 0 {
		if err := db.Model(&user).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	return GetProfile(db, userID, userID)
}

// EnsureUser resolves an Authorizer subject to a local account, creating
// the row on first sight. New accounts get a placeholder username derived
// from the subject until the user picks one.
func EnsureUser(db *gorm.DB, subject string) (*models.User, error) {
	// Unscoped so a deactivated, soft-deleted account resolves to a
	// rejection instead of colliding with the unique subject index.
	var user models.User
	err := db.Unscoped().First(&user, "auth_subject = ?", subject).Error
	if err == nil {
		if !user.IsActive || user.DeletedAt.Valid {
			return nil, fmt.Errorf("user %d is deactivated: %w", user.UserID, ErrValidation)
		}
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	placeholder := subject
	if len(placeholder) > 8 {
		placeholder = placeholder[:8]
	}
	user = models.User{
		AuthSubject: subject,
		Username:    "user-" + placeholder,
		IsActive:    true,
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// DeactivateUser turns an account inactive and soft-deletes it. The
// user's content stays in place but stops appearing in anyone's views.
func DeactivateUser(db *gorm.DB, userID uint64) error {
	return db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.User{}).
			Where("user_id = ?", userID).
			Update("is_active", false)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("user %d: %w", userID, ErrNotFound)
		}
		return tx.Delete(&models.User{}, "user_id = ?", userID).Error
	})
}
