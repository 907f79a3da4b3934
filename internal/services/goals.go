package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/teammanda/manda-api/internal/config"
	"github.com/teammanda/manda-api/internal/models"
	"gorm.io/gorm"
)

// SuccessStage buckets a raw success counter into a presentation stage
// 0..4 relative to a reference maximum. Stage 0 means untouched; the
// boundaries are inclusive (ratio exactly 0.2 is stage 1).
func SuccessStage(successCount, referenceMax int) int {
	if referenceMax <= 0 || successCount <= 0 {
		return 0
	}
	ratio := float64(successCount) / float64(referenceMax)
	switch {
	case ratio <= 0.2:
		return 1
	case ratio <= 0.5:
		return 2
	case ratio <= 0.8:
		return 3
	default:
		return 4
	}
}

// GoalTree is a full Mandalart grid prepared for display.
type GoalTree struct {
	Main GoalTreeMain  `json:"main"`
	Subs []GoalTreeSub `json:"subs"`
}

// GoalTreeMain is the root cell of a goal tree.
type GoalTreeMain struct {
	MainID    uint64         `json:"id"`
	UserID    uint64         `json:"user_id"`
	MainTitle string         `json:"main_title"`
	Success   bool           `json:"success"`
	Privacy   models.Privacy `json:"privacy"`
}

// GoalTreeSub is one sub goal with its stage and action items.
type GoalTreeSub struct {
	SubID        uint64           `json:"id"`
	Position     int              `json:"position"`
	SubTitle     *string          `json:"sub_title"`
	SuccessCount int              `json:"success_count"`
	Stage        int              `json:"stage"`
	ActionItems  []GoalTreeAction `json:"contents"`
}

// GoalTreeAction is one action item cell with its stage.
type GoalTreeAction struct {
	ActionID     uint64  `json:"id"`
	Position     int     `json:"position"`
	Content      *string `json:"content"`
	SuccessCount int     `json:"success_count"`
	Stage        int     `json:"stage"`
}

// CreateMainGoal creates a main goal with its fixed 8 sub goals and 8
// action items per sub goal, all in one transaction. The grid shape is
// structural and never changes after creation.
func CreateMainGoal(db *gorm.DB, userID uint64, title string, privacy models.Privacy) (*GoalTree, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title must not be empty", ErrValidation)
	}
	if len([]rune(title)) > models.MaxTitleLength {
		return nil, fmt.Errorf("%w: title longer than %d characters", ErrValidation, models.MaxTitleLength)
	}
	switch privacy {
	case models.PrivacyPublic, models.PrivacyFollowers, models.PrivacyPrivate:
	case "":
		privacy = models.PrivacyPublic
	default:
		return nil, fmt.Errorf("%w: unknown privacy %q", ErrValidation, privacy)
	}

	main := &models.MainGoal{UserID: userID, MainTitle: title, Privacy: privacy}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(main).Error; err != nil {
			return err
		}
		for s := 0; s < models.GridSize; s++ {
			sub := models.SubGoal{MainID: main.MainID, Position: s}
			if err := tx.Create(&sub).Error; err != nil {
				return err
			}
			items := make([]models.ActionItem, models.GridSize)
			for a := 0; a < models.GridSize; a++ {
				items[a] = models.ActionItem{SubID: sub.SubID, Position: a}
			}
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return SelectGoalTree(db, main.MainID)
}

// SelectGoalTree loads a full grid and computes the display stage of every
// cell. Sub goal stages are scoped to the grid (reference = the largest
// sibling counter); action item stages are scoped to their owning sub goal.
func SelectGoalTree(db *gorm.DB, mainID uint64) (*GoalTree, error) {
	var main models.MainGoal
	if err := db.Preload("SubGoals", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Preload("SubGoals.ActionItems", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(&main, "main_id = ?", mainID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("main goal %d: %w", mainID, ErrNotFound)
		}
		return nil, err
	}

	maxSubCount := 0
	for _, sub := range main.SubGoals {
		if sub.SuccessCount > maxSubCount {
			maxSubCount = sub.SuccessCount
		}
	}

	tree := &GoalTree{
		Main: GoalTreeMain{
			MainID:    main.MainID,
			UserID:    main.UserID,
			MainTitle: main.MainTitle,
			Success:   main.Success,
			Privacy:   main.Privacy,
		},
	}
	for _, sub := range main.SubGoals {
		treeSub := GoalTreeSub{
			SubID:        sub.SubID,
			Position:     sub.Position,
			SubTitle:     sub.SubTitle,
			SuccessCount: sub.SuccessCount,
			Stage:        SuccessStage(sub.SuccessCount, maxSubCount),
		}
		for _, item := range sub.ActionItems {
			treeSub.ActionItems = append(treeSub.ActionItems, GoalTreeAction{
				ActionID:     item.ActionID,
				Position:     item.Position,
				Content:      item.Content,
				SuccessCount: item.SuccessCount,
				Stage:        SuccessStage(item.SuccessCount, sub.SuccessCount),
			})
		}
		tree.Subs = append(tree.Subs, treeSub)
	}
	return tree, nil
}

// UpdateMainGoal edits the title, success flag or privacy of a main goal
// owned by the user.
func UpdateMainGoal(db *gorm.DB, userID, mainID uint64, title *string, success *bool, privacy *models.Privacy) (*models.MainGoal, error) {
	var main models.MainGoal
	if err := db.First(&main, "main_id = ? AND user_id = ?", mainID, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("main goal %d: %w", mainID, ErrNotFound)
		}
		return nil, err
	}

	updates := map[string]interface{}{}
	if title != nil {
		trimmed := strings.TrimSpace(*title)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: title must not be empty", ErrValidation)
		}
		if len([]rune(trimmed)) > models.MaxTitleLength {
			return nil, fmt.Errorf("%w: title longer than %d characters", ErrValidation, models.MaxTitleLength)
		}
		updates["main_title"] = trimmed
	}
	if success != nil {
		updates["success"] = *success
	}
	if privacy != nil {
		switch *privacy {
		case models.PrivacyPublic, models.PrivacyFollowers, models.PrivacyPrivate:
			updates["privacy"] = *privacy
		default:
			return nil, fmt.Errorf("%w: unknown privacy %q", ErrValidation, *privacy)
		}
	}
	if len(updates) == 0 {
		return &main, nil
	}
	if err := db.Model(&main).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &main, nil
}

// SubGoalUpdate is one batch edit of a sub goal title.
type SubGoalUpdate struct {
	SubID    uint64  `json:"id"`
	SubTitle *string `json:"sub_title"`
}

// UpdateSubGoals applies a batch of sub goal title edits. Every referenced
// sub goal must belong to a grid owned by the user, or the whole batch is
// rejected.
func UpdateSubGoals(db *gorm.DB, userID uint64, updates []SubGoalUpdate) error {
	if len(updates) == 0 {
		return fmt.Errorf("%w: no sub goals given", ErrValidation)
	}
	for _, u := range updates {
		if u.SubTitle != nil && len([]rune(*u.SubTitle)) > models.MaxTitleLength {
			return fmt.Errorf("%w: sub goal title longer than %d characters", ErrValidation, models.MaxTitleLength)
		}
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for _, u := range updates {
			var sub models.SubGoal
			err := tx.Joins("JOIN main_goals ON main_goals.main_id = sub_goals.main_id").
				Where("sub_goals.sub_id = ? AND main_goals.user_id = ?", u.SubID, userID).
				First(&sub).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("sub goal %d: %w", u.SubID, ErrNotFound)
				}
				return err
			}
			if err := tx.Model(&models.SubGoal{}).
				Where("sub_id = ?", u.SubID).
				Update("sub_title", u.SubTitle).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ActionItemUpdate is one batch edit of an action item.
type ActionItemUpdate struct {
	ActionID uint64  `json:"id"`
	Content  *string `json:"content"`
}

// UpdateActionItems applies a batch of action item edits, with the same
// ownership rule as UpdateSubGoals.
func UpdateActionItems(db *gorm.DB, userID uint64, updates []ActionItemUpdate) error {
	if len(updates) == 0 {
		return fmt.Errorf("%w: no action items given", ErrValidation)
	}
	for _, u := range updates {
		if u.Content != nil && len([]rune(*u.Content)) > models.MaxTitleLength {
			return fmt.Errorf("%w: action item content longer than %d characters", ErrValidation, models.MaxTitleLength)
		}
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for _, u := range updates {
			var item models.ActionItem
			err := tx.Joins("JOIN sub_goals ON sub_goals.sub_id = action_items.sub_id").
				Joins("JOIN main_goals ON main_goals.main_id = sub_goals.main_id").
				Where("action_items.action_id = ? AND main_goals.user_id = ?", u.ActionID, userID).
				First(&item).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("action item %d: %w", u.ActionID, ErrNotFound)
				}
				return err
			}
			if err := tx.Model(&models.ActionItem{}).
				Where("action_id = ?", u.ActionID).
				Update("content", u.Content).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteMainGoal soft-deletes a grid owned by the user. Sub goals and
// action items stay in place; they are unreachable through scoped queries
// once the root is gone.
func DeleteMainGoal(db *gorm.DB, userID, mainID uint64) error {
	result := db.Where("main_id = ? AND user_id = ?", mainID, userID).Delete(&models.MainGoal{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("main goal %d: %w", mainID, ErrNotFound)
	}
	return nil
}

// MainGoalSummary is one row of a user's goal list.
type MainGoalSummary struct {
	MainID    uint64         `json:"id"`
	MainTitle string         `json:"main_title"`
	Success   bool           `json:"success"`
	Privacy   models.Privacy `json:"privacy"`
}

// ListMainGoals returns the active grids of a user, oldest first.
func ListMainGoals(db *gorm.DB, userID uint64) ([]MainGoalSummary, error) {
	var exists int64
	if err := db.Model(&models.User{}).Where("user_id = ?", userID).Count(&exists).Error; err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}

	var mains []models.MainGoal
	if err := db.Where("user_id = ?", userID).Order("main_id ASC").Find(&mains).Error; err != nil {
		return nil, err
	}

	summaries := make([]MainGoalSummary, 0, len(mains))
	for _, m := range mains {
		summaries = append(summaries, MainGoalSummary{
			MainID:    m.MainID,
			MainTitle: m.MainTitle,
			Success:   m.Success,
			Privacy:   m.Privacy,
		})
	}
	return summaries, nil
}

// SubGoalSearchResult is one hit of the grid keyword search.
type SubGoalSearchResult struct {
	MainID       uint64             `json:"id"`
	UserID       uint64             `json:"user_id"`
	Username     string             `json:"username"`
	UserPosition *string            `json:"user_position"`
	IsFollowing  bool               `json:"is_following"`
	MainTitle    string             `json:"main_title"`
	Subs         []SubGoalSearchSub `json:"subs"`
}

// SubGoalSearchSub is one sub cell of a search hit.
type SubGoalSearchSub struct {
	SubID        uint64  `json:"id"`
	SubTitle     *string `json:"sub_title"`
	SuccessCount int     `json:"success_count"`
}

// SearchSubGoals finds other users' grids whose main title contains the
// keyword, excluding the requester's own grids and grids of blocked or
// inactive users, paginated with the no-more-pages sentinel.
func SearchSubGoals(db *gorm.DB, cfg *config.Config, userID uint64, keyword string, page int) ([]SubGoalSearchResult, bool, error) {
	if page < 1 {
		return nil, false, fmt.Errorf("%w: page must be >= 1", ErrValidation)
	}

	vc, err := newViewerContext(db, userID)
	if err != nil {
		return nil, false, err
	}

	q := db.Model(&models.MainGoal{}).
		Preload("User").
		Preload("SubGoals", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("user_id <> ?", userID).
		Where("privacy = ?", models.PrivacyPublic).
		Where("main_title LIKE ?", "%"+keyword+"%")
	if len(vc.excludedAuthorIDs) > 0 {
		q = q.Where("user_id NOT IN ?", vc.excludedAuthorIDs)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, false, err
	}

	start := (page - 1) * cfg.PageSize
	if int64(start) >= total {
		if page > 1 {
			return nil, false, ErrNoMorePages
		}
		return []SubGoalSearchResult{}, false, nil
	}

	var mains []models.MainGoal
	if err := q.Order("main_id DESC").Offset(start).Limit(cfg.PageSize).Find(&mains).Error; err != nil {
		return nil, false, err
	}

	results := make([]SubGoalSearchResult, 0, len(mains))
	for _, m := range mains {
		r := SubGoalSearchResult{
			MainID:       m.MainID,
			UserID:       m.UserID,
			Username:     m.User.Username,
			UserPosition: m.User.UserPosition,
			IsFollowing:  vc.isFollowing(m.UserID),
			MainTitle:    m.MainTitle,
		}
		for _, sub := range m.SubGoals {
			r.Subs = append(r.Subs, SubGoalSearchSub{
				SubID:        sub.SubID,
				SubTitle:     sub.SubTitle,
				SuccessCount: sub.SuccessCount,
			})
		}
		results = append(results, r)
	}
	return results, int64(start+len(mains)) < total, nil
}
