package services

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/teammanda/manda-api/internal/config"
	"github.com/teammanda/manda-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/hints"
)

// FeedEntry is one enriched entry of a ranked or per-user feed page.
type FeedEntry struct {
	UserInfo FeedUserInfo `json:"userInfo"`
	FeedInfo FeedInfo     `json:"feedInfo"`
}

// FeedUserInfo describes the feed author from the viewer's perspective.
type FeedUserInfo struct {
	UserID       uint64  `json:"user_id"`
	Username     string  `json:"username"`
	ProfileImage string  `json:"profile_img"`
	UserPosition *string `json:"user_position"`
	SuccessCount int     `json:"success"`
	IsFollowing  bool    `json:"is_following"`
}

// FeedInfo carries the feed body plus its goal-hierarchy context.
type FeedInfo struct {
	FeedID       uint64         `json:"id"`
	MainTitle    string         `json:"main_title"`
	SubTitle     *string        `json:"sub_title"`
	Content      *string        `json:"content"`
	SuccessCount int            `json:"success_count"`
	Post         string         `json:"post"`
	ContentImage string         `json:"content_img"`
	CreatedAt    time.Time      `json:"created_at"`
	Tags         string         `json:"tags"`
	EmojiCount   map[string]int `json:"emoji_count"`
	MyEmojis     []string       `json:"my_emojis"`
	Comments     []CommentEntry `json:"comment_info"`
}

// CommentEntry is one visible comment on a feed.
type CommentEntry struct {
	CommentID  uint64    `json:"comment_id"`
	UserID     uint64    `json:"user_id"`
	Username   string    `json:"username"`
	Comment    string    `json:"comment"`
	UploadDate time.Time `json:"upload_date"`
}

// viewerContext holds the per-request exclusion sets shared by the pool
// queries and the entry enrichment. Built once per request; never cached
// across requests.
type viewerContext struct {
	viewerID          uint64
	following         map[uint64]struct{}
	excludedAuthors   map[uint64]struct{}
	excludedAuthorIDs []uint64
	reportedFeedIDs   []uint64
	reportedComments  map[uint64]struct{}
}

// newViewerContext loads the viewer's blocked users, the globally hidden
// authors (inactive or soft-deleted accounts), and the viewer's reports.
func newViewerContext(db *gorm.DB, viewerID uint64) (*viewerContext, error) {
	vc := &viewerContext{
		viewerID:         viewerID,
		following:        make(map[uint64]struct{}),
		excludedAuthors:  make(map[uint64]struct{}),
		reportedComments: make(map[uint64]struct{}),
	}

	var followingIDs []uint64
	if err := db.Model(&models.Follow{}).
		Where("follower_id = ?", viewerID).
		Pluck("followed_id", &followingIDs).Error; err != nil {
		return nil, err
	}
	for _, id := range followingIDs {
		vc.following[id] = struct{}{}
	}

	var blockedIDs []uint64
	if err := db.Model(&models.BlockedUser{}).
		Where("blocker_id = ?", viewerID).
		Pluck("blocked_id", &blockedIDs).Error; err != nil {
		return nil, err
	}

	// Inactive and soft-deleted accounts are hidden from everyone.
	var hiddenIDs []uint64
	if err := db.Unscoped().Model(&models.User{}).
		Where("is_active = ? OR deleted_at IS NOT NULL", false).
		Pluck("user_id", &hiddenIDs).Error; err != nil {
		return nil, err
	}

	for _, id := range append(blockedIDs, hiddenIDs...) {
		if _, ok := vc.excludedAuthors[id]; !ok {
			vc.excludedAuthors[id] = struct{}{}
			vc.excludedAuthorIDs = append(vc.excludedAuthorIDs, id)
		}
	}

	if err := db.Model(&models.ReportedFeed{}).
		Where("reporter_id = ?", viewerID).
		Pluck("feed_id", &vc.reportedFeedIDs).Error; err != nil {
		return nil, err
	}

	var reportedCommentIDs []uint64
	if err := db.Model(&models.ReportedComment{}).
		Where("reporter_id = ?", viewerID).
		Pluck("comment_id", &reportedCommentIDs).Error; err != nil {
		return nil, err
	}
	for _, id := range reportedCommentIDs {
		vc.reportedComments[id] = struct{}{}
	}

	return vc, nil
}

// followingIDs returns the users the viewer follows, as a slice.
func (vc *viewerContext) followingIDs() []uint64 {
	ids := make([]uint64, 0, len(vc.following))
	for id := range vc.following {
		ids = append(ids, id)
	}
	return ids
}

// isFollowing reports whether the viewer follows the given user.
func (vc *viewerContext) isFollowing(userID uint64) bool {
	_, ok := vc.following[userID]
	return ok
}

// visible applies the exclusion sets to a feed query.
func (vc *viewerContext) visible(q *gorm.DB) *gorm.DB {
	if len(vc.excludedAuthorIDs) > 0 {
		q = q.Where("user_id NOT IN ?", vc.excludedAuthorIDs)
	}
	if len(vc.reportedFeedIDs) > 0 {
		q = q.Where("feed_id NOT IN ?", vc.reportedFeedIDs)
	}
	return q
}

// scoredFeed pairs a candidate feed with its accumulated weight.
type scoredFeed struct {
	feed   *models.Feed
	weight float64
}

// RecommendFeeds produces the ranked, deduplicated, privacy-filtered feed
// page for a user. Page is 1-indexed; a page past the end of the result
// set returns ErrNoMorePages so the handler can answer with the sentinel.
func RecommendFeeds(db *gorm.DB, cfg *config.Config, userID uint64, page int) ([]FeedEntry, bool, error) {
	if page < 1 {
		return nil, false, fmt.Errorf("%w: page must be >= 1", ErrValidation)
	}

	vc, err := newViewerContext(db, userID)
	if err != nil {
		return nil, false, err
	}

	weights, candidates, err := scoreCandidates(db, cfg, vc)
	if err != nil {
		return nil, false, err
	}

	// Privacy filter after scoring, before pagination.
	filtered, err := filterByPrivacy(db, vc, candidates)
	if err != nil {
		return nil, false, err
	}

	ranked := make([]scoredFeed, 0, len(filtered))
	for _, f := range filtered {
		ranked = append(ranked, scoredFeed{feed: f, weight: weights[f.FeedID]})
	}

	// Weight descending; equal weights break ties on feed id descending so
	// pagination stays reproducible across requests.
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].weight != ranked[j].weight {
			return ranked[i].weight > ranked[j].weight
		}
		return ranked[i].feed.FeedID > ranked[j].feed.FeedID
	})

	start := (page - 1) * cfg.PageSize
	if start >= len(ranked) && page > 1 {
		return nil, false, ErrNoMorePages
	}
	if start >= len(ranked) {
		return []FeedEntry{}, false, nil
	}
	end := start + cfg.PageSize
	if end > len(ranked) {
		end = len(ranked)
	}

	pageFeeds := make([]*models.Feed, 0, end-start)
	for _, sf := range ranked[start:end] {
		pageFeeds = append(pageFeeds, sf.feed)
	}

	entries, err := buildFeedEntries(db, vc, pageFeeds)
	if err != nil {
		return nil, false, err
	}
	return entries, end < len(ranked), nil
}

// scoreCandidates gathers every pool's feeds and sums each candidate's
// weight over the pools it appears in, so a feed surfacing through several
// signals outranks one carried by a single signal.
func scoreCandidates(db *gorm.DB, cfg *config.Config, vc *viewerContext) (map[uint64]float64, map[uint64]*models.Feed, error) {
	weights := make(map[uint64]float64)
	candidates := make(map[uint64]*models.Feed)
	accumulate := func(feeds []*models.Feed, weight float64) {
		for _, f := range feeds {
			weights[f.FeedID] += weight
			if _, ok := candidates[f.FeedID]; !ok {
				candidates[f.FeedID] = f
			}
		}
	}

	// Social-graph pools: who I follow, who follows me.
	following, err := poolByAuthors(db, cfg, vc, vc.followingIDs(), false)
	if err != nil {
		return nil, nil, err
	}
	accumulate(following, cfg.FollowingWeight)

	var followerIDs []uint64
	if err := db.Model(&models.Follow{}).
		Where("followed_id = ?", vc.viewerID).
		Pluck("follower_id", &followerIDs).Error; err != nil {
		return nil, nil, err
	}
	followedBy, err := poolByAuthors(db, cfg, vc, followerIDs, false)
	if err != nil {
		return nil, nil, err
	}
	accumulate(followedBy, cfg.FollowedByWeight)

	// Interaction pools: comment history in both directions.
	commentedAuthors, err := authorsOfFeedsCommentedBy(db, vc.viewerID)
	if err != nil {
		return nil, nil, err
	}
	commented, err := poolByAuthors(db, cfg, vc, commentedAuthors, true)
	if err != nil {
		return nil, nil, err
	}
	accumulate(commented, cfg.CommentedWeight)

	var commenterIDs []uint64
	if err := db.Model(&models.Comment{}).
		Distinct("comments.user_id").
		Joins("JOIN feeds ON feeds.feed_id = comments.feed_id").
		Where("feeds.user_id = ?", vc.viewerID).
		Pluck("comments.user_id", &commenterIDs).Error; err != nil {
		return nil, nil, err
	}
	commenters, err := poolByAuthors(db, cfg, vc, commenterIDs, true)
	if err != nil {
		return nil, nil, err
	}
	accumulate(commenters, cfg.CommenterWeight)

	// Interaction pools: reaction history in both directions.
	reactedAuthors, err := authorsOfFeedsReactedBy(db, vc.viewerID)
	if err != nil {
		return nil, nil, err
	}
	reacted, err := poolByAuthors(db, cfg, vc, reactedAuthors, true)
	if err != nil {
		return nil, nil, err
	}
	accumulate(reacted, cfg.ReactedWeight)

	var reactorIDs []uint64
	if err := db.Model(&models.Reaction{}).
		Distinct("reactions.user_id").
		Joins("JOIN feeds ON feeds.feed_id = reactions.feed_id").
		Where("feeds.user_id = ?", vc.viewerID).
		Pluck("reactions.user_id", &reactorIDs).Error; err != nil {
		return nil, nil, err
	}
	reactors, err := poolByAuthors(db, cfg, vc, reactorIDs, true)
	if err != nil {
		return nil, nil, err
	}
	accumulate(reactors, cfg.ReactorWeight)

	// Recent-popular pool with exponential time decay, normalized to [0,1]
	// within the batch.
	popular, err := popularPool(db, cfg, vc)
	if err != nil {
		return nil, nil, err
	}
	for _, pf := range popular {
		weights[pf.feed.FeedID] += cfg.PopularWeight * pf.weight
		if _, ok := candidates[pf.feed.FeedID]; !ok {
			candidates[pf.feed.FeedID] = pf.feed
		}
	}

	return weights, candidates, nil
}

// poolByAuthors selects the most recent visible feeds by the given authors.
// excludeOwn drops the viewer's own feeds, matching the interaction pools.
func poolByAuthors(db *gorm.DB, cfg *config.Config, vc *viewerContext, authorIDs []uint64, excludeOwn bool) ([]*models.Feed, error) {
	if len(authorIDs) == 0 {
		return nil, nil
	}

	q := db.Model(&models.Feed{}).
		Preload("User").
		Where("user_id IN ?", authorIDs)
	if excludeOwn {
		q = q.Where("user_id <> ?", vc.viewerID)
	}

	var feeds []*models.Feed
	if err := vc.visible(q).
		Order("created_at DESC").
		Limit(cfg.PoolLimit).
		Find(&feeds).Error; err != nil {
		return nil, err
	}
	return feeds, nil
}

// authorsOfFeedsCommentedBy returns the distinct authors of feeds the user
// has commented on.
func authorsOfFeedsCommentedBy(db *gorm.DB, userID uint64) ([]uint64, error) {
	var feedIDs []uint64
	if err := db.Model(&models.Comment{}).
		Where("user_id = ?", userID).
		Distinct().
		Pluck("feed_id", &feedIDs).Error; err != nil {
		return nil, err
	}
	if len(feedIDs) == 0 {
		return nil, nil
	}

	var authorIDs []uint64
	if err := db.Model(&models.Feed{}).
		Where("feed_id IN ?", feedIDs).
		Distinct().
		Pluck("user_id", &authorIDs).Error; err != nil {
		return nil, err
	}
	return authorIDs, nil
}

// authorsOfFeedsReactedBy returns the distinct authors of feeds the user
// has reacted to.
func authorsOfFeedsReactedBy(db *gorm.DB, userID uint64) ([]uint64, error) {
	var feedIDs []uint64
	if err := db.Model(&models.Reaction{}).
		Where("user_id = ?", userID).
		Distinct().
		Pluck("feed_id", &feedIDs).Error; err != nil {
		return nil, err
	}
	if len(feedIDs) == 0 {
		return nil, nil
	}

	var authorIDs []uint64
	if err := db.Model(&models.Feed{}).
		Where("feed_id IN ?", feedIDs).
		Distinct().
		Pluck("user_id", &authorIDs).Error; err != nil {
		return nil, err
	}
	return authorIDs, nil
}

// popularPool returns the most recent feeds of the popularity window, each
// weighted by exp(-decay * ageMinutes) and min-max normalized over the
// batch. A single-feed (or uniform-age) batch normalizes to 0.
func popularPool(db *gorm.DB, cfg *config.Config, vc *viewerContext) ([]scoredFeed, error) {
	now := time.Now()
	since := now.AddDate(0, 0, -cfg.PopularWindowDays)

	q := db.Model(&models.Feed{}).
		Preload("User").
		Where("created_at >= ?", since)
	// The window scan is the widest query in the engine; steer MySQL onto
	// the created_at index.
	if db.Dialector.Name() == "mysql" {
		q = q.Clauses(hints.UseIndex("idx_feeds_created_at"))
	}

	var feeds []*models.Feed
	if err := vc.visible(q).
		Order("created_at DESC").
		Limit(cfg.PoolLimit).
		Find(&feeds).Error; err != nil {
		return nil, err
	}
	if len(feeds) == 0 {
		return nil, nil
	}

	raw := make([]float64, len(feeds))
	minW, maxW := math.Inf(1), math.Inf(-1)
	for i, f := range feeds {
		minutes := now.Sub(f.CreatedAt).Minutes()
		raw[i] = math.Exp(-cfg.TimeDecay * minutes)
		if raw[i] < minW {
			minW = raw[i]
		}
		if raw[i] > maxW {
			maxW = raw[i]
		}
	}

	scored := make([]scoredFeed, len(feeds))
	for i, f := range feeds {
		normalized := 0.0
		if maxW > minW {
			normalized = (raw[i] - minW) / (maxW - minW)
		}
		scored[i] = scoredFeed{feed: f, weight: normalized}
	}
	return scored, nil
}

// filterByPrivacy drops candidates the viewer may not see. A feed's privacy
// is the privacy of its referenced main goal; the viewer's own feeds always
// pass. A candidate whose main goal row is missing entirely is a referential
// integrity violation and surfaces as an error rather than being dropped.
func filterByPrivacy(db *gorm.DB, vc *viewerContext, candidates map[uint64]*models.Feed) ([]*models.Feed, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	mainIDs := make([]uint64, 0, len(candidates))
	seen := make(map[uint64]struct{})
	for _, f := range candidates {
		if _, ok := seen[f.MainID]; !ok {
			seen[f.MainID] = struct{}{}
			mainIDs = append(mainIDs, f.MainID)
		}
	}

	// Unscoped: a soft-deleted grid still governs the privacy of feeds
	// that were posted against it.
	var mains []models.MainGoal
	if err := db.Unscoped().Where("main_id IN ?", mainIDs).Find(&mains).Error; err != nil {
		return nil, err
	}
	privacyByMain := make(map[uint64]models.Privacy, len(mains))
	for _, m := range mains {
		privacyByMain[m.MainID] = m.Privacy
	}

	var visible []*models.Feed
	for _, f := range candidates {
		if f.UserID == vc.viewerID {
			visible = append(visible, f)
			continue
		}
		privacy, ok := privacyByMain[f.MainID]
		if !ok {
			return nil, fmt.Errorf("feed %d references missing main goal %d", f.FeedID, f.MainID)
		}
		switch privacy {
		case models.PrivacyPrivate:
			// author only
		case models.PrivacyFollowers:
			if vc.isFollowing(f.UserID) {
				visible = append(visible, f)
			}
		default:
			visible = append(visible, f)
		}
	}
	return visible, nil
}

// buildFeedEntries enriches one page of feeds with author info, goal
// hierarchy titles, emoji tallies and the visible comment list.
func buildFeedEntries(db *gorm.DB, vc *viewerContext, feeds []*models.Feed) ([]FeedEntry, error) {
	if len(feeds) == 0 {
		return []FeedEntry{}, nil
	}

	feedIDs := make([]uint64, 0, len(feeds))
	mainIDs := make([]uint64, 0, len(feeds))
	subIDs := make([]uint64, 0, len(feeds))
	actionIDs := make([]uint64, 0, len(feeds))
	for _, f := range feeds {
		feedIDs = append(feedIDs, f.FeedID)
		mainIDs = append(mainIDs, f.MainID)
		subIDs = append(subIDs, f.SubID)
		actionIDs = append(actionIDs, f.ActionID)
	}

	var mains []models.MainGoal
	if err := db.Unscoped().Where("main_id IN ?", mainIDs).Find(&mains).Error; err != nil {
		return nil, err
	}
	mainByID := make(map[uint64]models.MainGoal, len(mains))
	for _, m := range mains {
		mainByID[m.MainID] = m
	}

	var subs []models.SubGoal
	if err := db.Where("sub_id IN ?", subIDs).Find(&subs).Error; err != nil {
		return nil, err
	}
	subByID := make(map[uint64]models.SubGoal, len(subs))
	for _, s := range subs {
		subByID[s.SubID] = s
	}

	var actions []models.ActionItem
	if err := db.Where("action_id IN ?", actionIDs).Find(&actions).Error; err != nil {
		return nil, err
	}
	actionByID := make(map[uint64]models.ActionItem, len(actions))
	for _, a := range actions {
		actionByID[a.ActionID] = a
	}

	var reactions []models.Reaction
	if err := db.Where("feed_id IN ?", feedIDs).Find(&reactions).Error; err != nil {
		return nil, err
	}
	emojiByFeed := make(map[uint64]map[string]int)
	myEmojisByFeed := make(map[uint64][]string)
	for _, r := range reactions {
		if emojiByFeed[r.FeedID] == nil {
			emojiByFeed[r.FeedID] = make(map[string]int)
		}
		emojiByFeed[r.FeedID][r.EmojiName]++
		if r.UserID == vc.viewerID {
			myEmojisByFeed[r.FeedID] = append(myEmojisByFeed[r.FeedID], r.EmojiName)
		}
	}

	commentQ := db.Model(&models.Comment{}).
		Preload("User").
		Where("feed_id IN ?", feedIDs)
	if len(vc.excludedAuthorIDs) > 0 {
		commentQ = commentQ.Where("user_id NOT IN ?", vc.excludedAuthorIDs)
	}
	var comments []models.Comment
	if err := commentQ.Order("created_at ASC").Find(&comments).Error; err != nil {
		return nil, err
	}
	commentsByFeed := make(map[uint64][]CommentEntry)
	for _, cm := range comments {
		if _, reported := vc.reportedComments[cm.CommentID]; reported {
			continue
		}
		commentsByFeed[cm.FeedID] = append(commentsByFeed[cm.FeedID], CommentEntry{
			CommentID:  cm.CommentID,
			UserID:     cm.UserID,
			Username:   cm.User.Username,
			Comment:    cm.Comment,
			UploadDate: cm.CreatedAt,
		})
	}

	entries := make([]FeedEntry, 0, len(feeds))
	for _, f := range feeds {
		main, ok := mainByID[f.MainID]
		if !ok {
			return nil, fmt.Errorf("feed %d references missing main goal %d", f.FeedID, f.MainID)
		}
		sub, ok := subByID[f.SubID]
		if !ok {
			return nil, fmt.Errorf("feed %d references missing sub goal %d", f.FeedID, f.SubID)
		}
		action, ok := actionByID[f.ActionID]
		if !ok {
			return nil, fmt.Errorf("feed %d references missing action item %d", f.FeedID, f.ActionID)
		}

		emojiCount := emojiByFeed[f.FeedID]
		if emojiCount == nil {
			emojiCount = map[string]int{}
		}
		myEmojis := myEmojisByFeed[f.FeedID]
		if myEmojis == nil {
			myEmojis = []string{}
		}
		commentList := commentsByFeed[f.FeedID]
		if commentList == nil {
			commentList = []CommentEntry{}
		}

		entries = append(entries, FeedEntry{
			UserInfo: FeedUserInfo{
				UserID:       f.User.UserID,
				Username:     f.User.Username,
				ProfileImage: f.User.UserImage,
				UserPosition: f.User.UserPosition,
				SuccessCount: f.User.SuccessCount,
				IsFollowing:  vc.isFollowing(f.UserID),
			},
			FeedInfo: FeedInfo{
				FeedID:       f.FeedID,
				MainTitle:    main.MainTitle,
				SubTitle:     sub.SubTitle,
				Content:      action.Content,
				SuccessCount: action.SuccessCount,
				Post:         f.Contents,
				ContentImage: f.FeedImage,
				CreatedAt:    f.CreatedAt,
				Tags:         f.FeedHash,
				EmojiCount:   emojiCount,
				MyEmojis:     myEmojis,
				Comments:     commentList,
			},
		})
	}
	return entries, nil
}
