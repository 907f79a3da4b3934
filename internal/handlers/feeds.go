package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/teammanda/manda-api/internal/config"
	"github.com/teammanda/manda-api/internal/services"
	"github.com/teammanda/manda-api/internal/utils"
	"gorm.io/gorm"
)

// FeedHandler handles feed, comment and reaction routes
type FeedHandler struct {
	DB         *gorm.DB
	Cfg        *config.Config
	Dispatcher *services.Dispatcher
}

// RecommendFeeds handles GET /api/feeds/recommend?page=N
// @Summary Get the personalized feed page
// @Description Get one page of feeds ranked by the viewer's social and interaction signals
// @Tags Feeds
// @Produce json
// @Param page query int false "Page number, starting at 1"
// @Success 200 {object} utils.PageResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /feeds/recommend [get]
func (h *FeedHandler) RecommendFeeds(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "feeds.recommend")
	}
	page, err := parsePage(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "feeds.recommend")
	}

	entries, hasMore, err := services.RecommendFeeds(h.DB, h.Cfg, userID, page)
	if err != nil {
		return serviceErrorResponse(c, err, "feeds.recommend")
	}
	return utils.PageResponse(c, entries, page, hasMore)
}

// UserFeeds handles GET /api/feeds/user/:userID?page=N
// @Summary Get one user's feeds
// @Description Get one page of a user's feeds, newest first
// @Tags Feeds
// @Produce json
// @Param userID path int true "User ID"
// @Param page query int false "Page number, starting at 1"
// @Success 200 {object} utils.PageResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /feeds/user/{userID} [get]
func (h *FeedHandler) UserFeeds(c *fiber.Ctx) error {
	viewerID, err := getUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "feeds.user")
	}
	targetID, err := parseIDParam(c, "userID")
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "feeds.user")
	}
	page, err := parsePage(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "feeds.user")
	}

	entries, hasMore, err := services.UserFeeds(h.DB, h.Cfg, viewerID, targetID, page)
	if err != nil {
		return serviceErrorResponse(c, err, "feeds.user")
	}
	return utils.PageResponse(c, entries, page, hasMore)
}

// FeedLog handles GET /api/feeds/log/:userID
// @Summary Get a user's posting activity
// @Description Get per-day feed counts for a user
// @Tags Feeds
// @Produce json
// @Param userID path int true "User ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /feeds/log/{userID} [get]
func (h *FeedHandler) FeedLog(c *fiber.Ctx) error {
	targetID, err := parseIDParam(c, "userID")
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "feeds.log")
	}

	entries, err := services.FeedLog(h.DB, targetID)
	if err != nil {
		return serviceErrorResponse(c, err, "feeds.log")
	}
	return utils.SuccessResponse(c, entries, fiber.StatusOK)
}

// CreateFeed handles POST /api/feeds
// @Summary Create a progress post
// @Description Post progress on an action item; bumps the cell's success counters
// @Tags Feeds
// @Accept json
// @Produce json
// @Param feed body services.CreateFeedInput true "New feed"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /feeds [post]
func (h *FeedHandler) CreateFeed(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "feeds.create")
	}

	var input services.CreateFeedInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, "Invalid request body", fiber.StatusBadRequest, "feeds.create")
	}

	feed, err := services.CreateFeed(h.DB, userID, input)
	if err != nil {
		return serviceErrorResponse(c, err, "feeds.create")
	}
	return utils.CreatedResponse(c, feed)
}

type updateFeedRequest struct {
	Contents *string `json:"contents"`
	Tags     *string `json:"tags"`
}

// UpdateFeed handles PATCH /api/feeds/:feedID
// @Summary Edit a feed
// @Description Edit the contents or tags of the caller's own feed
// @Tags Feeds
// @Accept json
// @Produce json
// @Param feedID path int true "Feed ID"
// @Param feed body updateFeedRequest true "Fields to change"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /feeds/{feedID} [patch]
func (h *FeedHandler) UpdateFeed(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "feeds.update")
	}
	feedID, err := parseIDParam(c, "feedID")
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "feeds.update")
	}

	var req updateFeedRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, "Invalid request body", fiber.StatusBadRequest, "feeds.update")
	}

	feed, err := services.UpdateFeed(h.DB, userID, feedID, req.Contents, req.Tags)
	if err != nil {
		return serviceErrorResponse(c, err, "feeds.update")
	}
	return utils.MutationSuccessResponse(c, feed)
}

// DeleteFeed handles DELETE /api/feeds/:feedID
// @Summary Delete a feed
// @Description Soft-delete the caller's own feed
// @Tags Feeds
// @Produce json
// @Param feedID path int true "Feed ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /feeds/{feedID} [delete]
func (h *FeedHandler) DeleteFeed(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "feeds.delete")
	}
	feedID, err := parseIDParam(c, "feedID")
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "feeds.delete")
	}

	if err := services.DeleteFeed(h.DB, userID, feedID); err != nil {
		return serviceErrorResponse(c, err, "feeds.delete")
	}
	return utils.MutationSuccessResponse(c, nil)
}

type commentRequest struct {
	Comment string `json:"comment"`
}

// AddComment handles POST /api/feeds/:feedID/comments
// @Summary Comment on a feed
// @Description Attach a comment to a feed and notify its owner
// @Tags Comments
// @Accept json
// @Produce json
// @Param feedID path int true "Feed ID"
// @Param comment body commentRequest true "Comment text"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /feeds/{feedID}/comments [post]
func (h *FeedHandler) AddComment(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "comments.create")
	}
	feedID, err := parseIDParam(c, "feedID")
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "comments.create")
	}

	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, "Invalid request body", fiber.StatusBadRequest, "comments.create")
	}

	comment, err := services.AddComment(h.DB, h.Dispatcher, userID, feedID, req.Comment)
	if err != nil {
		return serviceErrorResponse(c, err, "comments.create")
	}
	return utils.CreatedResponse(c, comment)
}

// UpdateComment handles PATCH /api/feeds/:feedID/comments/:commentID
// @Summary Edit a comment
// @Tags Comments
// @Accept json
// @Produce json
// @Param feedID path int true "Feed ID"
// @Param commentID path int true "Comment ID"
// @Param comment body commentRequest true "New comment text"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /feeds/{feedID}/comments/{commentID} [patch]
func (h *FeedHandler) UpdateComment(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "comments.update")
	}
	feedID, err := parseIDParam(c, "feedID")
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "comments.update")
	}
	commentID, err := parseIDParam(c, "commentID")
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "comments.update")
	}

	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, "Invalid request body", fiber.StatusBadRequest, "comments.update")
	}

	comment, err := services.UpdateComment(h.DB, userID, feedID, commentID, req.Comment)
	if err != nil {
		return serviceErrorResponse(c, err, "comments.update")
	}
	return utils.MutationSuccessResponse(c, comment)
}

// DeleteComment handles DELETE /api/feeds/:feedID/comments/:commentID
// @Summary Delete a comment
// @Tags Comments
// @Produce json
// @Param feedID path int true "Feed ID"
// @Param commentID path int true "Comment ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /feeds/{feedID}/comments/{commentID} [delete]
func (h *FeedHandler) DeleteComment(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "comments.delete")
	}
	feedID, err := parseIDParam(c, "feedID")
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "comments.delete")
	}
	commentID, err := parseIDParam(c, "commentID")
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "comments.delete")
	}

	if err := services.DeleteComment(h.DB, userID, feedID, commentID); err != nil {
		return serviceErrorResponse(c, err, "comments.delete")
	}
	return utils.MutationSuccessResponse(c, nil)
}

type reactionRequest struct {
	Emoji string `json:"emoji"`
}

// AddReaction handles POST /api/feeds/:feedID/reactions
// @Summary React to a feed
// @Description Add one emoji reaction; the same emoji twice by the same user is a conflict
// @Tags Reactions
// @Accept json
// @Produce json
// @Param feedID path int true "Feed ID"
// @Param reaction body reactionRequest true "Emoji name"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /feeds/{feedID}/reactions [post]
func (h *FeedHandler) AddReaction(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "reactions.create")
	}
	feedID, err := parseIDParam(c, "feedID")
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "reactions.create")
	}

	var req reactionRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, "Invalid request body", fiber.StatusBadRequest, "reactions.create")
	}

	reaction, err := services.AddReaction(h.DB, h.Dispatcher, userID, feedID, req.Emoji)
	if err != nil {
		return serviceErrorResponse(c, err, "reactions.create")
	}
	return utils.CreatedResponse(c, reaction)
}

// RemoveReaction handles DELETE /api/feeds/:feedID/reactions/:emoji
// @Summary Remove a reaction
// @Tags Reactions
// @Produce json
// @Param feedID path int true "Feed ID"
// @Param emoji path string true "Emoji name"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /feeds/{feedID}/reactions/{emoji} [delete]
func (h *FeedHandler) RemoveReaction(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "reactions.delete")
	}
	feedID, err := parseIDParam(c, "feedID")
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "reactions.delete")
	}
	emoji := c.Params("emoji")
	if emoji == "" {
		return utils.ErrorResponse(c, "invalid emoji", fiber.StatusBadRequest, "reactions.delete")
	}

	if err := services.RemoveReaction(h.DB, userID, feedID, emoji); err != nil {
		return serviceErrorResponse(c, err, "reactions.delete")
	}
	return utils.MutationSuccessResponse(c, nil)
}

type reportRequest struct {
	Reason string `json:"reason"`
}

// ReportFeed handles POST /api/feeds/:feedID/report
// @Summary Report a feed
// @Description Report a feed; it disappears from the reporter's views
// @Tags Reports
// @Accept json
// @Produce json
// @Param feedID path int true "Feed ID"
// @Param report body reportRequest true "Reason"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /feeds/{feedID}/report [post]
func (h *FeedHandler) ReportFeed(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "reports.feed")
	}
	feedID, err := parseIDParam(c, "feedID")
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "reports.feed")
	}

	var req reportRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, "Invalid request body", fiber.StatusBadRequest, "reports.feed")
	}

	if err := services.ReportFeed(h.DB, userID, feedID, req.Reason); err != nil {
		return serviceErrorResponse(c, err, "reports.feed")
	}
	return utils.CreatedResponse(c, nil)
}

// ReportComment handles POST /api/comments/:commentID/report
// @Summary Report a comment
// @Tags Reports
// @Accept json
// @Produce json
// @Param commentID path int true "Comment ID"
// @Param report body reportRequest true "Reason"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /comments/{commentID}/report [post]
func (h *FeedHandler) ReportComment(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "reports.comment")
	}
	commentID, err := parseIDParam(c, "commentID")
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "reports.comment")
	}

	var req reportRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, "Invalid request body", fiber.StatusBadRequest, "reports.comment")
	}

	if err := services.ReportComment(h.DB, userID, commentID, req.Reason); err != nil {
		return serviceErrorResponse(c, err, "reports.comment")
	}
	return utils.CreatedResponse(c, nil)
}
