package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/teammanda/manda-api/internal/config"
	"github.com/teammanda/manda-api/internal/models"
	"github.com/teammanda/manda-api/internal/services"
	"github.com/teammanda/manda-api/internal/types"
	"github.com/teammanda/manda-api/internal/utils"
	"gorm.io/gorm"
)

// GoalHandler handles Mandalart grid routes
type GoalHandler struct {
	DB  *gorm.DB
	Cfg *config.Config
}

type createGoalRequest struct {
	MainTitle string         `json:"main_title"`
	Privacy   models.Privacy `json:"privacy"`
}

// CreateGoal handles POST /api/goals
// @Summary Create a goal grid
// @Description Create a main goal with its fixed 8 sub goals and 64 action items
// @Tags Goals
// @Accept json
// @Produce json
// @Param goal body createGoalRequest true "New goal"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /goals [post]
func (h *GoalHandler) CreateGoal(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "goals.create")
	}

	var req createGoalRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, "Invalid request body", fiber.StatusBadRequest, "goals.create")
	}

	tree, err := services.CreateMainGoal(h.DB, userID, req.MainTitle, req.Privacy)
	if err != nil {
		return serviceErrorResponse(c, err, "goals.create")
	}
	return utils.CreatedResponse(c, tree)
}

// GetGoal handles GET /api/goals/:goalID
// @Summary Get a goal grid
// @Description Get a full grid with per-cell display stages
// @Tags Goals
// @Produce json
// @Param goalID path int true "Main goal ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /goals/{goalID} [get]
func (h *GoalHandler) GetGoal(c *fiber.Ctx) error {
	goalID, err := parseIDParam(c, "goalID")
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "goals.get")
	}

	tree, err := services.SelectGoalTree(h.DB, goalID)
	if err != nil {
		return serviceErrorResponse(c, err, "goals.get")
	}
	return utils.SuccessResponse(c, tree, fiber.StatusOK)
}

type updateGoalRequest struct {
	MainTitle *string         `json:"main_title"`
	Success   *bool           `json:"success"`
	Privacy   *models.Privacy `json:"privacy"`
}

// UpdateGoal handles PATCH /api/goals/:goalID
// @Summary Edit a goal grid root
// @Tags Goals
// @Accept json
// @Produce json
// @Param goalID path int true "Main goal ID"
// @Param goal body updateGoalRequest true "Fields to change"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /goals/{goalID} [patch]
func (h *GoalHandler) UpdateGoal(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "goals.update")
	}
	goalID, err := parseIDParam(c, "goalID")
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "goals.update")
	}

	var req updateGoalRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, "Invalid request body", fiber.StatusBadRequest, "goals.update")
	}

	main, err := services.UpdateMainGoal(h.DB, userID, goalID, req.MainTitle, req.Success, req.Privacy)
	if err != nil {
		return serviceErrorResponse(c, err, "goals.update")
	}
	return utils.MutationSuccessResponse(c, main)
}

// DeleteGoal handles DELETE /api/goals/:goalID
// @Summary Delete a goal grid
// @Tags Goals
// @Produce json
// @Param goalID path int true "Main goal ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /goals/{goalID} [delete]
func (h *GoalHandler) DeleteGoal(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "goals.delete")
	}
	goalID, err := parseIDParam(c, "goalID")
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "goals.delete")
	}

	if err := services.DeleteMainGoal(h.DB, userID, goalID); err != nil {
		return serviceErrorResponse(c, err, "goals.delete")
	}
	return utils.MutationSuccessResponse(c, nil)
}

// ListGoals handles GET /api/goals/user/:userID
// @Summary List a user's goal grids
// @Tags Goals
// @Produce json
// @Param userID path int true "User ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /goals/user/{userID} [get]
func (h *GoalHandler) ListGoals(c *fiber.Ctx) error {
	targetID, err := parseIDParam(c, "userID")
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "goals.list")
	}

	summaries, err := services.ListMainGoals(h.DB, targetID)
	if err != nil {
		return serviceErrorResponse(c, err, "goals.list")
	}
	return utils.SuccessResponse(c, summaries, fiber.StatusOK)
}

type updateSubGoalsRequest struct {
	Subs []subGoalEdit `json:"subs"`
}

type subGoalEdit struct {
	ID       types.FlexUint64 `json:"id"`
	SubTitle *string          `json:"sub_title"`
}

// UpdateSubGoals handles POST /api/goals/subs
// @Summary Batch-edit sub goal titles
// @Tags Goals
// @Accept json
// @Produce json
// @Param subs body updateSubGoalsRequest true "Sub goal edits"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /goals/subs [post]
func (h *GoalHandler) UpdateSubGoals(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "goals.subs")
	}

	var req updateSubGoalsRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, "Invalid request body", fiber.StatusBadRequest, "goals.subs")
	}

	updates := make([]services.SubGoalUpdate, 0, len(req.Subs))
	for _, s := range req.Subs {
		updates = append(updates, services.SubGoalUpdate{SubID: s.ID.Uint64(), SubTitle: s.SubTitle})
	}

	if err := services.UpdateSubGoals(h.DB, userID, updates); err != nil {
		return serviceErrorResponse(c, err, "goals.subs")
	}
	return utils.MutationSuccessResponse(c, nil)
}

type updateActionItemsRequest struct {
	Actions []actionItemEdit `json:"actions"`
}

type actionItemEdit struct {
	ID      types.FlexUint64 `json:"id"`
	Content *string          `json:"content"`
}

// UpdateActionItems handles POST /api/goals/actions
// @Summary Batch-edit action items
// @Tags Goals
// @Accept json
// @Produce json
// @Param actions body updateActionItemsRequest true "Action item edits"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /goals/actions [post]
func (h *GoalHandler) UpdateActionItems(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "goals.actions")
	}

	var req updateActionItemsRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, "Invalid request body", fiber.StatusBadRequest, "goals.actions")
	}

	updates := make([]services.ActionItemUpdate, 0, len(req.Actions))
	for _, a := range req.Actions {
		updates = append(updates, services.ActionItemUpdate{ActionID: a.ID.Uint64(), Content: a.Content})
	}

	if err := services.UpdateActionItems(h.DB, userID, updates); err != nil {
		return serviceErrorResponse(c, err, "goals.actions")
	}
	return utils.MutationSuccessResponse(c, nil)
}

// SearchGoals handles GET /api/goals/search?keyword=&page=
// @Summary Search other users' grids
// @Description Keyword search over public main goal titles, paginated
// @Tags Goals
// @Produce json
// @Param keyword query string true "Search keyword"
// @Param page query int false "Page number, starting at 1"
// @Success 200 {object} utils.PageResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /goals/search [get]
func (h *GoalHandler) SearchGoals(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "goals.search")
	}
	keyword := c.Query("keyword", "")
	if keyword == "" {
		return utils.ErrorResponse(c, "keyword is required", fiber.StatusBadRequest, "goals.search")
	}
	page, err := parsePage(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "goals.search")
	}

	results, hasMore, err := services.SearchSubGoals(h.DB, h.Cfg, userID, keyword, page)
	if err != nil {
		return serviceErrorResponse(c, err, "goals.search")
	}
	return utils.PageResponse(c, results, page, hasMore)
}

type recommendGoalsRequest struct {
	Query        string           `json:"query"`
	Scope        string           `json:"scope"`
	ExcludeSubID types.FlexUint64 `json:"exclude_sub_id"`
}

// RecommendGoals handles POST /api/goals/recommend
// @Summary Recommend similar goals
// @Description Suggest goals from other users whose titles read like the query. Scope "main" (default) matches main goals; scope "sub" matches sub goals.
// @Tags Goals
// @Accept json
// @Produce json
// @Param query body recommendGoalsRequest true "Query title"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /goals/recommend [post]
func (h *GoalHandler) RecommendGoals(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "goals.recommend")
	}

	var req recommendGoalsRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, "Invalid request body", fiber.StatusBadRequest, "goals.recommend")
	}

	switch req.Scope {
	case "", "main":
		results, err := services.RecommendMainGoals(c.Context(), h.DB, h.Cfg, userID, req.Query)
		if err != nil {
			return serviceErrorResponse(c, err, "goals.recommend")
		}
		return utils.SuccessResponse(c, results, fiber.StatusOK)
	case "sub":
		results, err := services.RecommendSubGoals(c.Context(), h.DB, h.Cfg, req.ExcludeSubID.Uint64(), req.Query)
		if err != nil {
			return serviceErrorResponse(c, err, "goals.recommend")
		}
		return utils.SuccessResponse(c, results, fiber.StatusOK)
	default:
		return utils.ErrorResponse(c, "scope must be \"main\" or \"sub\"", fiber.StatusBadRequest, "goals.recommend")
	}
}
