package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/teammanda/manda-api/internal/config"
	"github.com/teammanda/manda-api/internal/models"
	"github.com/teammanda/manda-api/internal/services"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupApp builds a fiber app over an in-memory store with the API routes
// wired the way the server wires them. Requests authenticate as the user id
// sent in the X-Test-User header; no header means unauthenticated.
func setupApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open database: %v", err)
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
		t.Fatalf("migrate: %v", err)
	}

	cfg := config.Default()
	dispatcher := services.NewDispatcher(db)
	goals := &GoalHandler{DB: db, Cfg: cfg}
	feeds := &FeedHandler{DB: db, Cfg: cfg, Dispatcher: dispatcher}
	users := &UserHandler{DB: db}
	social := &SocialHandler{DB: db, Dispatcher: dispatcher}
	notifications := &NotificationHandler{DB: db}

	app := fiber.New()
	api := app.Group("/api", func(c *fiber.Ctx) error {
		if header := c.Get("X-Test-User"); header != "" {
			var id uint64
			if _, err := fmt.Sscanf(header, "%d", &id); err == nil {
				c.Locals("userID", id)
			}
		}
		return c.Next()
	})

	api.Get("/feeds/recommend", feeds.RecommendFeeds)
	api.Get("/feeds/user/:userID", feeds.UserFeeds)
	api.Post("/feeds", feeds.CreateFeed)
	api.Post("/feeds/:feedID/reactions", feeds.AddReaction)
	api.Delete("/feeds/:feedID/reactions/:emoji", feeds.RemoveReaction)
	api.Post("/feeds/:feedID/comments", feeds.AddComment)

	api.Get("/goals/search", goals.SearchGoals)
	api.Post("/goals", goals.CreateGoal)
	api.Get("/goals/:goalID", goals.GetGoal)
	api.Delete("/goals/:goalID", goals.DeleteGoal)

	api.Post("/users/:userID/follow", social.Follow)
	api.Get("/users/:userID/profile", users.GetProfile)
	api.Get("/notifications", notifications.List)

	return app, db
}

func seedUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	user := &models.User{AuthSubject: "sub-" + name, Username: name, IsActive: true}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return user
}

func request(t *testing.T, app *fiber.App, method, target string, asUser uint64, body interface{}) *http.Response {
	t.Helper()
	var buf io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		buf = bytes.NewReader(encoded)
	}
	req, err := http.NewRequest(method, target, buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if asUser != 0 {
		req.Header.Set("X-Test-User", fmt.Sprintf("%d", asUser))
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestCreateGoalEndpoint(t *testing.T) {
	app, db := setupApp(t)
	user := seedUser(t, db, "creator")

	resp := request(t, app, http.MethodPost, "/api/goals", user.UserID,
		map[string]string{"main_title": "learn piano", "privacy": "public"})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	subs, ok := body["subs"].([]interface{})
	if !ok || len(subs) != models.GridSize {
		t.Fatalf("expected %d subs in the created tree, got %v", models.GridSize, body["subs"])
	}
}

func TestCreateGoalRequiresAuth(t *testing.T) {
	app, _ := setupApp(t)

	resp := request(t, app, http.MethodPost, "/api/goals", 0,
		map[string]string{"main_title": "learn piano"})
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if ok, _ := body["ok"].(bool); ok {
		t.Error("error envelope must carry ok=false")
	}
	if body["type"] == nil || body["url"] == nil {
		t.Errorf("error envelope missing type/url: %v", body)
	}
}

func TestGetGoalNotFound(t *testing.T) {
	app, db := setupApp(t)
	user := seedUser(t, db, "reader")

	resp := request(t, app, http.MethodGet, "/api/goals/424242", user.UserID, nil)
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}

	resp = request(t, app, http.MethodGet, "/api/goals/nope", user.UserID, nil)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("non-numeric id: status = %d, want 400", resp.StatusCode)
	}
}

func TestRecommendFeedsEndpoint(t *testing.T) {
	app, db := setupApp(t)
	user := seedUser(t, db, "viewer")

	resp := request(t, app, http.MethodGet, "/api/feeds/recommend", user.UserID, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if page, _ := body["page"].(float64); page != 1 {
		t.Errorf("default page = %v, want 1", body["page"])
	}
	if hasMore, _ := body["hasMore"].(bool); hasMore {
		t.Error("empty graph must not report more pages")
	}

	// Past the end the page envelope switches to the sentinel message.
	resp = request(t, app, http.MethodGet, "/api/feeds/recommend?page=7", user.UserID, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("sentinel status = %d, want 200", resp.StatusCode)
	}
	body = decodeBody(t, resp)
	if body["message"] != "No more pages" {
		t.Errorf("expected the no-more-pages sentinel, got %v", body)
	}

	resp = request(t, app, http.MethodGet, "/api/feeds/recommend?page=0", user.UserID, nil)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("page=0: status = %d, want 400", resp.StatusCode)
	}
}

func TestSearchGoalsRequiresKeyword(t *testing.T) {
	app, db := setupApp(t)
	user := seedUser(t, db, "seeker")

	resp := request(t, app, http.MethodGet, "/api/goals/search", user.UserID, nil)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("missing keyword: status = %d, want 400", resp.StatusCode)
	}

	resp = request(t, app, http.MethodGet, "/api/goals/search?keyword=piano", user.UserID, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestReactionEndpointConflict(t *testing.T) {
	app, db := setupApp(t)
	author := seedUser(t, db, "author")
	fan := seedUser(t, db, "fan")

	resp := request(t, app, http.MethodPost, "/api/goals", author.UserID,
		map[string]string{"main_title": "learn piano"})
	tree := decodeBody(t, resp)
	subs := tree["subs"].([]interface{})
	firstSub := subs[0].(map[string]interface{})
	actions := firstSub["contents"].([]interface{})
	actionID := uint64(actions[0].(map[string]interface{})["id"].(float64))

	resp = request(t, app, http.MethodPost, "/api/feeds", author.UserID,
		map[string]interface{}{"action_id": actionID, "contents": "did it"})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("create feed: status = %d, want 201", resp.StatusCode)
	}
	feed := decodeBody(t, resp)
	feedID := uint64(feed["FeedID"].(float64))

	target := fmt.Sprintf("/api/feeds/%d/reactions", feedID)
	resp = request(t, app, http.MethodPost, target, fan.UserID, map[string]string{"emoji": "fire"})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("first reaction: status = %d, want 201", resp.StatusCode)
	}
	resp = request(t, app, http.MethodPost, target, fan.UserID, map[string]string{"emoji": "fire"})
	if resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("duplicate reaction: status = %d, want 409", resp.StatusCode)
	}

	resp = request(t, app, http.MethodDelete, target+"/fire", fan.UserID, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("remove reaction: status = %d, want 200", resp.StatusCode)
	}
}

func TestFollowAndNotificationEndpoints(t *testing.T) {
	app, db := setupApp(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	target := fmt.Sprintf("/api/users/%d/follow", bob.UserID)
	resp := request(t, app, http.MethodPost, target, alice.UserID, nil)
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("follow: status = %d, want 201", resp.StatusCode)
	}
	resp = request(t, app, http.MethodPost, target, alice.UserID, nil)
	if resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("duplicate follow: status = %d, want 409", resp.StatusCode)
	}

	resp = request(t, app, http.MethodGet, "/api/notifications", bob.UserID, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("notifications: status = %d, want 200", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if unread, _ := body["unread_count"].(float64); unread != 1 {
		t.Errorf("unread_count = %v, want 1", body["unread_count"])
	}

	profile := request(t, app, http.MethodGet, fmt.Sprintf("/api/users/%d/profile", bob.UserID), alice.UserID, nil)
	if profile.StatusCode != fiber.StatusOK {
		t.Fatalf("profile: status = %d, want 200", profile.StatusCode)
	}
	profileBody := decodeBody(t, profile)
	if following, _ := profileBody["is_following"].(bool); !following {
		t.Error("profile should show the viewer is following")
	}
}
