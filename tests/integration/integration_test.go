package integration_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/teammanda/manda-api/internal/config"
	"github.com/teammanda/manda-api/internal/database"
	"github.com/teammanda/manda-api/internal/models"
	"github.com/teammanda/manda-api/internal/services"
	"github.com/teammanda/manda-api/tests/helpers"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

// TestWithMariaDB runs the service layer against a real MariaDB container.
func TestWithMariaDB(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	dbImage := os.Getenv("DB_IMAGE")
	if dbImage == "" {
		dbImage = "mariadb:11"
	}

	mariadbContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        dbImage,
			ExposedPorts: []string{"3306/tcp"},
			Env: map[string]string{
				"MYSQL_ROOT_PASSWORD": "rootpass",
				"MYSQL_DATABASE":      "testdb",
				"MYSQL_USER":          "testuser",
				"MYSQL_PASSWORD":      "testpass",
			},
			WaitingFor: wait.ForLog("ready for connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start MariaDB container: %v", err)
	}
	defer func() {
		if err := mariadbContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate MariaDB container: %v", err)
		}
	}()

	host, err := mariadbContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := mariadbContainer.MappedPort(ctx, "3306")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	cfg := config.Default()
	cfg.DBType = "mysql"
	cfg.DBHost = host
	cfg.DBPort = port.Port()
	cfg.DBDatabase = "testdb"
	cfg.DBUser = "testuser"
	cfg.DBPassword = "testpass"
	cfg.DBConnectionLimit = 5

	// Wait for database to be ready
	time.Sleep(5 * time.Second)

	db, err := database.Connect(cfg)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	t.Run("GoalGridLifecycle", func(t *testing.T) {
		testGoalGridLifecycle(t, db)
	})

	t.Run("FeedCountersAndRanking", func(t *testing.T) {
		testFeedCountersAndRanking(t, db, cfg)
	})

	t.Run("ReactionUniqueness", func(t *testing.T) {
		testReactionUniqueness(t, db)
	})
}

func testGoalGridLifecycle(t *testing.T, db *gorm.DB) {
	user := helpers.CreateTestUser(t, db, "grid-owner")

	tree, err := services.CreateMainGoal(db, user.UserID, "Become a polyglot", models.PrivacyPublic)
	if err != nil {
		t.Fatalf("Failed to create goal: %v", err)
	}
	if len(tree.Subs) != models.GridSize {
		t.Fatalf("Expected %d sub goals, got %d", models.GridSize, len(tree.Subs))
	}
	for _, sub := range tree.Subs {
		if len(sub.ActionItems) != models.GridSize {
			t.Fatalf("Expected %d action items, got %d", models.GridSize, len(sub.ActionItems))
		}
	}

	if err := services.DeleteMainGoal(db, user.UserID, tree.Main.MainID); err != nil {
		t.Fatalf("Failed to delete goal: %v", err)
	}
	if _, err := services.SelectGoalTree(db, tree.Main.MainID); err == nil {
		t.Error("Expected deleted goal to be gone")
	}
}

func testFeedCountersAndRanking(t *testing.T, db *gorm.DB, cfg *config.Config) {
	author := helpers.CreateTestUser(t, db, "rank-author")
	viewer := helpers.CreateTestUser(t, db, "rank-viewer")

	tree, err := services.CreateMainGoal(db, author.UserID, "Run a marathon", models.PrivacyPublic)
	if err != nil {
		t.Fatalf("Failed to create goal: %v", err)
	}
	actionID := tree.Subs[0].ActionItems[0].ActionID

	feed, err := services.CreateFeed(db, author.UserID, services.CreateFeedInput{
		ActionID: actionID,
		Contents: "10k this morning",
	})
	if err != nil {
		t.Fatalf("Failed to create feed: %v", err)
	}

	// Counters moved atomically with the insert
	var item models.ActionItem
	if err := db.First(&item, actionID).Error; err != nil {
		t.Fatalf("Failed to reload action item: %v", err)
	}
	if item.SuccessCount != 1 {
		t.Errorf("Expected action success_count 1, got %d", item.SuccessCount)
	}

	dispatcher := services.NewDispatcher(db)
	if err := services.FollowUser(db, dispatcher, viewer.UserID, author.UserID); err != nil {
		t.Fatalf("Failed to follow: %v", err)
	}

	entries, _, err := services.RecommendFeeds(db, cfg, viewer.UserID, 1)
	if err != nil {
		t.Fatalf("Failed to rank feeds: %v", err)
	}
	found := false
	for _, e := range entries {
		if e.FeedInfo.FeedID == feed.FeedID {
			found = true
		}
	}
	if !found {
		t.Error("Expected followed author's feed on the first page")
	}
}

func testReactionUniqueness(t *testing.T, db *gorm.DB) {
	author := helpers.CreateTestUser(t, db, "react-author")
	reactor := helpers.CreateTestUser(t, db, "react-reactor")

	tree, err := services.CreateMainGoal(db, author.UserID, "Read 50 books", models.PrivacyPublic)
	if err != nil {
		t.Fatalf("Failed to create goal: %v", err)
	}
	feed, err := services.CreateFeed(db, author.UserID, services.CreateFeedInput{
		ActionID: tree.Subs[0].ActionItems[0].ActionID,
		Contents: "finished book three",
	})
	if err != nil {
		t.Fatalf("Failed to create feed: %v", err)
	}

	dispatcher := services.NewDispatcher(db)
	if _, err := services.AddReaction(db, dispatcher, reactor.UserID, feed.FeedID, "fire"); err != nil {
		t.Fatalf("First reaction failed: %v", err)
	}
	if _, err := services.AddReaction(db, dispatcher, reactor.UserID, feed.FeedID, "fire"); err == nil {
		t.Error("Expected duplicate reaction to be rejected")
	}
}
