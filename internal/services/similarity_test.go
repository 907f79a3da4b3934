package services

import (
	"context"
	"math"
	"testing"

	"github.com/teammanda/manda-api/internal/config"
	"github.com/teammanda/manda-api/internal/models"
)

func TestTokenize(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"Learn Piano", []string{"learn", "piano"}},
		{"run-a 5k, fast!", []string{"run", "a", "5k", "fast"}},
		{"매일 운동하기", []string{"매일", "운동하기"}},
		{"  ", nil},
		{"!!!", nil},
	}
	for _, tc := range cases {
		got := tokenize(tc.in)
		if len(got) != len(tc.want) {
			t.Errorf("tokenize(%q) = %v, want %v", tc.in, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("tokenize(%q) = %v, want %v", tc.in, got, tc.want)
				break
			}
		}
	}
}

func TestCosine(t *testing.T) {
	a := map[string]float64{"learn": 0.5, "piano": 0.5}
	if got := cosine(a, a); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("cosine of a vector with itself = %v, want 1", got)
	}

	b := map[string]float64{"run": 0.5, "marathon": 0.5}
	if got := cosine(a, b); got != 0 {
		t.Errorf("cosine of disjoint vectors = %v, want 0", got)
	}

	if got := cosine(a, map[string]float64{}); got != 0 {
		t.Errorf("cosine against an empty vector = %v, want 0", got)
	}
}

func TestRankBySimilarity(t *testing.T) {
	candidates := []string{
		"learn jazz piano",
		"run a marathon",
		"learn piano",
		"grow tomatoes",
	}

	got := rankBySimilarity("learn piano", candidates, 0.2, 10)
	if len(got) < 2 {
		t.Fatalf("expected at least the two piano titles, got %v", got)
	}
	if got[0] != 2 {
		t.Errorf("expected the exact title ranked first, got index %d", got[0])
	}
	for _, idx := range got {
		if idx == 1 || idx == 3 {
			t.Errorf("unrelated title %q passed the threshold", candidates[idx])
		}
	}
}

func TestRankBySimilarityThresholdBoundary(t *testing.T) {
	query := "learn piano"
	candidate := "learn jazz piano"

	// Score the candidate the same way rankBySimilarity does, then feed the
	// score back in as the threshold: at-threshold candidates are included.
	docs := [][]string{tokenize(query), tokenize(candidate)}
	vectors := tfidfVectors(docs)
	score := cosine(vectors[0], vectors[1])
	if score <= 0 || score >= 1 {
		t.Fatalf("expected a partial-match score inside (0,1), got %v", score)
	}

	got := rankBySimilarity(query, []string{candidate}, score, 10)
	if len(got) != 1 || got[0] != 0 {
		t.Fatalf("candidate scoring exactly the threshold must be included, got %v", got)
	}

	if got := rankBySimilarity(query, []string{candidate}, score+1e-12, 10); len(got) != 0 {
		t.Errorf("candidate just under the threshold must be excluded, got %v", got)
	}
}

func TestRankBySimilarityEmptyInputs(t *testing.T) {
	if got := rankBySimilarity("", []string{"learn piano"}, 0.2, 10); got != nil {
		t.Errorf("empty query: expected nil, got %v", got)
	}
	if got := rankBySimilarity("learn piano", nil, 0.2, 10); got != nil {
		t.Errorf("no candidates: expected nil, got %v", got)
	}
	// A candidate that tokenizes to nothing is skipped, not scored.
	if got := rankBySimilarity("learn piano", []string{"!!!"}, 0.0, 10); len(got) != 0 {
		t.Errorf("symbol-only candidate: expected no hits, got %v", got)
	}
}

func TestRankBySimilarityLimit(t *testing.T) {
	candidates := make([]string, 20)
	for i := range candidates {
		candidates[i] = "learn piano"
	}
	got := rankBySimilarity("learn piano", candidates, 0.2, 10)
	if len(got) != 10 {
		t.Fatalf("expected the result capped at 10, got %d", len(got))
	}
	// Stable sort keeps equal scores in candidate order, and candidates
	// arrive newest first.
	for i, idx := range got {
		if idx != i {
			t.Errorf("expected tied candidates in input order, got %v", got)
			break
		}
	}
}

func TestRecommendMainGoals(t *testing.T) {
	db := setupTestDB(t)
	cfg := config.Default()

	seeker := mkUser(t, db, "seeker")
	alice := mkUser(t, db, "alice")
	bob := mkUser(t, db, "bob")

	match, err := CreateMainGoal(db, alice.UserID, "learn piano", models.PrivacyPublic)
	if err != nil {
		t.Fatalf("CreateMainGoal: %v", err)
	}
	scales := "practice scales"
	if err := UpdateSubGoals(db, alice.UserID, []SubGoalUpdate{
		{SubID: match.Subs[0].SubID, SubTitle: &scales},
	}); err != nil {
		t.Fatalf("UpdateSubGoals: %v", err)
	}
	if _, err := CreateMainGoal(db, bob.UserID, "grow tomatoes", models.PrivacyPublic); err != nil {
		t.Fatalf("CreateMainGoal: %v", err)
	}
	// Private grids and the seeker's own never surface.
	if _, err := CreateMainGoal(db, bob.UserID, "learn piano quietly", models.PrivacyPrivate); err != nil {
		t.Fatalf("CreateMainGoal: %v", err)
	}
	if _, err := CreateMainGoal(db, seeker.UserID, "learn piano myself", models.PrivacyPublic); err != nil {
		t.Fatalf("CreateMainGoal: %v", err)
	}

	results, err := RecommendMainGoals(context.Background(), db, cfg, seeker.UserID, "learn piano")
	if err != nil {
		t.Fatalf("RecommendMainGoals: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected exactly alice's grid, got %d results", len(results))
	}
	if results[0].MainID != match.Main.MainID {
		t.Errorf("expected main %d, got %d", match.Main.MainID, results[0].MainID)
	}
	if len(results[0].SubTitles) != 1 || results[0].SubTitles[0] != scales {
		t.Errorf("expected the filled sub title, got %v", results[0].SubTitles)
	}
}

func TestRecommendMainGoalsBlankQuery(t *testing.T) {
	db := setupTestDB(t)
	seeker := mkUser(t, db, "seeker")

	results, err := RecommendMainGoals(context.Background(), db, config.Default(), seeker.UserID, "   ")
	if err != nil {
		t.Fatalf("RecommendMainGoals: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("blank query: expected no results, got %d", len(results))
	}
}

func TestRecommendSubGoals(t *testing.T) {
	db := setupTestDB(t)
	cfg := config.Default()

	alice := mkUser(t, db, "alice")
	tree, err := CreateMainGoal(db, alice.UserID, "learn piano", models.PrivacyPublic)
	if err != nil {
		t.Fatalf("CreateMainGoal: %v", err)
	}
	scales := "practice scales"
	chords := "practice chords"
	if err := UpdateSubGoals(db, alice.UserID, []SubGoalUpdate{
		{SubID: tree.Subs[0].SubID, SubTitle: &scales},
		{SubID: tree.Subs[1].SubID, SubTitle: &chords},
	}); err != nil {
		t.Fatalf("UpdateSubGoals: %v", err)
	}
	daily := "20 minutes daily"
	if err := UpdateActionItems(db, alice.UserID, []ActionItemUpdate{
		{ActionID: tree.Subs[0].ActionItems[0].ActionID, Content: &daily},
	}); err != nil {
		t.Fatalf("UpdateActionItems: %v", err)
	}

	// The cell being edited excludes itself from its own suggestions.
	results, err := RecommendSubGoals(context.Background(), db, cfg, tree.Subs[1].SubID, "practice scales")
	if err != nil {
		t.Fatalf("RecommendSubGoals: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected one suggestion, got %d", len(results))
	}
	if results[0].SubID != tree.Subs[0].SubID {
		t.Errorf("expected sub %d, got %d", tree.Subs[0].SubID, results[0].SubID)
	}
	if len(results[0].Contents) != 1 || results[0].Contents[0] != daily {
		t.Errorf("expected the filled action content, got %v", results[0].Contents)
	}
}

func TestRecommendSubGoalsSkipsDeletedGrids(t *testing.T) {
	db := setupTestDB(t)
	cfg := config.Default()

	alice := mkUser(t, db, "alice")
	tree, err := CreateMainGoal(db, alice.UserID, "learn piano", models.PrivacyPublic)
	if err != nil {
		t.Fatalf("CreateMainGoal: %v", err)
	}
	scales := "practice scales"
	if err := UpdateSubGoals(db, alice.UserID, []SubGoalUpdate{
		{SubID: tree.Subs[0].SubID, SubTitle: &scales},
	}); err != nil {
		t.Fatalf("UpdateSubGoals: %v", err)
	}
	if err := DeleteMainGoal(db, alice.UserID, tree.Main.MainID); err != nil {
		t.Fatalf("DeleteMainGoal: %v", err)
	}

	results, err := RecommendSubGoals(context.Background(), db, cfg, 0, "practice scales")
	if err != nil {
		t.Fatalf("RecommendSubGoals: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no suggestions from a deleted grid, got %d", len(results))
	}
}
