package services

import (
	"context"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/teammanda/manda-api/internal/config"
	"github.com/teammanda/manda-api/internal/models"
	"gorm.io/gorm"
)

// tokenize lowercases a title and splits it on anything that is not a
// letter or digit. Works for both spaced and unspaced scripts because CJK
// characters survive as letters.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// tfidfVectors builds one sparse TF-IDF vector per document over the shared
// vocabulary of all documents. IDF is smoothed so a term present in every
// document still carries a small weight.
func tfidfVectors(docs [][]string) []map[string]float64 {
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{}, len(doc))
		for _, term := range doc {
			if _, ok := seen[term]; !ok {
				seen[term] = struct{}{}
				df[term]++
			}
		}
	}

	n := float64(len(docs))
	vectors := make([]map[string]float64, len(docs))
	for i, doc := range docs {
		tf := make(map[string]float64, len(doc))
		for _, term := range doc {
			tf[term]++
		}
		vec := make(map[string]float64, len(tf))
		for term, count := range tf {
			idf := math.Log((1+n)/(1+float64(df[term]))) + 1
			vec[term] = (count / float64(len(doc))) * idf
		}
		vectors[i] = vec
	}
	return vectors
}

// cosine returns the cosine similarity of two sparse vectors, 0 when either
// has no magnitude.
func cosine(a, b map[string]float64) float64 {
	var dot, normA, normB float64
	for term, va := range a {
		normA += va * va
		if vb, ok := b[term]; ok {
			dot += va * vb
		}
	}
	for _, vb := range b {
		normB += vb * vb
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// rankBySimilarity scores every candidate title against the query and
// returns the indexes of candidates at or above the threshold, best first,
// capped at limit. Ties break toward the earlier candidate (the more recent
// row, since callers order candidates newest first).
func rankBySimilarity(query string, candidates []string, threshold float64, limit int) []int {
	queryTokens := tokenize(query)
	if len(queryTokens) == 0 || len(candidates) == 0 {
		return nil
	}

	docs := make([][]string, 0, len(candidates)+1)
	docs = append(docs, queryTokens)
	for _, c := range candidates {
		docs = append(docs, tokenize(c))
	}
	vectors := tfidfVectors(docs)

	type scored struct {
		index int
		score float64
	}
	hits := make([]scored, 0, len(candidates))
	for i := 1; i < len(vectors); i++ {
		if len(docs[i]) == 0 {
			continue
		}
		score := cosine(vectors[0], vectors[i])
		if score >= threshold {
			hits = append(hits, scored{index: i - 1, score: score})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}

	indexes := make([]int, len(hits))
	for i, h := range hits {
		indexes[i] = h.index
	}
	return indexes
}

// SimilarMainGoal is one main goal recommended for a query title.
type SimilarMainGoal struct {
	MainID    uint64   `json:"id"`
	UserID    uint64   `json:"user_id"`
	MainTitle string   `json:"main_title"`
	SubTitles []string `json:"sub_titles"`
}

// SimilarSubGoal is one sub goal recommended for a query title.
type SimilarSubGoal struct {
	SubID    uint64   `json:"id"`
	SubTitle string   `json:"sub_title"`
	Contents []string `json:"contents"`
}

// RecommendMainGoals suggests other users' public main goals whose titles
// read like the query. The pool is the most recent candidates up to
// cfg.SimilarityCandidates; the heavy scoring runs on its own goroutine
// under cfg.SimilarityTimeout, and a timeout degrades to an empty result
// instead of failing the request.
func RecommendMainGoals(ctx context.Context, db *gorm.DB, cfg *config.Config, userID uint64, query string) ([]SimilarMainGoal, error) {
	if strings.TrimSpace(query) == "" {
		return []SimilarMainGoal{}, nil
	}

	var mains []models.MainGoal
	err := db.Preload("SubGoals", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).
		Where("user_id <> ?", userID).
		Where("privacy = ?", models.PrivacyPublic).
		Where("main_title <> ''").
		Order("main_id DESC").
		Limit(cfg.SimilarityCandidates).
		Find(&mains).Error
	if err != nil {
		return nil, err
	}

	titles := make([]string, len(mains))
	for i, m := range mains {
		titles[i] = m.MainTitle
	}

	indexes, ok := rankWithTimeout(ctx, cfg, query, titles)
	if !ok {
		return []SimilarMainGoal{}, nil
	}

	results := make([]SimilarMainGoal, 0, len(indexes))
	for _, idx := range indexes {
		m := mains[idx]
		r := SimilarMainGoal{MainID: m.MainID, UserID: m.UserID, MainTitle: m.MainTitle}
		for _, sub := range m.SubGoals {
			if sub.SubTitle != nil && *sub.SubTitle != "" {
				r.SubTitles = append(r.SubTitles, *sub.SubTitle)
			}
		}
		results = append(results, r)
	}
	return results, nil
}

// RecommendSubGoals suggests sub goals from public grids whose titles read
// like the query, excluding the sub goal being edited, each enriched with
// its non-empty action item contents.
func RecommendSubGoals(ctx context.Context, db *gorm.DB, cfg *config.Config, excludeSubID uint64, query string) ([]SimilarSubGoal, error) {
	if strings.TrimSpace(query) == "" {
		return []SimilarSubGoal{}, nil
	}

	var subs []models.SubGoal
	err := db.Preload("ActionItems", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).
		Joins("JOIN main_goals ON main_goals.main_id = sub_goals.main_id AND main_goals.deleted_at IS NULL").
		Where("main_goals.privacy = ?", models.PrivacyPublic).
		Where("sub_goals.sub_id <> ?", excludeSubID).
		Where("sub_goals.sub_title IS NOT NULL AND sub_goals.sub_title <> ''").
		Order("sub_goals.sub_id DESC").
		Limit(cfg.SimilarityCandidates).
		Find(&subs).Error
	if err != nil {
		return nil, err
	}

	titles := make([]string, len(subs))
	for i, s := range subs {
		titles[i] = *s.SubTitle
	}

	indexes, ok := rankWithTimeout(ctx, cfg, query, titles)
	if !ok {
		return []SimilarSubGoal{}, nil
	}

	results := make([]SimilarSubGoal, 0, len(indexes))
	for _, idx := range indexes {
		s := subs[idx]
		r := SimilarSubGoal{SubID: s.SubID, SubTitle: *s.SubTitle}
		for _, item := range s.ActionItems {
			if item.Content != nil && *item.Content != "" {
				r.Contents = append(r.Contents, *item.Content)
			}
		}
		results = append(results, r)
	}
	return results, nil
}

// rankWithTimeout runs the scoring on its own goroutine bounded by the
// configured timeout. The second return is false when the deadline won,
// which callers treat as "no recommendations" rather than an error.
func rankWithTimeout(ctx context.Context, cfg *config.Config, query string, candidates []string) ([]int, bool) {
	ctx, cancel := context.WithTimeout(ctx, cfg.SimilarityTimeout)
	defer cancel()

	done := make(chan []int, 1)
	go func() {
		done <- rankBySimilarity(query, candidates, cfg.SimilarityThreshold, cfg.SimilarityResults)
	}()

	select {
	case indexes := <-done:
		return indexes, true
	case <-ctx.Done():
		return nil, false
	}
}
