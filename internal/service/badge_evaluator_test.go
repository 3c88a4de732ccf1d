package service

import (
	"kiriboka_backend/internal/model"
	"reflect"
	"testing"
	"time"
)

func TestEvaluateBadgesThresholds(t *testing.T) {
	tests := []struct {
		name  string
		stats model.UserStats
		want  []model.BadgeID
	}{
		{"fresh user", model.UserStats{CurrentLevel: 1}, nil},
		{"one word", model.UserStats{TotalWordsLearned: 1, TotalCoins: 1, CurrentLevel: 1}, []model.BadgeID{"first_word"}},
		{"one sentence", model.UserStats{TotalSentencesLearned: 1, TotalCoins: 3, CurrentLevel: 1}, []model.BadgeID{"first_sentence"}},
		{"99 words", model.UserStats{TotalWordsLearned: 99, CurrentLevel: 1}, []model.BadgeID{"first_word"}},
		{"100 words", model.UserStats{TotalWordsLearned: 100, CurrentLevel: 2}, []model.BadgeID{"first_word", "word_collector"}},
		{"streak", model.UserStats{Streak: 7, CurrentLevel: 1}, []model.BadgeID{"streak_7"}},
		{
			"everything",
			model.UserStats{TotalWordsLearned: 500, TotalSentencesLearned: 50, TotalCoins: 1000, CurrentLevel: 11, Streak: 30},
			[]model.BadgeID{"first_word", "first_sentence", "word_collector", "sentence_master", "coin_hoarder", "level_10", "streak_7"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := tt.stats
			if got := EvaluateBadges(&stats); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("EvaluateBadges() = %v, want %v", got, tt.want)
			}
		})
	}
}

// 统计只增不减时，获得的徽章集合也只增不减
func TestEvaluateBadgesMonotonic(t *testing.T) {
	stats := model.NewUserStats(1)
	prev := map[model.BadgeID]bool{}
	for i := 0; i < 400; i++ {
		kind := model.KindWord
		coins := 1
		if i%3 == 0 {
			kind, coins = model.KindSentence, 3
		}
		stats.AddLearned(kind, coins)
		if i%50 == 0 {
			stats.Streak++
		}

		cur := map[model.BadgeID]bool{}
		for _, id := range EvaluateBadges(stats) {
			cur[id] = true
		}
		for id := range prev {
			if !cur[id] {
				t.Fatalf("badge %s lost after step %d", id, i)
			}
		}
		prev = cur
	}
}

func TestBadgeStatusesMergesEarned(t *testing.T) {
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	statuses := BadgeStatuses([]model.UserBadge{{UserID: 1, BadgeID: "first_word", EarnedAt: at}})

	if len(statuses) != len(model.BadgeCatalog) {
		t.Fatalf("expected %d statuses, got %d", len(model.BadgeCatalog), len(statuses))
	}
	for _, st := range statuses {
		if st.ID == "first_word" {
			if !st.Earned || st.EarnedDate == nil || !st.EarnedDate.Equal(at) {
				t.Fatalf("first_word not merged: %+v", st)
			}
		} else if st.Earned {
			t.Fatalf("%s should not be earned", st.ID)
		}
	}
}
