package service

import (
	"context"
	"errors"
	"kiriboka_backend/internal/config"
	"kiriboka_backend/internal/model"
	"kiriboka_backend/internal/util"
	"testing"
	"time"
)

func TestNextStreak(t *testing.T) {
	tests := []struct {
		name    string
		current int
		last    string
		today   string
		want    int
	}{
		{"first login", 0, "", "2024-03-01", 1},
		{"same day", 3, "2024-03-01", "2024-03-01", 3},
		{"next day", 3, "2024-03-01", "2024-03-02", 4},
		{"across month", 5, "2024-02-29", "2024-03-01", 6},
		{"gap resets", 9, "2024-03-01", "2024-03-04", 1},
		{"clock went back", 4, "2024-03-05", "2024-03-01", 4},
		{"corrupt date", 4, "yesterday", "2024-03-01", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextStreak(tt.current, tt.last, tt.today); got != tt.want {
				t.Fatalf("NextStreak(%d, %q, %q) = %d, want %d", tt.current, tt.last, tt.today, got, tt.want)
			}
		})
	}
}

func TestRecordLoginStreak(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "alice")

	day1 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local)

	stats, _, err := env.stats.RecordLogin(ctx, user.ID, day1)
	if err != nil {
		t.Fatalf("RecordLogin: %v", err)
	}
	if stats.Streak != 1 || stats.LastLoginDate != "2024-03-01" {
		t.Fatalf("unexpected first login stats: %+v", stats)
	}

	stats, _, err = env.stats.RecordLogin(ctx, user.ID, day1.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("RecordLogin: %v", err)
	}
	if stats.Streak != 1 {
		t.Fatalf("same-day login changed streak to %d", stats.Streak)
	}

	stats, _, err = env.stats.RecordLogin(ctx, user.ID, day1.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("RecordLogin: %v", err)
	}
	if stats.Streak != 2 {
		t.Fatalf("next-day login should give streak 2, got %d", stats.Streak)
	}

	stats, _, err = env.stats.RecordLogin(ctx, user.ID, day1.AddDate(0, 0, 5))
	if err != nil {
		t.Fatalf("RecordLogin: %v", err)
	}
	if stats.Streak != 1 {
		t.Fatalf("gap should reset streak, got %d", stats.Streak)
	}
}

func TestSevenDayStreakEarnsBadge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "alice")

	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local)
	var earned []model.BadgeID
	for i := 0; i < 7; i++ {
		_, badges, err := env.stats.RecordLogin(ctx, user.ID, start.AddDate(0, 0, i))
		if err != nil {
			t.Fatalf("RecordLogin day %d: %v", i, err)
		}
		earned = append(earned, badges...)
	}
	if len(earned) != 1 || earned[0] != "streak_7" {
		t.Fatalf("expected streak_7 once, got %v", earned)
	}

	// 中断后徽章保留
	if _, _, err := env.stats.RecordLogin(ctx, user.ID, start.AddDate(0, 0, 20)); err != nil {
		t.Fatalf("RecordLogin: %v", err)
	}
	view, err := env.stats.GetStats(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if view.Streak != 1 {
		t.Fatalf("expected streak reset, got %d", view.Streak)
	}
	for _, b := range view.Badges {
		if b.ID == "streak_7" && (!b.Earned || b.EarnedDate == nil) {
			t.Fatalf("streak_7 must stay earned: %+v", b)
		}
	}
}

func TestSetRewardsAppliesToNextLearn(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "alice")
	words := env.seedWords(t, 1)

	env.stats.SetRewards(config.RewardConfig{WordCoins: 5, SentenceCoins: 3})
	res, err := env.progress.RecordLearned(ctx, user.ID, model.WordRef(words[0].ID))
	if err != nil {
		t.Fatalf("RecordLearned: %v", err)
	}
	if res.Coins != 5 || res.Stats.TotalCoins != 5 {
		t.Fatalf("expected 5 coins, got %+v", res)
	}
}

func TestStatsForUnknownUser(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.stats.GetStats(context.Background(), 42); !errors.Is(err, util.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := env.stats.ListDayProgress(context.Background(), 42); !errors.Is(err, util.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
