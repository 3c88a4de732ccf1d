package service

import (
	"context"
	"errors"
	"kiriboka_backend/internal/model"
	"kiriboka_backend/internal/util"
	"kiriboka_backend/pkg/database"
	"sync"
	"testing"
)

func hasBadge(ids []model.BadgeID, want model.BadgeID) bool {
	for _, id := range ids {
		if id == want {
			return true
		}
	}
	return false
}

func TestRegisterStartsAtZero(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "alice")

	view, err := env.stats.GetStats(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if view.TotalCoins != 0 || view.CurrentLevel != 1 || view.CurrentDay != 1 {
		t.Fatalf("unexpected initial stats: %+v", view.UserStats)
	}
	if len(view.Badges) != len(model.BadgeCatalog) {
		t.Fatalf("expected %d badge statuses, got %d", len(model.BadgeCatalog), len(view.Badges))
	}
	for _, b := range view.Badges {
		if b.Earned {
			t.Fatalf("badge %s earned on registration", b.ID)
		}
	}
}

func TestRecordLearnedFirstWord(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "alice")
	words := env.seedWords(t, 1)

	res, err := env.progress.RecordLearned(ctx, user.ID, model.WordRef(words[0].ID))
	if err != nil {
		t.Fatalf("RecordLearned: %v", err)
	}
	if !res.Rewarded || res.Coins != 1 {
		t.Fatalf("expected reward of 1 coin, got rewarded=%v coins=%d", res.Rewarded, res.Coins)
	}
	if !res.Record.IsLearned || res.Record.LearnedAt == nil {
		t.Fatalf("record not marked learned: %+v", res.Record)
	}
	if res.Stats.TotalCoins != 1 || res.Stats.CurrentLevel != 1 || res.Stats.TotalWordsLearned != 1 {
		t.Fatalf("unexpected stats: %+v", res.Stats)
	}
	if !hasBadge(res.NewBadges, "first_word") {
		t.Fatalf("expected first_word badge, got %v", res.NewBadges)
	}

	days, err := env.stats.ListDayProgress(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListDayProgress: %v", err)
	}
	if len(days) != 1 || days[0].Day != 1 || days[0].WordsLearned != 1 || days[0].CoinsEarned != 1 {
		t.Fatalf("unexpected day progress: %+v", days)
	}
	if days[0].Date == "" {
		t.Fatal("day progress date not stamped")
	}
}

func TestRecordLearnedIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "alice")
	words := env.seedWords(t, 1)
	ref := model.WordRef(words[0].ID)

	if _, err := env.progress.RecordLearned(ctx, user.ID, ref); err != nil {
		t.Fatalf("first RecordLearned: %v", err)
	}
	res, err := env.progress.RecordLearned(ctx, user.ID, ref)
	if err != nil {
		t.Fatalf("second RecordLearned: %v", err)
	}
	if res.Rewarded || res.Coins != 0 || len(res.NewBadges) != 0 {
		t.Fatalf("second call must not reward: %+v", res)
	}

	view, err := env.stats.GetStats(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if view.TotalCoins != 1 || view.TotalWordsLearned != 1 {
		t.Fatalf("stats changed by repeated learn: %+v", view.UserStats)
	}
	if n := env.count(t, &model.ProgressRecord{}, user.ID); n != 1 {
		t.Fatalf("expected 1 progress record, got %d", n)
	}
}

func TestHundredWordsReachLevelTwo(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "alice")
	words := env.seedWords(t, 100)

	var earned []model.BadgeID
	for _, w := range words {
		res, err := env.progress.RecordLearned(ctx, user.ID, model.WordRef(w.ID))
		if err != nil {
			t.Fatalf("RecordLearned(%d): %v", w.ID, err)
		}
		if res.Stats.CurrentLevel != model.LevelForCoins(res.Stats.TotalCoins) {
			t.Fatalf("level %d inconsistent with coins %d", res.Stats.CurrentLevel, res.Stats.TotalCoins)
		}
		earned = append(earned, res.NewBadges...)
	}

	view, err := env.stats.GetStats(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if view.TotalCoins != 100 || view.CurrentLevel != 2 || view.TotalWordsLearned != 100 {
		t.Fatalf("unexpected stats after 100 words: %+v", view.UserStats)
	}
	if !hasBadge(earned, "word_collector") {
		t.Fatalf("expected word_collector, earned %v", earned)
	}

	days, err := env.stats.ListDayProgress(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListDayProgress: %v", err)
	}
	sum := 0
	for _, d := range days {
		sum += d.WordsLearned
	}
	if sum != view.TotalWordsLearned {
		t.Fatalf("sum of day words %d != total %d", sum, view.TotalWordsLearned)
	}
}

func TestSentenceThenFavoriteKeepsCoins(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "alice")
	words := env.seedWords(t, 1)
	sentences := env.seedSentences(t, 1)

	res, err := env.progress.RecordLearned(ctx, user.ID, model.SentenceRef(sentences[0].ID))
	if err != nil {
		t.Fatalf("RecordLearned: %v", err)
	}
	if res.Coins != 3 || res.Stats.TotalSentencesLearned != 1 {
		t.Fatalf("unexpected sentence reward: %+v", res)
	}

	record, err := env.progress.ToggleFavorite(ctx, user.ID, words[0].ID)
	if err != nil {
		t.Fatalf("ToggleFavorite: %v", err)
	}
	if !record.IsFavorite || record.IsLearned {
		t.Fatalf("unexpected favorite record: %+v", record)
	}

	record, err = env.progress.ToggleFavorite(ctx, user.ID, words[0].ID)
	if err != nil {
		t.Fatalf("ToggleFavorite: %v", err)
	}
	if record.IsFavorite {
		t.Fatal("second toggle should clear favorite")
	}

	view, err := env.stats.GetStats(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if view.TotalCoins != 3 || view.TotalWordsLearned != 0 || view.TotalSentencesLearned != 1 {
		t.Fatalf("favorite toggle changed stats: %+v", view.UserStats)
	}
}

func TestFavoriteKeepsLearnedState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "alice")
	words := env.seedWords(t, 1)

	if _, err := env.progress.RecordLearned(ctx, user.ID, model.WordRef(words[0].ID)); err != nil {
		t.Fatalf("RecordLearned: %v", err)
	}
	record, err := env.progress.ToggleFavorite(ctx, user.ID, words[0].ID)
	if err != nil {
		t.Fatalf("ToggleFavorite: %v", err)
	}
	if !record.IsLearned || !record.IsFavorite {
		t.Fatalf("unexpected record: %+v", record)
	}
	if n := env.count(t, &model.ProgressRecord{}, user.ID); n != 1 {
		t.Fatalf("expected 1 progress record, got %d", n)
	}
}

func TestRecordLearnedRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "alice")
	env.seedWords(t, 1)

	tests := []struct {
		name   string
		userID uint
		ref    model.ItemRef
		want   error
	}{
		{"invalid ref", user.ID, model.ItemRef{}, util.ErrValidation},
		{"missing word", user.ID, model.WordRef(999), util.ErrItemNotFound},
		{"missing sentence", user.ID, model.SentenceRef(1), util.ErrItemNotFound},
		{"missing user", 999, model.WordRef(1), util.ErrUserNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.progress.RecordLearned(ctx, tt.userID, tt.ref)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if n := env.count(t, &model.ProgressRecord{}, user.ID); n != 0 {
		t.Fatalf("rejected requests created %d records", n)
	}
}

func TestConcurrentRecordLearnedRewardsOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "alice")
	words := env.seedWords(t, 1)
	ref := model.WordRef(words[0].ID)

	const workers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	rewarded := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := env.progress.RecordLearned(ctx, user.ID, ref)
			if err != nil {
				t.Errorf("RecordLearned: %v", err)
				return
			}
			if res.Rewarded {
				mu.Lock()
				rewarded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if rewarded != 1 {
		t.Fatalf("expected exactly one reward, got %d", rewarded)
	}
	view, err := env.stats.GetStats(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if view.TotalCoins != 1 {
		t.Fatalf("expected 1 coin, got %d", view.TotalCoins)
	}
}

func TestDayAdvanceSplitsDayProgress(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "alice")
	words := env.seedWords(t, 2)

	if _, err := env.progress.RecordLearned(ctx, user.ID, model.WordRef(words[0].ID)); err != nil {
		t.Fatalf("RecordLearned: %v", err)
	}
	stats, err := env.stats.SetCurrentDay(ctx, user.ID, 0)
	if err != nil {
		t.Fatalf("SetCurrentDay: %v", err)
	}
	if stats.CurrentDay != 2 {
		t.Fatalf("expected day 2, got %d", stats.CurrentDay)
	}
	if _, err := env.progress.RecordLearned(ctx, user.ID, model.WordRef(words[1].ID)); err != nil {
		t.Fatalf("RecordLearned: %v", err)
	}

	days, err := env.stats.ListDayProgress(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListDayProgress: %v", err)
	}
	if len(days) != 2 || days[0].Day != 1 || days[1].Day != 2 {
		t.Fatalf("unexpected day rows: %+v", days)
	}
	if days[0].WordsLearned != 1 || days[1].WordsLearned != 1 {
		t.Fatalf("unexpected day counts: %+v", days)
	}

	if _, err := env.stats.SetCurrentDay(ctx, user.ID, 1); !errors.Is(err, util.ErrValidation) {
		t.Fatalf("moving day backwards should fail with validation error, got %v", err)
	}
}

func TestListProgressFiltersByKind(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "alice")
	words := env.seedWords(t, 2)
	sentences := env.seedSentences(t, 1)

	for _, ref := range []model.ItemRef{model.WordRef(words[0].ID), model.WordRef(words[1].ID), model.SentenceRef(sentences[0].ID)} {
		if _, err := env.progress.RecordLearned(ctx, user.ID, ref); err != nil {
			t.Fatalf("RecordLearned: %v", err)
		}
	}

	all, err := env.progress.ListProgress(ctx, user.ID, "")
	if err != nil {
		t.Fatalf("ListProgress: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}
	onlyWords, err := env.progress.ListProgress(ctx, user.ID, "word")
	if err != nil {
		t.Fatalf("ListProgress: %v", err)
	}
	if len(onlyWords) != 2 {
		t.Fatalf("expected 2 word records, got %d", len(onlyWords))
	}
	if _, err := env.progress.ListProgress(ctx, user.ID, "video"); !errors.Is(err, util.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

// 任一步写入失败时整次学习记录回滚：不留记录、不发金币、不写当日汇总
func TestRecordLearnedRollsBackOnFailure(t *testing.T) {
	tests := []struct {
		name  string
		table interface{}
	}{
		{"badge write fails", &model.UserBadge{}},
		{"day progress write fails", &model.DayProgress{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			ctx := context.Background()
			user := env.register(t, "alice")
			words := env.seedWords(t, 1)
			ref := model.WordRef(words[0].ID)

			if err := env.db.Migrator().DropTable(tt.table); err != nil {
				t.Fatalf("drop table: %v", err)
			}
			if _, err := env.progress.RecordLearned(ctx, user.ID, ref); err == nil {
				t.Fatal("expected RecordLearned to fail")
			}

			if err := database.Migrate(env.db); err != nil {
				t.Fatalf("migrate: %v", err)
			}
			if n := env.count(t, &model.ProgressRecord{}, user.ID); n != 0 {
				t.Fatalf("progress records after rollback = %d", n)
			}
			if n := env.count(t, &model.DayProgress{}, user.ID); n != 0 {
				t.Fatalf("day progress rows after rollback = %d", n)
			}
			stats, err := env.stats.StatsRepo.FindByUserID(ctx, user.ID)
			if err != nil {
				t.Fatalf("FindByUserID: %v", err)
			}
			if stats.TotalCoins != 0 || stats.TotalWordsLearned != 0 || stats.CurrentLevel != 1 {
				t.Fatalf("stats changed by failed mutation: %+v", stats)
			}

			// 恢复后重试，奖励只发一次
			res, err := env.progress.RecordLearned(ctx, user.ID, ref)
			if err != nil {
				t.Fatalf("RecordLearned after restore: %v", err)
			}
			if !res.Rewarded || res.Stats.TotalCoins != 1 {
				t.Fatalf("unexpected result after restore: %+v", res)
			}
		})
	}
}
