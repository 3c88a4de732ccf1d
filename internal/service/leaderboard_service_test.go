package service

import (
	"bytes"
	"context"
	"kiriboka_backend/internal/model"
	"testing"
)

// memoryCache 进程内的排行榜缓存，记录失效次数
type memoryCache struct {
	data          []byte
	invalidations int
}

func (c *memoryCache) Get(context.Context) ([]byte, error) {
	if c.data == nil {
		return nil, errCacheMiss
	}
	return c.data, nil
}

func (c *memoryCache) Set(_ context.Context, data []byte) error {
	c.data = data
	return nil
}

func (c *memoryCache) Del(context.Context) error {
	c.data = nil
	c.invalidations++
	return nil
}

func TestLeaderboardOrdering(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	carol := env.register(t, "carol")
	words := env.seedWords(t, 1)
	sentences := env.seedSentences(t, 1)

	learn := func(userID uint, ref model.ItemRef) {
		t.Helper()
		if _, err := env.progress.RecordLearned(ctx, userID, ref); err != nil {
			t.Fatalf("RecordLearned: %v", err)
		}
	}
	// bob: 1, carol: 3, alice: 3
	learn(bob.ID, model.WordRef(words[0].ID))
	learn(carol.ID, model.SentenceRef(sentences[0].ID))
	learn(alice.ID, model.SentenceRef(sentences[0].ID))

	entries, err := env.leaderboard.Rank(ctx, 0)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	wantOrder := []uint{alice.ID, carol.ID, bob.ID}
	if len(entries) != len(wantOrder) {
		t.Fatalf("expected %d entries, got %d", len(wantOrder), len(entries))
	}
	for i, e := range entries {
		if e.UserID != wantOrder[i] || e.Rank != i+1 {
			t.Fatalf("entry %d = %+v, want user %d rank %d", i, e, wantOrder[i], i+1)
		}
	}
	if entries[0].Name != "alice" || entries[0].TotalCoins != 3 {
		t.Fatalf("unexpected top entry: %+v", entries[0])
	}

	top, err := env.leaderboard.Rank(ctx, 2)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(top) != 2 || top[1].UserID != carol.ID {
		t.Fatalf("unexpected top 2: %+v", top)
	}
}

func TestLeaderboardExcludesDeletedUsers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	if err := env.users.DeleteUser(ctx, alice.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	entries, err := env.leaderboard.Rank(ctx, 0)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(entries) != 1 || entries[0].UserID != bob.ID {
		t.Fatalf("unexpected leaderboard: %+v", entries)
	}
}

func TestLeaderboardInvalidateNilSafe(t *testing.T) {
	var s *LeaderboardService
	s.Invalidate(context.Background())
	NewLeaderboardService(nil, nil).Invalidate(context.Background())
}

func TestTruncate(t *testing.T) {
	entries := []LeaderboardEntry{{Rank: 1}, {Rank: 2}, {Rank: 3}}
	if got := truncate(entries, 0); len(got) != 3 {
		t.Fatalf("limit 0 should keep all, got %d", len(got))
	}
	if got := truncate(entries, 2); len(got) != 2 {
		t.Fatalf("expected 2, got %d", len(got))
	}
	if got := truncate(entries, 10); len(got) != 3 {
		t.Fatalf("expected 3, got %d", len(got))
	}
}

func TestLeaderboardCacheServesUntilInvalidated(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cache := &memoryCache{}
	env.leaderboard.Cache = cache

	alice := env.register(t, "alice")
	if _, err := env.leaderboard.Rank(ctx, 0); err != nil {
		t.Fatalf("Rank: %v", err)
	}

	// 绕过服务层直接改库，缓存仍返回旧值
	if err := env.db.Model(&model.User{}).Where("id = ?", alice.ID).Update("name", "sneaky").Error; err != nil {
		t.Fatal(err)
	}
	entries, err := env.leaderboard.Rank(ctx, 0)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if entries[0].Name != "alice" {
		t.Fatalf("expected cached name, got %q", entries[0].Name)
	}
}

func TestLeaderboardInvalidatedOnUserChanges(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cache := &memoryCache{}
	env.leaderboard.Cache = cache

	rank := func() []LeaderboardEntry {
		t.Helper()
		entries, err := env.leaderboard.Rank(ctx, 0)
		if err != nil {
			t.Fatalf("Rank: %v", err)
		}
		return entries
	}

	alice := env.register(t, "alice")
	if got := rank(); len(got) != 1 {
		t.Fatalf("expected 1 entry, got %+v", got)
	}

	bob := env.register(t, "bob")
	if got := rank(); len(got) != 2 || got[1].UserID != bob.ID {
		t.Fatalf("registered user missing from leaderboard: %+v", got)
	}

	created := &model.User{Name: "carol", Email: "carol@example.com", Password: "password123"}
	if err := env.users.CreateUser(ctx, created); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if got := rank(); len(got) != 3 {
		t.Fatalf("admin-created user missing from leaderboard: %+v", got)
	}

	name := "alice-renamed"
	if _, err := env.users.UpdateUser(ctx, alice.ID, UserUpdate{Name: &name}); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if got := rank(); got[0].Name != name {
		t.Fatalf("rename not visible: %+v", got[0])
	}

	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)
	url, err := env.users.UploadAvatar(ctx, alice.ID, "me.png", bytes.NewReader(png), int64(len(png)))
	if err != nil {
		t.Fatalf("UploadAvatar: %v", err)
	}
	if got := rank(); got[0].Avatar != url {
		t.Fatalf("avatar not visible: %+v", got[0])
	}

	words := env.seedWords(t, 1)
	if _, err := env.progress.RecordLearned(ctx, bob.ID, model.WordRef(words[0].ID)); err != nil {
		t.Fatalf("RecordLearned: %v", err)
	}
	if got := rank(); got[0].UserID != bob.ID || got[0].TotalCoins != 1 {
		t.Fatalf("reward not visible: %+v", got[0])
	}

	if cache.invalidations < 6 {
		t.Fatalf("expected at least 6 invalidations, got %d", cache.invalidations)
	}
}
