package service

import (
	"bytes"
	"context"
	"errors"
	"kiriboka_backend/internal/config"
	"kiriboka_backend/internal/model"
	"kiriboka_backend/internal/repository"
	"kiriboka_backend/internal/util"
	"strings"
	"testing"
	"time"
)

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice")

	dup := &model.User{Name: "Alice 2", Email: "ALICE@example.com", Password: "password123"}
	if err := env.auth.Register(context.Background(), dup); !errors.Is(err, util.ErrEmailRegistered) {
		t.Fatalf("expected ErrEmailRegistered, got %v", err)
	}
}

func TestRegisterForcesStudentRole(t *testing.T) {
	env := newTestEnv(t)
	user := &model.User{Name: "mallory", Email: "mallory@example.com", Password: "password123", Role: model.Admin}
	if err := env.auth.Register(context.Background(), user); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Role != model.Student {
		t.Fatalf("expected student role, got %s", user.Role)
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "alice")
	env.auth.Now = func() time.Time { return time.Date(2024, 3, 1, 8, 0, 0, 0, time.Local) }

	if _, err := env.auth.Login(ctx, "alice@example.com", "wrong-password"); !errors.Is(err, util.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := env.auth.Login(ctx, "nobody@example.com", "password123"); !errors.Is(err, util.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	res, err := env.auth.Login(ctx, "Alice@Example.com", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Stats.Streak != 1 || res.Stats.LastLoginDate != "2024-03-01" {
		t.Fatalf("login did not record streak: %+v", res.Stats)
	}
	claims, err := util.ParseJWT(res.Token, env.cfg.JWT.Secret)
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != model.Student {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if err := env.users.DisableUser(ctx, user.ID, true); err != nil {
		t.Fatalf("DisableUser: %v", err)
	}
	if _, err := env.auth.Login(ctx, "alice@example.com", "password123"); !errors.Is(err, util.ErrUserDisabled) {
		t.Fatalf("expected ErrUserDisabled, got %v", err)
	}
}

func TestDeleteUserCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	words := env.seedWords(t, 1)

	for _, id := range []uint{alice.ID, bob.ID} {
		if _, err := env.progress.RecordLearned(ctx, id, model.WordRef(words[0].ID)); err != nil {
			t.Fatalf("RecordLearned: %v", err)
		}
	}

	if err := env.users.DeleteUser(ctx, alice.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	for _, m := range []interface{}{&model.ProgressRecord{}, &model.DayProgress{}, &model.UserStats{}, &model.UserBadge{}} {
		if n := env.count(t, m, alice.ID); n != 0 {
			t.Fatalf("%T rows left for deleted user: %d", m, n)
		}
		if n := env.count(t, m, bob.ID); n == 0 {
			t.Fatalf("%T rows of other user removed", m)
		}
	}
	if _, err := env.users.GetUserByID(ctx, alice.ID); !errors.Is(err, util.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if err := env.users.DeleteUser(ctx, alice.ID); !errors.Is(err, util.ErrUserNotFound) {
		t.Fatalf("second delete should be not found, got %v", err)
	}

	// 邮箱可以重新注册
	env.register(t, "alice")
}

func TestUpdateUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	env.register(t, "bob")

	taken := "bob@example.com"
	if _, err := env.users.UpdateUser(ctx, alice.ID, UserUpdate{Email: &taken}); !errors.Is(err, util.ErrEmailRegistered) {
		t.Fatalf("expected ErrEmailRegistered, got %v", err)
	}

	bad := model.UserRole("teacher")
	if _, err := env.users.UpdateUser(ctx, alice.ID, UserUpdate{Role: &bad}); !errors.Is(err, util.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	name := "Alice Liddell"
	admin := model.Admin
	user, err := env.users.UpdateUser(ctx, alice.ID, UserUpdate{Name: &name, Role: &admin})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if user.Name != name || user.Role != model.Admin {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestResetPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")

	temp, err := env.users.ResetPassword(ctx, alice.ID)
	if err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if _, err := env.auth.Login(ctx, "alice@example.com", "password123"); !errors.Is(err, util.ErrInvalidCredentials) {
		t.Fatalf("old password should stop working, got %v", err)
	}
	if _, err := env.auth.Login(ctx, "alice@example.com", temp); err != nil {
		t.Fatalf("login with temp password: %v", err)
	}
}

func TestEnsureAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cfg := config.AdminConfig{Email: "admin@example.com", Password: "admin-password"}

	for i := 0; i < 2; i++ {
		if err := env.users.EnsureAdmin(ctx, cfg); err != nil {
			t.Fatalf("EnsureAdmin: %v", err)
		}
	}

	users, total, err := env.users.GetUsers(ctx, 1, 10, repository.UserFilter{Role: string(model.Admin)})
	if err != nil {
		t.Fatalf("GetUsers: %v", err)
	}
	if total != 1 || len(users) != 1 || users[0].Email != "admin@example.com" {
		t.Fatalf("expected exactly one admin, got %d %+v", total, users)
	}
}

func TestUploadAvatar(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")

	// 最小 PNG 文件头
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)
	url, err := env.users.UploadAvatar(ctx, alice.ID, "me.PNG", bytes.NewReader(png), int64(len(png)))
	if err != nil {
		t.Fatalf("UploadAvatar: %v", err)
	}
	if !strings.HasPrefix(url, "/uploads/avatars/") || !strings.HasSuffix(url, ".png") {
		t.Fatalf("unexpected url %q", url)
	}

	user, err := env.users.GetUserByID(ctx, alice.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if user.Avatar != url {
		t.Fatalf("avatar not saved: %q", user.Avatar)
	}

	text := []byte("just some text, definitely not an image")
	if _, err := env.users.UploadAvatar(ctx, alice.ID, "me.png", bytes.NewReader(text), int64(len(text))); !errors.Is(err, util.ErrUnsupportedFile) {
		t.Fatalf("expected ErrUnsupportedFile, got %v", err)
	}
}
