package users

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/scanlyhq/scanly-backend/pkg/db/models"
	pkgerrors "github.com/scanlyhq/scanly-backend/pkg/errors"
)

type fakeUsersRepo struct {
	users   map[uuid.UUID]*models.User
	updates int
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{users: make(map[uuid.UUID]*models.User)}
}

func (f *fakeUsersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUsersRepo) Update(ctx context.Context, user *models.User) error {
	f.updates++
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func seedProfileUser(repo *fakeUsersRepo) *models.User {
	user := &models.User{
		ID:         uuid.New(),
		Email:      "holder@example.com",
		Name:       "Holder",
		NumberOfQR: 3,
		CreatedAt:  time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC),
	}
	repo.users[user.ID] = user
	return user
}

func TestGetProfile(t *testing.T) {
	repo := newFakeUsersRepo()
	user := seedProfileUser(repo)
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("service setup: %v", err)
	}

	profile, err := svc.GetProfile(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if profile.Email != "holder@example.com" {
		t.Fatalf("unexpected email %q", profile.Email)
	}
	if profile.NumberOfQR != 3 {
		t.Fatalf("expected qr count 3, got %d", profile.NumberOfQR)
	}
}

func TestGetProfileUnknownUser(t *testing.T) {
	svc, err := NewService(newFakeUsersRepo())
	if err != nil {
		t.Fatalf("service setup: %v", err)
	}

	_, err = svc.GetProfile(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateProfileTrimsName(t *testing.T) {
	repo := newFakeUsersRepo()
	user := seedProfileUser(repo)
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("service setup: %v", err)
	}

	name := "  New Name  "
	profile, err := svc.UpdateProfile(context.Background(), user.ID, UpdateProfileInput{Name: &name})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if profile.Name != "New Name" {
		t.Fatalf("expected trimmed name, got %q", profile.Name)
	}
	if repo.updates != 1 {
		t.Fatalf("expected one update, got %d", repo.updates)
	}
}

func TestUpdateProfileNilNameKeepsCurrent(t *testing.T) {
	repo := newFakeUsersRepo()
	user := seedProfileUser(repo)
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("service setup: %v", err)
	}

	profile, err := svc.UpdateProfile(context.Background(), user.ID, UpdateProfileInput{})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if profile.Name != "Holder" {
		t.Fatalf("expected name unchanged, got %q", profile.Name)
	}
}

func TestProfileRejectsMissingIdentity(t *testing.T) {
	svc, err := NewService(newFakeUsersRepo())
	if err != nil {
		t.Fatalf("service setup: %v", err)
	}

	_, err = svc.GetProfile(context.Background(), uuid.Nil)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
