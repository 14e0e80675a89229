package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sweetyp18/meetpass-webapp/internal/persistence"
	"github.com/sweetyp18/meetpass-webapp/internal/testfixtures"
)

func TestUserRepository(t *testing.T) {
	t.Parallel()

	t.Run("round-trips an account through every lookup", func(t *testing.T) {
		t.Parallel()

		pool := newTestPool(t)
		repo := NewUserRepository(pool)
		ctx := context.Background()

		user := testfixtures.NewUserFixture().Persistence()
		if err := repo.CreateUser(ctx, user); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}

		byID, err := repo.GetUser(ctx, user.ID)
		if err != nil {
			t.Fatalf("GetUser failed: %v", err)
		}
		if byID.RegNo != user.RegNo || byID.PasswordHash != user.PasswordHash {
			t.Fatalf("unexpected record: %+v", byID)
		}
		if !byID.CreatedAt.Equal(user.CreatedAt) {
			t.Fatalf("expected CreatedAt %v, got %v", user.CreatedAt, byID.CreatedAt)
		}

		byRegNo, err := repo.GetUserByRegNo(ctx, user.RegNo)
		if err != nil {
			t.Fatalf("GetUserByRegNo failed: %v", err)
		}
		if byRegNo.ID != user.ID {
			t.Fatalf("expected %s, got %s", user.ID, byRegNo.ID)
		}

		byEmail, err := repo.GetUserByEmail(ctx, user.Email)
		if err != nil {
			t.Fatalf("GetUserByEmail failed: %v", err)
		}
		if byEmail.ID != user.ID {
			t.Fatalf("expected %s, got %s", user.ID, byEmail.ID)
		}
	})

	t.Run("email lookups are case-insensitive", func(t *testing.T) {
		t.Parallel()

		pool := newTestPool(t)
		repo := NewUserRepository(pool)
		ctx := context.Background()

		user := testfixtures.NewUserFixture(testfixtures.WithUserEmail("mixed@example.edu")).Persistence()
		if err := repo.CreateUser(ctx, user); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}

		if _, err := repo.GetUserByEmail(ctx, "Mixed@Example.EDU"); err != nil {
			t.Fatalf("GetUserByEmail should normalize case, got %v", err)
		}
	})

	t.Run("duplicate regno is ErrDuplicate", func(t *testing.T) {
		t.Parallel()

		pool := newTestPool(t)
		repo := NewUserRepository(pool)
		ctx := context.Background()

		first := testfixtures.NewUserFixture().Persistence()
		if err := repo.CreateUser(ctx, first); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}

		second := testfixtures.NewUserFixture(testfixtures.WithUserRegNo(first.RegNo)).Persistence()
		if err := repo.CreateUser(ctx, second); !errors.Is(err, persistence.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("duplicate email is ErrDuplicate", func(t *testing.T) {
		t.Parallel()

		pool := newTestPool(t)
		repo := NewUserRepository(pool)
		ctx := context.Background()

		first := testfixtures.NewUserFixture().Persistence()
		if err := repo.CreateUser(ctx, first); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}

		second := testfixtures.NewUserFixture(testfixtures.WithUserEmail(first.Email)).Persistence()
		if err := repo.CreateUser(ctx, second); !errors.Is(err, persistence.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("unknown roles violate the check constraint", func(t *testing.T) {
		t.Parallel()

		pool := newTestPool(t)
		repo := NewUserRepository(pool)

		user := testfixtures.NewUserFixture().Persistence()
		user.Role = "admin"
		if err := repo.CreateUser(context.Background(), user); !errors.Is(err, persistence.ErrConstraintViolation) {
			t.Fatalf("expected ErrConstraintViolation, got %v", err)
		}
	})

	t.Run("missing accounts surface ErrNotFound", func(t *testing.T) {
		t.Parallel()

		pool := newTestPool(t)
		repo := NewUserRepository(pool)
		ctx := context.Background()

		if _, err := repo.GetUser(ctx, "missing"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if _, err := repo.GetUserByRegNo(ctx, "9XX99XX999"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("UpdatePasswordHash replaces the stored hash", func(t *testing.T) {
		t.Parallel()

		pool := newTestPool(t)
		repo := NewUserRepository(pool)
		ctx := context.Background()

		user := testfixtures.NewUserFixture().Persistence()
		if err := repo.CreateUser(ctx, user); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}

		updatedAt := user.UpdatedAt.Add(time.Hour)
		if err := repo.UpdatePasswordHash(ctx, user.ID, "new-hash", updatedAt); err != nil {
			t.Fatalf("UpdatePasswordHash failed: %v", err)
		}

		stored, err := repo.GetUser(ctx, user.ID)
		if err != nil {
			t.Fatalf("GetUser failed: %v", err)
		}
		if stored.PasswordHash != "new-hash" {
			t.Fatalf("expected new-hash, got %q", stored.PasswordHash)
		}
		if !stored.UpdatedAt.Equal(updatedAt) {
			t.Fatalf("expected UpdatedAt %v, got %v", updatedAt, stored.UpdatedAt)
		}

		if err := repo.UpdatePasswordHash(ctx, "missing", "hash", updatedAt); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
