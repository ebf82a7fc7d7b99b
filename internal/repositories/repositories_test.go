package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/steamlink/internal/models"
	"github.com/desertthunder/steamlink/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(shared.MemoryDatabase)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(db, "accounts")
		if err != nil {
			t.Fatalf("failed to get sequence: %v", err)
		}
		if got != want {
			t.Errorf("expected sequence %d, got %d", want, got)
		}
	}

	if _, err := NextSequence(db, "missing"); err == nil {
		t.Error("expected error for unknown sequence table")
	}
}

func TestAccountRepository(t *testing.T) {
	const steamID = "76561198185501646"

	t.Run("Create", func(t *testing.T) {
		repo := NewAccountRepository(setupTestDB(t))
		account := models.NewAccount(steamID)
		account.PersonaName = "gaben"

		if err := repo.Create(account); err != nil {
			t.Fatalf("failed to create account: %v", err)
		}
		if account.ID() == "" {
			t.Error("account ID should be set after creation")
		}
		if account.Sequence != 1 {
			t.Errorf("expected sequence 1, got %d", account.Sequence)
		}
	})

	t.Run("Create rejects invalid steam id", func(t *testing.T) {
		repo := NewAccountRepository(setupTestDB(t))

		if err := repo.Create(models.NewAccount("not-a-number")); err == nil {
			t.Error("expected validation error")
		}
	})

	t.Run("Create rejects duplicate steam id", func(t *testing.T) {
		repo := NewAccountRepository(setupTestDB(t))

		if err := repo.Create(models.NewAccount(steamID)); err != nil {
			t.Fatalf("failed to create account: %v", err)
		}
		if err := repo.Create(models.NewAccount(steamID)); err == nil {
			t.Error("expected unique constraint error")
		}
	})

	t.Run("Get and GetBySteamID", func(t *testing.T) {
		repo := NewAccountRepository(setupTestDB(t))
		account := models.NewAccount(steamID)
		account.PersonaName = "gaben"
		account.Avatar = "https://avatars.example/a.jpg"
		account.Verified = true

		if err := repo.Create(account); err != nil {
			t.Fatalf("failed to create account: %v", err)
		}

		byID, err := repo.Get(account.ID())
		if err != nil {
			t.Fatalf("failed to get account: %v", err)
		}
		bySteam, err := repo.GetBySteamID(steamID)
		if err != nil {
			t.Fatalf("failed to get account by steam id: %v", err)
		}

		for _, got := range []*models.Account{byID, bySteam} {
			if got.ID() != account.ID() || got.SteamID != steamID {
				t.Errorf("unexpected account: %+v", got)
			}
			if got.PersonaName != "gaben" || got.Avatar != account.Avatar || !got.Verified {
				t.Errorf("profile fields not persisted: %+v", got)
			}
			if got.LastLoginAt.IsZero() || got.CreatedAt().IsZero() {
				t.Error("expected timestamps to be persisted")
			}
		}
	})

	t.Run("Get missing account", func(t *testing.T) {
		repo := NewAccountRepository(setupTestDB(t))

		if _, err := repo.Get("nope"); !errors.Is(err, shared.ErrAccountNotFound) {
			t.Errorf("expected ErrAccountNotFound, got %v", err)
		}
		if _, err := repo.GetBySteamID(steamID); !errors.Is(err, shared.ErrAccountNotFound) {
			t.Errorf("expected ErrAccountNotFound, got %v", err)
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewAccountRepository(setupTestDB(t))
		account := models.NewAccount(steamID)
		if err := repo.Create(account); err != nil {
			t.Fatalf("failed to create account: %v", err)
		}

		account.PersonaName = "renamed"
		if err := repo.Update(account); err != nil {
			t.Fatalf("failed to update account: %v", err)
		}

		got, err := repo.Get(account.ID())
		if err != nil {
			t.Fatalf("failed to get account: %v", err)
		}
		if got.PersonaName != "renamed" {
			t.Errorf("expected renamed, got %s", got.PersonaName)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewAccountRepository(setupTestDB(t))
		account := models.NewAccount(steamID)
		if err := repo.Create(account); err != nil {
			t.Fatalf("failed to create account: %v", err)
		}

		if err := repo.Delete(account.ID()); err != nil {
			t.Fatalf("failed to delete account: %v", err)
		}
		if _, err := repo.Get(account.ID()); !errors.Is(err, shared.ErrAccountNotFound) {
			t.Errorf("expected deleted account to be hidden, got %v", err)
		}
		if err := repo.Delete(account.ID()); !errors.Is(err, shared.ErrAccountNotFound) {
			t.Errorf("expected second delete to fail, got %v", err)
		}
	})

	t.Run("RecordLogin", func(t *testing.T) {
		t.Run("creates a new account", func(t *testing.T) {
			repo := NewAccountRepository(setupTestDB(t))
			account := models.NewAccount(steamID)

			if err := repo.RecordLogin(account); err != nil {
				t.Fatalf("failed to record login: %v", err)
			}
			if _, err := repo.GetBySteamID(steamID); err != nil {
				t.Errorf("expected account to exist: %v", err)
			}
		})

		t.Run("updates an existing account", func(t *testing.T) {
			repo := NewAccountRepository(setupTestDB(t))
			first := models.NewAccount(steamID)
			first.PersonaName = "old"
			if err := repo.RecordLogin(first); err != nil {
				t.Fatalf("failed to record first login: %v", err)
			}

			second := models.NewAccount(steamID)
			second.PersonaName = "new"
			second.LastLoginAt = first.LastLoginAt.Add(time.Hour)
			if err := repo.RecordLogin(second); err != nil {
				t.Fatalf("failed to record second login: %v", err)
			}

			if second.ID() != first.ID() || second.Sequence != first.Sequence {
				t.Errorf("expected second login to reuse the account, got %s/%d", second.ID(), second.Sequence)
			}

			accounts, err := repo.List(nil)
			if err != nil {
				t.Fatalf("failed to list: %v", err)
			}
			if len(accounts) != 1 || accounts[0].PersonaName != "new" {
				t.Errorf("expected one updated account, got %+v", accounts)
			}
		})

		t.Run("restores a deleted account", func(t *testing.T) {
			repo := NewAccountRepository(setupTestDB(t))
			account := models.NewAccount(steamID)
			if err := repo.RecordLogin(account); err != nil {
				t.Fatalf("failed to record login: %v", err)
			}
			if err := repo.Delete(account.ID()); err != nil {
				t.Fatalf("failed to delete: %v", err)
			}

			again := models.NewAccount(steamID)
			if err := repo.RecordLogin(again); err != nil {
				t.Fatalf("failed to record login after delete: %v", err)
			}
			if again.ID() != account.ID() {
				t.Errorf("expected restored account to keep its id")
			}
			if _, err := repo.Get(account.ID()); err != nil {
				t.Errorf("expected restored account to be visible: %v", err)
			}
		})
	})

	t.Run("List", func(t *testing.T) {
		repo := NewAccountRepository(setupTestDB(t))
		base := time.Now().UTC()

		for i, id := range []string{"1001", "1002", "1003"} {
			a := models.NewAccount(id)
			a.LastLoginAt = base.Add(time.Duration(i) * time.Minute)
			a.Verified = i != 1
			if err := repo.Create(a); err != nil {
				t.Fatalf("failed to create %s: %v", id, err)
			}
		}

		all, err := repo.List(map[string]any{})
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(all) != 3 || all[0].SteamID != "1003" || all[2].SteamID != "1001" {
			t.Errorf("expected most recent login first, got %v", steamIDs(all))
		}

		verified, err := repo.List(map[string]any{"verified": true})
		if err != nil {
			t.Fatalf("failed to list verified: %v", err)
		}
		if len(verified) != 2 {
			t.Errorf("expected 2 verified accounts, got %v", steamIDs(verified))
		}

		limited, err := repo.List(map[string]any{"limit": 1})
		if err != nil {
			t.Fatalf("failed to list with limit: %v", err)
		}
		if len(limited) != 1 || limited[0].SteamID != "1003" {
			t.Errorf("expected only the latest account, got %v", steamIDs(limited))
		}
	})
}

func steamIDs(accounts []*models.Account) []string {
	ids := make([]string, len(accounts))
	for i, a := range accounts {
		ids[i] = a.SteamID
	}
	return ids
}
