package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/steamlink/internal/models"
	"github.com/desertthunder/steamlink/internal/shared"
)

const accountColumns = `id, sequence, steam_id, persona_name, avatar, avatar_full, verified, last_login_at, created_at, updated_at, deleted_at`

// AccountRepository implements [models.Repository] for [models.Account] persistence.
type AccountRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.Account] = (*AccountRepository)(nil)

// NewAccountRepository creates a new [AccountRepository] with the given database connection
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts a new account with a generated ID and sequence
func (r *AccountRepository) Create(account *models.Account) error {
	sequence, err := NextSequence(r.db, "accounts")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	account.SetID(shared.GenerateID())
	account.Sequence = sequence

	if err := account.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO accounts (id, sequence, steam_id, persona_name, avatar, avatar_full, verified, last_login_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		account.ID(), account.Sequence, account.SteamID, account.PersonaName, account.Avatar, account.AvatarFull,
		account.Verified, account.LastLoginAt, account.CreatedAt(), account.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}

	return nil
}

// Get retrieves an account by ID, excluding soft-deleted accounts
func (r *AccountRepository) Get(id string) (*models.Account, error) {
	row := r.db.QueryRow("SELECT "+accountColumns+" FROM accounts WHERE id = ? AND deleted_at IS NULL", id)
	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrAccountNotFound, id)
	}
	return account, err
}

// GetBySteamID retrieves an account by its Steam ID, excluding soft-deleted accounts
func (r *AccountRepository) GetBySteamID(steamID string) (*models.Account, error) {
	row := r.db.QueryRow("SELECT "+accountColumns+" FROM accounts WHERE steam_id = ? AND deleted_at IS NULL", steamID)
	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: steam id %s", shared.ErrAccountNotFound, steamID)
	}
	return account, err
}

// Update modifies an existing account's profile and login fields
func (r *AccountRepository) Update(account *models.Account) error {
	if err := account.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	account.SetUpdatedAt(now)

	query := `
		UPDATE accounts
		SET persona_name = ?, avatar = ?, avatar_full = ?, verified = ?, last_login_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		account.PersonaName, account.Avatar, account.AvatarFull, account.Verified, account.LastLoginAt, now, account.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}

	return requireRow(result, account.ID())
}

// RecordLogin stores a completed login for account.SteamID.
//
// An existing account (including a soft-deleted one, which is restored) is updated in place and account receives its
// ID, sequence and creation time; otherwise a new account is created.
func (r *AccountRepository) RecordLogin(account *models.Account) error {
	row := r.db.QueryRow("SELECT "+accountColumns+" FROM accounts WHERE steam_id = ?", account.SteamID)
	existing, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return r.Create(account)
	}
	if err != nil {
		return err
	}

	account.SetID(existing.ID())
	account.SetCreatedAt(existing.CreatedAt())
	account.Sequence = existing.Sequence

	if existing.IsDeleted() {
		if _, err := r.db.Exec("UPDATE accounts SET deleted_at = NULL WHERE id = ?", existing.ID()); err != nil {
			return fmt.Errorf("failed to restore account: %w", err)
		}
	}

	return r.Update(account)
}

// Delete soft-deletes an account by ID
func (r *AccountRepository) Delete(id string) error {
	result, err := r.db.Exec("UPDATE accounts SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL", time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	return requireRow(result, id)
}

// List retrieves accounts matching criteria, most recent login first.
//
// Supported criteria: "verified" (bool) and "limit" (int).
func (r *AccountRepository) List(criteria map[string]any) ([]*models.Account, error) {
	query := "SELECT " + accountColumns + " FROM accounts WHERE deleted_at IS NULL"
	args := []any{}

	if verified, ok := criteria["verified"].(bool); ok {
		query += " AND verified = ?"
		args = append(args, verified)
	}

	query += " ORDER BY last_login_at DESC, sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return accounts, nil
}

func scanAccount(row scanner) (*models.Account, error) {
	var (
		id, steamID, personaName, avatar, avatarFull string
		sequence                                     int
		verified                                     bool
		lastLoginAt, createdAt, updatedAt            time.Time
		deletedAt                                    sql.NullTime
	)

	err := row.Scan(&id, &sequence, &steamID, &personaName, &avatar, &avatarFull, &verified, &lastLoginAt, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}

	account := models.NewAccount(steamID)
	account.SetID(id)
	account.Sequence = sequence
	account.PersonaName = personaName
	account.Avatar = avatar
	account.AvatarFull = avatarFull
	account.Verified = verified
	account.LastLoginAt = lastLoginAt
	account.SetCreatedAt(createdAt)
	account.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		account.SetDeletedAt(&deletedAt.Time)
	}

	return account, nil
}

func requireRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrAccountNotFound, id)
	}
	return nil
}
