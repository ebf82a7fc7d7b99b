package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Account is a Steam account that logged in through the loopback listener.
type Account struct {
	base

	Sequence    int
	SteamID     string
	PersonaName string
	Avatar      string
	AvatarFull  string
	Verified    bool // the assertion was confirmed with check_authentication
	LastLoginAt time.Time
}

var _ Model = (*Account)(nil)

// NewAccount creates an Account for steamID with creation and login times set to now.
func NewAccount(steamID string) *Account {
	now := time.Now().UTC()
	return &Account{
		base:        base{createdAt: now, updatedAt: now},
		SteamID:     steamID,
		LastLoginAt: now,
	}
}

// Validate checks that the account has an ID and a 64-bit numeric Steam ID.
func (a *Account) Validate() error {
	if a.id == "" {
		return fmt.Errorf("account id is required")
	}
	if a.SteamID == "" {
		return fmt.Errorf("steam id is required")
	}
	if len(a.SteamID) > 20 {
		return fmt.Errorf("steam id %q is too long", a.SteamID)
	}
	for _, r := range a.SteamID {
		if r < '0' || r > '9' {
			return fmt.Errorf("steam id %q is not numeric", a.SteamID)
		}
	}
	return nil
}

// DisplayName returns the persona name, falling back to the Steam ID.
func (a *Account) DisplayName() string {
	if a.PersonaName != "" {
		return a.PersonaName
	}
	return a.SteamID
}

type accountJSON struct {
	ID          string    `json:"id"`
	SteamID     string    `json:"steam_id"`
	PersonaName string    `json:"persona_name,omitempty"`
	Avatar      string    `json:"avatar,omitempty"`
	AvatarFull  string    `json:"avatar_full,omitempty"`
	Verified    bool      `json:"verified"`
	LastLoginAt time.Time `json:"last_login_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// MarshalJSON implements [json.Marshaler].
func (a *Account) MarshalJSON() ([]byte, error) {
	return json.Marshal(accountJSON{
		ID:          a.id,
		SteamID:     a.SteamID,
		PersonaName: a.PersonaName,
		Avatar:      a.Avatar,
		AvatarFull:  a.AvatarFull,
		Verified:    a.Verified,
		LastLoginAt: a.LastLoginAt,
		CreatedAt:   a.createdAt,
	})
}
