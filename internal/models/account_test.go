package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestAccount(t *testing.T) {
	t.Run("Validate", func(t *testing.T) {
		tc := []struct {
			name    string
			id      string
			steamID string
			wantErr bool
		}{
			{name: "valid", id: "abc", steamID: "76561198185501646"},
			{name: "missing id", steamID: "76561198185501646", wantErr: true},
			{name: "missing steam id", id: "abc", wantErr: true},
			{name: "non-numeric steam id", id: "abc", steamID: "7656x", wantErr: true},
			{name: "too long", id: "abc", steamID: strings.Repeat("1", 21), wantErr: true},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				a := NewAccount(tt.steamID)
				a.SetID(tt.id)

				err := a.Validate()
				if (err != nil) != tt.wantErr {
					t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
				}
			})
		}
	})

	t.Run("DisplayName", func(t *testing.T) {
		a := NewAccount("76561198185501646")
		if a.DisplayName() != "76561198185501646" {
			t.Errorf("expected steam id fallback, got %s", a.DisplayName())
		}

		a.PersonaName = "gaben"
		if a.DisplayName() != "gaben" {
			t.Errorf("expected persona name, got %s", a.DisplayName())
		}
	})

	t.Run("MarshalJSON", func(t *testing.T) {
		a := NewAccount("76561198185501646")
		a.SetID("acc-1")
		a.Verified = true

		data, err := json.Marshal(a)
		if err != nil {
			t.Fatalf("failed to marshal: %v", err)
		}

		var got map[string]any
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("failed to unmarshal: %v", err)
		}
		if got["id"] != "acc-1" || got["steam_id"] != "76561198185501646" || got["verified"] != true {
			t.Errorf("unexpected JSON: %s", data)
		}
		if _, ok := got["persona_name"]; ok {
			t.Errorf("expected empty persona name to be omitted: %s", data)
		}
	})
}
