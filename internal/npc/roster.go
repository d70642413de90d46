/*
Package npc
File: roster.go
Description:
    Loads the static crew roster from 'npcs.json' and validates it against the
    JSON schema in 'schemas/npcs.schema.json'. The roster is immutable for the
    process lifetime (SIGHUP swaps in a freshly loaded copy).
*/

package npc

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Traits steer how a crew member reacts to the player, each in [0,1].
type Traits struct {
	Optimism      float64 `json:"optimism"`
	RiskTolerance float64 `json:"risk_tolerance"`
	Technical     float64 `json:"technical"`
}

// NPC is one crew member's static configuration.
type NPC struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Role         string   `json:"role"`
	Personality  string   `json:"personality"`
	Expertise    []string `json:"expertise,omitempty"`
	SystemPrompt string   `json:"systemPrompt"` // Behavior-directing prompt for the dialogue model
	Traits       Traits   `json:"traits"`
	Avatar       string   `json:"avatar,omitempty"`
	Scene        string   `json:"scene,omitempty"` // Which client scene the character appears in
}

// Roster is the validated crew list with an ID index.
type Roster struct {
	list []NPC
	byID map[string]NPC
}

// LoadRoster reads and validates the roster file. A roster that fails schema
// validation is rejected outright so malformed crew entries surface here, at
// startup, instead of as broken chat sessions later.
func LoadRoster(dataPath, schemaPath string) (*Roster, error) {
	raw, err := os.ReadFile(dataPath)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}

	schema, err := jsonschema.Compile(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("compile roster schema: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse roster: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("validate roster: %w", err)
	}

	var file struct {
		NPCs []NPC `json:"npcs"`
	}
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode roster: %w", err)
	}

	byID := make(map[string]NPC, len(file.NPCs))
	for _, n := range file.NPCs {
		if _, dup := byID[n.ID]; dup {
			return nil, fmt.Errorf("duplicate crew id %q", n.ID)
		}
		byID[n.ID] = n
	}

	return &Roster{list: file.NPCs, byID: byID}, nil
}

// All returns the crew in file order.
func (r *Roster) All() []NPC {
	return append([]NPC(nil), r.list...)
}

// Get looks up a crew member by ID.
func (r *Roster) Get(id string) (NPC, bool) {
	n, ok := r.byID[id]
	return n, ok
}
