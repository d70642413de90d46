package npc

import (
	"os"
	"path/filepath"
	"testing"
)

func realSchemaPath() string {
	return filepath.Join("..", "..", "schemas", "npcs.schema.json")
}

func TestLoadRosterShippedData(t *testing.T) {
	r, err := LoadRoster(filepath.Join("..", "..", "npcs.json"), realSchemaPath())
	if err != nil {
		t.Fatalf("load shipped roster: %v", err)
	}

	crew := r.All()
	if len(crew) != 5 {
		t.Fatalf("crew size = %d, want 5", len(crew))
	}

	mike, ok := r.Get("engineer-mike")
	if !ok {
		t.Fatal("engineer-mike missing from roster")
	}
	if mike.Name == "" || mike.Role == "" || mike.SystemPrompt == "" {
		t.Fatalf("engineer-mike incomplete: %+v", mike)
	}
	if mike.Traits.Optimism < 0 || mike.Traits.Optimism > 1 {
		t.Fatalf("optimism out of range: %v", mike.Traits.Optimism)
	}

	if _, ok := r.Get("stowaway-pat"); ok {
		t.Fatal("unknown id resolved")
	}
}

func TestLoadRosterRejectsMalformedEntries(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing traits", `{"npcs":[{"id":"x","name":"X","role":"r","systemPrompt":"p"}]}`},
		{"trait out of range", `{"npcs":[{"id":"x","name":"X","role":"r","systemPrompt":"p","traits":{"optimism":1.5,"risk_tolerance":0.5,"technical":0.5}}]}`},
		{"empty id", `{"npcs":[{"id":"","name":"X","role":"r","systemPrompt":"p","traits":{"optimism":0.5,"risk_tolerance":0.5,"technical":0.5}}]}`},
		{"no npcs", `{"npcs":[]}`},
		{"not json", `npcs: nope`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "npcs.json")
			if err := os.WriteFile(path, []byte(tc.body), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadRoster(path, realSchemaPath()); err == nil {
				t.Fatal("malformed roster accepted")
			}
		})
	}
}

func TestLoadRosterRejectsDuplicateIDs(t *testing.T) {
	body := `{"npcs":[
		{"id":"twin","name":"A","role":"r","systemPrompt":"p","traits":{"optimism":0.5,"risk_tolerance":0.5,"technical":0.5}},
		{"id":"twin","name":"B","role":"r","systemPrompt":"p","traits":{"optimism":0.5,"risk_tolerance":0.5,"technical":0.5}}
	]}`
	path := filepath.Join(t.TempDir(), "npcs.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRoster(path, realSchemaPath()); err == nil {
		t.Fatal("duplicate ids accepted")
	}
}

func TestLoadRosterMissingFile(t *testing.T) {
	if _, err := LoadRoster(filepath.Join(t.TempDir(), "absent.json"), realSchemaPath()); err == nil {
		t.Fatal("missing roster file accepted")
	}
}
