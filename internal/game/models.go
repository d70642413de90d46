/*
Package game
File: models.go
Description:
    Defines all data structures (Structs) used by the moonbase mission.
    This file serves as the "schema" for the application, mapping directly to
    the YAML balance file and the JSON payloads exchanged with the browser client.

    No logic is performed here; this file is strictly for type definitions.
*/

package game

// Phase identifies the stage of the mission. Phases only ever advance forward.
type Phase string

const (
	PhaseExploration Phase = "exploration" // Walking around Wichita collecting supplies
	PhaseLaunch      Phase = "launch"      // Rocket transit cutscene
	PhaseMoonbase    Phase = "moonbase"    // Base management / survival simulation
)

// phaseOrder is used to enforce forward-only phase transitions.
var phaseOrder = map[Phase]int{
	PhaseExploration: 0,
	PhaseLaunch:      1,
	PhaseMoonbase:    2,
}

// ModuleType identifies a buildable base module.
type ModuleType string

const (
	ModuleLanding        ModuleType = "landing" // Pre-built at touchdown, not a win module
	ModuleHabitat        ModuleType = "habitat"
	ModuleLab            ModuleType = "lab"
	ModuleCommunications ModuleType = "communications"
	ModuleStorage        ModuleType = "storage"
)

// Speaker values for conversation log entries.
const (
	SpeakerPlayer = "player"
	SpeakerNPC    = "npc"
)

// InventoryItem is a collectible picked up during the exploration phase.
type InventoryItem struct {
	ID          string `json:"id"`                    // Unique per item; duplicate adds are guarded by callers
	Name        string `json:"name"`                  // Display name
	Description string `json:"description,omitempty"` // Flavor text
	Icon        string `json:"icon,omitempty"`        // Sprite key used by the client
}

// Objective is a single mission goal. Required objectives gate phase transitions.
type Objective struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	Required    bool   `json:"required"`
}

// GameState is the single authoritative mission record. It is owned exclusively
// by the Store; everything outside the Store only ever sees copies.
type GameState struct {
	Phase        Phase           `json:"phase"`
	Oxygen       float64         `json:"oxygen"` // Gauges are clamped to [0,100] on every commit
	Power        float64         `json:"power"`
	Food         float64         `json:"food"`
	Morale       float64         `json:"morale"`
	Day          int             `json:"day"`          // Starts at 1, never decreases
	Inventory    []InventoryItem `json:"inventory"`    // Ordered, unique by ID
	ModulesBuilt []ModuleType    `json:"modulesBuilt"` // Set of built module types
	Objectives   []Objective     `json:"objectives"`   // Replaced wholesale on phase transition
	RecentEvents []string        `json:"recentEvents"` // Last 5 events, FIFO
}

// ConversationMessage is one line of the session chat log. The log lives next
// to the GameState in the Store but is independent of it.
type ConversationMessage struct {
	Speaker   string `json:"speaker"`           // "player" or "npc"
	NPCID     string `json:"npcId,omitempty"`   // Set when Speaker is "npc"
	NPCName   string `json:"npcName,omitempty"` // Display name of the speaking crew member
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"` // RFC 3339
}

// ModuleSpec is the build catalog entry for one module type.
type ModuleSpec struct {
	Type      ModuleType `yaml:"type" json:"type"`
	Cost      int        `yaml:"cost" json:"cost"`             // Build-resource pool cost
	BuildSecs int        `yaml:"build_secs" json:"build_secs"` // Construction animation length on the client
}
