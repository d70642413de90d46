/*
Package game
File: store.go
Description:
    The Store is the sole owner and mutator of the GameState. Every change runs
    inside a single write-locked critical section and then notifies subscribers
    synchronously, in subscription order, with the finished snapshot. Mutators
    never read outside their own critical section, so concurrent deltas (decay
    ticks racing chat morale bonuses) are never lost.

    Unlike the global variables of earlier revisions, the Store is a
    constructible instance so tests and future multi-session setups do not
    share mutable state.
*/

package game

import "sync"

const (
	maxRecentEvents    = 5  // FIFO cap on the event log
	maxConversationLog = 20 // FIFO cap on the session chat log
)

// Patch is a partial GameState update. Nil fields are left untouched; slice
// fields replace the current value wholesale when non-nil.
type Patch struct {
	Phase        *Phase
	Oxygen       *float64
	Power        *float64
	Food         *float64
	Morale       *float64
	Day          *int
	Inventory    []InventoryItem
	ModulesBuilt []ModuleType
	Objectives   []Objective
	RecentEvents []string
}

type listenerEntry struct {
	id int
	fn func(GameState)
}

// Store holds the live mission state, the session conversation log, and the
// subscriber registry. All methods are safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	state     GameState
	convo     []ConversationMessage
	listeners []listenerEntry
	nextID    int
	bal       *Balance
}

// NewStore creates a session store in the initial exploration state.
func NewStore(bal *Balance) *Store {
	s := &Store{bal: bal}
	s.state = initialState(bal)
	return s
}

// initialState is the fresh-session record: exploration phase, full gauges,
// the landing module already down, and the Wichita objectives.
func initialState(bal *Balance) GameState {
	return GameState{
		Phase:        PhaseExploration,
		Oxygen:       bal.StartingOxygen,
		Power:        bal.StartingPower,
		Food:         bal.StartingFood,
		Morale:       bal.StartingMorale,
		Day:          1,
		Inventory:    []InventoryItem{},
		ModulesBuilt: []ModuleType{ModuleLanding},
		Objectives:   objectivesForPhase(PhaseExploration),
		RecentEvents: []string{},
	}
}

// objectivesForPhase returns the full objective list for a phase. Transitions
// replace the list wholesale; objective sets from different phases never merge.
func objectivesForPhase(p Phase) []Objective {
	switch p {
	case PhaseExploration:
		return []Objective{
			{ID: "talk-commander", Description: "Talk to Commander at Century II", Required: true},
			{ID: "collect-supplies", Description: "Collect 3 supply items from Old Town", Required: true},
			{ID: "visit-museum", Description: "Visit Exploration Place", Required: true},
			{ID: "launch", Description: "Return to airport for launch", Required: true},
		}
	case PhaseMoonbase:
		return []Objective{
			{ID: "build-habitat", Description: "Build Habitat Module", Required: true},
			{ID: "build-lab", Description: "Build Laboratory Module", Required: true},
			{ID: "build-comms", Description: "Build Communications Module", Required: true},
			{ID: "build-storage", Description: "Build Storage Module", Required: true},
			{ID: "survive", Description: "Survive 5 Moon Days", Required: true},
		}
	default:
		// The launch cutscene carries no objectives of its own.
		return []Objective{}
	}
}

// cloneState deep-copies the slices so callers can never reach the live record.
func cloneState(s GameState) GameState {
	out := s
	out.Inventory = append([]InventoryItem(nil), s.Inventory...)
	out.ModulesBuilt = append([]ModuleType(nil), s.ModulesBuilt...)
	out.Objectives = append([]Objective(nil), s.Objectives...)
	out.RecentEvents = append([]string(nil), s.RecentEvents...)
	return out
}

// State returns a defensive copy of the live state.
func (s *Store) State() GameState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneState(s.state)
}

// Subscribe registers an observer and returns its unsubscribe capability.
// Subscribing or unsubscribing during a notification round is safe: each
// round iterates over a snapshot of the registry.
func (s *Store) Subscribe(fn func(GameState)) func() {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, l := range s.listeners {
			if l.id == id {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// apply runs fn on the live state under the write lock. When fn reports a
// change, subscribers are notified with the merged snapshot after the lock is
// released. The returned snapshot reflects the state after fn ran.
func (s *Store) apply(fn func(*GameState) bool) GameState {
	s.mu.Lock()
	changed := fn(&s.state)
	snapshot := cloneState(s.state)
	var registry []listenerEntry
	if changed {
		registry = append([]listenerEntry(nil), s.listeners...)
	}
	s.mu.Unlock()

	for _, l := range registry {
		l.fn(snapshot)
	}
	return snapshot
}

// Commit merges the patch into the live state, clamping gauges, then notifies
// every subscriber with the fully merged snapshot. The merge always completes
// before the first notification fires.
func (s *Store) Commit(p Patch) {
	s.apply(func(st *GameState) bool {
		if p.Phase != nil {
			st.Phase = *p.Phase
		}
		if p.Oxygen != nil {
			st.Oxygen = clampGauge(*p.Oxygen)
		}
		if p.Power != nil {
			st.Power = clampGauge(*p.Power)
		}
		if p.Food != nil {
			st.Food = clampGauge(*p.Food)
		}
		if p.Morale != nil {
			st.Morale = clampGauge(*p.Morale)
		}
		if p.Day != nil {
			st.Day = *p.Day
		}
		if p.Inventory != nil {
			st.Inventory = p.Inventory
		}
		if p.ModulesBuilt != nil {
			st.ModulesBuilt = p.ModulesBuilt
		}
		if p.Objectives != nil {
			st.Objectives = p.Objectives
		}
		if p.RecentEvents != nil {
			st.RecentEvents = p.RecentEvents
		}
		return true
	})
}

func clampGauge(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// UpdateResource adds delta to the named gauge, clamped to [0,100]. The
// read-modify-write is atomic; concurrent callers never lose a delta.
// Unknown gauge names are ignored.
func (s *Store) UpdateResource(name string, delta float64) {
	s.apply(func(st *GameState) bool {
		switch name {
		case "oxygen":
			st.Oxygen = clampGauge(st.Oxygen + delta)
		case "power":
			st.Power = clampGauge(st.Power + delta)
		case "food":
			st.Food = clampGauge(st.Food + delta)
		case "morale":
			st.Morale = clampGauge(st.Morale + delta)
		default:
			return false
		}
		return true
	})
}

// AdjustGauges applies one clamped delta per gauge in a single commit and
// returns the resulting snapshot, so a whole decay tick lands atomically and
// subscribers never observe a partial tick.
func (s *Store) AdjustGauges(oxygen, power, food, morale float64) GameState {
	return s.apply(func(st *GameState) bool {
		st.Oxygen = clampGauge(st.Oxygen + oxygen)
		st.Power = clampGauge(st.Power + power)
		st.Food = clampGauge(st.Food + food)
		st.Morale = clampGauge(st.Morale + morale)
		return true
	})
}

// AddItem appends an item to the inventory. The store does not deduplicate;
// collection code must check HasItem first.
func (s *Store) AddItem(item InventoryItem) {
	s.apply(func(st *GameState) bool {
		st.Inventory = append(st.Inventory, item)
		return true
	})
}

// HasItem reports whether an item with the given ID has been collected.
func (s *Store) HasItem(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, it := range s.state.Inventory {
		if it.ID == id {
			return true
		}
	}
	return false
}

// RemoveItem drops the item with the given ID, if present.
func (s *Store) RemoveItem(id string) {
	s.apply(func(st *GameState) bool {
		inv := make([]InventoryItem, 0, len(st.Inventory))
		for _, it := range st.Inventory {
			if it.ID != id {
				inv = append(inv, it)
			}
		}
		st.Inventory = inv
		return true
	})
}

// CompleteObjective marks the matching objective completed. Unknown IDs are a
// silent no-op; the simulation never throws over bookkeeping.
func (s *Store) CompleteObjective(id string) {
	s.apply(func(st *GameState) bool {
		for i := range st.Objectives {
			if st.Objectives[i].ID == id {
				st.Objectives[i].Completed = true
			}
		}
		return true
	})
}

// RequiredObjectivesComplete reports whether every required objective of the
// active phase is done.
func (s *Store) RequiredObjectivesComplete() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.state.Objectives {
		if o.Required && !o.Completed {
			return false
		}
	}
	return true
}

// AddModule records a built module type. Idempotent; a duplicate add changes
// nothing and notifies nobody.
func (s *Store) AddModule(t ModuleType) {
	s.apply(func(st *GameState) bool {
		for _, m := range st.ModulesBuilt {
			if m == t {
				return false
			}
		}
		st.ModulesBuilt = append(st.ModulesBuilt, t)
		return true
	})
}

// HasModule reports whether the given module type has been built.
func (s *Store) HasModule(t ModuleType) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.state.ModulesBuilt {
		if m == t {
			return true
		}
	}
	return false
}

// BuiltModuleCount counts distinct built module types, excluding the landing
// module: it is a precondition of the phase, not an achievement.
func (s *Store) BuiltModuleCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, m := range s.state.ModulesBuilt {
		if m != ModuleLanding {
			n++
		}
	}
	return n
}

// AddEvent appends to the bounded event log, evicting the oldest entry.
func (s *Store) AddEvent(text string) {
	s.apply(func(st *GameState) bool {
		st.RecentEvents = append(st.RecentEvents, text)
		if len(st.RecentEvents) > maxRecentEvents {
			st.RecentEvents = st.RecentEvents[len(st.RecentEvents)-maxRecentEvents:]
		}
		return true
	})
}

// AdvancePhase moves the mission forward and installs the new phase's
// objective list. Attempts to repeat or regress a phase are ignored.
func (s *Store) AdvancePhase(p Phase) {
	s.apply(func(st *GameState) bool {
		next, ok := phaseOrder[p]
		if !ok || next <= phaseOrder[st.Phase] {
			return false
		}
		st.Phase = p
		st.Objectives = objectivesForPhase(p)
		return true
	})
}

// AdvanceDay increments the mission day atomically and returns the new day.
func (s *Store) AdvanceDay() int {
	return s.apply(func(st *GameState) bool {
		st.Day++
		return true
	}).Day
}

// Reset restores the initial state, clears the conversation log, and notifies
// subscribers once.
func (s *Store) Reset() {
	s.mu.Lock()
	s.state = initialState(s.bal)
	s.convo = nil
	snapshot := cloneState(s.state)
	registry := append([]listenerEntry(nil), s.listeners...)
	s.mu.Unlock()

	for _, l := range registry {
		l.fn(snapshot)
	}
}

// AddConversation appends a chat line, evicting beyond capacity. The chat log
// does not trigger state notifications.
func (s *Store) AddConversation(msg ConversationMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.convo = append(s.convo, msg)
	if len(s.convo) > maxConversationLog {
		s.convo = s.convo[len(s.convo)-maxConversationLog:]
	}
}

// ConversationHistory returns the session chat log. With an npcID it returns
// every player line plus the lines spoken by that crew member; with an empty
// ID it returns the whole log.
func (s *Store) ConversationHistory(npcID string) []ConversationMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if npcID == "" {
		return append([]ConversationMessage(nil), s.convo...)
	}
	out := make([]ConversationMessage, 0, len(s.convo))
	for _, m := range s.convo {
		if m.Speaker == SpeakerPlayer || m.NPCID == npcID {
			out = append(out, m)
		}
	}
	return out
}
