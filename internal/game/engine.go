/*
Package game
File: engine.go
Description:
    The survival engine for the moonbase phase. Two periodic jobs keep the
    base alive or kill it: a decay tick that bleeds the four gauges every
    second, and a day tick that advances the moon day and checks for victory.
    Reaching a terminal state stops both jobs permanently.

    The engine also owns the build-resource pool and module construction.
*/

package game

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

// Status is the engine's state machine position.
type Status string

const (
	StatusRunning Status = "running"
	StatusWon     Status = "won"
	StatusLost    Status = "lost"
)

// Loss reasons, reported in fixed evaluation order: oxygen, power, morale.
// Food runs out quietly; hunger alone does not end the mission.
const (
	LossOxygen = "Oxygen depleted!"
	LossPower  = "Power failure!"
	LossMorale = "Crew morale collapsed!"
)

// Build rejections. These are expected player-facing conditions, not faults.
var (
	ErrModuleUnknown    = errors.New("unknown module type")
	ErrModuleBuilt      = errors.New("module already built")
	ErrNoBuildResources = errors.New("not enough build resources")
	ErrMissionOver      = errors.New("mission is already over")
	ErrWrongPhase       = errors.New("base construction requires the moonbase phase")
)

// Announcement is pushed to the engine's listener when something worth
// broadcasting happens (day boundary, mission end).
type Announcement struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Engine drives time-based state evolution for one mission session.
type Engine struct {
	store *Store
	bal   *Balance
	sched Scheduler

	// Announce, when set, receives day pulses and terminal transitions.
	// Must be set before Start.
	Announce func(Announcement)

	mu         sync.Mutex
	status     Status
	lossReason string
	buildPool  int
	habitats   int // Built habitats, each regenerating oxygen every tick
	stops      []func()
	started    bool
}

// NewEngine creates an idle engine. Call Start when the moonbase phase begins.
func NewEngine(store *Store, bal *Balance, sched Scheduler) *Engine {
	return &Engine{
		store:     store,
		bal:       bal,
		sched:     sched,
		status:    StatusRunning,
		buildPool: bal.BuildPool,
	}
}

// Start launches the decay and day timers. Calling Start twice is a no-op.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started || e.status != StatusRunning {
		return
	}
	e.started = true
	e.stops = append(e.stops,
		e.sched.Every(time.Duration(e.bal.DecayIntervalSecs)*time.Second, e.DecayTick),
		e.sched.Every(time.Duration(e.bal.DayDurationSecs)*time.Second, e.AdvanceDay),
	)
	log.Println("SIM: Moonbase survival loop online")
}

// Stop cancels the timers without declaring an outcome (session teardown).
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelTimersLocked()
}

func (e *Engine) cancelTimersLocked() {
	for _, stop := range e.stops {
		stop()
	}
	e.stops = nil
}

// Status returns the current state machine position.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// LossReason returns the displayed failure reason, empty unless lost.
func (e *Engine) LossReason() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lossReason
}

// BuildPool returns the remaining build resources.
func (e *Engine) BuildPool() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buildPool
}

// DecayTick applies one second of resource decay plus habitat regeneration in
// a single commit, then evaluates the loss conditions against the post-tick
// state. Exported so tests (and the scheduler) can drive it directly.
func (e *Engine) DecayTick() {
	e.mu.Lock()
	if e.status != StatusRunning {
		e.mu.Unlock()
		return
	}
	habitats := e.habitats
	e.mu.Unlock()

	// One atomic commit per tick: decay on all four gauges, with each habitat
	// feeding the scrubbers. Deltas from concurrent mutators are never lost.
	st := e.store.AdjustGauges(
		float64(habitats)*e.bal.Effects.HabitatOxygenPerTick-e.bal.Decay.Oxygen,
		-e.bal.Decay.Power,
		-e.bal.Decay.Food,
		-e.bal.Decay.Morale,
	)

	// Loss check uses the state after the whole tick landed. First match wins.
	switch {
	case st.Oxygen <= 0:
		e.lose(LossOxygen)
	case st.Power <= 0:
		e.lose(LossPower)
	case st.Morale <= 0:
		e.lose(LossMorale)
	}
}

// AdvanceDay moves the mission to the next moon day and, from the fifth day
// on, re-checks the victory conditions at every boundary.
func (e *Engine) AdvanceDay() {
	e.mu.Lock()
	if e.status != StatusRunning {
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	day := e.store.AdvanceDay()
	e.store.AddEvent(fmt.Sprintf("Day %d on the Moon", day))
	e.announce(Announcement{Type: "day_pulse", Payload: map[string]any{"day": day}})

	if day >= e.bal.Win.MinDays {
		e.checkWin()
	}
}

// checkWin declares victory when enough modules stand and the crew still wants
// to be here. Called only at day boundaries with day >= MinDays.
func (e *Engine) checkWin() {
	st := e.store.State()
	if e.store.BuiltModuleCount() >= e.bal.Win.MinModules && st.Morale >= e.bal.Win.MinMorale {
		e.mu.Lock()
		if e.status != StatusRunning {
			e.mu.Unlock()
			return
		}
		e.status = StatusWon
		e.cancelTimersLocked()
		e.mu.Unlock()

		e.store.CompleteObjective("survive")
		e.store.AddEvent("Mission success! The first Wichita moonbase is established.")
		log.Println("SIM: Mission SUCCESS")
		e.announce(Announcement{Type: "mission_over", Payload: map[string]any{"outcome": string(StatusWon)}})
	}
}

// lose enters the terminal lost state and freezes the simulation.
func (e *Engine) lose(reason string) {
	e.mu.Lock()
	if e.status != StatusRunning {
		e.mu.Unlock()
		return
	}
	e.status = StatusLost
	e.lossReason = reason
	e.cancelTimersLocked()
	e.mu.Unlock()

	e.store.AddEvent("Mission failed: " + reason)
	log.Printf("SIM: Mission FAILED (%s)", reason)
	e.announce(Announcement{
		Type:    "mission_over",
		Payload: map[string]any{"outcome": string(StatusLost), "reason": reason},
	})
}

func (e *Engine) announce(a Announcement) {
	if e.Announce != nil {
		e.Announce(a)
	}
}

// BuildModule constructs a module, deducting its cost from the build pool and
// applying its effect. Each type is a single slot: once built it can never be
// rebuilt or replaced.
func (e *Engine) BuildModule(t ModuleType) error {
	entry := e.bal.ModuleSpec(t)
	if entry == nil {
		return ErrModuleUnknown
	}
	// Construction is a base-management action; there is nothing to build on
	// during exploration or the launch transit.
	if e.store.State().Phase != PhaseMoonbase {
		return ErrWrongPhase
	}

	e.mu.Lock()
	if e.status != StatusRunning {
		e.mu.Unlock()
		return ErrMissionOver
	}
	if e.store.HasModule(t) {
		e.mu.Unlock()
		return ErrModuleBuilt
	}
	if e.buildPool < entry.Cost {
		e.mu.Unlock()
		return ErrNoBuildResources
	}

	e.buildPool -= entry.Cost
	switch t {
	case ModuleHabitat:
		e.habitats++
	case ModuleStorage:
		e.buildPool += e.bal.Effects.StoragePoolBonus
	}
	e.mu.Unlock()

	e.store.AddModule(t)
	e.store.CompleteObjective(objectiveForModule(t))
	e.store.AddEvent(fmt.Sprintf("Built %s module", t))

	switch t {
	case ModuleLab:
		e.store.UpdateResource("morale", e.bal.Effects.LabMoraleBonus)
	case ModuleCommunications:
		e.store.UpdateResource("morale", e.bal.Effects.CommsMoraleBonus)
	}

	log.Printf("SIM: Built %s (pool now %d)", t, e.BuildPool())
	return nil
}

// objectiveForModule maps a module type to its build objective ID.
func objectiveForModule(t ModuleType) string {
	if t == ModuleCommunications {
		return "build-comms"
	}
	return "build-" + string(t)
}
