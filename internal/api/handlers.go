/*
Package api
File: handlers.go
Description:
    HTTP handlers for the game API. Covers the crew roster, the AI chat
    boundary, mission state queries, exploration-phase bookkeeping, phase
    transitions, module construction and session reset.
*/

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/wichitamoon/moonbase-server/internal/game"
	"github.com/wichitamoon/moonbase-server/internal/npc"
)

// Server wires one mission session to the HTTP surface.
type Server struct {
	bal       *game.Balance
	sched     game.Scheduler
	responder *npc.Responder
	hub       *Hub // May be nil (tests)
	started   time.Time

	mu     sync.RWMutex
	store  *game.Store
	engine *game.Engine
	roster *npc.Roster
}

// NewServer builds the session server and subscribes the realtime hub to
// store commits so every connected client sees state pulses.
func NewServer(store *game.Store, bal *game.Balance, sched game.Scheduler, roster *npc.Roster, responder *npc.Responder, hub *Hub) *Server {
	s := &Server{
		bal:       bal,
		sched:     sched,
		responder: responder,
		hub:       hub,
		started:   time.Now(),
		store:     store,
		roster:    roster,
	}
	s.engine = s.newEngine()

	if hub != nil {
		store.Subscribe(func(st game.GameState) {
			hub.Broadcast(map[string]any{"type": "state_update", "payload": st})
		})
	}
	return s
}

func (s *Server) newEngine() *game.Engine {
	e := game.NewEngine(s.store, s.bal, s.sched)
	if s.hub != nil {
		e.Announce = func(a game.Announcement) { s.hub.Broadcast(a) }
	}
	return e
}

// Engine returns the current session engine.
func (s *Server) Engine() *game.Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// SetRoster swaps in a freshly loaded crew roster (SIGHUP hot reload).
func (s *Server) SetRoster(r *npc.Roster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roster = r
}

func (s *Server) currentRoster() *npc.Roster {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roster
}

// Routes registers every endpoint on a fresh mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Information endpoints
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/npc", s.handleRoster)
	mux.HandleFunc("/api/npc/get", s.handleGetNPC)
	mux.HandleFunc("/api/state", s.handleState)

	// Action endpoints
	mux.HandleFunc("/api/npc/chat", s.handleChat)
	mux.HandleFunc("/api/items/collect", s.handleCollectItem)
	mux.HandleFunc("/api/objectives/complete", s.handleCompleteObjective)
	mux.HandleFunc("/api/phase/advance", s.handleAdvancePhase)
	mux.HandleFunc("/api/build", s.handleBuild)
	mux.HandleFunc("/api/reset", s.handleReset)

	// Real-time endpoint
	if s.hub != nil {
		mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
			ServeWs(s.hub, w, r)
		})
	}

	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{
		"name":    "Wichita to the Moon - Game Backend",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health": "/health",
			"npcs":   "/api/npc",
			"chat":   "/api/npc/chat",
			"state":  "/api/state",
			"ws":     "/ws",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Seconds(),
	})
}

func (s *Server) handleRoster(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.currentRoster().All())
}

func (s *Server) handleGetNPC(w http.ResponseWriter, r *http.Request) {
	n, ok := s.currentRoster().Get(r.URL.Query().Get("id"))
	if !ok {
		http.Error(w, "NPC not found", http.StatusNotFound)
		return
	}
	writeJSON(w, n)
}

type stateResponse struct {
	State          game.GameState `json:"state"`
	Status         game.Status    `json:"status"`
	LossReason     string         `json:"lossReason,omitempty"`
	BuildResources int            `json:"buildResources"`
}

func (s *Server) stateResponse() stateResponse {
	e := s.Engine()
	return stateResponse{
		State:          s.store.State(),
		Status:         e.Status(),
		LossReason:     e.LossReason(),
		BuildResources: e.BuildPool(),
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.stateResponse())
}

// ChatRequest is the body of POST /api/npc/chat. GameState and
// ConversationHistory are optional; the server's own snapshot and log are
// used when the client omits them.
type ChatRequest struct {
	NPCID               string                     `json:"npcId"`
	PlayerMessage       string                     `json:"playerMessage"`
	GameState           *npc.GameContext           `json:"gameState"`
	ConversationHistory []game.ConversationMessage `json:"conversationHistory"`
}

type chatResponse struct {
	NPCID       string          `json:"npcId"`
	NPCName     string          `json:"npcName"`
	NPCResponse string          `json:"npcResponse"`
	MoodChange  int             `json:"moodChange"`
	Suggestion  *npc.Suggestion `json:"suggestion,omitempty"`
	Timestamp   string          `json:"timestamp"`
	Degraded    bool            `json:"degraded,omitempty"`
}

// handleChat runs the dialogue pipeline and applies its effects: both lines
// land in the conversation log and the mood delta hits crew morale.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if req.NPCID == "" || req.PlayerMessage == "" {
		http.Error(w, "Missing required fields: npcId and playerMessage", http.StatusBadRequest)
		return
	}

	n, ok := s.currentRoster().Get(req.NPCID)
	if !ok {
		http.Error(w, "NPC not found", http.StatusNotFound)
		return
	}

	gc := npc.ContextFromState(s.store.State())
	if req.GameState != nil {
		gc = *req.GameState
	}
	history := req.ConversationHistory
	if history == nil {
		history = s.store.ConversationHistory(req.NPCID)
	}

	reply := s.responder.Generate(r.Context(), n, gc, history, req.PlayerMessage)
	stamp := reply.Timestamp.Format(time.RFC3339)

	s.store.AddConversation(game.ConversationMessage{
		Speaker:   game.SpeakerPlayer,
		Message:   req.PlayerMessage,
		Timestamp: stamp,
	})
	s.store.AddConversation(game.ConversationMessage{
		Speaker:   game.SpeakerNPC,
		NPCID:     n.ID,
		NPCName:   n.Name,
		Message:   reply.Text,
		Timestamp: stamp,
	})

	if reply.MoodDelta != 0 {
		s.store.UpdateResource("morale", float64(reply.MoodDelta))
	}

	writeJSON(w, chatResponse{
		NPCID:       n.ID,
		NPCName:     n.Name,
		NPCResponse: reply.Text,
		MoodChange:  reply.MoodDelta,
		Suggestion:  reply.Suggestion,
		Timestamp:   stamp,
		Degraded:    reply.Degraded,
	})
}

// handleCollectItem picks up an exploration collectible. The duplicate guard
// lives here, not in the store.
func (s *Server) handleCollectItem(w http.ResponseWriter, r *http.Request) {
	var item game.InventoryItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil || item.ID == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if s.store.HasItem(item.ID) {
		http.Error(w, "Item already collected", http.StatusConflict)
		return
	}

	s.store.AddItem(item)
	s.store.AddEvent("Collected " + item.Name)

	// Three supply pickups satisfy the Old Town objective.
	if len(s.store.State().Inventory) >= 3 {
		s.store.CompleteObjective("collect-supplies")
	}

	writeJSON(w, s.stateResponse())
}

func (s *Server) handleCompleteObjective(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	// Unknown IDs are a silent no-op by design of the store.
	s.store.CompleteObjective(req.ID)
	writeJSON(w, s.stateResponse())
}

// handleAdvancePhase moves the mission forward. Required objectives of the
// current phase gate the transition; entering the moonbase starts the
// survival engine.
func (s *Server) handleAdvancePhase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phase string `json:"phase"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	target := game.Phase(req.Phase)
	if target != game.PhaseLaunch && target != game.PhaseMoonbase {
		http.Error(w, "Unknown phase", http.StatusBadRequest)
		return
	}

	if !s.store.RequiredObjectivesComplete() {
		http.Error(w, "Required objectives incomplete", http.StatusConflict)
		return
	}

	s.store.AdvancePhase(target)

	if target == game.PhaseMoonbase && s.store.State().Phase == game.PhaseMoonbase {
		s.store.AddEvent("Touchdown! Moonbase established")
		s.Engine().Start()
	}

	writeJSON(w, s.stateResponse())
}

func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type string `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Type == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	err := s.Engine().BuildModule(game.ModuleType(req.Type))
	switch {
	case errors.Is(err, game.ErrModuleUnknown):
		http.Error(w, "Module not found", http.StatusNotFound)
		return
	case errors.Is(err, game.ErrModuleBuilt):
		http.Error(w, "This slot already has a module!", http.StatusConflict)
		return
	case errors.Is(err, game.ErrNoBuildResources):
		http.Error(w, "Not enough resources!", http.StatusConflict)
		return
	case errors.Is(err, game.ErrWrongPhase):
		http.Error(w, "Base construction is only available on the Moon", http.StatusConflict)
		return
	case errors.Is(err, game.ErrMissionOver):
		http.Error(w, "Mission is already over", http.StatusConflict)
		return
	case err != nil:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, s.stateResponse())
}

// handleReset tears the session down and recreates the initial state with a
// fresh engine.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.engine.Stop()
	s.engine = s.newEngine()
	s.mu.Unlock()

	s.store.Reset()
	writeJSON(w, s.stateResponse())
}
