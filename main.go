/*
Package main
File: main.go
Description: Server entry point. Loads the mission balance and crew roster,
wires the session store, survival engine, dialogue pipeline and real-time
WebSocket hub, then serves the game API.
*/

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/wichitamoon/moonbase-server/internal/api"
	"github.com/wichitamoon/moonbase-server/internal/game"
	"github.com/wichitamoon/moonbase-server/internal/npc"
)

const (
	balancePath  = "moonbase.yaml"
	rosterPath   = "npcs.json"
	schemaPath   = "schemas/npcs.schema.json"
	defaultModel = "gemini-2.5-flash"
)

func main() {
	// 1. Environment (.env is optional; real env vars win either way)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}

	// 2. Mission balance and crew roster
	bal, err := game.LoadBalance(balancePath)
	if err != nil {
		log.Fatalf("Config Fail: %v", err)
	}
	roster, err := npc.LoadRoster(rosterPath, schemaPath)
	if err != nil {
		log.Fatalf("Roster Fail: %v", err)
	}
	log.Printf("Crew roster loaded: %d members", len(roster.All()))

	// 3. Dialogue model (degrades to scripted lines without a key)
	var completer npc.TextCompleter
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		model := os.Getenv("GEMINI_MODEL")
		if model == "" {
			model = defaultModel
		}
		gemini, err := npc.NewGeminiCompleter(context.Background(), apiKey, model)
		if err != nil {
			log.Fatalf("Gemini Fail: %v", err)
		}
		defer gemini.Close()
		completer = gemini
		log.Printf("Dialogue model: %s", model)
	} else {
		log.Println("GEMINI_API_KEY not set: crew chat will use scripted fallbacks")
	}
	responder := npc.NewResponder(completer)

	// 4. Session state and the real-time hub
	store := game.NewStore(bal)
	hub := api.NewHub()
	go hub.Run()

	server := api.NewServer(store, bal, game.TickScheduler{}, roster, responder, hub)

	// 5. Hot-reload: SIGHUP refreshes balance-independent config (the roster)
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGHUP)
		for {
			<-sigChan
			log.Println("SIGNAL: Reloading crew roster...")
			fresh, err := npc.LoadRoster(rosterPath, schemaPath)
			if err != nil {
				log.Printf("Roster reload failed, keeping old roster: %v", err)
				continue
			}
			server.SetRoster(fresh)
		}
	}()

	// 6. Start the server
	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}
	log.Printf("WICHITA TO THE MOON Backend live on :%s", port)
	log.Printf("Real-time Hub: Online")

	if err := http.ListenAndServe(":"+port, corsMiddleware(server.Routes())); err != nil {
		log.Fatal(err)
	}
}

// corsMiddleware lets the browser client talk to the backend across origins.
func corsMiddleware(next http.Handler) http.Handler {
	origin := os.Getenv("FRONTEND_URL")
	if origin == "" {
		origin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
