/*
Package npc
File: dialogue.go
Description:
    The dialogue pipeline: turns a player message plus crew identity and a
    mission snapshot into an in-character reply, a mood delta, and an optional
    build suggestion. The reply comes from the text-generation model; the
    effects come from fixed keyword heuristics so free-form text feeds back
    into the simulation deterministically.

    The pipeline never fails: if the model is unreachable it degrades to the
    scripted fallback lines.
*/

package npc

import (
	"bytes"
	"context"
	_ "embed"
	"log"
	"math"
	"strings"
	"text/template"
	"time"

	"github.com/wichitamoon/moonbase-server/internal/game"
)

//go:embed prompts/persona.txt
var personaPrompt string

//go:embed prompts/message.txt
var messagePrompt string

var (
	personaTmpl = template.Must(template.New("persona").Funcs(template.FuncMap{
		"join": strings.Join,
		"pct":  func(v float64) int { return int(math.Round(v * 100)) },
	}).Parse(personaPrompt))
	messageTmpl = template.Must(template.New("message").Parse(messagePrompt))
)

// Sentiment keyword sets. Each keyword counts at most once per reply,
// matched case-insensitively as a substring.
var (
	positiveWords = []string{"great", "excellent", "good", "perfect", "yes", "agree", "smart"}
	negativeWords = []string{"bad", "worry", "concern", "danger", "no", "disagree", "risky"}
)

// historyWindow limits how much conversation context reaches the model.
const historyWindow = 5

// TextCompleter is the opaque text-generation capability behind the pipeline.
type TextCompleter interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// GameContext is the read-only mission snapshot handed to the pipeline.
// Zero-value gauge or day fields fall back to a fixed baseline so prompt
// construction never fails on partial context.
type GameContext struct {
	Phase        string   `json:"phase"`
	Day          int      `json:"day"`
	Oxygen       float64  `json:"oxygen"`
	Power        float64  `json:"power"`
	Food         float64  `json:"food"`
	Morale       float64  `json:"morale"`
	RecentEvents []string `json:"recentEvents"`
}

// ContextFromState snapshots the store state into a dialogue context.
func ContextFromState(st game.GameState) GameContext {
	return GameContext{
		Phase:        string(st.Phase),
		Day:          st.Day,
		Oxygen:       st.Oxygen,
		Power:        st.Power,
		Food:         st.Food,
		Morale:       st.Morale,
		RecentEvents: st.RecentEvents,
	}
}

func (c GameContext) withDefaults() GameContext {
	if c.Phase == "" {
		c.Phase = string(game.PhaseExploration)
	}
	if c.Day == 0 {
		c.Day = 1
	}
	if c.Oxygen == 0 {
		c.Oxygen = 100
	}
	if c.Power == 0 {
		c.Power = 100
	}
	if c.Food == 0 {
		c.Food = 100
	}
	if c.Morale == 0 {
		c.Morale = 100
	}
	return c
}

// Suggestion is an actionable hint extracted from the reply text.
type Suggestion struct {
	Action   string `json:"action"`
	Priority string `json:"priority"`
}

// Reply is the pipeline result. The pipeline applies no side effects itself;
// the caller decides what to do with MoodDelta and Suggestion.
type Reply struct {
	Text       string
	MoodDelta  int
	Suggestion *Suggestion
	Timestamp  time.Time
	Degraded   bool // True when the scripted fallback was used
}

// Responder runs the dialogue pipeline for every crew member. Invocations are
// independent and stateless; it is safe to use concurrently.
type Responder struct {
	completer TextCompleter // Nil when no model credential is configured
}

// NewResponder wraps a text completer. A nil completer is allowed and makes
// every reply degrade to the scripted fallbacks.
func NewResponder(c TextCompleter) *Responder {
	return &Responder{completer: c}
}

// Generate produces the crew member's reply and its derived gameplay effects.
// It never returns an error: upstream failures degrade to a fallback line with
// neutral effects.
func (r *Responder) Generate(ctx context.Context, n NPC, gc GameContext, history []game.ConversationMessage, playerMessage string) Reply {
	system, user, err := buildPrompts(n, gc.withDefaults(), history, playerMessage)
	if err == nil && r.completer != nil {
		var text string
		text, err = r.completer.Complete(ctx, system, user)
		if err == nil && strings.TrimSpace(text) != "" {
			mood, suggestion := analyzeEffects(text, n)
			return Reply{
				Text:       text,
				MoodDelta:  mood,
				Suggestion: suggestion,
				Timestamp:  time.Now().UTC(),
			}
		}
	}

	if err != nil {
		log.Printf("CHAT: model unavailable for %s, using fallback: %v", n.ID, err)
	}
	return Reply{
		Text:      fallbackFor(n.ID),
		Timestamp: time.Now().UTC(),
		Degraded:  true,
	}
}

// buildPrompts renders the persona (system) and message (user) templates.
func buildPrompts(n NPC, gc GameContext, history []game.ConversationMessage, playerMessage string) (string, string, error) {
	var system bytes.Buffer
	err := personaTmpl.Execute(&system, struct {
		NPC
		GameContext
	}{n, gc})
	if err != nil {
		return "", "", err
	}

	var user bytes.Buffer
	err = messageTmpl.Execute(&user, struct {
		Context       string
		PlayerMessage string
		Name          string
	}{conversationContext(history), playerMessage, n.Name})
	if err != nil {
		return "", "", err
	}

	return system.String(), user.String(), nil
}

// conversationContext formats the last few exchanges, or a neutral marker when
// the conversation is fresh.
func conversationContext(history []game.ConversationMessage) string {
	if len(history) == 0 {
		return "This is the start of the conversation."
	}
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	var b strings.Builder
	b.WriteString("Previous conversation:")
	for _, m := range history {
		b.WriteString("\n")
		if m.Speaker == game.SpeakerPlayer {
			b.WriteString("Player: ")
		} else {
			b.WriteString(m.NPCName + ": ")
		}
		b.WriteString(m.Message)
	}
	return b.String()
}

// analyzeEffects derives the mood delta and suggestion from the reply text.
func analyzeEffects(reply string, n NPC) (int, *Suggestion) {
	lower := strings.ToLower(reply)

	positive := countMatches(lower, positiveWords)
	negative := countMatches(lower, negativeWords)

	// Strict inequalities on purpose: a tie, including 0/0, moves nothing.
	mood := 0
	if positive > negative {
		mood = int(math.Round(5 * n.Traits.Optimism))
	} else if negative > positive {
		mood = -int(math.Round(3 * (1 - n.Traits.Optimism)))
	}

	// Priority-ordered scan; only the first matching category is returned.
	var suggestion *Suggestion
	switch {
	case strings.Contains(lower, "habitat") || strings.Contains(lower, "life support"):
		suggestion = &Suggestion{Action: "build_habitat", Priority: "high"}
	case strings.Contains(lower, "lab") || strings.Contains(lower, "research"):
		suggestion = &Suggestion{Action: "build_lab", Priority: "medium"}
	case strings.Contains(lower, "power") || strings.Contains(lower, "solar"):
		suggestion = &Suggestion{Action: "check_power", Priority: "high"}
	}

	return mood, suggestion
}

// countMatches counts how many keywords appear in the text, each at most once.
func countMatches(lower string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(lower, w) {
			n++
		}
	}
	return n
}
