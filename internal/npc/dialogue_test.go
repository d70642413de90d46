package npc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/wichitamoon/moonbase-server/internal/game"
)

// stubCompleter returns a canned reply (or error) and records the prompts.
type stubCompleter struct {
	reply  string
	err    error
	system string
	user   string
	calls  int
}

func (s *stubCompleter) Complete(_ context.Context, system, user string) (string, error) {
	s.calls++
	s.system = system
	s.user = user
	return s.reply, s.err
}

func testNPC(optimism float64) NPC {
	return NPC{
		ID:           "engineer-mike",
		Name:         "Mike Rodriguez",
		Role:         "Chief Engineer",
		SystemPrompt: "You are Mike Rodriguez, chief engineer of the moonbase.",
		Traits:       Traits{Optimism: optimism, RiskTolerance: 0.7, Technical: 0.95},
	}
}

func TestMoodDeltaFromKeywords(t *testing.T) {
	cases := []struct {
		name     string
		reply    string
		optimism float64
		want     int
	}{
		{"positive reply", "That's a great idea, very smart!", 0.7, 4},     // round(5*0.7)
		{"negative reply", "That sounds risky and dangerous", 0.7, -1},     // -round(3*0.3)
		{"no keywords", "We will press onward with the mission.", 0.7, 0},  // 0/0 tie
		{"tie", "Sounds good, but I worry.", 0.7, 0},                       // 1/1 tie
		{"positive low optimism", "Perfect, I agree with that.", 0.1, 1},   // round(0.5) = 1
		{"negative high pessimism", "Too much danger out there.", 0.0, -3}, // -round(3*1)
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewResponder(&stubCompleter{reply: tc.reply})
			reply := r.Generate(context.Background(), testNPC(tc.optimism), GameContext{}, nil, "what do you think?")
			if reply.Degraded {
				t.Fatal("unexpected degraded reply")
			}
			if reply.MoodDelta != tc.want {
				t.Fatalf("moodDelta = %d, want %d", reply.MoodDelta, tc.want)
			}
		})
	}
}

func TestKeywordCountedOnceDespiteRepetition(t *testing.T) {
	// "great" three times is still one positive match; one "worry" ties it.
	r := NewResponder(&stubCompleter{reply: "Great, great, great... but I worry."})
	reply := r.Generate(context.Background(), testNPC(0.9), GameContext{}, nil, "well?")
	if reply.MoodDelta != 0 {
		t.Fatalf("moodDelta = %d, want 0 (tie)", reply.MoodDelta)
	}
}

func TestSuggestionPriorityOrder(t *testing.T) {
	cases := []struct {
		name  string
		reply string
		want  string // empty means no suggestion
	}{
		{"habitat wins over lab", "Put up the lab after the habitat.", "build_habitat"},
		{"life support counts as habitat", "Life support comes first out here.", "build_habitat"},
		{"lab", "More research would help us.", "build_lab"},
		{"power", "Check the solar array wiring.", "check_power"},
		{"lab wins over power", "The lab needs more power.", "build_lab"},
		{"nothing", "Stay the course.", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewResponder(&stubCompleter{reply: tc.reply})
			reply := r.Generate(context.Background(), testNPC(0.5), GameContext{}, nil, "advice?")
			if tc.want == "" {
				if reply.Suggestion != nil {
					t.Fatalf("unexpected suggestion %+v", reply.Suggestion)
				}
				return
			}
			if reply.Suggestion == nil || reply.Suggestion.Action != tc.want {
				t.Fatalf("suggestion = %+v, want action %q", reply.Suggestion, tc.want)
			}
		})
	}
}

func TestSuggestionPriorities(t *testing.T) {
	r := NewResponder(&stubCompleter{reply: "Build the habitat."})
	reply := r.Generate(context.Background(), testNPC(0.5), GameContext{}, nil, "advice?")
	if reply.Suggestion == nil || reply.Suggestion.Priority != "high" {
		t.Fatalf("habitat suggestion priority = %+v, want high", reply.Suggestion)
	}

	r = NewResponder(&stubCompleter{reply: "The research matters."})
	reply = r.Generate(context.Background(), testNPC(0.5), GameContext{}, nil, "advice?")
	if reply.Suggestion == nil || reply.Suggestion.Priority != "medium" {
		t.Fatalf("lab suggestion priority = %+v, want medium", reply.Suggestion)
	}
}

func TestDegradedFallbackOnUpstreamFailure(t *testing.T) {
	stub := &stubCompleter{err: errors.New("upstream timeout")}
	r := NewResponder(stub)

	reply := r.Generate(context.Background(), testNPC(0.9), GameContext{}, nil, "hello?")

	if !reply.Degraded {
		t.Fatal("expected degraded reply")
	}
	if reply.MoodDelta != 0 || reply.Suggestion != nil {
		t.Fatalf("degraded reply carried effects: %+v", reply)
	}
	found := false
	for _, line := range fallbackLines["engineer-mike"] {
		if reply.Text == line {
			found = true
		}
	}
	if !found {
		t.Fatalf("fallback text %q not in engineer-mike's set", reply.Text)
	}
}

func TestDegradedFallbackForUnknownNPC(t *testing.T) {
	r := NewResponder(&stubCompleter{err: errors.New("boom")})
	n := testNPC(0.5)
	n.ID = "stowaway-pat"

	reply := r.Generate(context.Background(), n, GameContext{}, nil, "who are you?")

	if !reply.Degraded || reply.Text != genericFallback {
		t.Fatalf("reply = %+v, want generic fallback", reply)
	}
}

func TestNilCompleterAlwaysDegrades(t *testing.T) {
	r := NewResponder(nil)
	reply := r.Generate(context.Background(), testNPC(0.5), GameContext{}, nil, "anyone there?")
	if !reply.Degraded || reply.Text == "" {
		t.Fatalf("reply = %+v, want non-empty degraded fallback", reply)
	}
}

func TestEmptyReplyDegrades(t *testing.T) {
	r := NewResponder(&stubCompleter{reply: "   "})
	reply := r.Generate(context.Background(), testNPC(0.5), GameContext{}, nil, "hello?")
	if !reply.Degraded {
		t.Fatal("blank model output should degrade to fallback")
	}
}

func TestPersonaPromptCarriesMissionSnapshot(t *testing.T) {
	stub := &stubCompleter{reply: "Copy that."}
	r := NewResponder(stub)

	gc := GameContext{
		Phase:        "moonbase",
		Day:          3,
		Oxygen:       82,
		Power:        64,
		Food:         55,
		Morale:       71,
		RecentEvents: []string{"Built habitat module", "Day 3 on the Moon"},
	}
	r.Generate(context.Background(), testNPC(0.9), gc, nil, "status?")

	for _, want := range []string{
		"You are Mike Rodriguez, chief engineer",
		"- Phase: moonbase",
		"- Day: 3",
		"- Oxygen: 82%",
		"- Crew Morale: 71%",
		"- Recent Events: Built habitat module, Day 3 on the Moon",
		"- Optimism: 90%",
		"Remember: You are Mike Rodriguez, Chief Engineer.",
	} {
		if !strings.Contains(stub.system, want) {
			t.Fatalf("system prompt missing %q:\n%s", want, stub.system)
		}
	}
}

func TestPartialContextFallsBackToBaseline(t *testing.T) {
	stub := &stubCompleter{reply: "Copy."}
	r := NewResponder(stub)

	r.Generate(context.Background(), testNPC(0.5), GameContext{}, nil, "hello")

	for _, want := range []string{"- Day: 1", "- Oxygen: 100%", "- Power: 100%", "- Crew Morale: 100%"} {
		if !strings.Contains(stub.system, want) {
			t.Fatalf("baseline missing %q:\n%s", want, stub.system)
		}
	}
	if strings.Contains(stub.system, "- Recent Events:") {
		t.Fatal("empty events should not render an events line")
	}
}

func TestConversationContextMarkerAndWindow(t *testing.T) {
	stub := &stubCompleter{reply: "Hi."}
	r := NewResponder(stub)

	// Fresh conversation gets the neutral marker.
	r.Generate(context.Background(), testNPC(0.5), GameContext{}, nil, "hello")
	if !strings.Contains(stub.user, "This is the start of the conversation.") {
		t.Fatalf("missing start marker:\n%s", stub.user)
	}
	if !strings.Contains(stub.user, `Player says: "hello"`) {
		t.Fatalf("missing player line:\n%s", stub.user)
	}
	if !strings.Contains(stub.user, "Keep your response under 100 words.") {
		t.Fatalf("missing length constraint:\n%s", stub.user)
	}

	// Only the last five lines of a longer history are used.
	var history []game.ConversationMessage
	for i := 1; i <= 8; i++ {
		history = append(history, game.ConversationMessage{
			Speaker: game.SpeakerPlayer,
			Message: fmt.Sprintf("line %d", i),
		})
	}
	r.Generate(context.Background(), testNPC(0.5), GameContext{}, history, "latest")

	if strings.Contains(stub.user, "line 3") {
		t.Fatalf("stale history leaked into prompt:\n%s", stub.user)
	}
	for i := 4; i <= 8; i++ {
		if !strings.Contains(stub.user, fmt.Sprintf("line %d", i)) {
			t.Fatalf("recent history line %d missing:\n%s", i, stub.user)
		}
	}
	if !strings.Contains(stub.user, "Previous conversation:") {
		t.Fatalf("missing history header:\n%s", stub.user)
	}
}

func TestNPCLinesUseDisplayName(t *testing.T) {
	stub := &stubCompleter{reply: "Right."}
	r := NewResponder(stub)

	history := []game.ConversationMessage{
		{Speaker: game.SpeakerPlayer, Message: "how are the scrubbers?"},
		{Speaker: game.SpeakerNPC, NPCID: "engineer-mike", NPCName: "Mike Rodriguez", Message: "Humming along."},
	}
	r.Generate(context.Background(), testNPC(0.5), GameContext{}, history, "and the power?")

	if !strings.Contains(stub.user, "Player: how are the scrubbers?") {
		t.Fatalf("player line malformed:\n%s", stub.user)
	}
	if !strings.Contains(stub.user, "Mike Rodriguez: Humming along.") {
		t.Fatalf("npc line malformed:\n%s", stub.user)
	}
}
