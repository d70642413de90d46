/*
Package npc
File: fallback.go
Description:
    Scripted lines used when the dialogue model is unreachable. Kept as plain
    data so the voice of each crew member survives an outage untouched.
*/

package npc

import "math/rand"

// fallbackLines maps crew IDs to their scripted phrases.
var fallbackLines = map[string][]string{
	"commander-sarah": {
		"Let's stay focused on the mission. We need to prioritize our objectives.",
		"I trust your judgment. Make the call and let's move forward.",
		"We've trained for this. Stay calm and follow procedure.",
	},
	"engineer-mike": {
		"No worries, we can figure this out! Just need the right approach.",
		"Let me take a look at the systems. I'm sure it's fixable.",
		"Back at Spirit, we'd solve this with duct tape and coffee. We'll manage!",
	},
	"scientist-lisa": {
		"Fascinating! The data here is incredible. Let me analyze this further.",
		"This reminds me of the exhibits at Exploration Place. Science in action!",
		"Every discovery brings us closer to understanding our new home.",
	},
	"pilot-ace": {
		"Trust me, I've flown through worse. This is nothing!",
		"Flying over Kansas wheat fields prepared me for anything. We got this!",
		"Just another day in the pilot's seat. Let's do this!",
	},
	"medic-jamie": {
		"How are you feeling? It's important we all stay healthy and rested.",
		"Let's be careful here. Safety first, always.",
		"I'm concerned about the crew's well-being. We should take it slow.",
	},
}

const genericFallback = "I'm here to help with the mission."

// fallbackFor picks a scripted line for the given crew member, or the generic
// line for an unconfigured ID.
func fallbackFor(npcID string) string {
	lines, ok := fallbackLines[npcID]
	if !ok || len(lines) == 0 {
		return genericFallback
	}
	return lines[rand.Intn(len(lines))]
}
