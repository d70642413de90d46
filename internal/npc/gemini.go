/*
Package npc
File: gemini.go
Description:
    Gemini-backed implementation of the TextCompleter capability.
*/

package npc

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiCompleter talks to the Gemini API. A fresh model handle is built per
// request so concurrent chats never share generation settings.
type GeminiCompleter struct {
	client *genai.Client
	model  string
}

// NewGeminiCompleter connects to the Gemini API with the given key.
func NewGeminiCompleter(ctx context.Context, apiKey, model string) (*GeminiCompleter, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &GeminiCompleter{client: client, model: model}, nil
}

// Close releases the underlying client.
func (g *GeminiCompleter) Close() {
	g.client.Close()
}

// Complete sends the persona as a system instruction and the rendered player
// message as the user turn, returning the concatenated text parts.
func (g *GeminiCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	m := g.client.GenerativeModel(g.model)
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	m.SetTemperature(0.8)
	m.SetMaxOutputTokens(300)

	resp, err := m.GenerateContent(ctx, genai.Text(user))
	if err != nil {
		return "", err
	}

	text := extractText(resp)
	if text == "" {
		return "", fmt.Errorf("no content returned from model")
	}
	return text, nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text string
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				text += string(txt)
			}
		}
	}
	return text
}
