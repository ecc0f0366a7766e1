package gen

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

// Client wraps the Gemini API for lyric generation and vocal synthesis.
type Client struct {
	c         *genai.Client
	textModel string
	ttsModel  string
}

// New creates a Gemini-backed generation client.
func New(apiKey, textModel, ttsModel string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key not configured")
	}

	tr := &http.Transport{
		Proxy:             http.ProxyFromEnvironment,
		TLSClientConfig:   &tls.Config{MinVersion: tls.VersionTLS12},
		ForceAttemptHTTP2: false,
		MaxIdleConns:      100,
		IdleConnTimeout:   90 * time.Second,
	}
	hc := &http.Client{Transport: tr, Timeout: 120 * time.Second}

	cl, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: hc,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Client{c: cl, textModel: textModel, ttsModel: ttsModel}, nil
}

// Lyrics holds one verse set per character.
type Lyrics struct {
	Character1 string `json:"lyricsCharacter1"`
	Character2 string `json:"lyricsCharacter2"`
}

const lyricsPromptTemplate = `You are a rap lyric generator. You will generate rap lyrics for two characters based on a given topic, be mean and funny.

Character 1: %s
Character 2: %s
Topic: %s
Number of verses per character: %d

Generate rap lyrics for each character, making sure the lyrics are relevant to the topic and appropriate for each character. Mention funny and mean stuff about your opponent and respond to the previous verse when possible. Do not include anything between '[]' in the performed text.`

// GenerateLyrics produces battle lyrics for two characters on a topic.
func (g *Client) GenerateLyrics(ctx context.Context, character1, character2, topic string, numVerses int) (*Lyrics, error) {
	prompt := fmt.Sprintf(lyricsPromptTemplate, character1, character2, topic, numVerses)

	temp := float32(0.9)
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"lyricsCharacter1": {Type: genai.TypeString},
				"lyricsCharacter2": {Type: genai.TypeString},
			},
			Required: []string{"lyricsCharacter1", "lyricsCharacter2"},
		},
		Temperature: &temp,
	}

	resp, err := g.c.Models.GenerateContent(ctx, g.textModel, genai.Text(prompt), cfg)
	if err != nil {
		return nil, fmt.Errorf("lyrics generation failed: %w", err)
	}

	text, err := firstText(resp)
	if err != nil {
		return nil, err
	}

	var lyrics Lyrics
	if err := json.Unmarshal([]byte(text), &lyrics); err != nil {
		return nil, fmt.Errorf("failed to parse lyrics response: %w", err)
	}
	if lyrics.Character1 == "" || lyrics.Character2 == "" {
		return nil, errors.New("lyrics generation returned empty verses")
	}
	return &lyrics, nil
}

// firstText concatenates the text parts of the first candidate.
func firstText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("no candidates in response")
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.Text != "" {
			sb.WriteString(p.Text)
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("no text in response")
	}
	return sb.String(), nil
}
