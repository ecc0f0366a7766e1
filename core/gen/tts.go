package gen

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// SynthesizeVocals renders both characters' verses as a single
// multi-speaker performance and returns it as a WAV data URI, the form
// the mix pipeline's inline-payload path consumes.
func (g *Client) SynthesizeVocals(ctx context.Context, lyrics1, voice1, lyrics2, voice2 string) (string, error) {
	prompt := fmt.Sprintf("Speaker1: %s\n\nSpeaker2: %s", lyrics1, lyrics2)

	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			MultiSpeakerVoiceConfig: &genai.MultiSpeakerVoiceConfig{
				SpeakerVoiceConfigs: []*genai.SpeakerVoiceConfig{
					{
						Speaker: "Speaker1",
						VoiceConfig: &genai.VoiceConfig{
							PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice1},
						},
					},
					{
						Speaker: "Speaker2",
						VoiceConfig: &genai.VoiceConfig{
							PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice2},
						},
					},
				},
			},
		},
	}

	resp, err := g.c.Models.GenerateContent(ctx, g.ttsModel, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("speech synthesis failed: %w", err)
	}

	pcm, err := firstAudio(resp)
	if err != nil {
		return "", err
	}

	// Gemini returns raw 16-bit mono PCM at 24 kHz; wrap it in a WAV
	// container so downstream tooling can identify the format.
	wav := pcmToWAV(pcm, 1, 24000, 16)
	return "data:audio/wav;base64," + base64.StdEncoding.EncodeToString(wav), nil
}

// firstAudio extracts the inline audio bytes of the first candidate.
func firstAudio(resp *genai.GenerateContentResponse) ([]byte, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("no candidates in response")
	}
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.InlineData != nil && len(p.InlineData.Data) > 0 {
			return p.InlineData.Data, nil
		}
	}
	return nil, errors.New("no audio returned")
}
