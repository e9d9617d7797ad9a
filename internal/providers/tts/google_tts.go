package tts

import (
	"context"
	"strings"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	ttspb "cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
)

type GoogleTTS struct {
	c *texttospeech.Client
}

func NewGoogleTTS(ctx context.Context) (*GoogleTTS, error) {
	c, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &GoogleTTS{c: c}, nil
}

func (g *GoogleTTS) Close() error { return g.c.Close() }

// languageOf extracts the language code from a Google voice name,
// ex: "en-US-Neural2-C" -> "en-US".
func languageOf(voice string) string {
	parts := strings.SplitN(voice, "-", 3)
	if len(parts) >= 2 {
		return parts[0] + "-" + parts[1]
	}
	return "en-US"
}

func (g *GoogleTTS) Synthesize(ctx context.Context, text, voice string, speed float64) ([]byte, string, error) {
	resp, err := g.c.SynthesizeSpeech(ctx, &ttspb.SynthesizeSpeechRequest{
		Input: &ttspb.SynthesisInput{
			InputSource: &ttspb.SynthesisInput_Text{Text: text},
		},
		Voice: &ttspb.VoiceSelectionParams{
			LanguageCode: languageOf(voice),
			Name:         voice,
		},
		AudioConfig: &ttspb.AudioConfig{
			AudioEncoding: ttspb.AudioEncoding_MP3,
			SpeakingRate:  speed,
		},
	})
	if err != nil {
		return nil, "", err
	}
	return resp.AudioContent, "mp3", nil
}
