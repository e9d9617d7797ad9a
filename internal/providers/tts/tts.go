package tts

import "context"

type Synthesizer interface {
	// Synthesize renders text as spoken audio. voice is a provider voice
	// name, speed a speaking-rate multiplier. Returns the audio bytes and
	// a format tag, ex: "mp3".
	Synthesize(ctx context.Context, text, voice string, speed float64) ([]byte, string, error)
	Close() error
}
