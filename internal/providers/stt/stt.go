package stt

import "context"

type Transcriber interface {
	// Transcribe converts one finalized utterance to text. format is the
	// container tag of the audio bytes, ex: "webm", "ogg", "linear16".
	Transcribe(ctx context.Context, audio []byte, format string) (string, error)
	Close() error
}
