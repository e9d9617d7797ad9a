package voice

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/apizarrocotes/englishai-master-sub000/internal/providers/dialogue"
)

type synthCall struct {
	text  string
	voice string
	speed float64
}

type fakeSynth struct {
	mu    sync.Mutex
	calls []synthCall

	failFor  map[string]bool
	delayFor map[string]time.Duration
}

func (f *fakeSynth) Synthesize(ctx context.Context, text, voice string, speed float64) ([]byte, string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, synthCall{text: text, voice: voice, speed: speed})
	delay := f.delayFor[text]
	fail := f.failFor[text]
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if fail {
		return nil, "", errors.New("synthesis backend down")
	}
	return []byte("audio:" + text), "mp3", nil
}

func (f *fakeSynth) Close() error { return nil }

func (f *fakeSynth) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeSynth) lastCall() synthCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

type fakeTranscriber struct {
	mu      sync.Mutex
	inputs  [][]byte
	formats []string

	out string
	err error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audio []byte, format string) (string, error) {
	f.mu.Lock()
	f.inputs = append(f.inputs, audio)
	f.formats = append(f.formats, format)
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.out, nil
}

func (f *fakeTranscriber) Close() error { return nil }

type fakeDialogue struct {
	mu     sync.Mutex
	opened []dialogue.Opening
	closed []string

	openErr  error
	replyErr error
	closeErr error
	reply    string
	nextID   int
}

func (f *fakeDialogue) Open(ctx context.Context, op dialogue.Opening) (string, error) {
	if f.openErr != nil {
		return "", f.openErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened = append(f.opened, op)
	f.nextID++
	return "dlg-" + string(rune('0'+f.nextID)), nil
}

func (f *fakeDialogue) Reply(ctx context.Context, dialogueID, utterance string) (string, error) {
	if f.replyErr != nil {
		return "", f.replyErr
	}
	return f.reply, nil
}

func (f *fakeDialogue) Close(ctx context.Context, dialogueID string) error {
	f.mu.Lock()
	f.closed = append(f.closed, dialogueID)
	f.mu.Unlock()
	return f.closeErr
}
