package voice

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventCollector struct {
	mu     sync.Mutex
	events []ReplyEvent
}

func (c *eventCollector) deliver(ev ReplyEvent) {
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
}

func (c *eventCollector) byKind(kind EventKind) []ReplyEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []ReplyEvent
	for _, ev := range c.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

func newTestPipeline(synth *fakeSynth, dlg *fakeDialogue) *ReplyPipeline {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return &ReplyPipeline{
		Dialogue:    dlg,
		Segmenter:   Segmenter{},
		Synth:       newTestCache(100, synth),
		Log:         log,
		PacingDelay: time.Millisecond,
	}
}

const threeSentences = "The museum was wonderful. We stayed for three hours! What did you enjoy most?"

func TestStreamEmitsTextInOrder(t *testing.T) {
	p := newTestPipeline(&fakeSynth{}, nil)
	col := &eventCollector{}

	p.Stream(context.Background(), threeSentences, "", 0, col.deliver)

	texts := col.byKind(EventText)
	require.Len(t, texts, len(p.Segmenter.Split(threeSentences)))
	for i, ev := range texts {
		assert.Equal(t, i, ev.Index)
		assert.Equal(t, len(texts), ev.Total)
		assert.Equal(t, i == len(texts)-1, ev.IsLast)
	}

	// The terminal text event is the last text event observed.
	assert.True(t, texts[len(texts)-1].IsLast)
}

func TestStreamAudioNeverPrecedesOwnText(t *testing.T) {
	synth := &fakeSynth{delayFor: map[string]time.Duration{
		"The museum was wonderful.": 30 * time.Millisecond,
	}}
	p := newTestPipeline(synth, nil)
	col := &eventCollector{}

	p.Stream(context.Background(), threeSentences, "", 0, col.deliver)

	textSeen := map[int]int{}
	for pos, ev := range col.events {
		if ev.Kind == EventText {
			textSeen[ev.Index] = pos
		}
	}
	for pos, ev := range col.events {
		if ev.Kind == EventAudio {
			tp, ok := textSeen[ev.Index]
			require.True(t, ok)
			assert.Less(t, tp, pos, "audio for unit %d before its text", ev.Index)
		}
	}

	// Every unit got audio despite uneven synthesis latency.
	assert.Len(t, col.byKind(EventAudio), len(col.byKind(EventText)))
}

func TestStreamSurvivesPerUnitSynthesisFailure(t *testing.T) {
	synth := &fakeSynth{failFor: map[string]bool{
		"We stayed for three hours!": true,
	}}
	p := newTestPipeline(synth, nil)
	col := &eventCollector{}

	p.Stream(context.Background(), threeSentences, "", 0, col.deliver)

	texts := col.byKind(EventText)
	audios := col.byKind(EventAudio)
	require.Len(t, texts, 3)
	require.Len(t, audios, 2, "failed unit delivered text-only")
	for _, ev := range audios {
		assert.NotEqual(t, 1, ev.Index)
	}
}

func TestStreamNilDeliverIsNoop(t *testing.T) {
	synth := &fakeSynth{}
	p := newTestPipeline(synth, nil)

	p.Stream(context.Background(), threeSentences, "", 0, nil)
	assert.Equal(t, 0, synth.callCount())
}

func TestRespondPropagatesDialogueError(t *testing.T) {
	dlg := &fakeDialogue{replyErr: assert.AnError}
	p := newTestPipeline(&fakeSynth{}, dlg)
	col := &eventCollector{}

	_, err := p.Respond(context.Background(), "dlg-1", "hello", "", 0, col.deliver)
	require.Error(t, err)
	assert.Empty(t, col.events)
}

func TestRespondStreamsDialogueReply(t *testing.T) {
	dlg := &fakeDialogue{reply: "That sounds lovely. Tell me more about your trip?"}
	p := newTestPipeline(&fakeSynth{}, dlg)
	col := &eventCollector{}

	text, err := p.Respond(context.Background(), "dlg-1", "hello", "", 0, col.deliver)
	require.NoError(t, err)
	assert.Equal(t, dlg.reply, text)
	assert.Len(t, col.byKind(EventText), 2)
	assert.Len(t, col.byKind(EventAudio), 2)
}
