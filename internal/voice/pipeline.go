package voice

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/apizarrocotes/englishai-master-sub000/internal/providers/dialogue"
	"github.com/apizarrocotes/englishai-master-sub000/internal/utils"
)

const defaultPacingDelay = 100 * time.Millisecond

// EventKind discriminates reply events.
type EventKind string

const (
	EventText  EventKind = "text"
	EventAudio EventKind = "audio"
)

// ReplyEvent is one delivery to the transport: the text of a sentence
// unit, or its synthesized audio once ready.
type ReplyEvent struct {
	Kind   EventKind
	Index  int
	Total  int
	IsLast bool
	Text   string
	Audio  []byte
	Format string
}

// DeliverFunc receives reply events as they occur. The pipeline never
// invokes it from two goroutines at once.
type DeliverFunc func(ReplyEvent)

// ReplyPipeline turns a finalized user utterance into a streamed reply.
//
// Text events are emitted in strictly increasing index order with a small
// pacing delay between them. Each unit's synthesis runs as a detached
// goroutine started right after its text event, so audio events fan in
// with whatever latency synthesis has; the only ordering promise is that
// audio for unit i never precedes text for unit i.
type ReplyPipeline struct {
	Dialogue  dialogue.Provider
	Segmenter Segmenter
	Synth     *SynthCache
	Log       *logrus.Logger

	PacingDelay time.Duration
}

func (p *ReplyPipeline) pacing() time.Duration {
	if p.PacingDelay > 0 {
		return p.PacingDelay
	}
	return defaultPacingDelay
}

// Respond fetches the next dialogue turn for utterance and streams it.
// Returns the full reply text once every unit's text and audio delivery
// has settled.
func (p *ReplyPipeline) Respond(ctx context.Context, dialogueID, utterance, voice string, speed float64, deliver DeliverFunc) (string, error) {
	text, err := p.Dialogue.Reply(ctx, dialogueID, utterance)
	if err != nil {
		return "", err
	}
	p.Stream(ctx, text, voice, speed, deliver)
	return text, nil
}

// Stream segments text and delivers it sentence by sentence. Synthesis
// failures are logged per unit and never abort the stream; the affected
// unit is delivered text-only.
func (p *ReplyPipeline) Stream(ctx context.Context, text, voice string, speed float64, deliver DeliverFunc) {
	units := p.Segmenter.Units(text)
	if len(units) == 0 || deliver == nil {
		return
	}

	var mu sync.Mutex // serializes deliver
	var wg sync.WaitGroup

	emit := func(ev ReplyEvent) {
		mu.Lock()
		deliver(ev)
		mu.Unlock()
	}

	for i, u := range units {
		emit(ReplyEvent{
			Kind:   EventText,
			Index:  u.Index,
			Total:  u.Total,
			IsLast: u.IsLast,
			Text:   u.Text,
		})

		wg.Add(1)
		go func(u SentenceUnit) {
			defer wg.Done()
			a, err := p.Synth.GetOrSynthesize(ctx, u.Text, voice, speed)
			if err != nil {
				serr := utils.E(utils.CodeSynthesis, "ReplyPipeline.Stream", "sentence synthesis failed", err)
				p.Log.WithError(serr).WithField("index", u.Index).Warn("delivering sentence text only")
				return
			}
			emit(ReplyEvent{
				Kind:   EventAudio,
				Index:  u.Index,
				Total:  u.Total,
				IsLast: u.IsLast,
				Audio:  a.Data,
				Format: a.Format,
			})
		}(u)

		if i < len(units)-1 {
			select {
			case <-ctx.Done():
			case <-time.After(p.pacing()):
			}
		}
	}

	wg.Wait()
}
