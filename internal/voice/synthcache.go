package voice

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/apizarrocotes/englishai-master-sub000/internal/providers/tts"
)

const defaultCacheCapacity = 100

// Audio is one synthesized payload with its format tag.
type Audio struct {
	Data   []byte
	Format string
}

// SynthOptions bounds the voice/speed inputs the cache accepts. Anything
// outside the bounds is substituted or clamped, never rejected, so a
// malformed client value degrades to a safe default instead of failing
// the turn.
type SynthOptions struct {
	AllowedVoices []string
	DefaultVoice  string
	DefaultSpeed  float64
	MinSpeed      float64
	MaxSpeed      float64
}

// SynthCache memoizes synthesized audio per (normalized text, voice,
// speed). It is shared process-wide, bounded, and evicts in strict
// insertion order (FIFO) when full. FIFO rather than LRU is the intended
// policy here, not an accident.
type SynthCache struct {
	synth tts.Synthesizer
	opts  SynthOptions
	log   *logrus.Logger

	mu       sync.Mutex
	capacity int
	entries  map[string]Audio
	order    []string
}

func NewSynthCache(synth tts.Synthesizer, capacity int, opts SynthOptions, log *logrus.Logger) *SynthCache {
	if capacity <= 0 {
		capacity = defaultCacheCapacity
	}
	if opts.DefaultVoice == "" && len(opts.AllowedVoices) > 0 {
		opts.DefaultVoice = opts.AllowedVoices[0]
	}
	if opts.DefaultSpeed <= 0 {
		opts.DefaultSpeed = 1.0
	}
	if opts.MinSpeed <= 0 {
		opts.MinSpeed = 0.25
	}
	if opts.MaxSpeed <= opts.MinSpeed {
		opts.MaxSpeed = 4.0
	}
	if log == nil {
		log = logrus.New()
	}
	return &SynthCache{
		synth:    synth,
		opts:     opts,
		log:      log,
		capacity: capacity,
		entries:  make(map[string]Audio),
	}
}

func (c *SynthCache) sanitizeVoice(voice string) string {
	voice = strings.TrimSpace(voice)
	for _, v := range c.opts.AllowedVoices {
		if v == voice {
			return voice
		}
	}
	if voice != "" {
		c.log.WithField("voice", voice).Debug("unknown voice, using default")
	}
	return c.opts.DefaultVoice
}

func (c *SynthCache) sanitizeSpeed(speed float64) float64 {
	if math.IsNaN(speed) || speed <= 0 {
		return c.opts.DefaultSpeed
	}
	if speed < c.opts.MinSpeed {
		return c.opts.MinSpeed
	}
	if speed > c.opts.MaxSpeed {
		return c.opts.MaxSpeed
	}
	return speed
}

func cacheKey(text, voice string, speed float64) string {
	return fmt.Sprintf("%s|%s|%.2f", text, voice, speed)
}

// Len reports the current number of cached entries.
func (c *SynthCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// GetOrSynthesize returns cached audio on hit; on miss it calls the
// synthesizer and stores the result, evicting the single oldest-inserted
// entry first if the cache is full.
func (c *SynthCache) GetOrSynthesize(ctx context.Context, text, voice string, speed float64) (Audio, error) {
	text = strings.Join(strings.Fields(text), " ")
	voice = c.sanitizeVoice(voice)
	speed = c.sanitizeSpeed(speed)
	key := cacheKey(text, voice, speed)

	c.mu.Lock()
	if a, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return a, nil
	}
	c.mu.Unlock()

	data, format, err := c.synth.Synthesize(ctx, text, voice, speed)
	if err != nil {
		return Audio{}, err
	}
	a := Audio{Data: data, Format: format}

	c.mu.Lock()
	if _, ok := c.entries[key]; !ok {
		if len(c.entries) >= c.capacity {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.entries[key] = a
		c.order = append(c.order, key)
	}
	c.mu.Unlock()
	return a, nil
}
