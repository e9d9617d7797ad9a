package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries everything the voice server reads from the environment.
// Load it once in main and inject pieces downward; nothing else in the
// tree touches os.Getenv.
type Config struct {
	Port string

	Voice VoiceConfig
	GCP   GCPConfig
}

// VoiceConfig holds the tunables of the voice session engine.
type VoiceConfig struct {
	GreetingText   string
	PacingDelay    time.Duration // between sentence text emissions
	IdleTimeout    time.Duration // session inactivity before reaping
	ReapInterval   time.Duration
	CacheCapacity  int
	MinSentenceLen int

	Language      string // BCP-47 code the learner is practicing
	AudioFormat   string // format tag handed to the transcriber
	AllowedVoices []string
	DefaultVoice  string
	DefaultSpeed  float64
	MinSpeed      float64
	MaxSpeed      float64
}

// GCPConfig identifies the Google Cloud project backing the providers.
type GCPConfig struct {
	ProjectID string
	Location  string
	Model     string
}

func Load() Config {
	return Config{
		Port: getenv("PORT", "8080"),
		Voice: VoiceConfig{
			GreetingText:   getenv("VOICE_GREETING", "Hello! I'm your English conversation partner. What would you like to talk about today?"),
			PacingDelay:    getdur("VOICE_PACING_MS", 100) * time.Millisecond,
			IdleTimeout:    getdur("VOICE_IDLE_TIMEOUT_SEC", 300) * time.Second,
			ReapInterval:   getdur("VOICE_REAP_INTERVAL_SEC", 60) * time.Second,
			CacheCapacity:  getint("VOICE_TTS_CACHE_CAP", 100),
			MinSentenceLen: getint("VOICE_MIN_SENTENCE_LEN", 10),
			Language:       getenv("VOICE_LANGUAGE", "en-US"),
			AudioFormat:    getenv("VOICE_AUDIO_FORMAT", "webm"),
			AllowedVoices:  getlist("VOICE_ALLOWED_VOICES", []string{"en-US-Neural2-C", "en-US-Neural2-D", "en-US-Neural2-F", "en-GB-Neural2-A"}),
			DefaultVoice:   getenv("VOICE_DEFAULT_VOICE", "en-US-Neural2-C"),
			DefaultSpeed:   getfloat("VOICE_DEFAULT_SPEED", 1.0),
			MinSpeed:       getfloat("VOICE_MIN_SPEED", 0.25),
			MaxSpeed:       getfloat("VOICE_MAX_SPEED", 4.0),
		},
		GCP: GCPConfig{
			ProjectID: os.Getenv("GCP_PROJECT_ID"),
			Location:  getenv("GCP_LOCATION", "us-central1"),
			Model:     getenv("GCP_GEMINI_MODEL", "gemini-1.5-flash"),
		},
	}
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil && v > 0 {
		return v
	}
	return def
}

func getdur(key string, def int64) time.Duration {
	if v, err := strconv.ParseInt(strings.TrimSpace(os.Getenv(key)), 10, 64); err == nil && v > 0 {
		return time.Duration(v)
	}
	return time.Duration(def)
}

func getfloat(key string, def float64) float64 {
	if v, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64); err == nil && v > 0 {
		return v
	}
	return def
}

func getlist(key string, def []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
