package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/apizarrocotes/englishai-master-sub000/config"
	"github.com/apizarrocotes/englishai-master-sub000/internal/api/handlers"
	"github.com/apizarrocotes/englishai-master-sub000/internal/api/routes"
	"github.com/apizarrocotes/englishai-master-sub000/internal/logger"
	"github.com/apizarrocotes/englishai-master-sub000/internal/providers/dialogue"
	"github.com/apizarrocotes/englishai-master-sub000/internal/providers/stt"
	"github.com/apizarrocotes/englishai-master-sub000/internal/providers/tts"
	"github.com/apizarrocotes/englishai-master-sub000/internal/voice"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	lg := logger.New()
	ctx := context.Background()

	transcriber, err := stt.NewGoogleSpeech(ctx, cfg.Voice.Language)
	if err != nil {
		log.Fatalf("speech client init error: %v", err)
	}
	defer transcriber.Close()

	synth, err := tts.NewGoogleTTS(ctx)
	if err != nil {
		log.Fatalf("tts client init error: %v", err)
	}
	defer synth.Close()

	dlg, err := dialogue.NewVertexGemini(ctx, cfg.GCP.ProjectID, cfg.GCP.Location, cfg.GCP.Model)
	if err != nil {
		log.Fatalf("vertex client init error: %v", err)
	}
	defer dlg.Shutdown()

	store := voice.NewSessionStore(nil)
	cache := voice.NewSynthCache(synth, cfg.Voice.CacheCapacity, voice.SynthOptions{
		AllowedVoices: cfg.Voice.AllowedVoices,
		DefaultVoice:  cfg.Voice.DefaultVoice,
		DefaultSpeed:  cfg.Voice.DefaultSpeed,
		MinSpeed:      cfg.Voice.MinSpeed,
		MaxSpeed:      cfg.Voice.MaxSpeed,
	}, lg)
	pipeline := &voice.ReplyPipeline{
		Dialogue:    dlg,
		Segmenter:   voice.Segmenter{MinLen: cfg.Voice.MinSentenceLen},
		Synth:       cache,
		Log:         lg,
		PacingDelay: cfg.Voice.PacingDelay,
	}
	manager := voice.NewManager(store, pipeline, transcriber, dlg, lg)
	manager.Greeting = cfg.Voice.GreetingText
	manager.AudioFormat = cfg.Voice.AudioFormat

	// Idle reaper; the engine itself never self-schedules.
	go func() {
		t := time.NewTicker(cfg.Voice.ReapInterval)
		defer t.Stop()
		for now := range t.C {
			manager.ReapIdle(ctx, now.UTC(), cfg.Voice.IdleTimeout)
		}
	}()

	r := gin.Default()
	routes.RegisterRoutes(r, routes.Deps{
		Voice: handlers.NewVoiceHandler(manager),
	})

	lg.WithField("port", cfg.Port).Info("voice server listening")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
