package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/apizarrocotes/englishai-master-sub000/internal/api/handlers"
)

type Deps struct {
	Voice *handlers.VoiceHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	r.POST("/voice/reap", d.Voice.Reap)

	// WebSocket
	r.GET("/ws/voice", d.Voice.VoiceWS)
}
