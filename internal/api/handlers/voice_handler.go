package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/apizarrocotes/englishai-master-sub000/internal/utils"
	"github.com/apizarrocotes/englishai-master-sub000/internal/voice"
)

// VoiceHandler carries one voice session per websocket connection. The
// single reader goroutine serializes all engine calls for the session.
type VoiceHandler struct {
	manager  *voice.Manager
	upgrader websocket.Upgrader
}

func NewVoiceHandler(manager *voice.Manager) *VoiceHandler {
	return &VoiceHandler{
		manager: manager,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin in prod
		},
	}
}

type wsClientMsg struct {
	Type        string  `json:"type"`
	UserID      string  `json:"user_id,omitempty"`
	LessonID    string  `json:"lesson_id,omitempty"`
	Voice       string  `json:"voice,omitempty"`
	Speed       float64 `json:"speed,omitempty"`
	AudioBase64 string  `json:"audio_base64,omitempty"`
}

type wsServerMsg struct {
	Type        string     `json:"type"`
	SessionID   string     `json:"session_id,omitempty"`
	Code        utils.Code `json:"code,omitempty"`
	Message     string     `json:"message,omitempty"`
	Text        string     `json:"text,omitempty"`
	Index       int        `json:"index,omitempty"`
	Total       int        `json:"total,omitempty"`
	IsLast      bool       `json:"is_last,omitempty"`
	AudioBase64 string     `json:"audio_base64,omitempty"`
	Format      string     `json:"format,omitempty"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

func (w *wsConn) writeAppError(err error) {
	code := utils.CodeInternal
	msg := "internal error"
	var ae *utils.AppError
	if errors.As(err, &ae) {
		code = ae.Code
		msg = ae.Message
	}
	_ = w.writeJSON(wsServerMsg{Type: "error", Code: code, Message: msg})
}

func (w *wsConn) deliver(ev voice.ReplyEvent) {
	msg := wsServerMsg{
		Index:  ev.Index,
		Total:  ev.Total,
		IsLast: ev.IsLast,
	}
	switch ev.Kind {
	case voice.EventText:
		msg.Type = "reply_text"
		msg.Text = ev.Text
	case voice.EventAudio:
		msg.Type = "reply_audio"
		msg.AudioBase64 = base64.StdEncoding.EncodeToString(ev.Audio)
		msg.Format = ev.Format
	default:
		return
	}
	_ = w.writeJSON(msg)
}

// Reap lets an external scheduler force an idle sweep over HTTP.
func (h *VoiceHandler) Reap(c *gin.Context) {
	secs, err := strconv.ParseInt(c.DefaultQuery("threshold_sec", "300"), 10, 64)
	if err != nil || secs <= 0 {
		writeError(c, utils.E(utils.CodeInvalidArgument, "VoiceHandler.Reap", "threshold_sec must be a positive integer", err))
		return
	}
	n := h.manager.ReapIdle(c.Request.Context(), time.Now().UTC(), time.Duration(secs)*time.Second)
	c.JSON(http.StatusOK, gin.H{"reaped": n})
}

// VoiceWS is the full-duplex voice surface: start_session, audio_chunk,
// finalize_turn and end_session in; session_started, transcript,
// reply_text, reply_audio and error out.
func (h *VoiceHandler) VoiceWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	var sessionID string
	defer func() {
		if sessionID != "" {
			h.manager.EndSession(context.Background(), sessionID)
		}
	}()

	for {
		_, data, rerr := conn.ReadMessage()
		if rerr != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		var msg wsClientMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = wc.writeJSON(wsServerMsg{Type: "error", Code: utils.CodeInvalidArgument, Message: "invalid json"})
			continue
		}

		switch msg.Type {
		case "start_session":
			if sessionID != "" {
				_ = wc.writeJSON(wsServerMsg{Type: "error", Code: utils.CodeInvalidArgument, Message: "session already started"})
				continue
			}
			opts := voice.SessionOptions{Voice: msg.Voice, Speed: msg.Speed}
			s, err := h.manager.CreateSession(ctx, msg.UserID, msg.LessonID, opts, wc.deliver)
			if err != nil {
				wc.writeAppError(err)
				continue
			}
			sessionID = s.ID
			_ = wc.writeJSON(wsServerMsg{Type: "session_started", SessionID: s.ID})

		case "audio_chunk":
			if sessionID == "" {
				_ = wc.writeJSON(wsServerMsg{Type: "error", Code: utils.CodeInvalidArgument, Message: "no active session"})
				continue
			}
			raw := msg.AudioBase64
			if i := strings.Index(raw, ","); i >= 0 {
				raw = raw[i+1:] // strip data:...;base64,
			}
			chunk, err := base64.StdEncoding.DecodeString(raw)
			if err != nil || len(chunk) == 0 {
				_ = wc.writeJSON(wsServerMsg{Type: "error", Code: utils.CodeInvalidArgument, Message: "invalid audio_base64"})
				continue
			}
			if err := h.manager.PushChunk(sessionID, chunk); err != nil {
				wc.writeAppError(err)
			}

		case "finalize_turn":
			if sessionID == "" {
				_ = wc.writeJSON(wsServerMsg{Type: "error", Code: utils.CodeInvalidArgument, Message: "no active session"})
				continue
			}
			transcript, err := h.manager.FinalizeTurn(ctx, sessionID)
			if err != nil {
				wc.writeAppError(err)
				continue
			}
			_ = wc.writeJSON(wsServerMsg{Type: "transcript", Text: transcript})
			if transcript == "" {
				continue // silence is a normal turn, nothing to reply to
			}

			if err := h.manager.GenerateReply(ctx, sessionID, transcript, wc.deliver); err != nil {
				if utils.IsCode(err, utils.CodeDialogue) {
					// render the safe fallback as the turn's only unit
					_ = wc.writeJSON(wsServerMsg{Type: "reply_text", Text: utils.Message(err), Total: 1, IsLast: true})
					continue
				}
				wc.writeAppError(err)
			}

		case "end_session":
			if sessionID != "" {
				h.manager.EndSession(ctx, sessionID)
				sessionID = ""
			}
			_ = wc.writeJSON(wsServerMsg{Type: "session_ended"})
			return

		default:
			_ = wc.writeJSON(wsServerMsg{Type: "error", Code: utils.CodeInvalidArgument, Message: "unknown message type"})
		}
	}
}
