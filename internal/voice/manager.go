package voice

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/apizarrocotes/englishai-master-sub000/internal/providers/dialogue"
	"github.com/apizarrocotes/englishai-master-sub000/internal/providers/stt"
	"github.com/apizarrocotes/englishai-master-sub000/internal/utils"
)

// ReplyFallback is the safe text a caller can render when reply
// generation fails; it rides on the DIALOGUE_FAILED error message.
const ReplyFallback = "Sorry, I didn't quite catch that. Could you say it one more time?"

// Manager is the transport-agnostic facade over the voice session engine.
type Manager struct {
	Store    *SessionStore
	Pipeline *ReplyPipeline
	STT      stt.Transcriber
	Dialogue dialogue.Provider
	Log      *logrus.Logger

	Greeting    string
	AudioFormat string

	now func() time.Time
}

func NewManager(store *SessionStore, pipeline *ReplyPipeline, transcriber stt.Transcriber, dlg dialogue.Provider, log *logrus.Logger) *Manager {
	if log == nil {
		log = logrus.New()
	}
	return &Manager{
		Store:    store,
		Pipeline: pipeline,
		STT:      transcriber,
		Dialogue: dlg,
		Log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the time source; tests use it to drive idle reaping.
func (m *Manager) SetClock(now func() time.Time) { m.now = now }

// SessionOptions are the per-session synthesis preferences.
type SessionOptions struct {
	Voice string
	Speed float64
}

// CreateSession opens a dialogue for the user, registers the session and
// streams the greeting through the reply pipeline as the first reply.
// deliver may be nil for callers that do not want the greeting events.
func (m *Manager) CreateSession(ctx context.Context, userID, lessonID string, opts SessionOptions, deliver DeliverFunc) (*Session, error) {
	const op = "VoiceManager.CreateSession"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	dialogueID, err := m.Dialogue.Open(ctx, dialogue.Opening{UserID: userID, LessonID: lessonID})
	if err != nil {
		return nil, utils.E(utils.CodeSessionInit, op, "failed to open dialogue", err)
	}

	now := m.now()
	s := &Session{
		ID:             uuid.NewString(),
		UserID:         userID,
		LessonID:       lessonID,
		DialogueID:     dialogueID,
		Voice:          opts.Voice,
		Speed:          opts.Speed,
		CreatedAt:      now,
		LastActivityAt: now,
	}
	m.Store.Put(s)

	m.Log.WithFields(logrus.Fields{
		"session_id":  s.ID,
		"user_id":     userID,
		"lesson_id":   lessonID,
		"dialogue_id": dialogueID,
	}).Info("voice session created")

	if deliver != nil && m.Greeting != "" {
		m.Pipeline.Stream(ctx, m.Greeting, s.Voice, s.Speed, deliver)
	}
	return s, nil
}

// PushChunk appends one audio chunk to the session buffer.
func (m *Manager) PushChunk(sessionID string, chunk []byte) error {
	const op = "VoiceManager.PushChunk"

	if !m.Store.Append(sessionID, chunk) {
		return utils.E(utils.CodeSessionNotFound, op, "session not found", nil)
	}
	return nil
}

// FinalizeTurn concatenates the buffered chunks in push order, clears the
// buffer and transcribes the result. An empty buffer is a normal no-speech
// turn and yields an empty transcript, not an error. The buffer is
// consumed either way; a transcription failure cannot be replayed.
func (m *Manager) FinalizeTurn(ctx context.Context, sessionID string) (string, error) {
	const op = "VoiceManager.FinalizeTurn"

	audio, ok := m.Store.TakePending(sessionID)
	if !ok {
		return "", utils.E(utils.CodeSessionNotFound, op, "session not found", nil)
	}
	if len(audio) == 0 {
		return "", nil
	}

	text, err := m.STT.Transcribe(ctx, audio, m.AudioFormat)
	if err != nil {
		return "", utils.E(utils.CodeTranscription, op, "transcription failed", err)
	}
	return text, nil
}

// GenerateReply streams the next dialogue turn for utterance to deliver.
// On dialogue failure the returned error carries ReplyFallback as its safe
// message so the caller can render it as the turn's text.
func (m *Manager) GenerateReply(ctx context.Context, sessionID, utterance string, deliver DeliverFunc) error {
	const op = "VoiceManager.GenerateReply"

	s, ok := m.Store.Get(sessionID)
	if !ok {
		return utils.E(utils.CodeSessionNotFound, op, "session not found", nil)
	}

	if _, err := m.Pipeline.Respond(ctx, s.DialogueID, utterance, s.Voice, s.Speed, deliver); err != nil {
		return utils.E(utils.CodeDialogue, op, ReplyFallback, err)
	}
	return nil
}

// EndSession closes the linked dialogue best-effort and removes the
// session. Ending an absent session is a no-op.
func (m *Manager) EndSession(ctx context.Context, sessionID string) {
	s, ok := m.Store.Get(sessionID)
	if !ok {
		return
	}

	if err := m.Dialogue.Close(ctx, s.DialogueID); err != nil {
		m.Log.WithError(err).WithField("session_id", sessionID).Warn("dialogue close failed")
	}
	m.Store.Delete(sessionID)

	m.Log.WithField("session_id", sessionID).Info("voice session ended")
}

// ReapIdle ends every session idle for strictly longer than threshold and
// reports how many it ended. An external scheduler drives it.
func (m *Manager) ReapIdle(ctx context.Context, now time.Time, threshold time.Duration) int {
	idle := m.Store.IdleBefore(now, threshold)
	for _, s := range idle {
		m.Log.WithFields(logrus.Fields{
			"session_id": s.ID,
			"idle_since": s.LastActivityAt,
		}).Info("reaping idle voice session")
		m.EndSession(ctx, s.ID)
	}
	return len(idle)
}
