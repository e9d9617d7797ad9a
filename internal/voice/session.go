package voice

import "time"

// Session tracks one user's in-progress voice turn-taking. The session
// exclusively owns its audio buffer; chunks are appended in arrival order
// and concatenated in that same order by finalize.
type Session struct {
	ID         string
	UserID     string
	LessonID   string
	DialogueID string

	// Synthesis preferences chosen at creation; out-of-range values are
	// clamped by the synthesis cache, not here.
	Voice string
	Speed float64

	pendingAudio [][]byte

	CreatedAt      time.Time
	LastActivityAt time.Time
}

// PendingBytes reports the total buffered size since the last finalize.
func (s *Session) PendingBytes() int {
	n := 0
	for _, c := range s.pendingAudio {
		n += len(c)
	}
	return n
}
