package voice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorePutGetDelete(t *testing.T) {
	st := NewSessionStore(nil)

	s := &Session{ID: "s1", UserID: "u1"}
	st.Put(s)

	got, ok := st.Get("s1")
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, 1, st.Len())

	st.Delete("s1")
	_, ok = st.Get("s1")
	assert.False(t, ok)
	assert.Equal(t, 0, st.Len())
}

func TestAppendRefreshesActivity(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	st := NewSessionStore(func() time.Time { return now })

	s := &Session{ID: "s1", LastActivityAt: now.Add(-time.Minute)}
	st.Put(s)

	require.True(t, st.Append("s1", []byte("ab")))
	assert.Equal(t, now, s.LastActivityAt)
	assert.Equal(t, 2, s.PendingBytes())
}

func TestAppendUnknownSession(t *testing.T) {
	st := NewSessionStore(nil)
	assert.False(t, st.Append("ghost", []byte("ab")))
}

func TestTakePendingConcatenatesInPushOrder(t *testing.T) {
	st := NewSessionStore(nil)
	st.Put(&Session{ID: "s1"})

	st.Append("s1", []byte("ab"))
	st.Append("s1", []byte("cd"))
	st.Append("s1", []byte("ef"))

	audio, ok := st.TakePending("s1")
	require.True(t, ok)
	assert.Equal(t, []byte("abcdef"), audio)

	// Buffer is consumed exactly once.
	audio, ok = st.TakePending("s1")
	require.True(t, ok)
	assert.Empty(t, audio)
}

func TestTakePendingUnknownSession(t *testing.T) {
	st := NewSessionStore(nil)
	_, ok := st.TakePending("ghost")
	assert.False(t, ok)
}

func TestIdleBeforeIsStrict(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	st := NewSessionStore(func() time.Time { return base })

	st.Put(&Session{ID: "exactly", LastActivityAt: base.Add(-10 * time.Second)})
	st.Put(&Session{ID: "older", LastActivityAt: base.Add(-11 * time.Second)})
	st.Put(&Session{ID: "fresh", LastActivityAt: base})

	idle := st.IdleBefore(base, 10*time.Second)
	require.Len(t, idle, 1)
	assert.Equal(t, "older", idle[0].ID)
}
