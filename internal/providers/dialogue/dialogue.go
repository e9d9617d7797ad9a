package dialogue

import "context"

// Opening carries the context a new dialogue is scoped to.
type Opening struct {
	UserID   string
	LessonID string
}

// Provider owns dialogue turn history. The voice engine only ever holds
// the opaque dialogue id this interface hands out.
type Provider interface {
	Open(ctx context.Context, op Opening) (string, error)
	Reply(ctx context.Context, dialogueID, utterance string) (string, error)
	Close(ctx context.Context, dialogueID string) error
}
