package dialogue

import (
	"context"
	"errors"
	"strings"
	"sync"

	vertexgenai "cloud.google.com/go/vertexai/genai"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
)

const tutorPrompt = "You are a friendly English conversation tutor. " +
	"Keep replies short and spoken-sounding, gently correct mistakes, " +
	"and always end with a question that keeps the learner talking."

type VertexGemini struct {
	client *vertexgenai.Client
	model  *vertexgenai.GenerativeModel

	mu    sync.Mutex
	chats map[string]*vertexgenai.ChatSession
}

func NewVertexGemini(ctx context.Context, projectID, location, modelName string) (*VertexGemini, error) {
	c, err := vertexgenai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	m := c.GenerativeModel(modelName)
	m.SystemInstruction = &vertexgenai.Content{
		Parts: []vertexgenai.Part{vertexgenai.Text(tutorPrompt)},
	}
	return &VertexGemini{client: c, model: m, chats: make(map[string]*vertexgenai.ChatSession)}, nil
}

// Shutdown releases the underlying Vertex client.
func (v *VertexGemini) Shutdown() error { return v.client.Close() }

func (v *VertexGemini) Open(ctx context.Context, op Opening) (string, error) {
	cs := v.model.StartChat()
	if op.LessonID != "" {
		cs.History = []*vertexgenai.Content{
			{Role: "user", Parts: []vertexgenai.Part{vertexgenai.Text("We are practicing lesson " + op.LessonID + ".")}},
			{Role: "model", Parts: []vertexgenai.Part{vertexgenai.Text("Got it, let's practice.")}},
		}
	}

	id := uuid.NewString()
	v.mu.Lock()
	v.chats[id] = cs
	v.mu.Unlock()
	return id, nil
}

func (v *VertexGemini) Reply(ctx context.Context, dialogueID, utterance string) (string, error) {
	v.mu.Lock()
	cs, ok := v.chats[dialogueID]
	v.mu.Unlock()
	if !ok {
		return "", errors.New("unknown dialogue id: " + dialogueID)
	}

	it := cs.SendMessageStream(ctx, vertexgenai.Text(utterance))

	var sb strings.Builder
	for {
		resp, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return "", err
		}
		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				if t, ok := part.(vertexgenai.Text); ok {
					sb.WriteString(string(t))
				}
			}
		}
	}
	return sb.String(), nil
}

func (v *VertexGemini) Close(ctx context.Context, dialogueID string) error {
	v.mu.Lock()
	delete(v.chats, dialogueID)
	v.mu.Unlock()
	return nil
}
