package llm

import (
	"context"
	"fmt"
	"strings"

	"cardiac-xai/api/internal/imaging"
)

// Client is a multimodal inference provider: given a prompt and an image it
// returns the model's raw text. Implementations make exactly one outbound call
// per Infer and return *apperr.Error values on failure.
type Client interface {
	Name() string
	GetModel() string
	Infer(ctx context.Context, prompt string, img imaging.Image) (string, error)
}

type Engines struct {
	Gemini Client
	OpenAI Client
	Stub   Client
}

func (e *Engines) GetEngine(name string) (Client, error) {
	var c Client
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "gemini", "google":
		c = e.Gemini
	case "gpt", "openai":
		c = e.OpenAI
	case "stub", "fake":
		c = e.Stub
	default:
		return nil, fmt.Errorf("unknown llm provider %q; use 'gemini', 'openai' or 'stub'", name)
	}
	if c == nil {
		return nil, fmt.Errorf("llm provider %q is not wired", name)
	}
	return c, nil
}
