package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/sashabaranov/go-openai"

	"cardiac-xai/api/internal/apperr"
	"cardiac-xai/api/internal/imaging"
	"cardiac-xai/api/internal/llm"
	"cardiac-xai/api/internal/util"
)

const op = "openai.Infer"

type Engine struct {
	APIKey  string
	Model   string
	BaseURL string
}

func New(key, model, baseURL string) *Engine {
	return &Engine{
		APIKey:  strings.TrimSpace(key),
		Model:   strings.TrimSpace(model),
		BaseURL: strings.TrimSpace(baseURL),
	}
}

func (e *Engine) Name() string     { return "openai" }
func (e *Engine) GetModel() string { return e.Model }

func (e *Engine) client() *openai.Client {
	cfg := openai.DefaultConfig(e.APIKey)
	if e.BaseURL != "" {
		cfg.BaseURL = e.BaseURL
	}
	return openai.NewClientWithConfig(cfg)
}

// Infer issues one chat completion with the prompt as a text part and the image
// as a data URL part, asking for a JSON object response.
func (e *Engine) Infer(ctx context.Context, prompt string, img imaging.Image) (string, error) {
	if e.APIKey == "" {
		return "", apperr.New(apperr.KindNotConfigured, op, "OPENAI_API_KEY is empty")
	}
	dataURL := util.MakeDataURL(img.MIMEType, base64.StdEncoding.EncodeToString(img.Data))

	req := openai.ChatCompletionRequest{
		Model:       e.Model,
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailHigh,
						},
					},
				},
			},
		},
	}

	resp, err := e.client().CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classify(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return "", apperr.Malformed(apperr.DetailUnparsableJSON, op, "openai returned no choices")
	}
	choice := resp.Choices[0]
	if choice.FinishReason == openai.FinishReasonContentFilter {
		return "", apperr.New(apperr.KindUpstreamRejected, op, "openai filtered the response")
	}
	out := choice.Message.Content
	if strings.TrimSpace(out) == "" {
		return "", apperr.Malformed(apperr.DetailUnparsableJSON, op, "openai returned an empty response")
	}
	return out, nil
}

func classify(ctx context.Context, err error) error {
	if e := llm.FromContext(ctx, op, err); e != nil {
		return e
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return llm.FromHTTPStatus(op, "openai", apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		return llm.FromHTTPStatus(op, "openai", reqErr.HTTPStatusCode, err)
	}
	return apperr.Wrap(apperr.KindUpstreamUnavailable, op, "openai request failed", err)
}
