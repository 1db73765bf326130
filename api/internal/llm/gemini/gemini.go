package gemini

import (
	"context"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"cardiac-xai/api/internal/apperr"
	"cardiac-xai/api/internal/imaging"
	"cardiac-xai/api/internal/llm"
)

const op = "gemini.Infer"

type Engine struct {
	APIKey string
	Model  string
}

func New(apiKey, model string) *Engine {
	return &Engine{
		APIKey: strings.TrimSpace(apiKey),
		Model:  strings.TrimSpace(model),
	}
}

func (e *Engine) Name() string     { return "gemini" }
func (e *Engine) GetModel() string { return e.Model }

// Infer sends the prompt and image in one GenerateContent call. The client is
// created and closed per call so a cancelled ctx releases its connection.
func (e *Engine) Infer(ctx context.Context, prompt string, img imaging.Image) (string, error) {
	if e.APIKey == "" {
		return "", apperr.New(apperr.KindNotConfigured, op, "GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(e.APIKey))
	if err != nil {
		return "", classify(ctx, err)
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.Model)
	if m == nil {
		return "", apperr.New(apperr.KindUpstreamUnavailable, op, "gemini: model is nil")
	}
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0),
		ResponseMIMEType: "application/json",
	}

	resp, err := m.GenerateContent(ctx,
		genai.Text(prompt),
		genai.Blob{MIMEType: img.MIMEType, Data: img.Data},
	)
	if err != nil {
		return "", classify(ctx, err)
	}
	txt := firstText(resp)
	if strings.TrimSpace(txt) == "" {
		return "", apperr.Malformed(apperr.DetailUnparsableJSON, op, "gemini returned an empty response")
	}
	return txt, nil
}

func classify(ctx context.Context, err error) error {
	if e := llm.FromContext(ctx, op, err); e != nil {
		return e
	}

	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return &apperr.Error{
			Kind:    apperr.KindUpstreamRejected,
			Op:      op,
			Message: "gemini blocked the request on safety grounds",
			Cause:   err,
		}
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return llm.FromHTTPStatus(op, "gemini", gerr.Code, err)
	}

	var aerr *apierror.APIError
	if errors.As(err, &aerr) {
		if code := aerr.HTTPCode(); code > 0 {
			return llm.FromHTTPStatus(op, "gemini", code, err)
		}
		if st := aerr.GRPCStatus(); st != nil {
			return llm.FromGRPCCode(op, "gemini", st.Code(), err)
		}
	}

	if st, ok := status.FromError(err); ok && st.Code() != codes.OK {
		return llm.FromGRPCCode(op, "gemini", st.Code(), err)
	}
	return apperr.Wrap(apperr.KindUpstreamUnavailable, op, "gemini request failed", err)
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
