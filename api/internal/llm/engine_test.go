package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"

	"cardiac-xai/api/internal/apperr"
	"cardiac-xai/api/internal/imaging"
)

type named string

func (n named) Name() string     { return string(n) }
func (n named) GetModel() string { return "m" }
func (n named) Infer(context.Context, string, imaging.Image) (string, error) {
	return "", nil
}

func TestGetEngine(t *testing.T) {
	e := &Engines{Gemini: named("gemini"), OpenAI: named("openai"), Stub: named("stub")}

	for in, want := range map[string]string{
		"":        "gemini",
		"Gemini":  "gemini",
		"gpt":     "openai",
		" openai": "openai",
		"stub":    "stub",
	} {
		c, err := e.GetEngine(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, c.Name(), in)
	}

	_, err := e.GetEngine("claude")
	assert.Error(t, err)

	_, err = (&Engines{}).GetEngine("openai")
	assert.Error(t, err)
}

func TestFromContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()
	<-ctx.Done()

	err := FromContext(ctx, "op", errors.New("rpc error"))
	assert.True(t, apperr.Is(err, apperr.KindUpstreamTimeout))

	cctx, ccancel := context.WithCancel(context.Background())
	ccancel()
	err = FromContext(cctx, "op", errors.New("read: connection closed"))
	assert.True(t, apperr.Is(err, apperr.KindUpstreamUnavailable))
	assert.Equal(t, "request cancelled", apperr.MessageOf(err))

	assert.NoError(t, FromContext(context.Background(), "op", errors.New("boom")))
}

func TestFromHTTPStatus(t *testing.T) {
	tests := map[int]apperr.Kind{
		400: apperr.KindUpstreamRejected,
		401: apperr.KindUpstreamRejected,
		403: apperr.KindUpstreamRejected,
		404: apperr.KindUpstreamRejected,
		408: apperr.KindUpstreamTimeout,
		429: apperr.KindUpstreamRejected,
		500: apperr.KindUpstreamUnavailable,
		502: apperr.KindUpstreamUnavailable,
		503: apperr.KindUpstreamUnavailable,
		504: apperr.KindUpstreamTimeout,
	}
	for code, want := range tests {
		err := FromHTTPStatus("op", "gemini", code, errors.New("x"))
		assert.Equal(t, want, apperr.KindOf(err, ""), "status %d", code)
	}
}

func TestFromGRPCCode(t *testing.T) {
	tests := map[codes.Code]apperr.Kind{
		codes.DeadlineExceeded:  apperr.KindUpstreamTimeout,
		codes.Unauthenticated:   apperr.KindUpstreamRejected,
		codes.PermissionDenied:  apperr.KindUpstreamRejected,
		codes.ResourceExhausted: apperr.KindUpstreamRejected,
		codes.InvalidArgument:   apperr.KindUpstreamRejected,
		codes.Unavailable:       apperr.KindUpstreamUnavailable,
		codes.Internal:          apperr.KindUpstreamUnavailable,
		codes.Canceled:          apperr.KindUpstreamUnavailable,
	}
	for code, want := range tests {
		err := FromGRPCCode("op", "gemini", code, errors.New("x"))
		assert.Equal(t, want, apperr.KindOf(err, ""), "code %s", code)
	}
}
