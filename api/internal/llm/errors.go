package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"

	"cardiac-xai/api/internal/apperr"
)

// FromContext classifies err when it was caused by ctx ending. It returns nil
// when the context is still live and err is not a context error.
func FromContext(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return &apperr.Error{
			Kind:    apperr.KindUpstreamTimeout,
			Op:      op,
			Message: "inference provider did not respond in time",
			Cause:   err,
		}
	case errors.Is(err, context.Canceled), errors.Is(ctx.Err(), context.Canceled):
		return &apperr.Error{
			Kind:    apperr.KindUpstreamUnavailable,
			Op:      op,
			Message: "request cancelled",
			Cause:   err,
		}
	}
	return nil
}

// FromHTTPStatus maps a provider's HTTP status code to an error kind.
func FromHTTPStatus(op, provider string, code int, err error) error {
	kind := apperr.KindUpstreamUnavailable
	msg := fmt.Sprintf("%s is unavailable (HTTP %d)", provider, code)
	switch code {
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		kind = apperr.KindUpstreamTimeout
		msg = fmt.Sprintf("%s timed out (HTTP %d)", provider, code)
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = apperr.KindUpstreamRejected
		msg = fmt.Sprintf("%s rejected the credential (HTTP %d)", provider, code)
	case http.StatusTooManyRequests:
		kind = apperr.KindUpstreamRejected
		msg = fmt.Sprintf("%s quota exceeded (HTTP %d)", provider, code)
	case http.StatusBadRequest, http.StatusNotFound, http.StatusConflict,
		http.StatusRequestEntityTooLarge, http.StatusUnprocessableEntity:
		kind = apperr.KindUpstreamRejected
		msg = fmt.Sprintf("%s rejected the request (HTTP %d)", provider, code)
	}
	return &apperr.Error{Kind: kind, Op: op, Message: msg, Cause: err}
}

// FromGRPCCode maps a gRPC status code to an error kind.
func FromGRPCCode(op, provider string, code codes.Code, err error) error {
	kind := apperr.KindUpstreamUnavailable
	msg := fmt.Sprintf("%s is unavailable (%s)", provider, code)
	switch code {
	case codes.DeadlineExceeded:
		kind = apperr.KindUpstreamTimeout
		msg = fmt.Sprintf("%s timed out", provider)
	case codes.Unauthenticated, codes.PermissionDenied:
		kind = apperr.KindUpstreamRejected
		msg = fmt.Sprintf("%s rejected the credential (%s)", provider, code)
	case codes.ResourceExhausted:
		kind = apperr.KindUpstreamRejected
		msg = fmt.Sprintf("%s quota exceeded", provider)
	case codes.InvalidArgument, codes.NotFound, codes.FailedPrecondition, codes.OutOfRange:
		kind = apperr.KindUpstreamRejected
		msg = fmt.Sprintf("%s rejected the request (%s)", provider, code)
	case codes.Canceled:
		msg = "request cancelled"
	}
	return &apperr.Error{Kind: kind, Op: op, Message: msg, Cause: err}
}
