package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cardiac-xai/api/internal/analysis"
	"cardiac-xai/api/internal/apperr"
)

// RequestIDKey is the gin context key holding the request id.
const RequestIDKey = "request_id"

type Handle struct {
	svc *analysis.Service
}

func New(svc *analysis.Service) *Handle {
	return &Handle{svc: svc}
}

// StatusFor maps an outcome to its HTTP status code.
func StatusFor(out analysis.Outcome) int {
	if out.Success || out.Error == nil {
		return http.StatusOK
	}
	switch out.Error.Kind {
	case apperr.KindInvalidImage:
		if out.Error.Detail == apperr.DetailTooLarge {
			return http.StatusRequestEntityTooLarge
		}
		return http.StatusBadRequest
	case apperr.KindNotConfigured:
		return http.StatusServiceUnavailable
	case apperr.KindUpstreamTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func writeOutcome(c *gin.Context, out analysis.Outcome) {
	c.JSON(StatusFor(out), out)
}

func failure(c *gin.Context, err *apperr.Error) analysis.Outcome {
	return analysis.Outcome{
		RequestID: c.GetString(RequestIDKey),
		Error: &analysis.Failure{
			Kind:    err.Kind,
			Message: err.Message,
			Detail:  err.Detail,
		},
	}
}
