package handle

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"cardiac-xai/api/internal/analysis"
	"cardiac-xai/api/internal/apperr"
)

// multipartSlack covers form boundaries and the optional text fields.
const multipartSlack = 1 << 20

// Analyze handles POST /analyze with a multipart "file" field and an optional
// "patient_history" field.
func (h *Handle) Analyze(c *gin.Context) {
	const op = "handle.Analyze"
	maxBytes := h.svc.Config().MaxImageBytes

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartSlack)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			e := apperr.Newf(apperr.KindInvalidImage, op, "upload exceeds the %d byte limit", maxBytes)
			e.Detail = apperr.DetailTooLarge
			writeOutcome(c, failure(c, e))
			return
		}
		writeOutcome(c, failure(c, apperr.New(apperr.KindInvalidImage, op,
			`multipart field "file" with the image is required`)))
		return
	}
	f, err := fh.Open()
	if err != nil {
		writeOutcome(c, failure(c, apperr.New(apperr.KindInvalidImage, op, "cannot read uploaded file")))
		return
	}
	defer f.Close()

	// one byte past the limit is enough for the validator to reject it
	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		writeOutcome(c, failure(c, apperr.New(apperr.KindInvalidImage, op, "cannot read uploaded file")))
		return
	}

	out := h.svc.Analyze(c.Request.Context(), analysis.Input{
		Data:           data,
		ContentType:    fh.Header.Get("Content-Type"),
		PatientHistory: c.PostForm("patient_history"),
		RequestID:      c.GetString(RequestIDKey),
		Timeout:        requestTimeout(c),
	})
	writeOutcome(c, out)
}

// requestTimeout reads the X-Request-Timeout header (or ?timeoutSec=) in seconds.
func requestTimeout(c *gin.Context) time.Duration {
	ts := c.GetHeader("X-Request-Timeout")
	if ts == "" {
		ts = c.Query("timeoutSec")
	}
	if v, _ := strconv.Atoi(strings.TrimSpace(ts)); v > 0 {
		return time.Duration(v) * time.Second
	}
	return 0
}
