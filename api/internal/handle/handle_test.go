package handle

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardiac-xai/api/internal/analysis"
	"cardiac-xai/api/internal/apperr"
	"cardiac-xai/api/internal/imaging"
	"cardiac-xai/api/internal/imaging/imagingtest"
	"cardiac-xai/api/internal/report"
)

const normalJSON = `{"primary_diagnosis":{"classification":"Normal","confidence":92},"affected_regions":[],"clinical_findings":["No abnormalities detected"],"explanation":"Normal study.","risk_assessment":{"risk_level":"Low","rationale":"No findings."}}`

type fakeClient struct {
	reply   string
	err     error
	block   bool
	history string
}

func (f *fakeClient) Name() string     { return "gemini" }
func (f *fakeClient) GetModel() string { return "gemini-test" }

func (f *fakeClient) Infer(ctx context.Context, prompt string, _ imaging.Image) (string, error) {
	f.history = prompt
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.reply, f.err
}

func router(cfg analysis.Config, c *fakeClient) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := New(analysis.NewService(cfg, c))
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(RequestIDKey, "test-req")
		c.Next()
	})
	r.GET("/", h.Index)
	r.GET("/health", h.Health)
	r.POST("/analyze", h.Analyze)
	return r
}

func upload(t *testing.T, field string, data []byte, contentType string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if data != nil {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", `form-data; name="`+field+`"; filename="scan.bin"`)
		hdr.Set("Content-Type", contentType)
		w, err := mw.CreatePart(hdr)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func doAnalyze(t *testing.T, r *gin.Engine, body *bytes.Buffer, ct string, headers map[string]string) (*httptest.ResponseRecorder, analysis.Outcome) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", ct)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out analysis.Outcome
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w, out
}

func TestAnalyze_Success(t *testing.T) {
	c := &fakeClient{reply: "```json\n" + normalJSON + "\n```"}
	r := router(analysis.Config{Credential: "k", EchoImage: true}, c)

	body, ct := upload(t, "file", imagingtest.JPEG(64, 64), "image/jpeg", map[string]string{"patient_history": "post-MI follow-up"})
	w, out := doAnalyze(t, r, body, ct, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, out.Success)
	assert.Equal(t, "test-req", out.RequestID)
	require.NotNil(t, out.Analysis)
	assert.Equal(t, report.ClassNormal, out.Analysis.PrimaryDiagnosis.Classification)
	assert.Equal(t, 92, out.Analysis.PrimaryDiagnosis.Confidence)
	assert.NotEmpty(t, out.ImageBase64)
	assert.Nil(t, out.Error)
	assert.Contains(t, c.history, "post-MI follow-up")

	var raw map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.NotContains(t, raw, "error")
	analysisJSON := raw["analysis"].(map[string]any)
	assert.Equal(t, []any{}, analysisJSON["affected_regions"])
}

func TestAnalyze_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		cfg    analysis.Config
		client *fakeClient
		data   []byte
		ct     string
		status int
		kind   apperr.Kind
	}{
		{"not configured", analysis.Config{}, &fakeClient{reply: normalJSON}, imagingtest.PNG(8, 8), "image/png",
			http.StatusServiceUnavailable, apperr.KindNotConfigured},
		{"invalid image", analysis.Config{Credential: "k"}, &fakeClient{reply: normalJSON}, []byte("plain text"), "text/plain",
			http.StatusBadRequest, apperr.KindInvalidImage},
		{"too large", analysis.Config{Credential: "k", MaxImageBytes: 1000}, &fakeClient{reply: normalJSON}, imagingtest.PaddedJPEG(8, 8, 4000), "image/jpeg",
			http.StatusRequestEntityTooLarge, apperr.KindInvalidImage},
		{"body over limit", analysis.Config{Credential: "k", MaxImageBytes: 1000}, &fakeClient{reply: normalJSON}, imagingtest.PaddedJPEG(8, 8, 3<<20), "image/jpeg",
			http.StatusRequestEntityTooLarge, apperr.KindInvalidImage},
		{"malformed", analysis.Config{Credential: "k"}, &fakeClient{reply: "Sorry, no."}, imagingtest.PNG(8, 8), "image/png",
			http.StatusBadGateway, apperr.KindMalformedResponse},
		{"rejected", analysis.Config{Credential: "k"}, &fakeClient{err: apperr.New(apperr.KindUpstreamRejected, "x", "quota exceeded")}, imagingtest.PNG(8, 8), "image/png",
			http.StatusBadGateway, apperr.KindUpstreamRejected},
		{"timeout", analysis.Config{Credential: "k", Timeout: 30 * time.Millisecond}, &fakeClient{block: true}, imagingtest.PNG(8, 8), "image/png",
			http.StatusGatewayTimeout, apperr.KindUpstreamTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := upload(t, "file", tt.data, tt.ct, nil)
			w, out := doAnalyze(t, router(tt.cfg, tt.client), body, ct, nil)
			assert.Equal(t, tt.status, w.Code)
			assert.False(t, out.Success)
			require.NotNil(t, out.Error)
			assert.Equal(t, tt.kind, out.Error.Kind)
			assert.NotEmpty(t, out.Error.Message)
			assert.Nil(t, out.Analysis)
		})
	}
}

func TestAnalyze_BodyOverLimit(t *testing.T) {
	c := &fakeClient{reply: normalJSON}
	r := router(analysis.Config{Credential: "k", MaxImageBytes: 1000}, c)
	body, ct := upload(t, "file", imagingtest.PaddedJPEG(8, 8, 3<<20), "image/jpeg", nil)

	w, out := doAnalyze(t, r, body, ct, nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	require.NotNil(t, out.Error)
	assert.Equal(t, apperr.KindInvalidImage, out.Error.Kind)
	assert.Equal(t, apperr.DetailTooLarge, out.Error.Detail)
	assert.Contains(t, out.Error.Message, "1000 byte limit")
	assert.Empty(t, c.history)
}

func TestAnalyze_MissingFile(t *testing.T) {
	r := router(analysis.Config{Credential: "k"}, &fakeClient{reply: normalJSON})
	body, ct := upload(t, "image", imagingtest.PNG(8, 8), "image/png", nil)

	w, out := doAnalyze(t, r, body, ct, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, out.Error)
	assert.Equal(t, apperr.KindInvalidImage, out.Error.Kind)
	assert.Equal(t, "test-req", out.RequestID)
}

func TestAnalyze_RequestTimeoutHeader(t *testing.T) {
	r := router(analysis.Config{Credential: "k", Timeout: time.Hour}, &fakeClient{block: true})
	body, ct := upload(t, "file", imagingtest.PNG(8, 8), "image/png", nil)

	start := time.Now()
	w, out := doAnalyze(t, r, body, ct, map[string]string{"X-Request-Timeout": "1"})
	assert.Less(t, time.Since(start), 10*time.Second)
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Equal(t, apperr.KindUpstreamTimeout, out.Error.Kind)
}

func TestHealth(t *testing.T) {
	for _, tt := range []struct {
		cred string
		want bool
	}{{"", false}, {"k", true}} {
		r := router(analysis.Config{Credential: tt.cred}, &fakeClient{})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		var got HealthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "healthy", got.Status)
		assert.Equal(t, "gemini", got.Provider)
		assert.Equal(t, "gemini-test", got.Model)
		assert.Equal(t, tt.want, got.APIConfigured)
		assert.Equal(t, tt.want, got.GeminiAPIConfigured)
	}
}

func TestIndex(t *testing.T) {
	r := router(analysis.Config{}, &fakeClient{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Cardiac MRI XAI API")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusOK, StatusFor(analysis.Outcome{Success: true}))
	assert.Equal(t, http.StatusBadGateway, StatusFor(analysis.Outcome{Error: &analysis.Failure{Kind: apperr.KindUpstreamUnavailable}}))
}
