package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardiac-xai/api/internal/apperr"
	"cardiac-xai/api/internal/imaging/imagingtest"
)

func TestValidate_Accepts(t *testing.T) {
	v := NewValidator(1 << 20)

	tests := []struct {
		name        string
		data        []byte
		contentType string
		wantMIME    string
		wantFormat  string
	}{
		{"png", imagingtest.PNG(64, 48), "image/png", "image/png", "png"},
		{"jpeg", imagingtest.JPEG(64, 48), "image/jpeg", "image/jpeg", "jpeg"},
		{"jpg alias with params", imagingtest.JPEG(32, 32), "image/jpg; q=1", "image/jpeg", "jpeg"},
		{"no content type", imagingtest.PNG(16, 16), "", "image/png", "png"},
		{"octet stream", imagingtest.JPEG(16, 16), "application/octet-stream", "image/jpeg", "jpeg"},
		{"declared mismatch uses actual", imagingtest.PNG(16, 16), "image/jpeg", "image/png", "png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := v.Validate(tt.data, tt.contentType)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMIME, img.MIMEType)
			assert.Equal(t, tt.wantFormat, img.Format)
			assert.Equal(t, len(tt.data), img.Size)
			assert.Equal(t, tt.data, img.Data)
		})
	}
}

func TestValidate_Dimensions(t *testing.T) {
	img, err := NewValidator(0).Validate(imagingtest.PNG(120, 80), "image/png")
	require.NoError(t, err)
	assert.Equal(t, 120, img.Width)
	assert.Equal(t, 80, img.Height)
}

func TestValidate_DICOM(t *testing.T) {
	data := imagingtest.DICOM(48, 32)

	for _, ct := range []string{"application/dicom", "image/dicom", "application/octet-stream", ""} {
		t.Run(ct, func(t *testing.T) {
			img, err := NewValidator(0).Validate(data, ct)
			require.NoError(t, err)
			assert.Equal(t, "dicom", img.Format)
			assert.Equal(t, "image/png", img.MIMEType)
			assert.Equal(t, len(data), img.Size)
			assert.Equal(t, 48, img.Width)
			assert.Equal(t, 32, img.Height)

			cfg, format, err := image.DecodeConfig(bytes.NewReader(img.Data))
			require.NoError(t, err)
			assert.Equal(t, "png", format)
			assert.Equal(t, 48, cfg.Width)
			assert.Equal(t, 32, cfg.Height)

			b64, err := Echo(img, DefaultEchoMaxDimension)
			require.NoError(t, err)
			raw, err := base64.StdEncoding.DecodeString(b64)
			require.NoError(t, err)
			cfg, format, err = image.DecodeConfig(bytes.NewReader(raw))
			require.NoError(t, err)
			assert.Equal(t, "png", format)
			assert.Equal(t, 48, cfg.Width)
		})
	}
}

func TestValidate_Rejects(t *testing.T) {
	v := NewValidator(4096)
	truncated := imagingtest.PNG(64, 64)
	truncated = truncated[:len(truncated)/2]

	tests := []struct {
		name        string
		data        []byte
		contentType string
		detail      string
	}{
		{"empty", nil, "image/png", ""},
		{"too large", imagingtest.PaddedJPEG(8, 8, 8192), "image/jpeg", apperr.DetailTooLarge},
		{"gif content type", imagingtest.PNG(8, 8), "image/gif", ""},
		{"text content type", imagingtest.PNG(8, 8), "text/plain", ""},
		{"not an image", []byte("hello, this is not an image at all"), "image/png", ""},
		{"gif bytes", []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;"), "", ""},
		{"truncated png", truncated, "image/png", ""},
		{"dicom without dataset", imagingtest.FakeDICOM(), "application/dicom", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Validate(tt.data, tt.contentType)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindInvalidImage), "got %v", err)
			assert.Equal(t, tt.detail, apperr.DetailOf(err))
		})
	}
}

func TestValidate_SizeBoundary(t *testing.T) {
	data := imagingtest.PaddedJPEG(8, 8, 5000)
	v := NewValidator(int64(len(data)))
	_, err := v.Validate(data, "image/jpeg")
	require.NoError(t, err)

	v = NewValidator(int64(len(data) - 1))
	_, err = v.Validate(data, "image/jpeg")
	assert.True(t, apperr.Is(err, apperr.KindInvalidImage))
}

func TestEcho_Downscales(t *testing.T) {
	img, err := NewValidator(0).Validate(imagingtest.JPEG(400, 200), "image/jpeg")
	require.NoError(t, err)

	b64, err := Echo(img, 100)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(b64)
	require.NoError(t, err)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 50, cfg.Height)
}

func TestEcho_KeepsSmallImages(t *testing.T) {
	img := Image{Data: imagingtest.PNG(30, 60), MIMEType: "image/png"}

	b64, err := Echo(img, 1024)
	require.NoError(t, err)
	raw, err := base64.StdEncoding.DecodeString(b64)
	require.NoError(t, err)
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Width)
	assert.Equal(t, 60, cfg.Height)
}
