package util

import (
	"bytes"
	"mime"
	"strings"
)

const (
	MIMEJPEG  = "image/jpeg"
	MIMEPNG   = "image/png"
	MIMEDICOM = "application/dicom"
)

var dicomMagic = []byte("DICM")

// SniffImageMIME detects JPEG, PNG and DICOM (Part 10) payloads by signature.
func SniffImageMIME(b []byte) string {
	// JPEG: FF D8
	if len(b) >= 2 && b[0] == 0xFF && b[1] == 0xD8 {
		return MIMEJPEG
	}
	// PNG
	if len(b) >= 8 &&
		b[0] == 0x89 && b[1] == 0x50 && b[2] == 0x4E && b[3] == 0x47 &&
		b[4] == 0x0D && b[5] == 0x0A && b[6] == 0x1A && b[7] == 0x0A {
		return MIMEPNG
	}
	// DICOM: 128-byte preamble, then "DICM"
	if len(b) >= 132 && bytes.Equal(b[128:132], dicomMagic) {
		return MIMEDICOM
	}
	return ""
}

// NormalizeContentType lower-cases a Content-Type and drops its parameters.
func NormalizeContentType(ct string) string {
	ct = strings.TrimSpace(ct)
	if ct == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		return strings.ToLower(mt)
	}
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

func MakeDataURL(mime, b64 string) string {
	return "data:" + mime + ";base64," + b64
}
