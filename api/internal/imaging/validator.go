package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/apex/log"

	"cardiac-xai/api/internal/apperr"
	"cardiac-xai/api/internal/util"
)

const (
	DefaultMaxBytes = 20 << 20

	// maxPixels bounds decode memory for hostile headers.
	maxPixels = 40_000_000
)

// Image is a validated upload, ready to be forwarded to an inference provider.
// It lives for a single request.
type Image struct {
	// Data is what gets sent upstream: the original JPEG/PNG bytes, or a PNG
	// rendering of the first DICOM frame.
	Data         []byte
	MIMEType     string
	DeclaredType string
	// Format is the detected source encoding: "jpeg", "png" or "dicom".
	Format string
	// Size is the byte length of the original upload.
	Size   int
	Width  int
	Height int

	decoded image.Image
}

// declared content type -> expected sniffed type ("" means sniff only)
var declaredTypes = map[string]string{
	"":                         "",
	"application/octet-stream": "",
	"image/jpeg":               util.MIMEJPEG,
	"image/jpg":                util.MIMEJPEG,
	"image/pjpeg":              util.MIMEJPEG,
	"image/png":                util.MIMEPNG,
	"application/dicom":        util.MIMEDICOM,
	"image/dicom":              util.MIMEDICOM,
}

type Validator struct {
	maxBytes int64
}

func NewValidator(maxBytes int64) *Validator {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Validator{maxBytes: maxBytes}
}

func (v *Validator) MaxBytes() int64 { return v.maxBytes }

// Validate checks size, declared type, signature and decodability of an upload.
// Every failure is an apperr.KindInvalidImage error.
func (v *Validator) Validate(data []byte, contentType string) (Image, error) {
	const op = "imaging.Validate"

	if len(data) == 0 {
		return Image{}, apperr.New(apperr.KindInvalidImage, op, "image is empty")
	}
	if int64(len(data)) > v.maxBytes {
		err := apperr.Newf(apperr.KindInvalidImage, op,
			"image is %d bytes, the limit is %d bytes", len(data), v.maxBytes)
		err.Detail = apperr.DetailTooLarge
		return Image{}, err
	}

	declared := util.NormalizeContentType(contentType)
	want, ok := declaredTypes[declared]
	if !ok {
		return Image{}, apperr.Newf(apperr.KindInvalidImage, op,
			"unsupported content type %q: use JPEG, PNG or DICOM", declared)
	}

	actual := util.SniffImageMIME(data)
	if actual == "" {
		return Image{}, apperr.New(apperr.KindInvalidImage, op,
			"file is not a JPEG, PNG or DICOM image")
	}
	if want != "" && want != actual {
		log.WithFields(log.Fields{
			"declared": declared,
			"actual":   actual,
			"header":   fmt.Sprintf("%x", data[:min(len(data), 16)]),
		}).Warn("declared content type does not match payload")
	}

	if actual == util.MIMEDICOM {
		return v.fromDICOM(data, declared)
	}
	return v.fromRaster(data, declared, actual)
}

func (v *Validator) fromRaster(data []byte, declared, mimeType string) (Image, error) {
	const op = "imaging.Validate"

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Image{}, apperr.Wrap(apperr.KindInvalidImage, op, "image header is corrupted", err)
	}
	if err := checkDimensions(cfg.Width, cfg.Height); err != nil {
		return Image{}, err
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Image{}, apperr.Wrap(apperr.KindInvalidImage, op, "image data cannot be decoded", err)
	}
	b := img.Bounds()
	return Image{
		Data:         data,
		MIMEType:     mimeType,
		DeclaredType: declared,
		Format:       format,
		Size:         len(data),
		Width:        b.Dx(),
		Height:       b.Dy(),
		decoded:      img,
	}, nil
}

func (v *Validator) fromDICOM(data []byte, declared string) (Image, error) {
	const op = "imaging.Validate"

	img, err := decodeDICOM(data)
	if err != nil {
		return Image{}, apperr.Wrap(apperr.KindInvalidImage, op, "DICOM file has no decodable image frame", err)
	}
	b := img.Bounds()
	if err := checkDimensions(b.Dx(), b.Dy()); err != nil {
		return Image{}, err
	}
	rendered, err := encodePNG(img)
	if err != nil {
		return Image{}, apperr.Wrap(apperr.KindInvalidImage, op, "DICOM frame cannot be rendered", err)
	}
	return Image{
		Data:         rendered,
		MIMEType:     util.MIMEPNG,
		DeclaredType: declared,
		Format:       "dicom",
		Size:         len(data),
		Width:        b.Dx(),
		Height:       b.Dy(),
		decoded:      img,
	}, nil
}

func checkDimensions(w, h int) error {
	const op = "imaging.Validate"
	if w <= 0 || h <= 0 {
		return apperr.Newf(apperr.KindInvalidImage, op, "image has invalid dimensions %dx%d", w, h)
	}
	if int64(w)*int64(h) > maxPixels {
		return apperr.Newf(apperr.KindInvalidImage, op,
			"image is %dx%d, more than %d pixels", w, h, maxPixels)
	}
	return nil
}
