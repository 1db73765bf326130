// Package imagingtest builds deterministic image payloads for tests.
package imagingtest

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"
	"github.com/suyashkumar/dicom/pkg/uid"
)

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: uint8((x ^ y) & 0xFF), A: 0xFF})
		}
	}
	return img
}

func PNG(w, h int) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, gradient(w, h)); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func JPEG(w, h int) []byte {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, gradient(w, h), &jpeg.Options{Quality: 90}); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// PaddedJPEG returns a valid JPEG of at least size bytes. The padding is a run
// of COM segments right after SOI, which decoders skip.
func PaddedJPEG(w, h, size int) []byte {
	base := JPEG(w, h)
	if len(base) >= size {
		return base
	}
	out := make([]byte, 0, size+0xFFFF)
	out = append(out, base[:2]...) // SOI
	for len(out)+len(base)-2 < size {
		n := min(0xFFFD, size-(len(out)+len(base)-2))
		n = max(n, 1)
		seg := make([]byte, 4+n)
		seg[0], seg[1] = 0xFF, 0xFE
		seg[2], seg[3] = byte((n+2)>>8), byte(n+2)
		for i := range n {
			seg[4+i] = 'x'
		}
		out = append(out, seg...)
	}
	return append(out, base[2:]...)
}

// FakeDICOM has a valid DICOM preamble and magic but no dataset.
func FakeDICOM() []byte {
	b := make([]byte, 132, 256)
	copy(b[128:], "DICM")
	return append(b, []byte("garbage that is not a dataset")...)
}

// DICOM returns a single-frame, 16-bit grayscale MR dataset of w x h pixels.
func DICOM(w, h int) []byte {
	pixels := make([][]int, 0, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pixels = append(pixels, []int{(x*4096/w + y*512/h) & 0xFFFF})
		}
	}
	ds := dicom.Dataset{Elements: []*dicom.Element{
		mustElement(tag.MediaStorageSOPClassUID, []string{"1.2.840.10008.5.1.4.1.1.4"}),
		mustElement(tag.MediaStorageSOPInstanceUID, []string{"1.2.3.4.5.6.7"}),
		mustElement(tag.TransferSyntaxUID, []string{uid.ImplicitVRLittleEndian}),
		mustElement(tag.Rows, []int{h}),
		mustElement(tag.Columns, []int{w}),
		mustElement(tag.BitsAllocated, []int{16}),
		mustElement(tag.NumberOfFrames, []string{"1"}),
		mustElement(tag.SamplesPerPixel, []int{1}),
		mustElement(tag.PixelData, dicom.PixelDataInfo{
			Frames: []*frame.Frame{{
				NativeData: frame.NativeFrame{BitsPerSample: 16, Rows: h, Cols: w, Data: pixels},
			}},
		}),
	}}

	var buf bytes.Buffer
	if err := dicom.Write(&buf, ds); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func mustElement(t tag.Tag, data any) *dicom.Element {
	el, err := dicom.NewElement(t, data)
	if err != nil {
		panic(err)
	}
	return el
}
