package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// decodeDICOM returns the first frame of a DICOM Part 10 file as an image.
func decodeDICOM(data []byte) (img image.Image, err error) {
	// the parser panics on some truncated datasets
	defer func() {
		if r := recover(); r != nil {
			img, err = nil, fmt.Errorf("parse dicom: %v", r)
		}
	}()

	ds, err := dicom.Parse(bytes.NewReader(data), int64(len(data)), nil)
	if err != nil {
		return nil, fmt.Errorf("parse dicom: %w", err)
	}
	el, err := ds.FindElementByTag(tag.PixelData)
	if err != nil {
		return nil, fmt.Errorf("find pixel data: %w", err)
	}
	info, ok := el.Value.GetValue().(dicom.PixelDataInfo)
	if !ok {
		return nil, errors.New("pixel data element has unexpected value type")
	}
	if len(info.Frames) == 0 {
		return nil, errors.New("pixel data has no frames")
	}
	frame, err := info.Frames[0].GetImage()
	if err != nil {
		return nil, fmt.Errorf("render frame: %w", err)
	}
	return frame, nil
}
