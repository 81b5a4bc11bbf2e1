package utils

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"
)

const (
	MaxImageWidth  = 1024
	ThumbnailWidth = 200
)

// ProcessedImage is an uploaded image normalised for storage.
type ProcessedImage struct {
	Data          []byte
	ContentType   string
	Thumbnail     []byte
	ThumbnailType string
}

// ProcessImage decodes an upload, caps its width and renders a thumbnail.
// PNG input stays PNG; everything else is re-encoded as JPEG.
func ProcessImage(data []byte, contentType string) (*ProcessedImage, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, NewValidationError("invalid image: %v", err)
	}

	format, outType := imaging.JPEG, "image/jpeg"
	if contentType == "image/png" {
		format, outType = imaging.PNG, "image/png"
	}

	if img.Bounds().Dx() > MaxImageWidth {
		img = imaging.Resize(img, MaxImageWidth, 0, imaging.Lanczos)
	}
	full, err := encodeImage(img, format)
	if err != nil {
		return nil, err
	}
	thumb, err := encodeImage(imaging.Resize(img, ThumbnailWidth, 0, imaging.Lanczos), format)
	if err != nil {
		return nil, err
	}
	return &ProcessedImage{
		Data:          full,
		ContentType:   outType,
		Thumbnail:     thumb,
		ThumbnailType: outType,
	}, nil
}

func encodeImage(img image.Image, format imaging.Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ThumbnailKey is where the thumbnail of objectKey is stored.
func ThumbnailKey(objectKey string) string {
	return objectKey + ".thumb"
}
