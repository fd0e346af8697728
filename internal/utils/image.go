package utils

import (
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"
)

var ErrUnsupportedImage = errors.New("unsupported image format")

// DownscaleImage decodes a photo and shrinks it to maxWidth keeping the
// aspect ratio. Images already narrow enough come back untouched.
func DownscaleImage(r io.Reader, filename string, maxWidth uint) (image.Image, error) {
	img, err := decodeImage(r, filename)
	if err != nil {
		return nil, err
	}

	if maxWidth == 0 || uint(img.Bounds().Dx()) <= maxWidth {
		return img, nil
	}

	// zero height preserves the aspect ratio
	return resize.Resize(maxWidth, 0, img, resize.Lanczos3), nil
}

func decodeImage(r io.Reader, filename string) (image.Image, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return jpeg.Decode(r)
	case ".png":
		return png.Decode(r)
	default:
		img, _, err := image.Decode(r)
		return img, err
	}
}

func EncodeImage(img image.Image, format string, w io.Writer, quality int) error {
	switch strings.ToLower(format) {
	case "jpg", "jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	case "png":
		return png.Encode(w, img)
	default:
		return ErrUnsupportedImage
	}
}

func IsImageFile(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}
