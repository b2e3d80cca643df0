package services

import (
	"bytes"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
)

const ThumbnailWidth = 300

// Thumbnail décode une image et la redimensionne à width pixels de large (ratio conservé), encodée en JPEG
func Thumbnail(r io.Reader, width int) ([]byte, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("image illisible: %w", err)
	}

	thumb := imaging.Resize(img, width, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
