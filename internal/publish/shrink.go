package publish

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

// maxImageSide is the longest edge an oversized photo is scaled down to.
const maxImageSide = 2560

// fitUploadLimit returns data unchanged when it fits in limit bytes.
// Larger images are scaled down and re-encoded as JPEG.
func fitUploadLimit(data []byte, limit int) ([]byte, error) {
	if len(data) <= limit {
		return data, nil
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode oversized image: %w", err)
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if longest := max(w, h); longest > maxImageSide {
		w = w * maxImageSide / longest
		h = h * maxImageSide / longest
	}
	dst := image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var buf bytes.Buffer
	for quality := 85; quality >= 55; quality -= 15 {
		buf.Reset()
		if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("failed to encode image: %w", err)
		}
		if buf.Len() <= limit {
			return buf.Bytes(), nil
		}
	}
	return nil, fmt.Errorf("%w: %d bytes after resizing, limit %d", ErrFileTooLarge, buf.Len(), limit)
}
