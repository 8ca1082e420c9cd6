package utils

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"strings"

	"golang.org/x/image/draw"
)

// maxDecodedBytes caps the decoded pixel buffer. A crafted file can claim
// 65535x65535 in its header and make image.Decode allocate ~16GB.
const maxDecodedBytes = 512 << 20

// IsThumbnailable reports whether a thumbnail can be generated for the
// given MIME type. Only stdlib-decodable images qualify.
func IsThumbnailable(mimeType string) bool {
	switch strings.ToLower(mimeType) {
	case "image/jpeg", "image/png", "image/gif":
		return true
	}
	return false
}

// GenerateThumbnail decodes an image and scales it down so its longest side
// is at most maxPx, encoding the result as JPEG. Images already small
// enough are re-encoded without scaling.
func GenerateThumbnail(data io.Reader, maxPx int) ([]byte, error) {
	raw, err := io.ReadAll(data)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to read image dimensions: %w", err)
	}
	if int64(cfg.Width)*int64(cfg.Height)*4 > maxDecodedBytes {
		return nil, fmt.Errorf("image too large: %dx%d pixels", cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	tw, th := w, h
	if w > maxPx || h > maxPx {
		if w >= h {
			tw = maxPx
			th = h * maxPx / w
		} else {
			th = maxPx
			tw = w * maxPx / h
		}
		if tw < 1 {
			tw = 1
		}
		if th < 1 {
			th = 1
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: 80}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return out.Bytes(), nil
}
