// Package imageprep shrinks photos before upload so the analysis request
// stays small.
package imageprep

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"

	"golang.org/x/image/draw"
)

const (
	MaxWidth = 800
	Quality  = 70
)

var ErrUnsupported = errors.New("unsupported image")

// Options tune Prepare; the zero value uses MaxWidth and Quality.
type Options struct {
	MaxWidth int
	Quality  int
}

// Prepared is the re-encoded JPEG plus its final size.
type Prepared struct {
	Data   []byte
	Width  int
	Height int
}

// DataURI returns the form POST /api/analyze expects.
func (p Prepared) DataURI() string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(p.Data)
}

// Prepare decodes r (JPEG, PNG or GIF), scales it down to at most MaxWidth
// pixels wide keeping the aspect ratio, and re-encodes it as JPEG. Images
// already narrow enough are re-encoded without scaling.
func Prepare(r io.Reader, opts Options) (Prepared, error) {
	if opts.MaxWidth <= 0 {
		opts.MaxWidth = MaxWidth
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = Quality
	}

	src, _, err := image.Decode(r)
	if err != nil {
		return Prepared{}, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	dst := scale(src, opts.MaxWidth)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: opts.Quality}); err != nil {
		return Prepared{}, fmt.Errorf("encode jpeg: %w", err)
	}
	b := dst.Bounds()
	return Prepared{Data: buf.Bytes(), Width: b.Dx(), Height: b.Dy()}, nil
}

func scale(src image.Image, maxWidth int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxWidth {
		return src
	}
	nh := h * maxWidth / w
	if nh < 1 {
		nh = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
