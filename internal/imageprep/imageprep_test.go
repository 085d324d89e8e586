package imageprep

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y += 7 {
		for x := 0; x < w; x += 7 {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func TestPrepare_DownscalesLargeJPEG(t *testing.T) {
	var in bytes.Buffer
	require.NoError(t, jpeg.Encode(&in, solid(2000, 2000), &jpeg.Options{Quality: 95}))

	out, err := Prepare(&in, Options{})
	require.NoError(t, err)
	assert.Equal(t, 800, out.Width)
	assert.Equal(t, 800, out.Height)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 800, cfg.Width)
}

func TestPrepare_KeepsAspectRatio(t *testing.T) {
	var in bytes.Buffer
	require.NoError(t, png.Encode(&in, solid(1600, 900)))

	out, err := Prepare(&in, Options{})
	require.NoError(t, err)
	assert.Equal(t, 800, out.Width)
	assert.Equal(t, 450, out.Height)
}

func TestPrepare_NeverUpscales(t *testing.T) {
	var in bytes.Buffer
	require.NoError(t, png.Encode(&in, solid(320, 480)))

	out, err := Prepare(&in, Options{MaxWidth: 800, Quality: 70})
	require.NoError(t, err)
	assert.Equal(t, 320, out.Width)
	assert.Equal(t, 480, out.Height)
}

func TestPrepare_RejectsGarbage(t *testing.T) {
	_, err := Prepare(strings.NewReader("not an image"), Options{})
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestPrepared_DataURI(t *testing.T) {
	p := Prepared{Data: []byte{0xff, 0xd8}}
	uri := p.DataURI()
	assert.True(t, strings.HasPrefix(uri, "data:image/jpeg;base64,"))
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/jpeg;base64,"))
	require.NoError(t, err)
	assert.Equal(t, p.Data, raw)
}
