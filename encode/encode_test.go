package encode

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 16, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 16; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 16), G: uint8(y * 32), B: 128, A: 255})
		}
	}
	return img
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"png", PNG},
		{"PNG", PNG},
		{"jpeg", JPEG},
		{"JPG", JPEG},
		{"jpg", JPEG},
		{"WebP", WebP},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseFormat_Unsupported(t *testing.T) {
	for _, in := range []string{"gif", "", "tiff", "pngg"} {
		_, err := ParseFormat(in)
		var ufe *UnsupportedFormatError
		require.ErrorAs(t, err, &ufe, in)
		assert.Equal(t, in, ufe.Format)
	}
}

func TestResolveQuality(t *testing.T) {
	assert.Equal(t, DefaultJPEGQuality, ResolveQuality(JPEG, 150))
	assert.Equal(t, DefaultJPEGQuality, ResolveQuality(JPEG, -1))
	assert.Equal(t, 0, ResolveQuality(JPEG, 0))
	assert.Equal(t, 100, ResolveQuality(WebP, 100))
	assert.Equal(t, DefaultWebPQuality, ResolveQuality(WebP, 101))
	assert.Equal(t, 0, ResolveQuality(PNG, 300))
}

func TestEncode_PNGDeterministic(t *testing.T) {
	img := testImage()
	a, err := Bytes(img, PNG, -1)
	require.NoError(t, err)
	b, err := Bytes(img, PNG, 90)
	require.NoError(t, err)
	assert.Equal(t, a, b, "PNG ignores quality and is deterministic")

	decoded, err := png.Decode(bytes.NewReader(a))
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())
	r, g, bl, al := decoded.At(3, 2).RGBA()
	assert.Equal(t, [4]uint32{48, 64, 128, 255}, [4]uint32{r >> 8, g >> 8, bl >> 8, al >> 8})
}

func TestEncode_JPEGOutOfRangeQualityMatchesDefault(t *testing.T) {
	img := testImage()
	fallback, err := Bytes(img, JPEG, 150)
	require.NoError(t, err)
	explicit, err := Bytes(img, JPEG, DefaultJPEGQuality)
	require.NoError(t, err)
	assert.Equal(t, explicit, fallback)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(fallback))
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Width)
	assert.Equal(t, 8, cfg.Height)
}

func TestEncode_WebP(t *testing.T) {
	out, err := Bytes(testImage(), WebP, 80)
	require.NoError(t, err)
	require.Greater(t, len(out), 12)
	assert.Equal(t, "RIFF", string(out[:4]))
	assert.Equal(t, "WEBP", string(out[8:12]))
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestEncode_WriteFailure(t *testing.T) {
	err := Encode(failWriter{}, testImage(), PNG, 0)
	var ee *Error
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, PNG, ee.Format)
	assert.Contains(t, err.Error(), "disk full")
}

func TestFormat_MediaType(t *testing.T) {
	assert.Equal(t, "image/png", PNG.MediaType())
	assert.Equal(t, "image/jpeg", JPEG.MediaType())
	assert.Equal(t, "image/webp", WebP.MediaType())
	assert.True(t, WebP.Lossy())
	assert.False(t, PNG.Lossy())
}
