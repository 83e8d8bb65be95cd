package imageproc

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h)), nil))
	return buf.Bytes()
}

func TestPrepareResizesLargePNG(t *testing.T) {
	res, err := Prepare("photo.PNG", pngBytes(t, 400, 200), Options{MaxBytes: 1 << 20, MaxDimension: 100})
	require.NoError(t, err)
	assert.True(t, res.Resized)
	assert.True(t, strings.HasSuffix(res.Filename, ".png"))

	img, err := png.Decode(bytes.NewReader(res.Data))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())
}

func TestPrepareKeepsSmallJPEG(t *testing.T) {
	res, err := Prepare("photo.jpg", jpegBytes(t, 40, 30), Options{MaxDimension: 100})
	require.NoError(t, err)
	assert.False(t, res.Resized)
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(res.Data))
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Width)
}

func TestPrepareValidation(t *testing.T) {
	data := pngBytes(t, 10, 10)

	_, err := Prepare("", data, Options{})
	assert.ErrorIs(t, err, ErrMissingName)

	_, err = Prepare("photo.bmp", data, Options{})
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = Prepare("photo.png", nil, Options{})
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = Prepare("photo.png", data, Options{MaxBytes: 8})
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = Prepare("photo.jpg", data, Options{})
	assert.ErrorIs(t, err, ErrSignatureMismatch)

	_, err = Prepare("photo.webp", []byte("RIFF0000WEBPVP8 "), Options{})
	assert.NoError(t, err)

	_, err = Prepare("photo.gif", []byte("GIF89a........"), Options{})
	assert.NoError(t, err)
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "ファイルサイズが大きすぎます。最大: 10MB", Message(ErrTooLarge, 10<<20))
	assert.Equal(t, "許可されていないファイル形式です。許可: .jpg, .jpeg, .png, .gif, .webp", Message(ErrUnsupportedType, 0))
	assert.Equal(t, "空のファイルはアップロードできません", Message(ErrEmpty, 0))
}
