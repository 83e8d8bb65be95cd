package imageproc

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

var (
	ErrMissingName       = errors.New("imageproc: missing filename")
	ErrUnsupportedType   = errors.New("imageproc: unsupported file type")
	ErrEmpty             = errors.New("imageproc: empty file")
	ErrTooLarge          = errors.New("imageproc: file too large")
	ErrSignatureMismatch = errors.New("imageproc: content does not match extension")
)

var allowedExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

type Options struct {
	MaxBytes     int64
	MaxDimension int
	JPEGQuality  int
}

// Result is an upload-ready photo.
type Result struct {
	Filename string
	Data     []byte
	Resized  bool
}

// Prepare validates a report photo and shrinks JPEG/PNG images so the
// longest side fits MaxDimension. Re-encoding also drops EXIF metadata.
// GIF and WebP are passed through after validation.
func Prepare(filename string, data []byte, opts Options) (*Result, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, ErrMissingName
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowed(ext) {
		return nil, ErrUnsupportedType
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if opts.MaxBytes > 0 && int64(len(data)) > opts.MaxBytes {
		return nil, ErrTooLarge
	}
	if !signatureMatches(data, ext) {
		return nil, ErrSignatureMismatch
	}

	out := &Result{Filename: uuid.New().String() + ext, Data: data}
	if ext == ".gif" || ext == ".webp" {
		return out, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, ErrSignatureMismatch
	}
	bounds := img.Bounds()
	if opts.MaxDimension > 0 && (bounds.Dx() > opts.MaxDimension || bounds.Dy() > opts.MaxDimension) {
		img = imaging.Fit(img, opts.MaxDimension, opts.MaxDimension, imaging.Lanczos)
		out.Resized = true
	}

	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		return nil, ErrUnsupportedType
	}
	quality := opts.JPEGQuality
	if quality <= 0 {
		quality = 85
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("imageproc: encode: %w", err)
	}
	out.Data = buf.Bytes()
	return out, nil
}

func allowed(ext string) bool {
	for _, candidate := range allowedExtensions {
		if ext == candidate {
			return true
		}
	}
	return false
}

func signatureMatches(data []byte, ext string) bool {
	switch ext {
	case ".jpg", ".jpeg":
		return bytes.HasPrefix(data, []byte{0xff, 0xd8, 0xff})
	case ".png":
		return bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n"))
	case ".gif":
		return bytes.HasPrefix(data, []byte("GIF87a")) || bytes.HasPrefix(data, []byte("GIF89a"))
	case ".webp":
		return len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP"))
	}
	return false
}

// Message is the user-facing text for a validation error.
func Message(err error, maxBytes int64) string {
	switch {
	case errors.Is(err, ErrMissingName):
		return "ファイル名が必要です"
	case errors.Is(err, ErrUnsupportedType):
		return "許可されていないファイル形式です。許可: " + strings.Join(allowedExtensions, ", ")
	case errors.Is(err, ErrEmpty):
		return "空のファイルはアップロードできません"
	case errors.Is(err, ErrTooLarge):
		return fmt.Sprintf("ファイルサイズが大きすぎます。最大: %dMB", maxBytes/(1024*1024))
	case errors.Is(err, ErrSignatureMismatch):
		return "ファイルの内容が拡張子と一致しません。正しい画像ファイルをアップロードしてください"
	}
	return "画像の処理に失敗しました"
}
