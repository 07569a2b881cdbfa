// Package media stores uploaded product images on disk.
package media

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/nfnt/resize"
)

const (
	MaxUploadSize = 10 << 20 // 10MB
	maxDimension  = 800
	jpegQuality   = 80
	productDir    = "productos"
)

var ErrUnsupportedFormat = errors.New("unsupported image format, only PNG, JPG and JPEG are allowed")

// Library saves images under Root and hands back paths relative to it.
type Library struct {
	Root string
}

func NewLibrary(root string) (*Library, error) {
	if err := os.MkdirAll(filepath.Join(root, productDir), 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &Library{Root: root}, nil
}

// SaveProductImage decodes src according to the file extension, shrinks it
// to fit 800x800 and writes it as a JPEG. It returns the path relative to
// Root, e.g. "productos/<uuid>.jpg".
func (l *Library) SaveProductImage(src io.Reader, filename string) (string, error) {
	var img image.Image
	var err error
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		img, err = png.Decode(src)
	case ".jpg", ".jpeg":
		img, err = jpeg.Decode(src)
	default:
		return "", ErrUnsupportedFormat
	}
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	// Thumbnail keeps the aspect ratio and never enlarges.
	resized := resize.Thumbnail(maxDimension, maxDimension, img, resize.Lanczos3)

	rel := filepath.ToSlash(filepath.Join(productDir, uuid.New().String()+".jpg"))
	out, err := os.Create(filepath.Join(l.Root, filepath.FromSlash(rel)))
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	defer out.Close()

	if err := jpeg.Encode(out, resized, &jpeg.Options{Quality: jpegQuality}); err != nil {
		os.Remove(out.Name())
		return "", fmt.Errorf("encode image: %w", err)
	}
	return rel, nil
}

// Remove deletes a stored image. Failures are logged, not returned.
func (l *Library) Remove(rel string) {
	if rel == "" {
		return
	}
	clean := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		slog.Warn("Refusing to remove media outside root", "path", rel)
		return
	}
	if err := os.Remove(filepath.Join(l.Root, clean)); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to remove media file", "path", rel, "error", err)
	}
}

// URL is where a stored image is served.
func URL(rel string) string {
	if rel == "" {
		return ""
	}
	return "/media/" + rel
}
