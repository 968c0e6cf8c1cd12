package folio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
)

const (
	maxImageWidth = 1200
	jpegQuality   = 80
	maxUploadSize = 10 << 20 // 10MB
	uploadsSubdir = "uploads"
)

var errInvalidImage = errors.New("invalid image")

// processImage decodes an image from src, downscales it to maxImageWidth
// and re-encodes it as JPEG.
func processImage(src io.Reader) ([]byte, image.Point, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, image.Point{}, fmt.Errorf("%w: %v", errInvalidImage, err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxImageWidth {
		newH := h * maxImageWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w, h = maxImageWidth, newH
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, image.Point{}, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), image.Pt(w, h), nil
}

// uploadName turns an uploaded file name into a URL-safe .jpg name.
func uploadName(original string) string {
	base := slug.Make(strings.TrimSuffix(original, filepath.Ext(original)))
	if base == "" {
		base = "image"
	}
	return base + ".jpg"
}

// uniqueFilename appends a counter until name is free in dir.
func uniqueFilename(dir, name string) string {
	base := strings.TrimSuffix(name, ".jpg")
	candidate := name
	for i := 2; ; i++ {
		if _, err := os.Stat(filepath.Join(dir, candidate)); errors.Is(err, os.ErrNotExist) {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d.jpg", base, i)
	}
}

// saveProjectImage stores an uploaded project image under the static
// uploads directory and returns its public URL.
func (a *App) saveProjectImage(file *multipart.FileHeader) (string, error) {
	if file.Size > maxUploadSize {
		return "", fmt.Errorf("%w: file too large (max 10MB)", errInvalidImage)
	}
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	data, size, err := processImage(io.LimitReader(src, maxUploadSize))
	if err != nil {
		return "", err
	}

	dir := filepath.Join(a.Config.StaticDir, uploadsSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create uploads dir: %w", err)
	}
	name := uniqueFilename(dir, uploadName(file.Filename))
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	a.Log.WithFields(logrus.Fields{
		"file":   name,
		"width":  size.X,
		"height": size.Y,
		"bytes":  len(data),
	}).Info("project image uploaded")
	return path.Join("/public", uploadsSubdir, name), nil
}
