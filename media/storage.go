// Package media stores uploaded files and returns the URL they are served at.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/nfnt/resize"
)

// MaxImageWidth is the width uploads are downscaled to.
const MaxImageWidth = 1600

// MaxUploadSize caps a single upload.
const MaxUploadSize = 10 << 20

var (
	ErrTooLarge = errors.New("file exceeds upload limit")
	ErrBadImage = errors.New("invalid image")
	ErrFileType = errors.New("file type not allowed")
)

// allowedExt lists the extensions uploads may keep. Anything a browser
// would execute from /uploads (html, svg, js) is refused.
var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".pdf":  true,
}

// Storage persists an upload and returns its public URL.
type Storage interface {
	Put(ctx context.Context, filename, contentType string, r io.Reader) (string, error)
}

// DiskStorage writes files under Dir and serves them below BaseURL.
type DiskStorage struct {
	Dir     string
	BaseURL string
}

func NewDiskStorage(dir, baseURL string) (*DiskStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &DiskStorage{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Put stores the file under a random name keeping its extension, which must
// be one of allowedExt. JPEG and PNG images wider than MaxImageWidth are
// downscaled first.
func (d *DiskStorage) Put(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return "", err
	}
	if len(data) > MaxUploadSize {
		return "", ErrTooLarge
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExt[ext] {
		return "", fmt.Errorf("%w: %q", ErrFileType, ext)
	}
	data, err = shrink(data, ext)
	if err != nil {
		return "", err
	}

	name := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(d.Dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return d.BaseURL + "/" + path.Clean(name), nil
}

// shrink downscales oversized images, returning other files untouched.
func shrink(data []byte, ext string) ([]byte, error) {
	var (
		img image.Image
		err error
	)
	switch ext {
	case ".jpg", ".jpeg":
		img, err = jpeg.Decode(bytes.NewReader(data))
	case ".png":
		img, err = png.Decode(bytes.NewReader(data))
	default:
		return data, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadImage, err)
	}
	if img.Bounds().Dx() <= MaxImageWidth {
		return data, nil
	}

	small := resize.Resize(MaxImageWidth, 0, img, resize.Lanczos3)
	var buf bytes.Buffer
	if ext == ".png" {
		err = png.Encode(&buf, small)
	} else {
		err = jpeg.Encode(&buf, small, &jpeg.Options{Quality: 85})
	}
	if err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
