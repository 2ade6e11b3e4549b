package message

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// MaxImageSize bounds pictures read from disk.
const MaxImageSize = 10 << 20

// Errors returned by ReadImageFile.
var (
	ErrNotImage      = errors.New("file is not an image")
	ErrImageTooLarge = errors.New("image is too large")
)

// ReadImageFile loads a picture from disk. The MIME type is sniffed from
// the content, not taken from the extension. A leading "~/" expands to the
// home directory and surrounding quotes are ignored.
func ReadImageFile(path string) (Image, error) {
	path = strings.Trim(strings.TrimSpace(path), `"'`)
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, rest)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return Image{}, fmt.Errorf("reading image: %w", err)
	}
	if info.IsDir() {
		return Image{}, ErrNotImage
	}
	if info.Size() > MaxImageSize {
		return Image{}, fmt.Errorf("%w: %d bytes", ErrImageTooLarge, info.Size())
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Image{}, fmt.Errorf("reading image: %w", err)
	}

	mimeType := http.DetectContentType(raw)
	if !strings.HasPrefix(mimeType, "image/") {
		return Image{}, ErrNotImage
	}
	return NewImage(mimeType, raw), nil
}
