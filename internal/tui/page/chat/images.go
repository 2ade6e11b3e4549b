package chat

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/guilhermegouw/siaka/internal/message"
)

// Input commands handled by the page instead of being sent.
const (
	imageCommand      = "/image"
	clearImageCommand = "/clear-images"
)

// loadImage reads a picture for the next question. Errors are worded for
// the student.
func loadImage(path string) (message.Image, error) {
	if strings.TrimSpace(path) == "" {
		return message.Image{}, errors.New("indique le chemin de l'image : /image <chemin>")
	}
	img, err := message.ReadImageFile(path)
	switch {
	case err == nil:
		return img, nil
	case errors.Is(err, message.ErrNotImage):
		return message.Image{}, errors.New("ce fichier n'est pas une image")
	case errors.Is(err, message.ErrImageTooLarge):
		return message.Image{}, fmt.Errorf("image trop lourde (maximum %s)", humanSize(message.MaxImageSize))
	case errors.Is(err, os.ErrNotExist):
		return message.Image{}, fmt.Errorf("image introuvable : %s", path)
	default:
		return message.Image{}, fmt.Errorf("lecture de l'image impossible : %w", err)
	}
}

// parseCommand splits "/image path" style input. ok is false for plain
// questions.
func parseCommand(value string) (cmd, arg string, ok bool) {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, "/") {
		return "", "", false
	}
	cmd, arg, _ = strings.Cut(value, " ")
	switch cmd {
	case imageCommand, clearImageCommand:
		return cmd, strings.TrimSpace(arg), true
	}
	return "", "", false
}
