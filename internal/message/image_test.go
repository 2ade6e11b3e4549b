package message

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestReadImageFile(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, data []byte) string {
		t.Helper()
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o600); err != nil {
			t.Fatal(err)
		}
		return path
	}

	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 16)...)
	gif := []byte("GIF89a......")

	tests := []struct {
		name     string
		path     string
		wantType string
		wantErr  error
	}{
		{name: "png", path: write("a.png", png), wantType: "image/png"},
		{name: "quoted path", path: `"` + write("b.png", png) + `"`, wantType: "image/png"},
		{name: "extension ignored", path: write("c.jpg", gif), wantType: "image/gif"},
		{name: "text file", path: write("notes.txt", []byte("bonjour")), wantErr: ErrNotImage},
		{name: "directory", path: dir, wantErr: ErrNotImage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := ReadImageFile(tt.path)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if img.MIMEType != tt.wantType {
				t.Errorf("MIMEType = %q, want %q", img.MIMEType, tt.wantType)
			}
			if _, err := img.Bytes(); err != nil {
				t.Errorf("Bytes: %v", err)
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := ReadImageFile(filepath.Join(dir, "absent.png"))
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("err = %v, want not exist", err)
		}
	})
}
