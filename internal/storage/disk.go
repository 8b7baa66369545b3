// Package storage persists uploaded payloads under a per-room directory
// and hands back stable locators. A room's whole namespace is removed
// when the room is evicted.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog/log"

	"github.com/dvolkov/lanroom/internal/domain"
)

const storedNameLen = 12

type DiskStore struct {
	root string
}

func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads root: %w", err)
	}
	return &DiskStore{root: root}, nil
}

// Save streams the payload to disk and returns the reference the room
// will broadcast. The stored name is freshly generated so original names
// can never collide or escape the directory.
func (s *DiskStore) Save(roomID, originalName, mimetype string, r io.Reader) (domain.FileRef, error) {
	id, err := gonanoid.New(storedNameLen)
	if err != nil {
		return domain.FileRef{}, fmt.Errorf("generate stored name: %w", err)
	}
	stored := id + sanitizeExt(originalName)

	dir := filepath.Join(s.root, filepath.Base(roomID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return domain.FileRef{}, fmt.Errorf("create room dir: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, stored))
	if err != nil {
		return domain.FileRef{}, fmt.Errorf("create upload file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, r)
	if err != nil {
		return domain.FileRef{}, fmt.Errorf("write upload: %w", err)
	}

	if mimetype == "" {
		mimetype = "application/octet-stream"
	}
	log.Info().Str("module", "storage").Str("room", roomID).Str("file", stored).Int64("size", n).Msg("upload stored")
	return domain.FileRef{
		OriginalName: originalName,
		Filename:     stored,
		Size:         n,
		MimeType:     mimetype,
		URL:          fmt.Sprintf("/uploads/%s/%s", filepath.Base(roomID), stored),
	}, nil
}

// RemoveRoom deletes the room's directory wholesale. Missing directories
// are fine: a room that never saw an upload has none.
func (s *DiskStore) RemoveRoom(roomID string) error {
	dir := filepath.Join(s.root, filepath.Base(roomID))
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove room uploads: %w", err)
	}
	log.Info().Str("module", "storage").Str("room", roomID).Msg("upload namespace removed")
	return nil
}

func sanitizeExt(name string) string {
	ext := filepath.Ext(filepath.Base(name))
	if len(ext) > 10 {
		return ""
	}
	return ext
}
