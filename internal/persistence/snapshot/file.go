package snapshot

import (
	"bufio"
	"os"
	"path/filepath"

	"worldedit.ai/internal/sim/tile"
)

// WriteFile encodes s to a temporary file next to path and renames it into
// place, so readers never observe a half-written snapshot.
func (c Codec) WriteFile(path string, s *Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	bw := bufio.NewWriterSize(f, bufSize)
	if err := c.Encode(bw, s); err != nil {
		_ = f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (c Codec) ReadFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return c.Decode(bufio.NewReaderSize(f, bufSize))
}

// ReadBoundsFile reads the declared rectangle of a snapshot file without
// decompressing it.
func ReadBoundsFile(path string) (tile.Rect, error) {
	f, err := os.Open(path)
	if err != nil {
		return tile.Rect{}, err
	}
	defer f.Close()
	return ReadBounds(f)
}
