// Package archive packages named byte buffers into a single downloadable
// container.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
)

// Entry is one named file inside the container.
type Entry struct {
	Name string
	Data []byte
}

// Packager turns a set of entries into one container's bytes.
type Packager interface {
	Pack(entries []Entry) ([]byte, error)
}

// ZipPackager writes a standard deflate-compressed zip.
type ZipPackager struct{}

func NewZipPackager() *ZipPackager {
	return &ZipPackager{}
}

func (p *ZipPackager) Pack(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	for _, entry := range entries {
		f, err := w.Create(entry.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to add %q to archive: %w", entry.Name, err)
		}
		if _, err := f.Write(entry.Data); err != nil {
			return nil, fmt.Errorf("failed to write %q to archive: %w", entry.Name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}
