package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WorkArea is the engine's addressable scratch storage: named byte blobs
// that exist only for the span of one operation. Every entry an operation
// registers must be removed before the operation returns, success or not.
type WorkArea interface {
	Write(name string, data []byte) error
	Read(name string) ([]byte, error)
	Remove(name string) error
	// Path resolves a name to the address the underlying engine sees.
	Path(name string) string
	// List returns the names currently present, for leak checks.
	List() ([]string, error)
}

// DirWorkArea keeps blobs as flat files in a scratch directory.
type DirWorkArea struct {
	dir string
}

func NewDirWorkArea(dir string) (*DirWorkArea, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create work area: %w", err)
	}
	return &DirWorkArea{dir: dir}, nil
}

func (w *DirWorkArea) Write(name string, data []byte) error {
	if err := validateName(name); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(w.dir, name), data, 0644)
}

func (w *DirWorkArea) Read(name string) ([]byte, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	return os.ReadFile(filepath.Join(w.dir, name))
}

func (w *DirWorkArea) Remove(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(w.dir, name))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (w *DirWorkArea) Path(name string) string {
	return filepath.Join(w.dir, name)
}

func (w *DirWorkArea) List() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func validateName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == ".." {
		return fmt.Errorf("invalid work area name %q", name)
	}
	return nil
}
