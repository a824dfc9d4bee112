// Package home manages the cqlc home directory.
//
// Layout:
//
//	<root>/
//	  mapping.yaml    (field mapping used when no --mapping is given)
package home

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrExists is returned by WriteMapping when a mapping is already present.
var ErrExists = errors.New("mapping already exists")

// Dir represents a cqlc home directory.
type Dir struct {
	root string
}

// New creates a Dir with an explicit root path.
func New(root string) Dir {
	return Dir{root: root}
}

// Default returns a Dir using the platform-appropriate default location:
//   - Linux:   ~/.config/cqlc
//   - macOS:   ~/Library/Application Support/cqlc
//   - Windows: %APPDATA%/cqlc
func Default() (Dir, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return Dir{}, fmt.Errorf("determine config directory: %w", err)
	}
	return Dir{root: filepath.Join(base, "cqlc")}, nil
}

// Root returns the home directory path.
func (d Dir) Root() string {
	return d.root
}

// MappingPath returns the path to the user's field mapping.
func (d Dir) MappingPath() string {
	return filepath.Join(d.root, "mapping.yaml")
}

// HasMapping reports whether the home directory holds a mapping file.
func (d Dir) HasMapping() bool {
	info, err := os.Stat(d.MappingPath())
	return err == nil && info.Mode().IsRegular()
}

// EnsureExists creates the home directory (and parents) if it doesn't exist.
func (d Dir) EnsureExists() error {
	if err := os.MkdirAll(d.root, 0o750); err != nil {
		return fmt.Errorf("create home directory %s: %w", d.root, err)
	}
	return nil
}

// WriteMapping stores data as the user's mapping, creating the home
// directory if needed. An existing mapping is only replaced when force is
// set; otherwise ErrExists is returned.
func (d Dir) WriteMapping(data []byte, force bool) error {
	if err := d.EnsureExists(); err != nil {
		return err
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !force {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(d.MappingPath(), flags, 0o640) //nolint:gosec // G304: path is home dir + constant filename
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%s: %w", d.MappingPath(), ErrExists)
		}
		return fmt.Errorf("write mapping: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write mapping: %w", err)
	}
	return f.Close()
}
