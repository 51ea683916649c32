// Package toolchain exposes the global language install store.
//
// Installation itself (downloading, checksum verification, unpacking) lives
// outside this tool; this package only answers whether a language version is
// present and where it lives, so commands can refuse to run against a
// missing toolchain.
package toolchain

import (
	"fmt"
	"os"
	"path/filepath"
)

// Store is the on-disk layout rooted at ~/.cyrus: languages are installed
// under languages/<language>/<version>.
type Store struct {
	Root         string // ~/.cyrus
	LanguagesDir string // ~/.cyrus/languages
}

// NewStore locates (and creates, if needed) the store in the user's home
// directory.
func NewStore() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("unable to determine home directory: %w", err)
	}
	return NewStoreAt(filepath.Join(home, ".cyrus"))
}

// NewStoreAt creates a store rooted at the given directory.
func NewStoreAt(root string) (*Store, error) {
	languagesDir := filepath.Join(root, "languages")
	if err := os.MkdirAll(languagesDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &Store{Root: root, LanguagesDir: languagesDir}, nil
}

// InstallPath returns the install directory for a language version.
func (s *Store) InstallPath(language, version string) string {
	return filepath.Join(s.LanguagesDir, language, version)
}

// IsInstalled reports whether the language version is present in the store.
func (s *Store) IsInstalled(language, version string) bool {
	info, err := os.Stat(s.InstallPath(language, version))
	return err == nil && info.IsDir()
}

// InstalledVersions lists the installed versions of a language.
func (s *Store) InstalledVersions(language string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.LanguagesDir, language))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read language directory: %w", err)
	}
	var versions []string
	for _, entry := range entries {
		if entry.IsDir() {
			versions = append(versions, entry.Name())
		}
	}
	return versions, nil
}
