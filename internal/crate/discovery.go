package crate

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	"github.com/spf13/afero"
)

const rustExt = ".rs"

// compiledPattern holds a compiled glob and, for patterns starting with "**/",
// a second glob with that prefix removed so the pattern also matches at the root.
type compiledPattern struct {
	glob   glob.Glob
	rooted glob.Glob
}

// FileDiscovery lists Rust source files under a directory, skipping ignored paths.
type FileDiscovery struct {
	fs             afero.Fs
	rootDir        string
	ignorePatterns []compiledPattern
	unreadable     []SkippedFile
}

// NewFileDiscovery compiles the ignore patterns. Patterns are matched against
// slash-separated paths relative to rootDir.
func NewFileDiscovery(fs afero.Fs, rootDir string, ignorePatterns []string) (*FileDiscovery, error) {
	fd := &FileDiscovery{
		fs:      fs,
		rootDir: rootDir,
	}

	for _, pattern := range ignorePatterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		cp := compiledPattern{glob: g}
		if trimmed, ok := strings.CutPrefix(pattern, "**/"); ok {
			if cp.rooted, err = glob.Compile(trimmed, '/'); err != nil {
				return nil, err
			}
		}
		fd.ignorePatterns = append(fd.ignorePatterns, cp)
	}

	return fd, nil
}

// DiscoverFiles walks the tree in lexical order and returns every .rs file.
// The order is stable for an unchanged tree. Entries below the root that
// cannot be read are skipped and reported by Unreadable; only a failure on
// the root itself is returned.
func (fd *FileDiscovery) DiscoverFiles() ([]string, error) {
	files := []string{}
	fd.unreadable = nil

	err := afero.Walk(fd.fs, fd.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == fd.rootDir {
				return err
			}
			fd.unreadable = append(fd.unreadable, SkippedFile{Path: path, Err: err})
			return nil
		}

		relPath, err := filepath.Rel(fd.rootDir, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if info.IsDir() {
			if relPath != "." && fd.shouldIgnore(relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		if filepath.Ext(path) != rustExt || fd.shouldIgnore(relPath) {
			return nil
		}

		files = append(files, path)
		return nil
	})

	return files, err
}

// Unreadable returns the entries the last DiscoverFiles call could not read.
func (fd *FileDiscovery) Unreadable() []SkippedFile {
	return fd.unreadable
}

// Ignored reports whether a path relative to the discovery root matches an
// ignore pattern.
func (fd *FileDiscovery) Ignored(relPath string) bool {
	return fd.shouldIgnore(filepath.ToSlash(relPath))
}

// shouldIgnore checks if a path matches any ignore pattern.
func (fd *FileDiscovery) shouldIgnore(relPath string) bool {
	if fd.matchesAnyPattern(relPath) {
		return true
	}

	// "target" should match pattern "target/**"
	return fd.matchesAnyPattern(relPath + "/**")
}

func (fd *FileDiscovery) matchesAnyPattern(path string) bool {
	for _, cp := range fd.ignorePatterns {
		if cp.glob.Match(path) {
			return true
		}
		if cp.rooted != nil && cp.rooted.Match(path) {
			return true
		}
	}
	return false
}
