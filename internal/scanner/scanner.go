package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Scanner scans directories for .eml files
type Scanner struct {
	rootPath string
	exclude  []string
}

// NewScanner creates a new scanner for the given root path
func NewScanner(rootPath string) *Scanner {
	return &Scanner{
		rootPath: rootPath,
	}
}

// Exclude skips the given directories while scanning. Used to keep written
// drafts out of the next batch when the output directory sits under the root.
func (s *Scanner) Exclude(dirs ...string) *Scanner {
	for _, dir := range dirs {
		if abs, err := filepath.Abs(dir); err == nil {
			s.exclude = append(s.exclude, abs)
		}
	}
	return s
}

// Scan recursively scans for .eml files and returns absolute paths in walk order
func (s *Scanner) Scan() ([]string, error) {
	var emlFiles []string

	absRoot, err := filepath.Abs(s.rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute root path: %w", err)
	}

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if d.IsDir() {
			if s.excluded(path) {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.ToLower(filepath.Ext(path)) == ".eml" {
			emlFiles = append(emlFiles, path)
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to scan directory: %w", err)
	}

	return emlFiles, nil
}

func (s *Scanner) excluded(path string) bool {
	for _, dir := range s.exclude {
		if path == dir {
			return true
		}
	}
	return false
}

// IsEML reports whether path names an existing .eml file
func IsEML(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return strings.ToLower(filepath.Ext(path)) == ".eml"
}
