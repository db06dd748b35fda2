// Package fileutil holds the path helpers behind Markdown discovery,
// config lookup and the PDF renderer's scratch pages.
package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Sentinel errors for temp file names.
var (
	ErrExtensionEmpty         = errors.New("extension cannot be empty")
	ErrExtensionPathTraversal = errors.New("extension contains path separator or null byte")
)

// MarkdownExtensions are the file extensions treated as Markdown sources.
var MarkdownExtensions = []string{".md", ".markdown"}

// IsMarkdown reports whether path has a Markdown extension, ignoring case.
func IsMarkdown(path string) bool {
	return slices.Contains(MarkdownExtensions, strings.ToLower(filepath.Ext(path)))
}

// ReplaceExt returns path with its extension replaced by ext (".html").
// A path without extension gets ext appended.
func ReplaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// FindMarkdown walks root and returns every Markdown file below it in
// lexical order. Walk errors name the entry that failed.
func FindMarkdown(root string) ([]string, error) {
	var found []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("scanning %s: %w", path, err)
		}
		if !d.IsDir() && IsMarkdown(path) {
			found = append(found, path)
		}
		return nil
	})
	return found, err
}

// IsFilePath reports whether s names a file rather than a config name.
// Any path separator makes it a path: "work" is a name, "./work.yaml"
// and "C:\cfg\work.yaml" are paths.
func IsFilePath(s string) bool {
	return strings.ContainsAny(s, `/\`)
}

// FileExists reports whether path exists and is not a directory.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// ValidateExtension rejects extensions that could escape the temp dir.
func ValidateExtension(ext string) error {
	switch {
	case ext == "":
		return ErrExtensionEmpty
	case strings.ContainsAny(ext, "/\\\x00"):
		return ErrExtensionPathTraversal
	}
	return nil
}

// WriteTempFile stores content in a new temp file named *.ext and returns
// its path with a func that removes it.
func WriteTempFile(content, ext string) (string, func(), error) {
	if err := ValidateExtension(ext); err != nil {
		return "", nil, err
	}

	f, err := os.CreateTemp("", "go-markdown-*."+ext)
	if err != nil {
		return "", nil, fmt.Errorf("creating temp file: %w", err)
	}
	path := f.Name()
	remove := func() { _ = os.Remove(path) }

	_, err = f.WriteString(content)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		remove()
		return "", nil, fmt.Errorf("writing temp file: %w", err)
	}
	return path, remove, nil
}
