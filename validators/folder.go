package validators

import (
	"errors"
	"path"
	"strings"
)

var (
	ErrFolderNameEmpty   = errors.New("folder name is required")
	ErrFolderNameInvalid = errors.New("folder name can't contain slashes or be a relative path")
	ErrFileNameEmpty     = errors.New("file name is required")
)

// NormalizePrefix trims surrounding slashes and whitespace and collapses
// empty segments, "a//b/" -> "a/b"
func NormalizePrefix(prefix string) string {
	parts := strings.Split(strings.TrimSpace(prefix), "/")
	out := parts[:0]

	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return strings.Join(out, "/")
}

// FolderName validates a folder name and returns it without surrounding
// slashes.
func FolderName(name string) (string, error) {
	n := strings.Trim(strings.TrimSpace(name), "/")
	if n == "" {
		return "", ErrFolderNameEmpty
	}

	if strings.ContainsAny(n, `/\`) || n == "." || n == ".." {
		return "", ErrFolderNameInvalid
	}

	return n, nil
}

// FolderKey returns the placeholder key for name under prefix, always ending
// with a slash
func FolderKey(prefix, name string) string {
	if p := NormalizePrefix(prefix); p != "" {
		return p + "/" + name + "/"
	}

	return name + "/"
}

// ObjectKey joins prefix with the base name of fileName. Directory parts of
// the file name are dropped.
func ObjectKey(prefix, fileName string) (string, error) {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(fileName), `\`, "/"))
	if base == "" || base == "." || base == "/" || base == ".." {
		return "", ErrFileNameEmpty
	}

	if p := NormalizePrefix(prefix); p != "" {
		return p + "/" + base, nil
	}

	return base, nil
}
