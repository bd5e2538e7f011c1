// Package pathutil turns a download URL into a safe, unused destination path.
package pathutil

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// DefaultFilename is used when the URL has no usable final path segment.
const DefaultFilename = "downloaded_file"

// DefaultDir is where derived filenames are placed when no directory is given.
const DefaultDir = "Downloads"

// DefaultDirPermissions is used for every directory the resolver creates.
const DefaultDirPermissions = 0o755

var unsafeReplacer = strings.NewReplacer(
	"<", "_",
	">", "_",
	":", "_",
	`"`, "_",
	"/", "_",
	`\`, "_",
	"|", "_",
	"?", "_",
	"*", "_",
)

// Resolve returns the destination path for a download of rawURL.
//
// An explicit path is used as given. Otherwise a filename is derived from the
// URL, sanitised, placed in dir and made unique. In both cases the parent
// directory is created if missing. No file is created.
func Resolve(rawURL, explicitPath, dir string) (string, error) {
	target := explicitPath
	if target == "" {
		if dir == "" {
			dir = DefaultDir
		}
		name := SafeFilename(FilenameFromURL(rawURL))
		candidate := filepath.Join(dir, name)
		if filepath.Dir(candidate) != filepath.Clean(dir) {
			candidate = filepath.Join(dir, DefaultFilename)
		}
		target = UniquePath(candidate)
	}

	if err := os.MkdirAll(filepath.Dir(target), DefaultDirPermissions); err != nil {
		return "", fmt.Errorf("create directory for %s: %w", target, err)
	}

	return target, nil
}

// FilenameFromURL returns the final path segment of rawURL, or DefaultFilename.
func FilenameFromURL(rawURL string) string {
	var segment string
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		segment = path.Base(u.Path)
		if strings.HasSuffix(u.Path, "/") {
			segment = ""
		}
	} else if err != nil {
		if i := strings.LastIndex(rawURL, "/"); i >= 0 {
			segment = rawURL[i+1:]
		} else {
			segment = rawURL
		}
	}

	switch segment {
	case "", ".", "..", "/":
		return DefaultFilename
	}
	return segment
}

// SafeFilename replaces every character from < > : " / \ | ? * with an underscore.
func SafeFilename(name string) string {
	return unsafeReplacer.Replace(name)
}

// UniquePath returns p if nothing exists there, otherwise the first free
// name_N.ext sibling starting at N=1.
func UniquePath(p string) string {
	if !exists(p) {
		return p
	}

	dir := filepath.Dir(p)
	base := filepath.Base(p)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stem == "" {
		stem, ext = base, ""
	}

	for n := 1; ; n++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, n, ext))
		if !exists(candidate) {
			return candidate
		}
	}
}

func exists(p string) bool {
	_, err := os.Lstat(p)
	return err == nil
}
