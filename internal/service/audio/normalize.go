package audio

import (
	"fmt"
	"os"
)

// The remote API infers the codec from the filename extension, so stored uploads
// are renamed to carry one. First match wins; lookup is case-sensitive and runs
// on the base type, so "audio/webm;codecs=opus" maps to ".webm".
var extensionTable = []struct {
	mimeTypes []string
	ext       string
}{
	{mimeTypes: []string{"audio/webm"}, ext: ".webm"},
	{mimeTypes: []string{"audio/mp4", "audio/x-m4a"}, ext: ".m4a"},
	{mimeTypes: []string{"audio/wav"}, ext: ".wav"},
	{mimeTypes: []string{"audio/mpeg"}, ext: ".mp3"},
}

// IOError reports a filesystem failure while handling a stored upload.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ExtensionFor returns the canonical extension for a declared MIME type.
func ExtensionFor(mimeType string) (string, bool) {
	base := BaseMimeType(mimeType)
	for _, entry := range extensionTable {
		for _, mt := range entry.mimeTypes {
			if mt == base {
				return entry.ext, true
			}
		}
	}
	return "", false
}

// CandidatePaths lists every path Normalize could have produced from path,
// starting with path itself.
func CandidatePaths(path string) []string {
	paths := []string{path}
	seen := map[string]struct{}{}
	for _, entry := range extensionTable {
		if _, ok := seen[entry.ext]; ok {
			continue
		}
		seen[entry.ext] = struct{}{}
		paths = append(paths, path+entry.ext)
	}
	return paths
}

// Normalize renames path so it carries the extension for mimeType and returns
// the new path. Unknown types leave the file where it is.
func Normalize(path, mimeType string) (string, error) {
	return normalize(path, mimeType, os.Rename)
}

func normalize(path, mimeType string, rename func(oldpath, newpath string) error) (string, error) {
	ext, ok := ExtensionFor(mimeType)
	if !ok {
		return path, nil
	}
	target := path + ext
	if err := rename(path, target); err != nil {
		return path, &IOError{Op: "rename", Path: path, Err: err}
	}
	return target, nil
}
