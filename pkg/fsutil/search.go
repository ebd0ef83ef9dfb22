// Package fsutil provides filesystem and path utilities.
package fsutil

import (
	"os"
	"path/filepath"
	"strings"

	"src.kelp.sh/pkg/env"
)

// DontSearch determines whether the name of an external command should be
// taken as a literal path and not searched in PATH.
func DontSearch(exe string) bool {
	return strings.ContainsRune(exe, filepath.Separator) ||
		strings.ContainsRune(exe, '/')
}

// IsExecutable returns whether the FileInfo refers to an executable file.
//
// This is determined by permission bits on Unix, and by file name on Windows.
func IsExecutable(stat os.FileInfo) bool {
	return isExecutable(stat)
}

// SearchExternal resolves the name of an external command to the path of its
// executable. Names containing a path separator are checked directly and the
// search path is not consulted.
func SearchExternal(name string) (string, error) {
	return searchExecutable(name)
}

// EachExternal calls f for each executable file found while scanning the
// directories of PATH.
//
// No deduplication is performed; a command appearing in several PATH
// directories is reported once per directory.
func EachExternal(f func(string)) {
	for _, dir := range searchPaths() {
		files, err := os.ReadDir(dir)
		if err != nil {
			// There isn't much we can reasonably do about an unreadable
			// directory other than ignore it.
			continue
		}
		for _, file := range files {
			stat, err := file.Info()
			if err == nil && IsExecutable(stat) {
				f(stat.Name())
			}
		}
	}
}

func searchPaths() []string {
	return strings.Split(os.Getenv(env.PATH), string(filepath.ListSeparator))
}
