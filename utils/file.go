// Package utils contains small helpers shared by the frame source packages.
package utils

import (
	"os"
)

// IsDir reports whether path names an existing directory. Symlinks are not followed, so a link
// to a directory is not a dataset directory.
func IsDir(path string) bool {
	st, err := os.Lstat(path)
	if err != nil {
		return false
	}
	return st.IsDir()
}
