package util

import (
	"errors"
	"os"

	"github.com/go-git/go-billy/v5"
)

// CheckDirectory reports whether path exists on fs and whether it is a
// directory. A missing path is not an error.
func CheckDirectory(fs billy.Basic, path string) (exists bool, isDir bool, err error) {
	info, err := fs.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, false, nil
		}
		return false, false, err
	}
	return true, info.IsDir(), nil
}
