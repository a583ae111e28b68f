package transfer

import (
	"os"
	"path/filepath"

	"github.com/shirou/gopsutil/disk"
)

// FreeSpaceFunc reports the bytes available to the volume holding dir.
type FreeSpaceFunc func(dir string) (uint64, error)

// DiskFreeSpace queries the volume of dir, or of its closest existing
// ancestor when dir has not been created yet.
func DiskFreeSpace(dir string) (uint64, error) {
	path, err := filepath.Abs(dir)
	if err != nil {
		return 0, err
	}
	for {
		if _, err := os.Stat(path); err == nil {
			break
		}
		parent := filepath.Dir(path)
		if parent == path {
			break
		}
		path = parent
	}

	usage, err := disk.Usage(path)
	if err != nil {
		return 0, err
	}
	return usage.Free, nil
}
