package fileInfo

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
)

// CalcMD5 returns the hex MD5 of everything read from r. The service uses
// MD5 to verify small uploads.
func CalcMD5(r io.Reader) (string, error) {
	hasher := md5.New()
	if _, err := io.Copy(hasher, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func calculateMD5(fs billy.Filesystem, filePath string) (string, error) {
	file, err := fs.Open(filePath)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := file.Close(); err != nil {
			slog.Error("fail to close file", "error", err.Error())
		}
	}()
	return CalcMD5(file)
}

// CalcChecksum fills in Checksum. A directory's checksum covers the names
// and checksums of its children.
func (n *FileNode) CalcChecksum(fs billy.Filesystem) (string, error) {
	if !n.IsDir {
		sum, err := calculateMD5(fs, n.Path)
		if err != nil {
			return "", err
		}
		n.Checksum = sum
		return sum, nil
	}

	var childSums []string
	sort.Slice(n.Children, func(i, j int) bool {
		return n.Children[i].Name < n.Children[j].Name
	})
	for i := range n.Children {
		child := &n.Children[i]
		sum, err := child.CalcChecksum(fs)
		if err != nil {
			return "", err
		}
		childSums = append(childSums, child.Name+":"+sum)
	}
	n.Checksum, _ = CalcMD5(strings.NewReader(strings.Join(childSums, "|")))
	return n.Checksum, nil
}

// VerifyMD5 recomputes the checksum and compares it with expected.
func (n *FileNode) VerifyMD5(fs billy.Filesystem, expected string) (bool, error) {
	actual, err := n.CalcChecksum(fs)
	if err != nil {
		return false, err
	}
	return actual == expected, nil
}
