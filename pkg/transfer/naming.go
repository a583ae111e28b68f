package transfer

import (
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rescp17/mediaTransfer/pkg/fileid"
)

const fileNameDateLayout = "2006-01-02_15-04-05"

// splitRequestPath splits a requested destination into a directory and a
// file name. Either part may be empty.
func splitRequestPath(p string) (dir, name string) {
	if p == "" {
		return "", ""
	}
	dir, name = filepath.Split(p)
	if dir != "" {
		dir = filepath.Clean(dir)
	}
	return dir, name
}

// resolveDirectory places relative directories under root.
func resolveDirectory(root, dir string) string {
	switch {
	case dir == "":
		return root
	case filepath.IsAbs(dir):
		return dir
	default:
		return filepath.Join(root, dir)
	}
}

// destinationName picks the file name for a job: the caller's explicit
// name, then the media object's own name, then a generated one.
func destinationName(j *Job, now time.Time) string {
	if j.Name != "" {
		return j.Name
	}
	if j.FileName != "" {
		if base := filepath.Base(j.FileName); base != "." && base != string(filepath.Separator) {
			return base
		}
	}
	date := j.DeclaredDate
	if date.IsZero() {
		date = now
	}
	return generateFileName(j.Kind(), j.MimeType, date)
}

// generateFileName builds <label>_<date>_<random><ext>.
func generateFileName(kind fileid.MediaType, mimeType string, date time.Time) string {
	return fmt.Sprintf("%s_%s_%d%s",
		kind.String(),
		date.Format(fileNameDateLayout),
		rand.Int64(),
		extensionFor(kind, mimeType),
	)
}

// extensionFor returns the extension for a downloaded file. Photos are
// always JPEG; other kinds prefer the extension of their MIME type.
func extensionFor(kind fileid.MediaType, mimeType string) string {
	if kind.IsPhoto() {
		return ".jpg"
	}
	if mimeType != "" {
		base, _, _ := strings.Cut(mimeType, ";")
		if m := mimetype.Lookup(strings.TrimSpace(strings.ToLower(base))); m != nil && m.Extension() != "" {
			return m.Extension()
		}
	}
	return kind.DefaultExtension()
}
