package fileInfo

import (
	"log/slog"
	"sort"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-git/go-billy/v5"
)

const defaultMimeType = "application/octet-stream"

// FileNode describes a local file, or a directory and everything below it.
type FileNode struct {
	Name     string     `json:"name"`
	IsDir    bool       `json:"is_dir"`
	Size     int64      `json:"size"`
	MimeType string     `json:"mime_type,omitempty"`
	Checksum string     `json:"checksum,omitempty"`
	Children []FileNode `json:"children,omitempty"`
	Path     string     `json:"-"`
}

// CreateNode stats p on fs. Files get their MIME type sniffed from content;
// directories are walked recursively, skipping entries that cannot be read.
func CreateNode(fs billy.Filesystem, p string) (FileNode, error) {
	info, err := fs.Stat(p)
	if err != nil {
		return FileNode{}, err
	}
	node := FileNode{
		Name:  info.Name(),
		IsDir: info.IsDir(),
		Size:  info.Size(),
		Path:  p,
	}

	if !node.IsDir {
		node.MimeType = detectMimeType(fs, p)
		return node, nil
	}

	entries, err := fs.ReadDir(p)
	if err != nil {
		return FileNode{}, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	node.Children = make([]FileNode, 0, len(entries))
	for _, entry := range entries {
		childPath := fs.Join(p, entry.Name())
		child, err := CreateNode(fs, childPath)
		if err != nil {
			slog.Warn("Skipping unreadable entry", "path", childPath, "error", err)
			continue
		}
		node.Children = append(node.Children, child)
		node.Size += child.Size
	}
	return node, nil
}

// Files returns the regular files at or below n in lexical order.
func (n *FileNode) Files() []FileNode {
	if !n.IsDir {
		return []FileNode{*n}
	}
	var files []FileNode
	for i := range n.Children {
		files = append(files, n.Children[i].Files()...)
	}
	return files
}

func detectMimeType(fs billy.Filesystem, p string) string {
	f, err := fs.Open(p)
	if err != nil {
		return defaultMimeType
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("fail to close file", "error", err.Error())
		}
	}()

	mime, err := mimetype.DetectReader(f)
	if err != nil {
		return defaultMimeType
	}
	return mime.String()
}
