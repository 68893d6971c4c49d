package fs

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// TreeLine is one rendered row of a directory tree.
type TreeLine struct {
	Prefix string
	Name   string
	Path   string
	IsDir  bool
	Depth  int
}

// TreeOptions bounds the tree walk.
type TreeOptions struct {
	MaxDepth   int
	MaxLines   int
	HideHidden bool
}

const (
	treeBranch = "├── "
	treeLast   = "└── "
	treePipe   = "│   "
	treeBlank  = "    "
)

// BuildTree walks root breadth-limited by opts and returns rows in display
// order. The root itself is the first row. Unreadable subdirectories are
// listed but not descended into.
func BuildTree(root string, opts TreeOptions) []TreeLine {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = 1
	}
	lines := []TreeLine{{
		Name:  norm.NFC.String(filepath.Base(root)),
		Path:  root,
		IsDir: true,
	}}
	walkTree(root, "", 1, opts, &lines)
	return lines
}

func walkTree(dir, prefix string, depth int, opts TreeOptions, lines *[]TreeLine) {
	if depth > opts.MaxDepth {
		return
	}
	entries, err := ReadDirectory(dir, opts.HideHidden)
	if err != nil {
		return
	}
	for i, entry := range entries {
		if opts.MaxLines > 0 && len(*lines) >= opts.MaxLines {
			return
		}
		last := i == len(entries)-1
		connector := treeBranch
		childPrefix := prefix + treePipe
		if last {
			connector = treeLast
			childPrefix = prefix + treeBlank
		}
		*lines = append(*lines, TreeLine{
			Prefix: prefix + connector,
			Name:   entry.Name,
			Path:   entry.FullPath,
			IsDir:  entry.IsDir,
			Depth:  depth,
		})
		if entry.IsDir && !entry.IsSymlink {
			walkTree(entry.FullPath, childPrefix, depth+1, opts, lines)
		}
	}
}

// String renders the line as it appears in a tree preview.
func (l TreeLine) String() string {
	var b strings.Builder
	b.WriteString(l.Prefix)
	b.WriteString(l.Name)
	if l.IsDir && l.Depth > 0 {
		b.WriteByte('/')
	}
	return b.String()
}
