package fs

import (
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// defaultIncludes matches the plain-text document types the gateway ingests.
var defaultIncludes = []string{"**/*.txt", "**/*.md"}

var defaultExcludes = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/vendor/**",
}

// Walker enumerates ingestable files under a root using doublestar glob
// patterns.
type Walker struct {
	includes []string
	excludes []string
}

func NewWalker(includes, excludes []string) *Walker {
	if len(includes) == 0 {
		includes = defaultIncludes
	}
	if len(excludes) == 0 {
		excludes = defaultExcludes
	}
	return &Walker{includes: includes, excludes: excludes}
}

type FileInfo struct {
	Path string
	Size int64
}

// Walk returns every file under root matched by the include patterns and not
// matched by the exclude patterns. Excluded directories are pruned early.
func (w *Walker) Walk(root string) ([]FileInfo, error) {
	var files []FileInfo

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		if info.IsDir() {
			if w.shouldExclude(relPath + "/") {
				return filepath.SkipDir
			}
			return nil
		}

		if w.shouldInclude(relPath) && !w.shouldExclude(relPath) {
			files = append(files, FileInfo{Path: path, Size: info.Size()})
		}
		return nil
	})

	return files, err
}

func (w *Walker) shouldInclude(path string) bool {
	for _, pattern := range w.includes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

func (w *Walker) shouldExclude(path string) bool {
	for _, pattern := range w.excludes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
