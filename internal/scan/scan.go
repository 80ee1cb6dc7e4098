// Package scan discovers the source files a run will index.
package scan

import (
	"os"
	"path/filepath"
	"strings"

	"symdex/pkg/types"
)

// Options control which files discovery keeps.
type Options struct {
	Extensions    []string // file extensions to keep, e.g. ".go"; empty keeps everything
	IncludeTests  bool     // whether to keep _test.go files
	IncludeVendor bool     // whether to descend into vendor directories
}

// Discover walks rootPath and returns one job per matching source file.
func Discover(rootPath string, opts Options) ([]types.Job, error) {
	var jobs []types.Job

	err := filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if !opts.IncludeVendor && info.Name() == "vendor" {
				return filepath.SkipDir
			}
			if strings.HasPrefix(info.Name(), ".") && path != rootPath {
				return filepath.SkipDir
			}
			return nil
		}

		if !matchesExtension(path, opts.Extensions) {
			return nil
		}
		if !opts.IncludeTests && strings.HasSuffix(path, "_test.go") {
			return nil
		}

		jobs = append(jobs, types.Job{FilePath: path, Language: languageFor(path)})
		return nil
	})

	return jobs, err
}

func matchesExtension(path string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	ext := filepath.Ext(path)
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

func languageFor(path string) string {
	switch filepath.Ext(path) {
	case ".go":
		return "go"
	case ".c", ".h":
		return "c"
	case ".cpp", ".cc", ".cxx", ".hpp":
		return "cpp"
	case ".py":
		return "python"
	case ".js", ".ts":
		return "javascript"
	default:
		return ""
	}
}
