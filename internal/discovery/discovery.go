// Package discovery 负责在项目目录中查找待编译的源码模块。
// 该层只做目录遍历和后缀过滤，不保证顺序，排序由 classify 包负责。
package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	// DefaultExtension 是可识别的源码后缀。
	DefaultExtension = ".ts"
	// DefaultTestsDir 是递归遍历时整体跳过的保留目录名。
	DefaultTestsDir = "__tests__"
)

// Options 控制一次发现过程。
type Options struct {
	// Recursive 为 true 时深度优先遍历全部子目录。
	Recursive bool
	// Extension 为空时使用 DefaultExtension。
	Extension string
	// TestsDir 为空时使用 DefaultTestsDir。
	TestsDir string
}

// Error 表示根目录不存在或不可读。
// 它对整次构建是致命的，发生时不会返回任何部分结果。
type Error struct {
	Root string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("discover modules in %s: %v", e.Root, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Discover 返回 root 下所有匹配后缀的模块路径。
// 返回的路径以 root 为前缀（filepath.Join 形式）。
func Discover(root string, options Options) ([]string, error) {
	extension := options.Extension
	if extension == "" {
		extension = DefaultExtension
	}
	testsDir := options.TestsDir
	if testsDir == "" {
		testsDir = DefaultTestsDir
	}

	trimmedRoot := strings.TrimSpace(root)
	if trimmedRoot == "" {
		return nil, &Error{Root: root, Err: errors.New("source root is empty")}
	}

	info, err := os.Stat(trimmedRoot)
	if err != nil {
		return nil, &Error{Root: trimmedRoot, Err: err}
	}
	if !info.IsDir() {
		return nil, &Error{Root: trimmedRoot, Err: errors.New("not a directory")}
	}

	var paths []string
	if options.Recursive {
		paths, err = walkTree(trimmedRoot, extension, testsDir)
	} else {
		paths, err = listDirectory(trimmedRoot, extension)
	}
	if err != nil {
		return nil, &Error{Root: trimmedRoot, Err: err}
	}
	return paths, nil
}

// listDirectory 只检查根目录的直接子项，目录本身视为不匹配。
func listDirectory(root string, extension string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), extension) {
			continue
		}
		path := filepath.Join(root, entry.Name())
		if isDirectory(path, entry) {
			continue
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// walkTree 深度优先遍历，遇到保留的测试目录时连同子树一起跳过。
func walkTree(root string, extension string, testsDir string) ([]string, error) {
	paths := make([]string, 0)
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if entry.IsDir() {
			if path != root && entry.Name() == testsDir {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(entry.Name(), extension) || isDirectory(path, entry) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// isDirectory 处理指向目录的符号链接，它们同样不算模块。
func isDirectory(path string, entry fs.DirEntry) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
