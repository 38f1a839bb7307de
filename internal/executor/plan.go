package executor

import (
	"fmt"
	"path/filepath"
	"strings"

	"ascbuild/internal/model"
)

const (
	// DefaultOutputRoot 是产物输出目录。
	DefaultOutputRoot = "build"
	// DefaultBinaryExtension 是二进制产物后缀。
	DefaultBinaryExtension = ".wasm"
	// DefaultTextExtension 是文本产物后缀。
	DefaultTextExtension = ".wat"
)

// Layout 决定产物路径：<OutputRoot>/<源码基础名去掉后缀><扩展名>。
// 子目录结构会被拍平，所以不同目录下同名的源码会冲突，Plan 会拒绝这种情况。
type Layout struct {
	OutputRoot      string
	BinaryExtension string
	TextExtension   string
}

// DefaultLayout 返回 wasm/wat 产物布局。
func DefaultLayout(outputRoot string) Layout {
	if strings.TrimSpace(outputRoot) == "" {
		outputRoot = DefaultOutputRoot
	}
	return Layout{
		OutputRoot:      outputRoot,
		BinaryExtension: DefaultBinaryExtension,
		TextExtension:   DefaultTextExtension,
	}
}

// ArtifactPaths 仅根据源码路径推导两个产物路径。
func (l Layout) ArtifactPaths(sourcePath string) (binaryPath string, textPath string) {
	base := filepath.Base(sourcePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(l.OutputRoot, stem+l.BinaryExtension), filepath.Join(l.OutputRoot, stem+l.TextExtension)
}

// CollisionError 表示两个源码会写入同一个产物。
type CollisionError struct {
	Artifact string
	First    string
	Second   string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("artifact %s would be written by both %s and %s", e.Artifact, e.First, e.Second)
}

// Plan 为有序模块生成编译任务，保持输入顺序。
// 任意两个模块的产物路径（忽略大小写）冲突时在编译前直接返回 CollisionError。
func Plan(modules []model.Module, layout Layout, config model.BuildConfig) ([]model.CompileTask, error) {
	owners := make(map[string]string, len(modules))
	tasks := make([]model.CompileTask, 0, len(modules))

	for _, module := range modules {
		binaryPath, textPath := layout.ArtifactPaths(module.Path)
		// 大小写不敏感的文件系统（macOS、Windows）上 Token.wasm 与 token.wasm 是同一个文件。
		key := strings.ToLower(filepath.Clean(binaryPath))
		if owner, exists := owners[key]; exists {
			return nil, &CollisionError{Artifact: binaryPath, First: owner, Second: module.Path}
		}
		owners[key] = module.Path

		tasks = append(tasks, model.CompileTask{
			SourcePath:         module.Path,
			BinaryArtifactPath: binaryPath,
			TextArtifactPath:   textPath,
			Category:           module.Category,
			Config:             config,
		})
	}
	return tasks, nil
}
