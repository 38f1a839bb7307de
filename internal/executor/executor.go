// Package executor 把单个编译任务交给外部工具链，并把结果转换为 CompileResult。
// 执行器从不返回错误：所有失败都作为数据记录在结果中，批量构建可以继续进行。
package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ascbuild/internal/ctxlog"
	"ascbuild/internal/model"
	"ascbuild/internal/toolchain"
)

// Executor 负责执行单个 CompileTask。
type Executor struct {
	toolchain toolchain.Toolchain
	now       func() time.Time
}

// New 创建执行器。
func New(tc toolchain.Toolchain) *Executor {
	return &Executor{
		toolchain: tc,
		now:       time.Now,
	}
}

// Execute 调用工具链编译一个模块。
// 不检查产物是否真的写出，那属于工具链自身的责任。
func (e *Executor) Execute(ctx context.Context, task model.CompileTask) (result model.CompileResult) {
	logger := ctxlog.FromContext(ctx).With("source", task.SourcePath)
	started := e.now()
	result.SourcePath = task.SourcePath

	defer func() {
		if recovered := recover(); recovered != nil {
			result.Succeeded = false
			result.ToolchainOutput = ""
			result.Diagnostic = &model.Diagnostic{
				Message: fmt.Sprintf("Error compiling contract %s: toolchain panic: %v", task.SourcePath, recovered),
			}
		}
		result.Duration = e.now().Sub(started)
	}()

	if err := ensureParentDirs(task.BinaryArtifactPath, task.TextArtifactPath); err != nil {
		logger.Debug("prepare output failed", "error", err)
		result.Diagnostic = &model.Diagnostic{
			Message: fmt.Sprintf("Error compiling contract %s: %v", task.SourcePath, err),
		}
		return result
	}

	invocation := toolchain.Invocation{
		SourcePath: task.SourcePath,
		BinaryPath: task.BinaryArtifactPath,
		TextPath:   task.TextArtifactPath,
		Options:    task.Config.Options,
		Transforms: task.Config.ExtraArguments,
	}
	logger.Debug("invoking toolchain", "args", toolchain.Args(invocation))

	output, err := e.toolchain.Compile(ctx, invocation)
	if err != nil {
		logger.Debug("toolchain failed", "error", err)
		result.Diagnostic = &model.Diagnostic{
			Message: fmt.Sprintf("Error compiling contract %s: %v", task.SourcePath, err),
			Output:  output.Stderr,
		}
		return result
	}

	result.Succeeded = true
	result.ToolchainOutput = output.Stdout
	return result
}

func ensureParentDirs(paths ...string) error {
	for _, path := range paths {
		directory := filepath.Dir(path)
		if directory == "." || directory == "" {
			continue
		}
		if err := os.MkdirAll(directory, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	return nil
}
