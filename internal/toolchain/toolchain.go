// Package toolchain 封装外部编译器。
// 编排层只依赖 Toolchain 接口：给定源码、二进制产物路径、文本产物路径和选项，
// 要么写出两个产物并成功返回，要么返回错误和捕获到的输出。
package toolchain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidInvocation 表示调用参数无法构造。
var ErrInvalidInvocation = errors.New("invalid toolchain invocation")

// Invocation 是一次编译调用的全部输入。
type Invocation struct {
	SourcePath string
	BinaryPath string
	TextPath   string
	Options    map[string]any
	Transforms []string
}

// Output 是工具链捕获的标准输出与标准错误。
type Output struct {
	Stdout string
	Stderr string
}

// Toolchain 是外部编译能力的抽象。
type Toolchain interface {
	Compile(ctx context.Context, invocation Invocation) (Output, error)
}

// Func 让普通函数满足 Toolchain 接口，主要用于测试和嵌入场景。
type Func func(ctx context.Context, invocation Invocation) (Output, error)

func (f Func) Compile(ctx context.Context, invocation Invocation) (Output, error) {
	return f(ctx, invocation)
}

// Validate 检查调用参数是否完整。
func (i Invocation) Validate() error {
	switch {
	case strings.TrimSpace(i.SourcePath) == "":
		return fmt.Errorf("%w: source path is empty", ErrInvalidInvocation)
	case strings.TrimSpace(i.BinaryPath) == "":
		return fmt.Errorf("%w: binary output path is empty", ErrInvalidInvocation)
	case strings.TrimSpace(i.TextPath) == "":
		return fmt.Errorf("%w: text output path is empty", ErrInvalidInvocation)
	}
	for key, value := range i.Options {
		if strings.TrimSpace(key) == "" || strings.HasPrefix(key, "-") {
			return fmt.Errorf("%w: option name %q", ErrInvalidInvocation, key)
		}
		if _, nested := value.(map[string]any); nested {
			return fmt.Errorf("%w: option %q is an object", ErrInvalidInvocation, key)
		}
	}
	for _, name := range i.Transforms {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: empty transform name", ErrInvalidInvocation)
		}
	}
	return nil
}

// Args 构造编译器参数：
//
//	-o <binary> -t <text> <source> [--<option> <value>...] [--transform <name>...]
//
// 选项按名称排序以保证参数稳定；true 渲染为单独的开关，false 与 nil 省略，
// 列表按元素重复该参数。
func Args(invocation Invocation) []string {
	args := []string{
		"-o", invocation.BinaryPath,
		"-t", invocation.TextPath,
		invocation.SourcePath,
	}

	keys := make([]string, 0, len(invocation.Options))
	for key := range invocation.Options {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		args = appendOption(args, "--"+key, invocation.Options[key])
	}

	for _, name := range invocation.Transforms {
		args = append(args, "--transform", name)
	}
	return args
}

func appendOption(args []string, flag string, value any) []string {
	switch typed := value.(type) {
	case nil:
		return args
	case bool:
		if typed {
			return append(args, flag)
		}
		return args
	case []any:
		for _, item := range typed {
			args = append(args, flag, fmt.Sprint(item))
		}
		return args
	case []string:
		for _, item := range typed {
			args = append(args, flag, item)
		}
		return args
	default:
		return append(args, flag, fmt.Sprint(typed))
	}
}
