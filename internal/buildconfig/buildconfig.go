// Package buildconfig 读取可选的项目配置文件，并为指定构建模式解析出最终的编译选项。
//
// 合并顺序（后者覆盖前者）：
//
//	工具链默认值（空） → 文件 options → 文件 targets[mode] → 调用方覆盖
//
// transformer 选项不会留在 Options 中，而是作为 ExtraArguments 单独返回。
package buildconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"ascbuild/internal/model"
)

const (
	// DefaultMode 是默认构建模式，即使配置文件中没有对应 target 也总能解析成功。
	DefaultMode = "release"
	// DefaultPath 是默认配置文件名。
	DefaultPath = "asconfig.json"
	// TransformerKey 是需要展开成 --transform 参数的选项名。
	TransformerKey = "transformer"
)

// ErrUnknownMode 表示配置文件中没有请求的构建模式。
var ErrUnknownMode = errors.New("unknown build mode")

// Error 表示配置文件格式错误或构建模式不存在，对整次构建是致命的。
type Error struct {
	Path string
	Mode string
	Err  error
}

func (e *Error) Error() string {
	if e.Mode != "" {
		return fmt.Sprintf("resolve config %s for mode %q: %v", e.Path, e.Mode, e.Err)
	}
	return fmt.Sprintf("load config %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// File 是解析后的配置文件，结构为 { options: {...}, targets: { <mode>: {...} } }。
type File struct {
	Path    string
	Options map[string]any
	Targets map[string]map[string]any
}

// Request 描述一次配置解析请求。
type Request struct {
	// Path 为空时表示没有配置文件。
	Path      string
	Mode      string
	Overrides map[string]any
}

// Resolve 加载配置文件并解析出最终配置。
func Resolve(request Request) (model.BuildConfig, error) {
	file, err := Load(request.Path)
	if err != nil {
		return model.BuildConfig{}, err
	}
	return file.Resolve(request.Mode, request.Overrides)
}

// Load 读取并解析配置文件。
// 文件不存在不是错误，此时返回 nil, nil。
func Load(path string) (*File, error) {
	trimmedPath := strings.TrimSpace(path)
	if trimmedPath == "" {
		return nil, nil
	}

	content, err := os.ReadFile(trimmedPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &Error{Path: trimmedPath, Err: err}
	}

	if len(bytes.TrimSpace(content)) == 0 {
		return nil, &Error{Path: trimmedPath, Err: errEmptyDocument}
	}

	var file *File
	switch strings.ToLower(filepath.Ext(trimmedPath)) {
	case ".yaml", ".yml":
		file, err = decodeYAML(content)
	case ".hcl":
		file, err = decodeHCL(trimmedPath, content)
	default:
		file, err = decodeJSON(content)
	}
	if err != nil {
		return nil, &Error{Path: trimmedPath, Err: err}
	}

	file.Path = trimmedPath
	return file, nil
}

// Resolve 为指定模式合并选项。接收者为 nil 表示没有配置文件，结果仅包含调用方覆盖。
func (f *File) Resolve(mode string, overrides map[string]any) (model.BuildConfig, error) {
	mode = strings.TrimSpace(mode)
	if mode == "" {
		mode = DefaultMode
	}

	merged := make(map[string]any)
	if f != nil {
		target, ok := f.Targets[mode]
		if !ok && mode != DefaultMode {
			return model.BuildConfig{}, &Error{Path: f.Path, Mode: mode, Err: ErrUnknownMode}
		}
		mergeInto(merged, f.Options)
		mergeInto(merged, target)
	}
	mergeInto(merged, overrides)

	extra, err := extractTransformers(merged)
	if err != nil {
		path := ""
		if f != nil {
			path = f.Path
		}
		return model.BuildConfig{}, &Error{Path: path, Mode: mode, Err: err}
	}

	return model.BuildConfig{
		Mode:           mode,
		Options:        merged,
		ExtraArguments: extra,
	}, nil
}

// Modes 返回配置文件声明的全部模式名称。
func (f *File) Modes() []string {
	if f == nil {
		return nil
	}
	modes := make([]string, 0, len(f.Targets))
	for name := range f.Targets {
		modes = append(modes, name)
	}
	return sortedStrings(modes)
}

// mergeInto 按键覆盖，整体替换而不是深度合并（transformer 列表同样整体替换）。
func mergeInto(dst map[string]any, src map[string]any) {
	for key, value := range src {
		dst[key] = value
	}
}

// extractTransformers 从合并结果中移除 transformer 并返回名称列表。
func extractTransformers(options map[string]any) ([]string, error) {
	raw, ok := options[TransformerKey]
	if !ok {
		return nil, nil
	}
	delete(options, TransformerKey)

	switch value := raw.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(value) == "" {
			return nil, nil
		}
		return []string{value}, nil
	case []string:
		return append([]string(nil), value...), nil
	case []any:
		names := make([]string, 0, len(value))
		for i, item := range value {
			name, isString := item.(string)
			if !isString {
				return nil, fmt.Errorf("%s[%d] must be a string, got %T", TransformerKey, i, item)
			}
			names = append(names, name)
		}
		return names, nil
	default:
		return nil, fmt.Errorf("%s must be a list of names, got %T", TransformerKey, raw)
	}
}
