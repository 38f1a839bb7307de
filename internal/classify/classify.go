// Package classify 把发现到的模块分成 independent / dependent 两组并给出编译顺序。
//
// 规则：源码中出现 fileToByteArray( 的模块会嵌入其它模块的 wasm 产物，
// 因此必须排在全部 independent 模块之后编译。
package classify

import (
	"bytes"
	"os"

	"ascbuild/internal/discovery"
	"ascbuild/internal/model"
)

// DefaultMarker 是 AssemblyScript 标准库中嵌入外部二进制数据的调用。
const DefaultMarker = "fileToByteArray("

// Classifier 根据源码内容给模块分组。
type Classifier struct {
	marker   []byte
	readFile func(path string) ([]byte, error)
}

// New 创建分类器，marker 为空时使用 DefaultMarker。
func New(marker string) *Classifier {
	if marker == "" {
		marker = DefaultMarker
	}
	return &Classifier{
		marker:   []byte(marker),
		readFile: os.ReadFile,
	}
}

// CategoryOf 判断一段源码属于哪一组。
func (c *Classifier) CategoryOf(content []byte) model.Category {
	if bytes.Contains(content, c.marker) {
		return model.Dependent
	}
	return model.Independent
}

// Classify 逐个读取模块内容（每个文件只读一次）并返回已排好序的模块列表。
// 读取失败视为发现阶段错误，整次构建终止。
func (c *Classifier) Classify(paths []string) ([]model.Module, error) {
	modules := make([]model.Module, 0, len(paths))
	for _, path := range paths {
		content, err := c.readFile(path)
		if err != nil {
			return nil, &discovery.Error{Root: path, Err: err}
		}
		modules = append(modules, model.Module{
			Path:     path,
			Category: c.CategoryOf(content),
		})
	}
	return Order(modules), nil
}

// Order 稳定地把 independent 模块排在 dependent 模块之前。
// 组内保持输入顺序，对已排序的输入再次调用结果不变。
func Order(modules []model.Module) []model.Module {
	ordered := make([]model.Module, 0, len(modules))
	for _, module := range modules {
		if module.Category == model.Independent {
			ordered = append(ordered, module)
		}
	}
	for _, module := range modules {
		if module.Category != model.Independent {
			ordered = append(ordered, module)
		}
	}
	return ordered
}

// Phases 把已排序的模块切分为两个阶段。
func Phases(modules []model.Module) (independent []model.Module, dependent []model.Module) {
	for _, module := range modules {
		if module.Category == model.Independent {
			independent = append(independent, module)
			continue
		}
		dependent = append(dependent, module)
	}
	return independent, dependent
}
