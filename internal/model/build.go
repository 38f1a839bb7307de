// Package model 定义 ascbuild 的核心数据模型。
// 这些结构会被发现、分类、执行、汇总以及输出层共同使用。
package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Category 表示模块的编译分组。
type Category int

const (
	// Independent 不嵌入其它模块产物，可在第一阶段编译。
	Independent Category = iota
	// Dependent 嵌入了其它模块的二进制产物，必须在第二阶段编译。
	Dependent
)

// String 返回分组名称。
func (c Category) String() string {
	switch c {
	case Independent:
		return "independent"
	case Dependent:
		return "dependent"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// MarshalJSON 以名称形式输出分组。
func (c Category) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// Module 表示一个已发现并完成分类的源码模块。
// 源码内容只在分类时读取一次，不会保存在这里。
type Module struct {
	Path     string   `json:"path"`
	Category Category `json:"category"`
}

// BuildConfig 是单次编译使用的最终配置。
//
// 注意：
// - Options 已按 默认 → 全局 options → targets[mode] → 调用方覆盖 的顺序合并
// - ExtraArguments 是从 transformer 选项中提取出的名称，按顺序追加为 --transform <name>
type BuildConfig struct {
	Mode           string         `json:"mode"`
	Options        map[string]any `json:"options"`
	ExtraArguments []string       `json:"extra_arguments"`
}

// CompileTask 是绑定到某个模块的一次编译任务。
type CompileTask struct {
	SourcePath         string      `json:"source_path"`
	BinaryArtifactPath string      `json:"binary_artifact_path"`
	TextArtifactPath   string      `json:"text_artifact_path"`
	Category           Category    `json:"category"`
	Config             BuildConfig `json:"config"`
}

// Diagnostic 记录失败模块的错误信息和工具链捕获的错误输出。
type Diagnostic struct {
	Message string `json:"message"`
	Output  string `json:"output,omitempty"`
}

// CompileResult 是单个 CompileTask 的执行结果。
// Diagnostic 仅在失败时存在，ToolchainOutput 仅在成功时有意义。
type CompileResult struct {
	SourcePath      string        `json:"source_path"`
	Succeeded       bool          `json:"succeeded"`
	Diagnostic      *Diagnostic   `json:"diagnostic,omitempty"`
	ToolchainOutput string        `json:"toolchain_output,omitempty"`
	Duration        time.Duration `json:"duration_ns"`
}

// BuildReport 是一次构建的完整输出模型。
// Results 按调度顺序排列（先 independent 阶段，再 dependent 阶段），与实际完成时间无关。
type BuildReport struct {
	Mode           string          `json:"mode"`
	Results        []CompileResult `json:"results"`
	OverallSuccess bool            `json:"overall_success"`
	Succeeded      int             `json:"succeeded"`
	Failed         int             `json:"failed"`
	Duration       time.Duration   `json:"duration_ns"`
}

// NewBuildReport 根据有序结果构造报告。
// OverallSuccess 是全部结果的逻辑与，因此空结果视为成功。
func NewBuildReport(mode string, results []CompileResult, elapsed time.Duration) BuildReport {
	report := BuildReport{
		Mode:           mode,
		Results:        results,
		OverallSuccess: true,
		Duration:       elapsed,
	}
	if report.Results == nil {
		report.Results = make([]CompileResult, 0)
	}

	for _, item := range report.Results {
		if item.Succeeded {
			report.Succeeded++
			continue
		}
		report.Failed++
		report.OverallSuccess = false
	}
	return report
}
