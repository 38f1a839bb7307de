// Package report 提供 ascbuild 的输出能力。
// 当前实现支持逐模块控制台输出、table 汇总格式和 JSON 格式（含文件导出）。
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"ascbuild/internal/model"
)

// PrintModuleOutputs 按调度顺序打印每个模块的工具链输出：
// 成功模块打印信息输出，失败模块打印捕获的错误输出与错误信息。
func PrintModuleOutputs(writer io.Writer, report model.BuildReport) error {
	for _, item := range report.Results {
		if _, err := fmt.Fprintf(writer, "contract to compile %s\n", item.SourcePath); err != nil {
			return err
		}

		if item.Succeeded {
			if err := writeBlock(writer, item.ToolchainOutput); err != nil {
				return err
			}
			continue
		}

		if item.Diagnostic == nil {
			continue
		}
		if err := writeBlock(writer, item.Diagnostic.Output); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(writer, item.Diagnostic.Message); err != nil {
			return err
		}
	}
	return nil
}

// PrintTable 使用表格展示构建结果。
func PrintTable(writer io.Writer, report model.BuildReport) error {
	tw := tabwriter.NewWriter(writer, 0, 4, 2, ' ', 0)

	if _, err := fmt.Fprintf(tw, "MODE\t%s\n\n", report.Mode); err != nil {
		return err
	}

	if _, err := fmt.Fprintln(tw, "SOURCE\tSTATUS\tDURATION"); err != nil {
		return err
	}
	for _, item := range report.Results {
		if _, err := fmt.Fprintf(
			tw,
			"%s\t%s\t%s\n",
			item.SourcePath,
			status(item.Succeeded),
			item.Duration.Round(time.Millisecond),
		); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(
		tw,
		"\nTOTAL\t%d\tsucceeded=%d failed=%d\t%s\n",
		len(report.Results),
		report.Succeeded,
		report.Failed,
		report.Duration.Round(time.Millisecond),
	); err != nil {
		return err
	}

	if report.Failed > 0 {
		if _, err := fmt.Fprintln(tw, "\nFAILED SOURCE\tMESSAGE"); err != nil {
			return err
		}
		for _, item := range report.Results {
			if item.Succeeded || item.Diagnostic == nil {
				continue
			}
			if _, err := fmt.Fprintf(tw, "%s\t%s\n", item.SourcePath, firstLine(item.Diagnostic.Message)); err != nil {
				return err
			}
		}
	}

	if _, err := fmt.Fprintf(tw, "\nRESULT\t%s\n", status(report.OverallSuccess)); err != nil {
		return err
	}

	return tw.Flush()
}

// PrintJSON 把构建报告按易读 JSON 输出到任意 writer。
func PrintJSON(writer io.Writer, report model.BuildReport) error {
	content, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if _, err := writer.Write(append(content, '\n')); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

// WriteJSONFile 将 JSON 报告导出到指定路径。
// 如果目录不存在会自动创建。
func WriteJSONFile(path string, report model.BuildReport) error {
	content, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	directory := filepath.Dir(path)
	if directory != "." && directory != "" {
		if mkErr := os.MkdirAll(directory, 0o755); mkErr != nil {
			return fmt.Errorf("create output directory: %w", mkErr)
		}
	}

	if writeErr := os.WriteFile(path, content, 0o644); writeErr != nil {
		return fmt.Errorf("write output file: %w", writeErr)
	}
	return nil
}

func status(ok bool) string {
	if ok {
		return "ok"
	}
	return "FAILED"
}

func firstLine(text string) string {
	line, _, _ := strings.Cut(text, "\n")
	return line
}

func writeBlock(writer io.Writer, text string) error {
	if text == "" {
		return nil
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	_, err := io.WriteString(writer, text)
	return err
}
