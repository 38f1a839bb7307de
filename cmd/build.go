package cmd

import (
	"errors"
	"fmt"
	"strings"

	"ascbuild/internal/orchestrator"
	"ascbuild/internal/report"

	"github.com/spf13/cobra"
)

// runBuild 执行默认的构建命令。
// 示例：
//
//	ascbuild
//	ascbuild -r --mode debug -O noAssert --report build/report.json
func runBuild(cmd *cobra.Command, options *buildOptions, factory toolchainFactory) error {
	format := strings.ToLower(strings.TrimSpace(options.format))
	if format != "table" && format != "json" {
		return errors.New("unsupported format, allowed values: table, json")
	}

	runOptions, err := options.orchestratorOptions()
	if err != nil {
		return err
	}

	ctx := options.context(cmd)
	result, err := options.service(factory).Build(ctx, runOptions)
	if err != nil {
		return err
	}

	switch format {
	case "table":
		if err := report.PrintModuleOutputs(cmd.OutOrStdout(), result); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(cmd.OutOrStdout()); err != nil {
			return err
		}
		if err := report.PrintTable(cmd.OutOrStdout(), result); err != nil {
			return err
		}
	case "json":
		if err := report.PrintJSON(cmd.OutOrStdout(), result); err != nil {
			return err
		}
	}

	if path := strings.TrimSpace(options.reportPath); path != "" {
		if err := report.WriteJSONFile(path, result); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "report exported to %s\n", path)
	}

	if !result.OverallSuccess {
		return fmt.Errorf("%w: %d of %d modules failed", orchestrator.ErrBuildFailed, result.Failed, len(result.Results))
	}
	return nil
}
