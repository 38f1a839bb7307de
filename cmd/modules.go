package cmd

import (
	"fmt"
	"text/tabwriter"

	"ascbuild/internal/orchestrator"

	"github.com/spf13/cobra"
)

// newModulesCmd 创建 modules 子命令。
// 命令按调度顺序展示将要编译的模块、所属阶段以及产物路径，不调用编译器。
func newModulesCmd(options *buildOptions, factory toolchainFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "modules",
		Short: "按编译顺序列出合约及其产物路径",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runOptions, err := options.orchestratorOptions()
			if err != nil {
				return err
			}

			plan, err := options.service(factory).Prepare(options.context(cmd), runOptions)
			if err != nil {
				return err
			}

			return printPlan(cmd, plan)
		},
	}
}

func printPlan(cmd *cobra.Command, plan orchestrator.Plan) error {
	writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

	if _, err := fmt.Fprintln(writer, "SOURCE\tPHASE\tBINARY\tTEXT"); err != nil {
		return err
	}

	for _, task := range plan.Tasks {
		if _, err := fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n", task.SourcePath, task.Category, task.BinaryArtifactPath, task.TextArtifactPath); err != nil {
			return err
		}
	}

	return writer.Flush()
}
