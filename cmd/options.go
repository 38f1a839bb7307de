package cmd

import (
	"context"
	"fmt"

	"ascbuild/internal/buildconfig"
	"ascbuild/internal/classify"
	"ascbuild/internal/ctxlog"
	"ascbuild/internal/executor"
	"ascbuild/internal/orchestrator"
	"ascbuild/internal/settings"

	"github.com/spf13/cobra"
)

// buildOptions 存放命令行可配置参数，默认值来自 settings。
type buildOptions struct {
	settings settings.Settings

	recursive bool
	overrides []string
	verbose   bool

	format     string
	reportPath string
}

func newBuildOptions(cfg settings.Settings) *buildOptions {
	return &buildOptions{
		settings: cfg,
		format:   "table",
	}
}

// bindPersistent 注册所有子命令共享的参数。
func (o *buildOptions) bindPersistent(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.BoolVarP(&o.recursive, "subdirectories", "r", false, "同时编译子目录中的合约（跳过 __tests__）")
	flags.StringVarP(&o.settings.Mode, "mode", "m", o.settings.Mode, "构建模式，对应配置文件中的 targets")
	flags.StringArrayVarP(&o.overrides, "option", "O", nil, "覆盖编译选项，格式 key=value，可重复")
	flags.StringVar(&o.settings.ConfigPath, "config", o.settings.ConfigPath, "配置文件路径（.json / .yaml / .hcl），不存在时忽略")
	flags.StringVar(&o.settings.SourceDir, "source", o.settings.SourceDir, "合约源码目录")
	flags.StringVar(&o.settings.OutputDir, "output", o.settings.OutputDir, "产物输出目录")
	flags.BoolVarP(&o.verbose, "verbose", "v", false, "输出调试日志")
}

// bindBuild 注册只有构建命令使用的参数。
func (o *buildOptions) bindBuild(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&o.settings.Compiler, "compiler", o.settings.Compiler, "编译器命令，例如 asc 或 \"npx asc\"")
	flags.IntVar(&o.settings.Workers, "workers", o.settings.Workers, "每个阶段的并发编译数量")
	flags.StringVar(&o.format, "format", o.format, "汇总格式: table 或 json")
	flags.StringVar(&o.reportPath, "report", "", "把 JSON 报告额外导出到该路径")
}

// context 返回带有日志器的上下文。
func (o *buildOptions) context(cmd *cobra.Command) context.Context {
	logger := ctxlog.New(cmd.ErrOrStderr(), o.verbose)
	return ctxlog.WithLogger(cmd.Context(), logger)
}

// orchestratorOptions 把命令行参数转换为一次构建的显式输入。
func (o *buildOptions) orchestratorOptions() (orchestrator.Options, error) {
	if err := o.settings.Validate(); err != nil {
		return orchestrator.Options{}, fmt.Errorf("invalid settings: %w", err)
	}

	overrides, err := buildconfig.ParseOverrides(o.overrides)
	if err != nil {
		return orchestrator.Options{}, err
	}

	return orchestrator.Options{
		SourceRoot: o.settings.SourceDir,
		Recursive:  o.recursive,
		Extension:  o.settings.Extension,
		TestsDir:   o.settings.TestsDir,
		ConfigPath: o.settings.ConfigPath,
		Mode:       o.settings.Mode,
		Overrides:  overrides,
		Layout:     executor.DefaultLayout(o.settings.OutputDir),
	}, nil
}

func (o *buildOptions) service(factory toolchainFactory) *orchestrator.Service {
	return orchestrator.NewService(
		executor.New(factory(o.settings)),
		classify.New(o.settings.Marker),
		o.settings.Workers,
	)
}
