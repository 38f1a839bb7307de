// Package cmd 提供 ascbuild 的命令行入口与子命令编排。
package cmd

import (
	"fmt"

	"ascbuild/internal/settings"
	"ascbuild/internal/toolchain"

	"github.com/spf13/cobra"
)

// toolchainFactory 根据运行参数创建编译器，测试中可替换为内存实现。
type toolchainFactory func(cfg settings.Settings) toolchain.Toolchain

// Execute 组装根命令并执行。
// version 参数由 main 包注入，便于在 CI/CD 中打包不同版本。
func Execute(version string) error {
	cfg, err := settings.FromEnv()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	rootCmd := newRootCmd(version, cfg, newASCToolchain)
	return rootCmd.Execute()
}

func newASCToolchain(cfg settings.Settings) toolchain.Toolchain {
	return toolchain.NewASC(cfg.Compiler, "", nil)
}

// newRootCmd 创建根命令并注册全部子命令。
// 根命令本身就是默认的 build 命令。
func newRootCmd(version string, cfg settings.Settings, factory toolchainFactory) *cobra.Command {
	options := newBuildOptions(cfg)

	rootCmd := &cobra.Command{
		Use:   "ascbuild",
		Short: "编译 assembly/contracts 下的全部合约",
		Long: "ascbuild 会发现合约源码，先并发编译不依赖其它合约产物的模块，\n" +
			"再编译通过 fileToByteArray 嵌入其它合约 wasm 的模块，最后汇总构建结果。",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd, options, factory)
		},
	}

	options.bindPersistent(rootCmd)
	options.bindBuild(rootCmd)

	rootCmd.AddCommand(newVersionCmd(version))
	rootCmd.AddCommand(newModulesCmd(options, factory))
	rootCmd.AddCommand(newConfigCmd(options))

	return rootCmd
}
