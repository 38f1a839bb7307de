package cmd

import (
	"encoding/json"
	"fmt"

	"ascbuild/internal/buildconfig"
	"ascbuild/internal/toolchain"

	"github.com/spf13/cobra"
)

// resolvedConfig 是 config 子命令的输出结构。
type resolvedConfig struct {
	Path      string         `json:"path"`
	Found     bool           `json:"found"`
	Modes     []string       `json:"modes"`
	Mode      string         `json:"mode"`
	Options   map[string]any `json:"options"`
	Transform []string       `json:"transform"`
	Arguments []string       `json:"arguments"`
}

// newConfigCmd 创建 config 子命令，展示指定模式下合并后的编译选项。
func newConfigCmd(options *buildOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "显示当前模式合并后的编译选项",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			overrides, err := buildconfig.ParseOverrides(options.overrides)
			if err != nil {
				return err
			}

			file, err := buildconfig.Load(options.settings.ConfigPath)
			if err != nil {
				return err
			}

			resolved, err := file.Resolve(options.settings.Mode, overrides)
			if err != nil {
				return err
			}

			output := resolvedConfig{
				Path:      options.settings.ConfigPath,
				Found:     file != nil,
				Modes:     file.Modes(),
				Mode:      resolved.Mode,
				Options:   resolved.Options,
				Transform: resolved.ExtraArguments,
				Arguments: toolchain.Args(toolchain.Invocation{
					SourcePath: "<source>",
					BinaryPath: "<binary>",
					TextPath:   "<text>",
					Options:    resolved.Options,
					Transforms: resolved.ExtraArguments,
				}),
			}

			content, err := json.MarshalIndent(output, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal json: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(content))
			return err
		},
	}
}
