// Package settings 定义 ascbuild 自身的运行参数。
// 取值优先级：命令行参数 > 环境变量 > .env 文件 > 默认值。
package settings

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"ascbuild/internal/buildconfig"
	"ascbuild/internal/classify"
	"ascbuild/internal/discovery"
	"ascbuild/internal/executor"
	"ascbuild/internal/toolchain"
)

const defaultSourceDir = "assembly/contracts"

// Settings 控制一次构建。
type Settings struct {
	SourceDir  string
	OutputDir  string
	ConfigPath string
	Compiler   string
	Mode       string
	Workers    int
	TestsDir   string
	Extension  string
	Marker     string
}

func Default() Settings {
	return Settings{
		SourceDir:  defaultSourceDir,
		OutputDir:  executor.DefaultOutputRoot,
		ConfigPath: buildconfig.DefaultPath,
		Compiler:   toolchain.DefaultCompiler,
		Mode:       buildconfig.DefaultMode,
		Workers:    runtime.NumCPU(),
		TestsDir:   discovery.DefaultTestsDir,
		Extension:  discovery.DefaultExtension,
		Marker:     classify.DefaultMarker,
	}
}

// FromEnv 读取 ASCBUILD_* 变量。未指定 envFiles 时尝试读取当前目录的 .env，文件不存在不报错；
// 显式指定的文件读取失败会返回错误。进程环境变量优先于文件中的值。
// 这里不做 Validate，由真正需要构建参数的命令自行校验。
func FromEnv(envFiles ...string) (Settings, error) {
	fileValues := map[string]string{}
	if len(envFiles) == 0 {
		if values, err := godotenv.Read(); err == nil {
			fileValues = values
		}
	} else {
		values, err := godotenv.Read(envFiles...)
		if err != nil {
			return Settings{}, fmt.Errorf("read env file: %w", err)
		}
		fileValues = values
	}

	lookup := func(key string) string {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
		return strings.TrimSpace(fileValues[key])
	}
	getEnv := func(key, fallback string) string {
		if v := lookup(key); v != "" {
			return v
		}
		return fallback
	}

	cfg := Default()
	cfg.SourceDir = getEnv("ASCBUILD_SOURCE_DIR", cfg.SourceDir)
	cfg.OutputDir = getEnv("ASCBUILD_OUTPUT_DIR", cfg.OutputDir)
	cfg.ConfigPath = getEnv("ASCBUILD_CONFIG", cfg.ConfigPath)
	cfg.Compiler = getEnv("ASCBUILD_COMPILER", cfg.Compiler)
	cfg.Mode = getEnv("ASCBUILD_MODE", cfg.Mode)
	cfg.TestsDir = getEnv("ASCBUILD_TESTS_DIR", cfg.TestsDir)
	cfg.Extension = getEnv("ASCBUILD_EXTENSION", cfg.Extension)
	cfg.Marker = getEnv("ASCBUILD_MARKER", cfg.Marker)

	if v := lookup("ASCBUILD_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Settings{}, fmt.Errorf("parse ASCBUILD_WORKERS: %w", err)
		}
		cfg.Workers = n
	}

	return cfg, nil
}

func (s Settings) Validate() error {
	if strings.TrimSpace(s.SourceDir) == "" {
		return errors.New("source dir is required")
	}
	if strings.TrimSpace(s.OutputDir) == "" {
		return errors.New("output dir is required")
	}
	if strings.TrimSpace(s.Compiler) == "" {
		return errors.New("compiler is required")
	}
	if s.Workers <= 0 {
		return errors.New("workers must be greater than 0")
	}
	if !strings.HasPrefix(s.Extension, ".") {
		return fmt.Errorf("extension %q must start with a dot", s.Extension)
	}
	if strings.TrimSpace(s.Marker) == "" {
		return errors.New("dependency marker is required")
	}
	return nil
}
