package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ascbuild/internal/orchestrator"
	"ascbuild/internal/settings"
	"ascbuild/internal/toolchain"
)

// fakeCompiler 记录调用参数，遇到 failing 中的模块时返回失败。
type fakeCompiler struct {
	mu          sync.Mutex
	invocations []toolchain.Invocation
	failing     map[string]bool
}

func (f *fakeCompiler) Compile(_ context.Context, invocation toolchain.Invocation) (toolchain.Output, error) {
	f.mu.Lock()
	f.invocations = append(f.invocations, invocation)
	f.mu.Unlock()

	name := filepath.Base(invocation.SourcePath)
	if f.failing[name] {
		return toolchain.Output{Stderr: "ERROR in " + name}, errors.New("asc exited 1")
	}
	return toolchain.Output{Stdout: "built " + name}, nil
}

// newTestProject 创建一个带配置文件的合约项目，并返回已指向该项目的运行参数。
func newTestProject(t *testing.T) settings.Settings {
	t.Helper()

	project := t.TempDir()
	files := map[string]string{
		"assembly/contracts/token.ts":                "export function transfer(): void {}",
		"assembly/contracts/deployer.ts":             "fileToByteArray('build/token.wasm')",
		"assembly/contracts/nft/collection.ts":       "export function mint(): void {}",
		"assembly/contracts/__tests__/token.spec.ts": "describe()",
		"asconfig.json":                              `{"options": {"runtime": "stub"}, "targets": {"release": {"optimizeLevel": 3}, "debug": {"debug": true}}}`,
	}
	for name, content := range files {
		path := filepath.Join(project, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	cfg := settings.Default()
	cfg.SourceDir = filepath.Join(project, "assembly", "contracts")
	cfg.OutputDir = filepath.Join(project, "build")
	cfg.ConfigPath = filepath.Join(project, "asconfig.json")
	cfg.Workers = 2
	return cfg
}

func runCommand(t *testing.T, cfg settings.Settings, compiler *fakeCompiler, args ...string) (string, error) {
	t.Helper()

	factory := func(settings.Settings) toolchain.Toolchain { return compiler }
	rootCmd := newRootCmd("test", cfg, factory)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return stdout.String(), err
}

func TestBuildCommandSucceeds(t *testing.T) {
	cfg := newTestProject(t)
	compiler := &fakeCompiler{}

	out, err := runCommand(t, cfg, compiler, "-r", "-O", "noAssert")
	require.NoError(t, err)

	require.Len(t, compiler.invocations, 3)
	last := compiler.invocations[2]
	assert.Equal(t, "deployer.ts", filepath.Base(last.SourcePath))
	assert.Equal(t, map[string]any{"runtime": "stub", "optimizeLevel": 3, "noAssert": true}, last.Options)

	assert.Contains(t, out, "contract to compile")
	assert.Contains(t, out, "built deployer.ts")
	assert.NotContains(t, out, "token.spec")
}

func TestBuildCommandNonRecursiveByDefault(t *testing.T) {
	cfg := newTestProject(t)
	compiler := &fakeCompiler{}

	_, err := runCommand(t, cfg, compiler)
	require.NoError(t, err)

	assert.Len(t, compiler.invocations, 2)
}

func TestBuildCommandFailureReturnsError(t *testing.T) {
	cfg := newTestProject(t)
	compiler := &fakeCompiler{failing: map[string]bool{"token.ts": true}}

	out, err := runCommand(t, cfg, compiler, "--subdirectories")
	require.Error(t, err)

	assert.True(t, errors.Is(err, orchestrator.ErrBuildFailed))
	assert.Len(t, compiler.invocations, 3, "every module is attempted")
	assert.Contains(t, out, "ERROR in token.ts")
	assert.Contains(t, out, "FAILED SOURCE")
}

func TestBuildCommandUnknownMode(t *testing.T) {
	cfg := newTestProject(t)
	compiler := &fakeCompiler{}

	_, err := runCommand(t, cfg, compiler, "--mode", "staging")
	require.Error(t, err)

	assert.Contains(t, err.Error(), `"staging"`)
	assert.Empty(t, compiler.invocations)
}

func TestBuildCommandJSONReport(t *testing.T) {
	cfg := newTestProject(t)
	reportPath := filepath.Join(t.TempDir(), "out", "report.json")

	out, err := runCommand(t, cfg, &fakeCompiler{}, "-m", "debug", "--format", "json", "--report", reportPath)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "debug", decoded["mode"])
	assert.Equal(t, true, decoded["overall_success"])
	assert.FileExists(t, reportPath)
}

func TestBuildCommandRejectsUnknownFormat(t *testing.T) {
	_, err := runCommand(t, newTestProject(t), &fakeCompiler{}, "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}

func TestModulesCommandListsScheduleOrder(t *testing.T) {
	cfg := newTestProject(t)
	compiler := &fakeCompiler{}

	out, err := runCommand(t, cfg, compiler, "modules", "-r")
	require.NoError(t, err)
	assert.Empty(t, compiler.invocations)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "PHASE")
	assert.Contains(t, lines[1], "collection.ts")
	assert.Contains(t, lines[2], "token.ts")
	assert.Contains(t, lines[3], "deployer.ts")
	assert.Contains(t, lines[3], "dependent")
}

func TestConfigCommandPrintsMergedOptions(t *testing.T) {
	cfg := newTestProject(t)

	out, err := runCommand(t, cfg, &fakeCompiler{}, "config", "-m", "debug", "-O", `transformer=["as-bignum/transform"]`)
	require.NoError(t, err)

	var decoded resolvedConfig
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.True(t, decoded.Found)
	assert.Equal(t, []string{"debug", "release"}, decoded.Modes)
	assert.Equal(t, map[string]any{"runtime": "stub", "debug": true}, decoded.Options)
	assert.Equal(t, []string{"as-bignum/transform"}, decoded.Transform)
	assert.Contains(t, decoded.Arguments, "--transform")
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, settings.Default(), &fakeCompiler{}, "version")
	require.NoError(t, err)
	assert.Equal(t, "ascbuild version test\n", out)
}

func TestInvalidSettingsOnlyFailBuildCommands(t *testing.T) {
	cfg := newTestProject(t)
	cfg.Workers = 0
	compiler := &fakeCompiler{}

	out, err := runCommand(t, cfg, compiler, "version")
	require.NoError(t, err)
	assert.Equal(t, "ascbuild version test\n", out)

	_, err = runCommand(t, cfg, compiler)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid settings")
	assert.Empty(t, compiler.invocations)
}

func TestBuildCommandAnnouncesEachModuleOnce(t *testing.T) {
	cfg := newTestProject(t)
	factory := func(settings.Settings) toolchain.Toolchain { return &fakeCompiler{} }
	rootCmd := newRootCmd("test", cfg, factory)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{"-r"})
	require.NoError(t, rootCmd.Execute())

	assert.Equal(t, 3, strings.Count(stdout.String(), "contract to compile"))
	assert.NotContains(t, stderr.String(), "contract to compile")
}
