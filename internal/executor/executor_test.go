package executor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ascbuild/internal/model"
	"ascbuild/internal/toolchain"
)

func sampleTask(outputRoot string) model.CompileTask {
	binaryPath, textPath := DefaultLayout(outputRoot).ArtifactPaths("assembly/contracts/token.ts")
	return model.CompileTask{
		SourcePath:         "assembly/contracts/token.ts",
		BinaryArtifactPath: binaryPath,
		TextArtifactPath:   textPath,
		Config: model.BuildConfig{
			Mode:           "release",
			Options:        map[string]any{"optimizeLevel": 3},
			ExtraArguments: []string{"as-bignum/transform"},
		},
	}
}

func TestExecuteSuccessCapturesStdout(t *testing.T) {
	outputRoot := filepath.Join(t.TempDir(), "build", "nested")
	var got toolchain.Invocation

	executor := New(toolchain.Func(func(_ context.Context, invocation toolchain.Invocation) (toolchain.Output, error) {
		got = invocation
		return toolchain.Output{Stdout: "ok", Stderr: "warning"}, nil
	}))

	result := executor.Execute(context.Background(), sampleTask(outputRoot))

	assert.True(t, result.Succeeded)
	assert.Nil(t, result.Diagnostic)
	assert.Equal(t, "ok", result.ToolchainOutput)
	assert.Equal(t, "assembly/contracts/token.ts", result.SourcePath)

	assert.Equal(t, filepath.Join(outputRoot, "token.wasm"), got.BinaryPath)
	assert.Equal(t, filepath.Join(outputRoot, "token.wat"), got.TextPath)
	assert.Equal(t, map[string]any{"optimizeLevel": 3}, got.Options)
	assert.Equal(t, []string{"as-bignum/transform"}, got.Transforms)

	info, err := os.Stat(outputRoot)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestExecuteFailureCapturesDiagnostic(t *testing.T) {
	executor := New(toolchain.Func(func(context.Context, toolchain.Invocation) (toolchain.Output, error) {
		return toolchain.Output{Stdout: "partial", Stderr: "ERROR AS100"}, errors.New("asc exited 1")
	}))

	result := executor.Execute(context.Background(), sampleTask(t.TempDir()))

	assert.False(t, result.Succeeded)
	require.NotNil(t, result.Diagnostic)
	assert.Equal(t, "Error compiling contract assembly/contracts/token.ts: asc exited 1", result.Diagnostic.Message)
	assert.Equal(t, "ERROR AS100", result.Diagnostic.Output)
	assert.Empty(t, result.ToolchainOutput)
}

func TestExecuteInvalidInvocationIsData(t *testing.T) {
	runner := toolchain.NewASC("asc", "", nil)
	task := sampleTask(t.TempDir())
	task.Config.ExtraArguments = []string{""}

	result := New(runner).Execute(context.Background(), task)

	assert.False(t, result.Succeeded)
	require.NotNil(t, result.Diagnostic)
	assert.Contains(t, result.Diagnostic.Message, "invalid toolchain invocation")
}

func TestExecuteRecoversToolchainPanic(t *testing.T) {
	executor := New(toolchain.Func(func(context.Context, toolchain.Invocation) (toolchain.Output, error) {
		panic("boom")
	}))

	result := executor.Execute(context.Background(), sampleTask(t.TempDir()))

	assert.False(t, result.Succeeded)
	require.NotNil(t, result.Diagnostic)
	assert.Contains(t, result.Diagnostic.Message, "toolchain panic: boom")
}

func TestExecuteOutputDirectoryFailure(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "build")
	require.NoError(t, os.WriteFile(blocker, []byte("file"), 0o644))

	called := false
	executor := New(toolchain.Func(func(context.Context, toolchain.Invocation) (toolchain.Output, error) {
		called = true
		return toolchain.Output{}, nil
	}))

	result := executor.Execute(context.Background(), sampleTask(blocker))

	assert.False(t, called)
	assert.False(t, result.Succeeded)
	require.NotNil(t, result.Diagnostic)
	assert.Contains(t, result.Diagnostic.Message, "create output directory")
}
