package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"
)

// DefaultCompiler 是 AssemblyScript 编译器的命令名。
const DefaultCompiler = "asc"

// CommandSpec 描述一次外部进程调用。
type CommandSpec struct {
	Name string
	Args []string
	Dir  string
}

// Runner 执行外部进程，返回退出码。
type Runner interface {
	Run(ctx context.Context, spec CommandSpec, stdout, stderr io.Writer) (int, error)
}

// OSRunner 通过 os/exec 执行命令。
type OSRunner struct{}

func (OSRunner) Run(ctx context.Context, spec CommandSpec, stdout, stderr io.Writer) (int, error) {
	cmd := exec.CommandContext(ctx, spec.Name, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), err
	}
	if ctx.Err() != nil {
		return -1, ctx.Err()
	}
	return -1, err
}

// ASC 通过命令行调用 AssemblyScript 编译器。
// Command 可以包含前缀参数，例如 "npx asc"。
type ASC struct {
	Command string
	Dir     string
	Runner  Runner
	OSName  string
}

// NewASC 创建编译器封装，runner 为 nil 时使用 OSRunner。
func NewASC(command string, dir string, runner Runner) *ASC {
	if strings.TrimSpace(command) == "" {
		command = DefaultCompiler
	}
	if runner == nil {
		runner = OSRunner{}
	}
	return &ASC{
		Command: command,
		Dir:     dir,
		Runner:  runner,
		OSName:  runtime.GOOS,
	}
}

// Compile 执行一次编译并分别捕获 stdout / stderr。
func (a *ASC) Compile(ctx context.Context, invocation Invocation) (Output, error) {
	if err := invocation.Validate(); err != nil {
		return Output{}, err
	}

	spec, err := buildCommand(a.OSName, a.Command, Args(invocation), a.Dir)
	if err != nil {
		return Output{}, err
	}

	var stdout, stderr bytes.Buffer
	exitCode, runErr := a.Runner.Run(ctx, spec, &stdout, &stderr)
	output := Output{Stdout: stdout.String(), Stderr: stderr.String()}

	if runErr != nil {
		if exitCode > 0 {
			return output, fmt.Errorf("%s exited %d: %w", spec.Name, exitCode, runErr)
		}
		return output, fmt.Errorf("invoke %s: %w", spec.Name, runErr)
	}
	if exitCode != 0 {
		return output, fmt.Errorf("%s exited %d", spec.Name, exitCode)
	}
	return output, nil
}

// buildCommand 在 Windows 上通过 cmd.exe 调用，以便支持 asc.cmd / npx 这类脚本包装。
func buildCommand(osName string, command string, args []string, dir string) (CommandSpec, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return CommandSpec{}, fmt.Errorf("%w: compiler command is empty", ErrInvalidInvocation)
	}

	fullArgs := append(append([]string(nil), fields[1:]...), args...)
	if strings.EqualFold(osName, "windows") {
		return CommandSpec{
			Name: "cmd.exe",
			Args: append([]string{"/C", fields[0]}, fullArgs...),
			Dir:  dir,
		}, nil
	}
	return CommandSpec{Name: fields[0], Args: fullArgs, Dir: dir}, nil
}
