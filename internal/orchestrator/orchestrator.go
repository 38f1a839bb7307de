// Package orchestrator 串联整个构建流程：发现 → 分类 → 解析配置 → 规划任务 → 分阶段并发执行 → 汇总。
//
// 调度分为两个阶段：independent 阶段内的任务并发执行，全部结束（无论成败）后
// 才开始 dependent 阶段。任何失败都不会取消同阶段的其它任务。
package orchestrator

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"ascbuild/internal/buildconfig"
	"ascbuild/internal/classify"
	"ascbuild/internal/ctxlog"
	"ascbuild/internal/discovery"
	"ascbuild/internal/executor"
	"ascbuild/internal/model"
)

// ErrBuildFailed 表示至少一个模块编译失败。
var ErrBuildFailed = errors.New("build failed")

// Options 是一次构建的全部输入，由调用方显式传入，不依赖任何全局状态。
type Options struct {
	SourceRoot string
	Recursive  bool
	Extension  string
	TestsDir   string

	ConfigPath string
	Mode       string
	Overrides  map[string]any

	Layout executor.Layout
}

// Plan 是编译开始前确定下来的全部内容。
type Plan struct {
	Config  model.BuildConfig
	Modules []model.Module
	Tasks   []model.CompileTask
}

// Service 是构建服务对象。
type Service struct {
	executor   *executor.Executor
	classifier *classify.Classifier
	workers    int
	now        func() time.Time
}

// scheduledTask 记录任务在调度顺序中的位置，结果按该位置写回。
type scheduledTask struct {
	index int
	task  model.CompileTask
}

// NewService 创建构建服务，workers <= 0 时使用 CPU 核数。
func NewService(exec *executor.Executor, classifier *classify.Classifier, workers int) *Service {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if classifier == nil {
		classifier = classify.New("")
	}
	return &Service{
		executor:   exec,
		classifier: classifier,
		workers:    workers,
		now:        time.Now,
	}
}

// Prepare 完成编译前的全部步骤。发现、配置以及产物冲突错误都在这里返回，
// 此时还没有任何编译被执行。
func (s *Service) Prepare(ctx context.Context, options Options) (Plan, error) {
	logger := ctxlog.FromContext(ctx)

	paths, err := discovery.Discover(options.SourceRoot, discovery.Options{
		Recursive: options.Recursive,
		Extension: options.Extension,
		TestsDir:  options.TestsDir,
	})
	if err != nil {
		return Plan{}, err
	}
	logger.Debug("modules discovered", "root", options.SourceRoot, "count", len(paths))

	modules, err := s.classifier.Classify(paths)
	if err != nil {
		return Plan{}, err
	}

	config, err := buildconfig.Resolve(buildconfig.Request{
		Path:      options.ConfigPath,
		Mode:      options.Mode,
		Overrides: options.Overrides,
	})
	if err != nil {
		return Plan{}, err
	}
	logger.Debug("config resolved", "mode", config.Mode, "options", len(config.Options), "transforms", len(config.ExtraArguments))

	layout := options.Layout
	if layout.OutputRoot == "" {
		layout = executor.DefaultLayout("")
	}
	tasks, err := executor.Plan(modules, layout, config)
	if err != nil {
		return Plan{}, err
	}

	return Plan{Config: config, Modules: modules, Tasks: tasks}, nil
}

// Build 执行完整构建。返回的 error 只代表致命错误；模块级失败体现在报告中。
func (s *Service) Build(ctx context.Context, options Options) (model.BuildReport, error) {
	plan, err := s.Prepare(ctx, options)
	if err != nil {
		return model.BuildReport{}, err
	}

	ctxlog.FromContext(ctx).Info("files to compile", "count", len(plan.Tasks), "mode", plan.Config.Mode)
	return s.RunPhases(ctx, plan.Config.Mode, plan.Tasks), nil
}

// RunPhases 按两阶段屏障执行任务并生成报告。
// 报告中的结果顺序为：independent 任务（保持输入顺序），然后 dependent 任务（保持输入顺序）。
func (s *Service) RunPhases(ctx context.Context, mode string, tasks []model.CompileTask) model.BuildReport {
	started := s.now()

	independent := make([]scheduledTask, 0, len(tasks))
	dependent := make([]scheduledTask, 0)
	for _, task := range tasks {
		if task.Category == model.Independent {
			independent = append(independent, scheduledTask{task: task})
			continue
		}
		dependent = append(dependent, scheduledTask{task: task})
	}

	schedule := append(independent, dependent...)
	for i := range schedule {
		schedule[i].index = i
	}

	results := make([]model.CompileResult, len(schedule))
	s.runPhase(ctx, schedule[:len(independent)], results)
	s.runPhase(ctx, schedule[len(independent):], results)

	return model.NewBuildReport(mode, results, s.now().Sub(started))
}

// runPhase 并发执行一个阶段，返回时该阶段全部任务都已结束。
func (s *Service) runPhase(ctx context.Context, phase []scheduledTask, results []model.CompileResult) {
	if len(phase) == 0 {
		return
	}

	tasks := make(chan scheduledTask, len(phase))
	for _, item := range phase {
		tasks <- item
	}
	close(tasks)

	workers := min(s.workers, len(phase))

	var workerGroup sync.WaitGroup
	for i := 0; i < workers; i++ {
		workerGroup.Add(1)
		go func() {
			defer workerGroup.Done()
			s.runWorker(ctx, tasks, results)
		}()
	}
	workerGroup.Wait()
}

// runWorker 消费任务队列。每个任务只写自己的下标，无需加锁。
func (s *Service) runWorker(ctx context.Context, tasks <-chan scheduledTask, results []model.CompileResult) {
	logger := ctxlog.FromContext(ctx)

	for item := range tasks {
		logger.Debug("contract to compile", "path", item.task.SourcePath, "phase", item.task.Category.String())
		result := s.executor.Execute(ctx, item.task)
		if result.Succeeded {
			logger.Debug("compiled", "path", result.SourcePath, "duration", result.Duration)
		} else {
			logger.Warn("compile failed", "path", result.SourcePath)
		}
		results[item.index] = result
	}
}
