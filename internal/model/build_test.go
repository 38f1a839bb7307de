package model

import (
	"encoding/json"
	"testing"
	"time"
)

// TestNewBuildReportCountsFailures 验证单个失败会让整体失败，但不丢失其它结果。
func TestNewBuildReportCountsFailures(t *testing.T) {
	results := []CompileResult{
		{SourcePath: "a.ts", Succeeded: true},
		{SourcePath: "b.ts", Succeeded: false, Diagnostic: &Diagnostic{Message: "boom"}},
		{SourcePath: "c.ts", Succeeded: true},
	}

	report := NewBuildReport("release", results, time.Second)

	if report.OverallSuccess {
		t.Fatalf("expected overall failure")
	}
	if report.Succeeded != 2 || report.Failed != 1 {
		t.Fatalf("unexpected counters: succeeded=%d failed=%d", report.Succeeded, report.Failed)
	}
	if len(report.Results) != 3 || report.Results[1].SourcePath != "b.ts" {
		t.Fatalf("results must keep input order: %+v", report.Results)
	}
}

// TestNewBuildReportEmptyIsSuccess 验证空构建视为成功。
func TestNewBuildReportEmptyIsSuccess(t *testing.T) {
	report := NewBuildReport("release", nil, 0)

	if !report.OverallSuccess {
		t.Fatalf("empty report must succeed")
	}
	if report.Results == nil || len(report.Results) != 0 {
		t.Fatalf("expected empty non-nil results, got %#v", report.Results)
	}
}

// TestCategoryJSON 验证分组以名称形式序列化。
func TestCategoryJSON(t *testing.T) {
	content, err := json.Marshal(Module{Path: "deployer.ts", Category: Dependent})
	if err != nil {
		t.Fatalf("marshal module: %v", err)
	}
	if string(content) != `{"path":"deployer.ts","category":"dependent"}` {
		t.Fatalf("unexpected json: %s", content)
	}
	if Category(7).String() != "category(7)" {
		t.Fatalf("unexpected fallback name: %s", Category(7))
	}
}
