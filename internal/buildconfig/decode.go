package buildconfig

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
	"gopkg.in/yaml.v3"
)

// document 是 JSON / YAML 配置文件的结构。
type document struct {
	Options map[string]any            `json:"options" yaml:"options"`
	Targets map[string]map[string]any `json:"targets" yaml:"targets"`
}

func (d document) file() *File {
	file := &File{
		Options: normalizeMap(d.Options),
		Targets: make(map[string]map[string]any, len(d.Targets)),
	}
	for name, target := range d.Targets {
		file.Targets[name] = normalizeMap(target)
	}
	return file
}

// errEmptyDocument 表示配置文件存在但没有内容（空文件或顶层为 null）。
var errEmptyDocument = errors.New("config document is empty")

// decodeJSON 要求整个文件恰好是一个 JSON 对象，尾部多余内容视为格式错误。
func decodeJSON(content []byte) (*File, error) {
	decoder := json.NewDecoder(bytes.NewReader(content))
	decoder.UseNumber()

	var raw json.RawMessage
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, errors.New("parse json: unexpected content after top-level value")
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, errEmptyDocument
	}

	bodyDecoder := json.NewDecoder(bytes.NewReader(raw))
	bodyDecoder.UseNumber()

	var doc document
	if err := bodyDecoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return doc.file(), nil
}

func decodeYAML(content []byte) (*File, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(content, &root); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if len(root.Content) == 0 || root.Content[0].Tag == "!!null" {
		return nil, errEmptyDocument
	}

	var doc document
	if err := root.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return doc.file(), nil
}

// hclDocument 描述 HCL 形式的配置：
//
//	options { runtime = "stub" }
//	target "release" { optimizeLevel = 3 }
type hclDocument struct {
	Options *hclBlock   `hcl:"options,block"`
	Targets []hclTarget `hcl:"target,block"`
}

type hclBlock struct {
	Remain hcl.Body `hcl:",remain"`
}

type hclTarget struct {
	Name   string   `hcl:"name,label"`
	Remain hcl.Body `hcl:",remain"`
}

func decodeHCL(path string, content []byte) (*File, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(content, path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse hcl: %w", diags)
	}

	var doc hclDocument
	if diags := gohcl.DecodeBody(hclFile.Body, nil, &doc); diags.HasErrors() {
		return nil, fmt.Errorf("decode hcl: %w", diags)
	}

	file := &File{Targets: make(map[string]map[string]any, len(doc.Targets))}
	if doc.Options != nil {
		options, err := hclAttributes(doc.Options.Remain)
		if err != nil {
			return nil, fmt.Errorf("options: %w", err)
		}
		file.Options = options
	}

	for _, target := range doc.Targets {
		if _, exists := file.Targets[target.Name]; exists {
			return nil, fmt.Errorf("duplicate target %q", target.Name)
		}
		options, err := hclAttributes(target.Remain)
		if err != nil {
			return nil, fmt.Errorf("target %q: %w", target.Name, err)
		}
		file.Targets[target.Name] = options
	}
	return file, nil
}

// hclAttributes 计算块内的全部属性。表达式不能引用变量。
func hclAttributes(body hcl.Body) (map[string]any, error) {
	attributes, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}

	values := make(map[string]any, len(attributes))
	for name, attribute := range attributes {
		value, diags := attribute.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, diags
		}
		converted, err := ctyToGo(value)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		values[name] = converted
	}
	return values, nil
}

// ctyToGo 借助 cty 的 JSON 编码把属性值转换为普通 Go 值。
func ctyToGo(value cty.Value) (any, error) {
	if value.IsNull() {
		return nil, nil
	}
	if !value.IsWhollyKnown() {
		return nil, errors.New("value is not known")
	}
	raw, err := ctyjson.Marshal(value, value.Type())
	if err != nil {
		return nil, err
	}
	return decodeJSONValue(raw)
}

// decodeJSONValue 解析单个完整的 JSON 值，数字按整数优先归一化。
func decodeJSONValue(raw []byte) (any, error) {
	if !json.Valid(raw) {
		return nil, errors.New("invalid json value")
	}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}
	return normalize(value), nil
}

func normalizeMap(values map[string]any) map[string]any {
	if values == nil {
		return nil
	}
	normalized := make(map[string]any, len(values))
	for key, value := range values {
		normalized[key] = normalize(value)
	}
	return normalized
}

// normalize 统一不同解码器产生的数字类型：整数为 int，其余为 float64。
func normalize(value any) any {
	switch typed := value.(type) {
	case json.Number:
		if n, err := typed.Int64(); err == nil && n >= math.MinInt && n <= math.MaxInt {
			return int(n)
		}
		if f, err := typed.Float64(); err == nil {
			return f
		}
		return typed.String()
	case int64:
		if typed >= math.MinInt && typed <= math.MaxInt {
			return int(typed)
		}
		return typed
	case map[string]any:
		return normalizeMap(typed)
	case []any:
		items := make([]any, len(typed))
		for i, item := range typed {
			items[i] = normalize(item)
		}
		return items
	default:
		return value
	}
}

// ParseOverrides 把 key=value 形式的命令行参数转换成覆盖选项。
// value 能按 JSON 解析时取解析结果（3、true、["a","b"]），否则按字符串处理；
// 只有 key 时视为 true。
func ParseOverrides(pairs []string) (map[string]any, error) {
	overrides := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, found := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("invalid option %q: expected key=value", pair)
		}
		if !found {
			overrides[key] = true
			continue
		}
		overrides[key] = parseScalar(raw)
	}
	return overrides, nil
}

func parseScalar(raw string) any {
	value, err := decodeJSONValue([]byte(raw))
	if err != nil {
		return raw
	}
	return value
}

func sortedStrings(values []string) []string {
	sort.Strings(values)
	return values
}
