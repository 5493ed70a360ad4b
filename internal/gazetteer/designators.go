package gazetteer

import (
	_ "embed"
	"strings"
	"sync"

	"github.com/address-resolver/internal/normalizer"
	"gopkg.in/yaml.v3"
)

//go:embed designators.yaml
var designatorsYAML []byte

// TypeRule danh xưng và subtype của một loại đơn vị hành chính
type TypeRule struct {
	Type        string   `yaml:"type"`
	Subtype     string   `yaml:"subtype"`
	Designators []string `yaml:"designators"`
}

type typeTable struct {
	Types []TypeRule `yaml:"types"`
}

var (
	typeRulesOnce sync.Once
	typeRules     map[string]TypeRule
	typeRulesErr  error
)

// LoadTypeRules load bảng danh xưng từ YAML nhúng, key là tên loại đã fold
func LoadTypeRules() (map[string]TypeRule, error) {
	typeRulesOnce.Do(func() {
		var table typeTable
		if err := yaml.Unmarshal(designatorsYAML, &table); err != nil {
			typeRulesErr = err
			return
		}
		typeRules = make(map[string]TypeRule, len(table.Types))
		for _, rule := range table.Types {
			typeRules[normalizer.Fold(rule.Type)] = rule
		}
	})
	return typeRules, typeRulesErr
}

// Designators trả về danh xưng của loại đơn vị, từ cụ thể nhất đến ít cụ thể nhất.
// Loại không có trong bảng dùng chính tên loại đã fold.
func Designators(typ string) []string {
	key := normalizer.Fold(normalizer.CollapseSpaces(typ))
	if rules, err := LoadTypeRules(); err == nil {
		if rule, ok := rules[key]; ok {
			return rule.Designators
		}
	}
	if key == "" {
		return nil
	}
	return []string{key}
}

// Subtype trả về admin_subtype tương ứng với loại đơn vị
func Subtype(typ string) string {
	rules, err := LoadTypeRules()
	if err != nil {
		return ""
	}
	return rules[normalizer.Fold(normalizer.CollapseSpaces(typ))].Subtype
}

// bareName bỏ danh xưng ở đầu tên ("Quận Ba Đình" -> "Ba Đình")
func bareName(name string, designators []string) string {
	words := strings.Fields(name)
	for _, d := range designators {
		dw := strings.Fields(d)
		if len(dw) == 0 || len(words) <= len(dw) {
			continue
		}
		if normalizer.Fold(strings.Join(words[:len(dw)], " ")) == d {
			return strings.Join(words[len(dw):], " ")
		}
	}
	return strings.Join(words, " ")
}
