package gazetteer

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/address-resolver/internal/normalizer"
)

// Patterns dữ liệu matching tính sẵn cho một entity
type Patterns struct {
	// Abbreviations viết tắt/chữ cái đầu, không dấu
	Abbreviations []string
	// Names các biến thể tên có dấu, lowercase
	Names []string
	// Names2 các biến thể tên không dấu
	Names2 []string
	// Designators danh xưng hành chính, từ cụ thể nhất đến ít cụ thể nhất
	Designators []string
	// BareName tên không dấu đã bỏ danh xưng
	BareName string
	// Pattern khớp tên (có thể kèm danh xưng phía trước) ở cuối chuỗi không dấu.
	// Group 1 là phần được khớp. nil nếu entity không thể khớp.
	Pattern *regexp.Regexp
	// Fuzzy khớp token cuối chuỗi dài tối đa len(BareName)+2.
	// Group 1 là phần được khớp, group 2 là token tên.
	Fuzzy *regexp.Regexp
}

// Patterns trả về bundle matching của entity, tính một lần và dùng lại
func (e *Entity) Patterns() *Patterns {
	e.patternsOnce.Do(func() {
		e.patterns = buildPatterns(e)
	})
	return e.patterns
}

func buildPatterns(e *Entity) *Patterns {
	p := &Patterns{Designators: Designators(e.typ)}
	if e.IsRoot() {
		return p
	}

	bare := bareName(e.name, p.Designators)
	variants := append([]string{e.name, bare}, e.aliases...)
	for _, v := range variants {
		n := normalizer.NormalizeText(v)
		if n == "" {
			continue
		}
		p.Names = appendUnique(p.Names, n)
		p.Names2 = appendUnique(p.Names2, normalizer.Fold(n))
	}

	p.BareName = normalizer.Fold(normalizer.NormalizeText(bare))
	if words := strings.Fields(p.BareName); len(words) > 1 {
		p.Names2 = appendUnique(p.Names2, strings.Join(words, ""))
	}
	if isNumeric(p.BareName) {
		if trimmed := strings.TrimLeft(p.BareName, "0"); trimmed != "" {
			p.Names2 = appendUnique(p.Names2, trimmed)
		}
	}

	for _, a := range e.abbreviations {
		if f := normalizer.Fold(normalizer.NormalizeText(a)); f != "" {
			p.Abbreviations = appendUnique(p.Abbreviations, f)
		}
	}
	if e.level == 1 {
		if ini := initials(p.BareName); len(ini) > 1 {
			p.Abbreviations = appendUnique(p.Abbreviations, ini)
		}
	}

	p.Pattern = compileNamePattern(p)
	p.Fuzzy = compileFuzzyPattern(p)
	return p
}

// compileNamePattern tên số ("Quận 1") bắt buộc có danh xưng phía trước,
// chấp nhận số 0 đứng đầu ("Q.01")
func compileNamePattern(p *Patterns) *regexp.Regexp {
	var free, bound []string
	for _, n := range append(append([]string{}, p.Names2...), p.Abbreviations...) {
		if isNumeric(n) {
			bound = append(bound, n)
		} else {
			free = append(free, n)
		}
	}

	designator := alternation(p.Designators)
	var alts []string
	if len(free) > 0 {
		expr := alternation(free)
		if designator != "" {
			expr = `(?:` + designator + `[ .:]*)?` + expr
		}
		alts = append(alts, expr)
	}
	if len(bound) > 0 && designator != "" {
		alts = append(alts, designator+`[ .:]*0*`+alternation(bound))
	}
	if len(alts) == 0 {
		return nil
	}

	re, err := regexp.Compile(`(?:^|[^\pL\pN])(` + strings.Join(alts, "|") + `)$`)
	if err != nil {
		return nil
	}
	return re
}

func compileFuzzyPattern(p *Patterns) *regexp.Regexp {
	if p.BareName == "" {
		return nil
	}
	limit := utf8.RuneCountInString(p.BareName) + 2

	prefix := ""
	if designator := alternation(p.Designators); designator != "" {
		prefix = `(?:` + designator + `[ .:])?`
	}
	re, err := regexp.Compile(`(?:^|[^a-z])(` + prefix + `([-a-z' ]{1,` + strconv.Itoa(limit) + `}))$`)
	if err != nil {
		return nil
	}
	return re
}

// alternation ghép các chuỗi thành nhóm (?:a|b), chuỗi dài đứng trước
func alternation(items []string) string {
	if len(items) == 0 {
		return ""
	}
	sorted := append([]string{}, items...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i]) > len(sorted[j])
	})
	quoted := make([]string, 0, len(sorted))
	for _, s := range sorted {
		if s != "" {
			quoted = append(quoted, regexp.QuoteMeta(s))
		}
	}
	if len(quoted) == 0 {
		return ""
	}
	return `(?:` + strings.Join(quoted, "|") + `)`
}

func initials(folded string) string {
	words := strings.Fields(folded)
	if len(words) < 2 {
		return ""
	}
	var b strings.Builder
	for _, w := range words {
		c := w[0]
		if c < 'a' || c > 'z' {
			return ""
		}
		b.WriteByte(c)
	}
	return b.String()
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
