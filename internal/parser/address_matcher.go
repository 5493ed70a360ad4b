package parser

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/address-resolver/internal/gazetteer"
	"github.com/address-resolver/internal/normalizer"
)

const (
	scorePerChar         = 10.0
	scoreDeltaType       = 9.0
	scoreDeltaSimilarity = -30.0
	scoreDeltaSkip       = -3.0
	scoreDeltaInitials   = -2.0
	scoreDeltaName2      = -1.0

	scoreConfidenceBase = 0.1
	scoreLive           = 0.9999
	scoreDeleted        = 0.0001

	fuzzyMinNameLength = 12
	fuzzyMinSimilarity = 80.0

	// scoreScale điểm được làm tròn tới 6 chữ số thập phân trước khi gom bucket
	scoreScale = 1e6
)

var reTrailingDelimiters = regexp.MustCompile(`[ _.,/–-]+$`)

type bucket struct {
	count int
	best  *Matches
}

// LevelMatcher đánh giá các entity cùng cấp với một đoạn cuối địa chỉ
// và gom các giả thuyết cạnh tranh theo điểm.
type LevelMatcher struct {
	id       int
	address  string
	folded   string
	previous *Matches
	buckets  map[int64]*bucket
}

// NewLevelMatcher tạo matcher cho address, previous là giả thuyết tốt nhất của cấp trên
func NewLevelMatcher(id int, address string, previous *Matches) *LevelMatcher {
	address = reTrailingDelimiters.ReplaceAllString(address, "")
	return &LevelMatcher{
		id:       id,
		address:  address,
		folded:   normalizer.Fold(address),
		previous: previous,
		buckets:  make(map[int64]*bucket),
	}
}

// ID định danh matcher, chỉ dùng cho trace
func (lm *LevelMatcher) ID() int { return lm.id }

// Address đoạn địa chỉ đang xét (đã cắt ký tự phân cách ở cuối)
func (lm *LevelMatcher) Address() string { return lm.address }

// Try thử khớp entity với phần cuối địa chỉ, nil nếu không khớp
func (lm *LevelMatcher) Try(e *gazetteer.Entity) *Matches {
	p := e.Patterns()
	if p == nil || p.Pattern == nil {
		return nil
	}

	loc := p.Pattern.FindStringSubmatchIndex(lm.folded)
	if loc == nil {
		return lm.tryFuzzy(e, p)
	}
	length := len(lm.folded) - loc[2]
	if length <= 0 {
		return nil
	}
	match := substrByFoldedLength(lm.address, length)
	match2 := lm.folded[len(lm.folded)-length:]

	if name := longestContained(p.Names, normalizer.NormalizeText(match)); name != "" {
		return lm.done(e, match, Segment{Matched: match, Canonical: name}, typeDelta(p, match2))
	}
	if name := longestContained(p.Names2, match2); name != "" {
		return lm.done(e, match, Segment{Matched: match, Canonical: name}, scoreDeltaName2+typeDelta(p, match2))
	}
	if e.Level() == 1 || lm.previous.entity != nil {
		if abbr := longestContained(p.Abbreviations, match2); abbr != "" {
			return lm.done(e, match, Segment{Matched: match, Canonical: abbr}, scoreDeltaInitials)
		}
	}
	return nil
}

// tryFuzzy chỉ áp dụng cho tên dài hoặc khi cấp cha trực tiếp đã khớp
func (lm *LevelMatcher) tryFuzzy(e *gazetteer.Entity, p *gazetteer.Patterns) *Matches {
	if p.Fuzzy == nil {
		return nil
	}
	pe := lm.previous.entity
	if utf8.RuneCountInString(p.BareName) <= fuzzyMinNameLength && (pe == nil || pe.Level() != e.Level()-1) {
		return nil
	}

	m := p.Fuzzy.FindStringSubmatch(lm.folded)
	if m == nil {
		return nil
	}
	matched := strings.TrimLeft(m[1], " ")
	similarity := normalizer.Similarity(strings.TrimSpace(m[2]), p.BareName)
	if similarity <= fuzzyMinSimilarity {
		return nil
	}

	consumed := substrByFoldedLength(lm.address, len(matched))
	return lm.done(e, consumed, Segment{Matched: consumed, Canonical: p.BareName}, scoreDeltaSimilarity+similarity/100)
}

// done tạo Matches mới từ previous với đúng năm điểm thành phần
func (lm *LevelMatcher) done(e *gazetteer.Entity, consumed string, seg Segment, delta float64) *Matches {
	address := lm.address[:len(lm.address)-len(consumed)]
	if e.IsStale() {
		e = e.Current()
	}

	liveness := scoreLive
	if e.Status() == gazetteer.StatusDeleted {
		liveness = scoreDeleted
	}
	skip := 0.0
	if !isChildOf(e, lm.previous.entity) {
		skip = scoreDeltaSkip * float64(e.Level())
	}

	return lm.previous.extend(address, e, seg,
		scoreConfidenceBase+normalizer.Similarity(consumed, e.Name())/10000,
		liveness,
		float64(utf8.RuneCountInString(consumed))*scorePerChar,
		delta,
		skip,
	)
}

// Update gom một giả thuyết vào bucket theo điểm đã làm tròn
func (lm *LevelMatcher) Update(m *Matches) {
	if m == nil {
		return
	}
	key := quantize(m.Score())
	b, ok := lm.buckets[key]
	if !ok {
		lm.buckets[key] = &bucket{count: 1, best: m}
		return
	}

	// dữ liệu nguồn có entity trùng tên cùng cha: giữ bản còn hiệu lực
	if b.best != nil && duplicates(b.best.entity, m.entity) {
		if b.best.entity.IsStale() {
			b.best = m
		}
		return
	}
	b.count++
	b.best = nil
}

// Best trả về giả thuyết điểm cao nhất. Bucket cao nhất bị tranh chấp thì
// ghi nhận điểm vào previous nếu previous đã có entity, ngược lại trả về nil.
func (lm *LevelMatcher) Best() *Matches {
	var (
		top    *bucket
		topKey int64
	)
	for key, b := range lm.buckets {
		if key > 0 && (top == nil || key > topKey) {
			top, topKey = b, key
		}
	}
	if top == nil {
		return nil
	}
	if top.count > 1 {
		prev := lm.previous
		if prev.entity == nil {
			return nil
		}
		return lm.done(prev.entity, "", Segment{}, float64(topKey)/scoreScale-prev.Score())
	}
	return top.best
}

func quantize(score float64) int64 {
	return int64(math.Round(score * scoreScale))
}

// typeDelta điểm tối đa khi danh xưng cụ thể nhất đứng trước tên,
// giảm tuyến tính theo các danh xưng kém cụ thể hơn, tối thiểu một nửa.
func typeDelta(p *gazetteer.Patterns, match2 string) float64 {
	score := scoreDeltaType
	if len(p.Designators) == 0 {
		return score / 2
	}
	step := scoreDeltaType / float64(len(p.Designators)) / 2
	for _, d := range p.Designators {
		if strings.HasPrefix(match2, d) && isNameVariant(p, strings.TrimLeft(match2[len(d):], " .:")) {
			return score
		}
		score -= step
	}
	return score
}

func isNameVariant(p *gazetteer.Patterns, s string) bool {
	if s == "" {
		return false
	}
	trimmed := strings.TrimLeft(s, "0")
	for _, n := range p.Names2 {
		if n == s || n == trimmed {
			return true
		}
	}
	return false
}

func isChildOf(e, parent *gazetteer.Entity) bool {
	p := e.Parent()
	if parent == nil {
		return p == nil || p.IsRoot()
	}
	return p == parent
}

func duplicates(a, b *gazetteer.Entity) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Parent() == b.Parent() && normalizer.Fold(a.Name()) == normalizer.Fold(b.Name())
}

// substrByFoldedLength trả về đoạn cuối của s có độ dài (sau khi bỏ dấu) đúng bằng length.
// Không tìm được thì trả về cả s.
func substrByFoldedLength(s string, length int) string {
	for i := len(s); i > 0; {
		_, size := utf8.DecodeLastRuneInString(s[:i])
		i -= size
		n := len(normalizer.Fold(s[i:]))
		if n == length {
			return s[i:]
		}
		if n > length {
			break
		}
	}
	return s
}

// longestContained tên dài nhất trong names xuất hiện trong text
func longestContained(names []string, text string) string {
	found := ""
	for _, n := range names {
		if len(n) > len(found) && strings.Contains(text, n) {
			found = n
		}
	}
	return found
}
