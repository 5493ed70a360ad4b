package parser

import (
	"regexp"

	"github.com/address-resolver/internal/gazetteer"
	"github.com/address-resolver/internal/normalizer"
)

var (
	// chuỗi số dài (mã bưu chính, số điện thoại) không bao giờ là tên đơn vị
	reDigitRuns = regexp.MustCompile(`\d{4,}`)

	// mỗi biến thể bỏ một đoạn nhiễu ở cuối địa chỉ: "(cũ)", "/...", "-..."
	denoisers = []*regexp.Regexp{
		regexp.MustCompile(`\([^)]+\)$`),
		regexp.MustCompile(`/[^/]+$`),
		regexp.MustCompile(`-[^-]+$`),
	}
)

// AddressParser resolve địa chỉ tự do thành chuỗi đơn vị hành chính.
// An toàn khi dùng đồng thời: cây là bất biến, trạng thái resolve nằm trong từng lần gọi.
type AddressParser struct {
	tree   *gazetteer.Tree
	tracer Tracer
}

// Option cấu hình AddressParser
type Option func(*AddressParser)

// WithTracer gắn tracer nhận sự kiện resolve
func WithTracer(t Tracer) Option {
	return func(ap *AddressParser) {
		if t != nil {
			ap.tracer = t
		}
	}
}

// NewAddressParser tạo mới AddressParser trên cây hành chính
func NewAddressParser(tree *gazetteer.Tree, opts ...Option) *AddressParser {
	ap := &AddressParser{tree: tree, tracer: NopTracer{}}
	for _, opt := range opts {
		opt(ap)
	}
	return ap
}

// Tree cây hành chính đang dùng
func (ap *AddressParser) Tree() *gazetteer.Tree { return ap.tree }

// Parse trả về các cấp hành chính từ cụ thể nhất lên cấp 1, rỗng nếu không resolve được
func (ap *AddressParser) Parse(address string) []Result {
	return ap.ParseMatches(address).Results()
}

// ParseMatches trả về giả thuyết tốt nhất, nil nếu không resolve được
func (ap *AddressParser) ParseMatches(address string) *Matches {
	return ap.parse(address, ap.tracer)
}

// ParseWithTracer như ParseMatches nhưng dùng tracer riêng cho lần gọi này
func (ap *AddressParser) ParseWithTracer(address string, tracer Tracer) *Matches {
	if tracer == nil {
		tracer = ap.tracer
	}
	return ap.parse(address, tracer)
}

func (ap *AddressParser) parse(address string, tracer Tracer) *Matches {
	address = normalizer.CollapseSpaces(reDigitRuns.ReplaceAllString(address, ""))

	rc := &resolution{tracer: tracer}
	nada := newMatches(address)
	top := rc.newMatcher(address, nada)
	entities := ap.tree.Root().Children()

	top.Update(rc.resolve(top.id, address, entities, nada))
	for _, re := range denoisers {
		variant := re.ReplaceAllString(address, "")
		if variant == address {
			continue
		}
		top.Update(rc.resolve(top.id, variant, entities, nada))
	}
	return top.Best()
}

// resolution trạng thái của một lần Parse
type resolution struct {
	tracer Tracer
	nextID int
}

func (rc *resolution) newMatcher(address string, previous *Matches) *LevelMatcher {
	rc.nextID++
	return NewLevelMatcher(rc.nextID, address, previous)
}

func (rc *resolution) resolve(from int, address string, entities []*gazetteer.Entity, previous *Matches) *Matches {
	return rc.resolveWith(from, rc.newMatcher(address, previous), entities, previous)
}

// resolveWith thử từng entity ở cấp hiện tại, đệ quy xuống con và thử bỏ qua một cấp.
// Trả về kết quả tốt nhất của matcher, hoặc previous nếu không có gì tốt hơn.
func (rc *resolution) resolveWith(from int, lm *LevelMatcher, entities []*gazetteer.Entity, previous *Matches) *Matches {
	before := lm.Best()

	for _, e := range entities {
		current := lm.Try(e)
		if current == nil {
			continue
		}
		rc.tracer.Matched(from, lm.id, e, current)

		resolved := current
		if e.HasChildren() {
			resolved = rc.resolve(lm.id, current.address, e.Children(), current)
		}

		// tên cấp 1 lặp lại ("Hà Nội, TP Hà Nội"): bỏ bản lặp rồi resolve tiếp
		if resolved == current && e.Level() == 1 && e.HasChildren() {
			dedup := rc.newMatcher(current.address, current)
			if again := dedup.Try(e); again != nil {
				resolved = rc.resolve(dedup.id, again.address, e.Children(), current)
			}
		}

		lm.Update(resolved)
	}

	lm.Update(rc.skipOneLevel(lm.id, lm.address, entities, previous))

	best := lm.Best()
	if best == nil {
		if before != nil {
			return before
		}
		return previous
	}
	if best != before {
		rc.tracer.BestChanged(from, lm.id, best)
	}
	return best
}

// skipOneLevel thử các con của entities khi địa chỉ bỏ sót cấp hiện tại
func (rc *resolution) skipOneLevel(from int, address string, entities []*gazetteer.Entity, previous *Matches) *Matches {
	lm := rc.newMatcher(address, previous)
	level := -1
	if previous.entity != nil {
		level = previous.entity.Level()
	}

	for _, e := range entities {
		if e.Level() > level+2 || !e.HasChildren() {
			continue
		}
		rc.resolveWith(from, lm, e.Children(), previous)
	}

	best := lm.Best()
	if best == nil {
		return previous
	}
	rc.tracer.SkipBestChanged(from, lm.id, best)
	return best
}
