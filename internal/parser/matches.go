package parser

import (
	"github.com/address-resolver/internal/gazetteer"
)

// Segment một đoạn địa chỉ đã khớp: văn bản gốc và tên chuẩn tương ứng
type Segment struct {
	Matched   string `json:"matched"`
	Canonical string `json:"canonical"`
}

// Result một cấp hành chính trong kết quả parse
type Result struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Matches một giả thuyết: phần đầu địa chỉ còn lại, entity cuối cùng đã khớp
// và lịch sử điểm. Không bao giờ bị sửa sau khi tạo, mỗi lần khớp tạo bản mới.
type Matches struct {
	address  string
	entity   *gazetteer.Entity
	segments []Segment
	scores   []float64
}

// Description thông tin debug của một Matches
type Description struct {
	Entity    string    `json:"entity"`
	Score     float64   `json:"score"`
	Scores    []float64 `json:"scores"`
	Remaining string    `json:"remaining"`
	Segments  []Segment `json:"segments"`
}

func newMatches(address string) *Matches {
	return &Matches{address: address}
}

// extend tạo Matches mới với thêm một segment và nhóm điểm tương ứng
func (m *Matches) extend(address string, e *gazetteer.Entity, seg Segment, scores ...float64) *Matches {
	segments := make([]Segment, len(m.segments), len(m.segments)+1)
	copy(segments, m.segments)

	all := make([]float64, len(m.scores), len(m.scores)+len(scores))
	copy(all, m.scores)

	return &Matches{
		address:  address,
		entity:   e,
		segments: append(segments, seg),
		scores:   append(all, scores...),
	}
}

// Address phần địa chỉ chưa được khớp
func (m *Matches) Address() string { return m.address }

// Entity entity cuối cùng đã khớp, nil nếu chưa khớp gì
func (m *Matches) Entity() *gazetteer.Entity { return m.entity }

// Segments bản sao danh sách đoạn đã khớp
func (m *Matches) Segments() []Segment { return append([]Segment(nil), m.segments...) }

// Scores bản sao danh sách điểm thành phần
func (m *Matches) Scores() []float64 { return append([]float64(nil), m.scores...) }

// Score tổng điểm, chỉ dùng để xếp hạng
func (m *Matches) Score() float64 {
	total := 0.0
	for _, s := range m.scores {
		total += s
	}
	return total
}

// Results trả về các cấp hành chính từ cụ thể nhất lên cấp 1
func (m *Matches) Results() []Result {
	results := []Result{}
	if m == nil || m.entity == nil {
		return results
	}
	for e := m.entity; e != nil && !e.IsRoot(); e = e.Parent() {
		results = append(results, Result{ID: e.ID(), Name: e.Name(), Type: e.Type()})
	}
	return results
}

// Describe trả về thông tin debug: entity, điểm thành phần và cách tách địa chỉ
func (m *Matches) Describe() Description {
	return Description{
		Entity:    m.entity.String(),
		Score:     m.Score(),
		Scores:    m.Scores(),
		Remaining: m.address,
		Segments:  m.Segments(),
	}
}
