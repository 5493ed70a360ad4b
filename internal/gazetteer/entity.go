package gazetteer

import (
	"fmt"
	"strings"
	"sync"
)

// Status trạng thái hiệu lực của đơn vị hành chính
type Status int

const (
	StatusActive Status = iota
	StatusDeleted
	StatusMoved
)

// Root sentinel của cây
const (
	RootID   = "root"
	RootName = "Nước Việt Nam"
	RootType = "Quốc gia"
)

// MaxDepth số cấp tối đa dưới root (tỉnh, huyện, xã, và một cấp dự phòng)
const MaxDepth = 4

// String trả về tên trạng thái như trong dataset
func (s Status) String() string {
	switch s {
	case StatusDeleted:
		return "deleted"
	case StatusMoved:
		return "moved"
	default:
		return "active"
	}
}

// ParseStatus parse trạng thái từ dataset, chuỗi rỗng là active
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "active":
		return StatusActive, nil
	case "deleted":
		return StatusDeleted, nil
	case "moved":
		return StatusMoved, nil
	}
	return StatusActive, fmt.Errorf("trạng thái không hợp lệ: %q", s)
}

// Entity một node của cây hành chính. Bất biến sau khi Build.
type Entity struct {
	id            string
	name          string
	typ           string
	level         int
	status        Status
	redirectID    string
	aliases       []string
	abbreviations []string

	tree     *Tree
	index    int
	parent   int
	children []*Entity

	patternsOnce sync.Once
	patterns     *Patterns
}

func (e *Entity) ID() string              { return e.id }
func (e *Entity) Name() string            { return e.name }
func (e *Entity) Type() string            { return e.typ }
func (e *Entity) Level() int              { return e.level }
func (e *Entity) Status() Status          { return e.status }
func (e *Entity) RedirectID() string      { return e.redirectID }
func (e *Entity) Aliases() []string       { return e.aliases }
func (e *Entity) Abbreviations() []string { return e.abbreviations }
func (e *Entity) Tree() *Tree             { return e.tree }

// IsRoot kiểm tra entity có phải root sentinel không
func (e *Entity) IsRoot() bool { return e.index == 0 }

// IsStale kiểm tra entity đã bị xóa hoặc chuyển đi
func (e *Entity) IsStale() bool { return e.status != StatusActive }

// Parent trả về entity cha, nil với root
func (e *Entity) Parent() *Entity {
	if e.IsRoot() {
		return nil
	}
	return e.tree.nodes[e.parent]
}

// Children trả về danh sách con theo thứ tự dataset. Không được sửa slice trả về.
func (e *Entity) Children() []*Entity { return e.children }

// HasChildren kiểm tra entity có con không
func (e *Entity) HasChildren() bool { return len(e.children) > 0 }

// Current trả về entity hiện hành thay cho entity đã bị xóa/chuyển
func (e *Entity) Current() *Entity { return e.tree.Current(e) }

// Path trả về chuỗi entity từ e lên tới cấp 1 (không gồm root)
func (e *Entity) Path() []*Entity {
	var path []*Entity
	for cur := e; cur != nil && !cur.IsRoot(); cur = cur.Parent() {
		path = append(path, cur)
	}
	return path
}

// String mô tả ngắn gọn entity, dùng cho log và debug
func (e *Entity) String() string {
	if e == nil {
		return "<nil>"
	}
	s := fmt.Sprintf("%s#%s (%s, level %d)", e.name, e.id, e.typ, e.level)
	if e.status != StatusActive {
		s += " [" + e.status.String() + "]"
	}
	return s
}

// Tree cây đơn vị hành chính, lưu theo arena với tham chiếu bằng index
type Tree struct {
	nodes   []*Entity
	byID    map[string]int
	version string
}

// Root trả về root sentinel
func (t *Tree) Root() *Entity { return t.nodes[0] }

// Len số entity không tính root
func (t *Tree) Len() int { return len(t.nodes) - 1 }

// Version fingerprint của dữ liệu nguồn
func (t *Tree) Version() string { return t.version }

// Lookup tìm entity hiện hành theo id
func (t *Tree) Lookup(id string) (*Entity, bool) {
	idx, ok := t.byID[id]
	if !ok {
		return nil, false
	}
	return t.Current(t.nodes[idx]), true
}

// Current chuyển entity đã bị xóa/chuyển sang entity đang hiệu lực
// (theo redirect_id, nếu không có thì theo chính id của nó).
// Trả về e nếu không có entity thay thế.
func (t *Tree) Current(e *Entity) *Entity {
	if e == nil || e.status == StatusActive {
		return e
	}
	target := e.redirectID
	if target == "" {
		target = e.id
	}
	if idx, ok := t.byID[target]; ok && t.nodes[idx].status == StatusActive {
		return t.nodes[idx]
	}
	return e
}

// Walk duyệt tất cả entity (trừ root) theo thứ tự tiền tự, dừng khi fn trả về false
func (t *Tree) Walk(fn func(e *Entity) bool) {
	for _, e := range t.nodes[1:] {
		if !fn(e) {
			return
		}
	}
}

// CountByLevel đếm số entity theo cấp
func (t *Tree) CountByLevel() map[int]int {
	counts := make(map[int]int)
	t.Walk(func(e *Entity) bool {
		counts[e.level]++
		return true
	})
	return counts
}
