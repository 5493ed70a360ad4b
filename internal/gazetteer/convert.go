package gazetteer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/address-resolver/internal/normalizer"
	"gopkg.in/yaml.v3"
)

// FlatID id dạng số hoặc chuỗi trong dữ liệu phẳng
type FlatID string

func (id *FlatID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = FlatID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = FlatID(n.String())
	return nil
}

// FlatUnit một dòng dữ liệu phẳng: mỗi đơn vị trỏ tới cha qua parent_id
type FlatUnit struct {
	ID        FlatID `json:"id"`
	ParentID  FlatID `json:"parent_id"`
	UnitLevel int    `json:"unit_level"`
	Name      string `json:"name"`
	Type      string `json:"type,omitempty"`
	KeyWord   string `json:"key_word,omitempty"`
	Status    string `json:"status,omitempty"`
}

// ConvertResult kết quả chuyển đổi dữ liệu phẳng
type ConvertResult struct {
	Dataset Dataset     `json:"-"`
	Total   int         `json:"total"`
	ByLevel map[int]int `json:"by_level"`
	Skipped []FlatID    `json:"skipped,omitempty"`
}

// ReadFlatUnits đọc mảng JSON các FlatUnit
func ReadFlatUnits(r io.Reader) ([]FlatUnit, error) {
	var units []FlatUnit
	if err := json.NewDecoder(r).Decode(&units); err != nil {
		return nil, fmt.Errorf("lỗi đọc dữ liệu phẳng: %w", err)
	}
	return units, nil
}

// ConvertFlat dựng dataset phân cấp từ dữ liệu phẳng.
// Đơn vị có cha không tồn tại (hoặc sai cấp) bị bỏ qua cùng các con của nó và ghi vào Skipped.
// Thứ tự con giữ theo input.
func ConvertFlat(units []FlatUnit, version string) (ConvertResult, error) {
	type slot struct {
		node     Node
		level    int
		parentID FlatID
		children []FlatID
	}

	nodes := make(map[FlatID]*slot, len(units))
	var order []FlatID
	for _, u := range units {
		if u.ID == "" {
			return ConvertResult{}, ErrEmptyID
		}
		if u.UnitLevel < 1 || u.UnitLevel > MaxDepth {
			return ConvertResult{}, fmt.Errorf("%w: %s cấp %d", ErrTooDeep, u.ID, u.UnitLevel)
		}
		if _, dup := nodes[u.ID]; dup {
			return ConvertResult{}, fmt.Errorf("%w: %s", ErrDuplicateID, u.ID)
		}

		name := normalizer.CollapseSpaces(u.Name)
		typ := u.Type
		if typ == "" {
			typ = DetectType(name, u.UnitLevel)
		}
		n := Node{ID: string(u.ID), Name: name, Type: typ}
		if strings.EqualFold(u.Status, StatusDeleted.String()) {
			n.Status = StatusDeleted.String()
		}
		if kw := normalizer.CollapseSpaces(u.KeyWord); kw != "" && normalizer.Fold(kw) != normalizer.Fold(name) {
			n.Aliases = []string{kw}
		}

		nodes[u.ID] = &slot{node: n, level: u.UnitLevel, parentID: u.ParentID}
		order = append(order, u.ID)
	}

	result := ConvertResult{ByLevel: make(map[int]int)}
	var roots []FlatID
	for _, id := range order {
		s := nodes[id]
		if s.level == 1 {
			roots = append(roots, id)
			continue
		}
		parent, ok := nodes[s.parentID]
		if !ok || parent.level != s.level-1 {
			result.Skipped = append(result.Skipped, id)
			continue
		}
		parent.children = append(parent.children, id)
	}

	var assemble func(id FlatID) Node
	assemble = func(id FlatID) Node {
		s := nodes[id]
		result.Total++
		result.ByLevel[s.level]++
		n := s.node
		for _, c := range s.children {
			n.Children = append(n.Children, assemble(c))
		}
		return n
	}

	ds := Dataset{Version: version}
	for _, id := range roots {
		ds.Entities = append(ds.Entities, assemble(id))
	}
	result.Dataset = ds
	return result, nil
}

// DetectType đoán loại đơn vị từ danh xưng đầu tên
func DetectType(name string, level int) string {
	folded := normalizer.Fold(name)
	has := func(prefix string) bool { return strings.HasPrefix(folded, prefix+" ") }

	switch level {
	case 1:
		if has("thanh pho") {
			return "Thành phố Trung ương"
		}
		return "Tỉnh"
	case 2:
		switch {
		case has("quan"):
			return "Quận"
		case has("thi xa"):
			return "Thị xã"
		case has("thanh pho"):
			return "Thành phố"
		}
		return "Huyện"
	default:
		switch {
		case has("phuong"):
			return "Phường"
		case has("thi tran"):
			return "Thị trấn"
		}
		return "Xã"
	}
}

// WriteDataset ghi dataset ra JSON hoặc YAML theo ext, cùng format mà ParseDataset đọc được
func WriteDataset(w io.Writer, ds Dataset, ext string) error {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(ds); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(ds)
	}
}
