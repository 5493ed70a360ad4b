package gazetteer

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrEmptyID     = errors.New("entity thiếu id")
	ErrTooDeep     = errors.New("cây vượt quá số cấp cho phép")
	ErrDuplicateID = errors.New("trùng id giữa hai entity đang hiệu lực")
)

// Node một đơn vị hành chính trong file dataset
type Node struct {
	ID            string   `json:"id" yaml:"id"`
	Name          string   `json:"name" yaml:"name"`
	Type          string   `json:"type" yaml:"type"`
	Status        string   `json:"status,omitempty" yaml:"status,omitempty"`
	RedirectID    string   `json:"redirect_id,omitempty" yaml:"redirect_id,omitempty"`
	Aliases       []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Abbreviations []string `json:"abbreviations,omitempty" yaml:"abbreviations,omitempty"`
	Children      []Node   `json:"children,omitempty" yaml:"children,omitempty"`
}

// Dataset nội dung file gazetteer
type Dataset struct {
	Version  string `json:"version,omitempty" yaml:"version,omitempty"`
	Entities []Node `json:"entities" yaml:"entities"`
}

// LoadDataset đọc dataset JSON hoặc YAML (theo đuôi file)
func LoadDataset(path string) (Dataset, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("lỗi đọc gazetteer %s: %w", path, err)
	}
	ds, err := ParseDataset(b, filepath.Ext(path))
	if err != nil {
		return Dataset{}, fmt.Errorf("lỗi parse gazetteer %s: %w", path, err)
	}
	return ds, nil
}

// LoadFile đọc dataset JSON hoặc YAML (theo đuôi file) và build cây
func LoadFile(path string) (*Tree, error) {
	ds, err := LoadDataset(path)
	if err != nil {
		return nil, err
	}
	return Build(ds)
}

// WithAliases trả về bản sao dataset có thêm alias theo id entity.
// Version (nếu có) được gắn thêm hash của các alias để cache cũ bị invalidate.
func (ds Dataset) WithAliases(extra map[string][]string) Dataset {
	if len(extra) == 0 {
		return ds
	}

	var walk func(nodes []Node) []Node
	walk = func(nodes []Node) []Node {
		out := make([]Node, len(nodes))
		for i, n := range nodes {
			if add, ok := extra[n.ID]; ok {
				aliases := append([]string{}, n.Aliases...)
				for _, a := range add {
					if a = strings.TrimSpace(a); a != "" && !containsFold(aliases, a) && !strings.EqualFold(a, n.Name) {
						aliases = append(aliases, a)
					}
				}
				n.Aliases = aliases
			}
			n.Children = walk(n.Children)
			out[i] = n
		}
		return out
	}

	merged := Dataset{Version: ds.Version, Entities: walk(ds.Entities)}
	if merged.Version != "" {
		ids := make([]string, 0, len(extra))
		for id := range extra {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		h := sha256.New()
		for _, id := range ids {
			h.Write([]byte(id))
			for _, a := range extra[id] {
				h.Write([]byte{0})
				h.Write([]byte(a))
			}
			h.Write([]byte{'\n'})
		}
		merged.Version += "+" + hex.EncodeToString(h.Sum(nil)[:4])
	}
	return merged
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// ParseDataset parse dataset từ bytes, ext là ".json", ".yaml" hoặc ".yml"
func ParseDataset(b []byte, ext string) (Dataset, error) {
	var ds Dataset
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &ds); err != nil {
			return ds, err
		}
	default:
		if err := json.Unmarshal(b, &ds); err != nil {
			return ds, err
		}
	}
	return ds, nil
}

// Build dựng cây bất biến từ dataset.
// Version rỗng thì dùng SHA-256 của nội dung dataset.
func Build(ds Dataset) (*Tree, error) {
	t := &Tree{
		byID:    make(map[string]int),
		version: ds.Version,
	}
	root := &Entity{
		id:     RootID,
		name:   RootName,
		typ:    RootType,
		tree:   t,
		index:  0,
		parent: -1,
	}
	t.nodes = append(t.nodes, root)

	for i := range ds.Entities {
		child, err := t.add(&ds.Entities[i], root, 1)
		if err != nil {
			return nil, err
		}
		root.children = append(root.children, child)
	}

	if t.version == "" {
		b, err := json.Marshal(ds.Entities)
		if err != nil {
			return nil, fmt.Errorf("lỗi tính version gazetteer: %w", err)
		}
		sum := sha256.Sum256(b)
		t.version = hex.EncodeToString(sum[:8])
	}
	return t, nil
}

func (t *Tree) add(n *Node, parent *Entity, level int) (*Entity, error) {
	if level > MaxDepth {
		return nil, fmt.Errorf("%w: %s ở cấp %d", ErrTooDeep, n.ID, level)
	}
	id := strings.TrimSpace(n.ID)
	if id == "" {
		return nil, fmt.Errorf("%w (tên %q)", ErrEmptyID, n.Name)
	}
	status, err := ParseStatus(n.Status)
	if err != nil {
		return nil, fmt.Errorf("entity %s: %w", id, err)
	}

	e := &Entity{
		id:            id,
		name:          strings.TrimSpace(n.Name),
		typ:           strings.TrimSpace(n.Type),
		level:         level,
		status:        status,
		redirectID:    strings.TrimSpace(n.RedirectID),
		aliases:       n.Aliases,
		abbreviations: n.Abbreviations,
		tree:          t,
		index:         len(t.nodes),
		parent:        parent.index,
	}
	t.nodes = append(t.nodes, e)

	if prev, ok := t.byID[id]; ok {
		other := t.nodes[prev]
		switch {
		case other.status == StatusActive && status == StatusActive:
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, id)
		case status == StatusActive:
			t.byID[id] = e.index
		}
	} else {
		t.byID[id] = e.index
	}

	for i := range n.Children {
		child, err := t.add(&n.Children[i], e, level+1)
		if err != nil {
			return nil, err
		}
		e.children = append(e.children, child)
	}
	return e, nil
}
