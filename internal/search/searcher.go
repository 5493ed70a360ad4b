// Package search tìm kiếm đơn vị hành chính theo tên, dùng cho tra cứu gazetteer.
package search

import (
	"context"
	"errors"
)

// ErrEmptyQuery query rỗng
var ErrEmptyQuery = errors.New("query không được để trống")

// DefaultLimit số kết quả mặc định
const DefaultLimit = 10

// Query điều kiện tìm kiếm
type Query struct {
	Text     string `json:"q" form:"q"`
	Level    int    `json:"level,omitempty" form:"level"`         // 0 = mọi cấp
	ParentID string `json:"parent_id,omitempty" form:"parent_id"` // rỗng = mọi đơn vị cha
	Limit    int    `json:"limit,omitempty" form:"limit"`
}

func (q Query) limit() int {
	if q.Limit <= 0 {
		return DefaultLimit
	}
	return q.Limit
}

// Hit một đơn vị hành chính tìm được
type Hit struct {
	AdminID  string   `json:"admin_id"`
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Level    int      `json:"level"`
	ParentID string   `json:"parent_id,omitempty"`
	Path     []string `json:"path,omitempty"`
	Score    float64  `json:"score"`
}

// Searcher tìm kiếm đơn vị hành chính
type Searcher interface {
	Name() string
	Search(ctx context.Context, q Query) ([]Hit, error)
}
