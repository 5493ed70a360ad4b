package search

import (
	"fmt"
	"strings"
)

// BuildFilter tạo filter Meilisearch theo cấp và đơn vị cha, rỗng nếu không lọc
func BuildFilter(level int, parentID string) string {
	var parts []string
	if level > 0 {
		parts = append(parts, fmt.Sprintf("level = %d", level))
	}
	if parentID != "" {
		parts = append(parts, fmt.Sprintf("parent_id = %q", parentID))
	}
	parts = append(parts, "status = \"active\"")
	return strings.Join(parts, " AND ")
}
