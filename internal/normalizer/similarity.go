package normalizer

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Similarity trả về độ giống nhau (0-100) giữa hai chuỗi,
// không phân biệt hoa thường và dấu.
func Similarity(a, b string) float64 {
	fa, fb := Fold(a), Fold(b)
	if fa == fb {
		return 100
	}

	maxLen := utf8.RuneCountInString(fa)
	if l := utf8.RuneCountInString(fb); l > maxLen {
		maxLen = l
	}

	distance := levenshtein.ComputeDistance(fa, fb)
	return (1 - float64(distance)/float64(maxLen)) * 100
}
