package normalizer

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var reSpaces = regexp.MustCompile(`\s+`)

// dReplacer xử lý chữ đ, NFD không tách được dấu của ký tự này
var dReplacer = strings.NewReplacer("đ", "d", "Đ", "D")

// StripDiacritics loại bỏ dấu tiếng Việt một cách an toàn
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn), norm.NFC)
	out, _, _ := transform.String(t, dReplacer.Replace(s))
	return out
}

// isMn kiểm tra xem rune có phải là diacritic mark không
func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}

// Fold chuyển về lowercase và bỏ dấu.
// Độ dài byte của kết quả có thể ngắn hơn chuỗi gốc.
func Fold(s string) string {
	return StripDiacritics(strings.ToLower(s))
}

// NormalizeText chuẩn hóa NFC, lowercase và gộp khoảng trắng, giữ nguyên dấu
func NormalizeText(s string) string {
	s = strings.ToLower(norm.NFC.String(s))
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}

// CollapseSpaces gộp các khoảng trắng liên tiếp thành một
func CollapseSpaces(s string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}

// ASCIIKey trả về khóa ASCII (unidecode + lowercase + gọn khoảng trắng)
func ASCIIKey(s string) string {
	return CollapseSpaces(strings.ToLower(unidecode.Unidecode(s)))
}
