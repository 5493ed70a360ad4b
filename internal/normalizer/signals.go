package normalizer

import (
	"regexp"
	"strings"
	"unicode"
)

var rePhonesOrders = regexp.MustCompile(`(?i)(\+?84|0)\d{8,11}|[A-Z]{2}\d{6,}|CTN\w+`)
var reRoadCode = regexp.MustCompile(`\b(ql|dt|tl|hl|dh)\s*([0-9]{1,4}[a-z]?)\b`)
var reHouseNumber = regexp.MustCompile(`^(?:so\s+)?(\d{1,5}[a-z]?(?:/\d+[a-z]?)*)\b`)
var reUnit = regexp.MustCompile(`\b(can ho|apartment|unit|phong)\s*([a-z0-9][a-z0-9.\-]*)`)
var reLevel = regexp.MustCompile(`\b(tang|floor)\s*([0-9]{1,2})\b`)

// adminCuts các từ khóa hành chính, phần trước chúng được coi là số nhà + đường
var adminCuts = []string{
	" phuong ", " p.", " xa ", " thi tran ", " quan ", " q.", " huyen ",
	" thi xa ", " thanh pho ", " tp ", " tp.", " tinh ",
}

// Signals các thành phần dưới cấp phường trích ra từ địa chỉ thô
type Signals struct {
	House    string `json:"house,omitempty"`
	Unit     string `json:"unit,omitempty"`
	Level    string `json:"level,omitempty"`
	Road     string `json:"road,omitempty"`
	RoadType string `json:"road_type,omitempty"` // ql/dt/tl/hl/dh
	RoadCode string `json:"road_code,omitempty"` // 1a, 32...
	Residual string `json:"residual,omitempty"`
}

// IsEmpty kiểm tra không trích được thành phần nào
func (s Signals) IsEmpty() bool {
	return s.House == "" && s.Unit == "" && s.Level == "" && s.Road == "" && s.RoadCode == ""
}

// ExtractSignals trích số nhà, đường, căn hộ, tầng, mã đường từ địa chỉ thô.
// Kết quả ở dạng ASCII lowercase.
func ExtractSignals(raw string) Signals {
	// cắt nhiễu (điện thoại, mã đơn)
	cleaned := CollapseSpaces(rePhonesOrders.ReplaceAllString(raw, " "))
	s := ASCIIKey(cleaned)

	var sig Signals
	sig.Residual = cleaned

	if m := reRoadCode.FindStringSubmatch(s); len(m) == 3 {
		sig.RoadType, sig.RoadCode = m[1], m[2]
	}
	if m := reUnit.FindStringSubmatch(s); len(m) > 2 {
		sig.Unit = strings.TrimRight(m[2], ".-")
	}
	if m := reLevel.FindStringSubmatch(s); len(m) > 2 {
		sig.Level = m[2]
	}

	// ước lượng phần đường (cắt trước các từ khóa hành chính)
	street := " " + s
	for _, cut := range adminCuts {
		if i := strings.Index(street, cut); i >= 0 {
			street = street[:i]
		}
	}
	street = strings.TrimSpace(strings.Split(street, ",")[0])

	if m := reHouseNumber.FindStringSubmatch(street); len(m) > 1 {
		sig.House = m[1]
		street = strings.TrimSpace(street[len(m[0]):])
	}

	// lọc ký tự rác
	street = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' {
			return r
		}
		return -1
	}, street)
	street = CollapseSpaces(street)
	if street != "" && street != sig.Unit {
		sig.Road = street
	}

	return sig
}
