//go:build libpostal

package external

import (
	"strings"

	"github.com/openvenues/gopostal/expand"
	"github.com/openvenues/gopostal/parser"
)

// Available libpostal đã được biên dịch kèm
func Available() bool { return true }

// Parse tách địa chỉ bằng libpostal (mở rộng viết tắt tiếng Việt trước khi parse)
func Parse(raw string) (Components, error) {
	opts := expand.DefaultOptions()
	opts.Languages = []string{"vi"}
	exps := expand.ExpandAddressOptions(raw, opts)
	best := raw
	if len(exps) > 0 {
		best = exps[0]
	}

	comps := parser.ParseAddress(best)
	covered, total := 0, len(strings.Fields(best))
	var c Components
	for _, comp := range comps {
		switch comp.Label {
		case "house_number":
			c.House = comp.Value
		case "road":
			c.Road = comp.Value
		case "unit":
			c.Unit = comp.Value
		case "level":
			c.Level = comp.Value
		case "suburb":
			c.Ward = comp.Value
		case "city_district", "city":
			if c.City == "" {
				c.City = comp.Value
			}
		case "state":
			c.Province = comp.Value
		}
		covered += len(strings.Fields(comp.Value))
	}
	if total > 0 {
		c.Coverage = float64(covered) / float64(total)
	}
	return c, nil
}
