package gazetteer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDesignators(t *testing.T) {
	assert.Equal(t, []string{"quan", "q"}, Designators("Quận"))
	assert.Equal(t, []string{"thi tran", "tt"}, Designators("Thị trấn"))
	assert.Equal(t, "urban_district", Subtype("Quận"))

	// loại lạ dùng chính tên loại
	assert.Equal(t, []string{"khu pho"}, Designators("Khu phố"))
	assert.Nil(t, Designators(""))
}

func TestBareName(t *testing.T) {
	assert.Equal(t, "Ba Đình", bareName("Quận Ba Đình", []string{"quan", "q"}))
	assert.Equal(t, "Hồ Chí Minh", bareName("Thành phố Hồ Chí Minh", []string{"thanh pho", "tp", "t.p"}))
	// tên chỉ có danh xưng thì giữ nguyên
	assert.Equal(t, "Quận", bareName("Quận", []string{"quan"}))
}

func TestPatterns_Variants(t *testing.T) {
	tree := loadSample(t)

	hcm, _ := tree.Lookup("79")
	p := hcm.Patterns()
	assert.Equal(t, "ho chi minh", p.BareName)
	assert.Contains(t, p.Names, "thành phố hồ chí minh")
	assert.Contains(t, p.Names, "hồ chí minh")
	assert.Contains(t, p.Names, "sài gòn")
	assert.Contains(t, p.Names2, "ho chi minh")
	assert.Contains(t, p.Names2, "hochiminh")
	assert.Equal(t, []string{"hcm"}, p.Abbreviations)
	assert.Same(t, p, hcm.Patterns())

	district, _ := tree.Lookup("001")
	assert.Empty(t, district.Patterns().Abbreviations)
}

func TestPatterns_Match(t *testing.T) {
	tree := loadSample(t)

	testCases := []struct {
		name    string
		id      string
		input   string
		matched string
	}{
		{name: "Full name", id: "79", input: "q1, thanh pho ho chi minh", matched: "thanh pho ho chi minh"},
		{name: "Short designator", id: "79", input: "tp.hcm", matched: "tp.hcm"},
		{name: "Alias", id: "79", input: "quan 1 sai gon", matched: "sai gon"},
		{name: "Numeric with designator", id: "760", input: "ben nghe, quan 1", matched: "quan 1"},
		{name: "Numeric compact", id: "760", input: "ben nghe q.1", matched: "q.1"},
		{name: "Numeric leading zero", id: "760", input: "ben nghe, q01", matched: "q01"},
		{name: "Numeric without designator", id: "760", input: "ben nghe 1"},
		{name: "Other number", id: "760", input: "quan 11"},
		{name: "Not at end", id: "79", input: "ho chi minh, viet nam"},
		{name: "Inside word", id: "474", input: "phuhue"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e, ok := tree.Lookup(tc.id)
			require.True(t, ok)
			re := e.Patterns().Pattern
			require.NotNil(t, re)

			m := re.FindStringSubmatch(tc.input)
			if tc.matched == "" {
				assert.Nil(t, m)
				return
			}
			require.NotNil(t, m)
			assert.Equal(t, tc.matched, m[1])
		})
	}
}

func TestPatterns_Fuzzy(t *testing.T) {
	tree := loadSample(t)

	tth, _ := tree.Lookup("46")
	p := tth.Patterns()
	require.NotNil(t, p.Fuzzy)

	m := p.Fuzzy.FindStringSubmatch("phu hoi, thua thien hua")
	require.NotNil(t, m)
	assert.Equal(t, " thua thien hua", m[2])
}

func TestPatterns_Root(t *testing.T) {
	tree := loadSample(t)

	p := tree.Root().Patterns()
	assert.Nil(t, p.Pattern)
	assert.Nil(t, p.Fuzzy)
}
