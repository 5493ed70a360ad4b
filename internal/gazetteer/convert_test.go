package gazetteer

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const flatJSON = `[
  {"id": 79, "parent_id": null, "unit_level": 1, "name": "Thành phố  Hồ Chí Minh", "key_word": "Sài Gòn"},
  {"id": 760, "parent_id": 79, "unit_level": 2, "name": "Quận 1"},
  {"id": "26734", "parent_id": "760", "unit_level": 3, "name": "Phường Bến Nghé", "key_word": "phuong ben nghe"},
  {"id": 26737, "parent_id": 760, "unit_level": 3, "name": "Phường Bến Thành"},
  {"id": 82, "unit_level": 1, "name": "Tiền Giang"},
  {"id": 820, "parent_id": 82, "unit_level": 2, "name": "Châu Thành"},
  {"id": 821, "parent_id": 82, "unit_level": 2, "name": "Thị xã Cai Lậy", "status": "Deleted"},
  {"id": 99, "parent_id": 9999, "unit_level": 3, "name": "Xã Mồ Côi"}
]`

func TestConvertFlat(t *testing.T) {
	units, err := ReadFlatUnits(strings.NewReader(flatJSON))
	require.NoError(t, err)
	require.Len(t, units, 8)

	result, err := ConvertFlat(units, "flat-1")
	require.NoError(t, err)
	assert.Equal(t, 7, result.Total)
	assert.Equal(t, map[int]int{1: 2, 2: 3, 3: 2}, result.ByLevel)
	assert.Equal(t, []FlatID{"99"}, result.Skipped)

	tree, err := Build(result.Dataset)
	require.NoError(t, err)
	assert.Equal(t, "flat-1", tree.Version())

	hcm, ok := tree.Lookup("79")
	require.True(t, ok)
	assert.Equal(t, "Thành phố Hồ Chí Minh", hcm.Name())
	assert.Equal(t, "Thành phố Trung ương", hcm.Type())
	assert.Equal(t, []string{"Sài Gòn"}, hcm.Aliases())

	ward, ok := tree.Lookup("26734")
	require.True(t, ok)
	assert.Equal(t, "Phường", ward.Type())
	assert.Empty(t, ward.Aliases(), "key_word trùng tên sau khi fold")
	assert.Equal(t, "760", ward.Parent().ID())

	quan1, _ := tree.Lookup("760")
	var ids []string
	for _, c := range quan1.Children() {
		ids = append(ids, c.ID())
	}
	assert.Equal(t, []string{"26734", "26737"}, ids)

	cailay, ok := tree.Lookup("821")
	require.True(t, ok)
	assert.Equal(t, StatusDeleted, cailay.Status())
	assert.Equal(t, "Thị xã", cailay.Type())

	tg, _ := tree.Lookup("82")
	assert.Equal(t, "Tỉnh", tg.Type())
	ct, _ := tree.Lookup("820")
	assert.Equal(t, "Huyện", ct.Type())
}

func TestConvertFlat_Errors(t *testing.T) {
	_, err := ConvertFlat([]FlatUnit{{Name: "x", UnitLevel: 1}}, "")
	assert.True(t, errors.Is(err, ErrEmptyID))

	_, err = ConvertFlat([]FlatUnit{{ID: "1", Name: "x", UnitLevel: 7}}, "")
	assert.True(t, errors.Is(err, ErrTooDeep))

	_, err = ConvertFlat([]FlatUnit{
		{ID: "1", Name: "Tỉnh A", UnitLevel: 1},
		{ID: "1", Name: "Tỉnh B", UnitLevel: 1},
	}, "")
	assert.True(t, errors.Is(err, ErrDuplicateID))

	_, err = ReadFlatUnits(strings.NewReader(`{"id": 1}`))
	assert.Error(t, err)
}

func TestDetectType(t *testing.T) {
	tests := []struct {
		name  string
		level int
		want  string
	}{
		{"Thành phố Hà Nội", 1, "Thành phố Trung ương"},
		{"Tỉnh Bến Tre", 1, "Tỉnh"},
		{"Quận Ba Đình", 2, "Quận"},
		{"Thành phố Thủ Đức", 2, "Thành phố"},
		{"Huyện Củ Chi", 2, "Huyện"},
		{"Thị trấn Củ Chi", 3, "Thị trấn"},
		{"Phường 1", 3, "Phường"},
		{"Xã Tân Phú", 3, "Xã"},
		{"Phường", 3, "Xã"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectType(tt.name, tt.level))
		})
	}
}

func TestWriteDataset_RoundTrip(t *testing.T) {
	units, err := ReadFlatUnits(strings.NewReader(flatJSON))
	require.NoError(t, err)
	result, err := ConvertFlat(units, "flat-1")
	require.NoError(t, err)

	for _, ext := range []string{".json", ".yaml"} {
		t.Run(ext, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteDataset(&buf, result.Dataset, ext))

			ds, err := ParseDataset(buf.Bytes(), ext)
			require.NoError(t, err)
			assert.Equal(t, result.Dataset, ds)
		})
	}
}
