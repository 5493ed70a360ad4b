package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdminUnit document đơn vị hành chính trong collection admin_units
type AdminUnit struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	AdminID          string             `bson:"admin_id" json:"admin_id"`                       // Mã đơn vị hành chính
	ParentID         *string            `bson:"parent_id,omitempty" json:"parent_id,omitempty"` // Mã đơn vị cha
	Level            int                `bson:"level" json:"level"`                             // 1=country, 2=province, 3=district, 4=ward
	Name             string             `bson:"name" json:"name"`                               // Tên chính thức, có danh xưng
	NormalizedName   string             `bson:"normalized_name" json:"normalized_name"`         // Tên ASCII lowercase
	Type             string             `bson:"type" json:"type"`                               // Loại đơn vị (Tỉnh, Quận, Phường...)
	AdminSubtype     string             `bson:"admin_subtype" json:"admin_subtype"`             // municipality, province, urban_district...
	Aliases          []string           `bson:"aliases,omitempty" json:"aliases,omitempty"`     // Tên gọi khác
	Abbreviations    []string           `bson:"abbreviations,omitempty" json:"abbreviations,omitempty"`
	Status           string             `bson:"status,omitempty" json:"status,omitempty"`           // "", deleted, moved
	RedirectID       string             `bson:"redirect_id,omitempty" json:"redirect_id,omitempty"` // Mã đơn vị thay thế
	Path             []string           `bson:"path" json:"path"`                                   // Mã các cấp cha từ trên xuống
	PathNormalized   []string           `bson:"path_normalized" json:"path_normalized"`             // Tên ASCII các cấp cha
	GazetteerVersion string             `bson:"gazetteer_version" json:"gazetteer_version"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at" json:"updated_at"`
}

// AdminSubtype constants
const (
	AdminSubtypeCountry           = "country"
	AdminSubtypeProvince          = "province"
	AdminSubtypeMunicipality      = "municipality"
	AdminSubtypeUrbanDistrict     = "urban_district"
	AdminSubtypeRuralDistrict     = "rural_district"
	AdminSubtypeCityUnderProvince = "city_under_province"
	AdminSubtypeTown              = "town"
	AdminSubtypeWard              = "ward"
	AdminSubtypeCommune           = "commune"
	AdminSubtypeTownship          = "township"
)

// Level constants
const (
	LevelCountry  = 1
	LevelProvince = 2
	LevelDistrict = 3
	LevelWard     = 4
)

// IsValidLevel kiểm tra level có hợp lệ không
func (au *AdminUnit) IsValidLevel() bool {
	return au.Level >= LevelCountry && au.Level <= LevelWard+1
}

// IsStale kiểm tra đơn vị đã bị xóa hoặc chuyển đi
func (au *AdminUnit) IsStale() bool {
	return au.Status != "" && au.Status != "active"
}

// GetFullPath trả về đường dẫn tên ASCII từ cấp cao nhất
func (au *AdminUnit) GetFullPath() string {
	return strings.Join(append(append([]string{}, au.PathNormalized...), au.NormalizedName), " > ")
}
