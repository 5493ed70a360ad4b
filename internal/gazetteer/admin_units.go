package gazetteer

import (
	"time"

	"github.com/address-resolver/app/models"
	"github.com/address-resolver/internal/normalizer"
)

// FromAdminUnits dựng cây từ các document admin_units
func FromAdminUnits(units []models.AdminUnit, version string) (*Tree, error) {
	return Build(DatasetFromAdminUnits(units, version))
}

// DatasetFromAdminUnits chuyển các document admin_units thành dataset.
// Document cấp quốc gia được coi là root; đơn vị không có cha (hoặc cha không tồn tại)
// nằm ở cấp 1.
func DatasetFromAdminUnits(units []models.AdminUnit, version string) Dataset {
	countries := make(map[string]bool)
	owner := make(map[string]int)
	byParent := make(map[string][]int)

	for i, u := range units {
		if u.Level == models.LevelCountry {
			countries[u.AdminID] = true
			continue
		}
		// id trùng nhau (bản cũ + bản hiện hành) thì con gắn vào bản hiện hành
		if prev, ok := owner[u.AdminID]; !ok || (units[prev].IsStale() && !u.IsStale()) {
			owner[u.AdminID] = i
		}
	}

	var top []int
	for i, u := range units {
		if u.Level == models.LevelCountry {
			continue
		}
		if u.ParentID == nil || countries[*u.ParentID] {
			top = append(top, i)
			continue
		}
		if _, ok := owner[*u.ParentID]; !ok {
			top = append(top, i)
			continue
		}
		byParent[*u.ParentID] = append(byParent[*u.ParentID], i)
	}

	var toNode func(i int) Node
	toNode = func(i int) Node {
		u := units[i]
		n := Node{
			ID:            u.AdminID,
			Name:          u.Name,
			Type:          u.Type,
			Status:        u.Status,
			RedirectID:    u.RedirectID,
			Aliases:       u.Aliases,
			Abbreviations: u.Abbreviations,
		}
		if owner[u.AdminID] == i {
			for _, c := range byParent[u.AdminID] {
				n.Children = append(n.Children, toNode(c))
			}
		}
		return n
	}

	ds := Dataset{Version: version}
	for _, i := range top {
		ds.Entities = append(ds.Entities, toNode(i))
	}
	return ds
}

// ToAdminUnits chuyển cây thành các document admin_units (level 2 = tỉnh như trong DB)
func ToAdminUnits(t *Tree) []models.AdminUnit {
	now := time.Now()
	units := make([]models.AdminUnit, 0, t.Len())

	t.Walk(func(e *Entity) bool {
		u := models.AdminUnit{
			AdminID:          e.id,
			Level:            e.level + 1,
			Name:             e.name,
			NormalizedName:   normalizer.ASCIIKey(e.name),
			Type:             e.typ,
			AdminSubtype:     Subtype(e.typ),
			Aliases:          e.aliases,
			Abbreviations:    e.abbreviations,
			RedirectID:       e.redirectID,
			GazetteerVersion: t.version,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if e.status != StatusActive {
			u.Status = e.status.String()
		}

		ancestors := e.Path()[1:]
		for i := len(ancestors) - 1; i >= 0; i-- {
			u.Path = append(u.Path, ancestors[i].id)
			u.PathNormalized = append(u.PathNormalized, normalizer.ASCIIKey(ancestors[i].name))
		}
		if parent := e.Parent(); parent != nil && !parent.IsRoot() {
			parentID := parent.id
			u.ParentID = &parentID
		}

		units = append(units, u)
		return true
	})
	return units
}
