package search

import (
	"context"
	"sort"
	"strings"

	"github.com/xrash/smetrics"

	"github.com/address-resolver/internal/gazetteer"
	"github.com/address-resolver/internal/normalizer"
)

const (
	jaroBoostThreshold = 0.7
	jaroPrefixSize     = 4
	prefixScore        = 0.95
	minLocalScore      = 0.8
)

// LocalSearcher tìm kiếm trực tiếp trên cây gazetteer trong bộ nhớ,
// xếp hạng bằng Jaro-Winkler trên tên không dấu. Dùng khi không cấu hình Meilisearch.
type LocalSearcher struct {
	tree     *gazetteer.Tree
	minScore float64
}

// NewLocalSearcher tạo mới LocalSearcher
func NewLocalSearcher(tree *gazetteer.Tree) *LocalSearcher {
	return &LocalSearcher{tree: tree, minScore: minLocalScore}
}

func (ls *LocalSearcher) Name() string { return "local" }

// Search tìm các entity đang hiệu lực có tên gần với query
func (ls *LocalSearcher) Search(ctx context.Context, q Query) ([]Hit, error) {
	query := normalizer.Fold(normalizer.NormalizeText(q.Text))
	if query == "" {
		return nil, ErrEmptyQuery
	}

	var hits []Hit
	var err error
	ls.tree.Walk(func(e *gazetteer.Entity) bool {
		if err = ctx.Err(); err != nil {
			return false
		}
		if e.IsStale() || (q.Level > 0 && e.Level() != q.Level) {
			return true
		}
		parent := e.Parent()
		if q.ParentID != "" && (parent == nil || parent.ID() != q.ParentID) {
			return true
		}

		score := nameScore(query, e.Patterns().Names2)
		if score < ls.minScore {
			return true
		}
		hits = append(hits, newHit(e, score))
		return true
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if hits[i].Level != hits[j].Level {
			return hits[i].Level < hits[j].Level
		}
		return hits[i].AdminID < hits[j].AdminID
	})
	if limit := q.limit(); len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// nameScore điểm cao nhất giữa query và các biến thể tên
func nameScore(query string, names []string) float64 {
	best := 0.0
	for _, n := range names {
		var score float64
		switch {
		case n == query:
			return 1
		case strings.HasPrefix(n, query):
			score = prefixScore
		default:
			score = smetrics.JaroWinkler(query, n, jaroBoostThreshold, jaroPrefixSize)
		}
		if score > best {
			best = score
		}
	}
	return best
}

func newHit(e *gazetteer.Entity, score float64) Hit {
	h := Hit{
		AdminID: e.ID(),
		Name:    e.Name(),
		Type:    e.Type(),
		Level:   e.Level(),
		Score:   score,
	}
	if p := e.Parent(); p != nil && !p.IsRoot() {
		h.ParentID = p.ID()
	}
	path := e.Path()
	for i := len(path) - 1; i > 0; i-- {
		h.Path = append(h.Path, path[i].ID())
	}
	return h
}
