package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"

	"github.com/address-resolver/app/models"
)

// GazetteerSearcher searcher tìm kiếm trong gazetteer sử dụng Meilisearch
type GazetteerSearcher struct {
	client    meilisearch.ServiceManager
	logger    *zap.Logger
	indexName string
	timeout   time.Duration
}

// SearchConfig cấu hình cho Meilisearch
type SearchConfig struct {
	Host      string
	APIKey    string
	IndexName string
	Timeout   time.Duration
}

// entityDocument document trong index Meilisearch.
// Level theo cây gazetteer (1 = tỉnh), khác với level trong admin_units.
type entityDocument struct {
	ID               string   `json:"id"`
	AdminID          string   `json:"admin_id"`
	ParentID         string   `json:"parent_id,omitempty"`
	Level            int      `json:"level"`
	Name             string   `json:"name"`
	NormalizedName   string   `json:"normalized_name"`
	Type             string   `json:"type"`
	AdminSubtype     string   `json:"admin_subtype"`
	Status           string   `json:"status"`
	Aliases          []string `json:"aliases,omitempty"`
	Path             []string `json:"path,omitempty"`
	PathNormalized   []string `json:"path_normalized,omitempty"`
	GazetteerVersion string   `json:"gazetteer_version"`
	RankingScore     float64  `json:"_rankingScore,omitempty"`
}

const seedBatchSize = 1000

// NewGazetteerSearcher tạo mới GazetteerSearcher với Meilisearch client
func NewGazetteerSearcher(config SearchConfig, logger *zap.Logger) (*GazetteerSearcher, error) {
	client := meilisearch.New(config.Host, meilisearch.WithAPIKey(config.APIKey))

	if _, err := client.Health(); err != nil {
		return nil, fmt.Errorf("không thể kết nối Meilisearch: %w", err)
	}

	return &GazetteerSearcher{
		client:    client,
		logger:    logger,
		indexName: config.IndexName,
		timeout:   timeoutOrDefault(config.Timeout),
	}, nil
}

func timeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return 5 * time.Second
	}
	return d
}

func (gs *GazetteerSearcher) Name() string { return "meilisearch" }

// Search tìm kiếm theo tên, lọc theo cấp và đơn vị cha
func (gs *GazetteerSearcher) Search(ctx context.Context, q Query) ([]Hit, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, ErrEmptyQuery
	}

	ctx, cancel := context.WithTimeout(ctx, gs.timeout)
	defer cancel()

	searchReq := &meilisearch.SearchRequest{
		Limit:            int64(q.limit()),
		Filter:           BuildFilter(q.Level, q.ParentID),
		ShowRankingScore: true,
	}

	type outcome struct {
		result *meilisearch.SearchResponse
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := gs.client.Index(gs.indexName).Search(q.Text, searchReq)
		done <- outcome{result, err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("tìm kiếm Meilisearch quá thời gian: %w", ctx.Err())
	case o := <-done:
		if o.err != nil {
			return nil, fmt.Errorf("lỗi tìm kiếm Meilisearch: %w", o.err)
		}
		return parseHits(o.result.Hits)
	}
}

// parseHits chuyển hits của Meilisearch thành Hit qua JSON
func parseHits(raw interface{}) ([]Hit, error) {
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("lỗi đọc kết quả Meilisearch: %w", err)
	}
	var docs []entityDocument
	if err := json.Unmarshal(b, &docs); err != nil {
		return nil, fmt.Errorf("lỗi đọc kết quả Meilisearch: %w", err)
	}

	hits := make([]Hit, 0, len(docs))
	for _, d := range docs {
		hits = append(hits, Hit{
			AdminID:  d.AdminID,
			Name:     d.Name,
			Type:     d.Type,
			Level:    d.Level,
			ParentID: d.ParentID,
			Path:     d.Path,
			Score:    d.RankingScore,
		})
	}
	return hits, nil
}

// BuildIndexes cấu hình index Meilisearch
func (gs *GazetteerSearcher) BuildIndexes() error {
	index := gs.client.Index(gs.indexName)

	task, err := index.UpdateSettings(&meilisearch.Settings{
		SearchableAttributes: []string{"name", "normalized_name", "aliases"},
		FilterableAttributes: []string{"admin_id", "level", "parent_id", "path", "admin_subtype", "status"},
		SortableAttributes:   []string{"level", "admin_id"},
		RankingRules:         []string{"words", "typo", "proximity", "attribute", "sort", "exactness"},
		StopWords:            []string{"cua", "va", "tai", "o", "trong"},
		Synonyms: map[string][]string{
			"tp":  {"thanh pho"},
			"hcm": {"ho chi minh", "sai gon"},
			"q":   {"quan"},
			"p":   {"phuong"},
			"tx":  {"thi xa"},
			"tt":  {"thi tran"},
		},
		TypoTolerance: &meilisearch.TypoTolerance{
			Enabled: true,
			MinWordSizeForTypos: meilisearch.MinWordSizeForTypos{
				OneTypo:  3,
				TwoTypos: 7,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("lỗi cấu hình index: %w", err)
	}

	gs.logger.Info("Đã cấu hình index Meilisearch thành công", zap.Int64("task_uid", task.TaskUID))
	return nil
}

// SeedData thay toàn bộ documents trong index bằng các đơn vị hành chính
func (gs *GazetteerSearcher) SeedData(adminUnits []models.AdminUnit) error {
	if len(adminUnits) == 0 {
		return errors.New("không có dữ liệu để seed")
	}

	index := gs.client.Index(gs.indexName)
	if _, err := index.DeleteAllDocuments(); err != nil {
		return fmt.Errorf("lỗi xóa documents cũ: %w", err)
	}

	documents := make([]entityDocument, 0, len(adminUnits))
	for _, unit := range adminUnits {
		documents = append(documents, newEntityDocument(unit))
	}

	for i := 0; i < len(documents); i += seedBatchSize {
		end := i + seedBatchSize
		if end > len(documents) {
			end = len(documents)
		}

		task, err := index.AddDocuments(documents[i:end], "id")
		if err != nil {
			return fmt.Errorf("lỗi thêm documents batch %d-%d: %w", i, end, err)
		}

		gs.logger.Info("Đã thêm batch documents",
			zap.Int("from", i),
			zap.Int("to", end),
			zap.Int64("task_uid", task.TaskUID))
	}

	gs.logger.Info("Đã seed data thành công", zap.Int("total_documents", len(documents)))
	return nil
}

func newEntityDocument(unit models.AdminUnit) entityDocument {
	doc := entityDocument{
		ID:               unit.AdminID,
		AdminID:          unit.AdminID,
		Level:            unit.Level - 1,
		Name:             unit.Name,
		NormalizedName:   unit.NormalizedName,
		Type:             unit.Type,
		AdminSubtype:     unit.AdminSubtype,
		Status:           unit.Status,
		Aliases:          unit.Aliases,
		Path:             unit.Path,
		PathNormalized:   unit.PathNormalized,
		GazetteerVersion: unit.GazetteerVersion,
	}
	if unit.ParentID != nil {
		doc.ParentID = *unit.ParentID
	}
	if doc.Status == "" {
		doc.Status = "active"
	}
	// bản cũ trùng id với bản hiện hành: giữ document riêng
	if unit.IsStale() {
		doc.ID = unit.AdminID + "_" + unit.Status
	}
	return doc
}
