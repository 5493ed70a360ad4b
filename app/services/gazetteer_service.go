package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/address-resolver/app/config"
	"github.com/address-resolver/app/models"
	"github.com/address-resolver/internal/gazetteer"
	"github.com/address-resolver/internal/metrics"
	"github.com/address-resolver/internal/parser"
	"github.com/address-resolver/internal/search"
)

var (
	ErrEntityNotFound   = errors.New("không tìm thấy đơn vị hành chính")
	ErrGazetteerMissing = errors.New("gazetteer chưa được load")
	ErrNoDatabase       = errors.New("chưa cấu hình MongoDB")
)

// gazetteerState cây và các thành phần dựng trên cây, thay thế nguyên khối khi reload
type gazetteerState struct {
	tree     *gazetteer.Tree
	parser   *parser.AddressParser
	local    *search.LocalSearcher
	loadedAt time.Time
}

// GazetteerStats thống kê gazetteer đang dùng
type GazetteerStats struct {
	Version  string         `json:"version"`
	Source   string         `json:"source"`
	Entities int            `json:"entities"`
	ByLevel  map[string]int `json:"by_level"`
	Searcher string         `json:"searcher"`
	LoadedAt time.Time      `json:"loaded_at"`
}

// ImportResult kết quả import dataset vào MongoDB
type ImportResult struct {
	Version          string `json:"version"`
	UnitsProcessed   int    `json:"units_processed"`
	IndexesBuilt     bool   `json:"indexes_built"`
	ProcessingTimeMs int64  `json:"processing_time_ms"`
}

// GazetteerService quản lý cây hành chính: load, reload, tra cứu, tìm kiếm, import
type GazetteerService struct {
	cfg        config.GazetteerCfg
	db         *mongo.Database
	aliases    AliasStore
	meili      *search.GazetteerSearcher
	metrics    *metrics.Metrics
	logger     *zap.Logger
	parserOpts []parser.Option

	state atomic.Pointer[gazetteerState]
}

// GazetteerOption cấu hình GazetteerService
type GazetteerOption func(*GazetteerService)

// WithDatabase nguồn admin_units khi gazetteer.source=mongo và đích của Import
func WithDatabase(db *mongo.Database) GazetteerOption {
	return func(gs *GazetteerService) { gs.db = db }
}

// WithAliasStore gộp learned aliases khi load
func WithAliasStore(store AliasStore) GazetteerOption {
	return func(gs *GazetteerService) { gs.aliases = store }
}

// WithMeilisearch dùng Meilisearch cho tìm kiếm và reindex
func WithMeilisearch(s *search.GazetteerSearcher) GazetteerOption {
	return func(gs *GazetteerService) { gs.meili = s }
}

// WithParserOptions option cho AddressParser dựng sau mỗi lần load
func WithParserOptions(opts ...parser.Option) GazetteerOption {
	return func(gs *GazetteerService) { gs.parserOpts = append(gs.parserOpts, opts...) }
}

// NewGazetteerService tạo mới GazetteerService, gọi Load hoặc SetTree trước khi dùng
func NewGazetteerService(cfg config.GazetteerCfg, m *metrics.Metrics, logger *zap.Logger, opts ...GazetteerOption) *GazetteerService {
	gs := &GazetteerService{cfg: cfg, metrics: m, logger: logger}
	for _, opt := range opts {
		opt(gs)
	}
	return gs
}

// Load đọc dataset từ nguồn cấu hình, gộp learned aliases rồi thay cây đang dùng
func (gs *GazetteerService) Load(ctx context.Context) error {
	start := time.Now()

	ds, err := gs.loadDataset(ctx)
	if err != nil {
		return err
	}

	if gs.cfg.LearnedAliases && gs.aliases != nil {
		aliases, err := gs.aliases.List(ctx)
		if err != nil {
			return err
		}
		ds = ds.WithAliases(models.GroupAliases(aliases))
		gs.logger.Info("Đã gộp learned aliases", zap.Int("count", len(aliases)))
	}

	tree, err := gazetteer.Build(ds)
	if err != nil {
		return fmt.Errorf("lỗi build gazetteer: %w", err)
	}
	gs.SetTree(tree)

	gs.logger.Info("Đã load gazetteer",
		zap.String("source", gs.cfg.Source),
		zap.String("version", tree.Version()),
		zap.Int("entities", tree.Len()),
		zap.Duration("duration", time.Since(start)))
	return nil
}

func (gs *GazetteerService) loadDataset(ctx context.Context) (gazetteer.Dataset, error) {
	if gs.cfg.Source != "mongo" {
		return gazetteer.LoadDataset(gs.cfg.Path)
	}
	if gs.db == nil {
		return gazetteer.Dataset{}, ErrNoDatabase
	}

	cursor, err := gs.db.Collection(gs.collection()).Find(ctx, bson.M{})
	if err != nil {
		return gazetteer.Dataset{}, fmt.Errorf("lỗi query admin_units: %w", err)
	}
	defer cursor.Close(ctx)

	var units []models.AdminUnit
	if err := cursor.All(ctx, &units); err != nil {
		return gazetteer.Dataset{}, fmt.Errorf("lỗi decode admin_units: %w", err)
	}
	if len(units) == 0 {
		return gazetteer.Dataset{}, fmt.Errorf("collection %s rỗng", gs.collection())
	}

	return gazetteer.DatasetFromAdminUnits(units, commonVersion(units)), nil
}

// commonVersion version chung của các document, rỗng nếu không thống nhất
func commonVersion(units []models.AdminUnit) string {
	version := units[0].GazetteerVersion
	for _, u := range units[1:] {
		if u.GazetteerVersion != version {
			return ""
		}
	}
	return version
}

func (gs *GazetteerService) collection() string {
	if gs.cfg.Collection == "" {
		return "admin_units"
	}
	return gs.cfg.Collection
}

// SetTree thay cây đang dùng. Các parse đang chạy vẫn dùng cây cũ.
func (gs *GazetteerService) SetTree(tree *gazetteer.Tree) {
	gs.state.Store(&gazetteerState{
		tree:     tree,
		parser:   parser.NewAddressParser(tree, gs.parserOpts...),
		local:    search.NewLocalSearcher(tree),
		loadedAt: time.Now(),
	})

	if gs.metrics != nil {
		gs.metrics.GazetteerEntities.Reset()
		for level, n := range tree.CountByLevel() {
			gs.metrics.GazetteerEntities.WithLabelValues(strconv.Itoa(level)).Set(float64(n))
		}
	}
}

func (gs *GazetteerService) current() (*gazetteerState, error) {
	st := gs.state.Load()
	if st == nil {
		return nil, ErrGazetteerMissing
	}
	return st, nil
}

// Parser parser trên cây hiện tại
func (gs *GazetteerService) Parser() (*parser.AddressParser, error) {
	st, err := gs.current()
	if err != nil {
		return nil, err
	}
	return st.parser, nil
}

// Tree cây hiện tại, nil nếu chưa load
func (gs *GazetteerService) Tree() *gazetteer.Tree {
	if st := gs.state.Load(); st != nil {
		return st.tree
	}
	return nil
}

// Version phiên bản gazetteer hiện tại
func (gs *GazetteerService) Version() string {
	if tree := gs.Tree(); tree != nil {
		return tree.Version()
	}
	return ""
}

// Lookup tìm entity hiện hành theo id (entity đã bị xóa/chuyển được redirect)
func (gs *GazetteerService) Lookup(id string) (*gazetteer.Entity, error) {
	st, err := gs.current()
	if err != nil {
		return nil, err
	}
	e, ok := st.tree.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntityNotFound, id)
	}
	return e, nil
}

// Children các đơn vị con; id rỗng hoặc "root" là các đơn vị cấp 1
func (gs *GazetteerService) Children(id string) ([]*gazetteer.Entity, error) {
	st, err := gs.current()
	if err != nil {
		return nil, err
	}
	if id == "" || id == gazetteer.RootID {
		return st.tree.Root().Children(), nil
	}
	e, err := gs.Lookup(id)
	if err != nil {
		return nil, err
	}
	return e.Children(), nil
}

// Search tìm đơn vị theo tên. Meilisearch lỗi thì dùng tìm kiếm cục bộ.
func (gs *GazetteerService) Search(ctx context.Context, q search.Query) ([]search.Hit, error) {
	st, err := gs.current()
	if err != nil {
		return nil, err
	}

	if gs.meili != nil {
		hits, err := gs.meili.Search(ctx, q)
		if err == nil || errors.Is(err, search.ErrEmptyQuery) {
			return hits, err
		}
		gs.logger.Warn("Meilisearch lỗi, chuyển sang tìm kiếm cục bộ", zap.Error(err))
	}
	return st.local.Search(ctx, q)
}

// Import đọc dataset từ file, kiểm tra bằng cách build cây, thay toàn bộ admin_units
// rồi reindex Meilisearch (nếu có)
func (gs *GazetteerService) Import(ctx context.Context, path string) (*ImportResult, error) {
	start := time.Now()
	if gs.db == nil {
		return nil, ErrNoDatabase
	}

	tree, err := gazetteer.LoadFile(path)
	if err != nil {
		return nil, err
	}
	units := gazetteer.ToAdminUnits(tree)

	collection := gs.db.Collection(gs.collection())
	deleted, err := collection.DeleteMany(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("lỗi xóa dữ liệu cũ: %w", err)
	}
	gs.logger.Info("Đã xóa admin units cũ", zap.Int64("deleted_count", deleted.DeletedCount))

	documents := make([]interface{}, len(units))
	for i := range units {
		documents[i] = units[i]
	}
	if _, err := collection.InsertMany(ctx, documents); err != nil {
		return nil, fmt.Errorf("lỗi insert dữ liệu mới: %w", err)
	}

	result := &ImportResult{Version: tree.Version(), UnitsProcessed: len(units)}
	if gs.meili != nil {
		if err := gs.reindex(units); err != nil {
			gs.logger.Warn("Lỗi build Meilisearch indexes", zap.Error(err))
		} else {
			result.IndexesBuilt = true
		}
	}
	result.ProcessingTimeMs = time.Since(start).Milliseconds()

	gs.logger.Info("Gazetteer import completed",
		zap.String("gazetteer_version", result.Version),
		zap.Int("units_processed", result.UnitsProcessed),
		zap.Bool("indexes_built", result.IndexesBuilt),
		zap.Duration("processing_time", time.Since(start)))
	return result, nil
}

// Reindex cấu hình index Meilisearch và nạp lại toàn bộ cây hiện tại
func (gs *GazetteerService) Reindex(ctx context.Context) error {
	st, err := gs.current()
	if err != nil {
		return err
	}
	if gs.meili == nil {
		return errors.New("chưa cấu hình Meilisearch")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return gs.reindex(gazetteer.ToAdminUnits(st.tree))
}

func (gs *GazetteerService) reindex(units []models.AdminUnit) error {
	if err := gs.meili.BuildIndexes(); err != nil {
		return err
	}
	return gs.meili.SeedData(units)
}

// Stats thống kê cây hiện tại
func (gs *GazetteerService) Stats() (*GazetteerStats, error) {
	st, err := gs.current()
	if err != nil {
		return nil, err
	}

	byLevel := make(map[string]int)
	for level, n := range st.tree.CountByLevel() {
		byLevel[strconv.Itoa(level)] = n
	}

	searcher := st.local.Name()
	if gs.meili != nil {
		searcher = gs.meili.Name()
	}

	return &GazetteerStats{
		Version:  st.tree.Version(),
		Source:   gs.cfg.Source,
		Entities: st.tree.Len(),
		ByLevel:  byLevel,
		Searcher: searcher,
		LoadedAt: st.loadedAt,
	}, nil
}
