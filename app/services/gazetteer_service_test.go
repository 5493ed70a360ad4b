package services

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/address-resolver/app/config"
	"github.com/address-resolver/app/models"
	"github.com/address-resolver/internal/metrics"
	"github.com/address-resolver/internal/search"
)

const samplePath = "../../internal/gazetteer/testdata/sample.json"

// memoryAliasStore AliasStore trong bộ nhớ cho test
type memoryAliasStore struct {
	aliases []models.LearnedAlias
	err     error
}

func (s *memoryAliasStore) List(context.Context) ([]models.LearnedAlias, error) {
	return s.aliases, s.err
}

func (s *memoryAliasStore) Add(_ context.Context, alias *models.LearnedAlias) error {
	if s.err != nil {
		return s.err
	}
	s.aliases = append(s.aliases, *alias)
	return nil
}

func newTestGazetteer(t *testing.T, opts ...GazetteerOption) (*GazetteerService, *metrics.Metrics) {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	gs := NewGazetteerService(config.GazetteerCfg{Source: "file", Path: samplePath}, m, zap.NewNop(), opts...)
	require.NoError(t, gs.Load(context.Background()))
	return gs, m
}

func entityIDs[T interface{ ID() string }](entities []T) []string {
	ids := make([]string, 0, len(entities))
	for _, e := range entities {
		ids = append(ids, e.ID())
	}
	return ids
}

func TestGazetteerService_NotLoaded(t *testing.T) {
	gs := NewGazetteerService(config.GazetteerCfg{Source: "file", Path: samplePath}, nil, zap.NewNop())

	_, err := gs.Parser()
	assert.ErrorIs(t, err, ErrGazetteerMissing)
	_, err = gs.Lookup("79")
	assert.ErrorIs(t, err, ErrGazetteerMissing)
	_, err = gs.Stats()
	assert.ErrorIs(t, err, ErrGazetteerMissing)
	assert.Empty(t, gs.Version())
	assert.Nil(t, gs.Tree())
}

func TestGazetteerService_Load(t *testing.T) {
	gs, m := newTestGazetteer(t)

	assert.Equal(t, "sample-2024.1", gs.Version())

	stats, err := gs.Stats()
	require.NoError(t, err)
	assert.Equal(t, 27, stats.Entities)
	assert.Equal(t, map[string]int{"1": 5, "2": 9, "3": 13}, stats.ByLevel)
	assert.Equal(t, "local", stats.Searcher)
	assert.Equal(t, "file", stats.Source)

	assert.Equal(t, 5.0, testutil.ToFloat64(m.GazetteerEntities.WithLabelValues("1")))
	assert.Equal(t, 13.0, testutil.ToFloat64(m.GazetteerEntities.WithLabelValues("3")))
}

func TestGazetteerService_LoadErrors(t *testing.T) {
	gs := NewGazetteerService(config.GazetteerCfg{Source: "file", Path: "missing.json"}, nil, zap.NewNop())
	assert.Error(t, gs.Load(context.Background()))

	gs = NewGazetteerService(config.GazetteerCfg{Source: "mongo"}, nil, zap.NewNop())
	assert.ErrorIs(t, gs.Load(context.Background()), ErrNoDatabase)

	boom := errors.New("boom")
	gs = NewGazetteerService(config.GazetteerCfg{Source: "file", Path: samplePath, LearnedAliases: true},
		nil, zap.NewNop(), WithAliasStore(&memoryAliasStore{err: boom}))
	assert.ErrorIs(t, gs.Load(context.Background()), boom)
}

func TestGazetteerService_LookupAndChildren(t *testing.T) {
	gs, _ := newTestGazetteer(t)

	e, err := gs.Lookup("801")
	require.NoError(t, err)
	assert.Equal(t, "802", e.ID(), "đơn vị đã xóa được chuyển sang đơn vị thay thế")

	_, err = gs.Lookup("99999")
	assert.ErrorIs(t, err, ErrEntityNotFound)

	top, err := gs.Children("")
	require.NoError(t, err)
	assert.Equal(t, []string{"01", "79", "46", "82", "80"}, entityIDs(top))

	children, err := gs.Children("79")
	require.NoError(t, err)
	assert.Equal(t, []string{"760", "770"}, entityIDs(children))

	_, err = gs.Children("nope")
	assert.ErrorIs(t, err, ErrEntityNotFound)
}

func TestGazetteerService_Search(t *testing.T) {
	gs, _ := newTestGazetteer(t)

	hits, err := gs.Search(context.Background(), search.Query{Text: "Châu Thành", ParentID: "82"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "820", hits[0].AdminID)

	_, err = gs.Search(context.Background(), search.Query{})
	assert.ErrorIs(t, err, search.ErrEmptyQuery)
}

func TestGazetteerService_LearnedAliases(t *testing.T) {
	store := &memoryAliasStore{aliases: []models.LearnedAlias{
		*models.NewLearnedAlias("79", "Hòn Ngọc Viễn Đông", "hon ngoc vien dong", models.SourceManual),
	}}
	gs, _ := newTestGazetteer(t, WithAliasStore(store))

	// learned_aliases chưa bật thì không gộp
	assert.Equal(t, "sample-2024.1", gs.Version())

	gs = NewGazetteerService(config.GazetteerCfg{Source: "file", Path: samplePath, LearnedAliases: true},
		nil, zap.NewNop(), WithAliasStore(store))
	require.NoError(t, gs.Load(context.Background()))

	assert.Contains(t, gs.Version(), "sample-2024.1+")
	e, err := gs.Lookup("79")
	require.NoError(t, err)
	assert.Contains(t, e.Aliases(), "Hòn Ngọc Viễn Đông")

	p, err := gs.Parser()
	require.NoError(t, err)
	results := p.Parse("Quận 1, Hòn Ngọc Viễn Đông")
	require.Len(t, results, 2)
	assert.Equal(t, "760", results[0].ID)
}

func TestGazetteerService_AdminOperationsNeedBackends(t *testing.T) {
	gs, _ := newTestGazetteer(t)

	_, err := gs.Import(context.Background(), samplePath)
	assert.ErrorIs(t, err, ErrNoDatabase)

	assert.Error(t, gs.Reindex(context.Background()))
}
