package parser

import (
	"go.uber.org/zap"

	"github.com/address-resolver/internal/gazetteer"
)

// Tracer nhận các sự kiện trong quá trình resolve, dùng cho debug
type Tracer interface {
	// Matched một entity khớp tại matcher
	Matched(from, matcher int, e *gazetteer.Entity, m *Matches)
	// BestChanged kết quả tốt nhất của một cấp thay đổi
	BestChanged(from, matcher int, best *Matches)
	// SkipBestChanged kết quả tốt nhất khi bỏ qua một cấp thay đổi
	SkipBestChanged(from, matcher int, best *Matches)
}

// NopTracer bỏ qua mọi sự kiện
type NopTracer struct{}

func (NopTracer) Matched(int, int, *gazetteer.Entity, *Matches) {}
func (NopTracer) BestChanged(int, int, *Matches)                {}
func (NopTracer) SkipBestChanged(int, int, *Matches)            {}

// ZapTracer ghi sự kiện ra zap ở mức debug
type ZapTracer struct {
	logger *zap.Logger
}

// NewZapTracer tạo mới ZapTracer
func NewZapTracer(logger *zap.Logger) *ZapTracer {
	return &ZapTracer{logger: logger.Named("resolver")}
}

func (t *ZapTracer) Matched(from, matcher int, e *gazetteer.Entity, m *Matches) {
	t.logger.Debug("matched",
		zap.Int("from", from),
		zap.Int("matcher", matcher),
		zap.Stringer("entity", e),
		zap.Float64("score", m.Score()),
		zap.String("remaining", m.Address()))
}

func (t *ZapTracer) BestChanged(from, matcher int, best *Matches) {
	t.logger.Debug("best changed",
		zap.Int("from", from),
		zap.Int("matcher", matcher),
		zap.Stringer("entity", best.Entity()),
		zap.Float64("score", best.Score()))
}

func (t *ZapTracer) SkipBestChanged(from, matcher int, best *Matches) {
	t.logger.Debug("skip best changed",
		zap.Int("from", from),
		zap.Int("matcher", matcher),
		zap.Stringer("entity", best.Entity()),
		zap.Float64("score", best.Score()))
}
