// Package usecase はpricesフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"time"

	"indicator_backend/internal/feature/prices/domain/entity"
	"indicator_backend/internal/shared/market"
)

// PriceRepository は日足データの永続化レイヤーを抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type PriceRepository interface {
	UpsertBatch(ctx context.Context, bars market.Series) error
	ListSymbols(ctx context.Context) ([]entity.SymbolCoverage, error)
}

// SymbolUsecase は価格が保存されている銘柄の参照を提供します。
type SymbolUsecase struct {
	repo PriceRepository
}

// NewSymbolUsecase は新しいSymbolUsecaseを生成します。
func NewSymbolUsecase(r PriceRepository) *SymbolUsecase {
	return &SymbolUsecase{repo: r}
}

// ListSymbols は保存済みの銘柄と期間を銘柄コード順に返します。
func (u *SymbolUsecase) ListSymbols(ctx context.Context) ([]entity.SymbolCoverage, error) {
	return u.repo.ListSymbols(ctx)
}

// coverageBySymbol は銘柄ごとの最新保存日を返します。
func coverageBySymbol(cs []entity.SymbolCoverage) map[string]time.Time {
	out := make(map[string]time.Time, len(cs))
	for _, c := range cs {
		out[c.Symbol] = c.Last
	}
	return out
}
