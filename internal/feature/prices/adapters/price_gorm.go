// Package adapters はpricesフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"indicator_backend/internal/feature/prices/domain/entity"
	"indicator_backend/internal/shared/market"
)

// upsertBatchSize は1回のINSERTで送る最大行数です。
const upsertBatchSize = 500

// priceGorm は日足価格を prices テーブルに保存するリポジトリです。
type priceGorm struct {
	db *gorm.DB
}

// NewPriceRepository は指定されたDB接続でpriceGormの新しいインスタンスを生成します。
func NewPriceRepository(db *gorm.DB) *priceGorm {
	return &priceGorm{db: db}
}

// PriceModel は prices テーブルの行です。(symbol, date) で一意になります。
type PriceModel struct {
	ID     uint      `gorm:"primaryKey"`
	Symbol string    `gorm:"size:32;not null;uniqueIndex:price_sym_date,priority:1"`
	Date   time.Time `gorm:"type:date;not null;uniqueIndex:price_sym_date,priority:2"`

	Open   float64 `gorm:"not null"`
	High   float64 `gorm:"not null"`
	Low    float64 `gorm:"not null"`
	Close  float64 `gorm:"not null"`
	Volume int64   `gorm:"not null;default:0"`
}

func (PriceModel) TableName() string {
	return "prices"
}

func toModel(b market.Bar) PriceModel {
	return PriceModel{
		Symbol: b.Symbol,
		Date:   b.Date,
		Open:   b.Open,
		High:   b.High,
		Low:    b.Low,
		Close:  b.Close,
		Volume: b.Volume,
	}
}

func toBar(m PriceModel) market.Bar {
	return market.Bar{
		Symbol: m.Symbol,
		Date:   m.Date.UTC(),
		Open:   m.Open,
		High:   m.High,
		Low:    m.Low,
		Close:  m.Close,
		Volume: m.Volume,
	}
}

// UpsertBatch は日足をまとめて保存します。既存の (symbol, date) は値を上書きします。
func (r *priceGorm) UpsertBatch(ctx context.Context, bars market.Series) error {
	if len(bars) == 0 {
		return nil
	}
	ms := make([]PriceModel, 0, len(bars))
	for _, b := range bars {
		ms = append(ms, toModel(b))
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"open", "high", "low", "close", "volume"}),
	}).CreateInBatches(&ms, upsertBatchSize).Error
}

// Load は [start, end] の日足を日付の昇順で返します。該当が無ければ空のSeriesです。
func (r *priceGorm) Load(ctx context.Context, symbol string, start, end time.Time) (market.Series, error) {
	var rows []PriceModel
	if err := r.db.WithContext(ctx).
		Where("symbol = ? AND date >= ? AND date <= ?", symbol, start, end).
		Order("date ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load prices %s: %w", symbol, err)
	}
	out := make(market.Series, 0, len(rows))
	for _, m := range rows {
		out = append(out, toBar(m))
	}
	return out, nil
}

type coverageRow struct {
	Symbol    string
	FirstDate string
	LastDate  string
	Bars      int64
}

// ListSymbols は価格が保存されている銘柄を銘柄コード順に返します。
func (r *priceGorm) ListSymbols(ctx context.Context) ([]entity.SymbolCoverage, error) {
	var rows []coverageRow
	if err := r.db.WithContext(ctx).
		Model(&PriceModel{}).
		Select("symbol, MIN(date) AS first_date, MAX(date) AS last_date, COUNT(*) AS bars").
		Group("symbol").
		Order("symbol ASC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list symbols: %w", err)
	}

	out := make([]entity.SymbolCoverage, 0, len(rows))
	for _, row := range rows {
		first, err := parseDay(row.FirstDate)
		if err != nil {
			return nil, err
		}
		last, err := parseDay(row.LastDate)
		if err != nil {
			return nil, err
		}
		out = append(out, entity.SymbolCoverage{Symbol: row.Symbol, First: first, Last: last, Bars: row.Bars})
	}
	return out, nil
}

// parseDay はドライバごとに異なる日付の文字列表現(2024-01-02 / 2024-01-02 00:00:00+00:00 など)を日付に変換します。
func parseDay(s string) (time.Time, error) {
	if len(s) < len(market.DateLayout) {
		return time.Time{}, fmt.Errorf("unexpected date value %q", s)
	}
	return market.ParseDate(s[:len(market.DateLayout)])
}
