package adapters

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"indicator_backend/internal/feature/usage/domain/entity"
)

// UsageGorm はRDBの daily_usage テーブルで利用回数を管理します。
// Redisを使わない構成(開発用SQLiteなど)で使用します。
type UsageGorm struct {
	db *gorm.DB
}

// NewUsageGorm は新しいUsageGormを生成します。
func NewUsageGorm(db *gorm.DB) *UsageGorm {
	return &UsageGorm{db: db}
}

// Current は当日の利用回数を返します。行が無ければ0です。
func (r *UsageGorm) Current(ctx context.Context, userID uint, day string) (int64, error) {
	return currentCount(r.db.WithContext(ctx), userID, day)
}

// IncrementWithCeiling は条件付きUPDATEで上限未満のときだけ1加算します。
func (r *UsageGorm) IncrementWithCeiling(ctx context.Context, userID uint, day string, ceiling int64) (int64, bool, error) {
	var (
		count     int64
		increased bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seed := entity.DailyUsage{UserID: userID, Day: day}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return fmt.Errorf("seed usage row: %w", err)
		}

		q := tx.Model(&entity.DailyUsage{}).Where("user_id = ? AND day = ?", userID, day)
		if ceiling > 0 {
			q = q.Where("request_count < ?", ceiling)
		}
		res := q.UpdateColumn("request_count", gorm.Expr("request_count + ?", 1))
		if res.Error != nil {
			return fmt.Errorf("increment usage: %w", res.Error)
		}
		increased = res.RowsAffected == 1

		n, err := currentCount(tx, userID, day)
		if err != nil {
			return err
		}
		count = n
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return count, increased, nil
}

func currentCount(db *gorm.DB, userID uint, day string) (int64, error) {
	var u entity.DailyUsage
	err := db.Where("user_id = ? AND day = ?", userID, day).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read usage: %w", err)
	}
	return u.Count, nil
}
