package entity

import "time"

// DayLayout は利用日を表すキーの書式です。日付はUTCで区切ります。
const DayLayout = "2006-01-02"

// DailyUsage は1ユーザー1日あたりの受理済みリクエスト数です。
// (UserID, Day) で一意になります。
type DailyUsage struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false"`
	Day       string    `gorm:"primaryKey;size:10"`
	Count     int64     `gorm:"column:request_count;not null;default:0"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName はGORMが使用するテーブル名を返します。
func (DailyUsage) TableName() string {
	return "daily_usage"
}

// DayOf は t が属するUTCの日付キーを返します。
func DayOf(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

// EndOfDay は day の翌日0時(UTC)を返します。カウンターの失効時刻に使います。
func EndOfDay(day string) (time.Time, error) {
	d, err := time.Parse(DayLayout, day)
	if err != nil {
		return time.Time{}, err
	}
	return d.AddDate(0, 0, 1), nil
}
