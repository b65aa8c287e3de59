// Package entity defines the domain entities for the auth feature.
package entity

import "time"

// DefaultTier は新規登録ユーザーに割り当てられるサブスクリプションティアです。
const DefaultTier = "free"

// User represents a registered API user.
type User struct {
	ID uint `gorm:"primaryKey"`

	// Email is unique across all users.
	Email string `gorm:"uniqueIndex;size:255;not null"`

	// Password holds the bcrypt hash, never the plaintext.
	Password string `gorm:"size:255;not null"`

	// Tier はアクセスポリシーの判定に使うティア名です (free, pro, premium)。
	Tier string `gorm:"size:32;not null;default:free"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
