// Package dto はauthフィーチャーのリクエスト/レスポンスDTOを定義します。
package dto

// SignupReq は POST /signup のボディです。
type SignupReq struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=72"` // bcryptは72バイトまで
}

// LoginReq は POST /login のボディです。
type LoginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}
