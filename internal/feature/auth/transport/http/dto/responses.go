package dto

// ErrorResponse はエラー時のレスポンスです。
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse は本文を持たない成功レスポンスです。
type MessageResponse struct {
	Message string `json:"message"`
}

// TokenResponse は/loginの成功レスポンスです。
type TokenResponse struct {
	Token string `json:"token"`
}
