// Package http は外部API呼び出し用のHTTPクライアントを提供します。
package http

import (
	"net"
	"net/http"
	"time"
)

// UserAgent は外部APIへのリクエストに付与するUser-Agentです。
const UserAgent = "indicator-backend/1.0"

// NewHTTPClient は外部API呼び出し用のクライアントを作成します。
// http.DefaultClient はタイムアウトを持たないため使用しません。
// timeout はリクエスト全体 (接続からボディ読み込みまで) の上限です。
func NewHTTPClient(timeout time.Duration) *http.Client {
	base := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		// 取り込みジョブは単一ホストへ直列に呼ぶため少数で足りる
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: timeout,
	}
	return &http.Client{Timeout: timeout, Transport: &userAgentTransport{base: base}}
}

// userAgentTransport は未設定のリクエストにUser-Agentを付与します。
type userAgentTransport struct {
	base http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.base.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", UserAgent)
	return t.base.RoundTrip(r)
}
