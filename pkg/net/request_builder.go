package net

import (
	"context"
	"io"
	"net/http"
)

// EtsyAuth Etsy 店铺凭证：应用 key 加店铺 OAuth token
type EtsyAuth struct {
	APIKey      string
	AccessToken string
}

// Apply 写入鉴权头，JSON 之外的 body 由调用方覆盖 Content-Type
func (a EtsyAuth) Apply(req *http.Request) {
	req.Header.Set("x-api-key", a.APIKey)
	if a.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+a.AccessToken)
	}
	req.Header.Set("Accept", "application/json")
	if req.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
}

// NewEtsyRequest 构建带店铺凭证的 Etsy 请求
func NewEtsyRequest(ctx context.Context, method, url string, body io.Reader, auth EtsyAuth) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	auth.Apply(req)
	return req, nil
}
