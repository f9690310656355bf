// internal/service/checkout/infrastructure/adapter/cart_http_adapter.go
package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"savor/internal/pkg/httpclient"
	"savor/internal/service/checkout/domain"
	"savor/internal/service/checkout/domain/port"
)

// CartHTTPAdapter 是 port.CartBackend 的 HTTP 实现，对接订单后台的 REST API。
// 路由与载荷字段名是和后台的既有约定，不能改：
//
//	GET  {base}/carts/?user_id={id}      -> 分页的 results 列表
//	POST {base}/carts/{id}/checkout/     -> {message, order_id, invoice_id}
type CartHTTPAdapter struct {
	client  *httpclient.Client
	baseURL string
}

// NewCartHTTPAdapter 创建一个购物车后台适配器。
func NewCartHTTPAdapter(client *httpclient.Client, baseURL string) *CartHTTPAdapter {
	return &CartHTTPAdapter{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type cartListResponse struct {
	Results []struct {
		ID     json.Number `json:"id"`
		UserID string      `json:"user_id"`
	} `json:"results"`
}

type checkoutCommitResponse struct {
	Message   string `json:"message"`
	OrderID   string `json:"order_id"`
	InvoiceID string `json:"invoice_id"`
}

// FindActiveCart 实现 port.CartBackend。
func (a *CartHTTPAdapter) FindActiveCart(ctx context.Context, userID string) (*domain.Cart, error) {
	endpoint := fmt.Sprintf("%s/carts/?user_id=%s", a.baseURL, url.QueryEscape(userID))

	var resp cartListResponse
	if err := a.client.GetJSON(ctx, endpoint, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to retrieve cart information")
	}
	if len(resp.Results) == 0 {
		return nil, domain.ErrNoActiveCart
	}

	// 后台按 user_id 过滤后取第一个结果作为活跃购物车
	first := resp.Results[0]
	if first.ID.String() == "" {
		return nil, domain.ErrNoActiveCart
	}
	return &domain.Cart{ID: first.ID.String(), UserID: first.UserID}, nil
}

// CommitCheckout 实现 port.CartBackend。
func (a *CartHTTPAdapter) CommitCheckout(ctx context.Context, cartID string, commit port.CheckoutCommit) (*port.CommitResult, error) {
	endpoint := fmt.Sprintf("%s/carts/%s/checkout/", a.baseURL, url.PathEscape(cartID))

	var resp checkoutCommitResponse
	if err := a.client.PostJSON(ctx, endpoint, commit, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to complete checkout")
	}
	if resp.OrderID == "" {
		return nil, errors.New("checkout response did not contain an order_id")
	}
	return &port.CommitResult{OrderID: resp.OrderID, InvoiceID: resp.InvoiceID}, nil
}
