package storefront

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/streeteats-connect/pkg/auth"
	pkgerrors "github.com/angelmondragon/streeteats-connect/pkg/errors"
	"github.com/angelmondragon/streeteats-connect/pkg/types"
	"github.com/go-resty/resty/v2"
)

const (
	addToCartPath  = "/orders/api/add-to-cart/"
	cartCountPath  = "/orders/api/cart-count/"
	placeOrderPath = "/orders/api/place-order/"
	popupPath      = "/notifications/popup/"

	idempotencyHeader = "Idempotency-Key"
)

// Client calls the storefront API on behalf of one session. The session
// token issued by the server is remembered and sent on later calls.
type Client struct {
	http *resty.Client

	mu        sync.Mutex
	token     string
	tokenSink func(string)
}

type Option func(*Client)

// WithToken seeds the client with a previously issued session token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

// WithTokenSink is called whenever the server issues a new token.
func WithTokenSink(fn func(string)) Option {
	return func(c *Client) { c.tokenSink = fn }
}

// WithHTTPClient swaps the underlying transport, mostly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http.SetTransport(hc.Transport)
		}
	}
}

func New(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("storefront base url is required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetRetryCount(0).
			SetHeader("Accept", "application/json"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Token returns the current session token.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.http.R().SetContext(ctx)
	if token := c.Token(); token != "" {
		req.SetHeader(auth.SessionHeader, token)
	}
	return req
}

// capture stores a token echoed by the server.
func (c *Client) capture(resp *resty.Response) {
	token := strings.TrimSpace(resp.Header().Get(auth.SessionHeader))
	if token == "" {
		return
	}
	c.mu.Lock()
	changed := token != c.token
	c.token = token
	sink := c.tokenSink
	c.mu.Unlock()
	if changed && sink != nil {
		sink(token)
	}
}

// AddToCart posts one product to the session cart. A reply with
// success=false is returned without error; transport failures and 5xx
// responses are errors.
func (c *Client) AddToCart(ctx context.Context, in types.AddToCartRequest) (types.CartActionResponse, error) {
	var out types.CartActionResponse
	resp, err := c.request(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(in).
		SetResult(&out).
		SetError(&out).
		Post(addToCartPath)
	if err := c.check(resp, err, "add to cart"); err != nil {
		return types.CartActionResponse{}, err
	}
	return out, nil
}

func (c *Client) CartCount(ctx context.Context) (types.CartCountResponse, error) {
	var out types.CartCountResponse
	resp, err := c.request(ctx).SetResult(&out).Get(cartCountPath)
	if err := c.check(resp, err, "cart count"); err != nil {
		return types.CartCountResponse{}, err
	}
	if resp.IsError() {
		return types.CartCountResponse{}, pkgerrors.Newf(pkgerrors.CodeDependency, "cart count: status %d", resp.StatusCode())
	}
	return out, nil
}

// PlaceOrder folds the server cart into an order. idempotencyKey may be
// empty.
func (c *Client) PlaceOrder(ctx context.Context, in types.PlaceOrderRequest, idempotencyKey string) (types.PlaceOrderResponse, error) {
	var out types.PlaceOrderResponse
	req := c.request(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(in).
		SetResult(&out).
		SetError(&out)
	if idempotencyKey != "" {
		req.SetHeader(idempotencyHeader, idempotencyKey)
	}
	resp, err := req.Post(placeOrderPath)
	if err := c.check(resp, err, "place order"); err != nil {
		return types.PlaceOrderResponse{}, err
	}
	return out, nil
}

// NotificationPopup returns the notification popup HTML fragment.
func (c *Client) NotificationPopup(ctx context.Context) (string, error) {
	resp, err := c.request(ctx).SetHeader("Accept", "text/html").Get(popupPath)
	if err := c.check(resp, err, "notification popup"); err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", pkgerrors.Newf(pkgerrors.CodeDependency, "notification popup: status %d", resp.StatusCode())
	}
	return resp.String(), nil
}

func (c *Client) check(resp *resty.Response, err error, op string) error {
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op+" request failed")
	}
	c.capture(resp)
	if resp.StatusCode() >= http.StatusInternalServerError {
		return pkgerrors.Newf(pkgerrors.CodeDependency, "%s: status %d", op, resp.StatusCode())
	}
	return nil
}
