package backend

import (
	"context"
	"fmt"
	"net/url"

	"github.com/ripenred/checkout-api/internal/domain"
)

// Product is the live product truth served by the backend
type Product struct {
	ID         string  `json:"_id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Image      string  `json:"image"`
	OutOfStock bool    `json:"outOfStock"`
}

// CouponResult is the backend's answer to a coupon application
type CouponResult struct {
	DiscountPercent float64 `json:"discountPercent"`
	Message         string  `json:"message,omitempty"`
}

// AddressBook is a user's saved addresses plus their display name
type AddressBook struct {
	Name      string           `json:"name"`
	Addresses []domain.Address `json:"address"`
}

// CreateOrderResult carries the canonical order id plus provider-specific
// launch data: modal session keys for Razorpay, a transaction id and
// redirect URL for PhonePe, neither for direct methods.
type CreateOrderResult struct {
	Success              domain.FlexBool `json:"success"`
	OrderID              string          `json:"orderId"`
	RazorpayOrderID      string          `json:"razorpayOrderId,omitempty"`
	RazorpayKey          string          `json:"razorpayKey,omitempty"`
	PhonePeTransactionID string          `json:"phonePeTransactionId,omitempty"`
	PaymentURL           string          `json:"paymentUrl,omitempty"`
	Amount               int64           `json:"amount"`
	Currency             string          `json:"currency"`
}

// VerifyPaymentRequest echoes the provider callback payload back to the
// backend together with the order it belongs to
type VerifyPaymentRequest struct {
	RazorpayOrderID   string            `json:"razorpay_order_id,omitempty"`
	RazorpayPaymentID string            `json:"razorpay_payment_id,omitempty"`
	RazorpaySignature string            `json:"razorpay_signature,omitempty"`
	TransactionID     string            `json:"transactionId,omitempty"`
	OrderID           string            `json:"orderId"`
	OrderData         *domain.OrderData `json:"orderData,omitempty"`
}

// VerifyPaymentResult reports the verification outcome. Success tolerates
// both boolean and string serialization; Existing marks an idempotent
// duplicate, which counts as success.
type VerifyPaymentResult struct {
	Success  domain.FlexBool `json:"success"`
	Message  string          `json:"message,omitempty"`
	Existing bool            `json:"existing,omitempty"`
}

func (c *Client) GetProduct(ctx context.Context, id string) (*Product, error) {
	var product Product
	if err := c.do(ctx, "GET", "/products/"+url.PathEscape(id), "", nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *Client) GetProducts(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.do(ctx, "GET", "/products", "", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) SearchProducts(ctx context.Context, query string) ([]Product, error) {
	var products []Product
	endpoint := "/products/search?query=" + url.QueryEscape(query)
	if err := c.do(ctx, "GET", endpoint, "", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) GetCart(ctx context.Context, token string) ([]domain.CartItemRef, error) {
	var refs []domain.CartItemRef
	if err := c.do(ctx, "GET", "/users/cart", token, nil, &refs); err != nil {
		return nil, err
	}
	return refs, nil
}

func (c *Client) AddCartItem(ctx context.Context, token string, ref domain.CartItemRef) error {
	return c.do(ctx, "POST", "/users/cart", token, ref, nil)
}

func (c *Client) UpdateCartItem(ctx context.Context, token, productID string, quantity int) error {
	body := map[string]int{"quantity": quantity}
	return c.do(ctx, "PUT", "/users/cart/"+url.PathEscape(productID), token, body, nil)
}

func (c *Client) RemoveCartItem(ctx context.Context, token, productID string) error {
	return c.do(ctx, "DELETE", "/users/cart/"+url.PathEscape(productID), token, nil, nil)
}

func (c *Client) ClearCart(ctx context.Context, token string) error {
	return c.do(ctx, "DELETE", "/users/cart", token, nil, nil)
}

func (c *Client) ApplyCoupon(ctx context.Context, token, code string, cartTotal float64) (*CouponResult, error) {
	body := map[string]interface{}{"code": code, "cartTotal": cartTotal}
	var result CouponResult
	if err := c.do(ctx, "POST", "/users/apply-coupon", token, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) SaveAddress(ctx context.Context, token string, addr domain.Address) error {
	endpoint := "/users/guest/addAddress"
	if token != "" {
		endpoint = "/users/addAddress"
	}
	return c.do(ctx, "POST", endpoint, token, addr, nil)
}

func (c *Client) GetAddresses(ctx context.Context, token string) (*AddressBook, error) {
	var book AddressBook
	if err := c.do(ctx, "GET", "/users/getAddresses", token, nil, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

func (c *Client) GetGuestAddresses(ctx context.Context, email string) (*AddressBook, error) {
	var book AddressBook
	endpoint := "/users/guest/getAddresses/" + url.PathEscape(email)
	if err := c.do(ctx, "GET", endpoint, "", nil, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

func (c *Client) CreateOrder(ctx context.Context, token string, order *domain.OrderData) (*CreateOrderResult, error) {
	var result CreateOrderResult
	if err := c.do(ctx, "POST", "/orders/create-order", token, order, &result); err != nil {
		return nil, err
	}
	if result.OrderID == "" {
		return nil, fmt.Errorf("backend returned no order id")
	}
	return &result, nil
}

func (c *Client) VerifyPayment(ctx context.Context, token string, req VerifyPaymentRequest) (*VerifyPaymentResult, error) {
	var result VerifyPaymentResult
	if err := c.do(ctx, "POST", "/orders/verify-payment", token, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
