package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/ripenred/checkout-api/internal/backend"
	"github.com/ripenred/checkout-api/internal/domain"
	"github.com/ripenred/checkout-api/internal/session"
	"github.com/ripenred/checkout-api/pkg/errors"
)

// CartService resolves a session's cart into enriched line items backed
// by live product data
type CartService struct {
	backend  *backend.Client
	sessions *session.Store
	logger   *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(bc *backend.Client, sessions *session.Store, logger *zap.Logger) *CartService {
	return &CartService{
		backend:  bc,
		sessions: sessions,
		logger:   logger,
	}
}

// Resolve produces the ordered list of enriched cart line items for a
// session. Authenticated carts come from the backend, with a silent
// fallback to the guest cart when that fetch fails; enrichment fans out
// one product lookup per line and a failed lookup only degrades that
// line. Deleted and out-of-stock lines are filtered out, and for guest
// carts the cleaned references are written back to the session.
func (s *CartService) Resolve(ctx context.Context, sess *session.Session) ([]domain.CartLineItem, error) {
	refs := sess.GuestCart
	fromServer := false

	if sess.IsLoggedIn() {
		serverRefs, err := s.backend.GetCart(ctx, sess.Token)
		if err != nil {
			// Degraded but available: fall back to the guest cart
			s.logger.Warn("Failed to fetch server cart, falling back to guest cart",
				zap.String("sessionId", sess.ID), zap.Error(err))
		} else {
			refs = serverRefs
			fromServer = true
		}
	}

	if len(refs) == 0 {
		return nil, nil
	}

	enriched := make([]domain.CartLineItem, len(refs))
	var wg sync.WaitGroup
	for i, ref := range refs {
		wg.Add(1)
		go func(i int, ref domain.CartItemRef) {
			defer wg.Done()
			enriched[i] = s.enrich(ctx, ref)
		}(i, ref)
	}
	wg.Wait()

	// Display order follows cart order, not completion order
	cleaned := make([]domain.CartLineItem, 0, len(enriched))
	for _, item := range enriched {
		if item.Deleted || item.OutOfStock {
			continue
		}
		cleaned = append(cleaned, item)
	}

	if !fromServer {
		// Permanently drop references to vanished products
		refs := make([]domain.CartItemRef, len(cleaned))
		for i, item := range cleaned {
			refs[i] = item.Ref()
		}
		s.sessions.Update(sess.ID, func(sess *session.Session) {
			sess.GuestCart = refs
		})
	}

	return cleaned, nil
}

func (s *CartService) enrich(ctx context.Context, ref domain.CartItemRef) domain.CartLineItem {
	item := domain.CartLineItem{
		ProductID: ref.ProductID,
		Quantity:  domain.NormalizeQuantity(ref.Quantity),
	}

	product, err := s.backend.GetProduct(ctx, ref.ProductID)
	if err != nil {
		s.logger.Warn("Product lookup failed, marking line deleted",
			zap.String("productId", ref.ProductID), zap.Error(err))
		item.Deleted = true
		return item
	}

	// Live product truth overrides anything stale
	item.Name = product.Name
	item.Price = domain.NormalizePrice(product.Price)
	item.Image = product.Image
	item.OutOfStock = product.OutOfStock
	return item
}

// ItemTotal sums price*quantity across the resolved lines
func ItemTotal(items []domain.CartLineItem) float64 {
	total := 0.0
	for _, item := range items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// AddItem puts a product into the cart, merging quantities when the line
// already exists
func (s *CartService) AddItem(ctx context.Context, sess *session.Session, productID string, quantity int) error {
	if !domain.ValidProductID(productID) {
		return &errors.ErrValidation{Violations: []string{"Invalid product ID format"}}
	}
	quantity = domain.NormalizeQuantity(quantity)

	if sess.IsLoggedIn() {
		return s.backend.AddCartItem(ctx, sess.Token, domain.CartItemRef{ProductID: productID, Quantity: quantity})
	}

	s.sessions.Update(sess.ID, func(sess *session.Session) {
		for i, ref := range sess.GuestCart {
			if ref.ProductID == productID {
				sess.GuestCart[i].Quantity = domain.NormalizeQuantity(ref.Quantity + quantity)
				return
			}
		}
		sess.GuestCart = append(sess.GuestCart, domain.CartItemRef{ProductID: productID, Quantity: quantity})
	})
	return nil
}

// UpdateItem sets a line's quantity
func (s *CartService) UpdateItem(ctx context.Context, sess *session.Session, productID string, quantity int) error {
	quantity = domain.NormalizeQuantity(quantity)

	if sess.IsLoggedIn() {
		return s.backend.UpdateCartItem(ctx, sess.Token, productID, quantity)
	}

	found := false
	s.sessions.Update(sess.ID, func(sess *session.Session) {
		for i, ref := range sess.GuestCart {
			if ref.ProductID == productID {
				sess.GuestCart[i].Quantity = quantity
				found = true
				return
			}
		}
	})
	if !found {
		return &errors.ErrNotFound{Resource: "cart item", ID: productID}
	}
	return nil
}

// RemoveItem deletes a line from the cart
func (s *CartService) RemoveItem(ctx context.Context, sess *session.Session, productID string) error {
	if sess.IsLoggedIn() {
		return s.backend.RemoveCartItem(ctx, sess.Token, productID)
	}

	s.sessions.Update(sess.ID, func(sess *session.Session) {
		kept := sess.GuestCart[:0]
		for _, ref := range sess.GuestCart {
			if ref.ProductID != productID {
				kept = append(kept, ref)
			}
		}
		sess.GuestCart = kept
	})
	return nil
}
