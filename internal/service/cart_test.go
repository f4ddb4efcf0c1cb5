package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ripenred/checkout-api/internal/domain"
	"github.com/ripenred/checkout-api/internal/session"
	"github.com/ripenred/checkout-api/pkg/errors"
)

func newCartService(t *testing.T, handler http.Handler) (*CartService, *session.Store) {
	t.Helper()
	bc := newTestClient(t, handler)
	sessions := newTestSessions()
	return NewCartService(bc, sessions, zap.NewNop()), sessions
}

func productMux(t *testing.T) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/products/"+pidPickle, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(productJSON(pidPickle, "Mango Pickle", 250, false)))
	})
	mux.HandleFunc("/products/"+pidGhee, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(productJSON(pidGhee, "Desi Ghee", 80, false)))
	})
	return mux
}

func TestResolveEnrichesGuestCart(t *testing.T) {
	svc, sessions := newCartService(t, productMux(t))
	sess := guestSession(sessions)
	sessions.Update(sess.ID, func(s *session.Session) {
		s.GuestCart = []domain.CartItemRef{
			{ProductID: pidPickle, Quantity: 2},
			{ProductID: pidGhee, Quantity: 1},
		}
	})

	items, err := svc.Resolve(context.Background(), sess)
	require.NoError(t, err)
	require.Len(t, items, 2)

	// Cart order is preserved regardless of lookup completion order
	assert.Equal(t, "Mango Pickle", items[0].Name)
	assert.Equal(t, 250.0, items[0].Price)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, "Desi Ghee", items[1].Name)

	assert.Equal(t, 580.0, ItemTotal(items))
}

func TestResolveDropsFailedLookups(t *testing.T) {
	mux := productMux(t)
	mux.HandleFunc("/products/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Product not found"}`))
	})

	svc, sessions := newCartService(t, mux)
	sess := guestSession(sessions)
	sessions.Update(sess.ID, func(s *session.Session) {
		s.GuestCart = []domain.CartItemRef{
			{ProductID: pidPickle, Quantity: 1},
			{ProductID: "aaaaaaaaaaaaaaaaaaaaaaaa", Quantity: 1}, // vanished
			{ProductID: pidGhee, Quantity: 1},
		}
	})

	items, err := svc.Resolve(context.Background(), sess)
	require.NoError(t, err)

	// One failed lookup degrades that line only
	require.Len(t, items, 2)
	assert.Equal(t, pidPickle, items[0].ProductID)
	assert.Equal(t, pidGhee, items[1].ProductID)

	// The cleaned references are written back for guests
	require.Len(t, sess.GuestCart, 2)
	assert.Equal(t, pidPickle, sess.GuestCart[0].ProductID)
}

func TestResolveFiltersOutOfStock(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/products/"+pidPickle, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(productJSON(pidPickle, "Mango Pickle", 250, true)))
	})

	svc, sessions := newCartService(t, mux)
	sess := guestSession(sessions)
	sessions.Update(sess.ID, func(s *session.Session) {
		s.GuestCart = []domain.CartItemRef{{ProductID: pidPickle, Quantity: 1}}
	})

	items, err := svc.Resolve(context.Background(), sess)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Empty(t, sess.GuestCart)
}

func TestResolveServerCartFallsBackToGuest(t *testing.T) {
	mux := productMux(t)
	mux.HandleFunc("/users/cart", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	svc, sessions := newCartService(t, mux)
	sess := userSession(sessions)
	sessions.Update(sess.ID, func(s *session.Session) {
		s.GuestCart = []domain.CartItemRef{{ProductID: pidPickle, Quantity: 1}}
	})

	// The server cart failing degrades to the local references, not to an
	// error
	items, err := svc.Resolve(context.Background(), sess)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Mango Pickle", items[0].Name)
}

func TestResolveUsesServerCartWhenLoggedIn(t *testing.T) {
	mux := productMux(t)
	mux.HandleFunc("/users/cart", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
		w.Write([]byte(`[{"productId":"` + pidGhee + `","quantity":3}]`))
	})

	svc, sessions := newCartService(t, mux)
	sess := userSession(sessions)
	sessions.Update(sess.ID, func(s *session.Session) {
		// Stale local state must not leak into an authenticated resolve
		s.GuestCart = []domain.CartItemRef{{ProductID: pidPickle, Quantity: 9}}
	})

	items, err := svc.Resolve(context.Background(), sess)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, pidGhee, items[0].ProductID)
	assert.Equal(t, 3, items[0].Quantity)
}

func TestResolveNormalizesQuantity(t *testing.T) {
	svc, sessions := newCartService(t, productMux(t))
	sess := guestSession(sessions)
	sessions.Update(sess.ID, func(s *session.Session) {
		s.GuestCart = []domain.CartItemRef{{ProductID: pidPickle, Quantity: 150}}
	})

	items, err := svc.Resolve(context.Background(), sess)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 99, items[0].Quantity)
}

func TestAddItemGuestMergesQuantity(t *testing.T) {
	svc, sessions := newCartService(t, productMux(t))
	sess := guestSession(sessions)

	require.NoError(t, svc.AddItem(context.Background(), sess, pidPickle, 2))
	require.NoError(t, svc.AddItem(context.Background(), sess, pidPickle, 3))

	require.Len(t, sess.GuestCart, 1)
	assert.Equal(t, 5, sess.GuestCart[0].Quantity)
}

func TestAddItemRejectsBadProductID(t *testing.T) {
	svc, sessions := newCartService(t, productMux(t))
	sess := guestSession(sessions)

	err := svc.AddItem(context.Background(), sess, "nope", 1)
	require.Error(t, err)
	_, ok := err.(*errors.ErrValidation)
	assert.True(t, ok)
}

func TestUpdateItemGuestMissingLine(t *testing.T) {
	svc, sessions := newCartService(t, productMux(t))
	sess := guestSession(sessions)

	err := svc.UpdateItem(context.Background(), sess, pidPickle, 2)
	require.Error(t, err)
	_, ok := err.(*errors.ErrNotFound)
	assert.True(t, ok)
}

func TestRemoveItemGuest(t *testing.T) {
	svc, sessions := newCartService(t, productMux(t))
	sess := guestSession(sessions)
	sessions.Update(sess.ID, func(s *session.Session) {
		s.GuestCart = []domain.CartItemRef{
			{ProductID: pidPickle, Quantity: 1},
			{ProductID: pidGhee, Quantity: 2},
		}
	})

	require.NoError(t, svc.RemoveItem(context.Background(), sess, pidPickle))
	require.Len(t, sess.GuestCart, 1)
	assert.Equal(t, pidGhee, sess.GuestCart[0].ProductID)
}
