package session

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ripenred/checkout-api/internal/domain"
)

// Session holds the per-browser checkout state that the storefront used
// to keep in local/session storage: guest cart references, coupon state,
// the saved-address cache and the resume data for redirect payments.
type Session struct {
	ID        string
	Token     string // bearer token forwarded from the storefront, empty for guests
	UserID    string
	CreatedAt time.Time
	LastSeen  time.Time

	GuestCart []domain.CartItemRef

	CouponApplied  bool
	CouponCode     string
	DiscountAmount float64

	SavedAddresses  []domain.Address
	AddressBookName string

	State         domain.CheckoutState
	PaymentResume *PaymentResume
	OrderID       string
	PaymentID     string
}

// PaymentResume is the minimal state persisted before navigating away to
// a redirect payment provider, consumed on the return callback.
type PaymentResume struct {
	OrderID       string
	TransactionID string
	Amount        int64
	Order         *domain.OrderData
}

// IsLoggedIn reports whether the session carries an auth token
func (s *Session) IsLoggedIn() bool {
	return s.Token != ""
}

// Store is an explicit, injectable session registry. Entries expire after
// the configured TTL; pruning happens opportunistically on access.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
}

func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

// GetOrCreate returns the session for id, creating one when the id is
// unknown or empty. New sessions start in the idle checkout state.
func (st *Store) GetOrCreate(id string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.pruneLocked()

	if id != "" {
		if sess, ok := st.sessions[id]; ok {
			sess.LastSeen = time.Now()
			return sess
		}
	}

	sess := &Session{
		ID:        newSessionID(),
		CreatedAt: time.Now(),
		LastSeen:  time.Now(),
		State:     domain.StateIdle,
	}
	st.sessions[sess.ID] = sess
	return sess
}

// Get returns the session for id, or nil
func (st *Store) Get(id string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	sess, ok := st.sessions[id]
	if !ok {
		return nil
	}
	sess.LastSeen = time.Now()
	return sess
}

// Update runs fn against the session under the store lock
func (st *Store) Update(id string, fn func(*Session)) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if sess, ok := st.sessions[id]; ok {
		fn(sess)
		sess.LastSeen = time.Now()
	}
}

// Len reports how many sessions are live
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

func (st *Store) pruneLocked() {
	cutoff := time.Now().Add(-st.ttl)
	for id, sess := range st.sessions {
		if sess.LastSeen.Before(cutoff) {
			delete(st.sessions, id)
		}
	}
}

func newSessionID() string {
	return "sess_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
