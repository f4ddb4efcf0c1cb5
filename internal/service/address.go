package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/ripenred/checkout-api/internal/backend"
	"github.com/ripenred/checkout-api/internal/domain"
	"github.com/ripenred/checkout-api/internal/session"
	"github.com/ripenred/checkout-api/pkg/errors"
)

var (
	lettersSpacesPattern = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	zipcodePattern       = regexp.MustCompile(`^[0-9\-\s]+$`)
	emailPattern         = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	nonDigitPattern      = regexp.MustCompile(`\D`)
)

// AddressService validates addresses and resolves exactly one shipping
// address per checkout attempt
type AddressService struct {
	backend     *backend.Client
	sessions    *session.Store
	serviceable map[string]struct{}
	logger      *zap.Logger
}

// NewAddressService creates a new address service. serviceable is the
// allow-list of deliverable postal codes.
func NewAddressService(bc *backend.Client, sessions *session.Store, serviceable []string, logger *zap.Logger) *AddressService {
	set := make(map[string]struct{}, len(serviceable))
	for _, pin := range serviceable {
		set[pin] = struct{}{}
	}
	return &AddressService{
		backend:     bc,
		sessions:    sessions,
		serviceable: set,
		logger:      logger,
	}
}

// ServiceablePincode reports whether we deliver to the given postal code
func (s *AddressService) ServiceablePincode(pincode string) bool {
	_, ok := s.serviceable[strings.TrimSpace(pincode)]
	return ok
}

// ValidateAddress returns every violation found in the address fields.
// When includeContact is set the guest contact block is validated too.
func (s *AddressService) ValidateAddress(addr *domain.Address, includeContact bool) []string {
	var violations []string

	street := strings.TrimSpace(addr.Street)
	if street == "" {
		violations = append(violations, "Street address is required")
	} else if len(street) < 5 || len(street) > 100 {
		violations = append(violations, "Street address must be between 5 and 100 characters")
	}

	violations = append(violations, validateNameField("City", addr.City)...)
	violations = append(violations, validateNameField("State", addr.State)...)

	zipcode := strings.TrimSpace(addr.Zipcode)
	if zipcode == "" {
		violations = append(violations, "Zipcode is required")
	} else if len(zipcode) < 5 || len(zipcode) > 10 {
		violations = append(violations, "Zipcode must be between 5 and 10 characters")
	} else if !zipcodePattern.MatchString(zipcode) {
		violations = append(violations, "Zipcode can only contain numbers, hyphens, and spaces")
	} else if !s.ServiceablePincode(zipcode) {
		violations = append(violations, "Sorry, we currently deliver only in Delhi")
	}

	violations = append(violations, validateNameField("Country", addr.Country)...)

	if addr.Latitude != nil && (*addr.Latitude < -90 || *addr.Latitude > 90) {
		violations = append(violations, "Latitude must be between -90 and 90")
	}
	if addr.Longitude != nil && (*addr.Longitude < -180 || *addr.Longitude > 180) {
		violations = append(violations, "Longitude must be between -180 and 180")
	}

	if includeContact {
		violations = append(violations, ValidateGuestInfo(&domain.UserInfo{
			Name:  addr.Name,
			Email: addr.Email,
			Phone: addr.Phone,
		})...)
	}

	return violations
}

func validateNameField(field, value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return []string{field + " is required"}
	}
	if len(value) < 2 || len(value) > 50 {
		return []string{field + " must be between 2 and 50 characters"}
	}
	if !lettersSpacesPattern.MatchString(value) {
		return []string{field + " can only contain letters and spaces"}
	}
	return nil
}

// ValidateGuestInfo returns every violation in a guest contact block
func ValidateGuestInfo(info *domain.UserInfo) []string {
	var violations []string

	if info == nil {
		return []string{
			"Name is required for guest checkout",
			"Email is required for guest checkout",
			"Phone number is required for guest checkout",
		}
	}

	name := strings.TrimSpace(info.Name)
	if name == "" {
		violations = append(violations, "Name is required for guest checkout")
	} else if len(name) < 2 || len(name) > 50 {
		violations = append(violations, "Name must be between 2 and 50 characters")
	}

	email := strings.TrimSpace(info.Email)
	if email == "" {
		violations = append(violations, "Email is required for guest checkout")
	} else if !emailPattern.MatchString(email) {
		violations = append(violations, "Please enter a valid email address")
	}

	phone := strings.TrimSpace(info.Phone)
	if phone == "" {
		violations = append(violations, "Phone number is required for guest checkout")
	} else if len(nonDigitPattern.ReplaceAllString(phone, "")) != 10 {
		violations = append(violations, "Phone number must be exactly 10 digits")
	}

	return violations
}

// Resolve produces exactly one address: a saved address selected by
// index (returned verbatim, out-of-range is a hard error) or a freshly
// validated form address.
func (s *AddressService) Resolve(sess *session.Session, selectedIndex *int, form *domain.Address) (*domain.Address, error) {
	if selectedIndex != nil {
		idx := *selectedIndex
		if idx < 0 || idx >= len(sess.SavedAddresses) {
			return nil, &errors.ErrValidation{Violations: []string{"Selected address is invalid"}}
		}
		addr := sess.SavedAddresses[idx]
		return &addr, nil
	}

	if form == nil {
		return nil, &errors.ErrValidation{Violations: []string{"No address selected or provided"}}
	}

	if violations := s.ValidateAddress(form, false); len(violations) > 0 {
		return nil, &errors.ErrValidation{Violations: violations}
	}

	addr := *form
	return &addr, nil
}

// Save validates and persists an address via the backend, then refreshes
// the session's saved-address cache
func (s *AddressService) Save(ctx context.Context, sess *session.Session, addr domain.Address) error {
	if violations := s.ValidateAddress(&addr, !sess.IsLoggedIn()); len(violations) > 0 {
		return &errors.ErrValidation{Violations: violations}
	}

	if err := s.backend.SaveAddress(ctx, sess.Token, addr); err != nil {
		return fmt.Errorf("failed to save address: %w", err)
	}

	// Refresh the cache so a subsequent selection by index sees the new
	// address; failure here is not fatal
	if _, _, err := s.List(ctx, sess, addr.Email); err != nil {
		s.logger.Warn("Failed to refresh saved addresses", zap.String("sessionId", sess.ID), zap.Error(err))
	}

	return nil
}

// List fetches the saved addresses for the session (by guest email for
// unauthenticated users) and caches them on the session
func (s *AddressService) List(ctx context.Context, sess *session.Session, guestEmail string) ([]domain.Address, string, error) {
	var book *backend.AddressBook
	var err error

	if sess.IsLoggedIn() {
		book, err = s.backend.GetAddresses(ctx, sess.Token)
	} else {
		if strings.TrimSpace(guestEmail) == "" {
			return nil, "", nil
		}
		book, err = s.backend.GetGuestAddresses(ctx, guestEmail)
	}
	if err != nil {
		return nil, "", err
	}

	s.sessions.Update(sess.ID, func(sess *session.Session) {
		sess.SavedAddresses = book.Addresses
		sess.AddressBookName = book.Name
	})

	return book.Addresses, book.Name, nil
}
