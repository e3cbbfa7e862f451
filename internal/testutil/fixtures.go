// Package testutil provides in-memory doubles and fixtures for handler
// tests. The doubles mirror the Mongo stores' semantics (including their
// sentinel errors) so handlers exercise the same branches they hit in
// production without a live database.
package testutil

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	userstore "github.com/covertly/identity/internal/app/store/users"
	"github.com/covertly/identity/internal/app/system/passwords"
	"github.com/covertly/identity/internal/domain/models"
)

// MemUserStore is an in-memory user record store.
type MemUserStore struct {
	mu    sync.Mutex
	users map[string]models.User // keyed by ObjectID hex
}

// NewMemUserStore creates an empty in-memory store.
func NewMemUserStore() *MemUserStore {
	return &MemUserStore{users: make(map[string]models.User)}
}

// Seed inserts a user directly, bypassing insert-side normalization.
func (s *MemUserStore) Seed(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	s.users[u.ID.Hex()] = u
}

// Get returns a copy of the stored user, for assertions.
func (s *MemUserStore) Get(id primitive.ObjectID) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id.Hex()]
	return u, ok
}

// Count returns the number of stored users.
func (s *MemUserStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

func (s *MemUserStore) findOne(match func(*models.User) bool) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if match(&u) {
			cp := u
			return &cp, nil
		}
	}
	return nil, userstore.ErrNotFound
}

func (s *MemUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(email)
	return s.findOne(func(u *models.User) bool { return u.Email == email })
}

func (s *MemUserStore) FindByIDHex(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, userstore.ErrNotFound
	}
	cp := u
	return &cp, nil
}

func (s *MemUserStore) FindByOTP(ctx context.Context, code int) (*models.User, error) {
	return s.findOne(func(u *models.User) bool { return u.OTP != nil && *u.OTP == code })
}

func (s *MemUserStore) FindByEmailOTP(ctx context.Context, email string, code int) (*models.User, error) {
	email = strings.ToLower(email)
	return s.findOne(func(u *models.User) bool {
		return u.Email == email && u.OTP != nil && *u.OTP == code
	})
}

func (s *MemUserStore) Insert(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.Email = strings.ToLower(u.Email)
	u.CreatedAt = now
	u.UpdatedAt = now
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return userstore.ErrDuplicateEmail
		}
	}
	s.users[u.ID.Hex()] = *u
	return nil
}

func (s *MemUserStore) update(id primitive.ObjectID, mutate func(*models.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id.Hex()]
	if !ok {
		return userstore.ErrNotFound
	}
	mutate(&u)
	u.UpdatedAt = time.Now().UTC()
	s.users[id.Hex()] = u
	return nil
}

func (s *MemUserStore) SetOTP(ctx context.Context, id primitive.ObjectID, code int, expireAt int64) error {
	return s.update(id, func(u *models.User) {
		u.OTP = &code
		u.OTPExpireAt = &expireAt
	})
}

func (s *MemUserStore) MarkEmailVerified(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	return s.update(id, func(u *models.User) {
		at := at.UTC()
		u.EmailVerifiedAt = &at
	})
}

func (s *MemUserStore) SetPassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	return s.update(id, func(u *models.User) { u.Password = hash })
}

func (s *MemUserStore) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd userstore.ProfileUpdate) error {
	return s.update(id, func(u *models.User) {
		if upd.FullName != nil {
			u.FullName = *upd.FullName
		}
		if upd.Avatar != nil {
			u.Avatar = *upd.Avatar
		}
	})
}

func (s *MemUserStore) AddProvider(ctx context.Context, id primitive.ObjectID, p models.Provider, verifiedAt time.Time) (bool, error) {
	linked := false
	err := s.update(id, func(u *models.User) {
		if u.HasProvider(p.Provider) {
			return
		}
		u.Providers = append(u.Providers, p)
		at := verifiedAt.UTC()
		u.EmailVerifiedAt = &at
		linked = true
	})
	return linked, err
}

// NotifierCall records one notification the handler under test dispatched.
type NotifierCall struct {
	Kind     string // "registration", "forgot-password", "resend", "account-linking", "welcome"
	To       string
	FullName string
	Code     int
}

// RecordingNotifier captures notifications instead of sending mail.
type RecordingNotifier struct {
	mu    sync.Mutex
	Calls []NotifierCall
}

func (n *RecordingNotifier) record(kind, to, fullName string, code int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Calls = append(n.Calls, NotifierCall{Kind: kind, To: to, FullName: fullName, Code: code})
}

func (n *RecordingNotifier) RegistrationOTP(to, fullName string, code int) {
	n.record("registration", to, fullName, code)
}

func (n *RecordingNotifier) ForgotPasswordOTP(to, fullName string, code int) {
	n.record("forgot-password", to, fullName, code)
}

func (n *RecordingNotifier) ResendOTP(to, fullName string, code int) {
	n.record("resend", to, fullName, code)
}

func (n *RecordingNotifier) AccountLinkingOTP(to, fullName string, code int) {
	n.record("account-linking", to, fullName, code)
}

func (n *RecordingNotifier) Welcome(to, fullName string) {
	n.record("welcome", to, fullName, 0)
}

// Last returns the most recent call, failing the test when none happened.
func (n *RecordingNotifier) Last(t *testing.T) NotifierCall {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.Calls) == 0 {
		t.Fatal("expected a notification, got none")
	}
	return n.Calls[len(n.Calls)-1]
}

// MemStateStore is an in-memory OAuth state store.
type MemStateStore struct {
	mu     sync.Mutex
	states map[string]time.Time
}

// NewMemStateStore creates an empty state store.
func NewMemStateStore() *MemStateStore {
	return &MemStateStore{states: make(map[string]time.Time)}
}

func (s *MemStateStore) Save(ctx context.Context, state string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state] = expiresAt
	return nil
}

func (s *MemStateStore) Validate(ctx context.Context, state string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiresAt, ok := s.states[state]
	if !ok {
		return false, nil
	}
	delete(s.states, state)
	return expiresAt.After(time.Now()), nil
}

// VerifiedUser builds a verified user with a bcrypt-hashed password,
// ready to seed into a MemUserStore.
func VerifiedUser(t *testing.T, email, password string) models.User {
	t.Helper()
	hash, err := passwords.Hash(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	now := time.Now().UTC().Add(-time.Hour)
	return models.User{
		ID:              primitive.NewObjectID(),
		FullName:        "Test User",
		Email:           strings.ToLower(email),
		Password:        hash,
		EmailVerifiedAt: &now,
		IsActive:        true,
		Role:            models.RoleUser,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// UnverifiedUser builds a registered-but-unverified user holding the given
// outstanding code.
func UnverifiedUser(t *testing.T, email, password string, code int, expireAt int64) models.User {
	t.Helper()
	u := VerifiedUser(t, email, password)
	u.EmailVerifiedAt = nil
	u.OTP = &code
	u.OTPExpireAt = &expireAt
	return u
}
