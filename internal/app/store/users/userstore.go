// internal/app/store/users/userstore.go

// Package userstore is the Mongo-backed User Record Store. Every flow in
// the service touches exactly one user document at a time, so the API is a
// set of atomic single-document find/update operations. Concurrent writers
// race with last-write-wins semantics on the OTP fields; that weak spot is
// accepted and documented in DESIGN.md.
package userstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/covertly/identity/internal/domain/models"
)

var (
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when an insert collides with the unique
	// email index.
	ErrDuplicateEmail = errors.New("email already registered")
)

// Store manages the users collection.
type Store struct {
	c *mongo.Collection
}

// New creates a Store over the given database.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// FindByEmail looks up a user by email. The stored email is lowercase, so
// the lookup folds its argument first.
func (s *Store) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": strings.ToLower(email)})
}

// FindByIDHex looks up a user by the hex form of its ObjectID. A malformed
// id behaves like a miss.
func (s *Store) FindByIDHex(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

// FindByOTP looks up the user holding the given outstanding code.
func (s *Store) FindByOTP(ctx context.Context, code int) (*models.User, error) {
	return s.findOne(ctx, bson.M{"OTP": code})
}

// FindByEmailOTP looks up a user by the (email, code) pair.
func (s *Store) FindByEmailOTP(ctx context.Context, email string, code int) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": strings.ToLower(email), "OTP": code})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, filter).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

// Insert persists a new user. It fills in ID and timestamps and folds the
// email to lowercase. Collisions with the unique email index surface as
// ErrDuplicateEmail.
func (s *Store) Insert(ctx context.Context, u *models.User) error {
	now := time.Now().UTC()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.Email = strings.ToLower(u.Email)
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// SetOTP stores a fresh one-time code and its absolute expiry, overwriting
// any outstanding code.
func (s *Store) SetOTP(ctx context.Context, id primitive.ObjectID, code int, expireAt int64) error {
	return s.setFields(ctx, id, bson.M{"OTP": code, "OTPExpireAt": expireAt})
}

// MarkEmailVerified records the verification timestamp.
func (s *Store) MarkEmailVerified(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	return s.setFields(ctx, id, bson.M{"emailVerifiedAt": at.UTC()})
}

// SetPassword stores a new password hash.
func (s *Store) SetPassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	return s.setFields(ctx, id, bson.M{"password": hash})
}

// ProfileUpdate is a partial profile edit; nil fields are untouched.
type ProfileUpdate struct {
	FullName *string
	Avatar   *string
}

// UpdateProfile applies a partial update to the user's own record. It
// returns ErrNotFound when the update matches no document.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) error {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if upd.FullName != nil {
		set["fullName"] = *upd.FullName
	}
	if upd.Avatar != nil {
		set["avatar"] = *upd.Avatar
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddProvider appends a social provider to the user's provider list and
// marks the email verified in the same atomic update. The filter guards
// against linking the same provider name twice: when the provider is
// already present the update matches nothing and linked is false.
func (s *Store) AddProvider(ctx context.Context, id primitive.ObjectID, p models.Provider, verifiedAt time.Time) (linked bool, err error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{
			"_id":                id,
			"providers.provider": bson.M{"$ne": p.Provider},
		},
		bson.M{
			"$push": bson.M{"providers": p},
			"$set": bson.M{
				"emailVerifiedAt": verifiedAt.UTC(),
				"updatedAt":       time.Now().UTC(),
			},
		},
	)
	if err != nil {
		return false, fmt.Errorf("add provider: %w", err)
	}
	return res.ModifiedCount > 0, nil
}

func (s *Store) setFields(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	set["updatedAt"] = time.Now().UTC()
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
