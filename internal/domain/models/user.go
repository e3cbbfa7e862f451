// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role values stored on a user document.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// ProviderGoogle is the provider name recorded for Google-linked identities.
const ProviderGoogle = "google"

// Provider is a social identity linked to a local account. The pair of
// provider name and provider-assigned id comes from a completed OAuth
// exchange (e.g. Google's subject id).
type Provider struct {
	ProviderID string `bson:"providerId" json:"providerId"`
	Provider   string `bson:"provider" json:"provider"`
}

// User is the central account document.
//
// Field names match the production collection: emails are stored lowercase
// and are unique across the collection. Password is a bcrypt hash and is
// absent for accounts created through social login until the owner sets one.
// OTP/OTPExpireAt describe the single outstanding one-time code; issuing a
// new code overwrites whatever was there.
type User struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	FullName        string             `bson:"fullName" json:"fullName"`
	Avatar          string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Email           string             `bson:"email" json:"email"`
	Password        string             `bson:"password,omitempty" json:"-"`
	EmailVerifiedAt *time.Time         `bson:"emailVerifiedAt,omitempty" json:"-"`
	OTP             *int               `bson:"OTP,omitempty" json:"-"`
	OTPExpireAt     *int64             `bson:"OTPExpireAt,omitempty" json:"-"`
	IsActive        bool               `bson:"isActive" json:"isActive"`
	Providers       []Provider         `bson:"providers,omitempty" json:"providers,omitempty"`
	Role            string             `bson:"role" json:"role"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
	DeletedAt       *time.Time         `bson:"deletedAt,omitempty" json:"-"`
}

// Verified reports whether the user completed email verification.
func (u *User) Verified() bool {
	return u.EmailVerifiedAt != nil
}

// HasPassword reports whether a local password hash is set. Social-origin
// accounts have none until the owner explicitly sets one.
func (u *User) HasPassword() bool {
	return u.Password != ""
}

// HasProvider reports whether a provider with the given name is already
// linked. Linear scan; provider lists are tiny.
func (u *User) HasProvider(name string) bool {
	for _, p := range u.Providers {
		if p.Provider == name {
			return true
		}
	}
	return false
}

// ProviderLinked reports whether the exact (provider, providerId) pair is
// linked to this account.
func (u *User) ProviderLinked(name, providerID string) bool {
	for _, p := range u.Providers {
		if p.Provider == name && p.ProviderID == providerID {
			return true
		}
	}
	return false
}

// PublicUser is the sanitized view of a user returned to clients. The id is
// the hex form of the Mongo ObjectID and the verification timestamp is
// stringified; password and OTP state never appear.
type PublicUser struct {
	ID              string     `json:"id"`
	FullName        string     `json:"fullName"`
	Avatar          string     `json:"avatar,omitempty"`
	Email           string     `json:"email"`
	EmailVerifiedAt string     `json:"emailVerifiedAt,omitempty"`
	IsActive        bool       `json:"isActive"`
	Role            string     `json:"role"`
	Providers       []Provider `json:"providers,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// Sanitized converts the document into its client-facing shape.
func (u *User) Sanitized() PublicUser {
	pu := PublicUser{
		ID:        u.ID.Hex(),
		FullName:  u.FullName,
		Avatar:    u.Avatar,
		Email:     u.Email,
		IsActive:  u.IsActive,
		Role:      u.Role,
		Providers: u.Providers,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if u.EmailVerifiedAt != nil {
		pu.EmailVerifiedAt = u.EmailVerifiedAt.UTC().Format(time.RFC3339)
	}
	return pu
}
