// internal/app/features/users/handler.go

// Package users serves the authenticated profile endpoints. Every route here
// sits behind the bearer-token middleware.
package users

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	userstore "github.com/covertly/identity/internal/app/store/users"
	"github.com/covertly/identity/internal/app/system/apperr"
	sysauth "github.com/covertly/identity/internal/app/system/auth"
	"github.com/covertly/identity/internal/app/system/htmlsanitize"
	"github.com/covertly/identity/internal/app/system/passwords"
	"github.com/covertly/identity/internal/app/system/respond"
	"github.com/covertly/identity/internal/app/system/timeouts"
	"github.com/covertly/identity/internal/domain/models"
)

const (
	msgProfileFetched  = "Profile fetched"
	msgProfileUpdated  = "Profile updated"
	msgPasswordUpdated = "Password updated"
)

// UserStore is the slice of the user record store the profile routes touch.
type UserStore interface {
	FindByIDHex(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, upd userstore.ProfileUpdate) error
	SetPassword(ctx context.Context, id primitive.ObjectID, hash string) error
}

// Handler holds the dependencies for the profile endpoints.
type Handler struct {
	Users UserStore
	Log   *zap.Logger
}

// NewHandler constructs the users Handler.
func NewHandler(users UserStore, logger *zap.Logger) *Handler {
	return &Handler{Users: users, Log: logger}
}

// GetProfile handles GET /user/. The middleware already resolved the caller.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	u, ok := sysauth.CurrentUser(r)
	if !ok {
		respond.Err(w, apperr.ErrUnauthorized)
		return
	}
	respond.JSON(w, http.StatusOK, msgProfileFetched, map[string]any{"user": u.Sanitized()})
}

// GetByID handles GET /user/{id}. Any authenticated caller may fetch any
// sanitized record; there is no ownership scoping on this route.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.FindByIDHex(ctx, id)
	if err == userstore.ErrNotFound {
		respond.Err(w, apperr.ErrUserNotFound)
		return
	}
	if err != nil {
		h.Log.Error("get user: find by id", zap.Error(err), zap.String("user_id", id))
		respond.Err(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, msgProfileFetched, map[string]any{"user": u.Sanitized()})
}

type updateProfileRequest struct {
	FullName *string `json:"fullName"`
	Avatar   *string `json:"avatar"`
}

// UpdateProfile handles PUT /user/. Partial update of the caller's own
// record; absent fields are left untouched.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	u, ok := sysauth.CurrentUser(r)
	if !ok {
		respond.Err(w, apperr.ErrUnauthorized)
		return
	}

	var req updateProfileRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, "Invalid request body.")
		return
	}

	upd := userstore.ProfileUpdate{}
	if req.FullName != nil {
		name := htmlsanitize.Strip(*req.FullName)
		if name == "" {
			respond.ValidationFailed(w, []string{"FullName must not be empty."})
			return
		}
		upd.FullName = &name
	}
	if req.Avatar != nil {
		avatar := htmlsanitize.Strip(*req.Avatar)
		upd.Avatar = &avatar
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Users.UpdateProfile(ctx, u.ID, upd); err != nil {
		if err == userstore.ErrNotFound {
			respond.Err(w, apperr.ErrUserNotFound)
			return
		}
		h.Log.Error("update profile", zap.Error(err), zap.String("user_id", u.ID.Hex()))
		respond.Err(w, err)
		return
	}

	updated, err := h.Users.FindByIDHex(ctx, u.ID.Hex())
	if err != nil {
		h.Log.Error("update profile: reload user", zap.Error(err), zap.String("user_id", u.ID.Hex()))
		respond.Err(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, msgProfileUpdated, map[string]any{"user": updated.Sanitized()})
}

type updatePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	Password    string `json:"password"`
}

// UpdatePassword handles PUT /user/password. The old password must verify
// against the stored hash before the new one is accepted.
func (h *Handler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	u, ok := sysauth.CurrentUser(r)
	if !ok {
		respond.Err(w, apperr.ErrUnauthorized)
		return
	}

	var req updatePasswordRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, "Invalid request body.")
		return
	}
	if problems := passwords.CheckPolicy(req.Password); len(problems) > 0 {
		respond.ValidationFailed(w, problems)
		return
	}

	if !passwords.Verify(req.OldPassword, u.Password) {
		respond.Err(w, apperr.ErrInvalidOldPassword)
		return
	}

	hash, err := passwords.Hash(req.Password)
	if err != nil {
		h.Log.Error("update password: hash", zap.Error(err))
		respond.Err(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Users.SetPassword(ctx, u.ID, hash); err != nil {
		if err == userstore.ErrNotFound {
			respond.Err(w, apperr.ErrUserNotFound)
			return
		}
		h.Log.Error("update password: set", zap.Error(err), zap.String("user_id", u.ID.Hex()))
		respond.Err(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, msgPasswordUpdated, nil)
}
