package users_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/covertly/identity/internal/app/features/users"
	sysauth "github.com/covertly/identity/internal/app/system/auth"
	"github.com/covertly/identity/internal/app/system/passwords"
	"github.com/covertly/identity/internal/domain/models"
	"github.com/covertly/identity/internal/testutil"
)

const testPassword = "Sup3rSecret!"

func newTestHandler(t *testing.T) (*users.Handler, *testutil.MemUserStore, models.User) {
	t.Helper()
	store := testutil.NewMemUserStore()
	u := testutil.VerifiedUser(t, "user@example.com", testPassword)
	store.Seed(u)
	return users.NewHandler(store, zap.NewNop()), store, u
}

func authed(r *http.Request, u models.User) *http.Request {
	return sysauth.WithUser(r, &u)
}

func TestGetProfile(t *testing.T) {
	h, _, u := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.GetProfile(rec, authed(httptest.NewRequest("GET", "/user/", nil), u))

	require.Equal(t, http.StatusOK, rec.Code)
	env := testutil.DecodeEnvelope(t, rec)
	assert.Equal(t, "Profile fetched", env.Message)

	var pub models.PublicUser
	testutil.PayloadField(t, env, "user", &pub)
	assert.Equal(t, u.Email, pub.Email)
	assert.Equal(t, u.ID.Hex(), pub.ID)
	// Sensitive fields never appear in the sanitized view.
	assert.NotContains(t, rec.Body.String(), "password")
	assert.NotContains(t, rec.Body.String(), "OTP")
}

func TestGetProfile_NoUserInContext(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.GetProfile(rec, httptest.NewRequest("GET", "/user/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetByID(t *testing.T) {
	h, _, u := newTestHandler(t)

	req := testutil.WithChiURLParam(httptest.NewRequest("GET", "/user/"+u.ID.Hex(), nil), "id", u.ID.Hex())
	rec := httptest.NewRecorder()
	h.GetByID(rec, authed(req, u))

	require.Equal(t, http.StatusOK, rec.Code)
	var pub models.PublicUser
	testutil.PayloadField(t, testutil.DecodeEnvelope(t, rec), "user", &pub)
	assert.Equal(t, u.ID.Hex(), pub.ID)
}

func TestGetByID_UnknownID(t *testing.T) {
	h, _, u := newTestHandler(t)

	missing := primitive.NewObjectID().Hex()
	req := testutil.WithChiURLParam(httptest.NewRequest("GET", "/user/"+missing, nil), "id", missing)
	rec := httptest.NewRecorder()
	h.GetByID(rec, authed(req, u))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", testutil.DecodeEnvelope(t, rec).Message)
}

func TestUpdateProfile_PartialUpdate(t *testing.T) {
	h, store, u := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.UpdateProfile(rec, authed(testutil.JSONRequest(t, "PUT", "/user/", map[string]string{
		"fullName": "New Name",
	}), u))

	require.Equal(t, http.StatusOK, rec.Code)
	env := testutil.DecodeEnvelope(t, rec)
	assert.Equal(t, "Profile updated", env.Message)

	var pub models.PublicUser
	testutil.PayloadField(t, env, "user", &pub)
	assert.Equal(t, "New Name", pub.FullName)

	stored, ok := store.Get(u.ID)
	require.True(t, ok)
	assert.Equal(t, "New Name", stored.FullName)
	// Avatar was absent from the request and must be untouched.
	assert.Equal(t, u.Avatar, stored.Avatar)
}

func TestUpdateProfile_StripsMarkup(t *testing.T) {
	h, store, u := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.UpdateProfile(rec, authed(testutil.JSONRequest(t, "PUT", "/user/", map[string]string{
		"fullName": "<i>Ada</i><script>x()</script>",
	}), u))

	require.Equal(t, http.StatusOK, rec.Code)
	stored, _ := store.Get(u.ID)
	assert.Equal(t, "Ada", stored.FullName)
}

func TestUpdateProfile_EmptyNameRejected(t *testing.T) {
	h, _, u := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.UpdateProfile(rec, authed(testutil.JSONRequest(t, "PUT", "/user/", map[string]string{
		"fullName": "<script>only-markup</script>",
	}), u))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdatePassword_Success(t *testing.T) {
	h, store, u := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.UpdatePassword(rec, authed(testutil.JSONRequest(t, "PUT", "/user/password", map[string]string{
		"oldPassword": testPassword,
		"password":    "N3wPassword!",
	}), u))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Password updated", testutil.DecodeEnvelope(t, rec).Message)

	stored, _ := store.Get(u.ID)
	assert.True(t, passwords.Verify("N3wPassword!", stored.Password))
}

func TestUpdatePassword_WrongOldPassword(t *testing.T) {
	h, store, u := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.UpdatePassword(rec, authed(testutil.JSONRequest(t, "PUT", "/user/password", map[string]string{
		"oldPassword": "Wr0ngPass!",
		"password":    "N3wPassword!",
	}), u))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Invalid old password", testutil.DecodeEnvelope(t, rec).Message)

	stored, _ := store.Get(u.ID)
	assert.True(t, passwords.Verify(testPassword, stored.Password))
}

func TestUpdatePassword_WeakNewPassword(t *testing.T) {
	h, _, u := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.UpdatePassword(rec, authed(testutil.JSONRequest(t, "PUT", "/user/password", map[string]string{
		"oldPassword": testPassword,
		"password":    "short",
	}), u))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
