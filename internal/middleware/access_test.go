package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/studyhub-dev/study-portal-api/internal/models"
)

type fakeUserSource struct {
	users map[string]models.User
}

func (f fakeUserSource) UserByID(id string) (models.User, bool) {
	user, ok := f.users[id]
	return user, ok
}

type fakeAdminChecker struct {
	emails map[string]bool
}

func (f fakeAdminChecker) IsAdminEmail(email string) bool {
	return f.emails[email]
}

func performWithClaims(handler gin.HandlerFunc, claims *models.JWTClaims) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", func(c *gin.Context) {
		if claims != nil {
			c.Set(ContextUserKey, claims)
		}
		c.Next()
	}, handler, func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	router.ServeHTTP(rec, req)
	return rec
}

func TestNotBannedAllowsActiveUser(t *testing.T) {
	users := fakeUserSource{users: map[string]models.User{
		"u1": {ID: "u1", IsBanned: false},
	}}
	rec := performWithClaims(NotBanned(users), &models.JWTClaims{UserID: "u1"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNotBannedBlocksBannedUser(t *testing.T) {
	users := fakeUserSource{users: map[string]models.User{
		"u1": {ID: "u1", IsBanned: true},
	}}
	rec := performWithClaims(NotBanned(users), &models.JWTClaims{UserID: "u1"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "ACCOUNT_BANNED")
}

func TestNotBannedBlocksBanIssuedAfterToken(t *testing.T) {
	// The claims say student in good standing; the live record says banned.
	users := fakeUserSource{users: map[string]models.User{
		"u1": {ID: "u1", IsBanned: true},
	}}
	claims := &models.JWTClaims{UserID: "u1", Role: models.RoleStudent}
	rec := performWithClaims(NotBanned(users), claims)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestNotBannedRequiresClaims(t *testing.T) {
	rec := performWithClaims(NotBanned(fakeUserSource{}), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAdminByStoredRole(t *testing.T) {
	users := fakeUserSource{users: map[string]models.User{
		"u1": {ID: "u1", Role: models.RoleAdmin, Email: "admin@example.com"},
	}}
	rec := performWithClaims(RequireAdmin(users, fakeAdminChecker{}), &models.JWTClaims{UserID: "u1", Role: models.RoleStudent})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAdminByAllowList(t *testing.T) {
	users := fakeUserSource{users: map[string]models.User{
		"u1": {ID: "u1", Role: models.RoleStudent, Email: "principal@example.com"},
	}}
	admins := fakeAdminChecker{emails: map[string]bool{"principal@example.com": true}}
	rec := performWithClaims(RequireAdmin(users, admins), &models.JWTClaims{UserID: "u1", Role: models.RoleStudent})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAdminLiveDemotionWins(t *testing.T) {
	// Token still claims admin; the live record was demoted to student.
	users := fakeUserSource{users: map[string]models.User{
		"u1": {ID: "u1", Role: models.RoleStudent, Email: "user@example.com"},
	}}
	rec := performWithClaims(RequireAdmin(users, fakeAdminChecker{}), &models.JWTClaims{UserID: "u1", Role: models.RoleAdmin})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAdminBlocksBannedAdmin(t *testing.T) {
	users := fakeUserSource{users: map[string]models.User{
		"u1": {ID: "u1", Role: models.RoleAdmin, IsBanned: true},
	}}
	rec := performWithClaims(RequireAdmin(users, fakeAdminChecker{}), &models.JWTClaims{UserID: "u1"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAdminBlocksStudent(t *testing.T) {
	users := fakeUserSource{users: map[string]models.User{
		"u1": {ID: "u1", Role: models.RoleStudent, Email: "user@example.com"},
	}}
	rec := performWithClaims(RequireAdmin(users, fakeAdminChecker{}), &models.JWTClaims{UserID: "u1", Role: models.RoleStudent})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
