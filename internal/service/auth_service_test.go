package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhub-dev/study-portal-api/internal/models"
	appErrors "github.com/studyhub-dev/study-portal-api/pkg/errors"
)

const testAssertionSecret = "assertion-secret"

type mockAuthRepo struct {
	users          map[string]*models.User
	refreshTokens  map[string]*models.RefreshToken
	created        []*models.User
	profileUpdates []string
	revoked        []string
	audits         []*models.AuditLog
}

func newMockAuthRepo() *mockAuthRepo {
	return &mockAuthRepo{
		users:         map[string]*models.User{},
		refreshTokens: map[string]*models.RefreshToken{},
	}
}

func (m *mockAuthRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (m *mockAuthRepo) Create(_ context.Context, user *models.User) error {
	m.users[user.ID] = user
	m.created = append(m.created, user)
	return nil
}

func (m *mockAuthRepo) UpdateProfile(_ context.Context, id, displayName, photoURL string) error {
	if user, ok := m.users[id]; ok {
		user.DisplayName = displayName
		user.PhotoURL = photoURL
	}
	m.profileUpdates = append(m.profileUpdates, id)
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(_ context.Context, token *models.RefreshToken) error {
	m.refreshTokens[token.Token] = token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(_ context.Context, token string) (*models.RefreshToken, error) {
	stored, ok := m.refreshTokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *stored
	return &clone, nil
}

func (m *mockAuthRepo) RevokeRefreshToken(_ context.Context, id string, _ time.Time) error {
	for _, token := range m.refreshTokens {
		if token.ID == id {
			token.Revoked = true
		}
	}
	m.revoked = append(m.revoked, id)
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(_ context.Context, userID string) error {
	for _, token := range m.refreshTokens {
		if token.UserID == userID {
			token.Revoked = true
		}
	}
	return nil
}

func (m *mockAuthRepo) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	m.audits = append(m.audits, log)
	return nil
}

type allowListChecker struct {
	emails map[string]bool
}

func (c allowListChecker) IsAdminEmail(email string) bool {
	return c.emails[strings.ToLower(email)]
}

func newAuthFixture(repo *mockAuthRepo) *AuthService {
	return NewAuthService(repo, allowListChecker{emails: map[string]bool{"principal@example.com": true}}, nil, nil, nil, AuthConfig{
		AssertionSecret:    testAssertionSecret,
		AccessTokenSecret:  "access-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "study-portal",
	})
}

func signAssertion(t *testing.T, claims models.AssertionClaims) string {
	t.Helper()
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Minute))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testAssertionSecret))
	require.NoError(t, err)
	return signed
}

func TestLoginRegistersNewStudent(t *testing.T) {
	repo := newMockAuthRepo()
	svc := newAuthFixture(repo)

	assertion := signAssertion(t, models.AssertionClaims{
		UID: "uid-1", Email: "asha@example.com", DisplayName: "Asha", PhotoURL: "https://photos/1",
	})
	resp, err := svc.Login(context.Background(), models.LoginRequest{Assertion: assertion})
	require.NoError(t, err)

	require.Len(t, repo.created, 1)
	assert.Equal(t, models.RoleStudent, repo.created[0].Role)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.False(t, resp.User.IsAdmin)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
}

func TestLoginRefreshesProfileForKnownUser(t *testing.T) {
	repo := newMockAuthRepo()
	repo.users["uid-1"] = &models.User{ID: "uid-1", DisplayName: "Old Name", Email: "asha@example.com", Role: models.RoleStudent}
	svc := newAuthFixture(repo)

	assertion := signAssertion(t, models.AssertionClaims{UID: "uid-1", Email: "asha@example.com", DisplayName: "New Name"})
	resp, err := svc.Login(context.Background(), models.LoginRequest{Assertion: assertion})
	require.NoError(t, err)

	assert.Empty(t, repo.created)
	assert.Equal(t, []string{"uid-1"}, repo.profileUpdates)
	assert.Equal(t, "New Name", resp.User.DisplayName)
}

func TestLoginAllowListGrantsAdmin(t *testing.T) {
	repo := newMockAuthRepo()
	svc := newAuthFixture(repo)

	assertion := signAssertion(t, models.AssertionClaims{UID: "uid-2", Email: "principal@example.com", DisplayName: "Principal"})
	resp, err := svc.Login(context.Background(), models.LoginRequest{Assertion: assertion})
	require.NoError(t, err)

	assert.Equal(t, models.RoleStudent, resp.User.Role)
	assert.True(t, resp.User.IsAdmin)
}

func TestLoginRejectsBannedAccount(t *testing.T) {
	repo := newMockAuthRepo()
	repo.users["uid-1"] = &models.User{ID: "uid-1", Email: "asha@example.com", IsBanned: true}
	svc := newAuthFixture(repo)

	assertion := signAssertion(t, models.AssertionClaims{UID: "uid-1", Email: "asha@example.com"})
	_, err := svc.Login(context.Background(), models.LoginRequest{Assertion: assertion})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrBanned.Code, appErr.Code)
}

func TestLoginRejectsForgedAssertion(t *testing.T) {
	repo := newMockAuthRepo()
	svc := newAuthFixture(repo)

	claims := models.AssertionClaims{UID: "uid-1", Email: "asha@example.com"}
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Minute))
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	forged, err := token.SignedString([]byte("wrong-secret"))
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), models.LoginRequest{Assertion: forged})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestLoginRejectsAssertionWithoutIdentity(t *testing.T) {
	repo := newMockAuthRepo()
	svc := newAuthFixture(repo)

	assertion := signAssertion(t, models.AssertionClaims{DisplayName: "Nameless"})
	_, err := svc.Login(context.Background(), models.LoginRequest{Assertion: assertion})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestRefreshRotatesToken(t *testing.T) {
	repo := newMockAuthRepo()
	repo.users["uid-1"] = &models.User{ID: "uid-1", Email: "asha@example.com", Role: models.RoleStudent}
	repo.refreshTokens["old-token"] = &models.RefreshToken{
		ID: "rt-1", UserID: "uid-1", Token: "old-token",
		ExpiresAt: time.Now().Add(time.Hour), CreatedAt: time.Now(),
	}
	svc := newAuthFixture(repo)

	resp, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "old-token"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEqual(t, "old-token", resp.RefreshToken)
	assert.Equal(t, []string{"rt-1"}, repo.revoked)
}

func TestRefreshRejectsExpiredToken(t *testing.T) {
	repo := newMockAuthRepo()
	repo.users["uid-1"] = &models.User{ID: "uid-1"}
	repo.refreshTokens["stale"] = &models.RefreshToken{
		ID: "rt-1", UserID: "uid-1", Token: "stale",
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	svc := newAuthFixture(repo)

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "stale"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestLogoutRevokesOwnToken(t *testing.T) {
	repo := newMockAuthRepo()
	repo.refreshTokens["tok"] = &models.RefreshToken{ID: "rt-1", UserID: "uid-1", Token: "tok", ExpiresAt: time.Now().Add(time.Hour)}
	svc := newAuthFixture(repo)

	require.NoError(t, svc.Logout(context.Background(), "tok", "uid-1", models.LoginRequest{}))
	assert.Equal(t, []string{"rt-1"}, repo.revoked)
}

func TestLogoutRejectsForeignToken(t *testing.T) {
	repo := newMockAuthRepo()
	repo.refreshTokens["tok"] = &models.RefreshToken{ID: "rt-1", UserID: "uid-2", Token: "tok", ExpiresAt: time.Now().Add(time.Hour)}
	svc := newAuthFixture(repo)

	err := svc.Logout(context.Background(), "tok", "uid-1", models.LoginRequest{})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestValidateTokenRoundTrip(t *testing.T) {
	repo := newMockAuthRepo()
	svc := newAuthFixture(repo)

	assertion := signAssertion(t, models.AssertionClaims{UID: "uid-1", Email: "asha@example.com"})
	resp, err := svc.Login(context.Background(), models.LoginRequest{Assertion: assertion})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
}

func TestIsAdminStoredRoleWins(t *testing.T) {
	svc := newAuthFixture(newMockAuthRepo())

	assert.True(t, svc.IsAdmin(&models.User{Role: models.RoleAdmin, Email: "someone@example.com"}))
	assert.True(t, svc.IsAdmin(&models.User{Role: models.RoleStudent, Email: "PRINCIPAL@example.com"}))
	assert.False(t, svc.IsAdmin(&models.User{Role: models.RoleStudent, Email: "someone@example.com"}))
	assert.False(t, svc.IsAdmin(nil))
}
