package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/studyhub-dev/study-portal-api/internal/models"
	appErrors "github.com/studyhub-dev/study-portal-api/pkg/errors"
	"github.com/studyhub-dev/study-portal-api/pkg/response"
)

// UserSource resolves live user state. Backed by the state store so ban and
// role changes take effect on the next request, not the next token issue.
type UserSource interface {
	UserByID(id string) (models.User, bool)
}

// AdminChecker decides whether an email belongs to the admin allow-list.
type AdminChecker interface {
	IsAdminEmail(email string) bool
}

// NotBanned blocks banned accounts. The gate checks the live user record,
// so a ban lands even while previously issued tokens are still valid.
func NotBanned(users UserSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if user, found := users.UserByID(claims.UserID); found && user.IsBanned {
			response.Error(c, appErrors.ErrBanned)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin restricts a route to admins. A user qualifies through the
// stored admin role or through the configured email allow-list; the live
// record wins over token claims in both directions.
func RequireAdmin(users UserSource, admins AdminChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		role := claims.Role
		email := claims.Email
		if user, found := users.UserByID(claims.UserID); found {
			if user.IsBanned {
				response.Error(c, appErrors.ErrBanned)
				c.Abort()
				return
			}
			role = user.Role
			email = user.Email
		}

		if role == models.RoleAdmin || (admins != nil && admins.IsAdminEmail(email)) {
			c.Next()
			return
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}
