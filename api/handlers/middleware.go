package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	errs "github.com/cleardesk/cleardesk/pkg/errors"
)

// Context keys set by the auth middleware
const (
	ctxEmployeeEmail = "employee_email"
	ctxIsAdmin       = "is_admin"
)

// AuthMiddleware validates the bearer token issued by the SSO exchange and
// exposes the employee identity to handlers. Full SSO is handled upstream;
// this only verifies the portal-issued session token.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			errs.HandleError(c, errs.Unauthorized("missing bearer token"))
			return
		}

		token, err := jwt.Parse(strings.TrimPrefix(header, "Bearer "), func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(jwtSecret), nil
		})
		if err != nil || !token.Valid {
			errs.HandleError(c, errs.Unauthorized("invalid or expired token"))
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			errs.HandleError(c, errs.Unauthorized("invalid token claims"))
			return
		}
		email, _ := claims["email"].(string)
		if email == "" {
			errs.HandleError(c, errs.Unauthorized("token has no email claim"))
			return
		}
		isAdmin, _ := claims["admin"].(bool)

		c.Set(ctxEmployeeEmail, email)
		c.Set(ctxIsAdmin, isAdmin)
		c.Next()
	}
}

// RequireAdmin rejects non-admin callers.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(ctxIsAdmin) {
			errs.HandleError(c, errs.Forbidden("administrator access required"))
			return
		}
		c.Next()
	}
}

func employeeEmail(c *gin.Context) string {
	return c.GetString(ctxEmployeeEmail)
}

func isAdmin(c *gin.Context) bool {
	return c.GetBool(ctxIsAdmin)
}
