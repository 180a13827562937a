package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/streamhive/user-service/internal/adapters/transport/http/respond"
	"github.com/streamhive/user-service/internal/app/token"
	"github.com/streamhive/user-service/internal/domain/user/apperr"
	"github.com/streamhive/user-service/internal/domain/user/model"
	"github.com/streamhive/user-service/internal/domain/user/repo"
)

// AccessCookie is where the access token travels for browser clients;
// API clients use the Authorization header instead.
const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"

	principalKey = "auth.principal"
	fullUserKey  = "auth.user"
)

// Authenticate extracts and verifies the access token, then attaches the
// claims as the request principal. No storage round-trip happens here.
func Authenticate(tokens *token.Service, dev bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := extractToken(c)
		if raw == "" {
			respond.Fail(c, apperr.New(apperr.Unauthorized, "authentication required"), dev)
			return
		}

		principal, err := tokens.VerifyAccess(raw)
		if err != nil {
			respond.Fail(c, err, dev)
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// AttachFullUser re-fetches the live record for handlers that need more
// than claims. A token for a deleted account fails here even though it
// is still cryptographically valid.
func AttachFullUser(users repo.UserRepo, dev bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := Principal(c)
		if !ok {
			respond.Fail(c, apperr.New(apperr.Unauthorized, "authentication required"), dev)
			return
		}

		u, err := users.GetByID(c.Request.Context(), principal.UserID)
		if err != nil {
			if apperr.IsNotFound(err) {
				err = apperr.New(apperr.Unauthorized, "user not found or has been deleted")
			}
			respond.Fail(c, err, dev)
			return
		}

		c.Set(fullUserKey, u)
		c.Next()
	}
}

// RequireRole gates a route to principals whose role is on the allow-list.
func RequireRole(dev bool, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := Principal(c)
		if !ok || principal.Role == "" {
			respond.Fail(c, apperr.New(apperr.Forbidden, "access denied"), dev)
			return
		}

		for _, r := range roles {
			if principal.Role == r {
				c.Next()
				return
			}
		}
		respond.Fail(c, apperr.New(apperr.Forbidden, "insufficient permissions"), dev)
	}
}

func Principal(c *gin.Context) (model.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return model.Principal{}, false
	}
	p, ok := v.(model.Principal)
	return p, ok
}

func FullUser(c *gin.Context) (model.User, bool) {
	v, ok := c.Get(fullUserKey)
	if !ok {
		return model.User{}, false
	}
	u, ok := v.(model.User)
	return u, ok
}

func extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie(AccessCookie); err == nil && cookie != "" {
		return cookie
	}
	auth := c.GetHeader("Authorization")
	if after, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return ""
}
