package utilities

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"enquete-backend/internal/model"
)

type accountKey struct{}

const accountContextKey = "account"

// WithAccount stores the caller identity in ctx.
func WithAccount(ctx context.Context, account *model.Account) context.Context {
	return context.WithValue(ctx, accountKey{}, account)
}

// AccountFromContext returns the identity stored by the auth middleware, or
// nil for anonymous callers.
func AccountFromContext(ctx context.Context) *model.Account {
	account, _ := ctx.Value(accountKey{}).(*model.Account)
	return account
}

// IdentityFromRequest reads a bearer token from the Authorization header or,
// when cookieName is set, from that cookie. No token yields a nil account and
// a nil error.
func IdentityFromRequest(r *http.Request, issuer *TokenIssuer, cookieName string) (*model.Account, error) {
	tokenStr := ""
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return nil, ErrInvalidToken
		}
		tokenStr = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	} else if cookieName != "" {
		if cookie, err := r.Cookie(cookieName); err == nil {
			tokenStr = cookie.Value
		}
	}
	if tokenStr == "" {
		return nil, nil
	}

	claims, err := issuer.ValidateToken(tokenStr)
	if err != nil {
		return nil, err
	}
	return claims.Account(), nil
}

// AuthMiddleware attaches the caller identity when a token is present.
// Requests without a token continue anonymously; a bad token is rejected.
func AuthMiddleware(issuer *TokenIssuer, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, err := IdentityFromRequest(c.Request, issuer, cookieName)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}
		if account != nil {
			c.Set(accountContextKey, account)
			c.Request = c.Request.WithContext(WithAccount(c.Request.Context(), account))
		}
		c.Next()
	}
}

// WebAuthMiddleware is AuthMiddleware for HTML pages. A bad token does not
// block the page: the request continues anonymously and the cookie is
// cleared so the browser stops sending it.
func WebAuthMiddleware(issuer *TokenIssuer, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, err := IdentityFromRequest(c.Request, issuer, cookieName)
		if err != nil {
			Warn("ignoring invalid token on %s: %v", c.Request.URL.Path, err)
			if cookieName != "" {
				c.SetCookie(cookieName, "", -1, "/", "", false, true)
			}
			c.Next()
			return
		}
		if account != nil {
			c.Set(accountContextKey, account)
			c.Request = c.Request.WithContext(WithAccount(c.Request.Context(), account))
		}
		c.Next()
	}
}

// HTTPAuthMiddleware is the net/http form of AuthMiddleware.
func HTTPAuthMiddleware(issuer *TokenIssuer, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account, err := IdentityFromRequest(r, issuer, cookieName)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"invalid or expired token"}`))
				return
			}
			if account != nil {
				r = r.WithContext(WithAccount(r.Context(), account))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CurrentAccount returns the identity set by AuthMiddleware, or nil.
func CurrentAccount(c *gin.Context) *model.Account {
	if v, ok := c.Get(accountContextKey); ok {
		if account, ok := v.(*model.Account); ok {
			return account
		}
	}
	return nil
}
