package webserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/ZIKOpl/SITE-VOUCH/src/api/types"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	sessionCookie = "session"
	sessionTTL    = 7 * 24 * time.Hour
	principalKey  = "principal"
)

func issueSession(p types.Principal, secret []byte) (string, error) {
	claims := jwt.MapClaims{
		"id":     p.ID,
		"tag":    p.Tag,
		"avatar": p.Avatar,
		"admin":  p.Admin,
		"exp":    time.Now().Add(sessionTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func parseSession(token string, secret []byte) (types.Principal, bool) {
	tok, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) { return secret, nil })
	if err != nil || !tok.Valid {
		return types.Principal{}, false
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return types.Principal{}, false
	}
	p := types.Principal{}
	p.ID, _ = claims["id"].(string)
	p.Tag, _ = claims["tag"].(string)
	p.Avatar, _ = claims["avatar"].(string)
	p.Admin, _ = claims["admin"].(bool)
	if p.ID == "" {
		return types.Principal{}, false
	}
	return p, true
}

// Principals attaches the session principal to the context when a valid
// token is present in the session cookie or Authorization header. It never
// rejects; the Require* guards do.
func Principals(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(sessionCookie)
		if err != nil || token == "" {
			if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
				token = h[7:]
			}
		}
		if token != "" {
			if p, ok := parseSession(token, secret); ok {
				c.Set(principalKey, p)
			}
		}
		c.Next()
	}
}

func principalFrom(c *gin.Context) (types.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return types.Principal{}, false
	}
	p, ok := v.(types.Principal)
	return p, ok
}

// RequireAuthenticated redirects anonymous requests to the Discord login.
func RequireAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := principalFrom(c); !ok {
			c.Redirect(http.StatusFound, "/auth/discord")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects principals without the guild administrator bit. It
// implies RequireAuthenticated.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principalFrom(c)
		if !ok {
			c.Redirect(http.StatusFound, "/auth/discord")
			c.Abort()
			return
		}
		if !p.Admin {
			c.JSON(http.StatusForbidden, gin.H{"ok": false, "message": "admin required"})
			c.Abort()
			return
		}
		c.Next()
	}
}
