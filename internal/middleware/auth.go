// Package middleware provides authentication middleware for the application.
package middleware

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// TokenCookie is the cookie that carries the signed session token.
	TokenCookie = "inkwell_session"
	// ActorIDKey is the Locals key holding the authenticated user's ID.
	ActorIDKey = "actorID"
	// ActorNameKey is the Locals key holding the authenticated user's username.
	ActorNameKey = "actorName"
	// LoginPath is where unauthenticated actors are sent, with a return-path hint.
	LoginPath = "/auth/login/"
)

// Auth validates session tokens and gates protected routes.
type Auth struct {
	secret []byte
}

// NewAuth returns auth middleware using the given signing secret.
func NewAuth(secret string) *Auth {
	return &Auth{secret: []byte(secret)}
}

// LoadActor resolves the current actor from the session cookie or an
// Authorization bearer header, when present. It never blocks the request;
// anonymous and bad-token requests simply proceed without an actor.
func (a *Auth) LoadActor(c *fiber.Ctx) error {
	token := c.Cookies(TokenCookie)
	if token == "" {
		header := c.Get(fiber.HeaderAuthorization)
		if parts := strings.Split(header, " "); len(parts) == 2 && parts[0] == "Bearer" {
			token = parts[1]
		}
	}
	if token == "" {
		return c.Next()
	}

	userID, username, ok := a.parseToken(token)
	if ok {
		c.Locals(ActorIDKey, userID)
		c.Locals(ActorNameKey, username)
	}
	return c.Next()
}

// RequireActor enforces authentication. Anonymous requests are redirected to
// the login page with the original path as a return hint. Run LoadActor first.
func (a *Auth) RequireActor(c *fiber.Ctx) error {
	if _, ok := c.Locals(ActorIDKey).(uint); !ok {
		return c.Redirect(LoginPath+"?next="+url.QueryEscape(c.OriginalURL()), fiber.StatusFound)
	}
	return c.Next()
}

func (a *Auth) parseToken(tokenString string) (uint, string, bool) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, "", false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", false
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, "", false
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return 0, "", false
	}

	username, _ := claims["username"].(string)
	return uint(userID), username, true
}

// Actor returns the authenticated user's ID, or (0, false) for anonymous
// requests.
func Actor(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals(ActorIDKey).(uint)
	return id, ok
}

// ActorName returns the authenticated user's username, or "" for anonymous
// requests.
func ActorName(c *fiber.Ctx) string {
	name, _ := c.Locals(ActorNameKey).(string)
	return name
}
