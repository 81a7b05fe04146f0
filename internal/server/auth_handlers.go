package server

import (
	"strconv"
	"strings"
	"time"

	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const sessionTTL = 72 * time.Hour

// generateToken creates a signed session token for the user.
func (s *Server) generateToken(userID uint, username string) (string, error) {
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(userID), 10),
		"username": username,
		"iat":      time.Now().Unix(),
		"exp":      time.Now().Add(sessionTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

func (s *Server) setSessionCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Expires:  time.Now().Add(sessionTTL),
		HTTPOnly: true,
		SameSite: "Lax",
	})
}

func (s *Server) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: "Lax",
	})
}

// safeNext keeps the post-login redirect inside the application: only
// same-site absolute paths are honored.
func safeNext(next string) string {
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") {
		return next
	}
	return "/"
}

// SignupPage handles GET /auth/signup.
func (s *Server) SignupPage(c *fiber.Ctx) error {
	return s.render(c, "auth/signup", fiber.Map{})
}

// Signup handles POST /auth/signup: create the account, start a session,
// land on the global feed.
func (s *Server) Signup(c *fiber.Ctx) error {
	user, err := s.accountService.Signup(c.Context(), service.SignupInput{
		Username:  c.FormValue("username"),
		Email:     c.FormValue("email"),
		Password:  c.FormValue("password"),
		FirstName: c.FormValue("first_name"),
		LastName:  c.FormValue("last_name"),
	})
	if err != nil {
		if models.ErrorCode(err) == models.CodeValidation {
			return s.render(c, "auth/signup", fiber.Map{
				"Error":    err.Error(),
				"Username": c.FormValue("username"),
				"Email":    c.FormValue("email"),
			})
		}
		return err
	}

	token, err := s.generateToken(user.ID, user.Username)
	if err != nil {
		return models.NewInternalError(err)
	}
	s.setSessionCookie(c, token)
	return c.Redirect("/", fiber.StatusFound)
}

// LoginPage handles GET /auth/login.
func (s *Server) LoginPage(c *fiber.Ctx) error {
	return s.render(c, "auth/login", fiber.Map{
		"Next": c.Query("next"),
	})
}

// Login handles POST /auth/login. On success the browser returns to the
// page that required authentication, when one was recorded.
func (s *Server) Login(c *fiber.Ctx) error {
	user, err := s.accountService.Authenticate(c.Context(), c.FormValue("username"), c.FormValue("password"))
	if err != nil {
		if models.ErrorCode(err) == models.CodeUnauthorized {
			return s.render(c, "auth/login", fiber.Map{
				"Error":    "Invalid username or password",
				"Username": c.FormValue("username"),
				"Next":     c.FormValue("next"),
			})
		}
		return err
	}

	token, err := s.generateToken(user.ID, user.Username)
	if err != nil {
		return models.NewInternalError(err)
	}
	s.setSessionCookie(c, token)
	return c.Redirect(safeNext(c.FormValue("next")), fiber.StatusFound)
}

// Logout handles GET /auth/logout.
func (s *Server) Logout(c *fiber.Ctx) error {
	s.clearSessionCookie(c)
	return c.Redirect("/", fiber.StatusFound)
}

// PasswordResetPage handles GET /auth/password_reset.
func (s *Server) PasswordResetPage(c *fiber.Ctx) error {
	return s.render(c, "auth/password_reset", fiber.Map{})
}

// PasswordReset handles POST /auth/password_reset. Mail delivery belongs to
// an external collaborator; the confirmation page renders regardless of
// whether the address is registered, so the form leaks no account existence.
func (s *Server) PasswordReset(c *fiber.Ctx) error {
	return s.render(c, "auth/password_reset_done", fiber.Map{})
}
