package server

import (
	"time"

	"inkwell/internal/middleware"
	"inkwell/internal/pagination"

	"github.com/gofiber/fiber/v2"
)

// csrfContextKey is where the CSRF middleware stores the per-request token.
const csrfContextKey = "csrfToken"

// render merges the data every page needs (current viewer, CSRF token,
// footer year) into the handler's view data and renders the template.
func (s *Server) render(c *fiber.Ctx, template string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if _, ok := data["ViewerName"]; !ok {
		data["ViewerName"] = middleware.ActorName(c)
	}
	if token, ok := c.Locals(csrfContextKey).(string); ok {
		data["CSRFToken"] = token
	}
	data["Year"] = time.Now().Year()
	return c.Render(template, data)
}

// pageNumber extracts the 1-based page number from the query string.
func pageNumber(c *fiber.Ctx) int {
	return pagination.ParseNumber(c.Query("page"))
}

// postID extracts the :id route parameter as a positive uint. The returned
// flag is false for malformed IDs, which callers surface as not-found: the
// URL simply names no post.
func postID(c *fiber.Ctx) (uint, bool) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}

// actor returns the current authenticated user ID. Routes behind
// RequireActor always have one.
func actor(c *fiber.Ctx) uint {
	id, _ := middleware.Actor(c)
	return id
}
