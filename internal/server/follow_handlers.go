package server

import (
	"github.com/gofiber/fiber/v2"
)

// FollowAuthor handles POST /profile/:username/follow. Creating an edge that
// already exists, or targeting yourself, is a no-op; the browser lands on
// the target's profile either way.
func (s *Server) FollowAuthor(c *fiber.Ctx) error {
	author, err := s.followService.Follow(c.Context(), actor(c), c.Params("username"))
	if err != nil {
		return err
	}
	return c.Redirect("/profile/"+author.Username, fiber.StatusFound)
}

// UnfollowAuthor handles POST /profile/:username/unfollow. Unlike follow,
// removing an edge that does not exist is a not-found error.
func (s *Server) UnfollowAuthor(c *fiber.Ctx) error {
	author, err := s.followService.Unfollow(c.Context(), actor(c), c.Params("username"))
	if err != nil {
		return err
	}
	return c.Redirect("/profile/"+author.Username, fiber.StatusFound)
}
