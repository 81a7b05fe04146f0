package server

import (
	"inkwell/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// Index handles GET / — the global feed of all posts.
func (s *Server) Index(c *fiber.Ctx) error {
	feed, err := s.feedService.Global(c.Context(), pageNumber(c))
	if err != nil {
		return err
	}

	return s.render(c, "index", fiber.Map{
		"Posts": feed.Posts,
		"Page":  feed.Page,
	})
}

// GroupFeed handles GET /group/:slug — posts filed under one group.
func (s *Server) GroupFeed(c *fiber.Ctx) error {
	feed, err := s.feedService.Group(c.Context(), c.Params("slug"), pageNumber(c))
	if err != nil {
		return err
	}

	return s.render(c, "group_list", fiber.Map{
		"Group": feed.Group,
		"Posts": feed.Posts,
		"Page":  feed.Page,
	})
}

// Profile handles GET /profile/:username — one author's posts, with the
// viewer's follow relationship resolved (anonymous viewers never follow).
func (s *Server) Profile(c *fiber.Ctx) error {
	viewerID, _ := middleware.Actor(c)

	feed, err := s.feedService.Profile(c.Context(), c.Params("username"), pageNumber(c), viewerID)
	if err != nil {
		return err
	}

	return s.render(c, "profile", fiber.Map{
		"Author":         feed.Author,
		"Following":      feed.Following,
		"Followers":      feed.Followers,
		"FollowingCount": feed.FollowingCount,
		"Posts":          feed.Posts,
		"Page":           feed.Page,
		"IsSelf":         viewerID != 0 && viewerID == feed.Author.ID,
	})
}

// FollowIndex handles GET /follow — posts from authors the viewer follows.
func (s *Server) FollowIndex(c *fiber.Ctx) error {
	feed, err := s.feedService.Followed(c.Context(), actor(c), pageNumber(c))
	if err != nil {
		return err
	}

	return s.render(c, "follow", fiber.Map{
		"Posts": feed.Posts,
		"Page":  feed.Page,
	})
}
