package server

import "github.com/gofiber/fiber/v2"

// AboutAuthor handles GET /about/author.
func (s *Server) AboutAuthor(c *fiber.Ctx) error {
	return s.render(c, "about/author", fiber.Map{})
}

// AboutTech handles GET /about/tech.
func (s *Server) AboutTech(c *fiber.Ctx) error {
	return s.render(c, "about/tech", fiber.Map{})
}
