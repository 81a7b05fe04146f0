package server

import (
	"strconv"

	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
)

// AddComment handles POST /posts/:id/comment. A valid submission creates a
// comment by the current actor on the post; an invalid one creates nothing.
// Either way the browser returns to the post detail page.
func (s *Server) AddComment(c *fiber.Ctx) error {
	id, ok := postID(c)
	if !ok {
		return models.NewNotFoundError("Post", c.Params("id"))
	}

	_, err := s.commentService.Add(c.Context(), id, actor(c), c.FormValue("text"))
	if err != nil && models.ErrorCode(err) != models.CodeValidation {
		return err
	}

	return c.Redirect("/posts/"+strconv.FormatUint(uint64(id), 10), fiber.StatusFound)
}
