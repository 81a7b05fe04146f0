package server

import (
	"errors"
	"strconv"
	"strings"

	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// postForm is the typed view model for the create/edit form: submitted
// values plus per-field messages for redisplay.
type postForm struct {
	Text    string
	GroupID string
	Errors  map[string]string
}

func (f *postForm) fail(field, message string) {
	if f.Errors == nil {
		f.Errors = map[string]string{}
	}
	f.Errors[field] = message
}

// parsePostForm reads the submitted fields and runs the handler-level
// checks that map onto individual form fields.
func parsePostForm(c *fiber.Ctx) (*postForm, *uint) {
	form := &postForm{
		Text:    c.FormValue("text"),
		GroupID: strings.TrimSpace(c.FormValue("group")),
	}

	if strings.TrimSpace(form.Text) == "" {
		form.fail("Text", "Text is required")
	}

	var groupID *uint
	if form.GroupID != "" {
		id, err := strconv.ParseUint(form.GroupID, 10, 32)
		if err != nil {
			form.fail("Group", "Choose a valid group")
		} else {
			v := uint(id)
			groupID = &v
		}
	}
	return form, groupID
}

// saveImage stores an optional uploaded image and returns its media path.
// A missing file field is not an error.
func (s *Server) saveImage(c *fiber.Ctx, form *postForm) string {
	file, err := c.FormFile("image")
	if err != nil || file == nil {
		return ""
	}
	path, err := s.fileStore.SavePostImage(file)
	if err != nil {
		form.fail("Image", "Could not store the image: unsupported type")
		return ""
	}
	return path
}

func (s *Server) renderPostForm(c *fiber.Ctx, form *postForm, isEdit bool, postID uint) error {
	groups, err := s.groupRepo.List(c.Context())
	if err != nil {
		return err
	}
	// Validation failures re-render with HTTP success status; the page is
	// the form itself, not an error page.
	return s.render(c, "post_form", fiber.Map{
		"Form":   form,
		"Groups": groups,
		"IsEdit": isEdit,
		"PostID": postID,
	})
}

// NewPost handles GET /create — the empty post form.
func (s *Server) NewPost(c *fiber.Ctx) error {
	return s.renderPostForm(c, &postForm{}, false, 0)
}

// CreatePost handles POST /create. On success the actor becomes the author
// and the browser lands on their profile feed.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	form, groupID := parsePostForm(c)
	image := s.saveImage(c, form)
	if len(form.Errors) > 0 {
		return s.renderPostForm(c, form, false, 0)
	}

	_, err := s.postService.Create(c.Context(), actor(c), service.PostInput{
		Text:    form.Text,
		GroupID: groupID,
		Image:   image,
	})
	if err != nil {
		if models.ErrorCode(err) == models.CodeValidation {
			form.fail("Group", "Choose a valid group")
			return s.renderPostForm(c, form, false, 0)
		}
		return err
	}

	return c.Redirect("/profile/"+middleware.ActorName(c), fiber.StatusFound)
}

// DeletePost handles POST /posts/:id/delete. Author-only; the post's
// comments go with it. Non-authors get the same silent redirect to the
// detail page as the edit surface.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, ok := postID(c)
	if !ok {
		return models.NewNotFoundError("Post", c.Params("id"))
	}

	if err := s.postService.Delete(c.Context(), id, actor(c)); err != nil {
		if errors.Is(err, service.ErrNotAuthor) {
			return c.Redirect("/posts/"+strconv.FormatUint(uint64(id), 10), fiber.StatusFound)
		}
		return err
	}
	return c.Redirect("/profile/"+middleware.ActorName(c), fiber.StatusFound)
}

// PostDetail handles GET /posts/:id — the post, its comments newest-first,
// and the comment form.
func (s *Server) PostDetail(c *fiber.Ctx) error {
	id, ok := postID(c)
	if !ok {
		return models.NewNotFoundError("Post", c.Params("id"))
	}

	post, err := s.postService.Get(c.Context(), id)
	if err != nil {
		return err
	}
	comments, err := s.commentService.ListForPost(c.Context(), id)
	if err != nil {
		return err
	}

	viewerID, _ := middleware.Actor(c)
	return s.render(c, "post_detail", fiber.Map{
		"Post":     post,
		"Comments": comments,
		"IsAuthor": viewerID != 0 && viewerID == post.AuthorID,
	})
}

// EditPost handles GET /posts/:id/edit. Only the author sees the form;
// anyone else is silently sent back to the post detail page.
func (s *Server) EditPost(c *fiber.Ctx) error {
	id, ok := postID(c)
	if !ok {
		return models.NewNotFoundError("Post", c.Params("id"))
	}

	post, err := s.postService.Get(c.Context(), id)
	if err != nil {
		return err
	}
	if post.AuthorID != actor(c) {
		return c.Redirect("/posts/"+strconv.FormatUint(uint64(id), 10), fiber.StatusFound)
	}

	form := &postForm{Text: post.Text}
	if post.GroupID != nil {
		form.GroupID = strconv.FormatUint(uint64(*post.GroupID), 10)
	}
	return s.renderPostForm(c, form, true, id)
}

// UpdatePost handles POST /posts/:id/edit.
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, ok := postID(c)
	if !ok {
		return models.NewNotFoundError("Post", c.Params("id"))
	}
	detailPath := "/posts/" + strconv.FormatUint(uint64(id), 10)

	// Ownership is settled before anything in the submission takes effect:
	// a non-author's upload must never reach the file store.
	post, err := s.postService.Get(c.Context(), id)
	if err != nil {
		return err
	}
	if post.AuthorID != actor(c) {
		return c.Redirect(detailPath, fiber.StatusFound)
	}

	form, groupID := parsePostForm(c)
	image := s.saveImage(c, form)
	if len(form.Errors) > 0 {
		return s.renderPostForm(c, form, true, id)
	}

	_, err = s.postService.Update(c.Context(), id, actor(c), service.PostInput{
		Text:    form.Text,
		GroupID: groupID,
		Image:   image,
	})
	if err != nil {
		if errors.Is(err, service.ErrNotAuthor) {
			return c.Redirect(detailPath, fiber.StatusFound)
		}
		if models.ErrorCode(err) == models.CodeValidation {
			form.fail("Group", "Choose a valid group")
			return s.renderPostForm(c, form, true, id)
		}
		return err
	}

	return c.Redirect(detailPath, fiber.StatusFound)
}
