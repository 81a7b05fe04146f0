package service

import (
	"context"
	"errors"
	"strings"

	"inkwell/internal/models"
	"inkwell/internal/repository"
)

// ErrNotAuthor is returned when an actor tries to modify a post they do not
// own. Handlers translate it into a silent redirect to the post detail page.
var ErrNotAuthor = errors.New("actor is not the post author")

// PostInput carries the editable fields of a post form submission.
type PostInput struct {
	Text    string
	GroupID *uint  // nil means no group
	Image   string // stored media path; empty keeps the current image
}

// PostService provides post creation and mutation logic.
type PostService struct {
	postRepo  repository.PostRepository
	groupRepo repository.GroupRepository
}

// NewPostService returns a new PostService.
func NewPostService(postRepo repository.PostRepository, groupRepo repository.GroupRepository) *PostService {
	return &PostService{postRepo: postRepo, groupRepo: groupRepo}
}

func (s *PostService) validate(ctx context.Context, in PostInput) error {
	if strings.TrimSpace(in.Text) == "" {
		return models.NewValidationError("Text is required")
	}
	if in.GroupID != nil {
		if _, err := s.groupRepo.GetByID(ctx, *in.GroupID); err != nil {
			if models.IsNotFound(err) {
				return models.NewValidationError("Unknown group")
			}
			return err
		}
	}
	return nil
}

// Create persists a new post authored by actorID.
func (s *PostService) Create(ctx context.Context, actorID uint, in PostInput) (*models.Post, error) {
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}

	post := &models.Post{
		Text:     in.Text,
		Image:    in.Image,
		AuthorID: actorID,
		GroupID:  in.GroupID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, post.ID)
}

// Get fetches a post by id with its author and group resolved.
func (s *PostService) Get(ctx context.Context, id uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, id)
}

// Update edits a post in place. Only the author may edit; anyone else gets
// ErrNotAuthor and the post stays untouched. The author never changes.
func (s *PostService) Update(ctx context.Context, postID, actorID uint, in PostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != actorID {
		return nil, ErrNotAuthor
	}

	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}

	post.Text = in.Text
	post.GroupID = in.GroupID
	if in.Image != "" {
		post.Image = in.Image
	}
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, post.ID)
}

// Delete removes a post (and, by cascade, its comments). Author-only.
func (s *PostService) Delete(ctx context.Context, postID, actorID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != actorID {
		return ErrNotAuthor
	}
	return s.postRepo.Delete(ctx, postID)
}
