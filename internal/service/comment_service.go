package service

import (
	"context"
	"strings"

	"inkwell/internal/models"
	"inkwell/internal/repository"
)

// CommentService provides comment composition logic.
type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
}

// NewCommentService returns a new CommentService.
func NewCommentService(commentRepo repository.CommentRepository, postRepo repository.PostRepository) *CommentService {
	return &CommentService{commentRepo: commentRepo, postRepo: postRepo}
}

// Add attaches a comment by actorID to the given post. Blank text is a
// validation error and creates nothing.
func (s *CommentService) Add(ctx context.Context, postID, actorID uint, text string) (*models.Comment, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, models.NewValidationError("Text is required")
	}

	comment := &models.Comment{
		Text:     text,
		AuthorID: actorID,
		PostID:   postID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// ListForPost returns a post's comments, newest-first.
func (s *CommentService) ListForPost(ctx context.Context, postID uint) ([]models.Comment, error) {
	return s.commentRepo.ListByPost(ctx, postID)
}
