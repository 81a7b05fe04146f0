package service

import (
	"context"

	"inkwell/internal/models"
	"inkwell/internal/repository"
)

// FollowService provides the follow/unfollow state transitions.
//
// The follow edge has two states, absent and present: Follow moves
// absent -> present and is a no-op when already present; Unfollow moves
// present -> absent and reports not-found when already absent. The
// asymmetry is deliberate and mirrors the unfollow endpoint's contract.
type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
}

// NewFollowService returns a new FollowService.
func NewFollowService(followRepo repository.FollowRepository, userRepo repository.UserRepository) *FollowService {
	return &FollowService{followRepo: followRepo, userRepo: userRepo}
}

// Follow creates an edge from actorID to the named author. Self-follow and
// repeat calls create nothing; the target author is returned either way so
// callers can redirect to their profile.
func (s *FollowService) Follow(ctx context.Context, actorID uint, username string) (*models.User, error) {
	author, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if author.ID == actorID {
		return author, nil
	}

	exists, err := s.followRepo.Exists(ctx, actorID, author.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return author, nil
	}

	edge := &models.Follow{UserID: actorID, AuthorID: author.ID}
	if err := s.followRepo.Create(ctx, edge); err != nil {
		return nil, err
	}
	return author, nil
}

// Unfollow deletes the edge from actorID to the named author. A missing
// edge is a not-found error, not a no-op.
func (s *FollowService) Unfollow(ctx context.Context, actorID uint, username string) (*models.User, error) {
	author, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	deleted, err := s.followRepo.Delete(ctx, actorID, author.ID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, models.NewNotFoundError("Follow", username)
	}
	return author, nil
}

// IsFollowing reports whether userID follows authorID.
func (s *FollowService) IsFollowing(ctx context.Context, userID, authorID uint) (bool, error) {
	return s.followRepo.Exists(ctx, userID, authorID)
}
