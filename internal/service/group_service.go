package service

import (
	"context"
	"strings"

	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/validation"
)

// GroupService manages the group catalogue. Groups are curated by operators
// through tooling, not by end users, so no HTTP route reaches this service.
type GroupService struct {
	groupRepo repository.GroupRepository
}

// NewGroupService returns a new GroupService.
func NewGroupService(groupRepo repository.GroupRepository) *GroupService {
	return &GroupService{groupRepo: groupRepo}
}

// Create adds a group after checking the slug is well-formed, not a reserved
// route prefix, and not already taken.
func (s *GroupService) Create(ctx context.Context, title, slug, description string) (*models.Group, error) {
	if strings.TrimSpace(title) == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if err := validation.ValidateGroupSlug(slug); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if _, err := s.groupRepo.GetBySlug(ctx, slug); err == nil {
		return nil, models.NewValidationError("Slug is already taken")
	} else if !models.IsNotFound(err) {
		return nil, err
	}

	group := &models.Group{Title: title, Slug: slug, Description: description}
	if err := s.groupRepo.Create(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// Delete removes the group named by slug. Its posts survive with no group.
func (s *GroupService) Delete(ctx context.Context, slug string) error {
	group, err := s.groupRepo.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}
	return s.groupRepo.Delete(ctx, group.ID)
}
