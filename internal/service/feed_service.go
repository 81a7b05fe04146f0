// Package service provides application business logic (feeds, posts, follows, accounts).
package service

import (
	"context"

	"inkwell/internal/models"
	"inkwell/internal/pagination"
	"inkwell/internal/repository"
)

// Feed is one paginated window of posts, newest-created-first.
type Feed struct {
	Posts []*models.Post
	Page  pagination.Page
}

// GroupFeed is a feed scoped to a single group.
type GroupFeed struct {
	Group *models.Group
	Feed
}

// ProfileFeed is a feed scoped to a single author, with the viewer's
// follow relationship resolved. FollowingCount is how many authors the
// profile owner follows, not the viewer.
type ProfileFeed struct {
	Author         *models.User
	Following      bool
	Followers      int64
	FollowingCount int64
	Feed
}

// FeedService assembles the paginated read paths over posts.
type FeedService struct {
	postRepo   repository.PostRepository
	groupRepo  repository.GroupRepository
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
	pageSize   int
}

// NewFeedService returns a new FeedService with the given page size.
func NewFeedService(
	postRepo repository.PostRepository,
	groupRepo repository.GroupRepository,
	userRepo repository.UserRepository,
	followRepo repository.FollowRepository,
	pageSize int,
) *FeedService {
	return &FeedService{
		postRepo:   postRepo,
		groupRepo:  groupRepo,
		userRepo:   userRepo,
		followRepo: followRepo,
		pageSize:   pageSize,
	}
}

// Global returns the page of all posts.
func (s *FeedService) Global(ctx context.Context, pageNumber int) (*Feed, error) {
	total, err := s.postRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	page, offset := pagination.Paginate(pageNumber, s.pageSize, total)

	posts, err := s.postRepo.List(ctx, s.pageSize, offset)
	if err != nil {
		return nil, err
	}
	return &Feed{Posts: posts, Page: page}, nil
}

// Group returns the page of posts filed under the group with the given slug.
func (s *FeedService) Group(ctx context.Context, slug string, pageNumber int) (*GroupFeed, error) {
	group, err := s.groupRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	total, err := s.postRepo.CountByGroup(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	page, offset := pagination.Paginate(pageNumber, s.pageSize, total)

	posts, err := s.postRepo.ListByGroup(ctx, group.ID, s.pageSize, offset)
	if err != nil {
		return nil, err
	}
	return &GroupFeed{Group: group, Feed: Feed{Posts: posts, Page: page}}, nil
}

// Profile returns the page of posts authored by username. viewerID is zero
// for anonymous viewers, whose Following flag is always false.
func (s *FeedService) Profile(ctx context.Context, username string, pageNumber int, viewerID uint) (*ProfileFeed, error) {
	author, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	total, err := s.postRepo.CountByAuthor(ctx, author.ID)
	if err != nil {
		return nil, err
	}
	page, offset := pagination.Paginate(pageNumber, s.pageSize, total)

	posts, err := s.postRepo.ListByAuthor(ctx, author.ID, s.pageSize, offset)
	if err != nil {
		return nil, err
	}

	following := false
	if viewerID != 0 {
		following, err = s.followRepo.Exists(ctx, viewerID, author.ID)
		if err != nil {
			return nil, err
		}
	}

	followers, err := s.followRepo.CountFollowers(ctx, author.ID)
	if err != nil {
		return nil, err
	}
	followingCount, err := s.followRepo.CountFollowing(ctx, author.ID)
	if err != nil {
		return nil, err
	}

	return &ProfileFeed{
		Author:         author,
		Following:      following,
		Followers:      followers,
		FollowingCount: followingCount,
		Feed:           Feed{Posts: posts, Page: page},
	}, nil
}

// Followed returns the page of posts authored by users the viewer follows.
func (s *FeedService) Followed(ctx context.Context, viewerID uint, pageNumber int) (*Feed, error) {
	total, err := s.postRepo.CountFollowed(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	page, offset := pagination.Paginate(pageNumber, s.pageSize, total)

	posts, err := s.postRepo.ListFollowed(ctx, viewerID, s.pageSize, offset)
	if err != nil {
		return nil, err
	}
	return &Feed{Posts: posts, Page: page}, nil
}
