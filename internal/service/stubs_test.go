package service

import (
	"context"

	"inkwell/internal/models"
)

// Function-field stubs for each repository interface. Tests set only the
// methods the code under test reaches; an unexpected call panics loudly.

type userRepoStub struct {
	createFn        func(context.Context, *models.User) error
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	getByEmailFn    func(context.Context, string) (*models.User, error)
}

func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}

type groupRepoStub struct {
	createFn    func(context.Context, *models.Group) error
	getByIDFn   func(context.Context, uint) (*models.Group, error)
	getBySlugFn func(context.Context, string) (*models.Group, error)
	listFn      func(context.Context) ([]models.Group, error)
	deleteFn    func(context.Context, uint) error
}

func (s *groupRepoStub) Create(ctx context.Context, group *models.Group) error {
	return s.createFn(ctx, group)
}
func (s *groupRepoStub) GetByID(ctx context.Context, id uint) (*models.Group, error) {
	return s.getByIDFn(ctx, id)
}
func (s *groupRepoStub) GetBySlug(ctx context.Context, slug string) (*models.Group, error) {
	return s.getBySlugFn(ctx, slug)
}
func (s *groupRepoStub) List(ctx context.Context) ([]models.Group, error) {
	return s.listFn(ctx)
}
func (s *groupRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

type postRepoStub struct {
	createFn        func(context.Context, *models.Post) error
	getByIDFn       func(context.Context, uint) (*models.Post, error)
	updateFn        func(context.Context, *models.Post) error
	deleteFn        func(context.Context, uint) error
	listFn          func(context.Context, int, int) ([]*models.Post, error)
	countFn         func(context.Context) (int64, error)
	listByGroupFn   func(context.Context, uint, int, int) ([]*models.Post, error)
	countByGroupFn  func(context.Context, uint) (int64, error)
	listByAuthorFn  func(context.Context, uint, int, int) ([]*models.Post, error)
	countByAuthorFn func(context.Context, uint) (int64, error)
	listFollowedFn  func(context.Context, uint, int, int) ([]*models.Post, error)
	countFollowedFn func(context.Context, uint) (int64, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *postRepoStub) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	return s.listFn(ctx, limit, offset)
}
func (s *postRepoStub) Count(ctx context.Context) (int64, error) {
	return s.countFn(ctx)
}
func (s *postRepoStub) ListByGroup(ctx context.Context, groupID uint, limit, offset int) ([]*models.Post, error) {
	return s.listByGroupFn(ctx, groupID, limit, offset)
}
func (s *postRepoStub) CountByGroup(ctx context.Context, groupID uint) (int64, error) {
	return s.countByGroupFn(ctx, groupID)
}
func (s *postRepoStub) ListByAuthor(ctx context.Context, authorID uint, limit, offset int) ([]*models.Post, error) {
	return s.listByAuthorFn(ctx, authorID, limit, offset)
}
func (s *postRepoStub) CountByAuthor(ctx context.Context, authorID uint) (int64, error) {
	return s.countByAuthorFn(ctx, authorID)
}
func (s *postRepoStub) ListFollowed(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	return s.listFollowedFn(ctx, userID, limit, offset)
}
func (s *postRepoStub) CountFollowed(ctx context.Context, userID uint) (int64, error) {
	return s.countFollowedFn(ctx, userID)
}

type commentRepoStub struct {
	createFn      func(context.Context, *models.Comment) error
	listByPostFn  func(context.Context, uint) ([]models.Comment, error)
	countByPostFn func(context.Context, uint) (int64, error)
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint) ([]models.Comment, error) {
	return s.listByPostFn(ctx, postID)
}
func (s *commentRepoStub) CountByPost(ctx context.Context, postID uint) (int64, error) {
	return s.countByPostFn(ctx, postID)
}

type followRepoStub struct {
	createFn         func(context.Context, *models.Follow) error
	existsFn         func(context.Context, uint, uint) (bool, error)
	deleteFn         func(context.Context, uint, uint) (bool, error)
	countFollowersFn func(context.Context, uint) (int64, error)
	countFollowingFn func(context.Context, uint) (int64, error)
}

func (s *followRepoStub) Create(ctx context.Context, follow *models.Follow) error {
	return s.createFn(ctx, follow)
}
func (s *followRepoStub) Exists(ctx context.Context, userID, authorID uint) (bool, error) {
	return s.existsFn(ctx, userID, authorID)
}
func (s *followRepoStub) Delete(ctx context.Context, userID, authorID uint) (bool, error) {
	return s.deleteFn(ctx, userID, authorID)
}
func (s *followRepoStub) CountFollowers(ctx context.Context, authorID uint) (int64, error) {
	return s.countFollowersFn(ctx, authorID)
}
func (s *followRepoStub) CountFollowing(ctx context.Context, userID uint) (int64, error) {
	return s.countFollowingFn(ctx, userID)
}

// memFollowRepo is a tiny in-memory follow store for state-machine tests.
type memFollowRepo struct {
	edges map[[2]uint]int
}

func newMemFollowRepo() *memFollowRepo {
	return &memFollowRepo{edges: make(map[[2]uint]int)}
}

func (m *memFollowRepo) Create(_ context.Context, follow *models.Follow) error {
	m.edges[[2]uint{follow.UserID, follow.AuthorID}]++
	return nil
}
func (m *memFollowRepo) Exists(_ context.Context, userID, authorID uint) (bool, error) {
	return m.edges[[2]uint{userID, authorID}] > 0, nil
}
func (m *memFollowRepo) Delete(_ context.Context, userID, authorID uint) (bool, error) {
	key := [2]uint{userID, authorID}
	if m.edges[key] == 0 {
		return false, nil
	}
	delete(m.edges, key)
	return true, nil
}
func (m *memFollowRepo) CountFollowers(_ context.Context, authorID uint) (int64, error) {
	var n int64
	for key, count := range m.edges {
		if key[1] == authorID {
			n += int64(count)
		}
	}
	return n, nil
}
func (m *memFollowRepo) CountFollowing(_ context.Context, userID uint) (int64, error) {
	var n int64
	for key, count := range m.edges {
		if key[0] == userID {
			n += int64(count)
		}
	}
	return n, nil
}

func userByName(users ...*models.User) func(context.Context, string) (*models.User, error) {
	return func(_ context.Context, username string) (*models.User, error) {
		for _, u := range users {
			if u.Username == username {
				return u, nil
			}
		}
		return nil, models.NewNotFoundError("User", username)
	}
}
