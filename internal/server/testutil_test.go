package server

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/storage"
)

// fixture is an in-memory backing store shared by the stub repositories, so
// handler tests run the real service layer end to end without a database.
type fixture struct {
	mu       sync.Mutex
	users    []*models.User
	groups   []*models.Group
	posts    []*models.Post
	comments []*models.Comment
	follows  map[[2]uint]bool
	lastID   uint
	clock    time.Time
}

func newFixture() *fixture {
	return &fixture{
		follows: make(map[[2]uint]bool),
		clock:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fixture) nextID() uint {
	f.lastID++
	return f.lastID
}

// tick advances the fixture clock so successive posts get distinct,
// strictly increasing creation times.
func (f *fixture) tick() time.Time {
	f.clock = f.clock.Add(time.Minute)
	return f.clock
}

func (f *fixture) addUser(username string) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	user := &models.User{
		ID:       f.nextID(),
		Username: username,
		Email:    username + "@example.com",
		Password: "x",
	}
	f.users = append(f.users, user)
	return user
}

func (f *fixture) addGroup(title, slug string) *models.Group {
	f.mu.Lock()
	defer f.mu.Unlock()
	group := &models.Group{ID: f.nextID(), Title: title, Slug: slug}
	f.groups = append(f.groups, group)
	return group
}

func (f *fixture) addPost(author *models.User, text string, groupID *uint) *models.Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	post := &models.Post{
		ID:       f.nextID(),
		Text:     text,
		AuthorID: author.ID,
		GroupID:  groupID,
	}
	post.Created = f.tick()
	f.posts = append(f.posts, post)
	return post
}

func (f *fixture) addFollow(user, author *models.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.follows[[2]uint{user.ID, author.ID}] = true
}

func (f *fixture) userByID(id uint) *models.User {
	for _, u := range f.users {
		if u.ID == id {
			return u
		}
	}
	return &models.User{ID: id, Username: "unknown"}
}

func (f *fixture) groupByID(id uint) *models.Group {
	for _, g := range f.groups {
		if g.ID == id {
			return g
		}
	}
	return nil
}

// resolve returns a copy of the post with its author and group attached,
// mirroring what the persistence layer preloads.
func (f *fixture) resolve(post *models.Post) *models.Post {
	out := *post
	out.Author = *f.userByID(post.AuthorID)
	if post.GroupID != nil {
		out.Group = f.groupByID(*post.GroupID)
	}
	return &out
}

func (f *fixture) selectPosts(match func(*models.Post) bool, limit, offset int) []*models.Post {
	var all []*models.Post
	for _, p := range f.posts {
		if match(p) {
			all = append(all, p)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Created.After(all[j].Created)
	})

	if offset >= len(all) {
		return nil
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}

	out := make([]*models.Post, len(all))
	for i, p := range all {
		out[i] = f.resolve(p)
	}
	return out
}

func (f *fixture) countPosts(match func(*models.Post) bool) int64 {
	var n int64
	for _, p := range f.posts {
		if match(p) {
			n++
		}
	}
	return n
}

type memUserRepo struct{ f *fixture }

func (r *memUserRepo) Create(_ context.Context, user *models.User) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	user.ID = r.f.nextID()
	r.f.users = append(r.f.users, user)
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id uint) (*models.User, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for _, u := range r.f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, models.NewNotFoundError("User", id)
}

func (r *memUserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for _, u := range r.f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, models.NewNotFoundError("User", username)
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for _, u := range r.f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, models.NewNotFoundError("User", email)
}

type memGroupRepo struct{ f *fixture }

func (r *memGroupRepo) Create(_ context.Context, group *models.Group) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	group.ID = r.f.nextID()
	r.f.groups = append(r.f.groups, group)
	return nil
}

func (r *memGroupRepo) GetByID(_ context.Context, id uint) (*models.Group, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if g := r.f.groupByID(id); g != nil {
		return g, nil
	}
	return nil, models.NewNotFoundError("Group", id)
}

func (r *memGroupRepo) GetBySlug(_ context.Context, slug string) (*models.Group, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for _, g := range r.f.groups {
		if g.Slug == slug {
			return g, nil
		}
	}
	return nil, models.NewNotFoundError("Group", slug)
}

func (r *memGroupRepo) List(_ context.Context) ([]models.Group, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	out := make([]models.Group, len(r.f.groups))
	for i, g := range r.f.groups {
		out[i] = *g
	}
	return out, nil
}

func (r *memGroupRepo) Delete(_ context.Context, id uint) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for i, g := range r.f.groups {
		if g.ID == id {
			r.f.groups = append(r.f.groups[:i], r.f.groups[i+1:]...)
			for _, p := range r.f.posts {
				if p.GroupID != nil && *p.GroupID == id {
					p.GroupID = nil
				}
			}
			return nil
		}
	}
	return models.NewNotFoundError("Group", id)
}

type memPostRepo struct{ f *fixture }

func (r *memPostRepo) Create(_ context.Context, post *models.Post) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	post.ID = r.f.nextID()
	post.Created = r.f.tick()
	r.f.posts = append(r.f.posts, post)
	return nil
}

func (r *memPostRepo) GetByID(_ context.Context, id uint) (*models.Post, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for _, p := range r.f.posts {
		if p.ID == id {
			return r.f.resolve(p), nil
		}
	}
	return nil, models.NewNotFoundError("Post", id)
}

func (r *memPostRepo) Update(_ context.Context, post *models.Post) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for i, p := range r.f.posts {
		if p.ID == post.ID {
			now := r.f.tick()
			post.Modified = &now
			stored := *post
			r.f.posts[i] = &stored
			return nil
		}
	}
	return models.NewNotFoundError("Post", post.ID)
}

func (r *memPostRepo) Delete(_ context.Context, id uint) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for i, p := range r.f.posts {
		if p.ID == id {
			r.f.posts = append(r.f.posts[:i], r.f.posts[i+1:]...)
			kept := r.f.comments[:0]
			for _, cm := range r.f.comments {
				if cm.PostID != id {
					kept = append(kept, cm)
				}
			}
			r.f.comments = kept
			return nil
		}
	}
	return models.NewNotFoundError("Post", id)
}

func (r *memPostRepo) List(_ context.Context, limit, offset int) ([]*models.Post, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	return r.f.selectPosts(func(*models.Post) bool { return true }, limit, offset), nil
}

func (r *memPostRepo) Count(_ context.Context) (int64, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	return r.f.countPosts(func(*models.Post) bool { return true }), nil
}

func (r *memPostRepo) ListByGroup(_ context.Context, groupID uint, limit, offset int) ([]*models.Post, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	return r.f.selectPosts(func(p *models.Post) bool {
		return p.GroupID != nil && *p.GroupID == groupID
	}, limit, offset), nil
}

func (r *memPostRepo) CountByGroup(_ context.Context, groupID uint) (int64, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	return r.f.countPosts(func(p *models.Post) bool {
		return p.GroupID != nil && *p.GroupID == groupID
	}), nil
}

func (r *memPostRepo) ListByAuthor(_ context.Context, authorID uint, limit, offset int) ([]*models.Post, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	return r.f.selectPosts(func(p *models.Post) bool { return p.AuthorID == authorID }, limit, offset), nil
}

func (r *memPostRepo) CountByAuthor(_ context.Context, authorID uint) (int64, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	return r.f.countPosts(func(p *models.Post) bool { return p.AuthorID == authorID }), nil
}

func (r *memPostRepo) ListFollowed(_ context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	return r.f.selectPosts(func(p *models.Post) bool {
		return r.f.follows[[2]uint{userID, p.AuthorID}]
	}, limit, offset), nil
}

func (r *memPostRepo) CountFollowed(_ context.Context, userID uint) (int64, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	return r.f.countPosts(func(p *models.Post) bool {
		return r.f.follows[[2]uint{userID, p.AuthorID}]
	}), nil
}

type memCommentRepo struct{ f *fixture }

func (r *memCommentRepo) Create(_ context.Context, comment *models.Comment) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	comment.ID = r.f.nextID()
	comment.Created = r.f.tick()
	r.f.comments = append(r.f.comments, comment)
	return nil
}

func (r *memCommentRepo) ListByPost(_ context.Context, postID uint) ([]models.Comment, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []models.Comment
	for _, cm := range r.f.comments {
		if cm.PostID == postID {
			copied := *cm
			copied.Author = *r.f.userByID(cm.AuthorID)
			out = append(out, copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Created.After(out[j].Created)
	})
	return out, nil
}

func (r *memCommentRepo) CountByPost(_ context.Context, postID uint) (int64, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var n int64
	for _, cm := range r.f.comments {
		if cm.PostID == postID {
			n++
		}
	}
	return n, nil
}

type memFollowRepo struct{ f *fixture }

func (r *memFollowRepo) Create(_ context.Context, follow *models.Follow) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	r.f.follows[[2]uint{follow.UserID, follow.AuthorID}] = true
	return nil
}

func (r *memFollowRepo) Exists(_ context.Context, userID, authorID uint) (bool, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	return r.f.follows[[2]uint{userID, authorID}], nil
}

func (r *memFollowRepo) Delete(_ context.Context, userID, authorID uint) (bool, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	key := [2]uint{userID, authorID}
	if !r.f.follows[key] {
		return false, nil
	}
	delete(r.f.follows, key)
	return true, nil
}

func (r *memFollowRepo) CountFollowers(_ context.Context, authorID uint) (int64, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var n int64
	for key := range r.f.follows {
		if key[1] == authorID {
			n++
		}
	}
	return n, nil
}

func (r *memFollowRepo) CountFollowing(_ context.Context, userID uint) (int64, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var n int64
	for key := range r.f.follows {
		if key[0] == userID {
			n++
		}
	}
	return n, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		JWTSecret:     "test-secret",
		Port:          "0",
		Env:           "test",
		MediaRoot:     t.TempDir(),
		PostsPerPage:  10,
		IndexCacheTTL: 0,
	}
}

// newTestServer builds a Server over the in-memory fixture: real services
// and routing, stub persistence, CSRF disabled by the test environment.
func newTestServer(t *testing.T) (*Server, *fixture) {
	t.Helper()
	return newTestServerWithConfig(t, testConfig(t))
}

func newTestServerWithConfig(t *testing.T, cfg *config.Config) (*Server, *fixture) {
	t.Helper()
	f := newFixture()
	s := &Server{
		config:    cfg,
		auth:      middleware.NewAuth(cfg.JWTSecret),
		pageStore: cache.NewMemoryStore(),
		fileStore: storage.NewFileStore(cfg.MediaRoot),

		userRepo:    &memUserRepo{f},
		groupRepo:   &memGroupRepo{f},
		postRepo:    &memPostRepo{f},
		commentRepo: &memCommentRepo{f},
		followRepo:  &memFollowRepo{f},
	}
	s.wireServices()
	s.app = s.newApp()
	return s, f
}

// sessionCookie mints a valid session cookie for the user.
func sessionCookie(t *testing.T, s *Server, user *models.User) *http.Cookie {
	t.Helper()
	token, err := s.generateToken(user.ID, user.Username)
	require.NoError(t, err)
	return &http.Cookie{Name: middleware.TokenCookie, Value: token}
}

func doGet(t *testing.T, s *Server, path string, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, path, nil)
	require.NoError(t, err)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func doForm(t *testing.T, s *Server, path string, form url.Values, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// doMultipart posts a multipart form with an attached file, as the post
// form submits when an image is chosen.
func doMultipart(t *testing.T, s *Server, path string, fields map[string]string, fileName string, fileContent []byte, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, w.WriteField(key, value))
	}
	part, err := w.CreateFormFile("image", fileName)
	require.NoError(t, err)
	_, err = part.Write(fileContent)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req, err := http.NewRequest(http.MethodPost, path, &buf)
	require.NoError(t, err)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// storedMediaFiles lists the files below the server's media root.
func storedMediaFiles(t *testing.T, s *Server) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(s.config.MediaRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	require.NoError(t, err)
	return files
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(raw)
}
