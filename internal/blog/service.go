// Package blog mediates viewer and admin actions on the trend feed. The
// cached post list is a projection of server truth: local state mutates only
// after the server confirms, and refetching is the single reconciliation
// mechanism for uncertain state.
package blog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"giafashion/internal/api"
	"giafashion/internal/models"
	"giafashion/internal/observability"
	"giafashion/internal/session"
)

// Filter selects posts from the cached list. Filtering is a pure client-side
// predicate; it never issues a network call.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterDraft     Filter = "draft"
	FilterPublished Filter = "published"
)

func (f Filter) match(p *models.BlogPost) bool {
	switch f {
	case FilterDraft:
		return p.Status == models.StatusDraft
	case FilterPublished:
		return p.Status == models.StatusPublished
	default:
		return true
	}
}

// ErrConfirmationDeclined is returned when the confirmation step for a
// destructive action was answered with no. No call is issued.
var ErrConfirmationDeclined = errors.New("confirmation declined")

// Service is the blog interaction state.
type Service struct {
	client *api.Client
	sess   *session.Store
	logger *observability.Logger

	// Confirm guards destructive actions. It must return true for the call
	// to be issued; the default declines everything.
	Confirm func(prompt string) bool

	mu       sync.Mutex
	posts    []models.BlogPost
	inflight map[string]struct{}
}

// NewService creates the blog service. The confirmation callback defaults to
// declining, so destructive operations are inert until a caller wires a real
// prompt.
func NewService(client *api.Client, sess *session.Store, logger *observability.Logger) *Service {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Service{
		client:   client,
		sess:     sess,
		logger:   logger,
		Confirm:  func(string) bool { return false },
		inflight: make(map[string]struct{}),
	}
}

// Sync refetches the post list. The includeUnapproved flag is sent only when
// the viewer is an admin; everyone else sees published posts only.
func (s *Service) Sync(ctx context.Context) error {
	path := "/blogs"
	if s.sess.IsAdmin() {
		path += "?includeUnapproved=true"
	}

	var res struct {
		Blogs []models.BlogPost `json:"blogs"`
	}
	if err := s.client.Do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = res.Blogs
	return nil
}

// Posts returns the cached posts matching filter.
func (s *Service) Posts(filter Filter) []models.BlogPost {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.BlogPost, 0, len(s.posts))
	for i := range s.posts {
		if filter.match(&s.posts[i]) {
			out = append(out, s.posts[i])
		}
	}
	return out
}

// Post returns the cached post with the given id.
func (s *Service) Post(id uint) (models.BlogPost, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p := s.findLocked(id); p != nil {
		return *p, true
	}
	return models.BlogPost{}, false
}

// Like records the viewer's like. Calling it when the post is already liked
// is a defensive no-op without network I/O. A conflict reported by the server
// (multi-tab race) is non-fatal and resolved by refetching the list.
func (s *Service) Like(ctx context.Context, id uint) error {
	s.mu.Lock()
	p := s.findLocked(id)
	if p == nil {
		s.mu.Unlock()
		return models.NewNotFoundError(fmt.Sprintf("unknown post %d", id))
	}
	if p.Liked {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	key := fmt.Sprintf("like:%d", id)
	if err := s.begin(key); err != nil {
		return err
	}
	defer s.end(key)

	var res struct {
		LikesCount int `json:"likesCount"`
	}
	err := s.client.Do(ctx, http.MethodPost, fmt.Sprintf("/blogs/%d/like", id), nil, &res)
	if isConflict(err) {
		s.logger.Info("like conflict, resynchronizing", "post", id)
		return s.Sync(ctx)
	}
	if err != nil {
		return err
	}

	s.applyLike(id, res.LikesCount, true)
	return nil
}

// Unlike removes the viewer's like, mirroring Like's gating and conflict
// handling.
func (s *Service) Unlike(ctx context.Context, id uint) error {
	s.mu.Lock()
	p := s.findLocked(id)
	if p == nil {
		s.mu.Unlock()
		return models.NewNotFoundError(fmt.Sprintf("unknown post %d", id))
	}
	if !p.Liked {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	key := fmt.Sprintf("unlike:%d", id)
	if err := s.begin(key); err != nil {
		return err
	}
	defer s.end(key)

	var res struct {
		LikesCount int `json:"likesCount"`
	}
	err := s.client.Do(ctx, http.MethodDelete, fmt.Sprintf("/blogs/%d/like", id), nil, &res)
	if isConflict(err) {
		s.logger.Info("unlike conflict, resynchronizing", "post", id)
		return s.Sync(ctx)
	}
	if err != nil {
		return err
	}

	s.applyLike(id, res.LikesCount, false)
	return nil
}

// Approve publishes a draft post. The server rejects non-admin callers; on
// any error the cached state stays unchanged.
func (s *Service) Approve(ctx context.Context, id uint) error {
	key := fmt.Sprintf("approve:%d", id)
	if err := s.begin(key); err != nil {
		return err
	}
	defer s.end(key)

	if err := s.client.Do(ctx, http.MethodPatch, fmt.Sprintf("/blogs/%d/approve", id), nil, nil); err != nil {
		return err
	}

	if !s.sess.IsAuthenticated() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.findLocked(id); p != nil {
		p.Status = models.StatusPublished
	}
	return nil
}

// Remove deletes a post (admin only). The confirmation callback must approve
// before the call is issued; there is no undo.
func (s *Service) Remove(ctx context.Context, id uint) error {
	if !s.Confirm(fmt.Sprintf("Delete post %d? This action cannot be undone.", id)) {
		return ErrConfirmationDeclined
	}

	key := fmt.Sprintf("remove:%d", id)
	if err := s.begin(key); err != nil {
		return err
	}
	defer s.end(key)

	if err := s.client.Do(ctx, http.MethodDelete, fmt.Sprintf("/blogs/%d", id), nil, nil); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.posts {
		if s.posts[i].ID == id {
			s.posts = append(s.posts[:i], s.posts[i+1:]...)
			break
		}
	}
	return nil
}

// Comment submits a comment. The text must be non-empty after trimming and
// the viewer authenticated. On success the post's comments are refetched
// rather than assembled from the server echo.
func (s *Service) Comment(ctx context.Context, id uint, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.NewValidationError(0, "comment text is required")
	}
	if !s.sess.IsAuthenticated() {
		return models.ErrNotAuthenticated
	}

	key := fmt.Sprintf("comment:%d", id)
	if err := s.begin(key); err != nil {
		return err
	}
	defer s.end(key)

	req := struct {
		Comment string `json:"comment"`
	}{Comment: text}
	if err := s.client.Do(ctx, http.MethodPost, fmt.Sprintf("/blogs/%d/comments", id), req, nil); err != nil {
		return err
	}

	comments, err := s.fetchComments(ctx, id)
	if err != nil {
		return err
	}
	s.applyComments(id, comments)
	return nil
}

// Comments fetches the comment list for a post and updates the cache.
func (s *Service) Comments(ctx context.Context, id uint) ([]models.Comment, error) {
	comments, err := s.fetchComments(ctx, id)
	if err != nil {
		return nil, err
	}
	s.applyComments(id, comments)
	return comments, nil
}

// RemoveComment deletes a comment (author or admin). Requires confirmation.
func (s *Service) RemoveComment(ctx context.Context, postID, commentID uint) error {
	if !s.Confirm(fmt.Sprintf("Delete comment %d? This action cannot be undone.", commentID)) {
		return ErrConfirmationDeclined
	}

	key := fmt.Sprintf("remove-comment:%d:%d", postID, commentID)
	if err := s.begin(key); err != nil {
		return err
	}
	defer s.end(key)

	path := fmt.Sprintf("/blogs/%d/comments/%d", postID, commentID)
	if err := s.client.Do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.findLocked(postID); p != nil {
		for i := range p.Comments {
			if p.Comments[i].ID == commentID {
				p.Comments = append(p.Comments[:i], p.Comments[i+1:]...)
				break
			}
		}
		if p.CommentsCount > 0 {
			p.CommentsCount--
		}
	}
	return nil
}

func (s *Service) fetchComments(ctx context.Context, id uint) ([]models.Comment, error) {
	var res struct {
		Comments []models.Comment `json:"comments"`
	}
	path := fmt.Sprintf("/blogs/%d/comments", id)
	if err := s.client.Do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return res.Comments, nil
}

// applyComments installs the refetched comments as the new truth for the post.
func (s *Service) applyComments(id uint, comments []models.Comment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p := s.findLocked(id); p != nil {
		p.Comments = comments
		p.CommentsCount = len(comments)
	}
}

// applyLike installs the server-returned count. Results that arrive after the
// session was cleared are dropped: a logged-out viewer never regains
// authenticated affordances from a stale response.
func (s *Service) applyLike(id uint, likesCount int, liked bool) {
	if !s.sess.IsAuthenticated() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.findLocked(id); p != nil {
		p.LikesCount = likesCount
		p.Liked = liked
	}
}

// findLocked returns a pointer into the cached slice. Callers hold s.mu.
func (s *Service) findLocked(id uint) *models.BlogPost {
	for i := range s.posts {
		if s.posts[i].ID == id {
			return &s.posts[i]
		}
	}
	return nil
}

// begin marks an action on an entity as in flight. A second identical action
// before the first resolves is rejected locally: there is no server-side
// idempotency key, so duplicate rapid submissions must be stopped at the call
// site.
func (s *Service) begin(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.inflight[key]; busy {
		return models.ErrActionInFlight
	}
	s.inflight[key] = struct{}{}
	return nil
}

func (s *Service) end(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, key)
}

// isConflict recognizes the server's "already liked / not liked" answer from
// a racing tab.
func isConflict(err error) bool {
	var apiErr *models.APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict
}
