package blog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"giafashion/internal/api"
	"giafashion/internal/models"
	"giafashion/internal/observability"
	"giafashion/internal/session"
	"giafashion/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend is an in-memory blog API good enough to drive the service's
// state machine: list, like/unlike with optional forced conflicts, comments.
type fakeBackend struct {
	mu          sync.Mutex
	posts       []models.BlogPost
	comments    map[uint][]models.Comment
	likeCalls   int
	unlikeCalls int
	listCalls   int
	lastListURL string
	conflictOn  bool

	// approveForbidden makes the approve endpoint answer 403, as the real
	// backend does for non-admin callers.
	approveForbidden bool

	// likeEntered/likeRelease, when set, turn the like handler into a
	// barrier so tests can interleave other actions mid-request.
	likeEntered chan struct{}
	likeRelease chan struct{}
}

func (b *fakeBackend) envelope(w http.ResponseWriter, status int, data any, errMsg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": errMsg == "",
		"data":    data,
		"error":   errMsg,
	})
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /blogs", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.listCalls++
		b.lastListURL = r.URL.String()
		b.envelope(w, http.StatusOK, map[string]any{"blogs": b.posts}, "")
	})

	mux.HandleFunc("POST /blogs/{id}/like", func(w http.ResponseWriter, r *http.Request) {
		if b.likeEntered != nil {
			b.likeEntered <- struct{}{}
			<-b.likeRelease
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		b.likeCalls++
		if b.conflictOn {
			b.envelope(w, http.StatusConflict, nil, "Already liked")
			return
		}
		for i := range b.posts {
			if fmt.Sprintf("/blogs/%d/like", b.posts[i].ID) == r.URL.Path {
				b.posts[i].LikesCount++
				b.posts[i].Liked = true
				b.envelope(w, http.StatusOK, map[string]int{"likesCount": b.posts[i].LikesCount}, "")
				return
			}
		}
		b.envelope(w, http.StatusNotFound, nil, "Blog post not found")
	})

	mux.HandleFunc("DELETE /blogs/{id}/like", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.unlikeCalls++
		if b.conflictOn {
			b.envelope(w, http.StatusConflict, nil, "Not liked")
			return
		}
		for i := range b.posts {
			if fmt.Sprintf("/blogs/%d/like", b.posts[i].ID) == r.URL.Path {
				b.posts[i].LikesCount--
				b.posts[i].Liked = false
				b.envelope(w, http.StatusOK, map[string]int{"likesCount": b.posts[i].LikesCount}, "")
				return
			}
		}
		b.envelope(w, http.StatusNotFound, nil, "Blog post not found")
	})

	mux.HandleFunc("PATCH /blogs/{id}/approve", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.approveForbidden {
			b.envelope(w, http.StatusForbidden, nil, "Admin access required")
			return
		}
		for i := range b.posts {
			if fmt.Sprintf("/blogs/%d/approve", b.posts[i].ID) == r.URL.Path {
				b.posts[i].Status = models.StatusPublished
				b.envelope(w, http.StatusOK, nil, "")
				return
			}
		}
		b.envelope(w, http.StatusNotFound, nil, "Blog post not found")
	})

	mux.HandleFunc("DELETE /blogs/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i := range b.posts {
			if fmt.Sprintf("/blogs/%d", b.posts[i].ID) == r.URL.Path {
				b.posts = append(b.posts[:i], b.posts[i+1:]...)
				b.envelope(w, http.StatusOK, nil, "")
				return
			}
		}
		b.envelope(w, http.StatusNotFound, nil, "Blog post not found")
	})

	mux.HandleFunc("GET /blogs/{id}/comments", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		var id uint
		fmt.Sscanf(r.URL.Path, "/blogs/%d/comments", &id)
		b.envelope(w, http.StatusOK, map[string]any{"comments": b.comments[id]}, "")
	})

	mux.HandleFunc("POST /blogs/{id}/comments", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		var id uint
		fmt.Sscanf(r.URL.Path, "/blogs/%d/comments", &id)
		var req struct {
			Comment string `json:"comment"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		c := models.Comment{ID: uint(len(b.comments[id]) + 1), BlogPostID: id, Text: req.Comment, AuthorName: "tester"}
		b.comments[id] = append(b.comments[id], c)
		b.envelope(w, http.StatusCreated, map[string]any{"comment": c}, "")
	})

	mux.HandleFunc("DELETE /blogs/{blogId}/comments/{commentId}", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		var blogID, commentID uint
		fmt.Sscanf(r.URL.Path, "/blogs/%d/comments/%d", &blogID, &commentID)
		list := b.comments[blogID]
		for i := range list {
			if list[i].ID == commentID {
				b.comments[blogID] = append(list[:i], list[i+1:]...)
				b.envelope(w, http.StatusOK, nil, "")
				return
			}
		}
		b.envelope(w, http.StatusNotFound, nil, "Comment not found")
	})

	return mux
}

func (b *fakeBackend) stats() (listCalls, likeCalls int, lastListURL string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.listCalls, b.likeCalls, b.lastListURL
}

func seedPosts(published, draft int) []models.BlogPost {
	var posts []models.BlogPost
	id := uint(1)
	for i := 0; i < published; i++ {
		posts = append(posts, models.BlogPost{ID: id, Title: fmt.Sprintf("pub %d", id), Status: models.StatusPublished})
		id++
	}
	for i := 0; i < draft; i++ {
		posts = append(posts, models.BlogPost{ID: id, Title: fmt.Sprintf("draft %d", id), Status: models.StatusDraft})
		id++
	}
	return posts
}

// newTestService wires a service over the fake backend with an already
// authenticated session of the given role.
func newTestService(t *testing.T, backend *fakeBackend, role string) (*Service, *session.Store) {
	t.Helper()
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	kv, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)

	if role != "" {
		sess := models.Session{
			User:        &models.User{ID: 42, Email: "t@gia.fashion", Role: role},
			AccessToken: "test-access-token",
		}
		data, marshalErr := json.Marshal(sess)
		require.NoError(t, marshalErr)
		require.NoError(t, kv.Set("session", data))
	}

	client := api.New(srv.URL)
	sessStore := session.New(client, kv, observability.NopLogger())
	return NewService(client, sessStore, observability.NopLogger()), sessStore
}

func TestSyncRequestsUnapprovedForAdminsOnly(t *testing.T) {
	backend := &fakeBackend{posts: seedPosts(2, 1), comments: map[uint][]models.Comment{}}

	svc, _ := newTestService(t, backend, models.RoleUser)
	require.NoError(t, svc.Sync(context.Background()))
	_, _, listURL := backend.stats()
	assert.Equal(t, "/blogs", listURL)

	adminSvc, _ := newTestService(t, backend, models.RoleAdmin)
	require.NoError(t, adminSvc.Sync(context.Background()))
	_, _, listURL = backend.stats()
	assert.Contains(t, listURL, "includeUnapproved=true")
}

func TestPostsFilterIsClientSide(t *testing.T) {
	backend := &fakeBackend{posts: seedPosts(6, 4), comments: map[uint][]models.Comment{}}
	svc, _ := newTestService(t, backend, models.RoleAdmin)
	require.NoError(t, svc.Sync(context.Background()))

	listCallsAfterSync, _, _ := backend.stats()

	assert.Len(t, svc.Posts(FilterAll), 10)
	assert.Len(t, svc.Posts(FilterPublished), 6)
	assert.Len(t, svc.Posts(FilterDraft), 4)

	// filtering issues no network calls
	listCallsNow, _, _ := backend.stats()
	assert.Equal(t, listCallsAfterSync, listCallsNow)
}

func TestLikeUnlikeRoundTrip(t *testing.T) {
	backend := &fakeBackend{posts: seedPosts(1, 0), comments: map[uint][]models.Comment{}}
	svc, _ := newTestService(t, backend, models.RoleUser)
	require.NoError(t, svc.Sync(context.Background()))

	require.NoError(t, svc.Like(context.Background(), 1))
	p, ok := svc.Post(1)
	require.True(t, ok)
	assert.True(t, p.Liked)
	assert.Equal(t, 1, p.LikesCount)

	require.NoError(t, svc.Unlike(context.Background(), 1))
	p, _ = svc.Post(1)
	assert.False(t, p.Liked)
	assert.Equal(t, 0, p.LikesCount)
}

func TestLikeAlreadyLikedIsLocalNoOp(t *testing.T) {
	backend := &fakeBackend{posts: seedPosts(1, 0), comments: map[uint][]models.Comment{}}
	svc, _ := newTestService(t, backend, models.RoleUser)
	require.NoError(t, svc.Sync(context.Background()))

	require.NoError(t, svc.Like(context.Background(), 1))
	require.NoError(t, svc.Like(context.Background(), 1))

	_, likeCalls, _ := backend.stats()
	assert.Equal(t, 1, likeCalls)
}

func TestLikeUnknownPost(t *testing.T) {
	backend := &fakeBackend{posts: seedPosts(1, 0), comments: map[uint][]models.Comment{}}
	svc, _ := newTestService(t, backend, models.RoleUser)
	require.NoError(t, svc.Sync(context.Background()))

	err := svc.Like(context.Background(), 999)
	assert.True(t, models.IsKind(err, models.KindNotFound))
	_, likeCalls, _ := backend.stats()
	assert.Equal(t, 0, likeCalls)
}

func TestRapidDoubleLikeIssuesOneCall(t *testing.T) {
	backend := &fakeBackend{
		posts:       seedPosts(1, 0),
		comments:    map[uint][]models.Comment{},
		likeEntered: make(chan struct{}, 1),
		likeRelease: make(chan struct{}),
	}
	svc, _ := newTestService(t, backend, models.RoleUser)
	require.NoError(t, svc.Sync(context.Background()))

	firstDone := make(chan error, 1)
	go func() { firstDone <- svc.Like(context.Background(), 1) }()
	<-backend.likeEntered // first request is now in flight

	err := svc.Like(context.Background(), 1)
	assert.ErrorIs(t, err, models.ErrActionInFlight)

	close(backend.likeRelease)
	require.NoError(t, <-firstDone)
	_, likeCalls, _ := backend.stats()
	assert.Equal(t, 1, likeCalls)
}

func TestLikeConflictResynchronizes(t *testing.T) {
	backend := &fakeBackend{posts: seedPosts(1, 0), comments: map[uint][]models.Comment{}}
	svc, _ := newTestService(t, backend, models.RoleUser)
	require.NoError(t, svc.Sync(context.Background()))

	// another tab already liked the post
	backend.mu.Lock()
	backend.conflictOn = true
	backend.posts[0].Liked = true
	backend.posts[0].LikesCount = 5
	backend.mu.Unlock()

	require.NoError(t, svc.Like(context.Background(), 1))

	// the conflict resolved by refetching, not by guessing
	p, ok := svc.Post(1)
	require.True(t, ok)
	assert.True(t, p.Liked)
	assert.Equal(t, 5, p.LikesCount)
}

func TestLogoutDuringInFlightLikeDropsResult(t *testing.T) {
	backend := &fakeBackend{
		posts:       seedPosts(1, 0),
		comments:    map[uint][]models.Comment{},
		likeEntered: make(chan struct{}, 1),
		likeRelease: make(chan struct{}),
	}
	svc, sess := newTestService(t, backend, models.RoleUser)
	require.NoError(t, svc.Sync(context.Background()))

	done := make(chan error, 1)
	go func() { done <- svc.Like(context.Background(), 1) }()
	<-backend.likeEntered

	sess.Logout()
	close(backend.likeRelease)
	require.NoError(t, <-done)

	// the confirmed like must not resurrect authenticated state in the cache
	p, ok := svc.Post(1)
	require.True(t, ok)
	assert.False(t, p.Liked)
	assert.Equal(t, 0, p.LikesCount)
}

func TestApproveUpdatesCachedStatus(t *testing.T) {
	backend := &fakeBackend{posts: seedPosts(0, 1), comments: map[uint][]models.Comment{}}
	svc, _ := newTestService(t, backend, models.RoleAdmin)
	require.NoError(t, svc.Sync(context.Background()))

	require.NoError(t, svc.Approve(context.Background(), 1))
	p, ok := svc.Post(1)
	require.True(t, ok)
	assert.Equal(t, models.StatusPublished, p.Status)
}

func TestApproveRejectedLeavesCacheUnchanged(t *testing.T) {
	backend := &fakeBackend{posts: seedPosts(0, 1), comments: map[uint][]models.Comment{}, approveForbidden: true}
	svc, _ := newTestService(t, backend, models.RoleUser)
	require.NoError(t, svc.Sync(context.Background()))

	err := svc.Approve(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindAuth))

	p, ok := svc.Post(1)
	require.True(t, ok)
	assert.Equal(t, models.StatusDraft, p.Status)
}

func TestRemoveRequiresConfirmation(t *testing.T) {
	backend := &fakeBackend{posts: seedPosts(1, 0), comments: map[uint][]models.Comment{}}
	svc, _ := newTestService(t, backend, models.RoleAdmin)
	require.NoError(t, svc.Sync(context.Background()))

	// default Confirm declines
	err := svc.Remove(context.Background(), 1)
	assert.ErrorIs(t, err, ErrConfirmationDeclined)
	assert.Len(t, svc.Posts(FilterAll), 1)

	svc.Confirm = func(string) bool { return true }
	require.NoError(t, svc.Remove(context.Background(), 1))
	assert.Empty(t, svc.Posts(FilterAll))
}

func TestCommentValidation(t *testing.T) {
	backend := &fakeBackend{posts: seedPosts(1, 0), comments: map[uint][]models.Comment{}}

	svc, _ := newTestService(t, backend, models.RoleUser)
	require.NoError(t, svc.Sync(context.Background()))
	err := svc.Comment(context.Background(), 1, "   \t ")
	assert.True(t, models.IsKind(err, models.KindValidation))

	anon, _ := newTestService(t, backend, "")
	require.NoError(t, anon.Sync(context.Background()))
	err = anon.Comment(context.Background(), 1, "hello")
	assert.ErrorIs(t, err, models.ErrNotAuthenticated)
}

func TestCommentRefetchesList(t *testing.T) {
	backend := &fakeBackend{posts: seedPosts(1, 0), comments: map[uint][]models.Comment{}}
	svc, _ := newTestService(t, backend, models.RoleUser)
	require.NoError(t, svc.Sync(context.Background()))

	require.NoError(t, svc.Comment(context.Background(), 1, "  love this  "))

	p, ok := svc.Post(1)
	require.True(t, ok)
	assert.Equal(t, 1, p.CommentsCount)
	require.Len(t, p.Comments, 1)
	assert.Equal(t, "love this", p.Comments[0].Text)
}

func TestRemoveCommentSplicesCache(t *testing.T) {
	backend := &fakeBackend{posts: seedPosts(1, 0), comments: map[uint][]models.Comment{}}
	svc, _ := newTestService(t, backend, models.RoleUser)
	require.NoError(t, svc.Sync(context.Background()))
	require.NoError(t, svc.Comment(context.Background(), 1, "first"))
	require.NoError(t, svc.Comment(context.Background(), 1, "second"))

	svc.Confirm = func(string) bool { return true }
	require.NoError(t, svc.RemoveComment(context.Background(), 1, 1))

	p, ok := svc.Post(1)
	require.True(t, ok)
	assert.Equal(t, 1, p.CommentsCount)
	require.Len(t, p.Comments, 1)
	assert.Equal(t, "second", p.Comments[0].Text)
}
