package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/tbourn/go-bookshelf-backend/internal/auth"
	"github.com/tbourn/go-bookshelf-backend/internal/domain"
	"github.com/tbourn/go-bookshelf-backend/internal/http/middleware"
	"github.com/tbourn/go-bookshelf-backend/internal/repo"
)

var errBoom = errors.New("boom")

// ---------- service stubs ----------

type stubBookSvc struct {
	search func(ctx context.Context, query string, limit int) ([]domain.Book, error)
	get    func(ctx context.Context, id string) (*domain.Book, error)
}

func (s stubBookSvc) Search(ctx context.Context, q string, limit int) ([]domain.Book, error) {
	return s.search(ctx, q, limit)
}

func (s stubBookSvc) Get(ctx context.Context, id string) (*domain.Book, error) {
	return s.get(ctx, id)
}

// stubItemSvc records the calls the list-item handlers make.
type stubItemSvc struct {
	list   func(ctx context.Context, ownerID string) ([]domain.ListItem, error)
	get    func(ctx context.Context, id string) (*domain.ListItem, error)
	expand func(ctx context.Context, li domain.ListItem) (domain.ListItem, error)
	create func(ctx context.Context, ownerID, bookID string) (*domain.ListItem, error)
	update func(ctx context.Context, cur domain.ListItem, p repo.ListItemPatch) (*domain.ListItem, error)
	remove func(ctx context.Context, id string) error
	stats  func(ctx context.Context, ownerID string) (int64, *time.Time, error)

	calls []string
}

func (s *stubItemSvc) List(ctx context.Context, ownerID string) ([]domain.ListItem, error) {
	s.calls = append(s.calls, "list")
	return s.list(ctx, ownerID)
}

func (s *stubItemSvc) Get(ctx context.Context, id string) (*domain.ListItem, error) {
	s.calls = append(s.calls, "get")
	return s.get(ctx, id)
}

func (s *stubItemSvc) Expand(ctx context.Context, li domain.ListItem) (domain.ListItem, error) {
	s.calls = append(s.calls, "expand")
	return s.expand(ctx, li)
}

func (s *stubItemSvc) Create(ctx context.Context, ownerID, bookID string) (*domain.ListItem, error) {
	s.calls = append(s.calls, "create")
	return s.create(ctx, ownerID, bookID)
}

func (s *stubItemSvc) Update(ctx context.Context, cur domain.ListItem, p repo.ListItemPatch) (*domain.ListItem, error) {
	s.calls = append(s.calls, "update")
	return s.update(ctx, cur, p)
}

func (s *stubItemSvc) Remove(ctx context.Context, id string) error {
	s.calls = append(s.calls, "remove")
	return s.remove(ctx, id)
}

func (s *stubItemSvc) Stats(ctx context.Context, ownerID string) (int64, *time.Time, error) {
	if s.stats == nil {
		return 0, nil, errBoom
	}
	return s.stats(ctx, ownerID)
}

type stubUserSvc struct {
	register func(ctx context.Context, username, password string) (*domain.User, error)
	login    func(ctx context.Context, username, password string) (*domain.User, error)
}

func (s stubUserSvc) Register(ctx context.Context, u, p string) (*domain.User, error) {
	return s.register(ctx, u, p)
}

func (s stubUserSvc) Login(ctx context.Context, u, p string) (*domain.User, error) {
	return s.login(ctx, u, p)
}

// ---------- router + request plumbing ----------

// anyUser accepts every X-User-ID.
func anyUser(_ context.Context, id string) (*domain.User, error) {
	return &domain.User{ID: id, Username: "user-" + id}, nil
}

// newRouter mounts h the way the production router does, minus the
// ambient middleware.
func newRouter(h *Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	if err := auth.RegisterValidation(binding.Validator.Engine()); err != nil {
		panic(err)
	}
	r := gin.New()
	r.Use(middleware.ErrorHandler(middleware.ErrorOptions{}))

	r.GET("/books", h.SearchBooks)
	r.GET("/books/:bookId", h.GetBook)
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)

	authed := r.Group("", middleware.RequireUser(anyUser))
	authed.GET("/me", h.Me)
	authed.GET("/list-items", h.GetListItems)
	authed.POST("/list-items", h.CreateListItem)
	item := authed.Group("/list-items/:id", h.SetListItem)
	item.GET("", h.GetListItem)
	item.PUT("", h.UpdateListItem)
	item.DELETE("", h.DeleteListItem)
	return r
}

func do(t *testing.T, r http.Handler, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			if err := json.NewEncoder(&buf).Encode(b); err != nil {
				t.Fatalf("encode body: %v", err)
			}
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set(middleware.HeaderUserID, userID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func doWithHeader(t *testing.T, r http.Handler, path, userID, key, value string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set(middleware.HeaderUserID, userID)
	req.Header.Set(key, value)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeErr(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return er
}

func decodeMap(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return m
}
