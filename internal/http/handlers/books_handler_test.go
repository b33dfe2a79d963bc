package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/tbourn/go-bookshelf-backend/internal/domain"
	"github.com/tbourn/go-bookshelf-backend/internal/services"
)

func TestSearchBooks_PassesQueryAndLimit(t *testing.T) {
	var gotQuery string
	var gotLimit int
	h := New(stubBookSvc{
		search: func(_ context.Context, q string, limit int) ([]domain.Book, error) {
			gotQuery, gotLimit = q, limit
			return []domain.Book{{ID: "B1", Title: "Dune"}}, nil
		},
	}, nil, nil)
	r := newRouter(h)

	w := do(t, r, http.MethodGet, "/books?query=dune&limit=3", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if gotQuery != "dune" || gotLimit != 3 {
		t.Fatalf("service got (%q, %d)", gotQuery, gotLimit)
	}
	books, _ := decodeMap(t, w)["books"].([]any)
	if len(books) != 1 || books[0].(map[string]any)["title"] != "Dune" {
		t.Fatalf("unexpected books: %v", books)
	}

	// non-numeric limit falls back to the service default
	_ = do(t, r, http.MethodGet, "/books?limit=lots", "", nil)
	if gotLimit != 0 || gotQuery != "" {
		t.Fatalf("expected defaults, got (%q, %d)", gotQuery, gotLimit)
	}
}

func TestSearchBooks_ServiceErrorIs500(t *testing.T) {
	h := New(stubBookSvc{
		search: func(context.Context, string, int) ([]domain.Book, error) { return nil, errBoom },
	}, nil, nil)

	w := do(t, newRouter(h), http.MethodGet, "/books", "", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	if m := decodeMap(t, w); m["message"] != "boom" || m["stack"] == "" {
		t.Fatalf("unexpected body: %v", m)
	}
}

func TestGetBook(t *testing.T) {
	h := New(stubBookSvc{
		get: func(_ context.Context, id string) (*domain.Book, error) {
			switch id {
			case "B1":
				return &domain.Book{ID: "B1", Title: "Dune"}, nil
			case "broken":
				return nil, errBoom
			}
			return nil, services.ErrBookNotFound
		},
	}, nil, nil)
	r := newRouter(h)

	w := do(t, r, http.MethodGet, "/books/B1", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	book, _ := decodeMap(t, w)["book"].(map[string]any)
	if book["id"] != "B1" {
		t.Fatalf("unexpected book: %v", book)
	}

	w = do(t, r, http.MethodGet, "/books/nope", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
	if er := decodeErr(t, w); er.Code != ErrCodeNotFound || er.Message != "No book found with the ID of nope" {
		t.Fatalf("unexpected body: %+v", er)
	}

	w = do(t, r, http.MethodGet, "/books/broken", "", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
}
