package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/tbourn/go-bookshelf-backend/internal/domain"
	"github.com/tbourn/go-bookshelf-backend/internal/repo"
	"github.com/tbourn/go-bookshelf-backend/internal/services"
)

func buildBook(id string) domain.Book {
	return domain.Book{ID: id, Title: "Title " + id, Author: "Author " + id}
}

func buildListItem(id, ownerID, bookID string) domain.ListItem {
	return domain.ListItem{ID: id, OwnerID: ownerID, BookID: bookID, Rating: domain.UnratedRating}
}

// itemSvcWith serves one stored item through Get and expands with book.
func itemSvcWith(stored domain.ListItem, book domain.Book) *stubItemSvc {
	return &stubItemSvc{
		get: func(_ context.Context, id string) (*domain.ListItem, error) {
			if id != stored.ID {
				return nil, services.ErrListItemNotFound
			}
			li := stored
			return &li, nil
		},
		expand: func(_ context.Context, li domain.ListItem) (domain.ListItem, error) {
			b := book
			return li.WithBook(&b), nil
		},
	}
}

func TestGetListItem_ReturnsExpandedItem(t *testing.T) {
	book := buildBook("B1")
	li := buildListItem("li-1", "owner", book.ID)
	svc := itemSvcWith(li, book)
	r := newRouter(New(nil, svc, nil))

	w := do(t, r, http.MethodGet, "/list-items/li-1", "owner", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var resp ListItemResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.ListItem.ID != "li-1" || resp.ListItem.Book == nil || resp.ListItem.Book.ID != "B1" {
		t.Fatalf("unexpected item: %+v", resp.ListItem)
	}
	if strings.Join(svc.calls, ",") != "get,expand" {
		t.Fatalf("calls = %v", svc.calls)
	}
}

func TestSetListItem_NotFound(t *testing.T) {
	svc := itemSvcWith(buildListItem("li-1", "owner", "B1"), buildBook("B1"))
	r := newRouter(New(nil, svc, nil))

	w := do(t, r, http.MethodGet, "/list-items/not-in-db", "owner", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
	if er := decodeErr(t, w); er.Message != "No list item was found with the id of not-in-db" {
		t.Fatalf("unexpected message %q", er.Message)
	}
	if strings.Join(svc.calls, ",") != "get" {
		t.Fatalf("handler must not run after SetListItem fails: %v", svc.calls)
	}
}

func TestSetListItem_ForbiddenForNonOwner(t *testing.T) {
	svc := itemSvcWith(buildListItem("list-item-id", "owner-id", "B1"), buildBook("B1"))
	r := newRouter(New(nil, svc, nil))

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		w := do(t, r, method, "/list-items/list-item-id", "non-owner-id", map[string]any{})
		if w.Code != http.StatusForbidden {
			t.Fatalf("%s: status=%d", method, w.Code)
		}
		er := decodeErr(t, w)
		if er.Code != ErrCodeForbidden ||
			er.Message != "User with id non-owner-id is not authorized to access the list item list-item-id" {
			t.Fatalf("%s: unexpected body %+v", method, er)
		}
	}
	for _, c := range svc.calls {
		if c != "get" {
			t.Fatalf("only Get may run for a non-owner, got %v", svc.calls)
		}
	}
}

func TestSetListItem_LookupFailureIs500(t *testing.T) {
	svc := &stubItemSvc{get: func(context.Context, string) (*domain.ListItem, error) { return nil, errBoom }}
	r := newRouter(New(nil, svc, nil))

	if w := do(t, r, http.MethodGet, "/list-items/x", "owner", nil); w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestListItems_RequireUser(t *testing.T) {
	svc := &stubItemSvc{}
	r := newRouter(New(nil, svc, nil))

	w := do(t, r, http.MethodGet, "/list-items", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d", w.Code)
	}
	if m := decodeMap(t, w); m["code"] != "credentials_required" || m["message"] != "No authorization token was found" {
		t.Fatalf("unexpected body: %v", m)
	}
	if len(svc.calls) != 0 {
		t.Fatalf("service must not be called: %v", svc.calls)
	}
}

func TestCreateListItem_NoBookID(t *testing.T) {
	svc := &stubItemSvc{}
	r := newRouter(New(nil, svc, nil))

	for _, body := range []any{map[string]any{}, map[string]any{"bookId": "   "}, "not json"} {
		w := do(t, r, http.MethodPost, "/list-items", "owner", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %v: status=%d", body, w.Code)
		}
		if er := decodeErr(t, w); er.Message != "No bookId provided" {
			t.Fatalf("body %v: message %q", body, er.Message)
		}
	}
	if len(svc.calls) != 0 {
		t.Fatalf("service must not be called: %v", svc.calls)
	}
}

func TestCreateListItem_AlreadyExists(t *testing.T) {
	var gotOwner, gotBook string
	svc := &stubItemSvc{create: func(_ context.Context, ownerID, bookID string) (*domain.ListItem, error) {
		gotOwner, gotBook = ownerID, bookID
		return nil, services.ErrListItemExists
	}}
	r := newRouter(New(nil, svc, nil))

	w := do(t, r, http.MethodPost, "/list-items", "owner-id", CreateListItemRequest{BookID: "existing-book-id"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
	er := decodeErr(t, w)
	if er.Code != ErrCodeListItemExists ||
		er.Message != "User owner-id already has a list item for the book with the ID existing-book-id" {
		t.Fatalf("unexpected body: %+v", er)
	}
	if gotOwner != "owner-id" || gotBook != "existing-book-id" {
		t.Fatalf("service got (%q, %q)", gotOwner, gotBook)
	}
}

func TestCreateListItem_UnknownBook(t *testing.T) {
	svc := &stubItemSvc{create: func(context.Context, string, string) (*domain.ListItem, error) {
		return nil, services.ErrBookNotFound
	}}
	r := newRouter(New(nil, svc, nil))

	w := do(t, r, http.MethodPost, "/list-items", "owner", CreateListItemRequest{BookID: "ghost"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
	if er := decodeErr(t, w); er.Message != "No book found with the ID of ghost" {
		t.Fatalf("unexpected message %q", er.Message)
	}
}

func TestCreateListItem_ReturnsCreatedItem(t *testing.T) {
	book := buildBook("B1")
	svc := &stubItemSvc{create: func(_ context.Context, ownerID, bookID string) (*domain.ListItem, error) {
		li := buildListItem("li-new", ownerID, bookID).WithBook(&book)
		return &li, nil
	}}
	r := newRouter(New(nil, svc, nil))

	w := do(t, r, http.MethodPost, "/list-items", "owner", CreateListItemRequest{BookID: "B1"})
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var resp ListItemResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.ListItem.OwnerID != "owner" || resp.ListItem.Book == nil || resp.ListItem.Book.Title != book.Title {
		t.Fatalf("unexpected item: %+v", resp.ListItem)
	}
}

func TestGetListItems_ListsAndSupportsETag(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	books := []domain.Book{buildBook("B1"), buildBook("B2")}
	var items []domain.ListItem
	for i, b := range books {
		items = append(items, buildListItem("li-"+string(rune('a'+i)), "owner", b.ID).WithBook(&b))
	}
	svc := &stubItemSvc{
		list: func(_ context.Context, ownerID string) ([]domain.ListItem, error) {
			if ownerID != "owner" {
				t.Fatalf("listed for %q", ownerID)
			}
			return items, nil
		},
		stats: func(context.Context, string) (int64, *time.Time, error) { return 2, &ts, nil },
	}
	r := newRouter(New(nil, svc, nil))

	w := do(t, r, http.MethodGet, "/list-items", "owner", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var resp ListItemsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(resp.ListItems) != 2 || resp.ListItems[1].Book == nil || resp.ListItems[1].Book.ID != "B2" {
		t.Fatalf("unexpected items: %+v", resp.ListItems)
	}
	etag := w.Header().Get("ETag")
	if etag != listItemsETag("owner", 2, &ts) || !strings.HasPrefix(etag, `W/"list-items:owner:2:`) {
		t.Fatalf("unexpected ETag %q", etag)
	}

	svc.calls = nil
	w = doWithHeader(t, r, "/list-items", "owner", "If-None-Match", etag)
	if w.Code != http.StatusNotModified || w.Body.Len() != 0 {
		t.Fatalf("expected 304 with empty body, got %d %q", w.Code, w.Body.String())
	}
	if len(svc.calls) != 0 {
		t.Fatalf("304 must not list items: %v", svc.calls)
	}
}

func TestGetListItems_StatsFailureStillLists(t *testing.T) {
	svc := &stubItemSvc{list: func(context.Context, string) ([]domain.ListItem, error) {
		return []domain.ListItem{}, nil
	}}
	r := newRouter(New(nil, svc, nil))

	w := do(t, r, http.MethodGet, "/list-items", "owner", nil)
	if w.Code != http.StatusOK || w.Header().Get("ETag") != "" {
		t.Fatalf("status=%d etag=%q", w.Code, w.Header().Get("ETag"))
	}
	if w.Body.String() != `{"listItems":[]}` {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}

func TestUpdateListItem_AppliesPatch(t *testing.T) {
	book := buildBook("B1")
	stored := buildListItem("li-1", "owner", book.ID)
	stored.Rating = 3
	svc := itemSvcWith(stored, book)

	var gotCurrent domain.ListItem
	var gotPatch repo.ListItemPatch
	svc.update = func(_ context.Context, cur domain.ListItem, p repo.ListItemPatch) (*domain.ListItem, error) {
		gotCurrent, gotPatch = cur, p
		out := cur
		out.Rating = *p.Rating
		out = out.WithBook(&book)
		return &out, nil
	}
	r := newRouter(New(nil, svc, nil))

	w := do(t, r, http.MethodPut, "/list-items/li-1", "owner", `{"rating":4,"startDate":"2024-01-31","finishDate":null}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if gotCurrent.ID != "li-1" || gotCurrent.Rating != 3 {
		t.Fatalf("update got current %+v", gotCurrent)
	}
	if gotPatch.Rating == nil || *gotPatch.Rating != 4 || gotPatch.Notes != nil {
		t.Fatalf("unexpected rating/notes in patch: %+v", gotPatch)
	}
	if gotPatch.StartDate == nil || !gotPatch.StartDate.Equal(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start date: %v", gotPatch.StartDate)
	}
	if !gotPatch.ClearFinishDate || gotPatch.FinishDate != nil || gotPatch.ClearStartDate {
		t.Fatalf("unexpected finish date handling: %+v", gotPatch)
	}

	var resp ListItemResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.ListItem.Rating != 4 || resp.ListItem.Book == nil {
		t.Fatalf("unexpected item: %+v", resp.ListItem)
	}
}

func TestUpdateListItem_Errors(t *testing.T) {
	stored := buildListItem("li-1", "owner", "B1")
	svc := itemSvcWith(stored, buildBook("B1"))
	svc.update = func(_ context.Context, _ domain.ListItem, p repo.ListItemPatch) (*domain.ListItem, error) {
		switch {
		case p.Rating != nil:
			return nil, services.ErrInvalidRating
		case p.FinishDate != nil:
			return nil, services.ErrInvalidDates
		}
		return nil, errBoom
	}
	r := newRouter(New(nil, svc, nil))

	cases := []struct {
		body   string
		status int
		code   string
	}{
		{`{"rating":9}`, http.StatusBadRequest, ErrCodeInvalidRating},
		{`{"finishDate":1700000000000}`, http.StatusBadRequest, ErrCodeInvalidDates},
		{`{"startDate":"yesterday"}`, http.StatusBadRequest, ErrCodeBadRequest},
		{`{"startDate":true}`, http.StatusBadRequest, ErrCodeBadRequest},
		{`{"notes":"x"}`, http.StatusInternalServerError, ""},
	}
	for _, tc := range cases {
		w := do(t, r, http.MethodPut, "/list-items/li-1", "owner", tc.body)
		if w.Code != tc.status {
			t.Fatalf("%s: status=%d body=%s", tc.body, w.Code, w.Body.String())
		}
		if tc.code != "" {
			if er := decodeErr(t, w); er.Code != tc.code {
				t.Fatalf("%s: code=%q", tc.body, er.Code)
			}
		}
	}
}

func TestDeleteListItem(t *testing.T) {
	stored := buildListItem("li-1", "owner", "B1")
	svc := itemSvcWith(stored, buildBook("B1"))
	var removed string
	svc.remove = func(_ context.Context, id string) error {
		removed = id
		return nil
	}
	r := newRouter(New(nil, svc, nil))

	w := do(t, r, http.MethodDelete, "/list-items/li-1", "owner", nil)
	if w.Code != http.StatusOK || w.Body.String() != `{"success":true}` {
		t.Fatalf("unexpected response %d %s", w.Code, w.Body.String())
	}
	if removed != "li-1" {
		t.Fatalf("removed %q", removed)
	}
}

func TestOptionalDate_UnmarshalJSON(t *testing.T) {
	var req UpdateListItemRequest
	if err := json.Unmarshal([]byte(`{"notes":"n"}`), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if req.StartDate.Set || req.FinishDate.Set {
		t.Fatalf("absent dates must not be marked set")
	}

	if err := json.Unmarshal([]byte(`{"startDate":0,"finishDate":"2024-02-14T10:00:00+02:00"}`), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !req.StartDate.Set || req.StartDate.Value == nil || !req.StartDate.Value.Equal(time.Unix(0, 0)) {
		t.Fatalf("epoch millis not parsed: %+v", req.StartDate)
	}
	want := time.Date(2024, 2, 14, 8, 0, 0, 0, time.UTC)
	if req.FinishDate.Value == nil || !req.FinishDate.Value.Equal(want) || req.FinishDate.Value.Location() != time.UTC {
		t.Fatalf("RFC 3339 not parsed to UTC: %+v", req.FinishDate)
	}
}
