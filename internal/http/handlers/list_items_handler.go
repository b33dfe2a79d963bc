package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-bookshelf-backend/internal/domain"
	"github.com/tbourn/go-bookshelf-backend/internal/http/middleware"
	"github.com/tbourn/go-bookshelf-backend/internal/repo"
	"github.com/tbourn/go-bookshelf-backend/internal/services"
)

// ctxKeyListItem holds the *domain.ListItem resolved by SetListItem.
const ctxKeyListItem = "listItem"

//
// DTOs
//

// CreateListItemRequest is the JSON payload for adding a book to the list.
type CreateListItemRequest struct {
	BookID string `json:"bookId" example:"B1"`
}

// UpdateListItemRequest is a partial update. Absent fields are left
// untouched; a null date clears it.
type UpdateListItemRequest struct {
	Rating     *int         `json:"rating,omitempty" example:"4"`
	Notes      *string      `json:"notes,omitempty"  example:"Loved the ending"`
	StartDate  optionalDate `json:"startDate"        swaggertype:"string" example:"2024-01-31T00:00:00Z"`
	FinishDate optionalDate `json:"finishDate"       swaggertype:"string" example:"2024-02-14T00:00:00Z"`
}

// ListItemResponse wraps a single expanded list item.
type ListItemResponse struct {
	ListItem domain.ListItem `json:"listItem"`
}

// ListItemsResponse wraps the caller's expanded list items.
type ListItemsResponse struct {
	ListItems []domain.ListItem `json:"listItems"`
}

// SuccessResponse acknowledges a deletion.
type SuccessResponse struct {
	Success bool `json:"success" example:"true"`
}

// optionalDate distinguishes an absent date from an explicit null.
// Values are RFC 3339 strings, YYYY-MM-DD, or epoch milliseconds.
type optionalDate struct {
	Set   bool
	Value *time.Time
}

func (d *optionalDate) UnmarshalJSON(b []byte) error {
	d.Set = true
	d.Value = nil
	if string(b) == "null" {
		return nil
	}

	var ms int64
	if err := json.Unmarshal(b, &ms); err == nil {
		t := time.UnixMilli(ms).UTC()
		d.Value = &t
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errors.New("date must be a string or epoch milliseconds")
	}
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			d.Value = &t
			return nil
		}
	}
	return fmt.Errorf("invalid date %q", s)
}

func (r UpdateListItemRequest) patch() repo.ListItemPatch {
	p := repo.ListItemPatch{Rating: r.Rating, Notes: r.Notes}
	if r.StartDate.Set {
		if r.StartDate.Value == nil {
			p.ClearStartDate = true
		} else {
			p.StartDate = r.StartDate.Value
		}
	}
	if r.FinishDate.Set {
		if r.FinishDate.Value == nil {
			p.ClearFinishDate = true
		} else {
			p.FinishDate = r.FinishDate.Value
		}
	}
	return p
}

//
// Helpers
//

// listItemFrom returns the item stored by SetListItem.
func listItemFrom(c *gin.Context) (*domain.ListItem, bool) {
	v, exists := c.Get(ctxKeyListItem)
	if !exists {
		return nil, false
	}
	li, isItem := v.(*domain.ListItem)
	return li, isItem && li != nil
}

// listItemsETag is a weak validator over the owner's list: it changes
// whenever an item is added, removed, or updated.
func listItemsETag(ownerID string, count int64, maxTS *time.Time) string {
	var ts int64
	if maxTS != nil {
		ts = maxTS.UnixNano()
	}
	return fmt.Sprintf(`W/"list-items:%s:%d:%d"`, ownerID, count, ts)
}

//
// Handlers
//

// SetListItem resolves the :id path parameter to a list item owned by the
// caller and stores it on the context for the handlers that follow.
//
// Responds 404 when the item does not exist and 403 when it belongs to
// somebody else.
func (h *Handlers) SetListItem(c *gin.Context) {
	id := c.Param("id")
	uid := middleware.UserIDFrom(c)

	li, err := h.itemSvc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrListItemNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound,
				fmt.Sprintf("No list item was found with the id of %s", id))
			return
		}
		internal(c, err)
		return
	}
	if li.OwnerID != uid {
		fail(c, http.StatusForbidden, ErrCodeForbidden,
			fmt.Sprintf("User with id %s is not authorized to access the list item %s", uid, id))
		return
	}

	c.Set(ctxKeyListItem, li)
	c.Next()
}

// GetListItems godoc
// @ID          getListItems
// @Summary     List the caller's reading list
// @Description Returns every list item of the caller, each expanded with its book. Supports weak ETag via If-None-Match and may return 304.
// @Tags        ListItems
// @Produce     json
//
// @Param       X-User-ID      header  string  true   "User ID"                     example(5f1c3c1e-7a0b-4d5e-9a51-0c8f7f2b1d11)
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"  example(W/\"list-items:u1:3:1700000000\")
//
// @Success     200  {object}  handlers.ListItemsResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     401  {object}  middleware.AuthorizationBody  "Missing or unknown user"
// @Failure     500  {object}  middleware.InternalBody       "Internal error"
// @Router      /list-items [get]
func (h *Handlers) GetListItems(c *gin.Context) {
	ctx := c.Request.Context()
	uid := middleware.UserIDFrom(c)

	// ETag pre-check (best effort).
	if count, maxTS, err := h.itemSvc.Stats(ctx, uid); err == nil {
		etag := listItemsETag(uid, count, maxTS)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, err := h.itemSvc.List(ctx, uid)
	if err != nil {
		internal(c, err)
		return
	}
	ok(c, http.StatusOK, ListItemsResponse{ListItems: items})
}

// GetListItem godoc
// @ID          getListItem
// @Summary     Get a list item
// @Tags        ListItems
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "User ID"
// @Param       id         path    string  true  "List item ID (UUID)"  format(uuid)
//
// @Success     200  {object}  handlers.ListItemResponse
// @Failure     401  {object}  middleware.AuthorizationBody  "Missing or unknown user"
// @Failure     403  {object}  handlers.ErrorResponse        "Not the owner"
// @Failure     404  {object}  handlers.ErrorResponse        "List item not found"
// @Failure     500  {object}  middleware.InternalBody       "Internal error"
// @Router      /list-items/{id} [get]
func (h *Handlers) GetListItem(c *gin.Context) {
	li, found := listItemFrom(c)
	if !found {
		internal(c, errors.New("list item missing from context"))
		return
	}

	expanded, err := h.itemSvc.Expand(c.Request.Context(), *li)
	if err != nil {
		internal(c, err)
		return
	}
	ok(c, http.StatusOK, ListItemResponse{ListItem: expanded})
}

// CreateListItem godoc
// @ID          createListItem
// @Summary     Add a book to the reading list
// @Tags        ListItems
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string                          true  "User ID"
// @Param       body       body    handlers.CreateListItemRequest  true  "Book to add"
//
// @Success     200  {object}  handlers.ListItemResponse
// @Failure     400  {object}  handlers.ErrorResponse        "Missing bookId or already listed"
// @Failure     401  {object}  middleware.AuthorizationBody  "Missing or unknown user"
// @Failure     404  {object}  handlers.ErrorResponse        "Book not found"
// @Failure     500  {object}  middleware.InternalBody       "Internal error"
// @Router      /list-items [post]
func (h *Handlers) CreateListItem(c *gin.Context) {
	var req CreateListItemRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.BookID) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "No bookId provided")
		return
	}
	uid := middleware.UserIDFrom(c)
	bookID := strings.TrimSpace(req.BookID)

	li, err := h.itemSvc.Create(c.Request.Context(), uid, bookID)
	switch {
	case err == nil:
		ok(c, http.StatusOK, ListItemResponse{ListItem: *li})
	case errors.Is(err, services.ErrListItemExists):
		fail(c, http.StatusBadRequest, ErrCodeListItemExists,
			fmt.Sprintf("User %s already has a list item for the book with the ID %s", uid, bookID))
	case errors.Is(err, services.ErrBookNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, bookNotFoundMessage(bookID))
	default:
		internal(c, err)
	}
}

// UpdateListItem godoc
// @ID          updateListItem
// @Summary     Update a list item
// @Description Partial update. Omitted fields are kept; a null date clears it.
// @Tags        ListItems
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string                          true  "User ID"
// @Param       id         path    string                          true  "List item ID (UUID)"  format(uuid)
// @Param       body       body    handlers.UpdateListItemRequest  true  "Fields to change"
//
// @Success     200  {object}  handlers.ListItemResponse
// @Failure     400  {object}  handlers.ErrorResponse        "Invalid body, rating, or dates"
// @Failure     401  {object}  middleware.AuthorizationBody  "Missing or unknown user"
// @Failure     403  {object}  handlers.ErrorResponse        "Not the owner"
// @Failure     404  {object}  handlers.ErrorResponse        "List item not found"
// @Failure     500  {object}  middleware.InternalBody       "Internal error"
// @Router      /list-items/{id} [put]
func (h *Handlers) UpdateListItem(c *gin.Context) {
	li, found := listItemFrom(c)
	if !found {
		internal(c, errors.New("list item missing from context"))
		return
	}

	var req UpdateListItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	updated, err := h.itemSvc.Update(c.Request.Context(), *li, req.patch())
	switch {
	case err == nil:
		ok(c, http.StatusOK, ListItemResponse{ListItem: *updated})
	case errors.Is(err, services.ErrInvalidRating):
		fail(c, http.StatusBadRequest, ErrCodeInvalidRating, err.Error())
	case errors.Is(err, services.ErrInvalidDates):
		fail(c, http.StatusBadRequest, ErrCodeInvalidDates, err.Error())
	case errors.Is(err, services.ErrListItemNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound,
			fmt.Sprintf("No list item was found with the id of %s", li.ID))
	default:
		internal(c, err)
	}
}

// DeleteListItem godoc
// @ID          deleteListItem
// @Summary     Remove a list item
// @Tags        ListItems
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "User ID"
// @Param       id         path    string  true  "List item ID (UUID)"  format(uuid)
//
// @Success     200  {object}  handlers.SuccessResponse
// @Failure     401  {object}  middleware.AuthorizationBody  "Missing or unknown user"
// @Failure     403  {object}  handlers.ErrorResponse        "Not the owner"
// @Failure     404  {object}  handlers.ErrorResponse        "List item not found"
// @Failure     500  {object}  middleware.InternalBody       "Internal error"
// @Router      /list-items/{id} [delete]
func (h *Handlers) DeleteListItem(c *gin.Context) {
	li, found := listItemFrom(c)
	if !found {
		internal(c, errors.New("list item missing from context"))
		return
	}

	if err := h.itemSvc.Remove(c.Request.Context(), li.ID); err != nil {
		if errors.Is(err, services.ErrListItemNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound,
				fmt.Sprintf("No list item was found with the id of %s", li.ID))
			return
		}
		internal(c, err)
		return
	}
	ok(c, http.StatusOK, SuccessResponse{Success: true})
}
