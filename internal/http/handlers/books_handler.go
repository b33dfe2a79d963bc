package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-bookshelf-backend/internal/domain"
	"github.com/tbourn/go-bookshelf-backend/internal/services"
	"github.com/tbourn/go-bookshelf-backend/internal/utils"
)

// BooksResponse wraps a list of books.
type BooksResponse struct {
	Books []domain.Book `json:"books"`
}

// BookResponse wraps a single book.
type BookResponse struct {
	Book *domain.Book `json:"book"`
}

func bookNotFoundMessage(id string) string {
	return fmt.Sprintf("No book found with the ID of %s", id)
}

// SearchBooks godoc
// @ID          searchBooks
// @Summary     Search the catalog
// @Description Returns books ranked by relevance to query. An empty query returns the first books by title.
// @Tags        Books
// @Produce     json
//
// @Param       query  query  string  false  "Search text"     example(dune)
// @Param       limit  query  int     false  "Maximum results" minimum(1) maximum(50) default(10)
//
// @Success     200  {object}  handlers.BooksResponse
// @Failure     500  {object}  middleware.InternalBody  "Internal error"
// @Router      /books [get]
func (h *Handlers) SearchBooks(c *gin.Context) {
	limit := utils.AtoiDefault(c.Query("limit"), 0)

	books, err := h.bookSvc.Search(c.Request.Context(), c.Query("query"), limit)
	if err != nil {
		internal(c, err)
		return
	}
	ok(c, http.StatusOK, BooksResponse{Books: books})
}

// GetBook godoc
// @ID          getBook
// @Summary     Get a book
// @Tags        Books
// @Produce     json
//
// @Param       bookId  path  string  true  "Book ID"  example(B1)
//
// @Success     200  {object}  handlers.BookResponse
// @Failure     404  {object}  handlers.ErrorResponse   "Book not found"
// @Failure     500  {object}  middleware.InternalBody  "Internal error"
// @Router      /books/{bookId} [get]
func (h *Handlers) GetBook(c *gin.Context) {
	id := c.Param("bookId")

	b, err := h.bookSvc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrBookNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, bookNotFoundMessage(id))
			return
		}
		internal(c, err)
		return
	}
	ok(c, http.StatusOK, BookResponse{Book: b})
}
