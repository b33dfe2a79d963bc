package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/tbourn/go-bookshelf-backend/internal/apperror"
	"github.com/tbourn/go-bookshelf-backend/internal/domain"
	"github.com/tbourn/go-bookshelf-backend/internal/http/middleware"
	"github.com/tbourn/go-bookshelf-backend/internal/services"
)

// CredentialsRequest is the payload of login.
type CredentialsRequest struct {
	Username string `json:"username" example:"ann"`
	Password string `json:"password" example:"!aBc123"`
}

// RegisterRequest is the payload of register. The password tag is installed
// by auth.RegisterValidation.
type RegisterRequest struct {
	Username string `json:"username" binding:"required" example:"ann"`
	Password string `json:"password" binding:"password" example:"!aBc123"`
}

// UserResponse wraps a user. The password hash is never serialized.
type UserResponse struct {
	User *domain.User `json:"user"`
}

// Register godoc
// @ID          register
// @Summary     Register a user
// @Description Creates a user. Passwords need at least 7 characters and at most 72 bytes, with a lowercase letter, an uppercase letter, a digit and a symbol.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.RegisterRequest  true  "Credentials"
//
// @Success     201  {object}  handlers.UserResponse
// @Failure     400  {object}  handlers.ErrorResponse   "Blank username, weak or too long password, or username taken"
// @Failure     500  {object}  middleware.InternalBody  "Internal error"
// @Router      /auth/register [post]
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failRegisterBinding(c, err)
		return
	}

	u, err := h.userSvc.Register(c.Request.Context(), req.Username, req.Password)
	switch {
	case err == nil:
		ok(c, http.StatusCreated, UserResponse{User: u})
	case errors.Is(err, services.ErrUsernameRequired):
		fail(c, http.StatusBadRequest, ErrCodeUsernameRequired, err.Error())
	case errors.Is(err, services.ErrWeakPassword):
		fail(c, http.StatusBadRequest, ErrCodeWeakPassword, err.Error())
	case errors.Is(err, services.ErrPasswordTooLong):
		fail(c, http.StatusBadRequest, ErrCodePasswordTooLong, err.Error())
	case errors.Is(err, services.ErrUsernameTaken):
		fail(c, http.StatusBadRequest, ErrCodeUsernameTaken, err.Error())
	default:
		internal(c, err)
	}
}

// failRegisterBinding maps validator failures to the same outcomes the
// service reports, so clients see one message per rule.
func failRegisterBinding(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	switch verrs[0].Field() {
	case "Username":
		fail(c, http.StatusBadRequest, ErrCodeUsernameRequired, services.ErrUsernameRequired.Error())
	case "Password":
		fail(c, http.StatusBadRequest, ErrCodeWeakPassword, services.ErrWeakPassword.Error())
	default:
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, verrs[0].Error())
	}
}

// Login godoc
// @ID          login
// @Summary     Log in
// @Description Verifies credentials and returns the user. Send its id as X-User-ID on authenticated routes.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CredentialsRequest  true  "Credentials"
//
// @Success     200  {object}  handlers.UserResponse
// @Failure     400  {object}  handlers.ErrorResponse        "Malformed body"
// @Failure     401  {object}  middleware.AuthorizationBody  "Invalid credentials"
// @Failure     500  {object}  middleware.InternalBody       "Internal error"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	u, err := h.userSvc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			_ = c.Error(apperror.Unauthorized("invalid_credentials", err.Error()))
			c.Abort()
			return
		}
		internal(c, err)
		return
	}
	ok(c, http.StatusOK, UserResponse{User: u})
}

// Me godoc
// @ID          me
// @Summary     Current user
// @Tags        Auth
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "User ID"
//
// @Success     200  {object}  handlers.UserResponse
// @Failure     401  {object}  middleware.AuthorizationBody  "Missing or unknown user"
// @Router      /me [get]
func (h *Handlers) Me(c *gin.Context) {
	u := middleware.UserFrom(c)
	if u == nil {
		_ = c.Error(apperror.Unauthorized("credentials_required", "No authorization token was found"))
		c.Abort()
		return
	}
	ok(c, http.StatusOK, UserResponse{User: u})
}
