// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, error
// rendering, metrics, compression, CORS, security headers, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery → errors)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/tbourn/go-bookshelf-backend/docs" // registers the OpenAPI document
	"github.com/tbourn/go-bookshelf-backend/internal/auth"
	"github.com/tbourn/go-bookshelf-backend/internal/config"
	"github.com/tbourn/go-bookshelf-backend/internal/domain"
	"github.com/tbourn/go-bookshelf-backend/internal/http/handlers"
	"github.com/tbourn/go-bookshelf-backend/internal/http/middleware"
	"github.com/tbourn/go-bookshelf-backend/internal/repo"
	"github.com/tbourn/go-bookshelf-backend/internal/search"
	"github.com/tbourn/go-bookshelf-backend/internal/services"
)

// bookRepoShim adapts the repository free functions to services.BookRepo.
type bookRepoShim struct{}

// ReadBookByID proxies repo.ReadBookByID.
func (bookRepoShim) ReadBookByID(ctx context.Context, db *gorm.DB, id string) (*domain.Book, error) {
	return repo.ReadBookByID(ctx, db, id)
}

// ReadBooksByIDs proxies repo.ReadBooksByIDs.
func (bookRepoShim) ReadBooksByIDs(ctx context.Context, db *gorm.DB, ids []string) (map[string]domain.Book, error) {
	return repo.ReadBooksByIDs(ctx, db, ids)
}

// ListBooks proxies repo.ListBooks.
func (bookRepoShim) ListBooks(ctx context.Context, db *gorm.DB, limit int) ([]domain.Book, error) {
	return repo.ListBooks(ctx, db, limit)
}

// listItemRepoShim adapts the repository free functions to
// services.ListItemRepo.
type listItemRepoShim struct{}

// QueryListItems proxies repo.QueryListItems.
func (listItemRepoShim) QueryListItems(ctx context.Context, db *gorm.DB, f repo.ListItemFilter) ([]domain.ListItem, error) {
	return repo.QueryListItems(ctx, db, f)
}

// ReadListItemByID proxies repo.ReadListItemByID.
func (listItemRepoShim) ReadListItemByID(ctx context.Context, db *gorm.DB, id string) (*domain.ListItem, error) {
	return repo.ReadListItemByID(ctx, db, id)
}

// CreateListItem proxies repo.CreateListItem.
func (listItemRepoShim) CreateListItem(ctx context.Context, db *gorm.DB, ownerID, bookID string) (*domain.ListItem, error) {
	return repo.CreateListItem(ctx, db, ownerID, bookID)
}

// UpdateListItem proxies repo.UpdateListItem.
func (listItemRepoShim) UpdateListItem(ctx context.Context, db *gorm.DB, id string, p repo.ListItemPatch) (*domain.ListItem, error) {
	return repo.UpdateListItem(ctx, db, id, p)
}

// RemoveListItem proxies repo.RemoveListItem.
func (listItemRepoShim) RemoveListItem(ctx context.Context, db *gorm.DB, id string) error {
	return repo.RemoveListItem(ctx, db, id)
}

// ListItemsStats proxies repo.ListItemsStats (ETag support).
func (listItemRepoShim) ListItemsStats(ctx context.Context, db *gorm.DB, ownerID string) (int64, *time.Time, error) {
	return repo.ListItemsStats(ctx, db, ownerID)
}

// userLookup adapts UserService.Lookup to middleware.UserLookup, translating
// the service's not-found sentinel into the middleware's.
func userLookup(svc *services.UserService) middleware.UserLookup {
	return func(ctx context.Context, id string) (*domain.User, error) {
		u, err := svc.Lookup(ctx, id)
		if errors.Is(err, services.ErrUserNotFound) {
			return nil, middleware.ErrUserNotFound
		}
		return u, err
	}
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. Gzip: outermost writer, so every later write is compressed
//  3. RequestID: generate/propagate correlation id
//  4. RedactingLogger: structured logs with PII scrubbing
//  5. Recovery: panics become 500s through the error responder
//  6. Body size limiter
//  7. Metrics
//  8. ErrorHandler: renders errors pushed with c.Error (inside Metrics and
//     the logger so both observe the final status)
//  9. Rate limiter (per client IP, since identity is not resolved yet;
//     /health and /metrics exempt)
//  10. CORS and Security headers
//
// It panics when the password validation rule cannot be installed on Gin's
// validator, since register requests could not be bound without it.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, idx search.Index, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	if err := auth.RegisterValidation(binding.Validator.Engine()); err != nil {
		panic(err)
	}

	errOpts := middleware.ErrorOptions{HideStack: cfg.ErrorHideStack}

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Compression (Prometheus handles its own encoding)
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 3) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 4) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{middleware.HeaderUserID},
	}))

	// 5) Panic recovery
	r.Use(middleware.Recovery(errOpts))

	// 6) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Error responder
	r.Use(middleware.ErrorHandler(errOpts))

	// 9) Token-bucket rate limiter, keyed by client IP at this point
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP()).
		Exempt("/health", "/metrics")
	r.Use(rl.Handler())

	// 10) CORS posture (safe defaults: allow all if none configured)
	allowHeaders := []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderUserID, "If-None-Match"}
	exposeHeaders := []string{"X-Request-ID", "Content-Length", "ETag"}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist.
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	apiBase := cfg.APIBasePath // e.g. "/api"
	prefixed := func(p string) string {
		if apiBase == "/" {
			return p
		}
		return apiBase + p
	}

	// Security headers. Credentials are never cached; reading lists are
	// private and revalidated against their ETag.
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:      cfg.Security.EnableHSTS,
		HSTSMaxAge:      cfg.Security.HSTSMaxAge,
		EnablePolicy:    true,
		NoStorePrefixes: []string{prefixed("/me"), prefixed("/auth")},
		PrivatePrefixes: []string{prefixed("/list-items")},
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// API docs
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/index
	bookSvc := services.NewBookService(db, bookRepoShim{}, idx)
	itemSvc := services.NewListItemService(db, listItemRepoShim{}, bookRepoShim{})
	userSvc := services.NewUserService(db, auth.NewHasher(cfg.BcryptCost))
	h := handlers.New(bookSvc, itemSvc, userSvc)

	requireUser := middleware.RequireUser(userLookup(userSvc))

	// Public API
	api := groupWithPrefix(r, apiBase)
	{
		// Catalog
		api.GET("/books", h.SearchBooks)
		api.GET("/books/:bookId", h.GetBook)

		// Auth
		api.POST("/auth/register", h.Register)
		api.POST("/auth/login", h.Login)
		api.GET("/me", requireUser, h.Me)

		// Reading list
		items := api.Group("/list-items", requireUser)
		items.GET("", h.GetListItems)
		items.POST("", h.CreateListItem)

		item := items.Group("/:id", h.SetListItem)
		item.GET("", h.GetListItem)
		item.PUT("", h.UpdateListItem)
		item.DELETE("", h.DeleteListItem)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
