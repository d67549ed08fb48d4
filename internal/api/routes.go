// routes.go - Route registration helpers
package api

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/loglens/backend/internal/parser"
	"github.com/loglens/backend/internal/storage"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store          storage.Store
	SessionMgr     SessionManager
	Probe          *parser.Probe
	Palette        *parser.Palette
	Limits         ViewLimits
	TokenBatchSize int
	Version        string

	// AllowFileDeletion registers DELETE /api/files/:id.
	AllowFileDeletion bool
}

// Handlers holds all handler instances
type Handlers struct {
	Health    HealthHandler
	Files     FileHandler
	Session   SessionHandler
	Actions   ActionHandler
	WebSocket *WebSocketHandler

	allowFileDeletion bool
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:    NewHealthHandler(deps.Version, deps.SessionMgr),
		Files:     NewFileHandler(deps.Store, deps.SessionMgr, deps.Probe),
		Session:   NewSessionHandler(deps.Store, deps.SessionMgr, deps.Palette, deps.Limits),
		Actions:   NewActionHandler(deps.SessionMgr),
		WebSocket: NewWebSocketHandler(deps.SessionMgr, deps.TokenBatchSize),

		allowFileDeletion: deps.AllowFileDeletion,
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	api := e.Group("/api")
	api.GET("/health", handlers.Health.HandleHealth)
	api.GET("/palette", handlers.Session.HandlePalette)
	api.GET("/actions", handlers.Actions.HandleListActions)

	files := api.Group("/files")
	files.POST("/upload", handlers.Files.HandleUploadFile)
	files.GET("/recent", handlers.Files.HandleGetRecentFiles)
	files.GET("/:id", handlers.Files.HandleGetFile)
	if handlers.allowFileDeletion {
		files.DELETE("/:id", handlers.Files.HandleDeleteFile)
	}
	files.POST("/:id/probe", handlers.Files.HandleProbeFile)

	sessions := api.Group("/sessions")
	sessions.POST("", handlers.Session.HandleCreateSession)
	sessions.GET("/:id", handlers.Session.HandleGetSession)
	sessions.DELETE("/:id", handlers.Session.HandleDeleteSession)
	sessions.POST("/:id/refresh", handlers.Session.HandleRefreshSession)
	sessions.POST("/:id/keepalive", handlers.Session.HandleSessionKeepAlive)
	sessions.GET("/:id/progress", handlers.Session.HandleProgressStream)
	sessions.GET("/:id/entries", handlers.Session.HandleEntries)
	sessions.GET("/:id/entries/msgpack", handlers.Session.HandleEntriesMsgpack)
	sessions.GET("/:id/stats", handlers.Session.HandleStatistics)
	sessions.GET("/:id/summary", handlers.Session.HandleSummary)
	sessions.GET("/:id/sources", handlers.Session.HandleSources)
	sessions.GET("/:id/views/information", handlers.Session.HandleInformationView)
	sessions.GET("/:id/views/entries", handlers.Session.HandleEntriesView)
	sessions.GET("/:id/views/errors", handlers.Session.HandleErrorsView)
	sessions.GET("/:id/tokens", handlers.Session.HandleTokens)
	sessions.GET("/:id/tokens/ws", handlers.WebSocket.HandleTokenStream)
	sessions.POST("/:id/actions/:name", handlers.Actions.HandleExecuteAction)
}

// MiddlewareOptions toggles the optional middleware.
type MiddlewareOptions struct {
	EnableCORS     bool
	AllowOrigins   []string
	RequestLogging bool
	BodyLimit      string

	// GzipLevel enables response compression when positive.
	GzipLevel int
}

// SetupMiddleware configures the error handler and common middleware
func SetupMiddleware(e *echo.Echo, opts MiddlewareOptions) {
	e.HTTPErrorHandler = ErrorHandler

	e.Use(middleware.Recover())

	if opts.RequestLogging {
		e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
			Skipper: func(c echo.Context) bool {
				// Polling and streaming endpoints would flood the log.
				p := c.Path()
				return strings.HasSuffix(p, "/health") ||
					strings.HasSuffix(p, "/keepalive") ||
					strings.HasSuffix(p, "/progress") ||
					strings.HasSuffix(p, "/tokens/ws")
			},
		}))
	}

	if opts.EnableCORS {
		origins := opts.AllowOrigins
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.DELETE, echo.OPTIONS},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}

	if opts.GzipLevel > 0 {
		e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
			Level: opts.GzipLevel,
			Skipper: func(c echo.Context) bool {
				return c.Request().Header.Get("Accept") == "text/event-stream" ||
					strings.HasSuffix(c.Path(), "/tokens/ws")
			},
		}))
	}

	if opts.BodyLimit != "" {
		e.Use(middleware.BodyLimit(opts.BodyLimit))
	}
}
