// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/loglens/backend/internal/models"
	"github.com/loglens/backend/internal/parser"
	"github.com/loglens/backend/internal/session"
)

// FileHandler handles uploaded file operations
type FileHandler interface {
	HandleUploadFile(c echo.Context) error
	HandleGetRecentFiles(c echo.Context) error
	HandleGetFile(c echo.Context) error
	HandleDeleteFile(c echo.Context) error
	HandleProbeFile(c echo.Context) error
}

// SessionHandler handles open document sessions
type SessionHandler interface {
	HandleCreateSession(c echo.Context) error
	HandleGetSession(c echo.Context) error
	HandleDeleteSession(c echo.Context) error
	HandleRefreshSession(c echo.Context) error
	HandleSessionKeepAlive(c echo.Context) error
	HandleProgressStream(c echo.Context) error
	HandleEntries(c echo.Context) error
	HandleEntriesMsgpack(c echo.Context) error
	HandleStatistics(c echo.Context) error
	HandleSummary(c echo.Context) error
	HandleSources(c echo.Context) error
	HandleInformationView(c echo.Context) error
	HandleEntriesView(c echo.Context) error
	HandleErrorsView(c echo.Context) error
	HandleTokens(c echo.Context) error
	HandlePalette(c echo.Context) error
}

// ActionHandler lists and runs document actions
type ActionHandler interface {
	HandleListActions(c echo.Context) error
	HandleExecuteAction(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// SessionManager is the part of session.Manager the handlers use.
// This allows mocking in tests
type SessionManager interface {
	StartSession(fileID, fileName, filePath string) (*models.ParseSession, error)
	RefreshSession(id string) (*models.ParseSession, error)
	GetSession(id string) (*models.ParseSession, bool)
	DeleteSession(id string) bool
	ListSessions() []*models.ParseSession
	TouchSession(id string) bool
	WithDocument(id string, fn func(doc *session.Document) error) error
	QueryEntries(ctx context.Context, id string, params parser.QueryParams, page, pageSize int) ([]models.Record, int, error)
	GetStatistics(id string) (models.Statistics, error)
	GetSummary(id string) (map[string]any, error)
	TopSources(ctx context.Context, id string, limit int) ([]parser.SourceCount, error)
}

var _ SessionManager = (*session.Manager)(nil)
