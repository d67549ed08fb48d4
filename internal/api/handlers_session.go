// handlers_session.go - Document session handlers
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/loglens/backend/internal/models"
	"github.com/loglens/backend/internal/parser"
	"github.com/loglens/backend/internal/session"
	"github.com/loglens/backend/internal/storage"
	"github.com/loglens/backend/internal/views"
	"github.com/vmihailenco/msgpack/v5"
)

// ViewLimits caps the rows returned by the entries and errors views.
type ViewLimits struct {
	MaxEntries int
	MaxErrors  int
}

// SessionHandlerImpl implements the SessionHandler interface
type SessionHandlerImpl struct {
	store      storage.Store
	sessionMgr SessionManager
	palette    *parser.Palette
	limits     ViewLimits
}

// NewSessionHandler creates a new session handler instance
func NewSessionHandler(store storage.Store, sessionMgr SessionManager, palette *parser.Palette, limits ViewLimits) SessionHandler {
	if palette == nil {
		palette = parser.DefaultPalette()
	}
	return &SessionHandlerImpl{
		store:      store,
		sessionMgr: sessionMgr,
		palette:    palette,
		limits:     limits,
	}
}

type createSessionRequest struct {
	FileID string `json:"fileId"`
	// Force opens files the eligibility probe rejected.
	Force bool `json:"force"`
}

// HandleCreateSession opens a stored file and starts parsing it
func (h *SessionHandlerImpl) HandleCreateSession(c echo.Context) error {
	var req createSessionRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.FileID == "" {
		return NewValidationError("fileId")
	}

	info, err := h.store.Get(req.FileID)
	if err != nil {
		return NewNotFoundError("file", req.FileID)
	}
	if !info.Eligible && !req.Force {
		return NewUnprocessableError(fmt.Sprintf("%s does not look like a log file", info.Name))
	}

	path, err := h.store.GetFilePath(req.FileID)
	if err != nil {
		return NewInternalError("failed to get file path", err)
	}

	sess, err := h.sessionMgr.StartSession(info.ID, info.Name, path)
	if err != nil {
		return NewInternalError("failed to start session", err)
	}
	return c.JSON(http.StatusAccepted, sess)
}

// HandleGetSession returns the current status of a session
func (h *SessionHandlerImpl) HandleGetSession(c echo.Context) error {
	id := c.Param("id")
	sess, ok := h.sessionMgr.GetSession(id)
	if !ok {
		return NewNotFoundError("session", id)
	}
	h.sessionMgr.TouchSession(id)
	return c.JSON(http.StatusOK, sess)
}

// HandleDeleteSession closes a session and releases its document
func (h *SessionHandlerImpl) HandleDeleteSession(c echo.Context) error {
	id := c.Param("id")
	if !h.sessionMgr.DeleteSession(id) {
		return NewNotFoundError("session", id)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleRefreshSession re-reads the session's file from scratch
func (h *SessionHandlerImpl) HandleRefreshSession(c echo.Context) error {
	id := c.Param("id")
	sess, err := h.sessionMgr.RefreshSession(id)
	if err != nil {
		return sessionError(err, id)
	}
	return c.JSON(http.StatusAccepted, sess)
}

// HandleSessionKeepAlive extends session lifetime for active viewing
func (h *SessionHandlerImpl) HandleSessionKeepAlive(c echo.Context) error {
	id := c.Param("id")
	if !h.sessionMgr.TouchSession(id) {
		return NewNotFoundError("session", id)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleProgressStream streams session status via SSE until parsing ends
func (h *SessionHandlerImpl) HandleProgressStream(c echo.Context) error {
	id := c.Param("id")
	if _, ok := h.sessionMgr.GetSession(id); !ok {
		return NewNotFoundError("session", id)
	}

	c.Response().Header().Set("Content-Type", "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().Header().Set("X-Accel-Buffering", "no")
	c.Response().WriteHeader(http.StatusOK)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	timeout := time.NewTimer(5 * time.Minute)
	defer timeout.Stop()

	for {
		sess, ok := h.sessionMgr.GetSession(id)
		if !ok {
			sendSSE(c, map[string]string{"error": "session not found"})
			return nil
		}
		sendSSE(c, sess)
		if sess.Status == models.SessionStatusComplete || sess.Status == models.SessionStatusError {
			return nil
		}

		select {
		case <-ticker.C:
		case <-timeout.C:
			sendSSE(c, map[string]string{"error": "stream timeout"})
			return nil
		case <-c.Request().Context().Done():
			return nil
		}
	}
}

type entriesResponse struct {
	Entries  []models.Record `json:"entries"`
	Page     int             `json:"page"`
	PageSize int             `json:"pageSize"`
	Total    int             `json:"total"`
}

func (h *SessionHandlerImpl) queryEntries(c echo.Context) (entriesResponse, error) {
	id := c.Param("id")
	page, pageSize := pageParams(c)
	params := buildQueryParams(c)

	entries, total, err := h.sessionMgr.QueryEntries(c.Request().Context(), id, params, page, pageSize)
	if err != nil {
		return entriesResponse{}, sessionError(err, id)
	}
	h.sessionMgr.TouchSession(id)
	return entriesResponse{Entries: entries, Page: page, PageSize: pageSize, Total: total}, nil
}

// HandleEntries returns one page of filtered records
func (h *SessionHandlerImpl) HandleEntries(c echo.Context) error {
	resp, err := h.queryEntries(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// HandleEntriesMsgpack returns the same page as HandleEntries in MessagePack
func (h *SessionHandlerImpl) HandleEntriesMsgpack(c echo.Context) error {
	resp, err := h.queryEntries(c)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(resp); err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(http.StatusOK, "application/msgpack", buf.Bytes())
}

// HandleStatistics returns level and HTTP status counts
func (h *SessionHandlerImpl) HandleStatistics(c echo.Context) error {
	id := c.Param("id")
	st, err := h.sessionMgr.GetStatistics(id)
	if err != nil {
		return sessionError(err, id)
	}
	return c.JSON(http.StatusOK, st)
}

// HandleSummary returns the flat document summary
func (h *SessionHandlerImpl) HandleSummary(c echo.Context) error {
	id := c.Param("id")
	s, err := h.sessionMgr.GetSummary(id)
	if err != nil {
		return sessionError(err, id)
	}
	return c.JSON(http.StatusOK, s)
}

// HandleSources returns the most frequent record sources
func (h *SessionHandlerImpl) HandleSources(c echo.Context) error {
	id := c.Param("id")
	limit := 20
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 {
		limit = v
	}
	sources, err := h.sessionMgr.TopSources(c.Request().Context(), id, limit)
	if err != nil {
		return sessionError(err, id)
	}
	if sources == nil {
		sources = []parser.SourceCount{}
	}
	return c.JSON(http.StatusOK, sources)
}

// HandleInformationView returns the information view of a document
func (h *SessionHandlerImpl) HandleInformationView(c echo.Context) error {
	id := c.Param("id")
	var info views.Information
	err := h.sessionMgr.WithDocument(id, func(doc *session.Document) error {
		info = views.BuildInformation(doc)
		return nil
	})
	if err != nil {
		return sessionError(err, id)
	}
	return c.JSON(http.StatusOK, info)
}

// HandleEntriesView returns the leading records of a document, capped
func (h *SessionHandlerImpl) HandleEntriesView(c echo.Context) error {
	id := c.Param("id")
	var list views.List
	err := h.sessionMgr.WithDocument(id, func(doc *session.Document) error {
		list = views.BuildEntries(doc, h.limits.MaxEntries)
		return nil
	})
	if err != nil {
		return sessionError(err, id)
	}
	return c.JSON(http.StatusOK, list)
}

// HandleErrorsView returns warning and worse records, capped
func (h *SessionHandlerImpl) HandleErrorsView(c echo.Context) error {
	id := c.Param("id")
	var list views.List
	err := h.sessionMgr.WithDocument(id, func(doc *session.Document) error {
		list = views.BuildErrors(doc, h.limits.MaxErrors)
		return nil
	})
	if err != nil {
		return sessionError(err, id)
	}
	return c.JSON(http.StatusOK, list)
}

type tokensResponse struct {
	Start int           `json:"start"`
	End   int           `json:"end"`
	Spans []models.Span `json:"spans"`
}

// HandleTokens returns highlight spans for a byte window of the document text
func (h *SessionHandlerImpl) HandleTokens(c echo.Context) error {
	id := c.Param("id")
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = defaultTokenWindow
	}

	var resp tokensResponse
	err = h.sessionMgr.WithDocument(id, func(doc *session.Document) error {
		spans := parser.SpanList{}
		resp.Start, resp.End = doc.TokenizeWindow(offset, limit, &spans)
		resp.Spans = spans
		return nil
	})
	if err != nil {
		return sessionError(err, id)
	}
	return c.JSON(http.StatusOK, resp)
}

// HandlePalette returns the level and highlight class colours
func (h *SessionHandlerImpl) HandlePalette(c echo.Context) error {
	return c.JSON(http.StatusOK, h.palette)
}

const defaultTokenWindow = 64 * 1024

func pageParams(c echo.Context) (int, int) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.QueryParam("pageSize"))
	if pageSize < 1 || pageSize > parser.MaxPageSize {
		pageSize = parser.DefaultPageSize
	}
	return page, pageSize
}

func buildQueryParams(c echo.Context) parser.QueryParams {
	params := parser.QueryParams{
		Search: c.QueryParam("search"),
		Levels: parser.ParseLevels(c.QueryParam("level")),
	}
	if v, err := strconv.Atoi(c.QueryParam("status")); err == nil && v >= 1 && v <= 5 {
		params.StatusClass = v
	}
	return params
}

func sendSSE(c echo.Context, data interface{}) {
	jsonData, _ := json.Marshal(data)
	fmt.Fprintf(c.Response(), "data: %s\n\n", jsonData)
	c.Response().Flush()
}
