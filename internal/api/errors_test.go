package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/loglens/backend/internal/models"
	"github.com/loglens/backend/internal/parser"
	"github.com/loglens/backend/internal/session"
	"github.com/stretchr/testify/assert"
)

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"api error", NewValidationError("fileId"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"wrapped api error", fmt.Errorf("outer: %w", NewNotFoundError("file", "x")), http.StatusNotFound, "NOT_FOUND"},
		{"echo error", echo.NewHTTPError(http.StatusMethodNotAllowed, "nope"), http.StatusMethodNotAllowed, "HTTP_ERROR"},
		{"plain error", errors.New("disk on fire"), http.StatusInternalServerError, "UNKNOWN_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			ErrorHandler(tt.err, c)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), `"code":"`+tt.wantCode+`"`)
		})
	}
}

func TestSessionError(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, sessionError(session.ErrSessionNotFound, "a").Status)
	assert.Equal(t, http.StatusConflict, sessionError(session.ErrSessionNotReady, "a").Status)
	assert.Equal(t, http.StatusInternalServerError, sessionError(errors.New("x"), "a").Status)
}

// notReadyManager reports every session as still parsing.
type notReadyManager struct {
	SessionManager
}

func (notReadyManager) GetSession(id string) (*models.ParseSession, bool) {
	return &models.ParseSession{ID: id, Status: models.SessionStatusParsing}, true
}

func (notReadyManager) TouchSession(string) bool { return true }

func (notReadyManager) WithDocument(string, func(*session.Document) error) error {
	return session.ErrSessionNotReady
}

func (notReadyManager) QueryEntries(context.Context, string, parser.QueryParams, int, int) ([]models.Record, int, error) {
	return nil, 0, session.ErrSessionNotReady
}

func TestSessionHandler_NotReady(t *testing.T) {
	h := NewSessionHandler(nil, notReadyManager{}, nil, ViewLimits{})
	e := echo.New()

	for name, handle := range map[string]echo.HandlerFunc{
		"entries":     h.HandleEntries,
		"information": h.HandleInformationView,
		"tokens":      h.HandleTokens,
	} {
		t.Run(name, func(t *testing.T) {
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
			c.SetParamNames("id")
			c.SetParamValues("s1")

			err := handle(c)
			var apiErr *APIError
			if assert.ErrorAs(t, err, &apiErr) {
				assert.Equal(t, http.StatusConflict, apiErr.Status)
			}
		})
	}
}
