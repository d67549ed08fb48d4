// handlers_actions.go - Document action handlers
package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/loglens/backend/internal/actions"
	"github.com/loglens/backend/internal/session"
)

// ActionHandlerImpl implements the ActionHandler interface
type ActionHandlerImpl struct {
	sessionMgr SessionManager
}

// NewActionHandler creates a new action handler instance
func NewActionHandler(sessionMgr SessionManager) ActionHandler {
	return &ActionHandlerImpl{sessionMgr: sessionMgr}
}

type actionInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// HandleListActions returns the built-in actions
func (h *ActionHandlerImpl) HandleListActions(c echo.Context) error {
	all := actions.All()
	out := make([]actionInfo, 0, len(all))
	for _, a := range all {
		out = append(out, actionInfo{ID: a.ID(), Name: a.Name(), Description: a.Description()})
	}
	return c.JSON(http.StatusOK, out)
}

type executeActionRequest struct {
	Params map[string]string `json:"params"`
}

// HandleExecuteAction runs one action against a session's document
func (h *ActionHandlerImpl) HandleExecuteAction(c echo.Context) error {
	id := c.Param("id")
	name := c.Param("name")

	action, err := actions.Lookup(name)
	if err != nil {
		return NewNotFoundError("action", name)
	}

	var req executeActionRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return NewBadRequestError("invalid request body", err)
		}
	}
	// Query parameters fill in anything the body left out.
	for key, vals := range c.QueryParams() {
		if req.Params == nil {
			req.Params = make(map[string]string)
		}
		if _, ok := req.Params[key]; !ok && len(vals) > 0 {
			req.Params[key] = vals[0]
		}
	}

	var effect actions.Effect
	var execErr error
	err = h.sessionMgr.WithDocument(id, func(doc *session.Document) error {
		ctx := &actions.Context{
			Records:  doc.Records(),
			LineText: doc.LineText,
			Params:   req.Params,
		}
		if !action.Applicable(ctx) {
			execErr = errNotApplicable
			return nil
		}
		effect, execErr = action.Execute(ctx)
		return nil
	})
	if err != nil {
		return sessionError(err, id)
	}
	if errors.Is(execErr, errNotApplicable) {
		return NewUnprocessableError(action.Name() + " is not applicable to this document")
	}
	if execErr != nil {
		return NewBadRequestError("action failed", execErr)
	}

	h.sessionMgr.TouchSession(id)
	return c.JSON(http.StatusOK, effect)
}

var errNotApplicable = errors.New("action not applicable")
