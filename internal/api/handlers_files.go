// handlers_files.go - Uploaded file handlers
package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/loglens/backend/internal/models"
	"github.com/loglens/backend/internal/parser"
	"github.com/loglens/backend/internal/storage"
)

const maxRecentFiles = 20

// FileHandlerImpl implements the FileHandler interface
type FileHandlerImpl struct {
	store      storage.Store
	sessionMgr SessionManager
	probe      *parser.Probe
}

// NewFileHandler creates a new file handler instance
func NewFileHandler(store storage.Store, sessionMgr SessionManager, probe *parser.Probe) FileHandler {
	if probe == nil {
		probe = parser.NewProbe(nil, 0)
	}
	return &FileHandlerImpl{
		store:      store,
		sessionMgr: sessionMgr,
		probe:      probe,
	}
}

// HandleUploadFile stores a multipart "file" and records whether it looks like a log.
func (h *FileHandlerImpl) HandleUploadFile(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return NewBadRequestError("no file provided", err)
	}

	src, err := fh.Open()
	if err != nil {
		return NewBadRequestError("failed to open uploaded file", err)
	}
	defer src.Close()

	info, err := h.store.Save(filepath.Base(fh.Filename), src)
	if err != nil {
		return NewInternalError("failed to save file", err)
	}

	probed, err := h.probeStored(info)
	if err != nil {
		if delErr := h.store.Delete(info.ID); delErr != nil {
			slog.Warn("failed to remove unprobed upload", "file", info.ID, "error", delErr)
		}
		return err
	}
	return c.JSON(http.StatusCreated, probed)
}

// HandleGetRecentFiles returns the most recently uploaded files
func (h *FileHandlerImpl) HandleGetRecentFiles(c echo.Context) error {
	limit := maxRecentFiles
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	files, err := h.store.List(limit)
	if err != nil {
		return NewInternalError("failed to list files", err)
	}
	if files == nil {
		files = []*models.FileInfo{}
	}
	return c.JSON(http.StatusOK, files)
}

// HandleGetFile returns metadata for a specific file
func (h *FileHandlerImpl) HandleGetFile(c echo.Context) error {
	id := c.Param("id")
	info, err := h.store.Get(id)
	if err != nil {
		return NewNotFoundError("file", id)
	}
	return c.JSON(http.StatusOK, info)
}

// HandleDeleteFile removes a file and closes any session opened on it
func (h *FileHandlerImpl) HandleDeleteFile(c echo.Context) error {
	id := c.Param("id")
	if err := h.store.Delete(id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return NewNotFoundError("file", id)
		}
		return NewInternalError("failed to delete file", err)
	}

	if h.sessionMgr != nil {
		for _, s := range h.sessionMgr.ListSessions() {
			if s.FileID == id {
				h.sessionMgr.DeleteSession(s.ID)
			}
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleProbeFile re-runs the eligibility probe on a stored file
func (h *FileHandlerImpl) HandleProbeFile(c echo.Context) error {
	id := c.Param("id")
	info, err := h.store.Get(id)
	if err != nil {
		return NewNotFoundError("file", id)
	}
	info, err = h.probeStored(info)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"id":        info.ID,
		"name":      info.Name,
		"extension": filepath.Ext(info.Name),
		"eligible":  info.Eligible,
	})
}

func (h *FileHandlerImpl) probeStored(info *models.FileInfo) (*models.FileInfo, error) {
	path, err := h.store.GetFilePath(info.ID)
	if err != nil {
		return nil, NewInternalError("failed to get file path", err)
	}
	prefix, err := readPrefix(path, h.probe.SampleSize)
	if err != nil {
		return nil, NewInternalError("failed to read file", err)
	}
	eligible := h.probe.Eligible(prefix, filepath.Ext(info.Name))
	updated, err := h.store.SetEligible(info.ID, eligible)
	if err != nil {
		return nil, NewInternalError("failed to record probe result", err)
	}
	return updated, nil
}

func readPrefix(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	return buf[:read], nil
}
