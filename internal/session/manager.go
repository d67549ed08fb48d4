package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/loglens/backend/internal/models"
	"github.com/loglens/backend/internal/parser"
)

// MaxSessions limits concurrent sessions to prevent memory exhaustion
const MaxSessions = 10

// SessionMaxAge is how long to keep completed sessions before cleanup
const SessionMaxAge = 30 * time.Minute

// SessionKeepAliveWindow is how long to keep sessions that are actively being used
const SessionKeepAliveWindow = 5 * time.Minute

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionNotReady = errors.New("session is not ready")
)

// ManagerOptions configures a Manager. Zero values select defaults.
type ManagerOptions struct {
	TempDir  string
	ParseCap int64
	// SampleSize is the detector sample length in bytes.
	SampleSize int
	// IndexThreshold enables a DuckDB record index for documents with at
	// least this many records. Zero disables indexing.
	IndexThreshold int
}

// Manager owns open documents. It is the single writer for each document:
// a refresh builds a new Document off-lock and swaps it in under the write lock.
type Manager struct {
	sessions map[string]*SessionState
	mu       sync.RWMutex
	opts     ManagerOptions
}

// SessionState holds the session metadata and its document.
type SessionState struct {
	Session      *models.ParseSession
	FilePath     string
	Document     *Document
	Index        *parser.RecordIndex // nil unless the document crossed IndexThreshold
	LastAccessed time.Time
	generation   int
}

// NewManager creates a session manager.
func NewManager(opts ManagerOptions) *Manager {
	if opts.TempDir == "" {
		opts.TempDir = "./data/temp"
	}
	if opts.ParseCap <= 0 {
		opts.ParseCap = DefaultParseCap
	}
	if opts.SampleSize <= 0 {
		opts.SampleSize = parser.DefaultSampleSize
	}
	return &Manager{
		sessions: make(map[string]*SessionState),
		opts:     opts,
	}
}

// NewManagerWithTempDir creates a session manager with defaults and a specific temp directory.
func NewManagerWithTempDir(tempDir string) *Manager {
	return NewManager(ManagerOptions{TempDir: tempDir})
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// StartSession opens filePath and refreshes it in the background.
func (m *Manager) StartSession(fileID, fileName, filePath string) (*models.ParseSession, error) {
	m.cleanupOldSessionsIfNeeded()

	if _, err := os.Stat(filePath); err != nil {
		return nil, fmt.Errorf("stat %s: %w", fileName, err)
	}

	sessionID := uuid.New().String()
	session := models.NewParseSession(sessionID, fileID)
	session.FileName = fileName
	session.Status = models.SessionStatusParsing

	state := &SessionState{
		Session:      session,
		FilePath:     filePath,
		LastAccessed: time.Now(),
	}

	m.mu.Lock()
	m.sessions[sessionID] = state
	gen := state.generation
	m.mu.Unlock()

	go m.runParse(sessionID, gen)

	return copySession(session), nil
}

// RefreshSession re-reads the session's file from scratch in the background.
func (m *Manager) RefreshSession(id string) (*models.ParseSession, error) {
	m.mu.Lock()
	state, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	state.generation++
	gen := state.generation
	state.Session.Status = models.SessionStatusParsing
	state.Session.Progress = 0
	state.Session.Errors = make([]models.ParseError, 0)
	state.LastAccessed = time.Now()
	snapshot := copySession(state.Session)
	m.mu.Unlock()

	go m.runParse(id, gen)
	return snapshot, nil
}

func (m *Manager) runParse(sessionID string, gen int) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("parse panicked", "session", shortID(sessionID), "panic", r)
			m.updateSessionError(sessionID, gen, fmt.Sprintf("parse panicked: %v", r))
		}
	}()

	start := time.Now()

	m.mu.RLock()
	state, ok := m.sessions[sessionID]
	var filePath, fileName string
	if ok {
		filePath = state.FilePath
		fileName = state.Session.FileName
	}
	m.mu.RUnlock()
	if !ok {
		return
	}

	slog.Info("parse started", "session", shortID(sessionID), "path", filePath)

	src, err := OpenFile(filePath)
	if err != nil {
		m.updateSessionError(sessionID, gen, fmt.Sprintf("open failed: %v", err))
		return
	}
	defer src.Close()

	progressCb := func(lines int, bytesRead, totalBytes int64) {
		progress := 10.0
		if totalBytes > 0 {
			progress = 10.0 + float64(bytesRead)*80.0/float64(totalBytes)
		}
		// 90-100% is for finalization
		if progress > 89.9 {
			progress = 89.9
		}
		m.mu.Lock()
		if st, ok := m.sessions[sessionID]; ok && st.generation == gen {
			st.Session.Progress = progress
			st.Session.EntryCount = lines
		}
		m.mu.Unlock()
	}

	registry := parser.NewRegistry().WithDetector(
		parser.NewDetector(parser.DefaultDetectionRules, m.opts.SampleSize))
	doc := NewDocument(fileName, src, Options{
		ParseCap:   m.opts.ParseCap,
		Registry:   registry,
		OnProgress: progressCb,
	})
	if err := doc.Refresh(); err != nil {
		slog.Warn("refresh failed", "session", shortID(sessionID), "error", err)
		m.updateSessionError(sessionID, gen, err.Error())
		return
	}

	var index *parser.RecordIndex
	if m.opts.IndexThreshold > 0 && len(doc.Records()) >= m.opts.IndexThreshold {
		index = m.buildIndex(sessionID, gen, doc.Records())
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	slog.Info("parse complete",
		"session", shortID(sessionID),
		"format", doc.Format().Key(),
		"records", len(doc.Records()),
		"truncated", doc.Truncated(),
		"indexed", index != nil,
		"alloc_mb", memStats.Alloc/1024/1024,
		"elapsed", time.Since(start))

	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.sessions[sessionID]
	if !ok || st.generation != gen {
		// Deleted or superseded by a newer refresh.
		if index != nil {
			index.Close()
		}
		return
	}
	if st.Index != nil {
		st.Index.Close()
	}
	st.Document = doc
	st.Index = index

	s := st.Session
	s.Status = models.SessionStatusComplete
	s.Progress = 100
	s.Format = doc.Format()
	s.FormatName = doc.Format().String()
	s.ParserName = doc.ParserName()
	s.EntryCount = len(doc.Records())
	s.ContentSize = doc.Size()
	s.Truncated = doc.Truncated()
	s.Indexed = index != nil
	s.ProcessingTimeMs = time.Since(start).Milliseconds()
	s.StartTime = start.UnixMilli()
	s.EndTime = time.Now().UnixMilli()
}

func (m *Manager) buildIndex(sessionID string, gen int, records []models.Record) *parser.RecordIndex {
	if err := os.MkdirAll(m.opts.TempDir, 0755); err != nil {
		slog.Warn("record index disabled", "session", shortID(sessionID), "error", err)
		return nil
	}
	idx, err := parser.NewRecordIndex(m.opts.TempDir, fmt.Sprintf("%s_%d", sessionID, gen))
	if err != nil {
		slog.Warn("record index disabled", "session", shortID(sessionID), "error", err)
		return nil
	}
	for _, r := range records {
		idx.Add(r)
	}
	if err := idx.Finalize(); err != nil {
		slog.Warn("record index finalize failed", "session", shortID(sessionID), "error", err)
		idx.Close()
		return nil
	}
	return idx
}

func (m *Manager) updateSessionError(sessionID string, gen int, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[sessionID]
	if !ok || state.generation != gen {
		return
	}
	if state.Index != nil {
		state.Index.Close()
		state.Index = nil
	}
	state.Document = nil
	state.Session.Status = models.SessionStatusError
	state.Session.EntryCount = 0
	state.Session.Errors = append(state.Session.Errors, models.ParseError{Reason: reason})
}

// cleanupOldSessionsIfNeeded evicts the least recently used finished session
// once MaxSessions is reached.
func (m *Manager) cleanupOldSessionsIfNeeded() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) < MaxSessions {
		return
	}

	var oldestID string
	var oldest time.Time
	for id, state := range m.sessions {
		if state.Session.Status == models.SessionStatusParsing {
			continue
		}
		if oldestID == "" || state.LastAccessed.Before(oldest) {
			oldestID = id
			oldest = state.LastAccessed
		}
	}
	if oldestID != "" {
		slog.Info("evicting session", "session", shortID(oldestID))
		m.removeLocked(oldestID)
	}
}

// CleanupOldSessions removes finished sessions not accessed within maxAge,
// keeping any touched within SessionKeepAliveWindow.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	keepAliveCutoff := time.Now().Add(-SessionKeepAliveWindow)

	for id, state := range m.sessions {
		if state.Session.Status != models.SessionStatusComplete &&
			state.Session.Status != models.SessionStatusError {
			continue
		}
		if state.LastAccessed.After(keepAliveCutoff) {
			continue
		}
		if state.LastAccessed.Before(cutoff) {
			slog.Info("session expired", "session", shortID(id))
			m.removeLocked(id)
		}
	}
}

// DeleteSession closes and forgets a session.
func (m *Manager) DeleteSession(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return false
	}
	m.removeLocked(id)
	return true
}

func (m *Manager) removeLocked(id string) {
	if state, ok := m.sessions[id]; ok && state.Index != nil {
		state.Index.Close()
	}
	delete(m.sessions, id)
}

// Close releases every session.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range m.sessions {
		m.removeLocked(id)
	}
}

// GetSession returns a snapshot of a session by ID.
func (m *Manager) GetSession(id string) (*models.ParseSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	return copySession(state.Session), true
}

// ListSessions returns snapshots of all sessions.
func (m *Manager) ListSessions() []*models.ParseSession {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.ParseSession, 0, len(m.sessions))
	for _, state := range m.sessions {
		out = append(out, copySession(state.Session))
	}
	return out
}

func copySession(s *models.ParseSession) *models.ParseSession {
	c := *s
	c.Errors = append([]models.ParseError(nil), s.Errors...)
	return &c
}

// TouchSession updates the LastAccessed timestamp so the session survives cleanup.
func (m *Manager) TouchSession(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok {
		return false
	}
	state.LastAccessed = time.Now()
	return true
}

// WithDocument runs fn with the session's document under the read lock.
// fn must not retain the document or its records past its return.
func (m *Manager) WithDocument(id string, fn func(doc *Document) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	if state.Document == nil {
		return ErrSessionNotReady
	}
	return fn(state.Document)
}

// QueryEntries returns one page of filtered records, using the record index when present.
func (m *Manager) QueryEntries(ctx context.Context, id string, params parser.QueryParams, page, pageSize int) ([]models.Record, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.sessions[id]
	if !ok {
		return nil, 0, ErrSessionNotFound
	}
	if state.Document == nil {
		return nil, 0, ErrSessionNotReady
	}

	if state.Index != nil {
		records, total, err := state.Index.QueryEntries(ctx, params, page, pageSize)
		if err == nil {
			return records, total, nil
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, 0, err
		}
		slog.Warn("index query failed, falling back to memory", "session", shortID(id), "error", err)
	}

	records, total := parser.FilterPage(state.Document.Records(), params, page, pageSize)
	return records, total, nil
}

// GetStatistics returns the statistics of a parsed session.
func (m *Manager) GetStatistics(id string) (models.Statistics, error) {
	var st models.Statistics
	err := m.WithDocument(id, func(doc *Document) error {
		st = doc.Statistics()
		return nil
	})
	return st, err
}

// GetSummary returns the flat summary of a parsed session.
func (m *Manager) GetSummary(id string) (map[string]any, error) {
	var s map[string]any
	err := m.WithDocument(id, func(doc *Document) error {
		s = doc.Summary()
		return nil
	})
	return s, err
}

// TopSources reports the most frequent sources, from the record index when present.
func (m *Manager) TopSources(ctx context.Context, id string, limit int) ([]parser.SourceCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if state.Document == nil {
		return nil, ErrSessionNotReady
	}
	if state.Index == nil {
		return topSourcesInMemory(state.Document, limit), nil
	}
	return state.Index.TopSources(ctx, limit)
}

func topSourcesInMemory(doc *Document, limit int) []parser.SourceCount {
	if doc == nil {
		return nil
	}
	counts := make(map[string]int)
	var order []string
	for _, r := range doc.Records() {
		if r.Source == "" {
			continue
		}
		if counts[r.Source] == 0 {
			order = append(order, r.Source)
		}
		counts[r.Source]++
	}
	out := make([]parser.SourceCount, 0, len(order))
	for _, s := range order {
		out = append(out, parser.SourceCount{Source: s, Count: counts[s]})
	}
	sortSourceCounts(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func sortSourceCounts(sc []parser.SourceCount) {
	sort.Slice(sc, func(i, j int) bool {
		if sc[i].Count != sc[j].Count {
			return sc[i].Count > sc[j].Count
		}
		return sc[i].Source < sc[j].Source
	})
}
