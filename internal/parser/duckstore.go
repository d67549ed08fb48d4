package parser

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/loglens/backend/internal/models"
	"github.com/marcboeker/go-duckdb"
)

// RecordIndex stores a document's records in a temporary DuckDB file so large
// documents can be filtered and paged without scanning the slice each time.
type RecordIndex struct {
	db        *sql.DB
	dbPath    string
	count     int
	batchSize int
	batch     []models.Record
	lastError error

	// Cache for total counts by filter to avoid repeated COUNT queries
	countCache   map[string]int
	countCacheMu sync.RWMutex

	// Limits concurrent queries
	querySem chan struct{}
}

const defaultIndexBatch = 50000

// NewRecordIndex creates an index file for one session in tempDir.
func NewRecordIndex(tempDir string, sessionID string) (*RecordIndex, error) {
	dbPath := filepath.Join(tempDir, fmt.Sprintf("session_%s.duckdb", sessionID))
	return NewRecordIndexAtPath(dbPath)
}

// NewRecordIndexAtPath creates an index file at dbPath.
func NewRecordIndexAtPath(dbPath string) (*RecordIndex, error) {
	slog.Debug("record index: creating database", "path", dbPath)

	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		pragmas := []string{
			"PRAGMA memory_limit='512MB'",
			"PRAGMA threads=2",
			"PRAGMA enable_progress_bar=false",
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)
	_, err = db.Exec(`
		CREATE TABLE records (
			id            INTEGER PRIMARY KEY,
			line_number   INTEGER NOT NULL,
			line_start    BIGINT NOT NULL,
			line_end      BIGINT NOT NULL,
			ts            VARCHAR,
			level         TINYINT NOT NULL,
			source        VARCHAR,
			message       VARCHAR,
			ip_address    VARCHAR,
			http_method   VARCHAR,
			url           VARCHAR,
			http_status   INTEGER,
			response_size BIGINT,
			user_agent    VARCHAR,
			referer       VARCHAR
		)
	`)
	if err != nil {
		db.Close()
		os.Remove(dbPath)
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &RecordIndex{
		db:         db,
		dbPath:     dbPath,
		batchSize:  defaultIndexBatch,
		batch:      make([]models.Record, 0, 1024),
		countCache: make(map[string]int),
		querySem:   make(chan struct{}, 3),
	}, nil
}

// Add queues a record. Records are written in batches.
func (ri *RecordIndex) Add(rec models.Record) {
	ri.batch = append(ri.batch, rec)
	ri.count++
	if len(ri.batch) >= ri.batchSize {
		if err := ri.flushBatch(); err != nil {
			ri.lastError = err
			slog.Warn("record index: flush failed", "error", err)
		}
	}
}

// LastError returns the last error that occurred during a batch flush.
func (ri *RecordIndex) LastError() error {
	return ri.lastError
}

// flushBatch writes the pending batch with the DuckDB Appender API.
func (ri *RecordIndex) flushBatch() error {
	if len(ri.batch) == 0 {
		return nil
	}
	start := time.Now()

	conn, err := ri.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	err = conn.Raw(func(driverConn interface{}) error {
		dConn, ok := driverConn.(*duckdb.Conn)
		if !ok {
			return fmt.Errorf("failed to cast to duckdb.Conn")
		}

		appender, err := duckdb.NewAppenderFromConn(dConn, "", "records")
		if err != nil {
			return fmt.Errorf("failed to create appender: %w", err)
		}
		defer appender.Close()

		baseID := ri.count - len(ri.batch)
		for i := range ri.batch {
			r := &ri.batch[i]
			err := appender.AppendRow(
				int32(baseID+i),
				int32(r.LineNumber),
				r.LineStart,
				r.LineEnd,
				r.Timestamp,
				int8(r.Level),
				r.Source,
				r.Message,
				r.IPAddress,
				r.HTTPMethod,
				r.URL,
				int32(r.HTTPStatus),
				r.ResponseSize,
				r.UserAgent,
				r.Referer,
			)
			if err != nil {
				return fmt.Errorf("failed to append row %d: %w", i, err)
			}
		}
		return appender.Flush()
	})
	if err != nil {
		return fmt.Errorf("appender error: %w", err)
	}

	slog.Debug("record index: batch flushed", "rows", len(ri.batch), "elapsed", time.Since(start))
	ri.batch = ri.batch[:0]
	return nil
}

// Finalize flushes pending records and builds the level index.
func (ri *RecordIndex) Finalize() error {
	if err := ri.flushBatch(); err != nil {
		return err
	}
	if _, err := ri.db.Exec("CREATE INDEX idx_level ON records(level)"); err != nil {
		return fmt.Errorf("idx_level creation failed: %w", err)
	}
	return nil
}

// Len returns the number of records added.
func (ri *RecordIndex) Len() int {
	return ri.count
}

// QueryEntries returns one page of records matching params and the total match count.
// Pages are 1-based.
func (ri *RecordIndex) QueryEntries(ctx context.Context, params QueryParams, page, pageSize int) ([]models.Record, int, error) {
	select {
	case ri.querySem <- struct{}{}:
		defer func() { <-ri.querySem }()
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	}

	where, args := buildWhereClause(params)
	cacheKey := where + fmt.Sprint(args...)
	if where == "" {
		cacheKey = "__total__"
	}

	ri.countCacheMu.RLock()
	total, found := ri.countCache[cacheKey]
	ri.countCacheMu.RUnlock()

	if !found {
		countQuery := "SELECT COUNT(*) FROM records"
		if where != "" {
			countQuery += " WHERE " + where
		}
		if err := ri.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count query failed: %w", err)
		}
		ri.countCacheMu.Lock()
		ri.countCache[cacheKey] = total
		ri.countCacheMu.Unlock()
	}

	if total == 0 {
		return []models.Record{}, 0, nil
	}

	page, pageSize = normalizePage(page, pageSize)
	query := `SELECT line_number, line_start, line_end, ts, level, source, message,
		ip_address, http_method, url, http_status, response_size, user_agent, referer
		FROM records`
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY id LIMIT ? OFFSET ?"
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := ri.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("entries query failed: %w", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows, pageSize)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// LevelCounts returns how many records carry each level.
func (ri *RecordIndex) LevelCounts(ctx context.Context) (map[models.Level]int, error) {
	rows, err := ri.db.QueryContext(ctx, "SELECT level, COUNT(*) FROM records GROUP BY level")
	if err != nil {
		return nil, fmt.Errorf("level count query failed: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Level]int)
	for rows.Next() {
		var lv int8
		var n int
		if err := rows.Scan(&lv, &n); err != nil {
			return nil, err
		}
		counts[models.Level(lv)] = n
	}
	return counts, rows.Err()
}

// TopSources returns the most frequent non-empty sources, most frequent first.
func (ri *RecordIndex) TopSources(ctx context.Context, limit int) ([]SourceCount, error) {
	rows, err := ri.db.QueryContext(ctx, `
		SELECT source, COUNT(*) AS n FROM records
		WHERE source <> ''
		GROUP BY source ORDER BY n DESC, source LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("source query failed: %w", err)
	}
	defer rows.Close()

	var out []SourceCount
	for rows.Next() {
		var sc SourceCount
		if err := rows.Scan(&sc.Source, &sc.Count); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// SourceCount pairs a source with its record count.
type SourceCount struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

func buildWhereClause(params QueryParams) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	// Search is a literal substring, so no LIKE wildcards are involved.
	if params.Search != "" {
		needle := strings.ToLower(params.Search)
		clauses = append(clauses, "(contains(lower(message), ?) OR contains(lower(source), ?) OR contains(lower(url), ?))")
		args = append(args, needle, needle, needle)
	}

	if len(params.Levels) > 0 {
		marks := make([]string, len(params.Levels))
		for i, lv := range params.Levels {
			marks[i] = "?"
			args = append(args, int8(lv))
		}
		clauses = append(clauses, "level IN ("+strings.Join(marks, ", ")+")")
	}

	if params.StatusClass > 0 {
		clauses = append(clauses, "http_status >= ? AND http_status < ?")
		lo := params.StatusClass * 100
		args = append(args, lo, lo+100)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return strings.Join(clauses, " AND "), args
}

func scanRecords(rows *sql.Rows, capacity int) ([]models.Record, error) {
	records := make([]models.Record, 0, capacity)
	for rows.Next() {
		var r models.Record
		var lv int8
		err := rows.Scan(&r.LineNumber, &r.LineStart, &r.LineEnd, &r.Timestamp, &lv,
			&r.Source, &r.Message, &r.IPAddress, &r.HTTPMethod, &r.URL,
			&r.HTTPStatus, &r.ResponseSize, &r.UserAgent, &r.Referer)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		r.Level = models.Level(lv)
		records = append(records, r)
	}
	return records, rows.Err()
}

// Close releases the database and removes its file.
func (ri *RecordIndex) Close() error {
	if ri.db != nil {
		ri.db.Close()
	}
	if ri.dbPath != "" {
		os.Remove(ri.dbPath)
		os.Remove(ri.dbPath + ".wal")
	}
	return nil
}
