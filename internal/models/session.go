package models

// SessionStatus represents the status of a parse session.
type SessionStatus string

const (
	SessionStatusPending  SessionStatus = "pending"
	SessionStatusParsing  SessionStatus = "parsing"
	SessionStatusComplete SessionStatus = "complete"
	SessionStatusError    SessionStatus = "error"
)

// ParseSession is the client-visible state of one open document.
type ParseSession struct {
	ID               string        `json:"id"`
	FileID           string        `json:"fileId"`
	FileName         string        `json:"fileName,omitempty"`
	Status           SessionStatus `json:"status"`
	Progress         float64       `json:"progress"` // 0-100
	Format           Format        `json:"format"`
	FormatName       string        `json:"formatName,omitempty"`
	ParserName       string        `json:"parserName,omitempty"`
	EntryCount       int           `json:"entryCount"`
	ContentSize      int64         `json:"contentSize,omitempty"`
	Truncated        bool          `json:"truncated,omitempty"`
	Indexed          bool          `json:"indexed,omitempty"`
	ProcessingTimeMs int64         `json:"processingTimeMs,omitempty"`
	StartTime        int64         `json:"startTime,omitempty"` // Unix ms
	EndTime          int64         `json:"endTime,omitempty"`   // Unix ms
	Errors           []ParseError  `json:"errors,omitempty"`
}

// ParseError describes why a session failed.
type ParseError struct {
	Line    int    `json:"line,omitempty"`
	Content string `json:"content,omitempty"`
	Reason  string `json:"reason"`
}

// NewParseSession creates a new ParseSession in pending status.
func NewParseSession(id, fileID string) *ParseSession {
	return &ParseSession{
		ID:       id,
		FileID:   fileID,
		Status:   SessionStatusPending,
		Progress: 0,
		Errors:   make([]ParseError, 0),
	}
}
