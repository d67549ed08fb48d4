// Package models contains domain types for the log inspector.
package models

// Record is the structured result of parsing one non-empty line.
// String fields are empty rather than absent when nothing was extracted.
type Record struct {
	LineStart  int64  `json:"lineStart"`
	LineEnd    int64  `json:"lineEnd"`
	LineNumber int    `json:"lineNumber"`
	Timestamp  string `json:"timestamp"`
	Level      Level  `json:"level"`
	Source     string `json:"source,omitempty"`
	Message    string `json:"message"`

	// Web access fields
	IPAddress    string `json:"ipAddress,omitempty"`
	HTTPMethod   string `json:"httpMethod,omitempty"`
	URL          string `json:"url,omitempty"`
	HTTPStatus   int    `json:"httpStatus,omitempty"`
	ResponseSize int64  `json:"responseSize,omitempty"`
	UserAgent    string `json:"userAgent,omitempty"`
	Referer      string `json:"referer,omitempty"`
}

// Statistics summarizes a record sequence.
type Statistics struct {
	TotalLines int `json:"totalLines"`

	Unknown int `json:"unknown"`
	Trace   int `json:"trace"`
	Debug   int `json:"debug"`
	Info    int `json:"info"`
	Warning int `json:"warning"`
	Error   int `json:"error"`
	// Fatal counts both Fatal and Critical records.
	Fatal int `json:"fatal"`

	HTTP2xx int `json:"http2xx"`
	HTTP3xx int `json:"http3xx"`
	HTTP4xx int `json:"http4xx"`
	HTTP5xx int `json:"http5xx"`

	FirstTimestamp string `json:"firstTimestamp"`
	LastTimestamp  string `json:"lastTimestamp"`
}

// LevelCount returns the bucket for l. Critical shares the Fatal bucket.
func (s Statistics) LevelCount(l Level) int {
	switch l {
	case LevelTrace:
		return s.Trace
	case LevelDebug:
		return s.Debug
	case LevelInfo:
		return s.Info
	case LevelWarning:
		return s.Warning
	case LevelError:
		return s.Error
	case LevelFatal, LevelCritical:
		return s.Fatal
	default:
		return s.Unknown
	}
}

// HasHTTP reports whether any success, client-error or server-error status was seen.
func (s Statistics) HasHTTP() bool {
	return s.HTTP2xx > 0 || s.HTTP4xx > 0 || s.HTTP5xx > 0
}
