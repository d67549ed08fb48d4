package models

import "fmt"

// Level is the severity of a single record.
type Level int

const (
	LevelUnknown Level = iota
	LevelTrace
	LevelDebug
	LevelInfo
	LevelWarning
	LevelError
	LevelFatal
	LevelCritical
)

var levelNames = [...]string{
	LevelUnknown:  "UNKNOWN",
	LevelTrace:    "TRACE",
	LevelDebug:    "DEBUG",
	LevelInfo:     "INFO",
	LevelWarning:  "WARNING",
	LevelError:    "ERROR",
	LevelFatal:    "FATAL",
	LevelCritical: "CRITICAL",
}

// AllLevels lists every level from least to most severe, Unknown first.
var AllLevels = []Level{
	LevelUnknown, LevelTrace, LevelDebug, LevelInfo,
	LevelWarning, LevelError, LevelFatal, LevelCritical,
}

func (l Level) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return levelNames[LevelUnknown]
	}
	return levelNames[l]
}

// IsProblem reports whether the level is a warning or worse.
func (l Level) IsProblem() bool {
	return l >= LevelWarning
}

// MarshalText encodes the level by name so JSON and msgpack carry "ERROR" rather than 5.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText, case-sensitive.
func (l *Level) UnmarshalText(b []byte) error {
	lv, ok := LevelByName(string(b))
	if !ok {
		return fmt.Errorf("unknown level %q", string(b))
	}
	*l = lv
	return nil
}

// LevelByName looks up a level by its canonical name.
func LevelByName(name string) (Level, bool) {
	for i, n := range levelNames {
		if n == name {
			return Level(i), true
		}
	}
	return LevelUnknown, false
}

// Format is the logging convention a document is believed to follow.
type Format int

const (
	FormatUnknown Format = iota
	FormatWebAccess
	FormatWebError
	FormatSyslog
	// FormatWindowsEvent and FormatIIS are reserved; nothing detects them yet.
	FormatWindowsEvent
	FormatIIS
	FormatStructured
	FormatJSON
	FormatCustom
)

var formatInfo = [...]struct {
	display string
	key     string
}{
	FormatUnknown:      {"Unknown", "unknown"},
	FormatWebAccess:    {"Apache/Nginx Access Log", "web_access"},
	FormatWebError:     {"Apache/Nginx Error Log", "web_error"},
	FormatSyslog:       {"Syslog", "syslog"},
	FormatWindowsEvent: {"Windows Event Log", "windows_event"},
	FormatIIS:          {"IIS Log", "iis"},
	FormatStructured:   {"Log4j/Log4net", "structured"},
	FormatJSON:         {"JSON Structured Log", "json"},
	FormatCustom:       {"Generic/Custom", "custom"},
}

// String returns the human readable name shown in views and summaries.
func (f Format) String() string {
	if f < 0 || int(f) >= len(formatInfo) {
		return formatInfo[FormatUnknown].display
	}
	return formatInfo[f].display
}

// Key returns a stable machine identifier for the format.
func (f Format) Key() string {
	if f < 0 || int(f) >= len(formatInfo) {
		return formatInfo[FormatUnknown].key
	}
	return formatInfo[f].key
}

func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.Key()), nil
}

func (f *Format) UnmarshalText(b []byte) error {
	for i, info := range formatInfo {
		if info.key == string(b) {
			*f = Format(i)
			return nil
		}
	}
	return fmt.Errorf("unknown format %q", string(b))
}
