package parser

import (
	"strings"

	"github.com/loglens/backend/internal/models"
)

// levelAliases maps upper-cased level tokens to a severity.
var levelAliases = map[string]models.Level{
	"TRACE": models.LevelTrace,
	"TRC":   models.LevelTrace,

	"DEBUG": models.LevelDebug,
	"DBG":   models.LevelDebug,
	"DEBU":  models.LevelDebug,

	"INFO":        models.LevelInfo,
	"INF":         models.LevelInfo,
	"INFORMATION": models.LevelInfo,
	"NOTICE":      models.LevelInfo,

	"WARN":    models.LevelWarning,
	"WARNING": models.LevelWarning,
	"WRN":     models.LevelWarning,

	"ERROR": models.LevelError,
	"ERR":   models.LevelError,
	"ERRO":  models.LevelError,

	"FATAL":    models.LevelFatal,
	"FTL":      models.LevelFatal,
	"CRIT":     models.LevelFatal,
	"CRITICAL": models.LevelFatal,
}

// ClassifyLevel maps a free-text level token such as "WARN" or "erro" to a Level.
// Unrecognized tokens yield LevelUnknown.
func ClassifyLevel(token string) models.Level {
	if lv, ok := levelAliases[strings.ToUpper(token)]; ok {
		return lv
	}
	return models.LevelUnknown
}

// LevelRule is one step of a severity inference chain.
type LevelRule struct {
	Keywords []string
	Level    models.Level
}

// inferLevel upper-cases text and returns the level of the first rule with a
// keyword contained in it, or fallback.
func inferLevel(rules []LevelRule, text string, fallback models.Level) models.Level {
	upper := strings.ToUpper(text)
	for _, r := range rules {
		for _, kw := range r.Keywords {
			if strings.Contains(upper, kw) {
				return r.Level
			}
		}
	}
	return fallback
}
