package parser

import (
	"strings"

	"github.com/loglens/backend/internal/models"
)

// DefaultSampleSize is how many leading bytes the detector inspects.
const DefaultSampleSize = 4096

// DetectionRule pairs a format with the predicate that recognizes its sample.
type DetectionRule struct {
	Format models.Format
	Match  func(sample string) bool
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

var monthPrefixes = []string{
	"Jan ", "Feb ", "Mar ", "Apr ", "May ", "Jun ",
	"Jul ", "Aug ", "Sep ", "Oct ", "Nov ", "Dec ",
}

// DefaultDetectionRules is evaluated top-down; the first match wins.
var DefaultDetectionRules = []DetectionRule{
	{
		Format: models.FormatWebAccess,
		Match: func(s string) bool {
			return strings.Contains(s, ` - - [`) &&
				containsAny(s, `" 200 `, `" 404 `, `" 500 `, "GET ", "POST ")
		},
	},
	{
		Format: models.FormatWebError,
		Match: func(s string) bool {
			return containsAny(s, "[error]", "[warn]", "[notice]", "[crit]")
		},
	},
	{
		Format: models.FormatSyslog,
		Match: func(s string) bool {
			return containsAny(s, monthPrefixes...) && strings.Contains(s, "]: ")
		},
	},
	{
		Format: models.FormatStructured,
		Match: func(s string) bool {
			return containsAny(s, " INFO ", " DEBUG ", " ERROR ", " WARN ",
				"[INFO]", "[DEBUG]", "[ERROR]", "[WARN]") &&
				strings.Contains(s, " - ")
		},
	},
	{
		Format: models.FormatJSON,
		Match: func(s string) bool {
			return strings.Contains(s, `{"`) &&
				containsAny(s, `"timestamp"`, `"level"`, `"message"`)
		},
	},
}

// Detector classifies a document by its leading bytes.
type Detector struct {
	rules      []DetectionRule
	sampleSize int
}

// NewDetector returns a detector over rules. A non-positive sampleSize uses DefaultSampleSize.
func NewDetector(rules []DetectionRule, sampleSize int) *Detector {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	return &Detector{rules: rules, sampleSize: sampleSize}
}

// Detect returns the format of the first matching rule, or FormatCustom.
func (d *Detector) Detect(content []byte) models.Format {
	sample := content
	if len(sample) > d.sampleSize {
		sample = sample[:d.sampleSize]
	}
	s := string(sample)
	for _, r := range d.rules {
		if r.Match(s) {
			return r.Format
		}
	}
	return models.FormatCustom
}

var defaultDetector = NewDetector(DefaultDetectionRules, DefaultSampleSize)

// DetectFormat classifies content with the default rules and sample size.
func DetectFormat(content []byte) models.Format {
	return defaultDetector.Detect(content)
}
