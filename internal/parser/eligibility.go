package parser

import (
	"strings"
)

// DefaultLogExtensions are the file extensions the probe accepts.
var DefaultLogExtensions = []string{".log", ".txt", ".logs"}

var (
	httpSignatures = []string{"GET ", "POST ", "HTTP/", `" 200 `, `" 404 `, `" 500 `}

	dateSignatures = []string{
		"202",
		"/Jan/", "/Feb/", "/Mar/", "/Apr/", "/May/", "/Jun/",
		"/Jul/", "/Aug/", "/Sep/", "/Oct/", "/Nov/", "/Dec/",
		"Jan ", "Feb ", "Mar ", "Apr ", "May ", "Jun ",
		"Jul ", "Aug ", "Sep ", "Oct ", "Nov ", "Dec ",
	}

	levelSignatures = []string{
		"ERROR", "WARN", "INFO", "DEBUG", "TRACE", "FATAL",
		"error", "warn", "info", "debug",
		"[error]", "[warn]", "[info]",
	}
)

// Probe decides whether a file looks like a log worth parsing.
type Probe struct {
	Extensions []string
	SampleSize int
}

// NewProbe returns a probe for the given extensions. Nil extensions use
// DefaultLogExtensions; a non-positive sample size uses DefaultSampleSize.
func NewProbe(extensions []string, sampleSize int) *Probe {
	if extensions == nil {
		extensions = DefaultLogExtensions
	}
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	norm := make([]string, 0, len(extensions))
	for _, e := range extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		norm = append(norm, e)
	}
	return &Probe{Extensions: norm, SampleSize: sampleSize}
}

// Eligible reports whether a file with extension ext and leading bytes prefix
// should be parsed. An HTTP signature is enough on its own; otherwise a
// date-like or level-like signature is required.
func (p *Probe) Eligible(prefix []byte, ext string) bool {
	if !p.acceptsExtension(ext) {
		return false
	}
	if len(prefix) > p.SampleSize {
		prefix = prefix[:p.SampleSize]
	}
	s := string(prefix)
	if containsAny(s, httpSignatures...) {
		return true
	}
	return containsAny(s, dateSignatures...) || containsAny(s, levelSignatures...)
}

func (p *Probe) acceptsExtension(ext string) bool {
	ext = strings.ToLower(ext)
	for _, e := range p.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

var defaultProbe = NewProbe(nil, DefaultSampleSize)

// IsEligible applies the default probe.
func IsEligible(prefix []byte, ext string) bool {
	return defaultProbe.Eligible(prefix, ext)
}
