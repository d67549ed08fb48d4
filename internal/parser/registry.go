package parser

import (
	"fmt"
	"strings"

	"github.com/loglens/backend/internal/models"
)

// Registry maps detected formats to parsers. Formats without a dedicated
// parser fall back to the generic one.
type Registry struct {
	parsers  []Parser
	byFormat map[models.Format]Parser
	fallback Parser
	detector *Detector
}

// NewRegistry returns a registry with the built-in parsers and default detector.
func NewRegistry() *Registry {
	r := &Registry{
		byFormat: make(map[models.Format]Parser),
		fallback: NewGenericParser(),
		detector: defaultDetector,
	}
	r.Register(models.FormatWebAccess, NewWebAccessParser())
	r.Register(models.FormatSyslog, NewSyslogParser())
	r.Register(models.FormatStructured, NewStructuredParser())
	r.parsers = append(r.parsers, r.fallback)
	return r
}

// WithDetector replaces the detector, e.g. to change the sample size.
func (r *Registry) WithDetector(d *Detector) *Registry {
	r.detector = d
	return r
}

// Register binds a parser to a format.
func (r *Registry) Register(f models.Format, p Parser) {
	r.byFormat[f] = p
	r.parsers = append(r.parsers, p)
}

// Detect classifies content with the registry's detector.
func (r *Registry) Detect(content []byte) models.Format {
	return r.detector.Detect(content)
}

// ForFormat returns the parser bound to f, or the generic parser.
func (r *Registry) ForFormat(f models.Format) Parser {
	if p, ok := r.byFormat[f]; ok {
		return p
	}
	return r.fallback
}

// FindParser detects the format of content and returns it with its parser.
func (r *Registry) FindParser(content []byte) (models.Format, Parser) {
	f := r.Detect(content)
	return f, r.ForFormat(f)
}

// GetParserByName returns a parser by its name.
func (r *Registry) GetParserByName(name string) (Parser, error) {
	name = strings.ToLower(name)
	for _, p := range r.parsers {
		if strings.ToLower(p.Name()) == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("parser not found: %s", name)
}

// Names lists the registered parser names.
func (r *Registry) Names() []string {
	out := make([]string, len(r.parsers))
	for i, p := range r.parsers {
		out[i] = p.Name()
	}
	return out
}
