package parser

// StringIntern deduplicates repeated field values such as syslog sources
// and HTTP methods so records share one backing string.
// It is owned by a single parser and is not safe for concurrent use.
type StringIntern struct {
	pool map[string]string
}

// MaxInternPoolSize stops interning once a document has this many distinct values.
const MaxInternPoolSize = 100000

func NewStringIntern() *StringIntern {
	return &StringIntern{pool: make(map[string]string, 256)}
}

// Intern returns the pooled copy of s, storing s if it is new.
func (si *StringIntern) Intern(s string) string {
	if pooled, ok := si.pool[s]; ok {
		return pooled
	}
	if len(si.pool) >= MaxInternPoolSize {
		return s
	}
	si.pool[s] = s
	return s
}

// Len returns the number of unique strings in the pool.
func (si *StringIntern) Len() int {
	return len(si.pool)
}

// Clear drops all interned strings.
func (si *StringIntern) Clear() {
	si.pool = make(map[string]string, 256)
}
