package convert

import (
	"path"
	"strings"
)

// TypeMatcher decides whether a concrete event-type string is accepted by a
// definition's include/exclude glob patterns. Patterns use shell-glob
// semantics ('*' any run, '?' one character), not regular expressions.
type TypeMatcher struct {
	includes []string
	excludes []string
}

// NewTypeMatcher partitions the declared patterns into includes and
// exclusions (the '!' prefix). A definition listing only exclusions means
// "match everything except", so an implicit "*" include is added.
func NewTypeMatcher(patterns []string) (*TypeMatcher, error) {
	m := &TypeMatcher{}
	for _, p := range patterns {
		excluded := strings.HasPrefix(p, "!")
		if excluded {
			p = p[1:]
		}
		if _, err := path.Match(p, ""); err != nil {
			return nil, &DefinitionError{Rule: p, Msg: "malformed glob pattern", Err: err}
		}
		if excluded {
			m.excludes = append(m.excludes, p)
		} else {
			m.includes = append(m.includes, p)
		}
	}
	if len(m.excludes) > 0 && len(m.includes) == 0 {
		m.includes = append(m.includes, "*")
	}
	return m, nil
}

// Matches reports whether eventType is accepted: it must match at least one
// include pattern and no exclude pattern.
func (m *TypeMatcher) Matches(eventType string) bool {
	return matchAny(m.includes, eventType) && !matchAny(m.excludes, eventType)
}

// IsCatchAll reports whether this matcher accepts every event type: a "*"
// include with no exclusions. Extra includes alongside "*" do not matter.
func (m *TypeMatcher) IsCatchAll() bool {
	if len(m.excludes) > 0 {
		return false
	}
	for _, p := range m.includes {
		if p == "*" {
			return true
		}
	}
	return false
}

func matchAny(patterns []string, s string) bool {
	for _, p := range patterns {
		// Patterns are validated at build time, so the error is unreachable.
		if ok, _ := path.Match(p, s); ok {
			return true
		}
	}
	return false
}
