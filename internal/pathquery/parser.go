package pathquery

import (
	"fmt"
)

// SyntaxError reports an unparsable path expression.
type SyntaxError struct {
	Expr string
	Pos  int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid path %q: %s at position %d", e.Expr, e.Msg, e.Pos)
}

// segment is one step of a compiled path: a key lookup into a mapping.
type segment struct {
	key string
}

// path is one fully parsed alternative of a query.
type path struct {
	expr     string
	segments []segment
}

// parsePath parses a single path expression into its segment list.
//
// Grammar (informal):
//
//	path     = segment ( "." segment | bracket )*
//	segment  = bare-key | quoted-key | bracket
//	bracket  = "[" ( bare-key | quoted-key ) "]"
//
// Bare keys run until the next '.', '[' or end of input. Quoted keys (single
// or double quotes) may contain any character, which is how keys with dots in
// them are addressed, e.g. payload.image_meta.'org.openstack__1__architecture'.
func parsePath(expr string) (path, error) {
	p := path{expr: expr}
	if expr == "" {
		return p, &SyntaxError{Expr: expr, Pos: 0, Msg: "empty expression"}
	}
	i := 0
	for {
		seg, next, err := parseSegment(expr, i)
		if err != nil {
			return p, err
		}
		p.segments = append(p.segments, seg)
		i = next
		if i >= len(expr) {
			return p, nil
		}
		switch expr[i] {
		case '.':
			i++
			if i >= len(expr) {
				return p, &SyntaxError{Expr: expr, Pos: i, Msg: "trailing dot"}
			}
		case '[':
			// Bracket access follows the previous segment directly,
			// e.g. payload[host].
		default:
			return p, &SyntaxError{Expr: expr, Pos: i,
				Msg: fmt.Sprintf("unexpected character %q", expr[i])}
		}
	}
}

// parseSegment reads one segment starting at position i and returns it along
// with the position of the first unconsumed character.
func parseSegment(expr string, i int) (segment, int, error) {
	switch ch := expr[i]; {
	case ch == '[':
		return parseBracket(expr, i)
	case ch == '\'' || ch == '"':
		key, next, err := parseQuoted(expr, i)
		if err != nil {
			return segment{}, 0, err
		}
		return segment{key: key}, next, nil
	default:
		j := i
		for j < len(expr) && expr[j] != '.' && expr[j] != '[' {
			if expr[j] == ']' {
				return segment{}, 0, &SyntaxError{Expr: expr, Pos: j, Msg: "unexpected ']'"}
			}
			j++
		}
		if j == i {
			return segment{}, 0, &SyntaxError{Expr: expr, Pos: i, Msg: "empty key"}
		}
		return segment{key: expr[i:j]}, j, nil
	}
}

// parseBracket reads a "[key]" or "['key']" segment starting at the '['.
func parseBracket(expr string, i int) (segment, int, error) {
	open := i
	i++ // consume '['
	if i >= len(expr) {
		return segment{}, 0, &SyntaxError{Expr: expr, Pos: open, Msg: "unterminated bracket"}
	}
	var key string
	if expr[i] == '\'' || expr[i] == '"' {
		var err error
		key, i, err = parseQuoted(expr, i)
		if err != nil {
			return segment{}, 0, err
		}
	} else {
		j := i
		for j < len(expr) && expr[j] != ']' {
			j++
		}
		key = expr[i:j]
		i = j
	}
	if i >= len(expr) || expr[i] != ']' {
		return segment{}, 0, &SyntaxError{Expr: expr, Pos: open, Msg: "unterminated bracket"}
	}
	if key == "" {
		return segment{}, 0, &SyntaxError{Expr: expr, Pos: open, Msg: "empty bracket key"}
	}
	return segment{key: key}, i + 1, nil
}

// parseQuoted reads a quoted key starting at the opening quote and returns
// the unquoted text and the position after the closing quote.
func parseQuoted(expr string, i int) (string, int, error) {
	quote := expr[i]
	j := i + 1
	for j < len(expr) && expr[j] != quote {
		j++
	}
	if j >= len(expr) {
		return "", 0, &SyntaxError{Expr: expr, Pos: i, Msg: "unterminated quote"}
	}
	return expr[i+1 : j], j + 1, nil
}
