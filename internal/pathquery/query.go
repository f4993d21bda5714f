// Package pathquery compiles dot/bracket field-extraction expressions into
// executable queries over semi-structured documents (nested maps, lists and
// scalars, as produced by JSON or YAML deserialization).
//
// A query is a union of one or more alternative paths. Evaluation tries each
// alternative in declared order and collects every non-null value found;
// missing intermediate keys are silent non-matches, never errors. All parsing
// happens once at compile time.
package pathquery

// Query is an immutable compiled union of alternative extraction paths.
type Query struct {
	alts []path
}

// Compile parses one or more path expressions into a single Query. A failed
// parse returns a *SyntaxError carrying the offending expression.
func Compile(exprs ...string) (*Query, error) {
	q := &Query{alts: make([]path, 0, len(exprs))}
	for _, expr := range exprs {
		p, err := parsePath(expr)
		if err != nil {
			return nil, err
		}
		q.alts = append(q.alts, p)
	}
	return q, nil
}

// Expressions returns the textual form of each alternative, in declared order.
func (q *Query) Expressions() []string {
	out := make([]string, len(q.alts))
	for i, p := range q.alts {
		out[i] = p.expr
	}
	return out
}

// Evaluate walks doc according to each alternative in declared order and
// returns every non-null value found. Nulls present in the document are
// treated as absent.
func (q *Query) Evaluate(doc map[string]interface{}) []interface{} {
	var values []interface{}
	for _, p := range q.alts {
		if v, ok := walk(doc, p.segments); ok {
			values = append(values, v)
		}
	}
	return values
}

// walk descends through nested mappings one segment at a time. It reports
// no match when a key is absent, an intermediate value is not a mapping, or
// the resolved value is null.
func walk(doc map[string]interface{}, segs []segment) (interface{}, bool) {
	var cur interface{} = doc
	for _, seg := range segs {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[seg.key]
		if !ok {
			return nil, false
		}
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}
