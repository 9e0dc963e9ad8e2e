package xmltokenizer

import "strings"

// segment is an attributed name: a qualified-name matcher extended with the
// ns-any and local-pattern flags from the selector data model. A nil
// *segment inside a Selector represents the descendant-or-self axis.
type segment struct {
	uri     string
	nsAny   bool
	local   string
	pattern *globPattern
}

// matches reports whether n satisfies this segment.
func (s *segment) matches(n QName) bool {
	if !s.nsAny && s.uri != n.URI {
		return false
	}
	if s.pattern != nil {
		return s.pattern.match(n.Local)
	}
	return s.local == n.Local
}

// Selector is a compiled path: an ordered sequence of segment matchers, with
// nil entries marking descendant-or-self positions. It is immutable once
// built by CompileSelector and may be shared across cursors.
type Selector []*segment

// CompileSelector parses a path string of the form "/seg1/seg2" into a
// Selector. Each raw segment is either empty (two consecutive separators,
// denoting descendant-or-self) or "[prefix:]local", where both prefix and
// local may contain '*' and '?' globs. prefixes resolves a written prefix to
// its namespace URI; an unmapped prefix resolves to the empty-string URI,
// the no-namespace sentinel. A prefix of "*" matches any namespace, and so
// does no prefix at all unless the caller maps "" to a URI explicitly.
//
// CompileSelector rejects an empty path, a path that ends in a
// descendant-or-self axis, and a path with two adjacent descendant-or-self
// axes.
func CompileSelector(path string, prefixes map[string]string) (Selector, error) {
	trimmed := strings.TrimPrefix(path, "/")
	if trimmed == "" {
		return nil, ErrEmptyPath
	}

	raw := strings.Split(trimmed, "/")
	sel := make(Selector, 0, len(raw))
	for _, s := range raw {
		if s == "" {
			sel = append(sel, nil)
			continue
		}
		seg, err := compileSegment(s, prefixes)
		if err != nil {
			return nil, err
		}
		sel = append(sel, seg)
	}

	if sel[len(sel)-1] == nil {
		return nil, &badSelectorError{path: path, reason: "ends in a descendant-or-self axis"}
	}
	for i := 1; i < len(sel); i++ {
		if sel[i] == nil && sel[i-1] == nil {
			return nil, &badSelectorError{path: path, reason: "has two adjacent descendant-or-self axes"}
		}
	}
	return sel, nil
}

func compileSegment(raw string, prefixes map[string]string) (*segment, error) {
	prefix, local := splitQName(raw)
	if local == "" {
		return nil, &badSelectorError{path: raw, reason: "segment has no local name"}
	}

	seg := &segment{local: local, pattern: compileGlob(local)}
	switch prefix {
	case "":
		// An unprefixed segment matches by local name in any namespace,
		// so plain paths keep working against documents that set a
		// default namespace. A caller that wants strict matching binds
		// the "" prefix explicitly.
		if uri, ok := prefixes[""]; ok {
			seg.uri = uri
		} else {
			seg.nsAny = true
		}
	case "*":
		seg.nsAny = true
	default:
		// An unmapped prefix resolves to the empty-string URI, the
		// no-namespace sentinel.
		seg.uri = prefixes[prefix]
	}
	return seg, nil
}

// isDescendantAxis reports whether the selector position at i is the null
// entry.
func (sel Selector) isDescendantAxis(i int) bool {
	return i >= 0 && i < len(sel) && sel[i] == nil
}

// at returns the segment a candidate name must satisfy to advance from
// position i: the position itself, or the one following it when i is a
// descendant-or-self axis.
func (sel Selector) at(i int) *segment {
	if sel.isDescendantAxis(i) {
		i++
	}
	if i >= len(sel) {
		return nil
	}
	return sel[i]
}

// isBottom reports whether position i (as resolved by at) is the last
// concrete position of the selector, i.e. a full match at i completes the
// path.
func (sel Selector) isBottom(i int) bool {
	if sel.isDescendantAxis(i) {
		i++
	}
	return i == len(sel)-1
}

// advanceAfterMatch returns the index to resume matching from, once the
// segment at i has matched a child element that is not yet the bottom of
// the path.
func (sel Selector) advanceAfterMatch(i int) int {
	if sel.isDescendantAxis(i) {
		return i + 2
	}
	return i + 1
}
