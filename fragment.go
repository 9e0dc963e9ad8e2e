package xmltokenizer

import "strings"

// buildWrapFragment assembles a wrap-mode fragment: every recorded ancestor
// start tag (segments, innermost last — the matched element's own start tag
// is already its last entry), the matched element's inner content through
// its own closing tag (innerClose), then synthetic closing tags for every
// ancestor still open, innermost first.
func buildWrapFragment(segments []string, innerClose, closingTags string) string {
	var sb strings.Builder
	for _, seg := range segments {
		sb.WriteString(seg)
	}
	sb.WriteString(innerClose)
	sb.WriteString(closingTags)
	return sb.String()
}

// buildInjectFragment assembles an inject-mode fragment: the matched
// element alone, with its inherited namespace bindings spliced into its own
// start tag. startTag is the verbatim "<name ...>" or "<name .../>" text;
// innerClose is everything after it through the element's own closing tag
// (empty for a self-closing start tag). frame is the full namespace
// binding set in scope at the match point.
func buildInjectFragment(startTag, innerClose string, frame nsFrame) string {
	if len(frame) == 0 {
		return startTag + innerClose
	}

	selfClosing := strings.HasSuffix(startTag, "/>")
	closeLen := 1
	if selfClosing {
		closeLen = 2
	}
	head := startTag[:len(startTag)-closeLen]
	tail := startTag[len(startTag)-closeLen:]

	declared := scanDeclaredPrefixes(startTag)
	quote := detectQuote(startTag)

	var missing []NSDecl
	for prefix, uri := range frame {
		if _, ok := declared[prefix]; ok {
			continue
		}
		missing = append(missing, NSDecl{Prefix: prefix, URI: uri})
	}
	sortNSDecls(missing)

	var sb strings.Builder
	sb.WriteString(head)
	for _, d := range missing {
		sb.WriteByte(' ')
		if d.Prefix == "" {
			sb.WriteString("xmlns=")
		} else {
			sb.WriteString("xmlns:")
			sb.WriteString(d.Prefix)
			sb.WriteByte('=')
		}
		sb.WriteByte(quote)
		sb.WriteString(d.URI)
		sb.WriteByte(quote)
	}
	sb.WriteString(tail)
	sb.WriteString(innerClose)
	return sb.String()
}

// scanDeclaredPrefixes returns the prefixes already declared on a start
// tag, using the same quote-aware attribute walk the event reader uses for
// inherited declarations.
func scanDeclaredPrefixes(startTag string) map[string]struct{} {
	tag := []byte(startTag)
	i := 0
	for i < len(tag) && !isAttrSpace(tag[i]) && tag[i] != '>' {
		i++ // skip "<name"
	}
	declared := map[string]struct{}{}
	for _, d := range scanNamespaceDecls(tag[i:]) {
		declared[d.Prefix] = struct{}{}
	}
	return declared
}

// detectQuote returns the first quote character used by the start tag's
// attributes, xmlns declarations or not, defaulting to '"' when the tag has
// no quoted attribute to take a cue from.
func detectQuote(startTag string) byte {
	for i := 0; i < len(startTag); i++ {
		if startTag[i] == '"' {
			return '"'
		}
		if startTag[i] == '\'' {
			return '\''
		}
	}
	return '"'
}

// sortNSDecls orders injected declarations by prefix for deterministic
// output; the set of missing prefixes is otherwise unordered since it comes
// from a map.
func sortNSDecls(decls []NSDecl) {
	for i := 1; i < len(decls); i++ {
		for j := i; j > 0 && decls[j-1].Prefix > decls[j].Prefix; j-- {
			decls[j-1], decls[j] = decls[j], decls[j-1]
		}
	}
}
