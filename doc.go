// Package xmltokenizer streams contextual XML fragments out of a large XML
// document as it is read, without ever materializing the whole document in
// memory.
//
// Given a path-like selector such as "/orders/order" or "//item", Tokenize
// returns a Cursor that yields one well-formed XML fragment per matched
// element, in document order. Each fragment carries the namespace bindings
// it inherited from its ancestors, either by wrapping it in synthetic copies
// of those ancestors' tags (wrap mode) or by splicing the missing xmlns
// declarations directly into the matched element's own start tag (inject
// mode).
//
// The package does not validate the document, does not resolve entities
// beyond what the underlying event reader does, does not rewrite namespace
// prefixes, and does not own or close the byte stream it is given.
package xmltokenizer
