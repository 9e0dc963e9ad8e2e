// Package tree builds a full in-memory XML document tree with XPath query
// support, for the xmltok CLI's tree subcommand — an ahead-of-time,
// whole-document alternative to the streaming fragment tokenizer in the
// parent package, useful for inspecting a document's structure or
// prototyping a selector before running it against a large stream.
//
// It is not part of the streaming tokenizer's match engine: the tokenizer
// never materializes more of the document than one matched element's
// ancestor chain at a time, while Builder parses the entire input into
// Nodes up front. Both ride the same event reader, so their view of names,
// namespace declarations and self-closing tags is identical.
package tree
