package tree

import (
	"context"
	"strings"
	"testing"

	"github.com/wilkmaciej/xpath"

	xmltokenizer "github.com/wilkmaciej/xmltokenizer"
)

// =============================================================================
// TEST UTILITIES
// =============================================================================

func buildAll(t *testing.T, doc string, streamNames []string) []*Node {
	t.Helper()
	b := NewBuilder(context.Background(), strings.NewReader(doc), streamNames, 10)
	var nodes []*Node
	for n := range b.Nodes() {
		nodes = append(nodes, n)
	}
	return nodes
}

func buildOne(t *testing.T, doc, streamName string) *Node {
	t.Helper()
	nodes := buildAll(t, doc, []string{streamName})
	if len(nodes) != 1 {
		t.Fatalf("expected exactly one %q element, got %d", streamName, len(nodes))
	}
	return nodes[0]
}

func queryText(t *testing.T, n *Node, query string) string {
	t.Helper()
	expr, err := xpath.Compile(query)
	if err != nil {
		t.Fatalf("xpath.Compile(%q): %v", query, err)
	}
	return n.Text(expr)
}

// =============================================================================
// TREE STRUCTURE
// =============================================================================

func TestBuildSimpleElement(t *testing.T) {
	n := buildOne(t, `<item>hello</item>`, "item")
	want := xmltokenizer.QName{Local: "item"}
	if n.Name != want {
		t.Errorf("Name = %+v, want %+v", n.Name, want)
	}
	if got := n.InnerText(); got != "hello" {
		t.Errorf("InnerText = %q", got)
	}
	if n.Parent() != nil {
		t.Error("delivered element must be detached from its parent")
	}
}

func TestBuildNestedElements(t *testing.T) {
	n := buildOne(t, `<order><id>7</id><sku>ab</sku></order>`, "order")
	kids := n.Elements()
	if len(kids) != 2 {
		t.Fatalf("expected 2 element children, got %d", len(kids))
	}
	if kids[0].Name.Local != "id" || kids[1].Name.Local != "sku" {
		t.Errorf("children = %q, %q", kids[0].Name.Local, kids[1].Name.Local)
	}
	if kids[0].Parent() != n {
		t.Error("child not linked to its parent")
	}
	if got := n.InnerText(); got != "7ab" {
		t.Errorf("InnerText = %q", got)
	}
}

func TestBuildSelfClosingElement(t *testing.T) {
	n := buildOne(t, `<root><item/></root>`, "item")
	if len(n.Elements()) != 0 || n.InnerText() != "" {
		t.Errorf("self-closing element has content: %q", n.InnerText())
	}
}

func TestBuildMultipleMatches(t *testing.T) {
	nodes := buildAll(t, `<r><item>1</item><x/><item>2</item></r>`, []string{"item"})
	if len(nodes) != 2 {
		t.Fatalf("expected 2 items, got %d", len(nodes))
	}
	if nodes[0].InnerText() != "1" || nodes[1].InnerText() != "2" {
		t.Errorf("items out of order: %q, %q", nodes[0].InnerText(), nodes[1].InnerText())
	}
}

func TestBuildWhitespacePreserved(t *testing.T) {
	n := buildOne(t, "<item>  a\n\tb  </item>", "item")
	if got := n.InnerText(); got != "  a\n\tb  " {
		t.Errorf("InnerText = %q", got)
	}
}

func TestBuildMixedContent(t *testing.T) {
	n := buildOne(t, `<item>a<b>c</b>d</item>`, "item")
	if got := n.InnerText(); got != "acd" {
		t.Errorf("InnerText = %q", got)
	}
}

// =============================================================================
// ATTRIBUTES
// =============================================================================

func TestAttributesAsWritten(t *testing.T) {
	n := buildOne(t, `<item id="1" name='two' xmlns:x="u"/>`, "item")
	if len(n.Attrs) != 3 {
		t.Fatalf("expected 3 attributes, got %v", n.Attrs)
	}
	want := []Attr{
		{Name: xmltokenizer.QName{Local: "id"}, Value: "1"},
		{Name: xmltokenizer.QName{Local: "name"}, Value: "two"},
		{Name: xmltokenizer.QName{Prefix: "xmlns", Local: "x"}, Value: "u"},
	}
	for i, a := range want {
		if n.Attrs[i] != a {
			t.Errorf("attribute %d = %+v, want %+v", i, n.Attrs[i], a)
		}
	}
}

func TestPrefixedAttributeResolvesNamespace(t *testing.T) {
	n := buildOne(t, `<r xmlns:m="u"><item m:id="1" plain="2"/></r>`, "item")
	if len(n.Attrs) != 2 {
		t.Fatalf("attributes = %v", n.Attrs)
	}
	if got := n.Attrs[0].Name.URI; got != "u" {
		t.Errorf("prefixed attribute URI = %q, want u", got)
	}
	if got := n.Attrs[1].Name.URI; got != "" {
		t.Errorf("unprefixed attribute URI = %q, the default binding must not apply", got)
	}
}

func TestAttributeValueWithSpaces(t *testing.T) {
	n := buildOne(t, `<r><item note="a b c"/></r>`, "item")
	if len(n.Attrs) != 1 || n.Attrs[0].Value != "a b c" {
		t.Errorf("attributes = %v", n.Attrs)
	}
}

func TestNoAttributes(t *testing.T) {
	n := buildOne(t, `<item></item>`, "item")
	if len(n.Attrs) != 0 {
		t.Errorf("attributes = %v", n.Attrs)
	}
}

// =============================================================================
// NAMESPACES
// =============================================================================

func TestDefaultNamespaceInherited(t *testing.T) {
	n := buildOne(t, `<root xmlns="u"><item/></root>`, "item")
	if got := n.Name.URI; got != "u" {
		t.Errorf("URI = %q, want u", got)
	}
}

func TestPrefixedNamespace(t *testing.T) {
	n := buildOne(t, `<root xmlns:x="u"><x:item/></root>`, "x:item")
	want := xmltokenizer.QName{URI: "u", Local: "item", Prefix: "x"}
	if n.Name != want {
		t.Errorf("Name = %+v, want %+v", n.Name, want)
	}
}

func TestNamespaceOverrideInChild(t *testing.T) {
	doc := `<root xmlns="u"><mid xmlns="v"><item/></mid></root>`
	n := buildOne(t, doc, "item")
	if got := n.Name.URI; got != "v" {
		t.Errorf("URI = %q, want the innermost binding v", got)
	}
}

func TestNamespaceResetToEmpty(t *testing.T) {
	doc := `<root xmlns="u"><mid xmlns=""><item/></mid></root>`
	n := buildOne(t, doc, "item")
	if got := n.Name.URI; got != "" {
		t.Errorf("URI = %q, want empty after xmlns=\"\"", got)
	}
}

// =============================================================================
// NON-ELEMENT CONTENT
// =============================================================================

func TestCDATAContent(t *testing.T) {
	n := buildOne(t, `<item><![CDATA[x < y & z]]></item>`, "item")
	if got := n.InnerText(); got != "x < y & z" {
		t.Errorf("InnerText = %q", got)
	}
}

func TestEmptyCDATADropped(t *testing.T) {
	n := buildOne(t, `<item><![CDATA[]]></item>`, "item")
	if got := n.InnerText(); got != "" {
		t.Errorf("InnerText = %q", got)
	}
}

func TestCommentExcludedFromText(t *testing.T) {
	n := buildOne(t, `<item>a<!--note-->b</item>`, "item")
	if got := n.InnerText(); got != "ab" {
		t.Errorf("InnerText = %q", got)
	}
	if got := queryText(t, n, "comment()"); got != "note" {
		t.Errorf("comment() = %q", got)
	}
}

func TestDeclarationAndDoctypeIgnored(t *testing.T) {
	doc := `<?xml version="1.0"?><!DOCTYPE r><r><item>x</item></r>`
	n := buildOne(t, doc, "item")
	if got := n.InnerText(); got != "x" {
		t.Errorf("InnerText = %q", got)
	}
}

// =============================================================================
// STREAMING CONTRACT
// =============================================================================

func TestNilStreamNamesDeliversNothing(t *testing.T) {
	if nodes := buildAll(t, `<r><item/></r>`, nil); len(nodes) != 0 {
		t.Errorf("expected no nodes, got %d", len(nodes))
	}
}

func TestStreamMultipleNames(t *testing.T) {
	nodes := buildAll(t, `<r><a>1</a><b>2</b><c>3</c></r>`, []string{"a", "c"})
	if len(nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(nodes))
	}
	if nodes[0].Name.Local != "a" || nodes[1].Name.Local != "c" {
		t.Errorf("nodes = %q, %q", nodes[0].Name.Local, nodes[1].Name.Local)
	}
}

func TestNodesReturnsSameChannel(t *testing.T) {
	b := NewBuilder(context.Background(), strings.NewReader(`<r/>`), nil, 0)
	if b.Nodes() != b.Nodes() {
		t.Error("Nodes must hand back the same channel on every call")
	}
	for range b.Nodes() {
	}
}

func TestContextCancellationStopsParsing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var doc strings.Builder
	doc.WriteString("<r>")
	for i := 0; i < 1000; i++ {
		doc.WriteString("<item>x</item>")
	}
	doc.WriteString("</r>")

	b := NewBuilder(ctx, strings.NewReader(doc.String()), []string{"item"}, 1)
	count := 0
	for range b.Nodes() {
		count++
	}
	if count == 1000 {
		t.Error("cancelled context did not interrupt parsing")
	}
}

// =============================================================================
// XPATH QUERIES
// =============================================================================

const orderDoc = `<order id="9"><sku q="2">ab</sku><sku q="3">cd</sku><note>n</note></order>`

func TestQueryChildSelect(t *testing.T) {
	n := buildOne(t, orderDoc, "order")
	if got := queryText(t, n, "note"); got != "n" {
		t.Errorf("note = %q", got)
	}
}

func TestQueryAttributeSelect(t *testing.T) {
	n := buildOne(t, orderDoc, "order")
	if got := queryText(t, n, "@id"); got != "9" {
		t.Errorf("@id = %q", got)
	}
}

func TestQueryCount(t *testing.T) {
	n := buildOne(t, orderDoc, "order")
	if got := queryText(t, n, "count(sku)"); got != "2" {
		t.Errorf("count(sku) = %q", got)
	}
}

func TestQueryPredicate(t *testing.T) {
	n := buildOne(t, orderDoc, "order")
	if got := queryText(t, n, "sku[@q='3']"); got != "cd" {
		t.Errorf("sku[@q='3'] = %q", got)
	}
}

func TestQueryTextNode(t *testing.T) {
	n := buildOne(t, orderDoc, "order")
	if got := queryText(t, n, "note/text()"); got != "n" {
		t.Errorf("note/text() = %q", got)
	}
}

func TestQueryStringFunction(t *testing.T) {
	n := buildOne(t, orderDoc, "order")
	if got := queryText(t, n, "string(note)"); got != "n" {
		t.Errorf("string(note) = %q", got)
	}
}

func TestQueryBoolean(t *testing.T) {
	n := buildOne(t, orderDoc, "order")
	if got := queryText(t, n, "count(sku) > 1"); got != "true" {
		t.Errorf("count(sku) > 1 = %q", got)
	}
}

func TestQuerySiblingAxes(t *testing.T) {
	n := buildOne(t, orderDoc, "order")
	if got := queryText(t, n, "sku/following-sibling::note"); got != "n" {
		t.Errorf("following-sibling = %q", got)
	}
	if got := queryText(t, n, "count(note/preceding-sibling::sku)"); got != "2" {
		t.Errorf("preceding-sibling count = %q", got)
	}
}

func TestQueryNoMatch(t *testing.T) {
	n := buildOne(t, orderDoc, "order")
	if got := queryText(t, n, "missing"); got != "" {
		t.Errorf("missing = %q", got)
	}
}

// =============================================================================
// TOKENIZER INTEGRATION
// =============================================================================

// The tree package is the downstream consumer of streamed fragments: each
// inject-mode fragment carries its inherited bindings, so prefixed XPath
// queries resolve against the fragment alone.
func TestMaterializeTokenizedFragments(t *testing.T) {
	doc := `<feed xmlns:g="http://g"><item><g:id>1</g:id></item><item><g:id>2</g:id></item></feed>`

	cur, err := xmltokenizer.Tokenize(
		xmltokenizer.StaticMessage{Reader: strings.NewReader(doc)}, "//item", nil, false)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	defer cur.Close()

	expr, err := xpath.Compile("g:id")
	if err != nil {
		t.Fatal(err)
	}

	var ids []string
	for cur.HasNext() {
		frag := cur.Next()
		if !strings.Contains(frag, `xmlns:g="http://g"`) {
			t.Fatalf("fragment lost its inherited binding: %s", frag)
		}
		for n := range NewBuilder(context.Background(), strings.NewReader(frag), []string{"item"}, 0).Nodes() {
			ids = append(ids, n.Text(expr))
		}
	}
	if err := cur.LastError(); err != nil {
		t.Fatalf("stream error: %v", err)
	}
	if len(ids) != 2 || ids[0] != "1" || ids[1] != "2" {
		t.Errorf("ids = %v", ids)
	}
}
