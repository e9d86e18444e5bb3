package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Node adapts a goquery selection of a single node to Element.
type Node struct {
	sel *goquery.Selection
}

func NewDocument(content string) (*Node, error) {
	return NewDocumentFromReader(strings.NewReader(content))
}

func NewDocumentFromReader(r io.Reader) (*Node, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &Node{sel: doc.Selection}, nil
}

func FromSelection(sel *goquery.Selection) *Node {
	return &Node{sel: sel.First()}
}

func (n *Node) QueryAll(selector string) ([]Element, error) {
	return wrap(n.sel.Find(selector)), nil
}

func (n *Node) QueryContainingText(substr string) ([]Element, error) {
	matches := n.sel.Find("*").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(firstText(s.Get(0)), substr)
	})
	return wrap(matches), nil
}

func (n *Node) Text() (string, error) {
	return strings.Join(strings.Fields(n.sel.Text()), " "), nil
}

func (n *Node) Attr(name string) (string, error) {
	value, _ := n.sel.Attr(name)
	return strings.TrimSpace(value), nil
}

func (n *Node) HTML() (string, error) {
	return goquery.OuterHtml(n.sel)
}

func wrap(sel *goquery.Selection) []Element {
	elements := make([]Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		elements = append(elements, &Node{sel: s})
	})
	return elements
}

// firstText mirrors XPath 1.0 text() in a string context: only the first
// text child counts.
func firstText(n *html.Node) string {
	if n == nil {
		return ""
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			return c.Data
		}
	}
	return ""
}
