package browser

import (
	"fmt"
	"strings"

	"github.com/maltedev/listing-scraper/internal/parser"
	"github.com/playwright-community/playwright-go"
)

// locatorElement is a live element on a playwright page. Lookups go through
// All(), which returns immediately, so absent fields never wait for the
// default timeout.
type locatorElement struct {
	loc playwright.Locator
}

func (e *locatorElement) QueryAll(selector string) ([]parser.Element, error) {
	return locateAll(e.loc.Locator(selector))
}

func (e *locatorElement) QueryContainingText(substr string) ([]parser.Element, error) {
	return locateAll(e.loc.Locator(containsTextXPath(substr)))
}

func (e *locatorElement) Text() (string, error) {
	text, err := e.loc.InnerText()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (e *locatorElement) Attr(name string) (string, error) {
	value, err := e.loc.GetAttribute(name)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

func locateAll(loc playwright.Locator) ([]parser.Element, error) {
	all, err := loc.All()
	if err != nil {
		return nil, fmt.Errorf("failed to locate elements: %w", err)
	}

	elements := make([]parser.Element, 0, len(all))
	for _, l := range all {
		elements = append(elements, &locatorElement{loc: l})
	}
	return elements, nil
}

func containsTextXPath(substr string) string {
	return fmt.Sprintf("xpath=.//*[contains(text(), %s)]", xpathLiteral(substr))
}

// xpathLiteral quotes s for XPath 1.0, which has no escape sequences.
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}

	parts := strings.Split(s, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, part := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		quoted = append(quoted, "'"+part+"'")
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}
