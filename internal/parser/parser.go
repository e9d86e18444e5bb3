package parser

import (
	"errors"

	"github.com/maltedev/listing-scraper/internal/models"
)

var (
	ErrElementNotFound = errors.New("element not found")
	ErrMissingField    = errors.New("mandatory field missing")
	ErrNoPrice         = errors.New("no price found")
)

// Element is one node of a rendered page. Implementations exist for live
// browser handles and for parsed HTML snapshots.
type Element interface {
	// QueryAll returns the descendants matching a CSS selector.
	QueryAll(selector string) ([]Element, error)
	// QueryContainingText returns descendants whose own text contains substr,
	// i.e. the XPath .//*[contains(text(), substr)].
	QueryContainingText(substr string) ([]Element, error)
	Text() (string, error)
	// Attr returns "" when the attribute is absent.
	Attr(name string) (string, error)
}

type Parser interface {
	Extract(el Element) (*models.Product, error)
}

// First returns the first descendant matching selector.
func First(el Element, selector string) (Element, error) {
	found, err := el.QueryAll(selector)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, ErrElementNotFound
	}
	return found[0], nil
}
