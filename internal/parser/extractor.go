package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/maltedev/listing-scraper/internal/models"
)

// Selectors locate the fields of one listing tile.
type Selectors struct {
	Item     string
	Name     string
	Image    string
	Prices   []string
	Currency string
	Colors   string
	Link     string
}

func DefaultSelectors() Selectors {
	return Selectors{
		Item:     "div.single-products-box",
		Name:     "h3 a",
		Image:    "img",
		Prices:   []string{".new-price", ".prices-zone strong"},
		Currency: "TND",
		Colors:   ".more-colors",
		Link:     "a.d-block",
	}
}

var imageAttributes = []string{"src", "data-src"}

// textSource yields the text of one candidate element, or ok=false when the
// candidate is not present in the tile.
type textSource func(el Element) (text string, ok bool, err error)

type Extractor struct {
	selectors    Selectors
	priceSources []textSource
	base         *url.URL
	logger       *slog.Logger
}

type ExtractorOption func(*Extractor)

// WithBaseURL resolves relative image and product links against base.
func WithBaseURL(base string) ExtractorOption {
	return func(e *Extractor) {
		if u, err := url.Parse(base); err == nil && u.IsAbs() {
			e.base = u
		}
	}
}

func WithLogger(logger *slog.Logger) ExtractorOption {
	return func(e *Extractor) {
		e.logger = logger.With("component", "extractor")
	}
}

func NewExtractor(selectors Selectors, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		selectors: selectors,
		logger:    slog.Default().With("component", "extractor"),
	}
	for _, opt := range opts {
		opt(e)
	}

	for _, selector := range selectors.Prices {
		e.priceSources = append(e.priceSources, firstTextOf(selector))
	}
	if selectors.Currency != "" {
		e.priceSources = append(e.priceSources, containingText(selectors.Currency))
	}

	return e
}

func (e *Extractor) Selectors() Selectors {
	return e.selectors
}

// Extract builds a product from one tile. An error means the tile lacks a
// mandatory field (name, image or link) and must be skipped; price and
// colour problems only leave those fields empty.
func (e *Extractor) Extract(el Element) (product *models.Product, err error) {
	defer func() {
		if r := recover(); r != nil {
			product, err = nil, fmt.Errorf("extractor panic: %v", r)
		}
	}()

	name, err := e.extractName(el)
	if err != nil {
		return nil, err
	}

	imageURL, err := e.extractImage(el)
	if err != nil {
		return nil, err
	}

	link, err := e.extractLink(el)
	if err != nil {
		return nil, err
	}

	product = models.NewProduct(name, imageURL, link)

	newPrice, oldPrice, err := e.ExtractPrices(el)
	if err != nil {
		e.logger.Warn("price extraction failed", "product_link", link, "error", err)
	} else {
		product.NewPrice = newPrice
		product.OldPrice = oldPrice
	}

	product.Colors = e.extractColors(el)

	return product, nil
}

// ExtractPrices walks the price sources in order; the first source present
// in the tile supplies the text.
func (e *Extractor) ExtractPrices(el Element) (*float64, *float64, error) {
	for _, source := range e.priceSources {
		text, ok, err := source(el)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			continue
		}
		if strings.TrimSpace(text) == "" {
			break
		}
		return ParsePrices(text, e.selectors.Currency)
	}
	return nil, nil, ErrNoPrice
}

func (e *Extractor) extractName(el Element) (string, error) {
	name, ok, err := firstTextOf(e.selectors.Name)(el)
	if err != nil {
		return "", fmt.Errorf("%w: name: %v", ErrMissingField, err)
	}
	if !ok || name == "" {
		return "", fmt.Errorf("%w: name (%s)", ErrMissingField, e.selectors.Name)
	}
	return name, nil
}

func (e *Extractor) extractImage(el Element) (string, error) {
	img, err := First(el, e.selectors.Image)
	if err != nil {
		return "", fmt.Errorf("%w: image (%s): %v", ErrMissingField, e.selectors.Image, err)
	}

	for _, attr := range imageAttributes {
		src, err := img.Attr(attr)
		if err != nil {
			return "", fmt.Errorf("%w: image %s: %v", ErrMissingField, attr, err)
		}
		if src != "" {
			return e.resolve(src), nil
		}
	}

	return "", fmt.Errorf("%w: image has no source", ErrMissingField)
}

func (e *Extractor) extractLink(el Element) (string, error) {
	a, err := First(el, e.selectors.Link)
	if err != nil {
		return "", fmt.Errorf("%w: link (%s): %v", ErrMissingField, e.selectors.Link, err)
	}

	href, err := a.Attr("href")
	if err != nil {
		return "", fmt.Errorf("%w: link href: %v", ErrMissingField, err)
	}
	if href == "" {
		return "", fmt.Errorf("%w: link has no href", ErrMissingField)
	}

	return e.resolve(href), nil
}

func (e *Extractor) extractColors(el Element) string {
	colors, ok, err := firstTextOf(e.selectors.Colors)(el)
	if err != nil {
		e.logger.Debug("colors extraction failed", "error", err)
		return models.ColorsNotAvailable
	}
	if !ok {
		return models.ColorsNotAvailable
	}
	return colors
}

func (e *Extractor) resolve(ref string) string {
	if e.base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return e.base.ResolveReference(u).String()
}

func firstTextOf(selector string) textSource {
	return func(el Element) (string, bool, error) {
		found, err := First(el, selector)
		if errors.Is(err, ErrElementNotFound) {
			return "", false, nil
		}
		if err != nil {
			return "", false, err
		}
		text, err := found.Text()
		if err != nil {
			return "", false, err
		}
		return strings.TrimSpace(text), true, nil
	}
}

func containingText(substr string) textSource {
	return func(el Element) (string, bool, error) {
		found, err := el.QueryContainingText(substr)
		if err != nil {
			return "", false, err
		}
		if len(found) == 0 {
			return "", false, nil
		}
		text, err := found[0].Text()
		if err != nil {
			return "", false, err
		}
		return strings.TrimSpace(text), true, nil
	}
}
