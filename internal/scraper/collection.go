package scraper

import (
	"github.com/maltedev/listing-scraper/internal/models"
)

// Collection keeps products unique by link in first-seen order.
type Collection struct {
	products []*models.Product
	seen     map[string]struct{}
}

func NewCollection() *Collection {
	return &Collection{
		products: make([]*models.Product, 0),
		seen:     make(map[string]struct{}),
	}
}

// Add stores p unless a product with the same link is already present.
func (c *Collection) Add(p *models.Product) bool {
	if p == nil {
		return false
	}
	if _, exists := c.seen[p.ProductLink]; exists {
		return false
	}
	c.seen[p.ProductLink] = struct{}{}
	c.products = append(c.products, p)
	return true
}

func (c *Collection) Contains(link string) bool {
	_, exists := c.seen[link]
	return exists
}

func (c *Collection) Len() int {
	return len(c.products)
}

func (c *Collection) Products() []*models.Product {
	out := make([]*models.Product, len(c.products))
	copy(out, c.products)
	return out
}
