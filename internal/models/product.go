package models

// ColorsNotAvailable is stored when a listing tile has no colour information.
const ColorsNotAvailable = "N/A"

type Product struct {
	Name        string   `json:"name"`
	ImageURL    string   `json:"image_url"`
	NewPrice    *float64 `json:"new_price"`
	OldPrice    *float64 `json:"old_price"`
	Colors      string   `json:"colors"`
	ProductLink string   `json:"product_link"`
}

func NewProduct(name, imageURL, link string) *Product {
	return &Product{
		Name:        name,
		ImageURL:    imageURL,
		ProductLink: link,
		Colors:      ColorsNotAvailable,
	}
}

func (p *Product) HasPrice() bool {
	return p.NewPrice != nil
}

// Discount returns the reduction from the old to the new price in percent.
func (p *Product) Discount() (float64, bool) {
	if p.NewPrice == nil || p.OldPrice == nil || *p.OldPrice <= 0 {
		return 0, false
	}
	return (*p.OldPrice - *p.NewPrice) / *p.OldPrice * 100, true
}

func (p *Product) Validate() []string {
	var errors []string

	if p.Name == "" {
		errors = append(errors, "name is required")
	}

	if p.ImageURL == "" {
		errors = append(errors, "image_url is required")
	}

	if p.ProductLink == "" {
		errors = append(errors, "product_link is required")
	}

	if p.Colors == "" {
		errors = append(errors, "colors must be set or N/A")
	}

	return errors
}

func Float(v float64) *float64 {
	return &v
}
