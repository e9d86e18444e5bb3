package parser

import (
	"errors"
	"os"
	"testing"

	"github.com/maltedev/listing-scraper/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingURL = "https://www.zen.com.tn/fr/tn/169-soldes-homme"

func loadTiles(t *testing.T) []Element {
	t.Helper()

	data, err := os.ReadFile("testdata/listing.html")
	require.NoError(t, err)

	doc, err := NewDocument(string(data))
	require.NoError(t, err)

	tiles, err := doc.QueryAll(DefaultSelectors().Item)
	require.NoError(t, err)
	require.Len(t, tiles, 7)

	return tiles
}

func TestExtractListingTiles(t *testing.T) {
	tiles := loadTiles(t)
	extractor := NewExtractor(DefaultSelectors(), WithBaseURL(listingURL))

	tests := []struct {
		name     string
		tile     int
		expected *models.Product
	}{
		{
			name: "New price element with reference price and colours",
			tile: 0,
			expected: &models.Product{
				Name:        "Chemise lin à manches courtes",
				ImageURL:    "https://www.zen.com.tn/img/p/1001-home.jpg",
				NewPrice:    ptr(120.5),
				OldPrice:    ptr(150.0),
				Colors:      "+3 couleurs",
				ProductLink: "https://www.zen.com.tn/fr/tn/chemise-lin-homme-1001.html",
			},
		},
		{
			name: "Prices zone fallback, lazy image and relative links",
			tile: 1,
			expected: &models.Product{
				Name:        "Polo piqué",
				ImageURL:    "https://www.zen.com.tn/img/p/1002-home.jpg",
				NewPrice:    ptr(89.9),
				Colors:      models.ColorsNotAvailable,
				ProductLink: "https://www.zen.com.tn/fr/tn/polo-pique-1002.html",
			},
		},
		{
			name: "Currency marker fallback",
			tile: 2,
			expected: &models.Product{
				Name:        "Jean slim",
				ImageURL:    "https://www.zen.com.tn/img/p/1003-home.jpg",
				NewPrice:    ptr(59.9),
				Colors:      models.ColorsNotAvailable,
				ProductLink: "https://www.zen.com.tn/fr/tn/jean-slim-1003.html",
			},
		},
		{
			name: "Unparseable price keeps the record",
			tile: 3,
			expected: &models.Product{
				Name:        "Veste légère",
				ImageURL:    "https://www.zen.com.tn/img/p/1004-home.jpg",
				Colors:      "Bleu, Noir",
				ProductLink: "https://www.zen.com.tn/fr/tn/veste-1004.html",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			product, err := extractor.Extract(tiles[tt.tile])
			require.NoError(t, err)
			assert.Equal(t, tt.expected, product)
			assert.Empty(t, product.Validate())
		})
	}
}

func TestExtractDiscardsTilesWithoutMandatoryFields(t *testing.T) {
	tiles := loadTiles(t)
	extractor := NewExtractor(DefaultSelectors())

	tests := []struct {
		name string
		tile int
	}{
		{name: "Missing image", tile: 4},
		{name: "Missing name", tile: 5},
		{name: "Missing link", tile: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			product, err := extractor.Extract(tiles[tt.tile])
			assert.Nil(t, product)
			assert.ErrorIs(t, err, ErrMissingField)
		})
	}
}

func TestExtractWithoutBaseURLKeepsRelativeLinks(t *testing.T) {
	tiles := loadTiles(t)

	product, err := NewExtractor(DefaultSelectors()).Extract(tiles[1])
	require.NoError(t, err)
	assert.Equal(t, "/fr/tn/polo-pique-1002.html", product.ProductLink)
	assert.Equal(t, "/img/p/1002-home.jpg", product.ImageURL)
}

func TestExtractPricesEmptyFirstSourceStops(t *testing.T) {
	doc, err := NewDocument(`<div class="tile">
		<span class="new-price"> </span>
		<div class="prices-zone"><strong>45.000 TND</strong></div>
	</div>`)
	require.NoError(t, err)

	tile, err := First(doc, "div.tile")
	require.NoError(t, err)

	newPrice, oldPrice, err := NewExtractor(DefaultSelectors()).ExtractPrices(tile)
	assert.ErrorIs(t, err, ErrNoPrice)
	assert.Nil(t, newPrice)
	assert.Nil(t, oldPrice)
}

type brokenElement struct{}

func (brokenElement) QueryAll(string) ([]Element, error) {
	return nil, errors.New("stale element reference")
}

func (brokenElement) QueryContainingText(string) ([]Element, error) {
	return nil, errors.New("stale element reference")
}

func (brokenElement) Text() (string, error)       { return "", errors.New("detached") }
func (brokenElement) Attr(string) (string, error) { return "", errors.New("detached") }

func TestExtractQueryErrorDiscardsRecord(t *testing.T) {
	product, err := NewExtractor(DefaultSelectors()).Extract(brokenElement{})
	assert.Nil(t, product)
	assert.ErrorIs(t, err, ErrMissingField)
}

type panickingElement struct{ brokenElement }

func (panickingElement) QueryAll(string) ([]Element, error) {
	panic("driver crashed")
}

func TestExtractRecoversFromPanic(t *testing.T) {
	product, err := NewExtractor(DefaultSelectors()).Extract(panickingElement{})
	assert.Nil(t, product)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "driver crashed")
}
