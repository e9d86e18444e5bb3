package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/maltedev/listing-scraper/internal/models"
)

const DefaultFilename = "zen_products.json"

// Encode renders products as an indented JSON array with non-ASCII and HTML
// characters left unescaped. A nil slice encodes as [].
func Encode(products []*models.Product) ([]byte, error) {
	if products == nil {
		products = []*models.Product{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")

	if err := enc.Encode(products); err != nil {
		return nil, fmt.Errorf("failed to encode products: %w", err)
	}

	return buf.Bytes(), nil
}

func WriteProducts(filename string, products []*models.Product) error {
	if filename == "" {
		filename = DefaultFilename
	}

	data, err := Encode(products)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Write to temp file first for atomicity
	tmpFile := filename + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmpFile, err)
	}

	if err := os.Rename(tmpFile, filename); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to move %s into place: %w", filename, err)
	}

	return nil
}

func ReadProducts(filename string) ([]*models.Product, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var products []*models.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filename, err)
	}

	return products, nil
}
