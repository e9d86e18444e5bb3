package models

import (
	"time"

	"github.com/google/uuid"
)

// Run is one finished scrape of a listing page.
type Run struct {
	ID         uuid.UUID  `json:"id"`
	URL        string     `json:"url"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
	Products   []*Product `json:"products"`
}

func NewRun(url string) *Run {
	return &Run{
		ID:        uuid.New(),
		URL:       url,
		StartedAt: time.Now(),
		Products:  make([]*Product, 0),
	}
}

func (r *Run) Finish(products []*Product) {
	r.FinishedAt = time.Now()
	if products != nil {
		r.Products = products
	}
}

func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
