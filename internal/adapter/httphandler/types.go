package httphandler

import (
	"encoding/json"

	"github.com/niksmo/catalog/internal/core/domain"
)

type (
	// Product price is a JSON number with exactly two fraction digits.
	Product struct {
		ID       int64           `json:"id"`
		Name     string          `json:"name"`
		Category string          `json:"category"`
		Price    json.RawMessage `json:"price"`
		Image    *string         `json:"image"`
	}

	ErrorResponse struct {
		Error string `json:"error"`
	}

	MessageResponse struct {
		Message string `json:"message"`
	}

	HealthResponse struct {
		OK    bool   `json:"ok"`
		Error string `json:"error,omitempty"`
	}
)

func fromDomain(p domain.Product) Product {
	res := Product{
		ID:       p.ID,
		Name:     p.Name,
		Category: p.Category,
		Price:    json.RawMessage(p.Price.StringFixed(domain.PriceScale)),
	}
	if p.HasImage() {
		image := p.Image
		res.Image = &image
	}
	return res
}

func fromDomainList(ps []domain.Product) []Product {
	res := make([]Product, len(ps))
	for i, p := range ps {
		res[i] = fromDomain(p)
	}
	return res
}
