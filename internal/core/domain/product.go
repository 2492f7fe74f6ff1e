package domain

import (
	"io"
	"time"

	"github.com/shopspring/decimal"
)

// PriceScale is the number of fraction digits a price is stored with.
const PriceScale = 2

type (
	Product struct {
		ID       int64
		Name     string
		Category string
		Price    decimal.Decimal
		// Image is the stored blob name, empty when the product has no image.
		Image string
	}

	ProductFields struct {
		Name     string
		Category string
		Price    decimal.Decimal
	}

	// Upload is an image received from a client. Filename is used only
	// for its extension.
	Upload struct {
		Filename string
		Content  io.Reader
	}
)

func (p Product) Fields() ProductFields {
	return ProductFields{Name: p.Name, Category: p.Category, Price: p.Price}
}

func (p Product) HasImage() bool {
	return p.Image != ""
}

type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
)

type ProductEvent struct {
	Type       EventType
	Product    Product
	OccurredAt time.Time
}
