package port

import (
	"context"
	"io"

	"github.com/niksmo/catalog/internal/core/domain"
)

type (
	closer interface {
		Close()
	}
)

// ProductsService is the inbound port used by the HTTP surface.
type ProductsService interface {
	CreateProduct(context.Context, domain.ProductFields, *domain.Upload) (domain.Product, error)
	ListProducts(context.Context) ([]domain.Product, error)
	UpdateProduct(context.Context, int64, domain.ProductFields, *domain.Upload) (domain.Product, error)
	DeleteProduct(context.Context, int64) error
	OpenImage(ctx context.Context, name string) (io.ReadCloser, error)
}

type ProductsRepository interface {
	Create(ctx context.Context, f domain.ProductFields, image string) (int64, error)
	ListAll(context.Context) ([]domain.Product, error)
	GetImageOf(ctx context.Context, id int64) (string, error)
	Update(ctx context.Context, id int64, f domain.ProductFields, image string) error
	Delete(ctx context.Context, id int64) error
}

type BlobStore interface {
	// Store validates the extension hint, persists content under a fresh
	// name and returns that name.
	Store(ctx context.Context, content io.Reader, extHint string) (string, error)
	// Delete is idempotent: a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	Exists(ctx context.Context, name string) (bool, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

type EventsProducer interface {
	ProduceEvent(context.Context, domain.ProductEvent) error
	closer
}
